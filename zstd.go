package textwire

// ZstdCompressor compresses text using the zstd format, prefixed with
// the uncompressed length.
type ZstdCompressor struct {
	Level int // compression level, ZstdDefaultCompression when zero
}

// Zstd constants
const (
	ZstdBestSpeed          = 1
	ZstdBestCompression    = 20
	ZstdDefaultCompression = 3
)

func (ZstdCompressor) tag() string { return "zstd" }

func (c ZstdCompressor) compress(buf []byte) ([]byte, error) {
	if c.Level == 0 {
		c.Level = ZstdDefaultCompression
	}
	tail, err := zstdEncode(buf, c.Level)
	if err != nil {
		return nil, err
	}
	return withLength(len(buf), tail), nil
}

func (ZstdCompressor) decompress(buf []byte) ([]byte, error) {
	n, tail, err := splitLength(buf)
	if err != nil {
		return nil, err
	}
	out, err := zstdDecode(make([]byte, 0, initialCap(n, len(tail))), tail)
	if err != nil {
		return nil, err
	}
	if len(out) != n {
		return nil, errCorruptLength
	}
	return out, nil
}
