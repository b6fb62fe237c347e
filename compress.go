package textwire

import (
	"encoding/binary"
	"errors"
)

// A Compressor shrinks text values written behind a !!tag. The methods
// are unexported; use one of the compressors in this package.
type Compressor interface {
	tag() string
	compress(b []byte) ([]byte, error)
	decompress(b []byte) ([]byte, error)
}

// ErrTooLarge is returned when a value is too large to compress.
var ErrTooLarge = errors.New("textwire: value too large to compress")

var errCorruptLength = errors.New("textwire: corrupt compressed length")

// compressorFor returns the compressor written as !!tag, or nil.
func compressorFor(tag string) Compressor {
	switch tag {
	case SnappyCompressor{}.tag():
		return SnappyCompressor{}
	case ZstdCompressor{}.tag():
		return ZstdCompressor{}
	case LZ4Compressor{}.tag():
		return LZ4Compressor{}
	case ZlibCompressor{}.tag():
		return ZlibCompressor{}
	}
	return nil
}

// CompressorByName returns the compressor for tag, failing with
// ErrUnknownCodec.
func CompressorByName(tag string) (Compressor, error) {
	if c := compressorFor(tag); c != nil {
		return c, nil
	}
	return nil, ErrUnknownCodec
}

// withLength prefixes b with n as a uvarint.
func withLength(n int, b []byte) []byte {
	head := binary.AppendUvarint(make([]byte, 0, binary.MaxVarintLen64+len(b)), uint64(n))
	return append(head, b...)
}

// MaxDecompressedSize is the largest uncompressed length a compressed
// value may declare.
const MaxDecompressedSize = 64 << 20

// splitLength reads a uvarint length prefix.
func splitLength(b []byte) (int, []byte, error) {
	n, sz := binary.Uvarint(b)
	if sz <= 0 || n > MaxDecompressedSize {
		return 0, nil, errCorruptLength
	}
	return int(n), b[sz:], nil
}

// initialCap limits a buffer sized from a declared length to what
// compressed bytes of input are likely to expand to. The buffer grows
// past it when needed.
func initialCap(n, compressed int) int {
	if lim := 4*compressed + 512; n > lim {
		return lim
	}
	return n
}
