package textwire

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// LZ4Compressor compresses text using LZ4 block compression. The block
// is prefixed with the uncompressed length and a mode byte, 0 for stored
// input and 1 for an LZ4 block.
type LZ4Compressor struct{}

const (
	lz4Stored = 0
	lz4Block  = 1

	// an LZ4 block cannot expand by more than this factor
	lz4MaxRatio = 255
)

func (LZ4Compressor) tag() string { return "lz4" }

func (LZ4Compressor) compress(b []byte) ([]byte, error) {
	dst := make([]byte, 1+lz4.CompressBlockBound(len(b)))
	n, err := lz4.CompressBlock(b, dst[1:], nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if n == 0 || n >= len(b) {
		dst = append(dst[:0], lz4Stored)
		return withLength(len(b), append(dst, b...)), nil
	}
	dst[0] = lz4Block
	return withLength(len(b), dst[:1+n]), nil
}

func (LZ4Compressor) decompress(b []byte) ([]byte, error) {
	n, tail, err := splitLength(b)
	if err != nil {
		return nil, err
	}
	if len(tail) == 0 {
		return nil, errCorruptLength
	}
	mode, tail := tail[0], tail[1:]
	switch mode {
	case lz4Stored:
		if len(tail) != n {
			return nil, errCorruptLength
		}
		return tail, nil
	case lz4Block:
	default:
		return nil, fmt.Errorf("lz4 decompress: unknown mode %d", mode)
	}
	if n > lz4MaxRatio*(len(tail)+1) {
		return nil, errCorruptLength
	}
	dst := make([]byte, n)
	read, err := lz4.UncompressBlock(tail, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != n {
		return nil, errCorruptLength
	}
	return dst, nil
}
