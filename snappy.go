package textwire

import (
	"math"

	"github.com/golang/snappy"
)

// SnappyCompressor compresses text using the Snappy block format.
type SnappyCompressor struct{}

func (SnappyCompressor) tag() string { return "snappy" }

func (SnappyCompressor) compress(b []byte) ([]byte, error) {
	if uint64(len(b)) >= math.MaxUint32 {
		return nil, ErrTooLarge
	}
	return snappy.Encode(nil, b), nil
}

func (SnappyCompressor) decompress(b []byte) ([]byte, error) {
	n, err := snappy.DecodedLen(b)
	if err != nil {
		return nil, err
	}
	if n > MaxDecompressedSize {
		return nil, errCorruptLength
	}
	return snappy.Decode(nil, b)
}
