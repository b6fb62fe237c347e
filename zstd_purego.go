//go:build !clibs

package textwire

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

var zstdEncoders sync.Map // level -> *zstd.Encoder

func zstdEncoder(level int) (*zstd.Encoder, error) {
	if e, ok := zstdEncoders.Load(level); ok {
		return e.(*zstd.Encoder), nil
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, err
	}
	e, _ := zstdEncoders.LoadOrStore(level, enc)
	return e.(*zstd.Encoder), nil
}

func zstdEncode(buf []byte, level int) ([]byte, error) {
	enc, err := zstdEncoder(level)
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(buf, nil), nil
}

var decoder, _ = zstd.NewReader(nil,
	zstd.WithDecoderConcurrency(0),
	zstd.WithDecoderMaxMemory(MaxDecompressedSize),
)

func zstdDecode(d, buf []byte) ([]byte, error) {
	return decoder.DecodeAll(buf, d)
}
