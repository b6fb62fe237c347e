package textwire

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"sync"
)

// ZlibCompressor compresses text using the zlib format, prefixed with
// the uncompressed length.
type ZlibCompressor struct {
	Level int // compression level, zlib.DefaultCompression when zero
}

const (
	ZlibNoCompression      = zlib.NoCompression
	ZlibBestSpeed          = zlib.BestSpeed
	ZlibBestCompression    = zlib.BestCompression
	ZlibDefaultCompression = zlib.DefaultCompression
)

var zlibWriterPools = make(map[int]*sync.Pool)

func init() {
	// -1 => 9
	for i := zlib.DefaultCompression; i <= zlib.BestCompression; i++ {
		level := i
		zlibWriterPools[i] = &sync.Pool{
			New: func() interface{} {
				zw, _ := zlib.NewWriterLevel(nil, level)
				return zw
			},
		}
	}
}

func (ZlibCompressor) tag() string { return "zlib" }

func (c ZlibCompressor) compress(buf []byte) ([]byte, error) {
	level := c.Level
	if level == 0 {
		level = zlib.DefaultCompression
	}
	pool := zlibWriterPools[level]
	if pool == nil {
		return nil, fmt.Errorf("textwire: unknown zlib level %d", level)
	}

	var comp bytes.Buffer
	zw := pool.Get().(*zlib.Writer)
	defer pool.Put(zw)
	zw.Reset(&comp)

	if _, err := zw.Write(buf); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return withLength(len(buf), comp.Bytes()), nil
}

func (ZlibCompressor) decompress(buf []byte) ([]byte, error) {
	n, tail, err := splitLength(buf)
	if err != nil {
		return nil, err
	}
	zr, err := zlib.NewReader(bytes.NewReader(tail))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	dec := bytes.NewBuffer(make([]byte, 0, initialCap(n, len(tail))))
	if _, err := dec.ReadFrom(io.LimitReader(zr, int64(n)+1)); err != nil {
		return nil, err
	}
	if dec.Len() != n {
		return nil, errCorruptLength
	}
	return dec.Bytes(), nil
}
