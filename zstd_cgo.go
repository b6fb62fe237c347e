//go:build clibs

package textwire

import (
	"github.com/DataDog/zstd"
)

func zstdEncode(buf []byte, level int) ([]byte, error) {
	return zstd.CompressLevel(nil, buf, level)
}

func zstdDecode(d, buf []byte) ([]byte, error) {
	return zstd.Decompress(d, buf)
}
