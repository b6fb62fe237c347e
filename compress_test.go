package textwire

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var compressors = []Compressor{
	SnappyCompressor{},
	ZstdCompressor{},
	ZstdCompressor{Level: ZstdBestSpeed},
	LZ4Compressor{},
	ZlibCompressor{},
	ZlibCompressor{Level: ZlibBestCompression},
}

func TestCompressedRoundtrip(t *testing.T) {
	texts := []string{
		"x",
		"Grüße, 世界",
		strings.Repeat("the quick brown fox jumps over the lazy dog. ", 200),
	}
	for _, c := range compressors {
		for _, text := range texts {
			w := NewWire(NewBytes())
			require.NoError(t, w.Write("t").Compressed(c, text))
			w.Write("after").Int64(1)
			assert.True(t, strings.HasPrefix(string(w.Bytes().Written()), "t: !!"+c.tag()+" "))

			r := NewWire(WrapBytes(w.Bytes().Written()))
			in, err := r.Read("t")
			require.NoError(t, err)
			got, err := in.Text()
			require.NoError(t, err, c.tag())
			assert.Equal(t, text, got, c.tag())

			in, err = r.Read("after")
			require.NoError(t, err)
			n, err := in.Int64()
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
		}
	}
}

func TestCompressionThreshold(t *testing.T) {
	long := strings.Repeat("abcdefgh", 64)

	w := NewWire(NewBytes())
	w.Compression = LZ4Compressor{}
	w.CompressionThreshold = 64
	require.NoError(t, w.Write("short").CompressedText("tiny"))
	require.NoError(t, w.Write("long").CompressedText(long))

	out := string(w.Bytes().Written())
	assert.True(t, strings.HasPrefix(out, "short: tiny\nlong: !!lz4 "), out)
	assert.Less(t, len(out), len(long))

	r := NewWire(WrapBytes(w.Bytes().Written()))
	in, err := r.Read("short")
	require.NoError(t, err)
	s, err := in.Text()
	require.NoError(t, err)
	assert.Equal(t, "tiny", s)

	in, err = r.Read("long")
	require.NoError(t, err)
	v, err := in.Object()
	require.NoError(t, err)
	assert.Equal(t, long, v)
}

func TestNoCompressionConfigured(t *testing.T) {
	w := NewWire(NewBytes())
	require.NoError(t, w.Write("t").CompressedText(strings.Repeat("z", 4096)))
	assert.False(t, strings.Contains(string(w.Bytes().Written()), "!!"))
}

func TestCorruptCompressed(t *testing.T) {
	// length 5, mode 7
	in, err := NewWireString("t: !!lz4 BQc=\n").Read("t")
	require.NoError(t, err)
	_, err = in.Text()
	assert.True(t, errors.Is(err, ErrEncoding), "got %v", err)

	in, err = NewWireString("t: !!snappy not*base64\n").Read("t")
	require.NoError(t, err)
	_, err = in.Text()
	assert.True(t, errors.Is(err, ErrEncoding), "got %v", err)
}

func TestCompressorByName(t *testing.T) {
	for _, name := range []string{"snappy", "zstd", "lz4", "zlib"} {
		c, err := CompressorByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, c.tag())
	}
	_, err := CompressorByName("brotli")
	assert.True(t, errors.Is(err, ErrUnknownCodec))
}

func TestLZ4StoresIncompressible(t *testing.T) {
	src := []byte("abc")
	data, err := LZ4Compressor{}.compress(src)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, lz4Stored, 'a', 'b', 'c'}, data)

	out, err := LZ4Compressor{}.decompress(data)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestDeclaredLengthIsBounded(t *testing.T) {
	huge := binary.AppendUvarint(nil, 1<<40)
	for _, c := range compressors {
		_, err := c.decompress(append(huge, 1, 0, 0, 0))
		assert.Error(t, err, c.tag())
	}

	// within the limit but far beyond what three bytes can expand to
	block := append(binary.AppendUvarint(nil, 1<<20), lz4Block, 0x10, 'a')
	_, err := LZ4Compressor{}.decompress(block)
	assert.ErrorIs(t, err, errCorruptLength)

	for _, tag := range []string{"lz4", "zstd", "zlib"} {
		_, err := compressorFor(tag).decompress(huge)
		assert.ErrorIs(t, err, errCorruptLength, tag)

		doc := "t: !!" + tag + " " + base64.StdEncoding.EncodeToString(append(huge, 1)) + "\n"
		in, err := NewWireString(doc).Read("t")
		require.NoError(t, err)
		_, err = in.Text()
		assert.ErrorIs(t, err, ErrEncoding, tag)
	}
}
