package textwire

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerger(t *testing.T) {
	m := NewMerger()
	require.NoError(t, m.Append([]byte("a: 1\n")))
	require.NoError(t, m.Append([]byte("---\nb: 2\n---\n- x\n")))
	require.NoError(t, m.Append([]byte("  \n")))
	assert.Equal(t, 3, m.Documents())

	err := m.Append([]byte("a: {\n"))
	assert.True(t, errors.Is(err, ErrFraming), "got %v", err)
	assert.Equal(t, 3, m.Documents())

	out := m.Finish()
	assert.Equal(t, "---\na: 1\n---\nb: 2\n---\n- x\n", string(out))
	assert.True(t, errors.Is(m.Append([]byte("c: 3\n")), ErrMergerFinished))

	docs, err := NewWire(WrapBytes(out)).ReadDocuments()
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, map[string]interface{}{"a": int64(1)}, plain(docs[0]))
	assert.Equal(t, map[string]interface{}{"b": int64(2)}, plain(docs[1]))
	assert.Equal(t, []interface{}{"x"}, plain(docs[2]))
}

func TestMergerResolvesTypes(t *testing.T) {
	m := NewMerger()
	err := m.Append([]byte("p: !Point { x: 1, y: 2 }\n"))
	assert.True(t, errors.Is(err, ErrTypeResolution), "got %v", err)

	m.Registry = testRegistry()
	require.NoError(t, m.Append([]byte("p: !Point { x: 1, y: 2 }\n")))
	assert.Equal(t, 1, m.Documents())
}

func BenchmarkMerger(b *testing.B) {
	var data [][]byte
	for _, v := range roundtrips {
		buf, err := Marshal(v)
		if err != nil {
			b.Fatal(err)
		}
		data = append(data, buf)
	}

	b.ResetTimer()

	m := NewMerger()
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < b.N; i++ {
		buf := data[r.Int()%len(data)]
		if err := m.Append(buf); err != nil {
			b.Fatal(err)
		}
	}
}
