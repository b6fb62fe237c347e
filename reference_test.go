package textwire

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLongReferenceInPlace(t *testing.T) {
	w := NewWire(NewBytes())
	w.Write("before").Text("x")
	ref := w.Write("count").Int64ForBinding(42)
	w.Write("after").Text("y")

	size := w.Bytes().WritePosition()
	assert.Equal(t, "before: x\ncount: !!atomic { locked: false, value: 00000000000000000042 }\nafter: y\n", string(w.Bytes().Written()))

	v, err := ref.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	require.NoError(t, ref.Set(-123456))
	assert.Equal(t, size, w.Bytes().WritePosition())
	assert.False(t, ref.Locked())
	assert.Equal(t, longWidth, ref.Width())

	// an independent reader of the same bytes sees the new value
	r := NewWire(WrapBytes(w.Bytes().Written()))
	_, err = r.Read("before")
	require.NoError(t, err)
	_, err = r.ReadValue().Text()
	require.NoError(t, err)
	in, err := r.Read("count")
	require.NoError(t, err)
	bound, err := in.Int64Ref()
	require.NoError(t, err)
	v, err = bound.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(-123456), v)
	assert.Equal(t, ref.Offset(), bound.Offset())

	in, err = r.Read("after")
	require.NoError(t, err)
	s, err := in.Text()
	require.NoError(t, err)
	assert.Equal(t, "y", s)
}

func TestLongReferenceAddAndSwap(t *testing.T) {
	w := NewWire(NewBytes())
	ref := w.Write("n").Int64ForBinding(10)

	v, err := ref.Add(5)
	require.NoError(t, err)
	assert.Equal(t, int64(15), v)

	ok, err := ref.CompareAndSwap(10, 20)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = ref.CompareAndSwap(15, 20)
	require.NoError(t, err)
	assert.True(t, ok)

	v, err = ref.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(20), v)
}

func TestBoundWidthOverflow(t *testing.T) {
	w := NewWireString("n: 42\nm: next\n")
	in, err := w.Read("n")
	require.NoError(t, err)
	ref, err := in.Int64Ref()
	require.NoError(t, err)
	assert.Equal(t, 2, ref.Width())
	assert.False(t, ref.Locked())

	require.NoError(t, ref.Set(99))
	require.NoError(t, ref.Set(-5))
	assert.Equal(t, "n: -5\nm: next\n", string(w.Bytes().Written()))

	err = ref.Set(100)
	assert.True(t, errors.Is(err, ErrEncoding), "got %v", err)
	err = ref.Set(-10)
	assert.True(t, errors.Is(err, ErrEncoding), "got %v", err)

	v, err := ref.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(-5), v)

	in, err = w.Read("m")
	require.NoError(t, err)
	s, err := in.Text()
	require.NoError(t, err)
	assert.Equal(t, "next", s)
}

func TestBindRejectsNonInteger(t *testing.T) {
	in, err := NewWireString("n: abc\n").Read("n")
	require.NoError(t, err)
	_, err = in.Int64Ref()
	assert.True(t, errors.Is(err, ErrGrammar), "got %v", err)

	in, err = NewWireString("n: 99999999999\n").Read("n")
	require.NoError(t, err)
	_, err = in.Int32Ref()
	assert.True(t, errors.Is(err, ErrRange), "got %v", err)
}

func TestIntReference(t *testing.T) {
	w := NewWire(NewBytes())
	ref := w.Write("i").Int32ForBinding(-7)
	assert.Equal(t, "i: !!atomic { locked: false, value: -0000000007 }\n", string(w.Bytes().Written()))

	v, err := ref.Add(10)
	require.NoError(t, err)
	assert.Equal(t, int32(3), v)

	ok, err := ref.CompareAndSwap(3, 2147483647)
	require.NoError(t, err)
	assert.True(t, ok)

	in, err := NewWire(WrapBytes(w.Bytes().Written())).Read("i")
	require.NoError(t, err)
	bound, err := in.Int32Ref()
	require.NoError(t, err)
	v, err = bound.Get()
	require.NoError(t, err)
	assert.Equal(t, int32(2147483647), v)
}

func TestLongArrayReference(t *testing.T) {
	w := NewWire(NewBytes())
	arr := w.Write("arr").Int64Array(3)
	w.Write("tail").Int64(1)
	size := w.Bytes().WritePosition()

	assert.Equal(t, 3, arr.Capacity())
	used, err := arr.Used()
	require.NoError(t, err)
	assert.Equal(t, int64(0), used)

	require.NoError(t, arr.SetValueAt(1, 77))
	used, err = arr.Used()
	require.NoError(t, err)
	assert.Equal(t, int64(2), used)

	require.NoError(t, arr.SetValueAt(0, -1))
	used, err = arr.Used()
	require.NoError(t, err)
	assert.Equal(t, int64(2), used)

	err = arr.SetValueAt(3, 1)
	assert.True(t, errors.Is(err, ErrRange), "got %v", err)
	err = arr.SetUsed(4)
	assert.True(t, errors.Is(err, ErrRange), "got %v", err)
	assert.Equal(t, size, w.Bytes().WritePosition())

	r := NewWire(WrapBytes(w.Bytes().Written()))
	in, err := r.Read("arr")
	require.NoError(t, err)
	bound, err := in.Int64ArrayRef()
	require.NoError(t, err)
	assert.Equal(t, 3, bound.Capacity())
	for i, want := range []int64{-1, 77, 0} {
		v, err := bound.ValueAt(i)
		require.NoError(t, err)
		assert.Equal(t, want, v, "index %d", i)
	}
	used, err = bound.Used()
	require.NoError(t, err)
	assert.Equal(t, int64(2), used)

	in, err = r.Read("tail")
	require.NoError(t, err)
	n, err := in.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestConcurrentAdd(t *testing.T) {
	w := NewWire(NewBytes())
	ref := w.Write("hits").Int64ForBinding(0)

	const workers, each = 8, 500
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < each; j++ {
				if _, err := ref.Add(1); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	v, err := ref.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(workers*each), v)
}
