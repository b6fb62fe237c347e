package textwire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterner(t *testing.T) {
	var in interner
	a := in.intern([]byte("name"))
	b := in.intern([]byte("name"))
	assert.Equal(t, "name", a)
	assert.Equal(t, a, b)

	buf := []byte("value")
	s := in.intern(buf)
	buf[0] = 'V'
	assert.Equal(t, "value", s)
	assert.Equal(t, "Value", in.intern(buf))
}
