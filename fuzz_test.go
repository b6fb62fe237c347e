package textwire

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func FuzzRoundtrip(f *testing.F) {
	for _, seed := range []string{
		"a: 1\n",
		"- 1\n- 2\n",
		"{ a: [ 1, two ] }",
		"x: !!binary AAEC\n",
		"s: \"quoted \\\" text\"\n",
		"outer:\n  inner: 2.5\n  list:\n  - a\n  - b\n",
	} {
		f.Add([]byte(seed))
	}
	f.Fuzz(func(t *testing.T, data []byte) {
		v, err := NewWire(WrapBytes(data)).ReadObject()
		if err != nil {
			return
		}
		enc, err := Marshal(v)
		if err != nil {
			t.Skip(err)
		}
		v2, err := NewWire(WrapBytes(enc)).ReadObject()
		if err != nil {
			t.Fatalf("reading %q: %v", enc, err)
		}
		if diff := cmp.Diff(document(v), document(v2)); diff != "" {
			t.Fatalf("roundtrip of %q mismatch (-first +second):\n%s", data, diff)
		}
	})
}

// document drops an empty top level record or list, which is written as
// an empty document and so reads back as nil.
func document(v interface{}) interface{} {
	switch d := v.(type) {
	case *OrderedMap:
		if d == nil || d.Len() == 0 {
			return nil
		}
	case []interface{}:
		if len(d) == 0 {
			return nil
		}
	}
	return plain(v)
}
