//go:build gofuzz

package textwire

import (
	"reflect"

	"github.com/google/go-cmp/cmp"
)

func Fuzz(data []byte) int {
	w := NewWire(WrapBytes(data))
	docs, err := w.ReadDocuments()
	if err != nil || len(docs) != 1 {
		return 0
	}
	m := docs[0]

	var enc []byte
	if enc, err = Marshal(m); err != nil {
		panic("unable to marshal: " + err.Error())
	}

	w2 := NewWire(WrapBytes(enc))
	m2, err := w2.ReadObject()
	if err != nil {
		panic("unmarshalling marshalled data: " + err.Error())
	}

	if !reflect.DeepEqual(plain(m), plain(m2)) {
		panic("failed to roundtrip: " + cmp.Diff(plain(m), plain(m2)))
	}

	return 1
}

type S struct {
	A int
	B string
	C float64
	D bool
	E uint8
	F []byte
	G interface{}
	H map[string]interface{}
	I map[string]string
	J []interface{}
	K []string
	L S1
	M *S1
	N *int
	O **int
}

type S1 struct {
	A int
	B string
}

func FuzzStructure(data []byte) int {
	var s S

	if err := Unmarshal(data, &s); err != nil {
		return 0
	}

	enc, err := Marshal(s)
	if err != nil {
		panic("unable to marshal: " + err.Error())
	}

	var s2 S
	if err := Unmarshal(enc, &s2); err != nil {
		panic("unmarshalling marshalled data: " + err.Error())
	}

	if !reflect.DeepEqual(plainStruct(s), plainStruct(s2)) {
		panic("failed to roundtrip: " + cmp.Diff(s, s2, cmp.AllowUnexported(OrderedMap{})))
	}

	return 1
}

// plainStruct replaces the inferred fields of s with plain values.
func plainStruct(s S) S {
	s.G = plain(s.G)
	for k, v := range s.H {
		s.H[k] = plain(v)
	}
	for i, v := range s.J {
		s.J[i] = plain(v)
	}
	return s
}
