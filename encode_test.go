package textwire

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var roundtrips = []interface{}{
	true,
	false,
	int64(0),
	int64(1),
	int64(-1),
	int64(300),
	int64(-2613115362782646504),
	"hello",
	"hello, world",
	"twas brillig and the slithy toves and gyre and gimble in the wabe",
	2.2,
	9891234567890.098,
	[]interface{}{int64(0), int64(1), int64(2), int64(3), int64(4), int64(5), int64(6), int64(7)},
	[]interface{}{int64(1), int64(100), 2.5, "hello, world", []interface{}{int64(1), int64(2)}, map[string]interface{}{"foo": []interface{}{int64(1), int64(2), int64(3)}}},
	map[string]interface{}{"foo": int64(1), "bar": int64(2), "baz": "qux"},
	map[string]interface{}{"nested": map[string]interface{}{"list": []interface{}{"a", "b"}, "n": int64(-3)}},
}

func TestRoundtrip(t *testing.T) {
	for _, v := range roundtrips {
		b, err := Marshal(v)
		if err != nil {
			t.Errorf("failed marshalling %#v: %v", v, err)
			continue
		}
		var unp interface{}
		if err := Unmarshal(b, &unp); err != nil {
			t.Errorf("error unmarshalling %q: %v", b, err)
			continue
		}
		if got := plain(unp); !reflect.DeepEqual(v, got) {
			t.Errorf("failed roundtripping %#v: got %s", v, spew.Sdump(got))
		}
	}
}

func TestStructs(t *testing.T) {
	type A struct {
		Name     string
		Phone    string
		Siblings int
		Spouse   bool
		Money    float64
	}

	// some people
	Afoo := A{"mr foo", "12345", 10, true, 123.45}
	Abar := A{"mr bar", "54321", 5, false, 321.45}
	Abaz := A{"mr baz", "15243", 20, true, 543.21}

	type nested1 struct {
		Person A
	}

	type nested struct {
		Nested1 nested1
	}

	type private struct {
		pbool bool
		pstr  string
		pint  int
	}

	type semiprivate struct {
		Bool   bool
		pbool  bool
		String string
		pstr   string
		pint   int
	}

	type ATags struct {
		Name     string `textwire:"Phone"`
		Phone    string `textwire:"Name"`
		Siblings int    `textwire:"-"`
	}

	tests := []struct {
		what     string
		input    interface{}
		outvar   interface{}
		expected interface{}
	}{
		{
			"struct with fields",
			Afoo,
			A{},
			Afoo,
		},
		{
			"struct with fields into map",
			Afoo,
			map[string]interface{}{},
			map[string]interface{}{
				"Name":     "mr foo",
				"Phone":    "12345",
				"Siblings": int64(10),
				"Spouse":   true,
				"Money":    123.45,
			},
		},
		{
			"decode struct with tags",
			Afoo,
			ATags{},
			ATags{Name: "12345", Phone: "mr foo"},
		},
		{
			"encode struct with tags",
			ATags{Name: "12345", Phone: "mr foo", Siblings: 10},
			A{},
			A{Name: "mr foo", Phone: "12345"},
		},
		{
			"struct with private fields",
			private{false, "hello", 3},
			private{},
			private{},
		},
		{
			"semi-private struct",
			semiprivate{Bool: true, pbool: false, String: "world", pstr: "hello", pint: 3},
			semiprivate{},
			semiprivate{Bool: true, String: "world"},
		},
		{
			"nil slice of structs",
			[]A{Afoo, Abar, Abaz},
			[]A(nil),
			[]A{Afoo, Abar, Abaz},
		},
		{
			"slice of structs replaces contents",
			[]A{Afoo, Abar, Abaz},
			[]A{{}},
			[]A{Afoo, Abar, Abaz},
		},
		{
			"nested",
			nested{nested1{Afoo}},
			nested{},
			nested{nested1{Afoo}},
		},
		{
			"pointer to struct",
			&Abar,
			(*A)(nil),
			&Abar,
		},
	}

	for _, v := range tests {
		x, err := Marshal(v.input)
		if err != nil {
			t.Errorf("error marshalling %s: %s", v.what, err)
			continue
		}

		routvar := reflect.New(reflect.TypeOf(v.outvar))
		routvar.Elem().Set(reflect.ValueOf(v.outvar))

		if err := Unmarshal(x, routvar.Interface()); err != nil {
			t.Errorf("error unmarshalling %s: %s", v.what, err)
			continue
		}

		if !reflect.DeepEqual(routvar.Elem().Interface(), v.expected) {
			t.Errorf("roundtrip mismatch for %s: got: %#v expected: %#v", v.what, routvar.Elem().Interface(), v.expected)
		}
	}
}

type event struct {
	ID      uuid.UUID         `textwire:"id"`
	At      time.Time         `textwire:"at"`
	Tags    []string          `textwire:"tags"`
	Counts  map[string]int    `textwire:"counts"`
	ByCode  map[int]string    `textwire:"byCode"`
	Grid    [3]int16          `textwire:"grid"`
	Payload []byte            `textwire:"payload"`
	Parent  *event            `textwire:"parent"`
	Extra   interface{}       `textwire:"extra"`
	Labels  map[string]string `textwire:"labels,omitempty"`
}

func TestEventRoundtrip(t *testing.T) {
	in := event{
		ID:      uuid.MustParse("3f2504e0-4f89-11d3-9a0c-0305e82c3301"),
		At:      time.Date(2024, 5, 6, 7, 8, 9, 1000, time.UTC),
		Tags:    []string{"a", "b c", "true"},
		Counts:  map[string]int{"x": 1, "y": -2},
		ByCode:  map[int]string{404: "not found", 200: "ok"},
		Grid:    [3]int16{1, -2, 3},
		Payload: []byte{0, 1, 2, 0xff},
		Parent:  &event{Tags: []string{}, Extra: "root"},
		Extra:   []interface{}{int64(1), "two"},
	}

	b, err := Marshal(in)
	require.NoError(t, err)

	var out event
	require.NoError(t, Unmarshal(b, &out), string(b))

	want := in
	want.Parent = &event{Tags: []string{}, Extra: "root"}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("roundtrip mismatch (-want +got):\n%s\n%s", diff, b)
	}
}

func TestOmitEmpty(t *testing.T) {
	type O struct {
		A string  `textwire:"a,omitempty"`
		B int     `textwire:"b,omitempty"`
		C []int   `textwire:"c,omitempty"`
		D *string `textwire:"d,omitempty"`
		E bool    `textwire:"e"`
	}
	b, err := Marshal(O{B: 2})
	require.NoError(t, err)
	assert.Equal(t, "b: 2\ne: false\n", string(b))
}

func TestMapKeysSorted(t *testing.T) {
	b, err := Marshal(map[string]int{"b": 2, "a": 1, "c": 3})
	require.NoError(t, err)
	assert.Equal(t, "a: 1\nb: 2\nc: 3\n", string(b))

	b, err = Marshal(map[int]string{2: "two", 1: "one"})
	require.NoError(t, err)
	assert.Equal(t, "!seqmap [\n  { key: 1, value: one },\n  { key: 2, value: two }\n]\n", string(b))

	var m map[int]string
	require.NoError(t, Unmarshal(b, &m))
	assert.Equal(t, map[int]string{1: "one", 2: "two"}, m)
}

func TestUnmarshalOutOfRange(t *testing.T) {
	var v struct {
		Small uint8 `textwire:"small"`
	}
	err := Unmarshal([]byte("small: 300\n"), &v)
	assert.True(t, errors.Is(err, ErrRange), "got %v", err)

	var arr [2]int
	err = Unmarshal([]byte("[ 1, 2, 3 ]"), &arr)
	assert.True(t, errors.Is(err, ErrRange), "got %v", err)

	var i8 int8
	err = Unmarshal([]byte("-129"), &i8)
	assert.True(t, errors.Is(err, ErrRange), "got %v", err)
}

func TestUnmarshalSkipsUnknownFields(t *testing.T) {
	var v struct {
		X int `textwire:"x"`
		Y int `textwire:"y"`
	}
	doc := "---\ny: 2\nextra: {\n  deep: [ 1, { z: \"}\" } ],\n  more: text\n}\nignored: [ a, b ]\nx: 1\n"
	require.NoError(t, Unmarshal([]byte(doc), &v))
	assert.Equal(t, 1, v.X)
	assert.Equal(t, 2, v.Y)
}

func TestUnmarshalIntoInterface(t *testing.T) {
	var v interface{}
	require.NoError(t, Unmarshal([]byte("a: 1\nb: x\n"), &v))
	m, ok := v.(*OrderedMap)
	require.True(t, ok, "got %T", v)
	assert.Equal(t, []string{"a", "b"}, m.Keys())

	v = nil
	require.NoError(t, Unmarshal(nil, &v))
	assert.Nil(t, v)

	v = nil
	require.NoError(t, Unmarshal([]byte("\"a:b\": 1\nc: 2\n"), &v))
	assert.Equal(t, map[string]interface{}{"a:b": int64(1), "c": int64(2)}, plain(v))

	var st struct {
		First int64 `textwire:"1st"`
		B     int64 `textwire:"b"`
	}
	require.NoError(t, Unmarshal([]byte("\"1st\": 1\nb: 2\n"), &st))
	assert.Equal(t, int64(1), st.First)
	assert.Equal(t, int64(2), st.B)

	var s string
	require.NoError(t, Unmarshal([]byte(`"a: b"`), &s))
	assert.Equal(t, "a: b", s)
}

func TestMarshalErrors(t *testing.T) {
	_, err := Marshal(make(chan int))
	assert.True(t, errors.Is(err, ErrUnsupportedType), "got %v", err)

	_, err = Marshal(struct{ F func() }{})
	assert.True(t, errors.Is(err, ErrUnsupportedType), "got %v", err)

	var x int
	assert.Error(t, Unmarshal([]byte("1"), x))
	assert.Error(t, Unmarshal([]byte("1"), nil))
}

type panicky struct{ v interface{} }

func (p panicky) WriteMarshallable(*Wire) { panic(p.v) }

func TestMarshalRecoversPanics(t *testing.T) {
	_, err := Marshal(panicky{42})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "42")

	_, err = Marshal(panicky{"broken"})
	assert.EqualError(t, err, "broken")

	_, err = Marshal(panicky{ErrTooLarge})
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestDecodeField(t *testing.T) {
	w := NewWireString("p: { x: 3, y: 4 }\nq: [ 1, 2 ]\n")
	in, err := w.Read("p")
	require.NoError(t, err)
	var p point
	require.NoError(t, in.Decode(&p))
	assert.Equal(t, point{3, 4}, p)

	in, err = w.Read("q")
	require.NoError(t, err)
	var q []uint16
	require.NoError(t, in.Decode(&q))
	assert.Equal(t, []uint16{1, 2}, q)
}

func TestMarshalParsesAsYAML(t *testing.T) {
	type A struct {
		Name     string
		Phone    string
		Siblings int
		Spouse   bool
		Money    float64
	}
	b, err := Marshal(A{"mr foo", "12345", 10, true, 123.45})
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, yaml.Unmarshal(b, &got))
	assert.Equal(t, map[string]interface{}{
		"Name":     "mr foo",
		"Phone":    "12345",
		"Siblings": 10,
		"Spouse":   true,
		"Money":    123.45,
	}, got)
}
