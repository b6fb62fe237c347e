package textwire

import (
	"reflect"
	"strconv"
	"strings"
	"time"
)

// TypeName is a type literal, written as !type Name.
type TypeName string

// OrderedMap is a record materialized without a target type. Keys keep
// the order they were read in.
type OrderedMap struct {
	keys   []string
	values map[string]interface{}
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]interface{})}
}

// Set adds or replaces key. A replaced key keeps its position.
func (m *OrderedMap) Set(key string, v interface{}) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

func (m *OrderedMap) Get(key string) (interface{}, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *OrderedMap) Keys() []string { return m.keys }

func (m *OrderedMap) Len() int { return len(m.keys) }

// Map returns the entries as a plain map, converting nested ordered maps
// as well.
func (m *OrderedMap) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(m.keys))
	for _, k := range m.keys {
		out[k] = plain(m.values[k])
	}
	return out
}

func plain(v interface{}) interface{} {
	switch v := v.(type) {
	case *OrderedMap:
		return v.Map()
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = plain(e)
		}
		return out
	}
	return v
}

// WriteMarshallable writes the entries as fields in order.
func (m *OrderedMap) WriteMarshallable(w *Wire) {
	for _, k := range m.keys {
		if err := w.Write(k).Object(m.values[k]); err != nil {
			w.logger().Warn("textwire: skipped unsupported value", "key", k, "err", err)
		}
	}
}

// Object reads the next value, inferring its type from the text.
func (in *ValueIn) Object() (interface{}, error) {
	w := in.w
	b := w.bytes
	w.consumeWhitespace()
	switch c := b.Peek(); {
	case c < 0:
		return nil, nil
	case c == '!':
		return in.typedObject()
	case c == '-':
		if in.atListItem() {
			return in.readList(w.indentation())
		}
		return in.readNumber()
	case c == '[':
		return in.readSequence()
	case c == '{':
		return in.readMap()
	case c == '+' || (c >= '0' && c <= '9'):
		return in.readNumber()
	case c == '"' || c == '\'':
		return in.Text()
	}
	text, null, err := in.textTo(nil)
	if err != nil || null {
		return nil, err
	}
	switch s := string(text); s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return s, nil
	}
}

// atListItem reports whether the '-' at the read position introduces a
// list item rather than a negative number or a bare "-". Only "- "
// starts an item.
func (in *ValueIn) atListItem() bool {
	b := in.w.bytes
	return b.PeekAt(b.ReadPosition()+1) == ' '
}

// readNumber tries an integer, a float, a time of day, a date and a date
// time in that order, and falls back to the text itself.
func (in *ValueIn) readNumber() (interface{}, error) {
	text, null, err := in.textTo(nil)
	if err != nil || null {
		return nil, err
	}
	s := string(text)
	if len(s) > 40 {
		return s, nil
	}
	t := strings.ReplaceAll(s, "_", "")
	if v, err := strconv.ParseInt(t, 0, 64); err == nil {
		return v, nil
	}
	if v, err := strconv.ParseFloat(t, 64); err == nil {
		return v, nil
	}
	switch {
	case len(s) == 7 && s[1] == ':':
		if v, err := time.Parse("15:04:05", "0"+s); err == nil {
			return v, nil
		}
	case len(s) == 8 && s[2] == ':':
		if v, err := time.Parse("15:04:05", s); err == nil {
			return v, nil
		}
	case len(s) == 10:
		if v, err := time.Parse(dateLayout, s); err == nil {
			return v, nil
		}
	case len(s) >= 22 || (len(s) >= 20 && s[10] == 'T'):
		if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return v, nil
		}
	}
	return s, nil
}

// typedObject reads a value introduced by '!'.
func (in *ValueIn) typedObject() (interface{}, error) {
	w := in.w
	b := w.bytes
	start := b.ReadPosition()
	b.Skip(1)
	var tb [32]byte
	tag := string(w.parseToken(tb[:0], endOfType))
	switch {
	case tag == tagNull:
		in.skipEmptyQuotes()
		return nil, nil
	case tag == tagBinary:
		b.SetReadPosition(start)
		return in.Bytes()
	case tag == tagType:
		in.skipSpaces()
		return TypeName(w.parseToken(tb[:0], endOfType)), nil
	case tag == tagSeqMap:
		b.SetReadPosition(start)
		return in.SeqMap()
	case strings.HasPrefix(tag, "!"):
		if compressorFor(tag[1:]) != nil {
			b.SetReadPosition(start)
			return in.Text()
		}
		// other !! tags are hints the inferred type already covers
		return in.Object()
	}
	if w.Registry == nil {
		return nil, w.errorAt(ErrTypeResolution, start, '!', "", "no registry for type "+strconv.Quote(tag))
	}
	e, ok := w.Registry.resolve(tag)
	if !ok {
		return nil, w.errorAt(ErrTypeResolution, start, '!', "", "unknown type "+strconv.Quote(tag))
	}
	w.consumeWhitespace()
	if b.Peek() == '{' && !readsRecord(e.typ) {
		return nil, w.errorAt(ErrTypeResolution, start, '!', "", "type "+strconv.Quote(tag)+" cannot be read from a record")
	}
	rv := reflect.New(e.typ)
	if err := in.decode(rv.Elem()); err != nil {
		return nil, err
	}
	if e.ptr {
		return rv.Interface(), nil
	}
	return rv.Elem().Interface(), nil
}

// readsRecord reports whether values of t can be read from { ... }.
func readsRecord(t reflect.Type) bool {
	if reflect.PointerTo(t).Implements(readMarshallerType) {
		return true
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Map, reflect.Interface:
		return true
	}
	return false
}

// readSequence materializes [ ... ].
func (in *ValueIn) readSequence() ([]interface{}, error) {
	list := []interface{}{}
	err := in.Sequence(func(in *ValueIn) error {
		for in.HasNextSequenceItem() {
			pos := in.w.bytes.ReadPosition()
			v, err := in.Object()
			if err != nil {
				return err
			}
			if in.w.bytes.ReadPosition() == pos {
				return in.w.errorf(ErrGrammar, "]", "unexpected character in sequence")
			}
			list = append(list, v)
		}
		return nil
	})
	return list, err
}

// readMap materializes { ... }.
func (in *ValueIn) readMap() (*OrderedMap, error) {
	w := in.w
	b := w.bytes
	start := b.ReadPosition()
	b.Skip(1)
	m := NewOrderedMap()
	for {
		w.consumeWhitespace()
		switch b.Peek() {
		case '}':
			b.Skip(1)
			return m, nil
		case -1:
			return nil, w.errorAt(ErrFraming, start, '{', "}", errUnterminatedRecord)
		}
		pos := b.ReadPosition()
		name, err := w.readFieldName(w.scratch[:0])
		if err != nil {
			return nil, err
		}
		key := w.names.intern(name)
		v, err := in.Object()
		if err != nil {
			return nil, err
		}
		if b.ReadPosition() == pos {
			return nil, w.errorf(ErrGrammar, "}", "unexpected character in record")
		}
		m.Set(key, v)
	}
}

// readList materializes - item lines at column indent or deeper. A line
// starting with -- ends the list.
func (in *ValueIn) readList(indent int) ([]interface{}, error) {
	w := in.w
	b := w.bytes
	list := []interface{}{}
	for b.Peek() == '-' {
		if w.indentation() < indent || !in.atListItem() {
			break
		}
		ls := w.lineStart
		b.Skip(1)
		w.consumeWhitespace()
		var v interface{}
		var err error
		switch {
		case w.lineStart != ls:
			v, _, err = in.readObject(indent)
		case in.atMapEntry():
			v, err = in.readBlockMap(w.indentation())
		default:
			v, err = in.Object()
		}
		if err != nil {
			return nil, err
		}
		list = append(list, v)
		w.consumeWhitespace()
	}
	return list, nil
}

// atMapEntry reports whether the rest of the line is a key: value entry.
func (in *ValueIn) atMapEntry() bool {
	b := in.w.bytes
	buf, i, limit := b.buf, b.ReadPosition(), b.ReadLimit()
	if i < limit && (buf[i] == '"' || buf[i] == '\'') {
		q := buf[i]
		for i++; i < limit && buf[i] != q; i++ {
			if buf[i] == '\\' {
				i++
			}
		}
		i++
	}
	for ; i < limit; i++ {
		switch buf[i] {
		case '\n', '\r', '#', '{', '[':
			return false
		case ':':
			if i+1 >= limit || buf[i+1] <= ' ' {
				return true
			}
		}
	}
	return false
}

// readBlockMap materializes key: value lines sharing column indent. It
// stops at a shallower line, a --- marker or a ... key.
func (in *ValueIn) readBlockMap(indent int) (*OrderedMap, error) {
	w := in.w
	b := w.bytes
	m := NewOrderedMap()
	for {
		w.consumeWhitespace()
		if b.ReadRemaining() <= 0 || w.indentation() < indent || w.atDocumentMark() {
			return m, nil
		}
		switch c := b.Peek(); {
		case c == '}' || c == ']':
			return m, nil
		case c == '-' && in.atListItem():
			if w.indentation() > indent {
				return nil, w.errorf(ErrGrammar, "", "list item inside a block map")
			}
			return m, nil
		}
		pos := b.ReadPosition()
		name, err := w.readFieldName(w.scratch[:0])
		if err != nil {
			return nil, err
		}
		key := w.names.intern(name)
		if key == endOfBlock {
			return m, nil
		}
		v, err := in.readBlockValue(indent)
		if err != nil {
			return nil, err
		}
		m.Set(key, v)
		if b.ReadPosition() == pos {
			return m, nil
		}
	}
}

// readBlockValue reads the value of a block map entry whose key sits at
// column indent. A value starting on a later line must be indented
// deeper, except for a list which may share the key's column.
func (in *ValueIn) readBlockValue(indent int) (interface{}, error) {
	w := in.w
	b := w.bytes
	ls := w.lineStart
	w.consumeWhitespace()
	if w.lineStart == ls {
		return in.Object()
	}
	ind := w.indentation()
	switch c := b.Peek(); {
	case c < 0 || w.atDocumentMark():
		return nil, nil
	case c == '-' && in.atListItem():
		if ind < indent {
			return nil, nil
		}
		return in.readList(ind)
	case ind <= indent:
		return nil, nil
	case in.atMapEntry():
		return in.readBlockMap(ind)
	}
	return in.Object()
}

// readObject reads a block value starting at column indent or deeper;
// ok is false when there is none.
func (in *ValueIn) readObject(indent int) (v interface{}, ok bool, err error) {
	w := in.w
	b := w.bytes
	w.consumeWhitespace()
	ind := w.indentation()
	c := b.Peek()
	if c < 0 || ind < indent {
		return nil, false, nil
	}
	switch c {
	case '-':
		if b.PeekAt(b.ReadPosition()+1) == '-' {
			return nil, false, nil
		}
		if in.atListItem() {
			v, err = in.readList(ind)
			return v, true, err
		}
	case '[', '{', '!':
		v, err = in.Object()
		return v, true, err
	}
	if in.atMapEntry() {
		v, err = in.readBlockMap(ind)
		return v, true, err
	}
	v, err = in.Object()
	return v, true, err
}
