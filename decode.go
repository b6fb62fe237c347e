package textwire

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

// Unmarshal parses the first document in data and stores the result in
// the value pointed to by v. Structs and maps are read from top level
// fields, anything else from a single value.
func Unmarshal(data []byte, v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New("textwire: Unmarshal requires a non-nil pointer")
	}
	w := NewWire(WrapBytes(data))
	w.consumeDocumentStart()
	return w.ReadValue().decodeTop(rv.Elem())
}

// Decode reads the next value into the value pointed to by v.
func (in *ValueIn) Decode(v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New("textwire: Decode requires a non-nil pointer")
	}
	return in.decode(rv.Elem())
}

// decodeTop reads a document body into rv.
func (in *ValueIn) decodeTop(rv reflect.Value) error {
	w := in.w
	w.consumeWhitespace()
	switch w.bytes.Peek() {
	case -1:
		return nil
	case '{', '[', '!':
		return in.decode(rv)
	case '"', '\'':
		if !in.atMapEntry() {
			return in.decode(rv)
		}
	case '-':
		if in.atListItem() {
			return in.decode(rv)
		}
	}
	if rv.CanAddr() {
		if m, ok := rv.Addr().Interface().(ReadMarshaller); ok {
			return m.ReadMarshallable(w)
		}
	}
	switch rv.Kind() {
	case reflect.Struct:
		return decodeStructFields(w, rv)
	case reflect.Map:
		if rv.IsNil() {
			rv.Set(reflect.MakeMap(rv.Type()))
		}
		return decodeMapFields(w, rv)
	case reflect.Ptr:
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return in.decodeTop(rv.Elem())
	case reflect.Interface:
		if rv.NumMethod() == 0 && in.atMapEntry() {
			m, err := in.readBlockMap(0)
			if err != nil {
				return err
			}
			rv.Set(reflect.ValueOf(m))
			return nil
		}
	}
	return in.decode(rv)
}

func (in *ValueIn) decode(rv reflect.Value) error {
	w := in.w
	w.consumeWhitespace()

	if rv.Kind() != reflect.Ptr && rv.CanAddr() {
		if m, ok := rv.Addr().Interface().(ReadMarshaller); ok {
			if in.IsNull() {
				rv.Set(reflect.Zero(rv.Type()))
				return nil
			}
			return in.Marshallable(m)
		}
	}

	switch rv.Type() {
	case timeType:
		t, err := in.DateTime()
		if err == nil {
			rv.Set(reflect.ValueOf(t))
		}
		return err
	case uuidType:
		u, err := in.UUID()
		if err == nil {
			rv.Set(reflect.ValueOf(u))
		}
		return err
	}

	switch rk := rv.Kind(); rk {
	case reflect.Ptr:
		if in.IsNull() {
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return in.decode(rv.Elem())

	case reflect.Interface:
		if rv.NumMethod() != 0 {
			return fmt.Errorf("%w: %s", ErrUnsupportedType, rv.Type())
		}
		v, err := in.Object()
		if err != nil {
			return err
		}
		if v == nil {
			rv.Set(reflect.Zero(rv.Type()))
		} else {
			rv.Set(reflect.ValueOf(v))
		}
		return nil

	case reflect.Bool:
		v, err := in.Bool()
		if err == nil {
			rv.SetBool(v)
		}
		return err

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		start := w.bytes.ReadPosition()
		v, err := in.Int64()
		if err != nil {
			return err
		}
		return setInt(w, rv, start, v)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		start := w.bytes.ReadPosition()
		v, err := in.Uint64()
		if err != nil {
			return err
		}
		if rv.OverflowUint(v) {
			return w.errorAt(ErrRange, start, -1, rv.Type().String(), strconv.FormatUint(v, 10))
		}
		rv.SetUint(v)
		return nil

	case reflect.Float32:
		v, err := in.Float32()
		if err == nil {
			rv.SetFloat(float64(v))
		}
		return err

	case reflect.Float64:
		v, err := in.Float64()
		if err == nil {
			rv.SetFloat(v)
		}
		return err

	case reflect.String:
		v, err := in.Text()
		if err == nil {
			rv.SetString(v)
		}
		return err

	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			p, err := in.Bytes()
			if err == nil {
				setBytes(rv, p)
			}
			return err
		}
		if in.IsNull() {
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.MakeSlice(rv.Type(), 0, 0))
		} else {
			rv.SetLen(0)
		}
		if w.bytes.Peek() == '-' && in.atListItem() {
			return in.decodeList(rv)
		}
		return in.Sequence(func(in *ValueIn) error {
			for in.HasNextSequenceItem() {
				if err := in.decodeElem(rv); err != nil {
					return err
				}
			}
			return nil
		})

	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			p, err := in.Bytes()
			if err == nil {
				reflect.Copy(rv, reflect.ValueOf(p))
			}
			return err
		}
		start := w.bytes.ReadPosition()
		i := 0
		return in.Sequence(func(in *ValueIn) error {
			for ; in.HasNextSequenceItem(); i++ {
				if i >= rv.Len() {
					return w.errorAt(ErrRange, start, '[', rv.Type().String(), "too many items")
				}
				if err := in.decode(rv.Index(i)); err != nil {
					return err
				}
			}
			return nil
		})

	case reflect.Map:
		if in.IsNull() {
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.MakeMap(rv.Type()))
		}
		if w.bytes.HasPrefix("!" + tagSeqMap) {
			return in.decodeSeqMap(rv)
		}
		return in.Marshallable(ReadMarshallerFunc(func(w *Wire) error {
			return decodeMapFields(w, rv)
		}))

	case reflect.Struct:
		if in.IsNull() {
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
		return in.Marshallable(ReadMarshallerFunc(func(w *Wire) error {
			return decodeStructFields(w, rv)
		}))
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedType, rv.Type())
}

func setInt(w *Wire, rv reflect.Value, start int, v int64) error {
	if rv.OverflowInt(v) {
		return w.errorAt(ErrRange, start, -1, rv.Type().String(), strconv.FormatInt(v, 10))
	}
	rv.SetInt(v)
	return nil
}

func setBytes(rv reflect.Value, p []byte) {
	if p == nil {
		rv.Set(reflect.Zero(rv.Type()))
		return
	}
	s := reflect.MakeSlice(rv.Type(), len(p), len(p))
	reflect.Copy(s, reflect.ValueOf(p))
	rv.Set(s)
}

// decodeElem appends one decoded item to the slice rv.
func (in *ValueIn) decodeElem(rv reflect.Value) error {
	pos := in.w.bytes.ReadPosition()
	e := reflect.New(rv.Type().Elem()).Elem()
	if err := in.decode(e); err != nil {
		return err
	}
	if in.w.bytes.ReadPosition() == pos {
		return in.w.errorf(ErrGrammar, "]", "unexpected character in sequence")
	}
	rv.Set(reflect.Append(rv, e))
	return nil
}

// decodeList reads - item lines into the slice rv.
func (in *ValueIn) decodeList(rv reflect.Value) error {
	w := in.w
	b := w.bytes
	indent := w.indentation()
	for b.Peek() == '-' && in.atListItem() && w.indentation() == indent {
		b.Skip(1)
		if err := in.decodeElem(rv); err != nil {
			return err
		}
		w.consumeWhitespace()
	}
	return nil
}

// decodeSeqMap reads a !seqmap into the map rv, converting keys and
// values to its types.
func (in *ValueIn) decodeSeqMap(rv reflect.Value) error {
	in.Type()
	t := rv.Type()
	return in.Sequence(func(in *ValueIn) error {
		for in.HasNextSequenceItem() {
			k := reflect.New(t.Key()).Elem()
			v := reflect.New(t.Elem()).Elem()
			err := in.Marshallable(ReadMarshallerFunc(func(w *Wire) error {
				kin, err := w.Read("key")
				if err != nil {
					return err
				}
				if err := kin.decode(k); err != nil {
					return err
				}
				vin, err := w.Read("value")
				if err != nil {
					return err
				}
				return vin.decode(v)
			}))
			if err != nil {
				return err
			}
			rv.SetMapIndex(k, v)
		}
		return nil
	})
}

// decodeStructFields reads fields into st in any order. Unknown fields
// are skipped.
func decodeStructFields(w *Wire, st reflect.Value) error {
	fs := cachedFields(st.Type())
	return eachField(w, func(name string, in *ValueIn) error {
		f, ok := fs.lookup(name)
		if !ok {
			w.logger().Debug("textwire: skipping unknown field", "type", st.Type().String(), "field", name)
			return in.Skip()
		}
		return in.decode(st.Field(f.index))
	})
}

// decodeMapFields reads fields as entries of the string keyed map m.
func decodeMapFields(w *Wire, m reflect.Value) error {
	t := m.Type()
	if t.Key().Kind() != reflect.String {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	return eachField(w, func(name string, in *ValueIn) error {
		v := reflect.New(t.Elem()).Elem()
		if err := in.decode(v); err != nil {
			return err
		}
		m.SetMapIndex(reflect.ValueOf(name).Convert(t.Key()), v)
		return nil
	})
}

// eachField hands every remaining field to fn, stopping at the end of the
// input or a document marker.
func eachField(w *Wire, fn func(name string, in *ValueIn) error) error {
	b := w.bytes
	for w.HasMore() && !w.atDocumentMark() {
		pos := b.ReadPosition()
		var in *ValueIn
		var err error
		w.scratch, in, err = w.ReadField(w.scratch[:0])
		if err != nil {
			return err
		}
		name := w.names.intern(w.scratch)
		if name == endOfBlock {
			return nil
		}
		if err := fn(name, in); err != nil {
			return err
		}
		if b.ReadPosition() == pos {
			return w.errorf(ErrGrammar, "", "unexpected character in record")
		}
	}
	return nil
}
