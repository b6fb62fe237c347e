package textwire

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
)

var (
	timeType           = reflect.TypeOf(time.Time{})
	uuidType           = reflect.TypeOf(uuid.UUID{})
	readMarshallerType = reflect.TypeOf((*ReadMarshaller)(nil)).Elem()
)

func reflectValueOf(v interface{}) reflect.Value {
	rv, ok := v.(reflect.Value)
	if !ok {
		rv = reflect.ValueOf(v)
	}
	return rv
}

// Marshal returns the text encoding of v as a document. Structs and
// string keyed maps become top level fields.
func Marshal(v interface{}) (b []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(runtime.Error); ok {
				panic(r)
			}
			switch r := r.(type) {
			case string:
				err = errors.New(r)
			case error:
				err = r
			default:
				err = fmt.Errorf("textwire: %v", r)
			}
		}
	}()

	w := NewWire(NewBytes())
	if err := w.WriteObject(v); err != nil {
		return nil, err
	}
	return w.bytes.Written(), nil
}

// Object writes v, choosing the layout from its Go type.
func (o *ValueOut) Object(v interface{}) error {
	return o.encode(reflectValueOf(v))
}

func (o *ValueOut) encode(rv reflect.Value) error {
	if !rv.IsValid() {
		o.Null()
		return nil
	}

	switch rv.Type() {
	case timeType:
		o.DateTime(rv.Interface().(time.Time))
		return nil
	case uuidType:
		o.UUID(rv.Interface().(uuid.UUID))
		return nil
	}

	if rv.CanInterface() {
		switch v := rv.Interface().(type) {
		case TypeName:
			o.TypeLiteral(string(v))
			return nil
		case []KeyValue:
			return o.SeqMap(v)
		case *OrderedMap:
			if v == nil {
				o.Null()
				return nil
			}
			return o.encodeRecord(func(w *Wire) error {
				for _, k := range v.keys {
					if err := w.Write(k).Object(v.values[k]); err != nil {
						return err
					}
				}
				return nil
			})
		}
		if rv.Kind() != reflect.Ptr || !rv.IsNil() {
			if m, ok := rv.Interface().(WriteMarshaller); ok {
				if _, known := o.w.Registry.alias(rv.Type()); known {
					o.TypedMarshallable(m)
				} else {
					o.Marshallable(m)
				}
				return nil
			}
		}
	}

	switch rk := rv.Kind(); rk {
	case reflect.Bool:
		o.Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		o.Int64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		o.Uint64(rv.Uint())
	case reflect.Float32:
		o.Float32(float32(rv.Float()))
	case reflect.Float64:
		o.Float64(rv.Float())
	case reflect.String:
		o.Text(rv.String())

	case reflect.Slice:
		if rv.IsNil() {
			o.Null()
			return nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			o.Bytes(rv.Bytes())
			return nil
		}
		return o.encodeSequence(rv)

	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			p := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(p), rv)
			o.Bytes(p)
			return nil
		}
		return o.encodeSequence(rv)

	case reflect.Map:
		if rv.IsNil() {
			o.Null()
			return nil
		}
		return o.encodeMap(rv)

	case reflect.Struct:
		if alias, ok := o.w.Registry.alias(rv.Type()); ok {
			o.TypePrefix(alias)
		}
		return o.encodeRecord(func(w *Wire) error {
			return encodeFields(w, rv)
		})

	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			o.Null()
			return nil
		}
		return o.encode(rv.Elem())

	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, rv.Type())
	}
	return nil
}

// encodeRecord writes a record whose body may fail.
func (o *ValueOut) encodeRecord(body func(w *Wire) error) error {
	var err error
	o.Marshallable(WriteMarshallerFunc(func(w *Wire) {
		err = body(w)
	}))
	return err
}

func (o *ValueOut) encodeSequence(rv reflect.Value) error {
	var err error
	o.Sequence(func(out *ValueOut) {
		for i := 0; i < rv.Len() && err == nil; i++ {
			err = out.encode(rv.Index(i))
		}
	})
	return err
}

// encodeMap writes string keyed maps as records and anything else as a
// !seqmap, both with sorted keys.
func (o *ValueOut) encodeMap(rv reflect.Value) error {
	keys := rv.MapKeys()
	if rv.Type().Key().Kind() == reflect.String {
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		return o.encodeRecord(func(w *Wire) error {
			for _, k := range keys {
				if err := w.Write(k.String()).encode(rv.MapIndex(k)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})
	pairs := make([]KeyValue, len(keys))
	for i, k := range keys {
		pairs[i] = KeyValue{Key: k.Interface(), Value: rv.MapIndex(k).Interface()}
	}
	return o.SeqMap(pairs)
}

// encodeFields writes the exported fields of a struct in declaration
// order.
func encodeFields(w *Wire, st reflect.Value) error {
	for _, f := range cachedFields(st.Type()).list {
		fv := st.Field(f.index)
		if f.omitEmpty && isEmptyValue(fv) {
			continue
		}
		if err := w.Write(f.name).encode(fv); err != nil {
			return err
		}
	}
	return nil
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	}
	return false
}
