package textwire

import (
	"reflect"
	"sort"
)

// ReadObject reads one document, skipping a leading --- marker. Block
// maps become *OrderedMap and - lists become []interface{}.
func (w *Wire) ReadObject() (interface{}, error) {
	w.consumeDocumentStart()
	v, _, err := w.in.readObject(0)
	return v, err
}

// ReadDocuments reads every remaining document.
func (w *Wire) ReadDocuments() ([]interface{}, error) {
	var docs []interface{}
	for w.HasMore() {
		pos := w.bytes.ReadPosition()
		v, err := w.ReadObject()
		if err != nil {
			return docs, err
		}
		if w.bytes.ReadPosition() == pos {
			return docs, w.errorf(ErrGrammar, "", "unexpected character at document level")
		}
		docs = append(docs, v)
	}
	return docs, nil
}

// WriteObject writes v as a document body. Records are written as top
// level fields and slices as - items; anything else as a single value.
func (w *Wire) WriteObject(v interface{}) error {
	switch v := v.(type) {
	case *OrderedMap:
		for _, k := range v.keys {
			if err := w.Write(k).Object(v.values[k]); err != nil {
				return err
			}
		}
		return nil
	case WriteMarshaller:
		if _, ok := w.Registry.Alias(v); ok {
			w.out.TypedMarshallable(v)
		} else {
			v.WriteMarshallable(w)
		}
		return nil
	}

	rv := reflectValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) && !rv.IsNil() {
		if rv.Type() != timeType && rv.CanInterface() {
			if _, ok := rv.Interface().(WriteMarshaller); ok {
				return w.WriteObject(rv.Interface())
			}
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		w.out.Null()
		return nil
	}

	switch rv.Kind() {
	case reflect.Struct:
		if rv.Type() == timeType || rv.Type() == uuidType {
			break
		}
		if rv.CanAddr() {
			if m, ok := rv.Addr().Interface().(WriteMarshaller); ok {
				return w.WriteObject(m)
			}
		}
		return encodeFields(w, rv)

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			if err := w.Write(k.String()).encode(rv.MapIndex(k)); err != nil {
				return err
			}
		}
		return nil

	case reflect.Slice:
		if rv.IsNil() || rv.Type().Elem().Kind() == reflect.Uint8 || rv.Type() == reflect.TypeOf([]KeyValue(nil)) {
			break
		}
		for i := 0; i < rv.Len(); i++ {
			w.bytes.AppendString("- ")
			if err := w.out.encode(rv.Index(i)); err != nil {
				return err
			}
		}
		return nil
	}
	return w.out.encode(rv)
}

// WriteDocumentStart writes a --- marker ahead of the next document.
func (w *Wire) WriteDocumentStart() *Wire {
	w.out.prependSeparator()
	w.bytes.AppendString(documentMark)
	w.bytes.AppendByte(endField)
	return w
}
