package textwire

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// WriteMarshaller writes its fields to a wire.
type WriteMarshaller interface {
	WriteMarshallable(w *Wire)
}

// WriteMarshallerFunc adapts a function to WriteMarshaller.
type WriteMarshallerFunc func(w *Wire)

func (f WriteMarshallerFunc) WriteMarshallable(w *Wire) { f(w) }

// KeyValue is one entry of a !seqmap.
type KeyValue struct {
	Key   interface{}
	Value interface{}
}

// writerState is the layout context shared by every nested write.
type writerState struct {
	depth       int
	leaf        bool // children of the current record stay on one line
	pendingLeaf bool // the next record or sequence is laid out as a leaf
	sep         []byte
}

// ValueOut writes values. Every scalar returns the owning Wire so that
// the next field can be chained.
type ValueOut struct {
	w     *Wire
	state writerState
}

func (o *ValueOut) prependSeparator() {
	s := &o.state
	if len(s.sep) > 0 {
		o.w.bytes.Append(s.sep)
		if s.sep[len(s.sep)-1] == '\n' {
			o.indent()
		}
	}
	s.sep = sepNone
}

func (o *ValueOut) indent() {
	for i := 0; i < o.state.depth*indentWidth; i++ {
		o.w.bytes.AppendByte(' ')
	}
}

func (o *ValueOut) elementSeparator() *Wire {
	s := &o.state
	s.pendingLeaf = false
	switch {
	case s.depth == 0:
		s.sep = sepNone
		o.w.bytes.AppendByte(endField)
	case s.leaf:
		s.sep = sepCommaSpace
	default:
		s.sep = sepCommaNewLine
	}
	return o.w
}

// literal writes s verbatim as one value.
func (o *ValueOut) literal(s string) *Wire {
	o.prependSeparator()
	o.w.bytes.AppendString(s)
	return o.elementSeparator()
}

func (o *ValueOut) Bool(v bool) *Wire {
	if v {
		return o.literal("true")
	}
	return o.literal("false")
}

func (o *ValueOut) Int8(v int8) *Wire   { return o.Int64(int64(v)) }
func (o *ValueOut) Int16(v int16) *Wire { return o.Int64(int64(v)) }
func (o *ValueOut) Int32(v int32) *Wire { return o.Int64(int64(v)) }

func (o *ValueOut) Int64(v int64) *Wire {
	o.prependSeparator()
	b := o.w.bytes
	b.buf = strconv.AppendInt(b.buf, v, 10)
	return o.elementSeparator()
}

func (o *ValueOut) Uint8(v uint8) *Wire   { return o.Uint64(uint64(v)) }
func (o *ValueOut) Uint16(v uint16) *Wire { return o.Uint64(uint64(v)) }
func (o *ValueOut) Uint32(v uint32) *Wire { return o.Uint64(uint64(v)) }

func (o *ValueOut) Uint64(v uint64) *Wire {
	o.prependSeparator()
	b := o.w.bytes
	b.buf = strconv.AppendUint(b.buf, v, 10)
	return o.elementSeparator()
}

func (o *ValueOut) Float32(v float32) *Wire { return o.float(float64(v), 32) }
func (o *ValueOut) Float64(v float64) *Wire { return o.float(v, 64) }

// float always renders a fraction or exponent so the value is not read
// back as an integer.
func (o *ValueOut) float(v float64, bits int) *Wire {
	o.prependSeparator()
	b := o.w.bytes
	start := len(b.buf)
	b.buf = strconv.AppendFloat(b.buf, v, 'g', -1, bits)
	if !strings.ContainsAny(string(b.buf[start:]), ".eInN") {
		b.buf = append(b.buf, '.', '0')
	}
	return o.elementSeparator()
}

// Text writes s, quoting and escaping it as needed.
func (o *ValueOut) Text(s string) *Wire {
	o.prependSeparator()
	b := o.w.bytes
	b.buf = appendEscaped(b.buf, s, needsQuotes(s))
	return o.elementSeparator()
}

// Null writes an explicit null.
func (o *ValueOut) Null() *Wire { return o.literal(nullLiteral) }

// Bytes writes p as text when it is printable ASCII, otherwise as
// !!binary.
func (o *ValueOut) Bytes(p []byte) *Wire {
	if p == nil {
		return o.Null()
	}
	if isText(p) {
		return o.Text(string(p))
	}
	return o.Binary(p)
}

func isText(p []byte) bool {
	for _, c := range p {
		if (c < ' ' && c != '\t') || c >= 127 {
			return false
		}
	}
	return true
}

// Binary writes p base64 encoded behind a !!binary tag.
func (o *ValueOut) Binary(p []byte) *Wire {
	o.prependSeparator()
	b := o.w.bytes
	b.AppendString("!" + tagBinary + " ")
	b.buf = base64.StdEncoding.AppendEncode(b.buf, p)
	return o.elementSeparator()
}

// Time writes the time of day of t.
func (o *ValueOut) Time(t time.Time) *Wire { return o.literal(t.Format(timeOfDayLayout)) }

func (o *ValueOut) Date(t time.Time) *Wire { return o.literal(t.Format(dateLayout)) }

func (o *ValueOut) DateTime(t time.Time) *Wire { return o.literal(t.Format(time.RFC3339Nano)) }

func (o *ValueOut) UUID(u uuid.UUID) *Wire { return o.literal(u.String()) }

// TypePrefix writes !name; the next value written is its body.
func (o *ValueOut) TypePrefix(name string) *ValueOut {
	o.prependSeparator()
	o.w.bytes.AppendByte('!')
	o.w.appendText(name)
	o.state.sep = sepSpace
	return o
}

// TypeLiteral writes a reference to a type rather than a value of it.
func (o *ValueOut) TypeLiteral(name string) *Wire {
	o.prependSeparator()
	o.w.bytes.AppendString("!" + tagType + " ")
	o.w.appendText(name)
	return o.elementSeparator()
}

// Leaf makes the next record or sequence render on a single line.
func (o *ValueOut) Leaf() *ValueOut {
	o.state.pendingLeaf = true
	return o
}

// Sequence writes [ ... ] with the items produced by fn.
func (o *ValueOut) Sequence(fn func(out *ValueOut)) *Wire {
	s := &o.state
	b := o.w.bytes
	o.prependSeparator()
	outer := s.leaf
	leaf := s.leaf || s.pendingLeaf
	s.pendingLeaf = false

	s.depth++
	s.leaf = leaf
	b.AppendByte('[')
	if leaf {
		s.sep = sepSpace
	} else {
		s.sep = sepNewLine
	}
	pos := b.WritePosition()
	fn(o)
	produced := b.WritePosition() > pos
	s.depth--
	s.leaf = outer

	if produced {
		if leaf {
			b.AppendByte(' ')
		} else {
			b.AppendByte(endField)
			o.indent()
		}
	}
	s.sep = sepNone
	b.AppendByte(']')
	return o.elementSeparator()
}

// Marshallable writes m as a { ... } record.
func (o *ValueOut) Marshallable(m WriteMarshaller) *Wire {
	s := &o.state
	b := o.w.bytes
	o.prependSeparator()
	outer := s.leaf
	leaf := s.leaf || s.pendingLeaf
	s.pendingLeaf = false

	s.depth++
	s.leaf = leaf
	b.AppendByte('{')
	if leaf {
		s.sep = sepSpace
	} else {
		s.sep = sepNewLine
	}
	m.WriteMarshallable(o.w)
	s.depth--
	// the last field left ", " or ",\n" behind; keep only its whitespace
	if len(s.sep) > 0 && s.sep[0] == ',' {
		s.sep = s.sep[1:]
	}
	o.prependSeparator()
	s.leaf = outer
	b.AppendByte('}')
	return o.elementSeparator()
}

// TypedMarshallable writes m behind its registered alias, falling back to
// the Go type name.
func (o *ValueOut) TypedMarshallable(m WriteMarshaller) *Wire {
	return o.TypePrefix(o.w.aliasOf(m)).Marshallable(m)
}

// SeqMap writes pairs as !seqmap [ { key: K, value: V }, ... ].
func (o *ValueOut) SeqMap(pairs []KeyValue) error {
	var err error
	o.TypePrefix(tagSeqMap).Sequence(func(out *ValueOut) {
		for _, kv := range pairs {
			kv := kv
			out.Leaf().Marshallable(WriteMarshallerFunc(func(w *Wire) {
				if e := w.Write("key").Object(kv.Key); e != nil && err == nil {
					err = e
				}
				if e := w.Write("value").Object(kv.Value); e != nil && err == nil {
					err = e
				}
			}))
		}
	})
	return err
}

// Compressed writes text compressed with c behind a !!tag.
func (o *ValueOut) Compressed(c Compressor, text string) error {
	if len(text) > MaxDecompressedSize {
		return ErrTooLarge
	}
	data, err := c.compress([]byte(text))
	if err != nil {
		return err
	}
	o.prependSeparator()
	b := o.w.bytes
	b.AppendString("!!" + c.tag() + " ")
	b.buf = base64.StdEncoding.AppendEncode(b.buf, data)
	o.elementSeparator()
	return nil
}

// CompressedText writes text, compressing it with the wire's Compression
// once it reaches CompressionThreshold bytes.
func (o *ValueOut) CompressedText(text string) error {
	w := o.w
	if w.Compression == nil || len(text) < w.CompressionThreshold {
		o.Text(text)
		return nil
	}
	return o.Compressed(w.Compression, text)
}

const (
	timeOfDayLayout = "15:04:05.999999999"
	dateLayout      = "2006-01-02"
)
