package textwire

import (
	"encoding/base64"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReadMarshaller reads its fields from a wire confined to its record.
type ReadMarshaller interface {
	ReadMarshallable(w *Wire) error
}

// ReadMarshallerFunc adapts a function to ReadMarshaller.
type ReadMarshallerFunc func(w *Wire) error

func (f ReadMarshallerFunc) ReadMarshallable(w *Wire) error { return f(w) }

// ValueIn reads values.
type ValueIn struct {
	w *Wire
}

// textTo appends the next scalar to dst. null reports an explicit
// !!null.
func (in *ValueIn) textTo(dst []byte) (out []byte, null bool, err error) {
	w := in.w
	b := w.bytes
	w.consumeWhitespace()
	start := len(dst)
	switch c := b.Peek(); c {
	case -1:
		return dst, false, nil
	case '{':
		n, err := in.readLength()
		if err != nil {
			return dst, false, err
		}
		pos := b.ReadPosition()
		dst = append(dst, b.Slice(pos, pos+n)...)
		b.Skip(n)
		in.skipTrailingComma()
		return dst, false, nil
	case '!':
		return in.typedText(dst)
	case '"', '\'':
		b.Skip(1)
		stop := stopDoubleQuote
		if c == '\'' {
			stop = stopSingleQuote
		}
		dst = w.parseUntil(dst, stop, true)
	default:
		dst = w.parseUntil(dst, endOfText, true)
		dst = trimTrailingSpace(dst, start)
	}
	text, err := unescape(dst[start:])
	if err != nil {
		return dst, false, w.restamp(err)
	}
	in.peekBack()
	return dst[:start+len(text)], false, nil
}

// typedText handles a scalar introduced by '!'.
func (in *ValueIn) typedText(dst []byte) ([]byte, bool, error) {
	w := in.w
	b := w.bytes
	start := b.ReadPosition()
	b.Skip(1)
	var tb [32]byte
	tag := string(w.parseToken(tb[:0], endOfType))
	switch {
	case tag == tagNull:
		in.skipEmptyQuotes()
		return dst, true, nil
	case tag == tagBinary:
		data, err := in.base64Word()
		return append(dst, data...), false, err
	case strings.HasPrefix(tag, "!"):
		if c := compressorFor(tag[1:]); c != nil {
			data, err := in.base64Word()
			if err != nil {
				return dst, false, err
			}
			text, err := c.decompress(data)
			if err != nil {
				return dst, false, w.errorAt(ErrEncoding, start, '!', "", err.Error())
			}
			return append(dst, text...), false, nil
		}
	}
	// any other tag names a type; the text is its body
	return in.textTo(dst)
}

func (in *ValueIn) skipSpaces() {
	b := in.w.bytes
	for c := b.Peek(); c == ' ' || c == '\t'; c = b.Peek() {
		b.Skip(1)
	}
}

func (in *ValueIn) skipEmptyQuotes() {
	in.skipSpaces()
	if in.w.bytes.HasPrefix(`""`) {
		in.w.bytes.Skip(2)
	}
}

func (in *ValueIn) skipTrailingComma() {
	in.skipSpaces()
	if in.w.bytes.Peek() == ',' {
		in.w.bytes.Skip(1)
	}
}

func (in *ValueIn) base64Word() ([]byte, error) {
	w := in.w
	in.skipSpaces()
	start := w.bytes.ReadPosition()
	word := w.parseToken(nil, endOfType)
	data, err := base64.StdEncoding.DecodeString(string(word))
	if err != nil {
		return nil, w.errorAt(ErrEncoding, start, w.bytes.PeekAt(start), "base64", err.Error())
	}
	return data, nil
}

// peekBack re-exposes a structural byte consumed as a terminator and
// keeps lineStart current when a newline was consumed.
func (in *ValueIn) peekBack() {
	w := in.w
	b := w.bytes
	i := b.ReadPosition() - 1
	for i >= 0 && b.buf[i] == ' ' {
		i--
	}
	if i < 0 {
		return
	}
	switch b.buf[i] {
	case '\n', '\r':
		b.SetReadPosition(i + 1)
		w.lineStart = i + 1
	case ':', '#', '}', ']':
		b.SetReadPosition(i)
	default:
		b.SetReadPosition(i + 1)
	}
}

// ReadLength returns how many bytes the next value occupies without
// consuming it.
func (in *ValueIn) ReadLength() (int, error) { return in.readLength() }

func (in *ValueIn) readLength() (int, error) {
	w := in.w
	b := w.bytes
	w.consumeWhitespace()
	start := b.ReadPosition()
	switch c := b.Peek(); c {
	case -1:
		return 0, nil
	case '{':
		return in.bracketLength(start, '{', '}', errUnterminatedRecord)
	case '[':
		return in.bracketLength(start, '[', ']', errUnterminatedSequence)
	case '-':
		if in.atListItem() {
			i, limit := start, b.ReadLimit()
			for i < limit && (b.buf[i] >= ' ' || b.buf[i] == '\t') {
				i++
			}
			return i - start, nil
		}
	}
	lineStart := w.lineStart
	_, _, err := in.textTo(nil)
	n := b.ReadPosition() - start
	b.SetReadPosition(start)
	w.lineStart = lineStart
	return n, err
}

// bracketLength counts open/close pairs from start, skipping quoted
// strings and comments, and returns the span through the matching close.
func (in *ValueIn) bracketLength(start int, open, close byte, msg string) (int, error) {
	b := in.w.bytes
	buf, limit := b.buf, b.ReadLimit()
	depth := 0
	var quote byte
	for i := start; i < limit; i++ {
		c := buf[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			if valueStart(buf, start, i) {
				quote = c
			}
		case '#':
			if i > start && (buf[i-1] == ' ' || buf[i-1] == '\t') {
				for i < limit && buf[i] != '\n' {
					i++
				}
			}
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i + 1 - start, nil
			}
		}
	}
	return 0, in.w.errorAt(ErrFraming, start, int(open), string(close), msg)
}

// valueStart reports whether a quote at i opens a scalar rather than
// sitting inside a bare word.
func valueStart(buf []byte, lo, i int) bool {
	j := i - 1
	for j >= lo && (buf[j] == ' ' || buf[j] == '\t') {
		j--
	}
	if j < lo {
		return true
	}
	switch buf[j] {
	case ':', ',', '[', '{', '-', '\n', '\r':
		return true
	}
	return false
}

// Skip consumes the next value using length framing alone.
func (in *ValueIn) Skip() error {
	n, err := in.readLength()
	if err != nil {
		return err
	}
	in.w.bytes.Skip(n)
	in.skipTrailingComma()
	return nil
}

// IsNull consumes an explicit null if one is next.
func (in *ValueIn) IsNull() bool {
	in.w.consumeWhitespace()
	if !in.w.bytes.HasPrefix("!" + tagNull) {
		return false
	}
	in.w.bytes.Skip(len(tagNull) + 1)
	in.skipEmptyQuotes()
	return true
}

// errNoValue is returned by scalar at the end of the input. Scalar
// readers report it as their zero value.
var errNoValue = errors.New("textwire: no value")

func absent(err error) error {
	if err == errNoValue {
		return nil
	}
	return err
}

// scalar reads the next value as text into the wire's scratch buffer.
func (in *ValueIn) scalar(expected string) ([]byte, int, error) {
	w := in.w
	w.consumeWhitespace()
	start := w.bytes.ReadPosition()
	if w.bytes.ReadRemaining() <= 0 {
		return nil, start, errNoValue
	}
	var null bool
	var err error
	w.scratch, null, err = in.textTo(w.scratch[:0])
	if err != nil {
		return nil, start, err
	}
	if null {
		return nil, start, w.errorAt(ErrNull, start, '!', expected, "")
	}
	return w.scratch, start, nil
}

func (in *ValueIn) Bool() (bool, error) {
	s, start, err := in.scalar("bool")
	if err != nil {
		return false, absent(err)
	}
	switch string(s) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, in.w.errorAt(ErrGrammar, start, firstChar(s), "bool", strconv.Quote(string(s)))
}

func firstChar(s []byte) int {
	if len(s) == 0 {
		return -1
	}
	return int(s[0])
}

func stripUnderscores(s []byte) string {
	if !strings.Contains(string(s), "_") {
		return string(s)
	}
	return strings.ReplaceAll(string(s), "_", "")
}

func (in *ValueIn) Int64() (int64, error) {
	s, start, err := in.scalar("integer")
	if err != nil {
		return 0, absent(err)
	}
	t := stripUnderscores(s)
	v, err := strconv.ParseInt(t, 10, 64)
	if err != nil && hasRadixPrefix(t) {
		v, err = strconv.ParseInt(t, 0, 64)
	}
	return v, in.numError(err, start, s, "integer")
}

func (in *ValueIn) Uint64() (uint64, error) {
	s, start, err := in.scalar("unsigned integer")
	if err != nil {
		return 0, absent(err)
	}
	t := strings.TrimPrefix(stripUnderscores(s), "+")
	v, err := strconv.ParseUint(t, 10, 64)
	if err != nil && hasRadixPrefix(t) {
		v, err = strconv.ParseUint(t, 0, 64)
	}
	return v, in.numError(err, start, s, "unsigned integer")
}

func hasRadixPrefix(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 2 && s[0] == '0' && strings.IndexByte("xXoObB", s[1]) >= 0
}

// numError maps strconv failures onto range and grammar errors.
func (in *ValueIn) numError(err error, start int, s []byte, expected string) error {
	if err == nil {
		return nil
	}
	kind := ErrGrammar
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		kind = ErrRange
	}
	return in.w.errorAt(kind, start, firstChar(s), expected, strconv.Quote(string(s)))
}

func (in *ValueIn) intN(min, max int64, expected string) (int64, error) {
	start := in.w.bytes.ReadPosition()
	v, err := in.Int64()
	if err != nil {
		return 0, err
	}
	if v < min || v > max {
		return 0, in.w.errorAt(ErrRange, start, -1, expected, strconv.FormatInt(v, 10))
	}
	return v, nil
}

func (in *ValueIn) uintN(max uint64, expected string) (uint64, error) {
	start := in.w.bytes.ReadPosition()
	v, err := in.Uint64()
	if err != nil {
		return 0, err
	}
	if v > max {
		return 0, in.w.errorAt(ErrRange, start, -1, expected, strconv.FormatUint(v, 10))
	}
	return v, nil
}

func (in *ValueIn) Int8() (int8, error) {
	v, err := in.intN(math.MinInt8, math.MaxInt8, "int8")
	return int8(v), err
}

func (in *ValueIn) Int16() (int16, error) {
	v, err := in.intN(math.MinInt16, math.MaxInt16, "int16")
	return int16(v), err
}

func (in *ValueIn) Int32() (int32, error) {
	v, err := in.intN(math.MinInt32, math.MaxInt32, "int32")
	return int32(v), err
}

func (in *ValueIn) Uint8() (uint8, error) {
	v, err := in.uintN(math.MaxUint8, "uint8")
	return uint8(v), err
}

func (in *ValueIn) Uint16() (uint16, error) {
	v, err := in.uintN(math.MaxUint16, "uint16")
	return uint16(v), err
}

func (in *ValueIn) Uint32() (uint32, error) {
	v, err := in.uintN(math.MaxUint32, "uint32")
	return uint32(v), err
}

func (in *ValueIn) Float64() (float64, error) {
	s, start, err := in.scalar("float")
	if err != nil {
		return 0, absent(err)
	}
	v, err := strconv.ParseFloat(stripUnderscores(s), 64)
	return v, in.numError(err, start, s, "float")
}

// Float32 fails with ErrRange when the value does not fit a float32.
func (in *ValueIn) Float32() (float32, error) {
	s, start, err := in.scalar("float32")
	if err != nil {
		return 0, absent(err)
	}
	v, err := strconv.ParseFloat(stripUnderscores(s), 32)
	return float32(v), in.numError(err, start, s, "float32")
}

// Text reads a string. An explicit null reads as "".
func (in *ValueIn) Text() (string, error) {
	w := in.w
	var err error
	w.scratch, _, err = in.textTo(w.scratch[:0])
	if err != nil {
		return "", err
	}
	return string(w.scratch), nil
}

// NullableText reads a string, returning nil for an explicit null.
func (in *ValueIn) NullableText() (*string, error) {
	w := in.w
	var null bool
	var err error
	w.scratch, null, err = in.textTo(w.scratch[:0])
	if err != nil || null {
		return nil, err
	}
	s := string(w.scratch)
	return &s, nil
}

// TextTo appends the next string to dst.
func (in *ValueIn) TextTo(dst []byte) ([]byte, error) {
	dst, _, err := in.textTo(dst)
	return dst, err
}

// Bytes reads text or !!binary content. An explicit null reads as nil.
func (in *ValueIn) Bytes() ([]byte, error) {
	data, null, err := in.textTo(nil)
	if err != nil || null {
		return nil, err
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

func (in *ValueIn) parseTime(layout, expected string) (time.Time, error) {
	s, start, err := in.scalar(expected)
	if err != nil {
		return time.Time{}, absent(err)
	}
	text := string(s)
	if layout == timeOfDayLayout && len(text) > 1 && text[1] == ':' {
		text = "0" + text
	}
	t, err := time.Parse(layout, text)
	if err != nil {
		return time.Time{}, in.w.errorAt(ErrGrammar, start, firstChar(s), expected, err.Error())
	}
	return t, nil
}

// Time reads a time of day.
func (in *ValueIn) Time() (time.Time, error) { return in.parseTime(timeOfDayLayout, "time") }

func (in *ValueIn) Date() (time.Time, error) { return in.parseTime(dateLayout, "date") }

func (in *ValueIn) DateTime() (time.Time, error) { return in.parseTime(time.RFC3339Nano, "date-time") }

func (in *ValueIn) UUID() (uuid.UUID, error) {
	s, start, err := in.scalar("uuid")
	if err != nil {
		return uuid.Nil, absent(err)
	}
	u, err := uuid.ParseBytes(s)
	if err != nil {
		return uuid.Nil, in.w.errorAt(ErrGrammar, start, firstChar(s), "uuid", err.Error())
	}
	return u, nil
}

// Type reads a !name prefix, returning "" when there is none.
func (in *ValueIn) Type() string {
	w := in.w
	w.consumeWhitespace()
	if w.bytes.Peek() != '!' {
		return ""
	}
	w.bytes.Skip(1)
	var tb [32]byte
	return string(w.parseToken(tb[:0], endOfType))
}

// TypeLiteral reads a value written by ValueOut.TypeLiteral.
func (in *ValueIn) TypeLiteral() (string, error) {
	w := in.w
	w.consumeWhitespace()
	prefix := "!" + tagType + " "
	if !w.bytes.HasPrefix(prefix) {
		return "", w.errorf(ErrGrammar, prefix, "expected a type literal")
	}
	w.bytes.Skip(len(prefix))
	in.skipSpaces()
	var tb [32]byte
	return string(w.parseToken(tb[:0], endOfType)), nil
}

// Sequence reads [ ... ], handing the items to fn.
func (in *ValueIn) Sequence(fn func(in *ValueIn) error) error {
	w := in.w
	b := w.bytes
	w.consumeWhitespace()
	if b.Peek() != '[' {
		return w.errorf(ErrGrammar, "[", "expected a sequence")
	}
	start := b.ReadPosition()
	b.Skip(1)
	w.consumeWhitespace()
	if b.Peek() == ']' {
		b.Skip(1)
		return nil
	}
	if err := fn(in); err != nil {
		return err
	}
	w.consumeWhitespace()
	if b.Peek() != ']' {
		return w.errorAt(ErrFraming, start, '[', "]", errUnterminatedSequence)
	}
	b.Skip(1)
	return nil
}

// HasNextSequenceItem reports whether the enclosing sequence has more
// items.
func (in *ValueIn) HasNextSequenceItem() bool {
	in.w.consumeWhitespace()
	c := in.w.bytes.Peek()
	return c >= 0 && c != ']'
}

// Marshallable reads a { ... } record into m. m only sees the bytes of
// the record; whatever it leaves unread is skipped.
func (in *ValueIn) Marshallable(m ReadMarshaller) error {
	w := in.w
	b := w.bytes
	w.consumeWhitespace()
	if b.Peek() == '!' {
		if in.IsNull() {
			return w.errorf(ErrNull, "{", "")
		}
		in.Type()
		w.consumeWhitespace()
	}
	if b.Peek() != '{' {
		return w.errorf(ErrGrammar, "{", "expected a record")
	}
	n, err := in.readLength()
	if err != nil {
		return err
	}
	limit := b.limit
	end := b.ReadPosition() + n - 1
	b.SetReadLimit(end)
	b.Skip(1)
	err = m.ReadMarshallable(w)
	b.limit = limit
	b.SetReadPosition(end)
	if err != nil {
		return err
	}
	if c := b.Read(); c != '}' {
		return w.errorAt(ErrFraming, end, c, "}", errUnterminatedRecord)
	}
	return nil
}

// TypedMarshallable reads a !alias { ... } value into a new instance of
// the registered type.
func (in *ValueIn) TypedMarshallable() (interface{}, error) {
	w := in.w
	w.consumeWhitespace()
	if w.bytes.Peek() != '!' {
		return nil, w.errorf(ErrGrammar, "!", "expected a type tag")
	}
	return in.typedObject()
}

// SeqMap reads a !seqmap written by ValueOut.SeqMap.
func (in *ValueIn) SeqMap() ([]KeyValue, error) {
	if in.IsNull() {
		return nil, nil
	}
	w := in.w
	if tag := in.Type(); tag != tagSeqMap {
		return nil, w.errorf(ErrGrammar, "!"+tagSeqMap, "found %q", tag)
	}
	pairs := []KeyValue{}
	err := in.Sequence(func(in *ValueIn) error {
		for in.HasNextSequenceItem() {
			var kv KeyValue
			err := in.Marshallable(ReadMarshallerFunc(func(w *Wire) error {
				v, err := w.Read("key")
				if err != nil {
					return err
				}
				if kv.Key, err = v.Object(); err != nil {
					return err
				}
				if v, err = w.Read("value"); err != nil {
					return err
				}
				kv.Value, err = v.Object()
				return err
			}))
			if err != nil {
				return err
			}
			pairs = append(pairs, kv)
		}
		return nil
	})
	return pairs, err
}
