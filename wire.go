package textwire

import (
	"io"
	"log/slog"
	"strings"
)

// A Wire reads and writes the text encoding over one Bytes buffer. It is
// not safe for concurrent use.
type Wire struct {
	bytes     *Bytes
	use8bit   bool
	ready     bool
	lineStart int

	out ValueOut
	in  ValueIn

	names   interner
	scratch []byte

	// Registry resolves !alias tags. Nil means only built-in tags are
	// understood.
	Registry *Registry

	// Compression is applied by CompressedText once the text reaches
	// CompressionThreshold bytes.
	Compression          Compressor
	CompressionThreshold int

	Logger *slog.Logger
}

// NewWire returns a UTF-8 wire over b.
func NewWire(b *Bytes) *Wire {
	w := &Wire{bytes: b, CompressionThreshold: 1024}
	w.out.w = w
	w.in.w = w
	return w
}

// NewWire8bit returns a wire that maps each byte to one Latin-1
// character.
func NewWire8bit(b *Bytes) *Wire {
	w := NewWire(b)
	w.use8bit = true
	return w
}

// NewWireString returns a wire reading s.
func NewWireString(s string) *Wire {
	return NewWire(BytesOf(s))
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func (w *Wire) logger() *slog.Logger {
	if w.Logger == nil {
		return discard
	}
	return w.Logger
}

// Bytes returns the underlying buffer.
func (w *Wire) Bytes() *Bytes { return w.bytes }

// String returns the unread text.
func (w *Wire) String() string { return w.bytes.String() }

func (w *Wire) Ready() bool { return w.ready }

func (w *Wire) SetReady(ready bool) { w.ready = ready }

// Clear empties the buffer and resets reader and writer state.
func (w *Wire) Clear() {
	w.bytes.Clear()
	w.lineStart = 0
	w.out.state = writerState{}
}

// Write starts a named field. An empty name writes an anonymous field.
func (w *Wire) Write(name string) *ValueOut {
	o := &w.out
	o.prependSeparator()
	b := w.bytes
	b.buf = appendEscaped(b.buf, name, needsQuotes(name))
	b.AppendString(fieldSep)
	return o
}

// WriteValue returns the writer for a value with no field name, as used
// for sequence items.
func (w *Wire) WriteValue() *ValueOut { return &w.out }

// WriteComment writes each line of text as a # comment.
func (w *Wire) WriteComment(text string) *Wire {
	w.out.prependSeparator()
	for _, line := range strings.Split(text, "\n") {
		w.bytes.AppendString("# ")
		w.appendText(line)
		w.bytes.AppendByte(endField)
	}
	return w
}

// AddPadding writes n bytes of whitespace ending in a newline.
func (w *Wire) AddPadding(n int) *Wire {
	if n <= 0 {
		return w
	}
	w.out.prependSeparator()
	for i := 1; i < n; i++ {
		w.bytes.AppendByte(' ')
	}
	w.bytes.AppendByte(endField)
	return w
}

// PadToBoundary pads the buffer to the next 64 byte boundary.
func (w *Wire) PadToBoundary() *Wire {
	if rem := w.bytes.WritePosition() % padBoundary; rem != 0 {
		w.AddPadding(padBoundary - rem)
	}
	return w
}

// Read consumes the next field, which must be called name or be
// anonymous. Reading past the end of the input is not an error.
func (w *Wire) Read(name string) (*ValueIn, error) {
	pos := w.bytes.ReadPosition()
	var err error
	w.scratch, err = w.readFieldName(w.scratch[:0])
	if err != nil {
		return nil, err
	}
	if len(w.scratch) == 0 || string(w.scratch) == name {
		return &w.in, nil
	}
	found := w.names.intern(w.scratch)
	w.bytes.SetReadPosition(pos)
	return nil, w.errorf(ErrFraming, name, "%s, found %q", errUnorderedField, found)
}

// ReadField consumes the next field, appending its name to dst.
func (w *Wire) ReadField(dst []byte) ([]byte, *ValueIn, error) {
	dst, err := w.readFieldName(dst)
	if err != nil {
		return dst, nil, err
	}
	return dst, &w.in, nil
}

// ReadValue returns the reader for a value with no field name.
func (w *Wire) ReadValue() *ValueIn { return &w.in }

// HasMore reports whether anything other than whitespace and comments is
// left to read.
func (w *Wire) HasMore() bool {
	w.consumeWhitespace()
	return w.bytes.ReadRemaining() > 0
}

// ConsumeDocumentStart skips an optional --- marker.
func (w *Wire) ConsumeDocumentStart() { w.consumeDocumentStart() }
