package textwire

import (
	"errors"
	"fmt"
	"strconv"
)

// Error kinds. Every *Error unwraps to exactly one of these.
var (
	ErrFraming        = errors.New("textwire: framing error")
	ErrGrammar        = errors.New("textwire: grammar error")
	ErrEncoding       = errors.New("textwire: encoding error")
	ErrTypeResolution = errors.New("textwire: type resolution error")
	ErrRange          = errors.New("textwire: value out of range")

	ErrNull            = errors.New("textwire: value is null")
	ErrUnsupportedType = errors.New("textwire: unsupported type")
	ErrUnknownCodec    = errors.New("textwire: unknown compression tag")
)

// internal messages
const (
	errUnterminatedRecord   = "unterminated record"
	errUnterminatedSequence = "unterminated sequence"
	errUnorderedField       = "unordered fields not supported"
	errLengthChanged        = "unescaped length exceeds input"
	errBadEscape            = "bad escape sequence"
)

// Error describes a failure at a specific point of the buffer.
type Error struct {
	Kind     error
	Offset   int    // read offset when the failure was detected
	Char     int    // offending byte, -1 at end of input
	Expected string // token that was required, if any
	Msg      string
}

func (e *Error) Error() string {
	s := e.Kind.Error() + " at offset " + strconv.Itoa(e.Offset)
	if e.Char < 0 {
		s += " (end of input)"
	} else {
		s += " (" + strconv.QuoteRune(rune(e.Char)) + ")"
	}
	if e.Expected != "" {
		s += ", expected " + strconv.Quote(e.Expected)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

func (e *Error) Unwrap() error { return e.Kind }

// errorf stamps the current read position and lookahead into an *Error.
func (w *Wire) errorf(kind error, expected, format string, args ...interface{}) *Error {
	return &Error{
		Kind:     kind,
		Offset:   w.bytes.ReadPosition(),
		Char:     w.bytes.Peek(),
		Expected: expected,
		Msg:      fmt.Sprintf(format, args...),
	}
}

// errorAt is errorf for failures detected at an earlier offset.
func (w *Wire) errorAt(kind error, off, char int, expected, msg string) *Error {
	return &Error{Kind: kind, Offset: off, Char: char, Expected: expected, Msg: msg}
}
