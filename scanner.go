package textwire

import "unicode/utf8"

// stopFunc reports whether c ends the current token; next is the byte
// following c, or -1 at the limit.
type stopFunc func(c, next int) bool

func stopDoubleQuote(c, _ int) bool { return c == '"' || c == 0 }

func stopSingleQuote(c, _ int) bool { return c == '\'' || c == 0 }

// endOfText ends an unquoted scalar or field name.
func endOfText(c, next int) bool {
	switch c {
	case '#', 0, '\r', '\n', '}', ']':
		return true
	case ':', ',':
		return next <= ' '
	}
	return false
}

// endOfType ends a type name or a base64 word. It is never consumed.
func endOfType(c, _ int) bool {
	switch c {
	case ' ', '\t', '\r', '\n', ',', '{', '}', ']', '#', 0:
		return true
	}
	return false
}

func isWhitespace(c int) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

// consumeWhitespace skips whitespace, commas and comments, tracking the
// start of the current line.
func (w *Wire) consumeWhitespace() {
	b := w.bytes
	for {
		c := b.Peek()
		switch {
		case c == '#':
			for c = b.Read(); c >= ' ' || c == '\t'; c = b.Read() {
			}
			w.lineStart = b.ReadPosition()
		case c == '\n' || c == '\r':
			b.Skip(1)
			w.lineStart = b.ReadPosition()
		case c == ',' || isWhitespace(c):
			b.Skip(1)
		default:
			return
		}
	}
}

// indentation is the column of the read position.
func (w *Wire) indentation() int {
	return w.bytes.ReadPosition() - w.lineStart
}

// parseUntil appends bytes to dst until stop fires. The stop byte is
// consumed but not appended. With escaping set, a byte following a
// backslash never stops the scan.
func (w *Wire) parseUntil(dst []byte, stop stopFunc, escaping bool) []byte {
	b := w.bytes
	escaped := false
	for {
		c := b.Read()
		if c < 0 {
			return dst
		}
		if escaping {
			if escaped {
				escaped = false
				dst = w.appendParsed(dst, c)
				continue
			}
			if c == '\\' {
				escaped = true
				dst = append(dst, '\\')
				continue
			}
		}
		if stop(c, b.Peek()) {
			return dst
		}
		dst = w.appendParsed(dst, c)
	}
}

// parseToken appends bytes to dst up to, not including, the stop byte.
func (w *Wire) parseToken(dst []byte, stop stopFunc) []byte {
	b := w.bytes
	for c := b.Peek(); c >= 0; c = b.Peek() {
		if stop(c, b.PeekAt(b.ReadPosition()+1)) {
			break
		}
		dst = w.appendParsed(dst, b.Read())
	}
	return dst
}

// appendParsed stores one input byte; in 8-bit mode bytes above 0x7F
// are Latin-1 code points.
func (w *Wire) appendParsed(dst []byte, c int) []byte {
	if w.use8bit && c >= utf8.RuneSelf {
		return utf8.AppendRune(dst, rune(c))
	}
	return append(dst, byte(c))
}

// appendText is the write-side counterpart of appendParsed.
func (w *Wire) appendText(s string) {
	if !w.use8bit {
		w.bytes.AppendString(s)
		return
	}
	for _, r := range s {
		if r > 0xFF {
			r = '?'
		}
		w.bytes.AppendByte(byte(r))
	}
}

// readFieldName reads the next field name into dst. End of input yields
// an empty name.
func (w *Wire) readFieldName(dst []byte) ([]byte, error) {
	w.consumeWhitespace()
	start := len(dst)
	switch c := w.bytes.Peek(); {
	case c < 0:
		return dst, nil
	case c == '"' || c == '\'':
		stop := stopDoubleQuote
		if c == '\'' {
			stop = stopSingleQuote
		}
		w.bytes.Skip(1)
		dst = w.parseUntil(dst, stop, true)
		w.consumeWhitespace()
		if c := w.bytes.Peek(); c != ':' {
			return dst, w.errorf(ErrGrammar, ":", "quoted field name not followed by a colon")
		}
		w.bytes.Skip(1)
	default:
		dst = w.parseUntil(dst, endOfText, true)
		dst = trimTrailingSpace(dst, start)
	}
	name, err := unescape(dst[start:])
	if err != nil {
		return dst, w.restamp(err)
	}
	return dst[:start+len(name)], nil
}

// consumeDocumentStart skips a leading --- marker.
func (w *Wire) consumeDocumentStart() {
	w.consumeWhitespace()
	if w.bytes.HasPrefix(documentMark) {
		w.bytes.Skip(len(documentMark))
	}
}

// atDocumentMark reports whether the read position starts a --- line.
func (w *Wire) atDocumentMark() bool {
	return w.bytes.HasPrefix(documentMark) && w.indentation() == 0
}

func trimTrailingSpace(b []byte, from int) []byte {
	for len(b) > from && isWhitespace(int(b[len(b)-1])) {
		b = b[:len(b)-1]
	}
	return b
}

// restamp replaces an unescape error's token-relative offset with the
// read position.
func (w *Wire) restamp(err error) error {
	if e, ok := err.(*Error); ok {
		e.Offset = w.bytes.ReadPosition()
		return e
	}
	return err
}
