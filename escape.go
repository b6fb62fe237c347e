package textwire

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// needsQuotes picks the quoting a string needs so that reading it back
// as an unquoted scalar cannot change its value.
func needsQuotes(s string) quotes {
	if s == "" || s == "true" || s == "false" {
		return quoteDouble
	}
	if strings.IndexByte(startsQuoteChars, s[0]) >= 0 {
		return quoteDouble
	}
	if c := s[len(s)-1]; c == ' ' || c == '\t' {
		return quoteDouble
	}
	q := quoteNone
	for i := 1; i < len(s); i++ {
		c := s[i]
		if strings.IndexByte(quoteChars, c) >= 0 {
			return quoteDouble
		}
		if c == '"' {
			q = quoteSingle
		}
	}
	return q
}

// appendEscaped writes s wrapped in q with every character outside
// printable ASCII escaped. Bytes that are not valid UTF-8 are written as
// \xHH.
func appendEscaped(dst []byte, s string, q quotes) []byte {
	if q != quoteNone {
		dst = append(dst, byte(q))
	}
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch {
		case r == utf8.RuneError && size == 1:
			c := s[i-1]
			dst = append(dst, '\\', 'x', hexDigits[c>>4], hexDigits[c&0xF])
		case r == '\\':
			dst = append(dst, '\\', '\\')
		case q != quoteNone && r == rune(q):
			dst = append(dst, '\\', byte(q))
		case r == '\b':
			dst = append(dst, '\\', 'b')
		case r == '\t':
			dst = append(dst, '\\', 't')
		case r == '\r':
			dst = append(dst, '\\', 'r')
		case r == '\n':
			dst = append(dst, '\\', 'n')
		case r < ' ':
			dst = appendUnicodeEscape(dst, r)
		case r > 0xFFFF:
			r1, r2 := utf16.EncodeRune(r)
			dst = appendUnicodeEscape(dst, r1)
			dst = appendUnicodeEscape(dst, r2)
		case r > 127:
			dst = appendUnicodeEscape(dst, r)
		default:
			dst = append(dst, byte(r))
		}
	}
	if q != quoteNone {
		dst = append(dst, byte(q))
	}
	return dst
}

func appendUnicodeEscape(dst []byte, r rune) []byte {
	return append(dst, '\\', 'u',
		hexDigits[(r>>12)&0xF],
		hexDigits[(r>>8)&0xF],
		hexDigits[(r>>4)&0xF],
		hexDigits[r&0xF])
}

// unescape reverses appendEscaped in place and returns the shortened
// slice. Offsets in returned errors are relative to b.
func unescape(b []byte) ([]byte, error) {
	end := 0
	for i := 0; i < len(b); i++ {
		c := b[i]
		if c != '\\' || i+1 >= len(b) {
			b[end] = c
			end++
			continue
		}
		start := i
		i++
		var r rune
		switch c = b[i]; c {
		case 'b':
			r = '\b'
		case 't':
			r = '\t'
		case 'r':
			r = '\r'
		case 'n':
			r = '\n'
		case 'x':
			v, ok := parseHex(b, i+1, 2)
			if !ok {
				return nil, &Error{Kind: ErrEncoding, Offset: start, Char: int(c), Msg: errBadEscape}
			}
			// a raw byte, so that invalid UTF-8 survives
			b[end] = byte(v)
			end++
			i += 2
			continue
		case 'u':
			v, ok := parseHex(b, i+1, 4)
			if !ok {
				return nil, &Error{Kind: ErrEncoding, Offset: start, Char: int(c), Msg: errBadEscape}
			}
			r = v
			i += 4
			if utf16.IsSurrogate(r) && i+6 < len(b) && b[i+1] == '\\' && b[i+2] == 'u' {
				if lo, ok := parseHex(b, i+3, 4); ok {
					if pair := utf16.DecodeRune(r, lo); pair != utf8.RuneError {
						r = pair
						i += 6
					}
				}
			}
		default:
			b[end] = c
			end++
			continue
		}
		var tmp [utf8.UTFMax]byte
		n := utf8.EncodeRune(tmp[:], r)
		if end+n > i+1 {
			return nil, &Error{Kind: ErrEncoding, Offset: start, Char: int(c), Msg: errLengthChanged}
		}
		end += copy(b[end:], tmp[:n])
	}
	return b[:end], nil
}

func parseHex(b []byte, from, n int) (rune, bool) {
	if from+n > len(b) {
		return 0, false
	}
	var v rune
	for _, c := range b[from : from+n] {
		switch {
		case c >= '0' && c <= '9':
			v = v<<4 | rune(c-'0')
		case c >= 'a' && c <= 'f':
			v = v<<4 | rune(c-'a'+10)
		case c >= 'A' && c <= 'F':
			v = v<<4 | rune(c-'A'+10)
		default:
			return 0, false
		}
	}
	return v, true
}
