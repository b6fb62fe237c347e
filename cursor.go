package textwire

// Bytes is a growable byte buffer with an independent read cursor and an
// optional read limit. Writes always append; the read side never moves
// past the limit, which lets nested readers be confined to a framed span.
type Bytes struct {
	buf   []byte
	rpos  int
	limit int // -1 tracks the write position
}

// NewBytes returns an empty buffer.
func NewBytes() *Bytes {
	return &Bytes{buf: make([]byte, 0, 64), limit: -1}
}

// WrapBytes returns a buffer reading from b. The slice is not copied.
func WrapBytes(b []byte) *Bytes {
	return &Bytes{buf: b, limit: -1}
}

// BytesOf returns a buffer holding a copy of s.
func BytesOf(s string) *Bytes {
	return &Bytes{buf: []byte(s), limit: -1}
}

func (b *Bytes) ReadPosition() int { return b.rpos }

func (b *Bytes) SetReadPosition(p int) {
	if p < 0 {
		p = 0
	}
	if l := b.ReadLimit(); p > l {
		p = l
	}
	b.rpos = p
}

// ReadLimit is the offset one past the last readable byte.
func (b *Bytes) ReadLimit() int {
	if b.limit < 0 || b.limit > len(b.buf) {
		return len(b.buf)
	}
	return b.limit
}

// SetReadLimit confines reads to [ReadPosition, l). A negative limit
// releases the confinement.
func (b *Bytes) SetReadLimit(l int) {
	if l >= len(b.buf) {
		l = -1
	}
	b.limit = l
}

func (b *Bytes) ReadRemaining() int { return b.ReadLimit() - b.rpos }

func (b *Bytes) WritePosition() int { return len(b.buf) }

// Peek returns the next byte without consuming it, or -1 at the limit.
func (b *Bytes) Peek() int {
	if b.rpos >= b.ReadLimit() {
		return -1
	}
	return int(b.buf[b.rpos])
}

// PeekAt returns the byte at absolute offset off, or -1 outside the
// readable region.
func (b *Bytes) PeekAt(off int) int {
	if off < 0 || off >= b.ReadLimit() {
		return -1
	}
	return int(b.buf[off])
}

// Read consumes one byte, returning -1 at the limit.
func (b *Bytes) Read() int {
	if b.rpos >= b.ReadLimit() {
		return -1
	}
	c := b.buf[b.rpos]
	b.rpos++
	return int(c)
}

// Skip advances the read position by n, clamped to the limit.
func (b *Bytes) Skip(n int) { b.SetReadPosition(b.rpos + n) }

// HasPrefix reports whether the unread bytes start with s.
func (b *Bytes) HasPrefix(s string) bool {
	if b.ReadRemaining() < len(s) {
		return false
	}
	return string(b.buf[b.rpos:b.rpos+len(s)]) == s
}

func (b *Bytes) AppendByte(c byte) { b.buf = append(b.buf, c) }

func (b *Bytes) Append(p []byte) { b.buf = append(b.buf, p...) }

func (b *Bytes) AppendString(s string) { b.buf = append(b.buf, s...) }

// Slice returns the bytes in [from, to) regardless of the read cursor.
func (b *Bytes) Slice(from, to int) []byte { return b.buf[from:to] }

// WriteAt overwrites len(p) bytes at absolute offset off. It never grows
// the buffer.
func (b *Bytes) WriteAt(off int, p []byte) bool {
	if off < 0 || off+len(p) > len(b.buf) {
		return false
	}
	copy(b.buf[off:], p)
	return true
}

// Unread returns the readable bytes without consuming them.
func (b *Bytes) Unread() []byte { return b.buf[b.rpos:b.ReadLimit()] }

// Written returns everything written so far.
func (b *Bytes) Written() []byte { return b.buf }

func (b *Bytes) String() string { return string(b.Unread()) }

// Clear resets both cursors and the limit, keeping the allocation.
func (b *Bytes) Clear() {
	b.buf = b.buf[:0]
	b.rpos = 0
	b.limit = -1
}
