package textwire

import (
	"strconv"
	"sync"
)

// cell widths: a sign plus every digit of the type
const (
	longWidth = 20
	intWidth  = 11
)

// cell is a fixed width decimal span of a buffer. Updates overwrite the
// span in place and never change its width.
type cell struct {
	bytes  *Bytes
	offset int
	width  int
	bits   int
}

// cellLocks serialize in-process updates; cells hash onto a stripe by
// offset.
var cellLocks [32]sync.Mutex

func (c cell) lock() *sync.Mutex {
	return &cellLocks[uint(c.offset/8)%uint(len(cellLocks))]
}

func (c cell) span() ([]byte, error) {
	if c.bytes == nil || c.offset < 0 || c.offset+c.width > len(c.bytes.buf) {
		return nil, &Error{Kind: ErrRange, Offset: c.offset, Char: -1, Msg: "reference outside the buffer"}
	}
	return c.bytes.buf[c.offset : c.offset+c.width], nil
}

func (c cell) get() (int64, error) {
	s, err := c.span()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(string(s), 10, c.bits)
	if err != nil {
		return 0, &Error{Kind: ErrGrammar, Offset: c.offset, Char: int(s[0]), Expected: "integer", Msg: strconv.Quote(string(s))}
	}
	return v, nil
}

func (c cell) set(v int64) error {
	s, err := c.span()
	if err != nil {
		return err
	}
	var tmp [longWidth]byte
	out, ok := appendFixed(tmp[:0], v, c.width)
	if !ok {
		return &Error{Kind: ErrEncoding, Offset: c.offset, Char: int(s[0]), Expected: strconv.Itoa(c.width) + " digits",
			Msg: strconv.FormatInt(v, 10) + " overflows the reference"}
	}
	copy(s, out)
	return nil
}

// appendFixed writes v zero padded to exactly width bytes. ok is false
// when v needs more.
func appendFixed(dst []byte, v int64, width int) ([]byte, bool) {
	u := uint64(v)
	if v < 0 {
		u = ^u + 1
	}
	var tmp [20]byte
	digits := strconv.AppendUint(tmp[:0], u, 10)
	pad := width - len(digits)
	if v < 0 {
		pad--
	}
	if pad < 0 {
		return dst, false
	}
	if v < 0 {
		dst = append(dst, '-')
	}
	for ; pad > 0; pad-- {
		dst = append(dst, '0')
	}
	return append(dst, digits...), true
}

// atomicCell is a cell with an optional locked marker that is set to
// true while an update is in progress.
type atomicCell struct {
	cell
	lockAt int // offset of the 5 byte "false"/"true " marker, -1 if none
}

func (a *atomicCell) mark(locked bool) {
	if a.lockAt < 0 {
		return
	}
	m := "false"
	if locked {
		m = "true "
	}
	a.bytes.WriteAt(a.lockAt, []byte(m))
}

func (a *atomicCell) load() (int64, error) {
	mu := a.lock()
	mu.Lock()
	defer mu.Unlock()
	return a.get()
}

// update applies fn to the current value and stores the result when fn
// reports a change.
func (a *atomicCell) update(fn func(old int64) (int64, bool)) (int64, error) {
	mu := a.lock()
	mu.Lock()
	defer mu.Unlock()
	old, err := a.get()
	if err != nil {
		return 0, err
	}
	v, ok := fn(old)
	if !ok {
		return old, nil
	}
	a.mark(true)
	defer a.mark(false)
	if err := a.set(v); err != nil {
		return old, err
	}
	return v, nil
}

// Locked reports whether the locked marker is set, as seen by another
// observer of the same buffer.
func (a *atomicCell) Locked() bool {
	if a.lockAt < 0 {
		return false
	}
	return a.bytes.PeekAt(a.lockAt) == 't'
}

// Offset is the absolute position of the digits.
func (a *atomicCell) Offset() int { return a.offset }

// Width is the number of bytes the value occupies.
func (a *atomicCell) Width() int { return a.width }

// LongReference is an int64 bound to a fixed width span of a buffer.
type LongReference struct {
	atomicCell
}

func (r *LongReference) Get() (int64, error) { return r.load() }

func (r *LongReference) Set(v int64) error {
	_, err := r.update(func(int64) (int64, bool) { return v, true })
	return err
}

// Add adds delta and returns the new value.
func (r *LongReference) Add(delta int64) (int64, error) {
	return r.update(func(old int64) (int64, bool) { return old + delta, true })
}

// CompareAndSwap stores v if the current value is old.
func (r *LongReference) CompareAndSwap(old, v int64) (bool, error) {
	swapped := false
	_, err := r.update(func(cur int64) (int64, bool) {
		swapped = cur == old
		return v, swapped
	})
	return swapped && err == nil, err
}

// IntReference is an int32 bound to a fixed width span of a buffer.
type IntReference struct {
	atomicCell
}

func (r *IntReference) Get() (int32, error) {
	v, err := r.load()
	return int32(v), err
}

func (r *IntReference) Set(v int32) error {
	_, err := r.update(func(int64) (int64, bool) { return int64(v), true })
	return err
}

func (r *IntReference) Add(delta int32) (int32, error) {
	v, err := r.update(func(old int64) (int64, bool) { return int64(int32(old) + delta), true })
	return int32(v), err
}

func (r *IntReference) CompareAndSwap(old, v int32) (bool, error) {
	swapped := false
	_, err := r.update(func(cur int64) (int64, bool) {
		swapped = int32(cur) == old
		return int64(v), swapped
	})
	return swapped && err == nil, err
}

// LongArrayReference is a fixed capacity array of int64 cells with a
// count of used entries.
type LongArrayReference struct {
	capacity int
	used     cell
	values   []cell
}

func (r *LongArrayReference) Capacity() int { return r.capacity }

func (r *LongArrayReference) Used() (int64, error) {
	mu := r.used.lock()
	mu.Lock()
	defer mu.Unlock()
	return r.used.get()
}

func (r *LongArrayReference) SetUsed(n int64) error {
	if n < 0 || n > int64(r.capacity) {
		return &Error{Kind: ErrRange, Offset: r.used.offset, Char: -1, Msg: "used " + strconv.FormatInt(n, 10) + " outside capacity"}
	}
	mu := r.used.lock()
	mu.Lock()
	defer mu.Unlock()
	return r.used.set(n)
}

func (r *LongArrayReference) index(i int) (cell, error) {
	if i < 0 || i >= len(r.values) {
		return cell{}, &Error{Kind: ErrRange, Offset: r.used.offset, Char: -1, Msg: "index " + strconv.Itoa(i) + " outside capacity"}
	}
	return r.values[i], nil
}

func (r *LongArrayReference) ValueAt(i int) (int64, error) {
	c, err := r.index(i)
	if err != nil {
		return 0, err
	}
	mu := r.used.lock()
	mu.Lock()
	defer mu.Unlock()
	return c.get()
}

// SetValueAt stores v at i, growing the used count to cover i.
func (r *LongArrayReference) SetValueAt(i int, v int64) error {
	c, err := r.index(i)
	if err != nil {
		return err
	}
	mu := r.used.lock()
	mu.Lock()
	defer mu.Unlock()
	if err := c.set(v); err != nil {
		return err
	}
	used, err := r.used.get()
	if err != nil {
		return err
	}
	if int64(i) >= used {
		return r.used.set(int64(i) + 1)
	}
	return nil
}

// Int64ForBinding writes v as an atomic cell and returns a reference
// bound to it.
func (o *ValueOut) Int64ForBinding(v int64) *LongReference {
	return &LongReference{o.atomic(v, longWidth, 64)}
}

// Int32ForBinding writes v as an atomic cell and returns a reference
// bound to it.
func (o *ValueOut) Int32ForBinding(v int32) *IntReference {
	return &IntReference{o.atomic(int64(v), intWidth, 32)}
}

func (o *ValueOut) atomic(v int64, width, bits int) atomicCell {
	o.prependSeparator()
	b := o.w.bytes
	b.AppendString("!" + tagAtomic + " { locked: ")
	lockAt := b.WritePosition()
	b.AppendString("false, value: ")
	at := b.WritePosition()
	b.buf, _ = appendFixed(b.buf, v, width)
	b.AppendString(" }")
	o.elementSeparator()
	return atomicCell{cell: cell{bytes: b, offset: at, width: width, bits: bits}, lockAt: lockAt}
}

// Int64Array writes an array of capacity zeroed cells and returns a
// reference bound to it.
func (o *ValueOut) Int64Array(capacity int) *LongArrayReference {
	o.prependSeparator()
	b := o.w.bytes
	r := &LongArrayReference{capacity: capacity, values: make([]cell, capacity)}
	b.AppendString("{ capacity: ")
	b.buf, _ = appendFixed(b.buf, int64(capacity), longWidth)
	b.AppendString(", used: ")
	r.used = cell{bytes: b, offset: b.WritePosition(), width: longWidth, bits: 64}
	b.buf, _ = appendFixed(b.buf, 0, longWidth)
	b.AppendString(", values: [")
	for i := range r.values {
		if i > 0 {
			b.AppendByte(',')
		}
		b.AppendByte(' ')
		r.values[i] = cell{bytes: b, offset: b.WritePosition(), width: longWidth, bits: 64}
		b.buf, _ = appendFixed(b.buf, 0, longWidth)
	}
	b.AppendString(" ] }")
	o.elementSeparator()
	return r
}

// Int64Ref binds a reference to the next value, which is either an
// atomic cell or a bare integer. The bound width is the width found.
func (in *ValueIn) Int64Ref() (*LongReference, error) {
	a, err := in.bindAtomic(longWidth, 64)
	if err != nil {
		return nil, err
	}
	return &LongReference{a}, nil
}

func (in *ValueIn) Int32Ref() (*IntReference, error) {
	a, err := in.bindAtomic(intWidth, 32)
	if err != nil {
		return nil, err
	}
	return &IntReference{a}, nil
}

func (in *ValueIn) bindAtomic(max, bits int) (atomicCell, error) {
	w := in.w
	w.consumeWhitespace()
	if !w.bytes.HasPrefix("!" + tagAtomic) {
		c, err := in.digits(max, bits)
		return atomicCell{cell: c, lockAt: -1}, err
	}
	a := atomicCell{lockAt: -1}
	err := in.Marshallable(ReadMarshallerFunc(func(w *Wire) error {
		return eachField(w, func(name string, in *ValueIn) error {
			switch name {
			case "locked":
				w.consumeWhitespace()
				a.lockAt = w.bytes.ReadPosition()
				_, err := in.Bool()
				return err
			case "value":
				var err error
				a.cell, err = in.digits(max, bits)
				return err
			}
			return in.Skip()
		})
	}))
	if err != nil {
		return atomicCell{}, err
	}
	if a.bytes == nil {
		return atomicCell{}, w.errorf(ErrGrammar, "value", "atomic cell without a value")
	}
	return a, nil
}

// digits binds a cell to the integer at the read position and skips it.
func (in *ValueIn) digits(max, bits int) (cell, error) {
	w := in.w
	b := w.bytes
	w.consumeWhitespace()
	start := b.ReadPosition()
	i, limit := start, b.ReadLimit()
	if i < limit && (b.buf[i] == '-' || b.buf[i] == '+') {
		i++
	}
	for i < limit && b.buf[i] >= '0' && b.buf[i] <= '9' {
		i++
	}
	n := i - start
	if n == 0 || b.buf[i-1] < '0' || b.buf[i-1] > '9' {
		return cell{}, w.errorf(ErrGrammar, "integer", "expected a reference cell")
	}
	if n > max {
		return cell{}, w.errorAt(ErrRange, start, int(b.buf[start]), strconv.Itoa(max)+" digits", "reference cell too wide")
	}
	c := cell{bytes: b, offset: start, width: n, bits: bits}
	if _, err := c.get(); err != nil {
		if e, ok := err.(*Error); ok {
			e.Kind = ErrRange
		}
		return cell{}, err
	}
	b.Skip(n)
	in.skipTrailingComma()
	return c, nil
}

// Int64ArrayRef binds a reference to an array written by Int64Array.
func (in *ValueIn) Int64ArrayRef() (*LongArrayReference, error) {
	r := &LongArrayReference{}
	var capacity int64
	err := in.Marshallable(ReadMarshallerFunc(func(w *Wire) error {
		return eachField(w, func(name string, in *ValueIn) error {
			var err error
			switch name {
			case "capacity":
				capacity, err = in.Int64()
			case "used":
				r.used, err = in.digits(longWidth, 64)
			case "values":
				err = in.Sequence(func(in *ValueIn) error {
					for in.HasNextSequenceItem() {
						c, err := in.digits(longWidth, 64)
						if err != nil {
							return err
						}
						r.values = append(r.values, c)
					}
					return nil
				})
			default:
				err = in.Skip()
			}
			return err
		})
	}))
	if err != nil {
		return nil, err
	}
	if r.used.bytes == nil || capacity != int64(len(r.values)) {
		return nil, in.w.errorf(ErrGrammar, "capacity", "array reference has %d values for capacity %d", len(r.values), capacity)
	}
	r.capacity = len(r.values)
	return r, nil
}
