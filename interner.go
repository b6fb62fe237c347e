package textwire

import "github.com/dchest/siphash"

const (
	internSize = 256
	internK0   = 0x0706050403020100
	internK1   = 0x0f0e0d0c0b0a0908
)

// interner turns repeated field names into shared strings. Collisions
// simply replace the slot.
type interner struct {
	slots [internSize]string
}

func (in *interner) intern(b []byte) string {
	h := siphash.Hash(internK0, internK1, b) & (internSize - 1)
	if s := in.slots[h]; s == string(b) {
		return s
	}
	s := string(b)
	in.slots[h] = s
	return s
}
