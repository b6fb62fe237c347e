/*
Package textwire implements a human-readable, YAML-like text encoding for
streaming records.

A Wire wraps a Bytes buffer. Values are written field by field through
ValueOut and read back in the same order through ValueIn:

	w := textwire.NewWire(textwire.NewBytes())
	w.Write("flag").Bool(true).
		Write("count").Int64(42)
	// flag: true
	// count: 42

Nested records are written with Marshallable and sequences with Sequence.
Readers can skip a value they do not understand using length framing
alone, and can read a value without a target type using Object.

Integer cells written with Int64ForBinding and friends have a fixed width,
so they can be updated in place by anyone sharing the buffer.

Marshal and Unmarshal map Go values onto the encoding using reflection,
honouring `textwire:"name,omitempty"` struct tags.
*/
package textwire
