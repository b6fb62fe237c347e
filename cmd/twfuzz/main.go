// twfuzz mutates seed documents at random and checks that whatever the
// reader accepts survives a write and a second read unchanged. Failing
// inputs are minimized before they are reported.
package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"reflect"
	"time"

	"github.com/dgryski/go-ddmin"
	"github.com/spf13/pflag"

	"github.com/textwire/textwire"
)

var seeds = []string{
	"flag: true\ncount: 42\n",
	"name: \"a b\"\nitems: [ 1, 2, 3 ]\n",
	"rec: {\n  x: 1,\n  y: -2.5\n}\n",
	"- 1\n- two\n- { a: !!null \"\" }\n",
	"k: !seqmap [ { key: 1, value: one } ]\n",
	"data: !!binary AAECAw==\n",
	"when: 2024-01-02T03:04:05Z\nday: 2024-01-02\n",
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var iterations int
	var seed int64

	flagSet := pflag.NewFlagSet("twfuzz", pflag.ContinueOnError)
	flagSet.IntVarP(&iterations, "iterations", "n", 100000, "number of mutated inputs to try, 0 for no limit")
	flagSet.Int64Var(&seed, "seed", 0, "random seed, 0 picks one from the clock")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Info("fuzzing", "seed", seed, "iterations", iterations)
	rnd := rand.New(rand.NewSource(seed))

	accepted := 0
	for i := 0; iterations == 0 || i < iterations; i++ {
		doc := mutate(rnd, []byte(seeds[rnd.Intn(len(seeds))]))
		ok, err := roundtrip(doc)
		if ok {
			accepted++
		}
		if err == nil {
			continue
		}
		min := ddmin.Minimize(doc, func(d []byte) ddmin.Result {
			if _, err := roundtrip(d); err != nil {
				return ddmin.Fail
			}
			return ddmin.Pass
		})
		logger.Error("roundtrip failure", "err", err, "iteration", i)
		fmt.Print(hex.Dump(min))
		return errors.New("found a failing input")
	}
	logger.Info("done", "accepted", accepted)
	return nil
}

// mutate applies a few random byte edits.
func mutate(rnd *rand.Rand, b []byte) []byte {
	const alphabet = " \n\t:,-#{}[]!\"'\\0123456789abcxyz"
	b = bytes.Clone(b)
	for n := 1 + rnd.Intn(4); n > 0 && len(b) > 0; n-- {
		i := rnd.Intn(len(b))
		switch rnd.Intn(3) {
		case 0:
			b[i] = alphabet[rnd.Intn(len(alphabet))]
		case 1:
			b = append(b[:i], b[i+1:]...)
		default:
			b = append(b[:i], append([]byte{alphabet[rnd.Intn(len(alphabet))]}, b[i:]...)...)
		}
	}
	return b
}

// roundtrip reports whether doc was accepted and an error when an
// accepted document does not survive a write and a re-read.
func roundtrip(doc []byte) (accepted bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	v, err := textwire.NewWire(textwire.WrapBytes(doc)).ReadObject()
	if err != nil {
		return false, nil
	}
	enc, err := textwire.Marshal(v)
	if err != nil {
		return true, nil
	}
	v2, err := textwire.NewWire(textwire.WrapBytes(enc)).ReadObject()
	if err != nil {
		return true, fmt.Errorf("re-reading %q: %w", enc, err)
	}
	if !reflect.DeepEqual(document(v), document(v2)) {
		return true, fmt.Errorf("value changed: %q", enc)
	}
	return true, nil
}

func normalize(v interface{}) interface{} {
	switch v := v.(type) {
	case *textwire.OrderedMap:
		return v.Map()
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = normalize(e)
		}
		return out
	}
	return v
}

// document normalizes an empty top level record or list to nil; both are
// written as an empty document.
func document(v interface{}) interface{} {
	switch d := v.(type) {
	case *textwire.OrderedMap:
		if d == nil || d.Len() == 0 {
			return nil
		}
	case []interface{}:
		if len(d) == 0 {
			return nil
		}
	}
	return normalize(v)
}
