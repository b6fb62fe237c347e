// twdump decodes text wire documents and dumps the inferred values.
//
// Input is read from the files named on the command line, or from stdin
// when there are none. Every document of every input is dumped in turn.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/textwire/textwire"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type dumper struct {
	format string
	latin1 bool
	out    io.Writer
	logger *slog.Logger
}

func run() error {
	var d dumper
	var verbose bool

	flagSet := pflag.NewFlagSet("twdump", pflag.ContinueOnError)
	flagSet.StringVarP(&d.format, "format", "f", "spew", "output format: spew, yaml, cbor or text")
	flagSet.BoolVar(&d.latin1, "8bit", false, "read input as 8-bit text")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log each document")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	d.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	d.out = os.Stdout

	switch d.format {
	case "spew", "yaml", "cbor", "text":
	default:
		return fmt.Errorf("unknown format %q", d.format)
	}

	if flagSet.NArg() == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		return d.process("stdin", b)
	}

	for _, arg := range flagSet.Args() {
		b, err := os.ReadFile(arg)
		if err != nil {
			return err
		}
		if err := d.process(arg, b); err != nil {
			return err
		}
	}
	return nil
}

func (d *dumper) process(fname string, b []byte) error {
	bytes := textwire.WrapBytes(b)
	w := textwire.NewWire(bytes)
	if d.latin1 {
		w = textwire.NewWire8bit(bytes)
	}
	w.Logger = d.logger

	docs, err := w.ReadDocuments()
	if err != nil {
		return fmt.Errorf("error processing %s: %w", fname, err)
	}
	for i, doc := range docs {
		d.logger.Debug("document", "file", fname, "index", i)
		if err := d.dump(doc); err != nil {
			return fmt.Errorf("error dumping %s: %w", fname, err)
		}
	}
	return nil
}

func (d *dumper) dump(v interface{}) error {
	switch d.format {
	case "yaml":
		enc := yaml.NewEncoder(d.out)
		enc.SetIndent(2)
		if err := enc.Encode(yamlNode(v)); err != nil {
			return err
		}
		return enc.Close()
	case "cbor":
		b, err := cbor.Marshal(plain(v))
		if err != nil {
			return err
		}
		_, err = d.out.Write(b)
		return err
	case "text":
		b, err := textwire.Marshal(v)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(d.out, "---\n"); err != nil {
			return err
		}
		_, err = d.out.Write(b)
		return err
	}
	spew.Fdump(d.out, v)
	return nil
}

// yamlNode builds a node tree that keeps record field order.
func yamlNode(v interface{}) *yaml.Node {
	switch v := v.(type) {
	case *textwire.OrderedMap:
		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range v.Keys() {
			val, _ := v.Get(k)
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, yamlNode(val))
		}
		return n
	case []interface{}:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for _, e := range v {
			n.Content = append(n.Content, yamlNode(e))
		}
		return n
	case []textwire.KeyValue:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for _, kv := range v {
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Value: "key"}, yamlNode(kv.Key),
				{Kind: yaml.ScalarNode, Value: "value"}, yamlNode(kv.Value),
			}})
		}
		return n
	}
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprint(v)}
	}
	return n
}

// plain converts ordered maps into maps for encoders that know nothing
// of them.
func plain(v interface{}) interface{} {
	switch v := v.(type) {
	case *textwire.OrderedMap:
		return v.Map()
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = plain(e)
		}
		return out
	case []textwire.KeyValue:
		out := make(map[interface{}]interface{}, len(v))
		for _, kv := range v {
			key := kv.Key
			if _, ok := key.([]interface{}); ok {
				key = fmt.Sprint(key)
			}
			out[key] = plain(kv.Value)
		}
		return out
	case textwire.TypeName:
		return string(v)
	}
	return v
}
