package textwire

import (
	"bytes"
	"errors"
	"log/slog"
)

// ErrMergerFinished is returned by Append after Finish.
var ErrMergerFinished = errors.New("textwire: merger already finished")

// A Merger concatenates documents into one --- separated stream. Each
// input is parsed before it is accepted, so the stream never holds a
// document the reader would reject.
type Merger struct {
	buf       []byte
	documents int
	finalized bool

	// Registry resolves !alias tags while validating inputs.
	Registry *Registry
	Logger   *slog.Logger
}

func NewMerger() *Merger {
	return &Merger{buf: make([]byte, 0, 64)}
}

// Append adds every document in b. On error nothing is added.
func (m *Merger) Append(b []byte) error {
	if m.finalized {
		return ErrMergerFinished
	}

	w := NewWire(WrapBytes(b))
	w.Registry = m.Registry
	w.Logger = m.Logger
	docs, err := w.ReadDocuments()
	if err != nil {
		m.logger().Debug("textwire: merger rejected input", "err", err, "size", len(b))
		return err
	}

	startOffset := len(m.buf)
	body := bytes.TrimSpace(b)
	if len(body) == 0 {
		return nil
	}
	if !bytes.HasPrefix(body, []byte(documentMark)) {
		m.buf = append(m.buf, documentMark...)
		m.buf = append(m.buf, endField)
	}
	m.buf = append(m.buf, body...)
	m.buf = append(m.buf, endField)
	m.documents += len(docs)
	m.logger().Debug("textwire: merged", "documents", len(docs), "from", startOffset, "to", len(m.buf))
	return nil
}

// Documents returns how many documents have been merged.
func (m *Merger) Documents() int { return m.documents }

// Finish returns the merged stream. Later calls to Append fail.
func (m *Merger) Finish() []byte {
	m.finalized = true
	return m.buf
}

func (m *Merger) logger() *slog.Logger {
	if m.Logger == nil {
		return discard
	}
	return m.Logger
}
