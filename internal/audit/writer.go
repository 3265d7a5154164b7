package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

const (
	// GenesisHash is the HashPrev of the first event in a chain.
	GenesisHash = "sha256:genesis"

	// HashPrefix is prepended to every hash value.
	HashPrefix = "sha256:"
)

// Writer persists audit events.
//
// Write validates the event, links it to the previous one by setting
// HashPrev and Hash, and only returns once the event is durable. An error
// means the event was not recorded and the audited operation must fail.
type Writer interface {
	Write(event *Event) error
	Close() error

	// LastHash returns the hash of the last written event, or GenesisHash.
	LastHash() string
}

// NopWriter discards all events. It is the writer in use when auditing is
// disabled.
type NopWriter struct{}

var _ Writer = NopWriter{}

func (NopWriter) Write(*Event) error { return nil }
func (NopWriter) Close() error       { return nil }
func (NopWriter) LastHash() string   { return GenesisHash }

// MemoryWriter keeps a hash-chained copy of every event in memory. The API
// server tests use it to assert on emitted events.
type MemoryWriter struct {
	mu     sync.Mutex
	events []Event
	last   string
}

var _ Writer = (*MemoryWriter)(nil)

// NewMemoryWriter creates an empty in-memory chain.
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{last: GenesisHash}
}

// Write chains and stores a copy of event.
func (w *MemoryWriter) Write(event *Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := chain(event, w.last); err != nil {
		return err
	}
	w.events = append(w.events, *event)
	w.last = event.Hash
	return nil
}

// Events returns a snapshot of the recorded events.
func (w *MemoryWriter) Events() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Event, len(w.events))
	copy(out, w.events)
	return out
}

func (w *MemoryWriter) Close() error { return nil }

func (w *MemoryWriter) LastHash() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// chain validates event and sets HashPrev and Hash relative to prev.
func chain(event *Event, prev string) error {
	if err := event.Validate(); err != nil {
		return &invalidEventError{err}
	}
	event.HashPrev = prev
	canonical, err := event.CanonicalJSON()
	if err != nil {
		return err
	}
	event.Hash = calculateHash(canonical, prev)
	return nil
}

type invalidEventError struct{ err error }

func (e *invalidEventError) Error() string { return "invalid event: " + e.err.Error() }
func (e *invalidEventError) Unwrap() error { return e.err }

// calculateHash computes SHA256(data || prevHash).
func calculateHash(data []byte, prevHash string) string {
	h := sha256.New()
	h.Write(data)
	h.Write([]byte(prevHash))
	return HashPrefix + hex.EncodeToString(h.Sum(nil))
}
