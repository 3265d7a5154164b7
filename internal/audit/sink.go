package audit

import (
	"encoding/hex"
	"sync"

	"github.com/remiblancher/sigalg/pkg/certerrors"
	"github.com/remiblancher/sigalg/pkg/x509util"
)

// Sink turns classification diagnostics into SIGALG_REJECTED events. Since
// certerrors.Sink cannot return an error, the first audit failure is kept
// and reported by Err.
type Sink struct {
	source string
	object Object
	actor  *Actor

	mu  sync.Mutex
	err error
}

var _ certerrors.Sink = (*Sink)(nil)

// SinkFor returns a Sink that attributes events to source and obj.
func SinkFor(source string, obj Object) *Sink {
	return &Sink{source: source, object: obj}
}

// WithActor overrides the actor recorded on every event.
func (s *Sink) WithActor(actor Actor) *Sink {
	s.actor = &actor
	return s
}

// AddError implements certerrors.Sink.
func (s *Sink) AddError(id certerrors.ID, params certerrors.Params) {
	ctx := Context{Source: s.source, Reason: string(id)}
	if oid, ok := params.Get("oid"); ok {
		ctx.OID = x509util.OIDString(oid)
	}
	if p, ok := params.Get("params"); ok {
		ctx.Params = hex.EncodeToString(p)
	}

	event := NewEvent(EventSigAlgRejected, ResultFailure).WithObject(s.object).WithContext(ctx)
	if s.actor != nil {
		event.WithActor(*s.actor)
	}

	if err := MustLog(event); err != nil {
		s.mu.Lock()
		if s.err == nil {
			s.err = err
		}
		s.mu.Unlock()
	}
}

// Err returns the first audit write failure, if any.
func (s *Sink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
