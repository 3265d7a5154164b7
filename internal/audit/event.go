// Package audit records classification decisions in a tamper-evident log.
//
// The audit trail is separate from the technical log:
//   - one JSON object per line, suitable for SIEM ingestion
//   - every event is chained to its predecessor by SHA-256
//   - timestamps are UTC
//   - a failed audit write fails the operation that produced it
//
// Only algorithm identifiers, digests and fingerprints are recorded, never
// the inspected certificates themselves.
package audit

import (
	"encoding/json"
	"errors"
	"os"
	"time"
)

// EventType is the category of an audit event.
type EventType string

const (
	// EventSigAlgClassified records an accepted AlgorithmIdentifier.
	EventSigAlgClassified EventType = "SIGALG_CLASSIFIED"
	// EventSigAlgRejected records an AlgorithmIdentifier that decoded but
	// matched no catalogue entry.
	EventSigAlgRejected EventType = "SIGALG_REJECTED"
	// EventCertInspected records a certificate, CSR or CRL inspection.
	EventCertInspected EventType = "CERT_INSPECTED"
	// EventChannelBinding records a tls-server-end-point computation.
	EventChannelBinding EventType = "CHANNEL_BINDING"
	// EventPolicyViolation records an input refused by the active policy.
	EventPolicyViolation EventType = "POLICY_VIOLATION"
	// EventServerStarted and EventServerStopped bracket an API server run.
	EventServerStarted EventType = "SERVER_STARTED"
	EventServerStopped EventType = "SERVER_STOPPED"
)

// Result is the outcome of an audited operation.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

// Actor is who asked for the operation.
type Actor struct {
	Type string `json:"type"`           // "user" or "service"
	ID   string `json:"id"`             // username or remote address
	Host string `json:"host,omitempty"` // host that handled the request
}

// Object is what was inspected.
type Object struct {
	Type        string `json:"type"`                  // "algorithm-identifier", "certificate", "csr", "crl"
	Path        string `json:"path,omitempty"`        // input file, if any
	Fingerprint string `json:"fingerprint,omitempty"` // "sha256:<hex>" of the input DER
}

// Context carries the classification details.
type Context struct {
	Source    string `json:"source,omitempty"`    // "cli" or "api"
	Algorithm string `json:"algorithm,omitempty"` // catalogue name
	OID       string `json:"oid,omitempty"`       // dotted OID as found in the input
	Params    string `json:"params,omitempty"`    // hex parameters TLV
	Digest    string `json:"digest,omitempty"`    // channel binding digest
	Policy    string `json:"policy,omitempty"`    // active policy name
	Reason    string `json:"reason,omitempty"`    // failure or violation reason
}

// Event is a single audit log entry.
type Event struct {
	EventType EventType `json:"event_type"`
	Timestamp string    `json:"timestamp"` // RFC3339 UTC
	Actor     Actor     `json:"actor"`
	Object    Object    `json:"object"`
	Context   Context   `json:"context,omitempty"`
	Result    Result    `json:"result"`
	HashPrev  string    `json:"hash_prev"`
	Hash      string    `json:"hash"`
}

// NewEvent creates an event stamped with the current time and the local
// user as actor.
func NewEvent(eventType EventType, result Result) *Event {
	hostname, _ := os.Hostname()
	return &Event{
		EventType: eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Actor:     Actor{Type: "user", ID: currentUser(), Host: hostname},
		Result:    result,
	}
}

func currentUser() string {
	for _, key := range []string{"USER", "USERNAME"} {
		if u := os.Getenv(key); u != "" {
			return u
		}
	}
	return "unknown"
}

// WithObject sets the object field.
func (e *Event) WithObject(obj Object) *Event {
	e.Object = obj
	return e
}

// WithContext sets the context field.
func (e *Event) WithContext(ctx Context) *Event {
	e.Context = ctx
	return e
}

// WithActor overrides the default actor.
func (e *Event) WithActor(actor Actor) *Event {
	e.Actor = actor
	return e
}

// Validate checks that required fields are present.
func (e *Event) Validate() error {
	switch {
	case e.EventType == "":
		return errors.New("event_type is required")
	case e.Timestamp == "":
		return errors.New("timestamp is required")
	case e.Actor.Type == "" || e.Actor.ID == "":
		return errors.New("actor type and id are required")
	case e.Result == "":
		return errors.New("result is required")
	}
	return nil
}

// CanonicalJSON returns the bytes covered by the event hash: the JSON
// encoding of every field except Hash itself.
func (e *Event) CanonicalJSON() ([]byte, error) {
	type hashed struct {
		EventType EventType `json:"event_type"`
		Timestamp string    `json:"timestamp"`
		Actor     Actor     `json:"actor"`
		Object    Object    `json:"object"`
		Context   Context   `json:"context,omitempty"`
		Result    Result    `json:"result"`
		HashPrev  string    `json:"hash_prev"`
	}
	return json.Marshal(hashed{
		EventType: e.EventType,
		Timestamp: e.Timestamp,
		Actor:     e.Actor,
		Object:    e.Object,
		Context:   e.Context,
		Result:    e.Result,
		HashPrev:  e.HashPrev,
	})
}
