// Package certerrors collects structured diagnostics produced while
// validating certificate data.
//
// Producers report through the Sink interface and never read back from it.
// A nil Sink is always valid and simply drops the diagnostic.
package certerrors

import (
	"encoding/hex"
	"strings"
	"sync"
)

// ID identifies a kind of diagnostic. IDs are compared by value, so each
// producer declares its own as a package-level constant.
type ID string

// Severity classifies a diagnostic.
type Severity int

const (
	// SeverityHigh marks a condition that caused a rejection.
	SeverityHigh Severity = iota
	// SeverityWarning marks a tolerated anomaly.
	SeverityWarning
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityHigh:
		return "ERROR"
	case SeverityWarning:
		return "WARNING"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Param is a named opaque byte blob attached to a diagnostic, usually a DER
// fragment kept for forensic inspection.
type Param struct {
	Name  string `json:"name" yaml:"name"`
	Value []byte `json:"value" yaml:"value"`
}

// Params is an ordered list of parameters.
type Params []Param

// DERParams2 builds a two-entry parameter list. The values are copied, so
// callers may pass slices aliasing buffers they will reuse.
func DERParams2(name1 string, der1 []byte, name2 string, der2 []byte) Params {
	return Params{
		{Name: name1, Value: clone(der1)},
		{Name: name2, Value: clone(der2)},
	}
}

// Get returns the value of the first parameter with the given name.
func (p Params) Get(name string) ([]byte, bool) {
	for _, param := range p {
		if param.Name == name {
			return param.Value, true
		}
	}
	return nil, false
}

// String renders the parameters one per line as "name: HEX".
func (p Params) String() string {
	var sb strings.Builder
	for i, param := range p {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(param.Name)
		sb.WriteString(": ")
		sb.WriteString(strings.ToUpper(hex.EncodeToString(param.Value)))
	}
	return sb.String()
}

// Sink receives diagnostics. Implementations must not retain params beyond
// the call unless they copy them; DERParams2 already copies.
type Sink interface {
	AddError(id ID, params Params)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(id ID, params Params)

// AddError calls f(id, params).
func (f SinkFunc) AddError(id ID, params Params) {
	f(id, params)
}

// Multi returns a Sink that forwards every diagnostic to all non-nil sinks.
func Multi(sinks ...Sink) Sink {
	var live []Sink
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	return multiSink(live)
}

type multiSink []Sink

func (m multiSink) AddError(id ID, params Params) {
	for _, s := range m {
		s.AddError(id, params)
	}
}

// Node is a single recorded diagnostic.
type Node struct {
	ID       ID       `json:"id" yaml:"id"`
	Severity Severity `json:"severity" yaml:"severity"`
	Params   Params   `json:"params,omitempty" yaml:"params,omitempty"`
}

// String renders the node as "ERROR: id" followed by indented parameters.
func (n Node) String() string {
	var sb strings.Builder
	sb.WriteString(n.Severity.String())
	sb.WriteString(": ")
	sb.WriteString(string(n.ID))
	if len(n.Params) > 0 {
		for _, line := range strings.Split(n.Params.String(), "\n") {
			sb.WriteString("\n  ")
			sb.WriteString(line)
		}
	}
	return sb.String()
}

// CertErrors is the standard Sink implementation. It is safe for
// concurrent use and all methods accept a nil receiver.
type CertErrors struct {
	mu    sync.Mutex
	nodes []Node
}

var _ Sink = (*CertErrors)(nil)

// New creates an empty collection.
func New() *CertErrors {
	return &CertErrors{}
}

// AddError records a high-severity diagnostic.
func (e *CertErrors) AddError(id ID, params Params) {
	e.add(id, SeverityHigh, params)
}

// AddWarning records a warning.
func (e *CertErrors) AddWarning(id ID, params Params) {
	e.add(id, SeverityWarning, params)
}

func (e *CertErrors) add(id ID, severity Severity, params Params) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nodes = append(e.nodes, Node{ID: id, Severity: severity, Params: params})
}

// Nodes returns a snapshot of the recorded diagnostics in insertion order.
func (e *CertErrors) Nodes() []Node {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Node, len(e.nodes))
	copy(out, e.nodes)
	return out
}

// Len returns the number of recorded diagnostics.
func (e *CertErrors) Len() int {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.nodes)
}

// ContainsError reports whether a high-severity diagnostic with id exists.
func (e *CertErrors) ContainsError(id ID) bool {
	for _, n := range e.Nodes() {
		if n.ID == id && n.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

// ContainsAnyErrorWithSeverity reports whether any diagnostic has the
// given severity.
func (e *CertErrors) ContainsAnyErrorWithSeverity(severity Severity) bool {
	for _, n := range e.Nodes() {
		if n.Severity == severity {
			return true
		}
	}
	return false
}

// String renders all diagnostics, one node per block.
func (e *CertErrors) String() string {
	nodes := e.Nodes()
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, n.String())
	}
	return strings.Join(parts, "\n")
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
