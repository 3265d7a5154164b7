package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/remiblancher/sigalg/internal/audit"
	"github.com/remiblancher/sigalg/internal/cli"
	"github.com/remiblancher/sigalg/pkg/inspect"
	"github.com/remiblancher/sigalg/pkg/policy"
)

// auditSource tags every audit event emitted by the CLI.
const auditSource = "cli"

// errUnrecognized is returned once the report has been printed, so the
// exit status reflects an unknown algorithm.
var errUnrecognized = errors.New("unrecognized signature algorithm")

// policyDecision is the policy verdict attached to a report.
type policyDecision struct {
	Name    string `json:"name" yaml:"name" cbor:"name"`
	Allowed bool   `json:"allowed" yaml:"allowed" cbor:"allowed"`
	Reason  string `json:"reason,omitempty" yaml:"reason,omitempty" cbor:"reason,omitempty"`

	refusal error
}

// Err returns the policy refusal, or nil when the input was allowed.
func (d *policyDecision) Err() error {
	if d == nil {
		return nil
	}
	return d.refusal
}

// reportOutput is an inspection report plus the policy decision, if any.
type reportOutput struct {
	inspect.Report `yaml:",inline"`

	Source string          `json:"source,omitempty" yaml:"source,omitempty" cbor:"source,omitempty"`
	Policy *policyDecision `json:"policy,omitempty" yaml:"policy,omitempty" cbor:"policy,omitempty"`
}

// auditObject describes in for audit events.
func auditObject(in *cli.Input, kind inspect.Kind) audit.Object {
	obj := audit.Object{Type: string(kind), Fingerprint: audit.Fingerprint(in.DER)}
	if in.Source != "argument" && in.Source != "-" {
		obj.Path = in.Source
	}
	return obj
}

// loadPolicy resolves a --policy value. An empty ref yields nil: no
// policy is applied.
func loadPolicy(ref string) (*policy.Policy, error) {
	if ref == "" {
		return nil, nil
	}
	pol, err := policy.Resolve(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	return pol, nil
}

// applyPolicy checks report against pol and records a refusal. The error
// is an audit failure; a refusal is carried by the decision. A nil pol
// yields a nil decision.
func applyPolicy(pol *policy.Policy, obj audit.Object, report *inspect.Report) (*policyDecision, error) {
	if pol == nil {
		return nil, nil
	}
	decision := &policyDecision{Name: pol.Name, Allowed: true}
	refusal := pol.CheckReport(report)
	if refusal == nil {
		return decision, nil
	}

	decision.Allowed = false
	decision.Reason = refusal.Error()
	decision.refusal = refusal
	var violation *policy.ViolationError
	if errors.As(refusal, &violation) {
		decision.Reason = violation.Reason
	}
	return decision, recordViolation(pol, obj, refusal)
}

// recordViolation writes a POLICY_VIOLATION event for refusal.
func recordViolation(pol *policy.Policy, obj audit.Object, refusal error) error {
	algorithm, reason := "", refusal.Error()
	var violation *policy.ViolationError
	if errors.As(refusal, &violation) {
		algorithm, reason = violation.Algorithm, violation.Reason
	}
	return audit.LogPolicyViolation(auditSource, obj, pol.Name, algorithm, reason)
}

// writeDecision renders the text form of a policy decision.
func writeDecision(w io.Writer, d *policyDecision) {
	if d == nil {
		return
	}
	status := "allowed"
	if !d.Allowed {
		status = "denied"
	}
	fmt.Fprintf(w, "  Policy:         %s (%s)\n", d.Name, formatDecision(status, d.Reason))
}

// formatDecision colors status and appends the refusal reason.
func formatDecision(status, reason string) string {
	if reason == "" {
		return cli.FormatStatus(status)
	}
	return cli.FormatStatus(status) + ": " + reason
}
