// Package policy applies a YAML acceptance policy on top of signature
// algorithm classification.
package policy

import (
	"errors"
	"fmt"
)

// Sentinel errors for policy operations.
// Use errors.Is() to check for these errors through the error chain.
var (
	// ErrAlgorithmNotAllowed indicates a recognized or unrecognized
	// algorithm was refused by the policy.
	ErrAlgorithmNotAllowed = errors.New("algorithm not allowed")

	// ErrSignatureMismatch indicates the inner and outer signature fields
	// of a certificate or CRL differ.
	ErrSignatureMismatch = errors.New("signature algorithm fields differ")

	// ErrInvalidPolicy indicates the policy document is invalid.
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrPolicyNotFound indicates the requested built-in policy does not exist.
	ErrPolicyNotFound = errors.New("policy not found")
)

// ViolationError describes why a policy refused an input.
type ViolationError struct {
	Policy    string // Policy name
	Algorithm string // Algorithm name, "unknown" if unrecognized
	Reason    string
	Err       error // ErrAlgorithmNotAllowed or ErrSignatureMismatch
}

// Error implements the error interface.
func (e *ViolationError) Error() string {
	return fmt.Sprintf("policy %q: %s: %s", e.Policy, e.Algorithm, e.Reason)
}

// Unwrap returns the underlying sentinel for errors.Is support.
func (e *ViolationError) Unwrap() error { return e.Err }

// ValidationError represents a specific validation failure within a policy.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("validation failed for %s=%q: %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap makes every ValidationError match ErrInvalidPolicy.
func (e *ValidationError) Unwrap() error { return ErrInvalidPolicy }
