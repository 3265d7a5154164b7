package dto

import (
	"github.com/remiblancher/sigalg/pkg/inspect"
)

// AlgorithmInfo describes one catalogue entry.
type AlgorithmInfo struct {
	// Name is the canonical algorithm name (e.g., "rsa-pss-sha256").
	Name string `json:"name"`

	// Family is "rsa-pkcs1", "rsa-pss", "ecdsa" or "dsa".
	Family string `json:"family"`

	// OID is the dotted signature algorithm OID.
	OID string `json:"oid"`

	// Hash is the message digest.
	Hash string `json:"hash"`

	Weak bool `json:"weak,omitempty"`

	// COSE is the IANA COSE algorithm identifier, when one exists.
	COSE int64 `json:"cose,omitempty"`

	// BindingDigest is the RFC 5929 tls-server-end-point digest.
	BindingDigest string `json:"binding_digest,omitempty"`

	// Allowed reports whether the server policy accepts the algorithm.
	Allowed bool `json:"allowed"`
}

// AlgorithmListResponse is returned by GET /api/v1/algorithms.
type AlgorithmListResponse struct {
	Policy     string          `json:"policy"`
	Algorithms []AlgorithmInfo `json:"algorithms"`
}

// ClassifyRequest carries a DER AlgorithmIdentifier.
type ClassifyRequest struct {
	AlgorithmIdentifier BinaryData `json:"algorithm_identifier"`
}

// PolicyDecision reports how the server policy judged an input.
type PolicyDecision struct {
	Name    string `json:"name"`
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// ClassifyResponse is returned by POST /api/v1/classify.
type ClassifyResponse struct {
	*inspect.Report
	Policy PolicyDecision `json:"policy"`
}

// InspectRequest carries a certificate, CSR or CRL.
type InspectRequest struct {
	Data BinaryData `json:"data"`

	// Kind is "certificate", "csr" or "crl". It defaults to the PEM block
	// type, or "certificate".
	Kind string `json:"kind,omitempty"`
}

// InspectResponse is returned by POST /api/v1/certificates/inspect.
type InspectResponse struct {
	*inspect.Report
	Policy PolicyDecision `json:"policy"`
}

// ChannelBindingRequest carries a DER or PEM certificate.
type ChannelBindingRequest struct {
	Certificate BinaryData `json:"certificate"`
}

// ChannelBindingResponse is returned by POST /api/v1/channel-binding.
type ChannelBindingResponse struct {
	// Type is always "tls-server-end-point".
	Type string `json:"type"`

	Algorithm string `json:"algorithm"`
	Digest    string `json:"digest"`

	// Value is the binding, hex encoded.
	Value string `json:"value"`

	// ValueBase64 is the binding, base64 encoded, as used in SCRAM.
	ValueBase64 string `json:"value_base64"`
}
