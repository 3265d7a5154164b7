// Package inspect builds human and machine readable reports about the
// signature algorithms carried by certificates, CSRs and CRLs.
package inspect

import (
	"encoding/hex"
	"fmt"

	"github.com/remiblancher/sigalg/pkg/certerrors"
	"github.com/remiblancher/sigalg/pkg/channelbinding"
	"github.com/remiblancher/sigalg/pkg/sigalg"
	"github.com/remiblancher/sigalg/pkg/x509util"
)

// Kind names the kind of structure a report describes.
type Kind string

const (
	KindCertificate         Kind = "certificate"
	KindCertificateRequest  Kind = "csr"
	KindRevocationList      Kind = "crl"
	KindAlgorithmIdentifier Kind = "algorithm-identifier"
)

// ParseKind resolves a kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindCertificate, KindCertificateRequest, KindRevocationList, KindAlgorithmIdentifier:
		return k, nil
	default:
		return "", fmt.Errorf("unknown kind: %q", s)
	}
}

// KindFromPEMType maps a PEM block type to the structure it carries.
func KindFromPEMType(blockType string) (Kind, bool) {
	switch blockType {
	case "CERTIFICATE", "TRUSTED CERTIFICATE":
		return KindCertificate, true
	case "CERTIFICATE REQUEST", "NEW CERTIFICATE REQUEST":
		return KindCertificateRequest, true
	case "X509 CRL":
		return KindRevocationList, true
	default:
		return "", false
	}
}

// AlgorithmReport describes one AlgorithmIdentifier.
type AlgorithmReport struct {
	Recognized    bool   `json:"recognized" yaml:"recognized" cbor:"recognized"`
	Name          string `json:"name" yaml:"name" cbor:"name"`
	Family        string `json:"family,omitempty" yaml:"family,omitempty" cbor:"family,omitempty"`
	OID           string `json:"oid,omitempty" yaml:"oid,omitempty" cbor:"oid,omitempty"`
	Parameters    string `json:"parameters,omitempty" yaml:"parameters,omitempty" cbor:"parameters,omitempty"`
	Weak          bool   `json:"weak,omitempty" yaml:"weak,omitempty" cbor:"weak,omitempty"`
	COSE          int64  `json:"cose,omitempty" yaml:"cose,omitempty" cbor:"cose,omitempty"`
	BindingDigest string `json:"binding_digest,omitempty" yaml:"binding_digest,omitempty" cbor:"binding_digest,omitempty"`

	alg sigalg.SignatureAlgorithm
}

// Algorithm returns the classified algorithm, or sigalg.Unknown.
func (r *AlgorithmReport) Algorithm() sigalg.SignatureAlgorithm {
	return r.alg
}

// Report is the result of inspecting one structure.
type Report struct {
	Kind Kind `json:"kind" yaml:"kind" cbor:"kind"`

	// Signature is the outer signatureAlgorithm.
	Signature *AlgorithmReport `json:"signature" yaml:"signature" cbor:"signature"`

	// TBSSignature is the copy inside the signed data. CSRs have none.
	TBSSignature *AlgorithmReport `json:"tbs_signature,omitempty" yaml:"tbs_signature,omitempty" cbor:"tbs_signature,omitempty"`

	// SignaturesMatch is set for certificates and CRLs.
	SignaturesMatch *bool `json:"signatures_match,omitempty" yaml:"signatures_match,omitempty" cbor:"signatures_match,omitempty"`

	// ChannelBinding is the hex tls-server-end-point value, set for
	// certificates whose algorithm has one.
	ChannelBinding string `json:"channel_binding,omitempty" yaml:"channel_binding,omitempty" cbor:"channel_binding,omitempty"`

	Diagnostics []certerrors.Node `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty" cbor:"diagnostics,omitempty"`
}

// Recognized reports whether every AlgorithmIdentifier in the report was
// classified.
func (r *Report) Recognized() bool {
	if r.Signature == nil || !r.Signature.Recognized {
		return false
	}
	return r.TBSSignature == nil || r.TBSSignature.Recognized
}

// Algorithm classifies a bare AlgorithmIdentifier. Diagnostics are
// collected in the report and forwarded to errs.
func Algorithm(der []byte, errs certerrors.Sink) *Report {
	collected := certerrors.New()
	sink := certerrors.Multi(collected, errs)
	return &Report{
		Kind:        KindAlgorithmIdentifier,
		Signature:   describe(der, sink),
		Diagnostics: collected.Nodes(),
	}
}

// Certificate inspects a DER X.509 certificate.
func Certificate(der []byte, errs certerrors.Sink) (*Report, error) {
	fields, err := x509util.ExtractCertificateSignatureFields(der)
	if err != nil {
		return nil, err
	}

	r := fromFields(KindCertificate, fields, errs)
	if binding, err := channelbinding.Compute(der, nil); err == nil {
		r.ChannelBinding = hex.EncodeToString(binding.Value)
	}
	return r, nil
}

// CertificateRequest inspects a DER PKCS#10 request.
func CertificateRequest(der []byte, errs certerrors.Sink) (*Report, error) {
	fields, err := x509util.ExtractCSRSignatureField(der)
	if err != nil {
		return nil, err
	}
	return fromFields(KindCertificateRequest, fields, errs), nil
}

// RevocationList inspects a DER CRL.
func RevocationList(der []byte, errs certerrors.Sink) (*Report, error) {
	fields, err := x509util.ExtractCRLSignatureFields(der)
	if err != nil {
		return nil, err
	}
	return fromFields(KindRevocationList, fields, errs), nil
}

// Inspect dispatches on kind.
func Inspect(kind Kind, der []byte, errs certerrors.Sink) (*Report, error) {
	switch kind {
	case KindCertificate:
		return Certificate(der, errs)
	case KindCertificateRequest:
		return CertificateRequest(der, errs)
	case KindRevocationList:
		return RevocationList(der, errs)
	case KindAlgorithmIdentifier:
		return Algorithm(der, errs), nil
	default:
		return nil, fmt.Errorf("unknown kind: %q", kind)
	}
}

func fromFields(kind Kind, fields x509util.SignatureFields, errs certerrors.Sink) *Report {
	collected := certerrors.New()
	sink := certerrors.Multi(collected, errs)

	r := &Report{
		Kind:      kind,
		Signature: describe(fields.Outer, sink),
	}
	if len(fields.Inner) > 0 {
		r.TBSSignature = describe(fields.Inner, sink)
		match := fields.Match()
		r.SignaturesMatch = &match
	}
	r.Diagnostics = collected.Nodes()
	return r
}

func describe(der []byte, sink certerrors.Sink) *AlgorithmReport {
	alg, ok := sigalg.Parse(der, sink)
	if !ok {
		r := &AlgorithmReport{Name: sigalg.Unknown.String()}
		if oid, params, ok := x509util.ParseAlgorithmIdentifier(der); ok {
			r.OID = x509util.OIDString(oid)
			r.Parameters = hex.EncodeToString(params)
		}
		return r
	}

	r := &AlgorithmReport{
		Recognized: true,
		Name:       alg.String(),
		Family:     string(alg.Family()),
		OID:        alg.OID().String(),
		Weak:       alg.IsWeak(),
		alg:        alg,
	}
	if _, params, ok := x509util.ParseAlgorithmIdentifier(der); ok {
		r.Parameters = hex.EncodeToString(params)
	}
	if c, ok := alg.COSEAlgorithm(); ok {
		r.COSE = int64(c)
	}
	if d, ok := sigalg.TLSServerEndpointDigest(alg); ok {
		r.BindingDigest = d.String()
	}
	return r
}
