// Package channelbinding computes the tls-server-end-point channel binding
// of RFC 5929 for an X.509 certificate.
package channelbinding

import (
	"errors"
	"fmt"

	"github.com/remiblancher/sigalg/pkg/certerrors"
	"github.com/remiblancher/sigalg/pkg/sigalg"
	"github.com/remiblancher/sigalg/pkg/x509util"
)

// Type is the channel binding type name registered by RFC 5929.
const Type = "tls-server-end-point"

var (
	// ErrUnrecognizedAlgorithm is returned when the certificate's
	// signatureAlgorithm is not in the catalogue.
	ErrUnrecognizedAlgorithm = errors.New("unrecognized certificate signature algorithm")

	// ErrNoBindingDigest is returned when the signature algorithm is
	// recognized but has no tls-server-end-point digest (DSA, MD2, MD4).
	ErrNoBindingDigest = errors.New("signature algorithm has no tls-server-end-point digest")
)

// Binding is a computed channel binding value.
type Binding struct {
	Algorithm sigalg.SignatureAlgorithm
	Digest    sigalg.DigestAlgorithm
	Value     []byte
}

// TLSServerEndpoint hashes the full DER certificate with the digest selected
// by its outer signatureAlgorithm. Classification diagnostics go to errs,
// which may be nil.
func TLSServerEndpoint(certDER []byte, errs certerrors.Sink) ([]byte, sigalg.DigestAlgorithm, error) {
	b, err := Compute(certDER, errs)
	if err != nil {
		return nil, 0, err
	}
	return b.Value, b.Digest, nil
}

// Compute is like TLSServerEndpoint but also returns the classified
// signature algorithm.
func Compute(certDER []byte, errs certerrors.Sink) (*Binding, error) {
	fields, err := x509util.ExtractCertificateSignatureFields(certDER)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate: %w", err)
	}

	alg, ok := sigalg.Parse(fields.Outer, errs)
	if !ok {
		return nil, ErrUnrecognizedAlgorithm
	}

	digest, ok := sigalg.TLSServerEndpointDigest(alg)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoBindingDigest, alg)
	}

	h := digest.New()
	h.Write(certDER)
	return &Binding{
		Algorithm: alg,
		Digest:    digest,
		Value:     h.Sum(nil),
	}, nil
}
