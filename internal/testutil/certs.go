package testutil

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"
)

// GenerateECDSAKey returns a fresh key on the given curve.
func GenerateECDSAKey(t testing.TB, curve elliptic.Curve) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		t.Fatalf("ecdsa.GenerateKey() error = %v", err)
	}
	return key
}

// GenerateRSAKey returns a fresh 2048-bit RSA key.
func GenerateRSAKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey() error = %v", err)
	}
	return key
}

// SelfSignedCertificate creates a self-signed certificate signed with the
// requested algorithm and returns its DER encoding.
func SelfSignedCertificate(t testing.TB, key crypto.Signer, sigAlg x509.SignatureAlgorithm) []byte {
	t.Helper()
	tmpl := &x509.Certificate{
		SerialNumber:       big.NewInt(1),
		Subject:            pkix.Name{CommonName: "sigalg test"},
		NotBefore:          time.Now().Add(-time.Hour),
		NotAfter:           time.Now().Add(time.Hour),
		SignatureAlgorithm: sigAlg,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, key.Public(), key)
	if err != nil {
		t.Fatalf("x509.CreateCertificate() error = %v", err)
	}
	return der
}

// CertificateRequest creates a CSR signed with the requested algorithm.
func CertificateRequest(t testing.TB, key crypto.Signer, sigAlg x509.SignatureAlgorithm) []byte {
	t.Helper()
	tmpl := &x509.CertificateRequest{
		Subject:            pkix.Name{CommonName: "sigalg test"},
		SignatureAlgorithm: sigAlg,
	}
	der, err := x509.CreateCertificateRequest(rand.Reader, tmpl, key)
	if err != nil {
		t.Fatalf("x509.CreateCertificateRequest() error = %v", err)
	}
	return der
}

// RevocationList creates an empty CRL issued by a fresh self-signed CA
// using the requested algorithm.
func RevocationList(t testing.TB, key crypto.Signer, sigAlg x509.SignatureAlgorithm) []byte {
	t.Helper()
	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "sigalg test CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		SubjectKeyId:          []byte{1, 2, 3, 4},
		SignatureAlgorithm:    sigAlg,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTmpl, caTmpl, key.Public(), key)
	if err != nil {
		t.Fatalf("x509.CreateCertificate() error = %v", err)
	}
	ca, err := x509.ParseCertificate(caDER)
	if err != nil {
		t.Fatalf("x509.ParseCertificate() error = %v", err)
	}

	der, err := x509.CreateRevocationList(rand.Reader, &x509.RevocationList{
		Number:             big.NewInt(1),
		ThisUpdate:         time.Now(),
		NextUpdate:         time.Now().Add(time.Hour),
		SignatureAlgorithm: sigAlg,
	}, ca, key)
	if err != nil {
		t.Fatalf("x509.CreateRevocationList() error = %v", err)
	}
	return der
}
