// Package x509util provides low-level X.509 helpers: OID definitions,
// AlgorithmIdentifier decoding and extraction of signature algorithm
// fields from certificates, CSRs and CRLs.
package x509util

import (
	"encoding/asn1"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// RSA PKCS#1 v1.5 signature OIDs (RFC 5912, RFC 8017).
var (
	// md2WithRSAEncryption
	OIDSignatureMD2WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 2}
	// md4WithRSAEncryption
	OIDSignatureMD4WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 3}
	// md5WithRSAEncryption
	OIDSignatureMD5WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 4}
	// sha1WithRSAEncryption
	OIDSignatureSHA1WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 5}
	// sha256WithRSAEncryption
	OIDSignatureSHA256WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}
	// sha384WithRSAEncryption
	OIDSignatureSHA384WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 12}
	// sha512WithRSAEncryption
	OIDSignatureSHA512WithRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 13}

	// sha1WithRSASignature is the deprecated OIW equivalent of
	// sha1WithRSAEncryption. makecert.exe and older Microsoft tooling
	// emit it by default.
	OIDSignatureSHA1WithRSAOIW = asn1.ObjectIdentifier{1, 3, 14, 3, 2, 29}
)

// RSASSA-PSS OIDs (RFC 4055).
var (
	OIDSignatureRSAPSS = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}
	OIDMGF1            = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 8}
)

// ECDSA signature OIDs (RFC 5758).
var (
	OIDSignatureECDSAWithSHA1   = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 1}
	OIDSignatureECDSAWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}
	OIDSignatureECDSAWithSHA384 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 3}
	OIDSignatureECDSAWithSHA512 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 4}
)

// DSA signature OIDs.
var (
	OIDSignatureDSAWithSHA1   = asn1.ObjectIdentifier{1, 2, 840, 10040, 4, 3}
	OIDSignatureDSAWithSHA256 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 2}
)

// Digest algorithm OIDs.
var (
	OIDDigestMD2    = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 2}
	OIDDigestMD4    = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 4}
	OIDDigestMD5    = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 5}
	OIDDigestSHA1   = asn1.ObjectIdentifier{1, 3, 14, 3, 2, 26}
	OIDDigestSHA224 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 4}
	OIDDigestSHA256 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}
	OIDDigestSHA384 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 2}
	OIDDigestSHA512 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 3}
)

// MarshalOID returns the DER content octets of oid (the bytes after the
// OBJECT IDENTIFIER tag and length).
func MarshalOID(oid asn1.ObjectIdentifier) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1ObjectIdentifier(oid)
	der, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to encode OID %s: %w", oid, err)
	}

	input := cryptobyte.String(der)
	var content cryptobyte.String
	if !input.ReadASN1(&content, cryptobyte_asn1.OBJECT_IDENTIFIER) {
		return nil, fmt.Errorf("failed to encode OID %s", oid)
	}
	return content, nil
}

// MustMarshalOID is like MarshalOID but panics on error.
// Intended for package-level tables built from the constants above.
func MustMarshalOID(oid asn1.ObjectIdentifier) []byte {
	b, err := MarshalOID(oid)
	if err != nil {
		panic(err)
	}
	return b
}

// UnmarshalOID decodes DER content octets back into an OID.
// It fails on non-minimal sub-identifiers or truncated input.
func UnmarshalOID(content []byte) (asn1.ObjectIdentifier, bool) {
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.OBJECT_IDENTIFIER, func(b *cryptobyte.Builder) {
		b.AddBytes(content)
	})
	der, err := b.Bytes()
	if err != nil {
		return nil, false
	}

	input := cryptobyte.String(der)
	var oid asn1.ObjectIdentifier
	if !input.ReadASN1ObjectIdentifier(&oid) {
		return nil, false
	}
	return oid, true
}

// OIDString renders DER OID content octets in dotted notation, falling back
// to a hex dump when the octets do not form a valid OID.
func OIDString(content []byte) string {
	if oid, ok := UnmarshalOID(content); ok {
		return oid.String()
	}
	return fmt.Sprintf("invalid(%x)", content)
}
