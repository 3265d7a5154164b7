// Package sigalg classifies the signature algorithm asserted by a DER
// AlgorithmIdentifier against a closed catalogue of algorithms accepted for
// certificate path validation.
//
// Classification never fails with an error value: malformed input, an
// unsupported OID and a disallowed parameter encoding all produce the same
// (Unknown, false) result. Callers that need to know why can pass a
// certerrors.Sink to Parse.
//
// The package only identifies algorithms. It does not verify signatures.
package sigalg

import (
	"crypto"
	"crypto/x509"
	"encoding/asn1"
	"fmt"

	"github.com/remiblancher/sigalg/pkg/x509util"
)

// SignatureAlgorithm is one accepted (family, digest, parameters)
// combination.
type SignatureAlgorithm int

// Accepted signature algorithms. Unknown is never returned alongside ok.
const (
	Unknown SignatureAlgorithm = iota

	RSAPKCS1MD2
	RSAPKCS1MD4
	RSAPKCS1MD5
	RSAPKCS1SHA1
	RSAPKCS1SHA256
	RSAPKCS1SHA384
	RSAPKCS1SHA512

	ECDSASHA1
	ECDSASHA256
	ECDSASHA384
	ECDSASHA512

	DSASHA1
	DSASHA256

	RSAPSSSHA256
	RSAPSSSHA384
	RSAPSSSHA512

	numAlgorithms
)

// Family groups algorithms that share a key type and padding.
type Family string

// Algorithm families.
const (
	FamilyRSAPKCS1 Family = "rsa-pkcs1"
	FamilyRSAPSS   Family = "rsa-pss"
	FamilyECDSA    Family = "ecdsa"
	FamilyDSA      Family = "dsa"
)

type details struct {
	name   string
	family Family
	hash   crypto.Hash
	oid    asn1.ObjectIdentifier
	x509   x509.SignatureAlgorithm
}

// algorithmDetails is indexed by SignatureAlgorithm. MD2 and MD4 have no
// crypto.Hash implementation and MD4 has no crypto/x509 constant.
var algorithmDetails = [numAlgorithms]details{
	Unknown: {name: "unknown"},

	RSAPKCS1MD2:    {"rsa-pkcs1-md2", FamilyRSAPKCS1, 0, x509util.OIDSignatureMD2WithRSA, x509.MD2WithRSA},
	RSAPKCS1MD4:    {"rsa-pkcs1-md4", FamilyRSAPKCS1, crypto.MD4, x509util.OIDSignatureMD4WithRSA, x509.UnknownSignatureAlgorithm},
	RSAPKCS1MD5:    {"rsa-pkcs1-md5", FamilyRSAPKCS1, crypto.MD5, x509util.OIDSignatureMD5WithRSA, x509.MD5WithRSA},
	RSAPKCS1SHA1:   {"rsa-pkcs1-sha1", FamilyRSAPKCS1, crypto.SHA1, x509util.OIDSignatureSHA1WithRSA, x509.SHA1WithRSA},
	RSAPKCS1SHA256: {"rsa-pkcs1-sha256", FamilyRSAPKCS1, crypto.SHA256, x509util.OIDSignatureSHA256WithRSA, x509.SHA256WithRSA},
	RSAPKCS1SHA384: {"rsa-pkcs1-sha384", FamilyRSAPKCS1, crypto.SHA384, x509util.OIDSignatureSHA384WithRSA, x509.SHA384WithRSA},
	RSAPKCS1SHA512: {"rsa-pkcs1-sha512", FamilyRSAPKCS1, crypto.SHA512, x509util.OIDSignatureSHA512WithRSA, x509.SHA512WithRSA},

	ECDSASHA1:   {"ecdsa-sha1", FamilyECDSA, crypto.SHA1, x509util.OIDSignatureECDSAWithSHA1, x509.ECDSAWithSHA1},
	ECDSASHA256: {"ecdsa-sha256", FamilyECDSA, crypto.SHA256, x509util.OIDSignatureECDSAWithSHA256, x509.ECDSAWithSHA256},
	ECDSASHA384: {"ecdsa-sha384", FamilyECDSA, crypto.SHA384, x509util.OIDSignatureECDSAWithSHA384, x509.ECDSAWithSHA384},
	ECDSASHA512: {"ecdsa-sha512", FamilyECDSA, crypto.SHA512, x509util.OIDSignatureECDSAWithSHA512, x509.ECDSAWithSHA512},

	DSASHA1:   {"dsa-sha1", FamilyDSA, crypto.SHA1, x509util.OIDSignatureDSAWithSHA1, x509.DSAWithSHA1},
	DSASHA256: {"dsa-sha256", FamilyDSA, crypto.SHA256, x509util.OIDSignatureDSAWithSHA256, x509.DSAWithSHA256},

	RSAPSSSHA256: {"rsa-pss-sha256", FamilyRSAPSS, crypto.SHA256, x509util.OIDSignatureRSAPSS, x509.SHA256WithRSAPSS},
	RSAPSSSHA384: {"rsa-pss-sha384", FamilyRSAPSS, crypto.SHA384, x509util.OIDSignatureRSAPSS, x509.SHA384WithRSAPSS},
	RSAPSSSHA512: {"rsa-pss-sha512", FamilyRSAPSS, crypto.SHA512, x509util.OIDSignatureRSAPSS, x509.SHA512WithRSAPSS},
}

// All returns every accepted algorithm in declaration order.
func All() []SignatureAlgorithm {
	out := make([]SignatureAlgorithm, 0, numAlgorithms-1)
	for a := Unknown + 1; a < numAlgorithms; a++ {
		out = append(out, a)
	}
	return out
}

// Valid reports whether a is a member of the catalogue.
func (a SignatureAlgorithm) Valid() bool {
	return a > Unknown && a < numAlgorithms
}

func (a SignatureAlgorithm) details() details {
	if !a.Valid() {
		return algorithmDetails[Unknown]
	}
	return algorithmDetails[a]
}

// String returns the canonical name, e.g. "ecdsa-sha256".
func (a SignatureAlgorithm) String() string {
	if a != Unknown && !a.Valid() {
		return fmt.Sprintf("SignatureAlgorithm(%d)", int(a))
	}
	return a.details().name
}

// Family returns the algorithm family, or "" for Unknown.
func (a SignatureAlgorithm) Family() Family {
	return a.details().family
}

// Hash returns the message digest used by the signature. MD2 has no
// crypto.Hash value and returns 0.
func (a SignatureAlgorithm) Hash() crypto.Hash {
	return a.details().hash
}

// OID returns the signature algorithm OID. All RSASSA-PSS variants share
// id-RSASSA-PSS; they differ only in their parameters.
func (a SignatureAlgorithm) OID() asn1.ObjectIdentifier {
	return a.details().oid
}

// X509 returns the matching crypto/x509 constant, or
// x509.UnknownSignatureAlgorithm when the standard library has none.
func (a SignatureAlgorithm) X509() x509.SignatureAlgorithm {
	return a.details().x509
}

// IsWeak reports whether the message digest is MD2, MD4, MD5 or SHA-1.
// Such algorithms are classified for compatibility only.
func (a SignatureAlgorithm) IsWeak() bool {
	switch a {
	case RSAPKCS1MD2, RSAPKCS1MD4, RSAPKCS1MD5,
		RSAPKCS1SHA1, ECDSASHA1, DSASHA1:
		return true
	default:
		return false
	}
}

// ParseName resolves a canonical name produced by String.
func ParseName(name string) (SignatureAlgorithm, error) {
	for _, a := range All() {
		if a.String() == name {
			return a, nil
		}
	}
	return Unknown, fmt.Errorf("unknown signature algorithm: %q", name)
}
