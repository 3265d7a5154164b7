// Package testutil builds DER test vectors for signature algorithm tests.
// Everything here panics on encoding errors; inputs are test constants.
package testutil

import (
	"encoding/asn1"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/remiblancher/sigalg/pkg/x509util"
)

// Null is the DER encoding of an ASN.1 NULL.
var Null = []byte{0x05, 0x00}

// AlgorithmIdentifier encodes SEQUENCE { oid, params }. params is appended
// verbatim and may be nil to omit the field.
func AlgorithmIdentifier(oid asn1.ObjectIdentifier, params []byte) []byte {
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(oid)
		b.AddBytes(params)
	})
	return b.BytesOrPanic()
}

// RawAlgorithmIdentifier is like AlgorithmIdentifier but takes the OID
// content octets directly, so invalid OIDs can be encoded.
func RawAlgorithmIdentifier(oidContent, params []byte) []byte {
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(cryptobyte_asn1.OBJECT_IDENTIFIER, func(b *cryptobyte.Builder) {
			b.AddBytes(oidContent)
		})
		b.AddBytes(params)
	})
	return b.BytesOrPanic()
}

// Sequence wraps the concatenation of parts in a SEQUENCE.
func Sequence(parts ...[]byte) []byte {
	return wrap(cryptobyte_asn1.SEQUENCE, parts...)
}

// Explicit wraps the concatenation of parts in a constructed
// context-specific tag [n].
func Explicit(n uint8, parts ...[]byte) []byte {
	return wrap(cryptobyte_asn1.Tag(n).ContextSpecific().Constructed(), parts...)
}

// Integer encodes an INTEGER.
func Integer(v int64) []byte {
	var b cryptobyte.Builder
	b.AddASN1Int64(v)
	return b.BytesOrPanic()
}

// OctetString encodes an OCTET STRING.
func OctetString(v []byte) []byte {
	return wrap(cryptobyte_asn1.OCTET_STRING, v)
}

// BitString encodes a BIT STRING with no unused bits.
func BitString(v []byte) []byte {
	return wrap(cryptobyte_asn1.BIT_STRING, append([]byte{0}, v...))
}

// HashAlgorithm encodes a digest AlgorithmIdentifier with NULL parameters.
func HashAlgorithm(oid asn1.ObjectIdentifier) []byte {
	return AlgorithmIdentifier(oid, Null)
}

// MGF1 encodes a MaskGenAlgorithm using MGF1 over the given digest.
func MGF1(hashOID asn1.ObjectIdentifier) []byte {
	return AlgorithmIdentifier(x509util.OIDMGF1, HashAlgorithm(hashOID))
}

// PSSParams encodes RSASSA-PSS-params with all three leading fields
// present and no trailerField.
func PSSParams(hashOID, mgfHashOID asn1.ObjectIdentifier, saltLength int64) []byte {
	return Sequence(
		Explicit(0, HashAlgorithm(hashOID)),
		Explicit(1, MGF1(mgfHashOID)),
		Explicit(2, Integer(saltLength)),
	)
}

// PSSAlgorithmIdentifier encodes id-RSASSA-PSS with the given parameters.
func PSSAlgorithmIdentifier(hashOID, mgfHashOID asn1.ObjectIdentifier, saltLength int64) []byte {
	return AlgorithmIdentifier(x509util.OIDSignatureRSAPSS, PSSParams(hashOID, mgfHashOID, saltLength))
}

// SyntheticCertificate assembles a structurally valid, unsigned certificate
// whose TBSCertificate.signature is inner and whose signatureAlgorithm is
// outer. The remaining TBSCertificate fields are minimal placeholders.
func SyntheticCertificate(inner, outer []byte) []byte {
	tbs := Sequence(
		Explicit(0, Integer(2)),
		Integer(1),
		inner,
		Sequence(), // issuer
		Sequence(), // validity
		Sequence(), // subject
		Sequence(), // subjectPublicKeyInfo
	)
	return Sequence(tbs, outer, BitString([]byte{0xde, 0xad, 0xbe, 0xef}))
}

// SyntheticCRL assembles an unsigned v2 CRL with the given signature fields.
func SyntheticCRL(inner, outer []byte) []byte {
	tbs := Sequence(
		Integer(1),
		inner,
		Sequence(), // issuer
	)
	return Sequence(tbs, outer, BitString([]byte{0x01}))
}

// SyntheticCSR assembles an unsigned CSR with the given signatureAlgorithm.
func SyntheticCSR(outer []byte) []byte {
	info := Sequence(Integer(0), Sequence(), Sequence(), Explicit(0))
	return Sequence(info, outer, BitString([]byte{0x01}))
}

func wrap(tag cryptobyte_asn1.Tag, parts ...[]byte) []byte {
	var b cryptobyte.Builder
	b.AddASN1(tag, func(b *cryptobyte.Builder) {
		for _, p := range parts {
			b.AddBytes(p)
		}
	})
	return b.BytesOrPanic()
}
