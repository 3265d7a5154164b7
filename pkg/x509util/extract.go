package x509util

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// ErrMalformed is returned when a certificate, CSR or CRL cannot be walked
// far enough to locate its signature algorithm fields.
var ErrMalformed = errors.New("malformed DER structure")

// SignatureFields holds the raw AlgorithmIdentifier TLVs found in a signed
// structure. Inner is empty for structures that carry only one copy
// (CSRs).
type SignatureFields struct {
	// Inner is the signature field inside the to-be-signed data
	// (TBSCertificate.signature or TBSCertList.signature).
	Inner []byte

	// Outer is the signatureAlgorithm field next to the signature value.
	Outer []byte
}

// Match reports whether both copies are present and byte-identical, as
// required by RFC 5280 section 4.1.1.2 and 5.1.1.2.
func (f SignatureFields) Match() bool {
	return len(f.Inner) > 0 && bytes.Equal(f.Inner, f.Outer)
}

func malformed(field string) error {
	return fmt.Errorf("%w: error reading %s", ErrMalformed, field)
}

// ExtractCertificateSignatureFields locates both signature algorithm
// fields of an X.509 certificate without interpreting them.
//
//	Certificate  ::=  SEQUENCE  {
//	    tbsCertificate       TBSCertificate,
//	    signatureAlgorithm   AlgorithmIdentifier,
//	    signatureValue       BIT STRING  }
//
//	TBSCertificate  ::=  SEQUENCE  {
//	    version         [0]  EXPLICIT Version DEFAULT v1,
//	    serialNumber         CertificateSerialNumber,
//	    signature            AlgorithmIdentifier,
//	    ... }
func ExtractCertificateSignatureFields(der []byte) (SignatureFields, error) {
	input := cryptobyte.String(der)

	var cert cryptobyte.String
	if !input.ReadASN1(&cert, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return SignatureFields{}, malformed("certificate")
	}

	var tbsCert cryptobyte.String
	if !cert.ReadASN1(&tbsCert, cryptobyte_asn1.SEQUENCE) {
		return SignatureFields{}, malformed("certificate.tbsCertificate")
	}
	if !tbsCert.SkipOptionalASN1(cryptobyte_asn1.Tag(0).Constructed().ContextSpecific()) {
		return SignatureFields{}, malformed("tbsCertificate.version")
	}
	if !tbsCert.SkipASN1(cryptobyte_asn1.INTEGER) {
		return SignatureFields{}, malformed("tbsCertificate.serialNumber")
	}

	var inner cryptobyte.String
	// ReadASN1Element keeps the tag and length octets.
	if !tbsCert.ReadASN1Element(&inner, cryptobyte_asn1.SEQUENCE) {
		return SignatureFields{}, malformed("tbsCertificate.signature")
	}

	outer, err := readSignatureTail(&cert, "certificate")
	if err != nil {
		return SignatureFields{}, err
	}

	return SignatureFields{Inner: inner, Outer: outer}, nil
}

// ExtractCSRSignatureField locates the signatureAlgorithm of a PKCS#10
// certification request. The result has no Inner field.
//
//	CertificationRequest ::= SEQUENCE {
//	    certificationRequestInfo  CertificationRequestInfo,
//	    signatureAlgorithm        AlgorithmIdentifier,
//	    signature                 BIT STRING }
func ExtractCSRSignatureField(der []byte) (SignatureFields, error) {
	input := cryptobyte.String(der)

	var csr cryptobyte.String
	if !input.ReadASN1(&csr, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return SignatureFields{}, malformed("certificationRequest")
	}
	if !csr.SkipASN1(cryptobyte_asn1.SEQUENCE) {
		return SignatureFields{}, malformed("certificationRequest.certificationRequestInfo")
	}

	outer, err := readSignatureTail(&csr, "certificationRequest")
	if err != nil {
		return SignatureFields{}, err
	}

	return SignatureFields{Outer: outer}, nil
}

// ExtractCRLSignatureFields locates both signature algorithm fields of a
// certificate revocation list.
//
//	CertificateList  ::=  SEQUENCE  {
//	    tbsCertList          TBSCertList,
//	    signatureAlgorithm   AlgorithmIdentifier,
//	    signatureValue       BIT STRING  }
//
//	TBSCertList  ::=  SEQUENCE  {
//	    version                 Version OPTIONAL,
//	    signature               AlgorithmIdentifier,
//	    ... }
func ExtractCRLSignatureFields(der []byte) (SignatureFields, error) {
	input := cryptobyte.String(der)

	var crl cryptobyte.String
	if !input.ReadASN1(&crl, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return SignatureFields{}, malformed("certificateList")
	}

	var tbsCertList cryptobyte.String
	if !crl.ReadASN1(&tbsCertList, cryptobyte_asn1.SEQUENCE) {
		return SignatureFields{}, malformed("certificateList.tbsCertList")
	}
	if !tbsCertList.SkipOptionalASN1(cryptobyte_asn1.INTEGER) {
		return SignatureFields{}, malformed("tbsCertList.version")
	}

	var inner cryptobyte.String
	if !tbsCertList.ReadASN1Element(&inner, cryptobyte_asn1.SEQUENCE) {
		return SignatureFields{}, malformed("tbsCertList.signature")
	}

	outer, err := readSignatureTail(&crl, "certificateList")
	if err != nil {
		return SignatureFields{}, err
	}

	return SignatureFields{Inner: inner, Outer: outer}, nil
}

// readSignatureTail reads the trailing "signatureAlgorithm, signatureValue"
// pair shared by certificates, CSRs and CRLs.
func readSignatureTail(s *cryptobyte.String, name string) ([]byte, error) {
	var outer cryptobyte.String
	if !s.ReadASN1Element(&outer, cryptobyte_asn1.SEQUENCE) {
		return nil, malformed(name + ".signatureAlgorithm")
	}
	if !s.SkipASN1(cryptobyte_asn1.BIT_STRING) {
		return nil, malformed(name + ".signatureValue")
	}
	if !s.Empty() {
		return nil, fmt.Errorf("%w: trailing data after %s", ErrMalformed, name)
	}
	return outer, nil
}
