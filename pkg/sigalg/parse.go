package sigalg

import (
	"encoding/asn1"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/remiblancher/sigalg/pkg/certerrors"
	"github.com/remiblancher/sigalg/pkg/x509util"
)

// ErrUnknownSignatureAlgorithm is recorded when an AlgorithmIdentifier
// decodes but does not match the catalogue. It carries the "oid" and
// "params" DER fragments.
const ErrUnknownSignatureAlgorithm certerrors.ID = "Unknown signature algorithm"

// paramsRule describes what an OID accepts in its parameters field.
type paramsRule int

const (
	// paramsNullOrAbsent: RFC 5912 requires NULL for RSA PKCS#1 v1.5 and
	// absence for DSA, but non-conforming encoders (notably some OCSP
	// responders) emit either one.
	paramsNullOrAbsent paramsRule = iota
	// paramsAbsent: RFC 5758 requires ECDSA parameters to be absent.
	// An explicit NULL is rejected.
	paramsAbsent
	// paramsRSAPSS: parameters are mandatory and select the algorithm.
	paramsRSAPSS
)

type signatureRule struct {
	params paramsRule
	alg    SignatureAlgorithm
}

// signatureOIDs is keyed by OID content octets.
var signatureOIDs = buildSignatureOIDs([]struct {
	oid asn1.ObjectIdentifier
	signatureRule
}{
	{x509util.OIDSignatureSHA1WithRSA, signatureRule{paramsNullOrAbsent, RSAPKCS1SHA1}},
	{x509util.OIDSignatureSHA1WithRSAOIW, signatureRule{paramsNullOrAbsent, RSAPKCS1SHA1}},
	{x509util.OIDSignatureSHA256WithRSA, signatureRule{paramsNullOrAbsent, RSAPKCS1SHA256}},
	{x509util.OIDSignatureSHA384WithRSA, signatureRule{paramsNullOrAbsent, RSAPKCS1SHA384}},
	{x509util.OIDSignatureSHA512WithRSA, signatureRule{paramsNullOrAbsent, RSAPKCS1SHA512}},
	{x509util.OIDSignatureMD2WithRSA, signatureRule{paramsNullOrAbsent, RSAPKCS1MD2}},
	{x509util.OIDSignatureMD4WithRSA, signatureRule{paramsNullOrAbsent, RSAPKCS1MD4}},
	{x509util.OIDSignatureMD5WithRSA, signatureRule{paramsNullOrAbsent, RSAPKCS1MD5}},

	{x509util.OIDSignatureECDSAWithSHA1, signatureRule{paramsAbsent, ECDSASHA1}},
	{x509util.OIDSignatureECDSAWithSHA256, signatureRule{paramsAbsent, ECDSASHA256}},
	{x509util.OIDSignatureECDSAWithSHA384, signatureRule{paramsAbsent, ECDSASHA384}},
	{x509util.OIDSignatureECDSAWithSHA512, signatureRule{paramsAbsent, ECDSASHA512}},

	{x509util.OIDSignatureRSAPSS, signatureRule{paramsRSAPSS, Unknown}},

	{x509util.OIDSignatureDSAWithSHA1, signatureRule{paramsNullOrAbsent, DSASHA1}},
	{x509util.OIDSignatureDSAWithSHA256, signatureRule{paramsNullOrAbsent, DSASHA256}},
})

func buildSignatureOIDs(entries []struct {
	oid asn1.ObjectIdentifier
	signatureRule
}) map[string]signatureRule {
	m := make(map[string]signatureRule, len(entries))
	for _, e := range entries {
		m[string(x509util.MustMarshalOID(e.oid))] = e.signatureRule
	}
	return m
}

// Parse classifies the DER AlgorithmIdentifier in der.
//
// On failure it returns (Unknown, false). If the AlgorithmIdentifier itself
// decoded but was not accepted, and errs is non-nil, exactly one
// ErrUnknownSignatureAlgorithm is recorded with the raw OID and parameters.
// Reporting never changes the result.
func Parse(der []byte, errs certerrors.Sink) (SignatureAlgorithm, bool) {
	oid, params, ok := x509util.ParseAlgorithmIdentifier(der)
	if !ok {
		return Unknown, false
	}

	if alg, ok := classify(oid, params); ok {
		return alg, true
	}

	if errs != nil {
		errs.AddError(ErrUnknownSignatureAlgorithm,
			certerrors.DERParams2("oid", oid, "params", params))
	}
	return Unknown, false
}

func classify(oid, params []byte) (SignatureAlgorithm, bool) {
	rule, ok := signatureOIDs[string(oid)]
	if !ok {
		return Unknown, false
	}

	switch rule.params {
	case paramsNullOrAbsent:
		if x509util.ParamsNullOrAbsent(params) {
			return rule.alg, true
		}
	case paramsAbsent:
		if x509util.ParamsAbsent(params) {
			return rule.alg, true
		}
	case paramsRSAPSS:
		return parseRSAPSS(params)
	}
	return Unknown, false
}

// parseMaskGenAlgorithm decodes a MaskGenAlgorithm and returns the MGF1
// hash:
//
//	PKCS1MGFAlgorithms ALGORITHM ::= {
//	    { IDENTIFIER id-mgf1 PARAMS TYPE HashAlgorithm ARE required },
//	    ...
//	}
//
// MGF1 is the only mask generation function defined by RFC 4055 and RFC
// 5912, so every other OID is rejected.
func parseMaskGenAlgorithm(der []byte) (DigestAlgorithm, bool) {
	oid, params, ok := x509util.ParseAlgorithmIdentifier(der)
	if !ok || string(oid) != oidMGF1 {
		return 0, false
	}
	return ParseHashAlgorithm(params)
}

var oidMGF1 = string(x509util.MustMarshalOID(x509util.OIDMGF1))

// pssParams is the decoded form of RSASSA-PSS-params.
type pssParams struct {
	hash       DigestAlgorithm
	mgf1Hash   DigestAlgorithm
	saltLength uint64
}

// pssProfiles lists the only RSASSA-PSS instantiations accepted, which are
// the ones TLS 1.3 (RFC 8446) can express: MGF1 hash equal to the message
// hash and salt length equal to the digest size.
var pssProfiles = map[pssParams]SignatureAlgorithm{
	{SHA256, SHA256, 32}: RSAPSSSHA256,
	{SHA384, SHA384, 48}: RSAPSSSHA384,
	{SHA512, SHA512, 64}: RSAPSSSHA512,
}

var (
	tagPSSHash       = cryptobyte_asn1.Tag(0).ContextSpecific().Constructed()
	tagPSSMaskGen    = cryptobyte_asn1.Tag(1).ContextSpecific().Constructed()
	tagPSSSaltLength = cryptobyte_asn1.Tag(2).ContextSpecific().Constructed()
)

// parseRSAPSS decodes the parameters of id-RSASSA-PSS:
//
//	RSASSA-PSS-params  ::=  SEQUENCE  {
//	    hashAlgorithm     [0] HashAlgorithm DEFAULT sha1Identifier,
//	    maskGenAlgorithm  [1] MaskGenAlgorithm DEFAULT mgf1SHA1,
//	    saltLength        [2] INTEGER DEFAULT 20,
//	    trailerField      [3] INTEGER DEFAULT 1
//	}
//
// The defaults of the first three fields all imply SHA-1, which is not
// supported with PSS, so they are treated as required. DER forbids encoding
// a default value, so an explicit trailerField is never valid and is
// rejected like any other trailing data.
func parseRSAPSS(der []byte) (SignatureAlgorithm, bool) {
	input := cryptobyte.String(der)

	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return Unknown, false
	}

	var p pssParams
	var field, salt cryptobyte.String
	var ok bool
	if !seq.ReadASN1(&field, tagPSSHash) {
		return Unknown, false
	}
	if p.hash, ok = ParseHashAlgorithm(field); !ok {
		return Unknown, false
	}
	if !seq.ReadASN1(&field, tagPSSMaskGen) {
		return Unknown, false
	}
	if p.mgf1Hash, ok = parseMaskGenAlgorithm(field); !ok {
		return Unknown, false
	}
	if !seq.ReadASN1(&salt, tagPSSSaltLength) ||
		!salt.ReadASN1Integer(&p.saltLength) ||
		!salt.Empty() {
		return Unknown, false
	}
	if !seq.Empty() {
		return Unknown, false
	}

	if p.hash != p.mgf1Hash {
		return Unknown, false
	}
	alg, ok := pssProfiles[p]
	if !ok {
		return Unknown, false
	}
	return alg, true
}
