package x509util

import (
	"bytes"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// derNull is the complete TLV encoding of an ASN.1 NULL.
var derNull = []byte{0x05, 0x00}

// ParseAlgorithmIdentifier splits a DER AlgorithmIdentifier into the
// content octets of its OID and the raw TLV of its parameters:
//
//	AlgorithmIdentifier ::= SEQUENCE {
//	    algorithm   OBJECT IDENTIFIER,
//	    parameters  ANY DEFINED BY algorithm OPTIONAL
//	}
//
// der must hold exactly one SEQUENCE. The parameters are at most one TLV
// (NULL, a SEQUENCE or anything else) and nothing may follow them, since
// RFC 5912 defines no extension point after "parameters". params is empty
// when the field was not encoded at all.
//
// The returned slices alias der.
func ParseAlgorithmIdentifier(der []byte) (oid, params []byte, ok bool) {
	input := cryptobyte.String(der)

	var algID cryptobyte.String
	if !input.ReadASN1(&algID, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return nil, nil, false
	}

	var algorithm cryptobyte.String
	if !algID.ReadASN1(&algorithm, cryptobyte_asn1.OBJECT_IDENTIFIER) {
		return nil, nil, false
	}

	var parameters cryptobyte.String
	if !algID.Empty() {
		var tag cryptobyte_asn1.Tag
		if !algID.ReadAnyASN1Element(&parameters, &tag) {
			return nil, nil, false
		}
	}
	if !algID.Empty() {
		return nil, nil, false
	}

	return algorithm, parameters, true
}

// ParamsAbsent reports whether the parameters field was omitted entirely.
func ParamsAbsent(params []byte) bool {
	return len(params) == 0
}

// ParamsNull reports whether params is exactly one NULL with empty content.
func ParamsNull(params []byte) bool {
	return bytes.Equal(params, derNull)
}

// ParamsNullOrAbsent reports whether params is NULL or was omitted.
func ParamsNullOrAbsent(params []byte) bool {
	return ParamsAbsent(params) || ParamsNull(params)
}
