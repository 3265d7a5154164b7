package sigalg

import (
	gocose "github.com/veraison/go-cose"
)

// COSE algorithm identifiers from the IANA COSE Algorithms registry for the
// catalogue entries that have one.
const (
	COSEAlgES256 gocose.Algorithm = -7     // ECDSA w/ SHA-256
	COSEAlgES384 gocose.Algorithm = -35    // ECDSA w/ SHA-384
	COSEAlgES512 gocose.Algorithm = -36    // ECDSA w/ SHA-512
	COSEAlgPS256 gocose.Algorithm = -37    // RSASSA-PSS w/ SHA-256
	COSEAlgPS384 gocose.Algorithm = -38    // RSASSA-PSS w/ SHA-384
	COSEAlgPS512 gocose.Algorithm = -39    // RSASSA-PSS w/ SHA-512
	COSEAlgRS256 gocose.Algorithm = -257   // RSASSA-PKCS1-v1_5 w/ SHA-256
	COSEAlgRS384 gocose.Algorithm = -258   // RSASSA-PKCS1-v1_5 w/ SHA-384
	COSEAlgRS512 gocose.Algorithm = -259   // RSASSA-PKCS1-v1_5 w/ SHA-512
	COSEAlgRS1   gocose.Algorithm = -65535 // RSASSA-PKCS1-v1_5 w/ SHA-1 (deprecated)
)

var coseAlgorithms = map[SignatureAlgorithm]gocose.Algorithm{
	ECDSASHA256:    COSEAlgES256,
	ECDSASHA384:    COSEAlgES384,
	ECDSASHA512:    COSEAlgES512,
	RSAPSSSHA256:   COSEAlgPS256,
	RSAPSSSHA384:   COSEAlgPS384,
	RSAPSSSHA512:   COSEAlgPS512,
	RSAPKCS1SHA256: COSEAlgRS256,
	RSAPKCS1SHA384: COSEAlgRS384,
	RSAPKCS1SHA512: COSEAlgRS512,
	RSAPKCS1SHA1:   COSEAlgRS1,
}

// COSEAlgorithm returns the registered COSE algorithm for a, if any.
//
// COSE ES256/ES384/ES512 do not pin the curve, so the mapping back from
// COSE to a SignatureAlgorithm is exact only for the hash.
func (a SignatureAlgorithm) COSEAlgorithm() (gocose.Algorithm, bool) {
	alg, ok := coseAlgorithms[a]
	return alg, ok
}

// FromCOSE returns the catalogue entry registered for a COSE algorithm.
func FromCOSE(alg gocose.Algorithm) (SignatureAlgorithm, bool) {
	for sig, c := range coseAlgorithms {
		if c == alg {
			return sig, true
		}
	}
	return Unknown, false
}
