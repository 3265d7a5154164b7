package sigalg

import "fmt"

// TLSServerEndpointDigest returns the hash function used for the
// tls-server-end-point channel binding of a certificate signed with alg
// (RFC 5929, section 4.1).
//
// RFC 5929 assumes a signature algorithm uses exactly one digest, which is
// common but not universal. MD5 and SHA-1 are upgraded to SHA-256. For
// RSASSA-PSS the accepted profiles use the same hash for the message and
// MGF1, so that hash is the only reasonable answer. DSA, MD2 and MD4 have no
// binding and return false.
//
// Unknown returns false. Any value outside the catalogue panics.
func TLSServerEndpointDigest(alg SignatureAlgorithm) (DigestAlgorithm, bool) {
	switch alg {
	case RSAPKCS1MD5, RSAPKCS1SHA1, ECDSASHA1:
		return SHA256, true

	case RSAPKCS1SHA256, ECDSASHA256, RSAPSSSHA256:
		return SHA256, true

	case RSAPKCS1SHA384, ECDSASHA384, RSAPSSSHA384:
		return SHA384, true

	case RSAPKCS1SHA512, ECDSASHA512, RSAPSSSHA512:
		return SHA512, true

	case DSASHA1, DSASHA256, RSAPKCS1MD2, RSAPKCS1MD4:
		return 0, false

	case Unknown:
		return 0, false
	}
	panic(fmt.Sprintf("sigalg: unhandled signature algorithm %d", int(alg)))
}
