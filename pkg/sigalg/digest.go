package sigalg

import (
	"crypto"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"github.com/remiblancher/sigalg/pkg/x509util"
)

// DigestAlgorithm identifies one of the hash functions accepted inside
// signature algorithm parameters.
type DigestAlgorithm int

// Supported digest algorithms. The zero value is not a valid digest.
const (
	SHA1 DigestAlgorithm = iota + 1
	SHA256
	SHA384
	SHA512
)

// digestOIDs maps digest OID content octets to digests. MD2, MD4, MD5 and
// SHA-224 are deliberately missing: they decode fine but are unsupported.
var digestOIDs = map[string]DigestAlgorithm{
	string(x509util.MustMarshalOID(x509util.OIDDigestSHA1)):   SHA1,
	string(x509util.MustMarshalOID(x509util.OIDDigestSHA256)): SHA256,
	string(x509util.MustMarshalOID(x509util.OIDDigestSHA384)): SHA384,
	string(x509util.MustMarshalOID(x509util.OIDDigestSHA512)): SHA512,
}

// ParseHashAlgorithm decodes a digest AlgorithmIdentifier:
//
//	HashAlgorithm ::= AlgorithmIdentifier{DIGEST-ALGORITHM,
//	                      {HashAlgorithms}}
//
// The parameters must be absent or NULL; both forms occur in the wild.
// Only SHA-1, SHA-256, SHA-384 and SHA-512 are accepted.
func ParseHashAlgorithm(der []byte) (DigestAlgorithm, bool) {
	oid, params, ok := x509util.ParseAlgorithmIdentifier(der)
	if !ok || !x509util.ParamsNullOrAbsent(params) {
		return 0, false
	}
	d, ok := digestOIDs[string(oid)]
	return d, ok
}

// String returns the lower-case digest name.
func (d DigestAlgorithm) String() string {
	switch d {
	case SHA1:
		return "sha1"
	case SHA256:
		return "sha256"
	case SHA384:
		return "sha384"
	case SHA512:
		return "sha512"
	default:
		return fmt.Sprintf("DigestAlgorithm(%d)", int(d))
	}
}

// Hash returns the corresponding crypto.Hash, or 0 for invalid values.
func (d DigestAlgorithm) Hash() crypto.Hash {
	switch d {
	case SHA1:
		return crypto.SHA1
	case SHA256:
		return crypto.SHA256
	case SHA384:
		return crypto.SHA384
	case SHA512:
		return crypto.SHA512
	default:
		return 0
	}
}

// Size returns the digest output size in bytes.
func (d DigestAlgorithm) Size() int {
	switch d {
	case SHA1:
		return sha1.Size
	case SHA256:
		return sha256.Size
	case SHA384:
		return sha512.Size384
	case SHA512:
		return sha512.Size
	default:
		return 0
	}
}

// New returns a fresh hash.Hash. It panics for invalid values.
func (d DigestAlgorithm) New() hash.Hash {
	switch d {
	case SHA1:
		return sha1.New()
	case SHA256:
		return sha256.New()
	case SHA384:
		return sha512.New384()
	case SHA512:
		return sha512.New()
	default:
		panic(fmt.Sprintf("sigalg: invalid digest algorithm %d", int(d)))
	}
}

// ParseDigestName resolves a name produced by String.
func ParseDigestName(name string) (DigestAlgorithm, error) {
	for _, d := range []DigestAlgorithm{SHA1, SHA256, SHA384, SHA512} {
		if d.String() == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown digest algorithm: %q", name)
}
