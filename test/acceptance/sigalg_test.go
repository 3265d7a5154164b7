//go:build acceptance

package acceptance

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/remiblancher/sigalg/internal/testutil"
	"github.com/remiblancher/sigalg/pkg/x509util"
)

// =============================================================================
// Classification Tests (TestA_Classify_*)
// =============================================================================

func TestA_Classify_Catalogue(t *testing.T) {
	var entries []struct {
		Name string `json:"name"`
		OID  string `json:"oid"`
	}
	if err := json.Unmarshal([]byte(runSigalg(t, "list", "--format", "json")), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 16 {
		t.Fatalf("catalogue has %d entries, want 16", len(entries))
	}
}

func TestA_Classify_Identifiers(t *testing.T) {
	tests := []struct {
		hex  string
		want string
	}{
		{"300d06092a864886f70d01010b0500", "rsa-pkcs1-sha256"},
		{"300b06092a864886f70d01010b", "rsa-pkcs1-sha256"},
		{"300a06082a8648ce3d040302", "ecdsa-sha256"},
		{"300906072a8648ce380403", "dsa-sha1"},
		{hex.EncodeToString(testutil.PSSAlgorithmIdentifier(x509util.OIDDigestSHA512, x509util.OIDDigestSHA512, 64)), "rsa-pss-sha512"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			out := runSigalg(t, "classify", "--hex", tt.hex)
			assertOutputContains(t, out, tt.want+" (recognized)")
		})
	}
}

func TestA_Classify_Rejected(t *testing.T) {
	tests := map[string]string{
		"ecdsa with NULL":   "300c06082a8648ce3d0403020500",
		"unknown oid":       "300606042a030405",
		"pss salt mismatch": hex.EncodeToString(testutil.PSSAlgorithmIdentifier(x509util.OIDDigestSHA256, x509util.OIDDigestSHA256, 20)),
	}
	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			out := runSigalgExpectError(t, "classify", "--hex", h)
			assertOutputContains(t, out, "unrecognized signature algorithm")
		})
	}
}

// =============================================================================
// Certificate Tests (TestA_Cert_*)
// =============================================================================

func TestA_Cert_InspectAndBinding(t *testing.T) {
	certPath, der := writeCertificate(t, "server.crt", x509.ECDSAWithSHA256)
	sum := sha256.Sum256(der)

	out := runSigalg(t, "inspect", certPath)
	assertOutputContains(t, out, "Fields:         match")
	assertOutputContains(t, out, hex.EncodeToString(sum[:]))

	out = runSigalg(t, "binding", "--policy", "tls13", certPath)
	assertOutputContains(t, out, "Value:          "+hex.EncodeToString(sum[:]))
}

func TestA_Cert_PolicyCheck(t *testing.T) {
	certPath, _ := writeCertificate(t, "server.crt", x509.ECDSAWithSHA384)
	sha1RSA := testutil.AlgorithmIdentifier(x509util.OIDSignatureSHA1WithRSA, testutil.Null)
	weakPath := writeTestFile(t, "weak.der", string(testutil.SyntheticCertificate(sha1RSA, sha1RSA)))

	runSigalg(t, "policy", "check", "--policy", "modern", certPath)
	out := runSigalgExpectError(t, "policy", "check", "--policy", "modern", certPath, weakPath)
	assertOutputContains(t, out, "denied: weak digest")
}

// =============================================================================
// Audit Tests (TestA_Audit_*)
// =============================================================================

func TestA_Audit_Chain(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	certPath, _ := writeCertificate(t, "server.crt", x509.ECDSAWithSHA256)

	runSigalg(t, "--audit-log", logPath, "classify", "--hex", "300a06082a8648ce3d040302")
	runSigalg(t, "--audit-log", logPath, "inspect", certPath)
	runSigalg(t, "--audit-log", logPath, "binding", certPath)
	runSigalgExpectError(t, "--audit-log", logPath, "classify", "--hex", "300606042a030405")

	out := runSigalg(t, "audit", "verify", logPath)
	assertOutputContains(t, out, "Total events: 4")
}
