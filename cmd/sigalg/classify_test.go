package main

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/remiblancher/sigalg/internal/audit"
	"github.com/remiblancher/sigalg/internal/testutil"
	"github.com/remiblancher/sigalg/pkg/policy"
	"github.com/remiblancher/sigalg/pkg/x509util"
)

// =============================================================================
// Classify Tests
// =============================================================================

func TestF_Classify_Hex(t *testing.T) {
	newTestContext(t)

	out, err := executeCommand(rootCmd, "classify", "--hex", "300d06092a864886f70d01010b0500")
	assertNoError(t, err)
	assertContains(t, out,
		"AlgorithmIdentifier:",
		"rsa-pkcs1-sha256 (recognized)",
		"OID:          1.2.840.113549.1.1.11",
		"Binding:      sha256",
	)
	if strings.Contains(out, "Policy:") {
		t.Errorf("no policy was requested:\n%s", out)
	}
}

func TestF_Classify_Base64(t *testing.T) {
	newTestContext(t)
	der := testutil.PSSAlgorithmIdentifier(x509util.OIDDigestSHA384, x509util.OIDDigestSHA384, 48)

	out, err := executeCommand(rootCmd, "classify", "--base64", base64.StdEncoding.EncodeToString(der))
	assertNoError(t, err)
	assertContains(t, out, "rsa-pss-sha384 (recognized)", "Family:       rsa-pss")
}

func TestF_Classify_File(t *testing.T) {
	tc := newTestContext(t)
	der := testutil.AlgorithmIdentifier(x509util.OIDSignatureECDSAWithSHA256, nil)

	for name, data := range map[string][]byte{
		"alg.der": der,
		"alg.hex": []byte(hex.EncodeToString(der) + "\n"),
	} {
		t.Run(name, func(t *testing.T) {
			resetFlags(rootCmd)
			out, err := executeCommand(rootCmd, "classify", tc.writeFile(name, data))
			assertNoError(t, err)
			assertContains(t, out, "ecdsa-sha256 (recognized)")
		})
	}
}

func TestF_Classify_JSON(t *testing.T) {
	newTestContext(t)
	der := testutil.AlgorithmIdentifier(x509util.OIDSignatureECDSAWithSHA384, nil)

	out, err := executeCommand(rootCmd, "classify", "--format", "json", "--policy", "tls13", "--hex", hex.EncodeToString(der))
	assertNoError(t, err)

	var got struct {
		Kind      string `json:"kind"`
		Signature struct {
			Name          string `json:"name"`
			Recognized    bool   `json:"recognized"`
			COSE          int64  `json:"cose"`
			BindingDigest string `json:"binding_digest"`
		} `json:"signature"`
		Policy *policyDecision `json:"policy"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if got.Kind != "algorithm-identifier" || got.Signature.Name != "ecdsa-sha384" || !got.Signature.Recognized {
		t.Errorf("report = %+v", got)
	}
	if got.Signature.COSE != -35 || got.Signature.BindingDigest != "sha384" {
		t.Errorf("signature = %+v", got.Signature)
	}
	if diff := cmp.Diff(&policyDecision{Name: "tls13", Allowed: true}, got.Policy, cmp.AllowUnexported(policyDecision{})); diff != "" {
		t.Errorf("policy mismatch (-want +got):\n%s", diff)
	}
}

func TestF_Classify_Unknown(t *testing.T) {
	tc := newTestContext(t)
	logPath := tc.path("audit.jsonl")
	der := testutil.RawAlgorithmIdentifier([]byte{0x2a, 0x03, 0x04}, testutil.Null)

	out, err := executeCommand(rootCmd, "--audit-log", logPath, "classify", "--hex", hex.EncodeToString(der))
	if !errors.Is(err, errUnrecognized) {
		t.Fatalf("error = %v, want errUnrecognized", err)
	}
	assertContains(t, out, "unknown (unknown)", "OID:          1.2.3.4", "ERROR: Unknown signature algorithm")

	_ = audit.Close()
	events := tc.auditEvents(logPath)
	if diff := cmp.Diff([]audit.EventType{audit.EventSigAlgRejected}, eventTypes(events)); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if events[0].Context.OID != "1.2.3.4" || events[0].Context.Params != "0500" || events[0].Context.Source != "cli" {
		t.Errorf("context = %+v", events[0].Context)
	}
}

func TestF_Classify_Malformed(t *testing.T) {
	tc := newTestContext(t)
	logPath := tc.path("audit.jsonl")

	// A SEQUENCE whose length runs past the input.
	_, err := executeCommand(rootCmd, "--audit-log", logPath, "classify", "--hex", "300d0609")
	if !errors.Is(err, errUnrecognized) {
		t.Fatalf("error = %v, want errUnrecognized", err)
	}

	_ = audit.Close()
	events := tc.auditEvents(logPath)
	if len(events) != 1 || events[0].EventType != audit.EventSigAlgRejected || events[0].Result != audit.ResultFailure {
		t.Errorf("events = %+v", events)
	}
}

func TestF_Classify_Policy(t *testing.T) {
	sha1RSA := hex.EncodeToString(testutil.AlgorithmIdentifier(x509util.OIDSignatureSHA1WithRSA, testutil.Null))

	t.Run("[Functional] Classify: denied without strict", func(t *testing.T) {
		newTestContext(t)
		out, err := executeCommand(rootCmd, "classify", "--policy", "modern", "--hex", sha1RSA)
		assertNoError(t, err)
		assertContains(t, out, "rsa-pkcs1-sha1 (recognized)", "Digest:       weak", "Policy:         modern (denied: weak digest)")
	})

	t.Run("[Functional] Classify: denied with strict", func(t *testing.T) {
		tc := newTestContext(t)
		logPath := tc.path("audit.jsonl")
		_, err := executeCommand(rootCmd, "--audit-log", logPath, "classify", "--policy", "modern", "--strict", "--hex", sha1RSA)
		if !errors.Is(err, policy.ErrAlgorithmNotAllowed) {
			t.Fatalf("error = %v, want ErrAlgorithmNotAllowed", err)
		}

		_ = audit.Close()
		events := tc.auditEvents(logPath)
		want := []audit.EventType{audit.EventSigAlgClassified, audit.EventPolicyViolation}
		if diff := cmp.Diff(want, eventTypes(events)); diff != "" {
			t.Fatalf("events mismatch (-want +got):\n%s", diff)
		}
		if c := events[1].Context; c.Policy != "modern" || c.Algorithm != "rsa-pkcs1-sha1" || c.Reason != "weak digest" {
			t.Errorf("violation context = %+v", c)
		}
	})

	t.Run("[Functional] Classify: policy file", func(t *testing.T) {
		tc := newTestContext(t)
		path := tc.writeFile("policy.yaml", []byte("name: only-ecdsa\nallow: [ecdsa-sha256]\n"))
		out, err := executeCommand(rootCmd, "classify", "--policy", path, "--hex", sha1RSA)
		assertNoError(t, err)
		assertContains(t, out, "only-ecdsa (denied: not in the allow list)")
	})

	t.Run("[Functional] Classify: missing policy", func(t *testing.T) {
		tc := newTestContext(t)
		_, err := executeCommand(rootCmd, "classify", "--policy", tc.path("missing.yaml"), "--hex", sha1RSA)
		assertError(t, err)
	})
}

func TestF_Classify_InputErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"[Functional] Classify: no input", []string{"classify"}},
		{"[Functional] Classify: invalid hex", []string{"classify", "--hex", "zz"}},
		{"[Functional] Classify: invalid base64", []string{"classify", "--base64", "!!"}},
		{"[Functional] Classify: hex and base64", []string{"classify", "--hex", "3000", "--base64", "MAA="}},
		{"[Functional] Classify: invalid format", []string{"classify", "--format", "xml", "--hex", "3000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newTestContext(t)
			_, err := executeCommand(rootCmd, tt.args...)
			assertError(t, err)
		})
	}
}
