//go:build acceptance

// Package acceptance contains black-box CLI acceptance tests (TestA_*).
// Run with: go test -tags=acceptance ./test/acceptance/...
package acceptance

import (
	"bytes"
	"context"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/pem"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/remiblancher/sigalg/internal/testutil"
)

// sigalgBinary is the path to the sigalg binary.
// Set via SIGALG_BINARY env var or default to ./bin/sigalg in the repo root.
var sigalgBinary string

func init() {
	if bin := os.Getenv("SIGALG_BINARY"); bin != "" {
		sigalgBinary = bin
	} else {
		sigalgBinary = "../../bin/sigalg"
	}
}

// runSigalg executes the sigalg CLI with the given arguments and returns stdout.
// Fails the test if the command returns a non-zero exit code.
func runSigalg(t *testing.T, args ...string) string {
	t.Helper()
	cmd := exec.Command(sigalgBinary, args...)
	cmd.Env = append(os.Environ(), "NO_COLOR=1")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("sigalg %s failed: %v\nstderr: %s\nstdout: %s",
			strings.Join(args, " "), err, stderr.String(), stdout.String())
	}
	return stdout.String()
}

// runSigalgExpectError executes sigalg and expects it to fail.
// Returns the combined output (stdout + stderr).
func runSigalgExpectError(t *testing.T, args ...string) string {
	t.Helper()
	cmd := exec.Command(sigalgBinary, args...)
	cmd.Env = append(os.Environ(), "NO_COLOR=1")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err == nil {
		t.Fatalf("sigalg %s expected to fail but succeeded\nstdout: %s",
			strings.Join(args, " "), stdout.String())
	}
	return stdout.String() + stderr.String()
}

// runSigalgBackground runs sigalg in the background until ctx is cancelled.
func runSigalgBackground(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, sigalgBinary, args...)
	return cmd.Run()
}

// writeCertificate writes a fresh self-signed PEM certificate and returns
// its path and DER.
func writeCertificate(t *testing.T, name string, sigAlg x509.SignatureAlgorithm) (string, []byte) {
	t.Helper()
	curve := elliptic.P256()
	if sigAlg == x509.ECDSAWithSHA384 {
		curve = elliptic.P384()
	}
	der := testutil.SelfSignedCertificate(t, testutil.GenerateECDSAKey(t, curve), sigAlg)
	return writeTestFile(t, name, string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))), der
}

// assertOutputContains fails if the output does not contain the expected substring.
func assertOutputContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got: %s", expected, output)
	}
}

// writeTestFile creates a temporary file with the given content.
func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}
