package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"

	"github.com/remiblancher/sigalg/internal/cli"
	"github.com/remiblancher/sigalg/pkg/sigalg"
)

// =============================================================================
// List Tests
// =============================================================================

func TestF_List_Table(t *testing.T) {
	newTestContext(t)

	out, err := executeCommand(rootCmd, "list")
	assertNoError(t, err)
	assertContains(t, out, "NAME", "rsa-pkcs1-md2", "rsa-pss-sha512", "1.2.840.10045.4.3.2")

	// Header plus one row per catalogue entry.
	if got := len(strings.Split(strings.TrimSpace(out), "\n")); got != len(sigalg.All())+1 {
		t.Errorf("table has %d lines, want %d", got, len(sigalg.All())+1)
	}
	if strings.Contains(out, "allowed") || strings.Contains(out, "denied") {
		t.Errorf("no policy was requested:\n%s", out)
	}
}

func TestF_List_Policy(t *testing.T) {
	newTestContext(t)

	out, err := executeCommand(rootCmd, "list", "--policy", "tls13", "--format", "json")
	assertNoError(t, err)

	var entries []cli.AlgorithmEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	allowed := 0
	for _, e := range entries {
		if e.Allowed == nil {
			t.Fatalf("%s has no decision", e.Name)
		}
		if *e.Allowed {
			allowed++
		}
	}
	if allowed != 9 {
		t.Errorf("tls13 allows %d algorithms, want 9", allowed)
	}
}

func TestF_List_CBOR(t *testing.T) {
	newTestContext(t)

	out, err := executeCommand(rootCmd, "list", "-f", "cbor")
	assertNoError(t, err)

	var entries []cli.AlgorithmEntry
	if err := cbor.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(sigalg.All()) || entries[len(entries)-1].COSE != -39 {
		t.Errorf("entries = %+v", entries)
	}
}
