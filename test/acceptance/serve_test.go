//go:build acceptance

package acceptance

import (
	"bytes"
	"context"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"
)

// =============================================================================
// API Server Tests (TestA_Serve_*)
// =============================================================================

func TestA_Serve_API(t *testing.T) {
	port := "18943" // use high port to avoid conflicts
	base := "http://127.0.0.1:" + port
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		// Run server - ignore error as it will be killed
		_ = runSigalgBackground(ctx, "--audit-log", logPath, "serve",
			"--host", "127.0.0.1", "--port", port, "--policy", "tls13")
	}()
	waitForServer(t, base+"/ready")

	resp := postJSON(t, base+"/api/v1/classify", map[string]any{
		"algorithm_identifier": map[string]string{"data": "MAoGCCqGSM49BAMC"},
	})
	var classified struct {
		Signature struct {
			Name string `json:"name"`
		} `json:"signature"`
		Policy struct {
			Allowed bool `json:"allowed"`
		} `json:"policy"`
	}
	decodeResponse(t, resp, http.StatusOK, &classified)
	if classified.Signature.Name != "ecdsa-sha256" || !classified.Policy.Allowed {
		t.Errorf("classify = %+v", classified)
	}

	_, der := writeCertificate(t, "server.crt", x509.ECDSAWithSHA256)
	resp = postJSON(t, base+"/api/v1/channel-binding", map[string]any{
		"certificate": map[string]string{"data": base64.StdEncoding.EncodeToString(der)},
	})
	var binding struct {
		Type   string `json:"type"`
		Digest string `json:"digest"`
	}
	decodeResponse(t, resp, http.StatusOK, &binding)
	if binding.Type != "tls-server-end-point" || binding.Digest != "sha256" {
		t.Errorf("binding = %+v", binding)
	}

	cancel()
	time.Sleep(500 * time.Millisecond)
	runSigalg(t, "audit", "verify", logPath)
}

func waitForServer(t *testing.T, url string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if resp, err := http.Get(url); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server at %s did not become ready", url)
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, status int, v any) {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != status {
		t.Fatalf("status = %d, want %d", resp.StatusCode, status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatal(err)
	}
}
