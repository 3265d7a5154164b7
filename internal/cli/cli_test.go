package cli

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/remiblancher/sigalg/internal/testutil"
	"github.com/remiblancher/sigalg/pkg/inspect"
	"github.com/remiblancher/sigalg/pkg/sigalg"
	"github.com/remiblancher/sigalg/pkg/x509util"
)

func init() {
	NoColor = true
}

// =============================================================================
// Input Tests
// =============================================================================

func TestU_DecodeInput(t *testing.T) {
	der := testutil.AlgorithmIdentifier(x509util.OIDSignatureECDSAWithSHA384, nil)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	crlPEM := pem.EncodeToMemory(&pem.Block{Type: "X509 CRL", Bytes: der})

	tests := []struct {
		name     string
		data     []byte
		wantKind inspect.Kind
		wantErr  bool
	}{
		{name: "[Unit] DecodeInput: raw DER", data: der},
		{name: "[Unit] DecodeInput: hex", data: []byte(hex.EncodeToString(der) + "\n")},
		{name: "[Unit] DecodeInput: spaced upper hex", data: []byte("30 0A 06 08 2A 86 48 CE 3D 04 03 03")},
		{name: "[Unit] DecodeInput: base64", data: []byte(base64.StdEncoding.EncodeToString(der))},
		{name: "[Unit] DecodeInput: PEM certificate", data: certPEM, wantKind: inspect.KindCertificate},
		{name: "[Unit] DecodeInput: PEM CRL", data: crlPEM, wantKind: inspect.KindRevocationList},
		{name: "[Unit] DecodeInput: empty", data: []byte(" \n"), wantErr: true},
		{name: "[Unit] DecodeInput: text", data: []byte("hello world"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInput(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeInput() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !bytes.Equal(got.DER, der) {
				t.Errorf("DER = %x, want %x", got.DER, der)
			}
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", got.Kind, tt.wantKind)
			}
		})
	}
}

func TestU_DecodeInput_RawDERWithTrailingNewlineByte(t *testing.T) {
	// The last content byte is 0x0a, which TrimSpace would drop.
	der := testutil.Sequence(testutil.OctetString([]byte{0x0a}))
	got, err := DecodeInput(der)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.DER, der) {
		t.Errorf("DER = %x, want %x", got.DER, der)
	}
}

func TestU_ReadInput(t *testing.T) {
	der := testutil.AlgorithmIdentifier(x509util.OIDSignatureSHA256WithRSA, testutil.Null)
	path := filepath.Join(t.TempDir(), "alg.hex")
	if err := os.WriteFile(path, []byte(hex.EncodeToString(der)), 0o600); err != nil {
		t.Fatal(err)
	}

	in, err := ReadInput(path, nil)
	if err != nil {
		t.Fatalf("ReadInput() error = %v", err)
	}
	if in.Source != path || !bytes.Equal(in.DER, der) {
		t.Errorf("Input = %+v", in)
	}
	if in.KindOr(inspect.KindAlgorithmIdentifier) != inspect.KindAlgorithmIdentifier {
		t.Errorf("KindOr() = %q", in.KindOr(inspect.KindAlgorithmIdentifier))
	}

	stdin, err := ReadInput("-", bytes.NewReader(der))
	if err != nil || !bytes.Equal(stdin.DER, der) {
		t.Errorf("ReadInput(-) = %+v, %v", stdin, err)
	}

	if _, err := ReadInput(filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Error("ReadInput() should fail on a missing file")
	}
}

// =============================================================================
// Output Tests
// =============================================================================

func TestU_ParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "text": FormatText, "JSON": FormatJSON, "yaml": FormatYAML, "cbor": FormatCBOR} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = (%q, %v), want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestU_Render_Report(t *testing.T) {
	der := testutil.AlgorithmIdentifier(x509util.OIDSignatureECDSAWithSHA256, nil)
	report := inspect.Algorithm(der, nil)

	t.Run("[Unit] Render: json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Render(&buf, FormatJSON, report, nil); err != nil {
			t.Fatal(err)
		}
		var got map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		sig := got["signature"].(map[string]any)
		if sig["name"] != "ecdsa-sha256" || sig["binding_digest"] != "sha256" {
			t.Errorf("signature = %v", sig)
		}
	})

	t.Run("[Unit] Render: yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Render(&buf, FormatYAML, report, nil); err != nil {
			t.Fatal(err)
		}
		var got struct {
			Kind      string `yaml:"kind"`
			Signature struct {
				Name string `yaml:"name"`
			} `yaml:"signature"`
		}
		if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if got.Kind != "algorithm-identifier" || got.Signature.Name != "ecdsa-sha256" {
			t.Errorf("yaml = %s", buf.String())
		}
	})

	t.Run("[Unit] Render: cbor", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Render(&buf, FormatCBOR, report, nil); err != nil {
			t.Fatal(err)
		}
		var got inspect.Report
		if err := cbor.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if got.Signature == nil || got.Signature.Name != "ecdsa-sha256" || got.Signature.COSE != -7 {
			t.Errorf("cbor report = %+v", got.Signature)
		}
	})

	t.Run("[Unit] Render: text", func(t *testing.T) {
		var buf bytes.Buffer
		err := Render(&buf, FormatText, report, func(w io.Writer) error { return WriteReport(w, report) })
		if err != nil {
			t.Fatal(err)
		}
		for _, want := range []string{"AlgorithmIdentifier:", "ecdsa-sha256 (recognized)", "1.2.840.10045.4.3.2", "Binding:      sha256"} {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("text output missing %q:\n%s", want, buf.String())
			}
		}
	})

	t.Run("[Unit] Render: text unavailable", func(t *testing.T) {
		if err := Render(&bytes.Buffer{}, FormatText, report, nil); err == nil {
			t.Error("Render() without a text function should fail")
		}
	})
}

func TestU_WriteReport_Unknown(t *testing.T) {
	der := testutil.RawAlgorithmIdentifier([]byte{0x2a, 0x03, 0x04}, testutil.Null)
	var buf bytes.Buffer
	WriteReport(&buf, inspect.Algorithm(der, nil))

	out := buf.String()
	for _, want := range []string{"unknown (unknown)", "OID:          1.2.3.4", "Parameters:   0500", "Diagnostic:     ERROR: Unknown signature algorithm", "oid: 2A0304"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestU_Catalogue(t *testing.T) {
	entries := Catalogue(func(a sigalg.SignatureAlgorithm) bool { return !a.IsWeak() })
	if len(entries) != len(sigalg.All()) {
		t.Fatalf("Catalogue() = %d entries", len(entries))
	}

	got := entries[0]
	allowed := false
	want := AlgorithmEntry{Name: "rsa-pkcs1-md2", Family: "rsa-pkcs1", OID: "1.2.840.113549.1.1.2", Weak: true, Allowed: &allowed}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("first entry mismatch (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	WriteCatalogue(&buf, entries)
	if !strings.Contains(buf.String(), "weak, denied") || !strings.Contains(buf.String(), "rsa-pss-sha512") {
		t.Errorf("table:\n%s", buf.String())
	}
	if Catalogue(nil)[0].Allowed != nil {
		t.Error("Catalogue(nil) should not carry decisions")
	}
}

func TestU_FormatStatus(t *testing.T) {
	NoColor = false
	t.Cleanup(func() { NoColor = true })

	if got := FormatStatus("denied"); got != ColorRed+"denied"+ColorReset {
		t.Errorf("FormatStatus(denied) = %q", got)
	}
	if got := FormatStatus("other"); got != "other" {
		t.Errorf("FormatStatus(other) = %q", got)
	}
}
