package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/remiblancher/sigalg/pkg/inspect"
	"github.com/remiblancher/sigalg/pkg/sigalg"
)

// Format is a --format value.
type Format string

// Output formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
)

// ParseFormat resolves a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML, FormatCBOR:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json, yaml or cbor)", s)
	}
}

// Render writes v in format f. Text output is produced by text, which may
// be nil when v has no text form.
func Render(w io.Writer, f Format, v any, text func(io.Writer) error) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatCBOR:
		return cbor.NewEncoder(w).Encode(v)
	case FormatText, "":
		if text == nil {
			return fmt.Errorf("no text output available")
		}
		return text(w)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// WriteReport renders an inspection report as indented text.
func WriteReport(w io.Writer, r *inspect.Report) error {
	title := map[inspect.Kind]string{
		inspect.KindCertificate:         "Certificate",
		inspect.KindCertificateRequest:  "Certificate Signing Request",
		inspect.KindRevocationList:      "Certificate Revocation List",
		inspect.KindAlgorithmIdentifier: "AlgorithmIdentifier",
	}[r.Kind]

	fmt.Fprintf(w, "%s:\n", title)
	writeAlgorithm(w, "Signature Alg", r.Signature)
	if r.TBSSignature != nil {
		writeAlgorithm(w, "TBS Signature", r.TBSSignature)
	}
	if r.SignaturesMatch != nil {
		status := "match"
		if !*r.SignaturesMatch {
			status = "mismatch"
		}
		fmt.Fprintf(w, "  Fields:         %s\n", FormatStatus(status))
	}
	if r.ChannelBinding != "" {
		fmt.Fprintf(w, "  Channel Bind:   %s\n", r.ChannelBinding)
	}
	for _, d := range r.Diagnostics {
		for i, line := range strings.Split(d.String(), "\n") {
			if i == 0 {
				fmt.Fprintf(w, "  Diagnostic:     %s\n", line)
			} else {
				fmt.Fprintf(w, "                %s\n", line)
			}
		}
	}
	return nil
}

func writeAlgorithm(w io.Writer, label string, a *inspect.AlgorithmReport) {
	status := "recognized"
	if !a.Recognized {
		status = "unknown"
	}
	fmt.Fprintf(w, "  %-15s %s (%s)\n", label+":", a.Name, FormatStatus(status))
	if a.OID != "" {
		fmt.Fprintf(w, "    OID:          %s\n", a.OID)
	}
	if a.Parameters != "" {
		fmt.Fprintf(w, "    Parameters:   %s\n", a.Parameters)
	}
	if !a.Recognized {
		return
	}
	fmt.Fprintf(w, "    Family:       %s\n", a.Family)
	if a.Weak {
		fmt.Fprintf(w, "    Digest:       %s\n", FormatStatus("weak"))
	}
	if a.BindingDigest != "" {
		fmt.Fprintf(w, "    Binding:      %s\n", a.BindingDigest)
	}
	if a.COSE != 0 {
		fmt.Fprintf(w, "    COSE:         %d\n", a.COSE)
	}
}

// AlgorithmEntry is one row of the catalogue listing.
type AlgorithmEntry struct {
	Name          string `json:"name" yaml:"name" cbor:"name"`
	Family        string `json:"family" yaml:"family" cbor:"family"`
	OID           string `json:"oid" yaml:"oid" cbor:"oid"`
	Weak          bool   `json:"weak,omitempty" yaml:"weak,omitempty" cbor:"weak,omitempty"`
	BindingDigest string `json:"binding_digest,omitempty" yaml:"binding_digest,omitempty" cbor:"binding_digest,omitempty"`
	COSE          int64  `json:"cose,omitempty" yaml:"cose,omitempty" cbor:"cose,omitempty"`
	Allowed       *bool  `json:"allowed,omitempty" yaml:"allowed,omitempty" cbor:"allowed,omitempty"`
}

// Catalogue lists every accepted algorithm. allowed, when non-nil, marks
// each entry with a policy decision.
func Catalogue(allowed func(sigalg.SignatureAlgorithm) bool) []AlgorithmEntry {
	var out []AlgorithmEntry
	for _, alg := range sigalg.All() {
		e := AlgorithmEntry{
			Name:   alg.String(),
			Family: string(alg.Family()),
			OID:    alg.OID().String(),
			Weak:   alg.IsWeak(),
		}
		if d, ok := sigalg.TLSServerEndpointDigest(alg); ok {
			e.BindingDigest = d.String()
		}
		if c, ok := alg.COSEAlgorithm(); ok {
			e.COSE = int64(c)
		}
		if allowed != nil {
			ok := allowed(alg)
			e.Allowed = &ok
		}
		out = append(out, e)
	}
	return out
}

// WriteCatalogue renders Catalogue entries as a table.
func WriteCatalogue(w io.Writer, entries []AlgorithmEntry) error {
	fmt.Fprintf(w, "%-18s %-10s %-24s %-8s %s\n", "NAME", "FAMILY", "OID", "BINDING", "STATUS")
	for _, e := range entries {
		binding := e.BindingDigest
		if binding == "" {
			binding = "-"
		}
		var status []string
		if e.Weak {
			status = append(status, FormatStatus("weak"))
		}
		if e.Allowed != nil {
			if *e.Allowed {
				status = append(status, FormatStatus("allowed"))
			} else {
				status = append(status, FormatStatus("denied"))
			}
		}
		fmt.Fprintf(w, "%-18s %-10s %-24s %-8s %s\n", e.Name, e.Family, e.OID, binding, strings.Join(status, ", "))
	}
	return nil
}
