package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/remiblancher/sigalg/internal/audit"
	"github.com/remiblancher/sigalg/internal/cli"
	"github.com/remiblancher/sigalg/pkg/channelbinding"
	"github.com/remiblancher/sigalg/pkg/inspect"
)

// Binding command flags
var bindingPolicy string

var bindingCmd = &cobra.Command{
	Use:   "binding <certificate>",
	Short: "Compute the tls-server-end-point channel binding",
	Long: `Compute the RFC 5929 tls-server-end-point channel binding of a
certificate: the hash of the whole DER certificate, with the digest chosen
by its signatureAlgorithm (MD5 and SHA-1 are upgraded to SHA-256).

Certificates signed with DSA, MD2 or MD4 based algorithms, or with an
unrecognized algorithm, have no binding.

Examples:
  # Print the binding value
  sigalg binding server.crt

  # Refuse certificates the tls13 policy does not accept
  sigalg binding --policy tls13 server.crt --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runBinding,
}

func init() {
	bindingCmd.Flags().StringVarP(&bindingPolicy, "policy", "p", "", "Built-in policy name or policy file")
}

type bindingOutput struct {
	Type        string `json:"type" yaml:"type" cbor:"type"`
	Algorithm   string `json:"algorithm" yaml:"algorithm" cbor:"algorithm"`
	Digest      string `json:"digest" yaml:"digest" cbor:"digest"`
	Value       string `json:"value" yaml:"value" cbor:"value"`
	ValueBase64 string `json:"value_base64" yaml:"value_base64" cbor:"value_base64"`
}

func runBinding(cmd *cobra.Command, args []string) error {
	in, err := cli.ReadInput(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	if kind := in.KindOr(inspect.KindCertificate); kind != inspect.KindCertificate {
		return fmt.Errorf("%s: expected a certificate, got %s", args[0], kind)
	}
	pol, err := loadPolicy(bindingPolicy)
	if err != nil {
		return err
	}

	obj := auditObject(in, inspect.KindCertificate)
	sink := audit.SinkFor(auditSource, obj)
	binding, err := channelbinding.Compute(in.DER, sink)
	if serr := sink.Err(); serr != nil {
		return serr
	}
	if err != nil {
		if aerr := audit.LogChannelBinding(auditSource, obj, "", "", false, err.Error()); aerr != nil {
			return aerr
		}
		return fmt.Errorf("%s: %w", args[0], err)
	}

	if pol != nil {
		if refusal := pol.Check(binding.Algorithm); refusal != nil {
			if err := recordViolation(pol, obj, refusal); err != nil {
				return err
			}
			return refusal
		}
	}

	if err := audit.LogChannelBinding(auditSource, obj, binding.Algorithm.String(), binding.Digest.String(), true, ""); err != nil {
		return err
	}

	out := bindingOutput{
		Type:        channelbinding.Type,
		Algorithm:   binding.Algorithm.String(),
		Digest:      binding.Digest.String(),
		Value:       hex.EncodeToString(binding.Value),
		ValueBase64: base64.StdEncoding.EncodeToString(binding.Value),
	}
	return render(cmd, out, func(w io.Writer) error {
		fmt.Fprintf(w, "Channel Binding:\n")
		fmt.Fprintf(w, "  Type:           %s\n", out.Type)
		fmt.Fprintf(w, "  Signature Alg:  %s\n", out.Algorithm)
		fmt.Fprintf(w, "  Digest:         %s\n", out.Digest)
		fmt.Fprintf(w, "  Value:          %s\n", out.Value)
		return nil
	})
}
