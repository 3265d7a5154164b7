package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/remiblancher/sigalg/internal/audit"
	"github.com/remiblancher/sigalg/internal/cli"
	"github.com/remiblancher/sigalg/pkg/inspect"
)

// Inspect command flags
var (
	inspectKind   string
	inspectPolicy string
	inspectStrict bool
)

var inspectCmd = &cobra.Command{
	Use:     "inspect <file>...",
	Aliases: []string{"cert"},
	Short:   "Inspect the signature fields of certificates, CSRs and CRLs",
	Long: `Inspect the signature algorithm fields of X.509 structures.

For certificates and CRLs, both the outer signatureAlgorithm and the copy
inside the signed data are classified and compared (RFC 5280 4.1.1.2).
Certificates also get their tls-server-end-point channel binding.

The kind is taken from --kind, then from the PEM block type, and defaults
to certificate.

Examples:
  # Inspect a PEM certificate
  sigalg inspect server.crt

  # Inspect a DER CSR
  sigalg inspect --kind csr request.der

  # Check a CRL against the modern policy
  sigalg inspect --policy modern --strict ca.crl`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectKind, "kind", "k", "", "Input kind: certificate, csr, crl or algorithm-identifier")
	inspectCmd.Flags().StringVarP(&inspectPolicy, "policy", "p", "", "Built-in policy name or policy file")
	inspectCmd.Flags().BoolVar(&inspectStrict, "strict", false, "Fail when the policy refuses an input")
}

func runInspect(cmd *cobra.Command, args []string) error {
	var kind inspect.Kind
	if inspectKind != "" {
		k, err := inspect.ParseKind(inspectKind)
		if err != nil {
			return err
		}
		kind = k
	}
	pol, err := loadPolicy(inspectPolicy)
	if err != nil {
		return err
	}

	var (
		outputs []reportOutput
		failed  []error
	)
	for _, path := range args {
		out, err := inspectFile(cmd.InOrStdin(), path, kind)
		if err != nil {
			return err
		}
		if out.Policy, err = applyPolicy(pol, out.object, &out.Report); err != nil {
			return err
		}

		if !out.Recognized() {
			failed = append(failed, fmt.Errorf("%s: %w", path, errUnrecognized))
		} else if inspectStrict && out.Policy.Err() != nil {
			failed = append(failed, fmt.Errorf("%s: %w", path, out.Policy.Err()))
		}
		outputs = append(outputs, out.reportOutput)
	}

	var v any = outputs
	if len(outputs) == 1 {
		v = outputs[0]
	}
	err = render(cmd, v, func(w io.Writer) error {
		for i := range outputs {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "File: %s\n", outputs[i].Source)
			if err := cli.WriteReport(w, &outputs[i].Report); err != nil {
				return err
			}
			writeDecision(w, outputs[i].Policy)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return errors.Join(failed...)
}

type inspected struct {
	reportOutput
	object audit.Object
}

// inspectFile reads and inspects one input and audits the outcome.
func inspectFile(stdin io.Reader, path string, kind inspect.Kind) (*inspected, error) {
	in, err := cli.ReadInput(path, stdin)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		kind = in.KindOr(inspect.KindCertificate)
	}

	obj := auditObject(in, kind)
	sink := audit.SinkFor(auditSource, obj)
	report, err := inspect.Inspect(kind, in.DER, sink)
	if err != nil {
		if aerr := audit.LogInspected(auditSource, obj, "", false, err.Error()); aerr != nil {
			return nil, aerr
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := sink.Err(); err != nil {
		return nil, err
	}
	if err := audit.LogInspected(auditSource, obj, report.Signature.Name, report.Recognized(), ""); err != nil {
		return nil, err
	}

	return &inspected{
		reportOutput: reportOutput{Report: *report, Source: path},
		object:       obj,
	}, nil
}
