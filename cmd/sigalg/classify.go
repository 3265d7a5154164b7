package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/remiblancher/sigalg/internal/audit"
	"github.com/remiblancher/sigalg/internal/cli"
	"github.com/remiblancher/sigalg/pkg/inspect"
)

// Classify command flags
var (
	classifyHex    string
	classifyBase64 string
	classifyPolicy string
	classifyStrict bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify [file]",
	Short: "Classify a DER AlgorithmIdentifier",
	Long: `Classify a DER-encoded AlgorithmIdentifier.

The identifier is read from --hex, --base64, a file, or stdin when the file
is "-". Files may hold PEM, hex, base64 or raw DER.

The exit status is non-zero when the identifier is not recognized, and with
--strict when the policy refuses it.

Examples:
  # sha256WithRSAEncryption
  sigalg classify --hex 300d06092a864886f70d01010b0500

  # From a file, as JSON
  sigalg classify alg.der --format json

  # Refuse weak digests
  sigalg classify --policy modern --strict --base64 MA0GCSqGSIb3DQEBBQUA`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyHex, "hex", "", "AlgorithmIdentifier as hex")
	classifyCmd.Flags().StringVar(&classifyBase64, "base64", "", "AlgorithmIdentifier as base64")
	classifyCmd.Flags().StringVarP(&classifyPolicy, "policy", "p", "", "Built-in policy name or policy file")
	classifyCmd.Flags().BoolVar(&classifyStrict, "strict", false, "Fail when the policy refuses the algorithm")
	classifyCmd.MarkFlagsMutuallyExclusive("hex", "base64")
}

func runClassify(cmd *cobra.Command, args []string) error {
	in, err := classifyInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	pol, err := loadPolicy(classifyPolicy)
	if err != nil {
		return err
	}

	obj := auditObject(in, inspect.KindAlgorithmIdentifier)
	sink := audit.SinkFor(auditSource, obj)
	report := inspect.Algorithm(in.DER, sink)
	if err := sink.Err(); err != nil {
		return err
	}

	// The sink has already recorded decoded but unaccepted identifiers.
	switch {
	case report.Recognized():
		err = audit.LogClassified(auditSource, obj, report.Signature.Name, true)
	case len(report.Diagnostics) == 0:
		err = audit.LogClassified(auditSource, obj, "", false)
	}
	if err != nil {
		return err
	}

	decision, err := applyPolicy(pol, obj, report)
	if err != nil {
		return err
	}

	out := reportOutput{Report: *report, Policy: decision}
	err = render(cmd, out, func(w io.Writer) error {
		if err := cli.WriteReport(w, report); err != nil {
			return err
		}
		writeDecision(w, out.Policy)
		return nil
	})
	if err != nil {
		return err
	}

	if !report.Recognized() {
		return errUnrecognized
	}
	if classifyStrict {
		return decision.Err()
	}
	return nil
}

// classifyInput picks the identifier from the flags or the file argument.
func classifyInput(stdin io.Reader, args []string) (*cli.Input, error) {
	switch {
	case classifyHex != "":
		der, err := hex.DecodeString(strings.Join(strings.Fields(classifyHex), ""))
		if err != nil {
			return nil, fmt.Errorf("invalid --hex: %w", err)
		}
		return &cli.Input{DER: der, Source: "argument"}, nil
	case classifyBase64 != "":
		der, err := base64.StdEncoding.DecodeString(strings.TrimSpace(classifyBase64))
		if err != nil {
			return nil, fmt.Errorf("invalid --base64: %w", err)
		}
		return &cli.Input{DER: der, Source: "argument"}, nil
	case len(args) == 1:
		return cli.ReadInput(args[0], stdin)
	default:
		return nil, fmt.Errorf("an AlgorithmIdentifier is required: pass a file, --hex or --base64")
	}
}
