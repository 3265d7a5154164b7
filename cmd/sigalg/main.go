// Command sigalg classifies X.509 signature algorithms, inspects the
// signature fields of certificates, CSRs and CRLs, and computes RFC 5929
// tls-server-end-point channel bindings.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/remiblancher/sigalg/internal/audit"
	"github.com/remiblancher/sigalg/internal/cli"
)

// Build-time variables (injected by GoReleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags
var (
	auditLogPath string
	outputFormat string
)

// envAuditLog names the audit log when --audit-log is not given.
const envAuditLog = "SIGALG_AUDIT_LOG"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sigalg",
	Short: "Classify X.509 signature algorithms",
	Long: `sigalg identifies the signature algorithm asserted by a DER
AlgorithmIdentifier, as found in X.509 certificates, CSRs and CRLs.

Only a closed set of algorithms is recognized: RSA PKCS#1 v1.5 (MD2 to
SHA-512), ECDSA and DSA with SHA-1/SHA-2, and RSASSA-PSS with the three
(SHA-256, 32), (SHA-384, 48), (SHA-512, 64) parameter sets. Everything else
is reported as unknown.

Examples:
  # Classify a hex AlgorithmIdentifier
  sigalg classify --hex 300d06092a864886f70d01010b0500

  # Inspect the signature fields of a certificate
  sigalg inspect server.crt

  # Compute the tls-server-end-point channel binding
  sigalg binding server.crt

  # Check certificates against the built-in tls13 policy
  sigalg policy check --policy tls13 server.crt intermediate.crt`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cli.ParseFormat(outputFormat); err != nil {
			return err
		}

		// Check for audit log path from environment if not set via flag
		if auditLogPath == "" {
			auditLogPath = os.Getenv(envAuditLog)
		}

		if auditLogPath != "" {
			if err := audit.InitFile(auditLogPath); err != nil {
				return fmt.Errorf("failed to initialize audit log: %w", err)
			}
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return audit.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&auditLogPath, "audit-log", "",
		"Path to audit log file (or set "+envAuditLog+" env var)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "text",
		"Output format: text, json, yaml or cbor")

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(bindingCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(policyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(auditCmd)
}

// render writes v to the command output in the --format format.
func render(cmd *cobra.Command, v any, text func(w io.Writer) error) error {
	f, err := cli.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	return cli.Render(cmd.OutOrStdout(), f, v, text)
}
