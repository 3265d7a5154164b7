package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/remiblancher/sigalg/pkg/inspect"
	"github.com/remiblancher/sigalg/pkg/policy"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage signature algorithm policies",
	Long: `Manage signature algorithm policies.

A policy restricts which recognized algorithms are acceptable:
  - allow and deny lists of algorithm names
  - refusal of MD2, MD4, MD5 and SHA-1 based algorithms
  - refusal of algorithms without a tls-server-end-point digest
  - refusal of certificates and CRLs whose two signature fields differ

Policies are YAML files. The built-in ones are default, legacy, modern and
tls13.

Examples:
  # List built-in policies
  sigalg policy list

  # Export a built-in policy for customization
  sigalg policy show modern > my-policy.yaml

  # Check certificates against a policy
  sigalg policy check --policy my-policy.yaml server.crt ca.crt`,
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in policies",
	Args:  cobra.NoArgs,
	RunE:  runPolicyList,
}

var policyShowCmd = &cobra.Command{
	Use:   "show <name|file>",
	Short: "Show policy YAML content",
	Args:  cobra.ExactArgs(1),
	RunE:  runPolicyShow,
}

var policyLintCmd = &cobra.Command{
	Use:   "lint <file>",
	Short: "Lint a policy YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPolicyLint,
}

var policyCheckCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Check certificates, CSRs and CRLs against a policy",
	Long: `Check the signature algorithms of each input against a policy.

The exit status is non-zero if any input is refused.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPolicyCheck,
}

var (
	policyCheckName string
	policyCheckKind string
)

func init() {
	policyCmd.AddCommand(policyListCmd)
	policyCmd.AddCommand(policyShowCmd)
	policyCmd.AddCommand(policyLintCmd)
	policyCmd.AddCommand(policyCheckCmd)

	policyCheckCmd.Flags().StringVarP(&policyCheckName, "policy", "p", "default", "Built-in policy name or policy file")
	policyCheckCmd.Flags().StringVarP(&policyCheckKind, "kind", "k", "", "Input kind: certificate, csr, crl or algorithm-identifier")
}

type policySummary struct {
	Name        string   `json:"name" yaml:"name" cbor:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty" cbor:"description,omitempty"`
	Accepted    []string `json:"accepted" yaml:"accepted" cbor:"accepted"`
}

func runPolicyList(cmd *cobra.Command, args []string) error {
	var summaries []policySummary
	for _, name := range policy.BuiltinNames() {
		p, err := policy.Builtin(name)
		if err != nil {
			return fmt.Errorf("failed to load built-in policy %s: %w", name, err)
		}
		s := policySummary{Name: p.Name, Description: p.Description}
		for _, alg := range p.Accepted() {
			s.Accepted = append(s.Accepted, alg.String())
		}
		summaries = append(summaries, s)
	}

	return render(cmd, summaries, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "NAME\tACCEPTED\tDESCRIPTION")
		_, _ = fmt.Fprintln(tw, "----\t--------\t-----------")
		for _, s := range summaries {
			_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\n", s.Name, len(s.Accepted), s.Description)
		}
		return tw.Flush()
	})
}

func runPolicyShow(cmd *cobra.Command, args []string) error {
	p, err := policy.Resolve(args[0])
	if err != nil {
		return err
	}
	data, err := p.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode policy: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runPolicyLint(cmd *cobra.Command, args []string) error {
	p, err := policy.Load(args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: policy %q is valid (%d algorithms accepted)\n", args[0], p.Name, len(p.Accepted()))
	return nil
}

type checkResult struct {
	Source  string `json:"source" yaml:"source" cbor:"source"`
	Kind    string `json:"kind" yaml:"kind" cbor:"kind"`
	Allowed bool   `json:"allowed" yaml:"allowed" cbor:"allowed"`
	Reason  string `json:"reason,omitempty" yaml:"reason,omitempty" cbor:"reason,omitempty"`
}

func runPolicyCheck(cmd *cobra.Command, args []string) error {
	pol, err := policy.Resolve(policyCheckName)
	if err != nil {
		return fmt.Errorf("failed to load policy: %w", err)
	}
	var kind inspect.Kind
	if policyCheckKind != "" {
		if kind, err = inspect.ParseKind(policyCheckKind); err != nil {
			return err
		}
	}

	var (
		results []checkResult
		refused []error
	)
	for _, path := range args {
		out, err := inspectFile(cmd.InOrStdin(), path, kind)
		if err != nil {
			return err
		}
		decision, err := applyPolicy(pol, out.object, &out.Report)
		if err != nil {
			return err
		}
		results = append(results, checkResult{
			Source:  path,
			Kind:    string(out.Kind),
			Allowed: decision.Allowed,
			Reason:  decision.Reason,
		})
		if refusal := decision.Err(); refusal != nil {
			refused = append(refused, fmt.Errorf("%s: %w", path, refusal))
		}
	}

	err = render(cmd, results, func(w io.Writer) error {
		fmt.Fprintf(w, "Policy: %s\n", pol.Name)
		for _, r := range results {
			if r.Allowed {
				fmt.Fprintf(w, "  %s: %s\n", r.Source, formatDecision("allowed", ""))
			} else {
				fmt.Fprintf(w, "  %s: %s\n", r.Source, formatDecision("denied", r.Reason))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return errors.Join(refused...)
}
