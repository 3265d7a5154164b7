package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/remiblancher/sigalg/internal/cli"
	"github.com/remiblancher/sigalg/pkg/sigalg"
)

// List command flags
var listPolicy string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the recognized signature algorithms",
	Long: `List every signature algorithm the classifier recognizes, with its
OID, channel binding digest and COSE algorithm.

With --policy, each algorithm is marked allowed or denied.

Examples:
  sigalg list
  sigalg list --policy tls13`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listPolicy, "policy", "p", "", "Built-in policy name or policy file")
}

func runList(cmd *cobra.Command, args []string) error {
	pol, err := loadPolicy(listPolicy)
	if err != nil {
		return err
	}

	var allowed func(sigalg.SignatureAlgorithm) bool
	if pol != nil {
		allowed = func(alg sigalg.SignatureAlgorithm) bool { return pol.Check(alg) == nil }
	}
	entries := cli.Catalogue(allowed)
	return render(cmd, entries, func(w io.Writer) error {
		return cli.WriteCatalogue(w, entries)
	})
}
