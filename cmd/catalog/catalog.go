// Package catalog implements the commands that show, export and check
// organism catalogs.
package catalog

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	orgcatalog "github.com/tphakala/microbe-go/internal/catalog"
	"github.com/tphakala/microbe-go/internal/runtime"
)

// Command creates a new catalog command
func Command(rt *runtime.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the organism catalog used for generation",
	}

	cmd.AddCommand(showCommand(rt), exportCommand(rt), validateCommand())
	return cmd
}

func showCommand(rt *runtime.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print every organism's survival ranges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := active(rt)
			if err != nil {
				return err
			}
			return writeTable(cmd.OutOrStdout(), cat)
		},
	}
}

func exportCommand(rt *runtime.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.yaml>",
		Short: "Write the catalog as YAML, a starting point for a custom catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := active(rt)
			if err != nil {
				return err
			}
			if err := cat.SaveFile(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Catalog with %d organisms written to %s\n", cat.Len(), args[0])
			return nil
		},
	}
}

func validateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file.yaml>",
		Short: "Check a catalog file before generating with it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policyFlag, _ := cmd.Flags().GetString("nitrate-policy")
			policy, err := orgcatalog.ParseNitratePolicy(policyFlag)
			if err != nil {
				return err
			}
			cat, err := orgcatalog.LoadFile(args[0])
			if err != nil {
				return err
			}
			if err := cat.Validate(policy); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d organisms, valid under the %s policy\n", args[0], cat.Len(), policy)
			return nil
		},
	}
	cmd.Flags().String("nitrate-policy", string(orgcatalog.PolicyClamp), "Policy to validate against: clamp or reject")
	return cmd
}

// active returns the configured catalog file, or the built-in catalog when
// none is set.
func active(rt *runtime.Context) (*orgcatalog.Catalog, error) {
	if path := rt.Settings.Dataset.Catalog; path != "" {
		return orgcatalog.LoadFile(path)
	}
	return orgcatalog.Default(), nil
}

func writeTable(w io.Writer, cat *orgcatalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := []string{"Organism"}
	for _, f := range orgcatalog.Features() {
		header = append(header, f.String())
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, p := range cat.Profiles() {
		cols := []string{p.Name}
		for _, f := range orgcatalog.Features() {
			if f == orgcatalog.Nitrate && p.ElevatedNitrate() {
				cols = append(cols, fmt.Sprintf("%s, %s when bod > %g",
					p.Range(f), p.NitrateRange(orgcatalog.BODThreshold+1), orgcatalog.BODThreshold))
				continue
			}
			cols = append(cols, p.Range(f).String())
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	return tw.Flush()
}
