// Package stats implements the command that summarises the class balance of
// a dataset file.
package stats

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/tphakala/microbe-go/internal/dataset"
	"github.com/tphakala/microbe-go/internal/errors"
	"github.com/tphakala/microbe-go/internal/runtime"
)

// Command creates a new stats command
func Command(rt *runtime.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [dataset.csv]",
		Short: "Show the organism distribution of a dataset",
		Long:  "Count rows per organism. Without an argument the configured dataset path is read.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rt.Settings.Dataset.Path
			if len(args) == 1 {
				path = args[0]
			}
			return run(cmd, path)
		},
	}

	setupFlags(cmd)
	return cmd
}

func setupFlags(cmd *cobra.Command) {
	cmd.Flags().String("plot", "", "Write a bar chart of the distribution to this file (.png, .svg or .pdf)")
	cmd.Flags().String("lang", "en", "BCP 47 language tag used for number formatting")
}

func run(cmd *cobra.Command, path string) error {
	langFlag, _ := cmd.Flags().GetString("lang")
	tag, err := language.Parse(langFlag)
	if err != nil {
		return errors.New(fmt.Errorf("invalid language tag %q: %w", langFlag, err)).
			Component("stats").
			Category(errors.CategoryValidation).
			Build()
	}

	rows, err := dataset.LoadFile(path)
	if err != nil {
		return err
	}
	dist := dataset.Distribution(rows)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n\n", path)
	if err := dataset.WriteReport(out, dist, tag); err != nil {
		return err
	}

	if plotPath, _ := cmd.Flags().GetString("plot"); plotPath != "" {
		if err := dataset.PlotDistribution(dist, plotPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nChart written to %s\n", plotPath)
	}
	return nil
}
