// Package generate implements the command that writes a synthetic sensor
// dataset.
package generate

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/tphakala/microbe-go/internal/catalog"
	"github.com/tphakala/microbe-go/internal/conf"
	"github.com/tphakala/microbe-go/internal/dataset"
	"github.com/tphakala/microbe-go/internal/logger"
	"github.com/tphakala/microbe-go/internal/runtime"
)

// Command creates a new generate command
func Command(rt *runtime.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic sensor dataset",
		Long:  "Draw labelled sensor readings from each organism's survival envelope and write them as CSV.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rt)
		},
	}

	if err := setupFlags(cmd); err != nil {
		panic(err)
	}
	return cmd
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().StringP("output", "o", "", "CSV output path")
	cmd.Flags().IntP("samples", "n", dataset.DefaultSampleCount, "Number of rows to generate")
	cmd.Flags().Uint64("seed", 0, "Random seed, picked from the clock when neither this flag nor dataset.seed is set")
	cmd.Flags().String("catalog", "", "YAML organism catalog, the built-in catalog is used when empty")
	cmd.Flags().String("nitrate-policy", string(catalog.PolicyClamp), "Handling of empty nitrate intervals: clamp or reject")
	cmd.Flags().Bool("summary", true, "Print the class distribution of the generated rows")

	bindings := map[string]string{
		"dataset.path":          "output",
		"dataset.samples":       "samples",
		"dataset.catalog":       "catalog",
		"dataset.nitratepolicy": "nitrate-policy",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}
	return nil
}

func run(cmd *cobra.Command, rt *runtime.Context) error {
	settings := rt.Settings.Dataset
	log := rt.Logger("generator")

	cat, err := loadCatalog(settings)
	if err != nil {
		return err
	}
	policy, err := catalog.ParseNitratePolicy(settings.NitratePolicy)
	if err != nil {
		return err
	}

	seed := resolveSeed(cmd, settings)

	gen := rt.Metrics.Generator
	start := time.Now()
	rows, err := dataset.Generate(settings.Samples, cat, dataset.NewRandomSource(seed),
		dataset.WithNitratePolicy(policy),
		dataset.WithLogger(log),
		dataset.WithObserver(gen.RecordSample))
	if err == nil {
		err = dataset.SaveFile(settings.Path, rows)
	}
	gen.RecordRun(len(rows), time.Since(start), err)
	if err != nil {
		return err
	}

	log.Info("dataset written",
		logger.String("path", settings.Path),
		logger.Int("rows", len(rows)),
		logger.Uint64("seed", seed))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %d rows to %s (seed %d)\n", len(rows), settings.Path, seed)

	if summary, _ := cmd.Flags().GetBool("summary"); summary && len(rows) > 0 {
		fmt.Fprintln(out)
		return dataset.WriteReport(out, dataset.Distribution(rows), language.English)
	}
	return nil
}

// resolveSeed prefers --seed, then dataset.seed, then the clock. Zero is an
// ordinary seed.
func resolveSeed(cmd *cobra.Command, settings conf.DatasetSettings) uint64 {
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetUint64("seed")
		return seed
	}
	if settings.Seed != nil {
		return *settings.Seed
	}
	return uint64(time.Now().UnixNano())
}

func loadCatalog(settings conf.DatasetSettings) (*catalog.Catalog, error) {
	if settings.Catalog == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(settings.Catalog)
}
