// Package predict implements the command that classifies one set of sensor
// readings and reports which impurities the predicted organism can treat.
package predict

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/microbe-go/internal/catalog"
	"github.com/tphakala/microbe-go/internal/predictor"
	"github.com/tphakala/microbe-go/internal/remediation"
	"github.com/tphakala/microbe-go/internal/runtime"
)

// Command creates a new predict command
func Command(rt *runtime.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the organism that survives in a water body",
		Long: "Classify one set of sensor readings with a trained model and report " +
			"whether the predicted organism can remediate the selected impurities.",
		Example: "  microbe predict --temperature 25 --ph 7 --salinity 4.8 --impurity plastic",
		Args:    cobra.NoArgs,
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
	defaults := predictor.DefaultReading()
	for _, f := range catalog.Features() {
		r := catalog.ReadingRange(f)
		cmd.Flags().Float64(flagName(f), defaults.Values()[f],
			fmt.Sprintf("%s, %g to %g", predictor.FeatureLabel(f), r.Lower, r.Upper))
	}

	keys := make([]string, 0, len(remediation.Impurities()))
	for _, i := range remediation.Impurities() {
		keys = append(keys, i.Key())
	}
	cmd.Flags().StringSlice("impurity", nil, fmt.Sprintf("Impurity present in the water body, repeatable: %v", keys))
	cmd.Flags().Bool("scores", false, "Print the probability of every organism")
	cmd.Flags().String("model", "", "Model artifact path")
	cmd.Flags().String("encoder", "", "Label encoder artifact path")

	if err := viper.BindPFlag("prediction.modelpath", cmd.Flags().Lookup("model")); err != nil {
		return fmt.Errorf("error binding flag model: %w", err)
	}
	if err := viper.BindPFlag("prediction.encoderpath", cmd.Flags().Lookup("encoder")); err != nil {
		return fmt.Errorf("error binding flag encoder: %w", err)
	}
	return nil
}

// flagName turns a feature name into a flag, dissolved_o2 becomes
// dissolved-o2.
func flagName(f catalog.Feature) string {
	return strings.ReplaceAll(f.String(), "_", "-")
}

func run(cmd *cobra.Command, rt *runtime.Context) error {
	reading := predictor.DefaultReading()
	for _, f := range catalog.Features() {
		v, err := cmd.Flags().GetFloat64(flagName(f))
		if err != nil {
			return err
		}
		reading.Set(f, v)
	}

	names, err := cmd.Flags().GetStringSlice("impurity")
	if err != nil {
		return err
	}
	impurities, err := predictor.ParseImpurities(names)
	if err != nil {
		return err
	}

	opts := []predictor.Option{predictor.WithSource(predictor.SourceCLI)}
	store, err := rt.DataStore()
	if err != nil {
		return err
	}
	if store != nil {
		opts = append(opts, predictor.WithRecorder(store))
	}

	pred := predictor.FromSettings(rt.Settings, rt.Metrics.Predictor, rt.Logger("predictor"), opts...)
	outcome, err := pred.Predict(cmd.Context(), reading, impurities)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := outcome.WriteReport(out); err != nil {
		return err
	}

	if showScores, _ := cmd.Flags().GetBool("scores"); showScores {
		fmt.Fprintln(out)
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Organism\tProbability")
		for _, s := range outcome.Scores {
			fmt.Fprintf(tw, "%s\t%.1f%%\n", s.Organism, s.Probability*100)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
