// Package train implements the command that fits a classifier on a
// generated dataset and saves the model artifacts.
package train

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/microbe-go/internal/classifier"
	"github.com/tphakala/microbe-go/internal/runtime"
	"github.com/tphakala/microbe-go/internal/trainer"
)

// Command creates a new train command
func Command(rt *runtime.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a classifier on a sensor dataset",
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
	algorithms := make([]string, 0, len(classifier.Algorithms()))
	for _, a := range classifier.Algorithms() {
		algorithms = append(algorithms, string(a))
	}

	cmd.Flags().StringP("algorithm", "a", string(classifier.ExtraTrees), "Classifier: "+strings.Join(algorithms, ", "))
	cmd.Flags().StringP("dataset", "i", "", "CSV dataset to train on")
	cmd.Flags().String("model-dir", "", "Directory receiving the model and label encoder")
	cmd.Flags().Float64("test-ratio", 0.2, "Share of rows held out for evaluation")
	cmd.Flags().Uint64("seed", 42, "Split and model seed")
	cmd.Flags().Int("estimators", 100, "Trees or boosting stages")
	cmd.Flags().Int("max-depth", 0, "Tree depth limit, 0 means unlimited")
	cmd.Flags().Float64("learning-rate", 0.1, "Gradient boosting shrinkage")
	cmd.Flags().Int("neighbors", 5, "k for nearest neighbours")
	cmd.Flags().Float64("svm-c", 1, "SVM soft-margin penalty")
	cmd.Flags().Float64("gamma", 0, "SVM RBF width, 0 derives it from the data")
	cmd.Flags().String("scaler", string(classifier.ScalerMinMax), "Feature scaler: minmax or standard")

	bindings := map[string]string{
		"training.algorithm":    "algorithm",
		"training.dataset":      "dataset",
		"training.modeldir":     "model-dir",
		"training.testratio":    "test-ratio",
		"training.seed":         "seed",
		"training.estimators":   "estimators",
		"training.maxdepth":     "max-depth",
		"training.learningrate": "learning-rate",
		"training.neighbors":    "neighbors",
		"training.svmc":         "svm-c",
		"training.gamma":        "gamma",
		"training.scaler":       "scaler",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}
	return nil
}

func run(cmd *cobra.Command, rt *runtime.Context) error {
	opts, err := trainer.OptionsFromSettings(rt.Settings)
	if err != nil {
		return err
	}

	options := []trainer.Option{
		trainer.WithLogger(rt.Logger("trainer")),
		trainer.WithMetrics(rt.Metrics.Trainer),
	}
	store, err := rt.DataStore()
	if err != nil {
		return err
	}
	if store != nil {
		options = append(options, trainer.WithRecorder(store))
	}

	res, err := trainer.New(opts, options...).Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Algorithm: %s (%s scaling)\n", opts.Algorithm, opts.Scaler)
	fmt.Fprintf(out, "Accuracy:  %.4f\n\n", res.Report.Accuracy)
	fmt.Fprint(out, res.Report.String())
	fmt.Fprintf(out, "\nModel saved to %s\n", res.ModelPath)
	fmt.Fprintf(out, "Label encoder saved to %s\n", res.EncoderPath)
	if res.RunID != "" {
		fmt.Fprintf(out, "Run recorded as %s\n", res.RunID)
	}
	return nil
}
