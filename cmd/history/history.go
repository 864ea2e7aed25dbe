// Package history implements the command that lists recorded training runs
// and predictions.
package history

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/microbe-go/internal/datastore"
	"github.com/tphakala/microbe-go/internal/errors"
	"github.com/tphakala/microbe-go/internal/runtime"
)

const timeLayout = "2006-01-02 15:04:05"

// Command creates a new history command
func Command(rt *runtime.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded training runs and predictions",
		Long:  "Read the SQLite or MySQL output configured under output and list the most recent records.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rt)
		},
	}

	setupFlags(cmd)
	return cmd
}

func setupFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("limit", "n", datastore.DefaultHistoryLimit, "Maximum number of records to list")
	cmd.Flags().BoolP("predictions", "p", false, "List predictions instead of training runs")
}

func run(cmd *cobra.Command, rt *runtime.Context) error {
	store, err := rt.DataStore()
	if err != nil {
		return err
	}
	if store == nil {
		return errors.ConfigurationError("no datastore configured, enable output.sqlite or output.mysql")
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if showPredictions, _ := cmd.Flags().GetBool("predictions"); showPredictions {
		predictions, err := store.Predictions(limit)
		if err != nil {
			return err
		}
		return writePredictions(cmd.OutOrStdout(), predictions)
	}

	runs, err := store.TrainingRuns(limit)
	if err != nil {
		return err
	}
	return writeRuns(cmd.OutOrStdout(), runs)
}

func writeRuns(w io.Writer, runs []datastore.TrainingRun) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No training runs recorded.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCreated\tAlgorithm\tScaler\tRows\tAccuracy\tMacro F1\tDuration\tModel")
	for i := range runs {
		r := &runs[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%.4f\t%.4f\t%s\t%s\n",
			shortID(r.ID), r.CreatedAt.Local().Format(timeLayout), r.Algorithm, r.Scaler,
			r.Samples, r.Accuracy, r.MacroF1, r.Duration.Round(time.Millisecond), r.ModelPath)
	}
	return tw.Flush()
}

func writePredictions(w io.Writer, predictions []datastore.Prediction) error {
	if len(predictions) == 0 {
		_, err := fmt.Fprintln(w, "No predictions recorded.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCreated\tSource\tOrganism\tConfidence\tImpurities")
	for i := range predictions {
		p := &predictions[i]
		impurities := p.Impurities
		if impurities == "" {
			impurities = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f%%\t%s\n",
			shortID(p.ID), p.CreatedAt.Local().Format(timeLayout), p.Source,
			p.Organism, p.Confidence*100, impurities)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
