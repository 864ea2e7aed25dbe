package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/microbe-go/cmd/catalog"
	"github.com/tphakala/microbe-go/cmd/generate"
	"github.com/tphakala/microbe-go/cmd/history"
	"github.com/tphakala/microbe-go/cmd/predict"
	"github.com/tphakala/microbe-go/cmd/serve"
	"github.com/tphakala/microbe-go/cmd/stats"
	"github.com/tphakala/microbe-go/cmd/train"
	"github.com/tphakala/microbe-go/internal/runtime"
)

// RootCommand creates and returns the root command
func RootCommand(rt *runtime.Context) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "microbe",
		Short:         "Bioremediating microbe dataset generator and predictor",
		Version:       rt.Build.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(rt.Build.String() + "\n")

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, &configFile); err != nil {
		panic(err)
	}

	subcommands := []*cobra.Command{
		generate.Command(rt),
		train.Command(rt),
		predict.Command(rt),
		stats.Command(rt),
		serve.Command(rt),
		history.Command(rt),
		catalog.Command(rt),
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return rt.Init(configFile)
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, configFile *string) error {
	rootCmd.PersistentFlags().StringVarP(configFile, "config", "c", "", "Path to config.yaml, default search paths are used when empty")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug output")

	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
