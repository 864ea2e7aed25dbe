// Package serve implements the command that runs the prediction web form.
package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/microbe-go/internal/errors"
	"github.com/tphakala/microbe-go/internal/httpcontroller"
	"github.com/tphakala/microbe-go/internal/predictor"
	"github.com/tphakala/microbe-go/internal/runtime"
)

// Command creates a new serve command
func Command(rt *runtime.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the prediction form over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, rt)
		},
	}

	if err := setupFlags(cmd); err != nil {
		panic(err)
	}
	return cmd
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().StringP("listen", "l", "127.0.0.1:8080", "Address to listen on, host:port")
	return viper.BindPFlag("webserver.listen", cmd.Flags().Lookup("listen"))
}

func run(ctx context.Context, rt *runtime.Context) error {
	if !rt.Settings.WebServer.Enabled {
		return errors.ConfigurationError("web server is disabled, set webserver.enabled to true")
	}

	opts := []predictor.Option{predictor.WithSource(predictor.SourceWeb)}
	store, err := rt.DataStore()
	if err != nil {
		return err
	}
	if store != nil {
		opts = append(opts, predictor.WithRecorder(store))
	}
	pred := predictor.FromSettings(rt.Settings, rt.Metrics.Predictor, rt.Logger("predictor"), opts...)

	server, err := httpcontroller.New(rt.Settings, pred, rt.Metrics, rt.Logger("http"))
	if err != nil {
		return err
	}
	return server.Start(ctx)
}
