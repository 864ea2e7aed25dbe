// Package httpcontroller serves the prediction form, a JSON prediction
// endpoint, health and Prometheus metrics over HTTP.
package httpcontroller

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/microbe-go/internal/conf"
	"github.com/tphakala/microbe-go/internal/errors"
	"github.com/tphakala/microbe-go/internal/logger"
	"github.com/tphakala/microbe-go/internal/observability"
	"github.com/tphakala/microbe-go/internal/observability/metrics"
	"github.com/tphakala/microbe-go/internal/predictor"
)

// ShutdownTimeout bounds how long in-flight requests may take once the
// server is asked to stop.
const ShutdownTimeout = 10 * time.Second

// Server encapsulates the Echo server and what its handlers need.
type Server struct {
	Echo      *echo.Echo
	Settings  *conf.Settings
	Predictor *predictor.Predictor
	Metrics   *observability.Metrics

	log logger.Logger
}

// New builds a Server with routes and middleware installed. m may be nil,
// in which case /metrics is not served.
func New(settings *conf.Settings, pred *predictor.Predictor, m *observability.Metrics, log logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	s := &Server{
		Echo:      echo.New(),
		Settings:  settings,
		Predictor: pred,
		Metrics:   m,
		log:       log,
	}
	s.Echo.HideBanner = true
	s.Echo.HidePort = true

	renderer, err := newTemplateRenderer(s.httpMetrics(), log)
	if err != nil {
		return nil, err
	}
	s.Echo.Renderer = renderer

	s.configureMiddleware()
	s.initRoutes()
	return s, nil
}

// initRoutes registers every route.
func (s *Server) initRoutes() {
	s.Echo.GET("/", s.handleIndex)
	s.Echo.POST("/predict", s.handlePredictForm)
	s.Echo.POST("/api/v1/predict", s.handlePredictAPI)
	s.Echo.GET("/healthz", s.handleHealth)
	if s.Metrics != nil {
		s.Echo.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	}
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.Settings.WebServer.Listen)
	if err != nil {
		return errors.New(err).
			Component("http").
			Category(errors.CategoryConfiguration).
			Context("listen", s.Settings.WebServer.Listen).
			Build()
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.Echo.Listener = ln
	s.log.Info("http server started", logger.String("address", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Echo.Start("")
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.Echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("http server stopped")
	return nil
}

func (s *Server) httpMetrics() *metrics.HTTPMetrics {
	if s.Metrics == nil {
		return nil
	}
	return s.Metrics.HTTP
}
