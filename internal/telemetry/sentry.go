// Package telemetry provides opt-in, privacy-preserving error reporting to
// Sentry.
package telemetry

import (
	"net/http"
	"regexp"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/microbe-go/internal/buildinfo"
	"github.com/tphakala/microbe-go/internal/conf"
	"github.com/tphakala/microbe-go/internal/errors"
	"github.com/tphakala/microbe-go/internal/logger"
)

// DefaultFlushTimeout bounds how long Flush waits for queued events.
const DefaultFlushTimeout = 2 * time.Second

var initialized atomic.Bool

// allowedExtra lists the event extras that survive privacy filtering.
var allowedExtra = map[string]bool{
	"error_type": true,
	"component":  true,
	"category":   true,
}

// Option adjusts the Sentry client options before Init.
type Option func(*sentry.ClientOptions)

// WithTransport replaces the HTTP transport, used by tests.
func WithTransport(t sentry.Transport) Option {
	return func(o *sentry.ClientOptions) { o.Transport = t }
}

// WithHTTPClient sets the client used by the default HTTP transport.
func WithHTTPClient(c *http.Client) Option {
	return func(o *sentry.ClientOptions) { o.HTTPClient = c }
}

// Init starts the Sentry client when reporting is enabled in settings and
// installs the error reporter so that built enhanced errors are captured.
// It returns false without error when reporting is disabled.
func Init(settings *conf.Settings, info *buildinfo.Context, log logger.Logger, opts ...Option) (bool, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if !settings.Sentry.Enabled {
		log.Debug("error reporting disabled")
		errors.SetTelemetryReporter(nil)
		return false, nil
	}

	options := sentry.ClientOptions{
		Dsn:              settings.Sentry.DSN,
		Debug:            settings.Sentry.Debug,
		SampleRate:       1.0,
		AttachStacktrace: false,
		Environment:      "production",
		ServerName:       "",
		Release:          info.Release(),
		BeforeSend:       beforeSend,
	}
	for _, o := range opts {
		o(&options)
	}
	if options.Dsn == "" && options.Transport == nil {
		return false, errors.ConfigurationError("sentry.dsn is required when sentry is enabled")
	}

	if err := sentry.Init(options); err != nil {
		return false, errors.New(err).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Context("operation", "sentry-init").
			Build()
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		if settings.Main.Name != "" {
			scope.SetTag("instance", settings.Main.Name)
		}
		scope.SetContext("application", map[string]any{
			"name":    "microbe-go",
			"version": info.Version(),
			"os":      runtime.GOOS,
			"arch":    runtime.GOARCH,
		})
	})

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	initialized.Store(true)

	log.Info("error reporting enabled",
		logger.String("release", options.Release),
		logger.Bool("debug", options.Debug))
	return true, nil
}

// Enabled reports whether Init started the Sentry client.
func Enabled() bool {
	return initialized.Load()
}

// Flush waits up to timeout for queued events to be delivered.
func Flush(timeout time.Duration) bool {
	if !initialized.Load() {
		return true
	}
	return sentry.Flush(timeout)
}

// Shutdown flushes pending events and uninstalls the error reporter.
func Shutdown() {
	if !initialized.Load() {
		return
	}
	sentry.Flush(DefaultFlushTimeout)
	errors.SetTelemetryReporter(nil)
	initialized.Store(false)
}

// pathPattern matches the directory part of absolute and home-relative paths.
var pathPattern = regexp.MustCompile(`(?:~|/[\w.-]+)(?:/[\w.-]+)*/`)

// scrubText replaces the directories of file paths, keeping the base name.
func scrubText(s string) string {
	return pathPattern.ReplaceAllString(s, ".../")
}

// beforeSend strips user, host and path information from every event.
func beforeSend(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
		for _, ctx := range event.Contexts {
			for k, v := range ctx {
				if str, ok := v.(string); ok {
					ctx[k] = scrubText(str)
				}
			}
		}
	}

	for k := range event.Extra {
		if !allowedExtra[k] {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	event.Message = scrubText(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = scrubText(event.Exception[i].Value)
	}
	return event
}
