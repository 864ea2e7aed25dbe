// Package runtime holds the process-wide services a command needs once its
// configuration has been loaded: logging, metrics, error reporting and the
// optional datastore.
package runtime

import (
	"sync"

	"github.com/tphakala/microbe-go/internal/buildinfo"
	"github.com/tphakala/microbe-go/internal/conf"
	"github.com/tphakala/microbe-go/internal/datastore"
	"github.com/tphakala/microbe-go/internal/logger"
	"github.com/tphakala/microbe-go/internal/observability"
	"github.com/tphakala/microbe-go/internal/telemetry"
)

// Context is shared by every subcommand. Settings and the services are
// populated by Init, which the root command calls before any subcommand
// runs.
type Context struct {
	Build    *buildinfo.Context
	Settings *conf.Settings
	Metrics  *observability.Metrics

	logger *logger.CentralLogger

	mu          sync.Mutex
	store       datastore.Interface
	storeOpened bool
}

// New returns an uninitialised Context.
func New(build *buildinfo.Context) *Context {
	return &Context{Build: build}
}

// Init loads the configuration and starts logging, metrics and error
// reporting.
func (c *Context) Init(configFile string) error {
	settings, err := conf.Load(configFile)
	if err != nil {
		return err
	}
	return c.InitWithSettings(settings)
}

// InitWithSettings starts the services for already loaded settings.
func (c *Context) InitWithSettings(settings *conf.Settings) error {
	if settings.Debug {
		settings.Logging.DefaultLevel = "debug"
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = "debug"
		}
	}

	cl, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return err
	}
	logger.SetGlobal(cl)

	m, err := observability.NewMetrics()
	if err != nil {
		_ = cl.Close()
		return err
	}

	if _, err := telemetry.Init(settings, c.Build, cl.Module("telemetry")); err != nil {
		_ = cl.Close()
		return err
	}

	c.Settings = settings
	c.Metrics = m
	c.logger = cl
	cl.Module("main").Debug("runtime initialised",
		logger.String("version", c.Build.Version()),
		logger.String("config", conf.ConfigFileUsed()))
	return nil
}

// Logger returns a module-scoped logger.
func (c *Context) Logger(module string) logger.Logger {
	if c.logger == nil {
		return logger.Global().Module(module)
	}
	return c.logger.Module(module)
}

// DataStore opens the configured datastore on first use. It returns nil
// without error when no output is enabled.
func (c *Context) DataStore() (datastore.Interface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.storeOpened {
		return c.store, nil
	}
	store := datastore.New(c.Settings, c.Logger("datastore"))
	if store == nil {
		c.storeOpened = true
		return nil, nil
	}
	if err := store.Open(); err != nil {
		return nil, err
	}
	c.store = store
	c.storeOpened = true
	return store, nil
}

// Close releases the datastore, flushes error reports and closes log files.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			firstErr = err
		}
		c.store = nil
		c.storeOpened = false
	}

	telemetry.Shutdown()

	if c.logger != nil {
		if err := c.logger.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
