// Package buildinfo holds version metadata injected at link time, kept
// apart from user configuration.
package buildinfo

import (
	"fmt"
	"runtime"
)

// UnknownValue is reported for metadata that was not set at build time.
const UnknownValue = "unknown"

// BuildInfo provides access to build-time metadata.
type BuildInfo interface {
	Version() string
	BuildDate() string
}

// Context contains build-time metadata.
type Context struct {
	version   string
	buildDate string
}

// NewContext returns a Context. Empty values are reported as UnknownValue.
func NewContext(version, buildDate string) *Context {
	return &Context{version: version, buildDate: buildDate}
}

// Version returns the release tag the binary was built from.
func (c *Context) Version() string {
	if c == nil || c.version == "" {
		return UnknownValue
	}
	return c.version
}

// BuildDate returns when the binary was built.
func (c *Context) BuildDate() string {
	if c == nil || c.buildDate == "" {
		return UnknownValue
	}
	return c.buildDate
}

// Release is the identifier attached to error reports.
func (c *Context) Release() string {
	return "microbe-go@" + c.Version()
}

func (c *Context) String() string {
	return fmt.Sprintf("microbe-go %s (built %s, %s %s/%s)",
		c.Version(), c.BuildDate(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
