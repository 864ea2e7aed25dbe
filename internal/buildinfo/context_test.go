package buildinfo

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ctx       *Context
		version   string
		buildDate string
	}{
		{"nil context", nil, UnknownValue, UnknownValue},
		{"empty values", NewContext("", ""), UnknownValue, UnknownValue},
		{"release", NewContext("1.2.0", "2026-10-01"), "1.2.0", "2026-10-01"},
		{"pre-release tag", NewContext("1.2.0-beta.1", ""), "1.2.0-beta.1", UnknownValue},
		{"build metadata", NewContext("1.2.0+build.7", "2026-10-01"), "1.2.0+build.7", "2026-10-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.version, tt.ctx.Version())
			assert.Equal(t, tt.buildDate, tt.ctx.BuildDate())
		})
	}
}

func TestContextRelease(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "microbe-go@1.0.0", NewContext("1.0.0", "").Release())
	assert.Equal(t, "microbe-go@unknown", (*Context)(nil).Release())
}

func TestContextString(t *testing.T) {
	t.Parallel()

	s := NewContext("1.0.0", "2026-10-01").String()
	assert.Contains(t, s, "microbe-go 1.0.0")
	assert.Contains(t, s, "built 2026-10-01")
	assert.Contains(t, s, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestContextImplementsBuildInfo(t *testing.T) {
	t.Parallel()

	var _ BuildInfo = NewContext("1.0.0", "")
}
