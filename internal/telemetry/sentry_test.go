package telemetry

import (
	"context"
	"net/http"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/microbe-go/internal/buildinfo"
	"github.com/tphakala/microbe-go/internal/conf"
	"github.com/tphakala/microbe-go/internal/errors"
)

// mockTransport records events instead of sending them.
type mockTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (t *mockTransport) Configure(_ sentry.ClientOptions) {}

func (t *mockTransport) SendEvent(event *sentry.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

func (t *mockTransport) Flush(_ time.Duration) bool { return true }

func (t *mockTransport) FlushWithContext(_ context.Context) bool { return true }

func (t *mockTransport) Close() {}

func (t *mockTransport) Events() []*sentry.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*sentry.Event(nil), t.events...)
}

func enabledSettings() *conf.Settings {
	settings := &conf.Settings{}
	settings.Main.Name = "test-bench"
	settings.Sentry.Enabled = true
	return settings
}

func TestInitDisabled(t *testing.T) {
	ok, err := Init(&conf.Settings{}, buildinfo.NewContext("1.0.0", ""), nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, Enabled())
	assert.True(t, Flush(time.Millisecond))
	assert.Nil(t, errors.GetTelemetryReporter())
}

func TestInitRequiresDSN(t *testing.T) {
	_, err := Init(enabledSettings(), buildinfo.NewContext("1.0.0", ""), nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
	assert.False(t, Enabled())
}

func TestEnhancedErrorsAreReported(t *testing.T) {
	transport := &mockTransport{}
	ok, err := Init(enabledSettings(), buildinfo.NewContext("1.0.0", ""), nil, WithTransport(transport))
	require.NoError(t, err)
	require.True(t, ok)
	t.Cleanup(Shutdown)
	assert.True(t, Enabled())

	path := "/home/alice/data/samples.csv"
	_ = errors.Newf("cannot open %s", path).
		Component("generator").
		Category(errors.CategoryFileIO).
		Context("path", path).
		Build()

	require.True(t, Flush(time.Second))
	events := transport.Events()
	require.Len(t, events, 1)

	event := events[0]
	assert.Equal(t, sentry.LevelWarning, event.Level)
	assert.Equal(t, "generator", event.Tags["component"])
	assert.Equal(t, "test-bench", event.Tags["instance"])
	assert.Equal(t, "microbe-go@1.0.0", event.Release)
	assert.Contains(t, event.Message, ".../samples.csv")
	assert.NotContains(t, event.Message, "alice")
	assert.Equal(t, ".../samples.csv", event.Contexts["path"]["value"])
	assert.Empty(t, event.ServerName)

	Shutdown()
	_ = errors.Newf("after shutdown").Category(errors.CategoryValidation).Build()
	assert.Len(t, transport.Events(), 1)
	assert.False(t, Enabled())
}

func TestEventsAreDeliveredOverHTTP(t *testing.T) {
	mock := httpmock.NewMockTransport()
	mock.RegisterRegexpResponder(http.MethodPost, regexp.MustCompile(`^https://sentry\.example\.com/api/1/envelope/`),
		httpmock.NewStringResponder(http.StatusOK, `{}`))

	settings := enabledSettings()
	settings.Sentry.DSN = "https://public@sentry.example.com/1"
	ok, err := Init(settings, buildinfo.NewContext("1.0.0", ""), nil,
		WithHTTPClient(&http.Client{Transport: mock}))
	require.NoError(t, err)
	require.True(t, ok)
	t.Cleanup(Shutdown)

	_ = errors.Newf("model artifact is corrupt").
		Component("predictor").
		Category(errors.CategoryModelLoad).
		Build()

	require.True(t, Flush(5*time.Second))
	assert.Equal(t, 1, mock.GetTotalCallCount())
}

func TestBeforeSendStripsPrivateData(t *testing.T) {
	event := &sentry.Event{
		Message:    "failed to read /var/lib/microbe/models/knn_model.gob",
		ServerName: "lab-host",
		User:       sentry.User{ID: "42", Email: "someone@example.com"},
		Contexts: map[string]sentry.Context{
			"device":  {"name": "lab-host"},
			"runtime": {"name": "go"},
			"dataset": {"value": "~/data/samples.csv"},
		},
		Extra: map[string]any{
			"component": "trainer",
			"cwd":       "/home/alice",
		},
		Tags: map[string]string{
			"hostname": "lab-host",
			"category": "file-io",
		},
		Exception: []sentry.Exception{{Value: "open /tmp/x/y.csv: no such file"}},
	}

	out := beforeSend(event, nil)
	require.NotNil(t, out)
	assert.True(t, out.User.IsEmpty())
	assert.Empty(t, out.ServerName)
	assert.NotContains(t, out.Contexts, "device")
	assert.NotContains(t, out.Contexts, "runtime")
	assert.Equal(t, ".../samples.csv", out.Contexts["dataset"]["value"])
	assert.Equal(t, map[string]any{"component": "trainer"}, out.Extra)
	assert.Equal(t, map[string]string{"category": "file-io"}, out.Tags)
	assert.Equal(t, "failed to read .../knn_model.gob", out.Message)
	assert.Equal(t, "open .../y.csv: no such file", out.Exception[0].Value)
}

func TestScrubText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"no paths here", "no paths here"},
		{"/etc/microbe-go/config.yaml", ".../config.yaml"},
		{"~/models/label_encoder.gob", ".../label_encoder.gob"},
		{"samples.csv", "samples.csv"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scrubText(tt.in), tt.in)
	}
}
