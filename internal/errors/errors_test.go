package errors

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	reported []*EnhancedError
}

func (r *recordingReporter) ReportError(ee *EnhancedError) {
	r.reported = append(r.reported, ee)
	ee.MarkReported()
}

func (r *recordingReporter) IsEnabled() bool { return true }

func TestFastPathNoTelemetry(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.False(t, ee.IsReported())
}

func TestBuilderKeepsExplicitMetadata(t *testing.T) {
	t.Parallel()

	ee := Newf("sample count %d", -1).
		Component("generator").
		Category(CategoryConfiguration).
		Context("sample_count", -1).
		Build()

	assert.Equal(t, "sample count -1", ee.Error())
	assert.Equal(t, "generator", ee.GetComponent())
	assert.Equal(t, CategoryConfiguration, ee.Category)
	assert.Equal(t, -1, ee.GetContext()["sample_count"])
}

func TestFileContextAndTiming(t *testing.T) {
	t.Parallel()

	ee := New(NewStd("short write")).
		Category(CategoryFileIO).
		FileContext("/data/models/extratrees_model.gob", 3*1024*1024).
		Timing("save_model", 1500*time.Millisecond).
		Build()

	ctx := ee.GetContext()
	assert.Equal(t, "absolute-path", ctx["file_type"])
	assert.Equal(t, "gob", ctx["file_extension"])
	assert.Equal(t, "medium", ctx["file_size_category"])
	assert.Equal(t, "save_model", ctx["operation"])
	assert.Equal(t, int64(1500), ctx["duration_ms"])

	ee = New(NewStd("missing")).FileContext("README", 0).Build()
	assert.Equal(t, "relative-path", ee.GetContext()["file_type"])
	assert.Equal(t, "none", ee.GetContext()["file_extension"])
	assert.NotContains(t, ee.GetContext(), "file_size_category")
}

func TestContextIsCopied(t *testing.T) {
	t.Parallel()

	ee := New(NewStd("boom")).Context("key", "value").Build()
	ctx := ee.GetContext()
	ctx["key"] = "changed"

	assert.Equal(t, "value", ee.GetContext()["key"])
}

func TestCategoryDetection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg  string
		want ErrorCategory
	}{
		{"failed to decode model artifact", CategoryModelLoad},
		{"cannot parse row 3", CategoryFileParsing},
		{"open waterbodies_dataset.csv: no such file", CategoryFileIO},
		{"invalid range for pH", CategoryValidation},
		{"something odd", CategoryGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, detectCategory(NewStd(tt.msg)))
		})
	}
}

func TestIsCategoryThroughWrapping(t *testing.T) {
	t.Parallel()

	inner := ValidationError("nitrate interval is empty")
	wrapped := fmt.Errorf("catalog rejected: %w", inner)

	assert.True(t, IsCategory(wrapped, CategoryValidation))
	assert.False(t, IsCategory(wrapped, CategoryDatabase))
	assert.False(t, IsNotFound(wrapped))
	assert.True(t, Is(wrapped, &EnhancedError{Category: CategoryValidation}))
}

func TestReporterReceivesErrors(t *testing.T) {
	reporter := &recordingReporter{}
	SetTelemetryReporter(reporter)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	ee := New(NewStd("model training failed")).Category(CategoryModelTraining).Build()

	require.Len(t, reporter.reported, 1)
	assert.Same(t, ee, reporter.reported[0])
	assert.True(t, ee.IsReported())
}

func TestBasicURLScrub(t *testing.T) {
	t.Parallel()

	scrubbed := basicURLScrub("Error at https://sentry.example.com?api_key=secret123&token=abc")
	assert.Equal(t, "Error at https://sentry.example.com?[REDACTED]", scrubbed)

	scrubbed = basicURLScrub("mysql login failed password=hunter2")
	assert.False(t, strings.Contains(scrubbed, "hunter2"), "password leaked: %s", scrubbed)
}

func TestGenerateErrorTitle(t *testing.T) {
	t.Parallel()

	ee := New(NewStd("boom")).
		Component("trainer").
		Category(CategoryModelTraining).
		Context("operation", "fit_model").
		Build()

	assert.Equal(t, "Trainer Model Training Error Fit Model", generateErrorTitle(ee))
}

func TestCategoryOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ErrorCategory(""), CategoryOf(nil))
	assert.Equal(t, CategoryDatabase, CategoryOf(fmt.Errorf("save: %w", New(NewStd("locked")).Category(CategoryDatabase).Build())))
	assert.Equal(t, CategoryFileParsing, CategoryOf(NewStd("malformed row")))
	assert.Equal(t, CategoryGeneric, CategoryOf(NewStd("boom")))
}
