package runtime

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/microbe-go/internal/buildinfo"
	"github.com/tphakala/microbe-go/internal/conf"
	"github.com/tphakala/microbe-go/internal/datastore"
)

func TestInitWithSettingsWithoutOutputs(t *testing.T) {
	rt := New(buildinfo.NewContext("1.0.0", ""))
	require.NoError(t, rt.InitWithSettings(&conf.Settings{}))
	t.Cleanup(func() { _ = rt.Close() })

	require.NotNil(t, rt.Metrics)
	assert.NotNil(t, rt.Logger("main"))

	store, err := rt.DataStore()
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestDataStoreOpensOnce(t *testing.T) {
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "microbe.db")

	rt := New(buildinfo.NewContext("1.0.0", ""))
	require.NoError(t, rt.InitWithSettings(settings))

	first, err := rt.DataStore()
	require.NoError(t, err)
	require.NotNil(t, first)
	second, err := rt.DataStore()
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.NoError(t, first.SaveTrainingRun(&datastore.TrainingRun{Algorithm: "knn"}))
	runs, err := first.TrainingRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	require.NoError(t, rt.Close())
}

func TestDebugRaisesLogLevel(t *testing.T) {
	settings := &conf.Settings{Debug: true}
	rt := New(nil)
	require.NoError(t, rt.InitWithSettings(settings))
	t.Cleanup(func() { _ = rt.Close() })

	assert.Equal(t, "debug", settings.Logging.DefaultLevel)
}

func TestInitRejectsEnabledSentryWithoutDSN(t *testing.T) {
	settings := &conf.Settings{}
	settings.Sentry.Enabled = true

	err := New(nil).InitWithSettings(settings)
	require.Error(t, err)
}
