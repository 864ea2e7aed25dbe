// config.go: settings struct for microbe-go and the functions that load and save it.
package conf

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/microbe-go/internal/errors"
	"github.com/tphakala/microbe-go/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// MainSettings holds process-wide options
type MainSettings struct {
	Name string `yaml:"name"` // instance name, reported with telemetry events
}

// DatasetSettings controls synthetic dataset generation
type DatasetSettings struct {
	Path          string  `yaml:"path"`           // CSV output path
	Samples       int     `yaml:"samples"`        // number of rows to generate
	Seed          *uint64 `yaml:"seed,omitempty"` // random seed, unset picks one from the clock
	Catalog       string  `yaml:"catalog"`        // optional YAML catalog file, empty uses the built-in catalog
	NitratePolicy string  `yaml:"nitratepolicy"`  // clamp or reject
}

// TrainingSettings controls the model training pipeline
type TrainingSettings struct {
	Algorithm    string  `yaml:"algorithm"`    // extratrees, randomforest, gboost, knn or svm
	Dataset      string  `yaml:"dataset"`      // CSV input path
	ModelDir     string  `yaml:"modeldir"`     // directory receiving model artifacts
	TestRatio    float64 `yaml:"testratio"`    // share of rows held out for evaluation
	Seed         uint64  `yaml:"seed"`         // split and model seed
	Estimators   int     `yaml:"estimators"`   // trees or boosting stages
	MaxDepth     int     `yaml:"maxdepth"`     // tree depth limit, 0 means unlimited
	LearningRate float64 `yaml:"learningrate"` // gradient boosting shrinkage
	Neighbors    int     `yaml:"neighbors"`    // k for nearest neighbours
	SVMC         float64 `yaml:"svmc"`         // SVM soft-margin penalty
	Gamma        float64 `yaml:"gamma"`        // SVM RBF width, 0 derives it from the data
	Scaler       string  `yaml:"scaler"`       // minmax or standard
}

// PredictionSettings locates the artifacts used for prediction
type PredictionSettings struct {
	ModelPath   string        `yaml:"modelpath"`   // model artifact
	EncoderPath string        `yaml:"encoderpath"` // label encoder artifact
	CacheTTL    time.Duration `yaml:"cachettl"`    // how long loaded artifacts stay cached
}

// SQLiteSettings contains settings for the SQLite database
type SQLiteSettings struct {
	Enabled bool   `yaml:"enabled"` // true to enable SQLite output
	Path    string `yaml:"path"`    // path to SQLite database file
}

// MySQLSettings contains settings for the MySQL database
type MySQLSettings struct {
	Enabled  bool   `yaml:"enabled"`  // true to enable MySQL output
	Username string `yaml:"username"` // username for MySQL database
	Password string `yaml:"password"` // password for MySQL database
	Database string `yaml:"database"` // database name for MySQL database
	Host     string `yaml:"host"`     // host for MySQL database
	Port     string `yaml:"port"`     // port for MySQL database
}

// OutputSettings selects where training runs and predictions are recorded
type OutputSettings struct {
	SQLite SQLiteSettings `yaml:"sqlite"`
	MySQL  MySQLSettings  `yaml:"mysql"`
}

// WebServerSettings controls the prediction form server
type WebServerSettings struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"` // host:port
}

// SentrySettings contains opt-in error reporting settings
type SentrySettings struct {
	Enabled bool   `yaml:"enabled"` // true to report errors to Sentry
	DSN     string `yaml:"dsn"`     // project DSN
	Debug   bool   `yaml:"debug"`   // enable the SDK's own debug output
}

// Settings contains all configuration options for microbe-go
type Settings struct {
	Debug bool `yaml:"debug"`

	Main       MainSettings         `yaml:"main"`
	Logging    logger.LoggingConfig `yaml:"logging"`
	Dataset    DatasetSettings      `yaml:"dataset"`
	Training   TrainingSettings     `yaml:"training"`
	Prediction PredictionSettings   `yaml:"prediction"`
	Output     OutputSettings       `yaml:"output"`
	WebServer  WebServerSettings    `yaml:"webserver"`
	Sentry     SentrySettings       `yaml:"sentry"`
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads defaults, the config file and environment variables into Settings.
// configFile may be empty, in which case the default search paths are used.
// A missing config file is not an error; the embedded defaults apply.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(configFile); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal-config").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "validate-config").
			Build()
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper registers defaults and env bindings and reads the configuration file.
func initViper(configFile string) error {
	setDefaultConfig()

	if err := bindEnvVars(); err != nil {
		return errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "bind-env").
			Build()
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errors.New(fmt.Errorf("error reading config file %s: %w", configFile, err)).
				Category(errors.CategoryConfiguration).
				Context("operation", "read-config").
				Build()
		}
		return nil
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return err
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Fall back to the embedded template without writing it to disk
			return viper.ReadConfig(bytes.NewReader(GetDefaultConfig()))
		}
		return errors.New(fmt.Errorf("fatal error reading config file: %w", err)).
			Category(errors.CategoryConfiguration).
			Context("operation", "read-config").
			Build()
	}

	return nil
}

// GetDefaultConfig returns the embedded config.yaml template.
func GetDefaultConfig() []byte {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		// embedded at build time, cannot be missing
		panic(fmt.Sprintf("embedded config.yaml missing: %v", err))
	}
	return data
}

// GetSettings returns the settings loaded by the last successful Load call
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// ConfigFileUsed returns the path of the file viper read, empty when the
// embedded defaults were used.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}

// SaveYAMLConfig writes settings to configPath atomically through a temp file.
// It overwrites the existing file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "create-config-dir").
			Build()
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempName := tempFile.Name()
	defer func() { _ = os.Remove(tempName) }()

	if _, err := tempFile.Write(yamlData); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}
