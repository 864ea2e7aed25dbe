// conf/validate.go

package conf

import (
	"fmt"
	"slices"
	"strings"
)

var (
	nitratePolicies = []string{"clamp", "reject"}
	algorithms      = []string{"extratrees", "randomforest", "gboost", "knn", "svm"}
	scalers         = []string{"minmax", "standard"}
	logLevels       = []string{"trace", "debug", "info", "warn", "error"}
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	ve.Errors = append(ve.Errors, validateLoggingSettings(settings)...)
	ve.Errors = append(ve.Errors, validateDatasetSettings(&settings.Dataset)...)
	ve.Errors = append(ve.Errors, validateTrainingSettings(&settings.Training)...)
	ve.Errors = append(ve.Errors, validatePredictionSettings(&settings.Prediction)...)
	ve.Errors = append(ve.Errors, validateOutputSettings(&settings.Output)...)
	ve.Errors = append(ve.Errors, validateWebServerSettings(&settings.WebServer)...)
	ve.Errors = append(ve.Errors, validateSentrySettings(&settings.Sentry)...)

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateLoggingSettings(settings *Settings) []string {
	var errs []string
	if level := settings.Logging.DefaultLevel; level != "" && !slices.Contains(logLevels, level) {
		errs = append(errs, fmt.Sprintf("logging.default_level must be one of %s", strings.Join(logLevels, ", ")))
	}
	for module, level := range settings.Logging.ModuleLevels {
		if !slices.Contains(logLevels, level) {
			errs = append(errs, fmt.Sprintf("logging.module_levels.%s has unknown level %q", module, level))
		}
	}
	return errs
}

func validateDatasetSettings(settings *DatasetSettings) []string {
	var errs []string
	if settings.Samples < 0 {
		errs = append(errs, "dataset.samples must not be negative")
	}
	if settings.Path == "" {
		errs = append(errs, "dataset.path must be set")
	}
	if !slices.Contains(nitratePolicies, settings.NitratePolicy) {
		errs = append(errs, fmt.Sprintf("dataset.nitratepolicy must be one of %s", strings.Join(nitratePolicies, ", ")))
	}
	return errs
}

func validateTrainingSettings(settings *TrainingSettings) []string {
	var errs []string
	if !slices.Contains(algorithms, settings.Algorithm) {
		errs = append(errs, fmt.Sprintf("training.algorithm must be one of %s", strings.Join(algorithms, ", ")))
	}
	if !slices.Contains(scalers, settings.Scaler) {
		errs = append(errs, fmt.Sprintf("training.scaler must be one of %s", strings.Join(scalers, ", ")))
	}
	if settings.TestRatio <= 0 || settings.TestRatio >= 1 {
		errs = append(errs, "training.testratio must be between 0 and 1 (exclusive)")
	}
	if settings.Estimators < 1 {
		errs = append(errs, "training.estimators must be at least 1")
	}
	if settings.MaxDepth < 0 {
		errs = append(errs, "training.maxdepth must not be negative")
	}
	if settings.LearningRate <= 0 || settings.LearningRate > 1 {
		errs = append(errs, "training.learningrate must be in (0, 1]")
	}
	if settings.Neighbors < 1 {
		errs = append(errs, "training.neighbors must be at least 1")
	}
	if settings.SVMC <= 0 {
		errs = append(errs, "training.svmc must be positive")
	}
	if settings.Gamma < 0 {
		errs = append(errs, "training.gamma must not be negative")
	}
	if settings.ModelDir == "" {
		errs = append(errs, "training.modeldir must be set")
	}
	return errs
}

func validatePredictionSettings(settings *PredictionSettings) []string {
	var errs []string
	if settings.CacheTTL < 0 {
		errs = append(errs, "prediction.cachettl must not be negative")
	}
	return errs
}

func validateOutputSettings(settings *OutputSettings) []string {
	var errs []string
	if settings.SQLite.Enabled && settings.MySQL.Enabled {
		errs = append(errs, "only one of output.sqlite and output.mysql can be enabled")
	}
	if settings.SQLite.Enabled && settings.SQLite.Path == "" {
		errs = append(errs, "output.sqlite.path must be set when SQLite output is enabled")
	}
	if settings.MySQL.Enabled && (settings.MySQL.Host == "" || settings.MySQL.Database == "") {
		errs = append(errs, "output.mysql.host and output.mysql.database must be set when MySQL output is enabled")
	}
	return errs
}

func validateWebServerSettings(settings *WebServerSettings) []string {
	if settings.Enabled && settings.Listen == "" {
		return []string{"webserver.listen must be set when the web server is enabled"}
	}
	return nil
}

func validateSentrySettings(settings *SentrySettings) []string {
	if settings.Enabled && settings.DSN == "" {
		return []string{"sentry.dsn must be set when Sentry reporting is enabled"}
	}
	return nil
}
