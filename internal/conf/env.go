// env.go - Environment variable configuration and validation
package conf

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "MICROBE_DEBUG", validateEnvBool},
		{"logging.default_level", "MICROBE_LOG_LEVEL", validateEnvLogLevel},

		// Dataset generation
		{"dataset.path", "MICROBE_DATASET_PATH", nil},
		{"dataset.samples", "MICROBE_DATASET_SAMPLES", validateEnvNonNegativeInt},
		{"dataset.seed", "MICROBE_DATASET_SEED", validateEnvSeed},
		{"dataset.catalog", "MICROBE_CATALOG", nil},
		{"dataset.nitratepolicy", "MICROBE_NITRATE_POLICY", validateEnvOneOf(nitratePolicies)},

		// Training
		{"training.algorithm", "MICROBE_ALGORITHM", validateEnvOneOf(algorithms)},
		{"training.modeldir", "MICROBE_MODEL_DIR", nil},
		{"training.seed", "MICROBE_TRAINING_SEED", validateEnvSeed},

		// Prediction
		{"prediction.modelpath", "MICROBE_MODEL_PATH", nil},
		{"prediction.encoderpath", "MICROBE_ENCODER_PATH", nil},
		{"prediction.cachettl", "MICROBE_CACHE_TTL", validateEnvDuration},

		// Outputs
		{"output.sqlite.enabled", "MICROBE_SQLITE_ENABLED", validateEnvBool},
		{"output.sqlite.path", "MICROBE_SQLITE_PATH", nil},
		{"output.mysql.enabled", "MICROBE_MYSQL_ENABLED", validateEnvBool},
		{"output.mysql.password", "MICROBE_MYSQL_PASSWORD", nil},

		{"webserver.listen", "MICROBE_LISTEN", nil},

		{"sentry.enabled", "MICROBE_SENTRY_ENABLED", validateEnvBool},
		{"sentry.dsn", "MICROBE_SENTRY_DSN", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		if envValue := os.Getenv(binding.EnvVar); envValue != "" {
			if err := binding.Validate(envValue); err != nil {
				warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

func validateEnvNonNegativeInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Errorf("must be a non-negative integer")
	}
	return nil
}

func validateEnvSeed(value string) error {
	if _, err := strconv.ParseUint(value, 10, 64); err != nil {
		return fmt.Errorf("must be an unsigned integer")
	}
	return nil
}

func validateEnvDuration(value string) error {
	if _, err := time.ParseDuration(value); err != nil {
		return fmt.Errorf("must be a duration such as 10m")
	}
	return nil
}

func validateEnvLogLevel(value string) error {
	return validateEnvOneOf(logLevels)(value)
}

func validateEnvOneOf(allowed []string) func(string) error {
	return func(value string) error {
		if !slices.Contains(allowed, strings.ToLower(value)) {
			return fmt.Errorf("must be one of %s", strings.Join(allowed, ", "))
		}
		return nil
	}
}
