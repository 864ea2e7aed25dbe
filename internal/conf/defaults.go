// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "microbe-go")

	viper.SetDefault("logging.default_level", "info")
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.file_output.enabled", false)
	viper.SetDefault("logging.file_output.path", "logs/microbe.log")
	viper.SetDefault("logging.file_output.level", "info")

	viper.SetDefault("dataset.path", "waterbodies_dataset.csv")
	viper.SetDefault("dataset.samples", 10000)
	viper.SetDefault("dataset.catalog", "")
	viper.SetDefault("dataset.nitratepolicy", "clamp")

	viper.SetDefault("training.algorithm", "extratrees")
	viper.SetDefault("training.dataset", "waterbodies_dataset.csv")
	viper.SetDefault("training.modeldir", "models")
	viper.SetDefault("training.testratio", 0.2)
	viper.SetDefault("training.seed", 42)
	viper.SetDefault("training.estimators", 100)
	viper.SetDefault("training.maxdepth", 0)
	viper.SetDefault("training.learningrate", 0.1)
	viper.SetDefault("training.neighbors", 5)
	viper.SetDefault("training.svmc", 1.0)
	viper.SetDefault("training.gamma", 0.0)
	viper.SetDefault("training.scaler", "minmax")

	viper.SetDefault("prediction.modelpath", "models/extratrees_model.gob")
	viper.SetDefault("prediction.encoderpath", "models/label_encoder.gob")
	viper.SetDefault("prediction.cachettl", 10*time.Minute)

	viper.SetDefault("output.sqlite.enabled", false)
	viper.SetDefault("output.sqlite.path", "microbe.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "microbe")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.database", "microbe")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.listen", "127.0.0.1:8080")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.debug", false)
}
