package datastore

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/tphakala/microbe-go/internal/conf"
	"github.com/tphakala/microbe-go/internal/errors"
	"github.com/tphakala/microbe-go/internal/logger"
)

// MySQLStore implements Interface for MySQL.
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

func validateMySQLConfig(settings *conf.Settings) error {
	m := settings.Output.MySQL
	if m.Host == "" || m.Database == "" || m.Username == "" {
		return errors.ConfigurationError("output.mysql requires host, database and username")
	}
	return nil
}

// mysqlDSN builds the driver connection string.
func mysqlDSN(settings *conf.Settings) string {
	m := settings.Output.MySQL
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		m.Username, m.Password, m.Host, m.Port, m.Database)
}

// Open connects to the server and migrates the schema.
func (store *MySQLStore) Open() error {
	if err := validateMySQLConfig(store.Settings); err != nil {
		return err
	}

	m := store.Settings.Output.MySQL
	db, err := gorm.Open(mysql.Open(mysqlDSN(store.Settings)), gormConfig(store.Logger))
	if err != nil {
		store.Logger.Error("failed to open MySQL database",
			logger.String("host", m.Host),
			logger.String("port", m.Port),
			logger.String("database", m.Database),
			logger.Error(err))
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("db_type", "mysql").
			Build()
	}

	store.DB = db
	return performAutoMigration(db, store.Logger, "MySQL")
}
