package datastore

import (
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tphakala/microbe-go/internal/conf"
	"github.com/tphakala/microbe-go/internal/errors"
	"github.com/tphakala/microbe-go/internal/logger"
)

// SQLiteStore implements Interface for SQLite.
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

func validateSQLiteConfig(settings *conf.Settings) error {
	if settings.Output.SQLite.Path == "" {
		return errors.ConfigurationError("output.sqlite.path must be set when SQLite output is enabled")
	}
	return nil
}

// Open creates the database file if needed and migrates the schema.
func (store *SQLiteStore) Open() error {
	if err := validateSQLiteConfig(store.Settings); err != nil {
		return err
	}

	path := store.Settings.Output.SQLite.Path
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.New(err).
				Component("datastore").
				Category(errors.CategoryFileIO).
				Context("path", path).
				Build()
		}
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig(store.Logger))
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("db_type", "sqlite").
			Build()
	}

	store.DB = db
	store.Logger.Info("sqlite database opened", logger.String("path", path))
	return performAutoMigration(db, store.Logger, "SQLite")
}
