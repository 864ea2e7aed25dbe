// interfaces.go defines the datastore interface and its GORM implementation
package datastore

import (
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/microbe-go/internal/conf"
	"github.com/tphakala/microbe-go/internal/errors"
	"github.com/tphakala/microbe-go/internal/logger"
)

// DefaultHistoryLimit caps list queries when no limit is given.
const DefaultHistoryLimit = 20

// slowQueryThreshold is passed to the GORM logger adapter.
const slowQueryThreshold = 200 * time.Millisecond

// Interface abstracts the underlying database.
type Interface interface {
	Open() error
	Close() error
	SaveTrainingRun(run *TrainingRun) error
	GetTrainingRun(id string) (*TrainingRun, error)
	TrainingRuns(limit int) ([]TrainingRun, error)
	SavePrediction(p *Prediction) error
	Predictions(limit int) ([]Prediction, error)
}

// DataStore implements Interface on a GORM database.
type DataStore struct {
	DB     *gorm.DB
	Logger logger.Logger
}

// New returns the store selected by the output settings, or nil when
// neither SQLite nor MySQL output is enabled.
func New(settings *conf.Settings, log logger.Logger) Interface {
	if log == nil {
		log = logger.Global().Module("datastore")
	}
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{DataStore: DataStore{Logger: log}, Settings: settings}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{DataStore: DataStore{Logger: log}, Settings: settings}
	default:
		return nil
	}
}

func (ds *DataStore) ready() error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}

func dbError(err error, op string) error {
	cat := errors.CategoryDatabase
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cat = errors.CategoryNotFound
	}
	return errors.New(err).
		Component("datastore").
		Category(cat).
		Context("operation", op).
		Build()
}

// SaveTrainingRun inserts a training run.
func (ds *DataStore) SaveTrainingRun(run *TrainingRun) error {
	if err := ds.ready(); err != nil {
		return err
	}
	if err := ds.DB.Create(run).Error; err != nil {
		return dbError(err, "save_training_run")
	}
	ds.Logger.Debug("training run saved",
		logger.String("id", run.ID),
		logger.String("algorithm", run.Algorithm))
	return nil
}

// GetTrainingRun looks a run up by ID.
func (ds *DataStore) GetTrainingRun(id string) (*TrainingRun, error) {
	if err := ds.ready(); err != nil {
		return nil, err
	}
	var run TrainingRun
	if err := ds.DB.First(&run, "id = ?", id).Error; err != nil {
		return nil, dbError(err, "get_training_run")
	}
	return &run, nil
}

// TrainingRuns returns the most recent runs first.
func (ds *DataStore) TrainingRuns(limit int) ([]TrainingRun, error) {
	if err := ds.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	var runs []TrainingRun
	if err := ds.DB.Order("created_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, dbError(err, "list_training_runs")
	}
	return runs, nil
}

// SavePrediction stores a prediction and its scores in one transaction.
func (ds *DataStore) SavePrediction(p *Prediction) error {
	if err := ds.ready(); err != nil {
		return err
	}
	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(p).Error
	})
	if err != nil {
		return dbError(err, "save_prediction")
	}
	return nil
}

// Predictions returns the most recent predictions first, with scores.
func (ds *DataStore) Predictions(limit int) ([]Prediction, error) {
	if err := ds.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	var preds []Prediction
	err := ds.DB.Preload("Scores", func(db *gorm.DB) *gorm.DB {
		return db.Order("probability DESC")
	}).Order("created_at DESC").Limit(limit).Find(&preds).Error
	if err != nil {
		return nil, dbError(err, "list_predictions")
	}
	return preds, nil
}

// Close releases the underlying connection pool.
func (ds *DataStore) Close() error {
	if err := ds.ready(); err != nil {
		return err
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return dbError(err, "close")
	}
	if err := sqlDB.Close(); err != nil {
		return dbError(err, "close")
	}
	ds.DB = nil
	return nil
}

func performAutoMigration(db *gorm.DB, log logger.Logger, dbType string) error {
	start := time.Now()
	if err := db.AutoMigrate(&TrainingRun{}, &Prediction{}, &PredictionScore{}); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("db_type", dbType).
			Context("operation", "auto_migrate").
			Build()
	}
	log.Debug("database migrated",
		logger.String("db_type", dbType),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

func gormConfig(log logger.Logger) *gorm.Config {
	return &gorm.Config{Logger: logger.NewGormLoggerAdapter(log, slowQueryThreshold)}
}
