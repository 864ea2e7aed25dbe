// model.go defines the records kept for training runs and predictions
package datastore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TrainingRun records one completed training pipeline.
type TrainingRun struct {
	ID           string `gorm:"primaryKey;size:36"`
	Algorithm    string `gorm:"size:32;index:idx_training_runs_algorithm"`
	Scaler       string `gorm:"size:16"`
	Dataset      string
	ModelPath    string
	Samples      int
	TrainSamples int
	TestSamples  int
	Accuracy     float64
	MacroF1      float64
	WeightedF1   float64
	Duration     time.Duration
	CreatedAt    time.Time `gorm:"index:idx_training_runs_created_at"`
}

// BeforeCreate assigns a random ID when none is set.
func (r *TrainingRun) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Prediction records one operator query and its outcome.
type Prediction struct {
	ID           string `gorm:"primaryKey;size:36"`
	Source       string `gorm:"size:16"` // cli or web
	ModelPath    string
	Temperature  float64
	PH           float64
	DissolvedO2  float64
	BOD          float64
	Conductivity float64
	Salinity     float64
	Nitrate      float64
	Impurities   string // comma-separated impurity kinds
	Organism     string `gorm:"index:idx_predictions_organism"`
	Confidence   float64
	Scores       []PredictionScore `gorm:"foreignKey:PredictionID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time         `gorm:"index:idx_predictions_created_at"`
}

// BeforeCreate assigns a random ID when none is set.
func (p *Prediction) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PredictionScore is the model probability of one organism for a prediction.
type PredictionScore struct {
	ID           uint   `gorm:"primaryKey"`
	PredictionID string `gorm:"size:36;index;not null"`
	Organism     string
	Probability  float64
}
