package model

import (
	"fmt"
	"time"

	"github.com/procurewatch/prguard/pkg/detectors/iforest"
	"github.com/procurewatch/prguard/pkg/features"
)

// Config holds the training parameters.
type Config struct {
	// Contamination is the expected anomaly fraction in the training set.
	Contamination float64
	// NEstimators is the number of isolation trees.
	NEstimators int
	// SampleSize is the per-tree subsample size.
	SampleSize int
	// Seed drives every random stream in the build.
	Seed int64
}

// DefaultConfig returns the standard training parameters.
func DefaultConfig() Config {
	return Config{
		Contamination: 0.05,
		NEstimators:   200,
		SampleSize:    256,
		Seed:          42,
	}
}

// Train fits the feature encoders and the isolation forest on the
// given records and calibrates the operating threshold, producing an
// immutable artifact. The same fitted engineer transforms records at
// serving time, so fit and inference encodings are exercised through
// one code path.
func Train(records []features.Record, cfg Config) (*Artifact, error) {
	eng, err := features.Fit(records)
	if err != nil {
		return nil, fmt.Errorf("fit encoders: %w", err)
	}

	vectors, err := eng.TransformAll(records)
	if err != nil {
		return nil, fmt.Errorf("engineer features: %w", err)
	}

	forest := iforest.New(
		iforest.WithTrees(cfg.NEstimators),
		iforest.WithSampleSize(cfg.SampleSize),
		iforest.WithContamination(cfg.Contamination),
		iforest.WithSeed(cfg.Seed),
	)
	if err := forest.Fit(vectors); err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}

	stats := forest.TrainingStats()
	return &Artifact{
		Forest:    forest,
		Engineer:  eng,
		Threshold: forest.Threshold(),
		Stats: TrainingStats{
			NSamples:      len(vectors),
			NFeatures:     eng.NFeatures(),
			Contamination: cfg.Contamination,
			NEstimators:   cfg.NEstimators,
			ScoreMean:     stats.Mean,
			ScoreStd:      stats.Std,
			ScoreMin:      stats.Min,
			ScoreMax:      stats.Max,
			TrainedAt:     time.Now().UTC(),
		},
	}, nil
}
