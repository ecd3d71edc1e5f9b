// Package model ties the feature engineering and the isolation forest
// together into a trainable, persistable artifact.
package model

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/procurewatch/prguard/pkg/detectors/iforest"
	"github.com/procurewatch/prguard/pkg/features"
)

// SchemaVersion tags persisted artifacts; bumped on incompatible
// changes to the feature schema or serialized layout.
const SchemaVersion = "1.0"

// TrainingStats records the training run for the metadata sidecar and
// the health surface.
type TrainingStats struct {
	NSamples      int       `json:"n_samples"`
	NFeatures     int       `json:"n_features"`
	Contamination float64   `json:"contamination"`
	NEstimators   int       `json:"n_estimators"`
	ScoreMean     float64   `json:"score_mean"`
	ScoreStd      float64   `json:"score_std"`
	ScoreMin      float64   `json:"score_min"`
	ScoreMax      float64   `json:"score_max"`
	TrainedAt     time.Time `json:"trained_at"`
}

// Artifact is a trained model: the forest, the fitted engineer (with
// its encoders and fixed column order), the calibrated threshold, and
// training statistics. Immutable once produced; serving loads it once
// and shares it read-only across all inference calls.
type Artifact struct {
	Forest    *iforest.IsolationForest
	Engineer  *features.Engineer
	Threshold float64
	Stats     TrainingStats
}

// artifactState is the on-disk gob layout. The forest nests its own
// gob encoding so its internal layout stays private to the iforest
// package.
type artifactState struct {
	SchemaVersion string
	Forest        []byte
	Engineer      *features.Engineer
	Threshold     float64
	Stats         TrainingStats
}

// Save writes the artifact to path, creating parent directories.
func (a *Artifact) Save(path string) error {
	forestBytes, err := a.Forest.Save()
	if err != nil {
		return fmt.Errorf("serialize forest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	state := artifactState{
		SchemaVersion: SchemaVersion,
		Forest:        forestBytes,
		Engineer:      a.Engineer,
		Threshold:     a.Threshold,
		Stats:         a.Stats,
	}
	if err := gob.NewEncoder(file).Encode(state); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	return nil
}

// Load reads a trained artifact from path.
func Load(path string) (*Artifact, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var state artifactState
	if err := gob.NewDecoder(file).Decode(&state); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if state.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("artifact schema %q, want %q", state.SchemaVersion, SchemaVersion)
	}

	forest := iforest.New()
	if err := forest.Load(state.Forest); err != nil {
		return nil, fmt.Errorf("load forest: %w", err)
	}

	return &Artifact{
		Forest:    forest,
		Engineer:  state.Engineer,
		Threshold: state.Threshold,
		Stats:     state.Stats,
	}, nil
}

// metadata is the human-readable JSON sidecar written next to the
// binary artifact.
type metadata struct {
	ModelType     string        `json:"model_type"`
	FeatureCols   []string      `json:"feature_cols"`
	Threshold     float64       `json:"threshold"`
	TrainingStats TrainingStats `json:"training_stats"`
	SchemaVersion string        `json:"schema_version"`
}

// WriteMetadata writes the metadata JSON sidecar to path.
func (a *Artifact) WriteMetadata(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	m := metadata{
		ModelType:     "IsolationForest",
		FeatureCols:   a.Engineer.Columns,
		Threshold:     a.Threshold,
		TrainingStats: a.Stats,
		SchemaVersion: SchemaVersion,
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
