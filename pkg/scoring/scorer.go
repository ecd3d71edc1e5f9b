// Package scoring classifies PR records against a trained artifact.
package scoring

import (
	"math"

	"github.com/procurewatch/prguard/pkg/features"
	"github.com/procurewatch/prguard/pkg/model"
)

// epsilon keeps the confidence denominator away from zero when the
// calibrated threshold is exactly zero.
const epsilon = 1e-9

// Label classifies a scored record.
type Label string

const (
	LabelNormal  Label = "NORMAL"
	LabelAnomaly Label = "ANOMALY"
	LabelError   Label = "ERROR"
)

// Prediction is the outcome for one record. For ERROR entries the
// numeric fields are null and Error carries the failure reason; the
// identifying fields are echoed either way.
type Prediction struct {
	PRNumber   string   `json:"pr_number"`
	ItemNumber string   `json:"item_number"`
	Anomaly    *bool    `json:"anomaly"`
	Score      *float64 `json:"score"`
	Confidence *float64 `json:"confidence"`
	Label      Label    `json:"label"`
	Error      string   `json:"error,omitempty"`
}

// Scorer classifies records using an immutable trained artifact. Safe
// for concurrent use; it never mutates the artifact.
type Scorer struct {
	artifact *model.Artifact
}

// New creates a Scorer over a loaded artifact.
func New(artifact *model.Artifact) *Scorer {
	return &Scorer{artifact: artifact}
}

// ScoreRecord classifies a single record. Failures are folded into an
// ERROR prediction rather than returned, so a bad record in a batch
// never disturbs its neighbors.
func (s *Scorer) ScoreRecord(rec features.Record) Prediction {
	p := Prediction{}
	p.PRNumber, _ = rec.Text("pr_number")
	p.ItemNumber, _ = rec.Text("item_number")

	vec, err := s.artifact.Engineer.Transform(rec)
	if err != nil {
		p.Label = LabelError
		p.Error = err.Error()
		return p
	}

	score, err := s.artifact.Forest.ScoreOne(vec)
	if err != nil {
		p.Label = LabelError
		p.Error = err.Error()
		return p
	}

	threshold := s.artifact.Threshold
	isAnomaly := score < threshold
	confidence := clamp((threshold-score)/(math.Abs(threshold)+epsilon), 0, 1)

	roundedScore := round(score, 6)
	roundedConf := round(confidence, 4)

	p.Anomaly = &isAnomaly
	p.Score = &roundedScore
	p.Confidence = &roundedConf
	if isAnomaly {
		p.Label = LabelAnomaly
	} else {
		p.Label = LabelNormal
	}
	return p
}

// ScoreBatch classifies every record independently, preserving input
// order in the result.
func (s *Scorer) ScoreBatch(records []features.Record) []Prediction {
	predictions := make([]Prediction, len(records))
	for i, rec := range records {
		predictions[i] = s.ScoreRecord(rec)
	}
	return predictions
}

// Artifact exposes the underlying model for health reporting.
func (s *Scorer) Artifact() *model.Artifact {
	return s.artifact
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round(v float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(v*scale) / scale
}
