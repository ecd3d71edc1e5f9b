// Package detectors provides unsupervised anomaly detection algorithms.
package detectors

// Detector is the common interface for all anomaly detection algorithms.
type Detector interface {
	// Fit trains the detector on historical data.
	// data is a 2D slice where each row is a sample and each column is a feature.
	Fit(data [][]float64) error

	// Score returns decision-function values for the given samples.
	// Scores are signed: values below the calibrated threshold indicate
	// anomalies, and more negative means more anomalous.
	Score(data [][]float64) ([]float64, error)

	// ScoreOne returns the decision-function value for a single sample.
	ScoreOne(sample []float64) (float64, error)

	// Save serializes the trained model to bytes.
	Save() ([]byte, error)

	// Load deserializes a trained model from bytes.
	Load(data []byte) error
}
