package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procurewatch/prguard/pkg/features"
)

func trainingRecords(n int) []features.Record {
	plants := []string{"1010", "1020", "1030"}
	records := make([]features.Record, n)
	for i := 0; i < n; i++ {
		records[i] = features.NewRecord(map[string]any{
			"pr_number":        fmt.Sprintf("10000%05d", i),
			"item_number":      "00010",
			"pr_type":          "NB",
			"company_code":     "1000",
			"plant":            plants[i%len(plants)],
			"purchasing_group": "001",
			"material_group":   "01010",
			"quantity":         float64(1 + i%20),
			"unit":             "EA",
			"net_price":        float64(50 + 10*(i%30)),
			"currency":         "EUR",
			"pr_date":          fmt.Sprintf("2024-0%d-1%d", 1+i%9, i%10),
			"gl_account":       "400000",
			"cost_center":      "10001010",
			"profit_center":    "YB10",
			"short_text":       "Office supplies",
		})
	}
	return records
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.NEstimators = 20
	cfg.SampleSize = 64
	return cfg
}

func TestTrain(t *testing.T) {
	records := trainingRecords(120)

	artifact, err := Train(records, smallConfig())
	require.NoError(t, err)

	assert.Equal(t, 120, artifact.Stats.NSamples)
	assert.Equal(t, len(features.FeatureColumns()), artifact.Stats.NFeatures)
	assert.Equal(t, 20, artifact.Stats.NEstimators)
	assert.Equal(t, 0.05, artifact.Stats.Contamination)
	assert.False(t, artifact.Stats.TrainedAt.IsZero())
	assert.Equal(t, artifact.Forest.Threshold(), artifact.Threshold)
}

func TestTrainEmpty(t *testing.T) {
	_, err := Train(nil, DefaultConfig())
	assert.Error(t, err)
}

func TestTrainMalformedRow(t *testing.T) {
	records := trainingRecords(10)
	records = append(records, features.NewRecord(map[string]any{
		"plant":    "1010",
		"quantity": "not-a-number",
	}))

	_, err := Train(records, smallConfig())
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	records := trainingRecords(100)
	artifact, err := Train(records, smallConfig())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "models", "model.gob")
	require.NoError(t, artifact.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, artifact.Threshold, loaded.Threshold)
	assert.Equal(t, artifact.Engineer.Columns, loaded.Engineer.Columns)
	assert.Equal(t, artifact.Stats, loaded.Stats)

	// The loaded model must score records identically to the fresh one.
	for _, rec := range records[:10] {
		vecA, err := artifact.Engineer.Transform(rec)
		require.NoError(t, err)
		vecB, err := loaded.Engineer.Transform(rec)
		require.NoError(t, err)
		assert.Equal(t, vecA, vecB)

		scoreA, err := artifact.Forest.ScoreOne(vecA)
		require.NoError(t, err)
		scoreB, err := loaded.Forest.ScoreOne(vecB)
		require.NoError(t, err)
		assert.Equal(t, scoreA, scoreB)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.gob"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteMetadata(t *testing.T) {
	artifact, err := Train(trainingRecords(80), smallConfig())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "metadata.json")
	require.NoError(t, artifact.WriteMetadata(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))

	assert.Equal(t, "IsolationForest", m["model_type"])
	assert.Equal(t, "1.0", m["schema_version"])
	assert.Len(t, m["feature_cols"], len(features.FeatureColumns()))

	stats, ok := m["training_stats"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(80), stats["n_samples"])
	assert.Contains(t, stats, "score_mean")
	assert.Contains(t, stats, "trained_at")
}
