package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(overrides map[string]any) Record {
	fields := map[string]any{
		"pr_number":        "1000012345",
		"item_number":      "00010",
		"pr_type":          "NB",
		"company_code":     "1000",
		"plant":            "1010",
		"purchasing_group": "001",
		"material_group":   "01010",
		"quantity":         10.0,
		"unit":             "EA",
		"net_price":        250.0,
		"currency":         "EUR",
		"pr_date":          "2024-03-15",
		"delivery_date":    "2024-04-01",
		"gl_account":       "400000",
		"cost_center":      "10001010",
		"wbs_element":      "",
		"order_number":     "",
		"profit_center":    "YB10",
		"short_text":       "Office supplies",
		"header_text":      "",
	}
	for k, v := range overrides {
		fields[k] = v
	}
	return NewRecord(fields)
}

func TestFitColumnOrder(t *testing.T) {
	eng, err := Fit([]Record{sampleRecord(nil)})
	require.NoError(t, err)

	want := FeatureColumns()
	assert.Equal(t, want, eng.Columns)
	assert.Equal(t, "pr_type_enc", want[0])
	assert.Equal(t, "text_length", want[len(want)-1])
	assert.Equal(t, len(want), eng.NFeatures())
}

func TestFitEmpty(t *testing.T) {
	_, err := Fit(nil)
	assert.Error(t, err)
}

func TestTransformStability(t *testing.T) {
	eng, err := Fit([]Record{sampleRecord(nil), sampleRecord(map[string]any{"plant": "1020"})})
	require.NoError(t, err)

	rec := sampleRecord(nil)
	first, err := eng.Transform(rec)
	require.NoError(t, err)
	second, err := eng.Transform(rec)
	require.NoError(t, err)

	// Same artifact, same record: identical vectors, every time.
	assert.Equal(t, first, second)
	assert.Len(t, first, eng.NFeatures())
}

func TestTransformMatchesFitEncoding(t *testing.T) {
	records := []Record{
		sampleRecord(nil),
		sampleRecord(map[string]any{"plant": "1020", "currency": "USD"}),
	}
	eng, err := Fit(records)
	require.NoError(t, err)

	vectors, err := eng.TransformAll(records)
	require.NoError(t, err)

	// First-seen categories get code 0, the second plant gets 1.
	plantIdx := indexOf(t, eng.Columns, "plant_enc")
	assert.Equal(t, 0.0, vectors[0][plantIdx])
	assert.Equal(t, 1.0, vectors[1][plantIdx])
}

func TestTransformUnknownCategory(t *testing.T) {
	eng, err := Fit([]Record{sampleRecord(nil)})
	require.NoError(t, err)

	vec, err := eng.Transform(sampleRecord(map[string]any{"plant": "ZZ99"}))
	require.NoError(t, err)

	plantIdx := indexOf(t, eng.Columns, "plant_enc")
	assert.Equal(t, float64(UnknownCode), vec[plantIdx])
}

func TestTransformCalendarFeatures(t *testing.T) {
	eng, err := Fit([]Record{sampleRecord(nil)})
	require.NoError(t, err)

	dowIdx := indexOf(t, eng.Columns, "day_of_week")
	monthIdx := indexOf(t, eng.Columns, "month")

	tests := []struct {
		name      string
		date      any
		wantDOW   float64
		wantMonth float64
	}{
		{
			// 2024-03-15 is a Friday (Monday=0 convention).
			name:      "valid date",
			date:      "2024-03-15",
			wantDOW:   4,
			wantMonth: 3,
		},
		{
			name:      "monday",
			date:      "2024-01-01",
			wantDOW:   0,
			wantMonth: 1,
		},
		{
			name:      "unparseable",
			date:      "15.03.2024",
			wantDOW:   -1,
			wantMonth: -1,
		},
		{
			name:      "absent",
			date:      nil,
			wantDOW:   -1,
			wantMonth: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec, err := eng.Transform(sampleRecord(map[string]any{"pr_date": tt.date}))
			require.NoError(t, err)
			assert.Equal(t, tt.wantDOW, vec[dowIdx])
			assert.Equal(t, tt.wantMonth, vec[monthIdx])
		})
	}
}

func TestTransformNumericDefaults(t *testing.T) {
	eng, err := Fit([]Record{sampleRecord(nil)})
	require.NoError(t, err)

	vec, err := eng.Transform(sampleRecord(map[string]any{
		"quantity":   nil,
		"net_price":  "",
		"short_text": nil,
	}))
	require.NoError(t, err)

	assert.Equal(t, 0.0, vec[indexOf(t, eng.Columns, "quantity")])
	assert.Equal(t, 0.0, vec[indexOf(t, eng.Columns, "net_price")])
	assert.Equal(t, 0.0, vec[indexOf(t, eng.Columns, "text_length")])
}

func TestTransformTextLength(t *testing.T) {
	eng, err := Fit([]Record{sampleRecord(nil)})
	require.NoError(t, err)

	vec, err := eng.Transform(sampleRecord(map[string]any{"short_text": "Büroklammern"}))
	require.NoError(t, err)

	// Character count, not byte count.
	assert.Equal(t, 12.0, vec[indexOf(t, eng.Columns, "text_length")])
}

func TestTransformMalformedNumeric(t *testing.T) {
	eng, err := Fit([]Record{sampleRecord(nil)})
	require.NoError(t, err)

	_, err = eng.Transform(sampleRecord(map[string]any{"quantity": "ten"}))
	assert.Error(t, err)
}

func indexOf(t *testing.T, columns []string, name string) int {
	t.Helper()
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	t.Fatalf("column %q not found", name)
	return -1
}
