package features

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Categorical columns encoded per fitted CategoryEncoder, in declared
// order. Matches the S/4HANA purchase-requisition export schema.
var categoricalColumns = []string{
	"pr_type", "company_code", "plant", "purchasing_group",
	"material_group", "unit", "currency",
	"gl_account", "cost_center", "wbs_element", "profit_center",
}

// Numeric and derived columns appended after the categorical block.
var numericColumns = []string{
	"quantity", "net_price",
	"day_of_week",
	"month",
	"text_length",
}

const (
	dateField = "pr_date"
	textField = "short_text"
)

const encodedSuffix = "_enc"

// CategoricalColumns returns the declared categorical columns.
func CategoricalColumns() []string {
	out := make([]string, len(categoricalColumns))
	copy(out, categoricalColumns)
	return out
}

// FeatureColumns returns the full feature column order: encoded
// categoricals first, then numeric/derived features.
func FeatureColumns() []string {
	out := make([]string, 0, len(categoricalColumns)+len(numericColumns))
	for _, c := range categoricalColumns {
		out = append(out, c+encodedSuffix)
	}
	return append(out, numericColumns...)
}

// Engineer produces feature vectors from raw Records using the
// encoders fitted during training. The column order is recorded once
// at fit time and reused verbatim for every transform, so vectors are
// bit-identical between training and serving. Fields are exported for
// gob persistence and are read-only after Fit.
type Engineer struct {
	Encoders map[string]*CategoryEncoder
	Columns  []string
}

// Fit builds one CategoryEncoder per categorical column from the
// training records and fixes the feature column order.
func Fit(records []Record) (*Engineer, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no training records")
	}

	e := &Engineer{
		Encoders: make(map[string]*CategoryEncoder, len(categoricalColumns)),
		Columns:  FeatureColumns(),
	}

	values := make([]string, len(records))
	for _, col := range categoricalColumns {
		for i, r := range records {
			values[i] = categoryValue(r, col)
		}
		enc := NewCategoryEncoder()
		enc.Fit(values)
		e.Encoders[col] = enc
	}

	return e, nil
}

// Transform converts one record into a feature vector following the
// fitted column order. Unseen categories encode to UnknownCode and an
// unparseable date to calendar sentinels; only a malformed numeric
// field fails, and that failure is scoped to this record.
func (e *Engineer) Transform(r Record) ([]float64, error) {
	dow, month := calendarFeatures(r)

	vec := make([]float64, len(e.Columns))
	for i, col := range e.Columns {
		if base, ok := strings.CutSuffix(col, encodedSuffix); ok {
			enc := e.Encoders[base]
			if enc == nil {
				vec[i] = UnknownCode
				continue
			}
			vec[i] = float64(enc.Transform(categoryValue(r, base)))
			continue
		}

		switch col {
		case "day_of_week":
			vec[i] = dow
		case "month":
			vec[i] = month
		case "text_length":
			text, _ := r.Text(textField)
			vec[i] = float64(utf8.RuneCountInString(text))
		default:
			v, err := r.Number(col)
			if err != nil {
				return nil, err
			}
			vec[i] = v
		}
	}

	return vec, nil
}

// TransformAll converts every record, failing fast on the first
// malformed one. Used at training time, where a bad row is fatal.
func (e *Engineer) TransformAll(records []Record) ([][]float64, error) {
	vectors := make([][]float64, len(records))
	for i, r := range records {
		vec, err := e.Transform(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// NFeatures returns the fitted feature vector length.
func (e *Engineer) NFeatures() int {
	return len(e.Columns)
}

func categoryValue(r Record, col string) string {
	s, ok := r.Text(col)
	if !ok || s == "" {
		return UnknownCategory
	}
	return s
}

// calendarFeatures derives day-of-week (Monday=0 … Sunday=6) and
// month (1–12) from the PR date, or -1/-1 when absent or unparseable.
func calendarFeatures(r Record) (dow, month float64) {
	s, ok := r.Text(dateField)
	if !ok || s == "" {
		return -1, -1
	}
	t, err := parseDate(s)
	if err != nil {
		return -1, -1
	}
	return float64((int(t.Weekday()) + 6) % 7), float64(t.Month())
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}
