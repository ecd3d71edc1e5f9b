package features

// UnknownCategory is the stand-in string for absent or empty
// categorical values. It is substituted before fitting, so training
// sets with missing values grow a real code for it; a transform-time
// value only maps to that code if training actually contained it.
const UnknownCategory = "__UNKNOWN__"

// UnknownCode is returned for any category not seen during fitting.
const UnknownCode = -1

// CategoryEncoder maps category strings to stable integer codes.
// Codes are assigned in first-seen order starting at zero and never
// change after fitting. One encoder per categorical column; encoders
// share no state. Fields are exported for gob persistence inside the
// trained artifact and are read-only after Fit.
type CategoryEncoder struct {
	Codes map[string]int
	Order []string
}

// NewCategoryEncoder returns an unfitted encoder.
func NewCategoryEncoder() *CategoryEncoder {
	return &CategoryEncoder{Codes: make(map[string]int)}
}

// Fit discovers the distinct categories in values, assigning each an
// integer code in order of first occurrence. Deterministic for a fixed
// input order. Calling Fit again extends the existing mapping; the
// trainer fits each encoder exactly once.
func (e *CategoryEncoder) Fit(values []string) {
	for _, v := range values {
		if _, ok := e.Codes[v]; !ok {
			e.Codes[v] = len(e.Order)
			e.Order = append(e.Order, v)
		}
	}
}

// Transform returns the fitted code for value, or UnknownCode when the
// value was never seen during fitting. It never fails.
func (e *CategoryEncoder) Transform(value string) int {
	if code, ok := e.Codes[value]; ok {
		return code
	}
	return UnknownCode
}

// Classes returns the fitted categories in code order.
func (e *CategoryEncoder) Classes() []string {
	out := make([]string, len(e.Order))
	copy(out, e.Order)
	return out
}

// Len returns the number of fitted categories.
func (e *CategoryEncoder) Len() int {
	return len(e.Order)
}
