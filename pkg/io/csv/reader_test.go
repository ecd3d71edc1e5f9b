package csv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func fullHeader() string {
	return strings.Join(RequiredColumns, ",")
}

func TestNewReaderMissingColumns(t *testing.T) {
	path := writeCSV(t, "pr_number,plant,quantity", "1,1010,5")

	_, err := NewReader(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns")
	assert.Contains(t, err.Error(), "pr_date")
}

func TestNewReaderMissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestReadRecords(t *testing.T) {
	row := make([]string, len(RequiredColumns))
	for i, col := range RequiredColumns {
		row[i] = col + "_v"
	}
	// Blank out wbs_element to exercise absent-field handling.
	for i, col := range RequiredColumns {
		if col == "wbs_element" {
			row[i] = ""
		}
	}

	path := writeCSV(t, fullHeader(), strings.Join(row, ","))

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	records, err := r.Read()
	require.NoError(t, err)
	require.Len(t, records, 1)

	plant, ok := records[0].Text("plant")
	assert.True(t, ok)
	assert.Equal(t, "plant_v", plant)

	_, ok = records[0].Lookup("wbs_element")
	assert.False(t, ok, "blank cell must read as absent")
}

func TestReadExtraColumns(t *testing.T) {
	header := fullHeader() + ",release_status"
	row := strings.Repeat("x,", len(RequiredColumns)) + "REL"

	path := writeCSV(t, header, row)

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	records, err := r.Read()
	require.NoError(t, err)
	require.Len(t, records, 1)

	status, ok := records[0].Text("release_status")
	assert.True(t, ok)
	assert.Equal(t, "REL", status)
}
