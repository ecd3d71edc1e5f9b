// Package csv provides CSV file reading for tabular PR data.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/procurewatch/prguard/pkg/features"
	prio "github.com/procurewatch/prguard/pkg/io"
)

var _ prio.RecordReader = (*Reader)(nil)

// RequiredColumns are the columns a training export must carry.
// A file missing any of them is rejected at load time.
var RequiredColumns = []string{
	// Header fields
	"pr_number",
	"pr_date",
	"pr_type",
	"company_code",
	"plant",
	"purchasing_group",
	"created_by",

	// Item fields
	"item_number",
	"material_group",
	"quantity",
	"unit",
	"net_price",
	"currency",
	"delivery_date",

	// Cost assignment
	"gl_account",
	"cost_center",
	"wbs_element",
	"order_number",
	"profit_center",

	// Text
	"short_text",
	"header_text",
}

// Reader reads PR records from CSV files. The first row must be a
// header naming every required column; extra columns pass through.
type Reader struct {
	file    *os.File
	reader  *csv.Reader
	headers []string
}

// NewReader opens filename and validates its header row.
func NewReader(filename string) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(file)
	cr.FieldsPerRecord = -1

	headers, err := cr.Read()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("read header: %w", err)
	}

	if missing := missingColumns(headers); len(missing) > 0 {
		file.Close()
		return nil, fmt.Errorf("missing required columns: %v", missing)
	}

	return &Reader{file: file, reader: cr, headers: headers}, nil
}

// Headers returns the column headers.
func (r *Reader) Headers() []string {
	return r.headers
}

// Read returns all rows as raw records. Blank cells become absent
// fields so that downstream encoding treats them as missing values.
func (r *Reader) Read() ([]features.Record, error) {
	var records []features.Record

	for {
		row, err := r.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		fields := make(map[string]any, len(r.headers))
		for i, col := range r.headers {
			if i >= len(row) || row[i] == "" {
				continue
			}
			fields[col] = row[i]
		}
		records = append(records, features.NewRecord(fields))
	}

	return records, nil
}

// Close releases resources.
func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

func missingColumns(headers []string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}

	var missing []string
	for _, col := range RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}
