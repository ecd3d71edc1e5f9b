// Package io provides input/output utilities for data ingestion.
package io

import "github.com/procurewatch/prguard/pkg/features"

// RecordReader is the interface for reading raw PR records from a
// tabular source.
type RecordReader interface {
	// Read returns the complete dataset as raw records.
	Read() ([]features.Record, error)

	// Close releases resources.
	Close() error
}
