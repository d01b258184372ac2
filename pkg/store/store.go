// Package store persists record sequences as compressed columnar
// dataset files and reads them back with optional predicate filters.
//
// A dataset is either a single container file or, when written with a
// partition field, a directory of per-value subdirectories each holding
// one container file. Files are chunked into bounded row groups so
// reads can skip groups whose column statistics rule out a predicate.
package store

import (
	"path/filepath"
	"sync"

	"github.com/Brashkie/tt-search/pkg/columnar"
	"github.com/Brashkie/tt-search/pkg/compression"
	"github.com/Brashkie/tt-search/pkg/models"
	"github.com/Brashkie/tt-search/pkg/tterrors"
)

// CompressionOption names a write-time compression preset.
type CompressionOption string

const (
	// CompressionNone stores column blocks uncompressed
	CompressionNone CompressionOption = "none"
	// CompressionFast favors throughput (LZ4, fastest level)
	CompressionFast CompressionOption = "fast"
	// CompressionBalanced trades speed for ratio (zstd, default level)
	CompressionBalanced CompressionOption = "balanced"
	// CompressionHigh favors ratio (zstd, best level)
	CompressionHigh CompressionOption = "high"
)

// DefaultRowGroupSize bounds rows per group so predicate evaluation
// never has to scan a whole file.
const DefaultRowGroupSize = 10000

// Options controls how a dataset is written.
type Options struct {
	Compression CompressionOption `json:"compression"`
	// PartitionBy names a schema field; rows are split into one file
	// per distinct value under the destination directory.
	PartitionBy string `json:"partitionBy,omitempty"`
	// RowGroupSize overrides DefaultRowGroupSize when positive.
	RowGroupSize int `json:"rowGroupSize,omitempty"`
}

// compressionConfig maps a preset to a concrete compressor config.
func compressionConfig(opt CompressionOption) (*compression.Config, error) {
	switch opt {
	case CompressionNone:
		return &compression.Config{Algorithm: compression.None}, nil
	case CompressionFast:
		return &compression.Config{Algorithm: compression.LZ4, Level: compression.Fastest}, nil
	case CompressionBalanced, "":
		return &compression.Config{Algorithm: compression.Zstd, Level: compression.Default}, nil
	case CompressionHigh:
		return &compression.Config{Algorithm: compression.Zstd, Level: compression.Best}, nil
	default:
		return nil, tterrors.Newf(tterrors.ErrorTypeValidation,
			"unknown compression option %q", opt)
	}
}

// columnType maps a schema field type to its columnar representation.
func columnType(ft models.FieldType) columnar.ColumnType {
	switch ft {
	case models.FieldTypeInt:
		return columnar.ColumnTypeInt
	case models.FieldTypeBool:
		return columnar.ColumnTypeBool
	case models.FieldTypeTimestamp:
		return columnar.ColumnTypeTimestamp
	case models.FieldTypeStringList:
		return columnar.ColumnTypeStringList
	default:
		return columnar.ColumnTypeString
	}
}

// columnarSchema converts a record schema to the columnar layer's schema.
func columnarSchema(schema *models.Schema) *columnar.Schema {
	cs := &columnar.Schema{}
	for _, f := range schema.Fields {
		cs.Fields = append(cs.Fields, columnar.FieldSchema{
			Name: f.Name,
			Type: columnType(f.Type),
		})
	}
	return cs
}

// pathLocks serializes writers per destination path process-wide.
// Two writes to the same file block each other; writes to different
// files proceed concurrently.
var pathLocks sync.Map

func lockPath(path string) *sync.Mutex {
	key := filepath.Clean(path)
	mu, _ := pathLocks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
