package store

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/Brashkie/tt-search/pkg/tterrors"
)

// DatasetStats summarizes a dataset on disk.
type DatasetStats struct {
	Dataset   string `json:"dataset"`
	Files     int    `json:"files"`
	Rows      int    `json:"rows"`
	Columns   int    `json:"columns"`
	RowGroups int    `json:"rowGroups"`
	SizeBytes int64  `json:"sizeBytes"`
	Codec     string `json:"codec"`
}

// Stats inspects a dataset without decompressing any column data:
// it walks the row-group index of every file, counting rows and
// groups from the block framing alone.
func Stats(source string) (*DatasetStats, error) {
	paths, err := datasetFiles(source)
	if err != nil {
		return nil, err
	}

	stats := &DatasetStats{Files: len(paths)}
	for _, path := range paths {
		if err := scanFile(path, stats); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

func scanFile(path string, stats *DatasetStats) error {
	info, err := os.Stat(path)
	if err != nil {
		return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "stat dataset file")
	}
	stats.SizeBytes += info.Size()

	f, err := os.Open(path)
	if err != nil {
		return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "opening dataset file")
	}
	defer f.Close()

	r := bufio.NewReader(f)
	schema, comp, err := readHeader(r)
	if err != nil {
		return err
	}
	stats.Dataset = schema.Name
	stats.Columns = len(schema.Fields)
	stats.Codec = string(comp.Algorithm())

	var u32 [4]byte
	for {
		if _, err := io.ReadFull(r, u32[:]); err != nil {
			if err == io.EOF {
				return nil
			}
			return tterrors.Wrap(err, tterrors.ErrorTypeCorrupt, "truncated row group")
		}
		stats.Rows += int(binary.LittleEndian.Uint32(u32[:]))
		stats.RowGroups++

		for range schema.Fields {
			hasStats, err := r.ReadByte()
			if err != nil {
				return tterrors.Wrap(err, tterrors.ErrorTypeCorrupt, "truncated column stats")
			}
			if hasStats == 1 {
				if _, err := r.Discard(16); err != nil {
					return tterrors.Wrap(err, tterrors.ErrorTypeCorrupt, "truncated column stats")
				}
			}
			if _, err := io.ReadFull(r, u32[:]); err != nil {
				return tterrors.Wrap(err, tterrors.ErrorTypeCorrupt, "truncated column block")
			}
			if _, err := r.Discard(int(binary.LittleEndian.Uint32(u32[:]))); err != nil {
				return tterrors.Wrap(err, tterrors.ErrorTypeCorrupt, "truncated column block")
			}
		}
	}
}
