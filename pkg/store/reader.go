package store

import (
	"bufio"
	"encoding/binary"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/Brashkie/tt-search/pkg/columnar"
	"github.com/Brashkie/tt-search/pkg/compression"
	"github.com/Brashkie/tt-search/pkg/metrics"
	"github.com/Brashkie/tt-search/pkg/models"
	"github.com/Brashkie/tt-search/pkg/tterrors"
)

// FilterOp distinguishes equality from range predicates.
type FilterOp int

const (
	// OpEq matches rows whose column equals Value
	OpEq FilterOp = iota
	// OpRange matches rows whose int column lies in [Min, Max]
	OpRange
)

// Filter is one predicate over a column. Filters combine with AND.
type Filter struct {
	Column string
	Op     FilterOp
	Value  interface{}
	Min    int64
	Max    int64
}

// Eq matches rows where column equals value.
func Eq(column string, value interface{}) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

// Range matches rows where an integer column lies in [min, max] inclusive.
func Range(column string, min, max int64) Filter {
	return Filter{Column: column, Op: OpRange, Min: min, Max: max}
}

// GreaterEq matches rows where an integer column is at least min.
func GreaterEq(column string, min int64) Filter {
	return Range(column, min, math.MaxInt64)
}

// Read loads a dataset back into rows. Source may be a single
// container file or a partitioned dataset directory; all matching
// rows across partitions are concatenated in file order. Filters, if
// any, must all hold for a row to be returned.
func Read(source string, filters ...Filter) ([]Row, error) {
	_, rows, err := readDataset(source, filters)
	return rows, err
}

// ReadSchema returns the schema a dataset was written with.
func ReadSchema(source string) (*models.Schema, error) {
	paths, err := datasetFiles(source)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(paths[0])
	if err != nil {
		return nil, tterrors.Wrap(err, tterrors.ErrorTypeStorage, "opening dataset file")
	}
	defer f.Close()

	schema, _, err := readHeader(bufio.NewReader(f))
	return schema, err
}

// ReadVideos loads a video dataset back into records.
func ReadVideos(source string, filters ...Filter) ([]*models.VideoRecord, error) {
	rows, err := Read(source, filters...)
	if err != nil {
		return nil, err
	}
	records := make([]*models.VideoRecord, len(rows))
	for i, row := range rows {
		records[i] = VideoFromRow(row)
	}
	return records, nil
}

// ReadUsers loads a user dataset back into records.
func ReadUsers(source string, filters ...Filter) ([]*models.UserRecord, error) {
	rows, err := Read(source, filters...)
	if err != nil {
		return nil, err
	}
	records := make([]*models.UserRecord, len(rows))
	for i, row := range rows {
		records[i] = UserFromRow(row)
	}
	return records, nil
}

func readDataset(source string, filters []Filter) (*models.Schema, []Row, error) {
	paths, err := datasetFiles(source)
	if err != nil {
		return nil, nil, err
	}

	var schema *models.Schema
	var rows []Row
	for _, path := range paths {
		s, fileRows, err := readFile(path, filters)
		if err != nil {
			return nil, nil, err
		}
		if schema == nil {
			schema = s
		}
		rows = append(rows, fileRows...)
	}
	if schema != nil {
		metrics.RowsRead.WithLabelValues(schema.Name).Add(float64(len(rows)))
	}
	return schema, rows, nil
}

// datasetFiles resolves a source path to the container files under it.
func datasetFiles(source string) ([]string, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, tterrors.Wrap(err, tterrors.ErrorTypeNotFound, "dataset not found")
	}
	if !info.IsDir() {
		return []string{source}, nil
	}

	var paths []string
	err = filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, FileExt) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, tterrors.Wrap(err, tterrors.ErrorTypeStorage, "scanning dataset directory")
	}
	if len(paths) == 0 {
		return nil, tterrors.Newf(tterrors.ErrorTypeNotFound,
			"no dataset files under %s", source)
	}
	sort.Strings(paths)
	return paths, nil
}

func readFile(path string, filters []Filter) (*models.Schema, []Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, tterrors.Wrap(err, tterrors.ErrorTypeStorage, "opening dataset file")
	}
	defer f.Close()

	r := bufio.NewReader(f)
	schema, comp, err := readHeader(r)
	if err != nil {
		return nil, nil, err
	}

	var rows []Row
	for {
		groupRows, err := readRowGroup(r, schema, comp, filters)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, groupRows...)
	}
	return schema, rows, nil
}

func readHeader(r *bufio.Reader) (*models.Schema, compression.Compressor, error) {
	corrupt := func(msg string, err error) (*models.Schema, compression.Compressor, error) {
		if err != nil {
			return nil, nil, tterrors.Wrap(err, tterrors.ErrorTypeCorrupt, msg)
		}
		return nil, nil, tterrors.New(tterrors.ErrorTypeCorrupt, msg)
	}

	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return corrupt("truncated header", err)
	}
	if string(magic) != fileMagic {
		return corrupt("not a dataset file: bad magic", nil)
	}

	var u16 [2]byte
	if _, err := io.ReadFull(r, u16[:]); err != nil {
		return corrupt("truncated header", err)
	}
	if v := binary.LittleEndian.Uint16(u16[:]); v != formatVersion {
		return nil, nil, tterrors.Newf(tterrors.ErrorTypeCorrupt,
			"unsupported dataset format version %d", v)
	}

	codecLen, err := r.ReadByte()
	if err != nil {
		return corrupt("truncated header", err)
	}
	codec := make([]byte, codecLen)
	if _, err := io.ReadFull(r, codec); err != nil {
		return corrupt("truncated header", err)
	}
	level, err := r.ReadByte()
	if err != nil {
		return corrupt("truncated header", err)
	}

	var u32 [4]byte
	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return corrupt("truncated schema", err)
	}
	schemaJSON := make([]byte, binary.LittleEndian.Uint32(u32[:]))
	if _, err := io.ReadFull(r, schemaJSON); err != nil {
		return corrupt("truncated schema", err)
	}
	var schema models.Schema
	if err := json.Unmarshal(schemaJSON, &schema); err != nil {
		return corrupt("malformed schema", err)
	}

	comp, err := compression.NewCompressor(&compression.Config{
		Algorithm: compression.Algorithm(codec),
		Level:     compression.Level(level),
	})
	if err != nil {
		return corrupt("unknown codec", err)
	}
	return &schema, comp, nil
}

// columnStats is the pruning metadata stored ahead of an int column block.
type columnStats struct {
	ok  bool
	min int64
	max int64
}

// columnBlock is one column's compressed bytes plus its statistics.
type columnBlock struct {
	stats columnStats
	data  []byte
}

func readRowGroup(r *bufio.Reader, schema *models.Schema, comp compression.Compressor, filters []Filter) ([]Row, error) {
	var u32 [4]byte
	if _, err := io.ReadFull(r, u32[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, tterrors.Wrap(err, tterrors.ErrorTypeCorrupt, "truncated row group")
	}
	rowCount := int(binary.LittleEndian.Uint32(u32[:]))

	// First pass: read every block plus its stats, keeping the raw
	// compressed bytes until pruning has decided the group's fate.
	blocks := make(map[string]columnBlock, len(schema.Fields))
	for _, field := range schema.Fields {
		var b columnBlock
		hasStats, err := r.ReadByte()
		if err != nil {
			return nil, tterrors.Wrap(err, tterrors.ErrorTypeCorrupt, "truncated column stats")
		}
		if hasStats == 1 {
			var s [16]byte
			if _, err := io.ReadFull(r, s[:]); err != nil {
				return nil, tterrors.Wrap(err, tterrors.ErrorTypeCorrupt, "truncated column stats")
			}
			b.stats = columnStats{
				ok:  true,
				min: int64(binary.LittleEndian.Uint64(s[0:8])),
				max: int64(binary.LittleEndian.Uint64(s[8:16])),
			}
		}
		if _, err := io.ReadFull(r, u32[:]); err != nil {
			return nil, tterrors.Wrap(err, tterrors.ErrorTypeCorrupt, "truncated column block")
		}
		b.data = make([]byte, binary.LittleEndian.Uint32(u32[:]))
		if _, err := io.ReadFull(r, b.data); err != nil {
			return nil, tterrors.Wrap(err, tterrors.ErrorTypeCorrupt, "truncated column block")
		}
		blocks[field.Name] = b
	}

	if pruneGroup(blocks, filters) {
		metrics.RowGroupsPruned.Inc()
		return nil, nil
	}

	cs := columnar.NewColumnStoreWithSchema(columnarSchema(schema))
	for _, field := range schema.Fields {
		raw, err := comp.Decompress(blocks[field.Name].data)
		if err != nil {
			return nil, tterrors.Wrap(err, tterrors.ErrorTypeCorrupt, "decompressing column "+field.Name)
		}
		col, err := columnar.DeserializeColumn(raw)
		if err != nil {
			return nil, tterrors.Wrap(err, tterrors.ErrorTypeCorrupt, "decoding column "+field.Name)
		}
		if col.Len() != rowCount {
			return nil, tterrors.Newf(tterrors.ErrorTypeCorrupt,
				"column %s has %d values, expected %d", field.Name, col.Len(), rowCount)
		}
		cs.SetColumn(field.Name, col)
	}

	var rows []Row
	it := cs.NewIterator()
	for it.Next() {
		row := it.Row()
		if matchRow(row, filters) {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// pruneGroup reports whether column statistics rule out every row.
func pruneGroup(blocks map[string]columnBlock, filters []Filter) bool {
	for _, f := range filters {
		b, ok := blocks[f.Column]
		if !ok || !b.stats.ok {
			continue
		}
		switch f.Op {
		case OpRange:
			if f.Min > b.stats.max || f.Max < b.stats.min {
				return true
			}
		case OpEq:
			if v, isInt := toInt64(f.Value); isInt {
				if v < b.stats.min || v > b.stats.max {
					return true
				}
			}
		}
	}
	return false
}

// matchRow reports whether a row satisfies every filter.
func matchRow(row Row, filters []Filter) bool {
	for _, f := range filters {
		v, ok := row[f.Column]
		if !ok {
			return false
		}
		switch f.Op {
		case OpRange:
			n, isInt := toInt64(v)
			if !isInt || n < f.Min || n > f.Max {
				return false
			}
		case OpEq:
			if !valuesEqual(v, f.Value) {
				return false
			}
		}
	}
	return true
}

func valuesEqual(a, b interface{}) bool {
	if an, ok := toInt64(a); ok {
		bn, ok := toInt64(b)
		return ok && an == bn
	}
	// List columns compare element-wise; interface equality would
	// panic on slice values.
	if as, ok := a.([]string); ok {
		bs, ok := b.([]string)
		if !ok || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if as[i] != bs[i] {
				return false
			}
		}
		return true
	}
	if _, ok := b.([]string); ok {
		return false
	}
	return a == b
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}
