package store

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/Brashkie/tt-search/pkg/columnar"
	"github.com/Brashkie/tt-search/pkg/compression"
	"github.com/Brashkie/tt-search/pkg/logger"
	"github.com/Brashkie/tt-search/pkg/metrics"
	"github.com/Brashkie/tt-search/pkg/models"
	"github.com/Brashkie/tt-search/pkg/tterrors"
)

// Container file layout, little-endian throughout:
//
//	magic "TTCF" | version uint16 | codec (len-prefixed) | level uint8
//	schema: uint32 length + JSON models.Schema
//	row groups until EOF:
//	  rowCount uint32
//	  per column, in schema order:
//	    hasStats uint8; if 1: min int64, max int64
//	    blockLen uint32 + compressed column bytes
const (
	fileMagic     = "TTCF"
	formatVersion = 1

	// FileExt is the container file extension.
	FileExt = ".ttc"
)

// Write persists rows under destination and returns the file path(s)
// written. Without PartitionBy, destination is the target file itself.
// With PartitionBy, destination is a directory and rows split into
// one `field=value` subdirectory per distinct value.
//
// Each file is written to a temporary sibling and renamed into place
// only on full success, so a failed write never corrupts an existing
// dataset.
func Write(schema *models.Schema, rows []Row, destination string, opts Options) ([]string, error) {
	codecCfg, err := compressionConfig(opts.Compression)
	if err != nil {
		return nil, err
	}
	groupSize := opts.RowGroupSize
	if groupSize <= 0 {
		groupSize = DefaultRowGroupSize
	}

	log := logger.Get().With(
		zap.String("dataset", schema.Name),
		zap.String("destination", destination),
	)

	if opts.PartitionBy == "" {
		if err := writeFile(schema, rows, destination, codecCfg, groupSize); err != nil {
			return nil, err
		}
		log.Info("dataset written", zap.Int("rows", len(rows)))
		return []string{destination}, nil
	}

	if schema.FieldIndex(opts.PartitionBy) < 0 {
		return nil, tterrors.Newf(tterrors.ErrorTypeValidation,
			"partition field %q not in schema %q", opts.PartitionBy, schema.Name)
	}

	partitions := make(map[string][]Row)
	for _, row := range rows {
		key := partitionValue(row[opts.PartitionBy])
		partitions[key] = append(partitions[key], row)
	}

	keys := make([]string, 0, len(partitions))
	for k := range partitions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	paths := make([]string, 0, len(keys))
	for _, key := range keys {
		path := filepath.Join(destination, opts.PartitionBy+"="+key, "data"+FileExt)
		if err := writeFile(schema, partitions[key], path, codecCfg, groupSize); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	log.Info("partitioned dataset written",
		zap.Int("rows", len(rows)),
		zap.Int("partitions", len(paths)))
	return paths, nil
}

// WriteVideos persists video records, flattening them per VideoSchema.
func WriteVideos(records []*models.VideoRecord, destination string, opts Options) ([]string, error) {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = VideoRow(r)
	}
	return Write(models.VideoSchema(), rows, destination, opts)
}

// WriteUsers persists user records, flattening them per UserSchema.
func WriteUsers(records []*models.UserRecord, destination string, opts Options) ([]string, error) {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = UserRow(r)
	}
	return Write(models.UserSchema(), rows, destination, opts)
}

// WriteHashtags persists hashtag records, flattening them per HashtagSchema.
func WriteHashtags(records []*models.HashtagRecord, destination string, opts Options) ([]string, error) {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = HashtagRow(r)
	}
	return Write(models.HashtagSchema(), rows, destination, opts)
}

// partitionValue renders a partition key safe for use as a directory name.
func partitionValue(v interface{}) string {
	s := fmt.Sprintf("%v", v)
	if s == "" {
		return "_empty_"
	}
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return replacer.Replace(s)
}

func writeFile(schema *models.Schema, rows []Row, path string, codecCfg *compression.Config, groupSize int) error {
	mu := lockPath(path)
	mu.Lock()
	defer mu.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "cannot create dataset directory")
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*"+FileExt)
	if err != nil {
		return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "cannot create temporary file")
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath) // no-op after a successful rename
	}()

	comp, err := compression.NewCompressor(codecCfg)
	if err != nil {
		return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "cannot create compressor")
	}

	w := bufio.NewWriter(tmp)
	written, err := writeContainer(w, schema, rows, comp, codecCfg, groupSize)
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "flushing dataset file")
	}
	if err := tmp.Sync(); err != nil {
		return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "syncing dataset file")
	}
	if err := tmp.Close(); err != nil {
		return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "closing dataset file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "publishing dataset file")
	}

	metrics.RowsWritten.WithLabelValues(schema.Name, string(codecCfg.Algorithm)).
		Add(float64(len(rows)))
	metrics.BytesWritten.WithLabelValues(schema.Name).Add(float64(written))
	return nil
}

func writeContainer(w *bufio.Writer, schema *models.Schema, rows []Row, comp compression.Compressor, codecCfg *compression.Config, groupSize int) (int64, error) {
	var written int64
	out := func(data []byte) error {
		n, err := w.Write(data)
		written += int64(n)
		return err
	}

	// Header
	if err := out([]byte(fileMagic)); err != nil {
		return written, tterrors.Wrap(err, tterrors.ErrorTypeStorage, "writing header")
	}
	var u16 [2]byte
	binary.LittleEndian.PutUint16(u16[:], formatVersion)
	if err := out(u16[:]); err != nil {
		return written, tterrors.Wrap(err, tterrors.ErrorTypeStorage, "writing header")
	}
	codec := string(codecCfg.Algorithm)
	if err := out([]byte{byte(len(codec))}); err != nil {
		return written, tterrors.Wrap(err, tterrors.ErrorTypeStorage, "writing header")
	}
	if err := out([]byte(codec)); err != nil {
		return written, tterrors.Wrap(err, tterrors.ErrorTypeStorage, "writing header")
	}
	if err := out([]byte{byte(codecCfg.Level)}); err != nil {
		return written, tterrors.Wrap(err, tterrors.ErrorTypeStorage, "writing header")
	}
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return written, tterrors.Wrap(err, tterrors.ErrorTypeStorage, "encoding schema")
	}
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(schemaJSON)))
	if err := out(u32[:]); err != nil {
		return written, tterrors.Wrap(err, tterrors.ErrorTypeStorage, "writing schema")
	}
	if err := out(schemaJSON); err != nil {
		return written, tterrors.Wrap(err, tterrors.ErrorTypeStorage, "writing schema")
	}

	// Row groups
	for start := 0; start < len(rows); start += groupSize {
		end := start + groupSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := writeRowGroup(out, schema, rows[start:end], comp); err != nil {
			return written, err
		}
	}
	return written, nil
}

func writeRowGroup(out func([]byte) error, schema *models.Schema, rows []Row, comp compression.Compressor) error {
	cs := columnar.NewColumnStoreWithSchema(columnarSchema(schema))
	for _, row := range rows {
		if err := cs.AppendRow(row); err != nil {
			return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "building row group")
		}
	}

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(rows)))
	if err := out(u32[:]); err != nil {
		return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "writing row group")
	}

	for _, field := range schema.Fields {
		col, _ := cs.GetColumn(field.Name)
		raw, err := columnar.SerializeColumn(col)
		if err != nil {
			return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "serializing column "+field.Name)
		}
		block, err := comp.Compress(raw)
		if err != nil {
			return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "compressing column "+field.Name)
		}

		// Int statistics travel uncompressed so readers can prune
		// without touching the block.
		var stats [17]byte
		if ic, ok := col.(*columnar.IntColumn); ok && ic.Len() > 0 {
			stats[0] = 1
			binary.LittleEndian.PutUint64(stats[1:9], uint64(ic.Min()))
			binary.LittleEndian.PutUint64(stats[9:17], uint64(ic.Max()))
			if err := out(stats[:]); err != nil {
				return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "writing column stats")
			}
		} else {
			if err := out(stats[:1]); err != nil {
				return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "writing column stats")
			}
		}

		binary.LittleEndian.PutUint32(u32[:], uint32(len(block)))
		if err := out(u32[:]); err != nil {
			return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "writing column block")
		}
		if err := out(block); err != nil {
			return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "writing column block")
		}
	}
	return nil
}
