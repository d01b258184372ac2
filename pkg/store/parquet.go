package store

import (
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/Brashkie/tt-search/pkg/models"
	"github.com/Brashkie/tt-search/pkg/tterrors"
)

// arrowSchema converts a record schema to its Arrow equivalent.
// Timestamps export as epoch-second int64 so the values survive a
// round trip through tools that disagree about timezone handling.
func arrowSchema(schema *models.Schema) *arrow.Schema {
	fields := make([]arrow.Field, len(schema.Fields))
	for i, f := range schema.Fields {
		var dt arrow.DataType
		switch f.Type {
		case models.FieldTypeInt, models.FieldTypeTimestamp:
			dt = arrow.PrimitiveTypes.Int64
		case models.FieldTypeBool:
			dt = arrow.FixedWidthTypes.Boolean
		case models.FieldTypeStringList:
			dt = arrow.ListOf(arrow.BinaryTypes.String)
		default:
			dt = arrow.BinaryTypes.String
		}
		fields[i] = arrow.Field{Name: f.Name, Type: dt, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func exportParquet(schema *models.Schema, rows []Row, outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "creating export file")
	}
	defer f.Close()

	as := arrowSchema(schema)
	pool := memory.NewGoAllocator()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(pool),
	)
	fw, err := pqarrow.NewFileWriter(as, f, props, arrowProps)
	if err != nil {
		return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "creating parquet writer")
	}

	builder := array.NewRecordBuilder(pool, as)
	defer builder.Release()

	for _, row := range rows {
		for i, field := range as.Fields() {
			if err := appendArrowValue(builder.Field(i), row[field.Name]); err != nil {
				fw.Close()
				return tterrors.Wrap(err, tterrors.ErrorTypeStorage,
					"building parquet column "+field.Name)
			}
		}
	}

	record := builder.NewRecord()
	defer record.Release()

	if err := fw.WriteBuffered(record); err != nil {
		fw.Close()
		return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "writing parquet rows")
	}
	if err := fw.Close(); err != nil {
		return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "closing parquet writer")
	}
	return nil
}

func appendArrowValue(builder array.Builder, value interface{}) error {
	if value == nil {
		builder.AppendNull()
		return nil
	}

	switch b := builder.(type) {
	case *array.StringBuilder:
		if v, ok := value.(string); ok {
			b.Append(v)
		} else {
			b.Append(fmt.Sprintf("%v", value))
		}

	case *array.Int64Builder:
		if v, ok := toInt64(value); ok {
			b.Append(v)
		} else {
			b.AppendNull()
		}

	case *array.BooleanBuilder:
		if v, ok := value.(bool); ok {
			b.Append(v)
		} else {
			b.AppendNull()
		}

	case *array.ListBuilder:
		vb, ok := b.ValueBuilder().(*array.StringBuilder)
		if !ok {
			return fmt.Errorf("unsupported list element builder %T", b.ValueBuilder())
		}
		list, ok := value.([]string)
		if !ok {
			b.AppendNull()
			return nil
		}
		b.Append(true)
		for _, s := range list {
			vb.Append(s)
		}

	default:
		return fmt.Errorf("unsupported builder type %T", builder)
	}
	return nil
}
