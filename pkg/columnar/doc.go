// Package columnar implements the typed column primitives behind the
// on-disk dataset format.
//
// # Overview
//
// The package provides:
//   - Typed columns for strings, integers, floats, booleans,
//     timestamps, and string lists
//   - Dictionary encoding for repetitive strings, switched on
//     automatically once repetition crosses a threshold
//   - Bit-packed boolean storage, 64 values per word
//   - Delta encoding with zigzag varints for integer and timestamp
//     columns
//   - A schema-driven ColumnStore assembling columns into row batches
//   - Binary serialization with full round-trip decoding
//
// # Usage
//
//	store := columnar.NewColumnStoreWithSchema(&columnar.Schema{
//	    Fields: []columnar.FieldSchema{
//	        {Name: "id", Type: columnar.ColumnTypeString},
//	        {Name: "likes", Type: columnar.ColumnTypeInt},
//	    },
//	})
//	store.AppendRow(map[string]interface{}{"id": "v1", "likes": int64(42)})
//
// Serialized column blocks are what the store layer compresses and
// writes into row groups; integer blocks carry min/max statistics so
// readers can skip row groups without decoding them.
package columnar
