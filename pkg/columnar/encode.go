package columnar

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Column block layout: a one-byte column type, a uint32 row count, then
// a type-specific body. Integer and timestamp bodies store the first
// value raw followed by zigzag-varint deltas; dictionary strings store
// the dictionary in code order followed by the code stream; booleans
// store the packed words as-is.

// SerializeColumn converts column data to a byte block for compression.
func SerializeColumn(col Column) ([]byte, error) {
	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.LittleEndian, uint8(col.Type())); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(col.Len())); err != nil {
		return nil, err
	}

	switch col.Type() {
	case ColumnTypeInt:
		intCol := col.(*IntColumn)
		// Write min/max so readers can prune without decoding values
		if err := binary.Write(&buf, binary.LittleEndian, intCol.min); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, binary.LittleEndian, intCol.max); err != nil {
			return nil, err
		}
		if err := writeDeltaValues(&buf, intCol.values); err != nil {
			return nil, err
		}

	case ColumnTypeTimestamp:
		tsCol := col.(*TimestampColumn)
		if err := writeDeltaValues(&buf, tsCol.values); err != nil {
			return nil, err
		}

	case ColumnTypeFloat:
		floatCol := col.(*FloatColumn)
		for i := 0; i < floatCol.Len(); i++ {
			if err := binary.Write(&buf, binary.LittleEndian, floatCol.values[i]); err != nil {
				return nil, err
			}
		}

	case ColumnTypeBool:
		boolCol := col.(*BoolColumn)
		// Already bit-packed, write directly
		if err := binary.Write(&buf, binary.LittleEndian, uint32(len(boolCol.values))); err != nil {
			return nil, err
		}
		for _, word := range boolCol.values {
			if err := binary.Write(&buf, binary.LittleEndian, word); err != nil {
				return nil, err
			}
		}

	case ColumnTypeString:
		strCol := col.(*StringColumn)
		if err := binary.Write(&buf, binary.LittleEndian, strCol.dictMode); err != nil {
			return nil, err
		}

		if strCol.dictMode {
			if err := binary.Write(&buf, binary.LittleEndian, uint32(len(strCol.dictVals))); err != nil {
				return nil, err
			}
			// Dictionary entries in code order, so code == position
			for _, str := range strCol.dictVals {
				if err := writeString(&buf, str); err != nil {
					return nil, err
				}
			}
			for _, code := range strCol.codes {
				if err := binary.Write(&buf, binary.LittleEndian, code); err != nil {
					return nil, err
				}
			}
		} else {
			for _, str := range strCol.values {
				if err := writeString(&buf, str); err != nil {
					return nil, err
				}
			}
		}

	case ColumnTypeStringList:
		listCol := col.(*StringListColumn)
		for _, list := range listCol.values {
			if err := binary.Write(&buf, binary.LittleEndian, uint32(len(list))); err != nil {
				return nil, err
			}
			for _, str := range list {
				if err := writeString(&buf, str); err != nil {
					return nil, err
				}
			}
		}

	default:
		return nil, fmt.Errorf("unsupported column type: %v", col.Type())
	}

	return buf.Bytes(), nil
}

// DeserializeColumn reconstructs a column from a serialized block.
func DeserializeColumn(data []byte) (Column, error) {
	buf := bytes.NewReader(data)

	var colType uint8
	if err := binary.Read(buf, binary.LittleEndian, &colType); err != nil {
		return nil, fmt.Errorf("reading column type: %w", err)
	}
	var count uint32
	if err := binary.Read(buf, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("reading column length: %w", err)
	}
	n := int(count)

	switch ColumnType(colType) {
	case ColumnTypeInt:
		col := NewIntColumn()
		if err := binary.Read(buf, binary.LittleEndian, &col.min); err != nil {
			return nil, err
		}
		if err := binary.Read(buf, binary.LittleEndian, &col.max); err != nil {
			return nil, err
		}
		values, err := readDeltaValues(buf, n)
		if err != nil {
			return nil, err
		}
		col.values = values
		return col, nil

	case ColumnTypeTimestamp:
		col := NewTimestampColumn()
		values, err := readDeltaValues(buf, n)
		if err != nil {
			return nil, err
		}
		col.values = values
		return col, nil

	case ColumnTypeFloat:
		col := NewFloatColumn()
		col.values = make([]float64, n)
		for i := 0; i < n; i++ {
			if err := binary.Read(buf, binary.LittleEndian, &col.values[i]); err != nil {
				return nil, err
			}
		}
		return col, nil

	case ColumnTypeBool:
		col := NewBoolColumn()
		var words uint32
		if err := binary.Read(buf, binary.LittleEndian, &words); err != nil {
			return nil, err
		}
		col.values = make([]uint64, words)
		for i := range col.values {
			if err := binary.Read(buf, binary.LittleEndian, &col.values[i]); err != nil {
				return nil, err
			}
		}
		col.count = n
		return col, nil

	case ColumnTypeString:
		col := NewStringColumn()
		var dictMode bool
		if err := binary.Read(buf, binary.LittleEndian, &dictMode); err != nil {
			return nil, err
		}

		if dictMode {
			var dictLen uint32
			if err := binary.Read(buf, binary.LittleEndian, &dictLen); err != nil {
				return nil, err
			}
			col.dictMode = true
			col.dictVals = make([]string, dictLen)
			for i := range col.dictVals {
				str, err := readString(buf)
				if err != nil {
					return nil, err
				}
				col.dictVals[i] = str
				col.dict[str] = uint32(i)
			}
			col.codes = make([]uint32, n)
			for i := range col.codes {
				if err := binary.Read(buf, binary.LittleEndian, &col.codes[i]); err != nil {
					return nil, err
				}
				if col.codes[i] >= dictLen {
					return nil, fmt.Errorf("dictionary code %d out of range", col.codes[i])
				}
			}
		} else {
			col.values = make([]string, n)
			for i := range col.values {
				str, err := readString(buf)
				if err != nil {
					return nil, err
				}
				col.values[i] = str
			}
		}
		return col, nil

	case ColumnTypeStringList:
		col := NewStringListColumn()
		col.values = make([][]string, n)
		for i := range col.values {
			var listLen uint32
			if err := binary.Read(buf, binary.LittleEndian, &listLen); err != nil {
				return nil, err
			}
			if listLen == 0 {
				continue
			}
			list := make([]string, listLen)
			for j := range list {
				str, err := readString(buf)
				if err != nil {
					return nil, err
				}
				list[j] = str
			}
			col.values[i] = list
		}
		return col, nil

	default:
		return nil, fmt.Errorf("unsupported column type: %d", colType)
	}
}

// writeDeltaValues writes the first value raw, then zigzag varint deltas.
func writeDeltaValues(buf *bytes.Buffer, values []int64) error {
	if len(values) == 0 {
		return nil
	}

	prev := values[0]
	if err := binary.Write(buf, binary.LittleEndian, prev); err != nil {
		return err
	}

	for i := 1; i < len(values); i++ {
		delta := values[i] - prev
		writeVarint(buf, delta)
		prev = values[i]
	}
	return nil
}

// readDeltaValues reverses writeDeltaValues.
func readDeltaValues(buf *bytes.Reader, n int) ([]int64, error) {
	if n == 0 {
		return nil, nil
	}

	values := make([]int64, n)
	if err := binary.Read(buf, binary.LittleEndian, &values[0]); err != nil {
		return nil, err
	}

	for i := 1; i < n; i++ {
		delta, err := readVarint(buf)
		if err != nil {
			return nil, err
		}
		values[i] = values[i-1] + delta
	}
	return values, nil
}

// writeVarint writes a zigzag-encoded variable-length integer
func writeVarint(buf *bytes.Buffer, v int64) {
	uv := uint64(v<<1) ^ uint64(v>>63)
	for uv >= 0x80 {
		buf.WriteByte(byte(uv) | 0x80)
		uv >>= 7
	}
	buf.WriteByte(byte(uv))
}

// readVarint reads a zigzag-encoded variable-length integer
func readVarint(buf *bytes.Reader) (int64, error) {
	var uv uint64
	var shift uint
	for {
		b, err := buf.ReadByte()
		if err != nil {
			return 0, err
		}
		uv |= uint64(b&0x7f) << shift
		if b < 0x80 {
			break
		}
		shift += 7
		if shift > 63 {
			return 0, fmt.Errorf("varint overflow")
		}
	}
	return int64(uv>>1) ^ -int64(uv&1), nil
}

func writeString(buf *bytes.Buffer, str string) error {
	if len(str) > math.MaxUint32 {
		return fmt.Errorf("string length %d exceeds maximum", len(str))
	}
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(str))); err != nil {
		return err
	}
	_, err := buf.WriteString(str)
	return err
}

func readString(buf *bytes.Reader) (string, error) {
	var strLen uint32
	if err := binary.Read(buf, binary.LittleEndian, &strLen); err != nil {
		return "", err
	}
	if int(strLen) > buf.Len() {
		return "", fmt.Errorf("string length %d exceeds remaining data", strLen)
	}
	if strLen == 0 {
		return "", nil
	}
	b := make([]byte, strLen)
	if _, err := io.ReadFull(buf, b); err != nil {
		return "", err
	}
	return string(b), nil
}
