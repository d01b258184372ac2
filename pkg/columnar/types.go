// Package columnar provides the in-memory columnar representation
// behind the on-disk store: typed columns with dictionary encoding for
// repetitive strings, bit-packed booleans, and delta-encoded integers.
package columnar

import (
	"fmt"
	"time"
)

// ColumnType represents the data type of a column
type ColumnType int

const (
	ColumnTypeString ColumnType = iota
	ColumnTypeInt
	ColumnTypeFloat
	ColumnTypeBool
	ColumnTypeTimestamp
	ColumnTypeStringList
)

// Column is the base interface for all column types
type Column interface {
	Type() ColumnType
	Len() int
	Get(i int) interface{}
	Append(value interface{}) error
	Clear()
	MemoryUsage() int64
}

// StringColumn stores string values efficiently
type StringColumn struct {
	values []string
	// Dictionary encoding for repeated values
	dict      map[string]uint32
	dictVals  []string // code -> value
	codes     []uint32
	dictMode  bool
	threshold float64 // Switch to dictionary when repetition > threshold
}

// NewStringColumn creates a new string column
func NewStringColumn() *StringColumn {
	return &StringColumn{
		values:    make([]string, 0, 1024),
		dict:      make(map[string]uint32),
		codes:     make([]uint32, 0, 1024),
		threshold: 0.5, // Use dict if >50% values are repeated
	}
}

func (c *StringColumn) Type() ColumnType { return ColumnTypeString }
func (c *StringColumn) Len() int {
	if c.dictMode {
		return len(c.codes)
	}
	return len(c.values)
}

func (c *StringColumn) Get(i int) interface{} {
	if c.dictMode {
		return c.dictVals[c.codes[i]]
	}
	return c.values[i]
}

func (c *StringColumn) Append(value interface{}) error {
	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}

	if c.dictMode {
		if code, exists := c.dict[str]; exists {
			c.codes = append(c.codes, code)
		} else {
			newCode := uint32(len(c.dict))
			c.dict[str] = newCode
			c.dictVals = append(c.dictVals, str)
			c.codes = append(c.codes, newCode)
		}
	} else {
		c.values = append(c.values, str)

		// Check if we should switch to dictionary mode
		if len(c.values) > 100 && c.shouldUseDictionary() {
			c.convertToDictionary()
		}
	}

	return nil
}

func (c *StringColumn) shouldUseDictionary() bool {
	unique := make(map[string]struct{})
	for _, v := range c.values {
		unique[v] = struct{}{}
	}
	ratio := float64(len(unique)) / float64(len(c.values))
	return ratio < c.threshold
}

func (c *StringColumn) convertToDictionary() {
	c.dictMode = true
	c.dict = make(map[string]uint32)
	c.dictVals = c.dictVals[:0]
	c.codes = make([]uint32, 0, len(c.values))

	for _, v := range c.values {
		if code, exists := c.dict[v]; exists {
			c.codes = append(c.codes, code)
		} else {
			newCode := uint32(len(c.dict))
			c.dict[v] = newCode
			c.dictVals = append(c.dictVals, v)
			c.codes = append(c.codes, newCode)
		}
	}

	// Clear values to free memory
	c.values = nil
}

// DictMode reports whether the column switched to dictionary encoding.
func (c *StringColumn) DictMode() bool { return c.dictMode }

func (c *StringColumn) Clear() {
	c.values = c.values[:0]
	c.codes = c.codes[:0]
	c.dict = make(map[string]uint32)
	c.dictVals = c.dictVals[:0]
	c.dictMode = false
}

func (c *StringColumn) MemoryUsage() int64 {
	var total int64

	if c.dictMode {
		for _, v := range c.dictVals {
			total += int64(len(v)) // String bytes
			total += 4             // uint32 code
		}
		total += int64(len(c.codes) * 4) // codes array
	} else {
		for _, v := range c.values {
			total += int64(len(v))
			total += 16 // string header overhead
		}
	}

	return total
}

// IntColumn stores integer values with running min/max statistics.
type IntColumn struct {
	values   []int64
	min, max int64
}

// NewIntColumn creates a new integer column
func NewIntColumn() *IntColumn {
	return &IntColumn{
		values: make([]int64, 0, 1024),
	}
}

func (c *IntColumn) Type() ColumnType { return ColumnTypeInt }
func (c *IntColumn) Len() int         { return len(c.values) }

func (c *IntColumn) Get(i int) interface{} {
	return c.values[i]
}

// Min returns the smallest appended value. Valid only when Len() > 0.
func (c *IntColumn) Min() int64 { return c.min }

// Max returns the largest appended value. Valid only when Len() > 0.
func (c *IntColumn) Max() int64 { return c.max }

func (c *IntColumn) Append(value interface{}) error {
	var intVal int64
	switch v := value.(type) {
	case int:
		intVal = int64(v)
	case int64:
		intVal = v
	case int32:
		intVal = int64(v)
	default:
		return fmt.Errorf("expected int, got %T", value)
	}

	if len(c.values) == 0 {
		c.min = intVal
		c.max = intVal
	} else {
		if intVal < c.min {
			c.min = intVal
		}
		if intVal > c.max {
			c.max = intVal
		}
	}

	c.values = append(c.values, intVal)
	return nil
}

func (c *IntColumn) Clear() {
	c.values = c.values[:0]
	c.min = 0
	c.max = 0
}

func (c *IntColumn) MemoryUsage() int64 {
	return int64(len(c.values) * 8) // 8 bytes per int64
}

// FloatColumn stores floating point values
type FloatColumn struct {
	values []float64
}

// NewFloatColumn creates a new float column
func NewFloatColumn() *FloatColumn {
	return &FloatColumn{
		values: make([]float64, 0, 1024),
	}
}

func (c *FloatColumn) Type() ColumnType { return ColumnTypeFloat }
func (c *FloatColumn) Len() int         { return len(c.values) }

func (c *FloatColumn) Get(i int) interface{} {
	return c.values[i]
}

func (c *FloatColumn) Append(value interface{}) error {
	var floatVal float64
	switch v := value.(type) {
	case float64:
		floatVal = v
	case float32:
		floatVal = float64(v)
	default:
		return fmt.Errorf("expected float, got %T", value)
	}

	c.values = append(c.values, floatVal)
	return nil
}

func (c *FloatColumn) Clear() {
	c.values = c.values[:0]
}

func (c *FloatColumn) MemoryUsage() int64 {
	return int64(len(c.values) * 8) // 8 bytes per float64
}

// BoolColumn stores boolean values bit-packed, 64 per word.
type BoolColumn struct {
	values []uint64
	count  int
}

// NewBoolColumn creates a new boolean column
func NewBoolColumn() *BoolColumn {
	return &BoolColumn{
		values: make([]uint64, 0, 16),
	}
}

func (c *BoolColumn) Type() ColumnType { return ColumnTypeBool }
func (c *BoolColumn) Len() int         { return c.count }

func (c *BoolColumn) Get(i int) interface{} {
	wordIndex := i / 64
	bitIndex := i % 64
	return (c.values[wordIndex] & (1 << bitIndex)) != 0
}

func (c *BoolColumn) Append(value interface{}) error {
	boolVal, ok := value.(bool)
	if !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}

	wordIndex := c.count / 64
	bitIndex := c.count % 64

	// Grow if needed
	if wordIndex >= len(c.values) {
		c.values = append(c.values, 0)
	}

	if boolVal {
		c.values[wordIndex] |= (1 << bitIndex)
	}

	c.count++
	return nil
}

func (c *BoolColumn) Clear() {
	c.values = c.values[:0]
	c.count = 0
}

func (c *BoolColumn) MemoryUsage() int64 {
	return int64(len(c.values) * 8) // 8 bytes per uint64
}

// TimestampColumn stores epoch-second timestamps.
type TimestampColumn struct {
	values []int64
}

// NewTimestampColumn creates a new timestamp column
func NewTimestampColumn() *TimestampColumn {
	return &TimestampColumn{
		values: make([]int64, 0, 1024),
	}
}

func (c *TimestampColumn) Type() ColumnType { return ColumnTypeTimestamp }
func (c *TimestampColumn) Len() int         { return len(c.values) }

// Get returns the timestamp at i as epoch seconds.
func (c *TimestampColumn) Get(i int) interface{} {
	return c.values[i]
}

func (c *TimestampColumn) Append(value interface{}) error {
	var timestamp int64
	switch v := value.(type) {
	case time.Time:
		timestamp = v.Unix()
	case int64:
		timestamp = v
	default:
		return fmt.Errorf("expected timestamp, got %T", value)
	}

	c.values = append(c.values, timestamp)
	return nil
}

func (c *TimestampColumn) Clear() {
	c.values = c.values[:0]
}

func (c *TimestampColumn) MemoryUsage() int64 {
	return int64(len(c.values) * 8) // 8 bytes per int64
}

// StringListColumn stores ordered string sequences, one per row.
// Hashtag lists are the main user; most rows carry only a few entries.
type StringListColumn struct {
	values [][]string
}

// NewStringListColumn creates a new string list column
func NewStringListColumn() *StringListColumn {
	return &StringListColumn{
		values: make([][]string, 0, 1024),
	}
}

func (c *StringListColumn) Type() ColumnType { return ColumnTypeStringList }
func (c *StringListColumn) Len() int         { return len(c.values) }

func (c *StringListColumn) Get(i int) interface{} {
	return c.values[i]
}

func (c *StringListColumn) Append(value interface{}) error {
	switch v := value.(type) {
	case []string:
		c.values = append(c.values, v)
	case nil:
		c.values = append(c.values, nil)
	default:
		return fmt.Errorf("expected []string, got %T", value)
	}
	return nil
}

func (c *StringListColumn) Clear() {
	c.values = c.values[:0]
}

func (c *StringListColumn) MemoryUsage() int64 {
	var total int64
	for _, list := range c.values {
		total += 24 // slice header
		for _, v := range list {
			total += int64(len(v)) + 16
		}
	}
	return total
}
