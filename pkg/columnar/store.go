package columnar

import (
	"fmt"
	"sync"
)

// Schema defines the structure of a columnar store
type Schema struct {
	Fields []FieldSchema
}

// FieldSchema defines a single field in the schema
type FieldSchema struct {
	Name string
	Type ColumnType
}

// ColumnStore provides columnar storage for records
type ColumnStore struct {
	mu       sync.RWMutex
	columns  map[string]Column
	order    []string
	schema   *Schema
	rowCount int
}

// NewColumnStore creates a new column store
func NewColumnStore() *ColumnStore {
	return &ColumnStore{
		columns: make(map[string]Column),
	}
}

// NewColumnStoreWithSchema creates a new column store with predefined schema
func NewColumnStoreWithSchema(schema *Schema) *ColumnStore {
	store := &ColumnStore{
		columns: make(map[string]Column),
		schema:  schema,
	}

	for _, field := range schema.Fields {
		store.columns[field.Name] = CreateColumn(field.Type)
		store.order = append(store.order, field.Name)
	}

	return store
}

// CreateColumn creates a new column of the specified type
func CreateColumn(colType ColumnType) Column {
	switch colType {
	case ColumnTypeString:
		return NewStringColumn()
	case ColumnTypeInt:
		return NewIntColumn()
	case ColumnTypeFloat:
		return NewFloatColumn()
	case ColumnTypeBool:
		return NewBoolColumn()
	case ColumnTypeTimestamp:
		return NewTimestampColumn()
	case ColumnTypeStringList:
		return NewStringListColumn()
	default:
		return NewStringColumn() // Default to string
	}
}

// AddColumn adds a new column to the store
func (s *ColumnStore) AddColumn(name string, colType ColumnType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.columns[name]; exists {
		return fmt.Errorf("column %q already exists", name)
	}
	if s.rowCount > 0 {
		return fmt.Errorf("cannot add column %q to a populated store", name)
	}

	s.columns[name] = CreateColumn(colType)
	s.order = append(s.order, name)
	return nil
}

// AppendRow adds a new row to the store. The row must provide a value
// for every column; partial rows are rejected so columns never skew.
func (s *ColumnStore) AppendRow(data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range s.order {
		value, exists := data[name]
		if !exists {
			return fmt.Errorf("row missing value for column %q", name)
		}
		if err := s.columns[name].Append(value); err != nil {
			return fmt.Errorf("error appending to column %q: %w", name, err)
		}
	}

	s.rowCount++
	return nil
}

// AppendBatch adds multiple rows
func (s *ColumnStore) AppendBatch(rows []map[string]interface{}) error {
	for _, row := range rows {
		if err := s.AppendRow(row); err != nil {
			return err
		}
	}
	return nil
}

// GetRow retrieves a row by index
func (s *ColumnStore) GetRow(index int) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= s.rowCount {
		return nil, fmt.Errorf("index %d out of range [0, %d)", index, s.rowCount)
	}

	row := make(map[string]interface{})
	for name, col := range s.columns {
		row[name] = col.Get(index)
	}

	return row, nil
}

// GetColumn retrieves a column by name
func (s *ColumnStore) GetColumn(name string) (Column, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, exists := s.columns[name]
	return col, exists
}

// SetColumn replaces the named column. Used when reassembling a store
// from deserialized column blocks.
func (s *ColumnStore) SetColumn(name string, col Column) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.columns[name]; !exists {
		s.order = append(s.order, name)
	}
	s.columns[name] = col
	if col.Len() > s.rowCount {
		s.rowCount = col.Len()
	}
}

// RowCount returns the number of rows
func (s *ColumnStore) RowCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rowCount
}

// ColumnCount returns the number of columns
func (s *ColumnStore) ColumnCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.columns)
}

// ColumnNames returns column names in schema order
func (s *ColumnStore) ColumnNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// MemoryUsage returns total memory usage in bytes
func (s *ColumnStore) MemoryUsage() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64

	total += 64                         // Base struct overhead
	total += int64(len(s.columns) * 32) // Map overhead

	for name, col := range s.columns {
		total += int64(len(name))
		total += col.MemoryUsage()
	}

	return total
}

// MemoryPerRecord returns average memory usage per record
func (s *ColumnStore) MemoryPerRecord() float64 {
	if s.rowCount == 0 {
		return 0
	}
	return float64(s.MemoryUsage()) / float64(s.rowCount)
}

// Clear removes all data from the store
func (s *ColumnStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, col := range s.columns {
		col.Clear()
	}
	s.rowCount = 0
}

// Iterator provides sequential access to rows
type Iterator struct {
	store *ColumnStore
	index int
}

// NewIterator creates a new iterator over the store
func (s *ColumnStore) NewIterator() *Iterator {
	return &Iterator{
		store: s,
		index: -1,
	}
}

// Next advances to the next row
func (it *Iterator) Next() bool {
	it.index++
	return it.index < it.store.RowCount()
}

// Row returns the current row
func (it *Iterator) Row() map[string]interface{} {
	row, _ := it.store.GetRow(it.index)
	return row
}
