package columnar

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringColumnSwitchesToDictionary(t *testing.T) {
	col := NewStringColumn()

	// 200 rows from only 3 distinct authors triggers dictionary mode
	authors := []string{"dancequeen", "foodiefan", "techguy"}
	for i := 0; i < 200; i++ {
		require.NoError(t, col.Append(authors[i%3]))
	}

	assert.True(t, col.DictMode())
	assert.Equal(t, 200, col.Len())
	for i := 0; i < 200; i++ {
		assert.Equal(t, authors[i%3], col.Get(i))
	}
}

func TestStringColumnHighCardinalityStaysPlain(t *testing.T) {
	col := NewStringColumn()
	for i := 0; i < 200; i++ {
		require.NoError(t, col.Append(fmt.Sprintf("video-%d", i)))
	}
	assert.False(t, col.DictMode())
	assert.Equal(t, "video-42", col.Get(42))
}

func TestIntColumnMinMax(t *testing.T) {
	col := NewIntColumn()
	for _, v := range []int64{500, 12, 90000, 3} {
		require.NoError(t, col.Append(v))
	}
	assert.Equal(t, int64(3), col.Min())
	assert.Equal(t, int64(90000), col.Max())
	assert.Equal(t, int64(12), col.Get(1))

	assert.Error(t, col.Append("not an int"))
}

func TestBoolColumnBitPacking(t *testing.T) {
	col := NewBoolColumn()
	for i := 0; i < 130; i++ {
		require.NoError(t, col.Append(i%3 == 0))
	}
	assert.Equal(t, 130, col.Len())
	for i := 0; i < 130; i++ {
		assert.Equal(t, i%3 == 0, col.Get(i))
	}
	// 130 bools pack into 3 words
	assert.Equal(t, int64(24), col.MemoryUsage())
}

func TestStringListColumn(t *testing.T) {
	col := NewStringListColumn()
	require.NoError(t, col.Append([]string{"fyp", "dance"}))
	require.NoError(t, col.Append(nil))
	require.NoError(t, col.Append([]string{"food"}))

	assert.Equal(t, 3, col.Len())
	assert.Equal(t, []string{"fyp", "dance"}, col.Get(0))
	assert.Nil(t, col.Get(1))
}

func TestColumnStoreAppendAndIterate(t *testing.T) {
	schema := &Schema{Fields: []FieldSchema{
		{Name: "id", Type: ColumnTypeString},
		{Name: "likes", Type: ColumnTypeInt},
		{Name: "verified", Type: ColumnTypeBool},
	}}
	store := NewColumnStoreWithSchema(schema)

	require.NoError(t, store.AppendRow(map[string]interface{}{
		"id": "v1", "likes": int64(10), "verified": true,
	}))
	require.NoError(t, store.AppendRow(map[string]interface{}{
		"id": "v2", "likes": int64(20), "verified": false,
	}))

	assert.Equal(t, 2, store.RowCount())
	assert.Equal(t, []string{"id", "likes", "verified"}, store.ColumnNames())

	err := store.AppendRow(map[string]interface{}{"id": "v3"})
	assert.Error(t, err, "partial rows must be rejected")

	it := store.NewIterator()
	var ids []string
	for it.Next() {
		ids = append(ids, it.Row()["id"].(string))
	}
	assert.Equal(t, []string{"v1", "v2"}, ids)
}

func TestSerializeRoundTrip(t *testing.T) {
	t.Run("int delta encoding", func(t *testing.T) {
		col := NewIntColumn()
		for _, v := range []int64{1000, 1005, 990, 2000000, -3} {
			require.NoError(t, col.Append(v))
		}

		data, err := SerializeColumn(col)
		require.NoError(t, err)

		decoded, err := DeserializeColumn(data)
		require.NoError(t, err)

		intCol := decoded.(*IntColumn)
		assert.Equal(t, col.Len(), intCol.Len())
		assert.Equal(t, int64(-3), intCol.Min())
		assert.Equal(t, int64(2000000), intCol.Max())
		for i := 0; i < col.Len(); i++ {
			assert.Equal(t, col.Get(i), intCol.Get(i))
		}
	})

	t.Run("dictionary strings", func(t *testing.T) {
		col := NewStringColumn()
		for i := 0; i < 300; i++ {
			require.NoError(t, col.Append([]string{"a", "b"}[i%2]))
		}
		require.True(t, col.DictMode())

		data, err := SerializeColumn(col)
		require.NoError(t, err)

		decoded, err := DeserializeColumn(data)
		require.NoError(t, err)
		for i := 0; i < 300; i++ {
			assert.Equal(t, col.Get(i), decoded.Get(i))
		}
	})

	t.Run("plain strings", func(t *testing.T) {
		col := NewStringColumn()
		require.NoError(t, col.Append("hello"))
		require.NoError(t, col.Append(""))
		require.NoError(t, col.Append("búsqueda 検索"))

		data, err := SerializeColumn(col)
		require.NoError(t, err)

		decoded, err := DeserializeColumn(data)
		require.NoError(t, err)
		for i := 0; i < col.Len(); i++ {
			assert.Equal(t, col.Get(i), decoded.Get(i))
		}
	})

	t.Run("bools", func(t *testing.T) {
		col := NewBoolColumn()
		for i := 0; i < 70; i++ {
			require.NoError(t, col.Append(i%2 == 0))
		}

		data, err := SerializeColumn(col)
		require.NoError(t, err)

		decoded, err := DeserializeColumn(data)
		require.NoError(t, err)
		assert.Equal(t, 70, decoded.Len())
		for i := 0; i < 70; i++ {
			assert.Equal(t, col.Get(i), decoded.Get(i))
		}
	})

	t.Run("timestamps", func(t *testing.T) {
		col := NewTimestampColumn()
		for _, v := range []int64{1700000000, 1700000060, 1699999999} {
			require.NoError(t, col.Append(v))
		}

		data, err := SerializeColumn(col)
		require.NoError(t, err)

		decoded, err := DeserializeColumn(data)
		require.NoError(t, err)
		for i := 0; i < col.Len(); i++ {
			assert.Equal(t, col.Get(i), decoded.Get(i))
		}
	})

	t.Run("string lists", func(t *testing.T) {
		col := NewStringListColumn()
		require.NoError(t, col.Append([]string{"fyp", "dance"}))
		require.NoError(t, col.Append(nil))
		require.NoError(t, col.Append([]string{"solo"}))

		data, err := SerializeColumn(col)
		require.NoError(t, err)

		decoded, err := DeserializeColumn(data)
		require.NoError(t, err)
		assert.Equal(t, []string{"fyp", "dance"}, decoded.Get(0))
		assert.Nil(t, decoded.Get(1))
		assert.Equal(t, []string{"solo"}, decoded.Get(2))
	})

	t.Run("empty column", func(t *testing.T) {
		col := NewIntColumn()
		data, err := SerializeColumn(col)
		require.NoError(t, err)

		decoded, err := DeserializeColumn(data)
		require.NoError(t, err)
		assert.Equal(t, 0, decoded.Len())
	})
}

func TestDeserializeCorruptData(t *testing.T) {
	_, err := DeserializeColumn(nil)
	assert.Error(t, err)

	_, err = DeserializeColumn([]byte{0xFF, 0x01, 0x00, 0x00, 0x00})
	assert.Error(t, err)
}

func TestSerializeRoundTripEmptyStrings(t *testing.T) {
	t.Run("empty string ends the block", func(t *testing.T) {
		col := NewStringColumn()
		require.NoError(t, col.Append("producer"))
		require.NoError(t, col.Append(""))

		data, err := SerializeColumn(col)
		require.NoError(t, err)

		decoded, err := DeserializeColumn(data)
		require.NoError(t, err)
		require.Equal(t, 2, decoded.Len())
		assert.Equal(t, "producer", decoded.Get(0))
		assert.Equal(t, "", decoded.Get(1))
	})

	t.Run("all rows empty", func(t *testing.T) {
		col := NewStringColumn()
		for i := 0; i < 5; i++ {
			require.NoError(t, col.Append(""))
		}

		data, err := SerializeColumn(col)
		require.NoError(t, err)

		decoded, err := DeserializeColumn(data)
		require.NoError(t, err)
		require.Equal(t, 5, decoded.Len())
		for i := 0; i < 5; i++ {
			assert.Equal(t, "", decoded.Get(i))
		}
	})

	t.Run("empty list element ends the block", func(t *testing.T) {
		col := NewStringListColumn()
		require.NoError(t, col.Append([]string{"fyp", ""}))

		data, err := SerializeColumn(col)
		require.NoError(t, err)

		decoded, err := DeserializeColumn(data)
		require.NoError(t, err)
		assert.Equal(t, []string{"fyp", ""}, decoded.Get(0))
	})
}
