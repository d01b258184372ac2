package store

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExportFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "videos"+FileExt)
	_, err := WriteVideos(testVideos(8), path, Options{Compression: CompressionFast})
	require.NoError(t, err)
	return path
}

func TestExportJSON(t *testing.T) {
	src := writeExportFixture(t)
	out := filepath.Join(t.TempDir(), "videos.json")

	got, err := Export(src, FormatJSON, out)
	require.NoError(t, err)
	assert.Equal(t, out, got)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 8)

	// Flattened fields at top level, hashtags kept as an array.
	assert.Equal(t, "vid-0003", rows[3]["id"])
	assert.EqualValues(t, 300, rows[3]["likes"])
	tags, ok := rows[3]["hashtags"].([]interface{})
	require.True(t, ok, "hashtags stay an array in JSON")
	assert.Len(t, tags, 2)
}

func TestExportCSV(t *testing.T) {
	src := writeExportFixture(t)
	out := filepath.Join(t.TempDir(), "videos.csv")

	_, err := Export(src, FormatCSV, out)
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	lines, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, lines, 9, "header plus eight rows")

	header := lines[0]
	idIdx, tagIdx := -1, -1
	for i, name := range header {
		switch name {
		case "id":
			idIdx = i
		case "hashtags":
			tagIdx = i
		}
	}
	require.GreaterOrEqual(t, idIdx, 0)
	require.GreaterOrEqual(t, tagIdx, 0)
	assert.Equal(t, "vid-0000", lines[1][idIdx])
	assert.Equal(t, "dance,fyp", lines[1][tagIdx], "lists join with a comma in flat formats")
}

func TestExportSpreadsheet(t *testing.T) {
	src := writeExportFixture(t)
	out := filepath.Join(t.TempDir(), "videos.xlsx")

	_, err := Export(src, FormatSpreadsheet, out)
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestExportParquet(t *testing.T) {
	src := writeExportFixture(t)
	out := filepath.Join(t.TempDir(), "videos.parquet")

	_, err := Export(src, FormatParquet, out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, "PAR1", string(data[:4]), "parquet magic")
}

func TestExportUnknownFormat(t *testing.T) {
	src := writeExportFixture(t)
	_, err := Export(src, Format("xml"), filepath.Join(t.TempDir(), "out.xml"))
	assert.Error(t, err)
}
