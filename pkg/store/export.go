package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/xuri/excelize/v2"

	"github.com/Brashkie/tt-search/pkg/models"
	"github.com/Brashkie/tt-search/pkg/tterrors"
)

// Format names an export target format.
type Format string

const (
	// FormatJSON writes an array of flattened row objects
	FormatJSON Format = "json"
	// FormatCSV writes a header row plus one line per record
	FormatCSV Format = "csv"
	// FormatSpreadsheet writes an xlsx workbook
	FormatSpreadsheet Format = "spreadsheet"
	// FormatParquet writes an Apache Parquet file
	FormatParquet Format = "parquet"
)

// listSeparator joins hashtag lists in flat formats.
const listSeparator = ","

// Export reads a dataset and writes a full row-oriented copy in the
// chosen format. Nested record fields are already flat in the row
// shape; string lists serialize as a comma-joined cell in flat
// formats while JSON and Parquet keep the array.
func Export(source string, format Format, outPath string) (string, error) {
	schema, rows, err := readDataset(source, nil)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", tterrors.Wrap(err, tterrors.ErrorTypeStorage, "cannot create output directory")
	}

	switch format {
	case FormatJSON:
		err = exportJSON(schema, rows, outPath)
	case FormatCSV:
		err = exportCSV(schema, rows, outPath)
	case FormatSpreadsheet:
		err = exportSpreadsheet(schema, rows, outPath)
	case FormatParquet:
		err = exportParquet(schema, rows, outPath)
	default:
		return "", tterrors.Newf(tterrors.ErrorTypeValidation, "unknown export format %q", format)
	}
	if err != nil {
		return "", err
	}
	return outPath, nil
}

func exportJSON(schema *models.Schema, rows []Row, outPath string) error {
	ordered := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		ordered[i] = row
	}
	data, err := json.MarshalIndent(ordered, "", "  ")
	if err != nil {
		return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "encoding export")
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "writing export file")
	}
	return nil
}

func exportCSV(schema *models.Schema, rows []Row, outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "creating export file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(schema.FieldNames()); err != nil {
		return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "writing export header")
	}
	line := make([]string, len(schema.Fields))
	for _, row := range rows {
		for i, field := range schema.Fields {
			line[i] = flatValue(row[field.Name])
		}
		if err := w.Write(line); err != nil {
			return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "writing export row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "flushing export file")
	}
	return nil
}

func exportSpreadsheet(schema *models.Schema, rows []Row, outPath string) error {
	wb := excelize.NewFile()
	defer wb.Close()

	sheet := wb.GetSheetName(0)
	for i, name := range schema.FieldNames() {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "building spreadsheet")
		}
		if err := wb.SetCellValue(sheet, cell, name); err != nil {
			return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "building spreadsheet")
		}
	}
	for r, row := range rows {
		for i, field := range schema.Fields {
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "building spreadsheet")
			}
			v := row[field.Name]
			if list, ok := v.([]string); ok {
				v = strings.Join(list, listSeparator)
			}
			if err := wb.SetCellValue(sheet, cell, v); err != nil {
				return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "building spreadsheet")
			}
		}
	}
	if err := wb.SaveAs(outPath); err != nil {
		return tterrors.Wrap(err, tterrors.ErrorTypeStorage, "writing spreadsheet")
	}
	return nil
}

// flatValue renders a row value as a single CSV cell.
func flatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, listSeparator)
	default:
		return fmt.Sprintf("%v", t)
	}
}
