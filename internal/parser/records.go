package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"abstract-lens/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

// nullMarkers are cell values read as absent, as spreadsheet tools export them.
var nullMarkers = map[string]bool{
	"": true, "NA": true, "N/A": true, "n/a": true, "#N/A": true, "NULL": true,
	"null": true, "NaN": true, "nan": true, "-NaN": true, "-nan": true, "<NA>": true, "None": true,
}

// LoadRecords reads a tabular file whose first row is the header.
func LoadRecords(filePath string) (models.RecordSet, error) {
	var (
		rows [][]string
		err  error
	)
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".csv":
		rows, err = readDelimited(filePath, ',')
	case ".tsv":
		rows, err = readDelimited(filePath, '\t')
	case ".xlsx":
		rows, err = readXLSX(filePath)
	case ".xlsm", ".xltx", ".xltm":
		rows, err = readExcelize(filePath)
	default:
		return models.RecordSet{}, fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return models.RecordSet{}, fmt.Errorf("failed to read %s: %w", filepath.Base(filePath), err)
	}
	rs := NewRecordSet(filePath, rows)
	log.Debug().Str("file", filePath).Strs("columns", rs.Columns).Int("rows", len(rs.Rows)).Msg("Loaded records")
	return rs, nil
}

// NewRecordSet builds a RecordSet from a header row followed by data rows.
// Missing trailing cells and null markers become null cells.
func NewRecordSet(source string, rows [][]string) models.RecordSet {
	rs := models.RecordSet{Source: source}
	if len(rows) == 0 {
		return rs
	}
	header := rows[0]
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		rs.Columns = append(rs.Columns, h)
	}
	for _, raw := range rows[1:] {
		row := make(models.Row, len(rs.Columns))
		for i, col := range rs.Columns {
			if _, seen := row[col]; seen {
				continue
			}
			var cell models.Cell
			if i < len(raw) && !nullMarkers[raw[i]] {
				cell = models.Cell{Value: raw[i], Valid: true}
			}
			row[col] = cell
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs
}

// ExtractRecords joins the non-null abstract values with single spaces in row
// order. It fails with *models.MissingColumnError before producing any text
// when the abstract column is absent.
func ExtractRecords(rs models.RecordSet) (string, error) {
	if !rs.HasColumn(models.AbstractColumn) {
		return "", &models.MissingColumnError{Column: models.AbstractColumn, Columns: rs.Columns}
	}
	values := make([]string, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		cell := row[models.AbstractColumn]
		if !cell.Valid {
			continue
		}
		values = append(values, cell.Value)
	}
	return strings.Join(values, models.RecordSeparator), nil
}

// Abstracts lists title/abstract pairs for the abstract viewer.
func Abstracts(rs models.RecordSet) []models.AbstractEntry {
	var out []models.AbstractEntry
	for _, row := range rs.Rows {
		abstract := row[models.AbstractColumn]
		if !abstract.Valid {
			continue
		}
		out = append(out, models.AbstractEntry{
			Title:    row[models.TitleColumn].Value,
			Abstract: abstract.Value,
		})
	}
	return out
}

func readDelimited(filePath string, comma rune) ([][]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// readXLSX reads the first sheet, like a data-frame loader does by default.
func readXLSX(filePath string) ([][]string, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	if len(f.Sheets) == 0 {
		return nil, nil
	}
	sheet := f.Sheets[0]
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			cells = append(cells, cell.String())
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func readExcelize(filePath string) ([][]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0])
}
