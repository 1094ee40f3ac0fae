package parser

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"abstract-lens/internal/models"

	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractRecords_ScenarioA(t *testing.T) {
	path := writeFile(t, "abstracts.csv", "title,abstract\nOne,CRISPR edits genomes.\nTwo,Mutation rates vary.\n")
	rs, err := LoadRecords(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	text, err := ExtractRecords(rs)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if text != "CRISPR edits genomes. Mutation rates vary." {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractRecords_MissingColumn(t *testing.T) {
	inputs := []models.RecordSet{
		NewRecordSet("a", [][]string{{"title", "summary"}, {"x", "y"}}),
		NewRecordSet("b", [][]string{{"Abstract"}, {"case matters"}}),
		NewRecordSet("c", nil),
		NewRecordSet("d", [][]string{{"abstract "}, {"trailing space"}}),
	}
	for _, rs := range inputs {
		text, err := ExtractRecords(rs)
		var mce *models.MissingColumnError
		if !errors.As(err, &mce) {
			t.Fatalf("%s: expected MissingColumnError, got %v", rs.Source, err)
		}
		if mce.Column != "abstract" {
			t.Fatalf("column = %q", mce.Column)
		}
		if text != "" {
			t.Fatalf("%s: expected no text, got %q", rs.Source, text)
		}
	}
}

func TestExtractRecords_DropsNulls(t *testing.T) {
	rs := NewRecordSet("mem", [][]string{
		{"abstract", "title"},
		{"first", "A"},
		{"", "B"},
		{"NaN", "C"},
		{"42", "D"},
		{},
		{"last"},
	})
	text, err := ExtractRecords(rs)
	if err != nil {
		t.Fatal(err)
	}
	if text != "first 42 last" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractRecords_AllNull(t *testing.T) {
	rs := NewRecordSet("mem", [][]string{{"abstract"}, {""}, {"NA"}})
	text, err := ExtractRecords(rs)
	if err != nil || text != "" {
		t.Fatalf("expected empty text without error, got %q, %v", text, err)
	}
}

func TestLoadRecords_TSVAndBOM(t *testing.T) {
	path := writeFile(t, "abstracts.tsv", "\ufeffabstract\ttitle\nGene drives spread.\tG\n")
	rs, err := LoadRecords(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rs.Columns, []string{"abstract", "title"}) {
		t.Fatalf("columns = %q", rs.Columns)
	}
	text, _ := ExtractRecords(rs)
	if text != "Gene drives spread." {
		t.Fatalf("text = %q", text)
	}
}

func TestLoadRecords_XLSX(t *testing.T) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Sheet1")
	if err != nil {
		t.Fatal(err)
	}
	for _, values := range [][]string{{"title", "abstract"}, {"T1", "Proteins fold."}, {"T2", "Cells divide."}} {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().Value = v
		}
	}
	path := filepath.Join(t.TempDir(), "abstracts.xlsx")
	if err := file.Save(path); err != nil {
		t.Fatal(err)
	}

	rs, err := LoadRecords(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	text, err := ExtractRecords(rs)
	if err != nil {
		t.Fatal(err)
	}
	if text != "Proteins fold. Cells divide." {
		t.Fatalf("text = %q", text)
	}
	entries := Abstracts(rs)
	if len(entries) != 2 || entries[1].Title != "T2" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestLoadRecords_XLSM(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	cells := map[string]string{"A1": "abstract", "A2": "Viruses mutate.", "A4": "Hosts adapt."}
	for ref, v := range cells {
		if err := f.SetCellValue(sheet, ref, v); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "abstracts.xlsm")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	rs, err := LoadRecords(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	text, err := ExtractRecords(rs)
	if err != nil {
		t.Fatal(err)
	}
	if text != "Viruses mutate. Hosts adapt." {
		t.Fatalf("text = %q", text)
	}
}

func TestLoadRecords_Unsupported(t *testing.T) {
	_, err := LoadRecords("data.json")
	if !errors.Is(err, models.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
