package parser

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"abstract-lens/internal/models"

	"github.com/jung-kurt/gofpdf"
)

func TestKindForPath(t *testing.T) {
	cases := map[string]models.InputKind{
		"a.csv":  models.KindTabular,
		"a.XLSX": models.KindTabular,
		"a.tsv":  models.KindTabular,
		"a.pdf":  models.KindDocument,
		"a.docx": models.KindDocument,
		"a.md":   models.KindDocument,
		"a.html": models.KindDocument,
	}
	for path, want := range cases {
		got, err := KindForPath(path)
		if err != nil || got != want {
			t.Errorf("KindForPath(%q) = %q, %v; want %q", path, got, err, want)
		}
	}
	if _, err := KindForPath("a.exe"); !errors.Is(err, models.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestParseDocument_TextPages(t *testing.T) {
	path := writeFile(t, "notes.txt", "Page one text.\fPage two text.")
	doc, err := ParseDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("pages = %d", len(doc.Pages))
	}
	if doc.Text != "Page one text.\nPage two text.\n" {
		t.Fatalf("text = %q", doc.Text)
	}
}

func TestParseDocument_EmptyPageKeepsSeparator(t *testing.T) {
	path := writeFile(t, "notes.txt", "Only page one.\f")
	doc, err := ParseDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Text != "Only page one.\n\n" {
		t.Fatalf("text = %q", doc.Text)
	}
}

func TestParseDocument_EmptyFile(t *testing.T) {
	path := writeFile(t, "empty.txt", "")
	doc, err := ParseDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	if !doc.Empty() || doc.Text != "" {
		t.Fatalf("expected empty document, got %q", doc.Text)
	}
}

func TestParseDocument_Markdown(t *testing.T) {
	src := "# Gene Editing\n\nCRISPR **edits** genomes.\nMutation rates [vary](http://x.test).\n\n<div>hidden</div>\n\n```\ncode stays\n```\n"
	path := writeFile(t, "notes.md", src)
	doc, err := ParseDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Gene Editing", "CRISPR edits genomes.", "Mutation rates vary.", "code stays"} {
		if !strings.Contains(doc.Text, want) {
			t.Errorf("expected %q in %q", want, doc.Text)
		}
	}
	if strings.Contains(doc.Text, "**") || strings.Contains(doc.Text, "hidden") {
		t.Fatalf("markup leaked into %q", doc.Text)
	}
}

func TestParseDocument_HTML(t *testing.T) {
	src := `<html><head><title>T</title><style>p{}</style></head><body><p>Alpha beta.</p><script>var x;</script><p>Gamma.</p></body></html>`
	path := writeFile(t, "page.html", src)
	doc, err := ParseDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc.Text, "Alpha beta.") || !strings.Contains(doc.Text, "Gamma.") {
		t.Fatalf("missing text: %q", doc.Text)
	}
	if strings.Contains(doc.Text, "var x") || strings.Contains(doc.Text, "p{}") {
		t.Fatalf("script or style leaked: %q", doc.Text)
	}
}

func writeZip(t *testing.T, name string, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for n, content := range files {
		w, err := zw.Create(n)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseDocument_PPTXSlidesInOrder(t *testing.T) {
	slide := func(text string) string {
		return `<p:sld xmlns:a="a" xmlns:p="p"><p:cSld><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:cSld></p:sld>`
	}
	path := writeZip(t, "deck.pptx", map[string]string{
		"ppt/slides/slide10.xml":           slide("Tenth"),
		"ppt/slides/slide2.xml":            slide("Second &amp; more"),
		"ppt/slides/slide1.xml":            slide("First"),
		"ppt/slides/_rels/slide1.xml.rels": "<Relationships/>",
	})
	doc, err := ParseDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"First", "Second & more", "Tenth"}
	if len(doc.Pages) != len(want) {
		t.Fatalf("pages = %q", doc.Pages)
	}
	for i := range want {
		if doc.Pages[i] != want[i] {
			t.Fatalf("page %d = %q, want %q", i, doc.Pages[i], want[i])
		}
	}
}

func TestParseDocument_DOCX(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="w"><w:body>` +
		`<w:p><w:r><w:t>CRISPR edits genomes.</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Mutation rates vary.</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	path := writeZip(t, "paper.docx", map[string]string{
		"word/document.xml":            body,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	})
	doc, err := ParseDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Text != "CRISPR edits genomes.\nMutation rates vary.\n" {
		t.Fatalf("text = %q", doc.Text)
	}
}

func TestParseDocument_PDF(t *testing.T) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()
	pdf.Cell(40, 10, "Genome sequencing")
	pdf.AddPage()
	path := filepath.Join(t.TempDir(), "paper.pdf")
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatal(err)
	}

	doc, err := ParseDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("pages = %d", len(doc.Pages))
	}
	if !strings.Contains(doc.Pages[0], "Genome") {
		t.Fatalf("page 1 = %q", doc.Pages[0])
	}
	if strings.TrimSpace(doc.Pages[1]) != "" {
		t.Fatalf("page 2 = %q", doc.Pages[1])
	}
	if !strings.HasSuffix(doc.Text, "\n") {
		t.Fatalf("text should end with the page separator: %q", doc.Text)
	}
}

func TestParseDocument_PDFUnreadablePage(t *testing.T) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()
	pdf.Text(20, 20, "Genome sequencing")
	pdf.AddPage()
	pdf.Text(20, 20, "Broken page")
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatal(err)
	}

	// blank out the operand so page 2 shows text with a bare Tj; the
	// length is unchanged so the xref offsets stay valid
	operand := []byte("(Broken page)")
	if bytes.Count(buf.Bytes(), operand) != 1 {
		t.Fatalf("expected one content operand in the generated PDF")
	}
	data := bytes.Replace(buf.Bytes(), operand, bytes.Repeat([]byte(" "), len(operand)), 1)
	path := filepath.Join(t.TempDir(), "damaged.pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := ParseDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("pages = %d", len(doc.Pages))
	}
	if !strings.Contains(doc.Pages[0], "Genome") {
		t.Fatalf("page 1 = %q", doc.Pages[0])
	}
	if doc.Pages[1] != "" {
		t.Fatalf("page 2 = %q", doc.Pages[1])
	}
	if doc.Text != doc.Pages[0]+"\n\n" {
		t.Fatalf("text = %q", doc.Text)
	}
}

func TestPageText_Failures(t *testing.T) {
	cases := []struct {
		name    string
		extract func() (string, error)
		want    string
	}{
		{"ok", func() (string, error) { return "Cells divide", nil }, "Cells divide"},
		{"error", func() (string, error) { return "partial", errors.New("bad stream") }, ""},
		{"panic", func() (string, error) { panic("malformed content") }, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := pageText(3, tc.extract); got != tc.want {
				t.Fatalf("pageText = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseDocument_MissingFile(t *testing.T) {
	if _, err := ParseDocument(filepath.Join(t.TempDir(), "gone.pdf")); err == nil {
		t.Fatal("expected error")
	}
}
