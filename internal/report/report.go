package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"abstract-lens/internal/models"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/charmap"
)

const (
	coreFamily    = "Helvetica"
	unicodeFamily = "body"
)

type Report struct {
	Source    string
	Generated time.Time
	Table     models.FrequencyTable
	Cloud     []models.CloudWord
	Summary   string
	// FontPath names a TrueType font used for all text. Without it the
	// built-in Helvetica is used, which only covers Windows-1252.
	FontPath string
}

// document wraps the PDF with the font family and text translation in use.
type document struct {
	pdf    *gofpdf.Fpdf
	family string
	tr     func(string) string
}

func newDocument(r Report) (*document, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	if r.FontPath == "" {
		if term, ok := outsideCP1252(r); ok {
			log.Warn().Str("term", term).Msg("Report font cannot show every term, set report.font_path to a TrueType font")
		}
		return &document{pdf: pdf, family: coreFamily, tr: pdf.UnicodeTranslatorFromDescriptor("")}, nil
	}
	ttf, err := os.ReadFile(r.FontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load report font: %w", err)
	}
	for _, style := range []string{"", "B", "I"} {
		pdf.AddUTF8FontFromBytes(unicodeFamily, style, ttf)
	}
	return &document{pdf: pdf, family: unicodeFamily, tr: func(s string) string { return s }}, nil
}

// outsideCP1252 returns the first text of r with a rune Helvetica cannot show.
func outsideCP1252(r Report) (string, bool) {
	texts := []string{r.Source, r.Summary}
	for _, tc := range r.Table.Terms {
		texts = append(texts, tc.Term)
	}
	for _, text := range texts {
		for _, c := range text {
			if _, ok := charmap.Windows1252.EncodeRune(c); !ok {
				return text, true
			}
		}
	}
	return "", false
}

// Render lays out the report: header, word cloud, keyword table and the
// summary when one exists.
func Render(w io.Writer, r Report) error {
	d, err := newDocument(r)
	if err != nil {
		return err
	}
	pdf, tr := d.pdf, d.tr
	pdf.SetTitle("Abstract analysis", true)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(d.family, "B", 16)
	pdf.CellFormat(0, 10, tr("Abstract analysis"), "", 1, "L", false, 0, "")
	pdf.SetFont(d.family, "", 10)
	generated := r.Generated
	if generated.IsZero() {
		generated = time.Now()
	}
	pdf.CellFormat(0, 6, tr("Source: "+r.Source), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Generated: "+generated.Format(time.RFC1123), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Tokens: %d  Vocabulary: %d", r.Table.TokenCount, r.Table.Vocabulary), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	d.heading("Word cloud")
	if len(r.Cloud) == 0 {
		pdf.SetFont(d.family, "I", 10)
		pdf.CellFormat(0, 6, "No terms.", "", 1, "L", false, 0, "")
	}
	for _, cw := range r.Cloud {
		// darker and larger for heavier words
		shade := int(180 - 150*cw.Weight)
		pdf.SetTextColor(shade/3, shade/2, shade)
		pdf.SetFont(d.family, "B", cw.Size)
		_, lineHeight := pdf.GetFontSize()
		pdf.Write(lineHeight*1.2, tr(cw.Term)+"  ")
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(14)

	d.heading("Top keywords")
	pdf.SetFont(d.family, "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(15, 7, "#", "1", 0, "C", true, 0, "")
	pdf.CellFormat(90, 7, "Term", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 7, "Count", "1", 1, "R", true, 0, "")
	pdf.SetFont(d.family, "", 10)
	for i, tc := range r.Table.Terms {
		pdf.CellFormat(15, 6, strconv.Itoa(i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(90, 6, tr(tc.Term), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, strconv.Itoa(tc.Count), "1", 1, "R", false, 0, "")
	}

	if r.Summary != "" {
		pdf.Ln(6)
		d.heading("Summary")
		pdf.SetFont(d.family, "", 11)
		pdf.MultiCell(0, 5, tr(r.Summary), "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return pdf.Output(w)
}

func (d *document) heading(text string) {
	d.pdf.SetFont(d.family, "B", 13)
	d.pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
}

// WritePDF renders the report into the file at path.
func WritePDF(path string, r Report) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Render(f, r); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Info().Str("path", path).Int("terms", len(r.Table.Terms)).Msg("Report written")
	return nil
}
