package parser

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"abstract-lens/internal/models"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"
)

var slideRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

var (
	documentExts = map[string]bool{".pdf": true, ".docx": true, ".pptx": true, ".md": true, ".markdown": true, ".html": true, ".htm": true, ".txt": true}
	tabularExts  = map[string]bool{".csv": true, ".tsv": true, ".xlsx": true, ".xlsm": true, ".xltx": true, ".xltm": true}
)

// KindForPath infers the input kind from the file extension.
func KindForPath(filePath string) (models.InputKind, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch {
	case tabularExts[ext]:
		return models.KindTabular, nil
	case documentExts[ext]:
		return models.KindDocument, nil
	default:
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, ext)
	}
}

// ParseDocument extracts the text of a paginated document. A page whose text
// cannot be extracted contributes an empty string; only failing to open the
// document at all is an error.
func ParseDocument(filePath string) (models.RawDocument, error) {
	var (
		pages []string
		err   error
	)
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		pages, err = parsePDF(filePath)
	case ".docx":
		pages, err = parseDOCX(filePath)
	case ".pptx":
		pages, err = parsePPTX(filePath)
	case ".md", ".markdown":
		pages, err = parseMarkdown(filePath)
	case ".html", ".htm":
		pages, err = parseHTML(filePath)
	case ".txt":
		pages, err = parseText(filePath)
	default:
		return models.RawDocument{}, fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return models.RawDocument{}, fmt.Errorf("failed to parse %s: %w", filepath.Base(filePath), err)
	}
	doc := models.NewRawDocument(filePath, pages)
	log.Debug().Str("file", filePath).Int("pages", len(pages)).Int("chars", len(doc.Text)).Msg("Extracted document")
	return doc, nil
}

func parsePDF(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	numPages := reader.NumPage()
	// cross-check the page tree; a mismatch usually means a damaged xref table
	if counted, err := api.PageCountFile(filePath); err != nil {
		log.Warn().Err(err).Str("file", filePath).Msg("PDF validation failed")
	} else if counted != numPages {
		log.Warn().Int("pdfcpu", counted).Int("reader", numPages).Str("file", filePath).Msg("PDF page count mismatch")
	}

	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		pages = append(pages, pdfPageText(reader, i))
	}
	return pages, nil
}

// pdfPageText returns "" for pages that are missing or fail to decode.
func pdfPageText(reader *pdf.Reader, i int) string {
	return pageText(i, func() (string, error) {
		page := reader.Page(i)
		if page.V.IsNull() {
			return "", nil
		}
		return page.GetPlainText(nil)
	})
}

func pageText(i int, extract func() (string, error)) (text string) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Int("page", i).Interface("panic", r).Msg("Unreadable PDF page")
			text = ""
		}
	}()
	text, err := extract()
	if err != nil {
		log.Warn().Err(err).Int("page", i).Msg("Unreadable PDF page")
		return ""
	}
	return text
}

func parseDOCX(filePath string) ([]string, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	// GetContent returns word/document.xml
	content := r.Editable().GetContent()
	return []string{textFromXML(content, "t", "p")}, nil
}

func parsePPTX(filePath string) ([]string, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	type slide struct {
		num  int
		text string
	}
	var slides []slide
	for _, file := range f.File {
		m := slideRe.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		s := slide{num: num}
		rc, err := file.Open()
		if err == nil {
			data, readErr := io.ReadAll(rc)
			rc.Close()
			if readErr == nil {
				s.text = textFromXML(string(data), "t", "p")
			}
		}
		if err != nil {
			log.Warn().Err(err).Int("slide", num).Msg("Unreadable slide")
		}
		slides = append(slides, s)
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	pages := make([]string, 0, len(slides))
	for _, s := range slides {
		pages = append(pages, s.text)
	}
	return pages, nil
}

func parseText(filePath string) ([]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	// form feeds separate pages in plain text dumps
	return strings.Split(string(data), "\f"), nil
}

// textFromXML collects character data of <textTag> elements and ends a line
// at every closing <paraTag>. Namespaces are ignored, so "t" matches w:t and a:t.
func textFromXML(xmlContent, textTag, paraTag string) string {
	dec := xml.NewDecoder(strings.NewReader(xmlContent))
	dec.Strict = false

	var (
		b      strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			if err != io.EOF {
				log.Debug().Err(err).Msg("Stopped reading XML")
			}
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == textTag {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case textTag:
				inText = false
			case paraTag:
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
