package ingest

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

type extractFunc func(path string) (string, error)

var extractors = map[string]extractFunc{
	".txt":  extractPlain,
	".md":   extractPlain,
	".pdf":  extractPDF,
	".docx": extractDOCX,
}

// Supported reports whether ExtractText can read the file at path.
func Supported(path string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ExtractText returns the normalized text content of a corpus file.
func ExtractText(path string) (string, error) {
	extract, ok := extractors[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", fmt.Errorf("unsupported file type for text extraction: %s", filepath.Ext(path))
	}

	raw, err := extract(path)
	if err != nil {
		return "", err
	}

	text := NormalizeText(raw)
	if text == "" {
		return "", fmt.Errorf("no extractable text found in %s", filepath.Base(path))
	}
	return text, nil
}

func extractPlain(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func extractPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		// Unreadable pages are skipped; the rest of the guide is still useful.
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}

func extractDOCX(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()

		documentXML, err := io.ReadAll(rc)
		if err != nil {
			return "", err
		}
		return stripDOCXML(string(documentXML)), nil
	}

	return "", fmt.Errorf("docx document.xml not found")
}

var (
	xmlTagPattern = regexp.MustCompile(`<[^>]+>`)

	docxReplacer = strings.NewReplacer(
		"</w:p>", "\n",
		"<w:br/>", "\n",
		"<w:br />", "\n",
		"<w:tab/>", "\t",
	)

	entityReplacer = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
	)
)

func stripDOCXML(s string) string {
	s = docxReplacer.Replace(s)
	s = xmlTagPattern.ReplaceAllString(s, "")
	return entityReplacer.Replace(s)
}

// NormalizeText trims every line, collapses runs of blank lines into one and
// collapses repeated spaces inside a line.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var out []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
