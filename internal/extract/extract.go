// Package extract turns course material files into plain text.
package extract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrExtractionFailed wraps every failure to read material text.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrUnsupported marks file types with no extractor. It is always
	// reported together with ErrExtractionFailed.
	ErrUnsupported = errors.New("unsupported file type")
)

// PageSeparator follows the text of every PDF page.
const PageSeparator = "\n\n"

// File extracts text from path, choosing the extractor by extension.
// PDFs are read page by page; .txt and .md files are returned verbatim.
func File(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return PDF(path)
	case ".txt", ".md":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("%w: %w: %s", ErrExtractionFailed, ErrUnsupported, filepath.Base(path))
	}
}

// PDF extracts the text of a PDF file in page order.
func PDF(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	return PDFReader(f, info.Size())
}

// PDFReader extracts text from an in-memory or open PDF. Each page's
// text is followed by PageSeparator, blank pages included, so page
// boundaries survive in the output.
func PDFReader(r io.ReaderAt, size int64) (text string, err error) {
	// The parser panics on some malformed documents.
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("%w: malformed pdf: %v", ErrExtractionFailed, p)
		}
	}()

	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	var sb strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if !page.V.IsNull() {
			pageText, err := page.GetPlainText(pageFonts(page))
			if err != nil {
				return "", fmt.Errorf("%w: page %d: %w", ErrExtractionFailed, i, err)
			}
			sb.WriteString(pageText)
		}
		sb.WriteString(PageSeparator)
	}
	return sb.String(), nil
}

func pageFonts(page pdf.Page) map[string]*pdf.Font {
	fonts := make(map[string]*pdf.Font)
	for _, name := range page.Fonts() {
		f := page.Font(name)
		fonts[name] = &f
	}
	return fonts
}
