// Package extract pulls the two raw layers out of an annotated PDF export:
// the full text stream, page by page, and the de-duplicated sequence of
// embedded raster images that represent handwritten-note snapshots.
package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Text extracts the plain text of every page, in page order, joined with
// blank lines. A page that fails to extract is fatal: the annotation parser
// correlates note markers with images positionally, so a silently missing
// page would corrupt everything after it.
func Text(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	totalPages := reader.NumPage()
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extracting text from page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}

// Lines splits extracted text into the ordered line sequence the annotation
// parser consumes.
func Lines(text string) []string {
	return strings.Split(text, "\n")
}
