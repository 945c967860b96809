// Package extract provides the default direct-extraction backends consumed
// by the converter family: plain text, flow documents, and tables pulled
// straight from the machine-readable text layer, no recognition involved.
package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextService extracts plain text from a PDF's text layer.
type TextService struct{}

// NewTextService returns the default plain-text backend.
func NewTextService() TextService { return TextService{} }

// ExtractText pulls text from the given 1-based pages, or from the whole
// document when pages is nil. Pages are separated by a blank line.
func (TextService) ExtractText(path string, pages []int) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	total := r.NumPage()
	if pages == nil {
		pages = make([]int, total)
		for i := range pages {
			pages[i] = i + 1
		}
	}

	var parts []string
	for _, page := range pages {
		if page < 1 || page > total {
			continue
		}
		p := r.Page(page)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", page, err)
		}
		parts = append(parts, strings.TrimRight(text, "\n"))
	}
	return strings.Join(parts, "\n\n"), nil
}
