// Package document defines the narrow contract the conversion pipeline uses
// to read paged source documents. Implementations wrap a concrete decoder
// (see the fitz subpackage); converters never touch decoder internals.
package document

import (
	"image"
	"strings"
)

// TextBlock is one positioned run of text on a page. Coordinates are in page
// points with the origin at the top-left corner.
type TextBlock struct {
	X0, Y0 float64
	X1, Y1 float64
	Text   string
	// IsText distinguishes text runs from image placeholders reported by
	// block-level extraction.
	IsText bool
}

// OutlineEntry is one table-of-contents entry.
type OutlineEntry struct {
	Level int
	Title string
	Page  int
}

// EmbeddedImage is an image resource referenced by a page.
type EmbeddedImage struct {
	Index int
	Image image.Image
}

// Source is an open document handle. Page indexes are zero-based.
type Source interface {
	PageCount() int
	Text(page int) (string, error)
	TextBlocks(page int) ([]TextBlock, error)
	Images(page int) ([]EmbeddedImage, error)
	Outline() ([]OutlineEntry, error)
	// Render rasterizes one page at the given DPI.
	Render(page int, dpi float64) (image.Image, error)
	Close() error
}

// Provider opens documents by path.
type Provider interface {
	Open(path string) (Source, error)
}

// Info summarizes a document for pre-flight checks.
type Info struct {
	PageCount    int
	Encrypted    bool
	HasTextLayer bool
}

// Probe inspects an open source. HasTextLayer is true when any page yields
// non-blank extractable text, which is the signal used to recommend OCR for
// scanned documents.
func Probe(src Source) Info {
	info := Info{PageCount: src.PageCount()}
	for page := 0; page < info.PageCount; page++ {
		text, err := src.Text(page)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			info.HasTextLayer = true
			break
		}
	}
	return info
}
