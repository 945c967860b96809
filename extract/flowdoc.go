package extract

import (
	"fmt"
	"os"
	"sort"

	"github.com/fumiama/go-docx"

	"github.com/wudi/pdfconvert/document"
)

// FlowDocService converts a PDF into a flow document by writing each text
// block as one paragraph, in page and reading order. Layout is not
// preserved.
type FlowDocService struct {
	provider document.Provider
}

// NewFlowDocService returns the default PDF-to-document backend over the
// given document provider.
func NewFlowDocService(provider document.Provider) FlowDocService {
	return FlowDocService{provider: provider}
}

// ConvertFlow writes dest from path. Exactly one of pages (explicit 1-based
// list) or startPage/endPage may be set; nil pages with zero bounds converts
// the whole document.
func (s FlowDocService) ConvertFlow(path, dest string, pages []int, startPage, endPage int) error {
	if len(pages) > 0 && startPage > 0 {
		return fmt.Errorf("page list and page range are mutually exclusive")
	}
	src, err := s.provider.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	selected := resolvePages(src.PageCount(), pages, startPage, endPage)
	doc := docx.New().WithDefaultTheme()
	for _, page := range selected {
		blocks, err := src.TextBlocks(page - 1)
		if err != nil {
			return fmt.Errorf("read page %d: %w", page, err)
		}
		sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Y0 < blocks[j].Y0 })
		for _, block := range blocks {
			if !block.IsText || block.Text == "" {
				continue
			}
			doc.AddParagraph().AddText(block.Text)
		}
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer f.Close()
	if _, err := doc.WriteTo(f); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}

func resolvePages(total int, pages []int, startPage, endPage int) []int {
	if len(pages) > 0 {
		var out []int
		for _, page := range pages {
			if page >= 1 && page <= total {
				out = append(out, page)
			}
		}
		return out
	}
	start := startPage
	if start < 1 {
		start = 1
	}
	end := endPage
	if end == 0 || end > total {
		end = total
	}
	var out []int
	for page := start; page <= end; page++ {
		out = append(out, page)
	}
	return out
}
