package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/wudi/pdfconvert/convert"
	"github.com/wudi/pdfconvert/document"
)

// columnSplit separates cells on runs of two or more spaces or tabs, the
// usual gap signature in extracted text-layer tables.
var columnSplit = regexp.MustCompile(`\t+| {2,}`)

// TableService approximates direct tabular extraction from the text layer:
// each page's blocks are flattened to lines, and lines are split into cells
// on whitespace gaps when structure guessing is on. It does not detect
// ruling lines; the grid flags only gate whether sparse lines are kept.
type TableService struct {
	provider document.Provider
}

// NewTableService returns the default tabular backend over the given
// document provider.
func NewTableService(provider document.Provider) TableService {
	return TableService{provider: provider}
}

// ExtractTables pulls one table per selected page (or one per document when
// MultipleTables is off). Pages are 1-based; nil means every page.
func (s TableService) ExtractTables(path string, pages []int, opts convert.TableOptions) ([]convert.ExtractedTable, error) {
	src, err := s.provider.Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	total := src.PageCount()
	if pages == nil {
		pages = make([]int, total)
		for i := range pages {
			pages[i] = i + 1
		}
	}

	var all []convert.ExtractedTable
	var merged [][]string
	for _, page := range pages {
		if page < 1 || page > total {
			continue
		}
		blocks, err := src.TextBlocks(page - 1)
		if err != nil {
			return nil, err
		}
		rows := blockRows(blocks, opts.GuessStructure)
		if len(rows) == 0 {
			continue
		}
		if opts.MultipleTables {
			all = append(all, convert.ExtractedTable{Rows: rows})
		} else {
			merged = append(merged, rows...)
		}
	}
	if !opts.MultipleTables && len(merged) > 0 {
		all = append(all, convert.ExtractedTable{Rows: merged})
	}
	return all, nil
}

func blockRows(blocks []document.TextBlock, guess bool) [][]string {
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Y0 < blocks[j].Y0 })
	var rows [][]string
	for _, block := range blocks {
		if !block.IsText {
			continue
		}
		for _, line := range strings.Split(block.Text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if guess {
				cells := columnSplit.Split(line, -1)
				rows = append(rows, cells)
			} else {
				rows = append(rows, []string{line})
			}
		}
	}
	return rows
}
