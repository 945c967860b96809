package convert

import (
	"sort"
	"strconv"
	"strings"
)

type pageMode int

const (
	pageModeAll pageMode = iota
	pageModeRange
	pageModeCustom
)

// PageSelection restricts which pages a task converts. Exactly one variant
// is active: all pages, an inclusive 1-based range, or a custom expression
// like "1,3,5-7".
type PageSelection struct {
	mode pageMode
	from int
	to   int
	expr string
}

// AllPages selects the whole document.
func AllPages() PageSelection { return PageSelection{mode: pageModeAll} }

// PageRange selects pages from through to, 1-based and inclusive.
func PageRange(from, to int) PageSelection {
	return PageSelection{mode: pageModeRange, from: from, to: to}
}

// CustomPages selects pages from a comma-separated expression of page
// numbers and hyphenated ranges. The expression is validated when resolved.
func CustomPages(expr string) PageSelection {
	return PageSelection{mode: pageModeCustom, expr: expr}
}

// IsAll reports whether the selection imposes no restriction.
func (s PageSelection) IsAll() bool { return s.mode == pageModeAll }

// Range returns the explicit range bounds; ok is false for other variants.
func (s PageSelection) Range() (from, to int, ok bool) {
	if s.mode != pageModeRange {
		return 0, 0, false
	}
	return s.from, s.to, true
}

// Expression returns the custom expression; ok is false for other variants.
func (s PageSelection) Expression() (string, bool) {
	if s.mode != pageModeCustom {
		return "", false
	}
	return s.expr, true
}

// ParsePageExpression expands an expression like "1,3,5-7" into sorted,
// de-duplicated 1-based page numbers {1,3,5,6,7}. Malformed input yields a
// ConfigurationError.
func ParsePageExpression(expr string) ([]int, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, configErrorf("empty page expression")
	}
	seen := make(map[int]bool)
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, configErrorf("empty segment in page expression %q", expr)
		}
		if from, to, ok := strings.Cut(part, "-"); ok {
			start, err := parsePageNumber(from)
			if err != nil {
				return nil, configErrorf("bad range start in %q: %v", part, err)
			}
			end, err := parsePageNumber(to)
			if err != nil {
				return nil, configErrorf("bad range end in %q: %v", part, err)
			}
			if end < start {
				return nil, configErrorf("descending range %q", part)
			}
			for page := start; page <= end; page++ {
				seen[page] = true
			}
			continue
		}
		page, err := parsePageNumber(part)
		if err != nil {
			return nil, configErrorf("bad page number %q: %v", part, err)
		}
		seen[page] = true
	}
	pages := make([]int, 0, len(seen))
	for page := range seen {
		pages = append(pages, page)
	}
	sort.Ints(pages)
	return pages, nil
}

func parsePageNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, configErrorf("page numbers are 1-based, got %d", n)
	}
	return n, nil
}

// selectedPages resolves the flat page parameters against a page count,
// returning 1-based pages in ascending order. Absence of restriction keys
// means every page.
func selectedPages(p Params, pageCount int) ([]int, error) {
	switch {
	case p.PageExpr != "":
		parsed, err := ParsePageExpression(p.PageExpr)
		if err != nil {
			return nil, err
		}
		pages := parsed[:0]
		for _, page := range parsed {
			if page <= pageCount {
				pages = append(pages, page)
			}
		}
		return pages, nil
	case p.StartPage > 0:
		start := p.StartPage
		end := p.EndPage
		if end == 0 || end > pageCount {
			end = pageCount
		}
		var pages []int
		for page := start; page <= end; page++ {
			pages = append(pages, page)
		}
		return pages, nil
	default:
		pages := make([]int, pageCount)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages, nil
	}
}
