package convert

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/wudi/pdfconvert/document"
	"github.com/wudi/pdfconvert/observability"
	"github.com/wudi/pdfconvert/ocr"
)

// fakeSource is an in-memory document used across converter tests.
type fakeSource struct {
	pages   []fakePage
	outline []document.OutlineEntry
	closed  bool
}

type fakePage struct {
	text   string
	blocks []document.TextBlock
	images []document.EmbeddedImage
	width  int
	height int
}

func (s *fakeSource) PageCount() int { return len(s.pages) }

func (s *fakeSource) Text(page int) (string, error) {
	if page < 0 || page >= len(s.pages) {
		return "", fmt.Errorf("page %d out of range", page)
	}
	return s.pages[page].text, nil
}

func (s *fakeSource) TextBlocks(page int) ([]document.TextBlock, error) {
	if page < 0 || page >= len(s.pages) {
		return nil, fmt.Errorf("page %d out of range", page)
	}
	return s.pages[page].blocks, nil
}

func (s *fakeSource) Images(page int) ([]document.EmbeddedImage, error) {
	if page < 0 || page >= len(s.pages) {
		return nil, fmt.Errorf("page %d out of range", page)
	}
	return s.pages[page].images, nil
}

func (s *fakeSource) Outline() ([]document.OutlineEntry, error) {
	return s.outline, nil
}

func (s *fakeSource) Render(page int, dpi float64) (image.Image, error) {
	if page < 0 || page >= len(s.pages) {
		return nil, fmt.Errorf("page %d out of range", page)
	}
	w, h := s.pages[page].width, s.pages[page].height
	if w == 0 {
		w = 40
	}
	if h == 0 {
		h = 60
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img, nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeProvider struct {
	src *fakeSource
	err error
}

func (p fakeProvider) Open(path string) (document.Source, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.src, nil
}

type fakeTextExtractor struct {
	text  string
	pages []int
	err   error
}

func (e *fakeTextExtractor) ExtractText(path string, pages []int) (string, error) {
	e.pages = pages
	return e.text, e.err
}

type fakeFlow struct {
	calls int
	err   error
}

func (f *fakeFlow) ConvertFlow(path, dest string, pages []int, startPage, endPage int) error {
	f.calls++
	return f.err
}

type fakeTables struct {
	tables []ExtractedTable
	opts   TableOptions
	err    error
}

func (f *fakeTables) ExtractTables(path string, pages []int, opts TableOptions) ([]ExtractedTable, error) {
	f.opts = opts
	return f.tables, f.err
}

// fakeOCREngine recognizes every image as the same canned text and tokens.
type fakeOCREngine struct {
	text   string
	tokens []ocr.Token
	err    error
	calls  int
}

func (e *fakeOCREngine) Name() string { return "fake" }

func (e *fakeOCREngine) RecognizeText(ctx context.Context, img image.Image) (string, error) {
	e.calls++
	return e.text, e.err
}

func (e *fakeOCREngine) RecognizeTokens(ctx context.Context, img image.Image) ([]ocr.Token, error) {
	e.calls++
	return e.tokens, e.err
}

func textPage(text string) fakePage {
	return fakePage{
		text: text,
		blocks: []document.TextBlock{
			{Y0: 10, Text: text, IsText: true},
		},
	}
}

func nopLogger() observability.Logger { return observability.NopLogger{} }

func newFakeProcessor(src *fakeSource, engine ocr.Engine) *ocr.Processor {
	return ocr.NewProcessor("", "eng",
		ocr.WithEngine(engine),
		ocr.WithProvider(fakeProvider{src: src}))
}

func newTestRegistry(src *fakeSource, text *fakeTextExtractor, tables *fakeTables) *Registry {
	return NewRegistry(Backends{
		Provider: fakeProvider{src: src},
		Text:     text,
		Flow:     &fakeFlow{},
		Tables:   tables,
		Logger:   observability.NopLogger{},
	})
}
