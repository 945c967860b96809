// Package ocr adapts optical recognition backends for the conversion
// pipeline. The Engine contract is intentionally small so providers can be
// backed by native libraries or remote services without leaking
// provider-specific concerns into converters.
package ocr

import (
	"context"
	"fmt"
	"image"

	"github.com/wudi/pdfconvert/document"
	"github.com/wudi/pdfconvert/observability"
)

// Token is a single recognized word with its position in image pixels,
// measured from the top-left corner.
type Token struct {
	Text       string
	Confidence float64
	Left       int
	Top        int
}

// Engine is the recognition provider contract.
type Engine interface {
	Name() string
	RecognizeText(ctx context.Context, img image.Image) (string, error)
	RecognizeTokens(ctx context.Context, img image.Image) ([]Token, error)
}

// Processor wraps an Engine and a document provider behind the operations
// converters need: rasterize a document, recognize a page, and optionally
// enhance a raster before recognition. A Processor is built once per
// (data path, language) pair and shared across tasks; DPI is always passed
// per call, never stored.
type Processor struct {
	dataPath string
	language string
	engine   Engine
	provider document.Provider
	logger   observability.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithEngine overrides the recognition engine.
func WithEngine(engine Engine) Option {
	return func(p *Processor) { p.engine = engine }
}

// WithProvider overrides the document provider used for rasterization.
func WithProvider(provider document.Provider) Option {
	return func(p *Processor) { p.provider = provider }
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

// NewProcessor builds a recognition adapter for the given engine data path
// and language code (e.g. "chi_sim+eng"). Callers must supply an Engine and
// a Provider through options unless the defaults registered by subpackages
// apply; cmd wires the Tesseract engine and the MuPDF provider.
func NewProcessor(dataPath, language string, opts ...Option) *Processor {
	p := &Processor{
		dataPath: dataPath,
		language: language,
		logger:   observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DataPath returns the engine data path the processor was built with.
func (p *Processor) DataPath() string { return p.dataPath }

// Language returns the language code the processor was built with.
func (p *Processor) Language() string { return p.language }

// Rasterize renders every page of the document at the given DPI, in page
// order.
func (p *Processor) Rasterize(path string, dpi int) ([]image.Image, error) {
	if p.provider == nil {
		return nil, fmt.Errorf("rasterize %s: no document provider configured", path)
	}
	src, err := p.provider.Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	count := src.PageCount()
	images := make([]image.Image, 0, count)
	for page := 0; page < count; page++ {
		img, err := src.Render(page, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("rasterize page %d: %w", page, err)
		}
		images = append(images, img)
	}
	p.logger.Debug("document rasterized",
		observability.String("path", path),
		observability.Int("pages", count),
		observability.Int("dpi", dpi))
	return images, nil
}

// RecognizeText runs plain-text recognition on one image.
func (p *Processor) RecognizeText(ctx context.Context, img image.Image) (string, error) {
	if p.engine == nil {
		return "", fmt.Errorf("recognize text: no engine configured")
	}
	return p.engine.RecognizeText(ctx, img)
}

// RecognizeTokens runs positional word recognition on one image.
func (p *Processor) RecognizeTokens(ctx context.Context, img image.Image) ([]Token, error) {
	if p.engine == nil {
		return nil, fmt.Errorf("recognize tokens: no engine configured")
	}
	return p.engine.RecognizeTokens(ctx, img)
}

// DocumentText rasterizes every page, recognizes each one, and joins the
// per-page text with a blank line. Enhancement is applied first when
// preprocess is set.
func (p *Processor) DocumentText(ctx context.Context, path string, dpi int, preprocess bool) (string, error) {
	images, err := p.Rasterize(path, dpi)
	if err != nil {
		return "", err
	}
	return p.ImagesText(ctx, images, preprocess)
}

// ImagesText recognizes a sequence of page images and joins the results with
// a blank line.
func (p *Processor) ImagesText(ctx context.Context, images []image.Image, preprocess bool) (string, error) {
	parts := make([]string, 0, len(images))
	for i, img := range images {
		if preprocess {
			img = Enhance(img)
		}
		text, err := p.RecognizeText(ctx, img)
		if err != nil {
			return "", fmt.Errorf("recognize page %d: %w", i, err)
		}
		parts = append(parts, text)
	}
	return joinPages(parts), nil
}

func joinPages(parts []string) string {
	out := ""
	for i, part := range parts {
		if i > 0 {
			out += "\n\n"
		}
		out += part
	}
	return out
}
