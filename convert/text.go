package convert

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"

	"github.com/wudi/pdfconvert/observability"
)

// TextConverter produces plain-text output, delegating to the direct
// extraction service unless recognition is requested.
type TextConverter struct {
	backend TextExtractor
	logger  observability.Logger
}

func NewTextConverter(backend TextExtractor, logger observability.Logger) *TextConverter {
	return &TextConverter{backend: backend, logger: logger}
}

func (c *TextConverter) OutputExtension() string { return "txt" }

func (c *TextConverter) Convert(ctx context.Context, source, dest string, p Params) bool {
	ok, _ := c.ConvertWithMessage(ctx, source, dest, p)
	return ok
}

func (c *TextConverter) ConvertWithMessage(ctx context.Context, source, dest string, p Params) (ok bool, msg string) {
	defer recoverFailure(c.logger, "txt", source, &ok, &msg)

	if err := ensureDestDir(dest); err != nil {
		return convertFailure(c.logger, "txt", source, err)
	}

	text, err := c.extract(ctx, source, p)
	if err != nil {
		return convertFailure(c.logger, "txt", source, err)
	}

	text = applyLineEnding(text, p.LineEnding)
	data, err := encodeText(text, p.Encoding)
	if err != nil {
		return convertFailure(c.logger, "txt", source, err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return convertFailure(c.logger, "txt", source, &WriteError{Path: dest, Err: err})
	}
	c.logger.Info("text written",
		observability.String("source", source),
		observability.String("dest", dest),
		observability.Bool("ocr", p.UseOCR))
	return true, ""
}

func (c *TextConverter) extract(ctx context.Context, source string, p Params) (string, error) {
	if p.UseOCR && p.OCR != nil {
		images, err := p.OCR.Rasterize(source, p.OCRDPI)
		if err != nil {
			return "", &SourceReadError{Path: source, Err: err}
		}
		selected, err := selectedPages(p, len(images))
		if err != nil {
			return "", err
		}
		pageImages := make([]image.Image, 0, len(selected))
		for _, page := range selected {
			pageImages = append(pageImages, images[page-1])
		}
		text, err := p.OCR.ImagesText(ctx, pageImages, p.OCRPreprocess)
		if err != nil {
			return "", &BackendError{Backend: "ocr", Err: err}
		}
		return text, nil
	}

	if c.backend == nil {
		return "", &BackendError{Backend: "text", Err: fmt.Errorf("no extraction backend configured")}
	}
	pages, err := explicitPages(p)
	if err != nil {
		return "", err
	}
	text, err := c.backend.ExtractText(source, pages)
	if err != nil {
		return "", &BackendError{Backend: "text", Err: err}
	}
	return text, nil
}

// explicitPages resolves page parameters without a page count: custom
// expressions expand fully, ranges need an end bound, and no restriction
// yields nil (meaning every page).
func explicitPages(p Params) ([]int, error) {
	if p.PageExpr != "" {
		return ParsePageExpression(p.PageExpr)
	}
	if p.StartPage > 0 && p.EndPage >= p.StartPage {
		var pages []int
		for page := p.StartPage; page <= p.EndPage; page++ {
			pages = append(pages, page)
		}
		return pages, nil
	}
	return nil, nil
}

func applyLineEnding(text, style string) string {
	switch strings.ToLower(style) {
	case "lf", "unix":
		return strings.ReplaceAll(text, "\r\n", "\n")
	case "crlf", "windows":
		text = strings.ReplaceAll(text, "\r\n", "\n")
		return strings.ReplaceAll(text, "\n", "\r\n")
	default:
		return text
	}
}

func encodeText(text, name string) ([]byte, error) {
	var enc encoding.Encoding
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "UTF-8", "UTF8":
		return []byte(text), nil
	case "GBK":
		enc = simplifiedchinese.GBK
	case "GB18030":
		enc = simplifiedchinese.GB18030
	case "BIG5":
		enc = traditionalchinese.Big5
	default:
		return nil, configErrorf("unsupported encoding %q", name)
	}
	data, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encode as %s: %w", name, err)
	}
	return data, nil
}

// recoverFailure converts a converter panic into a failed outcome; nothing
// may escape the Convert boundary.
func recoverFailure(logger observability.Logger, format, source string, ok *bool, msg *string) {
	if r := recover(); r != nil {
		*ok, *msg = convertFailure(logger, format, source, fmt.Errorf("panic: %v", r))
	}
}
