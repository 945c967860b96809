package convert

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/wudi/pdfconvert/document"
	"github.com/wudi/pdfconvert/observability"
)

// HTMLConverter produces a standalone HTML page per document.
type HTMLConverter struct {
	provider document.Provider
	logger   observability.Logger
}

func NewHTMLConverter(provider document.Provider, logger observability.Logger) *HTMLConverter {
	return &HTMLConverter{provider: provider, logger: logger}
}

func (c *HTMLConverter) OutputExtension() string { return "html" }

func (c *HTMLConverter) Convert(ctx context.Context, source, dest string, p Params) bool {
	ok, _ := c.ConvertWithMessage(ctx, source, dest, p)
	return ok
}

func (c *HTMLConverter) ConvertWithMessage(ctx context.Context, source, dest string, p Params) (ok bool, msg string) {
	defer recoverFailure(c.logger, "html", source, &ok, &msg)

	if err := ensureDestDir(dest); err != nil {
		return convertFailure(c.logger, "html", source, err)
	}

	src, err := c.provider.Open(source)
	if err != nil {
		return convertFailure(c.logger, "html", source, &SourceReadError{Path: source, Err: err})
	}
	defer src.Close()

	content, err := c.render(ctx, src, source, dest, p)
	if err != nil {
		return convertFailure(c.logger, "html", source, err)
	}
	if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
		return convertFailure(c.logger, "html", source, &WriteError{Path: dest, Err: err})
	}
	c.logger.Info("html written",
		observability.String("source", source),
		observability.String("dest", dest),
		observability.Bool("ocr", p.UseOCR))
	return true, ""
}

func (c *HTMLConverter) render(ctx context.Context, src document.Source, source, dest string, p Params) (string, error) {
	pages, err := selectedPages(p, src.PageCount())
	if err != nil {
		return "", err
	}

	imageDir := filepath.Join(filepath.Dir(dest), "images")
	if p.ExtractImages && !p.EmbedImages {
		if err := os.MkdirAll(imageDir, 0o755); err != nil {
			return "", &WriteError{Path: imageDir, Err: err}
		}
	}

	lines := []string{
		"<!DOCTYPE html>",
		"<html>",
		"<head>",
		`<meta charset="UTF-8">`,
		fmt.Sprintf("<title>%s</title>", html.EscapeString(filepath.Base(source))),
		c.stylesheet(p.Stylesheet),
		"</head>",
		"<body>",
	}

	for i, page := range pages {
		if i > 0 {
			lines = append(lines, `<div class="page-break"></div>`)
		}
		lines = append(lines, fmt.Sprintf(`<div class="page" id="page-%d">`, page))

		paras, err := pageParagraphs(ctx, src, page, p)
		if err != nil {
			return "", err
		}
		for _, para := range paras {
			escaped := html.EscapeString(para)
			escaped = strings.ReplaceAll(escaped, "\n", "<br>")
			lines = append(lines, fmt.Sprintf("<p>%s</p>", escaped))
		}

		if p.ExtractImages {
			images, err := pageImages(src, page, p.EmbedImages, imageDir, "images", p.ImageQuality)
			if err != nil {
				return "", err
			}
			for _, img := range images {
				ref := img.DataURI
				if ref == "" {
					ref = img.RelPath
				}
				lines = append(lines, fmt.Sprintf(
					`<div class="image-container"><img src="%s" alt="Image %d" class="page-image"></div>`,
					ref, img.Index))
			}
		}
		lines = append(lines, "</div>")
	}

	lines = append(lines, "</body>", "</html>")
	return strings.Join(lines, "\n"), nil
}

// stylesheet returns the style block, preferring a readable custom CSS file
// over the built-in default.
func (c *HTMLConverter) stylesheet(path string) string {
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return "<style>" + string(data) + "</style>"
		}
		c.logger.Warn("custom stylesheet unreadable, using default",
			observability.String("path", path),
			observability.Error("err", err))
	}
	return defaultStylesheet
}

const defaultStylesheet = `<style>
body {
    font-family: Arial, sans-serif;
    line-height: 1.6;
    margin: 0;
    padding: 20px;
    background-color: #f9f9f9;
}
.page {
    background-color: white;
    box-shadow: 0 0 10px rgba(0, 0, 0, 0.1);
    margin: 0 auto 20px auto;
    padding: 40px;
    max-width: 800px;
}
.page-break {
    page-break-after: always;
    height: 20px;
}
p { margin-bottom: 10px; }
.image-container { margin: 20px 0; text-align: center; }
.page-image { max-width: 100%; height: auto; }
@media print {
    body { background-color: white; padding: 0; }
    .page { box-shadow: none; padding: 0; margin: 0; }
    .page-break { height: 0; }
}
</style>`
