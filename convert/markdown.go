package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wudi/pdfconvert/document"
	"github.com/wudi/pdfconvert/observability"
)

// MarkdownConverter produces lightweight markup. Paragraphs matching outline
// titles are promoted to headings at the outline entry's depth.
type MarkdownConverter struct {
	provider document.Provider
	logger   observability.Logger
}

func NewMarkdownConverter(provider document.Provider, logger observability.Logger) *MarkdownConverter {
	return &MarkdownConverter{provider: provider, logger: logger}
}

func (c *MarkdownConverter) OutputExtension() string { return "md" }

func (c *MarkdownConverter) Convert(ctx context.Context, source, dest string, p Params) bool {
	ok, _ := c.ConvertWithMessage(ctx, source, dest, p)
	return ok
}

func (c *MarkdownConverter) ConvertWithMessage(ctx context.Context, source, dest string, p Params) (ok bool, msg string) {
	defer recoverFailure(c.logger, "md", source, &ok, &msg)

	if err := ensureDestDir(dest); err != nil {
		return convertFailure(c.logger, "md", source, err)
	}

	src, err := c.provider.Open(source)
	if err != nil {
		return convertFailure(c.logger, "md", source, &SourceReadError{Path: source, Err: err})
	}
	defer src.Close()

	content, err := c.render(ctx, src, source, dest, p)
	if err != nil {
		return convertFailure(c.logger, "md", source, err)
	}
	if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
		return convertFailure(c.logger, "md", source, &WriteError{Path: dest, Err: err})
	}
	c.logger.Info("markdown written",
		observability.String("source", source),
		observability.String("dest", dest),
		observability.Bool("ocr", p.UseOCR))
	return true, ""
}

func (c *MarkdownConverter) render(ctx context.Context, src document.Source, source, dest string, p Params) (string, error) {
	pages, err := selectedPages(p, src.PageCount())
	if err != nil {
		return "", err
	}
	outline, err := src.Outline()
	if err != nil {
		// A document without a readable outline still converts; headings
		// simply stay paragraphs.
		outline = nil
	}

	stem := strings.TrimSuffix(filepath.Base(dest), filepath.Ext(dest))
	imageDir := filepath.Join(filepath.Dir(dest), stem+"_images")
	if p.ExtractImages && !p.EmbedImages {
		if err := os.MkdirAll(imageDir, 0o755); err != nil {
			return "", &WriteError{Path: imageDir, Err: err}
		}
	}

	var b strings.Builder
	title := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	fmt.Fprintf(&b, "# %s\n\n", title)

	if p.IncludeNavigation && len(outline) > 0 {
		b.WriteString("## Contents\n\n")
		for _, entry := range outline {
			indent := strings.Repeat("  ", maxInt(entry.Level-1, 0))
			fmt.Fprintf(&b, "%s- [%s](#%s)\n", indent, entry.Title, slugify(entry.Title))
		}
		b.WriteString("\n")
	}

	for _, page := range pages {
		fmt.Fprintf(&b, "<!-- page %d -->\n\n", page)

		paras, err := pageParagraphs(ctx, src, page, p)
		if err != nil {
			return "", err
		}
		for _, para := range paras {
			if level, ok := headingFor(para, outline); ok && !p.UseOCR {
				fmt.Fprintf(&b, "%s %s\n\n", strings.Repeat("#", level), para)
			} else {
				fmt.Fprintf(&b, "%s\n\n", para)
			}
		}

		if p.ExtractImages {
			images, err := pageImages(src, page, p.EmbedImages, imageDir, stem+"_images", 80)
			if err != nil {
				return "", err
			}
			for _, img := range images {
				ref := img.DataURI
				if ref == "" {
					ref = img.RelPath
				}
				fmt.Fprintf(&b, "![Image %d](%s)\n\n", img.Index, ref)
			}
		}
	}
	return b.String(), nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
