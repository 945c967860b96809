package convert

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/wudi/pdfconvert/document"
	"github.com/wudi/pdfconvert/observability"
)

// RasterConverter renders pages to PNG or JPEG images.
type RasterConverter struct {
	format   string
	provider document.Provider
	logger   observability.Logger
}

// NewRasterConverter builds a raster converter for "png" or "jpg".
func NewRasterConverter(format string, provider document.Provider, logger observability.Logger) *RasterConverter {
	format = normalizeFormat(format)
	if format != "png" && format != "jpg" {
		panic(fmt.Sprintf("unsupported raster format %q", format))
	}
	return &RasterConverter{format: format, provider: provider, logger: logger}
}

func (c *RasterConverter) OutputExtension() string { return c.format }

func (c *RasterConverter) Convert(ctx context.Context, source, dest string, p Params) bool {
	ok, _ := c.ConvertWithMessage(ctx, source, dest, p)
	return ok
}

func (c *RasterConverter) ConvertWithMessage(ctx context.Context, source, dest string, p Params) (ok bool, msg string) {
	defer recoverFailure(c.logger, c.format, source, &ok, &msg)

	if err := ensureDestDir(dest); err != nil {
		return convertFailure(c.logger, c.format, source, err)
	}

	images, err := c.renderPages(source, p)
	if err != nil {
		return convertFailure(c.logger, c.format, source, err)
	}
	if len(images) == 0 {
		return convertFailure(c.logger, c.format, source,
			&SourceReadError{Path: source, Err: fmt.Errorf("no pages selected")})
	}

	if p.SingleFile && len(images) > 1 {
		merged := stackVertically(images)
		if err := c.encode(merged, dest, p.Quality); err != nil {
			return convertFailure(c.logger, c.format, source, err)
		}
	} else {
		if err := c.writePages(images, dest, p.Quality); err != nil {
			return convertFailure(c.logger, c.format, source, err)
		}
	}
	c.logger.Info("raster written",
		observability.String("source", source),
		observability.String("dest", dest),
		observability.Int("pages", len(images)),
		observability.Bool("single_file", p.SingleFile))
	return true, ""
}

func (c *RasterConverter) renderPages(source string, p Params) ([]image.Image, error) {
	src, err := c.provider.Open(source)
	if err != nil {
		return nil, &SourceReadError{Path: source, Err: err}
	}
	defer src.Close()

	pages, err := selectedPages(p, src.PageCount())
	if err != nil {
		return nil, err
	}
	dpi := p.DPI
	if dpi == 0 {
		dpi = 200
	}
	images := make([]image.Image, 0, len(pages))
	for _, page := range pages {
		img, err := src.Render(page-1, float64(dpi))
		if err != nil {
			return nil, &SourceReadError{Path: source, Err: err}
		}
		images = append(images, img)
	}
	return images, nil
}

// stackVertically merges page images onto one white canvas, left-aligned,
// with each page placed at the cumulative height of the pages above it.
func stackVertically(images []image.Image) image.Image {
	width, height := 0, 0
	for _, img := range images {
		if w := img.Bounds().Dx(); w > width {
			width = w
		}
		height += img.Bounds().Dy()
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	offset := 0
	for _, img := range images {
		bounds := img.Bounds()
		target := image.Rect(0, offset, bounds.Dx(), offset+bounds.Dy())
		draw.Draw(canvas, target, img, bounds.Min, draw.Src)
		offset += bounds.Dy()
	}
	return canvas
}

// writePages writes one numbered file per page next to dest, as
// {stem}_page_{n}.{ext}.
func (c *RasterConverter) writePages(images []image.Image, dest string, quality int) error {
	dir := filepath.Dir(dest)
	stem := strings.TrimSuffix(filepath.Base(dest), filepath.Ext(dest))
	for i, img := range images {
		path := filepath.Join(dir, fmt.Sprintf("%s_page_%d.%s", stem, i+1, c.format))
		if err := c.encode(img, path, quality); err != nil {
			return err
		}
	}
	return nil
}

func (c *RasterConverter) encode(img image.Image, dest string, quality int) error {
	f, err := os.Create(dest)
	if err != nil {
		return &WriteError{Path: dest, Err: err}
	}
	defer f.Close()

	switch c.format {
	case "png":
		err = png.Encode(f, img)
	default:
		if quality == 0 {
			quality = 90
		}
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return &WriteError{Path: dest, Err: err}
	}
	return nil
}
