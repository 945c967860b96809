package convert

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/wudi/pdfconvert/document"
	"github.com/wudi/pdfconvert/ocr"
)

// pageParagraphs returns the paragraph texts for one page, in reading order.
// With recognition enabled the page raster is recognized and split on blank
// lines; otherwise structured text blocks are sorted by their top coordinate.
func pageParagraphs(ctx context.Context, src document.Source, page int, p Params) ([]string, error) {
	if p.UseOCR && p.OCR != nil {
		img, err := src.Render(page-1, float64(ocrDPI(p)))
		if err != nil {
			return nil, &SourceReadError{Err: err}
		}
		if p.OCRPreprocess {
			img = ocr.Enhance(img)
		}
		text, err := p.OCR.RecognizeText(ctx, img)
		if err != nil {
			return nil, &BackendError{Backend: "ocr", Err: err}
		}
		var paras []string
		for _, para := range strings.Split(text, "\n\n") {
			if para = strings.TrimSpace(para); para != "" {
				paras = append(paras, para)
			}
		}
		return paras, nil
	}

	blocks, err := src.TextBlocks(page - 1)
	if err != nil {
		return nil, &SourceReadError{Err: err}
	}
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Y0 < blocks[j].Y0 })
	var paras []string
	for _, block := range blocks {
		if !block.IsText {
			continue
		}
		if text := strings.TrimSpace(block.Text); text != "" {
			paras = append(paras, text)
		}
	}
	return paras, nil
}

func ocrDPI(p Params) int {
	if p.OCRDPI > 0 {
		return p.OCRDPI
	}
	return 300
}

// markupImage is one page image prepared for emission: either inline data or
// a file written beside the output and referenced by relative path.
type markupImage struct {
	Index   int
	DataURI string
	RelPath string
}

// pageImages materializes a page's embedded images. When embed is true each
// image becomes a JPEG data URI at the given quality; otherwise images are
// written into imageDir and referenced relative to the output file.
func pageImages(src document.Source, page int, embed bool, imageDir, relDir string, quality int) ([]markupImage, error) {
	assets, err := src.Images(page - 1)
	if err != nil {
		return nil, &SourceReadError{Err: err}
	}
	var out []markupImage
	for i, asset := range assets {
		if embed {
			uri, err := imageDataURI(asset.Image, quality)
			if err != nil {
				return nil, err
			}
			out = append(out, markupImage{Index: i, DataURI: uri})
			continue
		}
		name := imageFileName(page, i)
		path := filepath.Join(imageDir, name)
		if err := writePNG(asset.Image, path); err != nil {
			return nil, err
		}
		out = append(out, markupImage{Index: i, RelPath: relDir + "/" + name})
	}
	return out, nil
}

func imageFileName(page, index int) string {
	return fmt.Sprintf("page_%d_img_%d.png", page, index+1)
}

func imageDataURI(img image.Image, quality int) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", &WriteError{Err: err}
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func writePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

var slugStrip = regexp.MustCompile(`[^\w\s-]`)
var slugSpace = regexp.MustCompile(`\s+`)

// slugify builds an anchor-friendly identifier from a heading title.
func slugify(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = slugStrip.ReplaceAllString(text, "")
	return slugSpace.ReplaceAllString(text, "-")
}

// headingFor matches a paragraph against the document outline. The first
// entry whose title equals the trimmed text wins; ambiguity between entries
// sharing a title resolves to the earliest in outline order. Levels are
// clamped to [1, 6]; entries with unusable levels default to 2.
func headingFor(text string, outline []document.OutlineEntry) (level int, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	for _, entry := range outline {
		if entry.Title == text {
			level = entry.Level
			if level < 1 || level > 6 {
				level = 2
			}
			return level, true
		}
	}
	return 0, false
}
