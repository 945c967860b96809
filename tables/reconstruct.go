// Package tables reconstructs row tables from scanned page rasters. Table
// regions are located by grid-line detection; their contents are recognized
// and reassembled from positional word tokens. Columns are not individually
// resolved: each detected row is flattened into one string.
package tables

import (
	"context"
	"image"
	"sort"
	"strings"

	"golang.org/x/image/draw"

	"github.com/wudi/pdfconvert/ocr"
	"github.com/wudi/pdfconvert/observability"
)

const (
	// lineElementLength is the structuring-element length for grid-line
	// detection; strokes shorter than this are not treated as table rules.
	lineElementLength = 40
	// minRegionSide filters contour boxes that are too small to be tables.
	minRegionSide = 100
	// rowBucketHeight quantizes token top coordinates into rows.
	rowBucketHeight = 10
)

// TokenRecognizer recognizes positional word tokens on an image.
type TokenRecognizer interface {
	RecognizeTokens(ctx context.Context, img image.Image) ([]ocr.Token, error)
}

// Table is an ordered sequence of reconstructed rows, one string per row.
type Table struct {
	Rows []string
}

// Reconstructor detects grid-lined regions on a page raster and rebuilds
// their contents as row tables.
type Reconstructor struct {
	recognizer TokenRecognizer
	logger     observability.Logger
}

// Option configures a Reconstructor.
type Option func(*Reconstructor)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(r *Reconstructor) { r.logger = logger }
}

// New builds a Reconstructor around the given token recognizer.
func New(recognizer TokenRecognizer, opts ...Option) *Reconstructor {
	r := &Reconstructor{
		recognizer: recognizer,
		logger:     observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconstruct locates table regions on one page raster and returns one table
// per region that yielded any rows, ordered top-to-bottom then left-to-right.
// Regions whose recognition produces no usable tokens are skipped. A page
// without grid lines yields no tables and no error.
func (r *Reconstructor) Reconstruct(ctx context.Context, page image.Image) ([]Table, error) {
	regions := r.detectRegions(page)
	r.logger.Debug("table regions detected",
		observability.Int(observability.MetricRegionCandidates, len(regions)))

	var tables []Table
	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		crop := cropImage(page, region)
		tokens, err := r.recognizer.RecognizeTokens(ctx, crop)
		if err != nil {
			return nil, err
		}
		rows := assembleRows(tokens)
		if len(rows) == 0 {
			continue
		}
		tables = append(tables, Table{Rows: rows})
	}
	return tables, nil
}

// detectRegions builds a grid mask from horizontal and vertical line openings
// and returns the bounding boxes of its connected components, discarding
// boxes with a side below minRegionSide.
func (r *Reconstructor) detectRegions(page image.Image) []image.Rectangle {
	gray := grayscale(page)
	strokes := binarizeInverted(gray)

	mask := openHorizontal(strokes, lineElementLength)
	mask.union(openVertical(strokes, lineElementLength))

	var regions []image.Rectangle
	for _, box := range boundingBoxes(mask) {
		if box.Dx() < minRegionSide || box.Dy() < minRegionSide {
			continue
		}
		regions = append(regions, box)
	}
	sort.Slice(regions, func(i, j int) bool {
		if regions[i].Min.Y != regions[j].Min.Y {
			return regions[i].Min.Y < regions[j].Min.Y
		}
		return regions[i].Min.X < regions[j].Min.X
	})
	return regions
}

// assembleRows buckets tokens into rows by quantized top coordinate, sorts
// each bucket left-to-right, and joins token text with single spaces. Tokens
// with non-positive confidence or blank text are dropped.
func assembleRows(tokens []ocr.Token) []string {
	buckets := make(map[int][]ocr.Token)
	for _, tok := range tokens {
		if tok.Confidence <= 0 || strings.TrimSpace(tok.Text) == "" {
			continue
		}
		bucket := tok.Top / rowBucketHeight
		buckets[bucket] = append(buckets[bucket], tok)
	}
	if len(buckets) == 0 {
		return nil
	}

	order := make([]int, 0, len(buckets))
	for bucket := range buckets {
		order = append(order, bucket)
	}
	sort.Ints(order)

	rows := make([]string, 0, len(order))
	for _, bucket := range order {
		group := buckets[bucket]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Left < group[j].Left })
		parts := make([]string, len(group))
		for i, tok := range group {
			parts[i] = tok.Text
		}
		rows = append(rows, strings.Join(parts, " "))
	}
	return rows
}

func cropImage(img image.Image, region image.Rectangle) image.Image {
	rect := region.Add(img.Bounds().Min).Intersect(img.Bounds())
	crop := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(crop, crop.Bounds(), img, rect.Min, draw.Src)
	return crop
}
