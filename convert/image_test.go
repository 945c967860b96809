package convert

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestStackVertically(t *testing.T) {
	fill := func(w, h int, c color.RGBA) image.Image {
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetRGBA(x, y, c)
			}
		}
		return img
	}
	red := color.RGBA{R: 255, A: 255}
	green := color.RGBA{G: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}

	merged := stackVertically([]image.Image{
		fill(80, 100, red),
		fill(60, 150, green),
		fill(80, 120, blue),
	})
	bounds := merged.Bounds()
	if bounds.Dx() != 80 || bounds.Dy() != 370 {
		t.Fatalf("canvas = %dx%d, want 80x370", bounds.Dx(), bounds.Dy())
	}

	// Pages sit at cumulative offsets 0, 100, 250, left-aligned.
	probes := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 0, red},
		{0, 100, green},
		{0, 250, blue},
		// The narrower page leaves the white canvas exposed on the right.
		{70, 100, color.RGBA{R: 255, G: 255, B: 255, A: 255}},
	}
	for _, p := range probes {
		r, g, b, a := merged.At(p.x, p.y).RGBA()
		got := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
		if got != p.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", p.x, p.y, got, p.want)
		}
	}
}

func TestRasterConverterPerPageFiles(t *testing.T) {
	src := &fakeSource{pages: []fakePage{
		{width: 40, height: 60},
		{width: 40, height: 60},
		{width: 40, height: 60},
	}}
	converter := NewRasterConverter("png", fakeProvider{src: src}, nopLogger())

	dir := t.TempDir()
	dest := filepath.Join(dir, "doc.png")
	ok, msg := converter.ConvertWithMessage(context.Background(), "doc.pdf", dest, Params{})
	if !ok {
		t.Fatalf("convert failed: %s", msg)
	}
	for page := 1; page <= 3; page++ {
		path := filepath.Join(dir, fmt.Sprintf("doc_page_%d.png", page))
		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("missing page output: %v", err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 60 {
			t.Errorf("%s = %dx%d", path, img.Bounds().Dx(), img.Bounds().Dy())
		}
	}
}

func TestRasterConverterSingleFile(t *testing.T) {
	src := &fakeSource{pages: []fakePage{
		{width: 40, height: 60},
		{width: 50, height: 70},
	}}
	converter := NewRasterConverter("png", fakeProvider{src: src}, nopLogger())

	dest := filepath.Join(t.TempDir(), "doc.png")
	ok, msg := converter.ConvertWithMessage(context.Background(), "doc.pdf", dest, Params{SingleFile: true})
	if !ok {
		t.Fatalf("convert failed: %s", msg)
	}
	f, err := os.Open(dest)
	if err != nil {
		t.Fatalf("open merged output: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode merged output: %v", err)
	}
	if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 130 {
		t.Errorf("merged = %dx%d, want 50x130", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestRasterConverterPageSubset(t *testing.T) {
	src := &fakeSource{pages: []fakePage{
		{width: 40, height: 60},
		{width: 40, height: 60},
		{width: 40, height: 60},
		{width: 40, height: 60},
	}}
	converter := NewRasterConverter("jpg", fakeProvider{src: src}, nopLogger())

	dir := t.TempDir()
	dest := filepath.Join(dir, "doc.jpg")
	ok, msg := converter.ConvertWithMessage(context.Background(), "doc.pdf", dest, Params{StartPage: 2, EndPage: 3})
	if !ok {
		t.Fatalf("convert failed: %s", msg)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("wrote %d files, want 2", len(entries))
	}
}

func TestRasterConverterNoPagesSelected(t *testing.T) {
	src := &fakeSource{pages: []fakePage{{width: 40, height: 60}}}
	converter := NewRasterConverter("png", fakeProvider{src: src}, nopLogger())

	dest := filepath.Join(t.TempDir(), "doc.png")
	ok, msg := converter.ConvertWithMessage(context.Background(), "doc.pdf", dest, Params{PageExpr: "5"})
	if ok {
		t.Fatalf("convert succeeded with no pages in range")
	}
	if msg == "" {
		t.Errorf("no failure message")
	}
}

func TestNewRasterConverterRejectsUnknownFormat(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unsupported format")
		}
	}()
	NewRasterConverter("tiff", fakeProvider{}, nopLogger())
}
