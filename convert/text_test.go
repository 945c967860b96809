package convert

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTextConverterWritesOutput(t *testing.T) {
	backend := &fakeTextExtractor{text: "first page\n\nsecond page"}
	converter := NewTextConverter(backend, nopLogger())

	dest := filepath.Join(t.TempDir(), "out.txt")
	ok, msg := converter.ConvertWithMessage(context.Background(), "in.pdf", dest, Params{})
	if !ok {
		t.Fatalf("convert failed: %s", msg)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "first page\n\nsecond page" {
		t.Errorf("output = %q", data)
	}
}

func TestTextConverterPassesExplicitPages(t *testing.T) {
	backend := &fakeTextExtractor{text: "x"}
	converter := NewTextConverter(backend, nopLogger())

	dest := filepath.Join(t.TempDir(), "out.txt")
	ok, msg := converter.ConvertWithMessage(context.Background(), "in.pdf", dest, Params{PageExpr: "2,4-5"})
	if !ok {
		t.Fatalf("convert failed: %s", msg)
	}
	if len(backend.pages) != 3 || backend.pages[0] != 2 || backend.pages[2] != 5 {
		t.Errorf("backend pages = %v", backend.pages)
	}
}

func TestTextConverterNoBackend(t *testing.T) {
	converter := NewTextConverter(nil, nopLogger())
	dest := filepath.Join(t.TempDir(), "out.txt")
	ok, msg := converter.ConvertWithMessage(context.Background(), "in.pdf", dest, Params{})
	if ok {
		t.Fatalf("convert succeeded without a backend")
	}
	if msg == "" {
		t.Errorf("no failure message")
	}
}

func TestTextConverterOCRPath(t *testing.T) {
	src := &fakeSource{pages: []fakePage{textPage(""), textPage("")}}
	engine := &fakeOCREngine{text: "recognized"}
	processor := newFakeProcessor(src, engine)
	converter := NewTextConverter(nil, nopLogger())

	dest := filepath.Join(t.TempDir(), "out.txt")
	ok, msg := converter.ConvertWithMessage(context.Background(), "in.pdf", dest, Params{
		UseOCR: true,
		OCR:    processor,
	})
	if !ok {
		t.Fatalf("convert failed: %s", msg)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "recognized\n\nrecognized" {
		t.Errorf("output = %q", data)
	}
	if engine.calls != 2 {
		t.Errorf("engine ran %d times, want 2", engine.calls)
	}
}

func TestApplyLineEnding(t *testing.T) {
	mixed := "a\r\nb\nc"
	if got := applyLineEnding(mixed, "lf"); got != "a\nb\nc" {
		t.Errorf("lf: %q", got)
	}
	if got := applyLineEnding(mixed, "crlf"); got != "a\r\nb\r\nc" {
		t.Errorf("crlf: %q", got)
	}
	if got := applyLineEnding(mixed, ""); got != mixed {
		t.Errorf("default: %q", got)
	}
}

func TestEncodeText(t *testing.T) {
	utf8, err := encodeText("héllo", "UTF-8")
	if err != nil {
		t.Fatalf("utf-8: %v", err)
	}
	if string(utf8) != "héllo" {
		t.Errorf("utf-8 output = %q", utf8)
	}

	gbk, err := encodeText("中文", "GBK")
	if err != nil {
		t.Fatalf("gbk: %v", err)
	}
	if strings.Contains(string(gbk), "中") {
		t.Errorf("gbk output was not transcoded: %q", gbk)
	}
	if len(gbk) != 4 {
		t.Errorf("gbk output length = %d, want 4", len(gbk))
	}

	if _, err := encodeText("x", "KOI8-R"); err == nil {
		t.Fatalf("unsupported encoding accepted")
	}
}
