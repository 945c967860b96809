// Package convert implements the conversion orchestration engine: task and
// settings models, the format converter family, and the synchronous engine
// that drives them.
package convert

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wudi/pdfconvert/document"
	"github.com/wudi/pdfconvert/observability"
)

// Converter is the per-format conversion strategy. Convert must create any
// missing destination directory, must never panic or let an error escape,
// and reports failure as false.
type Converter interface {
	Convert(ctx context.Context, source, dest string, p Params) bool
	OutputExtension() string
}

// MessageConverter is implemented by converters that can attach a failure
// message to the boolean outcome.
type MessageConverter interface {
	Converter
	ConvertWithMessage(ctx context.Context, source, dest string, p Params) (bool, string)
}

// Batch converts each source independently into destDir, naming outputs
// after the source stem and the converter's extension. One failure does not
// abort the batch; failed sources are omitted from the returned paths.
func Batch(ctx context.Context, c Converter, sources []string, destDir string, p Params) []string {
	var written []string
	for _, source := range sources {
		dest := OutputPath(source, destDir, c.OutputExtension())
		if c.Convert(ctx, source, dest, p) {
			written = append(written, dest)
		}
	}
	return written
}

// OutputPath derives the destination path for a source file converted into
// destDir with the given extension.
func OutputPath(source, destDir, ext string) string {
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(destDir, stem+"."+ext)
}

// ensureDestDir creates the destination's parent directory.
func ensureDestDir(dest string) error {
	dir := filepath.Dir(dest)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &WriteError{Path: dir, Err: err}
	}
	return nil
}

// TextExtractor is the direct plain-text extraction service. A nil pages
// slice means the whole document; pages are 1-based.
type TextExtractor interface {
	ExtractText(path string, pages []int) (string, error)
}

// FlowConverter is the direct PDF-to-flow-document service. Exactly one of
// pages (explicit 1-based list) or startPage/endPage may be set; zero
// start/end with nil pages converts the whole document.
type FlowConverter interface {
	ConvertFlow(path, dest string, pages []int, startPage, endPage int) error
}

// TableOptions carries the direct tabular extraction flags.
type TableOptions struct {
	MultipleTables bool
	GridLines      bool
	Borderless     bool
	GuessStructure bool
}

// ExtractedTable is one table returned by the direct tabular service.
type ExtractedTable struct {
	Rows [][]string
}

// TableExtractor is the direct tabular extraction service. A nil pages slice
// means the whole document.
type TableExtractor interface {
	ExtractTables(path string, pages []int, opts TableOptions) ([]ExtractedTable, error)
}

// Backends bundles the external collaborators converters delegate to.
type Backends struct {
	Provider document.Provider
	Text     TextExtractor
	Flow     FlowConverter
	Tables   TableExtractor
	Logger   observability.Logger
}

func (b Backends) logger() observability.Logger {
	if b.Logger == nil {
		return observability.NopLogger{}
	}
	return b.Logger
}

// FormatInfo describes one supported target format.
type FormatInfo struct {
	ID   string
	Name string
	Ext  string
}

// Registry is the immutable mapping from format identifiers to converter
// instances, built once at startup.
type Registry struct {
	converters map[string]Converter
}

// NewRegistry builds the full converter family over the given backends.
func NewRegistry(b Backends) *Registry {
	logger := b.logger()
	return &Registry{converters: map[string]Converter{
		"txt":  NewTextConverter(b.Text, logger),
		"docx": NewFlowDocConverter(b.Flow, logger),
		"png":  NewRasterConverter("png", b.Provider, logger),
		"jpg":  NewRasterConverter("jpg", b.Provider, logger),
		"html": NewHTMLConverter(b.Provider, logger),
		"md":   NewMarkdownConverter(b.Provider, logger),
		"xlsx": NewSpreadsheetConverter(b.Tables, logger),
	}}
}

func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "jpeg" {
		return "jpg"
	}
	return format
}

// Get looks up the converter for a format identifier. Unregistered
// identifiers are a hard ConfigurationError, never a default.
func (r *Registry) Get(format string) (Converter, error) {
	c, ok := r.converters[normalizeFormat(format)]
	if !ok {
		return nil, configErrorf("unsupported target format %q", format)
	}
	return c, nil
}

// Formats returns the registered format identifiers in sorted order.
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.converters))
	for id := range r.converters {
		formats = append(formats, id)
	}
	sort.Strings(formats)
	return formats
}

// Info lists the supported formats with display names.
func (r *Registry) Info() []FormatInfo {
	names := map[string]string{
		"txt":  "Plain text",
		"docx": "Word document",
		"png":  "PNG image",
		"jpg":  "JPEG image",
		"html": "HTML page",
		"md":   "Markdown document",
		"xlsx": "Excel workbook",
	}
	infos := make([]FormatInfo, 0, len(r.converters))
	for _, id := range r.Formats() {
		infos = append(infos, FormatInfo{
			ID:   id,
			Name: names[id],
			Ext:  strings.ToUpper(id),
		})
	}
	return infos
}

// convertFailure formats a converter-boundary failure for logs and task
// records.
func convertFailure(logger observability.Logger, format, source string, err error) (bool, string) {
	logger.Error("conversion failed",
		observability.String("format", format),
		observability.String("source", source),
		observability.Error("err", err))
	return false, err.Error()
}
