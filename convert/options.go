package convert

import (
	"github.com/wudi/pdfconvert/ocr"
)

// Settings is the nested, user-facing configuration for one task. Exactly
// one format-specific block should be set, matching the task's target
// format; blocks for other formats are ignored.
type Settings struct {
	General      GeneralSettings
	Pages        PageSelection
	OCR          OCRSettings
	Text         *TextSettings
	FlowDocument *FlowDocumentSettings
	Raster       *RasterSettings
	HTML         *HTMLSettings
	Markdown     *MarkdownSettings
	Spreadsheet  *SpreadsheetSettings
}

type GeneralSettings struct {
	Overwrite bool
}

// OCRSettings configures the recognition fallback.
type OCRSettings struct {
	Enabled bool
	// Language is one of the closed language identifiers (see Languages);
	// unrecognized values fall back to simplified Chinese plus English.
	Language string
	// DataPath locates the recognition engine's trained data; empty uses the
	// system default.
	DataPath string
	// DPI used when rasterizing pages for recognition; zero means 300.
	DPI        int
	Preprocess bool
}

type TextSettings struct {
	// Encoding of the output file; empty means UTF-8.
	Encoding string
	// LineEnding is "lf", "crlf", or empty to leave line endings untouched.
	LineEnding string
}

type FlowDocumentSettings struct {
	PreserveFormat bool
	ExtractImages  bool
	DetectTables   bool
}

type RasterSettings struct {
	// DPI for page rendering; zero means 200.
	DPI int
	// Quality 1-100, applied to the lossy format only; zero means 90.
	Quality int
	// SingleFile vertically stacks all pages into one output image.
	SingleFile bool
}

type HTMLSettings struct {
	ExtractImages bool
	EmbedImages   bool
	// ImageQuality 1-100; zero means 80.
	ImageQuality int
	// Stylesheet is an optional path to a custom CSS file.
	Stylesheet string
}

type MarkdownSettings struct {
	ExtractImages     bool
	EmbedImages       bool
	IncludeNavigation bool
}

type SpreadsheetSettings struct {
	MultipleTables bool
	// GridLines enables grid-line-aware extraction (lattice mode).
	GridLines bool
	// Borderless enables extraction for tables without ruling lines.
	Borderless bool
	// GuessStructure lets the backend infer the table structure.
	GuessStructure bool
	// SingleSheet concatenates all tables into one sheet with blank-row
	// separators instead of one sheet per table.
	SingleSheet bool
}

// Params is the flat, format-specific parameter set consumed by converters.
// Zero values stand for the documented defaults; absent page-restriction
// fields mean every page.
type Params struct {
	UseOCR        bool
	OCR           *ocr.Processor
	OCRDPI        int
	OCRPreprocess bool

	StartPage int
	EndPage   int
	PageExpr  string

	Overwrite bool

	Encoding   string
	LineEnding string

	PreserveFormat bool
	DetectTables   bool

	DPI        int
	Quality    int
	SingleFile bool

	ExtractImages     bool
	EmbedImages       bool
	ImageQuality      int
	Stylesheet        string
	IncludeNavigation bool

	MultipleTables bool
	GridLines      bool
	Borderless     bool
	GuessStructure bool
	SingleSheet    bool
}

// Languages is the closed mapping from configuration language identifiers to
// recognition engine codes.
var Languages = map[string]string{
	"simplified-chinese":  "chi_sim+eng",
	"traditional-chinese": "chi_tra+eng",
	"english":             "eng",
	"japanese":            "jpn",
	"korean":              "kor",
	"french":              "fra",
	"german":              "deu",
	"spanish":             "spa",
}

// DefaultLanguage is used when the configured language is not recognized.
const DefaultLanguage = "chi_sim+eng"

// LanguageCode resolves a configuration language identifier to an engine
// code, falling back to DefaultLanguage.
func LanguageCode(language string) string {
	if code, ok := Languages[language]; ok {
		return code
	}
	return DefaultLanguage
}

// ProcessorFactory builds a recognition adapter for a data path and language
// code. The cmd wiring supplies a Tesseract-backed factory; tests supply
// fakes.
type ProcessorFactory func(dataPath, languageCode string) *ocr.Processor

// Resolver maps task settings into the flat parameter set and owns the
// lazily-built, shared recognition adapter. It is not internally
// synchronized; the engine's sequential execution is its only caller.
type Resolver struct {
	registry  *Registry
	factory   ProcessorFactory
	processor *ocr.Processor
}

// NewResolver builds a resolver against the converter registry. factory may
// be nil, in which case a bare adapter without a recognition engine is
// constructed on first use.
func NewResolver(registry *Registry, factory ProcessorFactory) *Resolver {
	if factory == nil {
		factory = func(dataPath, code string) *ocr.Processor {
			return ocr.NewProcessor(dataPath, code)
		}
	}
	return &Resolver{registry: registry, factory: factory}
}

// Processor returns the shared recognition adapter, or nil if no task has
// needed recognition yet.
func (r *Resolver) Processor() *ocr.Processor { return r.processor }

// Resolve flattens the task's nested settings into converter parameters,
// constructing the shared recognition adapter on first use. It fails with a
// ConfigurationError when the target format is unregistered.
func (r *Resolver) Resolve(task *Task) (Params, error) {
	if _, err := r.registry.Get(task.Format); err != nil {
		return Params{}, err
	}

	s := task.Settings
	p := Params{Overwrite: s.General.Overwrite}

	if s.OCR.Enabled {
		p.UseOCR = true
		p.OCRDPI = s.OCR.DPI
		if p.OCRDPI == 0 {
			p.OCRDPI = 300
		}
		p.OCRPreprocess = s.OCR.Preprocess
		if r.processor == nil {
			r.processor = r.factory(s.OCR.DataPath, LanguageCode(s.OCR.Language))
		}
		p.OCR = r.processor
	}

	if from, to, ok := s.Pages.Range(); ok {
		p.StartPage = from
		p.EndPage = to
	} else if expr, ok := s.Pages.Expression(); ok {
		p.PageExpr = expr
	}

	switch normalizeFormat(task.Format) {
	case "txt":
		if s.Text != nil {
			p.Encoding = s.Text.Encoding
			p.LineEnding = s.Text.LineEnding
		}
	case "docx":
		if s.FlowDocument != nil {
			p.PreserveFormat = s.FlowDocument.PreserveFormat
			p.ExtractImages = s.FlowDocument.ExtractImages
			p.DetectTables = s.FlowDocument.DetectTables
		}
	case "png", "jpg":
		p.DPI = 200
		p.Quality = 90
		if s.Raster != nil {
			if s.Raster.DPI > 0 {
				p.DPI = s.Raster.DPI
			}
			if s.Raster.Quality > 0 {
				p.Quality = s.Raster.Quality
			}
			p.SingleFile = s.Raster.SingleFile
		}
	case "html":
		p.ImageQuality = 80
		if s.HTML != nil {
			p.ExtractImages = s.HTML.ExtractImages
			p.EmbedImages = s.HTML.EmbedImages
			if s.HTML.ImageQuality > 0 {
				p.ImageQuality = s.HTML.ImageQuality
			}
			p.Stylesheet = s.HTML.Stylesheet
		}
	case "md":
		if s.Markdown != nil {
			p.ExtractImages = s.Markdown.ExtractImages
			p.EmbedImages = s.Markdown.EmbedImages
			p.IncludeNavigation = s.Markdown.IncludeNavigation
		}
	case "xlsx":
		if s.Spreadsheet != nil {
			p.MultipleTables = s.Spreadsheet.MultipleTables
			p.GridLines = s.Spreadsheet.GridLines
			p.Borderless = s.Spreadsheet.Borderless
			p.GuessStructure = s.Spreadsheet.GuessStructure
			p.SingleSheet = s.Spreadsheet.SingleSheet
		}
	}
	return p, nil
}
