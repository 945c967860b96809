// Command pdfconvert converts paged documents into text, flow documents,
// raster images, markup, or spreadsheets, with optional OCR fallback for
// scanned sources.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wudi/pdfconvert/convert"
	"github.com/wudi/pdfconvert/document"
	"github.com/wudi/pdfconvert/document/fitz"
	"github.com/wudi/pdfconvert/extract"
	"github.com/wudi/pdfconvert/observability"
	"github.com/wudi/pdfconvert/ocr"
	"github.com/wudi/pdfconvert/ocr/tesseract"
)

type convertFlags struct {
	format     string
	outDir     string
	overwrite  bool
	verbose    bool
	useOCR     bool
	ocrLang    string
	ocrData    string
	ocrDPI     int
	preprocess bool
	pages      string
	fromPage   int
	toPage     int

	encoding   string
	lineEnding string

	dpi        int
	quality    int
	singleFile bool

	extractImages bool
	embedImages   bool
	imageQuality  int
	stylesheet    string
	includeNav    bool

	multipleTables bool
	gridLines      bool
	borderless     bool
	guess          bool
	singleSheet    bool
}

func main() {
	// Not an error when absent; the .env file is an optional convenience
	// for OCR configuration.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pdfconvert: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pdfconvert",
		Short:         "Convert paged documents into text, documents, images, markup, or spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newConvertCmd(), newFormatsCmd(), newInfoCmd())
	return root
}

func newConvertCmd() *cobra.Command {
	flags := convertFlags{
		ocrLang: envOr("PDFCONVERT_OCR_LANGUAGE", "simplified-chinese"),
		ocrData: envOr("PDFCONVERT_OCR_DATA", os.Getenv("TESSDATA_PREFIX")),
	}
	cmd := &cobra.Command{
		Use:   "convert [flags] <input>...",
		Short: "Convert one or more documents to the target format",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), flags, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.format, "format", "f", "txt", "target format (txt, docx, png, jpg, html, md, xlsx)")
	f.StringVarP(&flags.outDir, "out", "o", ".", "output directory")
	f.BoolVar(&flags.overwrite, "overwrite", false, "overwrite existing outputs")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "verbose logging")
	f.BoolVar(&flags.useOCR, "ocr", false, "use optical recognition for scanned sources")
	f.StringVar(&flags.ocrLang, "ocr-language", flags.ocrLang, "recognition language identifier")
	f.StringVar(&flags.ocrData, "ocr-data", flags.ocrData, "recognition engine data path")
	f.IntVar(&flags.ocrDPI, "ocr-dpi", 300, "render DPI for recognition")
	f.BoolVar(&flags.preprocess, "preprocess", false, "binarize pages before recognition")
	f.StringVar(&flags.pages, "pages", "", "custom page expression, e.g. 1,3,5-7")
	f.IntVar(&flags.fromPage, "from", 0, "first page of a range (1-based)")
	f.IntVar(&flags.toPage, "to", 0, "last page of a range (inclusive)")

	f.StringVar(&flags.encoding, "encoding", "UTF-8", "text output encoding")
	f.StringVar(&flags.lineEnding, "line-ending", "", "text line endings: lf or crlf")

	f.IntVar(&flags.dpi, "dpi", 200, "raster render DPI")
	f.IntVar(&flags.quality, "quality", 90, "JPEG quality 1-100")
	f.BoolVar(&flags.singleFile, "single-file", false, "stack all pages into one image")

	f.BoolVar(&flags.extractImages, "extract-images", false, "extract embedded images")
	f.BoolVar(&flags.embedImages, "embed-images", false, "inline images as data URIs")
	f.IntVar(&flags.imageQuality, "image-quality", 80, "embedded image quality 1-100")
	f.StringVar(&flags.stylesheet, "stylesheet", "", "custom CSS file for HTML output")
	f.BoolVar(&flags.includeNav, "include-navigation", false, "prepend an outline navigation block")

	f.BoolVar(&flags.multipleTables, "multiple-tables", true, "extract every table")
	f.BoolVar(&flags.gridLines, "grid", true, "grid-line-aware table extraction")
	f.BoolVar(&flags.borderless, "borderless", false, "extract tables without ruling lines")
	f.BoolVar(&flags.guess, "guess", true, "guess table structure")
	f.BoolVar(&flags.singleSheet, "single-sheet", false, "write all tables into one sheet")
	return cmd
}

func runConvert(ctx context.Context, flags convertFlags, inputs []string) error {
	logger := newLogger(flags.verbose)
	provider := fitz.NewProvider()
	registry := convert.NewRegistry(convert.Backends{
		Provider: provider,
		Text:     extract.NewTextService(),
		Flow:     extract.NewFlowDocService(provider),
		Tables:   extract.NewTableService(provider),
		Logger:   logger,
	})

	engine := convert.NewEngine(registry,
		convert.WithEngineLogger(logger),
		convert.WithProcessorFactory(processorFactory(provider, logger)),
		convert.WithSink(func(event convert.Event) {
			switch event.Kind {
			case convert.EventTaskStarted:
				fmt.Printf("converting %s\n", event.Task.SourcePath)
			case convert.EventTaskCompleted:
				if event.Success {
					fmt.Printf("  done: %s\n", event.Task.DestPath)
				} else {
					fmt.Printf("  failed: %s\n", event.Message)
				}
			case convert.EventProgress:
				fmt.Printf("progress: %d%%\n", event.Progress)
			case convert.EventAllCompleted:
				fmt.Println("all tasks completed")
			}
		}))

	settings, err := buildSettings(flags)
	if err != nil {
		return err
	}
	converter, err := registry.Get(flags.format)
	if err != nil {
		return err
	}
	for _, input := range inputs {
		dest := convert.OutputPath(input, flags.outDir, converter.OutputExtension())
		if !flags.overwrite {
			if _, err := os.Stat(dest); err == nil {
				fmt.Printf("skipping %s: %s exists\n", input, dest)
				continue
			}
		}
		engine.CreateTask(input, dest, flags.format, settings)
	}

	engine.ExecuteAll(ctx)

	failures := 0
	for _, task := range engine.Tasks() {
		if success, ok := task.Succeeded(); ok && !success {
			failures++
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d tasks failed", failures, len(engine.Tasks()))
	}
	return nil
}

func buildSettings(flags convertFlags) (convert.Settings, error) {
	settings := convert.Settings{
		General: convert.GeneralSettings{Overwrite: flags.overwrite},
		Pages:   convert.AllPages(),
		OCR: convert.OCRSettings{
			Enabled:    flags.useOCR,
			Language:   flags.ocrLang,
			DataPath:   flags.ocrData,
			DPI:        flags.ocrDPI,
			Preprocess: flags.preprocess,
		},
	}
	if flags.pages != "" && flags.fromPage > 0 {
		return settings, fmt.Errorf("--pages and --from/--to are mutually exclusive")
	}
	if flags.pages != "" {
		if _, err := convert.ParsePageExpression(flags.pages); err != nil {
			return settings, err
		}
		settings.Pages = convert.CustomPages(flags.pages)
	} else if flags.fromPage > 0 {
		settings.Pages = convert.PageRange(flags.fromPage, flags.toPage)
	}

	switch strings.ToLower(flags.format) {
	case "txt":
		settings.Text = &convert.TextSettings{Encoding: flags.encoding, LineEnding: flags.lineEnding}
	case "docx":
		settings.FlowDocument = &convert.FlowDocumentSettings{PreserveFormat: true, ExtractImages: true, DetectTables: true}
	case "png", "jpg", "jpeg":
		settings.Raster = &convert.RasterSettings{DPI: flags.dpi, Quality: flags.quality, SingleFile: flags.singleFile}
	case "html":
		settings.HTML = &convert.HTMLSettings{
			ExtractImages: flags.extractImages,
			EmbedImages:   flags.embedImages,
			ImageQuality:  flags.imageQuality,
			Stylesheet:    flags.stylesheet,
		}
	case "md":
		settings.Markdown = &convert.MarkdownSettings{
			ExtractImages:     flags.extractImages,
			EmbedImages:       flags.embedImages,
			IncludeNavigation: flags.includeNav,
		}
	case "xlsx":
		settings.Spreadsheet = &convert.SpreadsheetSettings{
			MultipleTables: flags.multipleTables,
			GridLines:      flags.gridLines,
			Borderless:     flags.borderless,
			GuessStructure: flags.guess,
			SingleSheet:    flags.singleSheet,
		}
	}
	return settings, nil
}

func processorFactory(provider document.Provider, logger observability.Logger) convert.ProcessorFactory {
	return func(dataPath, languageCode string) *ocr.Processor {
		return ocr.NewProcessor(dataPath, languageCode,
			ocr.WithEngine(tesseract.NewEngine(dataPath, languageCode)),
			ocr.WithProvider(provider),
			ocr.WithLogger(logger))
	}
}

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported target formats",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := convert.NewRegistry(convert.Backends{})
			for _, info := range registry.Info() {
				fmt.Printf("%-6s %-20s .%s\n", info.ID, info.Name, strings.ToLower(info.Ext))
			}
			return nil
		},
	}
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <input>",
		Short: "Inspect a document: page count, text layer, encryption",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := fitz.NewProvider()
			src, err := provider.Open(args[0])
			if err != nil {
				return err
			}
			defer src.Close()
			info := document.Probe(src)
			encrypted, err := fitz.Encrypted(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("pages:      %d\n", info.PageCount)
			fmt.Printf("text layer: %v\n", info.HasTextLayer)
			fmt.Printf("encrypted:  %v\n", encrypted)
			if !info.HasTextLayer {
				fmt.Println("hint: no extractable text found; convert with --ocr")
			}
			return nil
		},
	}
}

func newLogger(verbose bool) observability.Logger {
	if !verbose {
		return observability.NopLogger{}
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	return observability.NewSlogLogger(slog.New(handler))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
