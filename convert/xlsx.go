package convert

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/wudi/pdfconvert/observability"
	"github.com/wudi/pdfconvert/tables"
)

// SpreadsheetConverter extracts tables into an Excel workbook. Without
// recognition it delegates to the direct tabular service; with recognition
// it reconstructs tables from rendered pages.
type SpreadsheetConverter struct {
	backend TableExtractor
	logger  observability.Logger
}

func NewSpreadsheetConverter(backend TableExtractor, logger observability.Logger) *SpreadsheetConverter {
	return &SpreadsheetConverter{backend: backend, logger: logger}
}

func (c *SpreadsheetConverter) OutputExtension() string { return "xlsx" }

func (c *SpreadsheetConverter) Convert(ctx context.Context, source, dest string, p Params) bool {
	ok, _ := c.ConvertWithMessage(ctx, source, dest, p)
	return ok
}

func (c *SpreadsheetConverter) ConvertWithMessage(ctx context.Context, source, dest string, p Params) (ok bool, msg string) {
	defer recoverFailure(c.logger, "xlsx", source, &ok, &msg)

	if err := ensureDestDir(dest); err != nil {
		return convertFailure(c.logger, "xlsx", source, err)
	}

	var extracted []ExtractedTable
	var err error
	if p.UseOCR && p.OCR != nil {
		extracted, err = c.reconstruct(ctx, source, p)
	} else {
		extracted, err = c.extractDirect(source, p)
	}
	if err != nil {
		return convertFailure(c.logger, "xlsx", source, err)
	}
	if len(extracted) == 0 {
		return convertFailure(c.logger, "xlsx", source,
			&BackendError{Backend: "tables", Err: fmt.Errorf("no tables found")})
	}

	if err := writeWorkbook(dest, extracted, p.SingleSheet); err != nil {
		return convertFailure(c.logger, "xlsx", source, err)
	}
	c.logger.Info("workbook written",
		observability.String("source", source),
		observability.String("dest", dest),
		observability.Int(observability.MetricTablesRecovered, len(extracted)),
		observability.Bool("ocr", p.UseOCR))
	return true, ""
}

func (c *SpreadsheetConverter) extractDirect(source string, p Params) ([]ExtractedTable, error) {
	if c.backend == nil {
		return nil, &BackendError{Backend: "tables", Err: fmt.Errorf("no tabular backend configured")}
	}
	pages, err := explicitPages(p)
	if err != nil {
		return nil, err
	}
	extracted, err := c.backend.ExtractTables(source, pages, TableOptions{
		MultipleTables: p.MultipleTables,
		GridLines:      p.GridLines,
		Borderless:     p.Borderless,
		GuessStructure: p.GuessStructure,
	})
	if err != nil {
		return nil, &BackendError{Backend: "tables", Err: err}
	}
	return extracted, nil
}

// reconstruct renders each selected page and recovers row tables from grid
// regions. Reconstructed rows are single-column.
func (c *SpreadsheetConverter) reconstruct(ctx context.Context, source string, p Params) ([]ExtractedTable, error) {
	images, err := p.OCR.Rasterize(source, ocrDPI(p))
	if err != nil {
		return nil, &SourceReadError{Path: source, Err: err}
	}
	selected, err := selectedPages(p, len(images))
	if err != nil {
		return nil, err
	}

	reconstructor := tables.New(p.OCR, tables.WithLogger(c.logger))
	var extracted []ExtractedTable
	for _, page := range selected {
		found, err := reconstructor.Reconstruct(ctx, images[page-1])
		if err != nil {
			return nil, &BackendError{Backend: "ocr", Err: err}
		}
		for _, table := range found {
			rows := make([][]string, len(table.Rows))
			for i, row := range table.Rows {
				rows[i] = []string{row}
			}
			extracted = append(extracted, ExtractedTable{Rows: rows})
		}
	}
	return extracted, nil
}

// writeWorkbook writes tables either one per sheet (Sheet1, Table_2, ...) or
// concatenated into a single sheet with blank-row separators.
func writeWorkbook(dest string, extracted []ExtractedTable, singleSheet bool) error {
	f := excelize.NewFile()
	defer f.Close()

	if singleSheet {
		row := 1
		for _, table := range extracted {
			if err := writeRows(f, "Sheet1", row, table.Rows); err != nil {
				return err
			}
			row += len(table.Rows) + 2
		}
	} else {
		for i, table := range extracted {
			sheet := "Sheet1"
			if i > 0 {
				sheet = fmt.Sprintf("Table_%d", i+1)
				if _, err := f.NewSheet(sheet); err != nil {
					return &WriteError{Path: dest, Err: err}
				}
			}
			if err := writeRows(f, sheet, 1, table.Rows); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(dest); err != nil {
		return &WriteError{Path: dest, Err: err}
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, startRow int, rows [][]string) error {
	for r, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, startRow+r)
			if err != nil {
				return &WriteError{Err: err}
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return &WriteError{Err: err}
			}
		}
	}
	return nil
}
