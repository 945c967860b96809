package convert

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/wudi/pdfconvert/observability"
)

// flowDocFontSize is the fixed run size (half-points) used for paragraphs
// written on the recognition path.
const flowDocFontSize = "22"

// FlowDocConverter produces Word documents, delegating to the direct
// PDF-to-document service unless recognition is requested.
type FlowDocConverter struct {
	backend FlowConverter
	logger  observability.Logger
}

func NewFlowDocConverter(backend FlowConverter, logger observability.Logger) *FlowDocConverter {
	return &FlowDocConverter{backend: backend, logger: logger}
}

func (c *FlowDocConverter) OutputExtension() string { return "docx" }

func (c *FlowDocConverter) Convert(ctx context.Context, source, dest string, p Params) bool {
	ok, _ := c.ConvertWithMessage(ctx, source, dest, p)
	return ok
}

func (c *FlowDocConverter) ConvertWithMessage(ctx context.Context, source, dest string, p Params) (ok bool, msg string) {
	defer recoverFailure(c.logger, "docx", source, &ok, &msg)

	if err := ensureDestDir(dest); err != nil {
		return convertFailure(c.logger, "docx", source, err)
	}

	if p.UseOCR && p.OCR != nil {
		if err := c.convertWithOCR(ctx, source, dest, p); err != nil {
			return convertFailure(c.logger, "docx", source, err)
		}
	} else {
		if err := c.convertDirect(source, dest, p); err != nil {
			return convertFailure(c.logger, "docx", source, err)
		}
	}
	c.logger.Info("flow document written",
		observability.String("source", source),
		observability.String("dest", dest),
		observability.Bool("ocr", p.UseOCR))
	return true, ""
}

// convertDirect delegates to the direct service with either an explicit page
// list or a start/end range, never both.
func (c *FlowDocConverter) convertDirect(source, dest string, p Params) error {
	if c.backend == nil {
		return &BackendError{Backend: "flow", Err: fmt.Errorf("no flow-document backend configured")}
	}
	if p.PageExpr != "" {
		pages, err := ParsePageExpression(p.PageExpr)
		if err != nil {
			return err
		}
		if err := c.backend.ConvertFlow(source, dest, pages, 0, 0); err != nil {
			return &BackendError{Backend: "flow", Err: err}
		}
		return nil
	}
	if err := c.backend.ConvertFlow(source, dest, nil, p.StartPage, p.EndPage); err != nil {
		return &BackendError{Backend: "flow", Err: err}
	}
	return nil
}

// convertWithOCR extracts the document text through the recognition adapter
// and writes each non-empty paragraph, split on blank lines, into the
// destination with a fixed default size.
func (c *FlowDocConverter) convertWithOCR(ctx context.Context, source, dest string, p Params) error {
	text, err := p.OCR.DocumentText(ctx, source, p.OCRDPI, p.OCRPreprocess)
	if err != nil {
		return &BackendError{Backend: "ocr", Err: err}
	}

	doc := docx.New().WithDefaultTheme()
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		doc.AddParagraph().AddText(para).Size(flowDocFontSize)
	}

	f, err := os.Create(dest)
	if err != nil {
		return &WriteError{Path: dest, Err: err}
	}
	defer f.Close()
	if _, err := doc.WriteTo(f); err != nil {
		return &WriteError{Path: dest, Err: err}
	}
	return nil
}
