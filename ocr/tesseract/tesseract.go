// Package tesseract backs the ocr.Engine contract with the gosseract client.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/wudi/pdfconvert/ocr"
)

// Engine implements ocr.Engine using Tesseract through gosseract.
type Engine struct {
	dataPath      string
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewEngine constructs a Tesseract engine. dataPath points at the trained
// data directory and may be empty to use the system default; language is a
// Tesseract code, with multiple languages joined by "+" (e.g. "chi_sim+eng").
func NewEngine(dataPath, language string) *Engine {
	var langs []string
	for _, l := range strings.Split(language, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return &Engine{
		dataPath:      dataPath,
		languages:     langs,
		clientFactory: gosseract.NewClient,
	}
}

func (e *Engine) Name() string { return "tesseract" }

// RecognizeText extracts linear text from one image.
func (e *Engine) RecognizeText(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c, err := e.newClient(img)
	if err != nil {
		return "", err
	}
	defer c.Close()

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}

// RecognizeTokens extracts word-level tokens with pixel positions and
// confidences normalized to [0, 1]. Tokens Tesseract marks as non-text keep
// their negative confidence so callers can filter them out.
func (e *Engine) RecognizeTokens(ctx context.Context, img image.Image) ([]ocr.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := e.newClient(img)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("recognize tokens: %w", err)
	}
	tokens := make([]ocr.Token, 0, len(boxes))
	for _, b := range boxes {
		tokens = append(tokens, ocr.Token{
			Text:       b.Word,
			Confidence: b.Confidence / 100.0,
			Left:       b.Box.Min.X,
			Top:        b.Box.Min.Y,
		})
	}
	return tokens, nil
}

func (e *Engine) newClient(img image.Image) (*gosseract.Client, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	c := e.clientFactory()
	if e.dataPath != "" {
		if err := c.SetTessdataPrefix(e.dataPath); err != nil {
			c.Close()
			return nil, fmt.Errorf("set data path: %w", err)
		}
	}
	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			c.Close()
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		c.Close()
		return nil, fmt.Errorf("set image: %w", err)
	}
	return c, nil
}
