package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// GosseractProvider implements OCR through the libtesseract bindings.
// A gosseract client is not safe for concurrent use, so one short-lived
// client is created per call; extraction concurrency is already bounded by
// the worker pool.
type GosseractProvider struct{}

// NewGosseractProvider creates the library-based tesseract provider.
func NewGosseractProvider() *GosseractProvider {
	return &GosseractProvider{}
}

// Recognize extracts text from an image using libtesseract.
func (p *GosseractProvider) Recognize(ctx context.Context, image []byte, lang string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if lang != "" {
		if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
			return "", fmt.Errorf("set ocr language %q: %w", lang, err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Name returns the provider name.
func (p *GosseractProvider) Name() string {
	return "gosseract"
}
