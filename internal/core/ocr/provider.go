// Package ocr abstracts the OCR engine behind a provider interface so the
// extraction pipeline treats recognition as a black-box operation.
package ocr

import "context"

// Provider runs OCR over a raster image.
type Provider interface {
	// Recognize extracts text from image data. lang is a tesseract
	// language code, possibly composite ("eng+fra").
	Recognize(ctx context.Context, image []byte, lang string) (string, error)

	// Name returns the provider name for logs.
	Name() string
}

// Service wraps the configured OCR provider.
type Service struct {
	provider Provider
}

// NewService creates an OCR service with the given provider.
func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// Recognize extracts text from image data using the configured provider.
func (s *Service) Recognize(ctx context.Context, image []byte, lang string) (string, error) {
	return s.provider.Recognize(ctx, image, lang)
}

// Name returns the name of the current provider.
func (s *Service) Name() string {
	return s.provider.Name()
}
