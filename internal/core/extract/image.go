package extract

import (
	"context"
	"fmt"
	"os"
)

// extractImage runs OCR directly over the whole raster file.
func (d *Dispatcher) extractImage(ctx context.Context, path, lang string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	text, err := d.ocr.Recognize(ctx, data, lang)
	if err != nil {
		return "", fmt.Errorf("ocr image: %w", err)
	}
	return text, nil
}
