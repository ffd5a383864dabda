package ocr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// CommandProvider implements OCR by shelling out to the tesseract binary.
// It is the CGO-free fallback for deployments where libtesseract headers
// are unavailable.
type CommandProvider struct {
	tesseractPath string
}

// NewCommandProvider creates the exec-based tesseract provider. path
// defaults to "tesseract" resolved via PATH.
func NewCommandProvider(path string) *CommandProvider {
	if path == "" {
		path = "tesseract"
	}
	return &CommandProvider{tesseractPath: path}
}

// Recognize extracts text from an image by running tesseract.
func (p *CommandProvider) Recognize(ctx context.Context, image []byte, lang string) (string, error) {
	tempDir := os.TempDir()
	id := uuid.New().String()
	imagePath := filepath.Join(tempDir, "ocr_image_"+id)
	outputBase := filepath.Join(tempDir, "ocr_output_"+id)

	if err := os.WriteFile(imagePath, image, 0o644); err != nil {
		return "", fmt.Errorf("write temp image: %w", err)
	}
	defer os.Remove(imagePath)

	args := []string{imagePath, outputBase}
	if lang != "" {
		args = append(args, "-l", lang)
	}

	cmd := exec.CommandContext(ctx, p.tesseractPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w, output: %s", err, string(out))
	}

	// Tesseract appends .txt to the output base on its own.
	outputPath := outputBase + ".txt"
	defer os.Remove(outputPath)

	text, err := os.ReadFile(outputPath)
	if err != nil {
		return "", fmt.Errorf("read tesseract output: %w", err)
	}
	return strings.TrimSpace(string(text)), nil
}

// Name returns the provider name.
func (p *CommandProvider) Name() string {
	return "tesseract-cli"
}
