package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// TesseractEngine performs OCR by shelling out to the tesseract binary.
// Useful for development without a Gemini API key.
type TesseractEngine struct {
	binary    string
	languages string
	runner    Runner
}

// NewTesseractEngine creates a tesseract-backed OCR engine. A nil runner
// uses the real exec runner.
func NewTesseractEngine(binary, languages string, runner Runner) *TesseractEngine {
	if binary == "" {
		binary = "tesseract"
	}
	if languages == "" {
		languages = "eng"
	}
	if runner == nil {
		runner = execRunner{}
	}
	return &TesseractEngine{binary: binary, languages: languages, runner: runner}
}

// ImageText writes the image to a temp file and runs
// `tesseract <file> stdout -l <langs>`.
func (e *TesseractEngine) ImageText(ctx context.Context, jpegData []byte) (string, error) {
	tmpDir, err := os.MkdirTemp("", "swrite-ocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir) //nolint:errcheck // best-effort cleanup

	imgPath := filepath.Join(tmpDir, "page.jpg")
	if err := os.WriteFile(imgPath, jpegData, 0o600); err != nil {
		return "", fmt.Errorf("failed to write temp image: %w", err)
	}

	out, errb, err := e.runner.Run(ctx, e.binary, imgPath, "stdout", "-l", e.languages)
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %w (stderr: %s)", err, truncate(string(errb), 512))
	}
	return string(out), nil
}
