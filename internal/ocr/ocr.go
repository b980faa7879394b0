// Package ocr defines the OCR collaborator contract and its implementations.
package ocr

import (
	"context"
	"fmt"
)

// Engine extracts plain text from a single JPEG page image. Provenance tags
// are attached by the caller, which knows whether the image came from a
// rasterized PDF page or a standalone upload.
type Engine interface {
	ImageText(ctx context.Context, jpegData []byte) (string, error)
}

// Config selects and configures an OCR engine.
type Config struct {
	// Engine is "gemini" (default) or "tesseract".
	Engine string
	// Model is the Gemini model used by the gemini engine.
	Model string
	// TesseractPath is the tesseract binary (default "tesseract").
	TesseractPath string
	// Languages is the tesseract language set (default "eng").
	Languages string
}

// NewEngine builds the configured OCR engine. The gemini engine reuses an
// already constructed client; the tesseract engine shells out per image.
func NewEngine(cfg Config, gemini *GeminiEngine) (Engine, error) {
	switch cfg.Engine {
	case "", "gemini":
		if gemini == nil {
			return nil, fmt.Errorf("gemini OCR engine requested but no client configured")
		}
		return gemini, nil
	case "tesseract":
		return NewTesseractEngine(cfg.TesseractPath, cfg.Languages, nil), nil
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", cfg.Engine)
	}
}
