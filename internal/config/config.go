// Package config provides configuration loading and validation for the
// server and CLI.
package config

import (
	"fmt"
	"os"
)

// Settings holds process-wide configuration, read from the environment
// (a .env file is loaded by the CLI entry point before this runs).
type Settings struct {
	// DatabaseURL is the PostgreSQL connection string (required).
	DatabaseURL string
	// GeminiAPIKey authenticates the vision-language and OCR calls.
	GeminiAPIKey string
	// ReplicateToken authenticates image generation.
	ReplicateToken string

	// PlannerModel is the Gemini model for pagination (default gemini-1.5-pro).
	PlannerModel string
	// OCRModel is the Gemini model for transcription (default gemini-1.5-flash).
	OCRModel string
	// OCREngine selects "gemini" or "tesseract".
	OCREngine string
	// ImageModel is the Replicate diffusion model for handwriting synthesis.
	ImageModel string
	// ReferenceSampleURL overrides the default reference handwriting image.
	ReferenceSampleURL string

	// StorageBackend selects "gcs" or "local".
	StorageBackend string
	// GCSBucket is the bucket for rendered page images (gcs backend).
	GCSBucket string
	// LocalStorageDir is the directory for the local backend.
	LocalStorageDir string
	// LocalStorageBaseURL is the public prefix for locally stored objects.
	LocalStorageBaseURL string

	// UploadDir is where original uploads are kept for the planner.
	UploadDir string
}

// Load reads settings from the environment, applying defaults.
func Load() (*Settings, error) {
	s := &Settings{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		ReplicateToken:      os.Getenv("REPLICATE_API_TOKEN"),
		PlannerModel:        getEnv("PLANNER_MODEL", "gemini-1.5-pro"),
		OCRModel:            getEnv("OCR_MODEL", "gemini-1.5-flash"),
		OCREngine:           getEnv("OCR_ENGINE", "gemini"),
		ImageModel:          os.Getenv("IMAGE_MODEL"),
		ReferenceSampleURL:  os.Getenv("REFERENCE_SAMPLE_URL"),
		StorageBackend:      getEnv("STORAGE_BACKEND", "gcs"),
		GCSBucket:           os.Getenv("GCS_BUCKET"),
		LocalStorageDir:     getEnv("LOCAL_STORAGE_DIR", "rendered"),
		LocalStorageBaseURL: getEnv("LOCAL_STORAGE_BASE_URL", "http://localhost:8080/rendered"),
		UploadDir:           getEnv("UPLOAD_DIR", "uploads"),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that the configuration is coherent.
func (s *Settings) Validate() error {
	if s.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required but not set")
	}
	switch s.StorageBackend {
	case "gcs":
		if s.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required for the gcs storage backend")
		}
	case "local":
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (expected gcs or local)", s.StorageBackend)
	}
	switch s.OCREngine {
	case "gemini":
		if s.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini OCR engine")
		}
	case "tesseract":
	default:
		return fmt.Errorf("unknown OCR_ENGINE %q (expected gemini or tesseract)", s.OCREngine)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
