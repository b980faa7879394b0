// Package classify decides, from a submitted document's shape, which input
// category and processing pipeline applies.
package classify

import (
	"path/filepath"
	"strings"

	"github.com/jonathan/swrite/internal/domain"
)

// textProbePages is how many leading PDF pages are inspected for a text layer.
const textProbePages = 3

// minTextLayerChars is the trimmed-text length above which a page counts as
// carrying a real text layer rather than OCR noise.
const minTextLayerChars = 10

// TextProber extracts the embedded text of the first few pages of a PDF.
// A parse failure is reported as an error; the classifier degrades it to the
// scanned category rather than surfacing it.
type TextProber interface {
	PageTexts(pdf []byte, maxPages int) ([]string, error)
}

// Result is the outcome of classification: the input category, the pipeline
// variant that processes it, and whether human review is mandatory before
// downstream stages.
type Result struct {
	InputType      string `json:"input_type"`
	Pipeline       string `json:"pipeline"`
	RequiresReview bool   `json:"requires_review"`
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".webp": true,
	".heic": true,
}

// Classifier inspects uploads and assigns a processing category. It has no
// side effects.
type Classifier struct {
	prober TextProber
}

// New creates a Classifier backed by the given PDF text prober.
func New(prober TextProber) *Classifier {
	return &Classifier{prober: prober}
}

// File classifies an uploaded file. Pasted text (no file) is rejected with
// ErrInvalidInput; anything that is neither a PDF nor a recognized image
// fails with ErrUnsupportedFileType.
func (c *Classifier) File(filename string, data []byte) (Result, error) {
	if filename == "" || len(data) == 0 {
		return Result{}, &domain.ErrInvalidInput{Message: "file upload required; pasted text is not supported"}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case ext == ".pdf":
		return c.classifyPDF(data), nil
	case imageExtensions[ext]:
		return Result{
			InputType:      domain.InputImageHandwritten,
			Pipeline:       domain.PipelineDirectRewrite,
			RequiresReview: true,
		}, nil
	default:
		return Result{}, &domain.ErrUnsupportedFileType{Filename: filename}
	}
}

// classifyPDF checks the first few pages for an embedded text layer. A PDF
// that fails to parse is treated as scanned, not as an error.
func (c *Classifier) classifyPDF(data []byte) Result {
	scanned := Result{
		InputType:      domain.InputScannedPDF,
		Pipeline:       domain.PipelinePDFFlow,
		RequiresReview: true,
	}

	texts, err := c.prober.PageTexts(data, textProbePages)
	if err != nil {
		return scanned
	}
	for _, text := range texts {
		if len(strings.TrimSpace(text)) > minTextLayerChars {
			return Result{
				InputType:      domain.InputTextPDF,
				Pipeline:       domain.PipelinePDFFlow,
				RequiresReview: false,
			}
		}
	}
	return scanned
}
