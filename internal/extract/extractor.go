// Package extract pulls raw text out of uploaded documents, one input page
// per document page, using the pipeline implied by the job's classification.
package extract

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/swrite/internal/db"
	"github.com/jonathan/swrite/internal/domain"
	"github.com/jonathan/swrite/internal/ocr"
)

// defaultOCRConcurrency bounds parallel OCR calls for multi-page scans.
// Results are committed in page order regardless.
const defaultOCRConcurrency = 4

// Store is the persistence surface the extractor needs.
type Store interface {
	InsertInputPages(ctx context.Context, job *db.Job, pages []db.NewPage) error
	UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status string) error
}

// Converter turns document bytes into per-page text or images.
type Converter interface {
	PageTexts(doc []byte, maxPages int) ([]string, error)
	PageImages(ctx context.Context, doc []byte, maxPages int) ([][]byte, error)
}

// Service routes a job to the extraction pipeline matching its input type
// and persists the resulting input pages.
type Service struct {
	store          Store
	converter      Converter
	ocr            ocr.Engine
	ocrConcurrency int
}

// NewService creates an extractor.
func NewService(store Store, converter Converter, engine ocr.Engine) *Service {
	return &Service{
		store:          store,
		converter:      converter,
		ocr:            engine,
		ocrConcurrency: defaultOCRConcurrency,
	}
}

// ExtractJob produces the ordered input page set for a job and commits it in
// one transaction. On any failure the job is marked failed and the error
// propagates; no partial page set is left behind. On success the job is
// extracted and its total page count recorded.
func (s *Service) ExtractJob(ctx context.Context, job *db.Job, fileBytes []byte) (int, error) {
	log.Printf("extract: starting job %s (%s)", job.ID, job.InputType)

	pages, err := s.extract(ctx, job.InputType, fileBytes)
	if err == nil {
		err = s.store.InsertInputPages(ctx, job, pages)
	}
	if err != nil {
		if stErr := s.store.UpdateJobStatus(ctx, job.ID, domain.JobFailed); stErr != nil {
			log.Printf("extract: failed to mark job %s failed: %v", job.ID, stErr)
		}
		job.Status = domain.JobFailed
		return 0, &domain.ErrExtractionFailed{JobID: job.ID, Cause: err}
	}

	job.Status = domain.JobExtracted
	job.TotalPages = len(pages)
	log.Printf("extract: saved %d input pages for job %s", len(pages), job.ID)
	return len(pages), nil
}

func (s *Service) extract(ctx context.Context, inputType string, fileBytes []byte) ([]db.NewPage, error) {
	switch inputType {
	case domain.InputTextPDF:
		return s.textPDF(fileBytes)
	case domain.InputScannedPDF:
		return s.scannedPDF(ctx, fileBytes)
	case domain.InputImageHandwritten:
		return s.handwrittenImage(ctx, fileBytes)
	default:
		return nil, fmt.Errorf("unknown input type: %s", inputType)
	}
}

// textPDF extracts the embedded text layer of every PDF page.
func (s *Service) textPDF(fileBytes []byte) ([]db.NewPage, error) {
	texts, err := s.converter.PageTexts(fileBytes, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to extract PDF text: %w", err)
	}

	pages := make([]db.NewPage, 0, len(texts))
	for i, text := range texts {
		pages = append(pages, db.NewPage{
			PageNumber: i + 1,
			Content:    text,
			Source:     domain.SourcePDFText,
		})
	}
	return pages, nil
}

// scannedPDF rasterizes every page and OCRs each image. OCR calls run under
// a bounded errgroup; the page order of the result is preserved.
func (s *Service) scannedPDF(ctx context.Context, fileBytes []byte) ([]db.NewPage, error) {
	images, err := s.converter.PageImages(ctx, fileBytes, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize PDF for OCR: %w", err)
	}

	texts := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.ocrConcurrency)
	for i, img := range images {
		g.Go(func() error {
			text, err := s.ocr.ImageText(gctx, img)
			if err != nil {
				return fmt.Errorf("OCR of page %d failed: %w", i+1, err)
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pages := make([]db.NewPage, 0, len(texts))
	for i, text := range texts {
		pages = append(pages, db.NewPage{
			PageNumber: i + 1,
			Content:    text,
			Source:     domain.SourceOCRPDFPage,
		})
	}
	return pages, nil
}

// handwrittenImage OCRs a single uploaded image.
func (s *Service) handwrittenImage(ctx context.Context, fileBytes []byte) ([]db.NewPage, error) {
	// Normalize through the converter so odd formats come out as JPEG.
	images, err := s.converter.PageImages(ctx, fileBytes, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	text, err := s.ocr.ImageText(ctx, images[0])
	if err != nil {
		return nil, fmt.Errorf("OCR of image failed: %w", err)
	}

	return []db.NewPage{{
		PageNumber: 1,
		Content:    text,
		Source:     domain.SourceOCRImage,
	}}, nil
}
