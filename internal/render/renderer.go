// Package render synthesizes handwriting images for planned pages: it
// derives seeds, drives the image-generation collaborator with bounded
// system retries, uploads results to blob storage, and keeps per-page and
// job-level statuses consistent.
package render

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/jonathan/swrite/internal/db"
	"github.com/jonathan/swrite/internal/domain"
	"github.com/jonathan/swrite/internal/imagegen"
	"github.com/jonathan/swrite/internal/storage"
)

// Fixed page geometry and sampler settings. The layout configuration shapes
// the plan, not the canvas.
const (
	imageWidth    = 1024
	imageHeight   = 1408
	samplerSteps  = 28
	guidanceScale = 7.5
)

// maxSystemAttempts bounds automatic retries within one render call. User
// dissatisfaction is not a system failure and never retries here.
const maxSystemAttempts = 2

// Store is the persistence surface the renderer needs.
type Store interface {
	ListPages(ctx context.Context, jobID uuid.UUID, pageTypes []string) ([]db.Page, error)
	UpdatePageStatus(ctx context.Context, pageID uuid.UUID, status string) error
	RecordRenderAttempt(ctx context.Context, pageID uuid.UUID, seed int64, attempts int) error
	CompletePageRender(ctx context.Context, pageID uuid.UUID, imageURL string) error
	UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status string) error
}

// Progress is invoked after each page settles, for streaming feedback.
type Progress func(pageNumber int, status string)

// Service renders handwritten pages.
type Service struct {
	store     Store
	generator imagegen.Generator
	blobs     storage.BlobStore
}

// NewService creates a renderer.
func NewService(store Store, generator imagegen.Generator, blobs storage.BlobStore) *Service {
	return &Service{store: store, generator: generator, blobs: blobs}
}

// RenderJob renders every handwritten page of a job that is not already
// rendered or approved, sequentially in page-number order. A page that
// exhausts its system retries is marked failed_system and does not stop its
// siblings. Afterwards the job status is recomputed: rendered when every
// page is rendered or approved, partial otherwise. Returns the number of
// pages rendered in this pass.
func (s *Service) RenderJob(ctx context.Context, job *db.Job, progress Progress) (int, error) {
	pages, err := s.store.ListPages(ctx, job.ID, domain.PlannedRoles)
	if err != nil {
		return 0, fmt.Errorf("failed to list pages for rendering: %w", err)
	}
	log.Printf("render: job %s, %d planned pages", job.ID, len(pages))

	rendered := 0
	for i := range pages {
		page := &pages[i]
		if page.Status == domain.PageRendered || page.Status == domain.PageApproved {
			continue
		}

		if err := s.RenderPage(ctx, page, false); err != nil {
			// Page is failed_system; keep going.
			log.Printf("render: page %d of job %s failed: %v", page.PageNumber, job.ID, err)
		} else {
			rendered++
		}
		if progress != nil {
			progress(page.PageNumber, page.Status)
		}
	}

	status, err := s.recomputeJobStatus(ctx, job.ID)
	if err != nil {
		return rendered, err
	}
	job.Status = status
	log.Printf("render: job %s finished pass, %d rendered, status %s", job.ID, rendered, status)
	return rendered, nil
}

// RenderPage renders a single page. The attempt counter is bumped whenever a
// render is attempted; the seed only varies across user retries.
func (s *Service) RenderPage(ctx context.Context, page *db.Page, isUserRetry bool) error {
	if err := s.store.UpdatePageStatus(ctx, page.ID, domain.PageRendering); err != nil {
		return err
	}
	page.Status = domain.PageRendering

	seed := Seed(page.ID, page.PageNumber, page.RenderAttempts, isUserRetry)
	page.RenderAttempts++
	seed64 := int64(seed)
	page.RenderSeed = &seed64
	if err := s.store.RecordRenderAttempt(ctx, page.ID, seed64, page.RenderAttempts); err != nil {
		return err
	}

	req := imagegen.Request{
		Prompt:         buildPrompt(page.Content),
		NegativePrompt: negativePrompt,
		Seed:           seed,
		Width:          imageWidth,
		Height:         imageHeight,
		Steps:          samplerSteps,
		Guidance:       guidanceScale,
	}

	var lastErr error
	for attempt := 1; attempt <= maxSystemAttempts; attempt++ {
		imageBytes, err := s.generator.Generate(ctx, req)
		if err == nil && len(imageBytes) == 0 {
			err = fmt.Errorf("generator returned an empty image")
		}
		if err != nil {
			log.Printf("render: system attempt %d/%d for page %d failed: %v",
				attempt, maxSystemAttempts, page.PageNumber, err)
			lastErr = err
			continue
		}

		key := storage.PageImageKey(page.JobID.String(), page.PageNumber)
		url, err := s.blobs.Put(ctx, key, imageBytes, "image/png")
		if err != nil {
			lastErr = &domain.ErrStorageUnavailable{Op: "page image upload", Cause: err}
			log.Printf("render: upload for page %d failed: %v", page.PageNumber, err)
			continue
		}

		if err := s.store.CompletePageRender(ctx, page.ID, url); err != nil {
			return err
		}
		page.ImageURL = url
		page.Status = domain.PageRendered // awaits explicit user approval
		return nil
	}

	if err := s.store.UpdatePageStatus(ctx, page.ID, domain.PageFailedSystem); err != nil {
		return err
	}
	page.Status = domain.PageFailedSystem
	return &domain.ErrRenderingFailed{PageID: page.ID, PageNumber: page.PageNumber, Cause: lastErr}
}

// RetryPage is the user-initiated retry: it forces a distinct seed from the
// previous attempt and re-enters the render procedure. Only a rendered or
// failed_system page can be retried.
func (s *Service) RetryPage(ctx context.Context, page *db.Page) error {
	if page.Status != domain.PageRendered && page.Status != domain.PageFailedSystem {
		return &domain.ErrInvalidPageState{PageID: page.ID, Status: page.Status, Action: "retry"}
	}
	if err := s.RenderPage(ctx, page, true); err != nil {
		return err
	}
	_, err := s.recomputeJobStatus(ctx, page.JobID)
	return err
}

// ApprovePage marks a rendered page approved. Approval is terminal for the
// page and has no job-level side effect.
func (s *Service) ApprovePage(ctx context.Context, page *db.Page) error {
	if page.Status != domain.PageRendered {
		return &domain.ErrInvalidPageState{PageID: page.ID, Status: page.Status, Action: "approve"}
	}
	if err := s.store.UpdatePageStatus(ctx, page.ID, domain.PageApproved); err != nil {
		return err
	}
	page.Status = domain.PageApproved
	return nil
}

// recomputeJobStatus aggregates page states into the job status.
func (s *Service) recomputeJobStatus(ctx context.Context, jobID uuid.UUID) (string, error) {
	pages, err := s.store.ListPages(ctx, jobID, domain.PlannedRoles)
	if err != nil {
		return "", fmt.Errorf("failed to list pages for status aggregation: %w", err)
	}

	status := domain.JobRendered
	for _, p := range pages {
		if p.Status != domain.PageRendered && p.Status != domain.PageApproved {
			status = domain.JobPartial
			break
		}
	}
	if err := s.store.UpdateJobStatus(ctx, jobID, status); err != nil {
		return "", err
	}
	return status, nil
}
