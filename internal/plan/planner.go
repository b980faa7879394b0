// Package plan is the pagination engine: it sends the source document to a
// vision-language collaborator and persists the returned page slices,
// replacing any prior planned set. It also owns the replan decision.
package plan

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/jonathan/swrite/internal/db"
	"github.com/jonathan/swrite/internal/domain"
	"github.com/jonathan/swrite/internal/fetch"
)

// maxPlannerPages bounds how many source page images one planning call may
// carry, to respect request-size limits.
const maxPlannerPages = 10

// planAttempts is the total number of tries against the vision collaborator.
const planAttempts = 2

// DefaultReferenceSampleURL is the generic cursive sample used until user
// handwriting profiles exist.
const DefaultReferenceSampleURL = "https://upload.wikimedia.org/wikipedia/commons/thumb/6/6e/Handwriting_sample.svg/1200px-Handwriting_sample.svg.png"

// PlannedPage is one page-content slice returned by the vision collaborator.
type PlannedPage struct {
	PageNumber int
	Content    string
}

// VisionPlanner is the vision-language collaborator contract: ordered page
// images plus a reference handwriting sample and layout constraints in,
// ordered (page, exact text) slices out. It only decides where page breaks
// fall, never edits content.
type VisionPlanner interface {
	PlanPages(ctx context.Context, images [][]byte, refSample []byte, layout domain.LayoutConfig) ([]PlannedPage, error)
}

// Store is the persistence surface the planner needs.
type Store interface {
	ReplacePlannedPages(ctx context.Context, job *db.Job, pageType string, pages []db.NewPage, layout *domain.LayoutConfig) error
}

// Converter rasterizes the original document into page images.
type Converter interface {
	PageImages(ctx context.Context, doc []byte, maxPages int) ([][]byte, error)
}

// Service drives initial planning and replanning for a job.
type Service struct {
	store     Store
	converter Converter
	planner   VisionPlanner
	refURL    string

	refMu sync.Mutex
	ref   []byte
}

// NewService creates a planner service. An empty refURL uses the default
// reference sample.
func NewService(store Store, converter Converter, planner VisionPlanner, refURL string) *Service {
	if refURL == "" {
		refURL = DefaultReferenceSampleURL
	}
	return &Service{
		store:     store,
		converter: converter,
		planner:   planner,
		refURL:    refURL,
	}
}

// Plan runs the initial planning pass with the default layout and persists
// the result as output pages. The job status becomes planned.
func (s *Service) Plan(ctx context.Context, job *db.Job) (int, error) {
	return s.run(ctx, job, domain.PageTypeOutput, domain.DefaultLayout(), nil)
}

// Replan reruns planning with an explicit layout configuration, persists the
// result as handwritten pages, and stores the applied configuration on the
// job. Callers gate this behind RequiresReplan.
func (s *Service) Replan(ctx context.Context, job *db.Job, cfg domain.LayoutConfig) (int, error) {
	return s.run(ctx, job, domain.PageTypeHandwritten, cfg, &cfg)
}

func (s *Service) run(ctx context.Context, job *db.Job, pageType string, layout domain.LayoutConfig, store *domain.LayoutConfig) (int, error) {
	if job.OriginalFilePath == "" {
		return 0, &domain.ErrPlanningFailed{JobID: job.ID,
			Cause: fmt.Errorf("job has no stored original file")}
	}
	fileBytes, err := os.ReadFile(job.OriginalFilePath)
	if err != nil {
		return 0, &domain.ErrPlanningFailed{JobID: job.ID,
			Cause: fmt.Errorf("failed to read original file: %w", err)}
	}

	images, err := s.converter.PageImages(ctx, fileBytes, maxPlannerPages)
	if err != nil {
		return 0, &domain.ErrPlanningFailed{JobID: job.ID,
			Cause: fmt.Errorf("failed to rasterize original: %w", err)}
	}
	log.Printf("plan: job %s, %d source images", job.ID, len(images))

	ref, err := s.referenceSample(ctx)
	if err != nil {
		return 0, &domain.ErrPlanningFailed{JobID: job.ID, Cause: err}
	}

	pages, err := s.planWithRetry(ctx, images, ref, layout)
	if err != nil {
		// Prior page set stays untouched; planning is retryable by the caller.
		return 0, &domain.ErrPlanningFailed{JobID: job.ID, Cause: err}
	}

	newPages := make([]db.NewPage, 0, len(pages))
	for _, p := range pages {
		newPages = append(newPages, db.NewPage{
			PageNumber: p.PageNumber,
			Content:    p.Content,
			Source:     domain.SourcePlanner,
		})
	}

	if err := s.store.ReplacePlannedPages(ctx, job, pageType, newPages, store); err != nil {
		return 0, &domain.ErrPlanningFailed{JobID: job.ID, Cause: err}
	}

	job.Status = domain.JobPlanned
	if store != nil {
		job.LayoutConfig = store
	}
	log.Printf("plan: saved %d %s pages for job %s", len(newPages), pageType, job.ID)
	return len(newPages), nil
}

// planWithRetry calls the vision collaborator up to planAttempts times. An
// empty or invalid response counts as a failed attempt.
func (s *Service) planWithRetry(ctx context.Context, images [][]byte, ref []byte, layout domain.LayoutConfig) ([]PlannedPage, error) {
	var lastErr error
	for attempt := 1; attempt <= planAttempts; attempt++ {
		pages, err := s.planner.PlanPages(ctx, images, ref, layout)
		if err == nil && len(pages) == 0 {
			err = fmt.Errorf("planner returned no pages")
		}
		if err == nil {
			return pages, nil
		}
		log.Printf("plan: attempt %d/%d failed: %v", attempt, planAttempts, err)
		lastErr = err
	}
	return nil, lastErr
}

// referenceSample fetches the reference handwriting image, caching it for
// the life of the process. A failed fetch is retried on the next call.
func (s *Service) referenceSample(ctx context.Context) ([]byte, error) {
	s.refMu.Lock()
	defer s.refMu.Unlock()
	if s.ref != nil {
		return s.ref, nil
	}
	ref, err := fetch.Bytes(ctx, s.refURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reference handwriting sample: %w", err)
	}
	s.ref = ref
	return ref, nil
}
