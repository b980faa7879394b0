package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/swrite/internal/db"
	"github.com/jonathan/swrite/internal/domain"
	"github.com/jonathan/swrite/internal/plan"
	"github.com/jonathan/swrite/internal/server/middleware"
)

// maxUploadBytes caps the in-memory multipart parse and the upload itself.
const maxUploadBytes = 32 << 20

// jobResponse is the shape returned by job status and creation endpoints.
type jobResponse struct {
	JobID          uuid.UUID            `json:"job_id"`
	Status         string               `json:"status"`
	InputType      string               `json:"input_type"`
	Pipeline       string               `json:"pipeline,omitempty"`
	RequiresReview bool                 `json:"requires_review"`
	TotalPages     int                  `json:"total_pages"`
	LayoutConfig   *domain.LayoutConfig `json:"layout_config,omitempty"`
	PagesCreated   int                  `json:"pages_created,omitempty"`
	Pages          []pageResponse       `json:"pages,omitempty"`
}

// pageResponse summarizes one planned page for API responses. Content is
// omitted; clients review the rendered image, not the intermediate text.
type pageResponse struct {
	PageNumber     int    `json:"page_number"`
	PageType       string `json:"page_type"`
	Status         string `json:"status"`
	CharCount      int    `json:"char_count"`
	ImageURL       string `json:"image_url,omitempty"`
	RenderAttempts int    `json:"render_attempts"`
}

func toJobResponse(job *db.Job) jobResponse {
	return jobResponse{
		JobID:          job.ID,
		Status:         job.Status,
		InputType:      job.InputType,
		Pipeline:       job.Pipeline,
		RequiresReview: job.RequiresReview,
		TotalPages:     job.TotalPages,
		LayoutConfig:   job.LayoutConfig,
	}
}

// requestJob resolves the {id} path segment to a job owned by the caller.
// A job owned by someone else is reported as not found.
func (s *Server) requestJob(w http.ResponseWriter, r *http.Request) (*db.Job, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}

	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid job ID")
		return nil, false
	}

	job, err := s.db.GetJobForUser(r.Context(), jobID, userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to load job")
		return nil, false
	}
	if job == nil {
		notFound := &domain.ErrNotFound{Kind: "job", ID: jobID}
		s.errorResponse(w, HTTPStatus(notFound), notFound.Error())
		return nil, false
	}
	return job, true
}

// lockJob takes the per-job advisory lock guarding plan/replan/render. A held
// lock means another request is mutating the same job.
func (s *Server) lockJob(w http.ResponseWriter, r *http.Request, job *db.Job) (*db.JobLock, bool) {
	lock, acquired, err := s.db.TryLockJob(r.Context(), job.ID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to lock job")
		return nil, false
	}
	if !acquired {
		busy := &ErrJobBusy{JobID: job.ID}
		s.errorResponse(w, HTTPStatus(busy), busy.Error())
		return nil, false
	}
	return lock, true
}

// handleCreateJob accepts a multipart document upload, classifies it, stores
// the original, and runs extraction inline before responding.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		invalid := &domain.ErrInvalidInput{Message: "a file upload is required"}
		s.errorResponse(w, HTTPStatus(invalid), invalid.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if len(data) > maxUploadBytes {
		s.errorResponse(w, http.StatusBadRequest, "upload exceeds size limit")
		return
	}

	result, err := s.classifier.File(header.Filename, data)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	// Tokens from an external issuer reference users this database has never
	// seen; provision a row on first contact.
	if err := s.db.UpsertExternalUser(r.Context(), userID); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to provision user")
		return
	}

	jobID := uuid.New()
	originalPath, err := s.saveOriginal(jobID, header.Filename, data)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	job := &db.Job{
		ID:               jobID,
		UserID:           userID,
		Status:           domain.JobCreated,
		InputType:        result.InputType,
		Pipeline:         result.Pipeline,
		RequiresReview:   result.RequiresReview,
		OriginalFilePath: originalPath,
	}
	if err := s.db.CreateJob(r.Context(), job); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	if err := s.db.UpdateJobStatus(r.Context(), job.ID, domain.JobProcessing); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to update job")
		return
	}
	job.Status = domain.JobProcessing

	pagesCreated, err := s.extractor.ExtractJob(r.Context(), job, data)
	if err != nil {
		resp := toJobResponse(job)
		resp.Status = domain.JobFailed
		s.jsonResponse(w, HTTPStatus(err), resp)
		return
	}

	resp := toJobResponse(job)
	resp.PagesCreated = pagesCreated
	s.jsonResponse(w, http.StatusCreated, resp)
}

// saveOriginal writes the uploaded document under the upload directory, keyed
// by job ID so the planner can re-read it later.
func (s *Server) saveOriginal(jobID uuid.UUID, filename string, data []byte) (string, error) {
	if err := os.MkdirAll(s.settings.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(s.settings.UploadDir, jobID.String()+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return path, nil
}

// handleJobStatus returns the job and its planned pages.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.requestJob(w, r)
	if !ok {
		return
	}

	pages, err := s.db.ListPages(r.Context(), job.ID, domain.PlannedRoles)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to list pages")
		return
	}

	resp := toJobResponse(job)
	resp.Pages = make([]pageResponse, 0, len(pages))
	for _, p := range pages {
		resp.Pages = append(resp.Pages, pageResponse{
			PageNumber:     p.PageNumber,
			PageType:       p.PageType,
			Status:         p.Status,
			CharCount:      p.CharCount,
			ImageURL:       p.ImageURL,
			RenderAttempts: p.RenderAttempts,
		})
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handlePlanJob runs the initial pagination plan with the default layout.
func (s *Server) handlePlanJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.requestJob(w, r)
	if !ok {
		return
	}
	lock, ok := s.lockJob(w, r, job)
	if !ok {
		return
	}
	defer lock.Release()

	count, err := s.planner.Plan(r.Context(), job)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"job_id":        job.ID,
		"status":        domain.JobPlanned,
		"pages_planned": count,
	})
}

// handleReplanJob applies a user layout. The vision model is only consulted
// when the new layout changes page capacity; otherwise the config is stored
// as-is and the existing page set stands.
func (s *Server) handleReplanJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.requestJob(w, r)
	if !ok {
		return
	}

	var cfg domain.LayoutConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := cfg.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	lock, ok := s.lockJob(w, r, job)
	if !ok {
		return
	}
	defer lock.Release()

	if !plan.RequiresReplan(job.LayoutConfig, cfg) {
		if err := s.db.UpdateJobLayout(r.Context(), job.ID, cfg); err != nil {
			s.errorResponse(w, http.StatusInternalServerError, "failed to store layout")
			return
		}
		s.jsonResponse(w, http.StatusOK, map[string]any{
			"job_id": job.ID,
			"result": "updated_config_only",
		})
		return
	}

	count, err := s.planner.Replan(r.Context(), job, cfg)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"job_id":        job.ID,
		"result":        "replanned",
		"pages_planned": count,
	})
}

// handleRenderJob renders all pending handwritten pages and reports the
// resulting job status.
func (s *Server) handleRenderJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.requestJob(w, r)
	if !ok {
		return
	}
	lock, ok := s.lockJob(w, r, job)
	if !ok {
		return
	}
	defer lock.Release()

	rendered, err := s.renderer.RenderJob(r.Context(), job, nil)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"job_id":         job.ID,
		"status":         job.Status,
		"pages_rendered": rendered,
	})
}

// handleRenderStream renders all pending handwritten pages, streaming
// per-page progress as Server-Sent Events.
func (s *Server) handleRenderStream(w http.ResponseWriter, r *http.Request) {
	job, ok := s.requestJob(w, r)
	if !ok {
		return
	}
	lock, ok := s.lockJob(w, r, job)
	if !ok {
		return
	}
	defer lock.Release()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	if _, err := s.renderer.RenderJob(r.Context(), job, sse.WritePage); err != nil {
		sse.WriteError(err.Error())
		return
	}
	sse.WriteComplete(job.ID.String(), job.Status)
}
