package server

import (
	"net/http"
	"strconv"

	"github.com/jonathan/swrite/internal/db"
	"github.com/jonathan/swrite/internal/domain"
)

// requestPage resolves {id}/{n} to a planned page of a job owned by the
// caller.
func (s *Server) requestPage(w http.ResponseWriter, r *http.Request) (*db.Job, *db.Page, bool) {
	job, ok := s.requestJob(w, r)
	if !ok {
		return nil, nil, false
	}

	pageNumber, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || pageNumber < 1 {
		s.errorResponse(w, http.StatusBadRequest, "invalid page number")
		return nil, nil, false
	}

	page, err := s.db.GetPlannedPage(r.Context(), job.ID, pageNumber)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to load page")
		return nil, nil, false
	}
	if page == nil {
		notFound := &domain.ErrNotFound{Kind: "page", ID: job.ID}
		s.errorResponse(w, HTTPStatus(notFound), notFound.Error())
		return nil, nil, false
	}
	return job, page, true
}

// handleApprovePage marks a rendered page as accepted by the user.
func (s *Server) handleApprovePage(w http.ResponseWriter, r *http.Request) {
	job, page, ok := s.requestPage(w, r)
	if !ok {
		return
	}

	if err := s.renderer.ApprovePage(r.Context(), page); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"job_id":      job.ID,
		"page_number": page.PageNumber,
		"status":      page.Status,
	})
}

// handleRetryPage re-renders a single page at the user's request with a
// fresh seed.
func (s *Server) handleRetryPage(w http.ResponseWriter, r *http.Request) {
	job, page, ok := s.requestPage(w, r)
	if !ok {
		return
	}
	lock, ok := s.lockJob(w, r, job)
	if !ok {
		return
	}
	defer lock.Release()

	if err := s.renderer.RetryPage(r.Context(), page); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"job_id":      job.ID,
		"page_number": page.PageNumber,
		"status":      page.Status,
		"image_url":   page.ImageURL,
	})
}
