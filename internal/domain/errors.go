package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidInput indicates a submission the pipeline refuses outright,
// such as a missing file (pasted text is not supported).
type ErrInvalidInput struct {
	Message string
}

func (e *ErrInvalidInput) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Message)
}

// ErrUnsupportedFileType indicates an upload that is neither a PDF nor a
// recognized image format.
type ErrUnsupportedFileType struct {
	Filename string
}

func (e *ErrUnsupportedFileType) Error() string {
	return fmt.Sprintf("unsupported file type: %s (only PDF and images are accepted)", e.Filename)
}

// ErrUnauthorized indicates a missing, invalid, or expired credential.
type ErrUnauthorized struct {
	Reason string
}

func (e *ErrUnauthorized) Error() string {
	if e.Reason == "" {
		return "unauthorized"
	}
	return fmt.Sprintf("unauthorized: %s", e.Reason)
}

// ErrNotFound indicates a job or page that is absent or not owned by the
// caller. Ownership failures deliberately look identical to absence.
type ErrNotFound struct {
	Kind string
	ID   uuid.UUID
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ErrInvalidPageState indicates an action attempted from a disallowed page
// status, such as approving a page that is not rendered.
type ErrInvalidPageState struct {
	PageID uuid.UUID
	Status string
	Action string
}

func (e *ErrInvalidPageState) Error() string {
	return fmt.Sprintf("cannot %s page %s in status %q", e.Action, e.PageID, e.Status)
}

// ErrExtractionFailed indicates the extraction stage failed; the job is left
// in the failed status.
type ErrExtractionFailed struct {
	JobID uuid.UUID
	Cause error
}

func (e *ErrExtractionFailed) Error() string {
	return fmt.Sprintf("extraction failed for job %s: %v", e.JobID, e.Cause)
}

func (e *ErrExtractionFailed) Unwrap() error { return e.Cause }

// ErrPlanningFailed indicates the vision planner produced no usable page set
// after all attempts. The prior page set is left untouched.
type ErrPlanningFailed struct {
	JobID uuid.UUID
	Cause error
}

func (e *ErrPlanningFailed) Error() string {
	return fmt.Sprintf("planning failed for job %s: %v", e.JobID, e.Cause)
}

func (e *ErrPlanningFailed) Unwrap() error { return e.Cause }

// ErrRenderingFailed indicates a single page exhausted its system retries.
// Sibling pages are unaffected.
type ErrRenderingFailed struct {
	PageID     uuid.UUID
	PageNumber int
	Cause      error
}

func (e *ErrRenderingFailed) Error() string {
	return fmt.Sprintf("rendering failed for page %d (%s): %v", e.PageNumber, e.PageID, e.Cause)
}

func (e *ErrRenderingFailed) Unwrap() error { return e.Cause }

// ErrStorageUnavailable indicates a blob upload or collaborator transport
// failure that is not attributable to the submitted content.
type ErrStorageUnavailable struct {
	Op    string
	Cause error
}

func (e *ErrStorageUnavailable) Error() string {
	return fmt.Sprintf("storage unavailable during %s: %v", e.Op, e.Cause)
}

func (e *ErrStorageUnavailable) Unwrap() error { return e.Cause }
