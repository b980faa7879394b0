package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/swrite/internal/domain"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrJobBusy indicates another request holds the job's advisory lock.
type ErrJobBusy struct {
	JobID uuid.UUID
}

func (e *ErrJobBusy) Error() string {
	return fmt.Sprintf("job %s is busy with another operation", e.JobID)
}

// HTTPStatus returns the appropriate HTTP status code for an error.
// Pipeline errors map by kind; collaborator failures surface as 502 so
// clients can distinguish them from caller mistakes.
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrEmailAlreadyExists:
		return http.StatusConflict
	case *ErrInvalidCredentials, *ErrPasswordMismatch:
		return http.StatusUnauthorized
	case *ErrUserNotFound:
		return http.StatusNotFound
	case *ErrValidation:
		return http.StatusBadRequest
	case *ErrJobBusy:
		return http.StatusConflict
	}

	var (
		invalidInput *domain.ErrInvalidInput
		unsupported  *domain.ErrUnsupportedFileType
		unauthorized *domain.ErrUnauthorized
		notFound     *domain.ErrNotFound
		pageState    *domain.ErrInvalidPageState
		extraction   *domain.ErrExtractionFailed
		planning     *domain.ErrPlanningFailed
		rendering    *domain.ErrRenderingFailed
		storage      *domain.ErrStorageUnavailable
	)
	switch {
	case errors.As(err, &invalidInput):
		return http.StatusBadRequest
	case errors.As(err, &unsupported):
		return http.StatusUnprocessableEntity
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &pageState):
		return http.StatusConflict
	case errors.As(err, &extraction), errors.As(err, &planning),
		errors.As(err, &rendering), errors.As(err, &storage):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
