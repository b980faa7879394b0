package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/swrite/internal/domain"
)

// User represents a user profile. Rows are created either by registration or
// lazily on first job submission from an externally verified identity.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never serialize to JSON
	PasswordSet  bool      `json:"password_set" db:"password_set"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Job represents one user-submitted document under processing.
type Job struct {
	ID               uuid.UUID            `json:"id"`
	UserID           uuid.UUID            `json:"user_id"`
	Status           string               `json:"status"`
	InputType        string               `json:"input_type"`
	Pipeline         string               `json:"pipeline,omitempty"`
	RequiresReview   bool                 `json:"requires_review"`
	TotalPages       int                  `json:"total_pages"`
	LayoutConfig     *domain.LayoutConfig `json:"layout_config,omitempty"`
	OriginalFilePath string               `json:"original_file_path,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// Page represents one unit of content belonging to a job, tagged by role.
// Input pages are immutable after extraction; planned (output/handwritten)
// pages are replaced wholesale by each planner run and then mutated in place
// by the renderer and by user approve/retry actions.
type Page struct {
	ID             uuid.UUID `json:"id"`
	JobID          uuid.UUID `json:"job_id"`
	UserID         uuid.UUID `json:"user_id"` // denormalized for ownership checks without a join
	PageNumber     int       `json:"page_number"`
	PageType       string    `json:"page_type"`
	Status         string    `json:"status"`
	Content        string    `json:"content,omitempty"`
	CharCount      int       `json:"char_count"`
	Source         string    `json:"source,omitempty"`
	ImageURL       string    `json:"image_url,omitempty"`
	RenderSeed     *int64    `json:"render_seed,omitempty"` // uint32 seed, nullable until first render
	RenderAttempts int       `json:"render_attempts"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewPage holds the fields the extractor and planner provide when inserting a
// fresh page set; identity and timestamps are assigned by the insert.
type NewPage struct {
	PageNumber int
	Content    string
	Source     string
	Status     string
}
