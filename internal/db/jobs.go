package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/swrite/internal/domain"
)

const jobColumns = `id, user_id, status, input_type, pipeline, requires_review,
	total_pages, layout_config, original_file_path, created_at, updated_at`

func scanJob(row pgx.Row) (*Job, error) {
	var (
		j            Job
		layoutBytes  []byte
		originalPath *string
	)
	err := row.Scan(&j.ID, &j.UserID, &j.Status, &j.InputType, &j.Pipeline,
		&j.RequiresReview, &j.TotalPages, &layoutBytes, &originalPath,
		&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if originalPath != nil {
		j.OriginalFilePath = *originalPath
	}
	if len(layoutBytes) > 0 {
		var cfg domain.LayoutConfig
		if err := json.Unmarshal(layoutBytes, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode layout config: %w", err)
		}
		j.LayoutConfig = &cfg
	}
	return &j, nil
}

// CreateJob persists a freshly classified job and returns it
func (db *DB) CreateJob(ctx context.Context, job *Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	var originalPath *string
	if job.OriginalFilePath != "" {
		originalPath = &job.OriginalFilePath
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO jobs (id, user_id, status, input_type, pipeline, requires_review,
		                   total_pages, original_file_path)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		job.ID, job.UserID, job.Status, job.InputType, job.Pipeline,
		job.RequiresReview, job.TotalPages, originalPath,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID. Returns nil if not found.
func (db *DB) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	j, err := scanJob(db.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return j, nil
}

// GetJobForUser retrieves a job by ID scoped to its owner. Returns nil if the
// job is absent or owned by someone else.
func (db *DB) GetJobForUser(ctx context.Context, jobID, userID uuid.UUID) (*Job, error) {
	j, err := scanJob(db.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1 AND user_id = $2`,
		jobID, userID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return j, nil
}

// UpdateJobStatus sets the lifecycle status of a job
func (db *DB) UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}

// UpdateJobLayout stores the last-applied layout configuration on a job
// without touching its status. Used when a config change does not require a
// replan.
func (db *DB) UpdateJobLayout(ctx context.Context, jobID uuid.UUID, cfg domain.LayoutConfig) error {
	layoutBytes, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal layout config: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`UPDATE jobs SET layout_config = $1, updated_at = NOW() WHERE id = $2`,
		layoutBytes, jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job layout: %w", err)
	}
	return nil
}
