package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/swrite/internal/domain"
)

const pageColumns = `id, job_id, user_id, page_number, page_type, status, content,
	char_count, source, image_url, render_seed, render_attempts, created_at`

func scanPage(row pgx.Row) (*Page, error) {
	var (
		p        Page
		content  *string
		imageURL *string
	)
	err := row.Scan(&p.ID, &p.JobID, &p.UserID, &p.PageNumber, &p.PageType,
		&p.Status, &content, &p.CharCount, &p.Source, &imageURL,
		&p.RenderSeed, &p.RenderAttempts, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if content != nil {
		p.Content = *content
	}
	if imageURL != nil {
		p.ImageURL = *imageURL
	}
	return &p, nil
}

// InsertInputPages commits the full extracted page set and marks the job
// extracted in a single transaction. Either every page lands or none do.
func (db *DB) InsertInputPages(ctx context.Context, job *Job, pages []NewPage) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	for _, np := range pages {
		_, err := tx.Exec(ctx,
			`INSERT INTO pages (id, job_id, user_id, page_number, page_type, status,
			                    content, char_count, source)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.New(), job.ID, job.UserID, np.PageNumber, domain.PageTypeInput,
			domain.PageCompleted, np.Content, len(np.Content), np.Source,
		)
		if err != nil {
			return fmt.Errorf("failed to insert input page %d: %w", np.PageNumber, err)
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE jobs SET status = $1, total_pages = $2, updated_at = NOW() WHERE id = $3`,
		domain.JobExtracted, len(pages), job.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark job extracted: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit input pages: %w", err)
	}
	return nil
}

// ReplacePlannedPages deletes every output/handwritten page of a job and
// inserts the new planned set under the given page type, atomically. When a
// layout config is provided it is stored on the job in the same transaction.
// The job status becomes planned.
func (db *DB) ReplacePlannedPages(ctx context.Context, job *Job, pageType string, pages []NewPage, layout *domain.LayoutConfig) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx,
		`DELETE FROM pages WHERE job_id = $1 AND page_type = ANY($2)`,
		job.ID, domain.PlannedRoles,
	)
	if err != nil {
		return fmt.Errorf("failed to delete prior planned pages: %w", err)
	}

	for _, np := range pages {
		_, err := tx.Exec(ctx,
			`INSERT INTO pages (id, job_id, user_id, page_number, page_type, status,
			                    content, char_count, source)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.New(), job.ID, job.UserID, np.PageNumber, pageType,
			domain.PagePlanned, np.Content, len(np.Content), np.Source,
		)
		if err != nil {
			return fmt.Errorf("failed to insert planned page %d: %w", np.PageNumber, err)
		}
	}

	if layout != nil {
		layoutBytes, err := json.Marshal(layout)
		if err != nil {
			return fmt.Errorf("failed to marshal layout config: %w", err)
		}
		_, err = tx.Exec(ctx,
			`UPDATE jobs SET status = $1, layout_config = $2, updated_at = NOW() WHERE id = $3`,
			domain.JobPlanned, layoutBytes, job.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update job after replan: %w", err)
		}
	} else {
		_, err = tx.Exec(ctx,
			`UPDATE jobs SET status = $1, updated_at = NOW() WHERE id = $2`,
			domain.JobPlanned, job.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update job after plan: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit planned pages: %w", err)
	}
	return nil
}

// ListPages retrieves all pages of a job with the given page types, in page
// number order.
func (db *DB) ListPages(ctx context.Context, jobID uuid.UUID, pageTypes []string) ([]Page, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+pageColumns+` FROM pages
		 WHERE job_id = $1 AND page_type = ANY($2)
		 ORDER BY page_number`,
		jobID, pageTypes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

// GetPlannedPage retrieves the output/handwritten page of a job with the
// given page number. Returns nil if not found.
func (db *DB) GetPlannedPage(ctx context.Context, jobID uuid.UUID, pageNumber int) (*Page, error) {
	p, err := scanPage(db.pool.QueryRow(ctx,
		`SELECT `+pageColumns+` FROM pages
		 WHERE job_id = $1 AND page_number = $2 AND page_type = ANY($3)`,
		jobID, pageNumber, domain.PlannedRoles,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get planned page: %w", err)
	}
	return p, nil
}

// UpdatePageStatus sets the status of a single page
func (db *DB) UpdatePageStatus(ctx context.Context, pageID uuid.UUID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE pages SET status = $1 WHERE id = $2`,
		status, pageID,
	)
	if err != nil {
		return fmt.Errorf("failed to update page status: %w", err)
	}
	return nil
}

// RecordRenderAttempt locks the seed and bumps the attempt counter for a page
// about to be rendered.
func (db *DB) RecordRenderAttempt(ctx context.Context, pageID uuid.UUID, seed int64, attempts int) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE pages SET render_seed = $1, render_attempts = $2 WHERE id = $3`,
		seed, attempts, pageID,
	)
	if err != nil {
		return fmt.Errorf("failed to record render attempt: %w", err)
	}
	return nil
}

// CompletePageRender stores the rendered image URL and marks the page
// rendered, awaiting user approval.
func (db *DB) CompletePageRender(ctx context.Context, pageID uuid.UUID, imageURL string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE pages SET status = $1, image_url = $2 WHERE id = $3`,
		domain.PageRendered, imageURL, pageID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete page render: %w", err)
	}
	return nil
}
