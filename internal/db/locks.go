package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// JobLock holds a session-scoped Postgres advisory lock for one job. The
// underlying connection stays checked out of the pool until Release.
type JobLock struct {
	release func()
}

// Release frees the advisory lock and returns the connection to the pool.
// Safe to call more than once.
func (l *JobLock) Release() {
	if l.release != nil {
		l.release()
		l.release = nil
	}
}

// TryLockJob attempts to take the advisory lock guarding mutating pipeline
// stages (plan, replan, render) for one job. Nothing else prevents two
// concurrent requests from replanning the same job, so callers must hold
// this for the duration of the stage. Returns nil with ok=false when another
// session holds the lock.
func (db *DB) TryLockJob(ctx context.Context, jobID uuid.UUID) (*JobLock, bool, error) {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire connection for job lock: %w", err)
	}

	var locked bool
	err = conn.QueryRow(ctx,
		`SELECT pg_try_advisory_lock(hashtextextended($1::text, 0))`,
		jobID,
	).Scan(&locked)
	if err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("failed to take job lock: %w", err)
	}
	if !locked {
		conn.Release()
		return nil, false, nil
	}

	lock := &JobLock{release: func() {
		// Unlock on the same session that took the lock.
		_, _ = conn.Exec(context.Background(),
			`SELECT pg_advisory_unlock(hashtextextended($1::text, 0))`, jobID)
		conn.Release()
	}}
	return lock, true, nil
}
