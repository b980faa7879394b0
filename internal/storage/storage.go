// Package storage provides durable blob storage for rendered page images.
package storage

import (
	"context"
	"fmt"
)

// BlobStore stores binary assets under a key and returns a public URL.
// Put must be idempotent on overwrite: re-rendering a page replaces the
// object at the same key.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// PageImageKey is the canonical object key for a rendered page image.
func PageImageKey(jobID string, pageNumber int) string {
	return fmt.Sprintf("jobs/%s/page_%d.png", jobID, pageNumber)
}
