package render

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// Seed derives the deterministic 32-bit render seed for a page.
//
// System retries reuse the identity-only seed, so a render interrupted by a
// transient collaborator failure reproduces the same image. User retries mix
// in the current attempt counter: each retry yields a different image, but
// the seed is still reproducible given the attempt number.
func Seed(pageID uuid.UUID, pageNumber, attempts int, userRetry bool) uint32 {
	var input string
	if userRetry {
		input = fmt.Sprintf("%s:%d:%d", pageID, pageNumber, attempts)
	} else {
		input = fmt.Sprintf("%s:%d", pageID, pageNumber)
	}
	sum := sha256.Sum256([]byte(input))
	// The digest interpreted as a big integer, mod 2^32: its last four bytes.
	return binary.BigEndian.Uint32(sum[28:32])
}
