package notion

import (
	"errors"
	"math/rand"
	"time"

	"github.com/jomei/notionapi"
)

const maxRetries = 3

// isRetryable reports whether a Notion API failure is worth retrying:
// rate limiting and server-side errors. Validation failures are not.
func isRetryable(err error) bool {
	var apiErr *notionapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == 429 || apiErr.Status >= 500
}

// backoff returns a duration for attempt n (0-indexed) with jitter.
func backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}
