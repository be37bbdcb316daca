package opinion

import (
	"context"
	"errors"
	"fmt"
)

// HTTPError carries the status code of a failed provider call so the retry
// layer can tell overload from hard failure.
type HTTPError struct {
	Provider string
	Status   int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s http %d", e.Provider, e.Status)
}

// IsTransient reports whether an error is worth retrying: rate limits,
// overload and server-side failures. Timeouts are transient too, but only
// up to the per-item deadline the caller holds.
func IsTransient(err error) bool {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status == 429 || he.Status >= 500
	}
	return errors.Is(err, context.DeadlineExceeded)
}
