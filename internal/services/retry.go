package services

import (
	"context"
	"errors"
	"time"

	estateline_errors "estateline/pkg/errors"
)

const (
	retryAttempts  = 3
	retryBaseDelay = 50 * time.Millisecond
)

// permanent reports whether retrying the operation can never help. Policy
// and validation failures fall in this bucket and must not hit the store
// again.
func permanent(err error) bool {
	return errors.Is(err, estateline_errors.ErrPolicyViolation) ||
		errors.Is(err, estateline_errors.ErrInvalidInput) ||
		errors.Is(err, estateline_errors.ErrNotFound) ||
		errors.Is(err, estateline_errors.ErrAlreadyExists) ||
		errors.Is(err, estateline_errors.ErrForbidden) ||
		errors.Is(err, estateline_errors.ErrUnauthorized) ||
		errors.Is(err, estateline_errors.ErrConflict) ||
		errors.Is(err, estateline_errors.ErrRateLimited)
}

// withRetry runs op with bounded exponential backoff at the store boundary.
// Anything not classified as permanent counts as a storage hiccup; after the
// last attempt it is surfaced as ErrTransientStore so clients know a retry
// is sensible.
func withRetry(ctx context.Context, op func() error) error {
	var err error
	delay := retryBaseDelay
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		err = op()
		if err == nil || permanent(err) {
			return err
		}
	}
	return estateline_errors.Transient(err)
}
