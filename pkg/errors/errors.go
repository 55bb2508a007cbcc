package estateline_errors

import (
	"errors"
	"fmt"
	"time"
)

// Common errors
var (
	ErrPolicyViolation = errors.New("communication between buyers and sellers is not allowed; use an agent")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidInput    = errors.New("invalid input")
	ErrAlreadyExists   = errors.New("already exists")
	ErrRateLimited     = errors.New("rate limited")
	ErrTransientStore  = errors.New("storage temporarily unavailable")
	ErrDispatchFailed  = errors.New("notification dispatch failed")
)

// IsRetryable reports whether the caller may sensibly retry the operation.
// Policy and validation failures are permanent.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientStore)
}

// Transient wraps a storage failure so callers can distinguish it from
// permanent errors once retries are exhausted.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrTransientStore, err)
}

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now()
	return &now
}
