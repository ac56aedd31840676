package publisher

import (
	"errors"
	"fmt"
	"time"

	"github.com/newsflowhq/newsflow-api/internal/models"
)

// AuthenticationError means the token was rejected. Reconnecting the account
// is a user action, so these are never retried.
type AuthenticationError struct {
	Platform string
	Message  string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s: authentication failed: %s", e.Platform, e.Message)
}

// RateLimitError carries the provider's Retry-After hint when one was given.
type RateLimitError struct {
	Platform   string
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited: %s", e.Platform, e.Message)
}

// ValidationError means the platform rejected the content itself; a retry
// with the same content cannot succeed.
type ValidationError struct {
	Platform string
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: rejected content: %s", e.Platform, e.Message)
}

// NetworkError wraps transport-level failures (DNS, timeouts, resets).
type NetworkError struct {
	Platform string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Platform, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// PlatformError is any other platform-side failure, kept with its raw
// detail for diagnostics.
type PlatformError struct {
	Platform   string
	StatusCode int
	Detail     string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s: platform error (status %d): %s", e.Platform, e.StatusCode, e.Detail)
}

// Categorize maps an adapter error onto the persisted error taxonomy. Raw
// platform errors never cross the orchestrator boundary uncategorized.
func Categorize(err error) string {
	var (
		authErr     *AuthenticationError
		rateErr     *RateLimitError
		validErr    *ValidationError
		netErr      *NetworkError
		platformErr *PlatformError
	)

	switch {
	case errors.As(err, &authErr):
		return models.ErrorCategoryAuth
	case errors.As(err, &rateErr):
		return models.ErrorCategoryRateLimit
	case errors.As(err, &validErr):
		return models.ErrorCategoryValidation
	case errors.As(err, &netErr):
		return models.ErrorCategoryNetwork
	case errors.As(err, &platformErr):
		return models.ErrorCategoryPlatform
	default:
		return models.ErrorCategoryUnknown
	}
}

// RetryAfter extracts the provider reset hint from a rate-limit error, if
// any.
func RetryAfter(err error) (time.Duration, bool) {
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) && rateErr.RetryAfter > 0 {
		return rateErr.RetryAfter, true
	}
	return 0, false
}
