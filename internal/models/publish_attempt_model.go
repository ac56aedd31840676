package models

import (
	"database/sql"
	"time"
)

// PublishAttempt is one row of the publishing history ledger: a single
// (post, platform) publish effort with its own state machine. Rows are
// updated in place through retries and never deleted once terminal.
type PublishAttempt struct {
	ID             int64          `db:"id" json:"id"`
	PostID         int64          `db:"post_id" json:"post_id"`
	UserID         int64          `db:"user_id" json:"user_id"`
	Platform       string         `db:"platform" json:"platform"`
	Status         string         `db:"status" json:"status"`
	PlatformPostID sql.NullString `db:"platform_post_id" json:"platform_post_id,omitempty"`
	PlatformURL    sql.NullString `db:"platform_url" json:"platform_url,omitempty"`
	ErrorCategory  sql.NullString `db:"error_category" json:"error_category,omitempty"`
	ErrorMessage   sql.NullString `db:"error_message" json:"error_message,omitempty"`
	RetryCount     int            `db:"retry_count" json:"retry_count"`
	MaxRetries     int            `db:"max_retries" json:"max_retries"`
	NextRetryAt    sql.NullTime   `db:"next_retry_at" json:"next_retry_at,omitempty"`
	ContentHash    string         `db:"content_hash" json:"content_hash"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	StartedAt      sql.NullTime   `db:"started_at" json:"started_at,omitempty"`
	PublishedAt    sql.NullTime   `db:"published_at" json:"published_at,omitempty"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

const (
	AttemptStatusPending     = "pending"
	AttemptStatusPublishing  = "publishing"
	AttemptStatusSuccess     = "success"
	AttemptStatusFailed      = "failed"
	AttemptStatusRateLimited = "rate_limited"
	AttemptStatusRetrying    = "retrying"
)

const (
	ErrorCategoryAuth       = "auth_error"
	ErrorCategoryValidation = "validation_error"
	ErrorCategoryRateLimit  = "rate_limit_error"
	ErrorCategoryNetwork    = "network_error"
	ErrorCategoryPlatform   = "platform_error"
	ErrorCategoryUnknown    = "unknown_error"
	ErrorCategoryCancelled  = "cancelled"
)

// IsTerminal reports whether no further automatic transition will happen.
func (a *PublishAttempt) IsTerminal() bool {
	return a.Status == AttemptStatusSuccess || a.Status == AttemptStatusFailed
}

// AggregatePostStatus derives the post lifecycle status from the attempt set
// for its targeted platforms: published when every target succeeded, failed
// when every target failed, partially_published on a mixed terminal outcome,
// publishing while anything is still queued or in flight.
func AggregatePostStatus(attempts []*PublishAttempt) string {
	if len(attempts) == 0 {
		return PostStatusReady
	}

	success, failed := 0, 0
	for _, a := range attempts {
		switch a.Status {
		case AttemptStatusSuccess:
			success++
		case AttemptStatusFailed:
			failed++
		default:
			return PostStatusPublishing
		}
	}

	switch {
	case failed == 0:
		return PostStatusPublished
	case success == 0:
		return PostStatusFailed
	default:
		return PostStatusPartiallyPublished
	}
}
