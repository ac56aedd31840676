package transfer

import "time"

type PublishRequest struct {
	PostID    int64    `json:"post_id"`
	Platforms []string `json:"platforms,omitempty"`
}

type RetryRequest struct {
	PostID   int64  `json:"post_id"`
	Platform string `json:"platform"`
}

type CancelRequest struct {
	PostID   int64  `json:"post_id"`
	Platform string `json:"platform"`
}

type AttemptInfo struct {
	ID             int64      `json:"id"`
	Platform       string     `json:"platform"`
	Status         string     `json:"status"`
	PlatformPostID string     `json:"platform_post_id,omitempty"`
	PlatformURL    string     `json:"platform_url,omitempty"`
	ErrorCategory  string     `json:"error_category,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	RetryCount     int        `json:"retry_count"`
	MaxRetries     int        `json:"max_retries"`
	NextRetryAt    *time.Time `json:"next_retry_at,omitempty"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
}

type PublishStatus struct {
	PostID     int64         `json:"post_id"`
	PostStatus string        `json:"post_status"`
	Attempts   []AttemptInfo `json:"attempts"`
}
