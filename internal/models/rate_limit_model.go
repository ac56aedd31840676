package models

import "time"

// RateLimitWindow counts publish calls per (user, platform, endpoint) inside
// a fixed window. The row is created lazily on first use and reset in place
// once window_end passes.
type RateLimitWindow struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	Platform     string    `db:"platform" json:"platform"`
	Endpoint     string    `db:"endpoint" json:"endpoint"`
	RequestsMade int       `db:"requests_made" json:"requests_made"`
	LimitMax     int       `db:"limit_max" json:"limit_max"`
	WindowStart  time.Time `db:"window_start" json:"window_start"`
	WindowEnd    time.Time `db:"window_end" json:"window_end"`
}

const EndpointPublish = "publish"
