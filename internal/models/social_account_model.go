package models

import (
	"time"
)

type SocialAccount struct {
	ID              int64     `db:"id" json:"id"`
	UserID          int64     `db:"user_id" json:"user_id"`
	Platform        string    `db:"platform" json:"platform"`
	AccountID       string    `db:"account_id" json:"account_id"`
	AccountName     string    `db:"account_name" json:"account_name"`
	AccountUsername string    `db:"account_username" json:"account_username"`
	ProfilePicture  string    `db:"profile_picture_url" json:"profile_picture"`
	AccessToken     string    `db:"access_token" json:"-"`
	RefreshToken    string    `db:"refresh_token" json:"-"`
	TokenExpiresAt  time.Time `db:"token_expires_at" json:"token_expires_at"`
	AccountStatus   string    `db:"account_status" json:"account_status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

const (
	AccountStatusActive  = "active"
	AccountStatusRevoked = "revoked"
)

// ConnectionStatus is the read-only snapshot the connection gate hands to
// the orchestrator. The publishing core never mutates account rows.
type ConnectionStatus struct {
	Platform  string `json:"platform"`
	Connected bool   `json:"connected"`
	Expired   bool   `json:"expired"`
	Username  string `json:"username"`
	AccountID int64  `json:"-"`
}

// Snapshot derives the gate view of an account at a point in time.
func (sa *SocialAccount) Snapshot(now time.Time) *ConnectionStatus {
	return &ConnectionStatus{
		Platform:  sa.Platform,
		Connected: sa.AccountStatus == AccountStatusActive,
		Expired:   !sa.TokenExpiresAt.IsZero() && sa.TokenExpiresAt.Before(now),
		Username:  sa.AccountUsername,
		AccountID: sa.ID,
	}
}
