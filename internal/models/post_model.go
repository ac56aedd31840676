package models

import (
	"database/sql"
	"time"
)

type Post struct {
	ID               int64          `db:"id" json:"id"`
	UserID           int64          `db:"user_id" json:"user_id"`
	ArticleID        sql.NullInt64  `db:"article_id" json:"article_id,omitempty"`
	Title            string         `db:"title" json:"title"`
	TwitterContent   string         `db:"twitter_content" json:"twitter_content"`
	LinkedinContent  string         `db:"linkedin_content" json:"linkedin_content"`
	ThreadsContent   string         `db:"threads_content" json:"threads_content"`
	InstagramContent string         `db:"instagram_content" json:"instagram_content"`
	TargetPlatforms  []string       `db:"target_platforms" json:"target_platforms"`
	Status           string         `db:"status" json:"status"`
	ScheduledTime    sql.NullTime   `db:"scheduled_time" json:"scheduled_time,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusDraft              = "draft"
	PostStatusGenerating         = "generating"
	PostStatusReady              = "ready"
	PostStatusPublishing         = "publishing"
	PostStatusPublished          = "published"
	PostStatusPartiallyPublished = "partially_published"
	PostStatusFailed             = "failed"
)

const (
	PlatformTwitter   = "twitter"
	PlatformLinkedin  = "linkedin"
	PlatformThreads   = "threads"
	PlatformInstagram = "instagram"
)

// Platforms lists every platform a post can target, in dispatch order.
var Platforms = []string{PlatformTwitter, PlatformLinkedin, PlatformThreads, PlatformInstagram}

func IsKnownPlatform(platform string) bool {
	for _, p := range Platforms {
		if p == platform {
			return true
		}
	}
	return false
}

// ContentFor returns the rendered variant for one platform.
func (p *Post) ContentFor(platform string) string {
	switch platform {
	case PlatformTwitter:
		return p.TwitterContent
	case PlatformLinkedin:
		return p.LinkedinContent
	case PlatformThreads:
		return p.ThreadsContent
	case PlatformInstagram:
		return p.InstagramContent
	default:
		return ""
	}
}

type MediaAsset struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	FileName  string    `db:"file_name" json:"file_name"`
	FileType  string    `db:"file_type" json:"file_type"`
	FileSize  int64     `db:"file_size" json:"file_size"`
	FileURL   string    `db:"file_url" json:"file_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type PostMedia struct {
	PostID       int64     `db:"post_id" json:"post_id"`
	AssetID      int64     `db:"asset_id" json:"asset_id"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
