package models

import "time"

type UserSettings struct {
	UserID           int64     `db:"user_id" json:"user_id"`
	Timezone         string    `db:"timezone" json:"timezone"`
	DefaultPlatforms []string  `db:"default_platforms" json:"default_platforms"`
	AutoPublish      bool      `db:"auto_publish" json:"auto_publish"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
