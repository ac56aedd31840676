package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/newsflowhq/newsflow-api/internal/models"
)

type SettingsRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.UserSettings, error)
	Upsert(ctx context.Context, settings *models.UserSettings) error
}

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetByUserID(ctx context.Context, userID int64) (*models.UserSettings, error) {
	query := `SELECT user_id, timezone, default_platforms, auto_publish, updated_at FROM user_settings WHERE user_id = $1`
	row := r.db.QueryRowContext(ctx, query, userID)

	var s models.UserSettings
	err := row.Scan(&s.UserID, &s.Timezone, pq.Array(&s.DefaultPlatforms), &s.AutoPublish, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &s, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, settings *models.UserSettings) error {
	query := `
		INSERT INTO user_settings (user_id, timezone, default_platforms, auto_publish, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET timezone = $2, default_platforms = $3, auto_publish = $4, updated_at = $5
	`
	_, err := r.db.ExecContext(ctx, query,
		settings.UserID,
		settings.Timezone,
		pq.Array(settings.DefaultPlatforms),
		settings.AutoPublish,
		time.Now(),
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
