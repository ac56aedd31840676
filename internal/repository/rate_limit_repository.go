package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/newsflowhq/newsflow-api/internal/models"
)

type RateLimitRepository interface {
	Reserve(ctx context.Context, userID int64, platform, endpoint string, limitMax int, window time.Duration) (bool, time.Time, error)
	Get(ctx context.Context, userID int64, platform, endpoint string) (*models.RateLimitWindow, error)
}

type rateLimitRepository struct {
	db *sql.DB
}

func NewRateLimitRepository(db *sql.DB) RateLimitRepository {
	return &rateLimitRepository{db: db}
}

// Reserve takes one slot from the (user, platform, endpoint) window in a
// single upsert: the row is created lazily, reset in place once window_end
// has passed, and incremented atomically so concurrent dispatches cannot
// race on the counter. Each caller sees its own sequence number; a number
// past limit_max means the window is exhausted and no network call may be
// made before window_end. The counter is clamped at limit_max + 1 so the
// stored row keeps reporting real usage while the window is exhausted.
func (r *rateLimitRepository) Reserve(ctx context.Context, userID int64, platform, endpoint string, limitMax int, window time.Duration) (bool, time.Time, error) {
	now := time.Now()
	query := `
		INSERT INTO publishing_rate_limits (user_id, platform, endpoint, requests_made, limit_max, window_start, window_end)
		VALUES ($1, $2, $3, 1, $4, $5, $6)
		ON CONFLICT (user_id, platform, endpoint) DO UPDATE
		SET requests_made = CASE
				WHEN publishing_rate_limits.window_end <= $5 THEN 1
				ELSE LEAST(publishing_rate_limits.requests_made + 1, publishing_rate_limits.limit_max + 1)
			END,
			limit_max = $4,
			window_start = CASE WHEN publishing_rate_limits.window_end <= $5 THEN $5 ELSE publishing_rate_limits.window_start END,
			window_end = CASE WHEN publishing_rate_limits.window_end <= $5 THEN $6 ELSE publishing_rate_limits.window_end END
		RETURNING requests_made, limit_max, window_end
	`

	var requestsMade, max int
	var windowEnd time.Time
	err := r.db.QueryRowContext(ctx, query, userID, platform, endpoint, limitMax, now, now.Add(window)).
		Scan(&requestsMade, &max, &windowEnd)
	if err != nil {
		slog.Info(err.Error())
		return false, time.Time{}, err
	}

	return requestsMade <= max, windowEnd, nil
}

func (r *rateLimitRepository) Get(ctx context.Context, userID int64, platform, endpoint string) (*models.RateLimitWindow, error) {
	query := `
		SELECT id, user_id, platform, endpoint, requests_made, limit_max, window_start, window_end
		FROM publishing_rate_limits
		WHERE user_id = $1 AND platform = $2 AND endpoint = $3
	`
	var w models.RateLimitWindow
	err := r.db.QueryRowContext(ctx, query, userID, platform, endpoint).Scan(
		&w.ID, &w.UserID, &w.Platform, &w.Endpoint, &w.RequestsMade, &w.LimitMax, &w.WindowStart, &w.WindowEnd,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &w, nil
}
