package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/newsflowhq/newsflow-api/internal/models"
)

type PublishAttemptRepository interface {
	GetOrCreate(ctx context.Context, attempt *models.PublishAttempt) (*models.PublishAttempt, error)
	GetByID(ctx context.Context, id int64) (*models.PublishAttempt, error)
	GetByPostAndPlatform(ctx context.Context, postID int64, platform string) (*models.PublishAttempt, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.PublishAttempt, error)
	ListByUser(ctx context.Context, userID int64, platform, status string) ([]*models.PublishAttempt, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.PublishAttempt, error)
	MarkPublishing(ctx context.Context, id int64) (bool, error)
	MarkSuccess(ctx context.Context, id int64, platformPostID, platformURL string) error
	MarkFailed(ctx context.Context, id int64, category, message string) error
	MarkRetrying(ctx context.Context, id int64, category, message string, nextRetryAt time.Time) error
	MarkRateLimited(ctx context.Context, id int64, message string, nextRetryAt time.Time) error
	ResetForRetry(ctx context.Context, id int64) (bool, error)
	CancelQueued(ctx context.Context, id, userID int64) (bool, error)
}

type publishAttemptRepository struct {
	db *sql.DB
}

func NewPublishAttemptRepository(db *sql.DB) PublishAttemptRepository {
	return &publishAttemptRepository{db: db}
}

const attemptColumns = `id, post_id, user_id, platform, status, platform_post_id, platform_url, error_category, error_message, retry_count, max_retries, next_retry_at, content_hash, created_at, started_at, published_at, updated_at`

func scanAttempt(row interface {
	Scan(dest ...interface{}) error
}) (*models.PublishAttempt, error) {
	var a models.PublishAttempt
	err := row.Scan(
		&a.ID,
		&a.PostID,
		&a.UserID,
		&a.Platform,
		&a.Status,
		&a.PlatformPostID,
		&a.PlatformURL,
		&a.ErrorCategory,
		&a.ErrorMessage,
		&a.RetryCount,
		&a.MaxRetries,
		&a.NextRetryAt,
		&a.ContentHash,
		&a.CreatedAt,
		&a.StartedAt,
		&a.PublishedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetOrCreate inserts a pending attempt for (post_id, platform) or returns
// the existing row. The unique constraint on (post_id, platform) is what
// makes re-dispatch idempotent.
func (r *publishAttemptRepository) GetOrCreate(ctx context.Context, attempt *models.PublishAttempt) (*models.PublishAttempt, error) {
	query := `
		INSERT INTO post_publishing_history (post_id, user_id, platform, status, retry_count, max_retries, content_hash)
		VALUES ($1, $2, $3, $4, 0, $5, $6)
		ON CONFLICT (post_id, platform) DO NOTHING
		RETURNING ` + attemptColumns

	row := r.db.QueryRowContext(ctx, query,
		attempt.PostID,
		attempt.UserID,
		attempt.Platform,
		models.AttemptStatusPending,
		attempt.MaxRetries,
		attempt.ContentHash,
	)

	created, err := scanAttempt(row)
	if err == nil {
		return created, nil
	}
	if err != sql.ErrNoRows {
		slog.Info(err.Error())
		return nil, err
	}

	return r.GetByPostAndPlatform(ctx, attempt.PostID, attempt.Platform)
}

func (r *publishAttemptRepository) GetByID(ctx context.Context, id int64) (*models.PublishAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM post_publishing_history WHERE id = $1`
	attempt, err := scanAttempt(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return attempt, nil
}

func (r *publishAttemptRepository) GetByPostAndPlatform(ctx context.Context, postID int64, platform string) (*models.PublishAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM post_publishing_history WHERE post_id = $1 AND platform = $2`
	attempt, err := scanAttempt(r.db.QueryRowContext(ctx, query, postID, platform))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return attempt, nil
}

func (r *publishAttemptRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PublishAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM post_publishing_history WHERE post_id = $1 ORDER BY platform`
	return r.list(ctx, query, postID)
}

func (r *publishAttemptRepository) ListByUser(ctx context.Context, userID int64, platform, status string) ([]*models.PublishAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM post_publishing_history WHERE user_id = $1`
	args := []interface{}{userID}

	if platform != "" {
		args = append(args, platform)
		query += ` AND platform = $2`
	}
	if status != "" {
		args = append(args, status)
		if platform != "" {
			query += ` AND status = $3`
		} else {
			query += ` AND status = $2`
		}
	}
	query += ` ORDER BY updated_at DESC`

	return r.list(ctx, query, args...)
}

// ListDue feeds the retry sweep: queued attempts whose next_retry_at has
// passed.
func (r *publishAttemptRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.PublishAttempt, error) {
	query := `SELECT ` + attemptColumns + `
		FROM post_publishing_history
		WHERE status IN ($1, $2) AND next_retry_at IS NOT NULL AND next_retry_at <= $3
		ORDER BY next_retry_at
		LIMIT $4`
	return r.list(ctx, query, models.AttemptStatusRetrying, models.AttemptStatusRateLimited, now, limit)
}

func (r *publishAttemptRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.PublishAttempt, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var attempts []*models.PublishAttempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}

// MarkPublishing claims an attempt for dispatch. The status guard makes the
// claim atomic, so a sweep run and a manual retry can never dispatch the
// same attempt twice.
func (r *publishAttemptRepository) MarkPublishing(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE post_publishing_history
		SET status = $1, started_at = $2, next_retry_at = NULL, updated_at = $2
		WHERE id = $3 AND status IN ($4, $5, $6)
	`
	res, err := r.db.ExecContext(ctx, query,
		models.AttemptStatusPublishing,
		time.Now(),
		id,
		models.AttemptStatusPending,
		models.AttemptStatusRetrying,
		models.AttemptStatusRateLimited,
	)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return n > 0, nil
}

func (r *publishAttemptRepository) MarkSuccess(ctx context.Context, id int64, platformPostID, platformURL string) error {
	query := `
		UPDATE post_publishing_history
		SET status = $1, platform_post_id = $2, platform_url = $3,
			error_category = NULL, error_message = NULL, next_retry_at = NULL,
			published_at = $4, updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, models.AttemptStatusSuccess, platformPostID, platformURL, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *publishAttemptRepository) MarkFailed(ctx context.Context, id int64, category, message string) error {
	query := `
		UPDATE post_publishing_history
		SET status = $1, error_category = $2, error_message = $3, next_retry_at = NULL, updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, models.AttemptStatusFailed, category, message, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *publishAttemptRepository) MarkRetrying(ctx context.Context, id int64, category, message string, nextRetryAt time.Time) error {
	query := `
		UPDATE post_publishing_history
		SET status = $1, error_category = $2, error_message = $3,
			retry_count = retry_count + 1, next_retry_at = $4, updated_at = $5
		WHERE id = $6
	`
	_, err := r.db.ExecContext(ctx, query, models.AttemptStatusRetrying, category, message, nextRetryAt, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *publishAttemptRepository) MarkRateLimited(ctx context.Context, id int64, message string, nextRetryAt time.Time) error {
	query := `
		UPDATE post_publishing_history
		SET status = $1, error_category = $2, error_message = $3, next_retry_at = $4, updated_at = $5
		WHERE id = $6
	`
	_, err := r.db.ExecContext(ctx, query, models.AttemptStatusRateLimited, models.ErrorCategoryRateLimit, message, nextRetryAt, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// ResetForRetry rearms a terminally failed attempt for a manual retry,
// clearing the retry budget.
func (r *publishAttemptRepository) ResetForRetry(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE post_publishing_history
		SET status = $1, retry_count = 0, error_category = NULL, error_message = NULL,
			next_retry_at = NULL, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	res, err := r.db.ExecContext(ctx, query, models.AttemptStatusPending, time.Now(), id, models.AttemptStatusFailed)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return n > 0, nil
}

// CancelQueued removes a queued attempt from future sweeps. Only attempts
// waiting on a retry can be cancelled; in-flight calls are fire-and-forget.
func (r *publishAttemptRepository) CancelQueued(ctx context.Context, id, userID int64) (bool, error) {
	query := `
		UPDATE post_publishing_history
		SET status = $1, error_category = $2, error_message = 'cancelled by user',
			next_retry_at = NULL, updated_at = $3
		WHERE id = $4 AND user_id = $5 AND status IN ($6, $7)
	`
	res, err := r.db.ExecContext(ctx, query,
		models.AttemptStatusFailed,
		models.ErrorCategoryCancelled,
		time.Now(),
		id,
		userID,
		models.AttemptStatusRetrying,
		models.AttemptStatusRateLimited,
	)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return n > 0, nil
}
