package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestReserveAllowed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	windowEnd := time.Now().Add(24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO publishing_rate_limits")).
		WillReturnRows(sqlmock.NewRows([]string{"requests_made", "limit_max", "window_end"}).
			AddRow(1, 100, windowEnd))

	repo := NewRateLimitRepository(db)
	allowed, resetAt, err := repo.Reserve(context.Background(), 7, "twitter", "publish", 100, 24*time.Hour)
	require.NoError(t, err)
	require.True(t, allowed)
	require.WithinDuration(t, windowEnd, resetAt, time.Second)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveExhausted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	windowEnd := time.Now().Add(time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO publishing_rate_limits")).
		WillReturnRows(sqlmock.NewRows([]string{"requests_made", "limit_max", "window_end"}).
			AddRow(101, 100, windowEnd))

	repo := NewRateLimitRepository(db)
	allowed, resetAt, err := repo.Reserve(context.Background(), 7, "twitter", "publish", 100, 24*time.Hour)
	require.NoError(t, err)
	require.False(t, allowed)
	require.WithinDuration(t, windowEnd, resetAt, time.Second)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveClampsCounterWhenExhausted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Repeated reserves against an exhausted window keep the stored counter
	// at limit_max + 1 instead of drifting upward.
	mock.ExpectQuery(regexp.QuoteMeta("LEAST(publishing_rate_limits.requests_made + 1, publishing_rate_limits.limit_max + 1)")).
		WillReturnRows(sqlmock.NewRows([]string{"requests_made", "limit_max", "window_end"}).
			AddRow(101, 100, time.Now().Add(time.Hour)))

	repo := NewRateLimitRepository(db)
	allowed, _, err := repo.Reserve(context.Background(), 7, "twitter", "publish", 100, 24*time.Hour)
	require.NoError(t, err)
	require.False(t, allowed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveLastSlot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO publishing_rate_limits")).
		WillReturnRows(sqlmock.NewRows([]string{"requests_made", "limit_max", "window_end"}).
			AddRow(100, 100, time.Now().Add(time.Hour)))

	repo := NewRateLimitRepository(db)
	allowed, _, err := repo.Reserve(context.Background(), 7, "twitter", "publish", 100, 24*time.Hour)
	require.NoError(t, err)
	require.True(t, allowed)
	require.NoError(t, mock.ExpectationsWereMet())
}
