package publishing

import (
	"context"
	"testing"
	"time"

	"github.com/newsflowhq/newsflow-api/internal/models"
	"github.com/stretchr/testify/require"
)

func TestCheckReadinessAllConnected(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.accounts[models.PlatformTwitter] = activeAccount(t, 1, 7, models.PlatformTwitter)
	repo.accounts[models.PlatformLinkedin] = activeAccount(t, 2, 7, models.PlatformLinkedin)

	gate := NewConnectionGate(repo)
	r, err := gate.CheckReadiness(context.Background(), 7, []string{models.PlatformTwitter, models.PlatformLinkedin})
	require.NoError(t, err)

	require.True(t, r.Ready)
	require.Empty(t, r.Missing)
	require.Empty(t, r.Expired)
	require.Len(t, r.Accounts, 2)
}

func TestCheckReadinessMissingAccount(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.accounts[models.PlatformTwitter] = activeAccount(t, 1, 7, models.PlatformTwitter)

	gate := NewConnectionGate(repo)
	r, err := gate.CheckReadiness(context.Background(), 7, []string{models.PlatformTwitter, models.PlatformLinkedin})
	require.NoError(t, err)

	require.False(t, r.Ready)
	require.Equal(t, []string{models.PlatformLinkedin}, r.Missing)

	reason, blocked := r.Blocked(models.PlatformLinkedin)
	require.True(t, blocked)
	require.Contains(t, reason, "no active connection")

	_, blocked = r.Blocked(models.PlatformTwitter)
	require.False(t, blocked)
}

func TestCheckReadinessExpiredToken(t *testing.T) {
	repo := newFakeAccountRepo()
	account := activeAccount(t, 1, 7, models.PlatformTwitter)
	account.TokenExpiresAt = time.Now().Add(-time.Minute)
	repo.accounts[models.PlatformTwitter] = account

	gate := NewConnectionGate(repo)
	r, err := gate.CheckReadiness(context.Background(), 7, []string{models.PlatformTwitter})
	require.NoError(t, err)

	require.False(t, r.Ready)
	require.Equal(t, []string{models.PlatformTwitter}, r.Expired)

	reason, blocked := r.Blocked(models.PlatformTwitter)
	require.True(t, blocked)
	require.Contains(t, reason, "expired")
}

func TestCheckReadinessRevokedAccount(t *testing.T) {
	repo := newFakeAccountRepo()
	account := activeAccount(t, 1, 7, models.PlatformTwitter)
	account.AccountStatus = models.AccountStatusRevoked
	repo.accounts[models.PlatformTwitter] = account

	gate := NewConnectionGate(repo)
	r, err := gate.CheckReadiness(context.Background(), 7, []string{models.PlatformTwitter})
	require.NoError(t, err)

	require.False(t, r.Ready)
	require.Equal(t, []string{models.PlatformTwitter}, r.Missing)
}
