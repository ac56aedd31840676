package publishing

import (
	"context"
	"time"

	"github.com/newsflowhq/newsflow-api/internal/models"
	"github.com/newsflowhq/newsflow-api/internal/repository"
)

// Readiness is the pre-dispatch view of a user's connections for one batch.
// Platforms in Missing or Expired must not be dispatched; reconnection is a
// user action, not something the retry queue can fix.
type Readiness struct {
	Ready    bool                                `json:"ready"`
	Missing  []string                            `json:"missing"`
	Expired  []string                            `json:"expired"`
	Details  map[string]*models.ConnectionStatus `json:"details"`
	Accounts map[string]*models.SocialAccount    `json:"-"`
}

type ConnectionGate struct {
	accounts repository.SocialAccountRepository
}

func NewConnectionGate(accounts repository.SocialAccountRepository) *ConnectionGate {
	return &ConnectionGate{accounts: accounts}
}

// CheckReadiness queries connection health for every requested platform.
// The snapshot is read-only; the gate never mutates account rows.
func (g *ConnectionGate) CheckReadiness(ctx context.Context, userID int64, platforms []string) (*Readiness, error) {
	now := time.Now()
	r := &Readiness{
		Details:  make(map[string]*models.ConnectionStatus, len(platforms)),
		Accounts: make(map[string]*models.SocialAccount, len(platforms)),
	}

	for _, platform := range platforms {
		account, err := g.accounts.GetByUserAndPlatform(ctx, userID, platform)
		if err != nil {
			return nil, err
		}
		if account == nil {
			r.Missing = append(r.Missing, platform)
			r.Details[platform] = &models.ConnectionStatus{Platform: platform}
			continue
		}

		status := account.Snapshot(now)
		r.Details[platform] = status
		r.Accounts[platform] = account

		if !status.Connected {
			r.Missing = append(r.Missing, platform)
			continue
		}
		if status.Expired {
			r.Expired = append(r.Expired, platform)
		}
	}

	r.Ready = len(r.Missing) == 0 && len(r.Expired) == 0
	return r, nil
}

// Blocked reports whether one platform failed the gate and why.
func (r *Readiness) Blocked(platform string) (string, bool) {
	for _, p := range r.Missing {
		if p == platform {
			return "no active connection for " + platform, true
		}
	}
	for _, p := range r.Expired {
		if p == platform {
			return platform + " connection has expired, reconnect to publish", true
		}
	}
	return "", false
}
