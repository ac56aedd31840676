package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/newsflowhq/newsflow-api/internal/models"
	"github.com/newsflowhq/newsflow-api/internal/repository"
	"github.com/newsflowhq/newsflow-api/internal/service"
)

type TokenRefreshJob struct {
	sa repository.SocialAccountRepository
	cs service.ConnectionService
}

func NewTokenRefreshJob(sa repository.SocialAccountRepository, cs service.ConnectionService) *TokenRefreshJob {
	return &TokenRefreshJob{
		sa: sa,
		cs: cs,
	}
}

func (j *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	deadline := time.Now().Add(30 * time.Minute)

	accounts, err := j.sa.ListExpiringBefore(ctx, deadline)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, acc := range accounts {

		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.SocialAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := j.cs.RefreshToken(ctx, acc); err != nil {
				slog.Info("Unable to refresh token", "platform", acc.Platform, "account_id", acc.ID)
			}
		}(acc)
	}

	wg.Wait()
}
