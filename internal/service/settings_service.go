package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/newsflowhq/newsflow-api/internal/models"
	"github.com/newsflowhq/newsflow-api/internal/repository"
	"github.com/newsflowhq/newsflow-api/internal/transfer"
)

type SettingsService interface {
	GetSettingsInfo(ctx context.Context, userID int64) (*models.UserSettings, error)
	UpdateSettings(ctx context.Context, userID int64, su *transfer.SettingsUpdate) error
}

type settingsService struct {
	sr repository.SettingsRepository
}

func NewSettingsService(sr repository.SettingsRepository) SettingsService {
	return &settingsService{
		sr: sr,
	}
}

func (s *settingsService) GetSettingsInfo(ctx context.Context, userID int64) (*models.UserSettings, error) {
	settings, err := s.sr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if settings == nil {
		// First read for a new user gets the defaults.
		return &models.UserSettings{
			UserID:           userID,
			Timezone:         "UTC",
			DefaultPlatforms: models.Platforms,
		}, nil
	}

	return settings, nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, userID int64, su *transfer.SettingsUpdate) error {
	if _, err := time.LoadLocation(su.Timezone); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("invalid timezone %q", su.Timezone)
	}

	for _, platform := range su.DefaultPlatforms {
		if !models.IsKnownPlatform(platform) {
			return fmt.Errorf("unknown platform %q", platform)
		}
	}

	settings := models.UserSettings{
		UserID:           userID,
		Timezone:         su.Timezone,
		DefaultPlatforms: su.DefaultPlatforms,
		AutoPublish:      su.AutoPublish,
	}
	return s.sr.Upsert(ctx, &settings)
}
