package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	config "github.com/newsflowhq/newsflow-api/configs"
	"github.com/newsflowhq/newsflow-api/internal/models"
	"github.com/newsflowhq/newsflow-api/internal/repository"
	"github.com/newsflowhq/newsflow-api/pkg/utils"
	"golang.org/x/oauth2"
)

const (
	twitterTokenURL  = "https://api.twitter.com/2/oauth2/token"
	linkedinTokenURL = "https://www.linkedin.com/oauth/v2/accessToken"
	threadsGraphURL  = "https://graph.threads.net"
	instaGraphURL    = "https://graph.instagram.com"
)

type ConnectionService interface {
	List(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	StatusSnapshot(ctx context.Context, userID int64) ([]*models.ConnectionStatus, error)
	Delete(ctx context.Context, userID, accountID int64) error
	RefreshToken(ctx context.Context, account *models.SocialAccount) error
}

type connectionService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewConnectionService(cfg config.Config, sa repository.SocialAccountRepository) ConnectionService {
	return &connectionService{
		cfg: cfg,
		sa:  sa,
	}
}

func (s *connectionService) List(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	var err error

	if userID == 0 {
		err = errors.New("UserID is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	accounts, err := s.sa.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Error getting social accounts")
	}

	return accounts, nil
}

// StatusSnapshot reports connection health for every platform, including
// the ones the user never connected.
func (s *connectionService) StatusSnapshot(ctx context.Context, userID int64) ([]*models.ConnectionStatus, error) {
	accounts, err := s.sa.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	byPlatform := make(map[string]*models.ConnectionStatus, len(accounts))
	for _, account := range accounts {
		byPlatform[account.Platform] = account.Snapshot(now)
	}

	statuses := make([]*models.ConnectionStatus, 0, len(models.Platforms))
	for _, platform := range models.Platforms {
		if status, ok := byPlatform[platform]; ok {
			statuses = append(statuses, status)
			continue
		}
		statuses = append(statuses, &models.ConnectionStatus{Platform: platform})
	}
	return statuses, nil
}

func (s *connectionService) Delete(ctx context.Context, userID, accountID int64) error {
	var err error

	if userID == 0 {
		err = errors.New("UserID is not valid")
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.sa.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("Social account doesn't exist")
		slog.Info(err.Error())
		return err
	}

	err = s.sa.Remove(ctx, accountID)
	if err != nil {
		return fmt.Errorf("Error removing account info")
	}

	return nil
}

// RefreshToken renews an account's access token before it expires. Twitter
// and LinkedIn run the standard OAuth2 refresh grant; Threads and Instagram
// use the Graph long-lived token exchange.
func (s *connectionService) RefreshToken(ctx context.Context, account *models.SocialAccount) error {
	refreshToken, err := utils.Decrypt(account.RefreshToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	switch account.Platform {
	case models.PlatformTwitter:
		return s.refreshOAuth2(ctx, account, refreshToken, s.cfg.TwitterClientID, s.cfg.TwitterClientSecret, twitterTokenURL)
	case models.PlatformLinkedin:
		return s.refreshOAuth2(ctx, account, refreshToken, s.cfg.LinkedinClientID, s.cfg.LinkedinClientSecret, linkedinTokenURL)
	case models.PlatformThreads:
		return s.refreshGraphToken(ctx, account, refreshToken,
			fmt.Sprintf("%s/refresh_access_token?grant_type=th_refresh_token&access_token=%s", threadsGraphURL, refreshToken))
	case models.PlatformInstagram:
		return s.refreshGraphToken(ctx, account, refreshToken,
			fmt.Sprintf("%s/refresh_access_token?grant_type=ig_refresh_token&access_token=%s", instaGraphURL, refreshToken))
	default:
		return fmt.Errorf("unknown platform %q", account.Platform)
	}
}

func (s *connectionService) refreshOAuth2(ctx context.Context, account *models.SocialAccount, refreshToken, clientID, clientSecret, tokenURL string) error {
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL: tokenURL,
		},
	}

	tokenSource := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := tokenSource.Token()
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return s.storeToken(ctx, account, token.AccessToken, token.RefreshToken, token.Expiry)
}

func (s *connectionService) refreshGraphToken(ctx context.Context, account *models.SocialAccount, refreshToken, url string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code refreshing %s token: %d", account.Platform, resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return err
	}

	expiresAt := time.Now().Add(time.Second * time.Duration(result.ExpiresIn))

	// Graph long-lived tokens double as their own refresh token.
	return s.storeToken(ctx, account, result.AccessToken, result.AccessToken, expiresAt)
}

func (s *connectionService) storeToken(ctx context.Context, account *models.SocialAccount, accessToken, refreshToken string, expiresAt time.Time) error {
	encryptedAccess, err := utils.Encrypt([]byte(accessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	if refreshToken == "" {
		refreshToken = accessToken
	}
	encryptedRefresh, err := utils.Encrypt([]byte(refreshToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	return s.sa.SetToken(ctx, account.ID, encryptedAccess, encryptedRefresh, expiresAt)
}
