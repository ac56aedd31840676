package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/newsflowhq/newsflow-api/internal/models"
	"github.com/newsflowhq/newsflow-api/internal/repository"
	"github.com/newsflowhq/newsflow-api/internal/transfer"
)

type ArticleService interface {
	Create(ctx context.Context, userID int64, ac *transfer.ArticleCreation) (int64, error)
	List(ctx context.Context, userID int64) ([]*models.Article, error)
	ArticleInfo(ctx context.Context, articleID, userID int64) (*models.Article, error)
	Remove(ctx context.Context, userID, articleID int64) error
}

type articleService struct {
	ar repository.ArticleRepository
}

func NewArticleService(ar repository.ArticleRepository) ArticleService {
	return &articleService{
		ar: ar,
	}
}

func (s *articleService) Create(ctx context.Context, userID int64, ac *transfer.ArticleCreation) (int64, error) {
	if ac == nil {
		err := errors.New("article data is nil")
		slog.Error(err.Error())
		return 0, err
	}
	if ac.Title == "" || ac.URL == "" {
		err := errors.New("title and url are required")
		slog.Info(err.Error())
		return 0, err
	}

	publishedAt := time.Now()
	if ac.PublishedAt != "" {
		parsed, err := time.Parse(time.RFC3339, ac.PublishedAt)
		if err != nil {
			err = fmt.Errorf("invalid published time format: %w", err)
			slog.Info(err.Error())
			return 0, err
		}
		publishedAt = parsed
	}

	article := models.Article{
		UserID:      userID,
		Title:       ac.Title,
		URL:         ac.URL,
		Source:      ac.Source,
		Summary:     ac.Summary,
		PublishedAt: publishedAt,
	}

	id, err := s.ar.Create(ctx, &article)
	if err != nil {
		return 0, fmt.Errorf("Error saving article")
	}

	return id, nil
}

func (s *articleService) List(ctx context.Context, userID int64) ([]*models.Article, error) {
	articles, err := s.ar.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Error getting articles")
	}
	return articles, nil
}

func (s *articleService) ArticleInfo(ctx context.Context, articleID, userID int64) (*models.Article, error) {
	var err error

	if articleID == 0 {
		err = errors.New("article id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	isValid, err := s.ar.CheckByUserID(ctx, articleID, userID)
	if err != nil {
		return nil, err
	}
	if !isValid {
		err = errors.New("Article doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	article, err := s.ar.GetByID(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("Error getting article info")
	}

	return article, nil
}

func (s *articleService) Remove(ctx context.Context, userID, articleID int64) error {
	var err error

	if articleID == 0 {
		err = errors.New("article_id is not valid")
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.ar.CheckByUserID(ctx, articleID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("Article doesn't exist")
		slog.Info(err.Error())
		return err
	}

	err = s.ar.Remove(ctx, articleID)
	if err != nil {
		return fmt.Errorf("Error removing article")
	}

	return nil
}
