package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/newsflowhq/newsflow-api/internal/models"
)

type ArticleRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Article, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.Article, error)
	Create(ctx context.Context, article *models.Article) (int64, error)
	CheckByUserID(ctx context.Context, articleID, userID int64) (bool, error)
	Remove(ctx context.Context, id int64) error
}

type articleRepository struct {
	db *sql.DB
}

func NewArticleRepository(db *sql.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) (int64, error) {
	query := `
		INSERT INTO articles (user_id, title, url, source, summary, published_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, article.UserID, article.Title, article.URL, article.Source, article.Summary, article.PublishedAt).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *articleRepository) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	query := `SELECT id, user_id, title, url, source, summary, published_at, created_at FROM articles WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var a models.Article
	err := row.Scan(&a.ID, &a.UserID, &a.Title, &a.URL, &a.Source, &a.Summary, &a.PublishedAt, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &a, nil
}

func (r *articleRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Article, error) {
	query := `SELECT id, user_id, title, url, source, summary, published_at, created_at FROM articles WHERE user_id = $1 ORDER BY published_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		var a models.Article
		err := rows.Scan(&a.ID, &a.UserID, &a.Title, &a.URL, &a.Source, &a.Summary, &a.PublishedAt, &a.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		articles = append(articles, &a)
	}
	return articles, rows.Err()
}

func (r *articleRepository) CheckByUserID(ctx context.Context, articleID, userID int64) (bool, error) {
	query := "SELECT 1 FROM articles WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, articleID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *articleRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM articles WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
