package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/newsflowhq/newsflow-api/internal/models"
	"github.com/newsflowhq/newsflow-api/internal/repository"
	"github.com/newsflowhq/newsflow-api/internal/transfer"
)

type PostService interface {
	CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation, files []*multipart.FileHeader) (int64, time.Duration, error)
	List(ctx context.Context, userID int64) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID, userID int64) (*models.Post, []*models.MediaAsset, error)
	Remove(ctx context.Context, userID, postID int64) error
}

type postService struct {
	db *sql.DB
	pr repository.PostRepository
	ar repository.ArticleRepository
	mr repository.MediaRepository
	r2 *R2Service
}

func NewPostService(
	db *sql.DB,
	pr repository.PostRepository,
	ar repository.ArticleRepository,
	mr repository.MediaRepository,
	r2 *R2Service) PostService {
	return &postService{
		db: db,
		pr: pr,
		ar: ar,
		mr: mr,
		r2: r2,
	}
}

func (s *postService) CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation, files []*multipart.FileHeader) (int64, time.Duration, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return 0, 0, err
	}
	if pc.Title == "" {
		err := errors.New("title cannot be empty")
		slog.Info(err.Error())
		return 0, 0, err
	}

	var targetPlatforms []string
	if pc.TargetPlatforms != "" {
		if err := json.Unmarshal([]byte(pc.TargetPlatforms), &targetPlatforms); err != nil {
			err = fmt.Errorf("invalid target platforms format: %w", err)
			slog.Error(err.Error())
			return 0, 0, err
		}
	}
	for _, platform := range targetPlatforms {
		if !models.IsKnownPlatform(platform) {
			err := fmt.Errorf("unknown platform %q", platform)
			slog.Info(err.Error())
			return 0, 0, err
		}
	}

	var scheduledTime sql.NullTime
	if pc.ScheduledTime != "" {
		parsed, err := time.Parse("2006-01-02T15:04", pc.ScheduledTime)
		if err != nil {
			err = fmt.Errorf("invalid scheduled time format: %w", err)
			slog.Error(err.Error())
			return 0, 0, err
		}
		scheduledTime = sql.NullTime{Time: parsed, Valid: true}
	}

	var articleID sql.NullInt64
	if pc.ArticleID != 0 {
		exists, err := s.ar.CheckByUserID(ctx, pc.ArticleID, userID)
		if err != nil {
			return 0, 0, err
		}
		if !exists {
			err = errors.New("Article doesn't exist")
			slog.Info(err.Error())
			return 0, 0, err
		}
		articleID = sql.NullInt64{Int64: pc.ArticleID, Valid: true}
	}

	status := models.PostStatusReady
	if pc.TwitterContent == "" && pc.LinkedinContent == "" && pc.ThreadsContent == "" && pc.InstagramContent == "" {
		status = models.PostStatusDraft
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	post := models.Post{
		UserID:           userID,
		ArticleID:        articleID,
		Title:            pc.Title,
		TwitterContent:   pc.TwitterContent,
		LinkedinContent:  pc.LinkedinContent,
		ThreadsContent:   pc.ThreadsContent,
		InstagramContent: pc.InstagramContent,
		TargetPlatforms:  targetPlatforms,
		ScheduledTime:    scheduledTime,
		Status:           status,
	}

	postID, err := s.pr.Create(ctx, tx, &post)
	if err != nil {
		return 0, 0, fmt.Errorf("error creating post: %w", err)
	}

	if err = s.processFiles(ctx, tx, userID, postID, files); err != nil {
		return 0, 0, fmt.Errorf("error processing files: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	var delay time.Duration
	if scheduledTime.Valid {
		delay = time.Until(scheduledTime.Time)
		if delay < 0 {
			delay = 0
		}
	}

	return postID, delay, nil
}

func (s *postService) processFiles(ctx context.Context, tx *sql.Tx, userID, postID int64, files []*multipart.FileHeader) error {
	allowedTypes := map[string]struct{}{
		"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {},
	}

	for i, file := range files {
		fileContent, err := file.Open()
		if err != nil {
			return fmt.Errorf("error opening file: %w", err)
		}
		defer fileContent.Close()

		fileBytes, err := io.ReadAll(fileContent)
		if err != nil {
			return fmt.Errorf("error reading file content: %w", err)
		}

		fileType, err := filetype.Match(fileBytes)
		if err != nil || fileType == types.Unknown {
			return fmt.Errorf("unsupported file type: %w", err)
		}
		if _, ok := allowedTypes[fileType.Extension]; !ok {
			return fmt.Errorf("file type %s is not allowed", fileType.Extension)
		}

		assetID, err := s.saveFile(ctx, tx, userID, fileType.MIME.Value, fileBytes)
		if err != nil {
			return fmt.Errorf("error uploading file: %w", err)
		}

		postMedia := models.PostMedia{
			PostID:       postID,
			AssetID:      assetID,
			DisplayOrder: i,
		}
		if err := s.mr.AttachToPost(ctx, tx, &postMedia); err != nil {
			return fmt.Errorf("error saving media file: %w", err)
		}
	}
	return nil
}

func (s *postService) saveFile(ctx context.Context, tx *sql.Tx, userID int64, fileType string, file []byte) (int64, error) {
	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	err = s.r2.UploadToR2(ctx, id, file, fileType)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	ma := models.MediaAsset{
		UserID:   userID,
		FileName: id,
		FileType: fileType,
		FileSize: int64(len(file)),
		FileURL:  s.r2.PublicURL(id),
	}

	assetID, err := s.mr.CreateAsset(ctx, tx, &ma)
	if err != nil {
		return 0, err
	}

	return assetID, nil
}

func (s *postService) PostInfo(ctx context.Context, postID, userID int64) (*models.Post, []*models.MediaAsset, error) {
	var err error

	if userID == 0 {
		err = errors.New("User is not valid")
		slog.Info(err.Error())
		return nil, nil, err
	}

	if postID == 0 {
		err = errors.New("post id is not valid")
		slog.Info(err.Error())
		return nil, nil, err
	}

	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, nil, err
	}

	if !isValid {
		err = errors.New("Post doesn't exist")
		slog.Info(err.Error())
		return nil, nil, err
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, nil, fmt.Errorf("Error getting post info")
	}

	media, err := s.mr.ListByPostID(ctx, postID)
	if err != nil {
		return nil, nil, fmt.Errorf("Error getting post media")
	}

	return post, media, nil
}

func (s *postService) List(ctx context.Context, userID int64) ([]*models.Post, error) {
	posts, err := s.pr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Error getting posts")
	}
	return posts, nil
}

func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	var err error

	if userID == 0 {
		err = errors.New("User is not valid")
		slog.Info(err.Error())
		return err
	}

	if postID == 0 {
		err = errors.New("post_id is not valid")
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return err
	}

	if !isValid {
		err = errors.New("Post doesn't exist")
		slog.Info(err.Error())
		return err
	}

	err = s.pr.Remove(ctx, postID)
	if err != nil {
		return fmt.Errorf("Error removing post")
	}

	return nil
}
