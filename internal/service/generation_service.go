package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	config "github.com/newsflowhq/newsflow-api/configs"
	"github.com/newsflowhq/newsflow-api/internal/models"
	"github.com/newsflowhq/newsflow-api/internal/publishing"
	"github.com/newsflowhq/newsflow-api/internal/repository"
	openai "github.com/sashabaranov/go-openai"
)

const generationSystemPrompt = `You are a social media copywriter for a tech news service.
Given an article, write one post variant per requested platform.
Respect each platform's character limit and tone. Do not use hashtags on LinkedIn.
Respond with a single JSON object whose keys are the platform names and whose
values are the post text, nothing else.`

type GenerationService interface {
	GenerateVariants(ctx context.Context, userID, postID int64, platforms []string, tone string) (*models.Post, error)
}

type generationService struct {
	cfg config.Config
	pr  repository.PostRepository
	ar  repository.ArticleRepository
	ai  *openai.Client
}

func NewGenerationService(cfg config.Config, pr repository.PostRepository, ar repository.ArticleRepository) GenerationService {
	return &generationService{
		cfg: cfg,
		pr:  pr,
		ar:  ar,
		ai:  openai.NewClient(cfg.OpenAIKey),
	}
}

// GenerateVariants asks the model for one rendition of the post per platform
// and stores them on the post. The post sits in the generating status while
// the request is in flight and returns to draft if generation fails.
func (s *generationService) GenerateVariants(ctx context.Context, userID, postID int64, platforms []string, tone string) (*models.Post, error) {
	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !isValid {
		err = errors.New("Post doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil || post == nil {
		return nil, fmt.Errorf("Error getting post info")
	}

	if len(platforms) == 0 {
		platforms = post.TargetPlatforms
	}
	if len(platforms) == 0 {
		platforms = models.Platforms
	}
	for _, platform := range platforms {
		if !models.IsKnownPlatform(platform) {
			return nil, fmt.Errorf("unknown platform %q", platform)
		}
	}

	if err := s.pr.UpdatePostStatus(ctx, models.PostStatusGenerating, postID); err != nil {
		return nil, err
	}

	variants, err := s.requestVariants(ctx, post, platforms, tone)
	if err != nil {
		s.pr.UpdatePostStatus(ctx, models.PostStatusDraft, postID)
		return nil, err
	}

	for platform, content := range variants {
		switch platform {
		case models.PlatformTwitter:
			post.TwitterContent = content
		case models.PlatformLinkedin:
			post.LinkedinContent = content
		case models.PlatformThreads:
			post.ThreadsContent = content
		case models.PlatformInstagram:
			post.InstagramContent = content
		}
	}
	post.Status = models.PostStatusReady

	if err := s.pr.UpdateContent(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

func (s *generationService) requestVariants(ctx context.Context, post *models.Post, platforms []string, tone string) (map[string]string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\n", post.Title)

	if post.ArticleID.Valid {
		article, err := s.ar.GetByID(ctx, post.ArticleID.Int64)
		if err == nil && article != nil {
			fmt.Fprintf(&sb, "Summary: %s\nSource: %s\nURL: %s\n", article.Summary, article.Source, article.URL)
		}
	}

	if tone != "" {
		fmt.Fprintf(&sb, "Tone: %s\n", tone)
	}

	fmt.Fprintf(&sb, "Platforms:\n")
	for _, platform := range platforms {
		fmt.Fprintf(&sb, "- %s (max %d characters)\n", platform, publishing.MaxRunesFor(platform))
	}

	resp, err := s.ai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.cfg.OpenAIModel,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: generationSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: sb.String(),
			},
		},
	})
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("model returned no choices")
	}

	var variants map[string]string
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &variants); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("could not parse generated variants: %w", err)
	}

	return variants, nil
}
