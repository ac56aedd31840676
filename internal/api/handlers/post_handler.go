package handlers

import (
	"log/slog"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/newsflowhq/newsflow-api/internal/queue"
	"github.com/newsflowhq/newsflow-api/internal/service"
	"github.com/newsflowhq/newsflow-api/internal/transfer"
)

type PostHandler struct {
	s           service.PostService
	g           service.GenerationService
	AsynqClient *asynq.Client
}

func NewPostHandler(service service.PostService, generation service.GenerationService, asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{s: service, g: generation, AsynqClient: asynqClient}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var files []*multipart.FileHeader
	form, err := c.MultipartForm()
	if err == nil && form != nil {
		files = form.File["files"]
	}

	articleID, _ := strconv.ParseInt(c.FormValue("article_id"), 10, 64)

	pc := transfer.PostCreation{
		Title:            c.FormValue("title"),
		ArticleID:        articleID,
		TwitterContent:   c.FormValue("twitter_content"),
		LinkedinContent:  c.FormValue("linkedin_content"),
		ThreadsContent:   c.FormValue("threads_content"),
		InstagramContent: c.FormValue("instagram_content"),
		TargetPlatforms:  c.FormValue("target_platforms"),
		ScheduledTime:    c.FormValue("scheduled_time"),
	}

	postID, delay, err := h.s.CreatePost(c.Context(), userID, &pc, files)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if pc.ScheduledTime != "" {
		err = queue.EnqueuePublish(h.AsynqClient, queue.PublishPostPayload{PostID: postID, UserID: userID}, delay)
		if err != nil {
			slog.Error(err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error scheduling post",
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":      postID,
		"message": "Post created successfully",
	})
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	if postID != 0 {
		post, media, err := h.s.PostInfo(c.Context(), int64(postID), userID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to get post",
			})
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"post":  post,
			"media": media,
		})
	}

	posts, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) GenerateVariants(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	var req transfer.GenerationRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	post, err := h.g.GenerateVariants(c.Context(), userID, int64(postID), req.Platforms, req.Tone)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	err := h.s.Remove(c.Context(), userID, int64(postID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove post",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
