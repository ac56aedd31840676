package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/newsflowhq/newsflow-api/internal/models"
	"github.com/newsflowhq/newsflow-api/internal/publishing"
	"github.com/newsflowhq/newsflow-api/internal/transfer"
)

// Dispatcher is the slice of the orchestrator the publish endpoints need.
type Dispatcher interface {
	Dispatch(ctx context.Context, postID, userID int64, platforms []string) ([]*models.PublishAttempt, error)
	Status(ctx context.Context, postID, userID int64) ([]*models.PublishAttempt, error)
	RetryManual(ctx context.Context, postID, userID int64, platform string) (*models.PublishAttempt, error)
	Cancel(ctx context.Context, postID, userID int64, platform string) (*models.PublishAttempt, error)
}

type PublishHandler struct {
	o Dispatcher
}

func NewPublishHandler(orchestrator Dispatcher) *PublishHandler {
	return &PublishHandler{o: orchestrator}
}

// Publish dispatches the batch and returns the settled attempt set. Gate,
// validation and rate-limit outcomes are always in the response; the call
// blocks only for the slowest platform call of the batch.
func (h *PublishHandler) Publish(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.PublishRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}
	if req.PostID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "post_id is required",
		})
	}

	attempts, err := h.o.Dispatch(c.Context(), req.PostID, userID, req.Platforms)
	if err != nil {
		switch {
		case errors.Is(err, publishing.ErrPostNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Post doesn't exist",
			})
		case errors.Is(err, publishing.ErrUnknownPlatform), errors.Is(err, publishing.ErrNoTargets):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		default:
			slog.Error(err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error publishing post",
			})
		}
	}

	status := transfer.PublishStatus{
		PostID:     req.PostID,
		PostStatus: models.AggregatePostStatus(attempts),
		Attempts:   toAttemptInfos(attempts),
	}
	return c.Status(fiber.StatusOK).JSON(status)
}

func (h *PublishHandler) Status(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("post_id", 0)

	attempts, err := h.o.Status(c.Context(), int64(postID), userID)
	if err != nil {
		if errors.Is(err, publishing.ErrPostNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Post doesn't exist",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to get publishing status",
		})
	}

	status := transfer.PublishStatus{
		PostID:     int64(postID),
		PostStatus: models.AggregatePostStatus(attempts),
		Attempts:   toAttemptInfos(attempts),
	}
	return c.Status(fiber.StatusOK).JSON(status)
}

func (h *PublishHandler) Retry(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.RetryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	attempt, err := h.o.RetryManual(c.Context(), req.PostID, userID, req.Platform)
	if err != nil {
		switch {
		case errors.Is(err, publishing.ErrPostNotFound), errors.Is(err, publishing.ErrAttemptNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No publish attempt for that post and platform",
			})
		case errors.Is(err, publishing.ErrNotRetryable):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Only failed attempts can be retried",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unable to retry publish",
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(toAttemptInfo(attempt))
}

func (h *PublishHandler) Cancel(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.CancelRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	attempt, err := h.o.Cancel(c.Context(), req.PostID, userID, req.Platform)
	if err != nil {
		switch {
		case errors.Is(err, publishing.ErrAttemptNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No publish attempt for that post and platform",
			})
		case errors.Is(err, publishing.ErrNotCancellable):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Only attempts queued for retry can be cancelled",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unable to cancel publish",
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(toAttemptInfo(attempt))
}
