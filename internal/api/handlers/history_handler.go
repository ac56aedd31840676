package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/newsflowhq/newsflow-api/internal/models"
	"github.com/newsflowhq/newsflow-api/internal/repository"
)

type HistoryHandler struct {
	ledger repository.PublishAttemptRepository
}

func NewHistoryHandler(ledger repository.PublishAttemptRepository) *HistoryHandler {
	return &HistoryHandler{ledger: ledger}
}

// History lists the user's publishing ledger, optionally narrowed by
// platform and attempt status.
func (h *HistoryHandler) History(c *fiber.Ctx) error {
	userID := GetUserID(c)
	platform := c.Query("platform")
	status := c.Query("status")

	if platform != "" && !models.IsKnownPlatform(platform) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown platform " + platform,
		})
	}

	attempts, err := h.ledger.ListByUser(c.Context(), userID, platform, status)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list publishing history",
		})
	}

	return c.Status(fiber.StatusOK).JSON(toAttemptInfos(attempts))
}
