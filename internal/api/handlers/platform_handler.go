package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/newsflowhq/newsflow-api/internal/service"
)

type PlatformHandler struct {
	s service.ConnectionService
}

func NewPlatformHandler(service service.ConnectionService) *PlatformHandler {
	return &PlatformHandler{s: service}
}

func (h *PlatformHandler) ListAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accounts, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list connected accounts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *PlatformHandler) ConnectionStatus(c *fiber.Ctx) error {
	userID := GetUserID(c)

	statuses, err := h.s.StatusSnapshot(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to get connection status",
		})
	}

	return c.Status(fiber.StatusOK).JSON(statuses)
}

func (h *PlatformHandler) RemoveAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.QueryInt("id", 0)

	err := h.s.Delete(c.Context(), userID, int64(accountID))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to remove account",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
