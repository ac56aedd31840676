package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/newsflowhq/newsflow-api/internal/service"
	"github.com/newsflowhq/newsflow-api/internal/transfer"
)

type SettingsHandler struct {
	s service.SettingsService
}

func NewSettingsHandler(service service.SettingsService) *SettingsHandler {
	return &SettingsHandler{s: service}
}

func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	userID := GetUserID(c)

	settings, err := h.s.GetSettingsInfo(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to get settings",
		})
	}

	return c.Status(fiber.StatusOK).JSON(settings)
}

func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var su transfer.SettingsUpdate
	if err := c.BodyParser(&su); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	err := h.s.UpdateSettings(c.Context(), userID, &su)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
