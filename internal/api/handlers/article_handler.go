package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/newsflowhq/newsflow-api/internal/service"
	"github.com/newsflowhq/newsflow-api/internal/transfer"
)

type ArticleHandler struct {
	s service.ArticleService
}

func NewArticleHandler(service service.ArticleService) *ArticleHandler {
	return &ArticleHandler{s: service}
}

func (h *ArticleHandler) CreateArticle(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var ac transfer.ArticleCreation
	if err := c.BodyParser(&ac); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	id, err := h.s.Create(c.Context(), userID, &ac)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id": id,
	})
}

func (h *ArticleHandler) ListArticles(c *fiber.Ctx) error {
	userID := GetUserID(c)
	articleID := c.QueryInt("id", 0)

	if articleID != 0 {
		article, err := h.s.ArticleInfo(c.Context(), int64(articleID), userID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to get article",
			})
		}
		return c.Status(fiber.StatusOK).JSON(article)
	}

	articles, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list articles",
		})
	}

	return c.Status(fiber.StatusOK).JSON(articles)
}

func (h *ArticleHandler) RemoveArticle(c *fiber.Ctx) error {
	userID := GetUserID(c)
	articleID := c.QueryInt("id", 0)

	err := h.s.Remove(c.Context(), userID, int64(articleID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove article",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
