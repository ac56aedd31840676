package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/newsflowhq/newsflow-api/internal/models"
	"github.com/newsflowhq/newsflow-api/internal/transfer"
)

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := strconv.Atoi(c.Locals("user_id").(string))
	return int64(userID)
}

func toAttemptInfo(a *models.PublishAttempt) transfer.AttemptInfo {
	info := transfer.AttemptInfo{
		ID:         a.ID,
		Platform:   a.Platform,
		Status:     a.Status,
		RetryCount: a.RetryCount,
		MaxRetries: a.MaxRetries,
	}
	if a.PlatformPostID.Valid {
		info.PlatformPostID = a.PlatformPostID.String
	}
	if a.PlatformURL.Valid {
		info.PlatformURL = a.PlatformURL.String
	}
	if a.ErrorCategory.Valid {
		info.ErrorCategory = a.ErrorCategory.String
	}
	if a.ErrorMessage.Valid {
		info.ErrorMessage = a.ErrorMessage.String
	}
	if a.NextRetryAt.Valid {
		t := a.NextRetryAt.Time
		info.NextRetryAt = &t
	}
	if a.PublishedAt.Valid {
		t := a.PublishedAt.Time
		info.PublishedAt = &t
	}
	return info
}

func toAttemptInfos(attempts []*models.PublishAttempt) []transfer.AttemptInfo {
	infos := make([]transfer.AttemptInfo, 0, len(attempts))
	for _, a := range attempts {
		infos = append(infos, toAttemptInfo(a))
	}
	return infos
}
