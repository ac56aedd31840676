package queue

import (
	"github.com/newsflowhq/newsflow-api/internal/publishing"
)

type Queue struct {
	orchestrator *publishing.Orchestrator
}

func NewQueue(orchestrator *publishing.Orchestrator) *Queue {
	return &Queue{orchestrator: orchestrator}
}

const (
	TaskTypePublishPost  = "publish:post"
	TaskTypeRetryAttempt = "publish:retry"
)

type PublishPostPayload struct {
	PostID    int64    `json:"post_id"`
	UserID    int64    `json:"user_id"`
	Platforms []string `json:"platforms,omitempty"`
}

type RetryAttemptPayload struct {
	AttemptID int64 `json:"attempt_id"`
}
