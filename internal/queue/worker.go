package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/hibiken/asynq"
	"github.com/newsflowhq/newsflow-api/internal/publishing"
)

func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	attempts, err := q.orchestrator.Dispatch(ctx, payload.PostID, payload.UserID, payload.Platforms)
	if err != nil {
		if errors.Is(err, publishing.ErrPostNotFound) {
			// The post was removed between scheduling and dispatch; retrying
			// the task cannot help.
			log.Printf("Skipping publish task for missing post %d", payload.PostID)
			return nil
		}
		return err
	}

	log.Printf("Dispatched post %d to %d platform(s)", payload.PostID, len(attempts))
	return nil
}

func (q *Queue) HandleRetryAttemptTask(ctx context.Context, task *asynq.Task) error {
	var payload RetryAttemptPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	if err := q.orchestrator.Redispatch(ctx, payload.AttemptID); err != nil {
		if errors.Is(err, publishing.ErrAttemptNotFound) {
			return nil
		}
		return err
	}

	return nil
}
