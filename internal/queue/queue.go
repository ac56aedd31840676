package queue

import (
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

// EnqueuePublish schedules a full batch dispatch, optionally delayed until
// the post's scheduled time.
func EnqueuePublish(asynqClient *asynq.Client, payload PublishPostPayload, delay time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishPost, taskPayload)

	_, err = asynqClient.Enqueue(task, asynq.ProcessIn(delay))
	if err != nil {
		return err
	}

	log.Printf("Publish task scheduled: %+v", payload)
	return nil
}

// EnqueueRetry hands one due attempt to the worker for re-dispatch. The
// sweep is the only producer.
func EnqueueRetry(asynqClient *asynq.Client, payload RetryAttemptPayload) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeRetryAttempt, taskPayload)

	_, err = asynqClient.Enqueue(task)
	if err != nil {
		return err
	}

	return nil
}
