package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/newsflowhq/newsflow-api/internal/queue"
	"github.com/newsflowhq/newsflow-api/internal/repository"
)

// RetrySweepJob periodically scans the ledger for attempts whose
// next_retry_at has passed and hands each to the worker queue. At most one
// sweep runs at a time; a tick that lands while the previous sweep is still
// working is skipped so the same attempt is never enqueued twice by
// overlapping sweeps.
type RetrySweepJob struct {
	ledger    repository.PublishAttemptRepository
	batchSize int
	enqueue   func(attemptID int64) error
	mu        sync.Mutex
}

func NewRetrySweepJob(ledger repository.PublishAttemptRepository, asynqClient *asynq.Client, batchSize int) *RetrySweepJob {
	return &RetrySweepJob{
		ledger:    ledger,
		batchSize: batchSize,
		enqueue: func(attemptID int64) error {
			return queue.EnqueueRetry(asynqClient, queue.RetryAttemptPayload{AttemptID: attemptID})
		},
	}
}

func (j *RetrySweepJob) Sweep() {
	if !j.mu.TryLock() {
		slog.Info("retry sweep still running, skipping tick")
		return
	}
	defer j.mu.Unlock()

	ctx := context.Background()

	due, err := j.ledger.ListDue(ctx, time.Now(), j.batchSize)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, attempt := range due {
		if err := j.enqueue(attempt.ID); err != nil {
			slog.Info(err.Error())
		}
	}
}
