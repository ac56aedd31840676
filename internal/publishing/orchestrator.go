package publishing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	config "github.com/newsflowhq/newsflow-api/configs"
	"github.com/newsflowhq/newsflow-api/internal/models"
	"github.com/newsflowhq/newsflow-api/internal/publisher"
	"github.com/newsflowhq/newsflow-api/internal/repository"
	"github.com/newsflowhq/newsflow-api/pkg/utils"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrAttemptNotFound = errors.New("publish attempt not found")
	ErrNoTargets       = errors.New("post has no target platforms")
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrNotRetryable    = errors.New("attempt is not in a retryable state")
	ErrNotCancellable  = errors.New("attempt is not queued for retry")
)

// Orchestrator runs the per-(post, platform) publish state machine:
// PENDING → PUBLISHING → {SUCCESS | FAILED | RATE_LIMITED | RETRYING}.
// Platforms in one batch are dispatched concurrently and settle
// independently; the retry sweep re-enters through Redispatch.
type Orchestrator struct {
	cfg     config.Config
	posts   repository.PostRepository
	ledger  repository.PublishAttemptRepository
	limits  repository.RateLimitRepository
	media   repository.MediaRepository
	gate    *ConnectionGate
	pubs    publisher.Registry
	backoff Backoff
	now     func() time.Time
}

func NewOrchestrator(
	cfg config.Config,
	posts repository.PostRepository,
	ledger repository.PublishAttemptRepository,
	limits repository.RateLimitRepository,
	media repository.MediaRepository,
	gate *ConnectionGate,
	pubs publisher.Registry) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		posts:  posts,
		ledger: ledger,
		limits: limits,
		media:  media,
		gate:   gate,
		pubs:   pubs,
		backoff: Backoff{
			Base:   cfg.Publishing.BackoffBase,
			Cap:    cfg.Publishing.BackoffCap,
			Jitter: cfg.Publishing.JitterFraction,
		},
		now: time.Now,
	}
}

// Dispatch publishes one post to the requested platforms (the post's target
// set when none are given). Gate, validation and rate-limit outcomes are
// settled in the ledger before the call returns; adapter calls run
// concurrently and the call blocks only for the slowest of them. A platform
// whose attempt already reached SUCCESS is a no-op.
func (o *Orchestrator) Dispatch(ctx context.Context, postID, userID int64, platforms []string) ([]*models.PublishAttempt, error) {
	post, err := o.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil || post.UserID != userID {
		return nil, ErrPostNotFound
	}

	if len(platforms) == 0 {
		platforms = post.TargetPlatforms
	}
	if len(platforms) == 0 {
		return nil, ErrNoTargets
	}
	for _, platform := range platforms {
		if !models.IsKnownPlatform(platform) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, platform)
		}
	}

	readiness, err := o.gate.CheckReadiness(ctx, userID, platforms)
	if err != nil {
		return nil, err
	}

	mediaURLs, err := o.mediaURLs(ctx, postID)
	if err != nil {
		return nil, err
	}

	if err := o.posts.UpdatePostStatus(ctx, models.PostStatusPublishing, postID); err != nil {
		slog.Info(err.Error())
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, o.cfg.Publishing.DispatchLimit)

	for _, platform := range platforms {
		attempt, err := o.ledger.GetOrCreate(ctx, &models.PublishAttempt{
			PostID:      postID,
			UserID:      userID,
			Platform:    platform,
			MaxRetries:  o.cfg.Publishing.MaxRetries,
			ContentHash: contentHash(post.ContentFor(platform)),
		})
		if err != nil {
			// One platform's ledger trouble must not sink its siblings.
			slog.Info(err.Error())
			continue
		}
		if attempt.Status == models.AttemptStatusSuccess {
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}
		go func(attempt *models.PublishAttempt) {
			defer wg.Done()
			defer func() { <-semaphore }()
			o.dispatchOne(ctx, post, attempt, readiness, mediaURLs)
		}(attempt)
	}

	wg.Wait()

	if err := o.recomputePostStatus(ctx, postID); err != nil {
		slog.Info(err.Error())
	}

	attempts, err := o.ledger.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	requested := make(map[string]bool, len(platforms))
	for _, platform := range platforms {
		requested[platform] = true
	}
	result := make([]*models.PublishAttempt, 0, len(platforms))
	for _, attempt := range attempts {
		if requested[attempt.Platform] {
			result = append(result, attempt)
		}
	}
	return result, nil
}

// dispatchOne drives a single attempt through the state machine. The
// MarkPublishing claim is the only entry into PUBLISHING; if it fails the
// attempt is terminal or another dispatch already owns it, and this one
// backs off without side effects.
func (o *Orchestrator) dispatchOne(ctx context.Context, post *models.Post, attempt *models.PublishAttempt, readiness *Readiness, mediaURLs []string) {
	claimed, err := o.ledger.MarkPublishing(ctx, attempt.ID)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if !claimed {
		return
	}

	if reason, blocked := readiness.Blocked(attempt.Platform); blocked {
		o.markFailed(ctx, attempt.ID, models.ErrorCategoryAuth, reason)
		return
	}

	content := post.ContentFor(attempt.Platform)
	validation := ValidateContent(attempt.Platform, content, len(mediaURLs))
	if !validation.IsValid {
		o.markFailed(ctx, attempt.ID, models.ErrorCategoryValidation, strings.Join(validation.Errors, "; "))
		return
	}

	limitMax := o.cfg.Publishing.DailyLimits[attempt.Platform]
	allowed, resetAt, err := o.limits.Reserve(ctx, attempt.UserID, attempt.Platform, models.EndpointPublish, limitMax, o.cfg.Publishing.RateLimitWindow)
	if err != nil {
		// A rate-limit store error is our failure, not the platform's.
		slog.Info(err.Error())
		o.retryOrFail(ctx, attempt, models.ErrorCategoryUnknown, "rate limit check failed: "+err.Error())
		return
	}
	if !allowed {
		if err := o.ledger.MarkRateLimited(ctx, attempt.ID, "publish window exhausted for "+attempt.Platform, resetAt); err != nil {
			slog.Info(err.Error())
		}
		return
	}

	account := readiness.Accounts[attempt.Platform]
	token, err := utils.Decrypt(account.AccessToken, []byte(o.cfg.SecretKey))
	if err != nil {
		o.markFailed(ctx, attempt.ID, models.ErrorCategoryAuth, "stored credentials could not be decrypted")
		return
	}

	pub, ok := o.pubs.Get(attempt.Platform)
	if !ok {
		o.markFailed(ctx, attempt.ID, models.ErrorCategoryPlatform, "no publisher configured for "+attempt.Platform)
		return
	}

	result, err := pub.Publish(ctx, &publisher.PublishRequest{
		AccountID:   account.AccountID,
		Username:    account.AccountUsername,
		AccessToken: token,
		Content:     content,
		MediaURLs:   mediaURLs,
	})
	if err != nil {
		o.recordFailure(ctx, attempt, err)
		return
	}

	if err := o.ledger.MarkSuccess(ctx, attempt.ID, result.PlatformPostID, result.PlatformURL); err != nil {
		slog.Info(err.Error())
	}
}

// recordFailure maps an adapter error onto the taxonomy and decides between
// terminal failure, a scheduled retry, or a rate-limit deferral.
func (o *Orchestrator) recordFailure(ctx context.Context, attempt *models.PublishAttempt, err error) {
	category := publisher.Categorize(err)
	message := err.Error()

	switch category {
	case models.ErrorCategoryAuth, models.ErrorCategoryValidation:
		o.markFailed(ctx, attempt.ID, category, message)

	case models.ErrorCategoryRateLimit:
		wait := o.backoff.Delay(attempt.RetryCount)
		if retryAfter, ok := publisher.RetryAfter(err); ok {
			wait = retryAfter
		}
		if err := o.ledger.MarkRateLimited(ctx, attempt.ID, message, o.now().Add(wait)); err != nil {
			slog.Info(err.Error())
		}

	default:
		o.retryOrFail(ctx, attempt, category, message)
	}
}

// retryOrFail schedules another try while the attempt has budget left and
// fails it terminally otherwise. Unknown errors get the smaller budget.
func (o *Orchestrator) retryOrFail(ctx context.Context, attempt *models.PublishAttempt, category, message string) {
	budget := attempt.MaxRetries
	if category == models.ErrorCategoryUnknown {
		budget = o.cfg.Publishing.UnknownMaxRetries
	}
	if attempt.RetryCount < budget {
		next := o.now().Add(o.backoff.Delay(attempt.RetryCount))
		if err := o.ledger.MarkRetrying(ctx, attempt.ID, category, message, next); err != nil {
			slog.Info(err.Error())
		}
		return
	}
	o.markFailed(ctx, attempt.ID, category, message)
}

func (o *Orchestrator) markFailed(ctx context.Context, attemptID int64, category, message string) {
	if err := o.ledger.MarkFailed(ctx, attemptID, category, message); err != nil {
		slog.Info(err.Error())
	}
}

// Redispatch is the retry sweep's entry point: it re-runs the single
// platform dispatch path for a queued attempt. Terminal and in-flight
// attempts are skipped, which makes a duplicate sweep entry harmless.
func (o *Orchestrator) Redispatch(ctx context.Context, attemptID int64) error {
	attempt, err := o.ledger.GetByID(ctx, attemptID)
	if err != nil {
		return err
	}
	if attempt == nil {
		return ErrAttemptNotFound
	}
	if attempt.IsTerminal() || attempt.Status == models.AttemptStatusPublishing {
		return nil
	}

	post, err := o.posts.GetByID(ctx, attempt.PostID)
	if err != nil {
		return err
	}
	if post == nil {
		o.markFailed(ctx, attempt.ID, models.ErrorCategoryValidation, "post no longer exists")
		return nil
	}

	readiness, err := o.gate.CheckReadiness(ctx, attempt.UserID, []string{attempt.Platform})
	if err != nil {
		return err
	}

	mediaURLs, err := o.mediaURLs(ctx, attempt.PostID)
	if err != nil {
		return err
	}

	o.dispatchOne(ctx, post, attempt, readiness, mediaURLs)

	if err := o.recomputePostStatus(ctx, attempt.PostID); err != nil {
		slog.Info(err.Error())
	}
	return nil
}

// RetryManual rearms a terminally failed attempt with a fresh retry budget
// and dispatches it immediately.
func (o *Orchestrator) RetryManual(ctx context.Context, postID, userID int64, platform string) (*models.PublishAttempt, error) {
	exists, err := o.posts.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrPostNotFound
	}

	attempt, err := o.ledger.GetByPostAndPlatform(ctx, postID, platform)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, ErrAttemptNotFound
	}

	reset, err := o.ledger.ResetForRetry(ctx, attempt.ID)
	if err != nil {
		return nil, err
	}
	if !reset {
		return nil, ErrNotRetryable
	}

	if err := o.Redispatch(ctx, attempt.ID); err != nil {
		return nil, err
	}
	return o.ledger.GetByID(ctx, attempt.ID)
}

// Cancel pulls a queued attempt out of the retry queue. Attempts already
// dispatched to a platform cannot be cancelled; the external call is
// fire-and-forget once sent.
func (o *Orchestrator) Cancel(ctx context.Context, postID, userID int64, platform string) (*models.PublishAttempt, error) {
	attempt, err := o.ledger.GetByPostAndPlatform(ctx, postID, platform)
	if err != nil {
		return nil, err
	}
	if attempt == nil || attempt.UserID != userID {
		return nil, ErrAttemptNotFound
	}

	cancelled, err := o.ledger.CancelQueued(ctx, attempt.ID, userID)
	if err != nil {
		return nil, err
	}
	if !cancelled {
		return nil, ErrNotCancellable
	}

	if err := o.recomputePostStatus(ctx, postID); err != nil {
		slog.Info(err.Error())
	}
	return o.ledger.GetByID(ctx, attempt.ID)
}

// Status returns the ledger rows for one post.
func (o *Orchestrator) Status(ctx context.Context, postID, userID int64) ([]*models.PublishAttempt, error) {
	exists, err := o.posts.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrPostNotFound
	}
	return o.ledger.ListByPostID(ctx, postID)
}

// recomputePostStatus rolls the attempt set up into the post lifecycle
// status after a batch settles or a single attempt changes state.
func (o *Orchestrator) recomputePostStatus(ctx context.Context, postID int64) error {
	attempts, err := o.ledger.ListByPostID(ctx, postID)
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		return nil
	}
	return o.posts.UpdatePostStatus(ctx, models.AggregatePostStatus(attempts), postID)
}

func (o *Orchestrator) mediaURLs(ctx context.Context, postID int64) ([]string, error) {
	assets, err := o.media.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(assets))
	for _, asset := range assets {
		urls = append(urls, asset.FileURL)
	}
	return urls, nil
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
