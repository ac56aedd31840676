package publishing

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/newsflowhq/newsflow-api/internal/models"
	"github.com/newsflowhq/newsflow-api/internal/publisher"
)

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*models.SocialAccount
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*models.SocialAccount)}
}

func (f *fakeAccountRepo) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountRepo) GetByUserAndPlatform(ctx context.Context, userID int64, platform string) (*models.SocialAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[platform]
	if !ok || a.UserID != userID {
		return nil, nil
	}
	return a, nil
}

func (f *fakeAccountRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.SocialAccount
	for _, a := range f.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAccountRepo) ListExpiringBefore(ctx context.Context, deadline time.Time) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (f *fakeAccountRepo) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	a, _ := f.GetByID(ctx, accountID)
	return a != nil && a.UserID == userID, nil
}

func (f *fakeAccountRepo) SetToken(ctx context.Context, accountID int64, accessToken, refreshToken string, expiresAt time.Time) error {
	return nil
}

func (f *fakeAccountRepo) Remove(ctx context.Context, id int64) error { return nil }

type fakePostRepo struct {
	mu       sync.Mutex
	posts    map[int64]*models.Post
	statuses []string
}

func newFakePostRepo(posts ...*models.Post) *fakePostRepo {
	f := &fakePostRepo{posts: make(map[int64]*models.Post)}
	for _, p := range posts {
		f.posts[p.ID] = p
	}
	return f
}

func (f *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts[id], nil
}

func (f *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post.ID = int64(len(f.posts) + 1)
	f.posts[post.ID] = post
	return post.ID, nil
}

func (f *fakePostRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	return nil, nil
}

func (f *fakePostRepo) UpdatePostStatus(ctx context.Context, status string, postID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.posts[postID]; ok {
		p.Status = status
	}
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakePostRepo) UpdateContent(ctx context.Context, post *models.Post) error { return nil }

func (f *fakePostRepo) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[postID]
	return ok && p.UserID == userID, nil
}

func (f *fakePostRepo) Remove(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.posts, id)
	return nil
}

func (f *fakePostRepo) currentStatus(postID int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.posts[postID]; ok {
		return p.Status
	}
	return ""
}

// fakeLedger mirrors the SQL repository's transition guards in memory so the
// orchestrator's claim and retry logic can be exercised without a database.
type fakeLedger struct {
	mu       sync.Mutex
	nextID   int64
	attempts map[int64]*models.PublishAttempt
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{attempts: make(map[int64]*models.PublishAttempt)}
}

func copyAttempt(a *models.PublishAttempt) *models.PublishAttempt {
	c := *a
	return &c
}

func (f *fakeLedger) GetOrCreate(ctx context.Context, attempt *models.PublishAttempt) (*models.PublishAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.PostID == attempt.PostID && a.Platform == attempt.Platform {
			return copyAttempt(a), nil
		}
	}
	f.nextID++
	stored := copyAttempt(attempt)
	stored.ID = f.nextID
	stored.Status = models.AttemptStatusPending
	f.attempts[stored.ID] = stored
	return copyAttempt(stored), nil
}

func (f *fakeLedger) GetByID(ctx context.Context, id int64) (*models.PublishAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok {
		return nil, nil
	}
	return copyAttempt(a), nil
}

func (f *fakeLedger) GetByPostAndPlatform(ctx context.Context, postID int64, platform string) (*models.PublishAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.PostID == postID && a.Platform == platform {
			return copyAttempt(a), nil
		}
	}
	return nil, nil
}

func (f *fakeLedger) ListByPostID(ctx context.Context, postID int64) ([]*models.PublishAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PublishAttempt
	for _, a := range f.attempts {
		if a.PostID == postID {
			out = append(out, copyAttempt(a))
		}
	}
	return out, nil
}

func (f *fakeLedger) ListByUser(ctx context.Context, userID int64, platform, status string) ([]*models.PublishAttempt, error) {
	return nil, nil
}

func (f *fakeLedger) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.PublishAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PublishAttempt
	for _, a := range f.attempts {
		queued := a.Status == models.AttemptStatusRetrying || a.Status == models.AttemptStatusRateLimited
		if queued && a.NextRetryAt.Valid && !a.NextRetryAt.Time.After(now) {
			out = append(out, copyAttempt(a))
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeLedger) MarkPublishing(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok {
		return false, nil
	}
	switch a.Status {
	case models.AttemptStatusPending, models.AttemptStatusRetrying, models.AttemptStatusRateLimited:
		a.Status = models.AttemptStatusPublishing
		a.StartedAt = sql.NullTime{Time: time.Now(), Valid: true}
		a.NextRetryAt = sql.NullTime{}
		return true, nil
	}
	return false, nil
}

func (f *fakeLedger) MarkSuccess(ctx context.Context, id int64, platformPostID, platformURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.attempts[id]
	a.Status = models.AttemptStatusSuccess
	a.PlatformPostID = sql.NullString{String: platformPostID, Valid: true}
	a.PlatformURL = sql.NullString{String: platformURL, Valid: true}
	a.ErrorCategory = sql.NullString{}
	a.ErrorMessage = sql.NullString{}
	a.NextRetryAt = sql.NullTime{}
	a.PublishedAt = sql.NullTime{Time: time.Now(), Valid: true}
	return nil
}

func (f *fakeLedger) MarkFailed(ctx context.Context, id int64, category, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.attempts[id]
	a.Status = models.AttemptStatusFailed
	a.ErrorCategory = sql.NullString{String: category, Valid: true}
	a.ErrorMessage = sql.NullString{String: message, Valid: true}
	a.NextRetryAt = sql.NullTime{}
	return nil
}

func (f *fakeLedger) MarkRetrying(ctx context.Context, id int64, category, message string, nextRetryAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.attempts[id]
	a.Status = models.AttemptStatusRetrying
	a.ErrorCategory = sql.NullString{String: category, Valid: true}
	a.ErrorMessage = sql.NullString{String: message, Valid: true}
	a.RetryCount++
	a.NextRetryAt = sql.NullTime{Time: nextRetryAt, Valid: true}
	return nil
}

func (f *fakeLedger) MarkRateLimited(ctx context.Context, id int64, message string, nextRetryAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.attempts[id]
	a.Status = models.AttemptStatusRateLimited
	a.ErrorCategory = sql.NullString{String: models.ErrorCategoryRateLimit, Valid: true}
	a.ErrorMessage = sql.NullString{String: message, Valid: true}
	a.NextRetryAt = sql.NullTime{Time: nextRetryAt, Valid: true}
	return nil
}

func (f *fakeLedger) ResetForRetry(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok || a.Status != models.AttemptStatusFailed {
		return false, nil
	}
	a.Status = models.AttemptStatusPending
	a.RetryCount = 0
	a.ErrorCategory = sql.NullString{}
	a.ErrorMessage = sql.NullString{}
	a.NextRetryAt = sql.NullTime{}
	return true, nil
}

func (f *fakeLedger) CancelQueued(ctx context.Context, id, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok || a.UserID != userID {
		return false, nil
	}
	switch a.Status {
	case models.AttemptStatusRetrying, models.AttemptStatusRateLimited:
		a.Status = models.AttemptStatusFailed
		a.ErrorCategory = sql.NullString{String: models.ErrorCategoryCancelled, Valid: true}
		a.ErrorMessage = sql.NullString{String: "cancelled by user", Valid: true}
		a.NextRetryAt = sql.NullTime{}
		return true, nil
	}
	return false, nil
}

type fakeLimits struct {
	mu       sync.Mutex
	denied   map[string]bool
	resetAt  time.Time
	reserved map[string]int
	err      error
}

func newFakeLimits() *fakeLimits {
	return &fakeLimits{
		denied:   make(map[string]bool),
		reserved: make(map[string]int),
		resetAt:  time.Now().Add(24 * time.Hour),
	}
}

func (f *fakeLimits) Reserve(ctx context.Context, userID int64, platform, endpoint string, limitMax int, window time.Duration) (bool, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, time.Time{}, f.err
	}
	f.reserved[platform]++
	return !f.denied[platform], f.resetAt, nil
}

func (f *fakeLimits) Get(ctx context.Context, userID int64, platform, endpoint string) (*models.RateLimitWindow, error) {
	return nil, nil
}

type fakeMedia struct {
	assets []*models.MediaAsset
}

func (f *fakeMedia) CreateAsset(ctx context.Context, tx *sql.Tx, asset *models.MediaAsset) (int64, error) {
	return 0, nil
}

func (f *fakeMedia) GetAssetByID(ctx context.Context, id int64) (*models.MediaAsset, error) {
	return nil, nil
}

func (f *fakeMedia) AttachToPost(ctx context.Context, tx *sql.Tx, pm *models.PostMedia) error {
	return nil
}

func (f *fakeMedia) ListByPostID(ctx context.Context, postID int64) ([]*models.MediaAsset, error) {
	return f.assets, nil
}

type fakePublisher struct {
	platform string
	mu       sync.Mutex
	calls    int
	publish  func(req *publisher.PublishRequest) (*publisher.PublishResult, error)
}

func (f *fakePublisher) Platform() string { return f.platform }

func (f *fakePublisher) Publish(ctx context.Context, req *publisher.PublishRequest) (*publisher.PublishResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.publish != nil {
		return f.publish(req)
	}
	return &publisher.PublishResult{PlatformPostID: "id-" + f.platform, PlatformURL: "https://" + f.platform + ".example/post"}, nil
}

func (f *fakePublisher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
