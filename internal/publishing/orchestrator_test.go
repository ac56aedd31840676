package publishing

import (
	"context"
	"errors"
	"testing"
	"time"

	config "github.com/newsflowhq/newsflow-api/configs"
	"github.com/newsflowhq/newsflow-api/internal/models"
	"github.com/newsflowhq/newsflow-api/internal/publisher"
	"github.com/newsflowhq/newsflow-api/pkg/utils"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testConfig() config.Config {
	return config.Config{
		SecretKey: testSecret,
		Publishing: config.Publishing{
			MaxRetries:        3,
			UnknownMaxRetries: 1,
			BackoffBase:       time.Millisecond,
			BackoffCap:        time.Hour,
			JitterFraction:    0,
			RateLimitWindow:   24 * time.Hour,
			DailyLimits: map[string]int{
				"twitter": 100, "linkedin": 150, "threads": 250, "instagram": 100,
			},
			DispatchLimit: 4,
		},
	}
}

type testEnv struct {
	orch     *Orchestrator
	posts    *fakePostRepo
	ledger   *fakeLedger
	limits   *fakeLimits
	accounts *fakeAccountRepo
	media    *fakeMedia
	pubs     map[string]*fakePublisher
}

func newTestEnv(t *testing.T, post *models.Post, platforms ...string) *testEnv {
	t.Helper()

	env := &testEnv{
		posts:    newFakePostRepo(post),
		ledger:   newFakeLedger(),
		limits:   newFakeLimits(),
		accounts: newFakeAccountRepo(),
		media:    &fakeMedia{},
		pubs:     make(map[string]*fakePublisher),
	}

	var adapters []publisher.Publisher
	for i, platform := range platforms {
		env.accounts.accounts[platform] = activeAccount(t, int64(i+1), post.UserID, platform)
		fp := &fakePublisher{platform: platform}
		env.pubs[platform] = fp
		adapters = append(adapters, fp)
	}

	gate := NewConnectionGate(env.accounts)
	env.orch = NewOrchestrator(testConfig(), env.posts, env.ledger, env.limits, env.media, gate, publisher.NewRegistry(adapters...))
	return env
}

func activeAccount(t *testing.T, id, userID int64, platform string) *models.SocialAccount {
	t.Helper()
	token, err := utils.Encrypt([]byte("token-"+platform), []byte(testSecret))
	require.NoError(t, err)
	return &models.SocialAccount{
		ID:              id,
		UserID:          userID,
		Platform:        platform,
		AccountID:       "acct-" + platform,
		AccountUsername: "newsbot",
		AccessToken:     token,
		TokenExpiresAt:  time.Now().Add(time.Hour),
		AccountStatus:   models.AccountStatusActive,
	}
}

func testPost() *models.Post {
	return &models.Post{
		ID:              42,
		UserID:          7,
		Title:           "AI digest",
		TwitterContent:  "Short take on today's AI news",
		LinkedinContent: "A longer professional take on today's AI news.",
		TargetPlatforms: []string{models.PlatformTwitter, models.PlatformLinkedin},
		Status:          models.PostStatusReady,
	}
}

func attemptFor(t *testing.T, env *testEnv, platform string) *models.PublishAttempt {
	t.Helper()
	a, err := env.ledger.GetByPostAndPlatform(context.Background(), 42, platform)
	require.NoError(t, err)
	require.NotNil(t, a)
	return a
}

func TestDispatchPublishesAllTargets(t *testing.T) {
	env := newTestEnv(t, testPost(), models.PlatformTwitter, models.PlatformLinkedin)

	attempts, err := env.orch.Dispatch(context.Background(), 42, 7, nil)
	require.NoError(t, err)
	require.Len(t, attempts, 2)

	for _, platform := range []string{models.PlatformTwitter, models.PlatformLinkedin} {
		a := attemptFor(t, env, platform)
		require.Equal(t, models.AttemptStatusSuccess, a.Status)
		require.True(t, a.PlatformPostID.Valid)
		require.Equal(t, 1, env.pubs[platform].callCount())
	}

	require.Equal(t, models.PostStatusPublished, env.posts.currentStatus(42))
}

func TestDispatchWrongUser(t *testing.T) {
	env := newTestEnv(t, testPost(), models.PlatformTwitter)

	_, err := env.orch.Dispatch(context.Background(), 42, 999, nil)
	require.ErrorIs(t, err, ErrPostNotFound)
}

func TestDispatchUnknownPlatform(t *testing.T) {
	env := newTestEnv(t, testPost(), models.PlatformTwitter)

	_, err := env.orch.Dispatch(context.Background(), 42, 7, []string{"myspace"})
	require.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestDispatchExpiredConnectionFailsOnlyThatPlatform(t *testing.T) {
	env := newTestEnv(t, testPost(), models.PlatformTwitter, models.PlatformLinkedin)
	env.accounts.accounts[models.PlatformTwitter].TokenExpiresAt = time.Now().Add(-time.Hour)

	_, err := env.orch.Dispatch(context.Background(), 42, 7, nil)
	require.NoError(t, err)

	tw := attemptFor(t, env, models.PlatformTwitter)
	require.Equal(t, models.AttemptStatusFailed, tw.Status)
	require.Equal(t, models.ErrorCategoryAuth, tw.ErrorCategory.String)
	require.Equal(t, 0, env.pubs[models.PlatformTwitter].callCount())

	li := attemptFor(t, env, models.PlatformLinkedin)
	require.Equal(t, models.AttemptStatusSuccess, li.Status)

	require.Equal(t, models.PostStatusPartiallyPublished, env.posts.currentStatus(42))
}

func TestDispatchIdempotentAfterSuccess(t *testing.T) {
	env := newTestEnv(t, testPost(), models.PlatformTwitter, models.PlatformLinkedin)

	_, err := env.orch.Dispatch(context.Background(), 42, 7, nil)
	require.NoError(t, err)
	_, err = env.orch.Dispatch(context.Background(), 42, 7, nil)
	require.NoError(t, err)

	require.Equal(t, 1, env.pubs[models.PlatformTwitter].callCount())
	require.Equal(t, 1, env.pubs[models.PlatformLinkedin].callCount())
}

func TestDispatchRateLimitDefersWithoutAdapterCall(t *testing.T) {
	env := newTestEnv(t, testPost(), models.PlatformTwitter)
	env.limits.denied[models.PlatformTwitter] = true

	_, err := env.orch.Dispatch(context.Background(), 42, 7, []string{models.PlatformTwitter})
	require.NoError(t, err)

	a := attemptFor(t, env, models.PlatformTwitter)
	require.Equal(t, models.AttemptStatusRateLimited, a.Status)
	require.True(t, a.NextRetryAt.Valid)
	require.WithinDuration(t, env.limits.resetAt, a.NextRetryAt.Time, time.Second)
	require.Equal(t, 0, env.pubs[models.PlatformTwitter].callCount())

	require.Equal(t, models.PostStatusPublishing, env.posts.currentStatus(42))
}

func TestDispatchRateLimitStoreErrorRetriesAsUnknown(t *testing.T) {
	env := newTestEnv(t, testPost(), models.PlatformTwitter)
	env.limits.err = errors.New("connection refused")

	_, err := env.orch.Dispatch(context.Background(), 42, 7, []string{models.PlatformTwitter})
	require.NoError(t, err)

	a := attemptFor(t, env, models.PlatformTwitter)
	require.Equal(t, models.AttemptStatusRetrying, a.Status)
	require.Equal(t, models.ErrorCategoryUnknown, a.ErrorCategory.String)
	require.Equal(t, 0, env.pubs[models.PlatformTwitter].callCount())
}

func TestDispatchValidationFailureSkipsReserve(t *testing.T) {
	post := testPost()
	post.TwitterContent = ""
	env := newTestEnv(t, post, models.PlatformTwitter)

	_, err := env.orch.Dispatch(context.Background(), 42, 7, []string{models.PlatformTwitter})
	require.NoError(t, err)

	a := attemptFor(t, env, models.PlatformTwitter)
	require.Equal(t, models.AttemptStatusFailed, a.Status)
	require.Equal(t, models.ErrorCategoryValidation, a.ErrorCategory.String)
	require.Equal(t, 0, env.limits.reserved[models.PlatformTwitter])
	require.Equal(t, 0, env.pubs[models.PlatformTwitter].callCount())
}

func TestNetworkErrorsRetryThenFail(t *testing.T) {
	env := newTestEnv(t, testPost(), models.PlatformTwitter)
	env.pubs[models.PlatformTwitter].publish = func(req *publisher.PublishRequest) (*publisher.PublishResult, error) {
		return nil, &publisher.NetworkError{Platform: models.PlatformTwitter, Err: errors.New("connection reset")}
	}

	_, err := env.orch.Dispatch(context.Background(), 42, 7, []string{models.PlatformTwitter})
	require.NoError(t, err)

	a := attemptFor(t, env, models.PlatformTwitter)
	require.Equal(t, models.AttemptStatusRetrying, a.Status)
	require.Equal(t, 1, a.RetryCount)
	require.True(t, a.NextRetryAt.Valid)

	for i := 0; i < 3; i++ {
		require.NoError(t, env.orch.Redispatch(context.Background(), a.ID))
	}

	a = attemptFor(t, env, models.PlatformTwitter)
	require.Equal(t, models.AttemptStatusFailed, a.Status)
	require.Equal(t, models.ErrorCategoryNetwork, a.ErrorCategory.String)
	require.Equal(t, 3, a.RetryCount)
	// Initial dispatch plus exactly MaxRetries retries.
	require.Equal(t, 4, env.pubs[models.PlatformTwitter].callCount())

	// A terminal attempt is not claimed again.
	require.NoError(t, env.orch.Redispatch(context.Background(), a.ID))
	require.Equal(t, 4, env.pubs[models.PlatformTwitter].callCount())
}

func TestUnknownErrorsGetSmallerBudget(t *testing.T) {
	env := newTestEnv(t, testPost(), models.PlatformTwitter)
	env.pubs[models.PlatformTwitter].publish = func(req *publisher.PublishRequest) (*publisher.PublishResult, error) {
		return nil, errors.New("something odd")
	}

	_, err := env.orch.Dispatch(context.Background(), 42, 7, []string{models.PlatformTwitter})
	require.NoError(t, err)

	a := attemptFor(t, env, models.PlatformTwitter)
	require.Equal(t, models.AttemptStatusRetrying, a.Status)

	require.NoError(t, env.orch.Redispatch(context.Background(), a.ID))

	a = attemptFor(t, env, models.PlatformTwitter)
	require.Equal(t, models.AttemptStatusFailed, a.Status)
	require.Equal(t, models.ErrorCategoryUnknown, a.ErrorCategory.String)
	require.Equal(t, 2, env.pubs[models.PlatformTwitter].callCount())
}

func TestAuthErrorIsTerminal(t *testing.T) {
	env := newTestEnv(t, testPost(), models.PlatformTwitter)
	env.pubs[models.PlatformTwitter].publish = func(req *publisher.PublishRequest) (*publisher.PublishResult, error) {
		return nil, &publisher.AuthenticationError{Platform: models.PlatformTwitter, Message: "token revoked"}
	}

	_, err := env.orch.Dispatch(context.Background(), 42, 7, []string{models.PlatformTwitter})
	require.NoError(t, err)

	a := attemptFor(t, env, models.PlatformTwitter)
	require.Equal(t, models.AttemptStatusFailed, a.Status)
	require.Equal(t, models.ErrorCategoryAuth, a.ErrorCategory.String)
	require.Equal(t, 0, a.RetryCount)
	require.Equal(t, 1, env.pubs[models.PlatformTwitter].callCount())
}

func TestAdapterAuthFailureDoesNotBlockSiblings(t *testing.T) {
	post := testPost()
	post.ThreadsContent = "Short take for threads"
	post.TargetPlatforms = []string{models.PlatformTwitter, models.PlatformLinkedin, models.PlatformThreads}
	env := newTestEnv(t, post, models.PlatformTwitter, models.PlatformLinkedin, models.PlatformThreads)
	env.pubs[models.PlatformTwitter].publish = func(req *publisher.PublishRequest) (*publisher.PublishResult, error) {
		return nil, &publisher.AuthenticationError{Platform: models.PlatformTwitter, Message: "token revoked"}
	}

	attempts, err := env.orch.Dispatch(context.Background(), 42, 7, nil)
	require.NoError(t, err)
	require.Len(t, attempts, 3)

	tw := attemptFor(t, env, models.PlatformTwitter)
	require.Equal(t, models.AttemptStatusFailed, tw.Status)
	require.Equal(t, models.ErrorCategoryAuth, tw.ErrorCategory.String)
	require.Equal(t, 1, env.pubs[models.PlatformTwitter].callCount())

	for _, platform := range []string{models.PlatformLinkedin, models.PlatformThreads} {
		a := attemptFor(t, env, platform)
		require.Equal(t, models.AttemptStatusSuccess, a.Status)
		require.Equal(t, 1, env.pubs[platform].callCount())
	}

	require.Equal(t, models.PostStatusPartiallyPublished, env.posts.currentStatus(42))
}

func TestRateLimitErrorUsesRetryAfterHint(t *testing.T) {
	env := newTestEnv(t, testPost(), models.PlatformTwitter)
	env.pubs[models.PlatformTwitter].publish = func(req *publisher.PublishRequest) (*publisher.PublishResult, error) {
		return nil, &publisher.RateLimitError{Platform: models.PlatformTwitter, RetryAfter: 5 * time.Minute}
	}

	now := time.Now()
	env.orch.now = func() time.Time { return now }

	_, err := env.orch.Dispatch(context.Background(), 42, 7, []string{models.PlatformTwitter})
	require.NoError(t, err)

	a := attemptFor(t, env, models.PlatformTwitter)
	require.Equal(t, models.AttemptStatusRateLimited, a.Status)
	require.True(t, a.NextRetryAt.Valid)
	require.WithinDuration(t, now.Add(5*time.Minute), a.NextRetryAt.Time, time.Second)
}

func TestRetryManual(t *testing.T) {
	env := newTestEnv(t, testPost(), models.PlatformTwitter)
	fail := true
	env.pubs[models.PlatformTwitter].publish = func(req *publisher.PublishRequest) (*publisher.PublishResult, error) {
		if fail {
			return nil, &publisher.AuthenticationError{Platform: models.PlatformTwitter, Message: "token revoked"}
		}
		return &publisher.PublishResult{PlatformPostID: "99", PlatformURL: "https://twitter.com/newsbot/status/99"}, nil
	}

	_, err := env.orch.Dispatch(context.Background(), 42, 7, []string{models.PlatformTwitter})
	require.NoError(t, err)
	require.Equal(t, models.AttemptStatusFailed, attemptFor(t, env, models.PlatformTwitter).Status)

	fail = false
	a, err := env.orch.RetryManual(context.Background(), 42, 7, models.PlatformTwitter)
	require.NoError(t, err)
	require.Equal(t, models.AttemptStatusSuccess, a.Status)
	require.Equal(t, 0, a.RetryCount)

	// A successful attempt cannot be rearmed.
	_, err = env.orch.RetryManual(context.Background(), 42, 7, models.PlatformTwitter)
	require.ErrorIs(t, err, ErrNotRetryable)
}

func TestCancelQueuedAttempt(t *testing.T) {
	env := newTestEnv(t, testPost(), models.PlatformTwitter)
	env.pubs[models.PlatformTwitter].publish = func(req *publisher.PublishRequest) (*publisher.PublishResult, error) {
		return nil, &publisher.NetworkError{Platform: models.PlatformTwitter, Err: errors.New("timeout")}
	}

	_, err := env.orch.Dispatch(context.Background(), 42, 7, []string{models.PlatformTwitter})
	require.NoError(t, err)
	require.Equal(t, models.AttemptStatusRetrying, attemptFor(t, env, models.PlatformTwitter).Status)

	a, err := env.orch.Cancel(context.Background(), 42, 7, models.PlatformTwitter)
	require.NoError(t, err)
	require.Equal(t, models.AttemptStatusFailed, a.Status)
	require.Equal(t, models.ErrorCategoryCancelled, a.ErrorCategory.String)
	require.False(t, a.NextRetryAt.Valid)

	_, err = env.orch.Cancel(context.Background(), 42, 7, models.PlatformTwitter)
	require.ErrorIs(t, err, ErrNotCancellable)
}

func TestStatusOwnership(t *testing.T) {
	env := newTestEnv(t, testPost(), models.PlatformTwitter)

	_, err := env.orch.Dispatch(context.Background(), 42, 7, []string{models.PlatformTwitter})
	require.NoError(t, err)

	attempts, err := env.orch.Status(context.Background(), 42, 7)
	require.NoError(t, err)
	require.Len(t, attempts, 1)

	_, err = env.orch.Status(context.Background(), 42, 999)
	require.ErrorIs(t, err, ErrPostNotFound)
}

func TestRedispatchMissingPostFailsAttempt(t *testing.T) {
	env := newTestEnv(t, testPost(), models.PlatformTwitter)
	env.pubs[models.PlatformTwitter].publish = func(req *publisher.PublishRequest) (*publisher.PublishResult, error) {
		return nil, &publisher.NetworkError{Platform: models.PlatformTwitter, Err: errors.New("timeout")}
	}

	_, err := env.orch.Dispatch(context.Background(), 42, 7, []string{models.PlatformTwitter})
	require.NoError(t, err)
	a := attemptFor(t, env, models.PlatformTwitter)

	require.NoError(t, env.posts.Remove(context.Background(), 42))
	require.NoError(t, env.orch.Redispatch(context.Background(), a.ID))

	a = attemptFor(t, env, models.PlatformTwitter)
	require.Equal(t, models.AttemptStatusFailed, a.Status)
	require.Equal(t, models.ErrorCategoryValidation, a.ErrorCategory.String)
}
