package publisher

import (
	"context"
)

// PublishRequest carries everything an adapter needs for one publish call:
// the decrypted access token, the platform account, the rendered content and
// any attached media URLs.
type PublishRequest struct {
	AccountID   string
	Username    string
	AccessToken string
	Content     string
	MediaURLs   []string
}

type PublishResult struct {
	PlatformPostID string
	PlatformURL    string
}

// Publisher is the uniform publish contract. Implementations make exactly
// one publish call against their platform and translate the platform's
// native error surface into the typed taxonomy in errors.go; retry policy
// lives with the orchestrator, never inside an adapter.
type Publisher interface {
	Platform() string
	Publish(ctx context.Context, req *PublishRequest) (*PublishResult, error)
}

// Registry maps platform names to their adapters. Adapters are swappable
// per platform without touching the orchestrator.
type Registry map[string]Publisher

func NewRegistry(publishers ...Publisher) Registry {
	r := make(Registry, len(publishers))
	for _, p := range publishers {
		r[p.Platform()] = p
	}
	return r
}

func (r Registry) Get(platform string) (Publisher, bool) {
	p, ok := r[platform]
	return p, ok
}
