package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/newsflowhq/newsflow-api/internal/models"
)

const twitterPostURL = "https://api.twitter.com/2/tweets"

type TwitterPublisher struct {
	client  *http.Client
	baseURL string
}

func NewTwitterPublisher() *TwitterPublisher {
	return &TwitterPublisher{client: newHTTPClient(), baseURL: twitterPostURL}
}

func (p *TwitterPublisher) Platform() string {
	return models.PlatformTwitter
}

func (p *TwitterPublisher) Publish(ctx context.Context, req *PublishRequest) (*PublishResult, error) {
	payload := map[string]interface{}{
		"text": req.Content,
	}

	headers := map[string]string{
		"Authorization": "Bearer " + req.AccessToken,
	}

	_, body, err := postJSON(ctx, p.client, p.Platform(), p.baseURL, headers, payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &PlatformError{Platform: p.Platform(), StatusCode: http.StatusOK, Detail: "unparseable response body"}
	}
	if result.Data.ID == "" {
		return nil, &PlatformError{Platform: p.Platform(), StatusCode: http.StatusOK, Detail: "no tweet id returned"}
	}

	return &PublishResult{
		PlatformPostID: result.Data.ID,
		PlatformURL:    fmt.Sprintf("https://twitter.com/%s/status/%s", req.Username, result.Data.ID),
	}, nil
}
