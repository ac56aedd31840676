package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/newsflowhq/newsflow-api/internal/models"
)

const threadsGraphURL = "https://graph.threads.net/v1.0"

// ThreadsPublisher follows the Graph two-step protocol: create a media
// container, then publish it.
type ThreadsPublisher struct {
	client  *http.Client
	baseURL string
}

func NewThreadsPublisher() *ThreadsPublisher {
	return &ThreadsPublisher{client: newHTTPClient(), baseURL: threadsGraphURL}
}

func (p *ThreadsPublisher) Platform() string {
	return models.PlatformThreads
}

func (p *ThreadsPublisher) Publish(ctx context.Context, req *PublishRequest) (*PublishResult, error) {
	params := url.Values{}
	params.Set("text", req.Content)
	params.Set("access_token", req.AccessToken)
	if len(req.MediaURLs) > 0 {
		params.Set("media_type", "IMAGE")
		params.Set("image_url", req.MediaURLs[0])
	} else {
		params.Set("media_type", "TEXT")
	}

	containerURL := fmt.Sprintf("%s/%s/threads?%s", p.baseURL, req.AccountID, params.Encode())
	_, body, err := postJSON(ctx, p.client, p.Platform(), containerURL, nil, map[string]string{})
	if err != nil {
		return nil, err
	}

	containerID, err := p.parseID(body)
	if err != nil {
		return nil, err
	}

	publishParams := url.Values{}
	publishParams.Set("creation_id", containerID)
	publishParams.Set("access_token", req.AccessToken)

	publishURL := fmt.Sprintf("%s/%s/threads_publish?%s", p.baseURL, req.AccountID, publishParams.Encode())
	_, body, err = postJSON(ctx, p.client, p.Platform(), publishURL, nil, map[string]string{})
	if err != nil {
		return nil, err
	}

	mediaID, err := p.parseID(body)
	if err != nil {
		return nil, err
	}

	var permalink struct {
		Permalink string `json:"permalink"`
	}
	permalinkURL := fmt.Sprintf("%s/%s?fields=permalink&access_token=%s", p.baseURL, mediaID, url.QueryEscape(req.AccessToken))
	if err := getJSON(ctx, p.client, p.Platform(), permalinkURL, nil, &permalink); err != nil {
		// The post is already live; a missing permalink only degrades the
		// recorded URL.
		permalink.Permalink = fmt.Sprintf("https://www.threads.net/@%s", req.Username)
	}

	return &PublishResult{
		PlatformPostID: mediaID,
		PlatformURL:    permalink.Permalink,
	}, nil
}

func (p *ThreadsPublisher) parseID(body []byte) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &PlatformError{Platform: p.Platform(), StatusCode: http.StatusOK, Detail: "unparseable response body"}
	}
	if result.ID == "" {
		return "", &PlatformError{Platform: p.Platform(), StatusCode: http.StatusOK, Detail: "no media id returned"}
	}
	return result.ID, nil
}
