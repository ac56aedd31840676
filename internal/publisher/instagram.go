package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/newsflowhq/newsflow-api/internal/models"
)

const instagramGraphURL = "https://graph.instagram.com/v21.0"

// InstagramPublisher publishes image posts through the Graph container
// protocol. Instagram has no text-only posts, so a request without media is
// rejected before any network call.
type InstagramPublisher struct {
	client  *http.Client
	baseURL string
}

func NewInstagramPublisher() *InstagramPublisher {
	return &InstagramPublisher{client: newHTTPClient(), baseURL: instagramGraphURL}
}

func (p *InstagramPublisher) Platform() string {
	return models.PlatformInstagram
}

func (p *InstagramPublisher) Publish(ctx context.Context, req *PublishRequest) (*PublishResult, error) {
	if len(req.MediaURLs) == 0 {
		return nil, &ValidationError{Platform: p.Platform(), Message: "instagram posts require at least one image"}
	}

	containerURL := fmt.Sprintf("%s/%s/media", p.baseURL, req.AccountID)
	payload := map[string]interface{}{
		"image_url":    req.MediaURLs[0],
		"caption":      req.Content,
		"access_token": req.AccessToken,
	}

	_, body, err := postJSON(ctx, p.client, p.Platform(), containerURL, nil, payload)
	if err != nil {
		return nil, err
	}

	containerID, err := p.parseID(body)
	if err != nil {
		return nil, err
	}

	publishURL := fmt.Sprintf("%s/%s/media_publish", p.baseURL, req.AccountID)
	publishPayload := map[string]string{
		"creation_id":  containerID,
		"access_token": req.AccessToken,
	}

	_, body, err = postJSON(ctx, p.client, p.Platform(), publishURL, nil, publishPayload)
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
		permalink.Permalink = fmt.Sprintf("https://www.instagram.com/%s/", req.Username)
	}

	return &PublishResult{
		PlatformPostID: mediaID,
		PlatformURL:    permalink.Permalink,
	}, nil
}

func (p *InstagramPublisher) parseID(body []byte) (string, error) {
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
