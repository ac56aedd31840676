package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/newsflowhq/newsflow-api/internal/models"
)

const linkedinPostURL = "https://api.linkedin.com/v2/ugcPosts"

type LinkedinPublisher struct {
	client  *http.Client
	baseURL string
}

func NewLinkedinPublisher() *LinkedinPublisher {
	return &LinkedinPublisher{client: newHTTPClient(), baseURL: linkedinPostURL}
}

func (p *LinkedinPublisher) Platform() string {
	return models.PlatformLinkedin
}

func (p *LinkedinPublisher) Publish(ctx context.Context, req *PublishRequest) (*PublishResult, error) {
	payload := map[string]interface{}{
		"author":         fmt.Sprintf("urn:li:person:%s", req.AccountID),
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": map[string]interface{}{
				"shareCommentary": map[string]string{
					"text": req.Content,
				},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	headers := map[string]string{
		"Authorization":             "Bearer " + req.AccessToken,
		"X-Restli-Protocol-Version": "2.0.0",
	}

	_, body, err := postJSON(ctx, p.client, p.Platform(), p.baseURL, headers, payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &PlatformError{Platform: p.Platform(), StatusCode: http.StatusCreated, Detail: "unparseable response body"}
	}
	if result.ID == "" {
		return nil, &PlatformError{Platform: p.Platform(), StatusCode: http.StatusCreated, Detail: "no post urn returned"}
	}

	return &PublishResult{
		PlatformPostID: result.ID,
		PlatformURL:    fmt.Sprintf("https://www.linkedin.com/feed/update/%s", result.ID),
	}, nil
}
