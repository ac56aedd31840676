package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const requestTimeout = 30 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// postJSON performs one JSON POST and returns the status code and body.
// Transport failures come back as NetworkError so callers never have to
// inspect the raw error.
func postJSON(ctx context.Context, client *http.Client, platform, url string, headers map[string]string, payload interface{}) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return 0, nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, &NetworkError{Platform: platform, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &NetworkError{Platform: platform, Err: err}
	}

	if status := resp.StatusCode; status >= 400 {
		return status, respBody, classifyStatus(platform, status, respBody, resp.Header.Get("Retry-After"))
	}

	return resp.StatusCode, respBody, nil
}

func getJSON(ctx context.Context, client *http.Client, platform, url string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &NetworkError{Platform: platform, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Platform: platform, Err: err}
	}

	if status := resp.StatusCode; status >= 400 {
		return classifyStatus(platform, status, respBody, resp.Header.Get("Retry-After"))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &PlatformError{Platform: platform, StatusCode: resp.StatusCode, Detail: "unparseable response body"}
		}
	}
	return nil
}

// classifyStatus is the single place platform HTTP status codes become
// taxonomy errors: 401/403 auth, 429 rate limit (with Retry-After when
// provided), 400/422 content rejection, everything else a platform error.
func classifyStatus(platform string, status int, body []byte, retryAfter string) error {
	detail := string(body)
	if len(detail) > 512 {
		detail = detail[:512]
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthenticationError{Platform: platform, Message: detail}
	case http.StatusTooManyRequests:
		var wait time.Duration
		if retryAfter != "" {
			if secs, err := strconv.Atoi(retryAfter); err == nil {
				wait = time.Duration(secs) * time.Second
			}
		}
		return &RateLimitError{Platform: platform, RetryAfter: wait, Message: detail}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &ValidationError{Platform: platform, Message: detail}
	default:
		return &PlatformError{Platform: platform, StatusCode: status, Detail: detail}
	}
}
