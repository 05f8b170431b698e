package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ackwest/seoengine/internal/core"
)

const gbpAPIURL = "https://mybusiness.googleapis.com/v4"

// GBPPublisher creates Google Business Profile local posts. The
// integration's AssetID is either a bare location id or a full
// "accounts/{a}/locations/{l}" path.
type GBPPublisher struct {
	baseURL string
	http    *http.Client
}

// NewGBPPublisher builds a local-post publisher.
func NewGBPPublisher(timeout time.Duration) *GBPPublisher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GBPPublisher{
		baseURL: gbpAPIURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Publish creates a STANDARD local post. Summaries are capped at the
// API's 1500 characters; a link becomes a LEARN_MORE call to action.
func (p *GBPPublisher) Publish(ctx context.Context, integ core.Integration, post core.SocialPost) (string, error) {
	if integ.AssetID == "" {
		return "", fmt.Errorf("google business profile: %w: no location id", ErrNotConnected)
	}

	body := map[string]any{
		"languageCode": "en-US",
		"summary":      truncate(Message(post), 1500),
		"topicType":    "STANDARD",
	}
	if post.LinkURL != "" {
		body["callToAction"] = map[string]string{
			"actionType": "LEARN_MORE",
			"url":        post.LinkURL,
		}
	}

	// The wildcard account path works for any authenticated user.
	basePath := integ.AssetID
	if !strings.Contains(basePath, "accounts/") {
		basePath = "accounts/-/locations/" + basePath
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal post: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/"+basePath+"/localPosts", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+integ.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gbp request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", fmt.Errorf("google business profile: %w", ErrTokenExpired)
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("google business profile: location %s not found", integ.AssetID)
	case resp.StatusCode >= 400:
		return "", fmt.Errorf("gbp error %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var reply struct {
		Name  string `json:"name"`
		State string `json:"state"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", fmt.Errorf("decode gbp reply: %w", err)
	}
	if reply.Name == "" {
		return "", fmt.Errorf("gbp: post name missing from reply")
	}
	parts := strings.Split(reply.Name, "/")
	return parts[len(parts)-1], nil
}
