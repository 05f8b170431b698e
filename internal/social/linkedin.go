package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ackwest/seoengine/internal/core"
)

const linkedinAPIURL = "https://api.linkedin.com/v2"

// LinkedInPublisher creates UGC posts for an organization page. The
// integration's AssetID is the numeric organization id.
type LinkedInPublisher struct {
	baseURL string
	http    *http.Client
}

// NewLinkedInPublisher builds a UGC post publisher.
func NewLinkedInPublisher(timeout time.Duration) *LinkedInPublisher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LinkedInPublisher{
		baseURL: linkedinAPIURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Publish creates a public UGC post, attaching the link as an article
// share when present. Post text is capped at the API's 3000 chars.
func (p *LinkedInPublisher) Publish(ctx context.Context, integ core.Integration, post core.SocialPost) (string, error) {
	if integ.AssetID == "" {
		return "", fmt.Errorf("linkedin: %w: no organization id", ErrNotConnected)
	}

	share := map[string]any{
		"shareCommentary":    map[string]string{"text": truncate(Message(post), 3000)},
		"shareMediaCategory": "NONE",
	}
	if post.LinkURL != "" {
		share["shareMediaCategory"] = "ARTICLE"
		share["media"] = []map[string]any{{
			"status":      "READY",
			"originalUrl": post.LinkURL,
		}}
	}
	body := map[string]any{
		"author":         "urn:li:organization:" + integ.AssetID,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": share,
		},
		"visibility": map[string]any{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal post: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/ugcPosts", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+integ.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("linkedin request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", fmt.Errorf("linkedin: %w", ErrTokenExpired)
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		return "", fmt.Errorf("linkedin error %d: %s", resp.StatusCode, apiErr.Message)
	}

	// The post URN arrives in a response header; older deployments
	// return it in the body instead.
	if id := resp.Header.Get("X-Restli-Id"); id != "" {
		return id, nil
	}
	var reply struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil || reply.ID == "" {
		return "", fmt.Errorf("linkedin: post id missing from reply")
	}
	return reply.ID, nil
}
