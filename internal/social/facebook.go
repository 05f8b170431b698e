package social

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ackwest/seoengine/internal/core"
)

const facebookGraphURL = "https://graph.facebook.com/v18.0"

// FacebookPublisher posts to a page feed via the Graph API. The
// integration's AssetID is the page id and the token must be a page
// access token.
type FacebookPublisher struct {
	baseURL string
	http    *http.Client
}

// NewFacebookPublisher builds a Graph API publisher.
func NewFacebookPublisher(timeout time.Duration) *FacebookPublisher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FacebookPublisher{
		baseURL: facebookGraphURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Publish posts a message (with optional link) to the page feed.
func (p *FacebookPublisher) Publish(ctx context.Context, integ core.Integration, post core.SocialPost) (string, error) {
	if integ.AssetID == "" {
		return "", fmt.Errorf("facebook: %w: no page id", ErrNotConnected)
	}

	form := url.Values{
		"message":      {Message(post)},
		"access_token": {integ.AccessToken},
	}
	if post.LinkURL != "" {
		form.Set("link", post.LinkURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/"+integ.AssetID+"/feed", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("facebook request: %w", err)
	}
	defer resp.Body.Close()

	var reply struct {
		ID    string `json:"id"`
		Error *struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&reply); err != nil {
		return "", fmt.Errorf("decode facebook reply: %w", err)
	}
	if reply.Error != nil {
		// Code 190 is the Graph API's expired/invalid token error.
		if reply.Error.Code == 190 || resp.StatusCode == http.StatusUnauthorized {
			return "", fmt.Errorf("facebook: %w", ErrTokenExpired)
		}
		return "", fmt.Errorf("facebook error %d: %s", reply.Error.Code, reply.Error.Message)
	}
	if reply.ID == "" {
		return "", fmt.Errorf("facebook: empty post id in reply")
	}
	return reply.ID, nil
}
