// Package social posts approved short-form content to connected
// platforms: Facebook pages, LinkedIn organizations, and Google
// Business Profile locations.
package social

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
	"github.com/ackwest/seoengine/internal/metrics"
)

// Sentinel errors surfaced to API callers.
var (
	ErrNotConnected = errors.New("social: platform not connected")
	ErrTokenExpired = errors.New("social: access token expired, reconnect the platform")
)

// Publisher posts one message to a platform and returns the platform
// post id.
type Publisher interface {
	Publish(ctx context.Context, integ core.Integration, post core.SocialPost) (string, error)
}

// Service routes posts to the right platform publisher.
type Service struct {
	clients    core.ClientStore
	content    core.ContentStore
	events     core.EventPublisher
	clock      core.Clock
	publishers map[core.Platform]Publisher
	log        *zap.Logger
}

// NewService wires a social publishing service.
func NewService(clients core.ClientStore, content core.ContentStore, events core.EventPublisher, clock core.Clock, publishers map[core.Platform]Publisher, log *zap.Logger) *Service {
	return &Service{
		clients:    clients,
		content:    content,
		events:     events,
		clock:      clock,
		publishers: publishers,
		log:        log.Named("social"),
	}
}

// PublishSocialPost posts one approved social post to its platform
// and records the platform post id.
func (s *Service) PublishSocialPost(ctx context.Context, postID string) (core.SocialPost, error) {
	post, err := s.content.GetSocialPost(ctx, postID)
	if err != nil {
		return core.SocialPost{}, fmt.Errorf("load post: %w", err)
	}
	if post.Status != core.ContentStatusApproved {
		return core.SocialPost{}, fmt.Errorf("post %s is %s: %w: only approved posts publish", postID, post.Status, core.ErrInvalidInput)
	}

	client, err := s.clients.GetClient(ctx, post.ClientID)
	if err != nil {
		return core.SocialPost{}, fmt.Errorf("load client: %w", err)
	}
	integ, ok := client.Integrations[post.Platform]
	if !ok || integ.AccessToken == "" {
		metrics.ContentPublished(string(post.Platform), "skipped")
		return core.SocialPost{}, fmt.Errorf("client %s, %s: %w", client.ID, post.Platform, ErrNotConnected)
	}
	if integ.ExpiresAt != nil && integ.ExpiresAt.Before(s.clock.Now()) {
		metrics.ContentPublished(string(post.Platform), "skipped")
		return core.SocialPost{}, fmt.Errorf("client %s, %s: %w", client.ID, post.Platform, ErrTokenExpired)
	}

	pub, ok := s.publishers[post.Platform]
	if !ok {
		return core.SocialPost{}, fmt.Errorf("no publisher for platform %q", post.Platform)
	}

	platformID, err := pub.Publish(ctx, integ, post)
	if err != nil {
		metrics.ContentPublished(string(post.Platform), "error")
		return core.SocialPost{}, fmt.Errorf("publish to %s: %w", post.Platform, err)
	}

	now := s.clock.Now()
	post.Status = core.ContentStatusPublished
	post.PlatformPostID = platformID
	post.PublishedAt = &now
	post.UpdatedAt = now
	if err := s.content.UpdateSocialPost(ctx, post); err != nil {
		return core.SocialPost{}, fmt.Errorf("record published post: %w", err)
	}

	metrics.ContentPublished(string(post.Platform), "success")
	if s.events != nil {
		err := s.events.Publish(ctx, core.Event{
			Name:      core.EventContentPublished,
			ClientID:  post.ClientID,
			Timestamp: now,
			Data: map[string]any{
				"content_type":     "social_post",
				"post_id":          post.ID,
				"platform":         string(post.Platform),
				"platform_post_id": platformID,
			},
		})
		if err != nil {
			s.log.Warn("publish event failed", zap.Error(err))
		}
	}

	s.log.Info("social post published",
		zap.String("post_id", post.ID),
		zap.String("platform", string(post.Platform)),
		zap.String("platform_post_id", platformID))
	return post, nil
}

// Message renders the outgoing text: content plus hashtags.
func Message(post core.SocialPost) string {
	msg := strings.TrimSpace(post.Content)
	if len(post.Hashtags) == 0 {
		return msg
	}
	tags := make([]string, 0, len(post.Hashtags))
	for _, tag := range post.Hashtags {
		tag = strings.TrimSpace(strings.TrimPrefix(tag, "#"))
		if tag == "" {
			continue
		}
		tags = append(tags, "#"+tag)
	}
	if len(tags) == 0 {
		return msg
	}
	return msg + "\n\n" + strings.Join(tags, " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
