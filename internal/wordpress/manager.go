package wordpress

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
	"github.com/ackwest/seoengine/internal/metrics"
)

// Poster is the slice of Client the publish pipeline needs, stubbed
// in tests.
type Poster interface {
	TestConnection(ctx context.Context) error
	CreatePost(ctx context.Context, in PostInput) (Post, error)
}

// Manager publishes approved blog posts to each client's site.
type Manager struct {
	clients core.ClientStore
	content core.ContentStore
	events  core.EventPublisher
	clock   core.Clock
	cfg     Config
	log     *zap.Logger

	// connect builds a Poster for a site; swapped out in tests.
	connect func(site core.WordPressSite) (Poster, error)
}

// NewManager wires a publish manager.
func NewManager(clients core.ClientStore, content core.ContentStore, events core.EventPublisher, clock core.Clock, cfg Config, log *zap.Logger) *Manager {
	m := &Manager{
		clients: clients,
		content: content,
		events:  events,
		clock:   clock,
		cfg:     cfg,
		log:     log.Named("wordpress"),
	}
	m.connect = func(site core.WordPressSite) (Poster, error) {
		return NewClient(site, m.cfg, log)
	}
	return m
}

// TestConnection checks a client's stored credentials.
func (m *Manager) TestConnection(ctx context.Context, clientID string) error {
	client, err := m.clients.GetClient(ctx, clientID)
	if err != nil {
		return fmt.Errorf("load client: %w", err)
	}
	poster, err := m.posterFor(client)
	if err != nil {
		return err
	}
	return poster.TestConnection(ctx)
}

// PublishBlogPost pushes one approved post live and records the
// published URL and WordPress post id.
func (m *Manager) PublishBlogPost(ctx context.Context, postID string) (core.BlogPost, error) {
	post, err := m.content.GetBlogPost(ctx, postID)
	if err != nil {
		return core.BlogPost{}, fmt.Errorf("load post: %w", err)
	}
	if post.Status != core.ContentStatusApproved {
		return core.BlogPost{}, fmt.Errorf("post %s is %s: %w: only approved posts publish", postID, post.Status, core.ErrInvalidInput)
	}

	client, err := m.clients.GetClient(ctx, post.ClientID)
	if err != nil {
		return core.BlogPost{}, fmt.Errorf("load client: %w", err)
	}
	poster, err := m.posterFor(client)
	if err != nil {
		metrics.ContentPublished("wordpress", "skipped")
		return core.BlogPost{}, err
	}

	created, err := poster.CreatePost(ctx, PostInput{
		Title:            post.Title,
		Content:          post.Body,
		Status:           "publish",
		Slug:             post.Slug,
		Excerpt:          post.Excerpt,
		Categories:       []string{"Blog"},
		Tags:             append([]string{post.PrimaryKeyword}, post.SecondaryKeywords...),
		FeaturedImageURL: post.FeaturedImageURL,
		MetaTitle:        post.MetaTitle,
		MetaDescription:  post.MetaDescription,
		FocusKeyword:     post.PrimaryKeyword,
	})
	if err != nil {
		metrics.ContentPublished("wordpress", "error")
		return core.BlogPost{}, fmt.Errorf("publish to %s: %w", client.WordPress.URL, err)
	}

	now := m.clock.Now()
	post.Status = core.ContentStatusPublished
	post.PublishedURL = created.Link
	post.WordPressPostID = created.ID
	post.PublishedAt = &now
	post.UpdatedAt = now
	if err := m.content.UpdateBlogPost(ctx, post); err != nil {
		return core.BlogPost{}, fmt.Errorf("record published post: %w", err)
	}

	metrics.ContentPublished("wordpress", "success")
	if m.events != nil {
		err := m.events.Publish(ctx, core.Event{
			Name:      core.EventContentPublished,
			ClientID:  post.ClientID,
			Timestamp: now,
			Data: map[string]any{
				"content_type":      "blog_post",
				"post_id":           post.ID,
				"title":             post.Title,
				"published_url":     post.PublishedURL,
				"wordpress_post_id": post.WordPressPostID,
			},
		})
		if err != nil {
			m.log.Warn("publish event failed", zap.Error(err))
		}
	}

	m.log.Info("blog post published",
		zap.String("post_id", post.ID),
		zap.String("client_id", post.ClientID),
		zap.String("url", post.PublishedURL))
	return post, nil
}

// PublishDue publishes every approved post whose scheduled time has
// passed. Per-post failures are logged so one broken site does not
// stall the sweep.
func (m *Manager) PublishDue(ctx context.Context) (int, error) {
	due, err := m.content.ListDueBlogPosts(ctx, m.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("list due posts: %w", err)
	}
	published := 0
	for _, post := range due {
		if _, err := m.PublishBlogPost(ctx, post.ID); err != nil {
			m.log.Warn("scheduled publish failed",
				zap.String("post_id", post.ID), zap.Error(err))
			continue
		}
		published++
	}
	return published, nil
}

func (m *Manager) posterFor(client core.Client) (Poster, error) {
	if client.WordPress == nil {
		return nil, fmt.Errorf("client %s: %w", client.ID, ErrNotConnected)
	}
	return m.connect(*client.WordPress)
}
