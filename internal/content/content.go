// Package content orchestrates draft generation, approval, and
// scheduling for blog and social posts.
package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
	"github.com/ackwest/seoengine/internal/metrics"
	"github.com/ackwest/seoengine/internal/seo"
)

const (
	defaultWordCount = 1500
	defaultFAQCount  = 4
)

// BlogInput parameterizes one blog draft request.
type BlogInput struct {
	Keyword   string `json:"keyword"`
	WordCount int    `json:"word_count"`
	FAQCount  int    `json:"faq_count"`
}

// SocialInput parameterizes one social draft request.
type SocialInput struct {
	Platform core.Platform `json:"platform"`
	Topic    string        `json:"topic"`
	LinkURL  string        `json:"link_url"`
}

// Service generates drafts and walks them through review.
type Service struct {
	clients  core.ClientStore
	content  core.ContentStore
	ai       core.ContentGenerator
	scorer   *seo.Scorer
	events   core.EventPublisher
	clock    core.Clock
	ids      core.IDGenerator
	provider string
	log      *zap.Logger
}

// NewService wires a content service. provider labels which generator
// backs it (openai, gemini, template) for metrics.
func NewService(clients core.ClientStore, store core.ContentStore, ai core.ContentGenerator, scorer *seo.Scorer, events core.EventPublisher, clock core.Clock, ids core.IDGenerator, provider string, log *zap.Logger) *Service {
	return &Service{
		clients:  clients,
		content:  store,
		ai:       ai,
		scorer:   scorer,
		events:   events,
		clock:    clock,
		ids:      ids,
		provider: provider,
		log:      log.Named("content"),
	}
}

// GenerateBlogPost drafts a post for one of the client's keywords,
// scores it, and stores it awaiting review.
func (s *Service) GenerateBlogPost(ctx context.Context, clientID string, in BlogInput) (core.BlogPost, error) {
	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		return core.BlogPost{}, err
	}
	keyword := strings.TrimSpace(in.Keyword)
	if keyword == "" {
		if len(client.PrimaryKeywords) == 0 {
			return core.BlogPost{}, fmt.Errorf("no keyword given and client has none: %w", core.ErrInvalidInput)
		}
		keyword = client.PrimaryKeywords[0]
	}
	if in.WordCount <= 0 {
		in.WordCount = defaultWordCount
	}
	if in.FAQCount <= 0 {
		in.FAQCount = defaultFAQCount
	}

	draft, err := s.ai.GenerateBlogPost(ctx, core.BlogBrief{
		Keyword:       keyword,
		Geo:           client.Geo,
		Industry:      client.Industry,
		BusinessName:  client.BusinessName,
		WordCount:     in.WordCount,
		Tone:          client.Tone,
		USPs:          client.UniqueSellingPoints,
		InternalLinks: client.ServicePages,
		FAQCount:      in.FAQCount,
		Phone:         client.Phone,
		Email:         client.Email,
	})
	if err != nil {
		return core.BlogPost{}, fmt.Errorf("generate blog post: %w", err)
	}

	id, err := s.ids.NewID()
	if err != nil {
		return core.BlogPost{}, fmt.Errorf("new id: %w", err)
	}
	now := s.clock.Now()
	post := core.BlogPost{
		ID:                id,
		ClientID:          clientID,
		Title:             draft.Title,
		Slug:              Slugify(draft.Title),
		MetaTitle:         draft.MetaTitle,
		MetaDescription:   draft.MetaDescription,
		Body:              draft.Body,
		Excerpt:           draft.Excerpt,
		PrimaryKeyword:    keyword,
		SecondaryKeywords: draft.SecondaryKeywords,
		FAQ:               draft.FAQ,
		Status:            core.ContentStatusReview,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	result := s.scorer.Score(seo.Input{
		Title:           post.Title,
		MetaTitle:       post.MetaTitle,
		MetaDescription: post.MetaDescription,
		H1:              post.Title,
		BodyHTML:        post.Body,
	}, keyword, client.Geo)
	post.SEOScore = result.Total
	post.WordCount = result.WordCount

	if err := s.content.CreateBlogPost(ctx, post); err != nil {
		return core.BlogPost{}, fmt.Errorf("store blog post: %w", err)
	}
	metrics.ContentGenerated("blog_post", s.provider)
	s.log.Info("blog post drafted",
		zap.String("post_id", post.ID),
		zap.String("client_id", clientID),
		zap.String("keyword", keyword),
		zap.Int("seo_score", post.SEOScore))

	s.publish(ctx, core.Event{
		Name:      core.EventContentGenerated,
		ClientID:  clientID,
		Timestamp: now,
		Data: map[string]any{
			"content_type": "blog_post",
			"post_id":      post.ID,
			"title":        post.Title,
			"keyword":      keyword,
			"seo_score":    post.SEOScore,
		},
	})
	return post, nil
}

// GenerateSocialPost drafts a platform post awaiting review.
func (s *Service) GenerateSocialPost(ctx context.Context, clientID string, in SocialInput) (core.SocialPost, error) {
	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		return core.SocialPost{}, err
	}
	switch in.Platform {
	case core.PlatformFacebook, core.PlatformLinkedIn, core.PlatformGoogle:
	default:
		return core.SocialPost{}, fmt.Errorf("unknown platform %q: %w", in.Platform, core.ErrInvalidInput)
	}
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return core.SocialPost{}, fmt.Errorf("topic is required: %w", core.ErrInvalidInput)
	}

	post, err := s.ai.GenerateSocialPost(ctx, core.SocialBrief{
		Platform:     in.Platform,
		Topic:        topic,
		BusinessName: client.BusinessName,
		Geo:          client.Geo,
		Tone:         client.Tone,
		LinkURL:      in.LinkURL,
	})
	if err != nil {
		return core.SocialPost{}, fmt.Errorf("generate social post: %w", err)
	}

	id, err := s.ids.NewID()
	if err != nil {
		return core.SocialPost{}, fmt.Errorf("new id: %w", err)
	}
	now := s.clock.Now()
	post.ID = id
	post.ClientID = clientID
	post.Platform = in.Platform
	post.LinkURL = in.LinkURL
	post.Status = core.ContentStatusReview
	post.CreatedAt = now
	post.UpdatedAt = now

	if err := s.content.CreateSocialPost(ctx, post); err != nil {
		return core.SocialPost{}, fmt.Errorf("store social post: %w", err)
	}
	metrics.ContentGenerated("social_post", s.provider)

	s.publish(ctx, core.Event{
		Name:      core.EventContentGenerated,
		ClientID:  clientID,
		Timestamp: now,
		Data: map[string]any{
			"content_type": "social_post",
			"post_id":      post.ID,
			"platform":     string(in.Platform),
			"topic":        topic,
		},
	})
	return post, nil
}

// GetBlogPost returns one blog post.
func (s *Service) GetBlogPost(ctx context.Context, id string) (core.BlogPost, error) {
	return s.content.GetBlogPost(ctx, id)
}

// ListBlogPosts returns a client's posts, optionally by status.
func (s *Service) ListBlogPosts(ctx context.Context, clientID string, status core.ContentStatus) ([]core.BlogPost, error) {
	return s.content.ListBlogPosts(ctx, clientID, status)
}

// GetSocialPost returns one social post.
func (s *Service) GetSocialPost(ctx context.Context, id string) (core.SocialPost, error) {
	return s.content.GetSocialPost(ctx, id)
}

// ListSocialPosts returns a client's social posts.
func (s *Service) ListSocialPosts(ctx context.Context, clientID string) ([]core.SocialPost, error) {
	return s.content.ListSocialPosts(ctx, clientID)
}

// Approve moves a reviewed draft to approved and emits
// content.approved.
func (s *Service) Approve(ctx context.Context, id, approvedBy string) (core.BlogPost, error) {
	post, err := s.content.GetBlogPost(ctx, id)
	if err != nil {
		return core.BlogPost{}, err
	}
	if post.Status != core.ContentStatusReview && post.Status != core.ContentStatusDraft {
		return core.BlogPost{}, fmt.Errorf("post %s is %s, not awaiting review: %w", id, post.Status, core.ErrInvalidInput)
	}
	now := s.clock.Now()
	post.Status = core.ContentStatusApproved
	post.ApprovedAt = &now
	post.ApprovedBy = approvedBy
	post.UpdatedAt = now
	if err := s.content.UpdateBlogPost(ctx, post); err != nil {
		return core.BlogPost{}, fmt.Errorf("update blog post: %w", err)
	}

	s.publish(ctx, core.Event{
		Name:      core.EventContentApproved,
		ClientID:  post.ClientID,
		Timestamp: now,
		Data: map[string]any{
			"content_type": "blog_post",
			"post_id":      post.ID,
			"title":        post.Title,
			"approved_by":  approvedBy,
		},
	})
	return post, nil
}

// ApproveSocial approves a social draft for publishing.
func (s *Service) ApproveSocial(ctx context.Context, id string) (core.SocialPost, error) {
	post, err := s.content.GetSocialPost(ctx, id)
	if err != nil {
		return core.SocialPost{}, err
	}
	if post.Status != core.ContentStatusReview && post.Status != core.ContentStatusDraft {
		return core.SocialPost{}, fmt.Errorf("post %s is %s, not awaiting review: %w", id, post.Status, core.ErrInvalidInput)
	}
	post.Status = core.ContentStatusApproved
	post.UpdatedAt = s.clock.Now()
	if err := s.content.UpdateSocialPost(ctx, post); err != nil {
		return core.SocialPost{}, fmt.Errorf("update social post: %w", err)
	}
	return post, nil
}

// Schedule queues an approved post for future auto-publishing.
func (s *Service) Schedule(ctx context.Context, id string, at time.Time) (core.BlogPost, error) {
	post, err := s.content.GetBlogPost(ctx, id)
	if err != nil {
		return core.BlogPost{}, err
	}
	if post.Status != core.ContentStatusApproved {
		return core.BlogPost{}, fmt.Errorf("post %s must be approved before scheduling: %w", id, core.ErrInvalidInput)
	}
	now := s.clock.Now()
	if !at.After(now) {
		return core.BlogPost{}, fmt.Errorf("scheduled time %s is in the past: %w", at.Format(time.RFC3339), core.ErrInvalidInput)
	}
	post.ScheduledFor = &at
	post.UpdatedAt = now
	if err := s.content.UpdateBlogPost(ctx, post); err != nil {
		return core.BlogPost{}, fmt.Errorf("update blog post: %w", err)
	}
	s.log.Info("post scheduled",
		zap.String("post_id", post.ID), zap.Time("scheduled_for", at))
	return post, nil
}

// Score re-audits a stored post against its primary keyword.
func (s *Service) Score(ctx context.Context, id string) (seo.Result, error) {
	post, err := s.content.GetBlogPost(ctx, id)
	if err != nil {
		return seo.Result{}, err
	}
	client, err := s.clients.GetClient(ctx, post.ClientID)
	if err != nil {
		return seo.Result{}, err
	}
	result := s.scorer.Score(seo.Input{
		Title:           post.Title,
		MetaTitle:       post.MetaTitle,
		MetaDescription: post.MetaDescription,
		H1:              post.Title,
		BodyHTML:        post.Body,
	}, post.PrimaryKeyword, client.Geo)

	if result.Total != post.SEOScore {
		post.SEOScore = result.Total
		post.UpdatedAt = s.clock.Now()
		if err := s.content.UpdateBlogPost(ctx, post); err != nil {
			s.log.Warn("persist rescored post failed", zap.String("post_id", id), zap.Error(err))
		}
	}
	return result, nil
}

func (s *Service) publish(ctx context.Context, event core.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("publish event failed", zap.String("event", event.Name), zap.Error(err))
	}
}

// Slugify lowercases a title into a URL slug.
func Slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
