package core

import (
	"context"
	"io"
	"time"
)

// ClientStore persists tenant profiles.
type ClientStore interface {
	CreateClient(ctx context.Context, client Client) error
	GetClient(ctx context.Context, id string) (Client, error)
	ListClients(ctx context.Context, activeOnly bool) ([]Client, error)
	UpdateClient(ctx context.Context, client Client) error
	DeleteClient(ctx context.Context, id string) error
}

// ContentStore persists blog and social content.
type ContentStore interface {
	CreateBlogPost(ctx context.Context, post BlogPost) error
	GetBlogPost(ctx context.Context, id string) (BlogPost, error)
	ListBlogPosts(ctx context.Context, clientID string, status ContentStatus) ([]BlogPost, error)
	UpdateBlogPost(ctx context.Context, post BlogPost) error
	ListDueBlogPosts(ctx context.Context, now time.Time) ([]BlogPost, error)

	CreateSocialPost(ctx context.Context, post SocialPost) error
	GetSocialPost(ctx context.Context, id string) (SocialPost, error)
	ListSocialPosts(ctx context.Context, clientID string) ([]SocialPost, error)
	UpdateSocialPost(ctx context.Context, post SocialPost) error
}

// LeadStore persists captured leads.
type LeadStore interface {
	CreateLead(ctx context.Context, lead Lead) error
	GetLead(ctx context.Context, id string) (Lead, error)
	ListLeads(ctx context.Context, clientID string, status LeadStatus, since time.Time) ([]Lead, error)
	UpdateLead(ctx context.Context, lead Lead) error
}

// ReviewStore persists customer reviews.
type ReviewStore interface {
	CreateReview(ctx context.Context, review Review) error
	GetReview(ctx context.Context, id string) (Review, error)
	ListReviews(ctx context.Context, clientID string, since time.Time) ([]Review, error)
	UpdateReview(ctx context.Context, review Review) error
}

// CompetitorStore persists monitored competitors and their pages.
type CompetitorStore interface {
	CreateCompetitor(ctx context.Context, competitor Competitor) error
	GetCompetitor(ctx context.Context, id string) (Competitor, error)
	ListCompetitors(ctx context.Context, clientID string) ([]Competitor, error)
	ListAllActiveCompetitors(ctx context.Context) ([]Competitor, error)
	UpdateCompetitor(ctx context.Context, competitor Competitor) error

	UpsertPage(ctx context.Context, page CompetitorPage) error
	GetPageByURL(ctx context.Context, competitorID, url string) (CompetitorPage, error)
	ListPages(ctx context.Context, competitorID string) ([]CompetitorPage, error)
}

// RankStore persists keyword position history.
type RankStore interface {
	SaveSnapshot(ctx context.Context, snap RankSnapshot) error
	LatestSnapshot(ctx context.Context, clientID, keyword string) (RankSnapshot, error)
	History(ctx context.Context, clientID, keyword string, since time.Time) ([]RankSnapshot, error)
	LatestForClient(ctx context.Context, clientID string) ([]RankSnapshot, error)
}

// WebhookStore persists outbound webhook endpoints and delivery logs.
type WebhookStore interface {
	CreateWebhook(ctx context.Context, hook Webhook) error
	GetWebhook(ctx context.Context, id string) (Webhook, error)
	ListWebhooks(ctx context.Context, clientID string) ([]Webhook, error)
	UpdateWebhook(ctx context.Context, hook Webhook) error
	DeleteWebhook(ctx context.Context, id string) error
	// RecordOutcome folds one delivery outcome into the endpoint's
	// counters atomically. Concurrent deliveries to the same endpoint
	// must not lose increments.
	RecordOutcome(ctx context.Context, id string, success bool, errMsg string, at time.Time) error
	RecordDelivery(ctx context.Context, delivery WebhookDelivery) error
	ListDeliveries(ctx context.Context, webhookID string, limit int) ([]WebhookDelivery, error)
}

// BlobStore writes raw artifacts (page snapshots, content exports)
// and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
	GetObject(ctx context.Context, path string) ([]byte, error)
}

// EventPublisher pushes domain events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// BlogBrief is the input to blog generation.
type BlogBrief struct {
	Keyword       string
	Geo           string
	Industry      string
	BusinessName  string
	WordCount     int
	Tone          string
	USPs          []string
	InternalLinks []ServicePage
	FAQCount      int
	Phone         string
	Email         string
}

// BlogDraft is the structured output of blog generation.
type BlogDraft struct {
	Title             string
	MetaTitle         string
	MetaDescription   string
	Body              string // HTML
	Excerpt           string
	SecondaryKeywords []string
	FAQ               []FAQItem
}

// SocialBrief is the input to social post generation.
type SocialBrief struct {
	Platform     Platform
	Topic        string
	BusinessName string
	Geo          string
	Tone         string
	LinkURL      string
}

// ContentGenerator drafts content by calling an external model
// (or a deterministic template when unconfigured).
type ContentGenerator interface {
	GenerateBlogPost(ctx context.Context, brief BlogBrief) (BlogDraft, error)
	GenerateSocialPost(ctx context.Context, brief SocialBrief) (SocialPost, error)
	GenerateReviewReply(ctx context.Context, review Review, client Client) (string, error)
}

// Queue provides enqueue/dequeue semantics for background work items.
type Queue[T any] interface {
	Enqueue(ctx context.Context, item T) error
	Dequeue(ctx context.Context) (T, error)
}

// Hasher computes digests for change detection.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (swappable in tests).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces entity IDs.
type IDGenerator interface {
	NewID() (string, error)
}
