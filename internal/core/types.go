// Package core defines domain types shared across subsystems.
package core

import (
	"time"
)

// ContentStatus represents the lifecycle state of a piece of content.
type ContentStatus string

// Content status values persisted in the content store.
const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusReview    ContentStatus = "review"
	ContentStatusApproved  ContentStatus = "approved"
	ContentStatusPublished ContentStatus = "published"
	ContentStatusArchived  ContentStatus = "archived"
)

// LeadStatus tracks a lead through the sales funnel.
type LeadStatus string

// Lead status values.
const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

// Platform identifies a connected social or publishing platform.
type Platform string

// Supported platforms.
const (
	PlatformFacebook Platform = "facebook"
	PlatformLinkedIn Platform = "linkedin"
	PlatformGoogle   Platform = "google"
)

// ServicePage links a service keyword to a published page on the
// client's own site, used for internal-link suggestions.
type ServicePage struct {
	Keyword string `json:"keyword"`
	URL     string `json:"url"`
	Title   string `json:"title"`
}

// Integration stores OAuth tokens and asset IDs for one platform.
type Integration struct {
	Platform     Platform   `json:"platform"`
	AccessToken  string     `json:"access_token,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	AssetID      string     `json:"asset_id,omitempty"` // page ID, org URN, or GBP location
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	ConnectedAt  time.Time  `json:"connected_at"`
}

// WordPressSite holds per-client WordPress REST credentials.
type WordPressSite struct {
	URL         string `json:"url"`
	Username    string `json:"username"`
	AppPassword string `json:"app_password,omitempty"`
}

// Client is a tenant: one local business onboarded onto the platform.
type Client struct {
	ID           string `json:"id"`
	BusinessName string `json:"business_name"`
	Industry     string `json:"industry"`
	Geo          string `json:"geo"`
	WebsiteURL   string `json:"website_url,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`

	PrimaryKeywords     []string      `json:"primary_keywords"`
	SecondaryKeywords   []string      `json:"secondary_keywords"`
	CompetitorDomains   []string      `json:"competitors"`
	ServiceAreas        []string      `json:"service_areas"`
	UniqueSellingPoints []string      `json:"unique_selling_points"`
	ServicePages        []ServicePage `json:"service_pages"`
	Tone                string        `json:"tone"`

	WordPress    *WordPressSite           `json:"wordpress,omitempty"`
	Integrations map[Platform]Integration `json:"integrations,omitempty"`

	SubscriptionTier    string `json:"subscription_tier"`
	MonthlyContentLimit int    `json:"monthly_content_limit"`

	LeadNotificationEmail   string `json:"lead_notification_email,omitempty"`
	LeadNotificationEnabled bool   `json:"lead_notification_enabled"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FAQItem is one generated question/answer pair.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// BlogPost is generated long-form content with SEO metadata.
type BlogPost struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`

	Title           string `json:"title"`
	Slug            string `json:"slug"`
	MetaTitle       string `json:"meta_title"`
	MetaDescription string `json:"meta_description"`
	Body            string `json:"body"` // HTML
	Excerpt         string `json:"excerpt,omitempty"`

	PrimaryKeyword    string   `json:"primary_keyword"`
	SecondaryKeywords []string `json:"secondary_keywords"`

	WordCount int       `json:"word_count"`
	SEOScore  int       `json:"seo_score"`
	FAQ       []FAQItem `json:"faq,omitempty"`

	FeaturedImageURL string `json:"featured_image_url,omitempty"`

	Status       ContentStatus `json:"status"`
	PublishedURL string        `json:"published_url,omitempty"`
	PublishedAt  *time.Time    `json:"published_at,omitempty"`
	ScheduledFor *time.Time    `json:"scheduled_for,omitempty"`

	WordPressPostID int `json:"wordpress_post_id,omitempty"`

	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	ApprovedBy string     `json:"approved_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SocialPost is short-form content targeted at one platform.
type SocialPost struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`

	Platform Platform `json:"platform"`
	Content  string   `json:"content"`
	Hashtags []string `json:"hashtags,omitempty"`
	LinkURL  string   `json:"link_url,omitempty"`

	Status         ContentStatus `json:"status"`
	PlatformPostID string        `json:"platform_post_id,omitempty"`
	PublishedAt    *time.Time    `json:"published_at,omitempty"`
	ScheduledFor   *time.Time    `json:"scheduled_for,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Lead is an inbound prospect captured from a form, call, or chat.
type Lead struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`

	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message,omitempty"`
	Source  string `json:"source"` // form, call, chat, manual

	Status         LeadStatus `json:"status"`
	EstimatedValue float64    `json:"estimated_value,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Review is a customer review pulled in or entered for a client.
type Review struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`

	Platform     string `json:"platform"` // google, facebook, yelp
	ReviewerName string `json:"reviewer_name"`
	Rating       int    `json:"rating"` // 1-5
	Text         string `json:"text,omitempty"`
	Sentiment    string `json:"sentiment"` // positive, neutral, negative

	Response          string     `json:"response,omitempty"`
	SuggestedResponse string     `json:"suggested_response,omitempty"`
	RespondedAt       *time.Time `json:"responded_at,omitempty"`

	ReviewedAt time.Time `json:"reviewed_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Competitor is a rival domain monitored for a client.
type Competitor struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Domain    string    `json:"domain"`
	Name      string    `json:"name,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	LastCrawl *time.Time `json:"last_crawl,omitempty"`
}

// CompetitorPage is one page discovered on a competitor site,
// tracked by content hash so changes can be detected.
type CompetitorPage struct {
	ID           string    `json:"id"`
	CompetitorID string    `json:"competitor_id"`
	URL          string    `json:"url"`
	Title        string    `json:"title,omitempty"`
	ContentHash  string    `json:"content_hash"`
	SnapshotURI  string    `json:"snapshot_uri,omitempty"`
	ChangeCount  int       `json:"change_count"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
	LastChanged  *time.Time `json:"last_changed,omitempty"`
}

// SERPFeature is a non-organic element present on a results page.
type SERPFeature struct {
	Name string `json:"name"`
}

// RankSnapshot records one keyword position observation.
type RankSnapshot struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`

	Keyword      string        `json:"keyword"`
	Domain       string        `json:"domain"`
	Position     int           `json:"position"` // 0 = not in top 100
	URL          string        `json:"url,omitempty"`
	SearchVolume int           `json:"search_volume,omitempty"`
	CPC          float64       `json:"cpc,omitempty"`
	Features     []SERPFeature `json:"serp_features,omitempty"`

	CheckedAt time.Time `json:"checked_at"`
}

// RankMovement describes position change between two snapshots.
type RankMovement struct {
	Keyword  string `json:"keyword"`
	Previous int    `json:"previous_position"`
	Current  int    `json:"current_position"`
	Delta    int    `json:"delta"` // positive = improved (moved up)
}

// Webhook is an outbound endpoint subscribed to domain events.
type Webhook struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id,omitempty"` // empty = global

	Name   string   `json:"name"`
	URL    string   `json:"url"`
	Secret string   `json:"-"`
	Events []string `json:"events"`

	IsActive       bool   `json:"is_active"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	MaxRetries     int    `json:"max_retries"`

	TotalSent   int        `json:"total_sent"`
	TotalFailed int        `json:"total_failed"`
	LastStatus  string     `json:"last_status,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	LastFiredAt *time.Time `json:"last_fired_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WebhookDelivery is one recorded delivery attempt batch for an endpoint.
type WebhookDelivery struct {
	ID        string    `json:"id"`
	WebhookID string    `json:"webhook_id"`
	Event     string    `json:"event"`
	Success   bool      `json:"success"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// JobRun records one execution of a scheduled job.
type JobRun struct {
	Name       string        `json:"name"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}
