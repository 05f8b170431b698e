// Package reviews manages customer reviews and response drafting.
package reviews

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
)

// Sentiment labels derived from the star rating.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// AddInput is one review being recorded for a client.
type AddInput struct {
	Platform     string    `json:"platform"`
	ReviewerName string    `json:"reviewer_name"`
	Rating       int       `json:"rating"`
	Text         string    `json:"text"`
	ReviewedAt   time.Time `json:"reviewed_at"`
}

// PlatformStats aggregates one platform's reviews.
type PlatformStats struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// Stats summarizes a client's reputation over a period.
type Stats struct {
	PeriodDays       int                      `json:"period_days"`
	Total            int                      `json:"total"`
	AverageRating    float64                  `json:"average_rating"`
	ByPlatform       map[string]PlatformStats `json:"by_platform"`
	ByRating         map[int]int              `json:"by_rating"`
	BySentiment      map[string]int           `json:"by_sentiment"`
	ResponseRate     float64                  `json:"response_rate"`
	PendingResponses int                      `json:"pending_responses"`
}

// Service records reviews and drafts responses.
type Service struct {
	clients core.ClientStore
	reviews core.ReviewStore
	events  core.EventPublisher
	ai      core.ContentGenerator
	clock   core.Clock
	ids     core.IDGenerator
	log     *zap.Logger
}

// NewService wires a review service. ai may be nil; response drafting
// then always uses the rating-based templates.
func NewService(clients core.ClientStore, reviews core.ReviewStore, events core.EventPublisher, ai core.ContentGenerator, clock core.Clock, ids core.IDGenerator, log *zap.Logger) *Service {
	return &Service{
		clients: clients,
		reviews: reviews,
		events:  events,
		ai:      ai,
		clock:   clock,
		ids:     ids,
		log:     log.Named("reviews"),
	}
}

// Add records a review, derives its sentiment, and emits
// review.received.
func (s *Service) Add(ctx context.Context, clientID string, in AddInput) (core.Review, error) {
	if _, err := s.clients.GetClient(ctx, clientID); err != nil {
		return core.Review{}, err
	}
	if in.Rating < 1 || in.Rating > 5 {
		return core.Review{}, fmt.Errorf("rating must be 1-5, got %d: %w", in.Rating, core.ErrInvalidInput)
	}
	if in.Platform == "" {
		return core.Review{}, fmt.Errorf("platform is required: %w", core.ErrInvalidInput)
	}

	id, err := s.ids.NewID()
	if err != nil {
		return core.Review{}, fmt.Errorf("new id: %w", err)
	}
	now := s.clock.Now()
	reviewedAt := in.ReviewedAt
	if reviewedAt.IsZero() {
		reviewedAt = now
	}
	review := core.Review{
		ID:           id,
		ClientID:     clientID,
		Platform:     strings.ToLower(in.Platform),
		ReviewerName: in.ReviewerName,
		Rating:       in.Rating,
		Text:         in.Text,
		Sentiment:    SentimentFor(in.Rating),
		ReviewedAt:   reviewedAt,
		CreatedAt:    now,
	}
	if err := s.reviews.CreateReview(ctx, review); err != nil {
		return core.Review{}, fmt.Errorf("create review: %w", err)
	}
	s.log.Info("review recorded",
		zap.String("review_id", review.ID),
		zap.String("client_id", clientID),
		zap.String("platform", review.Platform),
		zap.Int("rating", review.Rating))

	s.publish(ctx, core.Event{
		Name:      core.EventReviewReceived,
		ClientID:  clientID,
		Timestamp: now,
		Data: map[string]any{
			"review_id": review.ID,
			"platform":  review.Platform,
			"rating":    review.Rating,
			"sentiment": review.Sentiment,
		},
	})
	return review, nil
}

// Get returns one review.
func (s *Service) Get(ctx context.Context, id string) (core.Review, error) {
	return s.reviews.GetReview(ctx, id)
}

// List returns a client's reviews over the trailing number of days.
func (s *Service) List(ctx context.Context, clientID string, days int) ([]core.Review, error) {
	if days <= 0 {
		days = 90
	}
	since := s.clock.Now().AddDate(0, 0, -days)
	return s.reviews.ListReviews(ctx, clientID, since)
}

// SuggestResponse drafts a reply for a review and stores it as the
// suggested response. The model draft falls back to a rating-based
// template when generation fails.
func (s *Service) SuggestResponse(ctx context.Context, reviewID string) (core.Review, error) {
	review, err := s.reviews.GetReview(ctx, reviewID)
	if err != nil {
		return core.Review{}, err
	}
	client, err := s.clients.GetClient(ctx, review.ClientID)
	if err != nil {
		return core.Review{}, err
	}

	suggested := ""
	if s.ai != nil {
		suggested, err = s.ai.GenerateReviewReply(ctx, review, client)
		if err != nil {
			s.log.Warn("model reply failed, using template",
				zap.String("review_id", reviewID), zap.Error(err))
			suggested = ""
		}
	}
	if suggested == "" {
		suggested = TemplateResponse(review, client)
	}

	review.SuggestedResponse = strings.TrimSpace(suggested)
	if err := s.reviews.UpdateReview(ctx, review); err != nil {
		return core.Review{}, fmt.Errorf("update review: %w", err)
	}
	return review, nil
}

// Respond records the reply actually posted to the platform.
func (s *Service) Respond(ctx context.Context, reviewID, response string) (core.Review, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return core.Review{}, fmt.Errorf("response text is required: %w", core.ErrInvalidInput)
	}
	review, err := s.reviews.GetReview(ctx, reviewID)
	if err != nil {
		return core.Review{}, err
	}
	now := s.clock.Now()
	review.Response = response
	review.RespondedAt = &now
	if err := s.reviews.UpdateReview(ctx, review); err != nil {
		return core.Review{}, fmt.Errorf("update review: %w", err)
	}
	return review, nil
}

// Stats aggregates a client's reviews over the trailing period.
func (s *Service) Stats(ctx context.Context, clientID string, days int) (Stats, error) {
	if days <= 0 {
		days = 90
	}
	since := s.clock.Now().AddDate(0, 0, -days)
	all, err := s.reviews.ListReviews(ctx, clientID, since)
	if err != nil {
		return Stats{}, fmt.Errorf("list reviews: %w", err)
	}

	stats := Stats{
		PeriodDays:  days,
		Total:       len(all),
		ByPlatform:  map[string]PlatformStats{},
		ByRating:    map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		BySentiment: map[string]int{SentimentPositive: 0, SentimentNeutral: 0, SentimentNegative: 0},
	}
	if stats.Total == 0 {
		return stats, nil
	}

	ratingSum := 0
	responded := 0
	platformSums := map[string]int{}
	for _, r := range all {
		ratingSum += r.Rating
		stats.ByRating[r.Rating]++
		stats.BySentiment[r.Sentiment]++
		ps := stats.ByPlatform[r.Platform]
		ps.Count++
		stats.ByPlatform[r.Platform] = ps
		platformSums[r.Platform] += r.Rating
		if r.Response != "" {
			responded++
		}
	}
	for platform, ps := range stats.ByPlatform {
		ps.Average = round1(float64(platformSums[platform]) / float64(ps.Count))
		stats.ByPlatform[platform] = ps
	}
	stats.AverageRating = round1(float64(ratingSum) / float64(stats.Total))
	stats.ResponseRate = round1(float64(responded) / float64(stats.Total) * 100)
	stats.PendingResponses = stats.Total - responded
	return stats, nil
}

func (s *Service) publish(ctx context.Context, event core.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("publish event failed", zap.String("event", event.Name), zap.Error(err))
	}
}

// SentimentFor maps a star rating to a sentiment label.
func SentimentFor(rating int) string {
	switch {
	case rating >= 4:
		return SentimentPositive
	case rating == 3:
		return SentimentNeutral
	default:
		return SentimentNegative
	}
}

// TemplateResponse is the rating-keyed fallback reply used when no
// model is available.
func TemplateResponse(review core.Review, client core.Client) string {
	name := review.ReviewerName
	if name == "" {
		name = "valued customer"
	}
	switch {
	case review.Rating >= 4:
		return fmt.Sprintf("Thank you so much for the wonderful review, %s! We're thrilled to hear about your positive experience with %s. Your support means the world to us, and we look forward to serving you again soon!", name, client.BusinessName)
	case review.Rating == 3:
		return fmt.Sprintf("Thank you for your feedback, %s. We appreciate you taking the time to share your experience. We're always working to improve, and we'd love the opportunity to exceed your expectations next time.", name)
	default:
		contact := "directly"
		if client.Phone != "" {
			contact = "at " + client.Phone
		}
		return fmt.Sprintf("Thank you for bringing this to our attention, %s. We're sorry to hear your experience didn't meet expectations. We take all feedback seriously and would love the opportunity to make this right. Please contact us %s so we can address your concerns.", name, contact)
	}
}

func round1(v float64) float64 { return float64(int(v*10+0.5)) / 10 }
