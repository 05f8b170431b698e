package reviews

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
	eventsmem "github.com/ackwest/seoengine/internal/events/memory"
	"github.com/ackwest/seoengine/internal/id/uuid"
	storemem "github.com/ackwest/seoengine/internal/store/memory"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

type stubGenerator struct {
	reply string
	err   error
}

func (g *stubGenerator) GenerateBlogPost(context.Context, core.BlogBrief) (core.BlogDraft, error) {
	return core.BlogDraft{}, errors.New("not implemented")
}

func (g *stubGenerator) GenerateSocialPost(context.Context, core.SocialBrief) (core.SocialPost, error) {
	return core.SocialPost{}, errors.New("not implemented")
}

func (g *stubGenerator) GenerateReviewReply(context.Context, core.Review, core.Client) (string, error) {
	return g.reply, g.err
}

type fixture struct {
	svc    *Service
	events *eventsmem.Publisher
	ai     *stubGenerator
	clock  *fixedClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clients := storemem.NewClientStore()
	require.NoError(t, clients.CreateClient(context.Background(), core.Client{
		ID:           "cl_1",
		BusinessName: "Ace Plumbing",
		Phone:        "(214) 555-0100",
		IsActive:     true,
	}))
	events := eventsmem.New()
	ai := &stubGenerator{}
	clock := &fixedClock{t: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	svc := NewService(clients, storemem.NewReviewStore(), events, ai, clock, uuid.NewPrefixed("rev"), zap.NewNop())
	return &fixture{svc: svc, events: events, ai: ai, clock: clock}
}

func TestAddDerivesSentimentAndEmitsEvent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	review, err := f.svc.Add(context.Background(), "cl_1", AddInput{
		Platform:     "Google",
		ReviewerName: "Pat",
		Rating:       5,
		Text:         "Fast and friendly.",
	})
	require.NoError(t, err)
	require.Equal(t, "google", review.Platform)
	require.Equal(t, SentimentPositive, review.Sentiment)
	require.Equal(t, f.clock.t, review.ReviewedAt)

	received := f.events.Named(core.EventReviewReceived)
	require.Len(t, received, 1)
	require.Equal(t, review.ID, received[0].Data["review_id"])
	require.Equal(t, SentimentPositive, received[0].Data["sentiment"])
}

func TestAddValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "cl_1", AddInput{Platform: "google", Rating: 0})
	require.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = f.svc.Add(ctx, "cl_1", AddInput{Platform: "google", Rating: 6})
	require.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = f.svc.Add(ctx, "cl_1", AddInput{Rating: 4})
	require.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = f.svc.Add(ctx, "cl_gone", AddInput{Platform: "google", Rating: 4})
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestSentimentFor(t *testing.T) {
	t.Parallel()
	require.Equal(t, SentimentPositive, SentimentFor(4))
	require.Equal(t, SentimentPositive, SentimentFor(5))
	require.Equal(t, SentimentNeutral, SentimentFor(3))
	require.Equal(t, SentimentNegative, SentimentFor(2))
	require.Equal(t, SentimentNegative, SentimentFor(1))
}

func TestSuggestResponseUsesModel(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.ai.reply = "Thanks Pat, glad the water heater swap went smoothly!"
	ctx := context.Background()

	review, err := f.svc.Add(ctx, "cl_1", AddInput{Platform: "google", ReviewerName: "Pat", Rating: 5})
	require.NoError(t, err)

	updated, err := f.svc.SuggestResponse(ctx, review.ID)
	require.NoError(t, err)
	require.Equal(t, f.ai.reply, updated.SuggestedResponse)
}

func TestSuggestResponseFallsBackToTemplate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.ai.err = errors.New("model unavailable")
	ctx := context.Background()

	review, err := f.svc.Add(ctx, "cl_1", AddInput{Platform: "google", ReviewerName: "Sam", Rating: 1})
	require.NoError(t, err)

	updated, err := f.svc.SuggestResponse(ctx, review.ID)
	require.NoError(t, err)
	require.Contains(t, updated.SuggestedResponse, "Sam")
	require.Contains(t, updated.SuggestedResponse, "(214) 555-0100")
}

func TestTemplateResponseByRating(t *testing.T) {
	t.Parallel()
	client := core.Client{BusinessName: "Ace Plumbing"}

	positive := TemplateResponse(core.Review{Rating: 5, ReviewerName: "Pat"}, client)
	require.Contains(t, positive, "Ace Plumbing")
	require.Contains(t, positive, "Pat")

	neutral := TemplateResponse(core.Review{Rating: 3}, client)
	require.Contains(t, neutral, "valued customer")

	negative := TemplateResponse(core.Review{Rating: 1}, client)
	require.Contains(t, negative, "make this right")
	require.Contains(t, negative, "contact us directly")
}

func TestRespondRecordsReply(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	review, err := f.svc.Add(ctx, "cl_1", AddInput{Platform: "google", Rating: 4})
	require.NoError(t, err)

	updated, err := f.svc.Respond(ctx, review.ID, "Thanks for the kind words!")
	require.NoError(t, err)
	require.Equal(t, "Thanks for the kind words!", updated.Response)
	require.NotNil(t, updated.RespondedAt)

	_, err = f.svc.Respond(ctx, review.ID, "  ")
	require.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestStats(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	seed := []struct {
		platform string
		rating   int
		respond  bool
	}{
		{"google", 5, true},
		{"google", 4, false},
		{"facebook", 3, false},
		{"yelp", 1, true},
	}
	for _, s := range seed {
		review, err := f.svc.Add(ctx, "cl_1", AddInput{Platform: s.platform, Rating: s.rating})
		require.NoError(t, err)
		if s.respond {
			_, err = f.svc.Respond(ctx, review.ID, "Thank you!")
			require.NoError(t, err)
		}
	}

	stats, err := f.svc.Stats(ctx, "cl_1", 90)
	require.NoError(t, err)
	require.Equal(t, 4, stats.Total)
	require.InDelta(t, 3.3, stats.AverageRating, 0.01)
	require.Equal(t, 2, stats.ByPlatform["google"].Count)
	require.InDelta(t, 4.5, stats.ByPlatform["google"].Average, 0.01)
	require.Equal(t, 2, stats.BySentiment[SentimentPositive])
	require.Equal(t, 1, stats.BySentiment[SentimentNeutral])
	require.Equal(t, 1, stats.BySentiment[SentimentNegative])
	require.Equal(t, 1, stats.ByRating[5])
	require.InDelta(t, 50.0, stats.ResponseRate, 0.01)
	require.Equal(t, 2, stats.PendingResponses)
}

func TestStatsEmpty(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	stats, err := f.svc.Stats(context.Background(), "cl_1", 30)
	require.NoError(t, err)
	require.Zero(t, stats.Total)
	require.Zero(t, stats.AverageRating)
}
