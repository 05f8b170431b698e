package content

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/ai"
	"github.com/ackwest/seoengine/internal/core"
	eventsmem "github.com/ackwest/seoengine/internal/events/memory"
	"github.com/ackwest/seoengine/internal/id/uuid"
	"github.com/ackwest/seoengine/internal/seo"
	storemem "github.com/ackwest/seoengine/internal/store/memory"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

type fixture struct {
	svc    *Service
	events *eventsmem.Publisher
	clock  *fixedClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clients := storemem.NewClientStore()
	require.NoError(t, clients.CreateClient(context.Background(), core.Client{
		ID:              "cl_1",
		BusinessName:    "Ace Plumbing",
		Industry:        "plumbing",
		Geo:             "Dallas, TX",
		PrimaryKeywords: []string{"plumber dallas"},
		Tone:            "friendly",
		IsActive:        true,
	}))
	events := eventsmem.New()
	clock := &fixedClock{t: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	svc := NewService(clients, storemem.NewContentStore(), ai.NewTemplateGenerator(),
		seo.NewScorer(), events, clock, uuid.NewPrefixed("post"), "template", zap.NewNop())
	return &fixture{svc: svc, events: events, clock: clock}
}

func TestGenerateBlogPostDraftsAndScores(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	post, err := f.svc.GenerateBlogPost(context.Background(), "cl_1", BlogInput{})
	require.NoError(t, err)
	require.Equal(t, "plumber dallas", post.PrimaryKeyword) // defaults to the first client keyword
	require.Equal(t, core.ContentStatusReview, post.Status)
	require.NotEmpty(t, post.Title)
	require.NotEmpty(t, post.Body)
	require.NotEmpty(t, post.Slug)
	require.Positive(t, post.SEOScore)
	require.Positive(t, post.WordCount)

	generated := f.events.Named(core.EventContentGenerated)
	require.Len(t, generated, 1)
	require.Equal(t, "blog_post", generated[0].Data["content_type"])
}

func TestGenerateBlogPostRequiresKeyword(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	clients := storemem.NewClientStore()
	require.NoError(t, clients.CreateClient(ctx, core.Client{ID: "cl_2", BusinessName: "No Keywords"}))
	svc := NewService(clients, storemem.NewContentStore(), ai.NewTemplateGenerator(),
		seo.NewScorer(), f.events, f.clock, uuid.NewPrefixed("post"), "template", zap.NewNop())

	_, err := svc.GenerateBlogPost(ctx, "cl_2", BlogInput{})
	require.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.GenerateBlogPost(ctx, "cl_2", BlogInput{Keyword: "emergency plumber"})
	require.NoError(t, err)
}

func TestGenerateSocialPost(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	post, err := f.svc.GenerateSocialPost(context.Background(), "cl_1", SocialInput{
		Platform: core.PlatformFacebook,
		Topic:    "spring maintenance special",
		LinkURL:  "https://aceplumbing.com/spring",
	})
	require.NoError(t, err)
	require.Equal(t, core.PlatformFacebook, post.Platform)
	require.Equal(t, core.ContentStatusReview, post.Status)
	require.NotEmpty(t, post.Content)
	require.Equal(t, "https://aceplumbing.com/spring", post.LinkURL)

	_, err = f.svc.GenerateSocialPost(context.Background(), "cl_1", SocialInput{
		Platform: "myspace", Topic: "x",
	})
	require.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestApproveAndSchedule(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	post, err := f.svc.GenerateBlogPost(ctx, "cl_1", BlogInput{})
	require.NoError(t, err)

	// Scheduling before approval is rejected.
	_, err = f.svc.Schedule(ctx, post.ID, f.clock.t.Add(time.Hour))
	require.ErrorIs(t, err, core.ErrInvalidInput)

	approved, err := f.svc.Approve(ctx, post.ID, "e.hall")
	require.NoError(t, err)
	require.Equal(t, core.ContentStatusApproved, approved.Status)
	require.Equal(t, "e.hall", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)
	require.Len(t, f.events.Named(core.EventContentApproved), 1)

	// Approving twice is rejected.
	_, err = f.svc.Approve(ctx, post.ID, "e.hall")
	require.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = f.svc.Schedule(ctx, post.ID, f.clock.t.Add(-time.Hour))
	require.ErrorIs(t, err, core.ErrInvalidInput)

	at := f.clock.t.Add(24 * time.Hour)
	scheduled, err := f.svc.Schedule(ctx, post.ID, at)
	require.NoError(t, err)
	require.NotNil(t, scheduled.ScheduledFor)
	require.True(t, scheduled.ScheduledFor.Equal(at))
}

func TestScore(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	post, err := f.svc.GenerateBlogPost(ctx, "cl_1", BlogInput{})
	require.NoError(t, err)

	result, err := f.svc.Score(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, post.SEOScore, result.Total)
	require.NotEmpty(t, result.Factors)
	require.NotEmpty(t, result.Grade)
}

func TestSlugify(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"10 Signs You Need a Plumber in Dallas":   "10-signs-you-need-a-plumber-in-dallas",
		"  Emergency? Call Now!  ":                "emergency-call-now",
		"Water Heater 101: Repair & Replacement":  "water-heater-101-repair-replacement",
	}
	for in, want := range cases {
		require.Equal(t, want, Slugify(in), "input %q", in)
	}
	require.True(t, strings.HasPrefix(Slugify("Hello World"), "hello-world"))
}
