package wordpress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
	eventsmem "github.com/ackwest/seoengine/internal/events/memory"
	storemem "github.com/ackwest/seoengine/internal/store/memory"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

type stubPoster struct {
	created []PostInput
	post    Post
	err     error
}

func (p *stubPoster) TestConnection(context.Context) error { return p.err }

func (p *stubPoster) CreatePost(_ context.Context, in PostInput) (Post, error) {
	if p.err != nil {
		return Post{}, p.err
	}
	p.created = append(p.created, in)
	return p.post, nil
}

func managerFixture(t *testing.T, poster *stubPoster) (*Manager, *storemem.ClientStore, *storemem.ContentStore, *eventsmem.Publisher, *fixedClock) {
	t.Helper()
	clients := storemem.NewClientStore()
	content := storemem.NewContentStore()
	events := eventsmem.New()
	clock := &fixedClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	m := NewManager(clients, content, events, clock, Config{}, zap.NewNop())
	m.connect = func(core.WordPressSite) (Poster, error) { return poster, nil }
	return m, clients, content, events, clock
}

func seedApprovedPost(t *testing.T, clients *storemem.ClientStore, content *storemem.ContentStore, status core.ContentStatus, scheduled *time.Time) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, clients.CreateClient(ctx, core.Client{
		ID:           "cl_1",
		BusinessName: "Acme Plumbing",
		WordPress:    &core.WordPressSite{URL: "https://acme.com", Username: "editor", AppPassword: "secret"},
		IsActive:     true,
	}))
	require.NoError(t, content.CreateBlogPost(ctx, core.BlogPost{
		ID:                "post_1",
		ClientID:          "cl_1",
		Title:             "Dallas Plumbing Guide",
		Slug:              "dallas-plumbing-guide",
		Body:              "<p>body</p>",
		MetaTitle:         "Dallas Plumbing Guide | Acme",
		MetaDescription:   "Everything about plumbing in Dallas.",
		PrimaryKeyword:    "plumber dallas",
		SecondaryKeywords: []string{"drain cleaning"},
		Status:            status,
		ScheduledFor:      scheduled,
	}))
}

func TestPublishBlogPost(t *testing.T) {
	t.Parallel()

	poster := &stubPoster{post: Post{ID: 99, Link: "https://acme.com/dallas-plumbing-guide", Status: "publish"}}
	m, clients, content, events, clock := managerFixture(t, poster)
	seedApprovedPost(t, clients, content, core.ContentStatusApproved, nil)

	published, err := m.PublishBlogPost(context.Background(), "post_1")
	require.NoError(t, err)
	require.Equal(t, core.ContentStatusPublished, published.Status)
	require.Equal(t, 99, published.WordPressPostID)
	require.Equal(t, "https://acme.com/dallas-plumbing-guide", published.PublishedURL)
	require.Equal(t, clock.t, *published.PublishedAt)

	require.Len(t, poster.created, 1)
	in := poster.created[0]
	require.Equal(t, "publish", in.Status)
	require.Equal(t, "plumber dallas", in.FocusKeyword)
	require.Equal(t, []string{"plumber dallas", "drain cleaning"}, in.Tags)

	stored, err := content.GetBlogPost(context.Background(), "post_1")
	require.NoError(t, err)
	require.Equal(t, core.ContentStatusPublished, stored.Status)

	fired := events.Named(core.EventContentPublished)
	require.Len(t, fired, 1)
	require.Equal(t, "post_1", fired[0].Data["post_id"])
}

func TestPublishBlogPostRequiresApproval(t *testing.T) {
	t.Parallel()

	m, clients, content, _, _ := managerFixture(t, &stubPoster{})
	seedApprovedPost(t, clients, content, core.ContentStatusDraft, nil)

	_, err := m.PublishBlogPost(context.Background(), "post_1")
	require.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestPublishBlogPostNoWordPress(t *testing.T) {
	t.Parallel()

	m, clients, content, _, _ := managerFixture(t, &stubPoster{})
	ctx := context.Background()
	require.NoError(t, clients.CreateClient(ctx, core.Client{ID: "cl_bare", IsActive: true}))
	require.NoError(t, content.CreateBlogPost(ctx, core.BlogPost{
		ID:       "post_bare",
		ClientID: "cl_bare",
		Title:    "Post",
		Status:   core.ContentStatusApproved,
	}))

	_, err := m.PublishBlogPost(ctx, "post_bare")
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestPublishDue(t *testing.T) {
	t.Parallel()

	poster := &stubPoster{post: Post{ID: 12, Link: "https://acme.com/p", Status: "publish"}}
	m, clients, content, _, clock := managerFixture(t, poster)
	past := clock.t.Add(-time.Hour)
	seedApprovedPost(t, clients, content, core.ContentStatusApproved, &past)

	// A second post scheduled in the future must not publish.
	future := clock.t.Add(time.Hour)
	require.NoError(t, content.CreateBlogPost(context.Background(), core.BlogPost{
		ID:           "post_future",
		ClientID:     "cl_1",
		Title:        "Later",
		Status:       core.ContentStatusApproved,
		ScheduledFor: &future,
	}))

	n, err := m.PublishDue(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Len(t, poster.created, 1)
}

func TestPublishDueContinuesAfterFailure(t *testing.T) {
	t.Parallel()

	poster := &stubPoster{err: errors.New("site down")}
	m, clients, content, _, clock := managerFixture(t, poster)
	past := clock.t.Add(-time.Hour)
	seedApprovedPost(t, clients, content, core.ContentStatusApproved, &past)

	n, err := m.PublishDue(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)

	// Post stays approved so the next sweep retries it.
	post, err := content.GetBlogPost(context.Background(), "post_1")
	require.NoError(t, err)
	require.Equal(t, core.ContentStatusApproved, post.Status)
}
