package monitor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
	eventsmem "github.com/ackwest/seoengine/internal/events/memory"
	"github.com/ackwest/seoengine/internal/hash/sha256"
	"github.com/ackwest/seoengine/internal/id/uuid"
	storemem "github.com/ackwest/seoengine/internal/store/memory"
	blobmem "github.com/ackwest/seoengine/internal/storage/memory"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type stubDiscoverer struct{ refs []PageRef }

func (d stubDiscoverer) Discover(context.Context, string) ([]PageRef, error) {
	return d.refs, nil
}

type stubFetcher struct{ pages map[string]string }

func (f stubFetcher) Fetch(_ context.Context, rawURL string) (Page, error) {
	return Page{URL: rawURL, StatusCode: 200, Body: []byte(f.pages[rawURL])}, nil
}

func TestCleanDomain(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://www.Rival.com/about": "rival.com",
		"http://rival.com":            "rival.com",
		"rival.com":                   "rival.com",
		" www.rival.com ":             "rival.com",
	}
	for in, want := range cases {
		require.Equal(t, want, CleanDomain(in), "input %q", in)
	}
}

func TestIsContentURL(t *testing.T) {
	t.Parallel()

	require.True(t, IsContentURL("https://rival.com/blog/winter-tips"))
	require.False(t, IsContentURL("https://rival.com/wp-content/uploads/a.jpg"))
	require.False(t, IsContentURL("https://rival.com/category/news/"))
	require.False(t, IsContentURL("https://rival.com/blog?page=2"))
}

func TestExtractContent(t *testing.T) {
	t.Parallel()

	html := `<html><head><title> Rival Blog </title>
		<meta name="description" content="What we do"></head>
		<body><nav>menu stuff</nav>
		<article><h1>Winter Tips</h1><h2>Pipes</h2><h2>Heaters</h2>
		<p>Keep your pipes warm.</p><script>ignored()</script></article>
		<footer>copyright</footer></body></html>`

	extract := ExtractContent([]byte(html))
	require.Equal(t, "Rival Blog", extract.Title)
	require.Equal(t, "What we do", extract.MetaDescription)
	require.Equal(t, "Winter Tips", extract.H1)
	require.Equal(t, []string{"Pipes", "Heaters"}, extract.H2s)
	require.Contains(t, extract.BodyText, "Keep your pipes warm.")
	require.NotContains(t, extract.BodyText, "ignored")
	require.NotContains(t, extract.BodyText, "menu stuff")
	require.Positive(t, extract.WordCount)
}

func TestDiscovererPrefersSitemap(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?>
			<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
			<url><loc>https://rival.com/blog/one</loc><lastmod>2026-01-01</lastmod></url>
			<url><loc>https://rival.com/wp-content/a.css</loc></url>
			<url><loc>https://rival.com/blog/two</loc></url>
			</urlset>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	d := NewDiscoverer(Config{MaxPagesPerCrawl: 10}, zap.NewNop())
	d.scheme = "http"

	host := hostOf(t, srv.URL)
	refs, err := d.Discover(context.Background(), host)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	require.Equal(t, "https://rival.com/blog/one", refs[0].URL)
	require.Equal(t, "2026-01-01", refs[0].LastMod)
}

func TestDiscovererFollowsSitemapIndex(t *testing.T) {
	t.Parallel()

	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?>
			<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
			<sitemap><loc>` + srvURL + `/posts.xml</loc></sitemap>
			</sitemapindex>`))
	})
	mux.HandleFunc("/posts.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?>
			<urlset><url><loc>https://rival.com/blog/from-child</loc></url></urlset>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL

	d := NewDiscoverer(Config{}, zap.NewNop())
	d.scheme = "http"

	refs, err := d.Discover(context.Background(), hostOf(t, srv.URL))
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "https://rival.com/blog/from-child", refs[0].URL)
}

func TestDiscovererFallsBackToHomepage(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	host := hostOf(t, srv.URL)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<html><body>
			<a href="/services/drains">Drains</a>
			<a href="/services/drains">Drains again</a>
			<a href="/cart">Cart</a>
			<a href="https://other.example.com/page">Elsewhere</a>
			</body></html>`))
	})

	d := NewDiscoverer(Config{}, zap.NewNop())
	d.scheme = "http"

	refs, err := d.Discover(context.Background(), host)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "http://"+host+"/services/drains", refs[0].URL)
}

func TestHeuristicDetector(t *testing.T) {
	t.Parallel()

	d := NewHeuristicDetector(100, []string{"article"}, []string{"__NEXT_DATA__"})
	ctx := context.Background()

	require.True(t, d.NeedsJS(ctx, Page{Body: []byte("<html></html>")}), "tiny body")

	big := []byte(`<html><body><div id="__NEXT_DATA__">{}</div>` + pad(200) + `</body></html>`)
	require.True(t, d.NeedsJS(ctx, Page{Body: big}), "framework marker")

	ok := []byte(`<html><body><article>real content here</article>` + pad(200) + `</body></html>`)
	require.False(t, d.NeedsJS(ctx, Page{Body: ok}))
}

func TestServiceDetectsChange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	competitors := storemem.NewCompetitorStore()
	blobs := blobmem.NewBlobStore()
	events := eventsmem.New()
	clock := fixedClock{t: time.Unix(1700000000, 0).UTC()}

	comp := core.Competitor{ID: "comp_1", ClientID: "client_1", Domain: "rival.com", IsActive: true}
	require.NoError(t, competitors.CreateCompetitor(ctx, comp))

	pageURL := "https://rival.com/blog/one"
	fetcher := stubFetcher{pages: map[string]string{
		pageURL: "<html><body><article><h1>V1</h1><p>original text</p></article></body></html>",
	}}

	svc := NewService(Config{}, competitors, blobs, events, sha256.New(), clock, uuid.NewPrefixed("page"),
		stubDiscoverer{refs: []PageRef{{URL: pageURL}}}, fetcher, nil, nil, zap.NewNop())

	// first crawl: new page
	require.NoError(t, svc.CrawlAll(ctx))
	alerts := events.Named(core.EventCompetitorAlert)
	require.Len(t, alerts, 1)
	require.Equal(t, "new_page", alerts[0].Data["kind"])
	require.Equal(t, "client_1", alerts[0].ClientID)

	pages, err := competitors.ListPages(ctx, "comp_1")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.NotEmpty(t, pages[0].ContentHash)
	require.NotEmpty(t, pages[0].SnapshotURI)
	require.Zero(t, pages[0].ChangeCount)

	got, err := competitors.GetCompetitor(ctx, "comp_1")
	require.NoError(t, err)
	require.NotNil(t, got.LastCrawl)

	// second crawl: unchanged, no new alert
	require.NoError(t, svc.CrawlAll(ctx))
	require.Len(t, events.Named(core.EventCompetitorAlert), 1)

	// third crawl: content changed
	fetcher.pages[pageURL] = "<html><body><article><h1>V2</h1><p>rewritten text</p></article></body></html>"
	require.NoError(t, svc.CrawlAll(ctx))

	alerts = events.Named(core.EventCompetitorAlert)
	require.Len(t, alerts, 2)
	require.Equal(t, "content_changed", alerts[1].Data["kind"])

	pages, err = competitors.ListPages(ctx, "comp_1")
	require.NoError(t, err)
	require.Equal(t, 1, pages[0].ChangeCount)
	require.NotNil(t, pages[0].LastChanged)
}

// flakyCompetitorStore fails page lookups on demand while leaving the
// rest of the store intact.
type flakyCompetitorStore struct {
	*storemem.CompetitorStore
	failLookups bool
}

func (s *flakyCompetitorStore) GetPageByURL(ctx context.Context, competitorID, url string) (core.CompetitorPage, error) {
	if s.failLookups {
		return core.CompetitorPage{}, errors.New("read tcp: connection reset by peer")
	}
	return s.CompetitorStore.GetPageByURL(ctx, competitorID, url)
}

func TestTransientLookupErrorKeepsPageHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	competitors := &flakyCompetitorStore{CompetitorStore: storemem.NewCompetitorStore()}
	blobs := blobmem.NewBlobStore()
	events := eventsmem.New()
	clock := fixedClock{t: time.Unix(1700000000, 0).UTC()}

	comp := core.Competitor{ID: "comp_1", ClientID: "client_1", Domain: "rival.com", IsActive: true}
	require.NoError(t, competitors.CreateCompetitor(ctx, comp))

	pageURL := "https://rival.com/blog/one"
	fetcher := stubFetcher{pages: map[string]string{
		pageURL: "<html><body><article><h1>V1</h1><p>original text</p></article></body></html>",
	}}

	svc := NewService(Config{}, competitors, blobs, events, sha256.New(), clock, uuid.NewPrefixed("page"),
		stubDiscoverer{refs: []PageRef{{URL: pageURL}}}, fetcher, nil, nil, zap.NewNop())

	// Establish the page with some accumulated history.
	require.NoError(t, svc.CrawlAll(ctx))
	pages, err := competitors.ListPages(ctx, "comp_1")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	seeded := pages[0]
	seeded.ChangeCount = 5
	require.NoError(t, competitors.UpsertPage(ctx, seeded))

	// A failing lookup must not pass for a first sighting.
	competitors.failLookups = true
	require.NoError(t, svc.CrawlAll(ctx))

	require.Len(t, events.Named(core.EventCompetitorAlert), 1)
	pages, err = competitors.ListPages(ctx, "comp_1")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Equal(t, 5, pages[0].ChangeCount)
	require.Equal(t, seeded.FirstSeen, pages[0].FirstSeen)

	// Once the store recovers the page is matched again, not recreated.
	competitors.failLookups = false
	require.NoError(t, svc.CrawlAll(ctx))
	pages, err = competitors.ListPages(ctx, "comp_1")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Equal(t, 5, pages[0].ChangeCount)
	require.Len(t, events.Named(core.EventCompetitorAlert), 1)
}

func hostOf(t *testing.T, rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return u.Host
}

func pad(n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = 'x'
	}
	return string(out)
}
