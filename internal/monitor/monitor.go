// Package monitor crawls competitor sites and detects content changes.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
	"github.com/ackwest/seoengine/internal/metrics"
)

// Page is one fetched competitor page.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
	UsedJS     bool
}

// Extract is the content pulled out of a page for change detection.
type Extract struct {
	Title           string
	MetaDescription string
	H1              string
	H2s             []string
	BodyText        string
	WordCount       int
}

// Fetcher retrieves a page over plain HTTP.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// Renderer retrieves a page with JavaScript executed.
type Renderer interface {
	Render(ctx context.Context, rawURL string) (Page, error)
	Close(ctx context.Context) error
}

// Detector decides whether a fetched page needs JS rendering.
type Detector interface {
	NeedsJS(ctx context.Context, page Page) bool
}

// PageDiscoverer finds crawlable pages for a domain.
type PageDiscoverer interface {
	Discover(ctx context.Context, domain string) ([]PageRef, error)
}

// Config tunes the crawl.
type Config struct {
	UserAgent        string
	RequestTimeout   time.Duration
	MaxPagesPerCrawl int
	MaxChildSitemaps int
	RenderEnabled    bool
}

func (c Config) withDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (compatible; SEOEngineBot/1.0; +https://ackwest.com/bot)"
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 15 * time.Second
	}
	if c.MaxPagesPerCrawl <= 0 {
		c.MaxPagesPerCrawl = 10
	}
	if c.MaxChildSitemaps <= 0 {
		c.MaxChildSitemaps = 5
	}
	return c
}

// Service runs competitor crawls: discover pages, fetch, hash, diff,
// snapshot, and raise competitor.alert events.
type Service struct {
	cfg         Config
	competitors core.CompetitorStore
	blobs       core.BlobStore
	events      core.EventPublisher
	hasher      core.Hasher
	clock       core.Clock
	ids         core.IDGenerator
	discoverer  PageDiscoverer
	fetcher     Fetcher
	renderer    Renderer
	detector    Detector
	log         *zap.Logger
}

// NewService wires a monitor service. renderer may be nil when headless
// rendering is disabled.
func NewService(
	cfg Config,
	competitors core.CompetitorStore,
	blobs core.BlobStore,
	events core.EventPublisher,
	hasher core.Hasher,
	clock core.Clock,
	ids core.IDGenerator,
	discoverer PageDiscoverer,
	fetcher Fetcher,
	renderer Renderer,
	detector Detector,
	log *zap.Logger,
) *Service {
	return &Service{
		cfg:         cfg.withDefaults(),
		competitors: competitors,
		blobs:       blobs,
		events:      events,
		hasher:      hasher,
		clock:       clock,
		ids:         ids,
		discoverer:  discoverer,
		fetcher:     fetcher,
		renderer:    renderer,
		detector:    detector,
		log:         log,
	}
}

// CrawlAll crawls every active competitor across all tenants. Errors on
// individual competitors are logged, not fatal.
func (s *Service) CrawlAll(ctx context.Context) error {
	competitors, err := s.competitors.ListAllActiveCompetitors(ctx)
	if err != nil {
		return fmt.Errorf("list competitors: %w", err)
	}
	for _, comp := range competitors {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.CrawlCompetitor(ctx, comp); err != nil {
			s.log.Warn("competitor crawl failed",
				zap.String("competitor_id", comp.ID),
				zap.String("domain", comp.Domain),
				zap.Error(err))
		}
	}
	return nil
}

// CrawlCompetitor crawls one competitor's pages and records changes.
func (s *Service) CrawlCompetitor(ctx context.Context, comp core.Competitor) error {
	refs, err := s.discoverer.Discover(ctx, comp.Domain)
	if err != nil {
		return fmt.Errorf("discover pages for %s: %w", comp.Domain, err)
	}
	if len(refs) > s.cfg.MaxPagesPerCrawl {
		refs = refs[:s.cfg.MaxPagesPerCrawl]
	}

	now := s.clock.Now()
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.checkPage(ctx, comp, ref.URL, now); err != nil {
			metrics.CompetitorPage("failed")
			s.log.Debug("page check failed",
				zap.String("url", ref.URL),
				zap.Error(err))
		}
	}

	comp.LastCrawl = &now
	if err := s.competitors.UpdateCompetitor(ctx, comp); err != nil {
		return fmt.Errorf("record crawl time: %w", err)
	}
	return nil
}

func (s *Service) checkPage(ctx context.Context, comp core.Competitor, rawURL string, now time.Time) error {
	page, err := s.fetchPage(ctx, rawURL)
	if err != nil {
		return err
	}
	if page.StatusCode != 0 && page.StatusCode != 200 {
		return fmt.Errorf("fetch %s: http %d", rawURL, page.StatusCode)
	}

	extract := ExtractContent(page.Body)
	hash, err := s.hasher.Hash([]byte(extract.BodyText))
	if err != nil {
		return fmt.Errorf("hash page: %w", err)
	}

	known, err := s.competitors.GetPageByURL(ctx, comp.ID, rawURL)
	if err != nil {
		// Only a missing row means a first sighting. A store error must
		// not wipe the page's change history.
		if !errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("look up page %s: %w", rawURL, err)
		}
		metrics.CompetitorPage("new")
		return s.recordPage(ctx, comp, core.CompetitorPage{
			CompetitorID: comp.ID,
			URL:          rawURL,
			Title:        extract.Title,
			ContentHash:  hash,
			FirstSeen:    now,
			LastSeen:     now,
		}, page.Body, "new_page", extract)
	}

	known.LastSeen = now
	known.Title = extract.Title
	if known.ContentHash == hash {
		metrics.CompetitorPage("unchanged")
		return s.competitors.UpsertPage(ctx, known)
	}

	metrics.CompetitorPage("changed")
	known.ContentHash = hash
	known.ChangeCount++
	known.LastChanged = &now
	return s.recordPage(ctx, comp, known, page.Body, "content_changed", extract)
}

func (s *Service) recordPage(ctx context.Context, comp core.Competitor, page core.CompetitorPage, body []byte, kind string, extract Extract) error {
	if page.ID == "" {
		id, err := s.ids.NewID()
		if err != nil {
			return fmt.Errorf("page id: %w", err)
		}
		page.ID = id
	}

	uri, err := s.blobs.PutObject(ctx,
		fmt.Sprintf("snapshots/%s/%s/%s.html", comp.ID, page.ID, page.LastSeen.UTC().Format("20060102T150405")),
		"text/html", strings.NewReader(string(body)))
	if err != nil {
		s.log.Warn("snapshot write failed", zap.String("url", page.URL), zap.Error(err))
	} else {
		page.SnapshotURI = uri
	}

	if err := s.competitors.UpsertPage(ctx, page); err != nil {
		return fmt.Errorf("upsert page: %w", err)
	}

	event := core.Event{
		Name:      core.EventCompetitorAlert,
		ClientID:  comp.ClientID,
		Timestamp: page.LastSeen,
		Data: map[string]any{
			"kind":          kind,
			"competitor_id": comp.ID,
			"domain":        comp.Domain,
			"url":           page.URL,
			"title":         extract.Title,
			"word_count":    extract.WordCount,
			"change_count":  page.ChangeCount,
		},
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("competitor alert publish failed", zap.Error(err))
	}
	return nil
}

func (s *Service) fetchPage(ctx context.Context, rawURL string) (Page, error) {
	page, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return Page{}, err
	}
	if s.renderer == nil || s.detector == nil || !s.cfg.RenderEnabled {
		return page, nil
	}
	if !s.detector.NeedsJS(ctx, page) {
		return page, nil
	}
	rendered, err := s.renderer.Render(ctx, rawURL)
	if err != nil {
		s.log.Debug("render fallback failed, using static fetch",
			zap.String("url", rawURL), zap.Error(err))
		return page, nil
	}
	return rendered, nil
}

// contentSelectors are tried in order when extracting the main body.
var contentSelectors = []string{
	"article", ".post-content", ".entry-content", ".blog-content",
	".content", "main", "#content",
}

// ExtractContent pulls the comparable text out of raw HTML.
func ExtractContent(body []byte) Extract {
	var out Extract
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return out
	}

	out.Title = cleanText(doc.Find("title").First().Text())
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		out.MetaDescription = cleanText(desc)
	}
	out.H1 = cleanText(doc.Find("h1").First().Text())
	doc.Find("h2").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		out.H2s = append(out.H2s, cleanText(sel.Text()))
		return i < 9
	})

	var container *goquery.Selection
	for _, sel := range contentSelectors {
		if found := doc.Find(sel).First(); found.Length() > 0 {
			container = found
			break
		}
	}
	if container == nil {
		container = doc.Find("body").First()
	}
	container.Find("script, style, nav, footer, header").Remove()
	out.BodyText = cleanText(container.Text())
	out.WordCount = len(strings.Fields(out.BodyText))
	return out
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
