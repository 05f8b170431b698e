package monitor

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// PageRef is one URL discovered on a competitor site.
type PageRef struct {
	URL     string
	LastMod string
}

// Discoverer finds crawlable pages for a domain, preferring sitemaps
// and falling back to homepage links.
type Discoverer struct {
	client           *http.Client
	userAgent        string
	maxPages         int
	maxChildSitemaps int
	scheme           string
	log              *zap.Logger
}

// NewDiscoverer constructs a Discoverer.
func NewDiscoverer(cfg Config, log *zap.Logger) *Discoverer {
	cfg = cfg.withDefaults()
	return &Discoverer{
		client:           &http.Client{Timeout: cfg.RequestTimeout},
		userAgent:        cfg.UserAgent,
		maxPages:         cfg.MaxPagesPerCrawl,
		maxChildSitemaps: cfg.MaxChildSitemaps,
		scheme:           "https",
		log:              log,
	}
}

type sitemapIndex struct {
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

type sitemapURLSet struct {
	URLs []sitemapLoc `xml:"url"`
}

type sitemapLoc struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

// Discover returns up to maxPages content URLs for the domain.
func (d *Discoverer) Discover(ctx context.Context, domain string) ([]PageRef, error) {
	domain = CleanDomain(domain)
	if domain == "" {
		return nil, fmt.Errorf("empty domain")
	}

	base := d.scheme + "://" + domain
	candidates := []string{
		base + "/sitemap.xml",
		base + "/sitemap_index.xml",
		base + "/wp-sitemap.xml",
		d.scheme + "://www." + domain + "/sitemap.xml",
	}
	for _, sitemapURL := range candidates {
		refs, err := d.fetchSitemap(ctx, sitemapURL, 0)
		if err != nil {
			d.log.Debug("sitemap miss", zap.String("url", sitemapURL), zap.Error(err))
			continue
		}
		if len(refs) > 0 {
			return d.trim(refs), nil
		}
	}

	refs, err := d.crawlHomepage(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("homepage fallback for %s: %w", domain, err)
	}
	return d.trim(refs), nil
}

func (d *Discoverer) fetchSitemap(ctx context.Context, sitemapURL string, depth int) ([]PageRef, error) {
	body, err := d.get(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	var index sitemapIndex
	if err := xml.Unmarshal(body, &index); err == nil && len(index.Sitemaps) > 0 {
		if depth > 0 {
			return nil, fmt.Errorf("nested sitemap index at %s", sitemapURL)
		}
		children := index.Sitemaps
		if len(children) > d.maxChildSitemaps {
			children = children[:d.maxChildSitemaps]
		}
		var refs []PageRef
		for _, child := range children {
			loc := strings.TrimSpace(child.Loc)
			if loc == "" {
				continue
			}
			childRefs, err := d.fetchSitemap(ctx, loc, depth+1)
			if err != nil {
				d.log.Debug("child sitemap failed", zap.String("url", loc), zap.Error(err))
				continue
			}
			refs = append(refs, childRefs...)
			if len(refs) >= d.maxPages {
				break
			}
		}
		return refs, nil
	}

	var urlset sitemapURLSet
	if err := xml.Unmarshal(body, &urlset); err != nil {
		return nil, fmt.Errorf("parse sitemap %s: %w", sitemapURL, err)
	}
	var refs []PageRef
	for _, u := range urlset.URLs {
		loc := strings.TrimSpace(u.Loc)
		if loc == "" || !IsContentURL(loc) {
			continue
		}
		refs = append(refs, PageRef{URL: loc, LastMod: u.LastMod})
	}
	return refs, nil
}

func (d *Discoverer) crawlHomepage(ctx context.Context, domain string) ([]PageRef, error) {
	body, err := d.get(ctx, d.scheme+"://"+domain)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse homepage: %w", err)
	}

	seen := make(map[string]bool)
	var refs []PageRef
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if strings.HasPrefix(href, "/") {
			href = d.scheme + "://" + domain + href
		}
		if !strings.Contains(href, domain) || !IsContentURL(href) || seen[href] {
			return
		}
		seen[href] = true
		refs = append(refs, PageRef{URL: href})
	})
	return refs, nil
}

func (d *Discoverer) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: http %d", rawURL, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}

func (d *Discoverer) trim(refs []PageRef) []PageRef {
	if len(refs) > d.maxPages {
		return refs[:d.maxPages]
	}
	return refs
}

// skipPatterns mark URLs that are never worth diffing (assets, carts,
// archive/taxonomy pages).
var skipPatterns = []string{
	"/wp-content/", "/wp-admin/", "/wp-includes/",
	"/cart", "/checkout", "/my-account", "/login",
	".jpg", ".png", ".gif", ".pdf", ".css", ".js",
	"/tag/", "/category/", "/author/", "/page/",
	"#", "?",
}

// IsContentURL reports whether a URL looks like a content page.
func IsContentURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, pattern := range skipPatterns {
		if strings.Contains(lower, pattern) {
			return false
		}
	}
	return true
}

// CleanDomain strips scheme, www prefix, path, and whitespace.
func CleanDomain(domain string) string {
	domain = strings.TrimSpace(strings.ToLower(domain))
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimPrefix(domain, "www.")
	if idx := strings.IndexByte(domain, '/'); idx >= 0 {
		domain = domain[:idx]
	}
	return domain
}
