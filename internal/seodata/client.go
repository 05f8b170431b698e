package seodata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Sentinel errors returned by the client.
var (
	ErrNotConfigured = errors.New("seodata: api key not configured")
	ErrNoData        = errors.New("seodata: no data returned")
)

// APIError is a textual error reply from the analytics API. The API
// returns these as a 200 body starting with "ERROR ".
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("seodata: api error %s: %s", e.Code, e.Message)
}

const maxResponseBytes = 8 << 20

// Config tunes the analytics API client.
type Config struct {
	BaseURL  string
	APIKey   string
	Database string
	Timeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.semrush.com"
	}
	if c.Database == "" {
		c.Database = "us"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	return c
}

// Client talks to the SEMRush-compatible CSV report API.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

// NewClient builds a Client. The API key may be empty; calls will then
// fail with ErrNotConfigured, letting callers fall back to demo data.
func NewClient(cfg Config, log *zap.Logger) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.Named("seodata"),
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.cfg.APIKey != "" }

// KeywordOverview fetches volume, CPC, competition, and difficulty
// for a single phrase.
func (c *Client) KeywordOverview(ctx context.Context, keyword string) (KeywordMetrics, error) {
	rows, err := c.report(ctx, url.Values{
		"type":           {"phrase_this"},
		"phrase":         {keyword},
		"database":       {c.cfg.Database},
		"export_columns": {"Ph,Nq,Cp,Co,Kd,Nr"},
	})
	if err != nil {
		return KeywordMetrics{}, err
	}
	if len(rows) == 0 {
		return KeywordMetrics{}, fmt.Errorf("keyword %q: %w", keyword, ErrNoData)
	}
	return parseKeywordRow(rows[0], true), nil
}

// KeywordVariations fetches related phrases for a seed keyword.
func (c *Client) KeywordVariations(ctx context.Context, keyword string, limit int) ([]KeywordMetrics, error) {
	return c.keywordList(ctx, "phrase_related", keyword, limit)
}

// KeywordQuestions fetches question-form phrases for a seed keyword.
func (c *Client) KeywordQuestions(ctx context.Context, keyword string, limit int) ([]KeywordMetrics, error) {
	return c.keywordList(ctx, "phrase_questions", keyword, limit)
}

func (c *Client) keywordList(ctx context.Context, reportType, keyword string, limit int) ([]KeywordMetrics, error) {
	rows, err := c.report(ctx, url.Values{
		"type":           {reportType},
		"phrase":         {keyword},
		"database":       {c.cfg.Database},
		"export_columns": {"Ph,Nq,Cp,Co,Kd"},
		"display_limit":  {strconv.Itoa(limit)},
	})
	if err != nil {
		return nil, err
	}
	out := make([]KeywordMetrics, 0, len(rows))
	for _, row := range rows {
		out = append(out, parseKeywordRow(row, false))
	}
	return out, nil
}

// BulkKeywordOverview fetches metrics for up to 100 phrases at once.
func (c *Client) BulkKeywordOverview(ctx context.Context, keywords []string) ([]KeywordMetrics, error) {
	if len(keywords) > 100 {
		keywords = keywords[:100]
	}
	rows, err := c.report(ctx, url.Values{
		"type":           {"phrase_these"},
		"phrase":         {strings.Join(keywords, ";")},
		"database":       {c.cfg.Database},
		"export_columns": {"Ph,Nq,Cp,Co,Kd,Nr"},
	})
	if err != nil {
		return nil, err
	}
	out := make([]KeywordMetrics, 0, len(rows))
	for _, row := range rows {
		out = append(out, parseKeywordRow(row, true))
	}
	return out, nil
}

// DomainOverview fetches a domain's organic and paid footprint.
func (c *Client) DomainOverview(ctx context.Context, domain string) (DomainOverview, error) {
	domain = CleanDomain(domain)
	rows, err := c.report(ctx, url.Values{
		"type":           {"domain_ranks"},
		"domain":         {domain},
		"database":       {c.cfg.Database},
		"export_columns": {"Db,Dn,Rk,Or,Ot,Oc,Ad,At,Ac"},
	})
	if err != nil {
		return DomainOverview{}, err
	}
	if len(rows) == 0 {
		return DomainOverview{}, fmt.Errorf("domain %q: %w", domain, ErrNoData)
	}
	v := rows[0]
	return DomainOverview{
		Domain:          domain,
		Database:        field(v, 0),
		Rank:            atoi(field(v, 2)),
		OrganicKeywords: atoi(field(v, 3)),
		OrganicTraffic:  atoi(field(v, 4)),
		OrganicCost:     atof(field(v, 5)),
		AdwordsKeywords: atoi(field(v, 6)),
		AdwordsTraffic:  atoi(field(v, 7)),
		AdwordsCost:     atof(field(v, 8)),
	}, nil
}

// DomainOrganicKeywords lists organic positions a domain holds,
// ordered by traffic. The Fk column carries SERP feature codes and Pp
// the prior position, so movement is visible in a single report.
func (c *Client) DomainOrganicKeywords(ctx context.Context, domain string, limit int) ([]DomainKeyword, error) {
	domain = CleanDomain(domain)
	rows, err := c.report(ctx, url.Values{
		"type":           {"domain_organic"},
		"domain":         {domain},
		"database":       {c.cfg.Database},
		"export_columns": {"Ph,Po,Pp,Ur,Nq,Cp,Co,Fk,Kd"},
		"display_limit":  {strconv.Itoa(limit)},
	})
	if err != nil {
		return nil, err
	}
	out := make([]DomainKeyword, 0, len(rows))
	for _, v := range rows {
		if len(v) < 7 {
			continue
		}
		out = append(out, DomainKeyword{
			Keyword:          field(v, 0),
			Position:         atoi(field(v, 1)),
			PreviousPosition: atoi(field(v, 2)),
			URL:              field(v, 3),
			Volume:           atoi(field(v, 4)),
			CPC:              atof(field(v, 5)),
			Competition:      atof(field(v, 6)),
			FeatureCodes:     splitCodes(field(v, 7)),
			Difficulty:       int(atof(field(v, 8))),
		})
	}
	return out, nil
}

// PositionFor looks up the organic position a domain holds for one
// keyword. A zero Position means the domain is outside the top 100.
func (c *Client) PositionFor(ctx context.Context, domain, keyword string) (DomainKeyword, error) {
	domain = CleanDomain(domain)
	rows, err := c.report(ctx, url.Values{
		"type":           {"domain_organic"},
		"domain":         {domain},
		"phrase":         {keyword},
		"database":       {c.cfg.Database},
		"export_columns": {"Ph,Po,Pp,Ur,Nq,Cp,Co,Fk,Kd"},
		"display_limit":  {"100"},
	})
	if err != nil {
		return DomainKeyword{}, err
	}
	for _, v := range rows {
		if !strings.EqualFold(field(v, 0), keyword) {
			continue
		}
		return DomainKeyword{
			Keyword:          keyword,
			Position:         atoi(field(v, 1)),
			PreviousPosition: atoi(field(v, 2)),
			URL:              field(v, 3),
			Volume:           atoi(field(v, 4)),
			CPC:              atof(field(v, 5)),
			Competition:      atof(field(v, 6)),
			FeatureCodes:     splitCodes(field(v, 7)),
			Difficulty:       int(atof(field(v, 8))),
		}, nil
	}
	return DomainKeyword{Keyword: keyword}, nil
}

// Competitors lists the domains sharing the most organic keywords
// with the target.
func (c *Client) Competitors(ctx context.Context, domain string, limit int) ([]CompetitorDomain, error) {
	domain = CleanDomain(domain)
	rows, err := c.report(ctx, url.Values{
		"type":           {"domain_organic_organic"},
		"domain":         {domain},
		"database":       {c.cfg.Database},
		"export_columns": {"Dn,Cr,Np,Or,Ot,Oc,Ad"},
		"display_limit":  {strconv.Itoa(limit)},
	})
	if err != nil {
		return nil, err
	}
	out := make([]CompetitorDomain, 0, len(rows))
	for _, v := range rows {
		if len(v) < 6 {
			continue
		}
		out = append(out, CompetitorDomain{
			Domain:           field(v, 0),
			CompetitionLevel: atof(field(v, 1)),
			CommonKeywords:   atoi(field(v, 2)),
			OrganicKeywords:  atoi(field(v, 3)),
			OrganicTraffic:   atoi(field(v, 4)),
			OrganicCost:      atof(field(v, 5)),
		})
	}
	return out, nil
}

// KeywordGaps finds keywords where competitors rank in the top 10 but
// the target domain does not. At most four competitors are compared.
func (c *Client) KeywordGaps(ctx context.Context, domain string, competitors []string, limit int) ([]KeywordGap, error) {
	domain = CleanDomain(domain)
	if len(competitors) > 4 {
		competitors = competitors[:4]
	}
	cleaned := make([]string, len(competitors))
	for i, comp := range competitors {
		cleaned[i] = CleanDomain(comp)
	}

	rows, err := c.report(ctx, url.Values{
		"type":           {"domain_domains"},
		"domains":        {strings.Join(append([]string{domain}, cleaned...), "|")},
		"database":       {c.cfg.Database},
		"export_columns": {"Ph,Nq,Cp,Co,Kd,P0,P1,P2,P3,P4"},
		"display_limit":  {strconv.Itoa(limit)},
		"display_sort":   {"nq_desc"},
		"display_filter": {"+|P0|Lt|11"},
	})
	if err != nil {
		return nil, err
	}

	out := make([]KeywordGap, 0, len(rows))
	for _, v := range rows {
		if len(v) < 6 {
			continue
		}
		gap := KeywordGap{
			Keyword:             field(v, 0),
			Volume:              atoi(field(v, 1)),
			CPC:                 atof(field(v, 2)),
			Competition:         atof(field(v, 3)),
			Difficulty:          atoi(field(v, 4)),
			YourPosition:        atoi(field(v, 5)),
			CompetitorPositions: make(map[string]int, len(cleaned)),
		}
		for i, comp := range cleaned {
			gap.CompetitorPositions[comp] = atoi(field(v, 6+i))
		}
		out = append(out, gap)
	}
	return out, nil
}

// BacklinkOverview fetches a domain's backlink profile summary.
func (c *Client) BacklinkOverview(ctx context.Context, domain string) (BacklinkOverview, error) {
	domain = CleanDomain(domain)
	rows, err := c.report(ctx, url.Values{
		"type":           {"backlinks_overview"},
		"target":         {domain},
		"target_type":    {"root_domain"},
		"export_columns": {"total,domains_num,urls_num,ips_num"},
	})
	if err != nil {
		return BacklinkOverview{}, err
	}
	if len(rows) == 0 {
		return BacklinkOverview{}, fmt.Errorf("domain %q: %w", domain, ErrNoData)
	}
	v := rows[0]
	return BacklinkOverview{
		Domain:           domain,
		TotalBacklinks:   atoi(field(v, 0)),
		ReferringDomains: atoi(field(v, 1)),
		ReferringURLs:    atoi(field(v, 2)),
		ReferringIPs:     atoi(field(v, 3)),
	}, nil
}

// report issues one API request and returns the parsed data rows with
// the header row stripped.
func (c *Client) report(ctx context.Context, params url.Values) ([][]string, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	params.Set("key", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s report: %w", params.Get("type"), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s report: unexpected status %d", params.Get("type"), resp.StatusCode)
	}

	text := strings.TrimSpace(string(body))
	// Errors come back as 200 bodies like "ERROR 50 :: NOTHING FOUND".
	if strings.HasPrefix(text, "ERROR") {
		code, msg, found := strings.Cut(text, "::")
		if !found {
			msg = code
		}
		apiErr := &APIError{Code: strings.TrimSpace(code), Message: strings.TrimSpace(msg)}
		if strings.Contains(apiErr.Message, "NOTHING FOUND") {
			return nil, nil
		}
		c.log.Warn("api error reply",
			zap.String("type", params.Get("type")),
			zap.String("code", apiErr.Code))
		return nil, apiErr
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return nil, nil
	}
	rows := make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rows = append(rows, strings.Split(line, ";"))
	}
	return rows, nil
}

// CleanDomain reduces a URL or hostname to a bare registrable domain.
func CleanDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimPrefix(domain, "www.")
	if i := strings.IndexByte(domain, '/'); i >= 0 {
		domain = domain[:i]
	}
	return domain
}

func parseKeywordRow(v []string, withResults bool) KeywordMetrics {
	m := KeywordMetrics{
		Keyword:     field(v, 0),
		Volume:      atoi(field(v, 1)),
		CPC:         atof(field(v, 2)),
		Competition: atof(field(v, 3)),
		Difficulty:  int(atof(field(v, 4))),
	}
	if withResults {
		m.Results = atoi(field(v, 5))
	}
	return m
}

// field safely indexes a CSV row and strips the quoting the API
// applies to phrase and URL columns.
func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.Trim(strings.TrimSpace(row[i]), `"`)
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func atof(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func splitCodes(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
