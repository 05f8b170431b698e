// Package wordpress publishes approved content to client WordPress
// sites over the REST v2 API.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
)

// ErrNotConnected is returned when a client has no WordPress
// credentials on file.
var ErrNotConnected = errors.New("wordpress: site not connected")

const maxBodyBytes = 16 << 20

// Config tunes the REST client.
type Config struct {
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = time.Second
	}
	return c
}

// PostInput is everything needed to create or update a post.
type PostInput struct {
	Title   string
	Content string
	Status  string // draft, publish, pending, private, future
	Slug    string
	Excerpt string
	Date    *time.Time // required for future posts

	Categories []string // names, created when missing
	Tags       []string

	FeaturedImageURL string

	MetaTitle       string
	MetaDescription string
	FocusKeyword    string
}

// Post is the subset of the REST post object the pipeline needs.
type Post struct {
	ID     int    `json:"id"`
	Link   string `json:"link"`
	Status string `json:"status"`
	Slug   string `json:"slug"`
	Title  string `json:"-"`
}

// Term is one category or tag.
type Term struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type rendered struct {
	Rendered string `json:"rendered"`
}

type restPost struct {
	ID     int      `json:"id"`
	Link   string   `json:"link"`
	Status string   `json:"status"`
	Slug   string   `json:"slug"`
	Title  rendered `json:"title"`
}

func (p restPost) post() Post {
	return Post{ID: p.ID, Link: p.Link, Status: p.Status, Slug: p.Slug, Title: p.Title.Rendered}
}

// Client talks to one WordPress site using an application password.
type Client struct {
	apiURL   string
	siteURL  string
	username string
	password string
	cfg      Config
	http     *http.Client
	log      *zap.Logger
}

// NewClient builds a client for one site.
func NewClient(site core.WordPressSite, cfg Config, log *zap.Logger) (*Client, error) {
	if site.URL == "" || site.Username == "" || site.AppPassword == "" {
		return nil, ErrNotConnected
	}
	siteURL := strings.TrimRight(site.URL, "/")
	if !strings.HasPrefix(siteURL, "http://") && !strings.HasPrefix(siteURL, "https://") {
		siteURL = "https://" + siteURL
	}
	cfg = cfg.withDefaults()
	return &Client{
		apiURL:   siteURL + "/wp-json/wp/v2",
		siteURL:  siteURL,
		username: site.Username,
		password: site.AppPassword,
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		log:      log.Named("wordpress"),
	}, nil
}

// TestConnection verifies the credentials by fetching the
// authenticated user.
func (c *Client) TestConnection(ctx context.Context) error {
	var user struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/users/me?context=edit", nil, &user); err != nil {
		return fmt.Errorf("test connection: %w", err)
	}
	if user.ID == 0 {
		return fmt.Errorf("test connection: authenticated user not returned")
	}
	return nil
}

// CreatePost creates a post, resolving category and tag names, then
// sideloads the featured image and writes SEO plugin meta. Image and
// meta failures are logged, not fatal: the post itself is up.
func (c *Client) CreatePost(ctx context.Context, in PostInput) (Post, error) {
	body := map[string]any{
		"title":   in.Title,
		"content": in.Content,
		"status":  in.Status,
	}
	if in.Slug != "" {
		body["slug"] = in.Slug
	}
	if in.Excerpt != "" {
		body["excerpt"] = in.Excerpt
	}
	if in.Date != nil && in.Status == "future" {
		body["date"] = in.Date.Format(time.RFC3339)
	}
	if ids := c.resolveTerms(ctx, "categories", in.Categories); len(ids) > 0 {
		body["categories"] = ids
	}
	if ids := c.resolveTerms(ctx, "tags", in.Tags); len(ids) > 0 {
		body["tags"] = ids
	}

	var created restPost
	if err := c.doJSON(ctx, http.MethodPost, "/posts", body, &created); err != nil {
		return Post{}, fmt.Errorf("create post: %w", err)
	}

	if in.FeaturedImageURL != "" {
		if err := c.setFeaturedImage(ctx, created.ID, in.FeaturedImageURL); err != nil {
			c.log.Warn("set featured image failed",
				zap.Int("post_id", created.ID), zap.Error(err))
		}
	}
	if err := c.setSEOMeta(ctx, created.ID, in); err != nil {
		c.log.Warn("set seo meta failed",
			zap.Int("post_id", created.ID), zap.Error(err))
	}
	return created.post(), nil
}

// UpdatePost applies partial updates to an existing post.
func (c *Client) UpdatePost(ctx context.Context, postID int, fields map[string]any) (Post, error) {
	var updated restPost
	if err := c.doJSON(ctx, http.MethodPost, "/posts/"+strconv.Itoa(postID), fields, &updated); err != nil {
		return Post{}, fmt.Errorf("update post %d: %w", postID, err)
	}
	return updated.post(), nil
}

// GetCategories lists the site's categories.
func (c *Client) GetCategories(ctx context.Context) ([]Term, error) {
	var terms []Term
	if err := c.doJSON(ctx, http.MethodGet, "/categories?per_page=100", nil, &terms); err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}
	return terms, nil
}

// GetPosts lists recent posts with the given status.
func (c *Client) GetPosts(ctx context.Context, status string, perPage int) ([]Post, error) {
	if status == "" {
		status = "publish"
	}
	if perPage <= 0 {
		perPage = 10
	}
	var posts []restPost
	p := fmt.Sprintf("/posts?status=%s&per_page=%d", url.QueryEscape(status), perPage)
	if err := c.doJSON(ctx, http.MethodGet, p, nil, &posts); err != nil {
		return nil, fmt.Errorf("get posts: %w", err)
	}
	out := make([]Post, 0, len(posts))
	for _, rp := range posts {
		out = append(out, rp.post())
	}
	return out, nil
}

// resolveTerms maps names to term IDs, creating terms that do not
// exist yet. Failures drop the term rather than failing the post.
func (c *Client) resolveTerms(ctx context.Context, kind string, names []string) []int {
	var ids []int
	for _, name := range names {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		id, err := c.findOrCreateTerm(ctx, kind, name)
		if err != nil {
			c.log.Warn("resolve term failed",
				zap.String("kind", kind), zap.String("name", name), zap.Error(err))
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (c *Client) findOrCreateTerm(ctx context.Context, kind, name string) (int, error) {
	var found []Term
	p := "/" + kind + "?search=" + url.QueryEscape(name)
	if err := c.doJSON(ctx, http.MethodGet, p, nil, &found); err != nil {
		return 0, err
	}
	for _, t := range found {
		if strings.EqualFold(t.Name, name) {
			return t.ID, nil
		}
	}
	var created Term
	if err := c.doJSON(ctx, http.MethodPost, "/"+kind, map[string]any{"name": name}, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// setFeaturedImage downloads the image, uploads it to the media
// library, and attaches it to the post.
func (c *Client) setFeaturedImage(ctx context.Context, postID int, imageURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return fmt.Errorf("build image request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download image: status %d", resp.StatusCode)
	}
	img, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	filename := path.Base(imageURL)
	if filename == "" || filename == "." || filename == "/" || !strings.Contains(filename, ".") {
		filename = "featured-image.jpg"
	}
	if i := strings.IndexByte(filename, '?'); i >= 0 {
		filename = filename[:i]
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	upload, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/media", bytes.NewReader(img))
	if err != nil {
		return fmt.Errorf("build upload: %w", err)
	}
	upload.SetBasicAuth(c.username, c.password)
	upload.Header.Set("Content-Type", contentType)
	upload.Header.Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	uploadResp, err := c.http.Do(upload)
	if err != nil {
		return fmt.Errorf("upload media: %w", err)
	}
	defer uploadResp.Body.Close()
	if uploadResp.StatusCode != http.StatusCreated && uploadResp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload media: status %d", uploadResp.StatusCode)
	}
	var media struct {
		ID int `json:"id"`
	}
	if err := json.NewDecoder(io.LimitReader(uploadResp.Body, maxBodyBytes)).Decode(&media); err != nil {
		return fmt.Errorf("decode media: %w", err)
	}

	_, err = c.UpdatePost(ctx, postID, map[string]any{"featured_media": media.ID})
	return err
}

// setSEOMeta writes both Yoast and RankMath meta keys so the post is
// covered whichever plugin the site runs.
func (c *Client) setSEOMeta(ctx context.Context, postID int, in PostInput) error {
	yoast := map[string]any{}
	rankmath := map[string]any{}
	if in.MetaTitle != "" {
		yoast["_yoast_wpseo_title"] = in.MetaTitle
		rankmath["rank_math_title"] = in.MetaTitle
	}
	if in.MetaDescription != "" {
		yoast["_yoast_wpseo_metadesc"] = in.MetaDescription
		rankmath["rank_math_description"] = in.MetaDescription
	}
	if in.FocusKeyword != "" {
		yoast["_yoast_wpseo_focuskw"] = in.FocusKeyword
		rankmath["rank_math_focus_keyword"] = in.FocusKeyword
	}
	if len(yoast) == 0 {
		return nil
	}
	if _, err := c.UpdatePost(ctx, postID, map[string]any{"meta": yoast}); err != nil {
		return err
	}
	if _, err := c.UpdatePost(ctx, postID, map[string]any{"meta": rankmath}); err != nil {
		// RankMath not installed is common, log at debug level only.
		c.log.Debug("rankmath meta rejected", zap.Int("post_id", postID), zap.Error(err))
	}
	return nil
}

// doJSON issues one authenticated request with bounded retries on
// transport errors and 5xx replies.
func (c *Client) doJSON(ctx context.Context, method, p string, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.cfg.Backoff * time.Duration(1<<(attempt-1))):
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.apiURL+p, reader)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.SetBasicAuth(c.username, c.password)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, truncate(respBody, 200))
			continue
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("status %d: %s", resp.StatusCode, truncate(respBody, 200))
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("after %d attempts: %w", c.cfg.MaxRetries, lastErr)
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
