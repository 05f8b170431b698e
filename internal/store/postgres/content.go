package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ackwest/seoengine/internal/core"
)

// ContentStore implements core.ContentStore on Postgres.
type ContentStore struct {
	db DB
}

// NewContentStore constructs a ContentStore over an existing pool.
func NewContentStore(db DB) *ContentStore {
	return &ContentStore{db: db}
}

const blogColumns = `id, client_id, title, slug, meta_title, meta_description, body, excerpt,
	primary_keyword, secondary_keywords, word_count, seo_score, faq,
	featured_image_url, status, published_url, published_at, scheduled_for,
	wordpress_post_id, approved_at, approved_by, created_at, updated_at`

func (s *ContentStore) CreateBlogPost(ctx context.Context, post core.BlogPost) error {
	keywords, faq, err := marshalBlogJSON(post)
	if err != nil {
		return err
	}
	query := `INSERT INTO blog_posts (` + blogColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`
	_, err = s.db.Exec(ctx, query,
		post.ID, post.ClientID, post.Title, post.Slug, post.MetaTitle,
		post.MetaDescription, post.Body, post.Excerpt, post.PrimaryKeyword,
		keywords, post.WordCount, post.SEOScore, faq, post.FeaturedImageURL,
		post.Status, post.PublishedURL, post.PublishedAt, post.ScheduledFor,
		post.WordPressPostID, post.ApprovedAt, post.ApprovedBy,
		post.CreatedAt, post.UpdatedAt,
	)
	return mapError("insert blog post", err)
}

func (s *ContentStore) GetBlogPost(ctx context.Context, id string) (core.BlogPost, error) {
	query := `SELECT ` + blogColumns + ` FROM blog_posts WHERE id = $1`
	post, err := scanBlogPost(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return core.BlogPost{}, mapError("get blog post", err)
	}
	return post, nil
}

func (s *ContentStore) ListBlogPosts(ctx context.Context, clientID string, status core.ContentStatus) ([]core.BlogPost, error) {
	query := `SELECT ` + blogColumns + ` FROM blog_posts WHERE client_id = $1`
	args := []any{clientID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	return s.queryBlogPosts(ctx, "list blog posts", query, args...)
}

func (s *ContentStore) ListDueBlogPosts(ctx context.Context, now time.Time) ([]core.BlogPost, error) {
	query := `SELECT ` + blogColumns + ` FROM blog_posts
		WHERE status = $1 AND scheduled_for IS NOT NULL AND scheduled_for <= $2
		ORDER BY scheduled_for`
	return s.queryBlogPosts(ctx, "list due blog posts", query, core.ContentStatusApproved, now)
}

func (s *ContentStore) UpdateBlogPost(ctx context.Context, post core.BlogPost) error {
	keywords, faq, err := marshalBlogJSON(post)
	if err != nil {
		return err
	}
	query := `UPDATE blog_posts SET
		title = $2, slug = $3, meta_title = $4, meta_description = $5,
		body = $6, excerpt = $7, primary_keyword = $8, secondary_keywords = $9,
		word_count = $10, seo_score = $11, faq = $12, featured_image_url = $13,
		status = $14, published_url = $15, published_at = $16,
		scheduled_for = $17, wordpress_post_id = $18, approved_at = $19,
		approved_by = $20, updated_at = $21
		WHERE id = $1`
	tag, err := s.db.Exec(ctx, query,
		post.ID, post.Title, post.Slug, post.MetaTitle, post.MetaDescription,
		post.Body, post.Excerpt, post.PrimaryKeyword, keywords,
		post.WordCount, post.SEOScore, faq, post.FeaturedImageURL,
		post.Status, post.PublishedURL, post.PublishedAt, post.ScheduledFor,
		post.WordPressPostID, post.ApprovedAt, post.ApprovedBy, post.UpdatedAt,
	)
	if err != nil {
		return mapError("update blog post", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update blog post %s: %w", post.ID, core.ErrNotFound)
	}
	return nil
}

func (s *ContentStore) queryBlogPosts(ctx context.Context, op, query string, args ...any) ([]core.BlogPost, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	var out []core.BlogPost
	for rows.Next() {
		post, err := scanBlogPost(rows)
		if err != nil {
			return nil, mapError("scan blog post", err)
		}
		out = append(out, post)
	}
	return out, mapError(op, rows.Err())
}

const socialColumns = `id, client_id, platform, content, hashtags, link_url, status,
	platform_post_id, published_at, scheduled_for, created_at, updated_at`

func (s *ContentStore) CreateSocialPost(ctx context.Context, post core.SocialPost) error {
	hashtags, err := json.Marshal(emptySlice(post.Hashtags))
	if err != nil {
		return fmt.Errorf("marshal hashtags: %w", err)
	}
	query := `INSERT INTO social_posts (` + socialColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err = s.db.Exec(ctx, query,
		post.ID, post.ClientID, post.Platform, post.Content, hashtags,
		post.LinkURL, post.Status, post.PlatformPostID, post.PublishedAt,
		post.ScheduledFor, post.CreatedAt, post.UpdatedAt,
	)
	return mapError("insert social post", err)
}

func (s *ContentStore) GetSocialPost(ctx context.Context, id string) (core.SocialPost, error) {
	query := `SELECT ` + socialColumns + ` FROM social_posts WHERE id = $1`
	post, err := scanSocialPost(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return core.SocialPost{}, mapError("get social post", err)
	}
	return post, nil
}

func (s *ContentStore) ListSocialPosts(ctx context.Context, clientID string) ([]core.SocialPost, error) {
	query := `SELECT ` + socialColumns + ` FROM social_posts
		WHERE client_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, mapError("list social posts", err)
	}
	defer rows.Close()

	var out []core.SocialPost
	for rows.Next() {
		post, err := scanSocialPost(rows)
		if err != nil {
			return nil, mapError("scan social post", err)
		}
		out = append(out, post)
	}
	return out, mapError("list social posts", rows.Err())
}

func (s *ContentStore) UpdateSocialPost(ctx context.Context, post core.SocialPost) error {
	hashtags, err := json.Marshal(emptySlice(post.Hashtags))
	if err != nil {
		return fmt.Errorf("marshal hashtags: %w", err)
	}
	query := `UPDATE social_posts SET
		platform = $2, content = $3, hashtags = $4, link_url = $5,
		status = $6, platform_post_id = $7, published_at = $8,
		scheduled_for = $9, updated_at = $10
		WHERE id = $1`
	tag, err := s.db.Exec(ctx, query,
		post.ID, post.Platform, post.Content, hashtags, post.LinkURL,
		post.Status, post.PlatformPostID, post.PublishedAt,
		post.ScheduledFor, post.UpdatedAt,
	)
	if err != nil {
		return mapError("update social post", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update social post %s: %w", post.ID, core.ErrNotFound)
	}
	return nil
}

func marshalBlogJSON(post core.BlogPost) (keywords, faq []byte, err error) {
	keywords, err = json.Marshal(emptySlice(post.SecondaryKeywords))
	if err != nil {
		return nil, nil, fmt.Errorf("marshal secondary keywords: %w", err)
	}
	faqItems := post.FAQ
	if faqItems == nil {
		faqItems = []core.FAQItem{}
	}
	faq, err = json.Marshal(faqItems)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal faq: %w", err)
	}
	return keywords, faq, nil
}

func emptySlice(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func scanBlogPost(row rowScanner) (core.BlogPost, error) {
	var (
		post     core.BlogPost
		keywords []byte
		faq      []byte
	)
	err := row.Scan(
		&post.ID, &post.ClientID, &post.Title, &post.Slug, &post.MetaTitle,
		&post.MetaDescription, &post.Body, &post.Excerpt, &post.PrimaryKeyword,
		&keywords, &post.WordCount, &post.SEOScore, &faq,
		&post.FeaturedImageURL, &post.Status, &post.PublishedURL,
		&post.PublishedAt, &post.ScheduledFor, &post.WordPressPostID,
		&post.ApprovedAt, &post.ApprovedBy, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return core.BlogPost{}, err
	}
	if err := json.Unmarshal(keywords, &post.SecondaryKeywords); err != nil {
		return core.BlogPost{}, fmt.Errorf("unmarshal secondary keywords: %w", err)
	}
	if err := json.Unmarshal(faq, &post.FAQ); err != nil {
		return core.BlogPost{}, fmt.Errorf("unmarshal faq: %w", err)
	}
	return post, nil
}

func scanSocialPost(row rowScanner) (core.SocialPost, error) {
	var (
		post     core.SocialPost
		hashtags []byte
	)
	err := row.Scan(
		&post.ID, &post.ClientID, &post.Platform, &post.Content, &hashtags,
		&post.LinkURL, &post.Status, &post.PlatformPostID, &post.PublishedAt,
		&post.ScheduledFor, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return core.SocialPost{}, err
	}
	if err := json.Unmarshal(hashtags, &post.Hashtags); err != nil {
		return core.SocialPost{}, fmt.Errorf("unmarshal hashtags: %w", err)
	}
	return post, nil
}
