package postgres

import "context"

// Schema holds the DDL applied by Migrate. Statements are idempotent so
// the migration can run on every startup.
const Schema = `
CREATE TABLE IF NOT EXISTS clients (
	id TEXT PRIMARY KEY,
	business_name TEXT NOT NULL,
	industry TEXT NOT NULL DEFAULT '',
	geo TEXT NOT NULL DEFAULT '',
	website_url TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	tone TEXT NOT NULL DEFAULT '',
	subscription_tier TEXT NOT NULL DEFAULT '',
	monthly_content_limit INT NOT NULL DEFAULT 0,
	lead_notification_email TEXT NOT NULL DEFAULT '',
	lead_notification_enabled BOOLEAN NOT NULL DEFAULT FALSE,
	profile JSONB NOT NULL DEFAULT '{}',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS blog_posts (
	id TEXT PRIMARY KEY,
	client_id TEXT NOT NULL,
	title TEXT NOT NULL,
	slug TEXT NOT NULL,
	meta_title TEXT NOT NULL DEFAULT '',
	meta_description TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL DEFAULT '',
	excerpt TEXT NOT NULL DEFAULT '',
	primary_keyword TEXT NOT NULL DEFAULT '',
	secondary_keywords JSONB NOT NULL DEFAULT '[]',
	word_count INT NOT NULL DEFAULT 0,
	seo_score INT NOT NULL DEFAULT 0,
	faq JSONB NOT NULL DEFAULT '[]',
	featured_image_url TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	published_url TEXT NOT NULL DEFAULT '',
	published_at TIMESTAMPTZ,
	scheduled_for TIMESTAMPTZ,
	wordpress_post_id INT NOT NULL DEFAULT 0,
	approved_at TIMESTAMPTZ,
	approved_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS blog_posts_client_status_idx ON blog_posts (client_id, status);
CREATE INDEX IF NOT EXISTS blog_posts_due_idx ON blog_posts (status, scheduled_for);

CREATE TABLE IF NOT EXISTS social_posts (
	id TEXT PRIMARY KEY,
	client_id TEXT NOT NULL,
	platform TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	hashtags JSONB NOT NULL DEFAULT '[]',
	link_url TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	platform_post_id TEXT NOT NULL DEFAULT '',
	published_at TIMESTAMPTZ,
	scheduled_for TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS social_posts_client_idx ON social_posts (client_id);

CREATE TABLE IF NOT EXISTS leads (
	id TEXT PRIMARY KEY,
	client_id TEXT NOT NULL,
	name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	estimated_value DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS leads_client_created_idx ON leads (client_id, created_at);

CREATE TABLE IF NOT EXISTS reviews (
	id TEXT PRIMARY KEY,
	client_id TEXT NOT NULL,
	platform TEXT NOT NULL DEFAULT '',
	reviewer_name TEXT NOT NULL DEFAULT '',
	rating INT NOT NULL,
	review_text TEXT NOT NULL DEFAULT '',
	sentiment TEXT NOT NULL DEFAULT '',
	response TEXT NOT NULL DEFAULT '',
	suggested_response TEXT NOT NULL DEFAULT '',
	responded_at TIMESTAMPTZ,
	reviewed_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS reviews_client_reviewed_idx ON reviews (client_id, reviewed_at);

CREATE TABLE IF NOT EXISTS competitors (
	id TEXT PRIMARY KEY,
	client_id TEXT NOT NULL,
	domain TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	last_crawl TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS competitors_client_idx ON competitors (client_id);

CREATE TABLE IF NOT EXISTS competitor_pages (
	id TEXT PRIMARY KEY,
	competitor_id TEXT NOT NULL,
	url TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL DEFAULT '',
	snapshot_uri TEXT NOT NULL DEFAULT '',
	change_count INT NOT NULL DEFAULT 0,
	first_seen TIMESTAMPTZ NOT NULL,
	last_seen TIMESTAMPTZ NOT NULL,
	last_changed TIMESTAMPTZ,
	UNIQUE (competitor_id, url)
);

CREATE TABLE IF NOT EXISTS rank_snapshots (
	id TEXT PRIMARY KEY,
	client_id TEXT NOT NULL,
	keyword TEXT NOT NULL,
	domain TEXT NOT NULL DEFAULT '',
	position INT NOT NULL DEFAULT 0,
	url TEXT NOT NULL DEFAULT '',
	search_volume INT NOT NULL DEFAULT 0,
	cpc DOUBLE PRECISION NOT NULL DEFAULT 0,
	features JSONB NOT NULL DEFAULT '[]',
	checked_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS rank_snapshots_lookup_idx ON rank_snapshots (client_id, keyword, checked_at);

CREATE TABLE IF NOT EXISTS webhooks (
	id TEXT PRIMARY KEY,
	client_id TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	url TEXT NOT NULL,
	secret TEXT NOT NULL,
	events JSONB NOT NULL DEFAULT '[]',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	timeout_seconds INT NOT NULL DEFAULT 10,
	max_retries INT NOT NULL DEFAULT 3,
	total_sent INT NOT NULL DEFAULT 0,
	total_failed INT NOT NULL DEFAULT 0,
	last_status TEXT NOT NULL DEFAULT '',
	last_error TEXT NOT NULL DEFAULT '',
	last_fired_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS webhook_deliveries (
	id TEXT PRIMARY KEY,
	webhook_id TEXT NOT NULL,
	event TEXT NOT NULL,
	success BOOLEAN NOT NULL,
	attempts INT NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS webhook_deliveries_hook_idx ON webhook_deliveries (webhook_id, created_at);
`

// Migrate applies the schema. Safe to run on every startup.
func Migrate(ctx context.Context, db DB) error {
	_, err := db.Exec(ctx, Schema)
	return mapError("migrate schema", err)
}
