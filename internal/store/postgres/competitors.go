package postgres

import (
	"context"
	"fmt"

	"github.com/ackwest/seoengine/internal/core"
)

// CompetitorStore implements core.CompetitorStore on Postgres.
type CompetitorStore struct {
	db DB
}

// NewCompetitorStore constructs a CompetitorStore over an existing pool.
func NewCompetitorStore(db DB) *CompetitorStore {
	return &CompetitorStore{db: db}
}

const competitorColumns = `id, client_id, domain, name, is_active, last_crawl, created_at`

func (s *CompetitorStore) CreateCompetitor(ctx context.Context, competitor core.Competitor) error {
	query := `INSERT INTO competitors (` + competitorColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := s.db.Exec(ctx, query,
		competitor.ID, competitor.ClientID, competitor.Domain,
		competitor.Name, competitor.IsActive, competitor.LastCrawl,
		competitor.CreatedAt,
	)
	return mapError("insert competitor", err)
}

func (s *CompetitorStore) GetCompetitor(ctx context.Context, id string) (core.Competitor, error) {
	query := `SELECT ` + competitorColumns + ` FROM competitors WHERE id = $1`
	competitor, err := scanCompetitor(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return core.Competitor{}, mapError("get competitor", err)
	}
	return competitor, nil
}

func (s *CompetitorStore) ListCompetitors(ctx context.Context, clientID string) ([]core.Competitor, error) {
	query := `SELECT ` + competitorColumns + ` FROM competitors
		WHERE client_id = $1 ORDER BY domain`
	return s.queryCompetitors(ctx, "list competitors", query, clientID)
}

func (s *CompetitorStore) ListAllActiveCompetitors(ctx context.Context) ([]core.Competitor, error) {
	query := `SELECT ` + competitorColumns + ` FROM competitors
		WHERE is_active ORDER BY client_id, domain`
	return s.queryCompetitors(ctx, "list active competitors", query)
}

func (s *CompetitorStore) UpdateCompetitor(ctx context.Context, competitor core.Competitor) error {
	query := `UPDATE competitors SET
		domain = $2, name = $3, is_active = $4, last_crawl = $5
		WHERE id = $1`
	tag, err := s.db.Exec(ctx, query,
		competitor.ID, competitor.Domain, competitor.Name,
		competitor.IsActive, competitor.LastCrawl,
	)
	if err != nil {
		return mapError("update competitor", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update competitor %s: %w", competitor.ID, core.ErrNotFound)
	}
	return nil
}

func (s *CompetitorStore) UpsertPage(ctx context.Context, page core.CompetitorPage) error {
	query := `INSERT INTO competitor_pages (
		id, competitor_id, url, title, content_hash, snapshot_uri,
		change_count, first_seen, last_seen, last_changed
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	ON CONFLICT (competitor_id, url) DO UPDATE SET
		title = EXCLUDED.title,
		content_hash = EXCLUDED.content_hash,
		snapshot_uri = EXCLUDED.snapshot_uri,
		change_count = EXCLUDED.change_count,
		last_seen = EXCLUDED.last_seen,
		last_changed = EXCLUDED.last_changed`
	_, err := s.db.Exec(ctx, query,
		page.ID, page.CompetitorID, page.URL, page.Title, page.ContentHash,
		page.SnapshotURI, page.ChangeCount, page.FirstSeen, page.LastSeen,
		page.LastChanged,
	)
	return mapError("upsert competitor page", err)
}

func (s *CompetitorStore) GetPageByURL(ctx context.Context, competitorID, url string) (core.CompetitorPage, error) {
	query := `SELECT ` + pageColumns + ` FROM competitor_pages
		WHERE competitor_id = $1 AND url = $2`
	page, err := scanPage(s.db.QueryRow(ctx, query, competitorID, url))
	if err != nil {
		return core.CompetitorPage{}, mapError("get competitor page", err)
	}
	return page, nil
}

func (s *CompetitorStore) ListPages(ctx context.Context, competitorID string) ([]core.CompetitorPage, error) {
	query := `SELECT ` + pageColumns + ` FROM competitor_pages
		WHERE competitor_id = $1 ORDER BY url`
	rows, err := s.db.Query(ctx, query, competitorID)
	if err != nil {
		return nil, mapError("list competitor pages", err)
	}
	defer rows.Close()

	var out []core.CompetitorPage
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, mapError("scan competitor page", err)
		}
		out = append(out, page)
	}
	return out, mapError("list competitor pages", rows.Err())
}

const pageColumns = `id, competitor_id, url, title, content_hash, snapshot_uri,
	change_count, first_seen, last_seen, last_changed`

func (s *CompetitorStore) queryCompetitors(ctx context.Context, op, query string, args ...any) ([]core.Competitor, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	var out []core.Competitor
	for rows.Next() {
		competitor, err := scanCompetitor(rows)
		if err != nil {
			return nil, mapError("scan competitor", err)
		}
		out = append(out, competitor)
	}
	return out, mapError(op, rows.Err())
}

func scanCompetitor(row rowScanner) (core.Competitor, error) {
	var competitor core.Competitor
	err := row.Scan(
		&competitor.ID, &competitor.ClientID, &competitor.Domain,
		&competitor.Name, &competitor.IsActive, &competitor.LastCrawl,
		&competitor.CreatedAt,
	)
	return competitor, err
}

func scanPage(row rowScanner) (core.CompetitorPage, error) {
	var page core.CompetitorPage
	err := row.Scan(
		&page.ID, &page.CompetitorID, &page.URL, &page.Title,
		&page.ContentHash, &page.SnapshotURI, &page.ChangeCount,
		&page.FirstSeen, &page.LastSeen, &page.LastChanged,
	)
	return page, err
}
