package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ackwest/seoengine/internal/core"
)

// RankStore implements core.RankStore on Postgres.
type RankStore struct {
	db DB
}

// NewRankStore constructs a RankStore over an existing pool.
func NewRankStore(db DB) *RankStore {
	return &RankStore{db: db}
}

const snapshotColumns = `id, client_id, keyword, domain, position, url,
	search_volume, cpc, features, checked_at`

func (s *RankStore) SaveSnapshot(ctx context.Context, snap core.RankSnapshot) error {
	features := snap.Features
	if features == nil {
		features = []core.SERPFeature{}
	}
	raw, err := json.Marshal(features)
	if err != nil {
		return fmt.Errorf("marshal serp features: %w", err)
	}
	query := `INSERT INTO rank_snapshots (` + snapshotColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err = s.db.Exec(ctx, query,
		snap.ID, snap.ClientID, snap.Keyword, snap.Domain, snap.Position,
		snap.URL, snap.SearchVolume, snap.CPC, raw, snap.CheckedAt,
	)
	return mapError("insert rank snapshot", err)
}

func (s *RankStore) LatestSnapshot(ctx context.Context, clientID, keyword string) (core.RankSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM rank_snapshots
		WHERE client_id = $1 AND keyword = $2
		ORDER BY checked_at DESC LIMIT 1`
	snap, err := scanSnapshot(s.db.QueryRow(ctx, query, clientID, keyword))
	if err != nil {
		return core.RankSnapshot{}, mapError("latest rank snapshot", err)
	}
	return snap, nil
}

func (s *RankStore) History(ctx context.Context, clientID, keyword string, since time.Time) ([]core.RankSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM rank_snapshots
		WHERE client_id = $1 AND keyword = $2`
	args := []any{clientID, keyword}
	if !since.IsZero() {
		query += ` AND checked_at >= $3`
		args = append(args, since)
	}
	query += ` ORDER BY checked_at`
	return s.querySnapshots(ctx, "rank history", query, args...)
}

func (s *RankStore) LatestForClient(ctx context.Context, clientID string) ([]core.RankSnapshot, error) {
	query := `SELECT DISTINCT ON (keyword) ` + snapshotColumns + `
		FROM rank_snapshots WHERE client_id = $1
		ORDER BY keyword, checked_at DESC`
	return s.querySnapshots(ctx, "latest rank snapshots", query, clientID)
}

func (s *RankStore) querySnapshots(ctx context.Context, op, query string, args ...any) ([]core.RankSnapshot, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	var out []core.RankSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, mapError("scan rank snapshot", err)
		}
		out = append(out, snap)
	}
	return out, mapError(op, rows.Err())
}

func scanSnapshot(row rowScanner) (core.RankSnapshot, error) {
	var (
		snap core.RankSnapshot
		raw  []byte
	)
	err := row.Scan(
		&snap.ID, &snap.ClientID, &snap.Keyword, &snap.Domain,
		&snap.Position, &snap.URL, &snap.SearchVolume, &snap.CPC,
		&raw, &snap.CheckedAt,
	)
	if err != nil {
		return core.RankSnapshot{}, err
	}
	if err := json.Unmarshal(raw, &snap.Features); err != nil {
		return core.RankSnapshot{}, fmt.Errorf("unmarshal serp features: %w", err)
	}
	return snap, nil
}
