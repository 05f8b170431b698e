package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ackwest/seoengine/internal/core"
)

// ReviewStore implements core.ReviewStore on Postgres.
type ReviewStore struct {
	db DB
}

// NewReviewStore constructs a ReviewStore over an existing pool.
func NewReviewStore(db DB) *ReviewStore {
	return &ReviewStore{db: db}
}

const reviewColumns = `id, client_id, platform, reviewer_name, rating, review_text,
	sentiment, response, suggested_response, responded_at, reviewed_at, created_at`

func (s *ReviewStore) CreateReview(ctx context.Context, review core.Review) error {
	query := `INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err := s.db.Exec(ctx, query,
		review.ID, review.ClientID, review.Platform, review.ReviewerName,
		review.Rating, review.Text, review.Sentiment, review.Response,
		review.SuggestedResponse, review.RespondedAt, review.ReviewedAt,
		review.CreatedAt,
	)
	return mapError("insert review", err)
}

func (s *ReviewStore) GetReview(ctx context.Context, id string) (core.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`
	review, err := scanReview(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return core.Review{}, mapError("get review", err)
	}
	return review, nil
}

func (s *ReviewStore) ListReviews(ctx context.Context, clientID string, since time.Time) ([]core.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE client_id = $1`
	args := []any{clientID}
	if !since.IsZero() {
		query += ` AND reviewed_at >= $2`
		args = append(args, since)
	}
	query += ` ORDER BY reviewed_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list reviews", err)
	}
	defer rows.Close()

	var out []core.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, mapError("scan review", err)
		}
		out = append(out, review)
	}
	return out, mapError("list reviews", rows.Err())
}

func (s *ReviewStore) UpdateReview(ctx context.Context, review core.Review) error {
	query := `UPDATE reviews SET
		sentiment = $2, response = $3, suggested_response = $4, responded_at = $5
		WHERE id = $1`
	tag, err := s.db.Exec(ctx, query,
		review.ID, review.Sentiment, review.Response,
		review.SuggestedResponse, review.RespondedAt,
	)
	if err != nil {
		return mapError("update review", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update review %s: %w", review.ID, core.ErrNotFound)
	}
	return nil
}

func scanReview(row rowScanner) (core.Review, error) {
	var review core.Review
	err := row.Scan(
		&review.ID, &review.ClientID, &review.Platform, &review.ReviewerName,
		&review.Rating, &review.Text, &review.Sentiment, &review.Response,
		&review.SuggestedResponse, &review.RespondedAt, &review.ReviewedAt,
		&review.CreatedAt,
	)
	return review, err
}
