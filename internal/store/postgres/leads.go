package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ackwest/seoengine/internal/core"
)

// LeadStore implements core.LeadStore on Postgres.
type LeadStore struct {
	db DB
}

// NewLeadStore constructs a LeadStore over an existing pool.
func NewLeadStore(db DB) *LeadStore {
	return &LeadStore{db: db}
}

const leadColumns = `id, client_id, name, email, phone, message, source, status,
	estimated_value, created_at, updated_at`

func (s *LeadStore) CreateLead(ctx context.Context, lead core.Lead) error {
	query := `INSERT INTO leads (` + leadColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := s.db.Exec(ctx, query,
		lead.ID, lead.ClientID, lead.Name, lead.Email, lead.Phone,
		lead.Message, lead.Source, lead.Status, lead.EstimatedValue,
		lead.CreatedAt, lead.UpdatedAt,
	)
	return mapError("insert lead", err)
}

func (s *LeadStore) GetLead(ctx context.Context, id string) (core.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	lead, err := scanLead(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return core.Lead{}, mapError("get lead", err)
	}
	return lead, nil
}

func (s *LeadStore) ListLeads(ctx context.Context, clientID string, status core.LeadStatus, since time.Time) ([]core.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE client_id = $1`
	args := []any{clientID}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if !since.IsZero() {
		args = append(args, since)
		query += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list leads", err)
	}
	defer rows.Close()

	var out []core.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, mapError("scan lead", err)
		}
		out = append(out, lead)
	}
	return out, mapError("list leads", rows.Err())
}

func (s *LeadStore) UpdateLead(ctx context.Context, lead core.Lead) error {
	query := `UPDATE leads SET
		name = $2, email = $3, phone = $4, message = $5, source = $6,
		status = $7, estimated_value = $8, updated_at = $9
		WHERE id = $1`
	tag, err := s.db.Exec(ctx, query,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.Message,
		lead.Source, lead.Status, lead.EstimatedValue, lead.UpdatedAt,
	)
	if err != nil {
		return mapError("update lead", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update lead %s: %w", lead.ID, core.ErrNotFound)
	}
	return nil
}

func scanLead(row rowScanner) (core.Lead, error) {
	var lead core.Lead
	err := row.Scan(
		&lead.ID, &lead.ClientID, &lead.Name, &lead.Email, &lead.Phone,
		&lead.Message, &lead.Source, &lead.Status, &lead.EstimatedValue,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	return lead, err
}
