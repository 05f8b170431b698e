package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ackwest/seoengine/internal/core"
)

// clientProfile bundles the structured parts of a client row into one
// JSONB column so keyword lists and platform tokens travel together.
type clientProfile struct {
	PrimaryKeywords     []string                           `json:"primary_keywords,omitempty"`
	SecondaryKeywords   []string                           `json:"secondary_keywords,omitempty"`
	CompetitorDomains   []string                           `json:"competitors,omitempty"`
	ServiceAreas        []string                           `json:"service_areas,omitempty"`
	UniqueSellingPoints []string                           `json:"unique_selling_points,omitempty"`
	ServicePages        []core.ServicePage                 `json:"service_pages,omitempty"`
	WordPress           *core.WordPressSite                `json:"wordpress,omitempty"`
	Integrations        map[core.Platform]core.Integration `json:"integrations,omitempty"`
}

// ClientStore implements core.ClientStore on Postgres.
type ClientStore struct {
	db DB
}

// NewClientStore constructs a ClientStore over an existing pool.
func NewClientStore(db DB) *ClientStore {
	return &ClientStore{db: db}
}

const clientColumns = `id, business_name, industry, geo, website_url, phone, email, tone,
	subscription_tier, monthly_content_limit, lead_notification_email,
	lead_notification_enabled, profile, is_active, created_at, updated_at`

func (s *ClientStore) CreateClient(ctx context.Context, client core.Client) error {
	profile, err := marshalProfile(client)
	if err != nil {
		return err
	}
	query := `INSERT INTO clients (` + clientColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	_, err = s.db.Exec(ctx, query,
		client.ID, client.BusinessName, client.Industry, client.Geo,
		client.WebsiteURL, client.Phone, client.Email, client.Tone,
		client.SubscriptionTier, client.MonthlyContentLimit,
		client.LeadNotificationEmail, client.LeadNotificationEnabled,
		profile, client.IsActive, client.CreatedAt, client.UpdatedAt,
	)
	return mapError("insert client", err)
}

func (s *ClientStore) GetClient(ctx context.Context, id string) (core.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	client, err := scanClient(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return core.Client{}, mapError("get client", err)
	}
	return client, nil
}

func (s *ClientStore) ListClients(ctx context.Context, activeOnly bool) ([]core.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY business_name`
	if activeOnly {
		query = `SELECT ` + clientColumns + ` FROM clients WHERE is_active ORDER BY business_name`
	}
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, mapError("list clients", err)
	}
	defer rows.Close()

	var out []core.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, mapError("scan client", err)
		}
		out = append(out, client)
	}
	return out, mapError("list clients", rows.Err())
}

func (s *ClientStore) UpdateClient(ctx context.Context, client core.Client) error {
	profile, err := marshalProfile(client)
	if err != nil {
		return err
	}
	query := `UPDATE clients SET
		business_name = $2, industry = $3, geo = $4, website_url = $5,
		phone = $6, email = $7, tone = $8, subscription_tier = $9,
		monthly_content_limit = $10, lead_notification_email = $11,
		lead_notification_enabled = $12, profile = $13, is_active = $14,
		updated_at = $15
		WHERE id = $1`
	tag, err := s.db.Exec(ctx, query,
		client.ID, client.BusinessName, client.Industry, client.Geo,
		client.WebsiteURL, client.Phone, client.Email, client.Tone,
		client.SubscriptionTier, client.MonthlyContentLimit,
		client.LeadNotificationEmail, client.LeadNotificationEnabled,
		profile, client.IsActive, client.UpdatedAt,
	)
	if err != nil {
		return mapError("update client", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update client %s: %w", client.ID, core.ErrNotFound)
	}
	return nil
}

func (s *ClientStore) DeleteClient(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return mapError("delete client", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete client %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func marshalProfile(client core.Client) ([]byte, error) {
	raw, err := json.Marshal(clientProfile{
		PrimaryKeywords:     client.PrimaryKeywords,
		SecondaryKeywords:   client.SecondaryKeywords,
		CompetitorDomains:   client.CompetitorDomains,
		ServiceAreas:        client.ServiceAreas,
		UniqueSellingPoints: client.UniqueSellingPoints,
		ServicePages:        client.ServicePages,
		WordPress:           client.WordPress,
		Integrations:        client.Integrations,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal client profile: %w", err)
	}
	return raw, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (core.Client, error) {
	var (
		client core.Client
		raw    []byte
	)
	err := row.Scan(
		&client.ID, &client.BusinessName, &client.Industry, &client.Geo,
		&client.WebsiteURL, &client.Phone, &client.Email, &client.Tone,
		&client.SubscriptionTier, &client.MonthlyContentLimit,
		&client.LeadNotificationEmail, &client.LeadNotificationEnabled,
		&raw, &client.IsActive, &client.CreatedAt, &client.UpdatedAt,
	)
	if err != nil {
		return core.Client{}, err
	}
	var profile clientProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return core.Client{}, fmt.Errorf("unmarshal client profile: %w", err)
	}
	client.PrimaryKeywords = profile.PrimaryKeywords
	client.SecondaryKeywords = profile.SecondaryKeywords
	client.CompetitorDomains = profile.CompetitorDomains
	client.ServiceAreas = profile.ServiceAreas
	client.UniqueSellingPoints = profile.UniqueSellingPoints
	client.ServicePages = profile.ServicePages
	client.WordPress = profile.WordPress
	client.Integrations = profile.Integrations
	return client, nil
}
