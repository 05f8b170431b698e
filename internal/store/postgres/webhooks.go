package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ackwest/seoengine/internal/core"
)

// WebhookStore implements core.WebhookStore on Postgres.
type WebhookStore struct {
	db DB
}

// NewWebhookStore constructs a WebhookStore over an existing pool.
func NewWebhookStore(db DB) *WebhookStore {
	return &WebhookStore{db: db}
}

const webhookColumns = `id, client_id, name, url, secret, events, is_active,
	timeout_seconds, max_retries, total_sent, total_failed, last_status,
	last_error, last_fired_at, created_at, updated_at`

func (s *WebhookStore) CreateWebhook(ctx context.Context, hook core.Webhook) error {
	events, err := json.Marshal(emptySlice(hook.Events))
	if err != nil {
		return fmt.Errorf("marshal webhook events: %w", err)
	}
	query := `INSERT INTO webhooks (` + webhookColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	_, err = s.db.Exec(ctx, query,
		hook.ID, hook.ClientID, hook.Name, hook.URL, hook.Secret, events,
		hook.IsActive, hook.TimeoutSeconds, hook.MaxRetries, hook.TotalSent,
		hook.TotalFailed, hook.LastStatus, hook.LastError, hook.LastFiredAt,
		hook.CreatedAt, hook.UpdatedAt,
	)
	return mapError("insert webhook", err)
}

func (s *WebhookStore) GetWebhook(ctx context.Context, id string) (core.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE id = $1`
	hook, err := scanWebhook(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return core.Webhook{}, mapError("get webhook", err)
	}
	return hook, nil
}

// ListWebhooks returns the client's endpoints plus global ones. An empty
// clientID returns global endpoints only.
func (s *WebhookStore) ListWebhooks(ctx context.Context, clientID string) ([]core.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks
		WHERE client_id = '' OR client_id = $1 ORDER BY created_at`
	rows, err := s.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, mapError("list webhooks", err)
	}
	defer rows.Close()

	var out []core.Webhook
	for rows.Next() {
		hook, err := scanWebhook(rows)
		if err != nil {
			return nil, mapError("scan webhook", err)
		}
		out = append(out, hook)
	}
	return out, mapError("list webhooks", rows.Err())
}

func (s *WebhookStore) UpdateWebhook(ctx context.Context, hook core.Webhook) error {
	events, err := json.Marshal(emptySlice(hook.Events))
	if err != nil {
		return fmt.Errorf("marshal webhook events: %w", err)
	}
	query := `UPDATE webhooks SET
		name = $2, url = $3, secret = $4, events = $5, is_active = $6,
		timeout_seconds = $7, max_retries = $8, total_sent = $9,
		total_failed = $10, last_status = $11, last_error = $12,
		last_fired_at = $13, updated_at = $14
		WHERE id = $1`
	tag, err := s.db.Exec(ctx, query,
		hook.ID, hook.Name, hook.URL, hook.Secret, events, hook.IsActive,
		hook.TimeoutSeconds, hook.MaxRetries, hook.TotalSent,
		hook.TotalFailed, hook.LastStatus, hook.LastError, hook.LastFiredAt,
		hook.UpdatedAt,
	)
	if err != nil {
		return mapError("update webhook", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update webhook %s: %w", hook.ID, core.ErrNotFound)
	}
	return nil
}

func (s *WebhookStore) DeleteWebhook(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM webhooks WHERE id = $1`, id)
	if err != nil {
		return mapError("delete webhook", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete webhook %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// RecordOutcome folds one delivery outcome into the endpoint's
// counters in a single UPDATE so concurrent workers cannot lose
// increments.
func (s *WebhookStore) RecordOutcome(ctx context.Context, id string, success bool, errMsg string, at time.Time) error {
	query := `UPDATE webhooks SET
		total_sent = total_sent + CASE WHEN $2 THEN 1 ELSE 0 END,
		total_failed = total_failed + CASE WHEN $2 THEN 0 ELSE 1 END,
		last_status = CASE WHEN $2 THEN 'success' ELSE 'failed' END,
		last_error = $3, last_fired_at = $4
		WHERE id = $1`
	tag, err := s.db.Exec(ctx, query, id, success, errMsg, at)
	if err != nil {
		return mapError("record webhook outcome", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("record outcome for webhook %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (s *WebhookStore) RecordDelivery(ctx context.Context, delivery core.WebhookDelivery) error {
	query := `INSERT INTO webhook_deliveries (
		id, webhook_id, event, success, attempts, error_message, created_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := s.db.Exec(ctx, query,
		delivery.ID, delivery.WebhookID, delivery.Event, delivery.Success,
		delivery.Attempts, delivery.Error, delivery.CreatedAt,
	)
	return mapError("insert webhook delivery", err)
}

func (s *WebhookStore) ListDeliveries(ctx context.Context, webhookID string, limit int) ([]core.WebhookDelivery, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, webhook_id, event, success, attempts, error_message, created_at
		FROM webhook_deliveries WHERE webhook_id = $1
		ORDER BY created_at DESC LIMIT $2`
	rows, err := s.db.Query(ctx, query, webhookID, limit)
	if err != nil {
		return nil, mapError("list webhook deliveries", err)
	}
	defer rows.Close()

	var out []core.WebhookDelivery
	for rows.Next() {
		var d core.WebhookDelivery
		if err := rows.Scan(&d.ID, &d.WebhookID, &d.Event, &d.Success, &d.Attempts, &d.Error, &d.CreatedAt); err != nil {
			return nil, mapError("scan webhook delivery", err)
		}
		out = append(out, d)
	}
	return out, mapError("list webhook deliveries", rows.Err())
}

func scanWebhook(row rowScanner) (core.Webhook, error) {
	var (
		hook core.Webhook
		raw  []byte
	)
	err := row.Scan(
		&hook.ID, &hook.ClientID, &hook.Name, &hook.URL, &hook.Secret,
		&raw, &hook.IsActive, &hook.TimeoutSeconds, &hook.MaxRetries,
		&hook.TotalSent, &hook.TotalFailed, &hook.LastStatus,
		&hook.LastError, &hook.LastFiredAt, &hook.CreatedAt, &hook.UpdatedAt,
	)
	if err != nil {
		return core.Webhook{}, err
	}
	if err := json.Unmarshal(raw, &hook.Events); err != nil {
		return core.Webhook{}, fmt.Errorf("unmarshal webhook events: %w", err)
	}
	return hook, nil
}
