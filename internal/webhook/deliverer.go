package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
	"github.com/ackwest/seoengine/internal/metrics"
)

const userAgent = "SEOEngine-Webhook/1.0"

// DelivererConfig tunes the worker pool. Timeout and Retries apply to
// endpoints that do not carry their own values.
type DelivererConfig struct {
	Workers int
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

func (c DelivererConfig) withDefaults() DelivererConfig {
	if c.Workers <= 0 {
		c.Workers = 5
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 500 * time.Millisecond
	}
	return c
}

// Deliverer drains the delivery queue with a worker pool, signing and
// posting payloads with bounded retries.
type Deliverer struct {
	cfg   DelivererConfig
	store core.WebhookStore
	queue core.Queue[Delivery]
	http  *http.Client
	clock core.Clock
	ids   core.IDGenerator
	log   *zap.Logger

	wg sync.WaitGroup
}

// NewDeliverer wires a delivery worker pool.
func NewDeliverer(cfg DelivererConfig, store core.WebhookStore, queue core.Queue[Delivery], clock core.Clock, ids core.IDGenerator, log *zap.Logger) *Deliverer {
	cfg = cfg.withDefaults()
	return &Deliverer{
		cfg:   cfg,
		store: store,
		queue: queue,
		http:  &http.Client{},
		clock: clock,
		ids:   ids,
		log:   log.Named("webhook.deliverer"),
	}
}

// Start launches the workers. They run until ctx is canceled.
func (d *Deliverer) Start(ctx context.Context) {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	d.log.Info("delivery workers started", zap.Int("workers", d.cfg.Workers))
}

// Wait blocks until all workers have exited.
func (d *Deliverer) Wait() { d.wg.Wait() }

func (d *Deliverer) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		item, err := d.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.log.Warn("dequeue failed", zap.Error(err))
			return
		}
		d.Deliver(ctx, item)
	}
}

// Deliver posts one event to one endpoint, retrying on failure, and
// records the outcome on the webhook row and the delivery log. The
// delivery record is returned so inline callers can surface it.
func (d *Deliverer) Deliver(ctx context.Context, item Delivery) (core.WebhookDelivery, error) {
	hook, err := d.store.GetWebhook(ctx, item.WebhookID)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			d.log.Warn("load webhook failed", zap.String("webhook_id", item.WebhookID), zap.Error(err))
		}
		return core.WebhookDelivery{}, err
	}
	if !hook.IsActive {
		return core.WebhookDelivery{}, fmt.Errorf("webhook %s is inactive: %w", hook.ID, core.ErrInvalidInput)
	}

	payload, err := json.Marshal(item.Event)
	if err != nil {
		d.log.Error("marshal event failed", zap.Error(err))
		return core.WebhookDelivery{}, fmt.Errorf("marshal event: %w", err)
	}

	attempts, lastErr := d.post(ctx, hook, item.Event.Name, payload)
	success := lastErr == nil

	now := d.clock.Now()
	var errMsg string
	if success {
		metrics.WebhookDelivered(item.Event.Name, "success")
	} else {
		errMsg = lastErr.Error()
		metrics.WebhookDelivered(item.Event.Name, "failed")
		d.log.Warn("webhook delivery failed",
			zap.String("webhook_id", hook.ID),
			zap.String("event", item.Event.Name),
			zap.Int("attempts", attempts),
			zap.Error(lastErr))
	}
	if err := d.store.RecordOutcome(ctx, hook.ID, success, errMsg, now); err != nil {
		d.log.Warn("update webhook counters failed", zap.Error(err))
	}

	deliveryID, err := d.ids.NewID()
	if err != nil {
		return core.WebhookDelivery{}, fmt.Errorf("delivery id: %w", err)
	}
	record := core.WebhookDelivery{
		ID:        deliveryID,
		WebhookID: hook.ID,
		Event:     item.Event.Name,
		Success:   success,
		Attempts:  attempts,
		Error:     errMsg,
		CreatedAt: now,
	}
	if err := d.store.RecordDelivery(ctx, record); err != nil {
		d.log.Warn("record delivery failed", zap.Error(err))
	}
	return record, nil
}

func (d *Deliverer) post(ctx context.Context, hook core.Webhook, event string, payload []byte) (int, error) {
	timeout := time.Duration(hook.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = d.cfg.Timeout
	}
	retries := hook.MaxRetries
	if retries <= 0 {
		retries = d.cfg.Retries
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return attempt - 1, ctx.Err()
			case <-time.After(d.cfg.Backoff * time.Duration(1<<(attempt-2))):
			}
		}
		if err := d.send(ctx, hook, event, payload, timeout); err != nil {
			lastErr = err
			continue
		}
		return attempt, nil
	}
	return retries, lastErr
}

func (d *Deliverer) send(ctx context.Context, hook core.Webhook, event string, payload []byte, timeout time.Duration) error {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, hook.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Webhook-ID", hook.ID)
	req.Header.Set("X-Webhook-Timestamp", d.clock.Now().UTC().Format(time.RFC3339))
	req.Header.Set("X-Webhook-Event", event)
	if hook.Secret != "" {
		req.Header.Set("X-Webhook-Signature", "sha256="+Sign(hook.Secret, payload))
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 of the payload under the secret.
// Receivers verify with the same construction.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
