package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
	"github.com/ackwest/seoengine/internal/id/uuid"
	queuemem "github.com/ackwest/seoengine/internal/queue/memory"
	storemem "github.com/ackwest/seoengine/internal/store/memory"
)

func newDeliverer(t *testing.T, store *storemem.WebhookStore) (*Deliverer, *queuemem.Queue[Delivery]) {
	t.Helper()
	queue := queuemem.NewQueue[Delivery](8)
	clock := &fixedClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	return NewDeliverer(DelivererConfig{Workers: 1, Backoff: time.Millisecond},
		store, queue, clock, uuid.NewPrefixed("dl"), zap.NewNop()), queue
}

func seedHook(t *testing.T, store *storemem.WebhookStore, url string) core.Webhook {
	t.Helper()
	hook := core.Webhook{
		ID:             "wh_1",
		ClientID:       "cl_1",
		URL:            url,
		Secret:         "whsec_feedface",
		Events:         []string{"*"},
		IsActive:       true,
		TimeoutSeconds: 5,
		MaxRetries:     3,
	}
	require.NoError(t, store.CreateWebhook(context.Background(), hook))
	return hook
}

func leadEvent() core.Event {
	return core.Event{
		Name:      core.EventLeadCreated,
		ClientID:  "cl_1",
		Timestamp: time.Date(2025, 3, 10, 8, 59, 0, 0, time.UTC),
		Data:      map[string]any{"lead_id": "ld_7"},
	}
}

func TestDeliverSignsAndPostsPayload(t *testing.T) {
	t.Parallel()
	store := storemem.NewWebhookStore()

	var gotBody []byte
	var gotHeader http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotHeader = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	hook := seedHook(t, store, srv.URL)
	d, _ := newDeliverer(t, store)

	record, err := d.Deliver(context.Background(), Delivery{WebhookID: hook.ID, Event: leadEvent()})
	require.NoError(t, err)
	require.True(t, record.Success)
	require.Equal(t, 1, record.Attempts)

	require.Equal(t, core.EventLeadCreated, gotHeader.Get("X-Webhook-Event"))
	require.Equal(t, hook.ID, gotHeader.Get("X-Webhook-ID"))
	require.NotEmpty(t, gotHeader.Get("X-Webhook-Timestamp"))
	require.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	require.Equal(t, "sha256="+Sign(hook.Secret, gotBody), gotHeader.Get("X-Webhook-Signature"))

	var payload struct {
		Event    string         `json:"event"`
		ClientID string         `json:"client_id"`
		Data     map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	require.Equal(t, core.EventLeadCreated, payload.Event)
	require.Equal(t, "cl_1", payload.ClientID)
	require.Equal(t, "ld_7", payload.Data["lead_id"])

	updated, err := store.GetWebhook(context.Background(), hook.ID)
	require.NoError(t, err)
	require.Equal(t, 1, updated.TotalSent)
	require.Zero(t, updated.TotalFailed)
	require.Equal(t, "success", updated.LastStatus)
	require.NotNil(t, updated.LastFiredAt)

	deliveries, err := store.ListDeliveries(context.Background(), hook.ID, 10)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	require.True(t, deliveries[0].Success)
	require.Equal(t, 1, deliveries[0].Attempts)
}

func TestDeliverRetriesServerErrors(t *testing.T) {
	t.Parallel()
	store := storemem.NewWebhookStore()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	hook := seedHook(t, store, srv.URL)
	d, _ := newDeliverer(t, store)

	record, err := d.Deliver(context.Background(), Delivery{WebhookID: hook.ID, Event: leadEvent()})
	require.NoError(t, err)
	require.True(t, record.Success)

	require.EqualValues(t, 3, calls.Load())
	updated, err := store.GetWebhook(context.Background(), hook.ID)
	require.NoError(t, err)
	require.Equal(t, 1, updated.TotalSent)
	require.Equal(t, "success", updated.LastStatus)

	deliveries, err := store.ListDeliveries(context.Background(), hook.ID, 10)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	require.Equal(t, 3, deliveries[0].Attempts)
}

func TestDeliverRecordsFailureAfterRetriesExhausted(t *testing.T) {
	t.Parallel()
	store := storemem.NewWebhookStore()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	hook := seedHook(t, store, srv.URL)
	d, _ := newDeliverer(t, store)

	record, err := d.Deliver(context.Background(), Delivery{WebhookID: hook.ID, Event: leadEvent()})
	require.NoError(t, err)
	require.False(t, record.Success)
	require.Contains(t, record.Error, "500")

	updated, err := store.GetWebhook(context.Background(), hook.ID)
	require.NoError(t, err)
	require.Zero(t, updated.TotalSent)
	require.Equal(t, 1, updated.TotalFailed)
	require.Equal(t, "failed", updated.LastStatus)
	require.Contains(t, updated.LastError, "500")

	deliveries, err := store.ListDeliveries(context.Background(), hook.ID, 10)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	require.False(t, deliveries[0].Success)
	require.Equal(t, 3, deliveries[0].Attempts)
	require.Contains(t, deliveries[0].Error, "500")
}

func TestDeliverSkipsInactiveAndMissingHooks(t *testing.T) {
	t.Parallel()
	store := storemem.NewWebhookStore()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	hook := seedHook(t, store, srv.URL)
	hook.IsActive = false
	require.NoError(t, store.UpdateWebhook(context.Background(), hook))

	d, _ := newDeliverer(t, store)
	_, err := d.Deliver(context.Background(), Delivery{WebhookID: hook.ID, Event: leadEvent()})
	require.ErrorIs(t, err, core.ErrInvalidInput)
	_, err = d.Deliver(context.Background(), Delivery{WebhookID: "wh_gone", Event: leadEvent()})
	require.ErrorIs(t, err, core.ErrNotFound)

	require.Zero(t, calls.Load())
}

func TestDeliverFallsBackToConfiguredLimits(t *testing.T) {
	t.Parallel()
	store := storemem.NewWebhookStore()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	// No per-endpoint timeout or retry budget.
	hook := core.Webhook{
		ID:       "wh_bare",
		URL:      srv.URL,
		Events:   []string{"*"},
		IsActive: true,
	}
	require.NoError(t, store.CreateWebhook(context.Background(), hook))

	queue := queuemem.NewQueue[Delivery](8)
	clock := &fixedClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	d := NewDeliverer(DelivererConfig{Workers: 1, Timeout: time.Second, Retries: 2, Backoff: time.Millisecond},
		store, queue, clock, uuid.NewPrefixed("dl"), zap.NewNop())

	record, err := d.Deliver(context.Background(), Delivery{WebhookID: hook.ID, Event: leadEvent()})
	require.NoError(t, err)
	require.False(t, record.Success)
	require.Equal(t, 2, record.Attempts)
	require.EqualValues(t, 2, calls.Load())
}

func TestConcurrentDeliveriesKeepAllCounts(t *testing.T) {
	t.Parallel()
	store := storemem.NewWebhookStore()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	hook := seedHook(t, store, srv.URL)
	d, _ := newDeliverer(t, store)

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Deliver(context.Background(), Delivery{WebhookID: hook.ID, Event: leadEvent()})
		}()
	}
	wg.Wait()

	updated, err := store.GetWebhook(context.Background(), hook.ID)
	require.NoError(t, err)
	require.Equal(t, n, updated.TotalSent)
	require.Zero(t, updated.TotalFailed)

	deliveries, err := store.ListDeliveries(context.Background(), hook.ID, n+1)
	require.NoError(t, err)
	require.Len(t, deliveries, n)
}

func TestWorkerDrainsQueue(t *testing.T) {
	t.Parallel()
	store := storemem.NewWebhookStore()

	received := make(chan struct{}, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- struct{}{}
	}))
	defer srv.Close()

	hook := seedHook(t, store, srv.URL)
	d, queue := newDeliverer(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for i := 0; i < 2; i++ {
		require.NoError(t, queue.Enqueue(ctx, Delivery{WebhookID: hook.ID, Event: leadEvent()}))
	}
	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(2 * time.Second):
			t.Fatal("delivery did not arrive")
		}
	}
	cancel()
	d.Wait()
}
