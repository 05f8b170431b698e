package webhook

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
	"github.com/ackwest/seoengine/internal/id/uuid"
	queuemem "github.com/ackwest/seoengine/internal/queue/memory"
	storemem "github.com/ackwest/seoengine/internal/store/memory"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

// stubSender records inline deliveries instead of posting them.
type stubSender struct {
	items []Delivery
}

func (s *stubSender) Deliver(_ context.Context, item Delivery) (core.WebhookDelivery, error) {
	s.items = append(s.items, item)
	return core.WebhookDelivery{
		ID:        "dl_stub",
		WebhookID: item.WebhookID,
		Event:     item.Event.Name,
		Success:   true,
		Attempts:  1,
	}, nil
}

type fixture struct {
	svc    *Service
	store  *storemem.WebhookStore
	queue  *queuemem.Queue[Delivery]
	sender *stubSender
	clock  *fixedClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storemem.NewWebhookStore()
	queue := queuemem.NewQueue[Delivery](32)
	sender := &stubSender{}
	clock := &fixedClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := NewService(ServiceConfig{}, store, queue, sender, clock, uuid.NewPrefixed("wh"), zap.NewNop())
	return &fixture{svc: svc, store: store, queue: queue, sender: sender, clock: clock}
}

func (f *fixture) drain(t *testing.T) []Delivery {
	t.Helper()
	var out []Delivery
	for f.queue.Len() > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		item, err := f.queue.Dequeue(ctx)
		cancel()
		require.NoError(t, err)
		out = append(out, item)
	}
	return out
}

func TestCreateGeneratesSecretAndDefaults(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	hook, err := f.svc.Create(context.Background(), core.Webhook{
		ClientID: "cl_1",
		Name:     "crm sync",
		URL:      "https://hooks.example.com/crm",
		Events:   []string{core.EventLeadCreated},
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hook.ID, "wh_"))
	require.True(t, strings.HasPrefix(hook.Secret, "whsec_"))
	require.Len(t, hook.Secret, len("whsec_")+32)
	require.Equal(t, 10, hook.TimeoutSeconds)
	require.Equal(t, 3, hook.MaxRetries)
	require.True(t, hook.IsActive)
	require.Equal(t, f.clock.t, hook.CreatedAt)

	stored, err := f.store.GetWebhook(context.Background(), hook.ID)
	require.NoError(t, err)
	require.Equal(t, hook.Secret, stored.Secret)
}

func TestCreateRejectsBadInput(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, core.Webhook{URL: "not-a-url", Events: []string{"*"}})
	require.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = f.svc.Create(ctx, core.Webhook{URL: "https://ok.example.com"})
	require.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = f.svc.Create(ctx, core.Webhook{
		URL:    "https://ok.example.com",
		Events: []string{"no.such.event"},
	})
	require.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestTriggerMatchesClientAndGlobalHooks(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	mine, err := f.svc.Create(ctx, core.Webhook{
		ClientID: "cl_1",
		URL:      "https://hooks.example.com/mine",
		Events:   []string{core.EventLeadCreated},
	})
	require.NoError(t, err)
	global, err := f.svc.Create(ctx, core.Webhook{
		URL:    "https://hooks.example.com/global",
		Events: []string{"*"},
	})
	require.NoError(t, err)
	// Different client, must not fire.
	_, err = f.svc.Create(ctx, core.Webhook{
		ClientID: "cl_2",
		URL:      "https://hooks.example.com/other",
		Events:   []string{"*"},
	})
	require.NoError(t, err)
	// Same client, not subscribed to this event.
	_, err = f.svc.Create(ctx, core.Webhook{
		ClientID: "cl_1",
		URL:      "https://hooks.example.com/rankings",
		Events:   []string{core.EventRankingImproved},
	})
	require.NoError(t, err)

	queued, err := f.svc.Trigger(ctx, core.Event{
		Name:      core.EventLeadCreated,
		ClientID:  "cl_1",
		Timestamp: f.clock.Now(),
		Data:      map[string]any{"lead_id": "ld_9"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, queued)

	ids := map[string]bool{}
	for _, d := range f.drain(t) {
		ids[d.WebhookID] = true
		require.Equal(t, core.EventLeadCreated, d.Event.Name)
	}
	require.True(t, ids[mine.ID])
	require.True(t, ids[global.ID])
}

func TestTriggerSkipsInactiveHooks(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	hook, err := f.svc.Create(ctx, core.Webhook{
		URL:    "https://hooks.example.com/x",
		Events: []string{"*"},
	})
	require.NoError(t, err)
	hook.IsActive = false
	_, err = f.svc.Update(ctx, hook)
	require.NoError(t, err)

	queued, err := f.svc.Trigger(ctx, core.Event{Name: core.EventLeadCreated})
	require.NoError(t, err)
	require.Zero(t, queued)
	require.Empty(t, f.drain(t))
}

func TestTestDeliversInlineAndReturnsOutcome(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	hook, err := f.svc.Create(ctx, core.Webhook{
		ClientID: "cl_1",
		Name:     "crm sync",
		URL:      "https://hooks.example.com/x",
		Events:   []string{core.EventReviewReceived},
	})
	require.NoError(t, err)

	result, err := f.svc.Test(ctx, hook.ID)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, hook.ID, result.WebhookID)
	require.Equal(t, "test", result.Event)

	// The test ping bypasses the queue and the subscription filter.
	require.Empty(t, f.drain(t))
	require.Len(t, f.sender.items, 1)
	sent := f.sender.items[0]
	require.Equal(t, hook.ID, sent.WebhookID)
	require.Equal(t, "test", sent.Event.Name)
	require.Equal(t, "This is a test webhook from SEOEngine", sent.Event.Data["message"])
	require.Equal(t, hook.ID, sent.Event.Data["webhook_id"])
	require.Equal(t, "crm sync", sent.Event.Data["webhook_name"])
}

func TestCreateAppliesConfiguredDefaults(t *testing.T) {
	t.Parallel()
	store := storemem.NewWebhookStore()
	queue := queuemem.NewQueue[Delivery](4)
	clock := &fixedClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := NewService(ServiceConfig{TimeoutSeconds: 20, MaxRetries: 5},
		store, queue, &stubSender{}, clock, uuid.NewPrefixed("wh"), zap.NewNop())

	hook, err := svc.Create(context.Background(), core.Webhook{
		URL:    "https://hooks.example.com/x",
		Events: []string{"*"},
	})
	require.NoError(t, err)
	require.Equal(t, 20, hook.TimeoutSeconds)
	require.Equal(t, 5, hook.MaxRetries)

	// An explicit per-endpoint value still wins over the defaults.
	hook, err = svc.Create(context.Background(), core.Webhook{
		URL:            "https://hooks.example.com/y",
		Events:         []string{"*"},
		TimeoutSeconds: 3,
		MaxRetries:     1,
	})
	require.NoError(t, err)
	require.Equal(t, 3, hook.TimeoutSeconds)
	require.Equal(t, 1, hook.MaxRetries)
}

func TestUpdateKeepsSecretAndCounters(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	hook, err := f.svc.Create(ctx, core.Webhook{
		URL:    "https://hooks.example.com/x",
		Events: []string{"*"},
	})
	require.NoError(t, err)

	hook.TotalSent = 99 // callers cannot write counters through Update
	hook.Secret = "whsec_stolen"
	hook.Name = "renamed"
	hook.URL = "https://hooks.example.com/y"
	updated, err := f.svc.Update(ctx, hook)
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Name)
	require.Equal(t, "https://hooks.example.com/y", updated.URL)
	require.Zero(t, updated.TotalSent)
	require.NotEqual(t, "whsec_stolen", updated.Secret)
}

func TestGetStats(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	hook, err := f.svc.Create(ctx, core.Webhook{
		URL:    "https://hooks.example.com/x",
		Events: []string{"*"},
	})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, f.store.RecordDelivery(ctx, core.WebhookDelivery{
			ID:        "dl_" + strings.Repeat("x", i+1),
			WebhookID: hook.ID,
			Event:     core.EventLeadCreated,
			Success:   true,
			Attempts:  1,
			CreatedAt: f.clock.Now(),
		}))
	}

	stats, err := f.svc.GetStats(ctx, hook.ID, 2)
	require.NoError(t, err)
	require.Equal(t, hook.ID, stats.Webhook.ID)
	require.Len(t, stats.Deliveries, 2)
}
