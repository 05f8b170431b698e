package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/config"
	"github.com/ackwest/seoengine/internal/core"
)

func TestUnconfiguredMailerIsNoOp(t *testing.T) {
	t.Parallel()
	m, err := New(config.NotifyConfig{}, zap.NewNop())
	require.NoError(t, err)
	require.False(t, m.Configured())

	require.NoError(t, m.Send(context.Background(), "x@y.com", "subject", "body"))
	require.NoError(t, m.LeadCaptured(context.Background(), core.Client{}, core.Lead{}))
}

func TestLeadAlert(t *testing.T) {
	t.Parallel()
	subject, body := LeadAlert(
		core.Client{BusinessName: "Ace Plumbing"},
		core.Lead{
			ID:        "lead_1",
			Name:      "Pat Jones",
			Phone:     "(214) 555-0142",
			Source:    "form",
			Message:   "Water heater is leaking",
			CreatedAt: time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC),
		})
	require.Equal(t, "New Lead: Pat Jones", subject)
	require.Contains(t, body, "Ace Plumbing")
	require.Contains(t, body, "(214) 555-0142")
	require.Contains(t, body, "Water heater is leaking")
	require.Contains(t, body, "Email: Not provided")
	require.Contains(t, body, "March 10, 2025 at 2:30 PM")
}

func TestDigest(t *testing.T) {
	t.Parallel()
	subject, body := Digest("Ace Plumbing", []DigestItem{
		{Competitor: "rival.com", URL: "https://rival.com/pricing", Kind: "changed",
			ChangedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)},
		{Competitor: "other.com", URL: "https://other.com/blog/new", Kind: "new",
			ChangedAt: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)},
	})
	require.Equal(t, "Competitor Activity: 2 change(s) detected", subject)
	require.Contains(t, body, "[rival.com] changed https://rival.com/pricing")
	require.Contains(t, body, "[other.com] new https://other.com/blog/new")
}

func TestAlertDigestSkipsEmpty(t *testing.T) {
	t.Parallel()
	m, err := New(config.NotifyConfig{}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.AlertDigest(context.Background(), "x@y.com", "Ace", nil))
}

func TestSummaryMail(t *testing.T) {
	t.Parallel()
	subject, body := SummaryMail(Summary{
		Date:            time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		ActiveClients:   12,
		NewLeads:        5,
		PublishedPosts:  3,
		ReviewsReceived: 2,
	})
	require.Equal(t, "Daily Summary for Mar 10, 2025", subject)
	require.Contains(t, body, "Active clients:    12")
	require.Contains(t, body, "New leads:         5")
}

func TestDueNotice(t *testing.T) {
	t.Parallel()
	subject, body := DueNotice("Ace Plumbing", []DueItem{
		{Title: "Winter Pipe Care", ScheduledFor: time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)},
	})
	require.Equal(t, "1 scheduled post(s) publishing soon", subject)
	require.Contains(t, body, `"Winter Pipe Care" publishes Mar 11 at 9:00 AM`)
}
