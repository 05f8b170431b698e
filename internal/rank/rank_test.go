package rank

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
	eventsmem "github.com/ackwest/seoengine/internal/events/memory"
	"github.com/ackwest/seoengine/internal/id/uuid"
	"github.com/ackwest/seoengine/internal/seodata"
	storemem "github.com/ackwest/seoengine/internal/store/memory"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

type stubData struct {
	organic map[string]seodata.DomainKeyword
	bulkErr error
}

func (d *stubData) DomainOrganicKeywords(context.Context, string, int) ([]seodata.DomainKeyword, error) {
	if d.bulkErr != nil {
		return nil, d.bulkErr
	}
	out := make([]seodata.DomainKeyword, 0, len(d.organic))
	for _, dk := range d.organic {
		out = append(out, dk)
	}
	return out, nil
}

func (d *stubData) PositionFor(_ context.Context, _, keyword string) (seodata.DomainKeyword, error) {
	return d.organic[keyword], nil
}

func newFixture(t *testing.T, data DataSource) (*Service, *storemem.ClientStore, *storemem.RankStore, *eventsmem.Publisher, *fixedClock) {
	t.Helper()
	clients := storemem.NewClientStore()
	ranks := storemem.NewRankStore()
	events := eventsmem.New()
	clock := &fixedClock{t: time.Date(2025, 3, 10, 5, 0, 0, 0, time.UTC)}
	svc := NewService(clients, ranks, events, data, clock, uuid.NewPrefixed("rank"), zap.NewNop())
	return svc, clients, ranks, events, clock
}

func seedClient(t *testing.T, clients *storemem.ClientStore, keywords ...string) core.Client {
	t.Helper()
	client := core.Client{
		ID:              "cl_1",
		BusinessName:    "Acme Plumbing",
		WebsiteURL:      "https://www.acme.com",
		PrimaryKeywords: keywords,
		IsActive:        true,
	}
	require.NoError(t, clients.CreateClient(context.Background(), client))
	return client
}

func TestCheckClientSavesSnapshots(t *testing.T) {
	t.Parallel()

	data := &stubData{organic: map[string]seodata.DomainKeyword{
		"plumber dallas": {
			Keyword:      "Plumber Dallas",
			Position:     4,
			URL:          "https://acme.com/plumbing",
			Volume:       1900,
			CPC:          14.5,
			FeatureCodes: []string{"1"},
		},
	}}
	svc, clients, ranks, _, clock := newFixture(t, data)
	seedClient(t, clients, "plumber dallas", "drain cleaning")

	results, err := svc.CheckClient(context.Background(), "cl_1")
	require.NoError(t, err)
	require.Len(t, results, 2)

	snap, err := ranks.LatestSnapshot(context.Background(), "cl_1", "plumber dallas")
	require.NoError(t, err)
	require.Equal(t, 4, snap.Position)
	require.Equal(t, "acme.com", snap.Domain)
	require.Equal(t, clock.t, snap.CheckedAt)
	require.Equal(t, []core.SERPFeature{{Name: "local_pack"}}, snap.Features)

	// Keyword the domain does not rank for still gets a snapshot.
	missing, err := ranks.LatestSnapshot(context.Background(), "cl_1", "drain cleaning")
	require.NoError(t, err)
	require.Zero(t, missing.Position)
}

func TestCheckClientEmitsMovementEvents(t *testing.T) {
	t.Parallel()

	data := &stubData{organic: map[string]seodata.DomainKeyword{
		"plumber dallas": {Keyword: "plumber dallas", Position: 9},
	}}
	svc, clients, ranks, events, _ := newFixture(t, data)
	seedClient(t, clients, "plumber dallas")

	require.NoError(t, ranks.SaveSnapshot(context.Background(), core.RankSnapshot{
		ID:        "rank_prev",
		ClientID:  "cl_1",
		Keyword:   "plumber dallas",
		Position:  14,
		CheckedAt: time.Date(2025, 3, 9, 5, 0, 0, 0, time.UTC),
	}))

	results, err := svc.CheckClient(context.Background(), "cl_1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, 5, results[0].Movement.Delta)

	improved := events.Named(core.EventRankingImproved)
	require.Len(t, improved, 1)
	require.Equal(t, "plumber dallas", improved[0].Data["keyword"])
	require.Equal(t, 9, improved[0].Data["current_position"])
}

func TestCheckClientDroppedOutOfRankings(t *testing.T) {
	t.Parallel()

	data := &stubData{organic: map[string]seodata.DomainKeyword{}}
	svc, clients, ranks, events, _ := newFixture(t, data)
	seedClient(t, clients, "plumber dallas")

	require.NoError(t, ranks.SaveSnapshot(context.Background(), core.RankSnapshot{
		ID:        "rank_prev",
		ClientID:  "cl_1",
		Keyword:   "plumber dallas",
		Position:  8,
		CheckedAt: time.Date(2025, 3, 9, 5, 0, 0, 0, time.UTC),
	}))

	_, err := svc.CheckClient(context.Background(), "cl_1")
	require.NoError(t, err)
	require.Len(t, events.Named(core.EventRankingDropped), 1)
}

func TestCheckClientFirstCheckEmitsNothing(t *testing.T) {
	t.Parallel()

	data := &stubData{organic: map[string]seodata.DomainKeyword{
		"plumber dallas": {Keyword: "plumber dallas", Position: 3},
	}}
	svc, clients, _, events, _ := newFixture(t, data)
	seedClient(t, clients, "plumber dallas")

	_, err := svc.CheckClient(context.Background(), "cl_1")
	require.NoError(t, err)
	require.Empty(t, events.Events())
}

func TestCheckClientFallsBackToPerKeywordLookup(t *testing.T) {
	t.Parallel()

	data := &stubData{
		bulkErr: errors.New("report unavailable"),
		organic: map[string]seodata.DomainKeyword{
			"plumber dallas": {Keyword: "plumber dallas", Position: 6},
		},
	}
	svc, clients, ranks, _, _ := newFixture(t, data)
	seedClient(t, clients, "plumber dallas")

	_, err := svc.CheckClient(context.Background(), "cl_1")
	require.NoError(t, err)

	snap, err := ranks.LatestSnapshot(context.Background(), "cl_1", "plumber dallas")
	require.NoError(t, err)
	require.Equal(t, 6, snap.Position)
}

func TestCheckClientRequiresWebsite(t *testing.T) {
	t.Parallel()

	svc, clients, _, _, _ := newFixture(t, &stubData{})
	require.NoError(t, clients.CreateClient(context.Background(), core.Client{ID: "cl_nosite"}))

	_, err := svc.CheckClient(context.Background(), "cl_nosite")
	require.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	svc, _, ranks, _, _ := newFixture(t, &stubData{})
	ctx := context.Background()
	for i, pos := range []int{2, 7, 15, 0} {
		require.NoError(t, ranks.SaveSnapshot(ctx, core.RankSnapshot{
			ID:        "rank_" + string(rune('a'+i)),
			ClientID:  "cl_1",
			Keyword:   "kw " + string(rune('a'+i)),
			Position:  pos,
			CheckedAt: time.Now(),
		}))
	}

	sum, err := svc.Summarize(ctx, "cl_1")
	require.NoError(t, err)
	require.Equal(t, Summary{Total: 4, InTop3: 1, InTop10: 2, InTop20: 3, NotRanking: 1}, sum)
}

func TestHistoryReportsTrend(t *testing.T) {
	t.Parallel()

	svc, _, ranks, _, _ := newFixture(t, &stubData{})
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 5, 0, 0, 0, time.UTC)
	for i, pos := range []int{20, 18, 15, 11, 8, 6, 5} {
		require.NoError(t, ranks.SaveSnapshot(ctx, core.RankSnapshot{
			ID:        "rank_" + string(rune('a'+i)),
			ClientID:  "cl_1",
			Keyword:   "plumber dallas",
			Position:  pos,
			CheckedAt: base.AddDate(0, 0, i),
		}))
	}

	report, err := svc.History(ctx, "cl_1", "plumber dallas", time.Time{})
	require.NoError(t, err)
	require.Equal(t, 5, report.CurrentPosition)
	require.Equal(t, 5, report.BestPosition)
	require.Equal(t, 20, report.WorstPosition)
	require.Len(t, report.History, 7)
	require.Equal(t, "stable", report.Trend) // window covers all points

	// Add an older stretch of worse positions so the recent window
	// clearly beats the overall average.
	for i, pos := range []int{40, 42, 38} {
		require.NoError(t, ranks.SaveSnapshot(ctx, core.RankSnapshot{
			ID:        "rank_old_" + string(rune('a'+i)),
			ClientID:  "cl_1",
			Keyword:   "plumber dallas",
			Position:  pos,
			CheckedAt: base.AddDate(0, 0, -5+i),
		}))
	}
	report, err = svc.History(ctx, "cl_1", "plumber dallas", time.Time{})
	require.NoError(t, err)
	require.Equal(t, "improving", report.Trend)
}
