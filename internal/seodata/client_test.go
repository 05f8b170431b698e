package seodata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Database: "us"}, zap.NewNop())
}

func TestKeywordOverview(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "phrase_this", q.Get("type"))
		require.Equal(t, "test-key", q.Get("key"))
		require.Equal(t, "plumber dallas", q.Get("phrase"))
		w.Write([]byte("Keyword;Search Volume;CPC;Competition;Keyword Difficulty;Number of Results\nplumber dallas;1900;14.50;0.45;67;25000000\n"))
	})

	m, err := c.KeywordOverview(context.Background(), "plumber dallas")
	require.NoError(t, err)
	require.Equal(t, "plumber dallas", m.Keyword)
	require.Equal(t, 1900, m.Volume)
	require.InDelta(t, 14.5, m.CPC, 0.001)
	require.InDelta(t, 0.45, m.Competition, 0.001)
	require.Equal(t, 67, m.Difficulty)
	require.Equal(t, 25000000, m.Results)
}

func TestDomainOrganicKeywordsParsesFeatures(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "domain_organic", r.URL.Query().Get("type"))
		w.Write([]byte("Keyword;Position;Previous Position;Url;Search Volume;CPC;Competition;SERP Features;Keyword Difficulty\n" +
			`"emergency plumber";3;5;"https://acme.com/emergency";880;12.10;0.52;"1,8";61.2` + "\n" +
			`"water heater repair";12;11;"https://acme.com/water-heaters";720;9.80;0.48;;55` + "\n"))
	})

	kws, err := c.DomainOrganicKeywords(context.Background(), "https://www.acme.com/about", 50)
	require.NoError(t, err)
	require.Len(t, kws, 2)

	require.Equal(t, "emergency plumber", kws[0].Keyword)
	require.Equal(t, 3, kws[0].Position)
	require.Equal(t, 5, kws[0].PreviousPosition)
	require.Equal(t, []string{"1", "8"}, kws[0].FeatureCodes)
	require.Equal(t, 61, kws[0].Difficulty)

	require.Equal(t, 12, kws[1].Position)
	require.Empty(t, kws[1].FeatureCodes)
}

func TestPositionForMatchesKeywordCaseInsensitive(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Keyword;Position;Previous Position;Url;Search Volume;CPC;Competition\n" +
			`"Plumber Dallas";7;9;"https://acme.com/plumbing";1900;14.50;0.45` + "\n"))
	})

	dk, err := c.PositionFor(context.Background(), "acme.com", "plumber dallas")
	require.NoError(t, err)
	require.Equal(t, 7, dk.Position)
	require.Equal(t, 9, dk.PreviousPosition)
	require.Equal(t, "https://acme.com/plumbing", dk.URL)
}

func TestPositionForNotRanking(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ERROR 50 :: NOTHING FOUND"))
	})

	dk, err := c.PositionFor(context.Background(), "acme.com", "obscure phrase")
	require.NoError(t, err)
	require.Zero(t, dk.Position)
}

func TestReportAPIError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ERROR 120 :: WRONG KEY - ID PAIR"))
	})

	_, err := c.KeywordOverview(context.Background(), "anything")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "ERROR 120", apiErr.Code)
}

func TestKeywordGapsAssignsCompetitorPositions(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "domain_domains", q.Get("type"))
		require.Equal(t, "acme.com|rival.com|other.com", q.Get("domains"))
		w.Write([]byte("Keyword;Search Volume;CPC;Competition;Keyword Difficulty;P0;P1;P2\n" +
			"drain cleaning;590;8.20;0.41;49;0;4;9\n"))
	})

	gaps, err := c.KeywordGaps(context.Background(), "https://acme.com", []string{"https://www.rival.com", "other.com"}, 50)
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	require.Equal(t, 0, gaps[0].YourPosition)
	require.Equal(t, 4, gaps[0].CompetitorPositions["rival.com"])
	require.Equal(t, 9, gaps[0].CompetitorPositions["other.com"])
}

func TestUnconfiguredClient(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{}, zap.NewNop())
	require.False(t, c.Configured())
	_, err := c.KeywordOverview(context.Background(), "anything")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestDemoIsDeterministic(t *testing.T) {
	t.Parallel()

	d := NewDemo()
	a, err := d.PositionFor(context.Background(), "acme.com", "plumber dallas")
	require.NoError(t, err)
	b, err := d.PositionFor(context.Background(), "acme.com", "plumber dallas")
	require.NoError(t, err)
	require.Equal(t, a, b)

	m, err := d.KeywordOverview(context.Background(), "plumber dallas")
	require.NoError(t, err)
	require.GreaterOrEqual(t, m.Volume, 10)
	require.Greater(t, m.CPC, 0.0)
}

func TestCleanDomain(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"https://www.acme.com/about": "acme.com",
		"HTTP://Acme.com":            "acme.com",
		"acme.com":                   "acme.com",
		"  www.acme.com/ ":           "acme.com",
	} {
		require.Equal(t, want, CleanDomain(in), in)
	}
}
