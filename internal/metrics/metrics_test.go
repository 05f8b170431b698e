package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()

	// Collectors must be usable after repeated Init calls.
	ObserveRequest(http.MethodGet, "/v1/clients", http.StatusOK, 5*time.Millisecond)
	ContentGenerated("blog", "template")
	WebhookDelivered("lead.created", "success")
	CompetitorPage("changed")
	RankCheck("improved")
	SchedulerRun("rank_check", "success", time.Second)
	LeadCaptured("form")
}

func TestHandlerServesScrape(t *testing.T) {
	Init()
	ObserveRequest(http.MethodPost, "/v1/webhooks", http.StatusCreated, time.Millisecond)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "seoengine_http_requests_total")
}
