package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestMetricsExposure(t *testing.T) {
	FeedRuns.Inc()
	IncFeedFailure("search_error")
	IncAPIRetry("/search/shows")
	IncAuditDrop("interaction")
	ObserveFeedDuration(time.Now().Add(-1500 * time.Millisecond))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rec.Code)
	}
	body := rec.Body.String()
	for _, m := range []string{
		"glassbox_feed_runs_total",
		"glassbox_feed_failures_total",
		"glassbox_feed_duration_seconds",
		"glassbox_api_retries_total",
		"glassbox_audit_drops_total",
	} {
		if !strings.Contains(body, m) {
			t.Fatalf("expected metric %s in body", m)
		}
	}
}
