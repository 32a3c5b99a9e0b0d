package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FeedRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "glassbox_feed_runs_total",
		Help: "Total feed refresh runs",
	})
	FeedFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "glassbox_feed_failures_total",
		Help: "Total failed feed runs by reason",
	}, []string{"reason"})
	FeedDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "glassbox_feed_duration_seconds",
		Help:    "Feed run duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "glassbox_api_retries_total",
		Help: "Total provider API retry attempts",
	}, []string{"endpoint"})
	AuditDrops = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "glassbox_audit_drops_total",
		Help: "Total best-effort audit writes dropped",
	}, []string{"kind"})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "glassbox_command_runs_total",
		Help: "Total CLI command invocations",
	}, []string{"cmd"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "glassbox_command_errors_total",
		Help: "Total CLI command failures",
	}, []string{"cmd"})
)

func init() {
	prometheus.MustRegister(FeedRuns, FeedFailures, FeedDuration, APIRetries, AuditDrops, CommandRuns, CommandErrors)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, nil) }()
}

// ObserveFeedDuration records a run duration.
func ObserveFeedDuration(start time.Time) {
	FeedDuration.Observe(time.Since(start).Seconds())
}

// IncFeedFailure increments the failure counter for a reason.
func IncFeedFailure(reason string) { FeedFailures.WithLabelValues(reason).Inc() }

// IncAPIRetry increments the retry counter for an endpoint.
func IncAPIRetry(endpoint string) { APIRetries.WithLabelValues(endpoint).Inc() }

// IncAuditDrop increments the dropped-audit counter for a record kind.
func IncAuditDrop(kind string) { AuditDrops.WithLabelValues(kind).Inc() }

func IncCommandRun(cmd string)   { CommandRuns.WithLabelValues(cmd).Inc() }
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }
