package metrics

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"briefdesk/internal/db"
)

// Outcome labels for dispatch and callback counters.
const (
	OutcomeQueued   = "queued"
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeConflict = "conflict"
)

var (
	dispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "briefdesk_dispatch_total",
			Help: "Generation dispatch attempts by outcome",
		},
		[]string{"outcome"},
	)

	callbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "briefdesk_callback_total",
			Help: "Worker callbacks by outcome",
		},
		[]string{"outcome"},
	)

	dispatcherReachable = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "briefdesk_dispatcher_reachable",
			Help: "1 if the last dispatcher probe succeeded, 0 otherwise",
		},
	)

	briefStatusDesc = prometheus.NewDesc(
		"briefdesk_briefs",
		"Brief count by lifecycle status",
		[]string{"status"},
		nil,
	)
)

// BriefStatusCollector is a custom Prometheus collector that reads per-status
// brief counts from the database on each scrape.
type BriefStatusCollector struct {
	db *db.DB
}

// Describe sends the metric descriptor to the channel.
func (c *BriefStatusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- briefStatusDesc
}

// Collect queries the database for brief counts and emits them as gauges.
func (c *BriefStatusCollector) Collect(ch chan<- prometheus.Metric) {
	counts, err := c.db.CountBriefsByStatus(context.Background())
	if err != nil {
		slog.Error("failed to collect brief status metrics", "error", err)
		return
	}
	for _, sc := range counts {
		status := string(sc.Status)
		if status == "" {
			status = "unset"
		}
		ch <- prometheus.MustNewConstMetric(
			briefStatusDesc,
			prometheus.GaugeValue,
			float64(sc.Count),
			status,
		)
	}
}

var initOnce sync.Once

// Init registers all metrics and the status collector.
// Must be called once at startup.
func Init(database *db.DB) {
	initOnce.Do(func() {
		prometheus.MustRegister(dispatchTotal, callbackTotal, dispatcherReachable)
		prometheus.MustRegister(&BriefStatusCollector{db: database})
	})
}

// RecordDispatch counts one dispatch attempt outcome.
func RecordDispatch(outcome string) {
	dispatchTotal.WithLabelValues(outcome).Inc()
}

// RecordCallback counts one callback outcome.
func RecordCallback(outcome string) {
	callbackTotal.WithLabelValues(outcome).Inc()
}

// SetDispatcherReachable records the latest probe result.
func SetDispatcherReachable(up bool) {
	if up {
		dispatcherReachable.Set(1)
	} else {
		dispatcherReachable.Set(0)
	}
}
