package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ChecksSubmitted prometheus.Counter
	ChecksCompleted prometheus.Counter
	ChecksFailed    prometheus.Counter
	CheckDuration   prometheus.Histogram
	SourceFailures  *prometheus.CounterVec
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	NotifyFailures  prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		ChecksSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "backcheck_checks_submitted_total",
			Help: "Total number of background checks submitted",
		}),
		ChecksCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "backcheck_checks_completed_total",
			Help: "Total number of background checks completed with an assessment",
		}),
		ChecksFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "backcheck_checks_failed_total",
			Help: "Total number of background checks that ended in failure",
		}),
		CheckDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "backcheck_check_duration_seconds",
			Help:    "Wall-clock duration of check processing from submission to terminal state",
			Buckets: prometheus.DefBuckets,
		}),
		SourceFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "backcheck_source_failures_total",
			Help: "Total number of record source failures during evidence gathering",
		}, []string{"category"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "backcheck_query_cache_hits_total",
			Help: "Total number of check query cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "backcheck_query_cache_misses_total",
			Help: "Total number of check query cache misses",
		}),
		NotifyFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "backcheck_notification_failures_total",
			Help: "Total number of completion notifications that failed to deliver",
		}),
	}
}

func (m *Metrics) RecordSubmitted() {
	m.ChecksSubmitted.Inc()
}

func (m *Metrics) RecordCompleted(elapsed time.Duration) {
	m.ChecksCompleted.Inc()
	m.CheckDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) RecordFailed(elapsed time.Duration) {
	m.ChecksFailed.Inc()
	m.CheckDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) RecordSourceFailure(category string) {
	m.SourceFailures.WithLabelValues(category).Inc()
}

func (m *Metrics) RecordCacheHit() {
	m.CacheHits.Inc()
}

func (m *Metrics) RecordCacheMiss() {
	m.CacheMisses.Inc()
}

func (m *Metrics) RecordNotifyFailure() {
	m.NotifyFailures.Inc()
}
