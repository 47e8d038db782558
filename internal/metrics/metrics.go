// Package metrics holds the Prometheus collectors of the job feed.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricRankRequestsTotal = "job_feed_rank_requests_total"
	MetricRankedJobsTotal   = "job_feed_ranked_jobs_total"
	MetricRankDuration      = "job_feed_rank_duration_seconds"
	MetricLastTopScore      = "job_feed_last_top_score"

	ModeProfile   = "profile"
	ModeAnonymous = "anonymous"
)

// Metrics contains the ranking collectors. All operations are thread-safe.
type Metrics struct {
	rankRequests *prometheus.CounterVec
	rankedJobs   prometheus.Counter
	rankDuration prometheus.Histogram
	lastTopScore prometheus.Gauge
}

// New creates the collectors without registering them.
func New() *Metrics {
	return &Metrics{
		rankRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRankRequestsTotal,
			Help: "Total number of feed ranking calls by mode",
		}, []string{"mode"}),
		rankedJobs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRankedJobsTotal,
			Help: "Total number of jobs scored",
		}),
		rankDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankDuration,
			Help:    "Histogram of feed ranking duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		lastTopScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLastTopScore,
			Help: "Match score of the first job of the last ranked feed",
		}),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRank records one ranking call.
func (m *Metrics) ObserveRank(mode string, jobs int, seconds float64) {
	m.rankRequests.WithLabelValues(mode).Inc()
	m.rankedJobs.Add(float64(jobs))
	m.rankDuration.Observe(seconds)
}

func (m *Metrics) SetLastTopScore(score int) {
	m.lastTopScore.Set(float64(score))
}

// Collectors returns all Prometheus collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.rankRequests,
		m.rankedJobs,
		m.rankDuration,
		m.lastTopScore,
	}
}
