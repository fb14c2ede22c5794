package ingest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts ingestion runs and rows. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	runs     *prometheus.CounterVec
	rows     *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates the ingestion collectors and registers them on reg
// when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbdash_ingest_runs_total",
			Help: "Ingestion runs by outcome.",
		}, []string{"outcome"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbdash_ingest_rows_total",
			Help: "Data rows seen by ingestion, by status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arbdash_ingest_duration_seconds",
			Help:    "Wall time of ingestion runs.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.rows, m.duration)
	}
	return m
}

func (m *Metrics) observeRun(err error, started time.Time) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = string(KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.duration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) observeRows(mapped, skipped int) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues("mapped").Add(float64(mapped))
	m.rows.WithLabelValues("skipped").Add(float64(skipped))
}
