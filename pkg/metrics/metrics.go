// Package metrics exposes Prometheus instruments for the upload pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "family_finance"

// Metrics groups the upload counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	Uploads       *prometheus.CounterVec
	RecordsParsed *prometheus.CounterVec
	RecordsSaved  *prometheus.CounterVec
	Issues        *prometheus.CounterVec
	ParseDuration prometheus.Histogram
}

// New creates the instruments and registers them with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Uploads processed, by outcome.",
		}, []string{"outcome"}),
		RecordsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_parsed_total",
			Help:      "Records extracted from spreadsheets, by layout.",
		}, []string{"layout"}),
		RecordsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_saved_total",
			Help:      "Records persisted, by kind.",
		}, []string{"kind"}),
		Issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_issues_total",
			Help:      "Row issues reported, by phase and severity.",
		}, []string{"phase", "severity"}),
		ParseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_parse_duration_seconds",
			Help:      "Time spent reading and parsing one upload.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Uploads, m.RecordsParsed, m.RecordsSaved, m.Issues, m.ParseDuration)
	}
	return m
}

func (m *Metrics) ObserveUpload(outcome string) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveParsed(layout string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.RecordsParsed.WithLabelValues(layout).Add(float64(n))
}

func (m *Metrics) ObserveSaved(kind string) {
	if m == nil {
		return
	}
	m.RecordsSaved.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveIssues(phase, severity string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Issues.WithLabelValues(phase, severity).Add(float64(n))
}

func (m *Metrics) ObserveParseDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.ParseDuration.Observe(d.Seconds())
}
