package rag

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the query pipeline.
type Metrics struct {
	queries      *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	sources      prometheus.Histogram
	translations prometheus.Counter
}

// NewMetrics creates pipeline metrics on the given registerer.
// A nil registerer falls back to the default global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ragd_queries_total",
			Help: "Total RAG queries by detected language and status.",
		}, []string{"language", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ragd_query_duration_seconds",
			Help:    "End-to-end query duration by pipeline stage.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		}, []string{"stage"}),
		sources: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ragd_query_sources",
			Help:    "Number of sources feeding each generated answer.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		translations: factory.NewCounter(prometheus.CounterOpts{
			Name: "ragd_query_translations_total",
			Help: "Context chunks translated to the target language.",
		}),
	}
}

// RecordQuery records a completed query.
func (m *Metrics) RecordQuery(lang string, err error, total time.Duration, sourceCount, translated int) {
	if m == nil {
		return
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	m.queries.WithLabelValues(lang, status).Inc()
	m.duration.WithLabelValues("total").Observe(total.Seconds())
	if err == nil {
		m.sources.Observe(float64(sourceCount))
	}
	if translated > 0 {
		m.translations.Add(float64(translated))
	}
}

// RecordStage records the duration of one pipeline stage.
func (m *Metrics) RecordStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(stage).Observe(d.Seconds())
}
