package incident

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the intake pipeline. A nil *Metrics
// is a valid no-op receiver so tests and the console can skip registration.
type Metrics struct {
	SubmitsTotal     *prometheus.CounterVec
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	ConfirmsTotal    *prometheus.CounterVec
}

// NewMetrics registers and returns intake metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SubmitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "callpoint_submits_total",
			Help: "Total call submissions by result.",
		}, []string{"result"}),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "callpoint_analyses_total",
			Help: "Total analysis runs by outcome.",
		}, []string{"outcome"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "callpoint_analysis_duration_seconds",
			Help:    "Duration of analysis collaborator calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s .. ~512s
		}),
		ConfirmsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "callpoint_confirms_total",
			Help: "Total confirm requests by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.SubmitsTotal,
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.ConfirmsTotal,
	)

	return m
}

// ObserveSubmit records a submission result.
func (m *Metrics) ObserveSubmit(result string) {
	if m == nil {
		return
	}
	m.SubmitsTotal.WithLabelValues(result).Inc()
}

// ObserveAnalysis records an analysis outcome and its duration.
func (m *Metrics) ObserveAnalysis(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(outcome).Inc()
	m.AnalysisDuration.Observe(seconds)
}

// ObserveConfirm records a confirm result.
func (m *Metrics) ObserveConfirm(result string) {
	if m == nil {
		return
	}
	m.ConfirmsTotal.WithLabelValues(result).Inc()
}
