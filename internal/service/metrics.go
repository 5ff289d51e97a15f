package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the lifecycle counters. A nil *Metrics records nothing.
type Metrics struct {
	submitted     prometheus.Counter
	approved      prometheus.Counter
	stampDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers lifecycle metrics on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invoice_requests_submitted_total",
			Help: "Total number of invoice requests submitted.",
		}),
		approved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invoice_requests_approved_total",
			Help: "Total number of invoice requests transitioned to approved.",
		}),
		stampDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "invoice_stamp_duration_seconds",
			Help:    "Time spent stamping approval marks onto documents.",
			Buckets: prometheus.DefBuckets,
		}, []string{"result"}),
	}
	for _, c := range []prometheus.Collector{m.submitted, m.approved, m.stampDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) incSubmitted() {
	if m != nil {
		m.submitted.Inc()
	}
}

func (m *Metrics) incApproved() {
	if m != nil {
		m.approved.Inc()
	}
}

func (m *Metrics) observeStamp(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.stampDuration.WithLabelValues(result).Observe(d.Seconds())
}
