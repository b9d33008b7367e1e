package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg        *prometheus.Registry
	operations *prometheus.CounterVec
	mail       *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_operations_total",
			Help: "Account operations by outcome.",
		}, []string{"operation", "result"}),
		mail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_mail_deliveries_total",
			Help: "Verification mail delivery attempts by provider and outcome.",
		}, []string{"provider", "result"}),
	}
	reg.MustRegister(
		m.operations,
		m.mail,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveOperation(operation, result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) ObserveMail(provider, result string) {
	if m == nil {
		return
	}
	m.mail.WithLabelValues(provider, result).Inc()
}

// Handler returns an http.Handler for Prometheus scraping
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
