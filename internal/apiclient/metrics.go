package apiclient

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — счётчики запросов к бэкенду. nil-значение ничего не пишет.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.SummaryVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_backend_requests_total",
				Help: "Requests sent to the game backend",
			},
			[]string{"method", "status"},
		),
		duration: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: "admin_backend_request_duration_seconds",
				Help: "Game backend request latency",
				Objectives: map[float64]float64{
					0.5:  0.05,
					0.9:  0.01,
					0.99: 0.001,
				},
			},
			[]string{"method"},
		),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *Metrics) observe(method string, resp *http.Response, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "error"
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	m.requests.WithLabelValues(method, status).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}
