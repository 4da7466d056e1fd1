// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Auth operations and outcomes recorded by Metrics.RecordAuth.
const (
	OpRegister    = "register"
	OpLogin       = "login"
	OpCurrentUser = "current_user"

	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics contains custom Prometheus metrics for DevConnector.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	AuthOutcomesTotal   *prometheus.CounterVec

	ReadinessFailuresTotal prometheus.Counter
}

// NewMetrics creates the DevConnector metrics and registers them with reg.
// Tests and disabled-metrics deployments pass a throwaway registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devconnector_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "devconnector_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devconnector_auth_outcomes_total",
				Help: "Total number of auth operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		ReadinessFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devconnector_readiness_failures_total",
			Help: "Readiness probes that found the user store unavailable",
		}),
	}

	reg.MustRegister(m.HTTPRequestsTotal)
	reg.MustRegister(m.HTTPRequestDuration)
	reg.MustRegister(m.AuthOutcomesTotal)
	reg.MustRegister(m.ReadinessFailuresTotal)

	return m
}

// RecordAuth counts one auth operation outcome.
func (m *Metrics) RecordAuth(operation, outcome string) {
	m.AuthOutcomesTotal.WithLabelValues(operation, outcome).Inc()
}
