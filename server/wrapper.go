// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Wrapper interface {
	// WrapHandler wraps an http.Handler.
	WrapHandler(h http.Handler) http.Handler
}

var _ Wrapper = (*metricsWrapper)(nil)

type metricsWrapper struct {
	requests *prometheus.CounterVec
	inflight prometheus.Gauge
	duration *prometheus.HistogramVec
}

// NewMetricsWrapper instruments every request served with request counts,
// in-flight requests and latency.
func NewMetricsWrapper(r prometheus.Registerer) (Wrapper, error) {
	w := &metricsWrapper{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests",
			Help: "number of API requests by response code",
		}, []string{"code"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "api_inflight_requests",
			Help: "number of API requests being served",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "latency of API requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"code"}),
	}
	for _, c := range []prometheus.Collector{w.requests, w.inflight, w.duration} {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (m *metricsWrapper) WrapHandler(h http.Handler) http.Handler {
	return promhttp.InstrumentHandlerInFlight(
		m.inflight,
		promhttp.InstrumentHandlerDuration(
			m.duration,
			promhttp.InstrumentHandlerCounter(m.requests, h),
		),
	)
}
