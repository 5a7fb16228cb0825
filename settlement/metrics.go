// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	settled   *prometheus.CounterVec
	rejected  prometheus.Counter
	charged   prometheus.Counter
	unsettled prometheus.Counter

	failedPayouts prometheus.Counter
}

func newMetrics(r prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		settled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "settlement",
			Name:      "settled",
			Help:      "number of settlement items applied, by status",
		}, []string{"status"}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "settlement",
			Name:      "rejected",
			Help:      "number of single settlements rejected before commit",
		}),
		charged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "settlement",
			Name:      "charged",
			Help:      "total value charged to sub-accounts",
		}),
		unsettled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "settlement",
			Name:      "unsettled",
			Help:      "total fee value left unpaid by partial settlements",
		}),
		failedPayouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "settlement",
			Name:      "failed_payouts",
			Help:      "number of provider payouts that failed after commit",
		}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.settled),
		r.Register(m.rejected),
		r.Register(m.charged),
		r.Register(m.unsettled),
		r.Register(m.failedPayouts),
	)
	return m, errs.Err
}

func (m *metrics) recordApplied(s Status, charged, unsettled uint64) {
	m.settled.WithLabelValues(s.String()).Inc()
	m.charged.Add(float64(charged))
	m.unsettled.Add(float64(unsettled))
}
