// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	entries     prometheus.Gauge
	deposited   prometheus.Counter
	withdrawn   prometheus.Counter
	transferred prometheus.Counter
	recalled    prometheus.Counter
	spent       prometheus.Counter
}

func newMetrics(r prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ledger",
			Name:      "entries",
			Help:      "number of master entries",
		}),
		deposited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "deposited",
			Help:      "total value deposited",
		}),
		withdrawn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "withdrawn",
			Help:      "total value withdrawn",
		}),
		transferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "transferred",
			Help:      "total value moved from master entries into sub-accounts",
		}),
		recalled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "recalled",
			Help:      "total value released from sub-accounts back to master entries",
		}),
		spent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "spent",
			Help:      "total value charged by settlements",
		}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.entries),
		r.Register(m.deposited),
		r.Register(m.withdrawn),
		r.Register(m.transferred),
		r.Register(m.recalled),
		r.Register(m.spent),
	)
	return m, errs.Err
}
