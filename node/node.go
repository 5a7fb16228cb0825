// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package node assembles a ledger router, its services and the receipt
// journal into one process-wide instance.
package node

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ava-labs/computeledger/journal"
	"github.com/ava-labs/computeledger/ledger"
	"github.com/ava-labs/computeledger/pubsub"
	"github.com/ava-labs/computeledger/serving"
	"github.com/ava-labs/computeledger/session"
	"github.com/ava-labs/computeledger/settlement"

	cltrace "github.com/ava-labs/computeledger/trace"
)

var ErrUnknownService = errors.New("unknown service")

// Payee moves value out of the ledger. It is used both for withdrawals
// and for provider payouts.
type Payee interface {
	ledger.Payee
	settlement.Payee
}

type Config struct {
	Ledger   ledger.Config
	Services []serving.Config
}

type Option func(*Node)

func WithRegisterer(r prometheus.Registerer) Option {
	return func(n *Node) {
		n.registerer = r
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(n *Node) {
		n.tracer = t
	}
}

// WithFeed publishes every settlement receipt to the subscribers of [s].
func WithFeed(s *pubsub.Server) Option {
	return func(n *Node) {
		n.feed = s
	}
}

// Node is read-only once New returns.
type Node struct {
	log   logging.Logger
	clock *mockable.Clock

	registerer prometheus.Registerer
	tracer     trace.Tracer
	feed       *pubsub.Server

	router   *ledger.Router
	journal  *journal.Journal
	services map[string]*serving.Service
}

func New(
	log logging.Logger,
	clock *mockable.Clock,
	cfg Config,
	db database.KeyValueReaderWriterDeleter,
	payee Payee,
	opts ...Option,
) (*Node, error) {
	n := &Node{
		log:        log,
		clock:      clock,
		registerer: prometheus.NewRegistry(),
		tracer:     cltrace.Noop,
		journal:    journal.New(log, db),
		services:   make(map[string]*serving.Service, len(cfg.Services)),
	}
	for _, opt := range opts {
		opt(n)
	}

	router, err := ledger.New(log, cfg.Ledger, payee, n.registerer)
	if err != nil {
		return nil, err
	}
	n.router = router

	rec := recorders{n.journal}
	if n.feed != nil {
		rec = append(rec, &feed{s: n.feed})
	}
	for _, scfg := range cfg.Services {
		if _, ok := n.services[scfg.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ledger.ErrDuplicateService, scfg.Name)
		}
		s, err := serving.New(
			log,
			clock,
			scfg,
			payee,
			serving.WithSpender(router),
			serving.WithRecorder(rec),
			serving.WithRegisterer(n.registerer),
			serving.WithTracer(n.tracer),
		)
		if err != nil {
			return nil, fmt.Errorf("unable to create service %s: %w", scfg.Name, err)
		}
		if err := router.RegisterService(s); err != nil {
			return nil, err
		}
		n.services[scfg.Name] = s
		log.Info("registered service",
			zap.String("name", scfg.Name),
			zap.Duration("lockTime", scfg.LockTime),
			zap.Uint64("penaltyPercent", scfg.PenaltyPercent),
		)
	}
	return n, nil
}

func (n *Node) Logger() logging.Logger { return n.log }

func (n *Node) Tracer() trace.Tracer { return n.tracer }

func (n *Node) Ledger() *ledger.Router { return n.router }

func (n *Node) Journal() *journal.Journal { return n.journal }

// Services returns the service names in registration order.
func (n *Node) Services() []string { return n.router.Services() }

func (n *Node) Service(name string) (*serving.Service, error) {
	s, ok := n.services[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, name)
	}
	return s, nil
}

// Verifier checks session tokens against the sub-accounts of [name].
func (n *Node) Verifier(name string) (*session.Verifier, error) {
	s, err := n.Service(name)
	if err != nil {
		return nil, err
	}
	return session.NewVerifier(n.clock, s), nil
}
