// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package serving ties together everything one marketplace service needs:
// the sub-accounts of its consumers, the descriptors of its providers and
// the settlement of their work.
package serving

import (
	"context"
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ava-labs/computeledger/account"
	"github.com/ava-labs/computeledger/codec"
	"github.com/ava-labs/computeledger/lockmap"
	"github.com/ava-labs/computeledger/service"
	"github.com/ava-labs/computeledger/settlement"
)

const lockInitSize = 256

type Config struct {
	Name           string
	LockTime       time.Duration
	PenaltyPercent uint64
	MinStake       uint64
	Domain         settlement.Domain
}

type Option func(*options)

type options struct {
	spender    settlement.Spender
	recorder   settlement.Recorder
	registerer prometheus.Registerer
	tracer     trace.Tracer
}

// WithSpender reports every settlement charge to [s].
func WithSpender(s settlement.Spender) Option {
	return func(o *options) {
		o.spender = s
	}
}

func WithRecorder(r settlement.Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// Service is not thread-safe and requires the caller synchronize usage.
type Service struct {
	log   logging.Logger
	clock *mockable.Clock
	cfg   Config

	accounts  *account.Store
	registry  *service.Registry
	processor *settlement.Processor
	locks     *lockmap.Lockmap
	payee     settlement.Payee
}

func New(
	log logging.Logger,
	clock *mockable.Clock,
	cfg Config,
	payee settlement.Payee,
	opts ...Option,
) (*Service, error) {
	if len(cfg.Name) == 0 {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidConfig)
	}
	if cfg.PenaltyPercent > 100 {
		return nil, fmt.Errorf("%w: penalty=%d", ErrInvalidConfig, cfg.PenaltyPercent)
	}
	o := &options{registerer: prometheus.NewRegistry()}
	for _, opt := range opts {
		opt(o)
	}

	s := &Service{
		log:      log,
		clock:    clock,
		cfg:      cfg,
		accounts: account.NewStore(),
		registry: service.NewRegistry(log, cfg.MinStake),
		locks:    lockmap.New(lockInitSize),
		payee:    payee,
	}
	popts := []settlement.Option{
		settlement.WithLocks(s.locks),
		settlement.WithRegisterer(prometheus.WrapRegistererWith(
			prometheus.Labels{"service": cfg.Name},
			o.registerer,
		)),
	}
	if o.spender != nil {
		popts = append(popts, settlement.WithSpender(o.spender))
	}
	if o.recorder != nil {
		popts = append(popts, settlement.WithRecorder(o.recorder))
	}
	if o.tracer != nil {
		popts = append(popts, settlement.WithTracer(o.tracer))
	}
	p, err := settlement.New(
		log,
		clock,
		settlement.Config{Domain: cfg.Domain, PenaltyPercent: cfg.PenaltyPercent},
		s.accounts,
		s.registry,
		payee,
		popts...,
	)
	if err != nil {
		return nil, err
	}
	s.processor = p
	return s, nil
}

func (s *Service) Name() string {
	return s.cfg.Name
}

func (s *Service) now() int64 {
	return s.clock.Time().Unix()
}

// Provider side

// RegisterProvider publishes or updates [d] and adds [stake]. It returns
// whether the operator's trust in the attestor was revoked by the change.
func (s *Service) RegisterProvider(d service.Descriptor, stake uint64) (bool, error) {
	return s.registry.Register(d, stake, s.now())
}

// AcknowledgeAttestor records the operator's decision about a provider's
// attestor key.
func (s *Service) AcknowledgeAttestor(provider codec.Address, trusted bool) error {
	return s.registry.Acknowledge(provider, trusted)
}

// RemoveProvider deletes the descriptor of [provider] and returns its
// stake.
func (s *Service) RemoveProvider(ctx context.Context, provider codec.Address) error {
	unlock, err := s.locks.TryLock(settlement.ProviderLockKey(provider))
	if err != nil {
		return fmt.Errorf("%w: provider=%s", settlement.ErrAccountBusy, provider)
	}
	defer unlock()

	stake, err := s.registry.Remove(provider)
	if err != nil {
		return err
	}
	if stake == 0 {
		return nil
	}
	if err := s.payee.Pay(ctx, provider, stake); err != nil {
		s.log.Error("stake refund failed",
			zap.String("service", s.cfg.Name),
			zap.Stringer("provider", provider),
			zap.Uint64("stake", stake),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrStakeRefund, err)
	}
	return nil
}

// AddDeliverable records a unit of work [provider] completed for
// [consumer]. It returns the id of the deliverable evicted to make room,
// if any.
func (s *Service) AddDeliverable(provider, consumer codec.Address, id string, contentHash ids.ID) (string, error) {
	a, err := s.accounts.Get(consumer, provider)
	if err != nil {
		return "", err
	}
	evicted, err := a.Deliverables.Admit(id, contentHash, s.now())
	if err != nil {
		return "", err
	}
	if len(evicted) > 0 {
		s.log.Debug("evicted deliverable",
			zap.Stringer("consumer", consumer),
			zap.Stringer("provider", provider),
			zap.String("id", evicted),
		)
	}
	return evicted, nil
}

func (s *Service) Settle(ctx context.Context, req *settlement.Request) (*settlement.Receipt, error) {
	return s.processor.Settle(ctx, req)
}

func (s *Service) SettleMany(ctx context.Context, provider codec.Address, reqs []*settlement.BatchRequest) ([]settlement.Result, error) {
	return s.processor.SettleMany(ctx, provider, reqs)
}

func (s *Service) Domain() settlement.Domain {
	return s.processor.Domain()
}

// Consumer side

// AcknowledgeProvider sets the consumer's half of the trust between
// [consumer] and [provider].
func (s *Service) AcknowledgeProvider(consumer, provider codec.Address, ack bool) error {
	a, err := s.accounts.Get(consumer, provider)
	if err != nil {
		return err
	}
	a.Acknowledged = ack
	return nil
}

func (s *Service) AcknowledgeDeliverable(consumer, provider codec.Address, id string) error {
	a, err := s.accounts.Get(consumer, provider)
	if err != nil {
		return err
	}
	return a.Deliverables.Acknowledge(id)
}

// RequestRefund queues [amount] of the sub-account for withdrawal once the
// lock time has passed.
func (s *Service) RequestRefund(consumer, provider codec.Address, amount uint64) (uint64, error) {
	a, err := s.accounts.Get(consumer, provider)
	if err != nil {
		return 0, err
	}
	return a.Refunds.Request(a.Balance, amount, s.now())
}

func (s *Service) SetMetadata(consumer, provider codec.Address, metadata string) error {
	a, err := s.accounts.Get(consumer, provider)
	if err != nil {
		return err
	}
	a.Metadata = metadata
	return nil
}

func (s *Service) RevokeToken(consumer, provider codec.Address, tokenID uint8) error {
	a, err := s.accounts.Get(consumer, provider)
	if err != nil {
		return err
	}
	a.Sessions.Revoke(tokenID)
	return nil
}

func (s *Service) RevokeAllTokens(consumer, provider codec.Address) error {
	a, err := s.accounts.Get(consumer, provider)
	if err != nil {
		return err
	}
	a.Sessions.RevokeAll()
	return nil
}

// Revocation returns the session revocation state of the sub-account.
func (s *Service) Revocation(consumer, provider codec.Address) (account.Revocation, error) {
	a, err := s.accounts.Get(consumer, provider)
	if err != nil {
		return account.Revocation{}, err
	}
	return a.Sessions, nil
}

// Queries

func (s *Service) Account(consumer, provider codec.Address) (account.View, error) {
	a, err := s.accounts.Get(consumer, provider)
	if err != nil {
		return account.View{}, err
	}
	return a.View(), nil
}

func (s *Service) Accounts(offset, limit int) ([]account.View, int, error) {
	return views(s.accounts.List(offset, limit))
}

func (s *Service) AccountsByProvider(provider codec.Address, offset, limit int) ([]account.View, int, error) {
	return views(s.accounts.ListByProvider(provider, offset, limit))
}

func (s *Service) AccountsByConsumer(consumer codec.Address, offset, limit int) ([]account.View, int, error) {
	return views(s.accounts.ListByConsumer(consumer, offset, limit))
}

func (s *Service) AccountsOf(consumers []codec.Address, provider codec.Address) ([]account.View, error) {
	return s.accounts.GetMany(consumers, provider)
}

func (s *Service) Descriptor(provider codec.Address) (service.Descriptor, error) {
	return s.registry.Get(provider)
}

func (s *Service) Descriptors(offset, limit int) ([]service.Descriptor, int, error) {
	return s.registry.List(offset, limit)
}

func views(accounts []*account.Account, total int, err error) ([]account.View, int, error) {
	if err != nil {
		return nil, 0, err
	}
	out := make([]account.View, len(accounts))
	for i, a := range accounts {
		out[i] = a.View()
	}
	return out, total, nil
}
