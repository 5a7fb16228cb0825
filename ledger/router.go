// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger keeps each consumer's master entry and routes value
// between it and the sub-accounts the consumer holds in every service.
package ledger

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/set"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ava-labs/computeledger/codec"
	"github.com/ava-labs/computeledger/consts"
	"github.com/ava-labs/computeledger/lockmap"
	"github.com/ava-labs/computeledger/settlement"

	smath "github.com/ava-labs/avalanchego/utils/math"
)

var _ settlement.Spender = (*Router)(nil)

// Entry is the master balance of one consumer. [Total] is [Available] plus
// the balance of every sub-account the consumer holds.
type Entry struct {
	Owner     codec.Address `json:"owner"`
	Available uint64        `json:"available"`
	Total     uint64        `json:"total"`
	Metadata  string        `json:"metadata"`
}

type Config struct {
	MinBalance  uint64
	MinTransfer uint64
}

// Router is not thread-safe and requires the caller synchronize usage.
type Router struct {
	log     logging.Logger
	cfg     Config
	payee   Payee
	locks   *lockmap.Lockmap
	metrics *metrics

	entries map[codec.Address]*Entry
	owners  set.SampleableSet[codec.Address]

	services map[string]SubAccounts
	order    []string
}

func New(log logging.Logger, cfg Config, payee Payee, r prometheus.Registerer) (*Router, error) {
	m, err := newMetrics(r)
	if err != nil {
		return nil, err
	}
	return &Router{
		log:      log,
		cfg:      cfg,
		payee:    payee,
		locks:    lockmap.New(64),
		metrics:  m,
		entries:  map[codec.Address]*Entry{},
		owners:   set.NewSampleableSet[codec.Address](0),
		services: map[string]SubAccounts{},
	}, nil
}

func consumerLockKey(consumer codec.Address) string {
	return "consumer/" + consumer.String()
}

func (r *Router) lock(consumer codec.Address) (func(), error) {
	unlock, err := r.locks.TryLock(consumerLockKey(consumer))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountBusy, consumer)
	}
	return unlock, nil
}

// RegisterService makes [s] reachable by name from transfers and recalls
// and includes it in the cascade when a master entry is destroyed.
func (r *Router) RegisterService(s SubAccounts) error {
	name := s.Name()
	if _, ok := r.services[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateService, name)
	}
	r.services[name] = s
	r.order = append(r.order, name)
	return nil
}

func (r *Router) service(name string) (SubAccounts, error) {
	s, ok := r.services[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, name)
	}
	return s, nil
}

func (r *Router) entry(owner codec.Address) (*Entry, error) {
	e, ok := r.entries[owner]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, owner)
	}
	return e, nil
}

// Deposit credits [amount] to the master entry of [caller], creating it if
// needed. Non-empty [metadata] replaces what is stored.
func (r *Router) Deposit(_ context.Context, caller codec.Address, amount uint64, metadata string) (Entry, error) {
	unlock, err := r.lock(caller)
	if err != nil {
		return Entry{}, err
	}
	defer unlock()

	if len(metadata) > consts.MaxMetadataLen {
		return Entry{}, fmt.Errorf("%w: %d > %d", ErrMetadataTooLarge, len(metadata), consts.MaxMetadataLen)
	}
	e, err := r.credit(caller, amount)
	if err != nil {
		return Entry{}, err
	}
	if len(metadata) > 0 {
		e.Metadata = metadata
	}
	return *e, nil
}

// DepositFor credits [amount] sent by [sender] to the master entry of
// [consumer].
func (r *Router) DepositFor(_ context.Context, sender, consumer codec.Address, amount uint64) (Entry, error) {
	unlock, err := r.lock(consumer)
	if err != nil {
		return Entry{}, err
	}
	defer unlock()

	e, err := r.credit(consumer, amount)
	if err != nil {
		return Entry{}, err
	}
	r.log.Debug("deposit on behalf",
		zap.Stringer("sender", sender),
		zap.Stringer("consumer", consumer),
		zap.Uint64("amount", amount),
	)
	return *e, nil
}

func (r *Router) credit(owner codec.Address, amount uint64) (*Entry, error) {
	if amount == 0 {
		return nil, ErrZeroAmount
	}
	e, ok := r.entries[owner]
	if !ok {
		if amount < r.cfg.MinBalance {
			return nil, fmt.Errorf("%w: deposit=%d min=%d", ErrBelowMinimum, amount, r.cfg.MinBalance)
		}
		e = &Entry{Owner: owner, Available: amount, Total: amount}
		r.entries[owner] = e
		r.owners.Add(owner)
		r.metrics.entries.Inc()
		r.metrics.deposited.Add(float64(amount))
		r.log.Info("created ledger entry",
			zap.Stringer("owner", owner),
			zap.Uint64("amount", amount),
		)
		return e, nil
	}
	total, err := smath.Add(e.Total, amount)
	if err != nil {
		return nil, err
	}
	e.Available += amount
	e.Total = total
	r.metrics.deposited.Add(float64(amount))
	return e, nil
}

// TransferToProvider moves [amount] from the master entry of [caller] into
// its sub-account with [provider] in [serviceName]. For an existing
// sub-account, pending refunds are cancelled first and only the remainder
// leaves the master entry. It returns the cancelled amount.
func (r *Router) TransferToProvider(
	_ context.Context,
	caller codec.Address,
	provider codec.Address,
	serviceName string,
	amount uint64,
) (uint64, error) {
	unlock, err := r.lock(caller)
	if err != nil {
		return 0, err
	}
	defer unlock()

	s, err := r.service(serviceName)
	if err != nil {
		return 0, err
	}
	e, err := r.entry(caller)
	if err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, ErrZeroAmount
	}

	if !s.Exists(caller, provider) {
		if amount < r.cfg.MinTransfer {
			return 0, fmt.Errorf("%w: transfer=%d min=%d", ErrBelowMinimum, amount, r.cfg.MinTransfer)
		}
		if amount > e.Available {
			return 0, fmt.Errorf("%w: transfer=%d available=%d", ErrInsufficientFunds, amount, e.Available)
		}
		if err := s.Open(caller, provider, amount); err != nil {
			return 0, err
		}
		e.Available -= amount
		r.metrics.transferred.Add(float64(amount))
		return 0, nil
	}

	pending, err := s.PendingRefund(caller, provider)
	if err != nil {
		return 0, err
	}
	topUp := amount - min(amount, pending)
	if topUp > e.Available {
		return 0, fmt.Errorf("%w: transfer=%d available=%d", ErrInsufficientFunds, topUp, e.Available)
	}
	cancelled, err := s.TopUp(caller, provider, amount)
	if err != nil {
		return 0, err
	}
	e.Available -= amount - cancelled
	r.metrics.transferred.Add(float64(amount - cancelled))
	return cancelled, nil
}

// RecallFunds releases the matured refunds of [caller]'s sub-accounts with
// [providers] into its master entry and queues a refund of whatever each
// still holds. It returns the released amount.
func (r *Router) RecallFunds(
	_ context.Context,
	caller codec.Address,
	providers []codec.Address,
	serviceName string,
) (uint64, error) {
	if len(providers) > consts.MaxRecallBatch {
		return 0, fmt.Errorf("%w: size=%d max=%d", ErrBatchTooLarge, len(providers), consts.MaxRecallBatch)
	}
	unlock, err := r.lock(caller)
	if err != nil {
		return 0, err
	}
	defer unlock()

	s, err := r.service(serviceName)
	if err != nil {
		return 0, err
	}
	e, err := r.entry(caller)
	if err != nil {
		return 0, err
	}
	for _, provider := range providers {
		if !s.Exists(caller, provider) {
			return 0, fmt.Errorf("%w: provider=%s", ErrSubAccountMissing, provider)
		}
	}

	var released uint64
	for _, provider := range providers {
		paid, err := s.ProcessRefunds(caller, provider)
		if err != nil {
			return released, err
		}
		e.Available += paid
		released += paid
		requested, err := s.RequestRemaining(caller, provider)
		if err != nil {
			return released, err
		}
		r.log.Debug("recalled sub-account",
			zap.Stringer("consumer", caller),
			zap.Stringer("provider", provider),
			zap.Uint64("released", paid),
			zap.Uint64("requested", requested),
		)
	}
	r.metrics.recalled.Add(float64(released))
	return released, nil
}

// Withdraw pays [amount] of the available balance out to [caller]. What
// is left must be zero or at least the minimum balance. Reaching zero
// destroys the entry and every sub-account of [caller].
func (r *Router) Withdraw(ctx context.Context, caller codec.Address, amount uint64) error {
	unlock, err := r.lock(caller)
	if err != nil {
		return err
	}
	defer unlock()

	e, err := r.entry(caller)
	if err != nil {
		return err
	}
	if amount == 0 {
		return ErrZeroAmount
	}
	if amount > e.Available {
		return fmt.Errorf("%w: withdraw=%d available=%d", ErrInsufficientFunds, amount, e.Available)
	}
	if remaining := e.Total - amount; remaining != 0 && remaining < r.cfg.MinBalance {
		return fmt.Errorf("%w: remaining=%d min=%d", ErrBelowMinimum, remaining, r.cfg.MinBalance)
	}

	e.Available -= amount
	e.Total -= amount
	if e.Total == 0 {
		r.destroy(caller)
	}
	r.metrics.withdrawn.Add(float64(amount))

	if err := r.payee.Pay(ctx, caller, amount); err != nil {
		r.log.Error("withdrawal payout failed",
			zap.Stringer("owner", caller),
			zap.Uint64("amount", amount),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	return nil
}

// RecordSpend lowers the total of [consumer] by a settled charge.
func (r *Router) RecordSpend(consumer codec.Address, amount uint64) {
	e, ok := r.entries[consumer]
	if !ok {
		r.log.Error("spend recorded without ledger entry",
			zap.Stringer("consumer", consumer),
			zap.Uint64("amount", amount),
		)
		return
	}
	if amount > e.Total-e.Available {
		r.log.Error("spend exceeds sub-account balances",
			zap.Stringer("consumer", consumer),
			zap.Uint64("amount", amount),
			zap.Uint64("total", e.Total),
			zap.Uint64("available", e.Available),
		)
		amount = e.Total - e.Available
	}
	e.Total -= amount
	r.metrics.spent.Add(float64(amount))
	if e.Total == 0 {
		r.destroy(consumer)
	}
}

// destroy drops the entry of [owner] and soft-deletes its sub-accounts in
// every service.
func (r *Router) destroy(owner codec.Address) {
	delete(r.entries, owner)
	r.owners.Remove(owner)
	r.metrics.entries.Dec()

	closed := 0
	for _, name := range r.order {
		closed += r.services[name].Close(owner)
	}
	r.log.Info("destroyed ledger entry",
		zap.Stringer("owner", owner),
		zap.Int("subAccounts", closed),
	)
}

func (r *Router) Get(owner codec.Address) (Entry, error) {
	e, err := r.entry(owner)
	if err != nil {
		return Entry{}, err
	}
	return *e, nil
}

// List pages through every master entry. It returns the page and the
// total number of entries.
func (r *Router) List(offset, limit int) ([]Entry, int, error) {
	if limit == 0 {
		limit = consts.DefaultPageSize
	}
	if limit < 0 || limit > consts.MaxPageSize {
		return nil, 0, fmt.Errorf("%w: limit=%d max=%d", ErrLimitTooLarge, limit, consts.MaxPageSize)
	}
	total := r.owners.Len()
	if offset < 0 || offset >= total {
		return []Entry{}, total, nil
	}
	owners := r.owners.List()[offset:min(offset+limit, total)]
	out := make([]Entry, 0, len(owners))
	for _, owner := range owners {
		out = append(out, *r.entries[owner])
	}
	return out, total, nil
}

// Services returns the names of the registered services in registration
// order.
func (r *Router) Services() []string {
	return append([]string(nil), r.order...)
}
