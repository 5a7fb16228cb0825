// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ava-labs/computeledger/account"
	"github.com/ava-labs/computeledger/crypto/secp256k1"
	"github.com/ava-labs/computeledger/deliverable"
	"github.com/ava-labs/computeledger/lockmap"
	"github.com/ava-labs/computeledger/service"

	cltrace "github.com/ava-labs/computeledger/trace"
)

const lockInitSize = 64

type Config struct {
	Domain         Domain
	PenaltyPercent uint64
}

type Option func(*Processor)

func WithLocks(l *lockmap.Lockmap) Option {
	return func(p *Processor) {
		p.locks = l
	}
}

func WithSpender(s Spender) Option {
	return func(p *Processor) {
		p.spender = s
	}
}

func WithRecorder(r Recorder) Option {
	return func(p *Processor) {
		p.recorder = r
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Processor) {
		p.tracer = t
	}
}

func WithRegisterer(r prometheus.Registerer) Option {
	return func(p *Processor) {
		p.registerer = r
	}
}

// Processor finalizes payment for work certified by a provider's attestor.
//
// Processor is not thread-safe. Concurrent callers must be serialized by
// the owner of the underlying stores; the lockmap only rejects re-entry.
type Processor struct {
	log   logging.Logger
	clock *mockable.Clock
	cfg   Config

	accounts *account.Store
	services *service.Registry
	payee    Payee

	locks      *lockmap.Lockmap
	spender    Spender
	recorder   Recorder
	registerer prometheus.Registerer
	tracer     trace.Tracer
	metrics    *metrics
}

func New(
	log logging.Logger,
	clock *mockable.Clock,
	cfg Config,
	accounts *account.Store,
	services *service.Registry,
	payee Payee,
	opts ...Option,
) (*Processor, error) {
	p := &Processor{
		log:        log,
		clock:      clock,
		cfg:        cfg,
		accounts:   accounts,
		services:   services,
		payee:      payee,
		spender:    noopSpender{},
		recorder:   noopRecorder{},
		registerer: prometheus.NewRegistry(),
		tracer:     cltrace.Noop,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.locks == nil {
		p.locks = lockmap.New(lockInitSize)
	}
	m, err := newMetrics(p.registerer)
	if err != nil {
		return nil, err
	}
	p.metrics = m
	return p, nil
}

func (p *Processor) Domain() Domain {
	return p.cfg.Domain
}

// Settle charges the consumer for one deliverable and pays the provider.
// Nothing is changed unless every check passes.
func (p *Processor) Settle(ctx context.Context, req *Request) (*Receipt, error) {
	ctx, span := p.tracer.Start(ctx, "Processor.Settle")
	defer span.End()

	key := AccountLockKey(req.Consumer, req.Provider)
	unlock, err := p.locks.TryLock(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountBusy, key)
	}
	defer unlock()

	acct, charge, err := p.verify(req)
	if err != nil {
		p.metrics.rejected.Inc()
		p.log.Debug("rejected settlement",
			zap.Stringer("consumer", req.Consumer),
			zap.Stringer("provider", req.Provider),
			zap.Uint64("nonce", req.Nonce),
			zap.Error(err),
		)
		return nil, err
	}

	// Commit
	acct.Nonce = req.Nonce
	d, _ := acct.Deliverables.Get(req.DeliverableID)
	d.Settled = true
	if len(req.EncryptedPayload) > 0 {
		d.EncryptedPayload = append([]byte(nil), req.EncryptedPayload...)
	}
	deduct(acct, charge)
	status := StatusSuccess
	if !d.Acknowledged {
		status = StatusPenalized
	}
	// The spender may close the account if this drained the consumer.
	p.spender.RecordSpend(req.Consumer, charge)

	receipt := &Receipt{
		Consumer:      req.Consumer,
		Provider:      req.Provider,
		Nonce:         req.Nonce,
		Fee:           req.Fee,
		Charged:       charge,
		Status:        status,
		DeliverableID: req.DeliverableID,
		RequestHash:   d.ContentHash,
		Timestamp:     p.clock.Time().Unix(),
	}
	p.metrics.recordApplied(status, charge, 0)
	p.record(ctx, receipt)

	if charge == 0 {
		return receipt, nil
	}
	if err := p.payee.Pay(ctx, req.Provider, charge); err != nil {
		p.metrics.failedPayouts.Inc()
		p.log.Error("provider payout failed after settlement",
			zap.Stringer("provider", req.Provider),
			zap.Stringer("consumer", req.Consumer),
			zap.Uint64("amount", charge),
			zap.Error(err),
		)
		return receipt, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	return receipt, nil
}

// verify runs every check of a single settlement and returns the account
// and the amount to charge.
func (p *Processor) verify(req *Request) (*account.Account, uint64, error) {
	acct, err := p.accounts.Get(req.Consumer, req.Provider)
	if err != nil {
		return nil, 0, err
	}
	desc, err := p.services.Get(req.Provider)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrNotAcknowledged, err)
	}
	if !acct.Acknowledged || !desc.Trusted() {
		return nil, 0, fmt.Errorf(
			"%w: consumer=%t operator=%t",
			ErrNotAcknowledged,
			acct.Acknowledged,
			desc.Trusted(),
		)
	}
	if req.Nonce <= acct.Nonce {
		return nil, 0, fmt.Errorf("%w: nonce=%d last=%d", ErrInvalidNonce, req.Nonce, acct.Nonce)
	}
	if req.Fee > acct.Balance {
		return nil, 0, fmt.Errorf("%w: fee=%d balance=%d", ErrInsufficientFunds, req.Fee, acct.Balance)
	}
	d, err := acct.Deliverables.Get(req.DeliverableID)
	if err != nil {
		return nil, 0, err
	}
	if d.Settled {
		return nil, 0, fmt.Errorf("%w: %s", deliverable.ErrAlreadySettled, d.ID)
	}
	if d.ContentHash != req.ContentHash {
		return nil, 0, fmt.Errorf("%w: %s", ErrContentMismatch, d.ID)
	}
	digest, err := req.Digest(p.cfg.Domain)
	if err != nil {
		return nil, 0, err
	}
	if !secp256k1.Verify(digest[:], desc.AttestorKey, req.Signature) {
		return nil, 0, ErrInvalidSignature
	}
	if d.Acknowledged {
		if len(req.EncryptedPayload) == 0 {
			return nil, 0, ErrPayloadRequired
		}
		return acct, req.Fee, nil
	}
	if len(req.EncryptedPayload) > 0 {
		return nil, 0, ErrPayloadNotEmpty
	}
	return acct, penalty(req.Fee, p.cfg.PenaltyPercent), nil
}

// deduct takes [charge] from the balance, drawing down pending refunds
// newest first when the spendable part is not enough.
func deduct(acct *account.Account, charge uint64) {
	if spendable := acct.Spendable(); charge > spendable {
		acct.Refunds.ConsumeForSettlement(charge - spendable)
	}
	acct.Balance -= charge
}

func (p *Processor) record(ctx context.Context, r *Receipt) {
	if err := p.recorder.Record(ctx, r); err != nil {
		p.log.Warn("unable to record settlement receipt",
			zap.Stringer("provider", r.Provider),
			zap.Stringer("consumer", r.Consumer),
			zap.Uint64("nonce", r.Nonce),
			zap.Error(err),
		)
	}
}

