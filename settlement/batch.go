// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ava-labs/computeledger/account"
	"github.com/ava-labs/computeledger/codec"
	"github.com/ava-labs/computeledger/consts"
	"github.com/ava-labs/computeledger/crypto/secp256k1"
)

type Status uint8

const (
	StatusSuccess Status = iota
	StatusPartial
	StatusProviderMismatch
	StatusNoTrust
	StatusInvalidNonce
	StatusInvalidSignature
	// StatusPenalized marks a single settlement of an unacknowledged
	// deliverable that was charged the penalty rate.
	StatusPenalized
	// StatusAccountBusy marks an item whose account was held by another
	// operation.
	StatusAccountBusy
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPartial:
		return "partial"
	case StatusProviderMismatch:
		return "provider_mismatch"
	case StatusNoTrust:
		return "no_trust"
	case StatusInvalidNonce:
		return "invalid_nonce"
	case StatusInvalidSignature:
		return "invalid_signature"
	case StatusPenalized:
		return "penalized"
	case StatusAccountBusy:
		return "account_busy"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for c := StatusSuccess; c <= StatusAccountBusy; c++ {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownStatus, b)
}

// Applied reports whether an item with this status moved value.
func (s Status) Applied() bool {
	return s == StatusSuccess || s == StatusPartial || s == StatusPenalized
}

// Result is the outcome of one item of a batch.
type Result struct {
	Status    Status `json:"status"`
	Charged   uint64 `json:"charged"`
	Unsettled uint64 `json:"unsettled"`
}

// Err maps a rejected item to the error a single settlement would have
// returned.
func (r Result) Err() error {
	switch r.Status {
	case StatusProviderMismatch:
		return ErrProviderMismatch
	case StatusNoTrust:
		return ErrNotAcknowledged
	case StatusInvalidNonce:
		return ErrInvalidNonce
	case StatusInvalidSignature:
		return ErrInvalidSignature
	case StatusAccountBusy:
		return ErrAccountBusy
	default:
		return nil
	}
}

// SettleMany applies a batch of session settlements for [provider]. A bad
// item never aborts the batch; it is reported in the matching [Result].
// The sum of all charges is paid to [provider] once at the end.
func (p *Processor) SettleMany(ctx context.Context, provider codec.Address, reqs []*BatchRequest) ([]Result, error) {
	ctx, span := p.tracer.Start(ctx, "Processor.SettleMany")
	defer span.End()

	switch {
	case len(reqs) == 0:
		return nil, ErrEmptyBatch
	case len(reqs) > consts.MaxSettlementBatch:
		return nil, fmt.Errorf("%w: size=%d max=%d", ErrBatchTooLarge, len(reqs), consts.MaxSettlementBatch)
	}
	for i, req := range reqs {
		if req == nil {
			return nil, fmt.Errorf("%w: index=%d", ErrMissingItem, i)
		}
	}

	unlock, err := p.locks.TryLock(ProviderLockKey(provider))
	if err != nil {
		return nil, fmt.Errorf("%w: provider=%s", ErrAccountBusy, provider)
	}
	defer unlock()

	desc, err := p.services.Get(provider)
	trusted := err == nil && desc.Trusted()

	// Account locks are held until the payout returns.
	held := make(map[string]func())
	defer func() {
		for _, unlock := range held {
			unlock()
		}
	}()

	var (
		results = make([]Result, len(reqs))
		total   uint64
		now     = p.clock.Time().Unix()
	)
	for i, req := range reqs {
		if req.Provider == provider {
			key := AccountLockKey(req.Consumer, provider)
			if _, ok := held[key]; !ok {
				unlock, err := p.locks.TryLock(key)
				if err != nil {
					results[i] = Result{Status: StatusAccountBusy}
					continue
				}
				held[key] = unlock
			}
		}
		res := p.settleItem(ctx, provider, trusted, desc.AttestorKey, req, now)
		results[i] = res
		total += res.Charged
	}

	p.log.Debug("settled batch",
		zap.Stringer("provider", provider),
		zap.Int("items", len(reqs)),
		zap.Uint64("total", total),
	)
	if total == 0 {
		return results, nil
	}
	if err := p.payee.Pay(ctx, provider, total); err != nil {
		p.metrics.failedPayouts.Inc()
		p.log.Error("provider payout failed after batch settlement",
			zap.Stringer("provider", provider),
			zap.Uint64("amount", total),
			zap.Error(err),
		)
		return results, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	return results, nil
}

func (p *Processor) settleItem(
	ctx context.Context,
	provider codec.Address,
	trusted bool,
	attestor secp256k1.PublicKey,
	req *BatchRequest,
	now int64,
) Result {
	if req.Provider != provider {
		return Result{Status: StatusProviderMismatch}
	}
	acct, err := p.accounts.Get(req.Consumer, provider)
	if err != nil || !trusted || !acct.Acknowledged {
		return Result{Status: StatusNoTrust}
	}
	if req.Nonce <= acct.Nonce {
		return Result{Status: StatusInvalidNonce}
	}
	digest, err := req.Digest(p.cfg.Domain)
	if err != nil || !secp256k1.Verify(digest[:], attestor, req.Signature) {
		return Result{Status: StatusInvalidSignature}
	}

	res := Result{Status: StatusSuccess, Charged: req.Fee}
	if req.Fee > acct.Balance {
		res = Result{
			Status:    StatusPartial,
			Charged:   acct.Balance,
			Unsettled: req.Fee - acct.Balance,
		}
	}

	acct.Nonce = req.Nonce
	deduct(acct, res.Charged)
	p.spender.RecordSpend(req.Consumer, res.Charged)

	p.metrics.recordApplied(res.Status, res.Charged, res.Unsettled)
	p.record(ctx, &Receipt{
		Consumer:    req.Consumer,
		Provider:    provider,
		Nonce:       req.Nonce,
		Fee:         req.Fee,
		Charged:     res.Charged,
		Unsettled:   res.Unsettled,
		Status:      res.Status,
		RequestHash: req.RequestHash,
		Timestamp:   now,
	})
	return res
}

// ProviderLockKey is the lockmap key held by operations on every account
// of one provider.
func ProviderLockKey(provider codec.Address) string {
	return "provider/" + provider.String()
}

// AccountLockKey is the lockmap key held by operations on one account.
func AccountLockKey(consumer, provider codec.Address) string {
	return account.Key{Consumer: consumer, Provider: provider}.String()
}
