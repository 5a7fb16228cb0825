// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package serving

import (
	"go.uber.org/zap"

	"github.com/ava-labs/computeledger/codec"

	smath "github.com/ava-labs/avalanchego/utils/math"
)

// The methods below are driven by the ledger router when value moves
// between a consumer's master entry and its sub-accounts.

func (s *Service) Exists(consumer, provider codec.Address) bool {
	return s.accounts.Exists(consumer, provider)
}

func (s *Service) PendingRefund(consumer, provider codec.Address) (uint64, error) {
	a, err := s.accounts.Get(consumer, provider)
	if err != nil {
		return 0, err
	}
	return a.PendingRefund(), nil
}

// Open creates the sub-account of (consumer, provider) holding [amount].
// [provider] must be registered with the service.
func (s *Service) Open(consumer, provider codec.Address, amount uint64) error {
	if _, err := s.registry.Get(provider); err != nil {
		return err
	}
	a, err := s.accounts.Create(consumer, provider)
	if err != nil {
		return err
	}
	a.Balance = amount
	s.log.Debug("opened sub-account",
		zap.String("service", s.cfg.Name),
		zap.Stringer("consumer", consumer),
		zap.Stringer("provider", provider),
		zap.Uint64("amount", amount),
		zap.Uint64("nonce", a.Nonce),
	)
	return nil
}

// TopUp moves [amount] into an existing sub-account. Pending refunds are
// cancelled first, oldest first, and only the rest is added to the
// balance. It returns the cancelled amount.
func (s *Service) TopUp(consumer, provider codec.Address, amount uint64) (uint64, error) {
	a, err := s.accounts.Get(consumer, provider)
	if err != nil {
		return 0, err
	}
	cancel := min(amount, a.PendingRefund())
	balance, err := smath.Add(a.Balance, amount-cancel)
	if err != nil {
		return 0, err
	}
	cancelled := a.Refunds.Cancel(cancel)
	a.Balance = balance + cancel - cancelled
	return cancelled, nil
}

// ProcessRefunds releases every matured refund of the sub-account and
// returns the amount released.
func (s *Service) ProcessRefunds(consumer, provider codec.Address) (uint64, error) {
	a, err := s.accounts.Get(consumer, provider)
	if err != nil {
		return 0, err
	}
	paid := a.Refunds.Process(int64(s.cfg.LockTime.Seconds()), s.now())
	a.Balance -= paid
	// Released slots are stale from here on.
	if paid > 0 {
		a.Refunds.Compact()
	}
	return paid, nil
}

// RequestRemaining queues a refund of whatever is still spendable. It is a
// no-op when nothing is spendable or the refund list is full.
func (s *Service) RequestRemaining(consumer, provider codec.Address) (uint64, error) {
	a, err := s.accounts.Get(consumer, provider)
	if err != nil {
		return 0, err
	}
	spendable := a.Spendable()
	if spendable == 0 || a.Refunds.Full() {
		return 0, nil
	}
	if _, err := a.Refunds.Request(a.Balance, spendable, s.now()); err != nil {
		return 0, err
	}
	return spendable, nil
}

// Close soft-deletes every sub-account of [consumer]. Nonces survive.
func (s *Service) Close(consumer codec.Address) int {
	providers := s.accounts.Providers(consumer)
	for _, provider := range providers {
		// Providers only lists live accounts.
		_ = s.accounts.SoftDelete(consumer, provider)
	}
	return len(providers)
}

// Providers lists every provider [consumer] holds a sub-account with.
func (s *Service) Providers(consumer codec.Address) []codec.Address {
	return s.accounts.Providers(consumer)
}
