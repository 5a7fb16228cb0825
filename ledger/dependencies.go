// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"context"

	"github.com/ava-labs/computeledger/codec"
)

// Payee moves value out of the ledger to [recipient].
type Payee interface {
	Pay(ctx context.Context, recipient codec.Address, amount uint64) error
}

// SubAccounts is a service holding per-provider sub-accounts funded from
// master entries.
type SubAccounts interface {
	Name() string

	Exists(consumer, provider codec.Address) bool
	PendingRefund(consumer, provider codec.Address) (uint64, error)

	// Open creates a sub-account holding [amount].
	Open(consumer, provider codec.Address, amount uint64) error
	// TopUp cancels up to [amount] of pending refunds and adds the rest to
	// the balance. It returns the cancelled amount.
	TopUp(consumer, provider codec.Address, amount uint64) (uint64, error)
	// ProcessRefunds releases matured refunds and returns their sum.
	ProcessRefunds(consumer, provider codec.Address) (uint64, error)
	// RequestRemaining queues a refund of the spendable balance.
	RequestRemaining(consumer, provider codec.Address) (uint64, error)
	// Close soft-deletes every sub-account of [consumer].
	Close(consumer codec.Address) int
}
