// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"context"

	"github.com/ava-labs/computeledger/codec"
)

// Payee moves settled value out of the engine.
type Payee interface {
	Pay(ctx context.Context, recipient codec.Address, amount uint64) error
}

// Spender is told about every charge so the consumer's master balance can
// follow the sub-account.
type Spender interface {
	RecordSpend(consumer codec.Address, amount uint64)
}

// Recorder persists receipts of applied settlements.
type Recorder interface {
	Record(ctx context.Context, r *Receipt) error
}

type noopSpender struct{}

func (noopSpender) RecordSpend(codec.Address, uint64) {}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, *Receipt) error { return nil }
