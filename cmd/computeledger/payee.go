// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/ava-labs/computeledger/codec"
	"github.com/ava-labs/computeledger/node"
)

var _ node.Payee = (*logPayee)(nil)

// logPayee records outbound transfers in the log. The daemon holds no
// external funds, so a payout is an instruction for the operator.
type logPayee struct {
	log logging.Logger
}

func newLogPayee(log logging.Logger) *logPayee {
	return &logPayee{log: log}
}

func (p *logPayee) Pay(_ context.Context, recipient codec.Address, amount uint64) error {
	p.log.Info("payout",
		zap.Stringer("recipient", recipient),
		zap.Uint64("amount", amount),
	)
	return nil
}
