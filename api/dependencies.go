// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/ava-labs/computeledger/journal"
	"github.com/ava-labs/computeledger/ledger"
	"github.com/ava-labs/computeledger/serving"
	"github.com/ava-labs/computeledger/session"
)

// Node is everything the API needs from a running ledger.
type Node interface {
	Logger() logging.Logger
	Tracer() trace.Tracer
	Ledger() *ledger.Router
	Journal() *journal.Journal
	Services() []string
	Service(name string) (*serving.Service, error)
	Verifier(name string) (*session.Verifier, error)
}
