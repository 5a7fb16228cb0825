// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consts

const (
	IDLen     = 32
	MaxUint8  = ^uint8(0)
	MaxUint   = ^uint(0)
	MaxInt    = int(MaxUint >> 1)
	IntLen    = 4
	Uint16Len = 2
	Uint64Len = 8
	MaxUint64 = ^uint64(0)

	// PercentDenominator is the denominator used for all percentage math.
	PercentDenominator = 100
)

// Per-account limits
const (
	RefundCapacity      = 5
	DeliverableCapacity = 20
	MaxDeliverableIDLen = 64
	MaxMetadataLen      = 4_096

	// SessionTokenSlots is the number of token ids tracked by a single
	// revocation bitmap (4 words).
	SessionTokenSlots = 256
)

// Batch and pagination limits
const (
	DefaultPageSize    = 50
	MaxPageSize        = 50
	MaxSettlementBatch = 50
	MaxRecallBatch     = 20
	MaxBulkRead        = 500
)
