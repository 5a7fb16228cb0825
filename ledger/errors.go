// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import "errors"

var (
	ErrNotFound          = errors.New("ledger entry not found")
	ErrSubAccountMissing = errors.New("sub-account not found")
	ErrZeroAmount        = errors.New("zero amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBelowMinimum      = errors.New("below minimum")
	ErrMetadataTooLarge  = errors.New("metadata too large")
	ErrUnknownService    = errors.New("unknown service")
	ErrDuplicateService  = errors.New("service already registered")
	ErrBatchTooLarge     = errors.New("batch too large")
	ErrLimitTooLarge     = errors.New("limit too large")
	ErrAccountBusy       = errors.New("account busy")
	ErrTransferFailed    = errors.New("transfer failed")
)
