// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"errors"
	"fmt"
)

var (
	ErrNotAcknowledged   = errors.New("provider not acknowledged")
	ErrInvalidNonce      = errors.New("invalid nonce")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrContentMismatch   = errors.New("content mismatch")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrProviderMismatch  = errors.New("provider mismatch")
	ErrEmptyBatch        = errors.New("empty batch")
	ErrBatchTooLarge     = errors.New("batch too large")
	ErrMissingItem       = errors.New("missing batch item")
	ErrAccountBusy       = errors.New("account busy")
	ErrTransferFailed    = errors.New("transfer failed")
	ErrInvalidReceipt    = errors.New("invalid receipt")
	ErrUnknownStatus     = errors.New("unknown status")

	ErrPayloadRequired = fmt.Errorf("%w: acknowledged deliverable requires a payload", ErrContentMismatch)
	ErrPayloadNotEmpty = fmt.Errorf("%w: payload must be empty", ErrContentMismatch)
)
