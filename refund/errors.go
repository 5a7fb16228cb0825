// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package refund

import "errors"

var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrRefundLimitExceeded = errors.New("refund limit exceeded")
	ErrZeroAmount          = errors.New("zero amount")
)
