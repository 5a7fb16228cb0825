// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import "errors"

var (
	ErrNotFound          = errors.New("service not found")
	ErrInvalidDescriptor = errors.New("invalid service descriptor")
	ErrInsufficientStake = errors.New("insufficient stake")
	ErrLimitTooLarge     = errors.New("limit too large")
)
