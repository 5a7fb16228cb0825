// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package serving

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid service config")
	ErrStakeRefund   = errors.New("stake refund failed")
)
