// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package deliverable

import "errors"

var (
	ErrNotFound          = errors.New("deliverable not found")
	ErrInvalidID         = errors.New("invalid deliverable id")
	ErrDuplicateID       = errors.New("duplicate deliverable id")
	ErrSequenceViolation = errors.New("previous deliverable not acknowledged")
	ErrAlreadySettled    = errors.New("deliverable already settled")
)
