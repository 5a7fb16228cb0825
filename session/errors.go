// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package session

import "errors"

var (
	ErrTokenRevoked     = errors.New("token revoked")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidSigner    = errors.New("signer does not own the account")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrInvalidToken     = errors.New("invalid token")
)
