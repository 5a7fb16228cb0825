// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package session

import (
	"fmt"

	"github.com/ava-labs/avalanchego/utils/timer/mockable"

	"github.com/ava-labs/computeledger/account"
	"github.com/ava-labs/computeledger/codec"
	"github.com/ava-labs/computeledger/crypto/ed25519"
)

// RevocationSource returns the revocation state of a sub-account.
type RevocationSource interface {
	Revocation(consumer, provider codec.Address) (account.Revocation, error)
}

type Verifier struct {
	clock  *mockable.Clock
	source RevocationSource
}

func NewVerifier(clock *mockable.Clock, source RevocationSource) *Verifier {
	return &Verifier{clock: clock, source: source}
}

// Verify checks that [t] was signed by its consumer, has not expired and
// has not been revoked.
func (v *Verifier) Verify(t *Token) error {
	if t.Signer.Address() != t.Consumer {
		return fmt.Errorf("%w: %s", ErrInvalidSigner, t.Consumer)
	}
	msg, err := t.body()
	if err != nil {
		return err
	}
	if !ed25519.Verify(msg, t.Signer, t.Signature) {
		return ErrInvalidSignature
	}
	if now := v.clock.Time().Unix(); now > t.Expiry {
		return fmt.Errorf("%w: expiry=%d now=%d", ErrTokenExpired, t.Expiry, now)
	}
	r, err := v.source.Revocation(t.Consumer, t.Provider)
	if err != nil {
		return err
	}
	if r.IsRevoked(t.Generation, t.ID) {
		return fmt.Errorf("%w: generation=%d id=%d", ErrTokenRevoked, t.Generation, t.ID)
	}
	return nil
}
