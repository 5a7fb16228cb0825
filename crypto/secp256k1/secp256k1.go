// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package secp256k1

import (
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/ava-labs/computeledger/crypto"
)

const (
	PublicKeyLen  = 33 // compressed
	PrivateKeyLen = 32
	SignatureLen  = 65 // recovery code || r || s
)

type (
	PublicKey  [PublicKeyLen]byte
	PrivateKey [PrivateKeyLen]byte
	Signature  [SignatureLen]byte
)

var (
	EmptyPublicKey  = [PublicKeyLen]byte{}
	EmptyPrivateKey = [PrivateKeyLen]byte{}
	EmptySignature  = [SignatureLen]byte{}
)

// GeneratePrivateKey returns a secp256k1 private key.
func GeneratePrivateKey() (PrivateKey, error) {
	k, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return EmptyPrivateKey, err
	}
	return PrivateKey(k.Serialize()), nil
}

// PublicKey returns the compressed public key associated with p.
func (p PrivateKey) PublicKey() PublicKey {
	k := secp256k1.PrivKeyFromBytes(p[:])
	return PublicKey(k.PubKey().SerializeCompressed())
}

func (p PublicKey) Empty() bool {
	return p == EmptyPublicKey
}

func (p PublicKey) String() string {
	return hex.EncodeToString(p[:])
}

// MarshalText returns the hex representation of p.
func (p PublicKey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses and validates a hex-encoded compressed key. The
// encoding of [EmptyPublicKey] is accepted as is.
func (p *PublicKey) UnmarshalText(input []byte) error {
	b, err := hex.DecodeString(string(input))
	if err != nil {
		return err
	}
	if len(b) == PublicKeyLen && PublicKey(b) == EmptyPublicKey {
		*p = EmptyPublicKey
		return nil
	}
	k, err := ParsePublicKey(b)
	if err != nil {
		return err
	}
	*p = k
	return nil
}

// ParsePublicKey validates that [b] is a point on the curve and returns it
// in compressed form.
func ParsePublicKey(b []byte) (PublicKey, error) {
	k, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return EmptyPublicKey, fmt.Errorf("%w: %w", crypto.ErrInvalidPublicKey, err)
	}
	return PublicKey(k.SerializeCompressed()), nil
}

// Sign returns a compact recoverable signature of [digest] by p.
func Sign(digest []byte, p PrivateKey) (Signature, error) {
	if len(digest) != crypto.DigestLen {
		return EmptySignature, crypto.ErrInvalidDigest
	}
	if p == EmptyPrivateKey {
		return EmptySignature, crypto.ErrInvalidPrivateKey
	}
	k := secp256k1.PrivKeyFromBytes(p[:])
	return Signature(ecdsa.SignCompact(k, digest, true)), nil
}

// Recover returns the public key that produced [s] over [digest].
func Recover(digest []byte, s Signature) (PublicKey, error) {
	if len(digest) != crypto.DigestLen {
		return EmptyPublicKey, crypto.ErrInvalidDigest
	}
	k, _, err := ecdsa.RecoverCompact(s[:], digest)
	if err != nil {
		return EmptyPublicKey, fmt.Errorf("%w: %w", crypto.ErrInvalidSignature, err)
	}
	return PublicKey(k.SerializeCompressed()), nil
}

// Verify returns whether s is a valid signature of [digest] by p.
func Verify(digest []byte, p PublicKey, s Signature) bool {
	if p == EmptyPublicKey {
		return false
	}
	signer, err := Recover(digest, s)
	if err != nil {
		return false
	}
	return signer == p
}
