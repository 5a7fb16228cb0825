// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package session issues and checks the short-lived tokens a consumer
// hands to a provider to access its service.
package session

import (
	"github.com/ava-labs/computeledger/codec"
	"github.com/ava-labs/computeledger/consts"
	"github.com/ava-labs/computeledger/crypto/ed25519"
)

const (
	tokenTag = "computeledger-session"

	bodyLen = consts.Uint16Len + len(tokenTag) +
		2*codec.AddressLen + consts.Uint64Len + 1 + consts.Uint64Len
	TokenLen = bodyLen + ed25519.PublicKeyLen + ed25519.SignatureLen
)

// Token authorizes [Provider] to serve [Consumer] until [Expiry]. It is
// bound to the account's revocation [Generation] at the time of issue.
type Token struct {
	Consumer   codec.Address `json:"consumer"`
	Provider   codec.Address `json:"provider"`
	Generation uint64        `json:"generation"`
	ID         uint8         `json:"id"`
	Expiry     int64         `json:"expiry"`

	Signer    ed25519.PublicKey `json:"signer"`
	Signature ed25519.Signature `json:"signature"`
}

func (t *Token) body() ([]byte, error) {
	p := codec.NewWriter(bodyLen, bodyLen)
	p.PackString(tokenTag)
	p.PackAddress(t.Consumer)
	p.PackAddress(t.Provider)
	p.PackUint64(t.Generation)
	p.PackByte(t.ID)
	p.PackInt64(t.Expiry)
	return p.Bytes(), p.Err()
}

// Issue creates a token signed by the consumer owning [priv].
func Issue(
	priv ed25519.PrivateKey,
	provider codec.Address,
	generation uint64,
	id uint8,
	expiry int64,
) (*Token, error) {
	pub := priv.PublicKey()
	t := &Token{
		Consumer:   pub.Address(),
		Provider:   provider,
		Generation: generation,
		ID:         id,
		Expiry:     expiry,
		Signer:     pub,
	}
	msg, err := t.body()
	if err != nil {
		return nil, err
	}
	t.Signature = ed25519.Sign(msg, priv)
	return t, nil
}

func (t *Token) Marshal() ([]byte, error) {
	p := codec.NewWriter(TokenLen, TokenLen)
	p.PackAddress(t.Consumer)
	p.PackAddress(t.Provider)
	p.PackUint64(t.Generation)
	p.PackByte(t.ID)
	p.PackInt64(t.Expiry)
	p.PackFixedBytes(t.Signer[:])
	p.PackFixedBytes(t.Signature[:])
	return p.Bytes(), p.Err()
}

func Unmarshal(b []byte) (*Token, error) {
	p := codec.NewReader(b, TokenLen)
	var (
		t         Token
		signer    []byte
		signature []byte
	)
	p.UnpackAddress(&t.Consumer)
	p.UnpackAddress(&t.Provider)
	t.Generation = p.UnpackUint64(false)
	t.ID = p.UnpackByte()
	t.Expiry = p.UnpackInt64(true)
	p.UnpackFixedBytes(ed25519.PublicKeyLen, &signer)
	p.UnpackFixedBytes(ed25519.SignatureLen, &signature)
	if err := p.Err(); err != nil {
		return nil, err
	}
	if !p.Empty() {
		return nil, ErrInvalidToken
	}
	copy(t.Signer[:], signer)
	copy(t.Signature[:], signature)
	return &t, nil
}
