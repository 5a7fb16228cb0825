// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/computeledger/codec"
	"github.com/ava-labs/computeledger/consts"
	"github.com/ava-labs/computeledger/crypto"
	"github.com/ava-labs/computeledger/crypto/secp256k1"
)

const (
	settleKind      = "settle"
	settleBatchKind = "settle-batch"

	maxDigestInput = 1_024
)

// Domain binds signatures to one deployment of the ledger so they cannot
// be replayed against another.
type Domain struct {
	Tag       string        `json:"tag"`
	NetworkID uint32        `json:"networkId"`
	Ledger    codec.Address `json:"ledger"`
}

func (d Domain) pack(p *codec.Packer, kind string) {
	p.PackString(kind)
	p.PackString(d.Tag)
	p.PackUint32(d.NetworkID)
	p.PackAddress(d.Ledger)
}

// Request asks to settle the fee of a single deliverable.
type Request struct {
	Consumer         codec.Address       `json:"consumer"`
	Provider         codec.Address       `json:"provider"`
	Fee              uint64              `json:"fee"`
	DeliverableID    string              `json:"deliverableId"`
	EncryptedPayload []byte              `json:"encryptedPayload"`
	ContentHash      ids.ID              `json:"contentHash"`
	Nonce            uint64              `json:"nonce"`
	Signature        secp256k1.Signature `json:"signature"`
}

// Digest is what the provider's attestor signs:
// keccak256(domain, deliverableID, keccak256(payload), contentHash, nonce,
// fee, consumer).
func (r *Request) Digest(d Domain) (ids.ID, error) {
	p := codec.NewWriter(256, maxDigestInput)
	d.pack(p, settleKind)
	p.PackString(r.DeliverableID)
	p.PackID(crypto.Keccak256(r.EncryptedPayload))
	p.PackID(r.ContentHash)
	p.PackUint64(r.Nonce)
	p.PackUint64(r.Fee)
	p.PackAddress(r.Consumer)
	if err := p.Err(); err != nil {
		return ids.Empty, err
	}
	return crypto.Keccak256(p.Bytes()), nil
}

// Sign fills in [r.Signature] with the attestor's signature.
func (r *Request) Sign(d Domain, attestor secp256k1.PrivateKey) error {
	digest, err := r.Digest(d)
	if err != nil {
		return err
	}
	sig, err := secp256k1.Sign(digest[:], attestor)
	if err != nil {
		return err
	}
	r.Signature = sig
	return nil
}

// BatchRequest settles a session of work identified by [RequestHash]
// rather than by a stored deliverable.
type BatchRequest struct {
	Consumer    codec.Address       `json:"consumer"`
	Provider    codec.Address       `json:"provider"`
	Fee         uint64              `json:"fee"`
	RequestHash ids.ID              `json:"requestHash"`
	Nonce       uint64              `json:"nonce"`
	Signature   secp256k1.Signature `json:"signature"`
}

// Digest is keccak256(domain, requestHash, nonce, fee, consumer, provider).
func (r *BatchRequest) Digest(d Domain) (ids.ID, error) {
	p := codec.NewWriter(192, maxDigestInput)
	d.pack(p, settleBatchKind)
	p.PackID(r.RequestHash)
	p.PackUint64(r.Nonce)
	p.PackUint64(r.Fee)
	p.PackAddress(r.Consumer)
	p.PackAddress(r.Provider)
	if err := p.Err(); err != nil {
		return ids.Empty, err
	}
	return crypto.Keccak256(p.Bytes()), nil
}

func (r *BatchRequest) Sign(d Domain, attestor secp256k1.PrivateKey) error {
	digest, err := r.Digest(d)
	if err != nil {
		return err
	}
	sig, err := secp256k1.Sign(digest[:], attestor)
	if err != nil {
		return err
	}
	r.Signature = sig
	return nil
}

// penalty is floor(fee * percent / 100) without overflowing.
func penalty(fee uint64, percent uint64) uint64 {
	q, r := fee/consts.PercentDenominator, fee%consts.PercentDenominator
	return q*percent + r*percent/consts.PercentDenominator
}
