// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package journal persists settlement receipts so they can be looked up
// after the fact by (provider, consumer, nonce).
package journal

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/ava-labs/computeledger/codec"
	"github.com/ava-labs/computeledger/consts"
	"github.com/ava-labs/computeledger/settlement"
)

const (
	receiptPrefix byte = 0x0
	latestPrefix  byte = 0x1
)

var _ settlement.Recorder = (*Journal)(nil)

type Journal struct {
	log logging.Logger
	db  database.KeyValueReaderWriterDeleter
}

func New(log logging.Logger, db database.KeyValueReaderWriterDeleter) *Journal {
	return &Journal{log: log, db: db}
}

// pairKey is [prefix] || provider || consumer.
func pairKey(prefix byte, provider, consumer codec.Address) []byte {
	k := make([]byte, 1+2*codec.AddressLen, 1+2*codec.AddressLen+consts.Uint64Len)
	k[0] = prefix
	copy(k[1:], provider[:])
	copy(k[1+codec.AddressLen:], consumer[:])
	return k
}

func receiptKey(provider, consumer codec.Address, nonce uint64) []byte {
	return binary.BigEndian.AppendUint64(pairKey(receiptPrefix, provider, consumer), nonce)
}

// Record stores [r] and moves the pair's latest pointer to it.
func (j *Journal) Record(_ context.Context, r *settlement.Receipt) error {
	b, err := r.Marshal()
	if err != nil {
		return err
	}
	if err := j.db.Put(receiptKey(r.Provider, r.Consumer, r.Nonce), b); err != nil {
		return err
	}
	if err := j.db.Put(
		pairKey(latestPrefix, r.Provider, r.Consumer),
		binary.BigEndian.AppendUint64(nil, r.Nonce),
	); err != nil {
		return err
	}
	j.log.Debug("recorded settlement",
		zap.Stringer("provider", r.Provider),
		zap.Stringer("consumer", r.Consumer),
		zap.Uint64("nonce", r.Nonce),
		zap.Stringer("status", r.Status),
	)
	return nil
}

// Get returns the receipt of the settlement with [nonce]. It returns
// database.ErrNotFound if there is none.
func (j *Journal) Get(provider, consumer codec.Address, nonce uint64) (*settlement.Receipt, error) {
	b, err := j.db.Get(receiptKey(provider, consumer, nonce))
	if err != nil {
		return nil, err
	}
	return settlement.UnmarshalReceipt(b)
}

// Latest returns the most recent receipt of the pair.
func (j *Journal) Latest(provider, consumer codec.Address) (*settlement.Receipt, error) {
	v, err := j.db.Get(pairKey(latestPrefix, provider, consumer))
	if err != nil {
		return nil, err
	}
	if len(v) != consts.Uint64Len {
		return nil, fmt.Errorf("%w: length=%d", ErrCorruptPointer, len(v))
	}
	return j.Get(provider, consumer, binary.BigEndian.Uint64(v))
}

// Has reports whether a receipt with [nonce] was recorded.
func (j *Journal) Has(provider, consumer codec.Address, nonce uint64) (bool, error) {
	return j.db.Has(receiptKey(provider, consumer, nonce))
}

// Forget drops the receipt with [nonce]. The latest pointer is left in
// place, so Latest may report database.ErrNotFound afterwards.
func (j *Journal) Forget(provider, consumer codec.Address, nonce uint64) error {
	err := j.db.Delete(receiptKey(provider, consumer, nonce))
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	return err
}
