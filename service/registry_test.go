// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import (
	"math"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/computeledger/codec"
	"github.com/ava-labs/computeledger/consts"
	"github.com/ava-labs/computeledger/crypto/secp256k1"
)

func newDescriptor(t *testing.T) Descriptor {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	return Descriptor{
		Provider:      codec.CreateAddress(0, ids.GenerateTestID()),
		Name:          "inference",
		URL:           "https://provider.example",
		Model:         "llama-3",
		Verifiability: "TeeML",
		InputPrice:    1,
		OutputPrice:   2,
		AttestorKey:   priv.PublicKey(),
	}
}

func TestRegisterRequiresStake(t *testing.T) {
	require := require.New(t)

	r := NewRegistry(logging.NoLog{}, 100)
	d := newDescriptor(t)
	_, err := r.Register(d, 99, 0)
	require.ErrorIs(err, ErrInsufficientStake)
	_, err = r.Get(d.Provider)
	require.ErrorIs(err, ErrNotFound)

	_, err = r.Register(d, 100, 0)
	require.NoError(err)
	got, err := r.Get(d.Provider)
	require.NoError(err)
	require.Equal(uint64(100), got.Stake)
	require.False(got.Trusted())

	_, err = r.Register(Descriptor{Provider: d.Provider}, 0, 0)
	require.ErrorIs(err, ErrInvalidDescriptor)
}

func TestRegisterStakeOverflow(t *testing.T) {
	require := require.New(t)

	r := NewRegistry(logging.NoLog{}, 1)
	d := newDescriptor(t)
	_, err := r.Register(d, math.MaxUint64, 0)
	require.NoError(err)

	d.URL = "https://moved.example"
	_, err = r.Register(d, 1, 10)
	require.ErrorIs(err, ErrInvalidDescriptor)

	got, err := r.Get(d.Provider)
	require.NoError(err)
	require.Equal(uint64(math.MaxUint64), got.Stake)
	require.Equal("https://provider.example", got.URL)
	require.Zero(got.UpdatedAt)
}

func TestSecurityChangeResetsAcknowledgment(t *testing.T) {
	require := require.New(t)

	r := NewRegistry(logging.NoLog{}, 0)
	d := newDescriptor(t)
	_, err := r.Register(d, 0, 0)
	require.NoError(err)
	require.NoError(r.Acknowledge(d.Provider, true))

	// Price changes keep the acknowledgment
	d.InputPrice = 10
	revoked, err := r.Register(d, 5, 1)
	require.NoError(err)
	require.False(revoked)
	got, err := r.Get(d.Provider)
	require.NoError(err)
	require.True(got.Trusted())
	require.Equal(uint64(5), got.Stake)

	// A new attestor key does not
	other, err := secp256k1.GeneratePrivateKey()
	require.NoError(err)
	d.AttestorKey = other.PublicKey()
	revoked, err = r.Register(d, 0, 2)
	require.NoError(err)
	require.True(revoked)
	got, err = r.Get(d.Provider)
	require.NoError(err)
	require.False(got.AttestorAcknowledged)
	require.Equal(int64(2), got.UpdatedAt)
}

func TestTrustedNeedsKey(t *testing.T) {
	require := require.New(t)

	r := NewRegistry(logging.NoLog{}, 0)
	d := newDescriptor(t)
	d.AttestorKey = secp256k1.EmptyPublicKey
	_, err := r.Register(d, 0, 0)
	require.NoError(err)
	require.NoError(r.Acknowledge(d.Provider, true))
	got, err := r.Get(d.Provider)
	require.NoError(err)
	require.False(got.Trusted())

	require.ErrorIs(r.Acknowledge(codec.EmptyAddress, true), ErrNotFound)
}

func TestRemoveAndList(t *testing.T) {
	require := require.New(t)

	r := NewRegistry(logging.NoLog{}, 1)
	descs := []Descriptor{newDescriptor(t), newDescriptor(t), newDescriptor(t)}
	for i, d := range descs {
		_, err := r.Register(d, uint64(i+1), 0)
		require.NoError(err)
	}

	stake, err := r.Remove(descs[0].Provider)
	require.NoError(err)
	require.Equal(uint64(1), stake)
	_, err = r.Remove(descs[0].Provider)
	require.ErrorIs(err, ErrNotFound)

	page, total, err := r.List(0, 0)
	require.NoError(err)
	require.Equal(2, total)
	require.ElementsMatch(
		[]codec.Address{descs[1].Provider, descs[2].Provider},
		[]codec.Address{page[0].Provider, page[1].Provider},
	)

	_, _, err = r.List(0, consts.MaxPageSize+1)
	require.ErrorIs(err, ErrLimitTooLarge)

	first, total, err := r.List(0, 1)
	require.NoError(err)
	require.Equal(2, total)
	second, _, err := r.List(1, 1)
	require.NoError(err)
	require.NotEqual(first[0].Provider, second[0].Provider)
	tail, total, err := r.List(2, 1)
	require.NoError(err)
	require.Equal(2, total)
	require.Empty(tail)
}
