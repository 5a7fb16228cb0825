// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package account

import (
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/computeledger/codec"
	"github.com/ava-labs/computeledger/consts"
)

func newAddr() codec.Address {
	return codec.CreateAddress(0, ids.GenerateTestID())
}

func TestCreateGet(t *testing.T) {
	require := require.New(t)

	s := NewStore()
	consumer, provider := newAddr(), newAddr()
	require.False(s.Exists(consumer, provider))
	_, err := s.Get(consumer, provider)
	require.ErrorIs(err, ErrNotFound)

	a, err := s.Create(consumer, provider)
	require.NoError(err)
	a.Balance = 10

	_, err = s.Create(consumer, provider)
	require.ErrorIs(err, ErrAlreadyExists)

	got, err := s.Get(consumer, provider)
	require.NoError(err)
	require.Equal(uint64(10), got.Balance)
	require.True(s.Exists(consumer, provider))
	require.Equal(1, s.Len())
}

func TestSoftDeletePreservesNonce(t *testing.T) {
	require := require.New(t)

	s := NewStore()
	consumer, provider := newAddr(), newAddr()
	a, err := s.Create(consumer, provider)
	require.NoError(err)
	a.Balance = 100
	a.Nonce = 7
	a.Acknowledged = true
	_, err = a.Refunds.Request(a.Balance, 40, 0)
	require.NoError(err)
	_, err = a.Deliverables.Admit("job", ids.GenerateTestID(), 0)
	require.NoError(err)

	require.NoError(s.SoftDelete(consumer, provider))
	require.False(s.Exists(consumer, provider))
	require.ErrorIs(s.SoftDelete(consumer, provider), ErrNotFound)
	require.Equal(uint64(7), s.LastNonce(consumer, provider))
	require.Zero(s.Len())

	page, total, err := s.ListByProvider(provider, 0, 0)
	require.NoError(err)
	require.Empty(page)
	require.Zero(total)

	a, err = s.Create(consumer, provider)
	require.NoError(err)
	require.Equal(uint64(7), a.Nonce)
	require.Zero(a.Balance)
	require.Zero(a.PendingRefund())
	require.Zero(a.Deliverables.Len())
	require.False(a.Acknowledged)
}

func TestListPagination(t *testing.T) {
	require := require.New(t)

	s := NewStore()
	provider := newAddr()
	other := newAddr()
	consumers := make([]codec.Address, 60)
	for i := range consumers {
		consumers[i] = newAddr()
		_, err := s.Create(consumers[i], provider)
		require.NoError(err)
	}
	_, err := s.Create(consumers[0], other)
	require.NoError(err)

	page, total, err := s.ListByProvider(provider, 0, 0)
	require.NoError(err)
	require.Equal(60, total)
	require.Len(page, consts.DefaultPageSize)

	page, _, err = s.ListByProvider(provider, 50, 20)
	require.NoError(err)
	require.Len(page, 10)
	require.Equal(consumers[59], page[9].Consumer)

	page, _, err = s.ListByProvider(provider, 100, 10)
	require.NoError(err)
	require.Empty(page)

	_, _, err = s.ListByProvider(provider, 0, consts.MaxPageSize+1)
	require.ErrorIs(err, ErrLimitTooLarge)

	page, total, err = s.ListByConsumer(consumers[0], 0, 10)
	require.NoError(err)
	require.Equal(2, total)
	require.Len(page, 2)

	_, total, err = s.List(0, 1)
	require.NoError(err)
	require.Equal(61, total)

	require.ElementsMatch([]codec.Address{provider, other}, s.Providers(consumers[0]))
}

func TestIndexRemovalKeepsOthers(t *testing.T) {
	require := require.New(t)

	s := NewStore()
	provider := newAddr()
	consumers := []codec.Address{newAddr(), newAddr(), newAddr()}
	for _, c := range consumers {
		_, err := s.Create(c, provider)
		require.NoError(err)
	}
	require.NoError(s.SoftDelete(consumers[0], provider))

	page, total, err := s.ListByProvider(provider, 0, 10)
	require.NoError(err)
	require.Equal(2, total)
	got := []codec.Address{page[0].Consumer, page[1].Consumer}
	require.ElementsMatch(consumers[1:], got)
}

func TestGetMany(t *testing.T) {
	require := require.New(t)

	s := NewStore()
	provider := newAddr()
	known, unknown := newAddr(), newAddr()
	a, err := s.Create(known, provider)
	require.NoError(err)
	a.Balance = 5

	views, err := s.GetMany([]codec.Address{unknown, known}, provider)
	require.NoError(err)
	require.Len(views, 2)
	require.Equal(unknown, views[0].Consumer)
	require.Zero(views[0].Balance)
	require.Equal(uint64(5), views[1].Balance)

	_, err = s.GetMany(make([]codec.Address, consts.MaxBulkRead+1), provider)
	require.ErrorIs(err, ErrLimitTooLarge)
}

func TestRevocation(t *testing.T) {
	require := require.New(t)

	var r Revocation
	require.False(r.IsRevoked(0, 3))
	r.Revoke(3)
	r.Revoke(255)
	require.True(r.IsRevoked(0, 3))
	require.True(r.IsRevoked(0, 255))
	require.False(r.IsRevoked(0, 4))
	require.True(r.IsRevoked(1, 4))

	r.RevokeAll()
	require.Equal(uint64(1), r.Generation)
	require.True(r.IsRevoked(0, 4))
	require.False(r.IsRevoked(1, 3))
}
