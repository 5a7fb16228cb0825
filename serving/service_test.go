// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package serving

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ava-labs/computeledger/account"
	"github.com/ava-labs/computeledger/codec"
	"github.com/ava-labs/computeledger/crypto/secp256k1"
	"github.com/ava-labs/computeledger/deliverable"
	"github.com/ava-labs/computeledger/ledger/ledgermock"
	"github.com/ava-labs/computeledger/refund"
	"github.com/ava-labs/computeledger/service"
	"github.com/ava-labs/computeledger/settlement"
)

const testLockTime = time.Hour

var (
	consumer = codec.CreateAddress(0, ids.ID{1})
	provider = codec.CreateAddress(0, ids.ID{2})
)

func newTestService(t *testing.T, payee settlement.Payee) (*Service, *mockable.Clock) {
	require := require.New(t)

	clock := &mockable.Clock{}
	clock.Set(time.Unix(1_700_000_000, 0))
	s, err := New(logging.NoLog{}, clock, Config{
		Name:           "inference",
		LockTime:       testLockTime,
		PenaltyPercent: 30,
		MinStake:       10,
	}, payee)
	require.NoError(err)

	attestor, err := secp256k1.GeneratePrivateKey()
	require.NoError(err)
	_, err = s.RegisterProvider(service.Descriptor{
		Provider:    provider,
		Name:        "inference",
		AttestorKey: attestor.PublicKey(),
	}, 10)
	require.NoError(err)
	return s, clock
}

func TestNewRejectsBadConfig(t *testing.T) {
	require := require.New(t)

	_, err := New(logging.NoLog{}, &mockable.Clock{}, Config{}, nil)
	require.ErrorIs(err, ErrInvalidConfig)
	_, err = New(logging.NoLog{}, &mockable.Clock{}, Config{Name: "x", PenaltyPercent: 101}, nil)
	require.ErrorIs(err, ErrInvalidConfig)
}

func TestOpenRequiresRegisteredProvider(t *testing.T) {
	require := require.New(t)

	s, _ := newTestService(t, nil)
	err := s.Open(consumer, codec.CreateAddress(0, ids.ID{9}), 100)
	require.ErrorIs(err, service.ErrNotFound)
	require.False(s.Exists(consumer, provider))

	require.NoError(s.Open(consumer, provider, 100))
	require.True(s.Exists(consumer, provider))
	require.ErrorIs(s.Open(consumer, provider, 100), account.ErrAlreadyExists)
}

// A top-up equal to the pending refund only cancels the refund.
func TestTopUpCancelsRefund(t *testing.T) {
	require := require.New(t)

	s, _ := newTestService(t, nil)
	require.NoError(s.Open(consumer, provider, 1_000))
	_, err := s.RequestRefund(consumer, provider, 1_000)
	require.NoError(err)
	pending, err := s.PendingRefund(consumer, provider)
	require.NoError(err)
	require.Equal(uint64(1_000), pending)

	cancelled, err := s.TopUp(consumer, provider, 1_000)
	require.NoError(err)
	require.Equal(uint64(1_000), cancelled)

	v, err := s.Account(consumer, provider)
	require.NoError(err)
	require.Equal(uint64(1_000), v.Balance)
	require.Zero(v.PendingRefund)
	require.Empty(v.Refunds)
}

func TestTopUpBeyondPending(t *testing.T) {
	require := require.New(t)

	s, _ := newTestService(t, nil)
	require.NoError(s.Open(consumer, provider, 100))
	_, err := s.RequestRefund(consumer, provider, 40)
	require.NoError(err)

	cancelled, err := s.TopUp(consumer, provider, 100)
	require.NoError(err)
	require.Equal(uint64(40), cancelled)
	v, err := s.Account(consumer, provider)
	require.NoError(err)
	require.Equal(uint64(160), v.Balance)
	require.Zero(v.PendingRefund)
}

func TestRefundLifecycle(t *testing.T) {
	require := require.New(t)

	s, clock := newTestService(t, nil)
	require.NoError(s.Open(consumer, provider, 100))

	_, err := s.RequestRefund(consumer, provider, 0)
	require.ErrorIs(err, refund.ErrZeroAmount)
	_, err = s.RequestRefund(consumer, provider, 101)
	require.ErrorIs(err, refund.ErrInsufficientFunds)
	_, err = s.RequestRefund(consumer, provider, 30)
	require.NoError(err)

	paid, err := s.ProcessRefunds(consumer, provider)
	require.NoError(err)
	require.Zero(paid)

	clock.Set(clock.Time().Add(testLockTime))
	paid, err = s.ProcessRefunds(consumer, provider)
	require.NoError(err)
	require.Equal(uint64(30), paid)
	a, err := s.accounts.Get(consumer, provider)
	require.NoError(err)
	require.Zero(a.Refunds.Cap())

	requested, err := s.RequestRemaining(consumer, provider)
	require.NoError(err)
	require.Equal(uint64(70), requested)
	requested, err = s.RequestRemaining(consumer, provider)
	require.NoError(err)
	require.Zero(requested)

	v, err := s.Account(consumer, provider)
	require.NoError(err)
	require.Equal(uint64(70), v.Balance)
	require.Equal(uint64(70), v.PendingRefund)
}

func TestDeliverableFlow(t *testing.T) {
	require := require.New(t)

	s, _ := newTestService(t, nil)
	_, err := s.AddDeliverable(provider, consumer, "job-1", ids.ID{7})
	require.ErrorIs(err, account.ErrNotFound)

	require.NoError(s.Open(consumer, provider, 100))
	_, err = s.AddDeliverable(provider, consumer, "job-1", ids.ID{7})
	require.NoError(err)
	_, err = s.AddDeliverable(provider, consumer, "job-2", ids.ID{8})
	require.ErrorIs(err, deliverable.ErrSequenceViolation)

	require.NoError(s.AcknowledgeDeliverable(consumer, provider, "job-1"))
	_, err = s.AddDeliverable(provider, consumer, "job-2", ids.ID{8})
	require.NoError(err)

	v, err := s.Account(consumer, provider)
	require.NoError(err)
	require.Len(v.Deliverables, 2)
	require.True(v.Deliverables[0].Acknowledged)
	require.False(v.Deliverables[1].Acknowledged)
}

func TestCloseKeepsNonce(t *testing.T) {
	require := require.New(t)

	s, _ := newTestService(t, nil)
	require.NoError(s.Open(consumer, provider, 100))
	require.NoError(s.AcknowledgeProvider(consumer, provider, true))
	require.NoError(s.RevokeToken(consumer, provider, 3))

	a, err := s.accounts.Get(consumer, provider)
	require.NoError(err)
	a.Nonce = 12

	require.Equal(1, s.Close(consumer))
	require.False(s.Exists(consumer, provider))
	require.Empty(s.Providers(consumer))

	require.NoError(s.Open(consumer, provider, 5))
	v, err := s.Account(consumer, provider)
	require.NoError(err)
	require.Equal(uint64(12), v.Nonce)
	require.False(v.Acknowledged)

	r, err := s.Revocation(consumer, provider)
	require.NoError(err)
	require.False(r.IsRevoked(r.Generation, 3))
}

func TestRemoveProviderRefundsStake(t *testing.T) {
	require := require.New(t)

	ctrl := gomock.NewController(t)
	payee := ledgermock.NewMockPayee(ctrl)
	s, _ := newTestService(t, payee)

	payee.EXPECT().Pay(gomock.Any(), provider, uint64(10)).Return(nil)
	require.NoError(s.RemoveProvider(context.Background(), provider))
	_, err := s.Descriptor(provider)
	require.ErrorIs(err, service.ErrNotFound)
	require.ErrorIs(s.RemoveProvider(context.Background(), provider), service.ErrNotFound)
}

func TestRemoveProviderPayoutFailure(t *testing.T) {
	require := require.New(t)

	ctrl := gomock.NewController(t)
	payee := ledgermock.NewMockPayee(ctrl)
	s, _ := newTestService(t, payee)

	errUnavailable := errors.New("unavailable")
	payee.EXPECT().Pay(gomock.Any(), provider, uint64(10)).Return(errUnavailable)
	err := s.RemoveProvider(context.Background(), provider)
	require.ErrorIs(err, ErrStakeRefund)
	require.ErrorIs(err, errUnavailable)
}

func TestListings(t *testing.T) {
	require := require.New(t)

	s, _ := newTestService(t, nil)
	require.NoError(s.Open(consumer, provider, 100))

	all, total, err := s.Accounts(0, 0)
	require.NoError(err)
	require.Equal(1, total)
	require.Len(all, 1)

	byProvider, total, err := s.AccountsByProvider(provider, 0, 10)
	require.NoError(err)
	require.Equal(1, total)
	require.Equal(consumer, byProvider[0].Consumer)

	_, _, err = s.AccountsByConsumer(consumer, 0, 51)
	require.ErrorIs(err, account.ErrLimitTooLarge)

	many, err := s.AccountsOf([]codec.Address{consumer, provider}, provider)
	require.NoError(err)
	require.Len(many, 2)
	require.Equal(uint64(100), many[0].Balance)
	require.Zero(many[1].Balance)

	descs, total, err := s.Descriptors(0, 0)
	require.NoError(err)
	require.Equal(1, total)
	require.Equal(provider, descs[0].Provider)
}
