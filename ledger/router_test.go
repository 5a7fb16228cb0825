// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/timer/mockable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ava-labs/computeledger/codec"
	"github.com/ava-labs/computeledger/consts"
	"github.com/ava-labs/computeledger/crypto"
	"github.com/ava-labs/computeledger/crypto/secp256k1"
	"github.com/ava-labs/computeledger/ledger/ledgermock"
	"github.com/ava-labs/computeledger/service"
	"github.com/ava-labs/computeledger/serving"
	"github.com/ava-labs/computeledger/settlement"
)

const (
	serviceName  = "inference"
	testLockTime = time.Hour
)

var (
	consumer = codec.CreateAddress(0, ids.ID{1})
	provider = codec.CreateAddress(0, ids.ID{2})
	other    = codec.CreateAddress(0, ids.ID{3})
)

type env struct {
	router   *Router
	service  *serving.Service
	payee    *ledgermock.MockPayee
	clock    *mockable.Clock
	attestor secp256k1.PrivateKey
}

func newEnv(t *testing.T) *env {
	require := require.New(t)

	ctrl := gomock.NewController(t)
	payee := ledgermock.NewMockPayee(ctrl)
	clock := &mockable.Clock{}
	clock.Set(time.Unix(1_700_000_000, 0))

	router, err := New(logging.NoLog{}, Config{MinBalance: 100, MinTransfer: 10}, payee, prometheus.NewRegistry())
	require.NoError(err)
	svc, err := serving.New(logging.NoLog{}, clock, serving.Config{
		Name:           serviceName,
		LockTime:       testLockTime,
		PenaltyPercent: 30,
	}, payee, serving.WithSpender(router))
	require.NoError(err)
	require.NoError(router.RegisterService(svc))

	attestor, err := secp256k1.GeneratePrivateKey()
	require.NoError(err)
	for _, p := range []codec.Address{provider, other} {
		_, err = svc.RegisterProvider(service.Descriptor{
			Provider:    p,
			Name:        serviceName,
			AttestorKey: attestor.PublicKey(),
		}, 0)
		require.NoError(err)
		require.NoError(svc.AcknowledgeAttestor(p, true))
	}
	return &env{
		router:   router,
		service:  svc,
		payee:    payee,
		clock:    clock,
		attestor: attestor,
	}
}

func TestRegisterServiceTwice(t *testing.T) {
	require := require.New(t)

	e := newEnv(t)
	require.ErrorIs(e.router.RegisterService(e.service), ErrDuplicateService)
	require.Equal([]string{serviceName}, e.router.Services())
}

func TestDeposit(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	e := newEnv(t)
	_, err := e.router.Deposit(ctx, consumer, 99, "")
	require.ErrorIs(err, ErrBelowMinimum)
	_, err = e.router.Deposit(ctx, consumer, 0, "")
	require.ErrorIs(err, ErrZeroAmount)
	_, err = e.router.Deposit(ctx, consumer, 100, strings.Repeat("x", consts.MaxMetadataLen+1))
	require.ErrorIs(err, ErrMetadataTooLarge)
	_, err = e.router.Get(consumer)
	require.ErrorIs(err, ErrNotFound)

	entry, err := e.router.Deposit(ctx, consumer, 100, "first")
	require.NoError(err)
	require.Equal(Entry{Owner: consumer, Available: 100, Total: 100, Metadata: "first"}, entry)

	// Top-ups have no minimum and keep metadata unless replaced.
	entry, err = e.router.Deposit(ctx, consumer, 1, "")
	require.NoError(err)
	require.Equal("first", entry.Metadata)
	entry, err = e.router.DepositFor(ctx, other, consumer, 9)
	require.NoError(err)
	require.Equal(uint64(110), entry.Available)
	require.Equal(uint64(110), entry.Total)

	_, err = e.router.DepositFor(ctx, consumer, other, 50)
	require.ErrorIs(err, ErrBelowMinimum)
}

func TestTransferToProvider(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	e := newEnv(t)
	_, err := e.router.TransferToProvider(ctx, consumer, provider, serviceName, 50)
	require.ErrorIs(err, ErrNotFound)
	_, err = e.router.Deposit(ctx, consumer, 200, "")
	require.NoError(err)

	_, err = e.router.TransferToProvider(ctx, consumer, provider, "storage", 50)
	require.ErrorIs(err, ErrUnknownService)
	_, err = e.router.TransferToProvider(ctx, consumer, provider, serviceName, 9)
	require.ErrorIs(err, ErrBelowMinimum)
	_, err = e.router.TransferToProvider(ctx, consumer, provider, serviceName, 201)
	require.ErrorIs(err, ErrInsufficientFunds)
	_, err = e.router.TransferToProvider(ctx, consumer, codec.CreateAddress(0, ids.ID{9}), serviceName, 50)
	require.ErrorIs(err, service.ErrNotFound)

	cancelled, err := e.router.TransferToProvider(ctx, consumer, provider, serviceName, 50)
	require.NoError(err)
	require.Zero(cancelled)

	// Existing sub-accounts take top-ups below the transfer minimum.
	_, err = e.router.TransferToProvider(ctx, consumer, provider, serviceName, 5)
	require.NoError(err)

	entry, err := e.router.Get(consumer)
	require.NoError(err)
	require.Equal(uint64(145), entry.Available)
	require.Equal(uint64(200), entry.Total)

	v, err := e.service.Account(consumer, provider)
	require.NoError(err)
	require.Equal(uint64(55), v.Balance)
}

// A transfer equal to the pending refund of the sub-account cancels the
// refund and leaves both balances unchanged.
func TestTransferCancelsRefund(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	e := newEnv(t)
	_, err := e.router.Deposit(ctx, consumer, 2_000, "")
	require.NoError(err)
	_, err = e.router.TransferToProvider(ctx, consumer, provider, serviceName, 1_000)
	require.NoError(err)
	_, err = e.service.RequestRefund(consumer, provider, 1_000)
	require.NoError(err)

	cancelled, err := e.router.TransferToProvider(ctx, consumer, provider, serviceName, 1_000)
	require.NoError(err)
	require.Equal(uint64(1_000), cancelled)

	v, err := e.service.Account(consumer, provider)
	require.NoError(err)
	require.Equal(uint64(1_000), v.Balance)
	require.Zero(v.PendingRefund)

	entry, err := e.router.Get(consumer)
	require.NoError(err)
	require.Equal(uint64(1_000), entry.Available)
	require.Equal(uint64(2_000), entry.Total)
}

func TestRecallFunds(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	e := newEnv(t)
	_, err := e.router.Deposit(ctx, consumer, 300, "")
	require.NoError(err)
	_, err = e.router.TransferToProvider(ctx, consumer, provider, serviceName, 100)
	require.NoError(err)
	_, err = e.router.TransferToProvider(ctx, consumer, other, serviceName, 50)
	require.NoError(err)

	tooMany := make([]codec.Address, consts.MaxRecallBatch+1)
	_, err = e.router.RecallFunds(ctx, consumer, tooMany, serviceName)
	require.ErrorIs(err, ErrBatchTooLarge)
	_, err = e.router.RecallFunds(ctx, consumer, []codec.Address{provider, consumer}, serviceName)
	require.ErrorIs(err, ErrSubAccountMissing)

	// The first recall only queues refunds.
	released, err := e.router.RecallFunds(ctx, consumer, []codec.Address{provider, other}, serviceName)
	require.NoError(err)
	require.Zero(released)
	pending, err := e.service.PendingRefund(consumer, provider)
	require.NoError(err)
	require.Equal(uint64(100), pending)

	e.clock.Set(e.clock.Time().Add(testLockTime))
	released, err = e.router.RecallFunds(ctx, consumer, []codec.Address{provider, other}, serviceName)
	require.NoError(err)
	require.Equal(uint64(150), released)

	entry, err := e.router.Get(consumer)
	require.NoError(err)
	require.Equal(uint64(300), entry.Available)
	require.Equal(uint64(300), entry.Total)

	v, err := e.service.Account(consumer, provider)
	require.NoError(err)
	require.Zero(v.Balance)
	require.Zero(v.PendingRefund)
}

func TestWithdraw(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	e := newEnv(t)
	_, err := e.router.Deposit(ctx, consumer, 300, "")
	require.NoError(err)

	require.ErrorIs(e.router.Withdraw(ctx, consumer, 0), ErrZeroAmount)
	require.ErrorIs(e.router.Withdraw(ctx, consumer, 301), ErrInsufficientFunds)
	// Leaving 99 behind is neither empty nor a valid balance.
	require.ErrorIs(e.router.Withdraw(ctx, consumer, 201), ErrBelowMinimum)

	_, err = e.router.TransferToProvider(ctx, consumer, provider, serviceName, 100)
	require.NoError(err)
	require.ErrorIs(e.router.Withdraw(ctx, consumer, 201), ErrInsufficientFunds)

	e.payee.EXPECT().Pay(gomock.Any(), consumer, uint64(200)).Return(nil)
	require.NoError(e.router.Withdraw(ctx, consumer, 200))

	entry, err := e.router.Get(consumer)
	require.NoError(err)
	require.Zero(entry.Available)
	require.Equal(uint64(100), entry.Total)
	require.True(e.service.Exists(consumer, provider))
}

func TestWithdrawToZeroDestroysEntry(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	e := newEnv(t)
	_, err := e.router.Deposit(ctx, consumer, 300, "")
	require.NoError(err)
	_, err = e.router.TransferToProvider(ctx, consumer, provider, serviceName, 100)
	require.NoError(err)
	_, err = e.router.RecallFunds(ctx, consumer, []codec.Address{provider}, serviceName)
	require.NoError(err)
	e.clock.Set(e.clock.Time().Add(testLockTime))
	_, err = e.router.RecallFunds(ctx, consumer, []codec.Address{provider}, serviceName)
	require.NoError(err)

	e.payee.EXPECT().Pay(gomock.Any(), consumer, uint64(300)).Return(nil)
	require.NoError(e.router.Withdraw(ctx, consumer, 300))

	_, err = e.router.Get(consumer)
	require.ErrorIs(err, ErrNotFound)
	require.False(e.service.Exists(consumer, provider))
	entries, total, err := e.router.List(0, 0)
	require.NoError(err)
	require.Zero(total)
	require.Empty(entries)
}

func TestWithdrawTransferFailure(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	e := newEnv(t)
	_, err := e.router.Deposit(ctx, consumer, 300, "")
	require.NoError(err)

	errUnavailable := errors.New("unavailable")
	e.payee.EXPECT().Pay(gomock.Any(), consumer, uint64(100)).Return(errUnavailable)
	err = e.router.Withdraw(ctx, consumer, 100)
	require.ErrorIs(err, ErrTransferFailed)
	require.ErrorIs(err, errUnavailable)

	entry, err := e.router.Get(consumer)
	require.NoError(err)
	require.Equal(uint64(200), entry.Total)
}

// The payee runs while Withdraw still holds the caller. Any call it makes
// back into the router for the same caller must fail without changing the
// entry.
func TestWithdrawPayoutReentry(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		reenter func(*env) error
	}{
		{
			name: "withdraw",
			reenter: func(e *env) error {
				return e.router.Withdraw(ctx, consumer, 50)
			},
		},
		{
			name: "deposit",
			reenter: func(e *env) error {
				_, err := e.router.Deposit(ctx, consumer, 50, "")
				return err
			},
		},
		{
			name: "transfer to provider",
			reenter: func(e *env) error {
				_, err := e.router.TransferToProvider(ctx, consumer, provider, serviceName, 50)
				return err
			},
		},
		{
			name: "recall funds",
			reenter: func(e *env) error {
				_, err := e.router.RecallFunds(ctx, consumer, []codec.Address{provider}, serviceName)
				return err
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			e := newEnv(t)
			_, err := e.router.Deposit(ctx, consumer, 300, "")
			require.NoError(err)

			var reentryErr error
			e.payee.EXPECT().Pay(gomock.Any(), consumer, uint64(100)).DoAndReturn(
				func(context.Context, codec.Address, uint64) error {
					reentryErr = tt.reenter(e)
					return nil
				},
			)
			require.NoError(e.router.Withdraw(ctx, consumer, 100))
			require.ErrorIs(reentryErr, ErrAccountBusy)

			entry, err := e.router.Get(consumer)
			require.NoError(err)
			require.Equal(uint64(200), entry.Available)
			require.Equal(uint64(200), entry.Total)
			require.False(e.service.Exists(consumer, provider))
		})
	}
}

// Once a full withdrawal destroyed the entry, a deposit from the payout
// must not recreate it.
func TestWithdrawToZeroPayoutReentry(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	e := newEnv(t)
	_, err := e.router.Deposit(ctx, consumer, 300, "")
	require.NoError(err)

	var reentryErr error
	e.payee.EXPECT().Pay(gomock.Any(), consumer, uint64(300)).DoAndReturn(
		func(context.Context, codec.Address, uint64) error {
			_, reentryErr = e.router.Deposit(ctx, consumer, 300, "")
			return nil
		},
	)
	require.NoError(e.router.Withdraw(ctx, consumer, 300))
	require.ErrorIs(reentryErr, ErrAccountBusy)

	_, err = e.router.Get(consumer)
	require.ErrorIs(err, ErrNotFound)
}

func TestSettlementLowersTotal(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	e := newEnv(t)
	_, err := e.router.Deposit(ctx, consumer, 300, "")
	require.NoError(err)
	_, err = e.router.TransferToProvider(ctx, consumer, provider, serviceName, 100)
	require.NoError(err)
	require.NoError(e.service.AcknowledgeProvider(consumer, provider, true))

	payload := []byte("ciphertext")
	hash := crypto.Keccak256(payload)
	_, err = e.service.AddDeliverable(provider, consumer, "job-1", hash)
	require.NoError(err)
	require.NoError(e.service.AcknowledgeDeliverable(consumer, provider, "job-1"))

	req := &settlement.Request{
		Consumer:         consumer,
		Provider:         provider,
		Fee:              40,
		DeliverableID:    "job-1",
		EncryptedPayload: payload,
		ContentHash:      hash,
		Nonce:            1,
	}
	require.NoError(req.Sign(e.service.Domain(), e.attestor))

	e.payee.EXPECT().Pay(gomock.Any(), provider, uint64(40)).Return(nil)
	_, err = e.service.Settle(ctx, req)
	require.NoError(err)

	entry, err := e.router.Get(consumer)
	require.NoError(err)
	require.Equal(uint64(200), entry.Available)
	require.Equal(uint64(260), entry.Total)
}

func TestListEntries(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	e := newEnv(t)
	for i := 0; i < 3; i++ {
		_, err := e.router.Deposit(ctx, codec.CreateAddress(1, ids.ID{byte(i)}), 100, "")
		require.NoError(err)
	}
	page, total, err := e.router.List(1, 5)
	require.NoError(err)
	require.Equal(3, total)
	require.Len(page, 2)

	_, _, err = e.router.List(0, consts.MaxPageSize+1)
	require.ErrorIs(err, ErrLimitTooLarge)
}
