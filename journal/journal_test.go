// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package journal

import (
	"context"
	"testing"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/computeledger/codec"
	"github.com/ava-labs/computeledger/pebble"
	"github.com/ava-labs/computeledger/settlement"
)

func testReceipt(nonce uint64) *settlement.Receipt {
	return &settlement.Receipt{
		Consumer:      codec.CreateAddress(0, ids.ID{1}),
		Provider:      codec.CreateAddress(0, ids.ID{2}),
		Nonce:         nonce,
		Fee:           50,
		Charged:       10,
		Unsettled:     40,
		Status:        settlement.StatusPartial,
		DeliverableID: "job-1",
		RequestHash:   ids.ID{3},
		Timestamp:     1_700_000_000,
	}
}

func testJournal(t *testing.T, j *Journal) {
	require := require.New(t)
	ctx := context.Background()

	first, second := testReceipt(1), testReceipt(2)
	_, err := j.Latest(first.Provider, first.Consumer)
	require.ErrorIs(err, database.ErrNotFound)

	require.NoError(j.Record(ctx, first))
	require.NoError(j.Record(ctx, second))

	got, err := j.Get(first.Provider, first.Consumer, 1)
	require.NoError(err)
	require.Equal(first, got)

	latest, err := j.Latest(first.Provider, first.Consumer)
	require.NoError(err)
	require.Equal(second, latest)

	// Pairs are directional.
	_, err = j.Latest(first.Consumer, first.Provider)
	require.ErrorIs(err, database.ErrNotFound)

	has, err := j.Has(first.Provider, first.Consumer, 3)
	require.NoError(err)
	require.False(has)

	require.NoError(j.Forget(first.Provider, first.Consumer, 1))
	_, err = j.Get(first.Provider, first.Consumer, 1)
	require.ErrorIs(err, database.ErrNotFound)
}

func TestJournalMemDB(t *testing.T) {
	testJournal(t, New(logging.NoLog{}, memdb.New()))
}

func TestJournalPebble(t *testing.T) {
	db, _, err := pebble.New(t.TempDir(), pebble.NewDefaultConfig())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, db.Close())
	}()
	testJournal(t, New(logging.NoLog{}, db))
}

func TestReceiptRejectsTrailingBytes(t *testing.T) {
	require := require.New(t)

	b, err := testReceipt(1).Marshal()
	require.NoError(err)
	_, err = settlement.UnmarshalReceipt(append(b, 0))
	require.ErrorIs(err, settlement.ErrInvalidReceipt)
}
