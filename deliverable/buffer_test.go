// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package deliverable

import (
	"strconv"
	"strings"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/computeledger/consts"
)

func admitAcked(require *require.Assertions, b *Buffer, id string) string {
	evicted, err := b.Admit(id, ids.GenerateTestID(), 0)
	require.NoError(err)
	require.NoError(b.Acknowledge(id))
	return evicted
}

func listIDs(b *Buffer) []string {
	out := []string{}
	for _, d := range b.List() {
		out = append(out, d.ID)
	}
	return out
}

func TestAdmitValidation(t *testing.T) {
	require := require.New(t)

	b := NewBuffer()
	_, err := b.Admit("", ids.Empty, 0)
	require.ErrorIs(err, ErrInvalidID)
	_, err = b.Admit(strings.Repeat("a", consts.MaxDeliverableIDLen+1), ids.Empty, 0)
	require.ErrorIs(err, ErrInvalidID)

	admitAcked(require, b, "a")
	_, err = b.Admit("a", ids.Empty, 0)
	require.ErrorIs(err, ErrDuplicateID)
	require.Equal(1, b.Len())
}

func TestAdmitRequiresPreviousAcknowledged(t *testing.T) {
	require := require.New(t)

	b := NewBuffer()
	_, err := b.Admit("first", ids.GenerateTestID(), 1)
	require.NoError(err)

	_, err = b.Admit("second", ids.GenerateTestID(), 2)
	require.ErrorIs(err, ErrSequenceViolation)
	require.Equal(1, b.Len())

	require.NoError(b.Acknowledge("first"))
	_, err = b.Admit("second", ids.GenerateTestID(), 2)
	require.NoError(err)
	require.Equal(2, b.Len())
}

func TestAdmitEvictsOldest(t *testing.T) {
	require := require.New(t)

	b := NewBuffer()
	for i := 1; i <= consts.DeliverableCapacity; i++ {
		require.Empty(admitAcked(require, b, strconv.Itoa(i)))
	}
	require.Equal(consts.DeliverableCapacity, b.Len())

	evicted, err := b.Admit("21", ids.GenerateTestID(), 0)
	require.NoError(err)
	require.Equal("1", evicted)
	require.Equal(consts.DeliverableCapacity, b.Len())

	_, err = b.Get("1")
	require.ErrorIs(err, ErrNotFound)
	d, err := b.Get("21")
	require.NoError(err)
	require.False(d.Acknowledged)

	listed := listIDs(b)
	require.Len(listed, consts.DeliverableCapacity)
	require.Equal("2", listed[0])
	require.Equal("21", listed[len(listed)-1])
}

func TestListAcrossWraparound(t *testing.T) {
	require := require.New(t)

	b := NewBuffer()
	total := 3*consts.DeliverableCapacity + 7
	for i := 0; i < total; i++ {
		admitAcked(require, b, strconv.Itoa(i))
		require.LessOrEqual(b.Len(), consts.DeliverableCapacity)
	}

	listed := listIDs(b)
	for i, id := range listed {
		require.Equal(strconv.Itoa(total-consts.DeliverableCapacity+i), id)
	}

	// Restartable
	it := b.Iterator()
	first := []string{}
	for it.Next() {
		first = append(first, it.Value().ID)
	}
	it.Reset()
	second := []string{}
	for it.Next() {
		second = append(second, it.Value().ID)
	}
	require.Equal(listed, first)
	require.Equal(first, second)
	require.Nil(it.Value())
}

func TestEvictedAlwaysAcknowledged(t *testing.T) {
	require := require.New(t)

	b := NewBuffer()
	for i := 0; i < 2*consts.DeliverableCapacity; i++ {
		if b.Len() == consts.DeliverableCapacity {
			oldest := b.List()[0]
			require.True(oldest.Acknowledged)
		}
		admitAcked(require, b, strconv.Itoa(i))
	}
}

func TestMarkSettled(t *testing.T) {
	require := require.New(t)

	b := NewBuffer()
	_, err := b.Admit("job", ids.GenerateTestID(), 0)
	require.NoError(err)

	require.NoError(b.MarkSettled("job"))
	require.ErrorIs(b.MarkSettled("job"), ErrAlreadySettled)
	require.ErrorIs(b.MarkSettled("missing"), ErrNotFound)
	require.ErrorIs(b.Acknowledge("missing"), ErrNotFound)

	require.NoError(b.SetPayload("job", []byte{1}))
	d, err := b.Get("job")
	require.NoError(err)
	require.True(d.Settled)
	require.Equal([]byte{1}, d.EncryptedPayload)
}

func TestReset(t *testing.T) {
	require := require.New(t)

	b := NewBuffer()
	admitAcked(require, b, "a")
	b.Reset()
	require.Zero(b.Len())
	_, ok := b.Last()
	require.False(ok)
	_, err := b.Get("a")
	require.ErrorIs(err, ErrNotFound)
	admitAcked(require, b, "a")
}
