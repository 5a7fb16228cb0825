// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/computeledger/pebble"
)

func TestNew(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	db, gatherer, err := New(pebble.NewDefaultConfig(), dir, Journal)
	require.NoError(err)
	require.DirExists(filepath.Join(dir, Journal))

	require.NoError(db.Put([]byte("k"), []byte("v")))
	v, err := db.Get([]byte("k"))
	require.NoError(err)
	require.Equal([]byte("v"), v)

	families, err := gatherer.Gather()
	require.NoError(err)
	require.NotEmpty(families)
	require.NoError(db.Close())
}
