// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/stretchr/testify/require"
)

func TestFactoryWritesFile(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	f := NewFactory(logging.Config{
		RotatingWriterConfig: logging.RotatingWriterConfig{
			MaxSize:   1,
			MaxFiles:  1,
			Directory: dir,
		},
		DisableWriterDisplaying: true,
		LogLevel:                logging.Info,
		DisplayLevel:            logging.Info,
		LogFormat:               logging.Plain,
	})
	log, err := f.Make("ledger")
	require.NoError(err)
	_, err = f.Make("ledger")
	require.ErrorContains(err, "already exists")

	log.Info("settled")
	log.Debug("hidden")
	require.NoError(f.SetLevels("ledger", logging.Debug, logging.Info))
	log.Debug("shown")
	require.ErrorContains(f.SetLevels("other", logging.Debug, logging.Debug), "not found")
	f.Close()

	b, err := os.ReadFile(filepath.Join(dir, "ledger.log"))
	require.NoError(err)
	require.Contains(string(b), "settled")
	require.Contains(string(b), "shown")
	require.NotContains(string(b), "hidden")
}
