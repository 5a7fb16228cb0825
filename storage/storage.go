// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/computeledger/pebble"
	"github.com/ava-labs/computeledger/utils"
)

// Journal is the namespace of the settlement receipt store.
const Journal = "journaldb"

// New opens the pebble database [namespace] under [dataDir]. The returned
// gatherer serves the database metrics.
func New(cfg pebble.Config, dataDir string, namespace string) (*pebble.Database, prometheus.Gatherer, error) {
	path, err := utils.InitSubDirectory(dataDir, namespace)
	if err != nil {
		return nil, nil, err
	}
	db, registry, err := pebble.New(path, cfg)
	if err != nil {
		return nil, nil, err
	}
	return db, registry, nil
}
