// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pebble

import (
	"errors"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus"
)

var _ database.KeyValueReaderWriterDeleter = (*Database)(nil)

type Config struct {
	CacheSize    int64  `json:"cacheSize"    yaml:"cacheSize"`
	BytesPerSync int    `json:"bytesPerSync" yaml:"bytesPerSync"`
	MemTableSize uint64 `json:"memTableSize" yaml:"memTableSize"`
	MaxOpenFiles int    `json:"maxOpenFiles" yaml:"maxOpenFiles"`
	Sync         bool   `json:"sync"         yaml:"sync"`
}

func NewDefaultConfig() Config {
	return Config{
		CacheSize:    64 * 1024 * 1024,
		BytesPerSync: 1024 * 1024,
		MemTableSize: 32 * 1024 * 1024,
		MaxOpenFiles: 1_024,
		Sync:         true,
	}
}

// Database is a pebble-backed key-value store that reports the same
// errors as avalanchego's databases.
type Database struct {
	db      *pebble.DB
	metrics *metrics
	wo      *pebble.WriteOptions

	lock    sync.RWMutex
	closed  bool
	closing chan struct{}
	done    sync.WaitGroup
}

// New opens (or creates) the database at [file]. The returned registry
// holds the database metrics.
func New(file string, cfg Config) (*Database, *prometheus.Registry, error) {
	registry, metrics, err := newMetrics()
	if err != nil {
		return nil, nil, err
	}
	d := &Database{
		metrics: metrics,
		wo:      &pebble.WriteOptions{Sync: cfg.Sync},
		closing: make(chan struct{}),
	}
	cache := pebble.NewCache(cfg.CacheSize)
	defer cache.Unref()
	opts := &pebble.Options{
		Cache:        cache,
		BytesPerSync: cfg.BytesPerSync,
		MemTableSize: cfg.MemTableSize,
		MaxOpenFiles: cfg.MaxOpenFiles,
		EventListener: &pebble.EventListener{
			CompactionBegin: d.onCompactionBegin,
			CompactionEnd:   d.onCompactionEnd,
			WriteStallBegin: d.onWriteStallBegin,
			WriteStallEnd:   d.onWriteStallEnd,
		},
	}
	db, err := pebble.Open(file, opts)
	if err != nil {
		return nil, nil, err
	}
	d.db = db
	d.done.Add(1)
	go func() {
		defer d.done.Done()
		d.collectMetrics()
	}()
	return d, registry, nil
}

func (db *Database) Has(key []byte) (bool, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return false, database.ErrClosed
	}
	_, closer, err := db.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, closer.Close()
}

func (db *Database) Get(key []byte) ([]byte, error) {
	start := time.Now()
	defer func() {
		db.metrics.getLatency.Observe(float64(time.Since(start)))
	}()

	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return nil, database.ErrClosed
	}
	v, closer, err := db.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, closer.Close()
}

func (db *Database) Put(key []byte, value []byte) error {
	start := time.Now()
	defer func() {
		db.metrics.putLatency.Observe(float64(time.Since(start)))
	}()

	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return database.ErrClosed
	}
	return db.db.Set(key, value, db.wo)
}

func (db *Database) Delete(key []byte) error {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if db.closed {
		return database.ErrClosed
	}
	return db.db.Delete(key, db.wo)
}

func (db *Database) Close() error {
	db.lock.Lock()
	if db.closed {
		db.lock.Unlock()
		return database.ErrClosed
	}
	db.closed = true
	close(db.closing)
	db.lock.Unlock()

	db.done.Wait()
	return db.db.Close()
}
