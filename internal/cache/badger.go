package cache

import (
	"MapHub-Backend/internal/metrics"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Badger is a Cache backed by BadgerDB entry TTLs.
type Badger struct {
	db     *badger.DB
	prefix []byte
	log    *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// OpenBadger opens a badger database in dir, or in memory when dir is empty.
func OpenBadger(dir string, log *zap.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	log.Info("cache opened", zap.String("dir", dir), zap.Bool("in_memory", dir == ""))
	return NewBadger(db, "cache:", log), nil
}

// NewBadger wraps an open database. Keys are stored under prefix.
func NewBadger(db *badger.DB, prefix string, log *zap.Logger) *Badger {
	return &Badger{db: db, prefix: []byte(prefix), log: log}
}

func (b *Badger) key(k string) []byte {
	return append(append([]byte(nil), b.prefix...), k...)
}

func (b *Badger) isClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

func (b *Badger) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if b.isClosed() {
		return ErrClosed
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(b.key(key), []byte(value)).WithTTL(ttl))
	})
	metrics.CacheOperationsTotal.WithLabelValues("set", metrics.Outcome(err)).Inc()
	if err != nil {
		b.log.Error("failed to set cache entry", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

func (b *Badger) Get(_ context.Context, key string) (string, bool, error) {
	if b.isClosed() {
		return "", false, ErrClosed
	}

	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		metrics.CacheOperationsTotal.WithLabelValues("get", "miss").Inc()
		return "", false, nil
	}
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues("get", "failure").Inc()
		b.log.Error("failed to get cache entry", zap.String("key", key), zap.Error(err))
		return "", false, fmt.Errorf("failed to get cache entry: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues("get", "hit").Inc()
	return string(value), true, nil
}

func (b *Badger) Delete(_ context.Context, key string) error {
	if b.isClosed() {
		return ErrClosed
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(b.key(key))
	})
	metrics.CacheOperationsTotal.WithLabelValues("delete", metrics.Outcome(err)).Inc()
	if err != nil {
		b.log.Error("failed to delete cache entry", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (b *Badger) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}
