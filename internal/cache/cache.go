package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/shopmonkeyus/go-common/logger"
	"github.com/tidwall/buntdb"
)

// Config is the configuration for the compiled query cache store.
type Config struct {
	Context context.Context
	Logger  logger.Logger

	// Dir is where the cache database is stored. Empty means in-memory.
	Dir string
}

// Store is a process-wide key/value store for compiled SQL text, shared
// across concurrent requests. Reads and writes are not transactional with
// respect to each other: concurrent compilations for the same key may race
// and overwrite, which is harmless because values are deterministic text.
type Store struct {
	ctx    context.Context
	logger logger.Logger
	db     *buntdb.DB
	once   sync.Once
}

// Close will close the store and the underlying database.
func (s *Store) Close() error {
	s.logger.Debug("closing")
	s.once.Do(func() {
		s.db.Shrink()
		s.db.Close()
	})
	s.logger.Debug("closed")
	return nil
}

// Get will return the compiled text for the key if present.
func (s *Store) Get(key string) (bool, string, error) {
	var value string
	var found bool
	err := s.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(key, false)
		if err != nil {
			if err == buntdb.ErrNotFound {
				return nil
			}
			return err
		}
		value = val
		found = true
		return nil
	})
	if err != nil {
		return found, "", fmt.Errorf("failed to get key: %w", err)
	}
	return found, value, nil
}

// Set will store the compiled text for the key.
func (s *Store) Set(key, value string) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, value, nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

// DeleteKey will delete the keys from the store.
func (s *Store) DeleteKey(keys ...string) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		for _, key := range keys {
			if _, err := tx.Delete(key); err != nil && err != buntdb.ErrNotFound {
				return err
			}
		}
		return nil
	})
}

func filenameFromDir(dir string) string {
	if dir == "" {
		return ":memory:"
	}
	return filepath.Join(dir, "gridbase-query-cache.db")
}

// New will create a new store with the given configuration.
func New(config Config) (*Store, error) {
	var store Store

	db, err := buntdb.Open(filenameFromDir(config.Dir))
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if config.Dir != "" {
		var dbcfg buntdb.Config
		if err := db.ReadConfig(&dbcfg); err != nil {
			return nil, fmt.Errorf("failed to read db config: %w", err)
		}
		dbcfg.SyncPolicy = buntdb.EverySecond
		if err := db.SetConfig(dbcfg); err != nil {
			return nil, fmt.Errorf("failed to set db config: %w", err)
		}
	}

	store.db = db
	store.ctx = config.Context
	store.logger = config.Logger.WithPrefix("[qcache]")

	return &store, nil
}
