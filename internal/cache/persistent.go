// Package cache provides the two cache tiers of the engine: a
// persistent TTL key-value store backed by BadgerDB and an ephemeral
// in-memory cache for whole graph results.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Namespace separates the two persistent cache domains. Each has its
// own TTL policy: name resolution is near-static, connection sets are
// cheap to refetch.
type Namespace string

const (
	NamespaceResolve     Namespace = "resolve"
	NamespaceConnections Namespace = "conn"

	// ResolveTTL is the lifetime of name-to-identifier mappings.
	ResolveTTL = 24 * time.Hour

	// ConnectionsTTL is the lifetime of per-entity connection sets.
	ConnectionsTTL = 1 * time.Hour
)

var namespaces = []Namespace{NamespaceResolve, NamespaceConnections}

// envelope wraps a stored value with its expiry. Expiry is checked on
// read so an entry surviving in storage past its TTL is still treated
// as absent.
type envelope struct {
	Data      json.RawMessage `json:"data"`
	ExpiresAt int64           `json:"expires_at"`
}

// StoreConfig holds configuration for the persistent cache.
type StoreConfig struct {
	// Path is the directory for the store's files. Ignored when
	// InMemory is true.
	Path string

	// InMemory disables disk persistence. Used by tests.
	InMemory bool
}

// Store is a TTL key-value cache over BadgerDB. It is best-effort: a
// write that cannot be satisfied even after eviction is dropped
// silently, and correctness never depends on a hit.
type Store struct {
	db     *badger.DB
	logger *zap.Logger
	now    func() time.Time
}

// badgerLogger adapts zap to BadgerDB's logger interface.
type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{})   { l.logger.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { l.logger.Warnf(format, args...) }
func (l *badgerLogger) Infof(format string, args ...interface{})    { l.logger.Debugf(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{})   { l.logger.Debugf(format, args...) }

// OpenStore opens the persistent cache at cfg.Path, or in memory.
func OpenStore(cfg StoreConfig, logger *zap.Logger) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("cache path is required for a persistent store")
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(&badgerLogger{logger: logger.Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func storeKey(ns Namespace, key string) []byte {
	return []byte(string(ns) + ":" + key)
}

// Get loads the value stored under (ns, key) into out. Returns false if
// the key is absent or expired; an expired entry is removed on the way
// out.
func (s *Store) Get(ns Namespace, key string, out interface{}) bool {
	full := storeKey(ns, key)

	var env envelope
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(full)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &env)
		})
	})
	if err != nil {
		if err != badger.ErrKeyNotFound {
			s.logger.Warn("cache read failed", zap.String("key", string(full)), zap.Error(err))
		}
		return false
	}

	if s.now().UnixMilli() > env.ExpiresAt {
		if derr := s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(full)
		}); derr != nil {
			s.logger.Debug("failed to remove expired cache entry", zap.Error(derr))
		}
		return false
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		s.logger.Warn("cache entry corrupt", zap.String("key", string(full)), zap.Error(err))
		return false
	}
	return true
}

// Set stores value under (ns, key) with the given TTL. On a storage
// failure it evicts all expired entries and retries; on a second
// failure it clears both engine namespaces and retries once more; if
// that also fails the write is dropped.
func (s *Store) Set(ns Namespace, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache value not serializable", zap.String("key", key), zap.Error(err))
		return
	}
	env := envelope{Data: data, ExpiresAt: s.now().Add(ttl).UnixMilli()}
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}

	full := storeKey(ns, key)
	write := func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			return txn.Set(full, payload)
		})
	}

	if err := write(); err == nil {
		return
	} else {
		s.logger.Warn("cache write failed, evicting expired entries", zap.Error(err))
	}

	s.SweepExpired()
	if err := write(); err == nil {
		return
	}

	s.logger.Warn("cache write still failing, clearing engine namespaces")
	for _, n := range namespaces {
		if err := s.db.DropPrefix([]byte(string(n) + ":")); err != nil {
			s.logger.Warn("namespace clear failed", zap.String("namespace", string(n)), zap.Error(err))
		}
	}
	if err := write(); err != nil {
		// Best-effort store; the crawl proceeds without this entry.
		s.logger.Warn("cache write dropped", zap.String("key", string(full)), zap.Error(err))
	}
}

// SweepExpired removes every expired entry across both namespaces.
func (s *Store) SweepExpired() {
	nowMilli := s.now().UnixMilli()
	var stale [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var env envelope
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &env)
			}); err != nil {
				continue
			}
			if nowMilli > env.ExpiresAt {
				stale = append(stale, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("cache sweep scan failed", zap.Error(err))
		return
	}

	if len(stale) == 0 {
		return
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, k := range stale {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("cache sweep delete failed", zap.Error(err))
		return
	}
	s.logger.Debug("swept expired cache entries", zap.Int("count", len(stale)))
}
