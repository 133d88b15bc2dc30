package cache

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type diskEntry struct {
	Markup    string
	FetchedAt time.Time
	ExpiresAt int64
}

// Disk persists entries in a badger store so they survive process restarts
type Disk struct {
	db  *badger.DB
	ttl time.Duration
	now func() time.Time
}

// OpenDisk opens (or creates) a disk cache under dir
func OpenDisk(dir string, ttl time.Duration) (*Disk, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache at %s: %w", dir, err)
	}
	return NewDisk(db, ttl), nil
}

// NewDisk wraps an open badger database
func NewDisk(db *badger.DB, ttl time.Duration) *Disk {
	return &Disk{db: db, ttl: ttl, now: time.Now}
}

// Get implements the Cache interface. Expired entries are deleted.
func (d *Disk) Get(key string) (Entry, bool) {
	tx := d.db.NewTransaction(false)
	defer tx.Discard()

	item, err := tx.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, false
	}
	if err != nil {
		slog.Warn("cache read failed", "key", key, "err", err)
		return Entry{}, false
	}
	serialized, err := item.ValueCopy(nil)
	if err != nil {
		slog.Warn("cache read failed", "key", key, "err", err)
		return Entry{}, false
	}

	var cached diskEntry
	if err := gob.NewDecoder(bytes.NewBuffer(serialized)).Decode(&cached); err != nil {
		slog.Warn("dropping undecodable cache entry", "key", key, "err", err)
		d.delete(key)
		return Entry{}, false
	}

	if d.now().Unix() >= cached.ExpiresAt {
		slog.Debug("cache entry expired", "key", key)
		d.delete(key)
		return Entry{}, false
	}

	return Entry{Markup: cached.Markup, FetchedAt: cached.FetchedAt}, true
}

// Set implements the Cache interface
func (d *Disk) Set(key string, entry Entry) {
	serialized := bytes.NewBuffer(nil)
	err := gob.NewEncoder(serialized).Encode(diskEntry{
		Markup:    entry.Markup,
		FetchedAt: entry.FetchedAt,
		ExpiresAt: d.now().Add(d.ttl).Unix(),
	})
	if err != nil {
		slog.Warn("cache encode failed", "key", key, "err", err)
		return
	}

	err = d.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(key), serialized.Bytes())
	})
	if err != nil {
		slog.Warn("cache write failed", "key", key, "err", err)
	}
}

func (d *Disk) delete(key string) {
	err := d.db.Update(func(tx *badger.Txn) error {
		return tx.Delete([]byte(key))
	})
	if err != nil {
		slog.Warn("failed to delete cache entry", "key", key, "err", err)
	}
}

// Close releases the underlying store
func (d *Disk) Close() error {
	return d.db.Close()
}
