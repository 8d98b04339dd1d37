// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lvldb implements the kv.Store interface backed by LevelDB.
package lvldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	dberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/greentin/alephium/kv"
	"github.com/greentin/alephium/log"
)

var logger = log.WithContext("pkg", "lvldb")

// Options options for creating level db instance.
type Options struct {
	CacheSize              int
	OpenFilesCacheCapacity int
}

// LevelDB wraps level db impls.
type LevelDB struct {
	db        *leveldb.DB
	writeOpts *opt.WriteOptions
}

// New create a persistent level db instance.
// Create an empty one if the db at the given path does not exist.
func New(path string, opts Options) (*LevelDB, error) {
	if opts.CacheSize < 16 {
		opts.CacheSize = 16
	}
	if opts.OpenFilesCacheCapacity < 16 {
		opts.OpenFilesCacheCapacity = 16
	}

	db, err := leveldb.OpenFile(path, &opt.Options{
		OpenFilesCacheCapacity: opts.OpenFilesCacheCapacity,
		BlockCacheCapacity:     opts.CacheSize / 2 * opt.MiB,
		WriteBuffer:            opts.CacheSize / 4 * opt.MiB,
	})
	if _, corrupted := err.(*dberrors.ErrCorrupted); corrupted {
		logger.Warn("db corrupted, recovering...", "path", path)
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open leveldb at path %v", path)
	}
	return &LevelDB{
		db:        db,
		writeOpts: &opt.WriteOptions{},
	}, nil
}

// NewMem create a level db in memory, mainly for testing purpose.
func NewMem() (*LevelDB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "open in-memory leveldb")
	}
	return &LevelDB{
		db:        db,
		writeOpts: &opt.WriteOptions{},
	}, nil
}

// IsNotFound to check if the error returned by Get indicates key not found.
func (ldb *LevelDB) IsNotFound(err error) bool {
	return errors.Cause(err) == leveldb.ErrNotFound
}

// Get retrieve value for given key. It returns an error if the key is not found.
func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	return ldb.db.Get(key, nil)
}

// Has returns whether the given key exists.
func (ldb *LevelDB) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, nil)
}

// Put save value for given key.
func (ldb *LevelDB) Put(key, val []byte) error {
	return ldb.db.Put(key, val, ldb.writeOpts)
}

// Delete deletes the given key. Deleting a non-existent key is a no-op.
func (ldb *LevelDB) Delete(key []byte) error {
	return ldb.db.Delete(key, ldb.writeOpts)
}

// Snapshot takes a snapshot of the current db state.
func (ldb *LevelDB) Snapshot() kv.Snapshot {
	s, err := ldb.db.GetSnapshot()
	return &snapshot{s, err}
}

// Bulk creates a bulk putter. Writes are accumulated and applied
// atomically and synced to disk when Write returns.
func (ldb *LevelDB) Bulk() kv.Bulk {
	return &bulk{
		db:        ldb.db,
		batch:     &leveldb.Batch{},
		writeOpts: &opt.WriteOptions{Sync: true},
	}
}

// Iterate iterates over the given key range in key ascending order.
func (ldb *LevelDB) Iterate(r kv.Range) kv.Iterator {
	var limit []byte
	if len(r.Limit) > 0 {
		limit = r.Limit
	}
	return ldb.db.NewIterator(&util.Range{
		Start: r.Start,
		Limit: limit,
	}, nil)
}

// Close closes the underlying db.
func (ldb *LevelDB) Close() error {
	return ldb.db.Close()
}

type snapshot struct {
	s   *leveldb.Snapshot
	err error
}

func (sn *snapshot) Get(key []byte) ([]byte, error) {
	if sn.err != nil {
		return nil, sn.err
	}
	return sn.s.Get(key, nil)
}

func (sn *snapshot) Has(key []byte) (bool, error) {
	if sn.err != nil {
		return false, sn.err
	}
	return sn.s.Has(key, nil)
}

func (sn *snapshot) IsNotFound(err error) bool {
	return errors.Cause(err) == leveldb.ErrNotFound
}

func (sn *snapshot) Release() {
	if sn.err == nil {
		sn.s.Release()
	}
}

const bulkFlushThreshold = 64 * opt.MiB

type bulk struct {
	db        *leveldb.DB
	batch     *leveldb.Batch
	writeOpts *opt.WriteOptions
	autoFlush bool
}

func (b *bulk) Put(key, val []byte) error {
	b.batch.Put(key, val)
	return b.flushIfNeeded()
}

func (b *bulk) Delete(key []byte) error {
	b.batch.Delete(key)
	return b.flushIfNeeded()
}

func (b *bulk) EnableAutoFlush() {
	b.autoFlush = true
}

func (b *bulk) Write() error {
	if err := b.db.Write(b.batch, b.writeOpts); err != nil {
		return errors.Wrap(err, "write batch")
	}
	b.batch.Reset()
	return nil
}

func (b *bulk) flushIfNeeded() error {
	if b.autoFlush && len(b.batch.Dump()) >= bulkFlushThreshold {
		return b.Write()
	}
	return nil
}
