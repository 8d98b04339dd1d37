// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket provides logical bucket for kv store.
type Bucket string

// NewGetter creates a bucket getter, with the bucket as key prefix.
func (b Bucket) NewGetter(src Getter) Getter {
	return &struct {
		getFunc
		hasFunc
		isNotFoundFunc
	}{
		func(key []byte) ([]byte, error) { return src.Get(b.makeKey(key)) },
		func(key []byte) (bool, error) { return src.Has(b.makeKey(key)) },
		src.IsNotFound,
	}
}

// NewPutter creates a bucket putter, with the bucket as key prefix.
func (b Bucket) NewPutter(src Putter) Putter {
	return &struct {
		putFunc
		deleteFunc
	}{
		func(key, val []byte) error { return src.Put(b.makeKey(key), val) },
		func(key []byte) error { return src.Delete(b.makeKey(key)) },
	}
}

// NewStore creates a bucket store, with the bucket as key prefix.
func (b Bucket) NewStore(src Store) Store {
	getter := b.NewGetter(src)
	putter := b.NewPutter(src)
	return &struct {
		Getter
		Putter
		snapshotFunc
		bulkFunc
		iterateFunc
	}{
		getter,
		putter,
		func() Snapshot {
			snapshot := src.Snapshot()
			return &struct {
				Getter
				releaseFunc
			}{
				b.NewGetter(snapshot),
				snapshot.Release,
			}
		},
		func() Bulk {
			bulk := src.Bulk()
			return &struct {
				Putter
				enableAutoFlushFunc
				writeFunc
			}{
				b.NewPutter(bulk),
				bulk.EnableAutoFlush,
				bulk.Write,
			}
		},
		func(r Range) Iterator {
			r = Range{
				Start: b.makeKey(r.Start),
				Limit: b.makeLimit(r.Limit),
			}
			return &trimKeyIterator{src.Iterate(r), len(b)}
		},
	}
}

func (b Bucket) makeKey(key []byte) []byte {
	newKey := make([]byte, 0, len(b)+len(key))
	return append(append(newKey, b...), key...)
}

func (b Bucket) makeLimit(limit []byte) []byte {
	if len(limit) > 0 {
		return b.makeKey(limit)
	}
	// zero-length limit means iterating to the end,
	// which maps to the key just past all keys prefixed with the bucket.
	upper := []byte(b)
	for i := len(upper) - 1; i >= 0; i-- {
		c := upper[i]
		if c < 0xff {
			next := make([]byte, i+1)
			copy(next, upper)
			next[i] = c + 1
			return next
		}
	}
	return nil
}

// trimKeyIterator strips the bucket prefix off iterated keys.
type trimKeyIterator struct {
	Iterator
	bucketLen int
}

func (i *trimKeyIterator) Key() []byte {
	return i.Iterator.Key()[i.bucketLen:]
}

type (
	getFunc             func(key []byte) ([]byte, error)
	hasFunc             func(key []byte) (bool, error)
	isNotFoundFunc      func(err error) bool
	putFunc             func(key, val []byte) error
	deleteFunc          func(key []byte) error
	snapshotFunc        func() Snapshot
	bulkFunc            func() Bulk
	iterateFunc         func(r Range) Iterator
	releaseFunc         func()
	enableAutoFlushFunc func()
	writeFunc           func() error
)

func (f getFunc) Get(key []byte) ([]byte, error)   { return f(key) }
func (f hasFunc) Has(key []byte) (bool, error)     { return f(key) }
func (f isNotFoundFunc) IsNotFound(err error) bool { return f(err) }
func (f putFunc) Put(key, val []byte) error        { return f(key, val) }
func (f deleteFunc) Delete(key []byte) error       { return f(key) }
func (f snapshotFunc) Snapshot() Snapshot          { return f() }
func (f bulkFunc) Bulk() Bulk                      { return f() }
func (f iterateFunc) Iterate(r Range) Iterator     { return f(r) }
func (f releaseFunc) Release()                     { f() }
func (f enableAutoFlushFunc) EnableAutoFlush()     { f() }
func (f writeFunc) Write() error                   { return f() }
