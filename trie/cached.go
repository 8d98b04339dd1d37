// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trie

import (
	"bytes"
	"sort"

	"github.com/greentin/alephium/alephium"
)

// pending is a buffered mutation awaiting persist.
type pending struct {
	value   []byte
	deleted bool
}

// Cached is a write buffer over a persisted trie. Mutations collect
// in memory; reads consult the buffer first and fall through to the
// underlying trie. The root hash is not defined until Persist folds
// the buffer down.
//
// A Cached is not safe for concurrent use.
type Cached struct {
	trie    *Trie
	pending map[alephium.Bytes32]pending
}

// NewCached creates a write buffer over tr. The underlying trie must
// not be mutated directly while the buffer is live.
func NewCached(tr *Trie) *Cached {
	return &Cached{
		trie:    tr,
		pending: make(map[alephium.Bytes32]pending),
	}
}

// Get returns the value for key, observing buffered mutations. It
// returns nil with no error if the key is absent.
func (c *Cached) Get(key alephium.Bytes32) ([]byte, error) {
	if p, ok := c.pending[key]; ok {
		if p.deleted {
			return nil, nil
		}
		return bytes.Clone(p.value), nil
	}
	return c.trie.Get(key)
}

// Has returns whether key is present, observing buffered mutations.
func (c *Cached) Has(key alephium.Bytes32) (bool, error) {
	if p, ok := c.pending[key]; ok {
		return !p.deleted, nil
	}
	return c.trie.Has(key)
}

// Update buffers an insert or replace of key. A zero-length value
// behaves as a tolerant delete, matching Trie.Update.
func (c *Cached) Update(key alephium.Bytes32, value []byte) error {
	if len(value) == 0 {
		return c.tolerantDelete(key)
	}
	c.pending[key] = pending{value: bytes.Clone(value)}
	return nil
}

// Delete buffers a removal of key. It returns ErrKeyNotFound if the
// key is absent from the buffered view.
func (c *Cached) Delete(key alephium.Bytes32) error {
	ok, err := c.Has(key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrKeyNotFound
	}
	return c.tolerantDelete(key)
}

// tolerantDelete records the removal of key. When the underlying
// trie never held the key, a buffered put is dropped outright so
// that Persist never deletes an absent key.
func (c *Cached) tolerantDelete(key alephium.Bytes32) error {
	stored, err := c.trie.Has(key)
	if err != nil {
		return err
	}
	if stored {
		c.pending[key] = pending{deleted: true}
	} else {
		delete(c.pending, key)
	}
	return nil
}

// Persist folds the buffered mutations into the underlying trie in
// ascending key order and returns the new root hash. The buffer is
// cleared on success; on failure it is kept, the previously persisted
// root stays valid, and any nodes already written are unreferenced
// and inert.
func (c *Cached) Persist() (alephium.Bytes32, error) {
	for _, key := range sortedKeys(c.pending, nil) {
		p := c.pending[key]
		if p.deleted {
			if err := c.trie.Delete(key); err != nil {
				return alephium.Bytes32{}, err
			}
		} else {
			if err := c.trie.Update(key, p.value); err != nil {
				return alephium.Bytes32{}, err
			}
		}
	}
	c.pending = make(map[alephium.Bytes32]pending)
	return c.trie.Hash(), nil
}

// Iterate merges the buffered mutations with the underlying trie's
// entries, in key ascending order. Semantics match Trie.Iterate.
func (c *Cached) Iterate(prefix []byte, limit int, pred func(key alephium.Bytes32, value []byte) bool) ([]Entry, error) {
	return iterateWithPending(c.trie.Iterate, c.pending, prefix, limit, pred)
}

// Staging opens a rollbackable layer over the buffer.
func (c *Cached) Staging() *Staging {
	return &Staging{
		cached:  c,
		pending: make(map[alephium.Bytes32]pending),
	}
}

// merge folds another pending set into the buffer, the folded set
// winning on conflicts.
func (c *Cached) merge(other map[alephium.Bytes32]pending) error {
	for _, key := range sortedKeys(other, nil) {
		p := other[key]
		if p.deleted {
			if err := c.tolerantDelete(key); err != nil {
				return err
			}
		} else {
			c.pending[key] = p
		}
	}
	return nil
}

// sortedKeys returns the keys of pend carrying the given byte prefix,
// in ascending order.
func sortedKeys(pend map[alephium.Bytes32]pending, prefix []byte) []alephium.Bytes32 {
	keys := make([]alephium.Bytes32, 0, len(pend))
	for key := range pend {
		if bytes.HasPrefix(key[:], prefix) {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}

// iterateWithPending merges a sorted pending set over an underlying
// iteration. Each pending entry can displace at most one underlying
// entry, so fetching limit+len(pending) from below is always enough.
func iterateWithPending(
	under func(prefix []byte, limit int, pred func(key alephium.Bytes32, value []byte) bool) ([]Entry, error),
	pend map[alephium.Bytes32]pending,
	prefix []byte,
	limit int,
	pred func(key alephium.Bytes32, value []byte) bool,
) ([]Entry, error) {
	pendKeys := sortedKeys(pend, prefix)

	underLimit := limit
	if limit > 0 {
		underLimit = limit + len(pendKeys)
	}
	underEntries, err := under(prefix, underLimit, pred)
	if err != nil {
		return nil, err
	}

	var merged []Entry
	emit := func(e Entry) bool {
		merged = append(merged, e)
		return limit > 0 && len(merged) >= limit
	}
	emitPending := func(key alephium.Bytes32) bool {
		p := pend[key]
		if p.deleted {
			return false
		}
		if pred != nil && !pred(key, p.value) {
			return false
		}
		return emit(Entry{Key: key, Value: bytes.Clone(p.value)})
	}

	i, j := 0, 0
	for i < len(underEntries) && j < len(pendKeys) {
		cmp := bytes.Compare(underEntries[i].Key.Bytes(), pendKeys[j].Bytes())
		switch {
		case cmp < 0:
			if emit(underEntries[i]) {
				return merged, nil
			}
			i++
		case cmp > 0:
			if emitPending(pendKeys[j]) {
				return merged, nil
			}
			j++
		default:
			if emitPending(pendKeys[j]) {
				return merged, nil
			}
			i++
			j++
		}
	}
	for ; i < len(underEntries); i++ {
		if emit(underEntries[i]) {
			return merged, nil
		}
	}
	for ; j < len(pendKeys); j++ {
		if emitPending(pendKeys[j]) {
			return merged, nil
		}
	}
	return merged, nil
}
