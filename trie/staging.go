// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trie

import (
	"bytes"

	"github.com/greentin/alephium/alephium"
)

// Staging is a rollbackable mutation layer over a Cached buffer,
// used for speculative per-transaction execution. Mutations collect
// in their own pending set and never touch the enclosing buffer nor
// the store until Commit.
//
// A Staging is single-shot: Commit or Rollback closes it, and any
// further operation returns ErrClosed.
type Staging struct {
	cached  *Cached
	pending map[alephium.Bytes32]pending
	closed  bool
}

// Get returns the value for key, observing staged then buffered
// mutations. It returns nil with no error if the key is absent.
func (s *Staging) Get(key alephium.Bytes32) ([]byte, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if p, ok := s.pending[key]; ok {
		if p.deleted {
			return nil, nil
		}
		return bytes.Clone(p.value), nil
	}
	return s.cached.Get(key)
}

// Has returns whether key is present in the staged view.
func (s *Staging) Has(key alephium.Bytes32) (bool, error) {
	if s.closed {
		return false, ErrClosed
	}
	if p, ok := s.pending[key]; ok {
		return !p.deleted, nil
	}
	return s.cached.Has(key)
}

// Update stages an insert or replace of key. A zero-length value
// behaves as a tolerant delete, matching Trie.Update.
func (s *Staging) Update(key alephium.Bytes32, value []byte) error {
	if s.closed {
		return ErrClosed
	}
	if len(value) == 0 {
		s.pending[key] = pending{deleted: true}
		return nil
	}
	s.pending[key] = pending{value: bytes.Clone(value)}
	return nil
}

// Delete stages a removal of key. It returns ErrKeyNotFound if the
// key is absent from the staged view.
func (s *Staging) Delete(key alephium.Bytes32) error {
	if s.closed {
		return ErrClosed
	}
	ok, err := s.Has(key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrKeyNotFound
	}
	s.pending[key] = pending{deleted: true}
	return nil
}

// Commit merges the staged mutations into the enclosing buffer, the
// staged entries winning on conflict, and closes the layer. The cost
// is proportional to the staged set; the store is not touched.
func (s *Staging) Commit() error {
	if s.closed {
		return ErrClosed
	}
	if err := s.cached.merge(s.pending); err != nil {
		return err
	}
	s.pending = nil
	s.closed = true
	return nil
}

// Rollback discards the staged mutations and closes the layer.
func (s *Staging) Rollback() error {
	if s.closed {
		return ErrClosed
	}
	s.pending = nil
	s.closed = true
	return nil
}

// Iterate merges the staged mutations over the enclosing buffer's
// iteration, in key ascending order. Semantics match Trie.Iterate.
func (s *Staging) Iterate(prefix []byte, limit int, pred func(key alephium.Bytes32, value []byte) bool) ([]Entry, error) {
	if s.closed {
		return nil, ErrClosed
	}
	return iterateWithPending(s.cached.Iterate, s.pending, prefix, limit, pred)
}
