// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/greentin/alephium/trie"
)

// Staging is the speculative world state a single transaction
// executes against. Commit folds its mutations into the enclosing
// Cached state; Rollback discards them. Either way the layer closes,
// and further operations return trie.ErrClosed.
type Staging struct {
	worldTries
	outSt      *trie.Staging
	contractSt *trie.Staging
	codeSt     *trie.Staging
}

// Commit merges the staged mutations of all three tries into the
// enclosing cached state, staged entries winning on conflict. The
// cost is proportional to the staged set.
func (s *Staging) Commit() error {
	if err := s.outSt.Commit(); err != nil {
		return err
	}
	if err := s.contractSt.Commit(); err != nil {
		return err
	}
	return s.codeSt.Commit()
}

// Rollback discards the staged mutations of all three tries.
func (s *Staging) Rollback() error {
	if err := s.outSt.Rollback(); err != nil {
		return err
	}
	if err := s.contractSt.Rollback(); err != nil {
		return err
	}
	return s.codeSt.Rollback()
}
