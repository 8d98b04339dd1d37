// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/greentin/alephium/alephium"
	"github.com/greentin/alephium/kv"
	"github.com/greentin/alephium/trie"
)

// trieNodeBucket scopes trie nodes inside the backing store. The
// three tries share one namespace: nodes are content-addressed, so
// equal content maps to the same key regardless of which trie wrote
// it.
const trieNodeBucket = kv.Bucket("t")

// Roots are the root hashes of the three world-state tries, as
// carried by a block header.
type Roots struct {
	Outputs   alephium.Bytes32
	Contracts alephium.Bytes32
	Code      alephium.Bytes32
}

// StateHash derives the composite block-state hash. Code is not part
// of it: code records are deduplicated content, authenticated by the
// code hash inside each contract state.
func (r Roots) StateHash() alephium.Bytes32 {
	return alephium.Blake2b(r.Outputs.Bytes(), r.Contracts.Bytes())
}

// Stater opens world states over a backing store.
type Stater struct {
	db trie.Database
}

// NewStater creates a stater over the given store.
func NewStater(store kv.Store) *Stater {
	return &Stater{db: trieNodeBucket.NewStore(store)}
}

// NewState rehydrates the persisted world state at the given roots,
// typically taken from a block header. Each non-zero root must
// resolve in the store.
func (s *Stater) NewState(roots Roots) (*Persisted, error) {
	p := &Persisted{db: s.db, roots: roots}
	// resolve the three roots eagerly so a broken store surfaces here
	if _, err := p.readTries(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewEmptyState creates the genesis world state with three empty
// tries.
func (s *Stater) NewEmptyState() *Persisted {
	return &Persisted{db: s.db}
}
