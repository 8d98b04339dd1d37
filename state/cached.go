// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"time"

	"github.com/greentin/alephium/log"
	"github.com/greentin/alephium/metrics"
	"github.com/greentin/alephium/trie"
)

var (
	logger = log.WithContext("pkg", "state")

	metricPersistDuration = metrics.LazyLoadHistogram("state_persist_duration_ms", []int64{1, 5, 10, 50, 100, 500, 1000})
)

// Cached is the buffered world state a validator mutates while
// processing a block. Mutations collect in per-trie write buffers;
// Persist folds them down and yields the next Persisted state. The
// root hashes are not defined before Persist.
type Cached struct {
	worldTries
	db         trie.Database
	outTr      *trie.Cached
	contractTr *trie.Cached
	codeTr     *trie.Cached
}

func newCached(p *Persisted) (*Cached, error) {
	w, err := p.readTries()
	if err != nil {
		return nil, err
	}
	outTr := trie.NewCached(w.outputs.(*trie.Trie))
	contractTr := trie.NewCached(w.contracts.(*trie.Trie))
	codeTr := trie.NewCached(w.code.(*trie.Trie))
	return &Cached{
		worldTries: worldTries{outputs: outTr, contracts: contractTr, code: codeTr},
		db:         p.db,
		outTr:      outTr,
		contractTr: contractTr,
		codeTr:     codeTr,
	}, nil
}

// Staging opens a rollbackable layer for one transaction.
func (c *Cached) Staging() *Staging {
	outSt := c.outTr.Staging()
	contractSt := c.contractTr.Staging()
	codeSt := c.codeTr.Staging()
	return &Staging{
		worldTries: worldTries{outputs: outSt, contracts: contractSt, code: codeSt},
		outSt:      outSt,
		contractSt: contractSt,
		codeSt:     codeSt,
	}
}

// Persist folds the three buffers into the store in a fixed order
// and returns the resulting persisted state. On failure the previous
// persisted state stays intact; nodes already written are
// unreferenced and inert.
func (c *Cached) Persist() (*Persisted, error) {
	started := time.Now()

	outRoot, err := c.outTr.Persist()
	if err != nil {
		return nil, err
	}
	contractRoot, err := c.contractTr.Persist()
	if err != nil {
		return nil, err
	}
	codeRoot, err := c.codeTr.Persist()
	if err != nil {
		return nil, err
	}

	roots := Roots{Outputs: outRoot, Contracts: contractRoot, Code: codeRoot}
	metricPersistDuration().Observe(time.Since(started).Milliseconds())
	logger.Debug("persisted world state",
		"stateHash", roots.StateHash(),
		"elapsed", time.Since(started))

	return &Persisted{db: c.db, roots: roots}, nil
}
