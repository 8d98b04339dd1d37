// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/greentin/alephium/alephium"
	"github.com/greentin/alephium/trie"
)

// Persisted is the immutable world state at a set of trie roots.
// Every mutation returns a new Persisted value and leaves the
// receiver untouched, so a Persisted may be shared between readers.
type Persisted struct {
	db    trie.Database
	roots Roots
}

// Roots returns the trie roots of this state.
func (p *Persisted) Roots() Roots { return p.roots }

// StateHash returns the composite block-state hash.
func (p *Persisted) StateHash() alephium.Bytes32 { return p.roots.StateHash() }

// Cached opens a write buffer over this state.
func (p *Persisted) Cached() (*Cached, error) {
	return newCached(p)
}

// readTries opens read views of the three tries.
func (p *Persisted) readTries() (*worldTries, error) {
	outputs, err := trie.New(p.roots.Outputs, p.db)
	if err != nil {
		return nil, err
	}
	contracts, err := trie.New(p.roots.Contracts, p.db)
	if err != nil {
		return nil, err
	}
	code, err := trie.New(p.roots.Code, p.db)
	if err != nil {
		return nil, err
	}
	return &worldTries{outputs: outputs, contracts: contracts, code: code}, nil
}

// writable opens fresh trie handles for a copy-on-write mutation.
type writableTries struct {
	worldTries
	outputs, contracts, code *trie.Trie
}

func (p *Persisted) writable() (*writableTries, error) {
	w, err := p.readTries()
	if err != nil {
		return nil, err
	}
	wt := &writableTries{
		worldTries: *w,
		outputs:    w.outputs.(*trie.Trie),
		contracts:  w.contracts.(*trie.Trie),
		code:       w.code.(*trie.Trie),
	}
	return wt, nil
}

func (wt *writableTries) roots() Roots {
	return Roots{
		Outputs:   wt.outputs.Hash(),
		Contracts: wt.contracts.Hash(),
		Code:      wt.code.Hash(),
	}
}

func (p *Persisted) apply(fn func(w *worldTries) error) (*Persisted, error) {
	w, err := p.writable()
	if err != nil {
		return nil, err
	}
	if err := fn(&w.worldTries); err != nil {
		return nil, err
	}
	return &Persisted{db: p.db, roots: w.roots()}, nil
}

// GetOutput fetches the output at ref.
func (p *Persisted) GetOutput(ref TxOutputRef) (*TxOutput, error) {
	w, err := p.readTries()
	if err != nil {
		return nil, err
	}
	return w.GetOutput(ref)
}

// GetAsset fetches the asset output at ref, failing with
// ErrExpectedAsset on a contract output.
func (p *Persisted) GetAsset(ref TxOutputRef) (*TxOutput, error) {
	w, err := p.readTries()
	if err != nil {
		return nil, err
	}
	return w.GetAsset(ref)
}

// ExistsOutput returns whether an output is present at ref.
func (p *Persisted) ExistsOutput(ref TxOutputRef) (bool, error) {
	w, err := p.readTries()
	if err != nil {
		return false, err
	}
	return w.ExistsOutput(ref)
}

// GetContract fetches the contract state of id.
func (p *Persisted) GetContract(id ContractId) (*ContractState, error) {
	w, err := p.readTries()
	if err != nil {
		return nil, err
	}
	return w.GetContract(id)
}

// GetCode fetches the code record keyed by hash.
func (p *Persisted) GetCode(hash alephium.Bytes32) (*CodeRecord, error) {
	w, err := p.readTries()
	if err != nil {
		return nil, err
	}
	return w.GetCode(hash)
}

// GetOutputs scans outputs by ref prefix. See worldTries.GetOutputs.
func (p *Persisted) GetOutputs(prefix []byte, limit int, pred func(ref TxOutputRef, out *TxOutput) bool) ([]OutputEntry, error) {
	w, err := p.readTries()
	if err != nil {
		return nil, err
	}
	return w.GetOutputs(prefix, limit, pred)
}

// GetAssetOutputs scans asset outputs by ref prefix.
func (p *Persisted) GetAssetOutputs(prefix []byte, limit int) ([]OutputEntry, error) {
	w, err := p.readTries()
	if err != nil {
		return nil, err
	}
	return w.GetAssetOutputs(prefix, limit)
}

// AddAsset returns a new state with the asset output inserted.
func (p *Persisted) AddAsset(ref TxOutputRef, out *TxOutput) (*Persisted, error) {
	return p.apply(func(w *worldTries) error { return w.AddAsset(ref, out) })
}

// RemoveAsset returns a new state with the asset output removed.
func (p *Persisted) RemoveAsset(ref TxOutputRef) (*Persisted, error) {
	return p.apply(func(w *worldTries) error { return w.RemoveAsset(ref) })
}

// CreateContract returns a new state with the contract created,
// verifying the id is free.
func (p *Persisted) CreateContract(id ContractId, code []byte, fields [][]byte, ref TxOutputRef, out *TxOutput) (*Persisted, error) {
	return p.apply(func(w *worldTries) error { return w.CreateContract(id, code, fields, ref, out) })
}

// CreateContractUnsafe returns a new state with the contract
// created, skipping the id check. See worldTries.CreateContractUnsafe
// for the precondition.
func (p *Persisted) CreateContractUnsafe(id ContractId, code []byte, fields [][]byte, ref TxOutputRef, out *TxOutput) (*Persisted, error) {
	return p.apply(func(w *worldTries) error { return w.CreateContractUnsafe(id, code, fields, ref, out) })
}

// UpdateContractFields returns a new state with the contract's
// fields rewritten.
func (p *Persisted) UpdateContractFields(id ContractId, fields [][]byte) (*Persisted, error) {
	return p.apply(func(w *worldTries) error { return w.UpdateContractFields(id, fields) })
}

// UpdateContractOutput returns a new state with the contract moved
// to a new output.
func (p *Persisted) UpdateContractOutput(id ContractId, ref TxOutputRef, out *TxOutput) (*Persisted, error) {
	return p.apply(func(w *worldTries) error { return w.UpdateContractOutput(id, ref, out) })
}

// RemoveContract returns a new state with the contract, its output
// and one code reference removed.
func (p *Persisted) RemoveContract(id ContractId) (*Persisted, error) {
	return p.apply(func(w *worldTries) error { return w.RemoveContract(id) })
}
