// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state composes the output, contract and code tries into
// the world state, exposed in three variants: the immutable
// Persisted state, the buffered Cached state used while validating a
// block, and the rollbackable Staging state used while executing a
// transaction. A world-state value is single-writer; only the
// Persisted variant is safe to share between readers.
package state

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/greentin/alephium/alephium"
	"github.com/greentin/alephium/trie"
)

// kvTrie is the per-trie surface shared by the persisted, cached and
// staging layers.
type kvTrie interface {
	Get(key alephium.Bytes32) ([]byte, error)
	Has(key alephium.Bytes32) (bool, error)
	Update(key alephium.Bytes32, value []byte) error
	Delete(key alephium.Bytes32) error
	Iterate(prefix []byte, limit int, pred func(key alephium.Bytes32, value []byte) bool) ([]trie.Entry, error)
}

// OutputEntry is a scan result from the output trie.
type OutputEntry struct {
	Ref    TxOutputRef
	Output *TxOutput
}

// Reader is the read capability shared by Persisted, Cached and
// Staging world states.
type Reader interface {
	GetOutput(ref TxOutputRef) (*TxOutput, error)
	GetAsset(ref TxOutputRef) (*TxOutput, error)
	ExistsOutput(ref TxOutputRef) (bool, error)
	GetContract(id ContractId) (*ContractState, error)
	GetCode(hash alephium.Bytes32) (*CodeRecord, error)
	GetOutputs(prefix []byte, limit int, pred func(ref TxOutputRef, out *TxOutput) bool) ([]OutputEntry, error)
}

var (
	_ kvTrie = (*trie.Trie)(nil)
	_ kvTrie = (*trie.Cached)(nil)
	_ kvTrie = (*trie.Staging)(nil)

	_ Reader = (*Persisted)(nil)
	_ Reader = (*Cached)(nil)
	_ Reader = (*Staging)(nil)
)

// worldTries carries the domain operations over the three tries. The
// layers embed it or delegate to it.
type worldTries struct {
	outputs   kvTrie
	contracts kvTrie
	code      kvTrie
}

// GetOutput fetches the output at ref.
func (w *worldTries) GetOutput(ref TxOutputRef) (*TxOutput, error) {
	data, err := w.outputs.Get(ref.Bytes32())
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errors.WithMessagef(ErrNotFound, "output %v", ref)
	}
	return decodeOutput(data)
}

// GetAsset fetches the asset output at ref. It fails with
// ErrExpectedAsset if the output belongs to a contract.
func (w *worldTries) GetAsset(ref TxOutputRef) (*TxOutput, error) {
	out, err := w.GetOutput(ref)
	if err != nil {
		return nil, err
	}
	if out.Contract {
		return nil, errors.WithMessagef(ErrExpectedAsset, "output %v", ref)
	}
	return out, nil
}

// ExistsOutput returns whether an output is present at ref.
func (w *worldTries) ExistsOutput(ref TxOutputRef) (bool, error) {
	return w.outputs.Has(ref.Bytes32())
}

// AddAsset inserts an asset output. Overwriting an existing ref is
// allowed; the caller enforces ref uniqueness.
func (w *worldTries) AddAsset(ref TxOutputRef, out *TxOutput) error {
	if out.Contract {
		return errors.WithMessagef(ErrExpectedAsset, "output %v", ref)
	}
	return w.putOutput(ref, out)
}

// RemoveAsset removes the asset output at ref.
func (w *worldTries) RemoveAsset(ref TxOutputRef) error {
	if err := w.outputs.Delete(ref.Bytes32()); err != nil {
		return errors.WithMessagef(err, "remove asset %v", ref)
	}
	return nil
}

// GetContract fetches the contract state of id.
func (w *worldTries) GetContract(id ContractId) (*ContractState, error) {
	data, err := w.contracts.Get(id.Bytes32())
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errors.WithMessagef(ErrNotFound, "contract %v", id)
	}
	return decodeContractState(data)
}

// GetCode fetches the code record keyed by hash.
func (w *worldTries) GetCode(hash alephium.Bytes32) (*CodeRecord, error) {
	data, err := w.code.Get(hash)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errors.WithMessagef(ErrNotFound, "code %v", hash)
	}
	return decodeCodeRecord(data)
}

// CreateContract creates a contract after verifying the id is free.
func (w *worldTries) CreateContract(id ContractId, code []byte, fields [][]byte, ref TxOutputRef, out *TxOutput) error {
	exists, err := w.contracts.Has(id.Bytes32())
	if err != nil {
		return err
	}
	if exists {
		return errors.WithMessagef(ErrContractExists, "contract %v", id)
	}
	return w.CreateContractUnsafe(id, code, fields, ref, out)
}

// CreateContractUnsafe creates a contract without verifying the id
// is free. The caller must have established that no contract state
// exists at id; an existing entry is silently overwritten, leaking
// the overwritten contract's code refcount.
//
// The contract output, the contract state and the code record are
// written together: the code record is created with refcount 1, or
// its refcount incremented when the same code is already present.
func (w *worldTries) CreateContractUnsafe(id ContractId, code []byte, fields [][]byte, ref TxOutputRef, out *TxOutput) error {
	if !out.Contract {
		return errors.WithMessagef(ErrExpectedAsset, "contract %v wants a contract output", id)
	}
	if err := w.putOutput(ref, out); err != nil {
		return err
	}
	codeHash := CodeHash(code)
	if err := w.putContractState(id, &ContractState{
		Fields:    fields,
		OutputRef: ref,
		CodeHash:  codeHash,
	}); err != nil {
		return err
	}
	return w.retainCode(codeHash, code)
}

// UpdateContractFields rewrites the fields of contract id, keeping
// its output ref and code.
func (w *worldTries) UpdateContractFields(id ContractId, fields [][]byte) error {
	cs, err := w.GetContract(id)
	if err != nil {
		return err
	}
	cs.Fields = fields
	return w.putContractState(id, cs)
}

// UpdateContractOutput moves contract id to a new output, rewriting
// both the tracked ref and the output itself. Fields are kept.
func (w *worldTries) UpdateContractOutput(id ContractId, ref TxOutputRef, out *TxOutput) error {
	if !out.Contract {
		return errors.WithMessagef(ErrExpectedAsset, "contract %v wants a contract output", id)
	}
	cs, err := w.GetContract(id)
	if err != nil {
		return err
	}
	if err := w.putOutput(ref, out); err != nil {
		return err
	}
	cs.OutputRef = ref
	return w.putContractState(id, cs)
}

// RemoveContract removes contract id: its state, its output, and one
// reference on its code. The code record is deleted when the last
// reference goes.
func (w *worldTries) RemoveContract(id ContractId) error {
	cs, err := w.GetContract(id)
	if err != nil {
		return err
	}
	if err := w.contracts.Delete(id.Bytes32()); err != nil {
		return errors.WithMessagef(err, "remove contract %v", id)
	}
	if err := w.outputs.Delete(cs.OutputRef.Bytes32()); err != nil {
		return errors.WithMessagef(err, "remove contract %v output", id)
	}
	return w.releaseCode(cs.CodeHash)
}

// GetOutputs scans the output trie for refs carrying the byte
// prefix, decoding each output and keeping those satisfying pred. At
// most limit entries are returned; limit <= 0 means no cap.
func (w *worldTries) GetOutputs(prefix []byte, limit int, pred func(ref TxOutputRef, out *TxOutput) bool) ([]OutputEntry, error) {
	var decodeErr error
	raw, err := w.outputs.Iterate(prefix, limit, func(key alephium.Bytes32, value []byte) bool {
		if decodeErr != nil {
			return false
		}
		out, err := decodeOutput(value)
		if err != nil {
			decodeErr = err
			return false
		}
		return pred == nil || pred(TxOutputRef(key), out)
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}

	entries := make([]OutputEntry, 0, len(raw))
	for _, e := range raw {
		out, err := decodeOutput(e.Value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, OutputEntry{Ref: TxOutputRef(e.Key), Output: out})
	}
	return entries, nil
}

// GetAssetOutputs scans like GetOutputs but keeps asset outputs
// only. It works on all three layers; on cached and staging views
// the pending entries are merged over the persisted trie.
func (w *worldTries) GetAssetOutputs(prefix []byte, limit int) ([]OutputEntry, error) {
	return w.GetOutputs(prefix, limit, func(_ TxOutputRef, out *TxOutput) bool {
		return !out.Contract
	})
}

func (w *worldTries) putOutput(ref TxOutputRef, out *TxOutput) error {
	data, err := encodeOutput(out)
	if err != nil {
		return err
	}
	return w.outputs.Update(ref.Bytes32(), data)
}

func (w *worldTries) putContractState(id ContractId, cs *ContractState) error {
	data, err := encodeContractState(cs)
	if err != nil {
		return err
	}
	return w.contracts.Update(id.Bytes32(), data)
}

// retainCode adds a reference on the code record keyed by hash,
// creating the record on first use.
func (w *worldTries) retainCode(hash alephium.Bytes32, code []byte) error {
	data, err := w.code.Get(hash)
	if err != nil {
		return err
	}
	rec := &CodeRecord{Code: code, RefCount: 0}
	if data != nil {
		if rec, err = decodeCodeRecord(data); err != nil {
			return err
		}
		if !bytes.Equal(rec.Code, code) {
			return errors.Errorf("state: code hash collision at %v", hash)
		}
	}
	rec.RefCount++
	encoded, err := encodeCodeRecord(rec)
	if err != nil {
		return err
	}
	return w.code.Update(hash, encoded)
}

// releaseCode drops a reference on the code record keyed by hash,
// deleting the record when the count reaches zero. A missing record
// means the count would go negative.
func (w *worldTries) releaseCode(hash alephium.Bytes32) error {
	data, err := w.code.Get(hash)
	if err != nil {
		return err
	}
	if data == nil {
		return errors.WithMessagef(ErrRefCountUnderflow, "code %v", hash)
	}
	rec, err := decodeCodeRecord(data)
	if err != nil {
		return err
	}
	if rec.RefCount <= 1 {
		return w.code.Delete(hash)
	}
	rec.RefCount--
	encoded, err := encodeCodeRecord(rec)
	if err != nil {
		return err
	}
	return w.code.Update(hash, encoded)
}
