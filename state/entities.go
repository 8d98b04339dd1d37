// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/greentin/alephium/alephium"
)

// TxOutputRef identifies a transaction output, asset or contract.
// It keys the output trie.
type TxOutputRef alephium.Bytes32

// Bytes32 returns the ref as a trie key.
func (r TxOutputRef) Bytes32() alephium.Bytes32 { return alephium.Bytes32(r) }

// Bytes returns the byte slice form of the ref.
func (r TxOutputRef) Bytes() []byte { return r.Bytes32().Bytes() }

func (r TxOutputRef) String() string { return r.Bytes32().String() }

// ContractId identifies a live contract. It keys the contract trie.
type ContractId alephium.Bytes32

// Bytes32 returns the id as a trie key.
func (id ContractId) Bytes32() alephium.Bytes32 { return alephium.Bytes32(id) }

func (id ContractId) String() string { return id.Bytes32().String() }

// TxOutput is an unspent transaction output. Contract marks the
// output as belonging to a contract rather than a plain asset.
type TxOutput struct {
	Contract bool
	Amount   *big.Int
	Data     []byte
}

// ContractState holds the mutable part of a live contract: its
// fields, its current asset output, and the hash keying its code
// record in the code trie.
type ContractState struct {
	Fields    [][]byte
	OutputRef TxOutputRef
	CodeHash  alephium.Bytes32
}

// CodeRecord is a deduplicated contract code entry. RefCount tracks
// how many live contracts share the code; the record is deleted when
// it drops to zero.
type CodeRecord struct {
	Code     []byte
	RefCount uint64
}

// CodeHash returns the hash keying code in the code trie.
func CodeHash(code []byte) alephium.Bytes32 {
	return alephium.Blake2b(code)
}

func encodeOutput(out *TxOutput) ([]byte, error) {
	data, err := rlp.EncodeToBytes(out)
	if err != nil {
		return nil, errors.Wrap(err, "encode output")
	}
	return data, nil
}

func decodeOutput(data []byte) (*TxOutput, error) {
	var out TxOutput
	if err := rlp.DecodeBytes(data, &out); err != nil {
		return nil, errors.Wrap(err, "decode output")
	}
	return &out, nil
}

func encodeContractState(cs *ContractState) ([]byte, error) {
	data, err := rlp.EncodeToBytes(cs)
	if err != nil {
		return nil, errors.Wrap(err, "encode contract state")
	}
	return data, nil
}

func decodeContractState(data []byte) (*ContractState, error) {
	var cs ContractState
	if err := rlp.DecodeBytes(data, &cs); err != nil {
		return nil, errors.Wrap(err, "decode contract state")
	}
	return &cs, nil
}

func encodeCodeRecord(rec *CodeRecord) ([]byte, error) {
	data, err := rlp.EncodeToBytes(rec)
	if err != nil {
		return nil, errors.Wrap(err, "encode code record")
	}
	return data, nil
}

func decodeCodeRecord(data []byte) (*CodeRecord, error) {
	var rec CodeRecord
	if err := rlp.DecodeBytes(data, &rec); err != nil {
		return nil, errors.Wrap(err, "decode code record")
	}
	return &rec, nil
}
