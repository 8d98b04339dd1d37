// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greentin/alephium/alephium"
	"github.com/greentin/alephium/lvldb"
	"github.com/greentin/alephium/trie"
)

func newWorldTries(t *testing.T) *worldTries {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	newTrie := func() *trie.Trie {
		tr, err := trie.New(alephium.Bytes32{}, db)
		require.NoError(t, err)
		return tr
	}
	return &worldTries{outputs: newTrie(), contracts: newTrie(), code: newTrie()}
}

func TestReleaseCodeUnderflow(t *testing.T) {
	w := newWorldTries(t)

	// releasing a reference on absent code means a double remove
	err := w.releaseCode(alephium.Blake2b([]byte("never stored")))
	assert.ErrorIs(t, err, ErrRefCountUnderflow)
}

func TestRetainReleaseCode(t *testing.T) {
	w := newWorldTries(t)
	code := []byte("code bytes")
	hash := CodeHash(code)

	require.NoError(t, w.retainCode(hash, code))
	require.NoError(t, w.retainCode(hash, code))

	rec, err := w.GetCode(hash)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), rec.RefCount)

	require.NoError(t, w.releaseCode(hash))
	rec, err = w.GetCode(hash)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rec.RefCount)
	assert.Equal(t, code, rec.Code)

	require.NoError(t, w.releaseCode(hash))
	_, err = w.GetCode(hash)
	assert.True(t, IsNotFound(err))
}

func TestRetainCodeHashCollision(t *testing.T) {
	w := newWorldTries(t)
	code := []byte("code bytes")

	require.NoError(t, w.retainCode(CodeHash(code), code))
	err := w.retainCode(CodeHash(code), []byte("different bytes"))
	assert.Error(t, err)
}

func TestCreateContractUnsafeSkipsCheck(t *testing.T) {
	w := newWorldTries(t)
	id := ContractId(alephium.Blake2b([]byte("id")))
	out := &TxOutput{Contract: true}

	require.NoError(t, w.CreateContractUnsafe(id, []byte("c"), nil, TxOutputRef(alephium.Blake2b([]byte("r1"))), out))

	// unchecked create happily overwrites; the caller owns the precondition
	require.NoError(t, w.CreateContractUnsafe(id, []byte("c"), nil, TxOutputRef(alephium.Blake2b([]byte("r2"))), out))

	rec, err := w.GetCode(CodeHash([]byte("c")))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), rec.RefCount, "the leaked refcount is the documented cost of skipping the check")
}
