// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trie

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greentin/alephium/alephium"
)

func populated(t *testing.T, keys []alephium.Bytes32) *Trie {
	tr := newEmpty(t)
	for i, k := range keys {
		require.NoError(t, tr.Update(k, []byte{byte(i + 1)}))
	}
	return tr
}

func TestIterateAll(t *testing.T) {
	keys := []alephium.Bytes32{
		testKey("a"), testKey("b"), testKey("c"), testKey("d"),
	}
	tr := populated(t, keys)

	entries, err := tr.Iterate(nil, 0, nil)
	require.NoError(t, err)
	assert.Len(t, entries, len(keys))

	// ascending key order
	sorted := sort.SliceIsSorted(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].Key.Bytes(), entries[j].Key.Bytes()) < 0
	})
	assert.True(t, sorted)
}

func TestIteratePrefix(t *testing.T) {
	var inPrefix, outPrefix alephium.Bytes32
	inPrefix[0] = 0xab
	inPrefix[31] = 1
	inPrefix2 := inPrefix
	inPrefix2[31] = 2
	outPrefix[0] = 0xcd

	tr := populated(t, []alephium.Bytes32{inPrefix, inPrefix2, outPrefix})

	entries, err := tr.Iterate([]byte{0xab}, 0, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, byte(0xab), e.Key[0])
	}
}

func TestIterateLimitAndPred(t *testing.T) {
	keys := make([]alephium.Bytes32, 16)
	for i := range keys {
		keys[i] = testKey(string(rune('a' + i)))
	}
	tr := populated(t, keys)

	entries, err := tr.Iterate(nil, 5, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 5)

	// the predicate filters before the cap counts
	entries, err = tr.Iterate(nil, 3, func(_ alephium.Bytes32, value []byte) bool {
		return value[0]%2 == 0
	})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Zero(t, e.Value[0]%2)
	}
}

func TestIterateEmptyTrie(t *testing.T) {
	tr := newEmpty(t)
	entries, err := tr.Iterate(nil, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
