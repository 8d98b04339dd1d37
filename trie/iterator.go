// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trie

import (
	"bytes"

	"github.com/greentin/alephium/alephium"
)

// Iterate walks the trie in key ascending order and collects entries
// whose key starts with prefix and satisfies pred. At most limit
// entries are returned; limit <= 0 means no cap. A nil pred accepts
// every entry.
//
// Subtrees whose accumulated nibble path is incompatible with the
// prefix are pruned without touching the store.
func (t *Trie) Iterate(prefix []byte, limit int, pred func(key alephium.Bytes32, value []byte) bool) ([]Entry, error) {
	var entries []Entry
	collect := &collector{
		prefix:        prefix,
		prefixNibbles: keybytesToNibbles(prefix),
		limit:         limit,
		pred:          pred,
		entries:       &entries,
	}
	if _, err := t.iterate(t.root, nil, collect); err != nil {
		return nil, err
	}
	return entries, nil
}

type collector struct {
	prefix        []byte
	prefixNibbles []byte
	limit         int
	pred          func(key alephium.Bytes32, value []byte) bool
	entries       *[]Entry
}

func (c *collector) full() bool {
	return c.limit > 0 && len(*c.entries) >= c.limit
}

// compatible reports whether a path with the given accumulated
// nibbles can still lead to keys carrying the wanted prefix.
func (c *collector) compatible(acc []byte) bool {
	n := len(acc)
	if len(c.prefixNibbles) < n {
		n = len(c.prefixNibbles)
	}
	return bytes.Equal(acc[:n], c.prefixNibbles[:n])
}

// iterate returns true when the collector reached its limit.
func (t *Trie) iterate(n node, acc []byte, c *collector) (bool, error) {
	switch n := n.(type) {
	case nil:
		return false, nil

	case hashNode:
		resolved, err := t.resolveHash(n, acc)
		if err != nil {
			return false, err
		}
		return t.iterate(resolved, acc, c)

	case *leafNode:
		full := make([]byte, 0, len(acc)+len(n.path))
		full = append(full, acc...)
		full = append(full, n.path...)
		if !c.compatible(full) {
			return false, nil
		}
		key := alephium.BytesToBytes32(nibblesToKeybytes(full))
		if !bytes.HasPrefix(key[:], c.prefix) {
			return false, nil
		}
		if c.pred == nil || c.pred(key, n.value) {
			*c.entries = append(*c.entries, Entry{
				Key:   key,
				Value: bytes.Clone(n.value),
			})
		}
		return c.full(), nil

	case *branchNode:
		base := make([]byte, 0, len(acc)+len(n.path)+1)
		base = append(base, acc...)
		base = append(base, n.path...)
		if !c.compatible(base) {
			return false, nil
		}
		for i, child := range n.children {
			if child == nil {
				continue
			}
			childAcc := append(base[:len(base):len(base)], byte(i))
			if !c.compatible(childAcc) {
				continue
			}
			done, err := t.iterate(child, childAcc, c)
			if err != nil {
				return false, err
			}
			if done {
				return true, nil
			}
		}
		return false, nil

	default:
		panic("unknown node type")
	}
}
