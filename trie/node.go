// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trie

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/greentin/alephium/alephium"
)

type node interface{}

type (
	// branchNode forks the key space at the end of its path segment.
	// Each child slot holds either nil, the hash of a stored child,
	// or an in-memory child pending storage.
	branchNode struct {
		path     []byte
		children [16]node
		value    []byte
	}

	// leafNode terminates a key, carrying the remaining path suffix
	// and the value bytes.
	leafNode struct {
		path  []byte
		value []byte
	}

	// hashNode references a stored node by its content hash.
	hashNode alephium.Bytes32
)

func (n *branchNode) copy() *branchNode {
	cpy := *n
	return &cpy
}

// countChildren returns the number of non-empty child slots, and the
// index of one of them.
func (n *branchNode) countChildren() (count int, lastIndex byte) {
	for i, c := range n.children {
		if c != nil {
			count++
			lastIndex = byte(i)
		}
	}
	return
}

// encodeNode serializes a node into its canonical form. All children
// of a branch must already be reduced to hash references.
func encodeNode(n node) ([]byte, error) {
	switch n := n.(type) {
	case *leafNode:
		return rlp.EncodeToBytes([]interface{}{
			nibblesToCompact(n.path, true),
			n.value,
		})
	case *branchNode:
		children := make([][]byte, 16)
		for i, c := range n.children {
			switch c := c.(type) {
			case nil:
			case hashNode:
				children[i] = alephium.Bytes32(c).Bytes()
			default:
				return nil, errors.New("encode branch with unstored child")
			}
		}
		return rlp.EncodeToBytes([]interface{}{
			nibblesToCompact(n.path, false),
			children,
			n.value,
		})
	default:
		return nil, errors.Errorf("encode unknown node type %T", n)
	}
}

// decodeNode parses the canonical serialized form back into a node.
func decodeNode(hash alephium.Bytes32, data []byte) (node, error) {
	var items []rlp.RawValue
	if err := rlp.DecodeBytes(data, &items); err != nil {
		return nil, errors.Wrapf(err, "decode node %v", hash)
	}
	if len(items) != 2 && len(items) != 3 {
		return nil, errors.Errorf("decode node %v: %d list items", hash, len(items))
	}

	var compact []byte
	if err := rlp.DecodeBytes(items[0], &compact); err != nil {
		return nil, errors.Wrapf(err, "decode node %v: path", hash)
	}
	path, leaf, err := compactToNibbles(compact)
	if err != nil {
		return nil, errors.Wrapf(err, "decode node %v", hash)
	}

	if leaf {
		if len(items) != 2 {
			return nil, errors.Errorf("decode node %v: leaf flag on branch layout", hash)
		}
		var value []byte
		if err := rlp.DecodeBytes(items[1], &value); err != nil {
			return nil, errors.Wrapf(err, "decode node %v: value", hash)
		}
		return &leafNode{path: path, value: value}, nil
	}

	if len(items) != 3 {
		return nil, errors.Errorf("decode node %v: branch flag on leaf layout", hash)
	}
	var children [][]byte
	if err := rlp.DecodeBytes(items[1], &children); err != nil {
		return nil, errors.Wrapf(err, "decode node %v: children", hash)
	}
	if len(children) != 16 {
		return nil, errors.Errorf("decode node %v: %d child slots", hash, len(children))
	}
	branch := &branchNode{path: path}
	for i, c := range children {
		switch len(c) {
		case 0:
		case 32:
			branch.children[i] = hashNode(alephium.BytesToBytes32(c))
		default:
			return nil, errors.Errorf("decode node %v: child %d hash width %d", hash, i, len(c))
		}
	}
	if err := rlp.DecodeBytes(items[2], &branch.value); err != nil {
		return nil, errors.Wrapf(err, "decode node %v: value", hash)
	}
	if len(branch.value) == 0 {
		branch.value = nil
	}
	return branch, nil
}
