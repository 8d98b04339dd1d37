// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package trie implements the sparse merkle trie that authenticates
// the world state. Keys are 32 bytes wide and are walked as 64
// nibbles. Nodes are content-addressed: a node is stored in the
// backing kv store at the key equal to the blake2b hash of its
// canonical serialization, so the node store is append-only and a
// mutation produces new nodes along the touched path while the old
// root stays readable.
package trie

import (
	"bytes"

	"github.com/greentin/alephium/alephium"
	"github.com/greentin/alephium/cache"
	"github.com/greentin/alephium/kv"
	"github.com/greentin/alephium/metrics"
)

// Database is the kv surface the trie reads nodes from and writes
// new nodes into.
type Database interface {
	kv.Getter
	kv.Putter
}

// Entry is a key/value pair produced by Iterate.
type Entry struct {
	Key   alephium.Bytes32
	Value []byte
}

var (
	metricNodeReads  = metrics.LazyLoadCounter("trie_node_read_count")
	metricNodeWrites = metrics.LazyLoadCounter("trie_node_write_count")
	metricNodeCache  = metrics.LazyLoadCounterVec("trie_node_cache_count", []string{"event"})
)

// nodeCache holds decoded nodes keyed by content hash. Content
// addressing makes entries valid across trie instances and across
// databases holding the same nodes.
var nodeCache = cache.NewLRU(128 * 1024)

// Trie is a sparse merkle trie over a content-addressed node store.
// The zero Bytes32 root denotes the empty trie.
//
// Trie is a cheap handle: constructing one at an older root hash
// reopens the older view, since mutations never delete nodes.
// A Trie is not safe for concurrent use.
type Trie struct {
	db       Database
	root     node
	rootHash alephium.Bytes32
}

// New creates a trie with an existing root node from db.
//
// If root is the zero value, the trie is initially empty. Otherwise
// New will return a MissingNodeError if the root node cannot be
// found in the database.
func New(root alephium.Bytes32, db Database) (*Trie, error) {
	t := &Trie{db: db}
	if root.IsZero() {
		return t, nil
	}
	rootNode, err := t.resolveHash(hashNode(root), nil)
	if err != nil {
		return nil, err
	}
	t.root = rootNode
	t.rootHash = root
	return t, nil
}

// Hash returns the root hash of the trie. It is the zero Bytes32 for
// the empty trie.
func (t *Trie) Hash() alephium.Bytes32 {
	return t.rootHash
}

// Get returns the value for key stored in the trie. It returns nil
// with no error if the key is absent.
func (t *Trie) Get(key alephium.Bytes32) ([]byte, error) {
	value, err := t.get(t.root, keybytesToNibbles(key.Bytes()), nil)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(value), nil
}

// Has returns whether key is present in the trie.
func (t *Trie) Has(key alephium.Bytes32) (bool, error) {
	value, err := t.get(t.root, keybytesToNibbles(key.Bytes()), nil)
	if err != nil {
		return false, err
	}
	return value != nil, nil
}

func (t *Trie) get(n node, path []byte, prefix []byte) ([]byte, error) {
	switch n := n.(type) {
	case nil:
		return nil, nil
	case *leafNode:
		if !bytes.Equal(n.path, path) {
			return nil, nil
		}
		return n.value, nil
	case *branchNode:
		match := commonPrefixLen(n.path, path)
		if match < len(n.path) {
			return nil, nil
		}
		if len(path) == len(n.path) {
			return n.value, nil
		}
		idx := path[len(n.path)]
		return t.get(n.children[idx], path[len(n.path)+1:], childPrefix(prefix, n.path, idx))
	case hashNode:
		resolved, err := t.resolveHash(n, prefix)
		if err != nil {
			return nil, err
		}
		return t.get(resolved, path, prefix)
	default:
		panic("unknown node type")
	}
}

// Update associates key with value in the trie. The new nodes along
// the rewritten path are stored immediately, and the root hash moves
// to the new root.
//
// If value has zero length, the key is deleted from the trie if
// present; deleting an absent key this way is a no-op.
func (t *Trie) Update(key alephium.Bytes32, value []byte) error {
	if len(value) == 0 {
		err := t.Delete(key)
		if err == ErrKeyNotFound {
			return nil
		}
		return err
	}
	newRoot, err := t.insert(t.root, keybytesToNibbles(key.Bytes()), bytes.Clone(value), nil)
	if err != nil {
		return err
	}
	return t.commitRoot(newRoot)
}

// Delete removes key from the trie. It returns ErrKeyNotFound if the
// key is absent.
func (t *Trie) Delete(key alephium.Bytes32) error {
	newRoot, err := t.delete(t.root, keybytesToNibbles(key.Bytes()), nil)
	if err != nil {
		return err
	}
	return t.commitRoot(newRoot)
}

// commitRoot stores the rewritten nodes and moves the trie to the
// new root.
func (t *Trie) commitRoot(newRoot node) error {
	if newRoot == nil {
		t.root = nil
		t.rootHash = alephium.Bytes32{}
		return nil
	}
	hash, err := t.store(newRoot)
	if err != nil {
		return err
	}
	t.root = newRoot
	t.rootHash = alephium.Bytes32(hash)
	return nil
}

func (t *Trie) insert(n node, path, value []byte, prefix []byte) (node, error) {
	switch n := n.(type) {
	case nil:
		return &leafNode{path: path, value: value}, nil

	case *leafNode:
		match := commonPrefixLen(n.path, path)
		if match == len(n.path) && match == len(path) {
			return &leafNode{path: path, value: value}, nil
		}
		// paths diverge: fork a branch at the longest common prefix
		branch := &branchNode{path: path[:match]}
		if match == len(n.path) {
			branch.value = n.value
		} else {
			branch.children[n.path[match]] = &leafNode{path: n.path[match+1:], value: n.value}
		}
		if match == len(path) {
			branch.value = value
		} else {
			branch.children[path[match]] = &leafNode{path: path[match+1:], value: value}
		}
		return branch, nil

	case *branchNode:
		match := commonPrefixLen(n.path, path)
		if match == len(n.path) {
			if len(path) == len(n.path) {
				cpy := n.copy()
				cpy.value = value
				return cpy, nil
			}
			idx := path[len(n.path)]
			child := n.children[idx]
			if child, ok := child.(hashNode); ok {
				resolved, err := t.resolveHash(child, childPrefix(prefix, n.path, idx))
				if err != nil {
					return nil, err
				}
				newChild, err := t.insert(resolved, path[len(n.path)+1:], value, childPrefix(prefix, n.path, idx))
				if err != nil {
					return nil, err
				}
				cpy := n.copy()
				cpy.children[idx] = newChild
				return cpy, nil
			}
			newChild, err := t.insert(child, path[len(n.path)+1:], value, childPrefix(prefix, n.path, idx))
			if err != nil {
				return nil, err
			}
			cpy := n.copy()
			cpy.children[idx] = newChild
			return cpy, nil
		}
		// the branch's own path diverges from the key: fork above it
		fork := &branchNode{path: path[:match]}
		moved := n.copy()
		moved.path = n.path[match+1:]
		fork.children[n.path[match]] = moved
		if match == len(path) {
			fork.value = value
		} else {
			fork.children[path[match]] = &leafNode{path: path[match+1:], value: value}
		}
		return fork, nil

	case hashNode:
		resolved, err := t.resolveHash(n, prefix)
		if err != nil {
			return nil, err
		}
		return t.insert(resolved, path, value, prefix)

	default:
		panic("unknown node type")
	}
}

func (t *Trie) delete(n node, path []byte, prefix []byte) (node, error) {
	switch n := n.(type) {
	case nil:
		return nil, ErrKeyNotFound

	case *leafNode:
		if !bytes.Equal(n.path, path) {
			return nil, ErrKeyNotFound
		}
		return nil, nil

	case *branchNode:
		match := commonPrefixLen(n.path, path)
		if match < len(n.path) {
			return nil, ErrKeyNotFound
		}
		cpy := n.copy()
		if len(path) == len(n.path) {
			if cpy.value == nil {
				return nil, ErrKeyNotFound
			}
			cpy.value = nil
		} else {
			idx := path[len(n.path)]
			child := cpy.children[idx]
			if child == nil {
				return nil, ErrKeyNotFound
			}
			if hash, ok := child.(hashNode); ok {
				resolved, err := t.resolveHash(hash, childPrefix(prefix, n.path, idx))
				if err != nil {
					return nil, err
				}
				child = resolved
			}
			newChild, err := t.delete(child, path[len(n.path)+1:], childPrefix(prefix, n.path, idx))
			if err != nil {
				return nil, err
			}
			cpy.children[idx] = newChild
		}
		return t.collapse(cpy, prefix)

	case hashNode:
		resolved, err := t.resolveHash(n, prefix)
		if err != nil {
			return nil, err
		}
		return t.delete(resolved, path, prefix)

	default:
		panic("unknown node type")
	}
}

// collapse restores canonical shape after a removal: a branch left
// with no value and a single child merges with that child, and a
// branch left with only a value degrades to a leaf.
func (t *Trie) collapse(n *branchNode, prefix []byte) (node, error) {
	count, idx := n.countChildren()
	switch {
	case count == 0 && n.value == nil:
		return nil, nil
	case count == 0:
		return &leafNode{path: n.path, value: n.value}, nil
	case count == 1 && n.value == nil:
		child := n.children[idx]
		if hash, ok := child.(hashNode); ok {
			resolved, err := t.resolveHash(hash, childPrefix(prefix, n.path, idx))
			if err != nil {
				return nil, err
			}
			child = resolved
		}
		switch child := child.(type) {
		case *leafNode:
			return &leafNode{
				path:  concatPath(n.path, idx, child.path),
				value: child.value,
			}, nil
		case *branchNode:
			merged := child.copy()
			merged.path = concatPath(n.path, idx, child.path)
			return merged, nil
		default:
			panic("unknown node type")
		}
	default:
		return n, nil
	}
}

// childPrefix builds the nibble path from the root to the child at
// idx, for error reporting.
func childPrefix(prefix, path []byte, idx byte) []byte {
	child := make([]byte, 0, len(prefix)+len(path)+1)
	child = append(child, prefix...)
	child = append(child, path...)
	return append(child, idx)
}

func concatPath(path []byte, idx byte, rest []byte) []byte {
	merged := make([]byte, 0, len(path)+1+len(rest))
	merged = append(merged, path...)
	merged = append(merged, idx)
	return append(merged, rest...)
}

// store writes n and its unstored descendants into the database and
// returns the content hash of n. Child slots holding in-memory nodes
// are replaced with their hash references on the way.
func (t *Trie) store(n node) (hashNode, error) {
	if branch, ok := n.(*branchNode); ok {
		for i, child := range branch.children {
			switch child := child.(type) {
			case nil, hashNode:
			default:
				childHash, err := t.store(child)
				if err != nil {
					return hashNode{}, err
				}
				branch.children[i] = childHash
			}
		}
	}
	data, err := encodeNode(n)
	if err != nil {
		return hashNode{}, err
	}
	hash := alephium.Blake2b(data)
	if err := t.db.Put(hash.Bytes(), data); err != nil {
		return hashNode{}, err
	}
	metricNodeWrites().Add(1)
	nodeCache.Add(hash, n)
	return hashNode(hash), nil
}

func (t *Trie) resolveHash(n hashNode, prefix []byte) (node, error) {
	hash := alephium.Bytes32(n)
	if cached, ok := nodeCache.Get(hash); ok {
		metricNodeCache().AddWithLabel(1, map[string]string{"event": "hit"})
		return cached.(node), nil
	}
	metricNodeCache().AddWithLabel(1, map[string]string{"event": "miss"})

	data, err := t.db.Get(hash.Bytes())
	if err != nil {
		if t.db.IsNotFound(err) {
			return nil, &MissingNodeError{NodeHash: hash, Path: prefix}
		}
		return nil, err
	}
	metricNodeReads().Add(1)
	decoded, err := decodeNode(hash, data)
	if err != nil {
		return nil, err
	}
	nodeCache.Add(hash, decoded)
	return decoded, nil
}
