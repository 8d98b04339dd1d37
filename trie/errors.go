// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trie

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/greentin/alephium/alephium"
)

// ErrKeyNotFound is returned when removing a key that is not in the trie.
var ErrKeyNotFound = errors.New("trie: key not found")

// ErrClosed is returned when operating on a staging layer after it
// has been committed or rolled back.
var ErrClosed = errors.New("trie: staging closed")

// MissingNodeError is returned by trie functions (Get, Update, Delete)
// in the case where a referenced trie node is not present in the
// database. It indicates store corruption: node writes are additive,
// so a hash reachable from a committed root must resolve.
//
// NodeHash is the hash of the missing node.
//
// Path is the nibble path to the missing node, from the root.
type MissingNodeError struct {
	NodeHash alephium.Bytes32
	Path     []byte
}

func (err *MissingNodeError) Error() string {
	return fmt.Sprintf("missing trie node %v (path %x)", err.NodeHash, err.Path)
}
