// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	stderrors "errors"

	"github.com/pkg/errors"

	"github.com/greentin/alephium/trie"
)

var (
	// ErrNotFound is returned when a required entry is absent.
	ErrNotFound = errors.New("state: not found")

	// ErrExpectedAsset is returned when an asset operation reaches a
	// contract output.
	ErrExpectedAsset = errors.New("state: expected asset output")

	// ErrContractExists is returned by the checked contract creation
	// when the id is already taken.
	ErrContractExists = errors.New("state: contract already exists")

	// ErrRefCountUnderflow is returned when removing a contract whose
	// code record is already gone, which indicates a double remove.
	ErrRefCountUnderflow = errors.New("state: code refcount underflow")
)

// IsNotFound reports whether err means a missing entry, at this or
// the trie layer.
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNotFound) || stderrors.Is(err, trie.ErrKeyNotFound)
}
