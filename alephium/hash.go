// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package alephium

import (
	"hash"
	"io"

	"golang.org/x/crypto/blake2b"
)

// NewBlake2b return blake2b-256 hash.
func NewBlake2b() hash.Hash {
	h, _ := blake2b.New256(nil)
	return h
}

// Blake2b computes blake2b-256 checksum for given data.
func Blake2b(data ...[]byte) (b32 Bytes32) {
	h, _ := blake2b.New256(nil)
	for _, b := range data {
		h.Write(b)
	}
	h.Sum(b32[:0])
	return
}

// Blake2bFn computes blake2b-256 checksum for the provided writer.
func Blake2bFn(fn func(w io.Writer)) (b32 Bytes32) {
	h, _ := blake2b.New256(nil)
	fn(h)
	h.Sum(b32[:0])
	return
}
