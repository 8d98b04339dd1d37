// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package alephium

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBlake2b(t *testing.T) {
	hasher := NewBlake2b()
	if hasher == nil {
		t.Fatal("NewBlake2b returned nil")
	}

	hasher.Write([]byte("Alephium"))
	sum := hasher.Sum(nil)
	if len(sum) != 32 {
		t.Errorf("Expected BLAKE2b-256 hash length of 32, got %d", len(sum))
	}
}

func TestBlake2b(t *testing.T) {
	singleData := []byte("data")
	multipleData := [][]byte{[]byte("multi"), []byte("ple"), []byte("data")}

	singleHash := Blake2b(singleData)
	multiHash := Blake2b(multipleData...)

	if singleHash == multiHash {
		t.Error("Expected different hashes for different data")
	}

	// concatenation equals chunked writes
	assert.Equal(t, Blake2b([]byte("multipledata")), multiHash)
}

func TestBlake2bFn(t *testing.T) {
	h := Blake2bFn(func(w io.Writer) {
		w.Write([]byte("custom writer"))
	})

	assert.Equal(t, Blake2b([]byte("custom writer")), h)
}
