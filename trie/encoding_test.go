// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trie

import (
	"bytes"
	"testing"
)

func TestNibblesCompact(t *testing.T) {
	tests := []struct {
		nibbles []byte
		leaf    bool
		compact []byte
	}{
		// empty paths, branch and leaf
		{nibbles: []byte{}, leaf: false, compact: []byte{0x00}},
		{nibbles: []byte{}, leaf: true, compact: []byte{0x20}},
		// odd length, branch
		{nibbles: []byte{1, 2, 3, 4, 5}, leaf: false, compact: []byte{0x11, 0x23, 0x45}},
		// even length, branch
		{nibbles: []byte{0, 1, 2, 3, 4, 5}, leaf: false, compact: []byte{0x00, 0x01, 0x23, 0x45}},
		// odd length, leaf
		{nibbles: []byte{15, 1, 12, 11, 8}, leaf: true, compact: []byte{0x3f, 0x1c, 0xb8}},
		// even length, leaf
		{nibbles: []byte{0, 15, 1, 12, 11, 8}, leaf: true, compact: []byte{0x20, 0x0f, 0x1c, 0xb8}},
	}
	for _, test := range tests {
		if c := nibblesToCompact(test.nibbles, test.leaf); !bytes.Equal(c, test.compact) {
			t.Errorf("nibblesToCompact(%x, %v) -> %x, want %x", test.nibbles, test.leaf, c, test.compact)
		}
		n, leaf, err := compactToNibbles(test.compact)
		if err != nil {
			t.Errorf("compactToNibbles(%x) -> error %v", test.compact, err)
			continue
		}
		if !bytes.Equal(n, test.nibbles) || leaf != test.leaf {
			t.Errorf("compactToNibbles(%x) -> (%x, %v), want (%x, %v)", test.compact, n, leaf, test.nibbles, test.leaf)
		}
	}
}

func TestCompactRejectsGarbage(t *testing.T) {
	for _, compact := range [][]byte{
		{},     // empty
		{0x40}, // flag out of range
		{0x01}, // even flag with non-zero padding
	} {
		if _, _, err := compactToNibbles(compact); err == nil {
			t.Errorf("compactToNibbles(%x) accepted garbage", compact)
		}
	}
}

func TestKeybytesNibbles(t *testing.T) {
	tests := []struct{ key, nibbles []byte }{
		{key: []byte{}, nibbles: []byte{}},
		{key: []byte{0x12, 0x34, 0x56}, nibbles: []byte{1, 2, 3, 4, 5, 6}},
		{key: []byte{0xff, 0x00}, nibbles: []byte{15, 15, 0, 0}},
	}
	for _, test := range tests {
		if n := keybytesToNibbles(test.key); !bytes.Equal(n, test.nibbles) {
			t.Errorf("keybytesToNibbles(%x) -> %x, want %x", test.key, n, test.nibbles)
		}
		if k := nibblesToKeybytes(test.nibbles); !bytes.Equal(k, test.key) {
			t.Errorf("nibblesToKeybytes(%x) -> %x, want %x", test.nibbles, k, test.key)
		}
	}
}

func BenchmarkKeybytesToNibbles(b *testing.B) {
	key := bytes.Repeat([]byte{0x5a}, 32)
	for i := 0; i < b.N; i++ {
		keybytesToNibbles(key)
	}
}
