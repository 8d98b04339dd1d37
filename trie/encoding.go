// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trie

import "github.com/pkg/errors"

// Trie keys are handled in two encodings:
//
// KEYBYTES encoding contains the actual key, always 32 bytes wide.
//
// NIBBLES encoding contains one byte per nibble, high nibble first.
// Node paths carry nibbles; a 32-byte key expands to 64 nibbles.
//
// Paths stored inside nodes use COMPACT encoding: the nibbles are
// packed two per byte behind a flag nibble whose bit 1 marks a leaf
// and whose bit 0 marks an odd nibble count. The flag bits keep a
// leaf suffix and a branch suffix from ever serializing equally.

const (
	flagOdd  = 0x1
	flagLeaf = 0x2
)

func keybytesToNibbles(key []byte) []byte {
	nibbles := make([]byte, len(key)*2)
	for i, b := range key {
		nibbles[i*2] = b / 16
		nibbles[i*2+1] = b % 16
	}
	return nibbles
}

// nibblesToKeybytes packs an even number of nibbles back into bytes.
func nibblesToKeybytes(nibbles []byte) []byte {
	key := make([]byte, len(nibbles)/2)
	for i := range key {
		key[i] = nibbles[i*2]<<4 | nibbles[i*2+1]
	}
	return key
}

func nibblesToCompact(nibbles []byte, leaf bool) []byte {
	flags := byte(0)
	if leaf {
		flags = flagLeaf
	}
	compact := make([]byte, len(nibbles)/2+1)
	if len(nibbles)%2 == 1 {
		flags |= flagOdd
		compact[0] = flags<<4 | nibbles[0]
		nibbles = nibbles[1:]
	} else {
		compact[0] = flags << 4
	}
	for i := 0; i < len(nibbles); i += 2 {
		compact[i/2+1] = nibbles[i]<<4 | nibbles[i+1]
	}
	return compact
}

func compactToNibbles(compact []byte) (nibbles []byte, leaf bool, err error) {
	if len(compact) == 0 {
		return nil, false, errors.New("empty compact path")
	}
	flags := compact[0] >> 4
	if flags > flagLeaf|flagOdd {
		return nil, false, errors.Errorf("invalid compact path flags %x", flags)
	}
	leaf = flags&flagLeaf != 0

	nibbles = make([]byte, 0, len(compact)*2)
	if flags&flagOdd != 0 {
		nibbles = append(nibbles, compact[0]&0xf)
	} else if compact[0]&0xf != 0 {
		return nil, false, errors.New("invalid compact path padding")
	}
	for _, b := range compact[1:] {
		nibbles = append(nibbles, b>>4, b&0xf)
	}
	return nibbles, leaf, nil
}

// commonPrefixLen returns the length of the common prefix of a and b.
func commonPrefixLen(a, b []byte) int {
	var i int
	for i = 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			break
		}
	}
	return i
}
