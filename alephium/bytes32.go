// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package alephium

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Bytes32 array of 32 bytes, the width of every hash and trie key in the system.
type Bytes32 [32]byte

// String implements stringer.
func (b Bytes32) String() string {
	return "0x" + hex.EncodeToString(b[:])
}

// AbbrevString returns abbrev string presentation.
func (b Bytes32) AbbrevString() string {
	return fmt.Sprintf("0x%x…%x", b[:4], b[28:])
}

// Bytes returns byte slice form of Bytes32.
func (b Bytes32) Bytes() []byte {
	return b[:]
}

// IsZero returns if Bytes32 has all zero bytes.
func (b Bytes32) IsZero() bool {
	return b == Bytes32{}
}

// MarshalJSON implements json.Marshaler.
func (b Bytes32) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%v"`, b)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bytes32) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := unmarshalJSONString(data, &hexStr); err != nil {
		return err
	}
	parsed, err := ParseBytes32(hexStr)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ParseBytes32 convert string presented into Bytes32 type.
// The input is left-padded with zeros when shorter than 32 bytes.
func ParseBytes32(s string) (Bytes32, error) {
	if !strings.HasPrefix(s, "0x") {
		return Bytes32{}, errNotHex
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil {
		return Bytes32{}, err
	}
	if len(raw) > 32 {
		return Bytes32{}, errOverflow
	}
	var b Bytes32
	copy(b[32-len(raw):], raw)
	return b, nil
}

// MustParseBytes32 convert string presented into Bytes32 type, panic on error.
func MustParseBytes32(s string) Bytes32 {
	b32, err := ParseBytes32(s)
	if err != nil {
		panic(err)
	}
	return b32
}

// BytesToBytes32 converts bytes slice into Bytes32.
// If the byte slice is too long, the leading bytes are cropped.
func BytesToBytes32(b []byte) Bytes32 {
	return Bytes32(BytesToHashSized(b))
}

// BytesToHashSized right-aligns b into a 32-byte array.
func BytesToHashSized(b []byte) [32]byte {
	var h [32]byte
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(h[32-len(b):], b)
	return h
}

var (
	errNotHex   = fmt.Errorf("hex string without 0x prefix")
	errOverflow = fmt.Errorf("hex string exceeds 32 bytes")
)

func unmarshalJSONString(data []byte, dst *string) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("not a JSON string: %s", data)
	}
	*dst = string(data[1 : len(data)-1])
	return nil
}
