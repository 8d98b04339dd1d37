// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUGetOrLoad(t *testing.T) {
	l := NewLRU(16)

	loads := 0
	loader := func(key interface{}) (interface{}, error) {
		loads++
		return key.(int) * 10, nil
	}

	v, err := l.GetOrLoad(1, loader)
	require.NoError(t, err)
	assert.Equal(t, 10, v)
	assert.Equal(t, 1, loads)

	// second read is served from cache
	v, err = l.GetOrLoad(1, loader)
	require.NoError(t, err)
	assert.Equal(t, 10, v)
	assert.Equal(t, 1, loads)

	hit, miss := l.Stats()
	assert.Equal(t, int64(1), hit)
	assert.Equal(t, int64(1), miss)
}

func TestLRUGetOrLoadError(t *testing.T) {
	l := NewLRU(16)

	wantErr := errors.New("load failed")
	_, err := l.GetOrLoad(1, func(interface{}) (interface{}, error) {
		return nil, wantErr
	})
	assert.Equal(t, wantErr, err)

	// a failed load caches nothing
	_, ok := l.Get(1)
	assert.False(t, ok)
}

func TestLRUEviction(t *testing.T) {
	l := NewLRU(16)
	for i := 0; i < 64; i++ {
		l.Add(i, i)
	}
	assert.LessOrEqual(t, l.Len(), 16)
}
