// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"sync/atomic"
)

// Stats collects cache hit/miss counters.
type Stats struct {
	hit, miss int64
	flag      int32
}

// Hit records a hit and returns the total hit count.
func (cs *Stats) Hit() int64 { return atomic.AddInt64(&cs.hit, 1) }

// Miss records a miss and returns the total miss count.
func (cs *Stats) Miss() int64 { return atomic.AddInt64(&cs.miss, 1) }

// Stats reports whether the hit rate, in tenths of a percent, changed
// since the last call, along with the current hit and miss counts.
func (cs *Stats) Stats() (bool, int64, int64) {
	hit := atomic.LoadInt64(&cs.hit)
	miss := atomic.LoadInt64(&cs.miss)
	lookups := hit + miss

	hitRate := float64(0)
	if lookups > 0 {
		hitRate = float64(hit) / float64(lookups)
	}
	flag := int32(hitRate * 1000)

	changed := atomic.SwapInt32(&cs.flag, flag) != flag
	return changed, hit, miss
}
