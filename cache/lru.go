// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
)

// Loader loads the value for key on a cache miss.
type Loader func(key any) (any, bool)

// LRU is a bounded LRU cache with miss-loading and hit/miss accounting.
type LRU struct {
	cache     *lru.Cache
	hit, miss atomic.Int64
}

// NewLRU creates an LRU cache holding up to maxSize entries.
func NewLRU(maxSize int) (*LRU, error) {
	c, err := lru.New(maxSize)
	if err != nil {
		return nil, err
	}
	return &LRU{cache: c}, nil
}

// Add inserts or refreshes an entry.
func (l *LRU) Add(key, value any) {
	l.cache.Add(key, value)
}

// Get returns the cached value for key, if present.
func (l *LRU) Get(key any) (any, bool) {
	v, ok := l.cache.Get(key)
	if ok {
		l.hit.Add(1)
	} else {
		l.miss.Add(1)
	}
	return v, ok
}

// GetOrLoad returns the cached value for key, invoking loader and
// caching its result on a miss. The loader reporting false means
// no value exists; nothing is cached in that case.
func (l *LRU) GetOrLoad(key any, loader Loader) (any, bool) {
	if v, ok := l.cache.Get(key); ok {
		l.hit.Add(1)
		return v, true
	}
	l.miss.Add(1)

	v, ok := loader(key)
	if !ok {
		return nil, false
	}
	l.cache.Add(key, v)
	return v, true
}

// Remove drops the entry for key, if any.
func (l *LRU) Remove(key any) {
	l.cache.Remove(key)
}

// Len returns the number of cached entries.
func (l *LRU) Len() int {
	return l.cache.Len()
}

// Stats returns accumulated hits, misses and the hit rate over all lookups.
func (l *LRU) Stats() (hit, miss int64, rate float64) {
	hit = l.hit.Load()
	miss = l.miss.Load()
	if lookups := hit + miss; lookups > 0 {
		rate = float64(hit) / float64(lookups)
	}
	return
}
