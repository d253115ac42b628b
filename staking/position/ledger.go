// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package position

import (
	"errors"
	"sync"
	"time"

	"github.com/stakeforge/lsd/cache"
	"github.com/stakeforge/lsd/staking/ident"
)

const lookupCacheSize = 4096

var (
	ErrInvalidID = errors.New("identifier is malformed")
	ErrNotFound  = errors.New("position not found")
	ErrCapacity  = errors.New("position ledger is full")
)

// Ledger stores positions by generated id. Lookups by the
// (staker, pool, validator) owner triple go through a bounded LRU cache
// loaded by scanning; positions are never removed, so cached entries
// stay valid for their lifetime.
type Ledger struct {
	mu        sync.RWMutex
	positions map[string]*Position
	lookups   *cache.LRU
	limit     int
}

type ownerKey struct {
	staker, poolID, validator string
}

// NewLedger creates a ledger holding up to limit positions.
func NewLedger(limit int) *Ledger {
	lookups, err := cache.NewLRU(lookupCacheSize)
	if err != nil {
		panic(err) // static size, cannot fail
	}
	return &Ledger{
		positions: make(map[string]*Position),
		lookups:   lookups,
		limit:     limit,
	}
}

// Open returns the position owned by (staker, poolID, validatorAddr),
// creating it if absent.
func (l *Ledger) Open(staker, poolID, validatorAddr string, now time.Time) (*Position, error) {
	if !ident.Valid(staker) || !ident.Valid(poolID) || !ident.Valid(validatorAddr) {
		return nil, ErrInvalidID
	}

	if p, err := l.Find(staker, poolID, validatorAddr); err == nil {
		return p, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// re-check under the write lock, a racing Open may have won
	key := ownerKey{staker, poolID, validatorAddr}
	if p := l.scanLocked(key); p != nil {
		return p, nil
	}
	if l.limit > 0 && len(l.positions) >= l.limit {
		return nil, ErrCapacity
	}

	p := New(ident.New("pos", now, staker, poolID), staker, poolID, validatorAddr)
	l.positions[p.ID()] = p
	l.lookups.Add(key, p)
	return p, nil
}

// Find returns the position owned by (staker, poolID, validatorAddr).
func (l *Ledger) Find(staker, poolID, validatorAddr string) (*Position, error) {
	key := ownerKey{staker, poolID, validatorAddr}
	v, ok := l.lookups.GetOrLoad(key, func(any) (any, bool) {
		l.mu.RLock()
		defer l.mu.RUnlock()
		if p := l.scanLocked(key); p != nil {
			return p, true
		}
		return nil, false
	})
	if !ok {
		return nil, ErrNotFound
	}
	return v.(*Position), nil
}

func (l *Ledger) scanLocked(key ownerKey) *Position {
	for _, p := range l.positions {
		if p.Staker() == key.staker && p.PoolID() == key.poolID && p.Validator() == key.validator {
			return p
		}
	}
	return nil
}

// Get returns the position stored under id.
func (l *Ledger) Get(id string) (*Position, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.positions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// Count returns the number of positions.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.positions)
}

// ForEach calls fn for every position until fn returns false.
func (l *Ledger) ForEach(fn func(*Position) bool) {
	l.mu.RLock()
	snapshot := make([]*Position, 0, len(l.positions))
	for _, p := range l.positions {
		snapshot = append(snapshot, p)
	}
	l.mu.RUnlock()

	for _, p := range snapshot {
		if !fn(p) {
			return
		}
	}
}

// ForEachByValidator calls fn for every position delegated to
// validatorAddr until fn returns false.
func (l *Ledger) ForEachByValidator(validatorAddr string, fn func(*Position) bool) {
	l.ForEach(func(p *Position) bool {
		if p.Validator() != validatorAddr {
			return true
		}
		return fn(p)
	})
}

// ForEachByPoolValidator calls fn for every position in poolID delegated
// to validatorAddr until fn returns false.
func (l *Ledger) ForEachByPoolValidator(poolID, validatorAddr string, fn func(*Position) bool) {
	l.ForEach(func(p *Position) bool {
		if p.PoolID() != poolID || p.Validator() != validatorAddr {
			return true
		}
		return fn(p)
	})
}

// LookupStats returns hit/miss counts of the owner lookup cache.
func (l *Ledger) LookupStats() (hit, miss int64, rate float64) {
	return l.lookups.Stats()
}
