// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"errors"
	"sync"
	"time"

	"github.com/stakeforge/lsd/staking/ident"
)

const maxNameLen = 64

var (
	ErrInvalidName     = errors.New("pool name is empty or too long")
	ErrInvalidOperator = errors.New("operator address is malformed")
	ErrNotFound        = errors.New("pool not found")
	ErrCapacity        = errors.New("pool manager is full")
)

// Service manages the collection of pools, keyed by generated pool id.
type Service struct {
	mu    sync.RWMutex
	pools map[string]*Pool
	limit int
}

// NewService creates a manager holding up to limit pools.
func NewService(limit int) *Service {
	return &Service{
		pools: make(map[string]*Pool),
		limit: limit,
	}
}

// Create builds a pool and stores it under a generated id.
func (s *Service) Create(name string, ptype Type, operator string, now time.Time) (*Pool, error) {
	if name == "" || len(name) > maxNameLen {
		return nil, ErrInvalidName
	}
	if !ident.Valid(operator) {
		return nil, ErrInvalidOperator
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.limit > 0 && len(s.pools) >= s.limit {
		return nil, ErrCapacity
	}

	p := New(ident.New("pool", now, name, operator), name, ptype, operator, now)
	s.pools[p.ID()] = p
	return p, nil
}

// Get returns the pool stored under id.
func (s *Service) Get(id string) (*Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pools[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// Count returns the number of pools.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pools)
}

// ActiveCount returns the number of active pools.
func (s *Service) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, p := range s.pools {
		if p.IsActive() {
			n++
		}
	}
	return n
}

// ForEach calls fn for every pool until fn returns false.
func (s *Service) ForEach(fn func(*Pool) bool) {
	s.mu.RLock()
	snapshot := make([]*Pool, 0, len(s.pools))
	for _, p := range s.pools {
		snapshot = append(snapshot, p)
	}
	s.mu.RUnlock()

	for _, p := range snapshot {
		if !fn(p) {
			return
		}
	}
}
