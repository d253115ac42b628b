// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validator

import (
	"errors"
	"sync"
	"time"

	"github.com/stakeforge/lsd/staking/ident"
)

const maxMonikerLen = 64

var (
	ErrInvalidOperator = errors.New("operator address is malformed")
	ErrInvalidMoniker  = errors.New("moniker is empty or too long")
	ErrExists          = errors.New("validator already registered")
	ErrNotFound        = errors.New("validator not found")
	ErrCapacity        = errors.New("validator registry is full")
)

// Service is the registry of validators, keyed by operator address.
// The registry lock only covers structural changes; entity mutations go
// through each Validator's own lock.
type Service struct {
	mu         sync.RWMutex
	validators map[string]*Validator
	limit      int
}

// NewService creates a registry holding up to limit validators.
func NewService(limit int) *Service {
	return &Service{
		validators: make(map[string]*Validator),
		limit:      limit,
	}
}

// Register creates and stores a validator for operator.
func (s *Service) Register(operator, moniker string, now time.Time) (*Validator, error) {
	if !ident.Valid(operator) {
		return nil, ErrInvalidOperator
	}
	if moniker == "" || len(moniker) > maxMonikerLen {
		return nil, ErrInvalidMoniker
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.validators[operator]; ok {
		return nil, ErrExists
	}
	if s.limit > 0 && len(s.validators) >= s.limit {
		return nil, ErrCapacity
	}

	v := New(operator, moniker, now)
	s.validators[operator] = v
	return v, nil
}

// Get returns the validator registered for operator.
func (s *Service) Get(operator string) (*Validator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.validators[operator]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

// Count returns the number of registered validators.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.validators)
}

// ActiveCount returns the number of validators in active status.
func (s *Service) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, v := range s.validators {
		if v.IsActive() {
			n++
		}
	}
	return n
}

// ForEach calls fn for every validator until fn returns false.
func (s *Service) ForEach(fn func(*Validator) bool) {
	s.mu.RLock()
	snapshot := make([]*Validator, 0, len(s.validators))
	for _, v := range s.validators {
		snapshot = append(snapshot, v)
	}
	s.mu.RUnlock()

	for _, v := range snapshot {
		if !fn(v) {
			return
		}
	}
}
