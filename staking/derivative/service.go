// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package derivative

import (
	"errors"
	"sync"
	"time"

	"github.com/stakeforge/lsd/staking/ident"
)

var (
	ErrInvalidPool       = errors.New("invalid pool id")
	ErrInvalidUnderlying = errors.New("invalid underlying symbol")
	ErrExists            = errors.New("pool already has a derivative of this kind")
	ErrNotFound          = errors.New("derivative not found")
	ErrCapacity          = errors.New("derivative capacity reached")
)

type tokenKey struct {
	poolID string
	kind   Kind
}

// Service issues derivative tokens, at most one per pool and kind.
type Service struct {
	mu     sync.RWMutex
	tokens map[tokenKey]*Token
	byID   map[string]*Token
	limit  int
}

// NewService creates a service bounded to limit tokens.
func NewService(limit int) *Service {
	return &Service{
		tokens: make(map[tokenKey]*Token),
		byID:   make(map[string]*Token),
		limit:  limit,
	}
}

// Issue creates the derivative token of the given kind for a pool.
func (s *Service) Issue(poolID, underlying string, kind Kind, now time.Time) (*Token, error) {
	if !ident.Valid(poolID) {
		return nil, ErrInvalidPool
	}
	if underlying == "" || len(underlying) > 16 {
		return nil, ErrInvalidUnderlying
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := tokenKey{poolID: poolID, kind: kind}
	if _, ok := s.tokens[key]; ok {
		return nil, ErrExists
	}
	if len(s.tokens) >= s.limit {
		return nil, ErrCapacity
	}

	id := ident.New("deriv", now, poolID, kind.String())
	token := NewToken(id, poolID, underlying, kind, now)
	s.tokens[key] = token
	s.byID[id] = token
	return token, nil
}

// Get returns the derivative of the given kind for a pool.
func (s *Service) Get(poolID string, kind Kind) (*Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[tokenKey{poolID: poolID, kind: kind}]
	if !ok {
		return nil, ErrNotFound
	}
	return token, nil
}

// GetByID returns the derivative with the given token id.
func (s *Service) GetByID(id string) (*Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return token, nil
}

// Count returns the number of issued tokens.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// ForEach visits all issued tokens.
func (s *Service) ForEach(fn func(*Token) bool) {
	s.mu.RLock()
	snapshot := make([]*Token, 0, len(s.tokens))
	for _, t := range s.tokens {
		snapshot = append(snapshot, t)
	}
	s.mu.RUnlock()

	for _, t := range snapshot {
		if !fn(t) {
			return
		}
	}
}
