// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package protection

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/stakeforge/lsd/staking/ident"
)

var (
	ErrInvalidStaker    = errors.New("invalid staker")
	ErrInvalidValidator = errors.New("invalid validator id")
	ErrNotFound         = errors.New("protection not found")
	ErrCapacity         = errors.New("protection capacity reached")
)

// Fund holds the issued protection policies.
type Fund struct {
	mu          sync.RWMutex
	protections map[string]*Protection
	limit       int
}

// NewFund creates a fund bounded to limit policies.
func NewFund(limit int) *Fund {
	return &Fund{
		protections: make(map[string]*Protection),
		limit:       limit,
	}
}

// Purchase issues a new inactive policy and returns it.
func (f *Fund) Purchase(staker, validatorID string, amount *big.Int, now time.Time) (*Protection, error) {
	if !ident.Valid(staker) {
		return nil, ErrInvalidStaker
	}
	if !ident.Valid(validatorID) {
		return nil, ErrInvalidValidator
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.protections) >= f.limit {
		return nil, ErrCapacity
	}

	id := ident.New("prot", now, staker, validatorID)
	p := New(id, staker, validatorID, amount, now)
	f.protections[id] = p
	return p, nil
}

// Get returns the policy with the given id.
func (f *Fund) Get(id string) (*Protection, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	p, ok := f.protections[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// Count returns the number of issued policies.
func (f *Fund) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.protections)
}

// ForEach visits all policies.
func (f *Fund) ForEach(fn func(*Protection) bool) {
	f.mu.RLock()
	snapshot := make([]*Protection, 0, len(f.protections))
	for _, p := range f.protections {
		snapshot = append(snapshot, p)
	}
	f.mu.RUnlock()

	for _, p := range snapshot {
		if !fn(p) {
			return
		}
	}
}

// ForEachByValidator visits the policies covering a validator.
func (f *Fund) ForEachByValidator(validatorID string, fn func(*Protection) bool) {
	f.ForEach(func(p *Protection) bool {
		if p.Validator() != validatorID {
			return true
		}
		return fn(p)
	})
}
