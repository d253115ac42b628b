// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stats accumulates the system-wide staking counters.
package stats

import (
	"math/big"
	"sync"
)

// Service aggregates totals across all pools and validators. All
// amounts are monotonic lifetime counters except totalStaked, which
// moves both ways.
type Service struct {
	mu sync.Mutex

	totalStaked   *big.Int
	totalRewards  *big.Int
	totalSlashed  *big.Int
	totalFees     *big.Int
	totalUnstaked *big.Int
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	TotalStaked   *big.Int
	TotalRewards  *big.Int
	TotalSlashed  *big.Int
	TotalFees     *big.Int
	TotalUnstaked *big.Int
}

func NewService() *Service {
	return &Service{
		totalStaked:   new(big.Int),
		totalRewards:  new(big.Int),
		totalSlashed:  new(big.Int),
		totalFees:     new(big.Int),
		totalUnstaked: new(big.Int),
	}
}

// AddStaked moves totalStaked by delta, which may be negative.
func (s *Service) AddStaked(delta *big.Int) {
	if delta == nil || delta.Sign() == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalStaked.Add(s.totalStaked, delta)
	if s.totalStaked.Sign() < 0 {
		s.totalStaked.SetInt64(0)
	}
}

func (s *Service) AddRewards(amount *big.Int) {
	s.add(s.totalRewards, amount)
}

func (s *Service) AddSlashed(amount *big.Int) {
	s.add(s.totalSlashed, amount)
}

func (s *Service) AddFees(amount *big.Int) {
	s.add(s.totalFees, amount)
}

func (s *Service) AddUnstaked(amount *big.Int) {
	s.add(s.totalUnstaked, amount)
}

func (s *Service) add(counter, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	counter.Add(counter, amount)
}

// Stats returns a copy of the current counters.
func (s *Service) Stats() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		TotalStaked:   new(big.Int).Set(s.totalStaked),
		TotalRewards:  new(big.Int).Set(s.totalRewards),
		TotalSlashed:  new(big.Int).Set(s.totalSlashed),
		TotalFees:     new(big.Int).Set(s.totalFees),
		TotalUnstaked: new(big.Int).Set(s.totalUnstaked),
	}
}
