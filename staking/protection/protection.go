// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package protection covers delegators against slashing losses. A
// Protection is a per-staker, per-validator policy with a coverage
// amount and an expiry; once a slashing event is recorded against it
// the covered amount can be claimed exactly once.
package protection

import (
	"errors"
	"math/big"
	"sync"
	"time"
)

// Reason classifies the slashing event recorded against a policy.
type Reason uint8

const (
	ReasonDoubleSign Reason = iota
	ReasonDowntime
	ReasonMalicious
	ReasonTechnical
	ReasonGovernance
)

func (r Reason) String() string {
	switch r {
	case ReasonDoubleSign:
		return "double-sign"
	case ReasonDowntime:
		return "downtime"
	case ReasonMalicious:
		return "malicious"
	case ReasonTechnical:
		return "technical"
	case ReasonGovernance:
		return "governance"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidDuration = errors.New("duration must be positive")
	ErrNotActive       = errors.New("protection is not active")
	ErrExpired         = errors.New("protection has expired")
	ErrNothingSlashed  = errors.New("no slashing recorded against protection")
	ErrAlreadyClaimed  = errors.New("protection already claimed")
)

// Protection is a single slashing-insurance policy.
type Protection struct {
	mu sync.Mutex

	id        string
	staker    string
	validator string

	protected *big.Int
	slashed   *big.Int
	reason    Reason

	createdAt time.Time
	expiresAt time.Time

	active  bool
	claimed bool
}

// New creates an inactive policy covering the given amount.
func New(id, staker, validator string, amount *big.Int, now time.Time) *Protection {
	return &Protection{
		id:        id,
		staker:    staker,
		validator: validator,
		protected: new(big.Int).Set(amount),
		slashed:   new(big.Int),
		createdAt: now,
	}
}

// Activate arms the policy for the given duration.
func (p *Protection) Activate(now time.Time, duration time.Duration) error {
	if duration <= 0 {
		return ErrInvalidDuration
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.claimed {
		return ErrAlreadyClaimed
	}
	p.active = true
	p.expiresAt = now.Add(duration)
	return nil
}

// Deactivate disarms the policy.
func (p *Protection) Deactivate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = false
}

// RecordSlashing accumulates a slashing loss against the policy. Only
// losses recorded while the policy is armed and unexpired count.
func (p *Protection) RecordSlashing(amount *big.Int, reason Reason, now time.Time) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.active {
		return ErrNotActive
	}
	if now.After(p.expiresAt) {
		return ErrExpired
	}
	p.slashed.Add(p.slashed, amount)
	p.reason = reason
	return nil
}

// Claim pays out min(protected, slashed) exactly once. The claimed flag
// is checked first so concurrent claimers settle on a single winner.
func (p *Protection) Claim(now time.Time) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.claimed {
		return nil, ErrAlreadyClaimed
	}
	if !p.active {
		return nil, ErrNotActive
	}
	if now.After(p.expiresAt) {
		return nil, ErrExpired
	}
	if p.slashed.Sign() == 0 {
		return nil, ErrNothingSlashed
	}

	payout := new(big.Int).Set(p.slashed)
	if payout.Cmp(p.protected) > 0 {
		payout.Set(p.protected)
	}
	p.claimed = true
	p.active = false
	return payout, nil
}

func (p *Protection) ID() string { return p.id }

func (p *Protection) Staker() string { return p.staker }

func (p *Protection) Validator() string { return p.validator }

func (p *Protection) Protected() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.protected)
}

func (p *Protection) Slashed() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.slashed)
}

func (p *Protection) Reason() Reason {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reason
}

func (p *Protection) ExpiresAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.expiresAt
}

func (p *Protection) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *Protection) IsClaimed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.claimed
}
