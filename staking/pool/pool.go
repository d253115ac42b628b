// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package pool groups validators under shared economic parameters and
// aggregates their delegated stake.
package pool

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/stakeforge/lsd/staking/stakes"
	"github.com/stakeforge/lsd/staking/validator"
)

type Type uint8

const (
	TypePublic Type = iota
	TypePrivate
	TypeInstitutional
	TypeDelegated
	TypeQuantumSafe
)

func (t Type) String() string {
	switch t {
	case TypePublic:
		return "public"
	case TypePrivate:
		return "private"
	case TypeInstitutional:
		return "institutional"
	case TypeDelegated:
		return "delegated"
	case TypeQuantumSafe:
		return "quantum-safe"
	default:
		return "unknown"
	}
}

// Pool defaults.
const (
	DefaultCommissionRate = 500 // 5%
	DefaultPerformanceFee = 200 // 2%
)

var (
	DefaultMinStake = big.NewInt(1_000_000)
	DefaultMaxStake = big.NewInt(1_000_000_000_000)
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidRate       = errors.New("rate exceeds 100%")
	ErrInvalidBounds     = errors.New("stake bounds are inverted or non-positive")
	ErrBelowMinimum      = errors.New("amount below pool minimum stake")
	ErrAboveMaximum      = errors.New("amount above pool maximum stake")
	ErrInsufficientStake = errors.New("amount exceeds pool stake")
	ErrNilValidator      = errors.New("validator is nil")
	ErrMember            = errors.New("validator already member of pool")
	ErrInactive          = errors.New("pool is inactive")
)

// Pool aggregates stake delegated to its member validators. All field
// access goes through the pool's exclusive lock; member validators keep
// their own locks and are only ever locked after the pool.
type Pool struct {
	mu sync.Mutex

	id       string
	name     string
	ptype    Type
	operator string

	totalStake     *big.Int
	totalDelegated *big.Int
	totalRewards   *big.Int
	totalFees      *big.Int

	minStake *big.Int
	maxStake *big.Int

	commissionRate uint32 // basis points
	performanceFee uint32 // basis points

	createdAt time.Time
	updatedAt time.Time

	active      bool
	quantumSafe bool

	description string
	website     string

	members []*validator.Validator

	// reward shares credited by DistributeRewards and not yet pushed
	// down into staking positions; drained by the reconciliation pass.
	pending map[string]*big.Int
}

// New creates an active pool with default bounds and fees.
func New(id, name string, ptype Type, operator string, now time.Time) *Pool {
	return &Pool{
		id:             id,
		name:           name,
		ptype:          ptype,
		operator:       operator,
		totalStake:     new(big.Int),
		totalDelegated: new(big.Int),
		totalRewards:   new(big.Int),
		totalFees:      new(big.Int),
		minStake:       new(big.Int).Set(DefaultMinStake),
		maxStake:       new(big.Int).Set(DefaultMaxStake),
		commissionRate: DefaultCommissionRate,
		performanceFee: DefaultPerformanceFee,
		createdAt:      now,
		updatedAt:      now,
		active:         true,
		quantumSafe:    ptype == TypeQuantumSafe,
		pending:        make(map[string]*big.Int),
	}
}

// AddValidator appends a validator to the member list. A validator may
// be a member of several pools.
func (p *Pool) AddValidator(v *validator.Validator, now time.Time) error {
	if v == nil {
		return ErrNilValidator
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, m := range p.members {
		if m.Operator() == v.Operator() {
			return ErrMember
		}
	}
	p.members = append(p.members, v)
	p.updatedAt = now
	return nil
}

// SetCommissionRate updates the pool commission rate.
func (p *Pool) SetCommissionRate(bps uint32) error {
	if bps > stakes.FullBasisPoints {
		return ErrInvalidRate
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commissionRate = bps
	return nil
}

// SetPerformanceFee updates the pool performance fee.
func (p *Pool) SetPerformanceFee(bps uint32) error {
	if bps > stakes.FullBasisPoints {
		return ErrInvalidRate
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.performanceFee = bps
	return nil
}

// SetStakeBounds updates the per-operation stake bounds.
func (p *Pool) SetStakeBounds(minStake, maxStake *big.Int) error {
	if minStake == nil || maxStake == nil || minStake.Sign() <= 0 || minStake.Cmp(maxStake) > 0 {
		return ErrInvalidBounds
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minStake = new(big.Int).Set(minStake)
	p.maxStake = new(big.Int).Set(maxStake)
	return nil
}

// CheckStakeBounds rejects amounts outside [min, max].
func (p *Pool) CheckStakeBounds(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if amount.Cmp(p.minStake) < 0 {
		return ErrBelowMinimum
	}
	if amount.Cmp(p.maxStake) > 0 {
		return ErrAboveMaximum
	}
	return nil
}

// AddStake credits delegated stake to the pool aggregates.
func (p *Pool) AddStake(amount *big.Int, now time.Time) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.active {
		return ErrInactive
	}
	p.totalStake.Add(p.totalStake, amount)
	p.totalDelegated.Add(p.totalDelegated, amount)
	p.updatedAt = now
	return nil
}

// RemoveStake debits delegated stake from the pool aggregates.
func (p *Pool) RemoveStake(amount *big.Int, now time.Time) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if amount.Cmp(p.totalDelegated) > 0 {
		return ErrInsufficientStake
	}
	p.totalStake.Sub(p.totalStake, amount)
	p.totalDelegated.Sub(p.totalDelegated, amount)
	p.updatedAt = now
	return nil
}

// ApplySlash reduces the pool aggregates after a validator slashing
// event. Unlike RemoveStake it is not subject to the stake bounds and
// clamps at zero.
func (p *Pool) ApplySlash(amount *big.Int, now time.Time) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.totalStake.Cmp(amount) <= 0 {
		p.totalStake.SetInt64(0)
	} else {
		p.totalStake.Sub(p.totalStake, amount)
	}
	if p.totalDelegated.Cmp(amount) <= 0 {
		p.totalDelegated.SetInt64(0)
	} else {
		p.totalDelegated.Sub(p.totalDelegated, amount)
	}
	p.updatedAt = now
}

// DistributeRewards withholds the performance fee from total and splits
// the remainder across member validators proportionally to stake. Shares
// are credited to the validators and retained as pending until the
// reconciliation pass pushes them into staking positions. The returned
// map holds the share per validator operator.
func (p *Pool) DistributeRewards(total *big.Int, now time.Time) (map[string]*big.Int, error) {
	if total == nil || total.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.active {
		return nil, ErrInactive
	}

	fee := stakes.BasisPoints(total, p.performanceFee)
	distributable := new(big.Int).Sub(total, fee)

	memberStake := new(big.Int)
	for _, m := range p.members {
		memberStake.Add(memberStake, m.TotalStake())
	}

	shares := make(map[string]*big.Int, len(p.members))
	if memberStake.Sign() > 0 && distributable.Sign() > 0 {
		remaining := new(big.Int).Set(distributable)
		for i, m := range p.members {
			var share *big.Int
			if i == len(p.members)-1 {
				share = new(big.Int).Set(remaining) // last member absorbs rounding dust
			} else {
				share = stakes.Share(distributable, m.TotalStake(), memberStake)
			}
			if share.Sign() <= 0 {
				continue
			}
			remaining.Sub(remaining, share)
			if err := m.AddRewards(share); err != nil {
				return nil, err
			}
			shares[m.Operator()] = share

			pending, ok := p.pending[m.Operator()]
			if !ok {
				pending = new(big.Int)
				p.pending[m.Operator()] = pending
			}
			pending.Add(pending, share)
		}
	}

	p.totalRewards.Add(p.totalRewards, distributable)
	p.totalFees.Add(p.totalFees, fee)
	p.updatedAt = now
	return shares, nil
}

// DrainPendingRewards hands the undistributed per-validator reward
// shares to the caller and resets the pending book.
func (p *Pool) DrainPendingRewards() map[string]*big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pending) == 0 {
		return nil
	}
	drained := p.pending
	p.pending = make(map[string]*big.Int)
	return drained
}

// Activate enables stake operations on the pool.
func (p *Pool) Activate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = true
}

// Deactivate disables stake operations on the pool.
func (p *Pool) Deactivate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = false
}

// SetMetadata updates the optional descriptive fields.
func (p *Pool) SetMetadata(description, website string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.description = description
	p.website = website
}

func (p *Pool) ID() string { return p.id }

func (p *Pool) Name() string { return p.name }

func (p *Pool) Type() Type { return p.ptype }

func (p *Pool) Operator() string { return p.operator }

func (p *Pool) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *Pool) TotalStake() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.totalStake)
}

func (p *Pool) TotalDelegated() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.totalDelegated)
}

func (p *Pool) TotalRewards() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.totalRewards)
}

func (p *Pool) TotalFees() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.totalFees)
}

func (p *Pool) CommissionRate() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.commissionRate
}

func (p *Pool) PerformanceFee() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.performanceFee
}

// StakeBounds returns the [min, max] per-operation bounds.
func (p *Pool) StakeBounds() (*big.Int, *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.minStake), new(big.Int).Set(p.maxStake)
}

// Validators returns a copy of the ordered member list.
func (p *Pool) Validators() []*validator.Validator {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*validator.Validator, len(p.members))
	copy(out, p.members)
	return out
}

func (p *Pool) ValidatorCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.members)
}

func (p *Pool) QuantumSafe() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quantumSafe
}
