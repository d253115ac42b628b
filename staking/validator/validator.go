// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package validator tracks a single validator's stake, commission,
// uptime and status. Every Validator guards its own state with an
// exclusive lock; mutations on one validator are linearizable.
package validator

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/stakeforge/lsd/staking/stakes"
)

type Status uint8

const (
	StatusActive Status = iota
	StatusInactive
	StatusSlashed
	StatusJailed
	StatusUnbonding
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusInactive:
		return "inactive"
	case StatusSlashed:
		return "slashed"
	case StatusJailed:
		return "jailed"
	case StatusUnbonding:
		return "unbonding"
	default:
		return "unknown"
	}
}

// Commission defaults, in basis points.
const (
	DefaultCommissionRate      = 1000 // 10%
	DefaultMaxCommissionRate   = 2000 // 20%
	DefaultMaxCommissionChange = 100  // 1% per update
)

const maxMetadataLen = 256

var (
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInsufficientStake    = errors.New("amount exceeds delegated stake")
	ErrCommissionExceedsMax = errors.New("commission rate exceeds maximum")
	ErrCommissionStepTooBig = errors.New("commission rate change exceeds allowed step")
	ErrInvalidUptime        = errors.New("uptime percentage out of range")
	ErrMetadataTooLong      = errors.New("metadata field too long")
)

// Validator is the registry record of one validator.
type Validator struct {
	mu sync.Mutex

	operator string
	moniker  string
	status   Status

	totalStake     *big.Int
	selfStake      *big.Int
	delegatedStake *big.Int

	commissionRate      uint32 // basis points
	maxCommissionRate   uint32
	maxCommissionChange uint32
	commissionUpdatedAt time.Time

	votingPower uint64
	uptime      uint32 // percentage, 0-100

	totalRewards   *big.Int
	totalPenalties *big.Int

	createdAt  time.Time
	lastActive time.Time

	quantumSafe     bool
	description     string
	website         string
	securityContact string
}

// New creates an active validator with default commission limits.
func New(operator, moniker string, now time.Time) *Validator {
	return &Validator{
		operator:            operator,
		moniker:             moniker,
		status:              StatusActive,
		totalStake:          new(big.Int),
		selfStake:           new(big.Int),
		delegatedStake:      new(big.Int),
		commissionRate:      DefaultCommissionRate,
		maxCommissionRate:   DefaultMaxCommissionRate,
		maxCommissionChange: DefaultMaxCommissionChange,
		commissionUpdatedAt: now,
		uptime:              100,
		totalRewards:        new(big.Int),
		totalPenalties:      new(big.Int),
		createdAt:           now,
		lastActive:          now,
	}
}

// SetCommissionRate applies a bounded commission update. The new rate
// must not exceed the maximum and a single update must not move the rate
// by more than the allowed step in either direction.
func (v *Validator) SetCommissionRate(rate uint32, now time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if rate > v.maxCommissionRate {
		return ErrCommissionExceedsMax
	}
	current := v.commissionRate
	var delta uint32
	if rate > current {
		delta = rate - current
	} else {
		delta = current - rate
	}
	if delta > v.maxCommissionChange {
		return ErrCommissionStepTooBig
	}

	v.commissionRate = rate
	v.commissionUpdatedAt = now
	return nil
}

// AddStake credits delegated stake and recomputes voting power.
func (v *Validator) AddStake(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	v.totalStake.Add(v.totalStake, amount)
	v.delegatedStake.Add(v.delegatedStake, amount)
	v.votingPower = stakes.VotingPower(v.totalStake)
	return nil
}

// RemoveStake debits delegated stake. It rejects amounts exceeding the
// currently delegated stake and leaves state untouched in that case.
func (v *Validator) RemoveStake(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	if amount.Cmp(v.delegatedStake) > 0 {
		return ErrInsufficientStake
	}
	v.totalStake.Sub(v.totalStake, amount)
	v.delegatedStake.Sub(v.delegatedStake, amount)
	v.votingPower = stakes.VotingPower(v.totalStake)
	return nil
}

// AddRewards accrues cumulative rewards.
func (v *Validator) AddRewards(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	v.totalRewards.Add(v.totalRewards, amount)
	return nil
}

// AddPenalties accrues cumulative penalties.
func (v *Validator) AddPenalties(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	v.totalPenalties.Add(v.totalPenalties, amount)
	return nil
}

// UpdateUptime records the latest observed uptime percentage.
func (v *Validator) UpdateUptime(pct uint32) error {
	if pct > 100 {
		return ErrInvalidUptime
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	v.uptime = pct
	return nil
}

// UpdateStatus transitions the validator to a new status.
func (v *Validator) UpdateStatus(s Status) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = s
}

// Slash reduces the validator's stake by pctBps basis points, accrues the
// slashed amount as a penalty and marks the validator slashed. It returns
// the amount removed.
func (v *Validator) Slash(pctBps uint32, now time.Time) *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()

	slashed := stakes.BasisPoints(v.totalStake, pctBps)
	if slashed.Sign() <= 0 {
		v.status = StatusSlashed
		return new(big.Int)
	}

	v.totalStake.Sub(v.totalStake, slashed)
	// the delegated portion absorbs the cut first
	if v.delegatedStake.Cmp(slashed) >= 0 {
		v.delegatedStake.Sub(v.delegatedStake, slashed)
	} else {
		v.delegatedStake.SetInt64(0)
	}
	v.totalPenalties.Add(v.totalPenalties, slashed)
	v.votingPower = stakes.VotingPower(v.totalStake)
	v.status = StatusSlashed
	v.lastActive = now

	return slashed
}

// Touch records activity at now.
func (v *Validator) Touch(now time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastActive = now
}

// SetMetadata updates the optional descriptive fields.
func (v *Validator) SetMetadata(description, website, securityContact string) error {
	if len(description) > maxMetadataLen || len(website) > maxMetadataLen || len(securityContact) > maxMetadataLen {
		return ErrMetadataTooLong
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	v.description = description
	v.website = website
	v.securityContact = securityContact
	return nil
}

// SetQuantumSafe toggles the quantum-safe policy flag.
func (v *Validator) SetQuantumSafe(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.quantumSafe = enabled
}

func (v *Validator) Operator() string { return v.operator }

func (v *Validator) Moniker() string { return v.moniker }

func (v *Validator) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

func (v *Validator) IsActive() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status == StatusActive
}

func (v *Validator) TotalStake() *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return new(big.Int).Set(v.totalStake)
}

func (v *Validator) DelegatedStake() *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return new(big.Int).Set(v.delegatedStake)
}

func (v *Validator) CommissionRate() uint32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.commissionRate
}

func (v *Validator) MaxCommissionRate() uint32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.maxCommissionRate
}

func (v *Validator) CommissionUpdatedAt() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.commissionUpdatedAt
}

func (v *Validator) VotingPower() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.votingPower
}

func (v *Validator) Uptime() uint32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.uptime
}

func (v *Validator) TotalRewards() *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return new(big.Int).Set(v.totalRewards)
}

func (v *Validator) TotalPenalties() *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return new(big.Int).Set(v.totalPenalties)
}

func (v *Validator) LastActive() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastActive
}

func (v *Validator) QuantumSafe() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.quantumSafe
}
