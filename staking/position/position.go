// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package position keeps the per (staker, pool, validator) stake record
// and drives its lifecycle:
//
//	Staked -> Unstaking -> Unstaked
//
// with Slashed reachable from Staked or Unstaking as a terminal state
// for the affected stake.
package position

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/stakeforge/lsd/staking/stakes"
)

type Kind uint8

const (
	KindStaked Kind = iota
	KindUnstaking
	KindUnstaked
	KindSlashed
)

func (k Kind) String() string {
	switch k {
	case KindStaked:
		return "staked"
	case KindUnstaking:
		return "unstaking"
	case KindUnstaked:
		return "unstaked"
	case KindSlashed:
		return "slashed"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrExceedsStaked   = errors.New("amount exceeds staked amount")
	ErrPositionSlashed = errors.New("position has been slashed")
	ErrNothingToClaim  = errors.New("no rewards to claim")
)

// Position is a staker's individual record against one pool/validator.
type Position struct {
	mu sync.Mutex

	id        string
	staker    string
	poolID    string
	validator string

	kind Kind

	staked       *big.Int
	unstaking    *big.Int
	withdrawable *big.Int
	rewards      *big.Int
	penalties    *big.Int

	stakedAt           time.Time
	unstakingStarted   time.Time
	unstakingCompleted time.Time
	lastClaim          time.Time

	active      bool
	quantumSafe bool
}

// New creates an empty position record.
func New(id, staker, poolID, validatorAddr string) *Position {
	return &Position{
		id:           id,
		staker:       staker,
		poolID:       poolID,
		validator:    validatorAddr,
		kind:         KindStaked,
		staked:       new(big.Int),
		unstaking:    new(big.Int),
		withdrawable: new(big.Int),
		rewards:      new(big.Int),
		penalties:    new(big.Int),
	}
}

// Stake credits amount to the staked balance. Staking a fully unstaked
// position returns it to the staked state; a slashed position is terminal.
func (p *Position) Stake(amount *big.Int, now time.Time) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.kind == KindSlashed {
		return ErrPositionSlashed
	}

	p.staked.Add(p.staked, amount)
	p.stakedAt = now
	p.active = true
	if p.kind == KindUnstaked {
		p.kind = KindStaked
	}
	return nil
}

// Unstake moves amount from the staked to the unstaking balance and
// starts the unstaking timer. It rejects amounts exceeding the staked
// balance and leaves state unchanged in that case.
func (p *Position) Unstake(amount *big.Int, now time.Time) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.kind == KindSlashed {
		return ErrPositionSlashed
	}
	if amount.Cmp(p.staked) > 0 {
		return ErrExceedsStaked
	}

	p.staked.Sub(p.staked, amount)
	p.unstaking.Add(p.unstaking, amount)
	p.unstakingStarted = now
	p.kind = KindUnstaking
	return nil
}

// CompleteUnstaking finishes the unstaking once period has elapsed since
// it started, moving the unstaking balance to withdrawable. The position
// returns to Staked while stake remains, otherwise it becomes Unstaked.
// It reports whether a transition happened.
func (p *Position) CompleteUnstaking(now time.Time, period time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.kind != KindUnstaking || p.unstaking.Sign() == 0 {
		return false
	}
	if now.Sub(p.unstakingStarted) < period {
		return false
	}

	p.withdrawable.Add(p.withdrawable, p.unstaking)
	p.unstaking.SetInt64(0)
	p.unstakingCompleted = now
	if p.staked.Sign() > 0 {
		p.kind = KindStaked
	} else {
		p.kind = KindUnstaked
		p.active = false
	}
	return true
}

// ClaimRewards returns the accrued rewards and resets them.
func (p *Position) ClaimRewards(now time.Time) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rewards.Sign() == 0 {
		return nil, ErrNothingToClaim
	}
	claimed := new(big.Int).Set(p.rewards)
	p.rewards.SetInt64(0)
	p.lastClaim = now
	return claimed, nil
}

// AddRewards accrues rewards onto the position.
func (p *Position) AddRewards(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.rewards.Add(p.rewards, amount)
	return nil
}

// AddPenalties accrues penalties onto the position.
func (p *Position) AddPenalties(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.penalties.Add(p.penalties, amount)
	return nil
}

// Slash cuts pctBps from the staked and unstaking balances, books the
// cut as a penalty and transitions the position to the terminal Slashed
// state. Positions already unstaked or slashed are unaffected. It
// returns the slashed amount.
func (p *Position) Slash(pctBps uint32) *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.kind != KindStaked && p.kind != KindUnstaking {
		return new(big.Int)
	}

	cutStaked := stakes.BasisPoints(p.staked, pctBps)
	cutUnstaking := stakes.BasisPoints(p.unstaking, pctBps)
	total := new(big.Int).Add(cutStaked, cutUnstaking)
	if total.Sign() == 0 {
		return total
	}

	p.staked.Sub(p.staked, cutStaked)
	p.unstaking.Sub(p.unstaking, cutUnstaking)
	p.penalties.Add(p.penalties, total)
	p.kind = KindSlashed
	p.active = false
	return total
}

func (p *Position) ID() string { return p.id }

func (p *Position) Staker() string { return p.staker }

func (p *Position) PoolID() string { return p.poolID }

func (p *Position) Validator() string { return p.validator }

func (p *Position) Kind() Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kind
}

func (p *Position) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *Position) StakedAmount() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.staked)
}

func (p *Position) UnstakingAmount() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.unstaking)
}

func (p *Position) WithdrawableAmount() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.withdrawable)
}

func (p *Position) RewardsEarned() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.rewards)
}

func (p *Position) PenaltiesIncurred() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.penalties)
}

func (p *Position) UnstakingStarted() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unstakingStarted
}

func (p *Position) UnstakingCompleted() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unstakingCompleted
}

// SetQuantumSafe toggles the quantum-safe policy flag.
func (p *Position) SetQuantumSafe(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quantumSafe = enabled
}

func (p *Position) QuantumSafe() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quantumSafe
}
