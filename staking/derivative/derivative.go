// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package derivative issues and redeems tokenized claims against staked
// principal. A Token is the pool-local derivative: it owns the exchange
// rate, the supply totals and the per-holder accounts. Holder balances
// keep the underlying/derivative pairing they were minted with; rate
// changes only affect future conversions.
package derivative

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
	KindReward
	KindPenalty
	KindValidator
)

func (k Kind) String() string {
	switch k {
	case KindStaked:
		return "staked"
	case KindReward:
		return "reward"
	case KindPenalty:
		return "penalty"
	case KindValidator:
		return "validator"
	default:
		return "unknown"
	}
}

// symbolPrefix returns the conventional ticker prefix for the kind.
func (k Kind) symbolPrefix() string {
	switch k {
	case KindStaked:
		return "st"
	case KindReward:
		return "r"
	case KindPenalty:
		return "p"
	case KindValidator:
		return "v"
	default:
		return ""
	}
}

// displayName returns the human-readable name stem for the kind.
func (k Kind) displayName() string {
	switch k {
	case KindStaked:
		return "Staked"
	case KindReward:
		return "Reward"
	case KindPenalty:
		return "Penalty"
	case KindValidator:
		return "Validator"
	default:
		return "Unknown"
	}
}

// Decimals of every derivative token.
const Decimals = 18

var (
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidRate     = errors.New("exchange rate must be positive")
	ErrExceedsBalance  = errors.New("amount exceeds derivative balance")
	ErrNotTransferable = errors.New("derivative is not transferable")
	ErrNotRedeemable   = errors.New("derivative is not redeemable")
	ErrInactive        = errors.New("derivative is inactive")
	ErrUnknownHolder   = errors.New("holder has no derivative account")
	ErrSelfTransfer    = errors.New("transfer to self")
)

// Account is the per-holder derivative balance, paired with the
// underlying amount it was minted against. Guarded by the Token lock.
type Account struct {
	underlying *big.Int
	amount     *big.Int
}

// Token is the pool-local liquid derivative.
type Token struct {
	mu sync.Mutex

	id         string
	poolID     string
	underlying string // underlying token symbol
	kind       Kind

	name   string
	symbol string

	rate uint64 // fixed point, stakes.RateScale

	totalSupply     *big.Int
	totalUnderlying *big.Int

	createdAt time.Time
	updatedAt time.Time

	active       bool
	transferable bool
	redeemable   bool

	accounts map[string]*Account
}

// NewToken creates an active, transferable, redeemable derivative token
// at a 1:1 exchange rate.
func NewToken(id, poolID, underlying string, kind Kind, now time.Time) *Token {
	return &Token{
		id:              id,
		poolID:          poolID,
		underlying:      underlying,
		kind:            kind,
		name:            kind.displayName() + " " + underlying,
		symbol:          kind.symbolPrefix() + underlying,
		rate:            stakes.RateScale,
		totalSupply:     new(big.Int),
		totalUnderlying: new(big.Int),
		createdAt:       now,
		updatedAt:       now,
		active:          true,
		transferable:    true,
		redeemable:      true,
		accounts:        make(map[string]*Account),
	}
}

// Mint converts underlying to derivative units at the current exchange
// rate and credits holder. Account and token totals move atomically.
// It returns the minted derivative amount.
func (t *Token) Mint(holder string, underlying *big.Int, now time.Time) (*big.Int, error) {
	if underlying == nil || underlying.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.active {
		return nil, ErrInactive
	}

	minted := stakes.ToDerivative(underlying, t.rate)
	if minted.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	acc, ok := t.accounts[holder]
	if !ok {
		acc = &Account{underlying: new(big.Int), amount: new(big.Int)}
		t.accounts[holder] = acc
	}
	acc.underlying.Add(acc.underlying, underlying)
	acc.amount.Add(acc.amount, minted)
	t.totalSupply.Add(t.totalSupply, minted)
	t.totalUnderlying.Add(t.totalUnderlying, underlying)
	t.updatedAt = now

	return new(big.Int).Set(minted), nil
}

// Burn destroys amount derivative units of holder, releasing the
// underlying at the current exchange rate. It rejects amounts exceeding
// the holder's balance and returns the released underlying amount.
func (t *Token) Burn(holder string, amount *big.Int, now time.Time) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.active {
		return nil, ErrInactive
	}

	acc, ok := t.accounts[holder]
	if !ok {
		return nil, ErrUnknownHolder
	}
	if amount.Cmp(acc.amount) > 0 {
		return nil, ErrExceedsBalance
	}

	released := stakes.ToUnderlying(amount, t.rate)
	if released.Cmp(acc.underlying) > 0 {
		released = new(big.Int).Set(acc.underlying)
	}

	acc.amount.Sub(acc.amount, amount)
	acc.underlying.Sub(acc.underlying, released)
	t.totalSupply.Sub(t.totalSupply, amount)
	t.totalUnderlying.Sub(t.totalUnderlying, released)
	t.updatedAt = now

	return released, nil
}

// Transfer moves amount derivative units from one holder to another,
// along with the proportional share of the sender's underlying pairing.
func (t *Token) Transfer(from, to string, amount *big.Int, now time.Time) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if from == to {
		return ErrSelfTransfer
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.active {
		return ErrInactive
	}
	if !t.transferable {
		return ErrNotTransferable
	}

	src, ok := t.accounts[from]
	if !ok {
		return ErrUnknownHolder
	}
	if amount.Cmp(src.amount) > 0 {
		return ErrExceedsBalance
	}

	// move the proportional underlying share so both pairings survive
	underlyingShare := stakes.Share(src.underlying, amount, src.amount)

	dst, ok := t.accounts[to]
	if !ok {
		dst = &Account{underlying: new(big.Int), amount: new(big.Int)}
		t.accounts[to] = dst
	}

	src.amount.Sub(src.amount, amount)
	src.underlying.Sub(src.underlying, underlyingShare)
	dst.amount.Add(dst.amount, amount)
	dst.underlying.Add(dst.underlying, underlyingShare)
	t.updatedAt = now
	return nil
}

// Redeem burns amount derivative units for the underlying, requiring
// the token to be redeemable.
func (t *Token) Redeem(holder string, amount *big.Int, now time.Time) (*big.Int, error) {
	t.mu.Lock()
	redeemable := t.redeemable
	t.mu.Unlock()

	if !redeemable {
		return nil, ErrNotRedeemable
	}
	return t.Burn(holder, amount, now)
}

// SetExchangeRate updates the rate used by future mint/burn conversions.
func (t *Token) SetExchangeRate(rate uint64, now time.Time) error {
	if rate == 0 {
		return ErrInvalidRate
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rate = rate
	t.updatedAt = now
	return nil
}

// SetTransferable toggles transferability.
func (t *Token) SetTransferable(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transferable = enabled
}

// SetRedeemable toggles redeemability.
func (t *Token) SetRedeemable(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.redeemable = enabled
}

// SetActive toggles the token.
func (t *Token) SetActive(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = enabled
}

func (t *Token) ID() string { return t.id }

func (t *Token) PoolID() string { return t.poolID }

func (t *Token) Kind() Kind { return t.kind }

func (t *Token) Name() string { return t.name }

func (t *Token) Symbol() string { return t.symbol }

func (t *Token) ExchangeRate() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rate
}

func (t *Token) TotalSupply() *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.totalSupply)
}

func (t *Token) TotalUnderlying() *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.totalUnderlying)
}

// Balance returns the derivative balance of holder.
func (t *Token) Balance(holder string) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if acc, ok := t.accounts[holder]; ok {
		return new(big.Int).Set(acc.amount)
	}
	return new(big.Int)
}

// AccountOf returns the underlying/derivative pairing of holder.
func (t *Token) AccountOf(holder string) (underlying, amount *big.Int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	acc, ok := t.accounts[holder]
	if !ok {
		return nil, nil, ErrUnknownHolder
	}
	return new(big.Int).Set(acc.underlying), new(big.Int).Set(acc.amount), nil
}

// HolderCount returns the number of accounts with history on the token.
func (t *Token) HolderCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.accounts)
}

// SumBalances adds up all holder balances; used to check the supply
// invariant.
func (t *Token) SumBalances() *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()

	sum := new(big.Int)
	for _, acc := range t.accounts {
		sum.Add(sum, acc.amount)
	}
	return sum
}

func (t *Token) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *Token) IsTransferable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transferable
}

func (t *Token) IsRedeemable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.redeemable
}
