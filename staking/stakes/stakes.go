// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stakes holds the fixed-point arithmetic shared by the staking
// components: basis-point rates, exchange-rate conversion and reward math.
package stakes

import (
	"math/big"
	"time"
)

const (
	// RateScale is the fixed-point scale of exchange rates. A rate equal
	// to RateScale converts 1:1.
	RateScale = 1_000_000

	// FullBasisPoints represents 100% in basis points.
	FullBasisPoints = 10_000

	// VotingPowerUnit is the amount of stake granting one unit of voting power.
	VotingPowerUnit = 1_000_000

	secondsPerYear = 365 * 24 * 3600
)

// VotingPower derives voting power from total stake.
func VotingPower(totalStake *big.Int) uint64 {
	if totalStake == nil || totalStake.Sign() <= 0 {
		return 0
	}
	p := new(big.Int).Quo(totalStake, big.NewInt(VotingPowerUnit))
	if !p.IsUint64() {
		return ^uint64(0)
	}
	return p.Uint64()
}

// BasisPoints applies a basis-point fraction to amount.
func BasisPoints(amount *big.Int, bps uint32) *big.Int {
	if amount == nil || amount.Sign() <= 0 || bps == 0 {
		return new(big.Int)
	}
	r := new(big.Int).Mul(amount, big.NewInt(int64(bps)))
	return r.Quo(r, big.NewInt(FullBasisPoints))
}

// ToDerivative converts an underlying amount to derivative units at rate.
func ToDerivative(underlying *big.Int, rate uint64) *big.Int {
	if underlying == nil || underlying.Sign() <= 0 || rate == 0 {
		return new(big.Int)
	}
	d := new(big.Int).Mul(underlying, new(big.Int).SetUint64(rate))
	return d.Quo(d, big.NewInt(RateScale))
}

// ToUnderlying converts a derivative amount back to underlying units at rate.
func ToUnderlying(derivative *big.Int, rate uint64) *big.Int {
	if derivative == nil || derivative.Sign() <= 0 || rate == 0 {
		return new(big.Int)
	}
	u := new(big.Int).Mul(derivative, big.NewInt(RateScale))
	return u.Quo(u, new(big.Int).SetUint64(rate))
}

// Rewards estimates the reward accrued by staked over duration at an
// annual yield given in basis points.
func Rewards(staked *big.Int, apyBps uint32, duration time.Duration) *big.Int {
	if staked == nil || staked.Sign() <= 0 || apyBps == 0 || duration <= 0 {
		return new(big.Int)
	}
	r := new(big.Int).Mul(staked, big.NewInt(int64(apyBps)))
	r.Mul(r, big.NewInt(int64(duration/time.Second)))
	return r.Quo(r, big.NewInt(int64(secondsPerYear)*FullBasisPoints))
}

// Share splits total proportionally: total * part / whole. A zero or
// undersized whole yields zero.
func Share(total, part, whole *big.Int) *big.Int {
	if total == nil || part == nil || whole == nil ||
		total.Sign() <= 0 || part.Sign() <= 0 || whole.Sign() <= 0 {
		return new(big.Int)
	}
	s := new(big.Int).Mul(total, part)
	return s.Quo(s, whole)
}
