// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVotingPower(t *testing.T) {
	assert.Equal(t, uint64(0), VotingPower(nil))
	assert.Equal(t, uint64(0), VotingPower(big.NewInt(999_999)))
	assert.Equal(t, uint64(1), VotingPower(big.NewInt(1_000_000)))
	assert.Equal(t, uint64(2500), VotingPower(big.NewInt(2_500_000_000)))
}

func TestBasisPoints(t *testing.T) {
	assert.Equal(t, "0", BasisPoints(nil, 500).String())
	assert.Equal(t, "0", BasisPoints(big.NewInt(1000), 0).String())
	// 5% of 1000
	assert.Equal(t, "50", BasisPoints(big.NewInt(1000), 500).String())
	// 100%
	assert.Equal(t, "1000", BasisPoints(big.NewInt(1000), FullBasisPoints).String())
}

func TestExchangeConversion(t *testing.T) {
	// rate 1:1
	assert.Equal(t, "1000", ToDerivative(big.NewInt(1000), RateScale).String())
	assert.Equal(t, "1000", ToUnderlying(big.NewInt(1000), RateScale).String())

	// rate 0.5: one underlying mints half a derivative unit
	half := uint64(RateScale / 2)
	assert.Equal(t, "500", ToDerivative(big.NewInt(1000), half).String())
	assert.Equal(t, "2000", ToUnderlying(big.NewInt(1000), half).String())

	// zero rate never divides
	assert.Equal(t, "0", ToUnderlying(big.NewInt(1000), 0).String())
}

func TestExchangeRoundTrip(t *testing.T) {
	for _, rate := range []uint64{RateScale, 900_000, 1_250_000} {
		underlying := big.NewInt(123_456_789)
		d := ToDerivative(underlying, rate)
		back := ToUnderlying(d, rate)

		// truncating division loses at most one scale quantum per conversion
		diff := new(big.Int).Sub(underlying, back)
		assert.LessOrEqual(t, diff.Int64(), int64(2), "rate %d", rate)
		assert.GreaterOrEqual(t, diff.Int64(), int64(0), "rate %d", rate)
	}
}

func TestRewards(t *testing.T) {
	staked := big.NewInt(1_000_000_000)

	// 5% APY over a full year
	full := Rewards(staked, 500, 365*24*time.Hour)
	assert.Equal(t, "50000000", full.String())

	// half a year accrues half of it
	half := Rewards(staked, 500, 365*12*time.Hour)
	assert.Equal(t, "25000000", half.String())

	assert.Equal(t, "0", Rewards(staked, 0, time.Hour).String())
	assert.Equal(t, "0", Rewards(staked, 500, -time.Hour).String())
}

func TestShare(t *testing.T) {
	total := big.NewInt(900)
	assert.Equal(t, "300", Share(total, big.NewInt(1), big.NewInt(3)).String())
	assert.Equal(t, "0", Share(total, big.NewInt(1), big.NewInt(0)).String())
	assert.Equal(t, "900", Share(total, big.NewInt(3), big.NewInt(3)).String())
}
