// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validator

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Unix(1700000000, 0)

func TestNewDefaults(t *testing.T) {
	v := New("0xoperator", "node-1", t0)

	assert.Equal(t, StatusActive, v.Status())
	assert.True(t, v.IsActive())
	assert.Equal(t, uint32(DefaultCommissionRate), v.CommissionRate())
	assert.Equal(t, uint32(100), v.Uptime())
	assert.Equal(t, "0", v.TotalStake().String())
	assert.Equal(t, uint64(0), v.VotingPower())
}

func TestSetCommissionRate(t *testing.T) {
	tests := []struct {
		name    string
		rate    uint32
		wantErr error
	}{
		{"within step up", 1100, nil},
		{"within step down", 900, nil},
		{"exceeds step", 1300, ErrCommissionStepTooBig},
		{"exceeds max", 2100, ErrCommissionExceedsMax},
		{"unchanged", 1000, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New("0xop", "node", t0)
			err := v.SetCommissionRate(tt.rate, t0.Add(time.Hour))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				// rejected updates leave the rate untouched
				assert.Equal(t, uint32(1000), v.CommissionRate())
				assert.Equal(t, t0, v.CommissionUpdatedAt())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.rate, v.CommissionRate())
			assert.Equal(t, t0.Add(time.Hour), v.CommissionUpdatedAt())
		})
	}
}

func TestCommissionBoundHolds(t *testing.T) {
	v := New("0xop", "node", t0)

	// walk upwards in maximal steps; the rate must never pass the max
	for i := 0; i < 20; i++ {
		_ = v.SetCommissionRate(v.CommissionRate()+DefaultMaxCommissionChange, t0.Add(time.Duration(i)*time.Hour))
	}
	assert.Equal(t, uint32(DefaultMaxCommissionRate), v.CommissionRate())
}

func TestAddRemoveStake(t *testing.T) {
	v := New("0xop", "node", t0)

	require.NoError(t, v.AddStake(big.NewInt(5_000_000)))
	assert.Equal(t, "5000000", v.TotalStake().String())
	assert.Equal(t, "5000000", v.DelegatedStake().String())
	assert.Equal(t, uint64(5), v.VotingPower())

	require.NoError(t, v.RemoveStake(big.NewInt(4_000_000)))
	assert.Equal(t, "1000000", v.TotalStake().String())
	assert.Equal(t, uint64(1), v.VotingPower())

	err := v.RemoveStake(big.NewInt(2_000_000))
	require.ErrorIs(t, err, ErrInsufficientStake)
	assert.Equal(t, "1000000", v.TotalStake().String())

	require.ErrorIs(t, v.AddStake(nil), ErrInvalidAmount)
	require.ErrorIs(t, v.AddStake(big.NewInt(0)), ErrInvalidAmount)
	require.ErrorIs(t, v.RemoveStake(big.NewInt(-5)), ErrInvalidAmount)
}

func TestRewardsAndPenalties(t *testing.T) {
	v := New("0xop", "node", t0)

	require.NoError(t, v.AddRewards(big.NewInt(100)))
	require.NoError(t, v.AddRewards(big.NewInt(50)))
	require.NoError(t, v.AddPenalties(big.NewInt(30)))

	assert.Equal(t, "150", v.TotalRewards().String())
	assert.Equal(t, "30", v.TotalPenalties().String())
}

func TestUpdateUptime(t *testing.T) {
	v := New("0xop", "node", t0)

	require.NoError(t, v.UpdateUptime(97))
	assert.Equal(t, uint32(97), v.Uptime())
	require.ErrorIs(t, v.UpdateUptime(101), ErrInvalidUptime)
}

func TestSlash(t *testing.T) {
	v := New("0xop", "node", t0)
	require.NoError(t, v.AddStake(big.NewInt(10_000_000)))

	slashed := v.Slash(500, t0.Add(time.Hour)) // 5%
	assert.Equal(t, "500000", slashed.String())
	assert.Equal(t, "9500000", v.TotalStake().String())
	assert.Equal(t, "500000", v.TotalPenalties().String())
	assert.Equal(t, StatusSlashed, v.Status())
	assert.False(t, v.IsActive())
}

func TestConcurrentStakeMutations(t *testing.T) {
	v := New("0xop", "node", t0)

	const workers = 16
	const rounds = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				require.NoError(t, v.AddStake(big.NewInt(10)))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(workers*rounds*10), v.TotalStake().Int64())
}
