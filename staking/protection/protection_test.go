// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package protection

import (
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakeforge/lsd/staking/ident"
)

func newTestProtection(t *testing.T, amount int64) *Protection {
	t.Helper()
	return New("prot_test_1", "alice", "val_test_1", big.NewInt(amount), time.Unix(1700000000, 0))
}

func TestClaimPaysMinOfProtectedAndSlashed(t *testing.T) {
	now := time.Unix(1700000000, 0)

	p := newTestProtection(t, 500)
	require.NoError(t, p.Activate(now, 30*24*time.Hour))
	require.NoError(t, p.RecordSlashing(big.NewInt(300), ReasonDowntime, now))

	payout, err := p.Claim(now)
	require.NoError(t, err)
	assert.Equal(t, int64(300), payout.Int64())
	assert.True(t, p.IsClaimed())
	assert.False(t, p.IsActive())

	_, err = p.Claim(now)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
}

func TestClaimCappedAtProtected(t *testing.T) {
	now := time.Unix(1700000000, 0)

	p := newTestProtection(t, 500)
	require.NoError(t, p.Activate(now, time.Hour))
	require.NoError(t, p.RecordSlashing(big.NewInt(800), ReasonMalicious, now))

	payout, err := p.Claim(now)
	require.NoError(t, err)
	assert.Equal(t, int64(500), payout.Int64())
	assert.Equal(t, ReasonMalicious, p.Reason())
}

func TestClaimRejections(t *testing.T) {
	now := time.Unix(1700000000, 0)

	p := newTestProtection(t, 500)
	_, err := p.Claim(now)
	assert.ErrorIs(t, err, ErrNotActive)

	require.NoError(t, p.Activate(now, time.Hour))
	_, err = p.Claim(now)
	assert.ErrorIs(t, err, ErrNothingSlashed)

	require.NoError(t, p.RecordSlashing(big.NewInt(100), ReasonTechnical, now))
	_, err = p.Claim(now.Add(2 * time.Hour))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestRecordSlashingWindow(t *testing.T) {
	now := time.Unix(1700000000, 0)

	p := newTestProtection(t, 500)
	err := p.RecordSlashing(big.NewInt(100), ReasonDowntime, now)
	assert.ErrorIs(t, err, ErrNotActive)

	require.NoError(t, p.Activate(now, time.Hour))
	err = p.RecordSlashing(big.NewInt(100), ReasonDowntime, now.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrExpired)

	require.NoError(t, p.RecordSlashing(big.NewInt(100), ReasonDowntime, now))
	require.NoError(t, p.RecordSlashing(big.NewInt(50), ReasonDoubleSign, now))
	assert.Equal(t, int64(150), p.Slashed().Int64())
	assert.Equal(t, ReasonDoubleSign, p.Reason())
}

func TestConcurrentClaimSingleWinner(t *testing.T) {
	now := time.Unix(1700000000, 0)

	p := newTestProtection(t, 500)
	require.NoError(t, p.Activate(now, time.Hour))
	require.NoError(t, p.RecordSlashing(big.NewInt(300), ReasonDowntime, now))

	var wins int64
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if payout, err := p.Claim(now); err == nil {
				assert.Equal(t, int64(300), payout.Int64())
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), wins)
}

func TestFundPurchase(t *testing.T) {
	fund := NewFund(2)
	now := time.Unix(1700000000, 0)

	p1, err := fund.Purchase("alice", "val_test_1", big.NewInt(500), now)
	require.NoError(t, err)

	got, err := fund.Get(p1.ID())
	require.NoError(t, err)
	assert.Same(t, p1, got)

	_, err = fund.Purchase("", "val_test_1", big.NewInt(500), now)
	assert.ErrorIs(t, err, ErrInvalidStaker)

	_, err = fund.Purchase(strings.Repeat("x", ident.MaxLen+1), "val_test_1", big.NewInt(500), now)
	assert.ErrorIs(t, err, ErrInvalidStaker)

	_, err = fund.Purchase("bob", "val_test_1", big.NewInt(0), now)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = fund.Purchase("bob", "val_test_2", big.NewInt(100), now)
	require.NoError(t, err)

	_, err = fund.Purchase("carol", "val_test_1", big.NewInt(100), now)
	assert.ErrorIs(t, err, ErrCapacity)

	_, err = fund.Get("prot_unknown")
	assert.ErrorIs(t, err, ErrNotFound)

	covering := 0
	fund.ForEachByValidator("val_test_1", func(*Protection) bool {
		covering++
		return true
	})
	assert.Equal(t, 1, covering)
}
