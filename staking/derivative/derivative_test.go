// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package derivative

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakeforge/lsd/staking/stakes"
)

func newTestToken(t *testing.T, kind Kind) *Token {
	t.Helper()
	return NewToken("deriv_test_1", "pool_test_1", "FORGE", kind, time.Unix(1700000000, 0))
}

func TestTokenNaming(t *testing.T) {
	tests := []struct {
		kind   Kind
		name   string
		symbol string
	}{
		{KindStaked, "Staked FORGE", "stFORGE"},
		{KindReward, "Reward FORGE", "rFORGE"},
		{KindPenalty, "Penalty FORGE", "pFORGE"},
		{KindValidator, "Validator FORGE", "vFORGE"},
	}

	for _, tt := range tests {
		tok := newTestToken(t, tt.kind)
		assert.Equal(t, tt.name, tok.Name())
		assert.Equal(t, tt.symbol, tok.Symbol())
	}
}

func TestMintBurnAtPar(t *testing.T) {
	tok := newTestToken(t, KindStaked)
	now := time.Unix(1700000100, 0)

	minted, err := tok.Mint("alice", big.NewInt(1000), now)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), minted.Int64())
	assert.Equal(t, int64(1000), tok.TotalSupply().Int64())
	assert.Equal(t, int64(1000), tok.TotalUnderlying().Int64())
	assert.Equal(t, int64(1000), tok.Balance("alice").Int64())

	released, err := tok.Burn("alice", big.NewInt(400), now)
	require.NoError(t, err)
	assert.Equal(t, int64(400), released.Int64())
	assert.Equal(t, int64(600), tok.TotalSupply().Int64())
	assert.Equal(t, int64(600), tok.Balance("alice").Int64())
}

func TestMintAtPremiumRate(t *testing.T) {
	tok := newTestToken(t, KindStaked)
	now := time.Unix(1700000100, 0)

	// rate 0.8: each derivative unit is worth 1.25 underlying
	require.NoError(t, tok.SetExchangeRate(stakes.RateScale*4/5, now))

	minted, err := tok.Mint("alice", big.NewInt(1000), now)
	require.NoError(t, err)
	assert.Equal(t, int64(800), minted.Int64())
	assert.Equal(t, int64(1000), tok.TotalUnderlying().Int64())

	released, err := tok.Burn("alice", big.NewInt(800), now)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), released.Int64())
	assert.Zero(t, tok.TotalSupply().Sign())
	assert.Zero(t, tok.TotalUnderlying().Sign())
}

func TestBurnRejections(t *testing.T) {
	tok := newTestToken(t, KindStaked)
	now := time.Unix(1700000100, 0)

	_, err := tok.Burn("nobody", big.NewInt(10), now)
	assert.ErrorIs(t, err, ErrUnknownHolder)

	_, err = tok.Mint("alice", big.NewInt(100), now)
	require.NoError(t, err)

	_, err = tok.Burn("alice", big.NewInt(101), now)
	assert.ErrorIs(t, err, ErrExceedsBalance)

	_, err = tok.Burn("alice", big.NewInt(0), now)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	tok.SetActive(false)
	_, err = tok.Burn("alice", big.NewInt(10), now)
	assert.ErrorIs(t, err, ErrInactive)
}

func TestTransfer(t *testing.T) {
	tok := newTestToken(t, KindStaked)
	now := time.Unix(1700000100, 0)

	_, err := tok.Mint("alice", big.NewInt(1000), now)
	require.NoError(t, err)

	require.NoError(t, tok.Transfer("alice", "bob", big.NewInt(250), now))
	assert.Equal(t, int64(750), tok.Balance("alice").Int64())
	assert.Equal(t, int64(250), tok.Balance("bob").Int64())

	// underlying pairing moved proportionally
	under, amount, err := tok.AccountOf("bob")
	require.NoError(t, err)
	assert.Equal(t, int64(250), under.Int64())
	assert.Equal(t, int64(250), amount.Int64())

	// supply unchanged by transfers
	assert.Equal(t, int64(1000), tok.TotalSupply().Int64())

	assert.ErrorIs(t, tok.Transfer("alice", "alice", big.NewInt(1), now), ErrSelfTransfer)
	assert.ErrorIs(t, tok.Transfer("alice", "bob", big.NewInt(751), now), ErrExceedsBalance)
	assert.ErrorIs(t, tok.Transfer("carol", "bob", big.NewInt(1), now), ErrUnknownHolder)

	tok.SetTransferable(false)
	assert.ErrorIs(t, tok.Transfer("alice", "bob", big.NewInt(1), now), ErrNotTransferable)
}

func TestRedeemGate(t *testing.T) {
	tok := newTestToken(t, KindStaked)
	now := time.Unix(1700000100, 0)

	_, err := tok.Mint("alice", big.NewInt(100), now)
	require.NoError(t, err)

	tok.SetRedeemable(false)
	_, err = tok.Redeem("alice", big.NewInt(50), now)
	assert.ErrorIs(t, err, ErrNotRedeemable)

	tok.SetRedeemable(true)
	released, err := tok.Redeem("alice", big.NewInt(50), now)
	require.NoError(t, err)
	assert.Equal(t, int64(50), released.Int64())
}

func TestSupplyInvariantUnderConcurrency(t *testing.T) {
	tok := newTestToken(t, KindStaked)
	now := time.Unix(1700000100, 0)

	var wg sync.WaitGroup
	holders := []string{"a", "b", "c", "d"}
	for _, h := range holders {
		wg.Add(1)
		go func(holder string) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if _, err := tok.Mint(holder, big.NewInt(10), now); err != nil {
					t.Error(err)
					return
				}
				if _, err := tok.Burn(holder, big.NewInt(3), now); err != nil {
					t.Error(err)
					return
				}
			}
		}(h)
	}
	wg.Wait()

	assert.Zero(t, tok.TotalSupply().Cmp(tok.SumBalances()))
	assert.Equal(t, int64(4*100*7), tok.TotalSupply().Int64())
}

func TestServiceIssue(t *testing.T) {
	svc := NewService(2)
	now := time.Unix(1700000100, 0)

	tok, err := svc.Issue("pool_test_1", "FORGE", KindStaked, now)
	require.NoError(t, err)
	assert.Equal(t, "pool_test_1", tok.PoolID())

	_, err = svc.Issue("pool_test_1", "FORGE", KindStaked, now)
	assert.ErrorIs(t, err, ErrExists)

	_, err = svc.Issue("", "FORGE", KindStaked, now)
	assert.ErrorIs(t, err, ErrInvalidPool)

	_, err = svc.Issue("pool_test_1", "", KindReward, now)
	assert.ErrorIs(t, err, ErrInvalidUnderlying)

	_, err = svc.Issue("pool_test_1", "FORGE", KindReward, now)
	require.NoError(t, err)
	assert.Equal(t, 2, svc.Count())

	_, err = svc.Issue("pool_test_2", "FORGE", KindStaked, now)
	assert.ErrorIs(t, err, ErrCapacity)

	got, err := svc.Get("pool_test_1", KindStaked)
	require.NoError(t, err)
	assert.Same(t, tok, got)

	byID, err := svc.GetByID(tok.ID())
	require.NoError(t, err)
	assert.Same(t, tok, byID)

	_, err = svc.Get("pool_test_9", KindStaked)
	assert.ErrorIs(t, err, ErrNotFound)

	visited := 0
	svc.ForEach(func(*Token) bool {
		visited++
		return true
	})
	assert.Equal(t, 2, visited)
}
