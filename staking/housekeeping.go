// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"context"
	"math/big"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stakeforge/lsd/staking/derivative"
	"github.com/stakeforge/lsd/staking/pool"
	"github.com/stakeforge/lsd/staking/position"
	"github.com/stakeforge/lsd/staking/stakes"
	"github.com/stakeforge/lsd/staking/validator"
)

// minHealthyUptime is the uptime percentage below which an active
// validator gets jailed by the performance pass.
const minHealthyUptime = 50

// Housekeep runs one maintenance cycle: validator performance review,
// reward accrual and reconciliation into positions, exchange-rate
// recomputation and unstaking-period completion. Passes take the same
// per-entity locks as interactive operations; overlapping cycles are
// serialized.
func (e *Engine) Housekeep(ctx context.Context) error {
	if err := e.gate(); err != nil {
		return err
	}

	e.hkMu.Lock()
	defer e.hkMu.Unlock()

	start := e.clock.Now()
	elapsed := start.Sub(e.lastHousekeep)

	e.reviewValidators()

	if elapsed > 0 {
		e.accrueRewards(elapsed, start)
	}
	e.reconcileRewards()

	if err := e.updateExchangeRates(ctx, start); err != nil {
		return errors.Wrap(err, "housekeeping")
	}

	completed := e.completeUnstaking(start)

	e.lastHousekeep = start
	e.updateStakedGauge()

	took := e.clock.Now().Sub(start)
	metricHousekeep.Observe(took.Milliseconds())

	hit, miss, rate := e.positions.LookupStats()
	logger.Debug("housekeeping cycle done",
		zap.Duration("took", took),
		zap.Int("unstakingCompleted", completed),
		zap.Int64("lookupHits", hit),
		zap.Int64("lookupMisses", miss),
		zap.Float64("lookupHitRate", rate))
	return nil
}

// reviewValidators jails active validators whose uptime fell below the
// health floor and restores jailed ones that recovered.
func (e *Engine) reviewValidators() {
	e.validators.ForEach(func(v *validator.Validator) bool {
		switch v.Status() {
		case validator.StatusActive:
			if v.Uptime() < minHealthyUptime {
				v.UpdateStatus(validator.StatusJailed)
				logger.Info("validator jailed for low uptime",
					zap.String("operator", v.Operator()), zap.Uint32("uptime", v.Uptime()))
			}
		case validator.StatusJailed:
			if v.Uptime() >= minHealthyUptime {
				v.UpdateStatus(validator.StatusActive)
				logger.Info("validator restored",
					zap.String("operator", v.Operator()))
			}
		}
		return true
	})
}

// accrueRewards estimates the rewards earned by each active pool since
// the previous cycle and distributes them across the member validators,
// withholding the pool performance fee.
func (e *Engine) accrueRewards(elapsed time.Duration, now time.Time) {
	apy := e.Config().RewardAPY
	if apy == 0 {
		return
	}

	e.pools.ForEach(func(p *pool.Pool) bool {
		if !p.IsActive() {
			return true
		}
		total := stakes.Rewards(p.TotalStake(), apy, elapsed)
		if total.Sign() <= 0 {
			return true
		}

		fee := stakes.BasisPoints(total, p.PerformanceFee())
		if _, err := p.DistributeRewards(total, now); err != nil {
			logger.Warn("reward distribution failed",
				zap.String("pool", p.ID()), zap.Error(err))
			return true
		}
		e.stats.AddRewards(new(big.Int).Sub(total, fee))
		e.stats.AddFees(fee)
		return true
	})
}

// reconcileRewards drains each pool's pending validator reward shares
// and pushes them down into the staking positions, proportional to the
// staked amount. Positions are visited in id order so dust lands
// deterministically on the last one.
func (e *Engine) reconcileRewards() {
	e.pools.ForEach(func(p *pool.Pool) bool {
		pending := p.DrainPendingRewards()
		for operator, share := range pending {
			e.creditPositions(p.ID(), operator, share)
		}
		return true
	})
}

func (e *Engine) creditPositions(poolID, operator string, total *big.Int) {
	if total == nil || total.Sign() <= 0 {
		return
	}

	var holders []*position.Position
	stakedSum := new(big.Int)
	e.positions.ForEachByPoolValidator(poolID, operator, func(pos *position.Position) bool {
		staked := pos.StakedAmount()
		if staked.Sign() > 0 {
			holders = append(holders, pos)
			stakedSum.Add(stakedSum, staked)
		}
		return true
	})
	if len(holders) == 0 || stakedSum.Sign() <= 0 {
		return
	}
	sort.Slice(holders, func(i, j int) bool { return holders[i].ID() < holders[j].ID() })

	remaining := new(big.Int).Set(total)
	for i, pos := range holders {
		var share *big.Int
		if i == len(holders)-1 {
			share = remaining
		} else {
			share = stakes.Share(total, pos.StakedAmount(), stakedSum)
		}
		if share.Sign() <= 0 {
			continue
		}
		if err := pos.AddRewards(share); err != nil {
			logger.Warn("reward crediting failed",
				zap.String("position", pos.ID()), zap.Error(err))
			continue
		}
		remaining = new(big.Int).Sub(remaining, share)
	}
}

// updateExchangeRates recomputes each pool's staked-derivative exchange
// rate from the accrued rewards, fanning out across pools.
func (e *Engine) updateExchangeRates(ctx context.Context, now time.Time) error {
	var pools []*pool.Pool
	e.pools.ForEach(func(p *pool.Pool) bool {
		pools = append(pools, p)
		return true
	})

	g, _ := errgroup.WithContext(ctx)
	for _, p := range pools {
		p := p
		g.Go(func() error {
			token, err := e.derivatives.Get(p.ID(), derivative.KindStaked)
			if err != nil {
				return nil // pool without a staked derivative, nothing to do
			}

			supply := token.TotalSupply()
			backing := new(big.Int).Add(token.TotalUnderlying(), p.TotalRewards())
			if supply.Sign() <= 0 || backing.Sign() <= 0 {
				return nil
			}

			rate := new(big.Int).Mul(supply, big.NewInt(stakes.RateScale))
			rate.Quo(rate, backing)
			if !rate.IsUint64() || rate.Uint64() == 0 {
				return nil
			}
			return token.SetExchangeRate(rate.Uint64(), now)
		})
	}
	return g.Wait()
}

// completeUnstaking finalizes positions whose unstaking period elapsed
// and returns how many completed.
func (e *Engine) completeUnstaking(now time.Time) int {
	period := e.Config().UnstakingPeriod.Std()

	completed := 0
	e.positions.ForEach(func(pos *position.Position) bool {
		if pos.CompleteUnstaking(now, period) {
			completed++
		}
		return true
	})
	return completed
}
