// Copyright (c) 2025 The StakeForge developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking wires the validator registry, pool manager, position
// ledger, derivative minter and protection fund into one engine. The
// engine owns the system config and the clock; all cross-component
// sequencing happens here.
package staking

import (
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stakeforge/lsd/metrics"
	"github.com/stakeforge/lsd/staking/derivative"
	"github.com/stakeforge/lsd/staking/pool"
	"github.com/stakeforge/lsd/staking/position"
	"github.com/stakeforge/lsd/staking/protection"
	"github.com/stakeforge/lsd/staking/stakes"
	"github.com/stakeforge/lsd/staking/stats"
	"github.com/stakeforge/lsd/staking/validator"
)

var (
	ErrEngineInactive = errors.New("engine is inactive")
	ErrNotMember      = errors.New("validator is not a member of pool")
	ErrBelowMinStake  = errors.New("amount below system minimum stake")
	ErrAboveMaxStake  = errors.New("amount above system maximum stake")
	ErrNoDerivative   = errors.New("holder derivative balance too low to unstake")
)

var (
	metricOpCount     = metrics.CounterVecMeter("operation_count", []string{"op"})
	metricTotalStaked = metrics.GaugeMeter("total_staked")
	metricHousekeep   = metrics.HistogramMeter("housekeeping_duration_ms", metrics.BucketDuration10s)
)

// Underlying is the symbol derivative tokens are issued against.
const Underlying = "FORGE"

// Engine is the system orchestrator.
type Engine struct {
	mu     sync.RWMutex // guards cfg and active
	cfg    Config
	active bool

	clock clock.Clock

	validators  *validator.Service
	pools       *pool.Service
	positions   *position.Ledger
	derivatives *derivative.Service
	protections *protection.Fund
	stats       *stats.Service

	hkMu          sync.Mutex // serializes housekeeping passes
	lastHousekeep time.Time
}

// NewEngine builds an active engine from cfg. A nil clk selects the
// wall clock.
func NewEngine(cfg Config, clk clock.Clock) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Engine{
		cfg:           cfg,
		active:        true,
		clock:         clk,
		validators:    validator.NewService(cfg.MaxValidators),
		pools:         pool.NewService(cfg.MaxPools),
		positions:     position.NewLedger(cfg.MaxPositions),
		derivatives:   derivative.NewService(cfg.MaxDerivatives),
		protections:   protection.NewFund(cfg.MaxProtections),
		stats:         stats.NewService(),
		lastHousekeep: clk.Now(),
	}, nil
}

// Activate opens the engine for operations.
func (e *Engine) Activate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = true
}

// Deactivate rejects further operations until reactivated. In-flight
// operations complete normally.
func (e *Engine) Deactivate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = false
}

func (e *Engine) IsActive() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.active
}

// Config returns a copy of the current system parameters.
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// SetConfig replaces the system parameters. Capacity limits of already
// constructed services are unaffected; the remaining parameters apply
// to subsequent operations only.
func (e *Engine) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
	logger.Info("config updated",
		zap.Uint64("minStake", cfg.MinStake),
		zap.Uint64("maxStake", cfg.MaxStake),
		zap.Duration("unstakingPeriod", cfg.UnstakingPeriod.Std()),
		zap.Uint32("slashingPercentage", cfg.SlashingPercentage))
	return nil
}

func (e *Engine) gate() error {
	if !e.IsActive() {
		return ErrEngineInactive
	}
	return nil
}

// RegisterValidator adds a validator to the registry.
func (e *Engine) RegisterValidator(operator, moniker string) (*validator.Validator, error) {
	if err := e.gate(); err != nil {
		return nil, err
	}
	now := e.clock.Now()

	v, err := e.validators.Register(operator, moniker, now)
	if err != nil {
		return nil, errors.Wrap(err, "register validator")
	}
	if e.Config().QuantumSafe {
		v.SetQuantumSafe(true)
	}
	metricOpCount.AddWithLabel(1, map[string]string{"op": "registerValidator"})
	logger.Info("validator registered",
		zap.String("operator", operator), zap.String("moniker", moniker))
	return v, nil
}

// CreatePool creates a pool and issues its staked derivative token.
// The pool commission starts at the system default commission.
func (e *Engine) CreatePool(name string, ptype pool.Type, operator string) (*pool.Pool, error) {
	if err := e.gate(); err != nil {
		return nil, err
	}
	now := e.clock.Now()

	p, err := e.pools.Create(name, ptype, operator, now)
	if err != nil {
		return nil, errors.Wrap(err, "create pool")
	}
	if err := p.SetCommissionRate(e.Config().DefaultCommission); err != nil {
		return nil, errors.Wrap(err, "create pool")
	}
	if _, err := e.derivatives.Issue(p.ID(), Underlying, derivative.KindStaked, now); err != nil {
		return nil, errors.Wrap(err, "issue pool derivative")
	}
	metricOpCount.AddWithLabel(1, map[string]string{"op": "createPool"})
	logger.Info("pool created",
		zap.String("id", p.ID()), zap.String("name", name), zap.Stringer("type", ptype))
	return p, nil
}

// AddPoolValidator enrolls a registered validator as a pool member.
func (e *Engine) AddPoolValidator(poolID, operator string) error {
	if err := e.gate(); err != nil {
		return err
	}
	p, err := e.pools.Get(poolID)
	if err != nil {
		return errors.Wrap(err, "add pool validator")
	}
	v, err := e.validators.Get(operator)
	if err != nil {
		return errors.Wrap(err, "add pool validator")
	}
	if err := p.AddValidator(v, e.clock.Now()); err != nil {
		return errors.Wrap(err, "add pool validator")
	}
	metricOpCount.AddWithLabel(1, map[string]string{"op": "addPoolValidator"})
	return nil
}

// resolve loads the pool and one of its member validators.
func (e *Engine) resolve(poolID, operator string) (*pool.Pool, *validator.Validator, error) {
	p, err := e.pools.Get(poolID)
	if err != nil {
		return nil, nil, err
	}
	v, err := e.validators.Get(operator)
	if err != nil {
		return nil, nil, err
	}
	for _, m := range p.Validators() {
		if m.Operator() == operator {
			return p, v, nil
		}
	}
	return nil, nil, ErrNotMember
}

func (e *Engine) checkStakeAmount(amount *big.Int) error {
	cfg := e.Config()
	if amount == nil || amount.Sign() <= 0 {
		return validator.ErrInvalidAmount
	}
	if amount.Cmp(new(big.Int).SetUint64(cfg.MinStake)) < 0 {
		return ErrBelowMinStake
	}
	if amount.Cmp(new(big.Int).SetUint64(cfg.MaxStake)) > 0 {
		return ErrAboveMaxStake
	}
	return nil
}

// Stake delegates amount to a validator through a pool and mints the
// pool's staked derivative at the current exchange rate. The minted
// amount is returned alongside the position.
func (e *Engine) Stake(staker, poolID, operator string, amount *big.Int) (*position.Position, *big.Int, error) {
	if err := e.gate(); err != nil {
		return nil, nil, err
	}
	if err := e.checkStakeAmount(amount); err != nil {
		return nil, nil, errors.Wrap(err, "stake")
	}

	p, v, err := e.resolve(poolID, operator)
	if err != nil {
		return nil, nil, errors.Wrap(err, "stake")
	}
	if err := p.CheckStakeBounds(amount); err != nil {
		return nil, nil, errors.Wrap(err, "stake")
	}
	token, err := e.derivatives.Get(poolID, derivative.KindStaked)
	if err != nil {
		return nil, nil, errors.Wrap(err, "stake")
	}
	// every entity is validated before the first mutation so a
	// rejection never leaves the sequence half-applied
	if !p.IsActive() {
		return nil, nil, errors.Wrap(pool.ErrInactive, "stake")
	}
	if !token.IsActive() {
		return nil, nil, errors.Wrap(derivative.ErrInactive, "stake")
	}

	now := e.clock.Now()
	pos, err := e.positions.Open(staker, poolID, operator, now)
	if err != nil {
		return nil, nil, errors.Wrap(err, "stake")
	}
	if err := pos.Stake(amount, now); err != nil {
		return nil, nil, errors.Wrap(err, "stake")
	}
	if err := v.AddStake(amount); err != nil {
		return nil, nil, errors.Wrap(err, "stake")
	}
	if err := p.AddStake(amount, now); err != nil {
		return nil, nil, errors.Wrap(err, "stake")
	}
	minted, err := token.Mint(staker, amount, now)
	if err != nil {
		return nil, nil, errors.Wrap(err, "mint derivative")
	}

	e.stats.AddStaked(amount)
	e.updateStakedGauge()
	metricOpCount.AddWithLabel(1, map[string]string{"op": "stake"})
	logger.Debug("stake",
		zap.String("staker", staker), zap.String("pool", poolID),
		zap.String("validator", operator), zap.String("amount", amount.String()))
	return pos, minted, nil
}

// Unstake begins withdrawing amount from a position and burns the
// corresponding derivative at the current exchange rate. The principal
// becomes withdrawable once the unstaking period elapses.
func (e *Engine) Unstake(staker, poolID, operator string, amount *big.Int) error {
	if err := e.gate(); err != nil {
		return err
	}
	p, v, err := e.resolve(poolID, operator)
	if err != nil {
		return errors.Wrap(err, "unstake")
	}
	pos, err := e.positions.Find(staker, poolID, operator)
	if err != nil {
		return errors.Wrap(err, "unstake")
	}
	token, err := e.derivatives.Get(poolID, derivative.KindStaked)
	if err != nil {
		return errors.Wrap(err, "unstake")
	}

	// withdrawals honor the pool's per-operation stake bounds too
	if err := p.CheckStakeBounds(amount); err != nil {
		return errors.Wrap(err, "unstake")
	}
	// validate the whole sequence up front; the first mutation only
	// happens once every step is known to succeed
	if !token.IsActive() {
		return errors.Wrap(derivative.ErrInactive, "unstake")
	}
	if amount.Cmp(v.DelegatedStake()) > 0 {
		return errors.Wrap(validator.ErrInsufficientStake, "unstake")
	}
	if amount.Cmp(p.TotalDelegated()) > 0 {
		return errors.Wrap(pool.ErrInsufficientStake, "unstake")
	}
	burn := stakes.ToDerivative(amount, token.ExchangeRate())
	if burn.Sign() > 0 && token.Balance(staker).Cmp(burn) < 0 {
		return ErrNoDerivative
	}

	now := e.clock.Now()
	if err := pos.Unstake(amount, now); err != nil {
		return errors.Wrap(err, "unstake")
	}
	if err := v.RemoveStake(amount); err != nil {
		return errors.Wrap(err, "unstake")
	}
	if err := p.RemoveStake(amount, now); err != nil {
		return errors.Wrap(err, "unstake")
	}
	if burn.Sign() > 0 {
		if _, err := token.Burn(staker, burn, now); err != nil {
			return errors.Wrap(err, "burn derivative")
		}
	}

	e.stats.AddStaked(new(big.Int).Neg(amount))
	e.stats.AddUnstaked(amount)
	e.updateStakedGauge()
	metricOpCount.AddWithLabel(1, map[string]string{"op": "unstake"})
	logger.Debug("unstake",
		zap.String("staker", staker), zap.String("pool", poolID),
		zap.String("validator", operator), zap.String("amount", amount.String()))
	return nil
}

// ClaimRewards pays out the rewards accrued on a position.
func (e *Engine) ClaimRewards(staker, poolID, operator string) (*big.Int, error) {
	if err := e.gate(); err != nil {
		return nil, err
	}
	pos, err := e.positions.Find(staker, poolID, operator)
	if err != nil {
		return nil, errors.Wrap(err, "claim rewards")
	}
	claimed, err := pos.ClaimRewards(e.clock.Now())
	if err != nil {
		return nil, errors.Wrap(err, "claim rewards")
	}
	metricOpCount.AddWithLabel(1, map[string]string{"op": "claimRewards"})
	return claimed, nil
}

// MintDerivative mints a derivative of the given kind against underlying,
// issuing the token on first use.
func (e *Engine) MintDerivative(holder, poolID string, kind derivative.Kind, underlying *big.Int) (*big.Int, error) {
	if err := e.gate(); err != nil {
		return nil, err
	}
	now := e.clock.Now()

	token, err := e.derivatives.Get(poolID, kind)
	if errors.Is(err, derivative.ErrNotFound) {
		token, err = e.derivatives.Issue(poolID, Underlying, kind, now)
	}
	if err != nil {
		return nil, errors.Wrap(err, "mint derivative")
	}
	minted, err := token.Mint(holder, underlying, now)
	if err != nil {
		return nil, errors.Wrap(err, "mint derivative")
	}
	metricOpCount.AddWithLabel(1, map[string]string{"op": "mintDerivative"})
	return minted, nil
}

// BurnDerivative burns amount derivative units, returning the released
// underlying.
func (e *Engine) BurnDerivative(holder, poolID string, kind derivative.Kind, amount *big.Int) (*big.Int, error) {
	if err := e.gate(); err != nil {
		return nil, err
	}
	token, err := e.derivatives.Get(poolID, kind)
	if err != nil {
		return nil, errors.Wrap(err, "burn derivative")
	}
	released, err := token.Burn(holder, amount, e.clock.Now())
	if err != nil {
		return nil, errors.Wrap(err, "burn derivative")
	}
	metricOpCount.AddWithLabel(1, map[string]string{"op": "burnDerivative"})
	return released, nil
}

// TransferDerivative moves derivative units between holders.
func (e *Engine) TransferDerivative(from, to, poolID string, kind derivative.Kind, amount *big.Int) error {
	if err := e.gate(); err != nil {
		return err
	}
	token, err := e.derivatives.Get(poolID, kind)
	if err != nil {
		return errors.Wrap(err, "transfer derivative")
	}
	if err := token.Transfer(from, to, amount, e.clock.Now()); err != nil {
		return errors.Wrap(err, "transfer derivative")
	}
	metricOpCount.AddWithLabel(1, map[string]string{"op": "transferDerivative"})
	return nil
}

// RedeemDerivative redeems amount derivative units for the underlying.
func (e *Engine) RedeemDerivative(holder, poolID string, kind derivative.Kind, amount *big.Int) (*big.Int, error) {
	if err := e.gate(); err != nil {
		return nil, err
	}
	token, err := e.derivatives.Get(poolID, kind)
	if err != nil {
		return nil, errors.Wrap(err, "redeem derivative")
	}
	released, err := token.Redeem(holder, amount, e.clock.Now())
	if err != nil {
		return nil, errors.Wrap(err, "redeem derivative")
	}
	metricOpCount.AddWithLabel(1, map[string]string{"op": "redeemDerivative"})
	return released, nil
}

// SlashValidator applies the configured slashing percentage to a
// validator, cuts the affected positions, reduces the pool aggregates
// and records the losses on matching protection policies. It returns
// the total slashed amount. Protection claims are never paid here.
func (e *Engine) SlashValidator(operator string, reason protection.Reason) (*big.Int, error) {
	if err := e.gate(); err != nil {
		return nil, err
	}
	v, err := e.validators.Get(operator)
	if err != nil {
		return nil, errors.Wrap(err, "slash validator")
	}

	now := e.clock.Now()
	pct := e.Config().SlashingPercentage

	total := v.Slash(pct, now)

	// cut positions, accumulating losses per staker and per pool
	stakerLoss := make(map[string]*big.Int)
	poolLoss := make(map[string]*big.Int)
	e.positions.ForEachByValidator(operator, func(pos *position.Position) bool {
		cut := pos.Slash(pct)
		if cut.Sign() <= 0 {
			return true
		}
		if loss, ok := stakerLoss[pos.Staker()]; ok {
			loss.Add(loss, cut)
		} else {
			stakerLoss[pos.Staker()] = new(big.Int).Set(cut)
		}
		if loss, ok := poolLoss[pos.PoolID()]; ok {
			loss.Add(loss, cut)
		} else {
			poolLoss[pos.PoolID()] = new(big.Int).Set(cut)
		}
		return true
	})

	for poolID, loss := range poolLoss {
		if p, err := e.pools.Get(poolID); err == nil {
			p.ApplySlash(loss, now)
		}
	}

	e.protections.ForEachByValidator(operator, func(pr *protection.Protection) bool {
		loss, ok := stakerLoss[pr.Staker()]
		if !ok {
			return true
		}
		if err := pr.RecordSlashing(loss, reason, now); err != nil {
			logger.Debug("slashing not recorded on protection",
				zap.String("protection", pr.ID()), zap.Error(err))
		}
		return true
	})

	e.stats.AddSlashed(total)
	e.stats.AddStaked(new(big.Int).Neg(total))
	e.updateStakedGauge()
	metricOpCount.AddWithLabel(1, map[string]string{"op": "slashValidator"})
	logger.Warn("validator slashed",
		zap.String("operator", operator), zap.Stringer("reason", reason),
		zap.String("amount", total.String()))
	return total, nil
}

// ActivateSlashingProtection purchases and arms a protection policy.
func (e *Engine) ActivateSlashingProtection(staker, operator string, amount *big.Int, duration time.Duration) (*protection.Protection, error) {
	if err := e.gate(); err != nil {
		return nil, err
	}
	if _, err := e.validators.Get(operator); err != nil {
		return nil, errors.Wrap(err, "activate protection")
	}

	now := e.clock.Now()
	pr, err := e.protections.Purchase(staker, operator, amount, now)
	if err != nil {
		return nil, errors.Wrap(err, "activate protection")
	}
	if err := pr.Activate(now, duration); err != nil {
		return nil, errors.Wrap(err, "activate protection")
	}
	metricOpCount.AddWithLabel(1, map[string]string{"op": "activateProtection"})
	return pr, nil
}

// ClaimSlashingProtection pays out a protection policy. The payout is
// min(protected, slashed) and succeeds at most once per policy.
func (e *Engine) ClaimSlashingProtection(id string) (*big.Int, error) {
	if err := e.gate(); err != nil {
		return nil, err
	}
	pr, err := e.protections.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "claim protection")
	}
	payout, err := pr.Claim(e.clock.Now())
	if err != nil {
		return nil, errors.Wrap(err, "claim protection")
	}
	metricOpCount.AddWithLabel(1, map[string]string{"op": "claimProtection"})
	return payout, nil
}

func (e *Engine) Validators() *validator.Service { return e.validators }

func (e *Engine) Pools() *pool.Service { return e.pools }

func (e *Engine) Positions() *position.Ledger { return e.positions }

func (e *Engine) Derivatives() *derivative.Service { return e.derivatives }

func (e *Engine) Protections() *protection.Fund { return e.protections }

// SystemStats is the aggregate view of the engine.
type SystemStats struct {
	TotalStaked   *big.Int
	TotalRewards  *big.Int
	TotalSlashed  *big.Int
	TotalFees     *big.Int
	TotalUnstaked *big.Int

	Validators       int
	ActiveValidators int
	Pools            int
	ActivePools      int
	Positions        int
	Derivatives      int
	Protections      int

	AverageAPYBps uint32
}

// SystemStats snapshots the aggregate counters and entity counts.
func (e *Engine) SystemStats() SystemStats {
	snap := e.stats.Stats()
	return SystemStats{
		TotalStaked:      snap.TotalStaked,
		TotalRewards:     snap.TotalRewards,
		TotalSlashed:     snap.TotalSlashed,
		TotalFees:        snap.TotalFees,
		TotalUnstaked:    snap.TotalUnstaked,
		Validators:       e.validators.Count(),
		ActiveValidators: e.validators.ActiveCount(),
		Pools:            e.pools.Count(),
		ActivePools:      e.pools.ActiveCount(),
		Positions:        e.positions.Count(),
		Derivatives:      e.derivatives.Count(),
		Protections:      e.protections.Count(),
		AverageAPYBps:    averageAPY(snap.TotalRewards, snap.TotalStaked),
	}
}

// averageAPY derives a lifetime yield estimate in basis points from the
// cumulative reward and stake counters.
func averageAPY(rewards, staked *big.Int) uint32 {
	if staked == nil || staked.Sign() <= 0 || rewards == nil || rewards.Sign() <= 0 {
		return 0
	}
	apy := new(big.Int).Mul(rewards, big.NewInt(stakes.FullBasisPoints))
	apy.Quo(apy, staked)
	if !apy.IsUint64() || apy.Uint64() > stakes.FullBasisPoints {
		return stakes.FullBasisPoints
	}
	return uint32(apy.Uint64())
}

// GenerateReport renders a human-readable system summary.
func (e *Engine) GenerateReport() string {
	s := e.SystemStats()
	hit, miss, rate := e.positions.LookupStats()

	var b strings.Builder
	b.WriteString("=== Liquid Staking System Report ===\n")
	fmt.Fprintf(&b, "engine active:      %v\n", e.IsActive())
	fmt.Fprintf(&b, "validators:         %d (%d active)\n", s.Validators, s.ActiveValidators)
	fmt.Fprintf(&b, "pools:              %d (%d active)\n", s.Pools, s.ActivePools)
	fmt.Fprintf(&b, "positions:          %d\n", s.Positions)
	fmt.Fprintf(&b, "derivative tokens:  %d\n", s.Derivatives)
	fmt.Fprintf(&b, "protections:        %d\n", s.Protections)
	fmt.Fprintf(&b, "total staked:       %s\n", s.TotalStaked)
	fmt.Fprintf(&b, "total rewards:      %s\n", s.TotalRewards)
	fmt.Fprintf(&b, "total slashed:      %s\n", s.TotalSlashed)
	fmt.Fprintf(&b, "total fees:         %s\n", s.TotalFees)
	fmt.Fprintf(&b, "average APY (bps):  %d\n", s.AverageAPYBps)
	fmt.Fprintf(&b, "position lookups:   %d hit / %d miss (%.2f)\n", hit, miss, rate)
	return b.String()
}

func (e *Engine) updateStakedGauge() {
	total := e.stats.Stats().TotalStaked
	if total.IsInt64() {
		metricTotalStaked.Set(total.Int64())
	}
}
