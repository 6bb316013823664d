// Copyright (C) 2023 Deneb Markets Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package risk

import (
	"sync"

	"code.denebmarkets.io/deneb/libs/num"
	"code.denebmarkets.io/deneb/logging"

	"github.com/pkg/errors"
)

var (
	// ErrExcessiveVolatility is returned when an open interest change would
	// push effective volatility beyond the configured ceiling.
	ErrExcessiveVolatility = errors.New("volatility exceeds configured maximum")
	// ErrInvalidRiskParameter is returned when a model parameter is outside
	// its valid range.
	ErrInvalidRiskParameter = errors.New("invalid risk parameter")
)

// State is a read-only snapshot of the volatility and impact model.
type State struct {
	BaseVolatility      num.Decimal
	EffectiveVolatility num.Decimal
	MaxVolatility       num.Decimal
	Lambda              num.Decimal
	BaseDepth           num.Decimal
	EffectiveDepth      num.Decimal
	CumulativeFlow      *num.Int
	PriceImpact         num.Decimal
	LongOI              uint64
	ShortOI             uint64
}

// Engine derives effective volatility from open interest and translates the
// accumulated order flow into an expected price impact. Long open interest
// amplifies volatility, short open interest dampens it. A move that would
// take volatility past the ceiling is rejected rather than clamped, callers
// must shed exposure before proceeding.
type Engine struct {
	log *logging.Logger

	Config
	cfgMu sync.Mutex

	base   num.Decimal
	max    num.Decimal
	cLong  num.Decimal
	cShort num.Decimal

	volThreshold    num.Decimal
	impactThreshold num.Decimal

	effective      num.Decimal
	baseDepth      num.Decimal
	effectiveDepth num.Decimal
	lambda         num.Decimal

	cumulativeFlow *num.Int

	longOI  uint64
	shortOI uint64

	// total open interest at the time of the last recompute, one baseline
	// per cadence
	lastVolOI    uint64
	lastImpactOI uint64
}

// New instantiates the risk engine, validating every model parameter.
func New(log *logging.Logger, conf Config) (*Engine, error) {
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())

	e := &Engine{
		log:             log,
		Config:          conf,
		base:            num.DecimalFromFloat(conf.BaseVolatility),
		max:             num.DecimalFromFloat(conf.MaxVolatility),
		cLong:           num.DecimalFromFloat(conf.LongOICoefficient),
		cShort:          num.DecimalFromFloat(conf.ShortOICoefficient),
		baseDepth:       num.DecimalFromFloat(conf.BaseDepth),
		volThreshold:    num.DecimalFromFloat(conf.VolRecomputeThreshold),
		impactThreshold: num.DecimalFromFloat(conf.ImpactRecomputeThreshold),
		cumulativeFlow:  num.IntZero(),
	}
	if err := e.validateParameters(); err != nil {
		return nil, err
	}
	e.effective = e.base
	e.effectiveDepth = e.baseDepth
	e.lambda = e.base.Div(e.baseDepth)
	return e, nil
}

// ReloadConf updates the internal configuration of the engine.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}

	e.cfgMu.Lock()
	e.Config = cfg
	e.cfgMu.Unlock()
}

func (e *Engine) validateParameters() error {
	if !e.base.IsPositive() {
		e.log.Error("base volatility must be positive", logging.Decimal("base", e.base))
		return ErrInvalidRiskParameter
	}
	if !e.max.GreaterThan(e.base) {
		e.log.Error("max volatility must exceed base volatility",
			logging.Decimal("base", e.base),
			logging.Decimal("max", e.max),
		)
		return ErrInvalidRiskParameter
	}
	if e.cLong.IsNegative() {
		e.log.Error("long OI coefficient must not be negative", logging.Decimal("c-long", e.cLong))
		return ErrInvalidRiskParameter
	}
	if e.cShort.IsPositive() {
		e.log.Error("short OI coefficient must not be positive", logging.Decimal("c-short", e.cShort))
		return ErrInvalidRiskParameter
	}
	if !e.baseDepth.IsPositive() {
		e.log.Error("base depth must be positive", logging.Decimal("base-depth", e.baseDepth))
		return ErrInvalidRiskParameter
	}
	if e.volThreshold.IsNegative() {
		e.log.Error("volatility recompute threshold must not be negative",
			logging.Decimal("vol-threshold", e.volThreshold))
		return ErrInvalidRiskParameter
	}
	if e.impactThreshold.LessThan(e.volThreshold) {
		e.log.Error("impact recompute threshold must not be below the volatility one",
			logging.Decimal("impact-threshold", e.impactThreshold),
			logging.Decimal("vol-threshold", e.volThreshold),
		)
		return ErrInvalidRiskParameter
	}
	return nil
}

// CheckOpenInterest validates that moving to the given open interest keeps
// effective volatility at or below the ceiling. Nothing is mutated, commit
// the move with UpdateOpenInterest once every other validation passed.
func (e *Engine) CheckOpenInterest(longOI, shortOI uint64) error {
	_, err := e.volatilityFor(longOI, shortOI)
	return err
}

// UpdateOpenInterest commits a new open interest pair. Effective volatility
// is refreshed when the total moved past VolRecomputeThreshold since its
// last recompute, lambda and the effective depth when it moved past the
// larger ImpactRecomputeThreshold. On ErrExcessiveVolatility no state
// changes at all.
func (e *Engine) UpdateOpenInterest(longOI, shortOI uint64) error {
	total := longOI + shortOI

	effective := e.effective
	volMoved := oiMoved(e.lastVolOI, total).GreaterThan(e.volThreshold)
	if volMoved {
		var err error
		if effective, err = e.volatilityFor(longOI, shortOI); err != nil {
			return err
		}
	}

	e.longOI, e.shortOI = longOI, shortOI
	if volMoved {
		e.effective = effective
		e.lastVolOI = total
		if e.log.GetLevel() == logging.DebugLevel {
			e.log.Debug("volatility recomputed",
				logging.Decimal("effective", e.effective),
				logging.Uint64("long-oi", longOI),
				logging.Uint64("short-oi", shortOI),
			)
		}
	}
	if oiMoved(e.lastImpactOI, total).GreaterThan(e.impactThreshold) {
		e.rescale()
		e.lastImpactOI = total
		if e.log.GetLevel() == logging.DebugLevel {
			e.log.Debug("price impact rescaled",
				logging.Decimal("lambda", e.lambda),
				logging.Decimal("effective-depth", e.effectiveDepth),
				logging.BigInt("cumulative-flow", e.cumulativeFlow),
			)
		}
	}
	return nil
}

// RecordFlow folds an executed trade into the signed cumulative order flow,
// longs push the flow up, shorts pull it down.
func (e *Engine) RecordFlow(size uint64, isLong bool) {
	e.cumulativeFlow.Add(num.IntFromUint(num.NewUint(size), isLong))
}

// PriceImpact returns lambda scaled by the cumulative order flow, the
// model's expected displacement of the execution price. Net selling yields
// a negative impact.
func (e *Engine) PriceImpact() num.Decimal {
	return e.lambda.Mul(num.DecimalFromInt(e.cumulativeFlow))
}

// EffectiveVolatility returns the current effective volatility fraction.
func (e *Engine) EffectiveVolatility() num.Decimal {
	return e.effective
}

// BaseVolatility returns the configured volatility floor.
func (e *Engine) BaseVolatility() num.Decimal {
	return e.base
}

// Lambda returns the current impact slope.
func (e *Engine) Lambda() num.Decimal {
	return e.lambda
}

// OpenInterest returns the last committed open interest pair.
func (e *Engine) OpenInterest() (uint64, uint64) {
	return e.longOI, e.shortOI
}

// State returns a snapshot of the model, safe to hold across trades.
func (e *Engine) State() *State {
	return &State{
		BaseVolatility:      e.base,
		EffectiveVolatility: e.effective,
		MaxVolatility:       e.max,
		Lambda:              e.lambda,
		BaseDepth:           e.baseDepth,
		EffectiveDepth:      e.effectiveDepth,
		CumulativeFlow:      e.cumulativeFlow.Clone(),
		PriceImpact:         e.PriceImpact(),
		LongOI:              e.longOI,
		ShortOI:             e.shortOI,
	}
}

// volatilityFor computes the effective volatility a given open interest
// pair implies. Negative results clamp to zero, results beyond the ceiling
// are an error.
func (e *Engine) volatilityFor(longOI, shortOI uint64) (num.Decimal, error) {
	effective := e.base.
		Add(e.cLong.Mul(num.DecimalFromUint(num.NewUint(longOI)))).
		Add(e.cShort.Mul(num.DecimalFromUint(num.NewUint(shortOI))))
	if effective.IsNegative() {
		effective = num.DecimalZero()
	}
	if effective.GreaterThan(e.max) {
		if e.log.GetLevel() == logging.DebugLevel {
			e.log.Debug("open interest rejected, volatility ceiling breached",
				logging.Uint64("long-oi", longOI),
				logging.Uint64("short-oi", shortOI),
				logging.Decimal("effective", effective),
				logging.Decimal("max", e.max),
			)
		}
		return num.DecimalZero(), ErrExcessiveVolatility
	}
	return effective, nil
}

// rescale thins the effective depth as volatility rises so the same order
// flow produces a larger impact, then refreshes lambda from it. At zero
// volatility the depth reverts to base and the impact slope vanishes.
func (e *Engine) rescale() {
	if e.effective.IsZero() {
		e.effectiveDepth = e.baseDepth
		e.lambda = num.DecimalZero()
		return
	}
	e.effectiveDepth = e.baseDepth.Mul(e.base).Div(e.effective)
	e.lambda = e.effective.Div(e.effectiveDepth)
}

// oiMoved returns the relative move between two total open interest
// readings. Any move away from a zero baseline counts as a full move.
func oiMoved(prev, cur uint64) num.Decimal {
	if prev == cur {
		return num.DecimalZero()
	}
	if prev == 0 {
		return num.DecimalOne()
	}
	delta := cur - prev
	if prev > cur {
		delta = prev - cur
	}
	return num.DecimalFromUint(num.NewUint(delta)).Div(num.DecimalFromUint(num.NewUint(prev)))
}
