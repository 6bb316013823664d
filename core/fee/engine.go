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

package fee

import (
	"sync"

	"code.denebmarkets.io/deneb/libs/num"
	"code.denebmarkets.io/deneb/logging"

	"github.com/pkg/errors"
)

// ErrInvalidFeeParameter is returned when a configuration value is outside
// its valid range.
var ErrInvalidFeeParameter = errors.New("invalid fee parameter")

// Speculative ratio bands and their fee adjustments. Above the high
// threshold the fee amplifies linearly up to +50% at a ratio of 1, below
// the low threshold it discounts linearly down to -30% at a ratio of 0.
var (
	specHighThreshold = num.MustDecimalFromString("0.7")
	specLowThreshold  = num.MustDecimalFromString("0.3")
	specHighGain      = num.MustDecimalFromString("0.5")
	specLowCut        = num.MustDecimalFromString("0.3")
	half              = num.MustDecimalFromString("0.5")
)

// Override reports which backstop, if any, replaced the multiplicative
// rate formula.
type Override int

const (
	// OverrideNone means the rate came from the multiplier product.
	OverrideNone Override = iota
	// OverrideBalanced means open interest sat inside the tight balance
	// band and the base fee was forced.
	OverrideBalanced
	// OverrideImbalanced means open interest sat beyond the wide imbalance
	// band and the max fee was forced.
	OverrideImbalanced
)

func (o Override) String() string {
	switch o {
	case OverrideNone:
		return "none"
	case OverrideBalanced:
		return "balanced"
	case OverrideImbalanced:
		return "imbalanced"
	}
	return "unknown"
}

// Factors are the market readings a rate is computed from.
type Factors struct {
	BaseVolatility      num.Decimal
	EffectiveVolatility num.Decimal
	LongOI              uint64
	ShortOI             uint64
	SpeculativeRatio    num.Decimal
}

// State is the breakdown of the most recent rate computation.
type State struct {
	BaseFee         num.Decimal
	MaxFee          num.Decimal
	Rate            num.Decimal
	VolatilityMult  num.Decimal
	ImbalanceMult   num.Decimal
	UtilizationMult num.Decimal
	SpeculativeMult num.Decimal
	Utilization     num.Decimal
	Override        Override
}

// Engine prices each trade with a dynamic rate, the base fee scaled by
// volatility, open interest imbalance, pool utilization and speculative
// activity, clamped to [BaseFee, MaxFee]. Two imbalance backstops sidestep
// the formula entirely, a balanced book trades at the floor and a heavily
// one-sided book at the ceiling.
type Engine struct {
	log *logging.Logger

	Config
	cfgMu sync.Mutex

	baseFee   num.Decimal
	maxFee    num.Decimal
	volSlope  num.Decimal
	imbSlope  num.Decimal
	utilSlope num.Decimal
	tightBand num.Decimal
	wideBand  num.Decimal
	capacity  num.Decimal

	last State
}

// New instantiates the fee engine, validating every parameter.
func New(log *logging.Logger, conf Config) (*Engine, error) {
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())

	e := &Engine{
		log:       log,
		Config:    conf,
		baseFee:   num.DecimalFromFloat(conf.BaseFee),
		maxFee:    num.DecimalFromFloat(conf.MaxFee),
		volSlope:  num.DecimalFromFloat(conf.VolatilitySlope),
		imbSlope:  num.DecimalFromFloat(conf.ImbalanceSlope),
		utilSlope: num.DecimalFromFloat(conf.UtilizationSlope),
		tightBand: num.DecimalFromFloat(conf.TightImbalanceBand),
		wideBand:  num.DecimalFromFloat(conf.WideImbalanceBand),
		capacity:  num.DecimalFromFloat(conf.PoolCapacity),
	}
	if err := e.validateParameters(); err != nil {
		return nil, err
	}
	e.last = State{
		BaseFee:         e.baseFee,
		MaxFee:          e.maxFee,
		Rate:            e.baseFee,
		VolatilityMult:  num.DecimalOne(),
		ImbalanceMult:   num.DecimalOne(),
		UtilizationMult: num.DecimalOne(),
		SpeculativeMult: num.DecimalOne(),
	}
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
	if !e.baseFee.IsPositive() {
		e.log.Error("base fee must be positive", logging.Decimal("base-fee", e.baseFee))
		return ErrInvalidFeeParameter
	}
	if !e.maxFee.GreaterThan(e.baseFee) {
		e.log.Error("max fee must exceed base fee",
			logging.Decimal("base-fee", e.baseFee),
			logging.Decimal("max-fee", e.maxFee),
		)
		return ErrInvalidFeeParameter
	}
	for name, slope := range map[string]num.Decimal{
		"volatility-slope":  e.volSlope,
		"imbalance-slope":   e.imbSlope,
		"utilization-slope": e.utilSlope,
	} {
		if slope.IsNegative() {
			e.log.Error("fee slope must not be negative",
				logging.String("slope", name),
				logging.Decimal("value", slope),
			)
			return ErrInvalidFeeParameter
		}
	}
	if e.tightBand.IsNegative() || !e.tightBand.LessThan(e.wideBand) ||
		e.wideBand.GreaterThan(num.DecimalOne()) {
		e.log.Error("imbalance bands must satisfy 0 <= tight < wide <= 1",
			logging.Decimal("tight", e.tightBand),
			logging.Decimal("wide", e.wideBand),
		)
		return ErrInvalidFeeParameter
	}
	if !e.capacity.IsPositive() {
		e.log.Error("pool capacity must be positive", logging.Decimal("capacity", e.capacity))
		return ErrInvalidFeeParameter
	}
	return nil
}

// Rate computes the fee rate for the given market readings and retains the
// component breakdown for State. The result always sits in
// [BaseFee, MaxFee].
func (e *Engine) Rate(f Factors) num.Decimal {
	st := State{
		BaseFee:         e.baseFee,
		MaxFee:          e.maxFee,
		VolatilityMult:  num.DecimalOne(),
		ImbalanceMult:   num.DecimalOne(),
		UtilizationMult: num.DecimalOne(),
		SpeculativeMult: num.DecimalOne(),
		Utilization:     e.utilization(f.LongOI, f.ShortOI),
	}

	imbalance := imbalanceFraction(f.LongOI, f.ShortOI)
	switch {
	case imbalance.LessThanOrEqual(e.tightBand):
		st.Override = OverrideBalanced
		st.Rate = e.baseFee
	case imbalance.GreaterThanOrEqual(e.wideBand):
		st.Override = OverrideImbalanced
		st.Rate = e.maxFee
	default:
		st.VolatilityMult = e.volatilityMult(f.BaseVolatility, f.EffectiveVolatility)
		st.ImbalanceMult = num.DecimalOne().Add(e.imbSlope.Mul(imbalance))
		st.UtilizationMult = num.MaxD(num.DecimalZero(),
			num.DecimalOne().Add(e.utilSlope.Mul(st.Utilization.Sub(half))))
		st.SpeculativeMult = speculativeMult(f.SpeculativeRatio)

		rate := e.baseFee.
			Mul(st.VolatilityMult).
			Mul(st.ImbalanceMult).
			Mul(st.UtilizationMult).
			Mul(st.SpeculativeMult)
		st.Rate = num.MinD(e.maxFee, num.MaxD(e.baseFee, rate))
	}

	e.last = st
	if e.log.GetLevel() == logging.DebugLevel {
		e.log.Debug("fee rate computed",
			logging.Decimal("rate", st.Rate),
			logging.Decimal("imbalance", imbalance),
			logging.String("override", st.Override.String()),
		)
	}
	return st.Rate
}

// State returns the breakdown of the last computed rate. Before any trade
// it reports the base fee with neutral multipliers.
func (e *Engine) State() State {
	return e.last
}

// Amount applies a rate to a traded notional, flooring to the smallest
// representable unit.
func Amount(notional *num.Uint, rate num.Decimal) *num.Uint {
	amount, _ := num.UintFromDecimal(num.DecimalFromUint(notional).Mul(rate).Floor())
	return amount
}

// volatilityMult is linear in the relative excess of effective volatility
// over base, symmetric around 1 and floored at 0.
func (e *Engine) volatilityMult(base, effective num.Decimal) num.Decimal {
	if base.IsZero() {
		return num.DecimalOne()
	}
	excess := effective.Sub(base).Div(base)
	return num.MaxD(num.DecimalZero(), num.DecimalOne().Add(e.volSlope.Mul(excess)))
}

// speculativeMult amplifies the fee when speculative activity dominates
// and discounts it when activity looks organic.
func speculativeMult(ratio num.Decimal) num.Decimal {
	one := num.DecimalOne()
	switch {
	case ratio.GreaterThan(specHighThreshold):
		return one.Add(ratio.Sub(specHighThreshold).Div(one.Sub(specHighThreshold)).Mul(specHighGain))
	case ratio.LessThan(specLowThreshold):
		return one.Sub(specLowThreshold.Sub(ratio).Div(specLowThreshold).Mul(specLowCut))
	}
	return one
}

// utilization is total open interest over pool capacity, clamped to [0,1].
func (e *Engine) utilization(longOI, shortOI uint64) num.Decimal {
	total := num.DecimalFromUint(num.NewUint(longOI)).
		Add(num.DecimalFromUint(num.NewUint(shortOI)))
	return num.MinD(num.DecimalOne(), total.Div(e.capacity))
}

// imbalanceFraction is |long-short| over total open interest, zero on an
// empty market.
func imbalanceFraction(longOI, shortOI uint64) num.Decimal {
	l := num.DecimalFromUint(num.NewUint(longOI))
	s := num.DecimalFromUint(num.NewUint(shortOI))
	total := l.Add(s)
	if total.IsZero() {
		return num.DecimalZero()
	}
	return l.Sub(s).Abs().Div(total)
}
