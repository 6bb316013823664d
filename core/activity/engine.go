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

package activity

import (
	"sync"

	"code.denebmarkets.io/deneb/libs/num"
	"code.denebmarkets.io/deneb/logging"

	"github.com/pkg/errors"
)

// ErrInvalidActivityParameter is returned when a configuration value is
// outside its valid range.
var ErrInvalidActivityParameter = errors.New("invalid activity parameter")

// minObservations is how much history a series needs before its
// decomposition runs at all, recording fewer is a no-op on the outputs.
const minObservations = 3

// Metric identifies one tracked activity series.
type Metric int

const (
	MetricVolume Metric = iota
	MetricOpenInterest
	MetricLiquidations
	MetricLeverage
)

func (m Metric) String() string {
	switch m {
	case MetricVolume:
		return "volume"
	case MetricOpenInterest:
		return "open-interest"
	case MetricLiquidations:
		return "liquidations"
	case MetricLeverage:
		return "leverage"
	}
	return "unknown"
}

// MetricState is the decomposition of a single series, all values copies.
type MetricState struct {
	Observations uint64
	Window       []num.Decimal
	Trend        num.Decimal
	Seasonal     num.Decimal
	Expected     num.Decimal
	Unexpected   num.Decimal
	Ratio        num.Decimal
}

// Snapshot is a read-only view over every tracked series. The headline
// SpeculativeRatio is taken from the volume series.
type Snapshot struct {
	Volume           MetricState
	OpenInterest     MetricState
	Liquidations     MetricState
	Leverage         MetricState
	SpeculativeRatio num.Decimal
}

// Engine decomposes trading activity into an expected component, built
// from an exponentially smoothed trend plus a linearly weighted seasonal
// baseline, and an unexpected residual. The share of activity the model
// cannot explain is the speculative ratio the fee engine prices off. The
// output is a tuned heuristic, a signal rather than a classifier.
type Engine struct {
	log *logging.Logger

	Config
	cfgMu sync.Mutex

	series map[Metric]*series
}

// New instantiates the activity engine.
func New(log *logging.Logger, conf Config) (*Engine, error) {
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())

	if conf.WindowLength < minObservations {
		log.Error("window length must hold the minimum observation count",
			logging.Int("window-length", conf.WindowLength))
		return nil, ErrInvalidActivityParameter
	}
	alpha := num.DecimalFromFloat(conf.TrendSmoothing)
	if !alpha.IsPositive() || !alpha.LessThan(num.DecimalOne()) {
		log.Error("trend smoothing must sit strictly between 0 and 1",
			logging.Decimal("trend-smoothing", alpha))
		return nil, ErrInvalidActivityParameter
	}

	e := &Engine{
		log:    log,
		Config: conf,
		series: map[Metric]*series{},
	}
	for _, m := range []Metric{MetricVolume, MetricOpenInterest, MetricLiquidations, MetricLeverage} {
		e.series[m] = newSeries(conf.WindowLength, alpha)
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

// RecordTrade folds an executed trade into the volume and open interest
// histories. openInterest is the post-trade total across both sides.
func (e *Engine) RecordTrade(volume, openInterest uint64) {
	e.series[MetricVolume].record(num.DecimalFromUint(num.NewUint(volume)))
	e.series[MetricOpenInterest].record(num.DecimalFromUint(num.NewUint(openInterest)))
}

// RecordLiquidation folds a forced close into the liquidation history.
func (e *Engine) RecordLiquidation(size uint64) {
	e.series[MetricLiquidations].record(num.DecimalFromUint(num.NewUint(size)))
}

// RecordLeverage folds an average account leverage reading into its
// history. The reading is produced outside the trading core.
func (e *Engine) RecordLeverage(avg num.Decimal) {
	e.series[MetricLeverage].record(avg)
}

// SpeculativeRatio returns the share of current trading volume the model
// cannot attribute to trend or seasonality, clamped to [0,1]. It stays at
// zero until enough observations exist.
func (e *Engine) SpeculativeRatio() num.Decimal {
	return e.series[MetricVolume].ratio
}

// Snapshot returns a copy of every series state, safe to hold across
// trades.
func (e *Engine) Snapshot() *Snapshot {
	return &Snapshot{
		Volume:           e.series[MetricVolume].state(),
		OpenInterest:     e.series[MetricOpenInterest].state(),
		Liquidations:     e.series[MetricLiquidations].state(),
		Leverage:         e.series[MetricLeverage].state(),
		SpeculativeRatio: e.SpeculativeRatio(),
	}
}

// series is one fixed-window observation history with its running
// decomposition.
type series struct {
	window int
	alpha  num.Decimal

	obs []num.Decimal

	seeded   bool
	trend    num.Decimal
	seasonal num.Decimal

	expected   num.Decimal
	unexpected num.Decimal
	ratio      num.Decimal

	count uint64
}

func newSeries(window int, alpha num.Decimal) *series {
	return &series{
		window:     window,
		alpha:      alpha,
		obs:        make([]num.Decimal, 0, window),
		trend:      num.DecimalZero(),
		seasonal:   num.DecimalZero(),
		expected:   num.DecimalZero(),
		unexpected: num.DecimalZero(),
		ratio:      num.DecimalZero(),
	}
}

// record pushes an observation, evicting the oldest once the window is
// full, and refreshes the decomposition once enough history exists.
func (s *series) record(v num.Decimal) {
	s.count++
	if len(s.obs) == s.window {
		copy(s.obs, s.obs[1:])
		s.obs = s.obs[:len(s.obs)-1]
	}
	s.obs = append(s.obs, v)

	// the first observation seeds the trend
	if !s.seeded {
		s.trend = v
		s.seeded = true
	} else {
		s.trend = s.alpha.Mul(v).Add(num.DecimalOne().Sub(s.alpha).Mul(s.trend))
	}

	if s.count < minObservations {
		return
	}

	s.seasonal = s.weightedAverage()
	s.expected = s.trend.Add(s.seasonal)
	s.unexpected = num.MaxD(num.DecimalZero(), v.Sub(s.expected))

	total := s.expected.Add(s.unexpected)
	if total.IsZero() {
		s.ratio = num.DecimalZero()
		return
	}
	s.ratio = num.MinD(num.DecimalOne(), num.MaxD(num.DecimalZero(), s.unexpected.Div(total)))
}

// weightedAverage is the linearly weighted moving average of the window,
// the most recent observation carries the largest weight.
func (s *series) weightedAverage() num.Decimal {
	sum, weights := num.DecimalZero(), num.DecimalZero()
	for i, v := range s.obs {
		w := num.DecimalFromInt64(int64(i + 1))
		sum = sum.Add(v.Mul(w))
		weights = weights.Add(w)
	}
	return sum.Div(weights)
}

func (s *series) state() MetricState {
	window := make([]num.Decimal, len(s.obs))
	copy(window, s.obs)
	return MetricState{
		Observations: s.count,
		Window:       window,
		Trend:        s.trend,
		Seasonal:     s.seasonal,
		Expected:     s.expected,
		Unexpected:   s.unexpected,
		Ratio:        s.ratio,
	}
}
