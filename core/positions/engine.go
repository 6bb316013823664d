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

package positions

import (
	"sort"
	"sync"

	"code.denebmarkets.io/deneb/libs/num"
	"code.denebmarkets.io/deneb/logging"
)

// Engine tracks the open position of every party and aggregates them into
// the market's open interest.
type Engine struct {
	log *logging.Logger

	Config
	cfgMu sync.Mutex

	positions map[string]*MarketPosition

	// running open interest totals across all positions
	longOI  uint64
	shortOI uint64
}

// New instantiates a new positions engine.
func New(log *logging.Logger, conf Config) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())

	return &Engine{
		log:       log,
		Config:    conf,
		positions: map[string]*MarketPosition{},
	}
}

// ReloadConf update the internal conf of the positions engine.
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

// RegisterTrade folds an executed trade into the party's position and the
// open interest totals, returning a copy of the updated position.
func (e *Engine) RegisterTrade(party string, size uint64, isLong bool, price *num.Uint) *MarketPosition {
	pos, ok := e.positions[party]
	if !ok {
		pos = newMarketPosition(party)
		e.positions[party] = pos
	}

	e.dropFromOI(pos)
	pos.register(size, isLong, price)
	e.addToOI(pos)

	if e.log.GetLevel() == logging.DebugLevel {
		e.log.Debug("position updated",
			logging.String("party", party),
			logging.String("position", pos.String()),
		)
	}
	return pos.Clone()
}

// OpenInterest returns the aggregated long and short open volumes and
// their signed net.
func (e *Engine) OpenInterest() (uint64, uint64, *num.Int) {
	net := num.IntFromUint(num.NewUint(e.longOI), true)
	net.Sub(num.IntFromUint(num.NewUint(e.shortOI), true))
	return e.longOI, e.shortOI, net
}

// Fill is one party-level fill, the shape WhatIf consumes.
type Fill struct {
	Party  string
	Size   uint64
	IsLong bool
	Price  *num.Uint
}

// WhatIf returns the long and short open interest as they would stand
// after the given fills, committing nothing. Fills for the same party
// fold in order.
func (e *Engine) WhatIf(fills ...Fill) (uint64, uint64) {
	long, short := e.longOI, e.shortOI
	scratch := map[string]*MarketPosition{}
	for _, f := range fills {
		pos, ok := scratch[f.Party]
		if !ok {
			if cur, found := e.positions[f.Party]; found {
				pos = cur.Clone()
			} else {
				pos = newMarketPosition(f.Party)
			}
			scratch[f.Party] = pos
		}
		// same drop/add bookkeeping as RegisterTrade, on the scratch copy
		if pos.size.IsPositive() {
			long -= pos.size.U.Uint64()
		} else if pos.size.IsNegative() {
			short -= pos.size.U.Uint64()
		}
		pos.register(f.Size, f.IsLong, f.Price)
		if pos.size.IsPositive() {
			long += pos.size.U.Uint64()
		} else if pos.size.IsNegative() {
			short += pos.size.U.Uint64()
		}
	}
	return long, short
}

// GetPositionByParty returns a copy of the party's position, nil when the
// party never traded.
func (e *Engine) GetPositionByParty(party string) *MarketPosition {
	pos, ok := e.positions[party]
	if !ok {
		return nil
	}
	return pos.Clone()
}

// Positions returns a copy of every tracked position, ordered by party for
// determinism.
func (e *Engine) Positions() []*MarketPosition {
	out := make([]*MarketPosition, 0, len(e.positions))
	for _, pos := range e.positions {
		out = append(out, pos.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].party < out[j].party })
	return out
}

func (e *Engine) dropFromOI(pos *MarketPosition) {
	if pos.size.IsPositive() {
		e.longOI -= pos.size.U.Uint64()
	} else if pos.size.IsNegative() {
		e.shortOI -= pos.size.U.Uint64()
	}
}

func (e *Engine) addToOI(pos *MarketPosition) {
	if pos.size.IsPositive() {
		e.longOI += pos.size.U.Uint64()
	} else if pos.size.IsNegative() {
		e.shortOI += pos.size.U.Uint64()
	}
}
