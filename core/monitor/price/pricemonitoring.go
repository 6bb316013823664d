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

package price

import (
	"sync"

	"code.denebmarkets.io/deneb/libs/num"
	"code.denebmarkets.io/deneb/logging"

	"github.com/pkg/errors"
)

// ErrPriceOutOfBounds signals an execution price further from the
// reference than the configured band allows.
var ErrPriceOutOfBounds = errors.New("price outside the reference band")

var bpsDivisor = num.NewUint(10000)

// Engine guards executions against prices drifting too far from an
// external reference. Without a reference there is nothing to compare
// against and the guard stands down.
type Engine struct {
	log *logging.Logger

	Config
	cfgMu sync.Mutex

	bandBps *num.Uint
}

// New instantiates the price monitor.
func New(log *logging.Logger, conf Config) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())

	return &Engine{
		log:     log,
		Config:  conf,
		bandBps: num.NewUint(conf.BandBasisPoints),
	}
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
	e.bandBps = num.NewUint(cfg.BandBasisPoints)
	e.cfgMu.Unlock()
}

// CheckPrice returns ErrPriceOutOfBounds when price deviates from the
// reference by more than the band. A nil or zero reference disables the
// check, a deviation on the band edge itself passes.
func (e *Engine) CheckPrice(price, reference *num.Uint) error {
	if reference == nil || reference.IsZero() {
		return nil
	}

	delta, _ := num.UintZero().Delta(price, reference)
	maxDelta := num.UintZero().Div(num.UintZero().Mul(reference, e.bandBps), bpsDivisor)
	if delta.GT(maxDelta) {
		if e.log.GetLevel() == logging.DebugLevel {
			e.log.Debug("price rejected by the reference band",
				logging.BigUint("price", price),
				logging.BigUint("reference", reference),
				logging.BigUint("delta", delta),
				logging.BigUint("max-delta", maxDelta),
			)
		}
		return ErrPriceOutOfBounds
	}
	return nil
}
