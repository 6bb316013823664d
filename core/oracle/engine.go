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

package oracle

import (
	"errors"
	"sync"

	"code.denebmarkets.io/deneb/libs/num"
	"code.denebmarkets.io/deneb/logging"
)

// ErrNoPriceForAsset signals no price was ever submitted for the asset.
var ErrNoPriceForAsset = errors.New("no price for asset")

type pricePoint struct {
	price     *num.Uint
	updatedAt int64
}

// Engine is the reference price store. Prices come in through the
// privileged SubmitPrice path, staleness is the responsibility of
// whoever feeds it.
type Engine struct {
	log *logging.Logger
	Config

	cfgMu sync.Mutex
	// asset -> latest submitted price
	prices map[string]*pricePoint
}

// New instantiates a new oracle engine.
func New(log *logging.Logger, conf Config) *Engine {
	// setup logger
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())

	return &Engine{
		log:    log,
		Config: conf,
		prices: map[string]*pricePoint{},
	}
}

// ReloadConf updates the internal configuration of the oracle engine.
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

// SubmitPrice records the latest price for the asset, overwriting any
// previous observation. Later submissions win regardless of timestamp.
func (e *Engine) SubmitPrice(asset string, price *num.Uint, at int64) {
	e.prices[asset] = &pricePoint{
		price:     price.Clone(),
		updatedAt: at,
	}
	if e.log.GetLevel() == logging.DebugLevel {
		e.log.Debug("oracle price submitted",
			logging.String("asset", asset),
			logging.BigUint("price", price),
			logging.Int64("updated-at", at),
		)
	}
}

// LatestPrice returns a copy of the most recent price for the asset and
// the time it was submitted at.
func (e *Engine) LatestPrice(asset string) (*num.Uint, int64, error) {
	pp, ok := e.prices[asset]
	if !ok {
		return nil, 0, ErrNoPriceForAsset
	}
	return pp.price.Clone(), pp.updatedAt, nil
}
