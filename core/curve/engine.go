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

package curve

import (
	"sync"

	"code.denebmarkets.io/deneb/libs/num"
	"code.denebmarkets.io/deneb/logging"

	"github.com/pkg/errors"
)

var (
	// ErrTradeTooLarge signals a trade that would drain the virtual
	// quantity to its floor or below.
	ErrTradeTooLarge = errors.New("trade too large for current depth")
	// ErrInvalidCurveParameter signals a zero or inconsistent pool
	// parameter on init or reset.
	ErrInvalidCurveParameter = errors.New("invalid curve parameter")
	// ErrCurveOverflow signals a price that left the 256 bit range,
	// nothing is ever saturated silently.
	ErrCurveOverflow = errors.New("curve price overflow")
)

// scaleOne is one whole unit in fixed point, prices and quantities
// carry 18 decimals.
var scaleOne = num.UintZero().Exp(num.NewUint(10), num.NewUint(18))

// Quote is the outcome of pricing one trade on the curve.
type Quote struct {
	// Price the trade executes at
	Price *num.Uint
	// pool price before and after the quantity moved
	PrePrice  *num.Uint
	PostPrice *num.Uint
	// absolute relative price change caused by the trade
	Impact num.Decimal
}

// State is a copy of the pool state for external readers.
type State struct {
	K               *num.Uint
	Quantity        *num.Uint
	MinQuantity     *num.Uint
	LastPrice       *num.Uint
	CumulativeLong  uint64
	CumulativeShort uint64
}

// Engine prices trades on the synthetic bonding curve price = K/Q².
// Longs withdraw from the virtual quantity, shorts deposit into it, K
// moves only on init or an explicit reset.
type Engine struct {
	log *logging.Logger
	Config

	cfgMu sync.Mutex

	k           *num.Uint
	quantity    *num.Uint
	minQuantity *num.Uint
	lastPrice   *num.Uint

	cumulativeLong  uint64
	cumulativeShort uint64
}

// New instantiates the curve engine with its initial pool parameters,
// the constant is derived from price and quantity once here.
func New(log *logging.Logger, conf Config, price, quantity, minQuantity *num.Uint) (*Engine, error) {
	// setup logger
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())

	e := &Engine{
		log:    log,
		Config: conf,
	}
	if err := e.Reset(price, quantity, minQuantity); err != nil {
		return nil, err
	}
	return e, nil
}

// ReloadConf updates the internal configuration of the curve engine.
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

// Reset re-seeds the pool, recomputing the constant from the given
// price and quantity and clearing the cumulative totals. This is the
// only path that moves K, trades never do.
func (e *Engine) Reset(price, quantity, minQuantity *num.Uint) error {
	if price == nil || price.IsZero() {
		return ErrInvalidCurveParameter
	}
	if quantity == nil || quantity.IsZero() {
		return ErrInvalidCurveParameter
	}
	if minQuantity == nil {
		minQuantity = num.UintZero()
	}
	if minQuantity.GTE(quantity) {
		return ErrInvalidCurveParameter
	}

	// K = price*Q²/ONE², staged as (price*Q/ONE)*Q/ONE to hold
	// precision without leaving 256 bits
	k, overflow := num.UintZero().MulOverflow(price, quantity)
	if overflow {
		return ErrInvalidCurveParameter
	}
	k.Div(k, scaleOne)
	k, overflow = k.MulOverflow(k, quantity)
	if overflow {
		return ErrInvalidCurveParameter
	}
	k.Div(k, scaleOne)
	if k.IsZero() {
		return ErrInvalidCurveParameter
	}

	e.k = k
	e.quantity = quantity.Clone()
	e.minQuantity = minQuantity.Clone()
	e.lastPrice = price.Clone()
	e.cumulativeLong = 0
	e.cumulativeShort = 0

	e.log.Info("curve pool seeded",
		logging.BigUint("k", e.k),
		logging.BigUint("quantity", e.quantity),
		logging.BigUint("min-quantity", e.minQuantity),
		logging.BigUint("price", e.lastPrice),
	)
	return nil
}

// Execute prices and commits a trade on the curve. The execution price
// is the midpoint of the pool price before and after the move, the
// impact the absolute relative change between them.
func (e *Engine) Execute(size uint64, isLong bool) (*Quote, error) {
	quote, qPost, err := e.quote(size, isLong)
	if err != nil {
		return nil, err
	}

	e.quantity = qPost
	e.lastPrice = quote.PostPrice.Clone()
	if isLong {
		e.cumulativeLong += size
	} else {
		e.cumulativeShort += size
	}
	if e.log.GetLevel() == logging.DebugLevel {
		e.log.Debug("curve trade executed",
			logging.Uint64("size", size),
			logging.Bool("is-long", isLong),
			logging.BigUint("price", quote.Price),
			logging.Decimal("impact", quote.Impact),
		)
	}
	return quote, nil
}

// Close unwinds a position, reversing the quantity movement of the
// original trade under the same floor guard. Closing trades settle at
// the post-trade price, no midpoint averaging.
func (e *Engine) Close(size uint64, isLong bool) (*Quote, error) {
	quote, qPost, err := e.closeQuote(size, isLong)
	if err != nil {
		return nil, err
	}

	e.quantity = qPost
	e.lastPrice = quote.PostPrice.Clone()
	if isLong {
		e.cumulativeLong -= num.MinV(size, e.cumulativeLong)
	} else {
		e.cumulativeShort -= num.MinV(size, e.cumulativeShort)
	}
	return quote, nil
}

// Simulate reproduces Execute without committing anything, used for
// pre-trade quotes.
func (e *Engine) Simulate(size uint64, isLong bool) (*Quote, error) {
	quote, _, err := e.quote(size, isLong)
	return quote, err
}

// SimulateClose reproduces Close without committing anything, used to
// price an unwind before it lands.
func (e *Engine) SimulateClose(size uint64, isLong bool) (*Quote, error) {
	quote, _, err := e.closeQuote(size, isLong)
	return quote, err
}

// Sensitivity is the magnitude of the price derivative 2K/Q³ at the
// current quantity, in fixed point.
func (e *Engine) Sensitivity() (*num.Uint, error) {
	price, err := e.priceAt(e.quantity)
	if err != nil {
		return nil, err
	}
	// 2K/Q³ = 2*price/Q
	s, overflow := num.UintZero().MulOverflow(price, num.NewUint(2))
	if overflow {
		return nil, ErrCurveOverflow
	}
	s, overflow = s.MulOverflow(s, scaleOne)
	if overflow {
		return nil, ErrCurveOverflow
	}
	return s.Div(s, e.quantity), nil
}

// Price is the current pool price.
func (e *Engine) Price() (*num.Uint, error) {
	return e.priceAt(e.quantity)
}

// State returns a copy of the pool state.
func (e *Engine) State() *State {
	return &State{
		K:               e.k.Clone(),
		Quantity:        e.quantity.Clone(),
		MinQuantity:     e.minQuantity.Clone(),
		LastPrice:       e.lastPrice.Clone(),
		CumulativeLong:  e.cumulativeLong,
		CumulativeShort: e.cumulativeShort,
	}
}

func (e *Engine) quote(size uint64, isLong bool) (*Quote, *num.Uint, error) {
	delta, overflow := num.UintZero().MulOverflow(num.NewUint(size), scaleOne)
	if overflow {
		return nil, nil, ErrTradeTooLarge
	}
	qPost, err := e.moveQuantity(delta, isLong)
	if err != nil {
		return nil, nil, err
	}
	pre, err := e.priceAt(e.quantity)
	if err != nil {
		return nil, nil, err
	}
	post, err := e.priceAt(qPost)
	if err != nil {
		return nil, nil, err
	}

	// midpoint of the pre and post pool prices
	mid, overflow := num.UintZero().AddOverflow(pre, post)
	if overflow {
		return nil, nil, ErrCurveOverflow
	}
	mid.Div(mid, num.NewUint(2))

	return &Quote{
		Price:     mid,
		PrePrice:  pre,
		PostPrice: post,
		Impact:    impactOf(pre, post),
	}, qPost, nil
}

func (e *Engine) closeQuote(size uint64, isLong bool) (*Quote, *num.Uint, error) {
	delta, overflow := num.UintZero().MulOverflow(num.NewUint(size), scaleOne)
	if overflow {
		return nil, nil, ErrTradeTooLarge
	}

	// closing a long deposits the quantity back, closing a short
	// withdraws it
	qPost, err := e.moveQuantity(delta, !isLong)
	if err != nil {
		return nil, nil, err
	}
	pre, err := e.priceAt(e.quantity)
	if err != nil {
		return nil, nil, err
	}
	post, err := e.priceAt(qPost)
	if err != nil {
		return nil, nil, err
	}

	return &Quote{
		Price:     post.Clone(),
		PrePrice:  pre,
		PostPrice: post,
		Impact:    impactOf(pre, post),
	}, qPost, nil
}

// moveQuantity applies the quantity movement of a trade, withdrawing
// for longs and depositing for shorts, guarding the floor.
func (e *Engine) moveQuantity(delta *num.Uint, withdraw bool) (*num.Uint, error) {
	if withdraw {
		if delta.GTE(e.quantity) {
			return nil, ErrTradeTooLarge
		}
		qPost := num.UintZero().Sub(e.quantity, delta)
		if qPost.LTE(e.minQuantity) {
			return nil, ErrTradeTooLarge
		}
		return qPost, nil
	}
	qPost, overflow := num.UintZero().AddOverflow(e.quantity, delta)
	if overflow {
		return nil, ErrTradeTooLarge
	}
	return qPost, nil
}

// priceAt computes K·ONE²/Q² at the given quantity, floor divided in
// stages to stay inside 256 bits.
func (e *Engine) priceAt(q *num.Uint) (*num.Uint, error) {
	t, overflow := num.UintZero().MulOverflow(e.k, scaleOne)
	if overflow {
		return nil, ErrCurveOverflow
	}
	t.Div(t, q)
	t, overflow = t.MulOverflow(t, scaleOne)
	if overflow {
		return nil, ErrCurveOverflow
	}
	return t.Div(t, q), nil
}

// impactOf is the absolute relative change between the pre and post
// prices.
func impactOf(pre, post *num.Uint) num.Decimal {
	if pre.IsZero() {
		return num.DecimalZero()
	}
	diff, _ := num.UintZero().Delta(post, pre)
	return num.DecimalFromUint(diff).Div(num.DecimalFromUint(pre))
}
