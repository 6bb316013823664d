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

package matching

import (
	"sync"

	"code.denebmarkets.io/deneb/core/types"
	"code.denebmarkets.io/deneb/libs/crypto"
	"code.denebmarkets.io/deneb/libs/num"
	"code.denebmarkets.io/deneb/logging"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidOrderPrice signals a nil or zero price on submission.
	ErrInvalidOrderPrice = errors.New("invalid order price")
	// ErrInvalidOrderSize signals a zero size on submission.
	ErrInvalidOrderSize = errors.New("invalid order size")
	// ErrInvalidOrderSide signals an order with no buy or sell side.
	ErrInvalidOrderSide = errors.New("invalid order side")
	// ErrOrderNotFound signals the order is not resting on the book.
	ErrOrderNotFound = errors.New("order not found")
	// ErrNotOrderOwner signals a party operating on a foreign order.
	ErrNotOrderOwner = errors.New("not the order owner")
	// ErrNoOrdersOnBook signals an empty book side.
	ErrNoOrdersOnBook = errors.New("no orders on the book")
)

// scaleOne is one whole unit in fixed point, prices and amounts carry
// 18 decimals.
var scaleOne = num.UintZero().Exp(num.NewUint(10), num.NewUint(18))

// Custody is the interface to the collateral engine. Funds are held
// against resting orders and handed back as orders fill or cancel.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/custody_mock.go -package mocks code.denebmarkets.io/deneb/core/matching Custody
type Custody interface {
	Reserve(owner, asset string, amount *num.Uint) error
	Release(owner, asset string, amount *num.Uint) error
}

// OrderBook represents the matching engine of one market, two btree
// backed sides matched under price-time priority.
type OrderBook struct {
	log *logging.Logger
	Config

	cfgMu           sync.Mutex
	marketID        string
	baseAsset       string
	quoteAsset      string
	custody         Custody
	buy             *OrderBookSide
	sell            *OrderBookSide
	lastOrderID     uint64
	latestTimestamp int64

	// resting orders by id
	ordersByID map[uint64]*types.Order
}

// NewOrderBook instantiates a new matching engine for the market.
func NewOrderBook(log *logging.Logger, config Config, marketID, baseAsset, quoteAsset string, custody Custody) *OrderBook {
	// setup logger
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &OrderBook{
		log:        log,
		Config:     config,
		marketID:   marketID,
		baseAsset:  baseAsset,
		quoteAsset: quoteAsset,
		custody:    custody,
		buy:        newSide(log, types.SideBuy),
		sell:       newSide(log, types.SideSell),
		ordersByID: map[uint64]*types.Order{},
	}
}

// ReloadConf updates the internal configuration of the matching engine.
func (b *OrderBook) ReloadConf(cfg Config) {
	b.log.Info("reloading configuration")
	if b.log.GetLevel() != cfg.Level.Get() {
		b.log.Info("updating log level",
			logging.String("old", b.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		b.log.SetLevel(cfg.Level.Get())
	}

	b.cfgMu.Lock()
	b.Config = cfg
	b.cfgMu.Unlock()
}

// SubmitOrder validates the order, reserves its collateral and rests it
// on the book. The order is assigned the next id of the book, creation
// order is id order.
func (b *OrderBook) SubmitOrder(o *types.Order) (uint64, error) {
	if o.Side != types.SideBuy && o.Side != types.SideSell {
		return 0, ErrInvalidOrderSide
	}
	if o.Price == nil || o.Price.IsZero() {
		return 0, ErrInvalidOrderPrice
	}
	if o.Size == 0 {
		return 0, ErrInvalidOrderSize
	}

	amount, err := b.reservation(o)
	if err != nil {
		return 0, err
	}
	// nothing rests until the funds are held
	if err := b.custody.Reserve(o.Party, b.reservedAsset(o.Side), amount); err != nil {
		return 0, err
	}

	b.lastOrderID++
	o.ID = b.lastOrderID
	o.Remaining = o.Size
	o.Reserved = amount
	b.latestTimestamp = o.CreatedAt

	b.sideFor(o.Side).addOrder(o)
	b.ordersByID[o.ID] = o

	if b.log.GetLevel() == logging.DebugLevel {
		b.log.Debug("order resting on book", logging.Order(*o))
	}
	return o.ID, nil
}

// CancelOrder removes the party's order from the book after releasing
// the reservation still held for its unfilled remainder.
func (b *OrderBook) CancelOrder(party string, id uint64) (*types.Order, error) {
	o, ok := b.ordersByID[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	if o.Party != party {
		return nil, ErrNotOrderOwner
	}

	// release first, the book stays intact when the custody engine
	// refuses
	if err := b.custody.Release(o.Party, b.reservedAsset(o.Side), o.Reserved.Clone()); err != nil {
		return nil, err
	}
	o.Reserved = num.UintZero()
	if err := b.sideFor(o.Side).removeOrder(o); err != nil {
		b.log.Error("order in id map but not on its side",
			logging.Order(*o),
			logging.Error(err),
		)
		return nil, err
	}
	delete(b.ordersByID, id)
	return o.Clone(), nil
}

// Uncross matches the book while the best buy price meets or crosses
// the best sell price. Each trade is struck at the price of whichever
// resting order has the lower id, the earlier order already set its
// terms. Returns the traded volume, the volume weighted average price
// over it, and the trades oldest first.
func (b *OrderBook) Uncross() (uint64, *num.Uint, []*types.Trade, error) {
	var (
		trades      []*types.Trade
		totalVolume uint64
		totalValue  = num.UintZero()
	)

	for {
		buyLvl, sellLvl := b.buy.bestLevel(), b.sell.bestLevel()
		if buyLvl == nil || sellLvl == nil || buyLvl.price.LT(sellLvl.price) {
			break
		}
		buyOrder, sellOrder := buyLvl.first(), sellLvl.first()

		price := buyOrder.Price
		if sellOrder.ID < buyOrder.ID {
			price = sellOrder.Price
		}
		size := num.MinV(buyOrder.Remaining, sellOrder.Remaining)

		if err := b.fill(buyOrder, size); err != nil {
			return totalVolume, b.vwap(totalValue, totalVolume), trades, err
		}
		if err := b.fill(sellOrder, size); err != nil {
			return totalVolume, b.vwap(totalValue, totalVolume), trades, err
		}

		trade := newTrade(price.Clone(), size, buyOrder, sellOrder, types.SideUnspecified)
		trade.Timestamp = b.latestTimestamp
		trades = append(trades, trade)
		totalVolume += size
		totalValue.AddSum(num.UintZero().Mul(price, num.NewUint(size)))

		buyOrder.Remaining -= size
		sellOrder.Remaining -= size
		buyLvl.reduceVolume(size)
		sellLvl.reduceVolume(size)
		if buyOrder.Remaining == 0 {
			buyLvl.removeOrder(0)
			delete(b.ordersByID, buyOrder.ID)
			if len(buyLvl.orders) == 0 {
				b.buy.levels.Delete(buyLvl)
			}
		}
		if sellOrder.Remaining == 0 {
			sellLvl.removeOrder(0)
			delete(b.ordersByID, sellOrder.ID)
			if len(sellLvl.orders) == 0 {
				b.sell.levels.Delete(sellLvl)
			}
		}
	}

	return totalVolume, b.vwap(totalValue, totalVolume), trades, nil
}

// UncrossWith fills the taker against the opposite side of the book.
// The taker never rests and holds no collateral, the caller settles the
// taker leg. Maker reservations release as they fill. A nil or zero
// taker price means no limit. Returns the filled volume, the volume
// weighted average price over the fills, and the trades.
func (b *OrderBook) UncrossWith(taker *types.Order) (uint64, *num.Uint, []*types.Trade, error) {
	if taker.Side != types.SideBuy && taker.Side != types.SideSell {
		return 0, num.UintZero(), nil, ErrInvalidOrderSide
	}
	if taker.Size == 0 {
		return 0, num.UintZero(), nil, ErrInvalidOrderSize
	}
	if taker.Remaining == 0 {
		taker.Remaining = taker.Size
	}
	if taker.CreatedAt > b.latestTimestamp {
		b.latestTimestamp = taker.CreatedAt
	}

	onFill := func(maker *types.Order, size uint64) error {
		if err := b.fill(maker, size); err != nil {
			return err
		}
		if size == maker.Remaining {
			delete(b.ordersByID, maker.ID)
		}
		return nil
	}

	trades, err := b.sideFor(taker.Side.Opposite()).uncross(taker, onFill)
	volume, value := uint64(0), num.UintZero()
	for _, t := range trades {
		t.Timestamp = b.latestTimestamp
		volume += t.Size
		value.AddSum(num.UintZero().Mul(t.Price, num.NewUint(t.Size)))
	}
	return volume, b.vwap(value, volume), trades, err
}

// FakeUncrossWith quotes the trades UncrossWith would produce for the
// taker without touching the book or any reservation.
func (b *OrderBook) FakeUncrossWith(taker *types.Order) (uint64, *num.Uint, []*types.Trade) {
	if taker.Side != types.SideBuy && taker.Side != types.SideSell {
		return 0, num.UintZero(), nil
	}
	trades := b.sideFor(taker.Side.Opposite()).fakeUncross(taker)
	volume, value := uint64(0), num.UintZero()
	for _, t := range trades {
		t.Timestamp = b.latestTimestamp
		volume += t.Size
		value.AddSum(num.UintZero().Mul(t.Price, num.NewUint(t.Size)))
	}
	return volume, b.vwap(value, volume), trades
}

// BestBid returns the highest resting buy price and its volume.
func (b *OrderBook) BestBid() (*num.Uint, uint64, error) {
	return b.buy.BestPriceAndVolume()
}

// BestOffer returns the lowest resting sell price and its volume.
func (b *OrderBook) BestOffer() (*num.Uint, uint64, error) {
	return b.sell.BestPriceAndVolume()
}

// GetVolumeAtPrice returns the resting volume at the exact price on the
// given side, zero when no level exists there.
func (b *OrderBook) GetVolumeAtPrice(price *num.Uint, side types.Side) uint64 {
	if side != types.SideBuy && side != types.SideSell {
		return 0
	}
	vol, err := b.sideFor(side).GetVolume(price)
	if err != nil {
		return 0
	}
	return vol
}

// BookDepth returns the aggregated price levels of both sides best
// first, up to maxLevels each, all of them when maxLevels is zero.
func (b *OrderBook) BookDepth(maxLevels uint64) ([]*types.PriceLevel, []*types.PriceLevel) {
	return b.buy.getDepth(maxLevels), b.sell.getDepth(maxLevels)
}

// GetOrderByID returns a copy of a resting order.
func (b *OrderBook) GetOrderByID(id uint64) (*types.Order, error) {
	o, ok := b.ordersByID[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return o.Clone(), nil
}

// GetTotalNumberOfOrders is the total number of orders on the book.
func (b *OrderBook) GetTotalNumberOfOrders() int64 {
	return b.buy.getOrderCount() + b.sell.getOrderCount()
}

// GetTotalVolume is the total remaining volume on the book.
func (b *OrderBook) GetTotalVolume() int64 {
	return b.buy.getTotalVolume() + b.sell.getTotalVolume()
}

// Hash returns a digest of the book built from the price and volume of
// every level of both sides.
func (b *OrderBook) Hash() []byte {
	return crypto.Hash(append(b.buy.Hash(), b.sell.Hash()...))
}

func (b *OrderBook) sideFor(side types.Side) *OrderBookSide {
	if side == types.SideBuy {
		return b.buy
	}
	return b.sell
}

func (b *OrderBook) reservedAsset(side types.Side) string {
	if side == types.SideBuy {
		return b.quoteAsset
	}
	return b.baseAsset
}

// reservation is the collateral an order locks while resting, the
// quote value of a buy, the base amount of a sell.
func (b *OrderBook) reservation(o *types.Order) (*num.Uint, error) {
	size := num.NewUint(o.Size)
	if o.Side == types.SideBuy {
		amount, overflow := num.UintZero().MulOverflow(o.Price, size)
		if overflow {
			return nil, ErrInvalidOrderPrice
		}
		return amount, nil
	}
	amount, overflow := num.UintZero().MulOverflow(size, scaleOne)
	if overflow {
		return nil, ErrInvalidOrderSize
	}
	return amount, nil
}

// fill settles the custody side of a maker fill, releasing the
// reservation pro rata to the size filled. The final fill releases
// whatever remains of the reservation so no dust stays locked.
func (b *OrderBook) fill(maker *types.Order, size uint64) error {
	var release *num.Uint
	if size >= maker.Remaining {
		release = maker.Reserved.Clone()
	} else {
		release = num.UintZero().Div(
			num.UintZero().Mul(maker.Reserved, num.NewUint(size)),
			num.NewUint(maker.Remaining),
		)
	}
	if err := b.custody.Release(maker.Party, b.reservedAsset(maker.Side), release); err != nil {
		return err
	}
	maker.Reserved.Sub(maker.Reserved, release)
	return nil
}

func (b *OrderBook) vwap(value *num.Uint, volume uint64) *num.Uint {
	if volume == 0 {
		return num.UintZero()
	}
	return num.UintZero().Div(value, num.NewUint(volume))
}
