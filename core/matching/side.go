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
	"encoding/binary"

	"code.denebmarkets.io/deneb/core/types"
	"code.denebmarkets.io/deneb/libs/crypto"
	"code.denebmarkets.io/deneb/libs/num"
	"code.denebmarkets.io/deneb/logging"

	"github.com/google/btree"
	"github.com/pkg/errors"
)

// ErrPriceNotFound signals that a price was not found on the book side.
var ErrPriceNotFound = errors.New("price-volume pair not found")

// OrderBookSide represent a side of the book, either Sell or Buy.
// Levels live in a btree ordered best price first.
type OrderBookSide struct {
	side   types.Side
	log    *logging.Logger
	levels *btree.BTree
}

func newSide(log *logging.Logger, side types.Side) *OrderBookSide {
	return &OrderBookSide{
		side:   side,
		log:    log,
		levels: btree.New(2),
	}
}

func (s *OrderBookSide) Hash() []byte {
	// 32 num.Uint.Bytes() for price + 8 for volume, best level first
	output := make([]byte, s.levels.Len()*40)
	var i int
	s.levels.Ascend(func(item btree.Item) bool {
		l := item.(*PriceLevel)
		// Data is already coming as big endian out of
		// Uint.Bytes()
		price := l.price.Bytes()
		copy(output[i:], price[:])
		i += 32
		binary.BigEndian.PutUint64(output[i:], l.volume)
		i += 8
		return true
	})
	return crypto.Hash(output)
}

func (s *OrderBookSide) addOrder(o *types.Order) {
	s.getPriceLevel(o.Price).addOrder(o)
}

// BestPriceAndVolume returns the top of book price and volume
// returns an error if the book is empty.
func (s *OrderBookSide) BestPriceAndVolume() (*num.Uint, uint64, error) {
	best := s.bestLevel()
	if best == nil {
		return num.UintZero(), 0, ErrNoOrdersOnBook
	}
	return best.price.Clone(), best.volume, nil
}

// bestLevel is the level trading next, the tree orders levels best
// price first.
func (s *OrderBookSide) bestLevel() *PriceLevel {
	item := s.levels.Min()
	if item == nil {
		return nil
	}
	return item.(*PriceLevel)
}

// removeOrder takes the order out of its price level, dropping the
// level once it holds no order.
func (s *OrderBookSide) removeOrder(o *types.Order) error {
	lvl := s.getPriceLevelIfExists(o.Price)
	if lvl == nil {
		return ErrOrderNotFound
	}

	// now we may have a few orders on the level, iterate to
	// find the right one
	finaloidx := -1
	for index, order := range lvl.orders {
		if order.ID == o.ID {
			finaloidx = index
			break
		}
	}
	if finaloidx == -1 {
		return ErrOrderNotFound
	}
	lvl.removeOrder(finaloidx)

	if len(lvl.orders) == 0 {
		s.levels.Delete(lvl)
	}
	return nil
}

func (s *OrderBookSide) getPriceLevelIfExists(price *num.Uint) *PriceLevel {
	item := s.levels.Get(&PriceLevel{side: s.side, price: price})
	if item == nil {
		return nil
	}
	return item.(*PriceLevel)
}

func (s *OrderBookSide) getPriceLevel(price *num.Uint) *PriceLevel {
	if lvl := s.getPriceLevelIfExists(price); lvl != nil {
		return lvl
	}
	lvl := NewPriceLevel(s.side, price.Clone())
	s.levels.ReplaceOrInsert(lvl)
	return lvl
}

// GetVolume returns the volume at the given pricelevel.
func (s *OrderBookSide) GetVolume(price *num.Uint) (uint64, error) {
	lvl := s.getPriceLevelIfExists(price)
	if lvl == nil {
		return 0, ErrPriceNotFound
	}
	return lvl.volume, nil
}

// uncross fills the aggressive order against the side, best level
// first, FIFO within a level, while the prices still cross. Trades are
// struck at the resting level price. The onFill callback runs for every
// maker fill before book state moves so reservations can be settled, an
// error from it aborts the walk.
func (s *OrderBookSide) uncross(agg *types.Order, onFill func(maker *types.Order, size uint64) error) ([]*types.Trade, error) {
	var (
		trades  []*types.Trade
		emptied []*PriceLevel
		ferr    error
	)

	// a taker without a price takes whatever the book offers
	crossed := func(levelPrice *num.Uint) bool {
		if agg.Price == nil || agg.Price.IsZero() {
			return true
		}
		if agg.Side == types.SideBuy {
			return levelPrice.LTE(agg.Price)
		}
		return levelPrice.GTE(agg.Price)
	}

	s.levels.Ascend(func(item btree.Item) bool {
		lvl := item.(*PriceLevel)
		if agg.Remaining == 0 || !crossed(lvl.price) {
			return false
		}
		for agg.Remaining > 0 && len(lvl.orders) > 0 {
			maker := lvl.orders[0]
			size := num.MinV(agg.Remaining, maker.Remaining)
			if err := onFill(maker, size); err != nil {
				ferr = err
				return false
			}
			trades = append(trades, newTrade(lvl.price.Clone(), size, agg, maker, agg.Side))
			agg.Remaining -= size
			maker.Remaining -= size
			lvl.reduceVolume(size)
			if maker.Remaining == 0 {
				lvl.removeOrder(0)
			}
		}
		if len(lvl.orders) == 0 {
			// deleting from the tree mid walk is not safe, collect
			// the emptied levels and drop them after
			emptied = append(emptied, lvl)
		}
		return agg.Remaining > 0
	})

	for _, lvl := range emptied {
		s.levels.Delete(lvl)
	}
	return trades, ferr
}

// fakeUncross returns the hypothetical trades of uncrossing the
// aggressive order against the side, the book is left untouched.
func (s *OrderBookSide) fakeUncross(agg *types.Order) []*types.Trade {
	var trades []*types.Trade

	crossed := func(levelPrice *num.Uint) bool {
		if agg.Price == nil || agg.Price.IsZero() {
			return true
		}
		if agg.Side == types.SideBuy {
			return levelPrice.LTE(agg.Price)
		}
		return levelPrice.GTE(agg.Price)
	}

	fake := agg.Clone()
	if fake.Remaining == 0 {
		fake.Remaining = fake.Size
	}
	s.levels.Ascend(func(item btree.Item) bool {
		lvl := item.(*PriceLevel)
		if fake.Remaining == 0 || !crossed(lvl.price) {
			return false
		}
		for _, maker := range lvl.orders {
			if fake.Remaining == 0 {
				break
			}
			size := num.MinV(fake.Remaining, maker.Remaining)
			trades = append(trades, newTrade(lvl.price.Clone(), size, fake, maker, fake.Side))
			fake.Remaining -= size
		}
		return fake.Remaining > 0
	})
	return trades
}

// getDepth returns up to maxLevels price levels of the side, best
// first, all of them when maxLevels is zero.
func (s *OrderBookSide) getDepth(maxLevels uint64) []*types.PriceLevel {
	out := make([]*types.PriceLevel, 0, s.levels.Len())
	s.levels.Ascend(func(item btree.Item) bool {
		l := item.(*PriceLevel)
		out = append(out, &types.PriceLevel{
			Price:          l.price.Clone(),
			NumberOfOrders: uint64(len(l.orders)),
			Volume:         l.volume,
		})
		return maxLevels == 0 || uint64(len(out)) < maxLevels
	})
	return out
}

func (s *OrderBookSide) getOrderCount() int64 {
	var orderCount int64
	s.levels.Ascend(func(item btree.Item) bool {
		orderCount += int64(len(item.(*PriceLevel).orders))
		return true
	})
	return orderCount
}

func (s *OrderBookSide) getTotalVolume() int64 {
	var volume int64
	s.levels.Ascend(func(item btree.Item) bool {
		volume += int64(item.(*PriceLevel).volume)
		return true
	})
	return volume
}
