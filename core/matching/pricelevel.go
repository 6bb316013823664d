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
	"code.denebmarkets.io/deneb/core/types"
	"code.denebmarkets.io/deneb/libs/num"

	"github.com/google/btree"
)

// PriceLevel holds the resting orders sharing one price, in strict
// arrival order. Orders are referenced, never copied, the level and the
// book id map point at the same records.
type PriceLevel struct {
	side   types.Side
	price  *num.Uint
	orders []*types.Order
	volume uint64
}

func NewPriceLevel(side types.Side, price *num.Uint) *PriceLevel {
	return &PriceLevel{
		side:   side,
		price:  price,
		orders: []*types.Order{},
	}
}

// Less orders the levels of a side best first, so iterating the tree in
// ascending order walks buys by descending price and sells by ascending
// price.
func (l *PriceLevel) Less(other btree.Item) bool {
	if l.side == types.SideBuy {
		return l.price.GT(other.(*PriceLevel).price)
	}
	return l.price.LT(other.(*PriceLevel).price)
}

func (l *PriceLevel) addOrder(o *types.Order) {
	l.orders = append(l.orders, o)
	l.volume += o.Remaining
}

func (l *PriceLevel) removeOrder(index int) {
	l.volume -= l.orders[index].Remaining
	copy(l.orders[index:], l.orders[index+1:])
	l.orders[len(l.orders)-1] = nil
	l.orders = l.orders[:len(l.orders)-1]
}

func (l *PriceLevel) reduceVolume(reduceBy uint64) {
	l.volume -= reduceBy
}

// first returns the oldest resting order of the level, the one trading
// next under price-time priority.
func (l *PriceLevel) first() *types.Order {
	if len(l.orders) == 0 {
		return nil
	}
	return l.orders[0]
}
