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
	"fmt"

	"code.denebmarkets.io/deneb/core/types"
	"code.denebmarkets.io/deneb/libs/num"
)

// newTrade creates a trade of a given size between two orders. The
// timestamp is stamped by the book, the id by the market before the
// trade leaves the venue.
func newTrade(price *num.Uint, size uint64, agg, pass *types.Order, aggressor types.Side) *types.Trade {
	buy := getOrderForSide(types.SideBuy, agg, pass)
	sell := getOrderForSide(types.SideSell, agg, pass)
	return &types.Trade{
		Price:     price,
		Size:      size,
		Buyer:     buy.Party,
		Seller:    sell.Party,
		Aggressor: aggressor,
		BuyOrder:  buy.ID,
		SellOrder: sell.ID,
	}
}

// getOrderForSide works out which of the aggressive and passive orders
// is the buyer or the seller.
func getOrderForSide(side types.Side, agg, pass *types.Order) *types.Order {
	if agg.Side == pass.Side {
		panic(fmt.Sprintf("agg.side == pass.side (agg: %v, pass: %v)", agg, pass))
	}
	if agg.Side == side {
		return agg
	}
	// pass.side == side
	return pass
}
