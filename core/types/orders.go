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

package types

import (
	"fmt"

	"code.denebmarkets.io/deneb/libs/num"
)

// Order is a resting limit order. IDs are allocated from a monotonic
// sequence at submission, so ID order is creation order and time
// priority within a price level can be resolved on the ID alone.
type Order struct {
	ID        uint64
	Party     string
	Side      Side
	Price     *num.Uint
	Size      uint64
	Remaining uint64
	// Reserved is the collateral currently held against the unfilled
	// remainder, released pro-rata as the order fills.
	Reserved  *num.Uint
	CreatedAt int64
}

func (o Order) Clone() *Order {
	cpy := o
	if o.Price != nil {
		cpy.Price = o.Price.Clone()
	} else {
		cpy.Price = num.UintZero()
	}
	if o.Reserved != nil {
		cpy.Reserved = o.Reserved.Clone()
	} else {
		cpy.Reserved = num.UintZero()
	}
	return &cpy
}

func (o Order) String() string {
	return fmt.Sprintf(
		"ID(%d) party(%s) side(%s) price(%s) size(%v) remaining(%v) reserved(%s) createdAt(%v)",
		o.ID,
		o.Party,
		o.Side.String(),
		uintPointerToString(o.Price),
		o.Size,
		o.Remaining,
		uintPointerToString(o.Reserved),
		o.CreatedAt,
	)
}

type Orders []*Order

// PriceLevel is the view of one book level returned by depth reads.
type PriceLevel struct {
	Price          *num.Uint
	NumberOfOrders uint64
	Volume         uint64
}

type PriceLevels []*PriceLevel

func uintPointerToString(u *num.Uint) string {
	if u == nil {
		return "nil"
	}
	return u.String()
}
