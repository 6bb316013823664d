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

// Trade is one fill between two orders on the book. The price is the
// price of whichever resting order arrived first (maker price rule).
type Trade struct {
	ID        string
	Price     *num.Uint
	Size      uint64
	Buyer     string
	Seller    string
	Aggressor Side
	BuyOrder  uint64
	SellOrder uint64
	Timestamp int64
}

func (t Trade) Clone() *Trade {
	cpy := t
	if t.Price != nil {
		cpy.Price = t.Price.Clone()
	} else {
		cpy.Price = num.UintZero()
	}
	return &cpy
}

func (t Trade) String() string {
	return fmt.Sprintf(
		"ID(%s) price(%s) size(%v) buyer(%s) seller(%s) aggressor(%s) buyOrder(%d) sellOrder(%d) timestamp(%v)",
		t.ID,
		uintPointerToString(t.Price),
		t.Size,
		t.Buyer,
		t.Seller,
		t.Aggressor.String(),
		t.BuyOrder,
		t.SellOrder,
		t.Timestamp,
	)
}

type Trades []*Trade

// TradeSettlement is the single record emitted for one executed
// trade, covering every mechanism the volume was routed through.
// Book and curve components always sum to the total volume.
type TradeSettlement struct {
	ID     string
	Party  string
	IsLong bool
	// Volume is the total executed size in position units.
	Volume uint64
	// BookVolume is the part filled against resting orders.
	BookVolume uint64
	// CurveVolume is the part executed on the bonding curve, or at
	// the external reference price in external-price mode.
	CurveVolume uint64
	// VWAP is the volume weighted average price across components.
	VWAP *num.Uint
	// Fee is the fee amount charged, FeeRate times notional.
	Fee     *num.Uint
	FeeRate num.Decimal
	Mode    PricingMode
	// CreatedAt is the engine time of execution, nanos since epoch.
	CreatedAt int64
}

func (s TradeSettlement) Clone() *TradeSettlement {
	cpy := s
	if s.VWAP != nil {
		cpy.VWAP = s.VWAP.Clone()
	} else {
		cpy.VWAP = num.UintZero()
	}
	if s.Fee != nil {
		cpy.Fee = s.Fee.Clone()
	} else {
		cpy.Fee = num.UintZero()
	}
	return &cpy
}

func (s TradeSettlement) String() string {
	return fmt.Sprintf(
		"ID(%s) party(%s) isLong(%v) volume(%v) bookVolume(%v) curveVolume(%v) vwap(%s) fee(%s) feeRate(%s) mode(%s) createdAt(%v)",
		s.ID,
		s.Party,
		s.IsLong,
		s.Volume,
		s.BookVolume,
		s.CurveVolume,
		uintPointerToString(s.VWAP),
		uintPointerToString(s.Fee),
		s.FeeRate.String(),
		s.Mode.String(),
		s.CreatedAt,
	)
}
