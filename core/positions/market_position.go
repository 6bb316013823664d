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
	"fmt"

	"code.denebmarkets.io/deneb/libs/num"
)

// MarketPosition is the open position of a single party, a signed open
// volume plus the volume weighted price it was entered at.
type MarketPosition struct {
	party string
	// open volume in units, positive when long
	size *num.Int
	// volume weighted entry price, zero while flat
	entryPrice *num.Uint
}

func newMarketPosition(party string) *MarketPosition {
	return &MarketPosition{
		party:      party,
		size:       num.IntZero(),
		entryPrice: num.UintZero(),
	}
}

// register folds an executed trade into the position. Adding to the
// position reweights the entry price, reducing keeps it, trading through
// flat re-enters at the trade price.
func (p *MarketPosition) register(size uint64, isLong bool, price *num.Uint) {
	trade := num.IntFromUint(num.NewUint(size), isLong)

	switch {
	case p.size.IsZero():
		p.size = trade
		p.entryPrice = price.Clone()
	case p.size.IsPositive() == isLong:
		// same direction, reweight the entry:
		// (entry*held + price*size) / (held+size)
		held := p.size.U.Clone()
		notional := num.UintZero().Mul(p.entryPrice, held)
		added := num.UintZero().Mul(price, num.NewUint(size))
		total := num.UintZero().Add(held, num.NewUint(size))
		p.entryPrice = num.UintZero().Div(num.UintZero().Add(notional, added), total)
		p.size.Add(trade)
	default:
		flipped := num.NewUint(size).GT(p.size.U)
		p.size.Add(trade)
		if p.size.IsZero() {
			p.entryPrice = num.UintZero()
		} else if flipped {
			// traded through flat, the remainder opens the other way
			p.entryPrice = price.Clone()
		}
	}
}

// Party returns the party holding the position.
func (p *MarketPosition) Party() string {
	return p.party
}

// Size returns the signed open volume, positive when long.
func (p *MarketPosition) Size() *num.Int {
	return p.size.Clone()
}

// EntryPrice returns the volume weighted entry price, zero while flat.
func (p *MarketPosition) EntryPrice() *num.Uint {
	return p.entryPrice.Clone()
}

// Clone returns a deep copy of the position.
func (p *MarketPosition) Clone() *MarketPosition {
	return &MarketPosition{
		party:      p.party,
		size:       p.size.Clone(),
		entryPrice: p.entryPrice.Clone(),
	}
}

func (p *MarketPosition) String() string {
	return fmt.Sprintf("party(%s) size(%s) entryPrice(%s)",
		p.party, p.size.String(), p.entryPrice.String())
}
