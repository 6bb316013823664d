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

// Side relates to the direction of an order, to Buy, or Sell.
type Side int32

const (
	// SideUnspecified the default value, always invalid.
	SideUnspecified Side = iota
	// SideBuy for orders buying the base asset.
	SideBuy
	// SideSell for orders selling the base asset.
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unspecified"
	}
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	switch s {
	case SideBuy:
		return SideSell
	case SideSell:
		return SideBuy
	default:
		return SideUnspecified
	}
}

// SideFromIsLong maps the trade direction flag used by the pricing
// engines onto a book side, long positions buy the base asset.
func SideFromIsLong(isLong bool) Side {
	if isLong {
		return SideBuy
	}
	return SideSell
}

// SideFromString parses a side name as used in scenario files.
func SideFromString(s string) Side {
	switch s {
	case "buy":
		return SideBuy
	case "sell":
		return SideSell
	default:
		return SideUnspecified
	}
}
