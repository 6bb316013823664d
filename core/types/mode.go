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

// PricingMode selects which mechanisms price an incoming trade.
// Changing the mode is a privileged operation and takes effect on
// the next trade, never mid-trade.
type PricingMode int32

const (
	// ModeUnspecified the default value, always invalid.
	ModeUnspecified PricingMode = iota
	// ModeBookOnly all volume is matched against the order book.
	ModeBookOnly
	// ModeHybrid book liquidity first, remainder priced on the curve.
	ModeHybrid
	// ModeCurveOnly all volume is priced on the bonding curve.
	ModeCurveOnly
	// ModeExternalPrice all volume is priced at the external reference
	// price, no book, no curve, no price impact.
	ModeExternalPrice
)

func (m PricingMode) String() string {
	switch m {
	case ModeBookOnly:
		return "book-only"
	case ModeHybrid:
		return "hybrid"
	case ModeCurveOnly:
		return "curve-only"
	case ModeExternalPrice:
		return "external-price"
	default:
		return "unspecified"
	}
}

// IsValid returns whether the mode is one a market can be set to.
func (m PricingMode) IsValid() bool {
	switch m {
	case ModeBookOnly, ModeHybrid, ModeCurveOnly, ModeExternalPrice:
		return true
	default:
		return false
	}
}

// UsesBook returns whether trades in this mode take book liquidity.
func (m PricingMode) UsesBook() bool {
	return m == ModeBookOnly || m == ModeHybrid
}

// UsesCurve returns whether trades in this mode execute on the curve.
func (m PricingMode) UsesCurve() bool {
	return m == ModeHybrid || m == ModeCurveOnly
}

// PricingModeFromString parses a mode name as used in configuration
// and scenario files.
func PricingModeFromString(s string) PricingMode {
	switch s {
	case "book-only":
		return ModeBookOnly
	case "hybrid":
		return ModeHybrid
	case "curve-only":
		return ModeCurveOnly
	case "external-price":
		return ModeExternalPrice
	default:
		return ModeUnspecified
	}
}
