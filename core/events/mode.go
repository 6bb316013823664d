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

package events

import (
	"context"

	"code.denebmarkets.io/deneb/core/types"
)

// ModeChange records a privileged pricing mode switch. The new mode
// takes effect from the next trade, never mid-call.
type ModeChange struct {
	*Base
	market string
	from   types.PricingMode
	to     types.PricingMode
	at     int64
}

func NewModeChangeEvent(ctx context.Context, market string, from, to types.PricingMode, at int64) *ModeChange {
	return &ModeChange{
		Base:   newBase(ctx, ModeChangeEvent),
		market: market,
		from:   from,
		to:     to,
		at:     at,
	}
}

func (m ModeChange) MarketID() string {
	return m.market
}

func (m ModeChange) From() types.PricingMode {
	return m.from
}

func (m ModeChange) To() types.PricingMode {
	return m.to
}

func (m ModeChange) Timestamp() int64 {
	return m.at
}
