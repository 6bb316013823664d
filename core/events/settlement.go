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
	"code.denebmarkets.io/deneb/libs/num"
)

// Settlement wraps the one settlement record an executed trade
// produces, whichever mechanisms the volume was routed through.
type Settlement struct {
	*Base
	s *types.TradeSettlement
}

func NewSettlementEvent(ctx context.Context, s *types.TradeSettlement) *Settlement {
	return &Settlement{
		Base: newBase(ctx, SettlementEvent),
		s:    s.Clone(),
	}
}

// Settlement returns the settlement payload. Callers must not mutate it.
func (s Settlement) Settlement() *types.TradeSettlement {
	return s.s
}

func (s Settlement) IsParty(id string) bool {
	return s.s.Party == id
}

func (s Settlement) PartyID() string {
	return s.s.Party
}

func (s Settlement) Volume() uint64 {
	return s.s.Volume
}

func (s Settlement) VWAP() *num.Uint {
	return s.s.VWAP.Clone()
}
