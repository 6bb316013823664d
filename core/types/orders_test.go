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

package types_test

import (
	"testing"

	"code.denebmarkets.io/deneb/core/types"
	"code.denebmarkets.io/deneb/libs/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderClone(t *testing.T) {
	o := &types.Order{
		ID:        42,
		Party:     "zohar",
		Side:      types.SideBuy,
		Price:     num.NewUint(100),
		Size:      10,
		Remaining: 7,
		Reserved:  num.NewUint(700),
		CreatedAt: 1000,
	}

	cpy := o.Clone()
	require.Equal(t, o.String(), cpy.String())

	// mutating the clone's pointers must not leak back
	cpy.Price.AddSum(num.NewUint(1))
	cpy.Reserved.SetUint64(0)
	assert.Equal(t, "100", o.Price.String())
	assert.Equal(t, "700", o.Reserved.String())
}

func TestOrderCloneNilAmounts(t *testing.T) {
	cpy := (&types.Order{ID: 1}).Clone()
	require.NotNil(t, cpy.Price)
	require.NotNil(t, cpy.Reserved)
	assert.True(t, cpy.Price.IsZero())
	assert.True(t, cpy.Reserved.IsZero())
}

func TestSettlementClone(t *testing.T) {
	s := types.TradeSettlement{
		ID:          "s-1",
		Party:       "tal",
		IsLong:      true,
		Volume:      12,
		BookVolume:  5,
		CurveVolume: 7,
		VWAP:        num.NewUint(101),
		Fee:         num.NewUint(3),
		FeeRate:     num.MustDecimalFromString("0.001"),
		Mode:        types.ModeHybrid,
		CreatedAt:   2000,
	}

	cpy := s.Clone()
	require.Equal(t, s.String(), cpy.String())

	cpy.VWAP.SetUint64(0)
	cpy.Fee.SetUint64(0)
	assert.Equal(t, "101", s.VWAP.String())
	assert.Equal(t, "3", s.Fee.String())
}
