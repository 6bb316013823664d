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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingModeRoundTrip(t *testing.T) {
	modes := []types.PricingMode{
		types.ModeBookOnly,
		types.ModeHybrid,
		types.ModeCurveOnly,
		types.ModeExternalPrice,
	}
	for _, m := range modes {
		require.True(t, m.IsValid(), m.String())
		assert.Equal(t, m, types.PricingModeFromString(m.String()))
	}

	assert.Equal(t, types.ModeUnspecified, types.PricingModeFromString("sideways"))
	assert.Equal(t, types.ModeUnspecified, types.PricingModeFromString(""))
	assert.False(t, types.ModeUnspecified.IsValid())
	assert.Equal(t, "unspecified", types.ModeUnspecified.String())
}

func TestPricingModeRouting(t *testing.T) {
	assert.True(t, types.ModeBookOnly.UsesBook())
	assert.False(t, types.ModeBookOnly.UsesCurve())

	assert.True(t, types.ModeHybrid.UsesBook())
	assert.True(t, types.ModeHybrid.UsesCurve())

	assert.False(t, types.ModeCurveOnly.UsesBook())
	assert.True(t, types.ModeCurveOnly.UsesCurve())

	// external pricing touches neither mechanism
	assert.False(t, types.ModeExternalPrice.UsesBook())
	assert.False(t, types.ModeExternalPrice.UsesCurve())
}

func TestSideRoundTrip(t *testing.T) {
	assert.Equal(t, types.SideBuy, types.SideFromString("buy"))
	assert.Equal(t, types.SideSell, types.SideFromString("sell"))
	assert.Equal(t, types.SideUnspecified, types.SideFromString("hold"))

	assert.Equal(t, types.SideSell, types.SideBuy.Opposite())
	assert.Equal(t, types.SideBuy, types.SideSell.Opposite())
	assert.Equal(t, types.SideUnspecified, types.SideUnspecified.Opposite())

	assert.Equal(t, types.SideBuy, types.SideFromIsLong(true))
	assert.Equal(t, types.SideSell, types.SideFromIsLong(false))
}
