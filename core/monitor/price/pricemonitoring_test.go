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

package price_test

import (
	"testing"

	"code.denebmarkets.io/deneb/core/monitor/price"
	"code.denebmarkets.io/deneb/libs/num"
	"code.denebmarkets.io/deneb/logging"

	"github.com/stretchr/testify/assert"
)

func getTestEngine(t *testing.T, bandBps uint64) *price.Engine {
	t.Helper()
	conf := price.NewDefaultConfig()
	conf.BandBasisPoints = bandBps
	return price.New(logging.NewTestLogger(), conf)
}

func TestCheckPrice(t *testing.T) {
	// 250 bps around 10000 allows 9750 to 10250 inclusive
	eng := getTestEngine(t, 250)
	ref := num.NewUint(10000)

	t.Run("prices inside the band pass", func(t *testing.T) {
		assert.NoError(t, eng.CheckPrice(num.NewUint(10000), ref))
		assert.NoError(t, eng.CheckPrice(num.NewUint(10100), ref))
		assert.NoError(t, eng.CheckPrice(num.NewUint(9800), ref))
	})
	t.Run("the band edge itself passes", func(t *testing.T) {
		assert.NoError(t, eng.CheckPrice(num.NewUint(10250), ref))
		assert.NoError(t, eng.CheckPrice(num.NewUint(9750), ref))
	})
	t.Run("one tick beyond the band fails", func(t *testing.T) {
		assert.ErrorIs(t, eng.CheckPrice(num.NewUint(10251), ref), price.ErrPriceOutOfBounds)
		assert.ErrorIs(t, eng.CheckPrice(num.NewUint(9749), ref), price.ErrPriceOutOfBounds)
	})
}

func TestGuardDisabledWithoutReference(t *testing.T) {
	eng := getTestEngine(t, 250)

	assert.NoError(t, eng.CheckPrice(num.NewUint(123456789), nil))
	assert.NoError(t, eng.CheckPrice(num.NewUint(123456789), num.UintZero()))
}

func TestZeroBandOnlyAcceptsTheReference(t *testing.T) {
	eng := getTestEngine(t, 0)
	ref := num.NewUint(5000)

	assert.NoError(t, eng.CheckPrice(num.NewUint(5000), ref))
	assert.ErrorIs(t, eng.CheckPrice(num.NewUint(5001), ref), price.ErrPriceOutOfBounds)
	assert.ErrorIs(t, eng.CheckPrice(num.NewUint(4999), ref), price.ErrPriceOutOfBounds)
}

func TestBandScalesWithReference(t *testing.T) {
	eng := getTestEngine(t, 100)

	// 1% of a small reference floors to the unit grid
	ref := num.NewUint(99)
	// floor(99 * 100 / 10000) = 0, only the reference itself passes
	assert.NoError(t, eng.CheckPrice(num.NewUint(99), ref))
	assert.ErrorIs(t, eng.CheckPrice(num.NewUint(100), ref), price.ErrPriceOutOfBounds)

	big := num.NewUint(1000000)
	assert.NoError(t, eng.CheckPrice(num.NewUint(1010000), big))
	assert.ErrorIs(t, eng.CheckPrice(num.NewUint(1010001), big), price.ErrPriceOutOfBounds)
}
