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

package curve_test

import (
	"testing"

	"code.denebmarkets.io/deneb/core/curve"
	"code.denebmarkets.io/deneb/libs/num"
	"code.denebmarkets.io/deneb/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scaleOne = num.UintZero().Exp(num.NewUint(10), num.NewUint(18))

// units converts whole units into fixed point.
func units(v uint64) *num.Uint {
	return num.UintZero().Mul(num.NewUint(v), scaleOne)
}

func getTestEngine(t *testing.T, price, quantity, minQuantity uint64) *curve.Engine {
	t.Helper()
	eng, err := curve.New(
		logging.NewTestLogger(), curve.NewDefaultConfig(),
		units(price), units(quantity), units(minQuantity),
	)
	require.NoError(t, err)
	return eng
}

func TestPoolSeeding(t *testing.T) {
	t.Run("initial price round-trips through the price function", func(t *testing.T) {
		eng := getTestEngine(t, 69420, 5000, 0)
		price, err := eng.Price()
		require.NoError(t, err)
		assert.True(t, price.EQ(units(69420)), "price: %s", price.String())
	})
	t.Run("zero price is rejected", func(t *testing.T) {
		_, err := curve.New(logging.NewTestLogger(), curve.NewDefaultConfig(),
			num.UintZero(), units(5000), num.UintZero())
		assert.ErrorIs(t, err, curve.ErrInvalidCurveParameter)
	})
	t.Run("zero quantity is rejected", func(t *testing.T) {
		_, err := curve.New(logging.NewTestLogger(), curve.NewDefaultConfig(),
			units(100), num.UintZero(), num.UintZero())
		assert.ErrorIs(t, err, curve.ErrInvalidCurveParameter)
	})
	t.Run("floor at or above quantity is rejected", func(t *testing.T) {
		_, err := curve.New(logging.NewTestLogger(), curve.NewDefaultConfig(),
			units(100), units(1000), units(1000))
		assert.ErrorIs(t, err, curve.ErrInvalidCurveParameter)
	})
}

func TestExecuteExactMath(t *testing.T) {
	// price 100, quantity 1000, a 1000 short doubles Q so the price
	// quarters, every stage lands exactly on the fixed point grid
	eng := getTestEngine(t, 100, 1000, 0)

	quote, err := eng.Execute(1000, false)
	require.NoError(t, err)

	assert.True(t, quote.PrePrice.EQ(units(100)), "pre: %s", quote.PrePrice.String())
	assert.True(t, quote.PostPrice.EQ(units(25)), "post: %s", quote.PostPrice.String())
	// midpoint (100+25)/2 = 62.5
	expMid := num.UintZero().Div(units(125), num.NewUint(2))
	assert.True(t, quote.Price.EQ(expMid), "mid: %s", quote.Price.String())
	// |25-100|/100 = 0.75
	assert.True(t, quote.Impact.Equal(num.MustDecimalFromString("0.75")), "impact: %s", quote.Impact.String())

	state := eng.State()
	assert.True(t, state.Quantity.EQ(units(2000)))
	assert.True(t, state.LastPrice.EQ(units(25)))
	assert.EqualValues(t, 1000, state.CumulativeShort)
	assert.EqualValues(t, 0, state.CumulativeLong)
}

func TestExecuteLong(t *testing.T) {
	eng := getTestEngine(t, 69420, 5000, 0)

	quote, err := eng.Execute(50, true)
	require.NoError(t, err)

	// a long withdraws quantity so the price moves up
	assert.True(t, quote.PostPrice.GT(quote.PrePrice))
	assert.True(t, quote.PrePrice.EQ(units(69420)))
	// K/4950² lands between 70829 and 70830
	assert.True(t, quote.PostPrice.GT(units(70829)))
	assert.True(t, quote.PostPrice.LT(units(70830)))
	// midpoint sits strictly between the two
	assert.True(t, quote.Price.GT(quote.PrePrice))
	assert.True(t, quote.Price.LT(quote.PostPrice))
	// about 2.03% impact
	assert.True(t, quote.Impact.GreaterThan(num.MustDecimalFromString("0.0202")))
	assert.True(t, quote.Impact.LessThan(num.MustDecimalFromString("0.0204")))

	state := eng.State()
	assert.True(t, state.Quantity.EQ(units(4950)))
	assert.EqualValues(t, 50, state.CumulativeLong)
}

func TestPriceMonotonicity(t *testing.T) {
	t.Run("longs only push the price up", func(t *testing.T) {
		eng := getTestEngine(t, 1000, 100000, 0)
		last, err := eng.Price()
		require.NoError(t, err)
		for i := 0; i < 50; i++ {
			quote, err := eng.Execute(100, true)
			require.NoError(t, err)
			assert.True(t, quote.PostPrice.GT(last))
			last = quote.PostPrice
		}
	})
	t.Run("shorts only push the price down", func(t *testing.T) {
		eng := getTestEngine(t, 1000, 100000, 0)
		last, err := eng.Price()
		require.NoError(t, err)
		for i := 0; i < 50; i++ {
			quote, err := eng.Execute(100, false)
			require.NoError(t, err)
			assert.True(t, quote.PostPrice.LT(last))
			last = quote.PostPrice
		}
	})
}

func TestFloorGuard(t *testing.T) {
	eng := getTestEngine(t, 69420, 5000, 4990)

	// driving Q to exactly the floor is already too deep
	_, err := eng.Execute(10, true)
	assert.ErrorIs(t, err, curve.ErrTradeTooLarge)
	// below it as well
	_, err = eng.Execute(11, true)
	assert.ErrorIs(t, err, curve.ErrTradeTooLarge)
	// draining the whole pool certainly
	_, err = eng.Execute(5000, true)
	assert.ErrorIs(t, err, curve.ErrTradeTooLarge)

	// a rejected trade leaves no trace
	state := eng.State()
	assert.True(t, state.Quantity.EQ(units(5000)))
	assert.EqualValues(t, 0, state.CumulativeLong)

	// staying strictly above the floor is fine
	_, err = eng.Execute(9, true)
	assert.NoError(t, err)

	// shorts have no floor
	_, err = eng.Execute(100000, false)
	assert.NoError(t, err)
}

func TestSimulate(t *testing.T) {
	eng := getTestEngine(t, 69420, 5000, 0)
	before := eng.State()

	sim, err := eng.Simulate(50, true)
	require.NoError(t, err)

	// nothing moved
	after := eng.State()
	assert.True(t, before.Quantity.EQ(after.Quantity))
	assert.True(t, before.LastPrice.EQ(after.LastPrice))
	assert.EqualValues(t, 0, after.CumulativeLong)

	// committing gives the simulated numbers
	quote, err := eng.Execute(50, true)
	require.NoError(t, err)
	assert.True(t, sim.Price.EQ(quote.Price))
	assert.True(t, sim.PostPrice.EQ(quote.PostPrice))
	assert.True(t, sim.Impact.Equal(quote.Impact))
}

func TestClose(t *testing.T) {
	t.Run("closing a long returns the pool to its pre-trade state", func(t *testing.T) {
		eng := getTestEngine(t, 69420, 5000, 0)

		_, err := eng.Execute(50, true)
		require.NoError(t, err)

		quote, err := eng.Close(50, true)
		require.NoError(t, err)
		// settles at the post-trade price, which is back at the seed
		assert.True(t, quote.Price.EQ(units(69420)))

		state := eng.State()
		assert.True(t, state.Quantity.EQ(units(5000)))
		assert.EqualValues(t, 0, state.CumulativeLong)
	})
	t.Run("closing a short withdraws under the floor guard", func(t *testing.T) {
		eng := getTestEngine(t, 69420, 5000, 4990)

		// no short was ever opened, closing one drains the pool
		_, err := eng.Close(20, false)
		assert.ErrorIs(t, err, curve.ErrTradeTooLarge)

		_, err = eng.Execute(100, false)
		require.NoError(t, err)
		_, err = eng.Close(100, false)
		require.NoError(t, err)
		state := eng.State()
		assert.True(t, state.Quantity.EQ(units(5000)))
		assert.EqualValues(t, 0, state.CumulativeShort)
	})
}

func TestSimulateClose(t *testing.T) {
	eng := getTestEngine(t, 69420, 5000, 0)
	_, err := eng.Execute(50, true)
	require.NoError(t, err)
	before := eng.State()

	sim, err := eng.SimulateClose(50, true)
	require.NoError(t, err)

	// nothing moved
	after := eng.State()
	assert.True(t, before.Quantity.EQ(after.Quantity))
	assert.True(t, before.LastPrice.EQ(after.LastPrice))
	assert.EqualValues(t, 50, after.CumulativeLong)

	// committing gives the simulated numbers
	quote, err := eng.Close(50, true)
	require.NoError(t, err)
	assert.True(t, sim.Price.EQ(quote.Price))
	assert.True(t, sim.PostPrice.EQ(quote.PostPrice))
	assert.True(t, sim.Impact.Equal(quote.Impact))
}

func TestKOnlyMovesOnReset(t *testing.T) {
	eng := getTestEngine(t, 69420, 5000, 0)
	k := eng.State().K

	for i := 0; i < 20; i++ {
		_, err := eng.Execute(10, true)
		require.NoError(t, err)
		_, err = eng.Execute(10, false)
		require.NoError(t, err)
	}
	assert.True(t, eng.State().K.EQ(k), "trades moved K")

	require.NoError(t, eng.Reset(units(50000), units(8000), units(100)))
	state := eng.State()
	assert.False(t, state.K.EQ(k))
	assert.True(t, state.Quantity.EQ(units(8000)))
	assert.True(t, state.LastPrice.EQ(units(50000)))
	assert.EqualValues(t, 0, state.CumulativeLong)
	assert.EqualValues(t, 0, state.CumulativeShort)
}

func TestKInvariantUnderTrades(t *testing.T) {
	// price*Q²/ONE² stays within floor-division distance of K as the
	// quantity wanders
	eng := getTestEngine(t, 69420, 5000, 0)
	k := num.DecimalFromUint(eng.State().K)
	tolerance := k.Mul(num.MustDecimalFromString("0.000001"))

	sizes := []uint64{13, 170, 2, 999, 41}
	for i, size := range sizes {
		_, err := eng.Execute(size, i%2 == 0)
		require.NoError(t, err)

		state := eng.State()
		price, err := eng.Price()
		require.NoError(t, err)
		q := num.DecimalFromUint(state.Quantity)
		one := num.DecimalFromUint(scaleOne)
		reconstructed := num.DecimalFromUint(price).Mul(q).Mul(q).Div(one).Div(one)
		assert.True(t, reconstructed.Sub(k).Abs().LessThanOrEqual(tolerance),
			"K drifted: reconstructed %s vs %s", reconstructed.String(), k.String())
	}
}

func TestSensitivity(t *testing.T) {
	// 2·price/Q with price 100 and Q 1000 is 0.2 in fixed point
	eng := getTestEngine(t, 100, 1000, 0)
	sens, err := eng.Sensitivity()
	require.NoError(t, err)
	exp := num.UintZero().Div(units(2), num.NewUint(10))
	assert.True(t, sens.EQ(exp), "sensitivity: %s", sens.String())

	// sensitivity grows as the pool drains
	_, err = eng.Execute(500, true)
	require.NoError(t, err)
	sens2, err := eng.Sensitivity()
	require.NoError(t, err)
	assert.True(t, sens2.GT(sens))
}
