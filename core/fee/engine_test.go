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

package fee_test

import (
	"testing"

	"code.denebmarkets.io/deneb/core/fee"
	"code.denebmarkets.io/deneb/libs/num"
	"code.denebmarkets.io/deneb/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() fee.Config {
	conf := fee.NewDefaultConfig()
	conf.BaseFee = 0.001
	conf.MaxFee = 0.01
	conf.VolatilitySlope = 2
	conf.ImbalanceSlope = 0.5
	conf.UtilizationSlope = 0.4
	conf.TightImbalanceBand = 0.05
	conf.WideImbalanceBand = 0.9
	conf.PoolCapacity = 10000000
	return conf
}

func getTestEngine(t *testing.T) *fee.Engine {
	t.Helper()
	eng, err := fee.New(logging.NewTestLogger(), testConfig())
	require.NoError(t, err)
	return eng
}

// neutralFactors sits between the imbalance bands with volatility at base
// and a mid speculative ratio, so every multiplier stays computable.
func neutralFactors() fee.Factors {
	return fee.Factors{
		BaseVolatility:      num.MustDecimalFromString("0.02"),
		EffectiveVolatility: num.MustDecimalFromString("0.02"),
		LongOI:              600,
		ShortOI:             400,
		SpeculativeRatio:    num.MustDecimalFromString("0.5"),
	}
}

func TestRateComposition(t *testing.T) {
	eng := getTestEngine(t)

	f := neutralFactors()
	f.EffectiveVolatility = num.MustDecimalFromString("0.04")
	f.LongOI, f.ShortOI = 7000000, 3000000
	f.SpeculativeRatio = num.MustDecimalFromString("0.85")

	// volMult 1+2*1 = 3, imbalance 0.4 so imbMult 1.2, utilization 1 so
	// utilMult 1.2, specMult 1+(0.15/0.3)*0.5 = 1.25
	rate := eng.Rate(f)
	assert.True(t, rate.Equal(num.MustDecimalFromString("0.0054")), "rate: %s", rate.String())

	st := eng.State()
	assert.Equal(t, fee.OverrideNone, st.Override)
	assert.True(t, st.VolatilityMult.Equal(num.MustDecimalFromString("3")))
	assert.True(t, st.ImbalanceMult.Equal(num.MustDecimalFromString("1.2")))
	assert.True(t, st.UtilizationMult.Equal(num.MustDecimalFromString("1.2")))
	assert.True(t, st.SpeculativeMult.Equal(num.MustDecimalFromString("1.25")))
	assert.True(t, st.Utilization.Equal(num.DecimalOne()))
}

func TestRateClamping(t *testing.T) {
	t.Run("a discounting product clamps up to the base fee", func(t *testing.T) {
		eng := getTestEngine(t)
		// near-zero utilization discounts the product below base
		rate := eng.Rate(neutralFactors())
		assert.True(t, rate.Equal(num.MustDecimalFromString("0.001")), "rate: %s", rate.String())
	})
	t.Run("a runaway product clamps down to the max fee", func(t *testing.T) {
		eng := getTestEngine(t)
		f := neutralFactors()
		f.EffectiveVolatility = num.MustDecimalFromString("0.1")
		f.LongOI, f.ShortOI = 7000000, 3000000
		f.SpeculativeRatio = num.MustDecimalFromString("1")
		rate := eng.Rate(f)
		assert.True(t, rate.Equal(num.MustDecimalFromString("0.01")), "rate: %s", rate.String())
	})
}

func TestImbalanceOverrides(t *testing.T) {
	t.Run("a balanced book trades at the floor no matter what", func(t *testing.T) {
		eng := getTestEngine(t)
		f := fee.Factors{
			BaseVolatility:      num.MustDecimalFromString("0.02"),
			EffectiveVolatility: num.MustDecimalFromString("0.4"),
			LongOI:              5000000,
			ShortOI:             5000000,
			SpeculativeRatio:    num.DecimalOne(),
		}
		rate := eng.Rate(f)
		assert.True(t, rate.Equal(num.MustDecimalFromString("0.001")))
		assert.Equal(t, fee.OverrideBalanced, eng.State().Override)
	})
	t.Run("imbalance exactly on the tight band still forces the floor", func(t *testing.T) {
		eng := getTestEngine(t)
		f := neutralFactors()
		// |5250-4750|/10000 = 0.05
		f.LongOI, f.ShortOI = 5250, 4750
		eng.Rate(f)
		assert.Equal(t, fee.OverrideBalanced, eng.State().Override)
	})
	t.Run("a one-sided book trades at the ceiling no matter what", func(t *testing.T) {
		eng := getTestEngine(t)
		f := neutralFactors()
		// |9500-500|/10000 = 0.9
		f.LongOI, f.ShortOI = 9500, 500
		rate := eng.Rate(f)
		assert.True(t, rate.Equal(num.MustDecimalFromString("0.01")))
		assert.Equal(t, fee.OverrideImbalanced, eng.State().Override)
	})
	t.Run("an empty market counts as balanced", func(t *testing.T) {
		eng := getTestEngine(t)
		f := neutralFactors()
		f.LongOI, f.ShortOI = 0, 0
		rate := eng.Rate(f)
		assert.True(t, rate.Equal(num.MustDecimalFromString("0.001")))
		assert.Equal(t, fee.OverrideBalanced, eng.State().Override)
	})
}

func TestSpeculativeMultiplier(t *testing.T) {
	eng := getTestEngine(t)

	// with volatility doubled the product sits above base, so the
	// speculative discount is visible instead of clamped away
	f := neutralFactors()
	f.EffectiveVolatility = num.MustDecimalFromString("0.04")

	f.SpeculativeRatio = num.MustDecimalFromString("0.5")
	neutral := eng.Rate(f)
	assert.True(t, eng.State().SpeculativeMult.Equal(num.DecimalOne()))

	f.SpeculativeRatio = num.DecimalZero()
	discounted := eng.Rate(f)
	assert.True(t, eng.State().SpeculativeMult.Equal(num.MustDecimalFromString("0.7")))
	assert.True(t, discounted.LessThan(neutral))

	f.SpeculativeRatio = num.DecimalOne()
	amplified := eng.Rate(f)
	assert.True(t, eng.State().SpeculativeMult.Equal(num.MustDecimalFromString("1.5")))
	assert.True(t, amplified.GreaterThan(neutral))

	// the thresholds themselves are neutral
	for _, ratio := range []string{"0.3", "0.7"} {
		f.SpeculativeRatio = num.MustDecimalFromString(ratio)
		eng.Rate(f)
		assert.True(t, eng.State().SpeculativeMult.Equal(num.DecimalOne()), "ratio %s", ratio)
	}
}

func TestRateAlwaysWithinBounds(t *testing.T) {
	eng := getTestEngine(t)
	baseFee := num.MustDecimalFromString("0.001")
	maxFee := num.MustDecimalFromString("0.01")

	vols := []string{"0", "0.001", "0.02", "0.4", "0.99"}
	ois := [][2]uint64{{0, 0}, {1, 0}, {600, 400}, {5000000, 5000000}, {10000000, 1}, {1, 10000000}, {18000000000, 17000000000}}
	ratios := []string{"0", "0.15", "0.3", "0.5", "0.7", "0.9", "1"}

	for _, vol := range vols {
		for _, oi := range ois {
			for _, ratio := range ratios {
				rate := eng.Rate(fee.Factors{
					BaseVolatility:      num.MustDecimalFromString("0.02"),
					EffectiveVolatility: num.MustDecimalFromString(vol),
					LongOI:              oi[0],
					ShortOI:             oi[1],
					SpeculativeRatio:    num.MustDecimalFromString(ratio),
				})
				assert.True(t, rate.GreaterThanOrEqual(baseFee),
					"rate %s under base for vol=%s oi=%v ratio=%s", rate.String(), vol, oi, ratio)
				assert.True(t, rate.LessThanOrEqual(maxFee),
					"rate %s over max for vol=%s oi=%v ratio=%s", rate.String(), vol, oi, ratio)
			}
		}
	}
}

func TestAmount(t *testing.T) {
	rate := num.MustDecimalFromString("0.0054")
	assert.True(t, fee.Amount(num.NewUint(1000000), rate).EQ(num.NewUint(5400)))
	// fractional fees floor to the unit grid
	assert.True(t, fee.Amount(num.NewUint(999), num.MustDecimalFromString("0.001")).IsZero())
	assert.True(t, fee.Amount(num.UintZero(), rate).IsZero())
}

func TestInitialState(t *testing.T) {
	eng := getTestEngine(t)
	st := eng.State()
	assert.True(t, st.Rate.Equal(num.MustDecimalFromString("0.001")))
	assert.Equal(t, fee.OverrideNone, st.Override)
	assert.True(t, st.VolatilityMult.Equal(num.DecimalOne()))
}

func TestParameterValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*fee.Config)
	}{
		{"zero base fee", func(c *fee.Config) { c.BaseFee = 0 }},
		{"max fee at base", func(c *fee.Config) { c.MaxFee = 0.001 }},
		{"negative volatility slope", func(c *fee.Config) { c.VolatilitySlope = -1 }},
		{"negative imbalance slope", func(c *fee.Config) { c.ImbalanceSlope = -0.5 }},
		{"negative utilization slope", func(c *fee.Config) { c.UtilizationSlope = -0.4 }},
		{"tight band above wide band", func(c *fee.Config) { c.TightImbalanceBand = 0.95 }},
		{"wide band above one", func(c *fee.Config) { c.WideImbalanceBand = 1.1 }},
		{"zero pool capacity", func(c *fee.Config) { c.PoolCapacity = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conf := testConfig()
			tc.mutate(&conf)
			_, err := fee.New(logging.NewTestLogger(), conf)
			assert.ErrorIs(t, err, fee.ErrInvalidFeeParameter)
		})
	}
}
