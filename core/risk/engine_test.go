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

package risk_test

import (
	"testing"

	"code.denebmarkets.io/deneb/core/risk"
	"code.denebmarkets.io/deneb/libs/num"
	"code.denebmarkets.io/deneb/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() risk.Config {
	conf := risk.NewDefaultConfig()
	conf.BaseVolatility = 0.02
	conf.MaxVolatility = 0.5
	conf.LongOICoefficient = 0.00000001
	conf.ShortOICoefficient = -0.000000005
	conf.BaseDepth = 1000000
	conf.ImpactRecomputeThreshold = 0.05
	conf.VolRecomputeThreshold = 0.01
	return conf
}

func getTestEngine(t *testing.T) *risk.Engine {
	t.Helper()
	eng, err := risk.New(logging.NewTestLogger(), testConfig())
	require.NoError(t, err)
	return eng
}

func TestVolatilityFromOpenInterest(t *testing.T) {
	t.Run("long open interest amplifies volatility", func(t *testing.T) {
		eng := getTestEngine(t)
		require.NoError(t, eng.UpdateOpenInterest(1000000, 0))
		eff := eng.EffectiveVolatility()
		assert.True(t, eff.GreaterThan(eng.BaseVolatility()))
		assert.True(t, eff.Equal(num.MustDecimalFromString("0.03")), "effective: %s", eff.String())
	})
	t.Run("short open interest dampens volatility", func(t *testing.T) {
		eng := getTestEngine(t)
		require.NoError(t, eng.UpdateOpenInterest(0, 1000000))
		eff := eng.EffectiveVolatility()
		assert.True(t, eff.LessThan(eng.BaseVolatility()))
		assert.True(t, eff.Equal(num.MustDecimalFromString("0.015")), "effective: %s", eff.String())
	})
	t.Run("volatility clamps at zero instead of going negative", func(t *testing.T) {
		eng := getTestEngine(t)
		require.NoError(t, eng.UpdateOpenInterest(0, 5000000000))
		assert.True(t, eng.EffectiveVolatility().IsZero())
		// a zero volatility market has no impact slope
		assert.True(t, eng.Lambda().IsZero())
		state := eng.State()
		assert.True(t, state.EffectiveDepth.Equal(state.BaseDepth))
	})
}

func TestVolatilityCeiling(t *testing.T) {
	t.Run("landing exactly on the ceiling is allowed", func(t *testing.T) {
		eng := getTestEngine(t)
		// 0.02 + 1e-8 * 48e6 = 0.5
		assert.NoError(t, eng.CheckOpenInterest(48000000, 0))
		assert.NoError(t, eng.UpdateOpenInterest(48000000, 0))
		assert.True(t, eng.EffectiveVolatility().Equal(num.MustDecimalFromString("0.5")))
	})
	t.Run("crossing the ceiling is rejected, not clamped", func(t *testing.T) {
		eng := getTestEngine(t)
		assert.ErrorIs(t, eng.CheckOpenInterest(50000000, 0), risk.ErrExcessiveVolatility)
	})
	t.Run("a rejected update commits nothing", func(t *testing.T) {
		eng := getTestEngine(t)
		require.ErrorIs(t, eng.UpdateOpenInterest(50000000, 0), risk.ErrExcessiveVolatility)
		state := eng.State()
		assert.EqualValues(t, 0, state.LongOI)
		assert.True(t, state.EffectiveVolatility.Equal(num.MustDecimalFromString("0.02")))
	})
}

func TestRecomputeCadence(t *testing.T) {
	eng := getTestEngine(t)
	lambda0 := eng.Lambda()

	// the first move away from zero always recomputes everything
	require.NoError(t, eng.UpdateOpenInterest(1000, 0))
	assert.True(t, eng.EffectiveVolatility().Equal(num.MustDecimalFromString("0.02001")))
	lambda1 := eng.Lambda()
	assert.False(t, lambda1.Equal(lambda0))
	assert.True(t, lambda1.GreaterThan(lambda0))

	// 0.5% move, below both thresholds, nothing recomputes
	require.NoError(t, eng.UpdateOpenInterest(1005, 0))
	assert.True(t, eng.EffectiveVolatility().Equal(num.MustDecimalFromString("0.02001")))
	assert.True(t, eng.Lambda().Equal(lambda1))

	// 1.2% move since the last volatility recompute crosses the 1%
	// threshold, while lambda stays on its slower 5% cadence
	require.NoError(t, eng.UpdateOpenInterest(1012, 0))
	assert.True(t, eng.EffectiveVolatility().Equal(num.MustDecimalFromString("0.02001012")))
	assert.True(t, eng.Lambda().Equal(lambda1))

	// a 6% move since the last impact recompute refreshes lambda too
	require.NoError(t, eng.UpdateOpenInterest(1060, 0))
	assert.True(t, eng.EffectiveVolatility().Equal(num.MustDecimalFromString("0.0200106")))
	lambda2 := eng.Lambda()
	assert.False(t, lambda2.Equal(lambda1))
	assert.True(t, lambda2.GreaterThan(lambda1))

	// the open interest itself commits on every update regardless
	long, short := eng.OpenInterest()
	assert.EqualValues(t, 1060, long)
	assert.EqualValues(t, 0, short)
}

func TestDepthThinsAsVolatilityRises(t *testing.T) {
	eng := getTestEngine(t)
	before := eng.State()

	require.NoError(t, eng.UpdateOpenInterest(2000000, 0))
	after := eng.State()

	assert.True(t, after.EffectiveVolatility.GreaterThan(before.EffectiveVolatility))
	assert.True(t, after.EffectiveDepth.LessThan(before.EffectiveDepth))
	assert.True(t, after.Lambda.GreaterThan(before.Lambda))
}

func TestFlowImpact(t *testing.T) {
	eng := getTestEngine(t)
	assert.True(t, eng.PriceImpact().IsZero())

	eng.RecordFlow(1000, true)
	// lambda 0.02 / 1e6 on a flow of +1000
	assert.True(t, eng.PriceImpact().Equal(num.MustDecimalFromString("0.00002")),
		"impact: %s", eng.PriceImpact().String())

	eng.RecordFlow(3000, false)
	assert.True(t, eng.PriceImpact().Equal(num.MustDecimalFromString("-0.00004")),
		"impact: %s", eng.PriceImpact().String())

	state := eng.State()
	assert.Equal(t, "-2000", state.CumulativeFlow.String())
}

func TestParameterValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*risk.Config)
	}{
		{"zero base volatility", func(c *risk.Config) { c.BaseVolatility = 0 }},
		{"ceiling at base", func(c *risk.Config) { c.MaxVolatility = 0.02 }},
		{"negative long coefficient", func(c *risk.Config) { c.LongOICoefficient = -0.000000001 }},
		{"positive short coefficient", func(c *risk.Config) { c.ShortOICoefficient = 0.000000001 }},
		{"zero depth", func(c *risk.Config) { c.BaseDepth = 0 }},
		{"negative volatility threshold", func(c *risk.Config) { c.VolRecomputeThreshold = -0.01 }},
		{"impact threshold below volatility threshold", func(c *risk.Config) { c.ImpactRecomputeThreshold = 0.005 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conf := testConfig()
			tc.mutate(&conf)
			_, err := risk.New(logging.NewTestLogger(), conf)
			assert.ErrorIs(t, err, risk.ErrInvalidRiskParameter)
		})
	}
}

func TestStateIsACopy(t *testing.T) {
	eng := getTestEngine(t)
	eng.RecordFlow(500, true)

	state := eng.State()
	state.CumulativeFlow.Add(num.NewInt(100))

	assert.Equal(t, "500", eng.State().CumulativeFlow.String())
}
