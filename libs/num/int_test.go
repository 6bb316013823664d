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

package num_test

import (
	"math/rand"
	"testing"

	"code.denebmarkets.io/deneb/libs/num"

	"github.com/stretchr/testify/assert"
)

func TestIntConstructors(t *testing.T) {
	t.Run("positive", func(t *testing.T) {
		n := num.NewInt(42)
		assert.Equal(t, uint64(42), n.U.Uint64())
		assert.True(t, n.IsPositive())
		assert.False(t, n.IsNegative())
		assert.False(t, n.IsZero())
	})

	t.Run("negative", func(t *testing.T) {
		n := num.NewInt(-42)
		assert.Equal(t, uint64(42), n.U.Uint64())
		assert.False(t, n.IsPositive())
		assert.True(t, n.IsNegative())
		assert.False(t, n.IsZero())
	})

	t.Run("zero", func(t *testing.T) {
		n := num.IntZero()
		assert.False(t, n.IsPositive())
		assert.False(t, n.IsNegative())
		assert.True(t, n.IsZero())
	})

	t.Run("from uint", func(t *testing.T) {
		i := num.IntFromUint(num.NewUint(100), true)
		assert.True(t, i.IsPositive())
		i = num.IntFromUint(num.NewUint(100), false)
		assert.True(t, i.IsNegative())
	})
}

func TestIntFlipSign(t *testing.T) {
	n := num.NewInt(100)
	n.FlipSign()
	assert.True(t, n.IsNegative())
	n.FlipSign()
	assert.True(t, n.IsPositive())
}

func TestIntClone(t *testing.T) {
	n := num.NewInt(100)
	n2 := n.Clone()

	n2.FlipSign()
	assert.True(t, n.IsPositive())
	assert.True(t, n2.IsNegative())

	n.AddSum(num.NewInt(50))
	assert.Equal(t, uint64(150), n.U.Uint64())
	assert.Equal(t, uint64(100), n2.U.Uint64())
}

func TestIntCompare(t *testing.T) {
	mid := num.NewInt(0)
	low := num.NewInt(-10)
	high := num.NewInt(10)

	assert.True(t, mid.GT(low))
	assert.False(t, mid.GT(high))
	assert.False(t, low.GT(mid))
	assert.True(t, high.GT(low))
	assert.False(t, mid.GT(mid))

	assert.False(t, mid.LT(low))
	assert.True(t, mid.LT(high))
	assert.True(t, low.LT(high))
	assert.False(t, high.LT(low))
	assert.False(t, high.LT(high))
}

func TestIntString(t *testing.T) {
	assert.Equal(t, "0", num.NewInt(0).String())
	assert.Equal(t, "-10", num.NewInt(-10).String())
	assert.Equal(t, "10", num.NewInt(10).String())
}

func TestIntAddSub(t *testing.T) {
	t.Run("sign flips on add", func(t *testing.T) {
		i := num.NewInt(-10)
		i.Add(num.NewInt(15))
		assert.Equal(t, "5", i.String())

		i = num.NewInt(10)
		i.Add(num.NewInt(-15))
		assert.Equal(t, "-5", i.String())
	})

	t.Run("add sum", func(t *testing.T) {
		result := num.NewInt(10).AddSum(num.NewInt(20), num.NewInt(-15), num.NewInt(-30), num.NewInt(10))
		assert.Equal(t, "-5", result.String())
	})

	t.Run("sub sum", func(t *testing.T) {
		result := num.NewInt(10).SubSum(num.NewInt(20), num.NewInt(-15), num.NewInt(-30), num.NewInt(10))
		assert.Equal(t, "25", result.String())
	})

	t.Run("brute force adds", func(t *testing.T) {
		for c := 0; c < 10000; c++ {
			n1 := rand.Int63n(100) - 50
			n2 := rand.Int63n(100) - 50
			i := num.NewInt(n1)
			i.Add(num.NewInt(n2))
			assert.Equal(t, n1+n2, i.Int64())
		}
	})

	t.Run("brute force subs", func(t *testing.T) {
		for c := 0; c < 10000; c++ {
			n1 := rand.Int63n(100) - 50
			n2 := rand.Int63n(100) - 50
			i := num.NewInt(n1)
			i.Sub(num.NewInt(n2))
			assert.Equal(t, n1-n2, i.Int64())
		}
	})
}
