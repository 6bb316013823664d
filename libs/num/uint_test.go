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
	"fmt"
	"math/big"
	"testing"

	"code.denebmarkets.io/deneb/libs/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUintConstructors(t *testing.T) {
	var expected uint64 = 42

	t.Run("from uint64", func(t *testing.T) {
		n := num.NewUint(expected)
		assert.Equal(t, expected, n.Uint64())
	})

	t.Run("from string", func(t *testing.T) {
		n, overflow := num.UintFromString("42", 10)
		assert.False(t, overflow)
		assert.Equal(t, expected, n.Uint64())
	})

	t.Run("from invalid string", func(t *testing.T) {
		n, overflow := num.UintFromString("not a number", 10)
		assert.True(t, overflow)
		assert.True(t, n.IsZero())
	})

	t.Run("from big", func(t *testing.T) {
		n, overflow := num.UintFromBig(big.NewInt(int64(expected)))
		assert.False(t, overflow)
		assert.Equal(t, expected, n.Uint64())
	})

	t.Run("from negative decimal", func(t *testing.T) {
		n, overflow := num.UintFromDecimal(num.DecimalFromInt64(-1))
		assert.True(t, overflow)
		assert.True(t, n.IsZero())
	})
}

func TestUintClone(t *testing.T) {
	var (
		expect1 uint64 = 42
		expect2 uint64 = 84
		first          = num.NewUint(expect1)
		second         = first.Clone()
	)

	assert.Equal(t, expect1, first.Uint64())
	assert.Equal(t, expect1, second.Uint64())

	// now we change second value, and ensure first hasn't changed
	second.Add(second, num.NewUint(42))

	assert.Equal(t, expect1, first.Uint64())
	assert.Equal(t, expect2, second.Uint64())
}

func TestUintCopy(t *testing.T) {
	var (
		expect1 uint64 = 42
		expect2 uint64 = 84
		first          = num.NewUint(expect1)
		second         = num.NewUint(expect2)
	)

	second.Copy(first)

	assert.Equal(t, expect1, first.Uint64())
	assert.Equal(t, expect1, second.Uint64())

	// updating first must not touch second
	first.SetUint64(expect2)
	assert.Equal(t, expect2, first.Uint64())
	assert.Equal(t, expect1, second.Uint64())
}

func TestUintOverflows(t *testing.T) {
	t.Run("add overflow", func(t *testing.T) {
		n, overflow := num.UintZero().AddOverflow(num.MaxUint(), num.UintOne())
		assert.True(t, overflow)
		assert.NotNil(t, n)

		n, overflow = num.UintZero().AddOverflow(num.NewUint(40), num.NewUint(2))
		assert.False(t, overflow)
		assert.Equal(t, uint64(42), n.Uint64())
	})

	t.Run("sub overflow", func(t *testing.T) {
		_, overflow := num.UintZero().SubOverflow(num.NewUint(1), num.NewUint(2))
		assert.True(t, overflow)

		n, overflow := num.UintZero().SubOverflow(num.NewUint(44), num.NewUint(2))
		assert.False(t, overflow)
		assert.Equal(t, uint64(42), n.Uint64())
	})

	t.Run("mul overflow", func(t *testing.T) {
		_, overflow := num.UintZero().MulOverflow(num.MaxUint(), num.NewUint(2))
		assert.True(t, overflow)

		n, overflow := num.UintZero().MulOverflow(num.NewUint(21), num.NewUint(2))
		assert.False(t, overflow)
		assert.Equal(t, uint64(42), n.Uint64())
	})
}

func TestUintDelta(t *testing.T) {
	n, neg := num.UintZero().Delta(num.NewUint(40), num.NewUint(2))
	assert.False(t, neg)
	assert.Equal(t, uint64(38), n.Uint64())

	n, neg = num.UintZero().Delta(num.NewUint(2), num.NewUint(40))
	assert.True(t, neg)
	assert.Equal(t, uint64(38), n.Uint64())
}

func TestUintExp(t *testing.T) {
	one := num.UintZero().Exp(num.NewUint(10), num.NewUint(18))
	expected, _ := new(big.Int).SetString("1000000000000000000", 10)
	assert.Equal(t, expected.String(), one.String())
}

func TestUintDivFloors(t *testing.T) {
	// integer division truncates, 7/2 = 3
	n := num.UintZero().Div(num.NewUint(7), num.NewUint(2))
	assert.Equal(t, uint64(3), n.Uint64())

	n = num.UintZero().Mod(num.NewUint(7), num.NewUint(2))
	assert.Equal(t, uint64(1), n.Uint64())
}

func TestUintSum(t *testing.T) {
	n := num.Sum(num.NewUint(10), num.NewUint(20), num.NewUint(12))
	assert.Equal(t, uint64(42), n.Uint64())
}

func TestUintPrint(t *testing.T) {
	n := num.NewUint(42)
	assert.Equal(t, "42", fmt.Sprintf("%v", n))
}

func TestMustUintFromString(t *testing.T) {
	n := num.MustUintFromString("69420000000000000000000")
	require.Equal(t, "69420000000000000000000", n.String())

	assert.Panics(t, func() {
		num.MustUintFromString("not a number")
	})
}

func TestDeferDoCopy(t *testing.T) {
	var (
		expected1 uint64 = 42
		expected2 uint64 = 84
		n1               = num.NewUint(42)
	)

	n2 := *n1

	assert.Equal(t, expected1, n1.Uint64())
	assert.Equal(t, expected1, n2.Uint64())

	n2.SetUint64(expected2)
	assert.Equal(t, expected1, n1.Uint64())
	assert.Equal(t, expected2, n2.Uint64())
}
