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

package num

// Int a wrapper to a signed big int, used for signed aggregates
// such as cumulative order flow. Sign-magnitude over a Uint.
type Int struct {
	// U the unsigned magnitude of the integer
	U *Uint
	// The sign of the integer, true = positive
	s bool
}

// NewInt creates a new Int with the value of the
// int64 passed as a parameter.
func NewInt(val int64) *Int {
	if val < 0 {
		return &Int{
			U: NewUint(uint64(-val)),
			s: false,
		}
	}
	return &Int{
		U: NewUint(uint64(val)),
		s: true,
	}
}

// IntZero returns a new Int set to 0.
func IntZero() *Int {
	return NewInt(0)
}

// IntFromUint creates a new Int with the value of the
// given Uint and the requested sign (true = positive).
func IntFromUint(u *Uint, s bool) *Int {
	return &Int{
		U: u.Clone(),
		s: s,
	}
}

// IsNegative tests if the stored value is negative
// true if negative, false if zero or positive.
func (i Int) IsNegative() bool {
	return !i.s && !i.U.IsZero()
}

// IsPositive tests if the stored value is positive
// true if positive, false if zero or negative.
func (i Int) IsPositive() bool {
	return i.s && !i.U.IsZero()
}

// IsZero tests if the stored value is zero.
func (i Int) IsZero() bool {
	return i.U.IsZero()
}

// FlipSign changes the sign of the number from negative to
// positive and back again.
func (i *Int) FlipSign() {
	i.s = !i.s
}

// Clone creates a copy of this value
// so it can be changed without affecting the original.
func (i Int) Clone() *Int {
	return &Int{
		U: i.U.Clone(),
		s: i.s,
	}
}

// Int64 returns the value of the Int as an int64
// if the value is larger it will be truncated.
func (i Int) Int64() int64 {
	if i.IsNegative() {
		return -int64(i.U.Uint64())
	}
	return int64(i.U.Uint64())
}

// GT returns i > oth.
func (i Int) GT(oth *Int) bool {
	if i.IsPositive() {
		if oth.IsPositive() {
			return i.U.GT(oth.U)
		}
		return true
	}
	if i.IsZero() {
		return oth.IsNegative()
	}
	if oth.IsNegative() {
		return i.U.LT(oth.U)
	}
	return false
}

// LT returns i < oth.
func (i Int) LT(oth *Int) bool {
	if i.EQ(oth) {
		return false
	}
	return !i.GT(oth)
}

// EQ returns i == oth.
func (i Int) EQ(oth *Int) bool {
	if i.U.IsZero() && oth.U.IsZero() {
		return true
	}
	return i.s == oth.s && i.U.EQ(oth.U)
}

// Add adds the value of oth to the Int, the sign of the
// result may differ from the sign of i.
func (i *Int) Add(oth *Int) *Int {
	if i.s == oth.s {
		i.U.Add(i.U, oth.U)
		return i
	}
	if i.U.GTE(oth.U) {
		i.U.Sub(i.U, oth.U)
		return i
	}
	i.U.Sub(oth.U, i.U)
	i.s = oth.s
	return i
}

// AddSum adds all of the passed values to the Int.
func (i *Int) AddSum(oths ...*Int) *Int {
	for _, oth := range oths {
		i.Add(oth)
	}
	return i
}

// Sub subtracts the value of oth from the Int.
func (i *Int) Sub(oth *Int) *Int {
	flipped := oth.Clone()
	flipped.FlipSign()
	return i.Add(flipped)
}

// SubSum subtracts all of the passed values from the Int.
func (i *Int) SubSum(oths ...*Int) *Int {
	for _, oth := range oths {
		i.Sub(oth)
	}
	return i
}

// String returns a string version of the number.
func (i Int) String() string {
	if i.IsNegative() {
		return "-" + i.U.String()
	}
	return i.U.String()
}
