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

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Uint a wrapper over a uint256.Int, the underlying representation
// of all fixed-point amounts (prices, quantities, balances).
type Uint struct {
	u uint256.Int
}

var maxU256 = func() *big.Int {
	// 2^256 - 1
	max := big.NewInt(1)
	max.Lsh(max, 256)
	return max.Sub(max, big.NewInt(1))
}()

// NewUint creates a new Uint with the value of the
// uint64 passed as a parameter.
func NewUint(val uint64) *Uint {
	return &Uint{*uint256.NewInt(val)}
}

// UintZero returns a new Uint set to 0.
func UintZero() *Uint {
	return NewUint(0)
}

// UintOne returns a new Uint set to 1.
func UintOne() *Uint {
	return NewUint(1)
}

// MaxUint returns a new Uint set to the maximum representable value.
func MaxUint() *Uint {
	u, _ := UintFromBig(maxU256)
	return u
}

// Min returns the smallest of the 2 numbers.
func Min(a, b *Uint) *Uint {
	if a.LT(b) {
		return a
	}
	return b
}

// Max returns the largest of the 2 numbers.
func Max(a, b *Uint) *Uint {
	if a.GT(b) {
		return a
	}
	return b
}

// UintFromBig construct a new Uint with a big.Int
// returns true if overflow happened.
func UintFromBig(b *big.Int) (*Uint, bool) {
	u, overflow := uint256.FromBig(b)
	if overflow {
		return UintZero(), true
	}
	return &Uint{*u}, false
}

// UintFromDecimal returns a new Uint from a Decimal, dropping
// any fractional part. The bool is true on overflow or a
// negative input.
func UintFromDecimal(d Decimal) (*Uint, bool) {
	if d.IsNegative() {
		return UintZero(), true
	}
	return UintFromBig(d.BigInt())
}

// UintFromString creates a new Uint from a string
// interpreted using the given base. A big.Int is used to
// read the string, so all errors related to big.Int parsing
// apply here. The bool is true if an error or overflow happened.
func UintFromString(str string, base int) (*Uint, bool) {
	b, ok := big.NewInt(0).SetString(str, base)
	if !ok {
		return UintZero(), true
	}
	return UintFromBig(b)
}

// MustUintFromString creates a new Uint from a base 10 string,
// and panics if the string is not a valid number. Reserved for
// constants and tests, never for input handling.
func MustUintFromString(str string) *Uint {
	u, overflow := UintFromString(str, 10)
	if overflow {
		panic(fmt.Sprintf("invalid uint: %s", str))
	}
	return u
}

// Sum just removes the need to write num.UintZero().AddSum(x, y, z)
// so you can write num.Sum(x, y, z) instead, equivalent to x + y + z.
func Sum(vals ...*Uint) *Uint {
	return UintZero().AddSum(vals...)
}

func (z *Uint) Set(oth *Uint) *Uint {
	z.u.Set(&oth.u)
	return z
}

func (z *Uint) SetUint64(val uint64) *Uint {
	z.u.SetUint64(val)
	return z
}

func (z Uint) Uint64() uint64 {
	return z.u.Uint64()
}

func (z Uint) BigInt() *big.Int {
	return z.u.ToBig()
}

func (z Uint) Float64() float64 {
	f, _ := DecimalFromUint(&z).Float64()
	return f
}

func (z Uint) ToDecimal() Decimal {
	return DecimalFromUint(&z)
}

// Add will add x and y then store the result into z
// this is equivalent to:
// `z = x + y`
// z is returned for convenience, no new variable is created.
func (z *Uint) Add(x, y *Uint) *Uint {
	z.u.Add(&x.u, &y.u)
	return z
}

// AddSum adds multiple values at the same time to a given uint
// so x.AddSum(y, z) is equivalent to x + y + z.
func (z *Uint) AddSum(vals ...*Uint) *Uint {
	for _, x := range vals {
		z.u.Add(&z.u, &x.u)
	}
	return z
}

// AddOverflow will add x and y then store the result into z.
// The bool is true if an overflow occurred.
func (z *Uint) AddOverflow(x, y *Uint) (*Uint, bool) {
	_, ok := z.u.AddOverflow(&x.u, &y.u)
	return z, ok
}

// Sub will subtract y from x then store the result into z
// this is equivalent to:
// `z = x - y`
// z is returned for convenience, no new variable is created.
func (z *Uint) Sub(x, y *Uint) *Uint {
	z.u.Sub(&x.u, &y.u)
	return z
}

// SubOverflow will subtract y from x then store the result into z.
// The bool is true if an underflow occurred.
func (z *Uint) SubOverflow(x, y *Uint) (*Uint, bool) {
	_, ok := z.u.SubOverflow(&x.u, &y.u)
	return z, ok
}

// Delta will subtract y from x and store the result unless
// x-y underflowed, in which case the bool is set and the
// result of y - x is stored instead.
func (z *Uint) Delta(x, y *Uint) (*Uint, bool) {
	if y.GT(x) {
		_ = z.Sub(y, x)
		return z, true
	}
	_ = z.Sub(x, y)
	return z, false
}

// Mul will multiply x and y then store the result into z
// this is equivalent to:
// `z = x * y`
// z is returned for convenience, no new variable is created.
func (z *Uint) Mul(x, y *Uint) *Uint {
	z.u.Mul(&x.u, &y.u)
	return z
}

// MulOverflow will multiply x and y then store the result into z.
// The bool is true if the product did not fit in 256 bits. Use this
// over Mul anywhere inputs are not already known to be bounded.
func (z *Uint) MulOverflow(x, y *Uint) (*Uint, bool) {
	_, ok := z.u.MulOverflow(&x.u, &y.u)
	return z, ok
}

// Div will divide x by y then store the result into z
// this is equivalent to:
// `z = x / y`
// z is returned for convenience, no new variable is created.
// Division is integer division with truncation towards zero.
func (z *Uint) Div(x, y *Uint) *Uint {
	z.u.Div(&x.u, &y.u)
	return z
}

// Mod sets z to the modulus x%y and returns z.
func (z *Uint) Mod(x, y *Uint) *Uint {
	z.u.Mod(&x.u, &y.u)
	return z
}

// Exp sets z = x**y and returns z.
func (z *Uint) Exp(x, y *Uint) *Uint {
	z.u.Exp(&x.u, &y.u)
	return z
}

// LT will check if the value stored in z is
// lesser than oth
// this is equivalent to:
// `z < oth`.
func (z Uint) LT(oth *Uint) bool {
	return z.u.Lt(&oth.u)
}

// LTUint64 will check if the value stored in z is
// lesser than oth
// this is equivalent to:
// `z < oth`.
func (z Uint) LTUint64(oth uint64) bool {
	return z.u.LtUint64(oth)
}

// LTE will check if the value stored in z is
// lesser than or equal to oth
// this is equivalent to:
// `z <= oth`.
func (z Uint) LTE(oth *Uint) bool {
	return z.u.Lt(&oth.u) || z.u.Eq(&oth.u)
}

// LTEUint64 will check if the value stored in z is
// lesser than or equal to oth
// this is equivalent to:
// `z <= oth`.
func (z Uint) LTEUint64(oth uint64) bool {
	return z.u.LtUint64(oth) || z.EQUint64(oth)
}

// EQ will check if the value stored in z is
// equal to oth
// this is equivalent to:
// `z == oth`.
func (z Uint) EQ(oth *Uint) bool {
	return z.u.Eq(&oth.u)
}

// EQUint64 will check if the value stored in z is
// equal to oth
// this is equivalent to:
// `z == oth`.
func (z Uint) EQUint64(oth uint64) bool {
	return z.u.Eq(uint256.NewInt(oth))
}

// NEQ will check if the value stored in z is
// different than oth
// this is equivalent to:
// `z != oth`.
func (z Uint) NEQ(oth *Uint) bool {
	return !z.u.Eq(&oth.u)
}

// GT will check if the value stored in z is
// greater than oth
// this is equivalent to:
// `z > oth`.
func (z Uint) GT(oth *Uint) bool {
	return z.u.Gt(&oth.u)
}

// GTUint64 will check if the value stored in z is
// greater than oth
// this is equivalent to:
// `z > oth`.
func (z Uint) GTUint64(oth uint64) bool {
	return z.u.GtUint64(oth)
}

// GTE will check if the value stored in z is
// greater than or equal to oth
// this is equivalent to:
// `z >= oth`.
func (z Uint) GTE(oth *Uint) bool {
	return z.u.Gt(&oth.u) || z.u.Eq(&oth.u)
}

// GTEUint64 will check if the value stored in z is
// greater than or equal to oth
// this is equivalent to:
// `z >= oth`.
func (z Uint) GTEUint64(oth uint64) bool {
	return z.u.GtUint64(oth) || z.EQUint64(oth)
}

// IsZero returns whether z == 0 or not.
func (z Uint) IsZero() bool {
	return z.u.IsZero()
}

// Copy copies x into z
// this is the equivalent to:
// `z = x`.
func (z *Uint) Copy(x *Uint) *Uint {
	z.u = x.u
	return z
}

// Clone creates a copy of this value
// this is the equivalent to:
// `x := z`.
func (z Uint) Clone() *Uint {
	return &Uint{z.u}
}

// Hex returns the hexadecimal representation
// of the stored value.
func (z Uint) Hex() string {
	return z.u.Hex()
}

// String returns the stored value as a string,
// this is internally using big.Int.String().
func (z Uint) String() string {
	return z.u.ToBig().String()
}

// Format implements fmt.Formatter.
func (z Uint) Format(s fmt.State, ch rune) {
	z.u.Format(s, ch)
}

// Bytes returns the internal representation of
// the Uint as a [32]byte big-endian array.
func (z Uint) Bytes() [32]byte {
	return z.u.Bytes32()
}
