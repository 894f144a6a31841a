// Copyright (C) 2023 Gobalsky Labs Limited
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
	"math/big"

	"github.com/holiman/uint256"
)

var maxU256 = new(big.Int).Sub(
	new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1),
)

// Uint An unsigned integer of 256 bits.
type Uint struct {
	u uint256.Int
}

// NewUint creates a new Uint with the value of the
// uint64 passed as a parameter.
func NewUint(val uint64) *Uint {
	return &Uint{
		u: *uint256.NewInt(val),
	}
}

// UintZero returns a new Uint set to 0.
func UintZero() *Uint {
	return NewUint(0)
}

// UintOne returns a new Uint set to 1.
func UintOne() *Uint {
	return NewUint(1)
}

// UintFromBig construct a new Uint with a big.Int
// returns true if overflow happened.
func UintFromBig(b *big.Int) (*Uint, bool) {
	u, overflow := uint256.FromBig(b)
	if overflow || b.Sign() < 0 {
		return UintZero(), true
	}
	return &Uint{*u}, false
}

// UintFromDecimal returns a decimal version of the Uint, setting the bool
// to true if overflow occurred.
func UintFromDecimal(d Decimal) (*Uint, bool) {
	return UintFromBig(d.BigInt())
}

// UintFromString created a new Uint from a string
// interpreted using the given base.
// A big.Int is used under the hood, so all its
// constraints are applied here.
// The second return parameter is true if an error happened.
func UintFromString(str string, base int) (*Uint, bool) {
	b, ok := big.NewInt(0).SetString(str, base)
	if !ok {
		return UintZero(), true
	}
	return UintFromBig(b)
}

// MustUintFromString creates a new Uint from a base 10 string,
// and panics if the string is not a valid input.
func MustUintFromString(str string) *Uint {
	u, fail := UintFromString(str, 10)
	if fail {
		panic("uint from string: invalid input: " + str)
	}
	return u
}

// Sum just removes the need to write num.UintZero().AddSum(x, y, z)
// so we can write num.Sum(x, y, z) instead.
func Sum(vals ...*Uint) *Uint {
	return UintZero().AddSum(vals...)
}

// Min returns the smallest of the 2 numbers.
func Min(a, b *Uint) *Uint {
	if a.LT(b) {
		return a.Clone()
	}
	return b.Clone()
}

// Max returns the largest of the 2 numbers.
func Max(a, b *Uint) *Uint {
	if a.GT(b) {
		return a.Clone()
	}
	return b.Clone()
}

// ToDecimal returns the value of the Uint as a Decimal.
func (u *Uint) ToDecimal() Decimal {
	return decimalFromU256(&u.u)
}

// Add will add x and y then store the result into u
// this is equivalent to:
// `u = x + y`
// u is returned for convenience, no new variable is created.
func (u *Uint) Add(x, y *Uint) *Uint {
	u.u.Add(&x.u, &y.u)
	return u
}

// AddSum adds multiple values at the same time to a given uint
// so x.AddSum(y, z) is equivalent to x + y + z.
func (u *Uint) AddSum(vals ...*Uint) *Uint {
	for _, x := range vals {
		u.u.Add(&u.u, &x.u)
	}
	return u
}

// Sub will subtract y from x then store the result into u
// this is equivalent to:
// `u = x - y`
// u is returned for convenience, no new variable is created.
func (u *Uint) Sub(x, y *Uint) *Uint {
	u.u.Sub(&x.u, &y.u)
	return u
}

// Mul will multiply x and y then store the result into u
// this is equivalent to:
// `u = x * y`
// u is returned for convenience, no new variable is created.
func (u *Uint) Mul(x, y *Uint) *Uint {
	u.u.Mul(&x.u, &y.u)
	return u
}

// Div will divide x by y then store the result into u
// this is equivalent to:
// `u = x / y`
// u is returned for convenience, no new variable is created.
func (u *Uint) Div(x, y *Uint) *Uint {
	u.u.Div(&x.u, &y.u)
	return u
}

// Mod sets u to the modulus x%y then returns u.
func (u *Uint) Mod(x, y *Uint) *Uint {
	u.u.Mod(&x.u, &y.u)
	return u
}

// EQ returns true if u == oth.
func (u *Uint) EQ(oth *Uint) bool {
	return u.u.Eq(&oth.u)
}

// EQUint64 returns true if u == oth.
func (u *Uint) EQUint64(oth uint64) bool {
	return u.u.Eq(uint256.NewInt(oth))
}

// NEQ returns true if u != oth.
func (u *Uint) NEQ(oth *Uint) bool {
	return !u.u.Eq(&oth.u)
}

// GT returns true if u > oth.
func (u *Uint) GT(oth *Uint) bool {
	return u.u.Gt(&oth.u)
}

// GTE returns true if u >= oth.
func (u *Uint) GTE(oth *Uint) bool {
	return !u.u.Lt(&oth.u)
}

// LT returns true if u < oth.
func (u *Uint) LT(oth *Uint) bool {
	return u.u.Lt(&oth.u)
}

// LTE returns true if u <= oth.
func (u *Uint) LTE(oth *Uint) bool {
	return !u.u.Gt(&oth.u)
}

// IsZero returns true if u == 0.
func (u *Uint) IsZero() bool {
	return u.u.IsZero()
}

// Clone creates a copy of the given uint
// so it can be modified safely.
func (u *Uint) Clone() *Uint {
	return &Uint{u.u}
}

// Copy the value of x into u, and returns u for convenience.
func (u *Uint) Copy(x *Uint) *Uint {
	u.u = x.u
	return u
}

// Uint64 returns the lower 64-bits of the value of u.
func (u *Uint) Uint64() uint64 {
	return u.u.Uint64()
}

// BigInt returns a big.Int version of the value of u.
func (u *Uint) BigInt() *big.Int {
	return u.u.ToBig()
}

// String returns the stored value as a string, in base 10.
func (u *Uint) String() string {
	return u.u.ToBig().String()
}

// Bytes return the internal representation of the Uint
// as a [32]bytes, BigEndian encoded.
func (u *Uint) Bytes() [32]byte {
	return u.u.Bytes32()
}
