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

// Package lmsr implements the logarithmic market scoring rule used to
// price the PASS/FAIL sides of a conditional market pair. The maker is
// a pure value type, all collateral and position movements are the
// market engine's job.
package lmsr

import (
	"errors"

	"code.futarchyprotocol.io/futarchy/core/types"
	"code.futarchyprotocol.io/futarchy/libs/num"
)

// curvePrecision is the number of decimal digits all curve math is
// carried out at, well past the 18 decimals quotes are handed out with.
const curvePrecision int32 = 28

var (
	// ErrInvalidLiquidityParameter is returned when a maker is created
	// with a non-positive liquidity parameter.
	ErrInvalidLiquidityParameter = errors.New("liquidity parameter must be positive")
	// ErrInvalidSide is returned when quoting for a side that is neither
	// pass nor fail.
	ErrInvalidSide = errors.New("invalid market side")
	// ErrInvalidAmount is returned when quoting a zero-sized trade.
	ErrInvalidAmount = errors.New("trade amount must be positive")
	// ErrQuoteOverflow is returned when a quoted cost does not fit an
	// unsigned 256 bit integer.
	ErrQuoteOverflow = errors.New("quoted cost overflows")
)

// Maker prices one PASS/FAIL pair with the logarithmic market scoring
// rule, cost C(q) = b*ln(exp(qPass/b)+exp(qFail/b)). The quantities are
// the net outcome shares the maker has sold per side, they go negative
// when parties sell it shares they minted elsewhere.
type Maker struct {
	b     num.Decimal
	qPass num.Decimal
	qFail num.Decimal
}

// NewMaker returns a maker with no outstanding shares on either side,
// priced with the given liquidity parameter.
func NewMaker(b num.Decimal) (*Maker, error) {
	if !b.IsPositive() {
		return nil, ErrInvalidLiquidityParameter
	}
	return &Maker{
		b:     b,
		qPass: num.DecimalZero(),
		qFail: num.DecimalZero(),
	}, nil
}

// LiquidityParam returns the liquidity parameter b.
func (m Maker) LiquidityParam() num.Decimal {
	return m.b
}

// Outstanding returns the net shares sold on the given side.
func (m Maker) Outstanding(side types.Side) num.Decimal {
	switch side {
	case types.SidePass:
		return m.qPass
	case types.SideFail:
		return m.qFail
	default:
		return num.DecimalZero()
	}
}

// Cost returns the current value of the cost function. The exponents
// are shifted by the larger quantity so they never exceed zero, which
// keeps the series expansions converging for any reachable state.
func (m Maker) Cost() num.Decimal {
	return costOf(m.b, m.qPass, m.qFail)
}

func costOf(b, qPass, qFail num.Decimal) num.Decimal {
	shift := num.MaxD(qPass, qFail)
	ePass := mustExp(qPass.Sub(shift).DivRound(b, curvePrecision))
	eFail := mustExp(qFail.Sub(shift).DivRound(b, curvePrecision))
	return shift.Add(b.Mul(mustLn(ePass.Add(eFail))))
}

// Price returns the marginal price of the given side, strictly inside
// (0,1). The two sides are computed from the same sigmoid so their sum
// only ever misses 1 by the rounding of the final division.
func (m Maker) Price(side types.Side) (num.Decimal, error) {
	if !side.IsValid() {
		return num.DecimalZero(), ErrInvalidSide
	}
	qSide, qOther := m.qPass, m.qFail
	if side == types.SideFail {
		qSide, qOther = qOther, qSide
	}
	// price(side) = 1 / (1 + exp((qOther-qSide)/b)), evaluated on the
	// branch whose exponent is non-positive.
	x := qSide.Sub(qOther).DivRound(m.b, curvePrecision)
	one := num.DecimalOne()
	if x.IsNegative() {
		t := mustExp(x)
		return t.DivRound(one.Add(t), curvePrecision), nil
	}
	t := mustExp(x.Neg())
	return one.DivRound(one.Add(t), curvePrecision), nil
}

// QuoteBuy returns the collateral cost of buying amount shares of the
// given side, rounded up so the rounding never favours the buyer. A
// strictly positive trade never quotes below one unit.
func (m Maker) QuoteBuy(side types.Side, amount *num.Uint) (*num.Uint, error) {
	delta, err := tradeSize(side, amount)
	if err != nil {
		return nil, err
	}
	qPass, qFail := m.qPass, m.qFail
	if side == types.SidePass {
		qPass = qPass.Add(delta)
	} else {
		qFail = qFail.Add(delta)
	}
	cost := costOf(m.b, qPass, qFail).Sub(m.Cost()).Ceil()
	quote, overflow := num.UintFromDecimal(cost)
	if overflow {
		return nil, ErrQuoteOverflow
	}
	if quote.IsZero() {
		quote = num.UintOne()
	}
	return quote, nil
}

// QuoteSell returns the collateral paid out for selling amount shares
// of the given side back to the maker, rounded down. Selling into a
// one-sided book can legitimately quote zero.
func (m Maker) QuoteSell(side types.Side, amount *num.Uint) (*num.Uint, error) {
	delta, err := tradeSize(side, amount)
	if err != nil {
		return nil, err
	}
	qPass, qFail := m.qPass, m.qFail
	if side == types.SidePass {
		qPass = qPass.Sub(delta)
	} else {
		qFail = qFail.Sub(delta)
	}
	payment := m.Cost().Sub(costOf(m.b, qPass, qFail)).Floor()
	quote, overflow := num.UintFromDecimal(payment)
	if overflow {
		return nil, ErrQuoteOverflow
	}
	return quote, nil
}

// ApplyBuy advances the curve after a buy fill was settled.
func (m *Maker) ApplyBuy(side types.Side, amount *num.Uint) {
	delta := num.DecimalFromUint(amount)
	if side == types.SidePass {
		m.qPass = m.qPass.Add(delta)
		return
	}
	m.qFail = m.qFail.Add(delta)
}

// ApplySell advances the curve after a sell fill was settled.
func (m *Maker) ApplySell(side types.Side, amount *num.Uint) {
	delta := num.DecimalFromUint(amount)
	if side == types.SidePass {
		m.qPass = m.qPass.Sub(delta)
		return
	}
	m.qFail = m.qFail.Sub(delta)
}

func tradeSize(side types.Side, amount *num.Uint) (num.Decimal, error) {
	if !side.IsValid() {
		return num.DecimalZero(), ErrInvalidSide
	}
	if amount == nil || amount.IsZero() {
		return num.DecimalZero(), ErrInvalidAmount
	}
	return num.DecimalFromUint(amount), nil
}

// mustExp evaluates exp(x) for x <= 0. The series expansion cannot fail
// there, a non-nil error means the caller broke the shift invariant.
func mustExp(x num.Decimal) num.Decimal {
	d, err := x.ExpTaylor(curvePrecision)
	if err != nil {
		panic("lmsr: exp of shifted exponent failed: " + err.Error())
	}
	return d
}

// mustLn evaluates ln(x) for x >= 1, which holds because the larger
// shifted exponent is always exactly one.
func mustLn(x num.Decimal) num.Decimal {
	d, err := x.Ln(curvePrecision)
	if err != nil {
		panic("lmsr: ln of cost sum failed: " + err.Error())
	}
	return d
}
