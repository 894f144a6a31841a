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

package types

import (
	"fmt"
	"time"

	"code.futarchyprotocol.io/futarchy/libs/num"
)

// Side is the side of a conditional market a position is held on.
type Side int32

const (
	// SideUnspecified Default value, always invalid.
	SideUnspecified Side = iota
	// SidePass positions pay out when the proposal outcome is adopted.
	SidePass
	// SideFail positions pay out when the proposal outcome is not adopted.
	SideFail
)

func (s Side) String() string {
	switch s {
	case SidePass:
		return "pass"
	case SideFail:
		return "fail"
	default:
		return "unspecified"
	}
}

// Opposite returns the other side of the pair.
func (s Side) Opposite() Side {
	switch s {
	case SidePass:
		return SideFail
	case SideFail:
		return SidePass
	default:
		return SideUnspecified
	}
}

// OutcomeIndex maps the side onto its payout vector slot.
func (s Side) OutcomeIndex() int {
	switch s {
	case SidePass:
		return OutcomeIndexPass
	case SideFail:
		return OutcomeIndexFail
	default:
		return -1
	}
}

// IsValid returns whether the side is one of the two tradable sides.
func (s Side) IsValid() bool {
	return s == SidePass || s == SideFail
}

// BetType qualifies what a market pair is deciding on.
type BetType int32

const (
	// BetTypeUnspecified Default value, always invalid.
	BetTypeUnspecified BetType = iota
	// BetTypeFunding markets gate a treasury withdrawal on the outcome.
	BetTypeFunding
	// BetTypeSignal markets are advisory, no funds move on resolution.
	BetTypeSignal
)

func (b BetType) String() string {
	switch b {
	case BetTypeFunding:
		return "funding"
	case BetTypeSignal:
		return "signal"
	default:
		return "unspecified"
	}
}

// IsValid returns whether the bet type is a known one.
func (b BetType) IsValid() bool {
	return b == BetTypeFunding || b == BetTypeSignal
}

// MarketStatus is the lifecycle state of a conditional market pair.
type MarketStatus int32

const (
	// MarketStatusUnspecified Default value, always invalid.
	MarketStatusUnspecified MarketStatus = iota
	// MarketStatusActive trading is open on both sides.
	MarketStatusActive
	// MarketStatusTradingEnded trading is halted, awaiting resolution.
	MarketStatusTradingEnded
	// MarketStatusResolved payouts have been reported, positions redeemable.
	MarketStatusResolved
	// MarketStatusCancelled the market was cancelled before resolution.
	MarketStatusCancelled
)

func (s MarketStatus) String() string {
	switch s {
	case MarketStatusActive:
		return "active"
	case MarketStatusTradingEnded:
		return "trading-ended"
	case MarketStatusResolved:
		return "resolved"
	case MarketStatusCancelled:
		return "cancelled"
	default:
		return "unspecified"
	}
}

// CanTransitionTo is the single authority on legal market status
// transitions, all status changes have to be checked against it.
func (s MarketStatus) CanTransitionTo(next MarketStatus) bool {
	switch s {
	case MarketStatusActive:
		return next == MarketStatusTradingEnded || next == MarketStatusCancelled
	case MarketStatusTradingEnded:
		return next == MarketStatusResolved
	default:
		// resolved and cancelled are terminal
		return false
	}
}

// Market is a PASS/FAIL conditional market pair priced by a single
// automated market maker against one shared collateral pool.
type Market struct {
	ID              string
	ProposalID      string
	CollateralAsset string
	BetType         BetType
	Status          MarketStatus

	// LiquidityParam is the market maker's liquidity parameter b.
	LiquidityParam num.Decimal
	// Liquidity is the collateral escrowed to seed the maker inventory.
	Liquidity *num.Uint

	ConditionID    string
	PassPositionID string
	FailPositionID string

	CreatedAt      time.Time
	TradingEndTime time.Time

	// PassValue and FailValue hold the welfare metric values adopted at
	// resolution, nil until the market is resolved.
	PassValue *num.Uint
	FailValue *num.Uint
}

func (m Market) DeepClone() *Market {
	cpy := m
	if m.Liquidity != nil {
		cpy.Liquidity = m.Liquidity.Clone()
	}
	if m.PassValue != nil {
		cpy.PassValue = m.PassValue.Clone()
	}
	if m.FailValue != nil {
		cpy.FailValue = m.FailValue.Clone()
	}
	return &cpy
}

func (m Market) String() string {
	return fmt.Sprintf(
		"ID(%s) proposalID(%s) asset(%s) betType(%s) status(%s) liquidityParam(%s) liquidity(%s) conditionID(%s) tradingEndTime(%s)",
		m.ID,
		m.ProposalID,
		m.CollateralAsset,
		m.BetType.String(),
		m.Status.String(),
		m.LiquidityParam.String(),
		uintString(m.Liquidity),
		m.ConditionID,
		m.TradingEndTime.Format(time.RFC3339),
	)
}

// MarketDeployment is the request to deploy a new conditional market
// pair, either standalone or on proposal activation.
type MarketDeployment struct {
	ProposalID      string
	CollateralAsset string
	Liquidity       *num.Uint
	LiquidityParam  num.Decimal
	TradingPeriod   time.Duration
	BetType         BetType
}

func (d MarketDeployment) String() string {
	return fmt.Sprintf(
		"proposalID(%s) asset(%s) liquidity(%s) liquidityParam(%s) tradingPeriod(%s) betType(%s)",
		d.ProposalID,
		d.CollateralAsset,
		uintString(d.Liquidity),
		d.LiquidityParam.String(),
		d.TradingPeriod.String(),
		d.BetType.String(),
	)
}

// MarketResolution carries the observed welfare metric values a market
// pair is resolved against.
type MarketResolution struct {
	MarketID  string
	PassValue *num.Uint
	FailValue *num.Uint
}

func (r MarketResolution) String() string {
	return fmt.Sprintf(
		"marketID(%s) passValue(%s) failValue(%s)",
		r.MarketID,
		uintString(r.PassValue),
		uintString(r.FailValue),
	)
}

func uintString(u *num.Uint) string {
	if u == nil {
		return "nil"
	}
	return u.String()
}
