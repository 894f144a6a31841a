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

// ProposalPhase is the lifecycle phase of a governance proposal.
type ProposalPhase int32

const (
	// ProposalPhaseUnspecified Default value, always invalid.
	ProposalPhaseUnspecified ProposalPhase = iota
	// ProposalPhaseSubmitted the proposal was filed, waiting for review.
	ProposalPhaseSubmitted
	// ProposalPhaseUnderReview the proposal is reviewable, a reviewer can
	// activate it.
	ProposalPhaseUnderReview
	// ProposalPhaseActive the proposal was accepted for trading, its
	// market pair is being deployed.
	ProposalPhaseActive
	// ProposalPhaseTrading the market pair is live and trading.
	ProposalPhaseTrading
	// ProposalPhaseResolution trading is over, the oracle resolution
	// process is running.
	ProposalPhaseResolution
	// ProposalPhaseExecution the pass side won, the treasury transfer is
	// timelocked.
	ProposalPhaseExecution
	// ProposalPhaseCompleted the treasury transfer was executed.
	ProposalPhaseCompleted
	// ProposalPhaseRejected the fail side won, or tied. Terminal.
	ProposalPhaseRejected
)

func (p ProposalPhase) String() string {
	switch p {
	case ProposalPhaseSubmitted:
		return "submitted"
	case ProposalPhaseUnderReview:
		return "under-review"
	case ProposalPhaseActive:
		return "active"
	case ProposalPhaseTrading:
		return "trading"
	case ProposalPhaseResolution:
		return "resolution"
	case ProposalPhaseExecution:
		return "execution"
	case ProposalPhaseCompleted:
		return "completed"
	case ProposalPhaseRejected:
		return "rejected"
	default:
		return "unspecified"
	}
}

// CanTransitionTo is the single authority on legal phase transitions,
// every phase change has to be checked against it.
func (p ProposalPhase) CanTransitionTo(next ProposalPhase) bool {
	switch p {
	case ProposalPhaseSubmitted:
		return next == ProposalPhaseUnderReview
	case ProposalPhaseUnderReview:
		return next == ProposalPhaseActive
	case ProposalPhaseActive:
		return next == ProposalPhaseTrading
	case ProposalPhaseTrading:
		return next == ProposalPhaseResolution
	case ProposalPhaseResolution:
		return next == ProposalPhaseExecution || next == ProposalPhaseRejected
	case ProposalPhaseExecution:
		return next == ProposalPhaseCompleted
	default:
		// completed and rejected are terminal
		return false
	}
}

// ProposalSubmission is what a party submits to open a new funding
// proposal.
type ProposalSubmission struct {
	Reference string
	Recipient string
	Amount    *num.Uint
	// Reporter is the designated reporter who will file the welfare
	// metric report once trading ends.
	Reporter string
	BetType  BetType
}

func (p ProposalSubmission) String() string {
	return fmt.Sprintf(
		"reference(%s) recipient(%s) amount(%s) reporter(%s) betType(%s)",
		p.Reference,
		p.Recipient,
		uintString(p.Amount),
		p.Reporter,
		p.BetType.String(),
	)
}

// ActivationTerms carries the market parameters a reviewer supplies when
// activating a proposal for trading.
type ActivationTerms struct {
	CollateralAsset string
	Liquidity       *num.Uint
	LiquidityParam  num.Decimal
	TradingPeriod   time.Duration
}

func (t ActivationTerms) String() string {
	return fmt.Sprintf(
		"asset(%s) liquidity(%s) liquidityParam(%s) tradingPeriod(%s)",
		t.CollateralAsset,
		uintString(t.Liquidity),
		t.LiquidityParam.String(),
		t.TradingPeriod.String(),
	)
}

// GovernanceProposal is a funding request whose approval is decided by a
// conditional market pair instead of a vote.
type GovernanceProposal struct {
	ID        string
	Party     string
	Reference string
	Recipient string
	Amount    *num.Uint
	Reporter  string
	BetType   BetType
	Phase     ProposalPhase

	// MarketID is set once the proposal is activated and its market pair
	// deployed.
	MarketID string

	SubmittedAt time.Time
	// ExecutionTime is the earliest time the treasury transfer can go
	// through, set when the proposal enters Execution.
	ExecutionTime time.Time
	Executed      bool
}

func (p GovernanceProposal) DeepClone() *GovernanceProposal {
	cpy := p
	if p.Amount != nil {
		cpy.Amount = p.Amount.Clone()
	}
	return &cpy
}

func (p GovernanceProposal) String() string {
	return fmt.Sprintf(
		"ID(%s) party(%s) reference(%s) recipient(%s) amount(%s) reporter(%s) betType(%s) phase(%s) marketID(%s) executed(%v)",
		p.ID,
		p.Party,
		p.Reference,
		p.Recipient,
		uintString(p.Amount),
		p.Reporter,
		p.BetType.String(),
		p.Phase.String(),
		p.MarketID,
		p.Executed,
	)
}
