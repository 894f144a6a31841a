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

package events

import (
	"context"

	"code.futarchyprotocol.io/futarchy/libs/num"
)

// ResolutionOpened is emitted when the oracle resolution process for a
// proposal is opened and starts waiting for the designated report.
type ResolutionOpened struct {
	*Base
	proposalID string
	reporter   string
}

func NewResolutionOpened(ctx context.Context, proposalID, reporter string) *ResolutionOpened {
	return &ResolutionOpened{
		Base:       newBase(ctx, ResolutionOpenedEvent),
		proposalID: proposalID,
		reporter:   reporter,
	}
}

func (e ResolutionOpened) ProposalID() string {
	return e.proposalID
}

func (e ResolutionOpened) Reporter() string {
	return e.reporter
}

// ReportSubmitted is emitted when the designated reporter files its
// bonded report.
type ReportSubmitted struct {
	*Base
	proposalID string
	reporter   string
	passValue  *num.Uint
	failValue  *num.Uint
	bond       *num.Uint
}

func NewReportSubmitted(ctx context.Context, proposalID, reporter string, passValue, failValue, bond *num.Uint) *ReportSubmitted {
	return &ReportSubmitted{
		Base:       newBase(ctx, ReportSubmittedEvent),
		proposalID: proposalID,
		reporter:   reporter,
		passValue:  passValue.Clone(),
		failValue:  failValue.Clone(),
		bond:       bond.Clone(),
	}
}

func (e ReportSubmitted) ProposalID() string {
	return e.proposalID
}

func (e ReportSubmitted) Reporter() string {
	return e.reporter
}

func (e ReportSubmitted) PassValue() *num.Uint {
	return e.passValue.Clone()
}

func (e ReportSubmitted) FailValue() *num.Uint {
	return e.failValue.Clone()
}

func (e ReportSubmitted) Bond() *num.Uint {
	return e.bond.Clone()
}

func (e ReportSubmitted) IsParty(id string) bool {
	return e.reporter == id
}

// ReportChallenged is emitted when a bonded counter-report is filed
// inside the challenge window.
type ReportChallenged struct {
	*Base
	proposalID string
	challenger string
	passValue  *num.Uint
	failValue  *num.Uint
	bond       *num.Uint
}

func NewReportChallenged(ctx context.Context, proposalID, challenger string, passValue, failValue, bond *num.Uint) *ReportChallenged {
	return &ReportChallenged{
		Base:       newBase(ctx, ReportChallengedEvent),
		proposalID: proposalID,
		challenger: challenger,
		passValue:  passValue.Clone(),
		failValue:  failValue.Clone(),
		bond:       bond.Clone(),
	}
}

func (e ReportChallenged) ProposalID() string {
	return e.proposalID
}

func (e ReportChallenged) Challenger() string {
	return e.challenger
}

func (e ReportChallenged) PassValue() *num.Uint {
	return e.passValue.Clone()
}

func (e ReportChallenged) FailValue() *num.Uint {
	return e.failValue.Clone()
}

func (e ReportChallenged) Bond() *num.Uint {
	return e.bond.Clone()
}

func (e ReportChallenged) IsParty(id string) bool {
	return e.challenger == id
}

// DisputeEscalated is emitted when a challenged report is escalated to
// the external dispute oracle.
type DisputeEscalated struct {
	*Base
	proposalID string
	disputeRef string
}

func NewDisputeEscalated(ctx context.Context, proposalID, disputeRef string) *DisputeEscalated {
	return &DisputeEscalated{
		Base:       newBase(ctx, DisputeEscalatedEvent),
		proposalID: proposalID,
		disputeRef: disputeRef,
	}
}

func (e DisputeEscalated) ProposalID() string {
	return e.proposalID
}

func (e DisputeEscalated) DisputeRef() string {
	return e.disputeRef
}

// ResolutionFinalized is emitted when outcome values are adopted and
// the bonds paid out.
type ResolutionFinalized struct {
	*Base
	proposalID string
	passValue  *num.Uint
	failValue  *num.Uint
}

func NewResolutionFinalized(ctx context.Context, proposalID string, passValue, failValue *num.Uint) *ResolutionFinalized {
	return &ResolutionFinalized{
		Base:       newBase(ctx, ResolutionFinalizedEvent),
		proposalID: proposalID,
		passValue:  passValue.Clone(),
		failValue:  failValue.Clone(),
	}
}

func (e ResolutionFinalized) ProposalID() string {
	return e.proposalID
}

func (e ResolutionFinalized) PassValue() *num.Uint {
	return e.passValue.Clone()
}

func (e ResolutionFinalized) FailValue() *num.Uint {
	return e.failValue.Clone()
}
