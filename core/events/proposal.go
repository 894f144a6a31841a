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

	"code.futarchyprotocol.io/futarchy/core/types"
	"code.futarchyprotocol.io/futarchy/libs/num"
)

// Proposal is emitted on every phase transition of a governance
// proposal, carrying a snapshot of the proposal state.
type Proposal struct {
	*Base
	p types.GovernanceProposal
}

func NewProposal(ctx context.Context, p types.GovernanceProposal) *Proposal {
	cpy := p.DeepClone()
	return &Proposal{
		Base: newBase(ctx, ProposalEvent),
		p:    *cpy,
	}
}

func (e Proposal) Proposal() types.GovernanceProposal {
	return *e.p.DeepClone()
}

func (e Proposal) ProposalID() string {
	return e.p.ID
}

func (e Proposal) IsParty(id string) bool {
	return e.p.Party == id
}

// ProposalExecuted is emitted once the timelocked treasury action of an
// accepted proposal has been carried out.
type ProposalExecuted struct {
	*Base
	proposalID string
	recipient  string
	asset      string
	amount     *num.Uint
}

func NewProposalExecuted(ctx context.Context, proposalID, recipient, asset string, amount *num.Uint) *ProposalExecuted {
	return &ProposalExecuted{
		Base:       newBase(ctx, ProposalExecutedEvent),
		proposalID: proposalID,
		recipient:  recipient,
		asset:      asset,
		amount:     amount.Clone(),
	}
}

func (e ProposalExecuted) ProposalID() string {
	return e.proposalID
}

func (e ProposalExecuted) Recipient() string {
	return e.recipient
}

func (e ProposalExecuted) Asset() string {
	return e.asset
}

func (e ProposalExecuted) Amount() *num.Uint {
	return e.amount.Clone()
}

func (e ProposalExecuted) IsParty(id string) bool {
	return e.recipient == id
}
