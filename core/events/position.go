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

// PositionsSplit is emitted when collateral is split into a pair of
// complementary outcome positions.
type PositionsSplit struct {
	*Base
	party       string
	conditionID string
	asset       string
	amount      *num.Uint
}

func NewPositionsSplit(ctx context.Context, party, conditionID, asset string, amount *num.Uint) *PositionsSplit {
	return &PositionsSplit{
		Base:        newBase(ctx, PositionsSplitEvent),
		party:       party,
		conditionID: conditionID,
		asset:       asset,
		amount:      amount.Clone(),
	}
}

func (e PositionsSplit) Party() string {
	return e.party
}

func (e PositionsSplit) ConditionID() string {
	return e.conditionID
}

func (e PositionsSplit) Asset() string {
	return e.asset
}

func (e PositionsSplit) Amount() *num.Uint {
	return e.amount.Clone()
}

func (e PositionsSplit) IsParty(id string) bool {
	return e.party == id
}

// PositionsMerged is emitted when a pair of complementary outcome
// positions is merged back into collateral.
type PositionsMerged struct {
	*Base
	party       string
	conditionID string
	asset       string
	amount      *num.Uint
}

func NewPositionsMerged(ctx context.Context, party, conditionID, asset string, amount *num.Uint) *PositionsMerged {
	return &PositionsMerged{
		Base:        newBase(ctx, PositionsMergedEvent),
		party:       party,
		conditionID: conditionID,
		asset:       asset,
		amount:      amount.Clone(),
	}
}

func (e PositionsMerged) Party() string {
	return e.party
}

func (e PositionsMerged) ConditionID() string {
	return e.conditionID
}

func (e PositionsMerged) Asset() string {
	return e.asset
}

func (e PositionsMerged) Amount() *num.Uint {
	return e.amount.Clone()
}

func (e PositionsMerged) IsParty(id string) bool {
	return e.party == id
}

// PositionsRedeemed is emitted when a party burns positions of a
// resolved condition for their collateral payout.
type PositionsRedeemed struct {
	*Base
	party       string
	conditionID string
	asset       string
	payout      *num.Uint
}

func NewPositionsRedeemed(ctx context.Context, party, conditionID, asset string, payout *num.Uint) *PositionsRedeemed {
	return &PositionsRedeemed{
		Base:        newBase(ctx, PositionsRedeemedEvent),
		party:       party,
		conditionID: conditionID,
		asset:       asset,
		payout:      payout.Clone(),
	}
}

func (e PositionsRedeemed) Party() string {
	return e.party
}

func (e PositionsRedeemed) ConditionID() string {
	return e.conditionID
}

func (e PositionsRedeemed) Asset() string {
	return e.asset
}

func (e PositionsRedeemed) Payout() *num.Uint {
	return e.payout.Clone()
}

func (e PositionsRedeemed) IsParty(id string) bool {
	return e.party == id
}

// PositionTransferred is emitted when outcome positions move between
// two owners, the market maker inventory legs included.
type PositionTransferred struct {
	*Base
	from       string
	to         string
	positionID string
	amount     *num.Uint
}

func NewPositionTransferred(ctx context.Context, from, to, positionID string, amount *num.Uint) *PositionTransferred {
	return &PositionTransferred{
		Base:       newBase(ctx, PositionTransferredEvent),
		from:       from,
		to:         to,
		positionID: positionID,
		amount:     amount.Clone(),
	}
}

func (e PositionTransferred) From() string {
	return e.from
}

func (e PositionTransferred) To() string {
	return e.to
}

func (e PositionTransferred) PositionID() string {
	return e.positionID
}

func (e PositionTransferred) Amount() *num.Uint {
	return e.amount.Clone()
}

func (e PositionTransferred) IsParty(id string) bool {
	return e.from == id || e.to == id
}
