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
)

// ConditionPrepared is emitted when a new binary condition is prepared
// on the position ledger.
type ConditionPrepared struct {
	*Base
	conditionID string
	oracle      string
	questionID  string
	asset       string
}

func NewConditionPrepared(ctx context.Context, conditionID, oracle, questionID, asset string) *ConditionPrepared {
	return &ConditionPrepared{
		Base:        newBase(ctx, ConditionPreparedEvent),
		conditionID: conditionID,
		oracle:      oracle,
		questionID:  questionID,
		asset:       asset,
	}
}

func (e ConditionPrepared) ConditionID() string {
	return e.conditionID
}

func (e ConditionPrepared) Oracle() string {
	return e.oracle
}

func (e ConditionPrepared) QuestionID() string {
	return e.questionID
}

func (e ConditionPrepared) Asset() string {
	return e.asset
}

// PayoutsReported is emitted once when the condition's oracle reports
// the payout vector, making positions redeemable.
type PayoutsReported struct {
	*Base
	conditionID string
	oracle      string
	numerators  [2]uint64
}

func NewPayoutsReported(ctx context.Context, conditionID, oracle string, numerators [2]uint64) *PayoutsReported {
	return &PayoutsReported{
		Base:        newBase(ctx, PayoutsReportedEvent),
		conditionID: conditionID,
		oracle:      oracle,
		numerators:  numerators,
	}
}

func (e PayoutsReported) ConditionID() string {
	return e.conditionID
}

func (e PayoutsReported) Oracle() string {
	return e.oracle
}

func (e PayoutsReported) Numerators() [2]uint64 {
	return e.numerators
}
