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

	"code.futarchyprotocol.io/futarchy/libs/crypto"
)

const (
	// OutcomeIndexPass is the payout vector slot for the PASS outcome.
	OutcomeIndexPass = 0
	// OutcomeIndexFail is the payout vector slot for the FAIL outcome.
	OutcomeIndexFail = 1

	// BinaryOutcomeSlots conditions settle one of two outcomes.
	BinaryOutcomeSlots uint32 = 2
)

// Condition is a binary question an oracle settles, backing a pair of
// complementary outcome positions over one collateral asset.
type Condition struct {
	ID               string
	Oracle           string
	QuestionID       string
	OutcomeSlotCount uint32
	// CollateralAsset is pinned when the condition is prepared, all
	// splits, merges and redemptions have to use it.
	CollateralAsset string

	// PayoutNumerators is zero valued until payouts are reported, after
	// which exactly one of [1 0], [0 1] or [1 1] is recorded.
	PayoutNumerators  []uint64
	PayoutDenominator uint64
	Resolved          bool
}

func (c Condition) DeepClone() *Condition {
	cpy := c
	if c.PayoutNumerators != nil {
		cpy.PayoutNumerators = make([]uint64, len(c.PayoutNumerators))
		copy(cpy.PayoutNumerators, c.PayoutNumerators)
	}
	return &cpy
}

func (c Condition) String() string {
	return fmt.Sprintf(
		"ID(%s) oracle(%s) questionID(%s) outcomeSlotCount(%d) asset(%s) resolved(%v)",
		c.ID,
		c.Oracle,
		c.QuestionID,
		c.OutcomeSlotCount,
		c.CollateralAsset,
		c.Resolved,
	)
}

// NewConditionID derives the deterministic condition identifier from the
// oracle, the question and the outcome slot count. Preparing the same
// inputs twice yields the same identifier.
func NewConditionID(oracle, questionID string, outcomeSlotCount uint32) string {
	return crypto.HashStrToHex(
		fmt.Sprintf("condition/%s/%s/%d", oracle, questionID, outcomeSlotCount),
	)
}

// NewPositionID derives the deterministic position identifier for one
// outcome slot of a condition.
func NewPositionID(conditionID string, outcomeIndex int) string {
	return crypto.HashStrToHex(
		fmt.Sprintf("position/%s/%d", conditionID, outcomeIndex),
	)
}
