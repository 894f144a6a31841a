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

package types_test

import (
	"testing"

	"code.futarchyprotocol.io/futarchy/core/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionIDs(t *testing.T) {
	t.Run("Preparing the same condition twice yields the same id", func(t *testing.T) {
		a := types.NewConditionID("market-controller", "proposal-1", types.BinaryOutcomeSlots)
		b := types.NewConditionID("market-controller", "proposal-1", types.BinaryOutcomeSlots)
		assert.Equal(t, a, b)
	})

	t.Run("Any differing input yields a different id", func(t *testing.T) {
		base := types.NewConditionID("market-controller", "proposal-1", types.BinaryOutcomeSlots)
		assert.NotEqual(t, base, types.NewConditionID("other-oracle", "proposal-1", types.BinaryOutcomeSlots))
		assert.NotEqual(t, base, types.NewConditionID("market-controller", "proposal-2", types.BinaryOutcomeSlots))
		assert.NotEqual(t, base, types.NewConditionID("market-controller", "proposal-1", 3))
	})

	t.Run("Each outcome slot gets its own position id", func(t *testing.T) {
		conditionID := types.NewConditionID("market-controller", "proposal-1", types.BinaryOutcomeSlots)
		pass := types.NewPositionID(conditionID, types.OutcomeIndexPass)
		fail := types.NewPositionID(conditionID, types.OutcomeIndexFail)

		assert.NotEqual(t, pass, fail)
		assert.Equal(t, pass, types.NewPositionID(conditionID, types.OutcomeIndexPass))
	})
}

func TestConditionDeepClone(t *testing.T) {
	cond := types.Condition{
		ID:                "condition-1",
		Oracle:            "market-controller",
		QuestionID:        "proposal-1",
		OutcomeSlotCount:  types.BinaryOutcomeSlots,
		CollateralAsset:   "USD",
		PayoutNumerators:  []uint64{1, 0},
		PayoutDenominator: 1,
		Resolved:          true,
	}

	cpy := cond.DeepClone()
	require.Equal(t, cond.PayoutNumerators, cpy.PayoutNumerators)

	cpy.PayoutNumerators[0] = 0
	cpy.PayoutNumerators[1] = 1

	assert.Equal(t, []uint64{1, 0}, cond.PayoutNumerators)
}
