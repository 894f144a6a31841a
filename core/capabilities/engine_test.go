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

package capabilities_test

import (
	"testing"

	"code.futarchyprotocol.io/futarchy/core/capabilities"
	"code.futarchyprotocol.io/futarchy/core/types"
	vgrand "code.futarchyprotocol.io/futarchy/libs/rand"
	"code.futarchyprotocol.io/futarchy/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestEngine(t *testing.T) *capabilities.Engine {
	t.Helper()
	return capabilities.New(logging.NewTestLogger(), capabilities.NewDefaultConfig())
}

func TestCapabilityRegistry(t *testing.T) {
	t.Run("A granted capability is held until revoked", testGrantRevoke)
	t.Run("Grants are scoped to one party and capability", testGrantScope)
	t.Run("Grant and revoke inputs are validated", testGrantValidation)
	t.Run("Repeated grants and revokes are harmless", testGrantIdempotent)
}

func testGrantRevoke(t *testing.T) {
	eng := getTestEngine(t)
	party := vgrand.RandomStr(5)

	assert.False(t, eng.HasCapability(party, types.CapabilityMarketCreator))
	require.NoError(t, eng.Grant(party, types.CapabilityMarketCreator))
	assert.True(t, eng.HasCapability(party, types.CapabilityMarketCreator))

	require.NoError(t, eng.Revoke(party, types.CapabilityMarketCreator))
	assert.False(t, eng.HasCapability(party, types.CapabilityMarketCreator))
}

func testGrantScope(t *testing.T) {
	eng := getTestEngine(t)
	reviewer, other := vgrand.RandomStr(5), vgrand.RandomStr(5)

	require.NoError(t, eng.Grant(reviewer, types.CapabilityProposalReviewer))

	// neither another party nor another capability is covered
	assert.True(t, eng.HasCapability(reviewer, types.CapabilityProposalReviewer))
	assert.False(t, eng.HasCapability(other, types.CapabilityProposalReviewer))
	assert.False(t, eng.HasCapability(reviewer, types.CapabilityMarketResolver))
}

func testGrantValidation(t *testing.T) {
	eng := getTestEngine(t)
	party := vgrand.RandomStr(5)

	require.ErrorIs(t, eng.Grant("", types.CapabilityMarketCreator), capabilities.ErrInvalidParty)
	require.ErrorIs(t, eng.Grant(party, types.CapabilityUnspecified), capabilities.ErrInvalidCapability)
	require.ErrorIs(t, eng.Revoke("", types.CapabilityMarketCreator), capabilities.ErrInvalidParty)
	require.ErrorIs(t, eng.Revoke(party, types.CapabilityUnspecified), capabilities.ErrInvalidCapability)
}

func testGrantIdempotent(t *testing.T) {
	eng := getTestEngine(t)
	party := vgrand.RandomStr(5)

	require.NoError(t, eng.Grant(party, types.CapabilityDisputeEscalator))
	require.NoError(t, eng.Grant(party, types.CapabilityDisputeEscalator))
	assert.True(t, eng.HasCapability(party, types.CapabilityDisputeEscalator))

	require.NoError(t, eng.Revoke(party, types.CapabilityDisputeEscalator))
	require.NoError(t, eng.Revoke(party, types.CapabilityDisputeEscalator))
	assert.False(t, eng.HasCapability(party, types.CapabilityDisputeEscalator))

	// revoking from a party with no grants at all works too
	require.NoError(t, eng.Revoke(vgrand.RandomStr(5), types.CapabilityMarketCreator))
}
