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

// NetworkParty is the identity protocol engines act under when they call
// into each other, granted the relevant capabilities at wiring time.
const NetworkParty = "network"

// Capability identifies a permissioned protocol operation. Whether a
// party holds one is decided by the host's capability registry.
type Capability int32

const (
	// CapabilityUnspecified Default value, always invalid.
	CapabilityUnspecified Capability = iota
	// CapabilityProposalSubmitter allows submitting governance proposals.
	CapabilityProposalSubmitter
	// CapabilityProposalReviewer allows activating reviewed proposals.
	CapabilityProposalReviewer
	// CapabilityMarketCreator allows deploying conditional market pairs.
	CapabilityMarketCreator
	// CapabilityMarketResolver allows resolving and cancelling markets.
	CapabilityMarketResolver
	// CapabilityDisputeEscalator allows escalating challenged reports to
	// the dispute oracle.
	CapabilityDisputeEscalator
)

func (c Capability) IsValid() bool {
	switch c {
	case CapabilityProposalSubmitter,
		CapabilityProposalReviewer,
		CapabilityMarketCreator,
		CapabilityMarketResolver,
		CapabilityDisputeEscalator:
		return true
	default:
		return false
	}
}

func (c Capability) String() string {
	switch c {
	case CapabilityProposalSubmitter:
		return "proposal-submitter"
	case CapabilityProposalReviewer:
		return "proposal-reviewer"
	case CapabilityMarketCreator:
		return "market-creator"
	case CapabilityMarketResolver:
		return "market-resolver"
	case CapabilityDisputeEscalator:
		return "dispute-escalator"
	default:
		return "unspecified"
	}
}
