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

// Package protocol assembles the engines of a futarchy node into one
// runnable unit: a shared event broker and protocol clock, the
// collateral and conditional-token ledgers, the market, resolution and
// treasury engines, and the governor driving proposals across all of
// them. Construction order follows the dependency graph, so every
// engine receives fully-built collaborators.
package protocol

import (
	"code.futarchyprotocol.io/futarchy/config"
	"code.futarchyprotocol.io/futarchy/core/broker"
	"code.futarchyprotocol.io/futarchy/core/capabilities"
	"code.futarchyprotocol.io/futarchy/core/collateral"
	"code.futarchyprotocol.io/futarchy/core/conditions"
	"code.futarchyprotocol.io/futarchy/core/governor"
	"code.futarchyprotocol.io/futarchy/core/markets"
	"code.futarchyprotocol.io/futarchy/core/nullification"
	"code.futarchyprotocol.io/futarchy/core/prototime"
	"code.futarchyprotocol.io/futarchy/core/resolution"
	"code.futarchyprotocol.io/futarchy/core/treasury"
	"code.futarchyprotocol.io/futarchy/logging"

	"github.com/blang/semver"
)

// Version is the protocol ruleset version. Nodes running different
// versions may diverge on replay.
var Version = semver.MustParse("0.1.0")

type Protocol struct {
	log *logging.Logger

	confWatcher *config.Watcher
	services    *allServices
}

// New wires all protocol services. The dispute oracle is the one
// collaborator the protocol cannot host itself: it represents the
// external adjudicator consulted for escalated resolutions.
func New(
	confWatcher *config.Watcher,
	log *logging.Logger,
	disputeOracle resolution.DisputeOracle,
) *Protocol {
	return &Protocol{
		log:         log,
		confWatcher: confWatcher,
		services:    newServices(log, confWatcher, disputeOracle),
	}
}

// Stop unregisters the configuration listeners. The engines run no
// goroutines of their own, so there is nothing else to wind down.
func (p *Protocol) Stop() error {
	p.log.Info("Stopping protocol services")
	p.services.Stop()
	return nil
}

func (p *Protocol) Protocol() semver.Version {
	return Version
}

func (p *Protocol) GetBroker() *broker.Broker {
	return p.services.broker
}

func (p *Protocol) GetTimeService() *prototime.Svc {
	return p.services.timeService
}

func (p *Protocol) GetCollateralEngine() *collateral.Engine {
	return p.services.collateral
}

func (p *Protocol) GetConditionsEngine() *conditions.Engine {
	return p.services.conditions
}

func (p *Protocol) GetCapabilitiesEngine() *capabilities.Engine {
	return p.services.capabilities
}

func (p *Protocol) GetNullificationEngine() *nullification.Engine {
	return p.services.nullification
}

func (p *Protocol) GetTreasuryEngine() *treasury.Engine {
	return p.services.treasury
}

func (p *Protocol) GetMarketsEngine() *markets.Engine {
	return p.services.markets
}

func (p *Protocol) GetResolutionEngine() *resolution.Engine {
	return p.services.resolution
}

func (p *Protocol) GetGovernor() *governor.Engine {
	return p.services.governor
}
