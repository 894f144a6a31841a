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
)

type allServices struct {
	log             *logging.Logger
	confWatcher     *config.Watcher
	confListenerIDs []int
	conf            config.Config

	broker      *broker.Broker
	timeService *prototime.Svc

	collateral    *collateral.Engine
	conditions    *conditions.Engine
	capabilities  *capabilities.Engine
	nullification *nullification.Engine
	treasury      *treasury.Engine
	markets       *markets.Engine
	resolution    *resolution.Engine
	governor      *governor.Engine
}

func newServices(
	log *logging.Logger,
	conf *config.Watcher,
	disputeOracle resolution.DisputeOracle,
) *allServices {
	svcs := &allServices{
		log:         log,
		confWatcher: conf,
		conf:        conf.Get(),
	}

	svcs.broker = broker.New(svcs.log, svcs.conf.Broker)
	svcs.timeService = prototime.New(svcs.log, svcs.conf.Time)

	svcs.collateral = collateral.New(svcs.log, svcs.conf.Collateral, svcs.broker)
	svcs.conditions = conditions.New(svcs.log, svcs.conf.Conditions, svcs.collateral, svcs.broker)
	svcs.capabilities = capabilities.New(svcs.log, svcs.conf.Capabilities)
	svcs.nullification = nullification.New(svcs.log, svcs.conf.Nullification)
	svcs.treasury = treasury.New(svcs.log, svcs.conf.Treasury, svcs.collateral)

	svcs.markets = markets.New(svcs.log, svcs.conf.Markets,
		svcs.timeService, svcs.capabilities, svcs.nullification, svcs.conditions, svcs.collateral, svcs.broker)
	svcs.resolution = resolution.New(svcs.log, svcs.conf.Resolution,
		svcs.timeService, svcs.capabilities, svcs.collateral, disputeOracle, svcs.broker)
	svcs.governor = governor.New(svcs.log, svcs.conf.Governor,
		svcs.timeService, svcs.capabilities, svcs.markets, svcs.resolution, svcs.treasury, svcs.broker)

	// proposal review runs off the protocol clock, and configuration
	// updates land between time updates, never inside one
	svcs.timeService.NotifyOnTick(svcs.governor.OnTick)
	svcs.timeService.NotifyOnTick(svcs.confWatcher.OnTimeUpdate)

	svcs.registerConfigWatchers()
	return svcs
}

func (svcs *allServices) registerConfigWatchers() {
	svcs.confListenerIDs = svcs.confWatcher.OnConfigUpdateWithID(
		func(cfg config.Config) { svcs.broker.ReloadConf(cfg.Broker) },
		func(cfg config.Config) { svcs.timeService.ReloadConf(cfg.Time) },
		func(cfg config.Config) { svcs.collateral.ReloadConf(cfg.Collateral) },
		func(cfg config.Config) { svcs.conditions.ReloadConf(cfg.Conditions) },
		func(cfg config.Config) { svcs.capabilities.ReloadConf(cfg.Capabilities) },
		func(cfg config.Config) { svcs.nullification.ReloadConf(cfg.Nullification) },
		func(cfg config.Config) { svcs.treasury.ReloadConf(cfg.Treasury) },
		func(cfg config.Config) { svcs.markets.ReloadConf(cfg.Markets) },
		func(cfg config.Config) { svcs.resolution.ReloadConf(cfg.Resolution) },
		func(cfg config.Config) { svcs.governor.ReloadConf(cfg.Governor) },
	)
}

func (svcs *allServices) Stop() {
	svcs.confWatcher.Unregister(svcs.confListenerIDs)
}
