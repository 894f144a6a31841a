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

// Package nullification keeps the registry of markets and parties the
// host has pulled out of circulation. The market engine refuses trades
// on nullified markets and from nullified parties when enforcement is
// switched on.
package nullification

import (
	"errors"

	"code.futarchyprotocol.io/futarchy/logging"
)

var (
	// ErrInvalidMarketID is returned when nullifying an empty market id.
	ErrInvalidMarketID = errors.New("invalid market identifier")
	// ErrInvalidParty is returned when nullifying an empty party.
	ErrInvalidParty = errors.New("invalid party")
)

// Engine is the nullification registry.
type Engine struct {
	Config
	log *logging.Logger

	markets map[string]struct{}
	parties map[string]struct{}
}

// New instantiates a new nullification registry.
func New(log *logging.Logger, conf Config) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())

	return &Engine{
		Config:  conf,
		log:     log,
		markets: map[string]struct{}{},
		parties: map[string]struct{}{},
	}
}

// ReloadConf updates the internal configuration of the registry.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}
	e.Config = cfg
}

// NullifyMarket pulls a market out of circulation.
func (e *Engine) NullifyMarket(marketID string) error {
	if len(marketID) == 0 {
		return ErrInvalidMarketID
	}
	e.markets[marketID] = struct{}{}
	e.log.Warn("market nullified", logging.MarketID(marketID))
	return nil
}

// ReinstateMarket lifts a market's nullification.
func (e *Engine) ReinstateMarket(marketID string) error {
	if len(marketID) == 0 {
		return ErrInvalidMarketID
	}
	delete(e.markets, marketID)
	e.log.Info("market reinstated", logging.MarketID(marketID))
	return nil
}

// NullifyParty bars a party from trading.
func (e *Engine) NullifyParty(party string) error {
	if len(party) == 0 {
		return ErrInvalidParty
	}
	e.parties[party] = struct{}{}
	e.log.Warn("party nullified", logging.PartyID(party))
	return nil
}

// ReinstateParty lifts a party's nullification.
func (e *Engine) ReinstateParty(party string) error {
	if len(party) == 0 {
		return ErrInvalidParty
	}
	delete(e.parties, party)
	e.log.Info("party reinstated", logging.PartyID(party))
	return nil
}

// IsMarketNullified reports whether a market is out of circulation.
func (e *Engine) IsMarketNullified(marketID string) bool {
	_, ok := e.markets[marketID]
	return ok
}

// IsPartyNullified reports whether a party is barred from trading.
func (e *Engine) IsPartyNullified(party string) bool {
	_, ok := e.parties[party]
	return ok
}
