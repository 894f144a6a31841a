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

// Package capabilities keeps the registry of permissioned protocol
// operations. Engines ask it whether a party may submit proposals,
// review them, deploy or resolve markets, or escalate disputes; the
// host decides who gets granted what.
package capabilities

import (
	"errors"

	"code.futarchyprotocol.io/futarchy/core/types"
	"code.futarchyprotocol.io/futarchy/logging"
)

var (
	// ErrInvalidParty is returned when granting or revoking with an
	// empty party.
	ErrInvalidParty = errors.New("invalid party")
	// ErrInvalidCapability is returned when granting or revoking an
	// unknown capability.
	ErrInvalidCapability = errors.New("invalid capability")
)

// Engine is the capability registry.
type Engine struct {
	Config
	log *logging.Logger

	grants map[string]map[types.Capability]struct{}
}

// New instantiates a new capability registry.
func New(log *logging.Logger, conf Config) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())

	return &Engine{
		Config: conf,
		log:    log,
		grants: map[string]map[types.Capability]struct{}{},
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

// Grant gives a party a capability. Granting twice is a no-op.
func (e *Engine) Grant(party string, c types.Capability) error {
	if len(party) == 0 {
		return ErrInvalidParty
	}
	if !c.IsValid() {
		return ErrInvalidCapability
	}

	held, ok := e.grants[party]
	if !ok {
		held = map[types.Capability]struct{}{}
		e.grants[party] = held
	}
	held[c] = struct{}{}

	e.log.Info("capability granted",
		logging.PartyID(party),
		logging.String("capability", c.String()),
	)
	return nil
}

// Revoke takes a capability away from a party. Revoking a capability
// the party never held is a no-op.
func (e *Engine) Revoke(party string, c types.Capability) error {
	if len(party) == 0 {
		return ErrInvalidParty
	}
	if !c.IsValid() {
		return ErrInvalidCapability
	}

	if held, ok := e.grants[party]; ok {
		delete(held, c)
		if len(held) == 0 {
			delete(e.grants, party)
		}
	}

	e.log.Info("capability revoked",
		logging.PartyID(party),
		logging.String("capability", c.String()),
	)
	return nil
}

// HasCapability reports whether a party holds a capability.
func (e *Engine) HasCapability(party string, c types.Capability) bool {
	held, ok := e.grants[party]
	if !ok {
		return false
	}
	_, ok = held[c]
	return ok
}
