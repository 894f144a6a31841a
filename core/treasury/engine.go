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

// Package treasury holds the funds adopted proposals pay out of. It is
// a thin layer over the collateral engine: one account per asset owned
// by the protocol, funded by transfers in, debited once per executed
// proposal.
package treasury

import (
	"context"
	"errors"

	"code.futarchyprotocol.io/futarchy/libs/num"
	"code.futarchyprotocol.io/futarchy/logging"
)

var (
	// ErrInvalidParty is returned when funding the treasury from an
	// empty party.
	ErrInvalidParty = errors.New("invalid party")
	// ErrInvalidRecipient is returned when withdrawing to an empty
	// recipient.
	ErrInvalidRecipient = errors.New("invalid recipient")
	// ErrInvalidAmount is returned when moving a nil or zero amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInsufficientTreasuryFunds is returned when the treasury balance
	// does not cover a withdrawal.
	ErrInsufficientTreasuryFunds = errors.New("insufficient treasury funds")
)

// AccountOwner is the collateral account owner the treasury funds are
// held under, one account per asset.
const AccountOwner = "protocol-treasury"

// Collateral is the engine the treasury funds move through.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks code.futarchyprotocol.io/futarchy/core/treasury Collateral
type Collateral interface {
	Transfer(ctx context.Context, from, to, asset string, amount *num.Uint) error
	Balance(owner, asset string) *num.Uint
}

// Engine is the treasury engine.
type Engine struct {
	Config
	log        *logging.Logger
	collateral Collateral
}

// New instantiates a new treasury engine.
func New(log *logging.Logger, conf Config, collateral Collateral) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())

	return &Engine{
		Config:     conf,
		log:        log,
		collateral: collateral,
	}
}

// ReloadConf updates the internal configuration of the treasury engine.
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

// Fund moves collateral from a party into the treasury.
func (e *Engine) Fund(ctx context.Context, from, asset string, amount *num.Uint) error {
	if len(from) == 0 {
		return ErrInvalidParty
	}
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}

	if err := e.collateral.Transfer(ctx, from, AccountOwner, asset, amount); err != nil {
		return err
	}

	e.log.Info("treasury funded",
		logging.PartyID(from),
		logging.AssetID(asset),
		logging.BigUint("amount", amount),
	)
	return nil
}

// Withdraw pays treasury funds out to a recipient.
func (e *Engine) Withdraw(ctx context.Context, recipient, asset string, amount *num.Uint) error {
	if len(recipient) == 0 {
		return ErrInvalidRecipient
	}
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	if e.collateral.Balance(AccountOwner, asset).LT(amount) {
		return ErrInsufficientTreasuryFunds
	}

	if err := e.collateral.Transfer(ctx, AccountOwner, recipient, asset, amount); err != nil {
		return err
	}

	e.log.Info("treasury withdrawal",
		logging.String("recipient", recipient),
		logging.AssetID(asset),
		logging.BigUint("amount", amount),
	)
	return nil
}

// Balance returns the treasury balance for an asset.
func (e *Engine) Balance(asset string) *num.Uint {
	return e.collateral.Balance(AccountOwner, asset)
}
