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

package collateral

import (
	"context"
	"errors"

	"code.futarchyprotocol.io/futarchy/core/events"
	"code.futarchyprotocol.io/futarchy/core/types"
	"code.futarchyprotocol.io/futarchy/libs/num"
	"code.futarchyprotocol.io/futarchy/logging"
)

var (
	// ErrInvalidAmount is returned when a movement is requested for a
	// nil or zero amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrAccountDoesNotExist is returned when moving funds out of an
	// account that was never credited.
	ErrAccountDoesNotExist = errors.New("account does not exist")
	// ErrInsufficientFunds is returned when the source account balance
	// does not cover the movement.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

const (
	separator = "___"

	// externalSource labels the out-of-protocol side of deposits and
	// withdrawals in ledger movement events.
	externalSource = "external"

	depositReference    = "deposit"
	withdrawalReference = "withdrawal"
	transferReference   = "transfer"
)

// Broker send events.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks code.futarchyprotocol.io/futarchy/core/collateral Broker
type Broker interface {
	Send(event events.Event)
	SendBatch(events []events.Event)
}

// Engine is the collateral engine, it holds the accounts of parties,
// markets and escrows and moves balances between them. It is the only
// place balances ever change.
type Engine struct {
	Config
	log    *logging.Logger
	broker Broker

	accounts map[string]*types.Account
}

// New instantiates a new collateral engine.
func New(log *logging.Logger, conf Config, broker Broker) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())

	return &Engine{
		Config:   conf,
		log:      log,
		broker:   broker,
		accounts: map[string]*types.Account{},
	}
}

// ReloadConf updates the internal configuration of the collateral engine.
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

// Deposit credits a party's account with funds arriving from outside
// the protocol, creating the account as needed.
func (e *Engine) Deposit(ctx context.Context, party, asset string, amount *num.Uint) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}

	acc := e.getOrCreateAccount(party, asset)
	acc.Balance.AddSum(amount)

	if e.log.GetLevel() == logging.DebugLevel {
		e.log.Debug("funds deposited",
			logging.PartyID(party),
			logging.AssetID(asset),
			logging.BigUint("amount", amount),
		)
	}
	e.broker.Send(events.NewLedgerMovement(ctx, externalSource, party, asset, amount, depositReference))
	return nil
}

// Withdraw debits a party's account with funds leaving the protocol.
func (e *Engine) Withdraw(ctx context.Context, party, asset string, amount *num.Uint) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}

	acc, ok := e.accounts[accountID(party, asset)]
	if !ok {
		return ErrAccountDoesNotExist
	}
	if acc.Balance.LT(amount) {
		return ErrInsufficientFunds
	}
	acc.Balance.Sub(acc.Balance, amount)

	if e.log.GetLevel() == logging.DebugLevel {
		e.log.Debug("funds withdrawn",
			logging.PartyID(party),
			logging.AssetID(asset),
			logging.BigUint("amount", amount),
		)
	}
	e.broker.Send(events.NewLedgerMovement(ctx, party, externalSource, asset, amount, withdrawalReference))
	return nil
}

// Transfer atomically moves funds between two accounts, creating the
// destination as needed. Failures leave both balances untouched.
func (e *Engine) Transfer(ctx context.Context, from, to, asset string, amount *num.Uint) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}

	src, ok := e.accounts[accountID(from, asset)]
	if !ok {
		return ErrAccountDoesNotExist
	}
	if src.Balance.LT(amount) {
		return ErrInsufficientFunds
	}

	dst := e.getOrCreateAccount(to, asset)
	src.Balance.Sub(src.Balance, amount)
	dst.Balance.AddSum(amount)

	e.broker.Send(events.NewLedgerMovement(ctx, from, to, asset, amount, transferReference))
	return nil
}

// Balance returns the account balance of an owner, zero when the
// account was never created.
func (e *Engine) Balance(owner, asset string) *num.Uint {
	acc, ok := e.accounts[accountID(owner, asset)]
	if !ok {
		return num.UintZero()
	}
	return acc.Balance.Clone()
}

// GetAccount returns a copy of an owner's account.
func (e *Engine) GetAccount(owner, asset string) (*types.Account, error) {
	acc, ok := e.accounts[accountID(owner, asset)]
	if !ok {
		return nil, ErrAccountDoesNotExist
	}
	return acc.DeepClone(), nil
}

func (e *Engine) getOrCreateAccount(owner, asset string) *types.Account {
	id := accountID(owner, asset)
	acc, ok := e.accounts[id]
	if !ok {
		acc = &types.Account{
			Owner:   owner,
			Asset:   asset,
			Balance: num.UintZero(),
		}
		e.accounts[id] = acc
	}
	return acc
}

func accountID(owner, asset string) string {
	return owner + separator + asset
}
