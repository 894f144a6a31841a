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

package events

import (
	"context"

	"code.futarchyprotocol.io/futarchy/libs/num"
)

// LedgerMovement is emitted for every collateral transfer between two
// accounts, including escrow legs.
type LedgerMovement struct {
	*Base
	fromAccount string
	toAccount   string
	asset       string
	amount      *num.Uint
	reference   string
}

func NewLedgerMovement(ctx context.Context, from, to, asset string, amount *num.Uint, reference string) *LedgerMovement {
	return &LedgerMovement{
		Base:        newBase(ctx, LedgerMovementEvent),
		fromAccount: from,
		toAccount:   to,
		asset:       asset,
		amount:      amount.Clone(),
		reference:   reference,
	}
}

func (e LedgerMovement) FromAccount() string {
	return e.fromAccount
}

func (e LedgerMovement) ToAccount() string {
	return e.toAccount
}

func (e LedgerMovement) Asset() string {
	return e.asset
}

func (e LedgerMovement) Amount() *num.Uint {
	return e.amount.Clone()
}

func (e LedgerMovement) Reference() string {
	return e.reference
}

func (e LedgerMovement) IsParty(id string) bool {
	return e.fromAccount == id || e.toAccount == id
}
