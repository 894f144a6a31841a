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

	"code.futarchyprotocol.io/futarchy/core/types"
	"code.futarchyprotocol.io/futarchy/libs/num"
)

// Trade is emitted for every fill against a market maker, buys and
// sells alike.
type Trade struct {
	*Base
	marketID string
	party    string
	side     types.Side
	buy      bool
	size     *num.Uint
	price    *num.Uint
}

// NewTrade returns a trade event. Price is the total collateral amount
// the party paid (buy) or received (sell) for size outcome positions.
func NewTrade(ctx context.Context, marketID, party string, side types.Side, buy bool, size, price *num.Uint) *Trade {
	return &Trade{
		Base:     newBase(ctx, TradeEvent),
		marketID: marketID,
		party:    party,
		side:     side,
		buy:      buy,
		size:     size.Clone(),
		price:    price.Clone(),
	}
}

func (e Trade) MarketID() string {
	return e.marketID
}

func (e Trade) Party() string {
	return e.party
}

func (e Trade) Side() types.Side {
	return e.side
}

func (e Trade) IsBuy() bool {
	return e.buy
}

func (e Trade) Size() *num.Uint {
	return e.size.Clone()
}

func (e Trade) Price() *num.Uint {
	return e.price.Clone()
}

func (e Trade) IsParty(id string) bool {
	return e.party == id
}
