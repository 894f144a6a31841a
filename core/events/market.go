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
)

// MarketCreated is emitted when a new conditional market pair is
// deployed, carrying a snapshot of the whole market record.
type MarketCreated struct {
	*Base
	m types.Market
}

func NewMarketCreated(ctx context.Context, m types.Market) *MarketCreated {
	return &MarketCreated{
		Base: newBase(ctx, MarketCreatedEvent),
		m:    *m.DeepClone(),
	}
}

func (e MarketCreated) Market() types.Market {
	return *e.m.DeepClone()
}

func (e MarketCreated) MarketID() string {
	return e.m.ID
}

func (e MarketCreated) ProposalID() string {
	return e.m.ProposalID
}

// MarketStatusChanged is emitted on every market status transition.
type MarketStatusChanged struct {
	*Base
	marketID string
	prev     types.MarketStatus
	next     types.MarketStatus
}

func NewMarketStatusChanged(ctx context.Context, marketID string, prev, next types.MarketStatus) *MarketStatusChanged {
	return &MarketStatusChanged{
		Base:     newBase(ctx, MarketStatusEvent),
		marketID: marketID,
		prev:     prev,
		next:     next,
	}
}

func (e MarketStatusChanged) MarketID() string {
	return e.marketID
}

func (e MarketStatusChanged) PreviousStatus() types.MarketStatus {
	return e.prev
}

func (e MarketStatusChanged) Status() types.MarketStatus {
	return e.next
}
