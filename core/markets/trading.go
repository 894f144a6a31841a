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

package markets

import (
	"context"

	"code.futarchyprotocol.io/futarchy/core/events"
	"code.futarchyprotocol.io/futarchy/core/lmsr"
	"code.futarchyprotocol.io/futarchy/core/metrics"
	"code.futarchyprotocol.io/futarchy/core/types"
	"code.futarchyprotocol.io/futarchy/libs/num"
	"code.futarchyprotocol.io/futarchy/logging"
)

// Buy fills a buy of amount shares on one side of a market at the
// maker's quoted cost. The cost is collected into the market account
// before any shares move, the engine mints fresh pairs only for the
// part of the fill its own inventory cannot cover.
func (e *Engine) Buy(ctx context.Context, party, marketID string, side types.Side, amount *num.Uint) (*num.Uint, error) {
	defer metrics.EngineTimeCounterAdd(marketID, "markets", "Buy")()

	market, maker, err := e.tradeGates(party, marketID, side, amount)
	if err != nil {
		return nil, err
	}

	cost, err := maker.QuoteBuy(side, amount)
	if err != nil {
		return nil, err
	}

	positionID := positionForSide(market, side)
	inventory := e.conditions.Balance(marketID, positionID)
	shortfall := num.UintZero()
	if amount.GT(inventory) {
		shortfall = num.UintZero().Sub(amount, inventory)
	}
	// the cost lands on the market account before the split draws on
	// it, so it counts towards covering the shortfall
	if !shortfall.IsZero() && num.Sum(e.collateral.Balance(marketID, market.CollateralAsset), cost).LT(shortfall) {
		return nil, ErrInsufficientMarketLiquidity
	}

	if err := e.collateral.Transfer(ctx, party, marketID, market.CollateralAsset, cost); err != nil {
		return nil, err
	}
	if !shortfall.IsZero() {
		if err := e.conditions.SplitPosition(ctx, marketID, market.CollateralAsset, market.ConditionID, shortfall); err != nil {
			return nil, err
		}
	}
	if err := e.conditions.TransferPosition(ctx, marketID, party, positionID, amount); err != nil {
		return nil, err
	}
	maker.ApplyBuy(side, amount)

	if e.log.GetLevel() == logging.DebugLevel {
		e.log.Debug("buy filled",
			logging.MarketID(marketID),
			logging.PartyID(party),
			logging.String("side", side.String()),
			logging.BigUint("size", amount),
			logging.BigUint("cost", cost),
		)
	}
	metrics.TradeCounterInc(marketID, side.String())
	e.broker.Send(events.NewTrade(ctx, marketID, party, side, true, amount, cost))
	return cost, nil
}

// Sell fills a sale of amount shares on one side of a market at the
// maker's quoted payment. Payments come out of the collateral the
// market collected from buys first, complete pairs held by the market
// merge back into collateral only for the remainder.
func (e *Engine) Sell(ctx context.Context, party, marketID string, side types.Side, amount *num.Uint) (*num.Uint, error) {
	defer metrics.EngineTimeCounterAdd(marketID, "markets", "Sell")()

	market, maker, err := e.tradeGates(party, marketID, side, amount)
	if err != nil {
		return nil, err
	}

	payment, err := maker.QuoteSell(side, amount)
	if err != nil {
		return nil, err
	}

	positionID := positionForSide(market, side)
	if e.conditions.Balance(party, positionID).LT(amount) {
		return nil, ErrInsufficientPositionBalance
	}

	balance := e.collateral.Balance(marketID, market.CollateralAsset)
	needed := num.UintZero()
	if payment.GT(balance) {
		needed = num.UintZero().Sub(payment, balance)
	}
	// the incoming shares count towards the pairs the market can merge
	sideInventory := num.Sum(e.conditions.Balance(marketID, positionID), amount)
	otherInventory := e.conditions.Balance(marketID, positionForSide(market, side.Opposite()))
	mergeable := num.Min(needed, num.Min(sideInventory, otherInventory))
	if num.Sum(balance, mergeable).LT(payment) {
		return nil, ErrInsufficientMarketLiquidity
	}

	if err := e.conditions.TransferPosition(ctx, party, marketID, positionID, amount); err != nil {
		return nil, err
	}
	if !mergeable.IsZero() {
		if err := e.conditions.MergePositions(ctx, marketID, market.CollateralAsset, market.ConditionID, mergeable); err != nil {
			return nil, err
		}
	}
	if !payment.IsZero() {
		if err := e.collateral.Transfer(ctx, marketID, party, market.CollateralAsset, payment); err != nil {
			return nil, err
		}
	}
	maker.ApplySell(side, amount)

	if e.log.GetLevel() == logging.DebugLevel {
		e.log.Debug("sell filled",
			logging.MarketID(marketID),
			logging.PartyID(party),
			logging.String("side", side.String()),
			logging.BigUint("size", amount),
			logging.BigUint("payment", payment),
		)
	}
	metrics.TradeCounterInc(marketID, side.String())
	e.broker.Send(events.NewTrade(ctx, marketID, party, side, false, amount, payment))
	return payment, nil
}

// tradeGates runs the checks shared by both trade directions.
func (e *Engine) tradeGates(party, marketID string, side types.Side, amount *num.Uint) (*types.Market, *lmsr.Maker, error) {
	market, ok := e.markets[marketID]
	if !ok {
		return nil, nil, ErrMarketDoesNotExist
	}
	if market.Status != types.MarketStatusActive {
		return nil, nil, ErrMarketNotActive
	}
	if !e.timeService.GetTimeNow().Before(market.TradingEndTime) {
		return nil, nil, ErrTradingPeriodOver
	}
	if e.EnforceNullification {
		if e.nullification.IsMarketNullified(marketID) {
			return nil, nil, ErrMarketNullified
		}
		if e.nullification.IsPartyNullified(party) {
			return nil, nil, ErrPartyNullified
		}
	}
	if !side.IsValid() {
		return nil, nil, ErrInvalidSide
	}
	if amount == nil || amount.IsZero() {
		return nil, nil, ErrInvalidAmount
	}
	return market, e.makers[marketID], nil
}

func positionForSide(market *types.Market, side types.Side) string {
	if side == types.SidePass {
		return market.PassPositionID
	}
	return market.FailPositionID
}
