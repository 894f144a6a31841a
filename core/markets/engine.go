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

// Package markets runs the lifecycle of conditional market pairs. A
// pair is deployed against a proposal, trades PASS and FAIL shares
// through a scoring rule maker while its trading period runs, and is
// resolved against the welfare values the oracle resolution adopted.
package markets

import (
	"context"
	"errors"
	"time"

	"code.futarchyprotocol.io/futarchy/core/events"
	"code.futarchyprotocol.io/futarchy/core/lmsr"
	"code.futarchyprotocol.io/futarchy/core/metrics"
	"code.futarchyprotocol.io/futarchy/core/types"
	"code.futarchyprotocol.io/futarchy/libs/crypto"
	"code.futarchyprotocol.io/futarchy/libs/num"
	"code.futarchyprotocol.io/futarchy/logging"
)

var (
	// ErrCapabilityRequired is returned when a party calls a
	// permissioned operation without holding the capability for it.
	ErrCapabilityRequired = errors.New("party lacks the required capability")
	// ErrInvalidProposalID is returned when deploying a market without a
	// proposal identifier.
	ErrInvalidProposalID = errors.New("invalid proposal identifier")
	// ErrInvalidCollateralAsset is returned when deploying a market
	// without a collateral asset.
	ErrInvalidCollateralAsset = errors.New("invalid collateral asset")
	// ErrInvalidLiquidity is returned when deploying a market with a nil
	// or zero liquidity subsidy.
	ErrInvalidLiquidity = errors.New("liquidity must be positive")
	// ErrInvalidTradingPeriod is returned when the trading period is
	// outside the configured bounds.
	ErrInvalidTradingPeriod = errors.New("trading period out of bounds")
	// ErrInvalidBetType is returned when deploying a market with an
	// unknown bet type.
	ErrInvalidBetType = errors.New("invalid bet type")
	// ErrInvalidSide is returned when trading a side that is neither
	// pass nor fail.
	ErrInvalidSide = errors.New("invalid market side")
	// ErrInvalidAmount is returned when trading a nil or zero amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidOutcomeValues is returned when resolving a market with
	// nil welfare values.
	ErrInvalidOutcomeValues = errors.New("invalid outcome values")
	// ErrMarketAlreadyExists is returned when a proposal already has a
	// market pair.
	ErrMarketAlreadyExists = errors.New("market already exists for the proposal")
	// ErrMarketDoesNotExist is returned when operating on an unknown
	// market.
	ErrMarketDoesNotExist = errors.New("market does not exist")
	// ErrMarketNotActive is returned when trading on, ending or
	// cancelling a market that is not active.
	ErrMarketNotActive = errors.New("market is not active")
	// ErrTradingPeriodOver is returned when trading after the trading
	// end time.
	ErrTradingPeriodOver = errors.New("trading period is over")
	// ErrTradingPeriodNotOver is returned when ending trading before the
	// trading end time.
	ErrTradingPeriodNotOver = errors.New("trading period is not over")
	// ErrTradingNotEnded is returned when resolving a market that is not
	// awaiting resolution.
	ErrTradingNotEnded = errors.New("market trading has not ended")
	// ErrMarketAlreadyResolved is returned when resolving a market
	// twice.
	ErrMarketAlreadyResolved = errors.New("market already resolved")
	// ErrMarketCancelled is returned when resolving a cancelled market.
	ErrMarketCancelled = errors.New("market is cancelled")
	// ErrMarketNullified is returned when trading on a market the
	// nullification registry flags.
	ErrMarketNullified = errors.New("market is nullified")
	// ErrPartyNullified is returned when a party the nullification
	// registry flags tries to trade.
	ErrPartyNullified = errors.New("party is nullified")
	// ErrInsufficientPositionBalance is returned when a party sells more
	// shares than it holds.
	ErrInsufficientPositionBalance = errors.New("insufficient position balance")
	// ErrInsufficientMarketLiquidity is returned when the market account
	// cannot cover the fill.
	ErrInsufficientMarketLiquidity = errors.New("insufficient market liquidity")
)

// controllerOracle is the oracle identity this engine prepares its
// conditions with, only the engine itself can report payouts on them.
const controllerOracle = "market-controller"

// Capabilities is the host's registry of permissioned operations.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks code.futarchyprotocol.io/futarchy/core/markets Capabilities,Nullification,TimeService,Broker
type Capabilities interface {
	HasCapability(party string, c types.Capability) bool
}

// Nullification is the host's registry of frozen markets and parties.
type Nullification interface {
	IsMarketNullified(id string) bool
	IsPartyNullified(party string) bool
}

// TimeService is the protocol clock.
type TimeService interface {
	GetTimeNow() time.Time
}

// Conditions is the outcome position ledger every market settles
// against.
type Conditions interface {
	PrepareCondition(ctx context.Context, oracle, questionID, asset string, outcomeSlotCount uint32) (string, error)
	SplitPosition(ctx context.Context, party, asset, conditionID string, amount *num.Uint) error
	MergePositions(ctx context.Context, party, asset, conditionID string, amount *num.Uint) error
	ReportPayouts(ctx context.Context, oracle, conditionID string, numerators [2]uint64) error
	TransferPosition(ctx context.Context, from, to, positionID string, amount *num.Uint) error
	Balance(party, positionID string) *num.Uint
}

// Collateral is the engine liquidity and trade collateral move through.
type Collateral interface {
	Transfer(ctx context.Context, from, to, asset string, amount *num.Uint) error
	Balance(owner, asset string) *num.Uint
}

// Broker send events.
type Broker interface {
	Send(event events.Event)
	SendBatch(events []events.Event)
}

// Engine is the market lifecycle engine.
type Engine struct {
	Config
	log           *logging.Logger
	timeService   TimeService
	capabilities  Capabilities
	nullification Nullification
	conditions    Conditions
	collateral    Collateral
	broker        Broker

	markets map[string]*types.Market
	// marketIDs keeps the deterministic iteration order
	marketIDs  []string
	byProposal map[string]string
	makers     map[string]*lmsr.Maker
}

// New instantiates a new markets engine.
func New(
	log *logging.Logger,
	conf Config,
	ts TimeService,
	capabilities Capabilities,
	nullification Nullification,
	conditions Conditions,
	collateral Collateral,
	broker Broker,
) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())

	return &Engine{
		Config:        conf,
		log:           log,
		timeService:   ts,
		capabilities:  capabilities,
		nullification: nullification,
		conditions:    conditions,
		collateral:    collateral,
		broker:        broker,
		markets:       map[string]*types.Market{},
		marketIDs:     []string{},
		byProposal:    map[string]string{},
		makers:        map[string]*lmsr.Maker{},
	}
}

// ReloadConf updates the internal configuration of the markets engine.
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

// NewMarketID derives the deterministic market identifier for a
// proposal. Deploying for the same proposal twice derives the same id,
// which the duplicate check rejects.
func NewMarketID(proposalID string) string {
	return crypto.HashStrToHex("market/" + proposalID)
}

// DeployMarketPair deploys the PASS/FAIL market pair for a proposal,
// escrows the deploying party's liquidity subsidy and opens trading on
// both sides.
func (e *Engine) DeployMarketPair(ctx context.Context, party string, deployment types.MarketDeployment) (string, error) {
	defer metrics.EngineTimeCounterAdd("-", "markets", "DeployMarketPair")()

	if !e.hasCapability(party, types.CapabilityMarketCreator) {
		return "", ErrCapabilityRequired
	}
	if err := e.validateDeployment(deployment); err != nil {
		return "", err
	}
	if _, ok := e.byProposal[deployment.ProposalID]; ok {
		return "", ErrMarketAlreadyExists
	}
	return e.deployMarket(ctx, party, deployment)
}

// deployMarket applies a validated deployment. The liquidity transfer
// comes first so an underfunded party cannot leave partial state.
func (e *Engine) deployMarket(ctx context.Context, party string, deployment types.MarketDeployment) (string, error) {
	marketID := NewMarketID(deployment.ProposalID)

	if err := e.collateral.Transfer(ctx, party, marketID, deployment.CollateralAsset, deployment.Liquidity); err != nil {
		return "", err
	}

	conditionID, err := e.conditions.PrepareCondition(ctx, controllerOracle, marketID, deployment.CollateralAsset, types.BinaryOutcomeSlots)
	if err != nil {
		return "", err
	}
	if err := e.conditions.SplitPosition(ctx, marketID, deployment.CollateralAsset, conditionID, deployment.Liquidity); err != nil {
		return "", err
	}

	maker, err := lmsr.NewMaker(deployment.LiquidityParam)
	if err != nil {
		return "", err
	}

	now := e.timeService.GetTimeNow()
	market := &types.Market{
		ID:              marketID,
		ProposalID:      deployment.ProposalID,
		CollateralAsset: deployment.CollateralAsset,
		BetType:         deployment.BetType,
		Status:          types.MarketStatusActive,
		LiquidityParam:  deployment.LiquidityParam,
		Liquidity:       deployment.Liquidity.Clone(),
		ConditionID:     conditionID,
		PassPositionID:  types.NewPositionID(conditionID, types.OutcomeIndexPass),
		FailPositionID:  types.NewPositionID(conditionID, types.OutcomeIndexFail),
		CreatedAt:       now,
		TradingEndTime:  now.Add(deployment.TradingPeriod),
	}

	e.markets[marketID] = market
	e.marketIDs = append(e.marketIDs, marketID)
	e.byProposal[deployment.ProposalID] = marketID
	e.makers[marketID] = maker

	e.log.Info("market pair deployed",
		logging.MarketID(marketID),
		logging.ProposalID(deployment.ProposalID),
		logging.AssetID(deployment.CollateralAsset),
		logging.BigUint("liquidity", deployment.Liquidity),
		logging.Time("trading-end", market.TradingEndTime),
	)
	metrics.MarketGaugeAdd(1)
	e.broker.Send(events.NewMarketCreated(ctx, *market))
	return marketID, nil
}

func (e *Engine) validateDeployment(deployment types.MarketDeployment) error {
	if len(deployment.ProposalID) == 0 {
		return ErrInvalidProposalID
	}
	if len(deployment.CollateralAsset) == 0 {
		return ErrInvalidCollateralAsset
	}
	if deployment.Liquidity == nil || deployment.Liquidity.IsZero() {
		return ErrInvalidLiquidity
	}
	if !deployment.LiquidityParam.IsPositive() {
		return lmsr.ErrInvalidLiquidityParameter
	}
	if deployment.TradingPeriod < e.MinTradingPeriod.Get() || deployment.TradingPeriod > e.MaxTradingPeriod.Get() {
		return ErrInvalidTradingPeriod
	}
	if !deployment.BetType.IsValid() {
		return ErrInvalidBetType
	}
	return nil
}

// EndTrading halts trading on an active market whose trading period has
// elapsed.
func (e *Engine) EndTrading(ctx context.Context, marketID string) error {
	market, ok := e.markets[marketID]
	if !ok {
		return ErrMarketDoesNotExist
	}
	if market.Status != types.MarketStatusActive {
		return ErrMarketNotActive
	}
	if e.timeService.GetTimeNow().Before(market.TradingEndTime) {
		return ErrTradingPeriodNotOver
	}

	e.setStatus(ctx, market, types.MarketStatusTradingEnded)
	e.log.Info("market trading ended", logging.MarketID(marketID))
	return nil
}

// ResolveMarket reports the adopted welfare values onto the market's
// condition, making the winning side redeemable. PASS wins collapse the
// payout vector to [1 0], FAIL wins to [0 1], ties to [1 1].
func (e *Engine) ResolveMarket(ctx context.Context, party, marketID string, passValue, failValue *num.Uint) error {
	defer metrics.EngineTimeCounterAdd(marketID, "markets", "ResolveMarket")()

	if !e.hasCapability(party, types.CapabilityMarketResolver) {
		return ErrCapabilityRequired
	}
	market, ok := e.markets[marketID]
	if !ok {
		return ErrMarketDoesNotExist
	}
	if err := validateResolution(market, passValue, failValue); err != nil {
		return err
	}
	return e.resolveMarket(ctx, market, passValue, failValue)
}

func (e *Engine) resolveMarket(ctx context.Context, market *types.Market, passValue, failValue *num.Uint) error {
	if err := e.conditions.ReportPayouts(ctx, controllerOracle, market.ConditionID, payoutVector(passValue, failValue)); err != nil {
		return err
	}

	market.PassValue = passValue.Clone()
	market.FailValue = failValue.Clone()
	e.setStatus(ctx, market, types.MarketStatusResolved)

	e.log.Info("market resolved",
		logging.MarketID(market.ID),
		logging.BigUint("pass-value", passValue),
		logging.BigUint("fail-value", failValue),
	)
	metrics.MarketGaugeSub(1)
	return nil
}

func validateResolution(market *types.Market, passValue, failValue *num.Uint) error {
	if passValue == nil || failValue == nil {
		return ErrInvalidOutcomeValues
	}
	switch market.Status {
	case types.MarketStatusResolved:
		return ErrMarketAlreadyResolved
	case types.MarketStatusCancelled:
		return ErrMarketCancelled
	case types.MarketStatusTradingEnded:
		return nil
	default:
		return ErrTradingNotEnded
	}
}

func payoutVector(passValue, failValue *num.Uint) [2]uint64 {
	vec := [2]uint64{}
	switch {
	case passValue.GT(failValue):
		vec[types.OutcomeIndexPass] = 1
	case failValue.GT(passValue):
		vec[types.OutcomeIndexFail] = 1
	default:
		vec[types.OutcomeIndexPass] = 1
		vec[types.OutcomeIndexFail] = 1
	}
	return vec
}

// CancelMarket terminally cancels an active market. The escrowed
// collateral stays locked, there deliberately is no payout path out of
// a cancelled market.
func (e *Engine) CancelMarket(ctx context.Context, party, marketID string) error {
	if !e.hasCapability(party, types.CapabilityMarketResolver) {
		return ErrCapabilityRequired
	}
	market, ok := e.markets[marketID]
	if !ok {
		return ErrMarketDoesNotExist
	}
	if market.Status != types.MarketStatusActive {
		return ErrMarketNotActive
	}

	e.setStatus(ctx, market, types.MarketStatusCancelled)
	e.log.Warn("market cancelled, escrowed funds stay locked",
		logging.MarketID(marketID),
		logging.BigUint("escrowed", e.collateral.Balance(marketID, market.CollateralAsset)),
	)
	metrics.MarketGaugeSub(1)
	return nil
}

// GetMarket returns a copy of a market.
func (e *Engine) GetMarket(marketID string) (*types.Market, error) {
	market, ok := e.markets[marketID]
	if !ok {
		return nil, ErrMarketDoesNotExist
	}
	return market.DeepClone(), nil
}

// MarketForProposal returns the id of the market pair deployed for a
// proposal, if any.
func (e *Engine) MarketForProposal(proposalID string) (string, bool) {
	marketID, ok := e.byProposal[proposalID]
	return marketID, ok
}

// ListMarkets returns copies of all markets in deployment order.
func (e *Engine) ListMarkets() []*types.Market {
	out := make([]*types.Market, 0, len(e.marketIDs))
	for _, id := range e.marketIDs {
		out = append(out, e.markets[id].DeepClone())
	}
	return out
}

// MarketPrice returns the current marginal price of one side of a
// market.
func (e *Engine) MarketPrice(marketID string, side types.Side) (num.Decimal, error) {
	maker, ok := e.makers[marketID]
	if !ok {
		return num.DecimalZero(), ErrMarketDoesNotExist
	}
	return maker.Price(side)
}

func (e *Engine) hasCapability(party string, c types.Capability) bool {
	return party == types.NetworkParty || e.capabilities.HasCapability(party, c)
}

// setStatus is the only place market status ever changes, illegal
// transitions cannot be reached from checked preconditions.
func (e *Engine) setStatus(ctx context.Context, market *types.Market, next types.MarketStatus) {
	if !market.Status.CanTransitionTo(next) {
		e.log.Panic("illegal market status transition",
			logging.MarketID(market.ID),
			logging.String("from", market.Status.String()),
			logging.String("to", next.String()),
		)
	}
	prev := market.Status
	market.Status = next
	e.broker.Send(events.NewMarketStatusChanged(ctx, market.ID, prev, next))
}
