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

package markets_test

import (
	"context"
	"testing"
	"time"

	"code.futarchyprotocol.io/futarchy/core/collateral"
	"code.futarchyprotocol.io/futarchy/core/conditions"
	"code.futarchyprotocol.io/futarchy/core/lmsr"
	"code.futarchyprotocol.io/futarchy/core/markets"
	"code.futarchyprotocol.io/futarchy/core/markets/mocks"
	"code.futarchyprotocol.io/futarchy/core/types"
	"code.futarchyprotocol.io/futarchy/libs/num"
	vgrand "code.futarchyprotocol.io/futarchy/libs/rand"
	"code.futarchyprotocol.io/futarchy/logging"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEngine struct {
	*markets.Engine
	ctrl          *gomock.Controller
	broker        *mocks.MockBroker
	capabilities  *mocks.MockCapabilities
	nullification *mocks.MockNullification
	collateral    *collateral.Engine
	conditions    *conditions.Engine
	now           time.Time
}

func getTestEngine(t *testing.T) *testEngine {
	t.Helper()
	ctrl := gomock.NewController(t)
	broker := mocks.NewMockBroker(ctrl)
	ts := mocks.NewMockTimeService(ctrl)
	capabilities := mocks.NewMockCapabilities(ctrl)
	nullification := mocks.NewMockNullification(ctrl)
	log := logging.NewTestLogger()
	col := collateral.New(log, collateral.NewDefaultConfig(), broker)
	cond := conditions.New(log, conditions.NewDefaultConfig(), col, broker)

	eng := &testEngine{
		ctrl:          ctrl,
		broker:        broker,
		capabilities:  capabilities,
		nullification: nullification,
		collateral:    col,
		conditions:    cond,
		now:           time.Unix(1600000000, 0),
	}
	ts.EXPECT().GetTimeNow().DoAndReturn(func() time.Time { return eng.now }).AnyTimes()
	eng.Engine = markets.New(log, markets.NewDefaultConfig(), ts, capabilities, nullification, cond, col, broker)
	return eng
}

func (e *testEngine) allow(party string, c types.Capability) {
	e.capabilities.EXPECT().HasCapability(party, c).Return(true).AnyTimes()
}

func (e *testEngine) deny(party string, c types.Capability) {
	e.capabilities.EXPECT().HasCapability(party, c).Return(false).AnyTimes()
}

func (e *testEngine) deposit(t *testing.T, party, asset string, amount uint64) {
	t.Helper()
	require.NoError(t, e.collateral.Deposit(context.Background(), party, asset, num.NewUint(amount)))
}

// deploy funds the party with exactly the liquidity and deploys the
// market pair.
func (e *testEngine) deploy(t *testing.T, party string, deployment types.MarketDeployment) string {
	t.Helper()
	e.deposit(t, party, deployment.CollateralAsset, deployment.Liquidity.Uint64())
	e.allow(party, types.CapabilityMarketCreator)
	marketID, err := e.DeployMarketPair(context.Background(), party, deployment)
	require.NoError(t, err)
	return marketID
}

func newDeployment(asset string, liquidity uint64) types.MarketDeployment {
	return types.MarketDeployment{
		ProposalID:      vgrand.RandomStr(5),
		CollateralAsset: asset,
		Liquidity:       num.NewUint(liquidity),
		LiquidityParam:  num.MustDecimalFromString("100"),
		TradingPeriod:   72 * time.Hour,
		BetType:         types.BetTypeFunding,
	}
}

func TestDeployMarketPair(t *testing.T) {
	t.Run("Deploying a market pair escrows liquidity and opens trading", testDeployOK)
	t.Run("Deploying requires the market creator capability", testDeployCapability)
	t.Run("Deploying twice for the same proposal fails", testDeployDuplicate)
	t.Run("Deploying without funds fails without effect", testDeployInsufficientFunds)
	t.Run("Deployment inputs are validated", testDeployValidation)
}

func TestMarketLifecycle(t *testing.T) {
	t.Run("Trading cannot end before the period elapses", testEndTradingTooEarly)
	t.Run("Resolution follows the end of trading", testResolutionLifecycle)
	t.Run("Resolving with nil outcome values fails", testResolveNilValues)
	t.Run("Resolving requires the market resolver capability", testResolveCapability)
	t.Run("Cancelling an active market locks its escrow", testCancelMarket)
	t.Run("A tie makes both sides redeemable at half value", testResolveTie)
}

func TestMarketGetters(t *testing.T) {
	t.Run("Markets list in deployment order", testListMarkets)
	t.Run("Lookups on unknown markets fail", testUnknownMarketLookups)
}

func testDeployOK(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()
	eng.broker.EXPECT().Send(gomock.Any()).AnyTimes()

	party := vgrand.RandomStr(5)
	asset := vgrand.RandomStr(5)
	deployment := newDeployment(asset, 1000)

	marketID := eng.deploy(t, party, deployment)
	assert.Equal(t, markets.NewMarketID(deployment.ProposalID), marketID)

	market, err := eng.GetMarket(marketID)
	require.NoError(t, err)
	assert.Equal(t, types.MarketStatusActive, market.Status)
	assert.Equal(t, eng.now.Add(72*time.Hour), market.TradingEndTime)
	assert.Equal(t, asset, market.CollateralAsset)

	// the subsidy left the party and sits split across both positions
	assert.True(t, eng.collateral.Balance(party, asset).IsZero())
	assert.Equal(t, "1000", eng.conditions.Balance(marketID, market.PassPositionID).String())
	assert.Equal(t, "1000", eng.conditions.Balance(marketID, market.FailPositionID).String())

	// a fresh market prices both sides at a half
	half := num.MustDecimalFromString("0.5")
	for _, side := range []types.Side{types.SidePass, types.SideFail} {
		price, err := eng.MarketPrice(marketID, side)
		require.NoError(t, err)
		assert.True(t, price.Equal(half), "price %s", price)
	}

	got, ok := eng.MarketForProposal(deployment.ProposalID)
	require.True(t, ok)
	assert.Equal(t, marketID, got)
}

func testDeployCapability(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()
	eng.broker.EXPECT().Send(gomock.Any()).AnyTimes()

	party := vgrand.RandomStr(5)
	asset := vgrand.RandomStr(5)
	deployment := newDeployment(asset, 1000)

	eng.deny(party, types.CapabilityMarketCreator)
	_, err := eng.DeployMarketPair(context.Background(), party, deployment)
	require.ErrorIs(t, err, markets.ErrCapabilityRequired)

	// the network party bypasses the capability check
	eng.deposit(t, types.NetworkParty, asset, 1000)
	_, err = eng.DeployMarketPair(context.Background(), types.NetworkParty, deployment)
	require.NoError(t, err)
}

func testDeployDuplicate(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()
	eng.broker.EXPECT().Send(gomock.Any()).AnyTimes()

	party := vgrand.RandomStr(5)
	deployment := newDeployment(vgrand.RandomStr(5), 1000)
	eng.deploy(t, party, deployment)

	eng.deposit(t, party, deployment.CollateralAsset, 1000)
	_, err := eng.DeployMarketPair(context.Background(), party, deployment)
	require.ErrorIs(t, err, markets.ErrMarketAlreadyExists)
}

func testDeployInsufficientFunds(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()
	eng.broker.EXPECT().Send(gomock.Any()).AnyTimes()

	party := vgrand.RandomStr(5)
	deployment := newDeployment(vgrand.RandomStr(5), 1000)
	eng.deposit(t, party, deployment.CollateralAsset, 999)
	eng.allow(party, types.CapabilityMarketCreator)

	_, err := eng.DeployMarketPair(context.Background(), party, deployment)
	require.ErrorIs(t, err, collateral.ErrInsufficientFunds)

	_, ok := eng.MarketForProposal(deployment.ProposalID)
	assert.False(t, ok)
	assert.Equal(t, "999", eng.collateral.Balance(party, deployment.CollateralAsset).String())
}

func testDeployValidation(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()

	party := vgrand.RandomStr(5)
	asset := vgrand.RandomStr(5)
	eng.allow(party, types.CapabilityMarketCreator)

	cases := []struct {
		name   string
		mutate func(d *types.MarketDeployment)
		err    error
	}{
		{"missing proposal", func(d *types.MarketDeployment) { d.ProposalID = "" }, markets.ErrInvalidProposalID},
		{"missing asset", func(d *types.MarketDeployment) { d.CollateralAsset = "" }, markets.ErrInvalidCollateralAsset},
		{"nil liquidity", func(d *types.MarketDeployment) { d.Liquidity = nil }, markets.ErrInvalidLiquidity},
		{"zero liquidity", func(d *types.MarketDeployment) { d.Liquidity = num.UintZero() }, markets.ErrInvalidLiquidity},
		{"zero liquidity parameter", func(d *types.MarketDeployment) { d.LiquidityParam = num.DecimalZero() }, lmsr.ErrInvalidLiquidityParameter},
		{"trading period too short", func(d *types.MarketDeployment) { d.TradingPeriod = time.Hour }, markets.ErrInvalidTradingPeriod},
		{"trading period too long", func(d *types.MarketDeployment) { d.TradingPeriod = 22 * 24 * time.Hour }, markets.ErrInvalidTradingPeriod},
		{"invalid bet type", func(d *types.MarketDeployment) { d.BetType = types.BetTypeUnspecified }, markets.ErrInvalidBetType},
	}
	for _, c := range cases {
		deployment := newDeployment(asset, 1000)
		c.mutate(&deployment)
		_, err := eng.DeployMarketPair(context.Background(), party, deployment)
		assert.ErrorIs(t, err, c.err, c.name)
	}
}

func testEndTradingTooEarly(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()
	eng.broker.EXPECT().Send(gomock.Any()).AnyTimes()

	marketID := eng.deploy(t, vgrand.RandomStr(5), newDeployment(vgrand.RandomStr(5), 1000))

	require.ErrorIs(t, eng.EndTrading(context.Background(), marketID), markets.ErrTradingPeriodNotOver)

	// one second short of the end still trades
	eng.now = eng.now.Add(72*time.Hour - time.Second)
	require.ErrorIs(t, eng.EndTrading(context.Background(), marketID), markets.ErrTradingPeriodNotOver)

	eng.now = eng.now.Add(time.Second)
	require.NoError(t, eng.EndTrading(context.Background(), marketID))

	market, err := eng.GetMarket(marketID)
	require.NoError(t, err)
	assert.Equal(t, types.MarketStatusTradingEnded, market.Status)

	require.ErrorIs(t, eng.EndTrading(context.Background(), marketID), markets.ErrMarketNotActive)
}

func testResolutionLifecycle(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()
	eng.broker.EXPECT().Send(gomock.Any()).AnyTimes()

	marketID := eng.deploy(t, vgrand.RandomStr(5), newDeployment(vgrand.RandomStr(5), 1000))
	pass, fail := num.NewUint(700), num.NewUint(300)

	err := eng.ResolveMarket(context.Background(), types.NetworkParty, marketID, pass, fail)
	require.ErrorIs(t, err, markets.ErrTradingNotEnded)

	eng.now = eng.now.Add(72 * time.Hour)
	require.NoError(t, eng.EndTrading(context.Background(), marketID))
	require.NoError(t, eng.ResolveMarket(context.Background(), types.NetworkParty, marketID, pass, fail))

	market, err := eng.GetMarket(marketID)
	require.NoError(t, err)
	assert.Equal(t, types.MarketStatusResolved, market.Status)
	assert.Equal(t, "700", market.PassValue.String())
	assert.Equal(t, "300", market.FailValue.String())

	err = eng.ResolveMarket(context.Background(), types.NetworkParty, marketID, pass, fail)
	require.ErrorIs(t, err, markets.ErrMarketAlreadyResolved)
}

func testResolveNilValues(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()
	eng.broker.EXPECT().Send(gomock.Any()).AnyTimes()

	marketID := eng.deploy(t, vgrand.RandomStr(5), newDeployment(vgrand.RandomStr(5), 1000))
	eng.now = eng.now.Add(72 * time.Hour)
	require.NoError(t, eng.EndTrading(context.Background(), marketID))

	err := eng.ResolveMarket(context.Background(), types.NetworkParty, marketID, nil, num.NewUint(1))
	require.ErrorIs(t, err, markets.ErrInvalidOutcomeValues)
	err = eng.ResolveMarket(context.Background(), types.NetworkParty, marketID, num.NewUint(1), nil)
	require.ErrorIs(t, err, markets.ErrInvalidOutcomeValues)
}

func testResolveCapability(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()
	eng.broker.EXPECT().Send(gomock.Any()).AnyTimes()

	marketID := eng.deploy(t, vgrand.RandomStr(5), newDeployment(vgrand.RandomStr(5), 1000))
	eng.now = eng.now.Add(72 * time.Hour)
	require.NoError(t, eng.EndTrading(context.Background(), marketID))

	party := vgrand.RandomStr(5)
	eng.deny(party, types.CapabilityMarketResolver)
	err := eng.ResolveMarket(context.Background(), party, marketID, num.NewUint(1), num.UintZero())
	require.ErrorIs(t, err, markets.ErrCapabilityRequired)
}

func testCancelMarket(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()
	eng.broker.EXPECT().Send(gomock.Any()).AnyTimes()

	party := vgrand.RandomStr(5)
	deployment := newDeployment(vgrand.RandomStr(5), 1000)
	marketID := eng.deploy(t, party, deployment)

	require.NoError(t, eng.CancelMarket(context.Background(), types.NetworkParty, marketID))

	market, err := eng.GetMarket(marketID)
	require.NoError(t, err)
	assert.Equal(t, types.MarketStatusCancelled, market.Status)

	// no trading, no resolution, no way out for the escrowed subsidy
	_, err = eng.Buy(context.Background(), party, marketID, types.SidePass, num.NewUint(1))
	require.ErrorIs(t, err, markets.ErrMarketNotActive)
	err = eng.ResolveMarket(context.Background(), types.NetworkParty, marketID, num.NewUint(1), num.UintZero())
	require.ErrorIs(t, err, markets.ErrMarketCancelled)
	require.ErrorIs(t, eng.CancelMarket(context.Background(), types.NetworkParty, marketID), markets.ErrMarketNotActive)
	assert.Equal(t, "1000", eng.conditions.Balance(marketID, market.PassPositionID).String())
}

func testResolveTie(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()
	eng.broker.EXPECT().Send(gomock.Any()).AnyTimes()

	trader := vgrand.RandomStr(5)
	deployment := newDeployment(vgrand.RandomStr(5), 1000)
	marketID := eng.deploy(t, vgrand.RandomStr(5), deployment)
	asset := deployment.CollateralAsset

	eng.deposit(t, trader, asset, 100)
	_, err := eng.Buy(context.Background(), trader, marketID, types.SidePass, num.NewUint(10))
	require.NoError(t, err)

	eng.now = eng.now.Add(72 * time.Hour)
	require.NoError(t, eng.EndTrading(context.Background(), marketID))
	require.NoError(t, eng.ResolveMarket(context.Background(), types.NetworkParty, marketID, num.NewUint(500), num.NewUint(500)))

	// ten winning-on-both-sides shares redeem for five
	market, err := eng.GetMarket(marketID)
	require.NoError(t, err)
	before := eng.collateral.Balance(trader, asset)
	err = eng.conditions.RedeemPositions(context.Background(), trader, asset, market.ConditionID, []int{types.OutcomeIndexPass})
	require.NoError(t, err)
	assert.Equal(t, "5", num.UintZero().Sub(eng.collateral.Balance(trader, asset), before).String())
}

func testListMarkets(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()
	eng.broker.EXPECT().Send(gomock.Any()).AnyTimes()

	party := vgrand.RandomStr(5)
	first := eng.deploy(t, party, newDeployment(vgrand.RandomStr(5), 1000))
	second := eng.deploy(t, party, newDeployment(vgrand.RandomStr(5), 500))

	listed := eng.ListMarkets()
	require.Len(t, listed, 2)
	assert.Equal(t, first, listed[0].ID)
	assert.Equal(t, second, listed[1].ID)
}

func testUnknownMarketLookups(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()

	unknown := vgrand.RandomStr(5)
	_, err := eng.GetMarket(unknown)
	require.ErrorIs(t, err, markets.ErrMarketDoesNotExist)
	_, err = eng.MarketPrice(unknown, types.SidePass)
	require.ErrorIs(t, err, markets.ErrMarketDoesNotExist)
	_, ok := eng.MarketForProposal(unknown)
	assert.False(t, ok)
	require.ErrorIs(t, eng.EndTrading(context.Background(), unknown), markets.ErrMarketDoesNotExist)
	err = eng.ResolveMarket(context.Background(), types.NetworkParty, unknown, num.NewUint(1), num.UintZero())
	require.ErrorIs(t, err, markets.ErrMarketDoesNotExist)
	require.ErrorIs(t, eng.CancelMarket(context.Background(), types.NetworkParty, unknown), markets.ErrMarketDoesNotExist)
}
