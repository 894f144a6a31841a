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

package protocol_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"code.futarchyprotocol.io/futarchy/config"
	"code.futarchyprotocol.io/futarchy/core/events"
	"code.futarchyprotocol.io/futarchy/core/governor"
	"code.futarchyprotocol.io/futarchy/core/markets"
	"code.futarchyprotocol.io/futarchy/core/protocol"
	"code.futarchyprotocol.io/futarchy/core/resolution"
	rmocks "code.futarchyprotocol.io/futarchy/core/resolution/mocks"
	"code.futarchyprotocol.io/futarchy/core/types"
	"code.futarchyprotocol.io/futarchy/libs/num"
	"code.futarchyprotocol.io/futarchy/logging"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	asset      = "USD"
	proposer   = "party-proposer"
	reviewer   = "party-reviewer"
	reporter   = "party-reporter"
	challenger = "party-challenger"
	escalator  = "party-escalator"
	trader     = "party-trader"
	vendor     = "vendor-recipient"
	donor      = "party-donor"
)

// testConfig layers over the defaults, the challenge window is
// deliberately half the default so the tests prove the file value
// reached the engine.
const testConfig = `[Governor]
  ReviewDelay = "24h"
  TimelockDelay = "48h"

[Resolution]
  ReportBond = "100"
  ChallengeBond = "150"
  ChallengeWindow = "24h"
`

// eventSink records everything the broker delivers.
type eventSink struct {
	id     int
	events []events.Event
}

func (s *eventSink) Push(evts ...events.Event) { s.events = append(s.events, evts...) }
func (s *eventSink) Types() []events.Type      { return nil }
func (s *eventSink) SetID(id int)              { s.id = id }
func (s *eventSink) ID() int                   { return s.id }

type testNode struct {
	*protocol.Protocol
	ctrl   *gomock.Controller
	conf   *config.Watcher
	oracle *rmocks.MockDisputeOracle
	sink   *eventSink
	ctx    context.Context
	now    time.Time
}

func getTestNode(t *testing.T) *testNode {
	t.Helper()
	ctrl := gomock.NewController(t)
	oracle := rmocks.NewMockDisputeOracle(ctrl)
	log := logging.NewTestLogger()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	confWatcher, err := config.NewFromFile(ctx, log, path)
	require.NoError(t, err)

	node := protocol.New(confWatcher, log, oracle)
	t.Cleanup(func() { _ = node.Stop() })

	n := &testNode{
		Protocol: node,
		ctrl:     ctrl,
		conf:     confWatcher,
		oracle:   oracle,
		sink:     &eventSink{},
		ctx:      ctx,
		now:      time.Unix(1600000000, 0),
	}
	node.GetBroker().Subscribe(n.sink)
	node.GetTimeService().SetTimeNow(ctx, n.now)
	return n
}

// advance moves the protocol clock forward, which also runs the
// governor's review sweep.
func (n *testNode) advance(d time.Duration) {
	n.now = n.now.Add(d)
	n.GetTimeService().SetTimeNow(n.ctx, n.now)
}

func (n *testNode) deposit(t *testing.T, party string, amount uint64) {
	t.Helper()
	require.NoError(t, n.GetCollateralEngine().Deposit(n.ctx, party, asset, num.NewUint(amount)))
}

func (n *testNode) grant(t *testing.T, party string, caps ...types.Capability) {
	t.Helper()
	for _, c := range caps {
		require.NoError(t, n.GetCapabilitiesEngine().Grant(party, c))
	}
}

func (n *testNode) balance(party string) string {
	return n.GetCollateralEngine().Balance(party, asset).String()
}

func (n *testNode) fundTreasury(t *testing.T, amount uint64) {
	t.Helper()
	n.deposit(t, donor, amount)
	require.NoError(t, n.GetTreasuryEngine().Fund(n.ctx, donor, asset, num.NewUint(amount)))
}

// submitProposal files a 500 USD funding proposal for the vendor.
func (n *testNode) submitProposal(t *testing.T) string {
	t.Helper()
	n.grant(t, proposer, types.CapabilityProposalSubmitter)
	id, err := n.GetGovernor().SubmitProposal(n.ctx, proposer, types.ProposalSubmission{
		Reference: "fund-vendor-work",
		Recipient: vendor,
		Amount:    num.NewUint(500),
		Reporter:  reporter,
		BetType:   types.BetTypeFunding,
	})
	require.NoError(t, err)
	return id
}

// tradeReady runs a proposal through submission, review and activation,
// leaving its market pair open for trading.
func (n *testNode) tradeReady(t *testing.T) (string, string) {
	t.Helper()
	proposalID := n.submitProposal(t)
	n.advance(24 * time.Hour)

	n.grant(t, reviewer, types.CapabilityProposalReviewer, types.CapabilityMarketCreator)
	n.deposit(t, reviewer, 1000)
	marketID, err := n.GetGovernor().ActivateProposal(n.ctx, reviewer, proposalID, types.ActivationTerms{
		CollateralAsset: asset,
		Liquidity:       num.NewUint(1000),
		LiquidityParam:  num.MustDecimalFromString("100"),
		TradingPeriod:   72 * time.Hour,
	})
	require.NoError(t, err)

	proposal, err := n.GetGovernor().GetProposal(proposalID)
	require.NoError(t, err)
	require.Equal(t, types.ProposalPhaseTrading, proposal.Phase)
	return proposalID, marketID
}

// inResolution additionally runs out the trading period and opens the
// oracle resolution.
func (n *testNode) inResolution(t *testing.T) (string, string) {
	t.Helper()
	proposalID, marketID := n.tradeReady(t)
	n.advance(72 * time.Hour)
	require.NoError(t, n.GetGovernor().MoveToResolution(n.ctx, proposalID))
	return proposalID, marketID
}

// report files the designated report with the exact configured bond.
func (n *testNode) report(t *testing.T, proposalID string, passValue, failValue uint64) {
	t.Helper()
	n.deposit(t, reporter, 100)
	require.NoError(t, n.GetResolutionEngine().SubmitReport(n.ctx, reporter, proposalID,
		num.NewUint(passValue), num.NewUint(failValue), "ipfs://welfare-report", num.NewUint(100)))
}

// challenge files the counter-report with the exact configured bond.
func (n *testNode) challenge(t *testing.T, proposalID string, passValue, failValue uint64) {
	t.Helper()
	n.deposit(t, challenger, 150)
	require.NoError(t, n.GetResolutionEngine().ChallengeReport(n.ctx, challenger, proposalID,
		num.NewUint(passValue), num.NewUint(failValue), "ipfs://counter-evidence", num.NewUint(150)))
}

func TestProposalLifecycle(t *testing.T) {
	t.Run("An adopted proposal pays its recipient exactly once", testAdoptedProposalPaysOutOnce)
	t.Run("A proposal whose market favours fail is rejected", testRejectedProposalPaysNothing)
}

func TestChallengesAndDisputes(t *testing.T) {
	t.Run("An unescalated challenge wins outright", testChallengeWinsOutright)
	t.Run("An escalated dispute adopts the oracle values", testDisputeFollowsOracle)
}

func TestProtocolNode(t *testing.T) {
	t.Run("The node reports its protocol version", testProtocolVersion)
	t.Run("File configuration layers over the defaults", testConfigLayering)
}

func testAdoptedProposalPaysOutOnce(t *testing.T) {
	n := getTestNode(t)
	n.fundTreasury(t, 800)

	proposalID := n.submitProposal(t)
	proposal, err := n.GetGovernor().GetProposal(proposalID)
	require.NoError(t, err)
	assert.Equal(t, types.ProposalPhaseSubmitted, proposal.Phase)

	// half the review delay is not enough
	n.advance(12 * time.Hour)
	proposal, err = n.GetGovernor().GetProposal(proposalID)
	require.NoError(t, err)
	assert.Equal(t, types.ProposalPhaseSubmitted, proposal.Phase)

	// the clock wiring moves it into review, nobody calls the governor
	n.advance(12 * time.Hour)
	proposal, err = n.GetGovernor().GetProposal(proposalID)
	require.NoError(t, err)
	assert.Equal(t, types.ProposalPhaseUnderReview, proposal.Phase)

	n.grant(t, reviewer, types.CapabilityProposalReviewer, types.CapabilityMarketCreator)
	n.deposit(t, reviewer, 1000)
	marketID, err := n.GetGovernor().ActivateProposal(n.ctx, reviewer, proposalID, types.ActivationTerms{
		CollateralAsset: asset,
		Liquidity:       num.NewUint(1000),
		LiquidityParam:  num.MustDecimalFromString("100"),
		TradingPeriod:   72 * time.Hour,
	})
	require.NoError(t, err)
	got, ok := n.GetMarketsEngine().MarketForProposal(proposalID)
	require.True(t, ok)
	assert.Equal(t, marketID, got)

	// a trader takes a position on pass
	n.deposit(t, trader, 1000)
	cost, err := n.GetMarketsEngine().Buy(n.ctx, trader, marketID, types.SidePass, num.NewUint(50))
	require.NoError(t, err)
	assert.True(t, cost.GT(num.UintZero()) && cost.LT(num.NewUint(50)), cost.String())

	market, err := n.GetMarketsEngine().GetMarket(marketID)
	require.NoError(t, err)
	assert.Equal(t, "50", n.GetConditionsEngine().Balance(trader, market.PassPositionID).String())

	// the trading period still runs
	err = n.GetGovernor().MoveToResolution(n.ctx, proposalID)
	require.ErrorIs(t, err, markets.ErrTradingPeriodNotOver)

	n.advance(72 * time.Hour)
	require.NoError(t, n.GetGovernor().MoveToResolution(n.ctx, proposalID))
	_, err = n.GetMarketsEngine().Buy(n.ctx, trader, marketID, types.SidePass, num.NewUint(1))
	require.ErrorIs(t, err, markets.ErrMarketNotActive)

	// nothing to settle on before the resolution finalizes
	err = n.GetGovernor().FinalizeProposal(n.ctx, proposalID)
	require.ErrorIs(t, err, governor.ErrResolutionNotFinalized)

	n.report(t, proposalID, 700, 300)
	assert.Equal(t, "0", n.balance(reporter))

	err = n.GetResolutionEngine().Finalize(n.ctx, proposalID)
	require.ErrorIs(t, err, resolution.ErrChallengeWindowOpen)

	// the configured window, half the default
	n.advance(24 * time.Hour)
	require.NoError(t, n.GetResolutionEngine().Finalize(n.ctx, proposalID))
	assert.Equal(t, "100", n.balance(reporter))

	require.NoError(t, n.GetGovernor().FinalizeProposal(n.ctx, proposalID))
	proposal, err = n.GetGovernor().GetProposal(proposalID)
	require.NoError(t, err)
	assert.Equal(t, types.ProposalPhaseExecution, proposal.Phase)
	assert.True(t, proposal.ExecutionTime.Equal(n.now.Add(48*time.Hour)))

	err = n.GetGovernor().ExecuteProposal(n.ctx, proposalID)
	require.ErrorIs(t, err, governor.ErrTimelockActive)
	assert.Equal(t, "0", n.balance(vendor))

	n.advance(48 * time.Hour)
	require.NoError(t, n.GetGovernor().ExecuteProposal(n.ctx, proposalID))
	assert.Equal(t, "500", n.balance(vendor))
	assert.Equal(t, "300", n.GetTreasuryEngine().Balance(asset).String())

	// a second execution cannot pay again
	err = n.GetGovernor().ExecuteProposal(n.ctx, proposalID)
	require.ErrorIs(t, err, governor.ErrProposalNotInExecution)
	assert.Equal(t, "500", n.balance(vendor))
	assert.Equal(t, "300", n.GetTreasuryEngine().Balance(asset).String())

	// pass shares redeem one to one
	market, err = n.GetMarketsEngine().GetMarket(marketID)
	require.NoError(t, err)
	assert.Equal(t, types.MarketStatusResolved, market.Status)
	require.NoError(t, n.GetConditionsEngine().RedeemPositions(n.ctx, trader, asset, market.ConditionID, []int{types.OutcomeIndexPass}))
	wantTrader := num.UintZero().Sub(num.Sum(num.NewUint(1000), num.NewUint(50)), cost)
	assert.Equal(t, wantTrader.String(), n.balance(trader))

	// every event left the node in one strictly increasing sequence
	var last uint64
	seen := map[events.Type]bool{}
	for _, evt := range n.sink.events {
		require.Greater(t, evt.Sequence(), last)
		last = evt.Sequence()
		seen[evt.Type()] = true
	}
	for _, et := range []events.Type{
		events.MarketCreatedEvent,
		events.TradeEvent,
		events.ResolutionOpenedEvent,
		events.ReportSubmittedEvent,
		events.ResolutionFinalizedEvent,
		events.ProposalEvent,
		events.ProposalExecutedEvent,
		events.PositionsRedeemedEvent,
	} {
		assert.True(t, seen[et], et.String())
	}
}

func testRejectedProposalPaysNothing(t *testing.T) {
	n := getTestNode(t)
	n.fundTreasury(t, 800)
	proposalID, marketID := n.tradeReady(t)

	n.deposit(t, trader, 500)
	cost, err := n.GetMarketsEngine().Buy(n.ctx, trader, marketID, types.SideFail, num.NewUint(40))
	require.NoError(t, err)

	n.advance(72 * time.Hour)
	require.NoError(t, n.GetGovernor().MoveToResolution(n.ctx, proposalID))
	n.report(t, proposalID, 250, 900)
	n.advance(24 * time.Hour)
	require.NoError(t, n.GetResolutionEngine().Finalize(n.ctx, proposalID))

	require.NoError(t, n.GetGovernor().FinalizeProposal(n.ctx, proposalID))
	proposal, err := n.GetGovernor().GetProposal(proposalID)
	require.NoError(t, err)
	assert.Equal(t, types.ProposalPhaseRejected, proposal.Phase)

	// a rejected proposal never reaches the treasury
	err = n.GetGovernor().ExecuteProposal(n.ctx, proposalID)
	require.ErrorIs(t, err, governor.ErrProposalNotInExecution)
	assert.Equal(t, "0", n.balance(vendor))
	assert.Equal(t, "800", n.GetTreasuryEngine().Balance(asset).String())

	// fail shares are the redeemable side here
	market, err := n.GetMarketsEngine().GetMarket(marketID)
	require.NoError(t, err)
	require.NoError(t, n.GetConditionsEngine().RedeemPositions(n.ctx, trader, asset, market.ConditionID, []int{types.OutcomeIndexFail}))
	wantTrader := num.UintZero().Sub(num.Sum(num.NewUint(500), num.NewUint(40)), cost)
	assert.Equal(t, wantTrader.String(), n.balance(trader))
}

func testChallengeWinsOutright(t *testing.T) {
	n := getTestNode(t)
	proposalID, _ := n.inResolution(t)

	n.report(t, proposalID, 700, 300)
	n.challenge(t, proposalID, 200, 900)
	assert.Equal(t, "0", n.balance(challenger))

	// challenged resolutions finalize without waiting out any window
	require.NoError(t, n.GetResolutionEngine().Finalize(n.ctx, proposalID))
	assert.Equal(t, "250", n.balance(challenger))
	assert.Equal(t, "0", n.balance(reporter))

	passValue, failValue, ok := n.GetResolutionEngine().Values(proposalID)
	require.True(t, ok)
	assert.Equal(t, "200", passValue.String())
	assert.Equal(t, "900", failValue.String())

	require.NoError(t, n.GetGovernor().FinalizeProposal(n.ctx, proposalID))
	proposal, err := n.GetGovernor().GetProposal(proposalID)
	require.NoError(t, err)
	assert.Equal(t, types.ProposalPhaseRejected, proposal.Phase)
}

func testDisputeFollowsOracle(t *testing.T) {
	n := getTestNode(t)
	n.fundTreasury(t, 600)
	proposalID, _ := n.inResolution(t)

	n.report(t, proposalID, 700, 300)
	n.challenge(t, proposalID, 200, 900)

	n.grant(t, escalator, types.CapabilityDisputeEscalator)
	require.NoError(t, n.GetResolutionEngine().Escalate(n.ctx, escalator, proposalID, "dispute-42"))

	gomock.InOrder(
		n.oracle.EXPECT().ResolveDispute(gomock.Any(), "dispute-42").
			Return(nil, nil, errors.New("adjudication pending")),
		n.oracle.EXPECT().ResolveDispute(gomock.Any(), "dispute-42").
			Return(num.NewUint(720), num.NewUint(310), nil),
	)

	// a pending dispute leaves the resolution open
	err := n.GetResolutionEngine().Finalize(n.ctx, proposalID)
	require.ErrorContains(t, err, "adjudication pending")
	stage, ok := n.GetResolutionEngine().Stage(proposalID)
	require.True(t, ok)
	assert.Equal(t, types.ResolutionStageDispute, stage)

	// the oracle called it for pass, matching the reporter
	require.NoError(t, n.GetResolutionEngine().Finalize(n.ctx, proposalID))
	assert.Equal(t, "250", n.balance(reporter))
	assert.Equal(t, "0", n.balance(challenger))

	require.NoError(t, n.GetGovernor().FinalizeProposal(n.ctx, proposalID))
	n.advance(48 * time.Hour)
	require.NoError(t, n.GetGovernor().ExecuteProposal(n.ctx, proposalID))
	assert.Equal(t, "500", n.balance(vendor))
	assert.Equal(t, "100", n.GetTreasuryEngine().Balance(asset).String())
}

func testProtocolVersion(t *testing.T) {
	n := getTestNode(t)
	assert.Equal(t, "0.1.0", n.Protocol.Protocol().String())
}

func testConfigLayering(t *testing.T) {
	n := getTestNode(t)
	cfg := n.conf.Get()

	// file values
	assert.Equal(t, 24*time.Hour, cfg.Resolution.ChallengeWindow.Get())
	assert.Equal(t, "100", cfg.Resolution.ReportBond.Get().String())

	// untouched sections keep their defaults
	assert.Equal(t, 48*time.Hour, cfg.Governor.TimelockDelay.Get())
	assert.Equal(t, 21*24*time.Hour, cfg.Markets.MaxTradingPeriod.Get())
}
