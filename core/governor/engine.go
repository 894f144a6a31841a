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

// Package governor runs funding proposals through their lifecycle: a
// submitted proposal rests, gets activated into a conditional market
// pair, trades, goes through oracle resolution, and either executes its
// timelocked treasury transfer or is rejected, all decided by the
// market's adopted welfare values rather than a vote.
package governor

import (
	"context"
	"errors"
	"time"

	"code.futarchyprotocol.io/futarchy/core/events"
	"code.futarchyprotocol.io/futarchy/core/idgen"
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
	// ErrProposalDoesNotExist is returned when operating on an unknown
	// proposal.
	ErrProposalDoesNotExist = errors.New("proposal does not exist")
	// ErrInvalidRecipient is returned when submitting a proposal without
	// a recipient.
	ErrInvalidRecipient = errors.New("invalid recipient")
	// ErrInvalidAmount is returned when submitting a proposal with a nil
	// or zero amount.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidReporter is returned when submitting a proposal without
	// a designated reporter.
	ErrInvalidReporter = errors.New("invalid designated reporter")
	// ErrInvalidBetType is returned when submitting a proposal with an
	// unknown bet type.
	ErrInvalidBetType = errors.New("invalid bet type")
	// ErrProposalNotUnderReview is returned when activating a proposal
	// that is not reviewable.
	ErrProposalNotUnderReview = errors.New("proposal is not under review")
	// ErrProposalNotTrading is returned when moving a proposal to
	// resolution while it is not trading.
	ErrProposalNotTrading = errors.New("proposal is not trading")
	// ErrProposalNotInResolution is returned when finalizing a proposal
	// that is not in resolution.
	ErrProposalNotInResolution = errors.New("proposal is not in resolution")
	// ErrProposalNotInExecution is returned when executing a proposal
	// that is not awaiting execution.
	ErrProposalNotInExecution = errors.New("proposal is not awaiting execution")
	// ErrResolutionNotFinalized is returned when finalizing a proposal
	// whose oracle resolution has not finalized.
	ErrResolutionNotFinalized = errors.New("resolution is not finalized")
	// ErrMarketUnresolvable is returned when a proposal's market can no
	// longer reach resolution, a cancelled market strands its proposal.
	ErrMarketUnresolvable = errors.New("market cannot reach resolution")
	// ErrProposalAlreadyExecuted is returned when executing a proposal
	// twice.
	ErrProposalAlreadyExecuted = errors.New("proposal already executed")
	// ErrTimelockActive is returned when executing a proposal before its
	// execution time.
	ErrTimelockActive = errors.New("timelock has not expired")
)

// Markets deploys and settles the conditional market pairs proposals
// trade on.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks code.futarchyprotocol.io/futarchy/core/governor Markets,Resolution,Treasury,Capabilities,TimeService,Broker
type Markets interface {
	DeployMarketPair(ctx context.Context, party string, deployment types.MarketDeployment) (string, error)
	EndTrading(ctx context.Context, marketID string) error
	ResolveMarket(ctx context.Context, party, marketID string, passValue, failValue *num.Uint) error
	GetMarket(marketID string) (*types.Market, error)
}

// Resolution runs the oracle resolution protocol deciding proposal
// outcomes.
type Resolution interface {
	Open(ctx context.Context, proposalID, reporter, bondAsset string) error
	Values(proposalID string) (*num.Uint, *num.Uint, bool)
}

// Treasury pays adopted funding proposals out.
type Treasury interface {
	Withdraw(ctx context.Context, recipient, asset string, amount *num.Uint) error
}

// Capabilities is the host's registry of permissioned operations.
type Capabilities interface {
	HasCapability(party string, c types.Capability) bool
}

// TimeService is the protocol clock.
type TimeService interface {
	GetTimeNow() time.Time
}

// Broker send events.
type Broker interface {
	Send(event events.Event)
	SendBatch(events []events.Event)
}

// Engine is the proposal lifecycle engine.
type Engine struct {
	Config
	log          *logging.Logger
	timeService  TimeService
	capabilities Capabilities
	markets      Markets
	resolution   Resolution
	treasury     Treasury
	broker       Broker

	proposals map[string]*types.GovernanceProposal
	// proposalIDs keeps the deterministic iteration order for OnTick
	proposalIDs []string
	gen         *idgen.Generator
}

// New instantiates a new governor engine.
func New(
	log *logging.Logger,
	conf Config,
	ts TimeService,
	capabilities Capabilities,
	markets Markets,
	resolution Resolution,
	treasury Treasury,
	broker Broker,
) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())

	return &Engine{
		Config:       conf,
		log:          log,
		timeService:  ts,
		capabilities: capabilities,
		markets:      markets,
		resolution:   resolution,
		treasury:     treasury,
		broker:       broker,
		proposals:    map[string]*types.GovernanceProposal{},
		proposalIDs:  []string{},
		// proposal ids form one deterministic chain, restarts replay it
		// identically
		gen: idgen.New(crypto.HashStrToHex("governance-proposals")),
	}
}

// ReloadConf updates the internal configuration of the governor engine.
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

// SubmitProposal files a new funding proposal. It rests in Submitted
// until the review delay passes.
func (e *Engine) SubmitProposal(ctx context.Context, party string, submission types.ProposalSubmission) (string, error) {
	defer metrics.EngineTimeCounterAdd("-", "governor", "SubmitProposal")()

	if party != types.NetworkParty && !e.capabilities.HasCapability(party, types.CapabilityProposalSubmitter) {
		return "", ErrCapabilityRequired
	}
	if len(submission.Recipient) == 0 {
		return "", ErrInvalidRecipient
	}
	if submission.Amount == nil || submission.Amount.IsZero() {
		return "", ErrInvalidAmount
	}
	if len(submission.Reporter) == 0 {
		return "", ErrInvalidReporter
	}
	if !submission.BetType.IsValid() {
		return "", ErrInvalidBetType
	}

	proposal := &types.GovernanceProposal{
		ID:          e.gen.NextID(),
		Party:       party,
		Reference:   submission.Reference,
		Recipient:   submission.Recipient,
		Amount:      submission.Amount.Clone(),
		Reporter:    submission.Reporter,
		BetType:     submission.BetType,
		Phase:       types.ProposalPhaseSubmitted,
		SubmittedAt: e.timeService.GetTimeNow(),
	}
	e.proposals[proposal.ID] = proposal
	e.proposalIDs = append(e.proposalIDs, proposal.ID)

	e.log.Info("proposal submitted",
		logging.ProposalID(proposal.ID),
		logging.PartyID(party),
		logging.String("recipient", proposal.Recipient),
		logging.BigUint("amount", proposal.Amount),
	)
	metrics.ProposalCounterInc(types.ProposalPhaseSubmitted.String())
	e.broker.Send(events.NewProposal(ctx, *proposal))
	return proposal.ID, nil
}

// OnTick moves submitted proposals into review once their review delay
// passed. Registered with the protocol clock.
func (e *Engine) OnTick(ctx context.Context, t time.Time) {
	for _, id := range e.proposalIDs {
		proposal := e.proposals[id]
		if proposal.Phase != types.ProposalPhaseSubmitted {
			continue
		}
		if t.Before(proposal.SubmittedAt.Add(e.ReviewDelay.Get())) {
			continue
		}
		e.setPhase(proposal, types.ProposalPhaseUnderReview)
		e.log.Debug("proposal moved to review", logging.ProposalID(id))
		e.broker.Send(events.NewProposal(ctx, *proposal))
	}
}

// ActivateProposal accepts a reviewed proposal for trading, deploying
// its market pair funded by the activating reviewer. Returns the market
// id.
func (e *Engine) ActivateProposal(ctx context.Context, party, proposalID string, terms types.ActivationTerms) (string, error) {
	defer metrics.EngineTimeCounterAdd("-", "governor", "ActivateProposal")()

	if party != types.NetworkParty && !e.capabilities.HasCapability(party, types.CapabilityProposalReviewer) {
		return "", ErrCapabilityRequired
	}
	proposal, ok := e.proposals[proposalID]
	if !ok {
		return "", ErrProposalDoesNotExist
	}
	if proposal.Phase != types.ProposalPhaseUnderReview {
		return "", ErrProposalNotUnderReview
	}

	marketID, err := e.markets.DeployMarketPair(ctx, party, types.MarketDeployment{
		ProposalID:      proposalID,
		CollateralAsset: terms.CollateralAsset,
		Liquidity:       terms.Liquidity,
		LiquidityParam:  terms.LiquidityParam,
		TradingPeriod:   terms.TradingPeriod,
		BetType:         proposal.BetType,
	})
	if err != nil {
		return "", err
	}

	proposal.MarketID = marketID
	e.setPhase(proposal, types.ProposalPhaseActive)
	e.broker.Send(events.NewProposal(ctx, *proposal))
	e.setPhase(proposal, types.ProposalPhaseTrading)
	e.broker.Send(events.NewProposal(ctx, *proposal))

	e.log.Info("proposal activated",
		logging.ProposalID(proposalID),
		logging.PartyID(party),
		logging.MarketID(marketID),
	)
	return marketID, nil
}

// MoveToResolution ends trading on the proposal's market and opens the
// oracle resolution process. Callable by anyone once the trading period
// elapsed.
func (e *Engine) MoveToResolution(ctx context.Context, proposalID string) error {
	proposal, ok := e.proposals[proposalID]
	if !ok {
		return ErrProposalDoesNotExist
	}
	if proposal.Phase != types.ProposalPhaseTrading {
		return ErrProposalNotTrading
	}

	market, err := e.markets.GetMarket(proposal.MarketID)
	if err != nil {
		return err
	}
	switch market.Status {
	case types.MarketStatusActive:
		if err := e.markets.EndTrading(ctx, proposal.MarketID); err != nil {
			return err
		}
	case types.MarketStatusTradingEnded:
		// already halted, nothing to do
	default:
		return ErrMarketUnresolvable
	}

	if err := e.resolution.Open(ctx, proposalID, proposal.Reporter, market.CollateralAsset); err != nil {
		return err
	}

	e.setPhase(proposal, types.ProposalPhaseResolution)
	e.log.Info("proposal moved to resolution",
		logging.ProposalID(proposalID),
		logging.PartyID(proposal.Reporter),
	)
	e.broker.Send(events.NewProposal(ctx, *proposal))
	return nil
}

// FinalizeProposal settles the proposal on its resolution's adopted
// values: the market resolves, and the proposal enters timelocked
// execution when pass won or is rejected otherwise. A tie rejects.
func (e *Engine) FinalizeProposal(ctx context.Context, proposalID string) error {
	defer metrics.EngineTimeCounterAdd("-", "governor", "FinalizeProposal")()

	proposal, ok := e.proposals[proposalID]
	if !ok {
		return ErrProposalDoesNotExist
	}
	if proposal.Phase != types.ProposalPhaseResolution {
		return ErrProposalNotInResolution
	}
	passValue, failValue, ok := e.resolution.Values(proposalID)
	if !ok {
		return ErrResolutionNotFinalized
	}

	if err := e.markets.ResolveMarket(ctx, types.NetworkParty, proposal.MarketID, passValue, failValue); err != nil {
		return err
	}

	if passValue.GT(failValue) {
		proposal.ExecutionTime = e.timeService.GetTimeNow().Add(e.TimelockDelay.Get())
		e.setPhase(proposal, types.ProposalPhaseExecution)
		e.log.Info("proposal adopted, execution timelocked",
			logging.ProposalID(proposalID),
			logging.Time("execution-time", proposal.ExecutionTime),
		)
	} else {
		e.setPhase(proposal, types.ProposalPhaseRejected)
		e.log.Info("proposal rejected",
			logging.ProposalID(proposalID),
			logging.BigUint("pass-value", passValue),
			logging.BigUint("fail-value", failValue),
		)
	}
	e.broker.Send(events.NewProposal(ctx, *proposal))
	return nil
}

// ExecuteProposal carries out the treasury transfer of an adopted
// proposal once its timelock expired. The proposal is marked executed
// before the treasury is invoked, so a re-entrant execution attempt
// finds it completed; a failing treasury rolls the mark back.
func (e *Engine) ExecuteProposal(ctx context.Context, proposalID string) error {
	defer metrics.EngineTimeCounterAdd("-", "governor", "ExecuteProposal")()

	proposal, ok := e.proposals[proposalID]
	if !ok {
		return ErrProposalDoesNotExist
	}
	if proposal.Phase != types.ProposalPhaseExecution {
		return ErrProposalNotInExecution
	}
	if proposal.Executed {
		return ErrProposalAlreadyExecuted
	}
	if e.timeService.GetTimeNow().Before(proposal.ExecutionTime) {
		return ErrTimelockActive
	}
	market, err := e.markets.GetMarket(proposal.MarketID)
	if err != nil {
		return err
	}

	proposal.Executed = true
	e.setPhase(proposal, types.ProposalPhaseCompleted)
	if err := e.treasury.Withdraw(ctx, proposal.Recipient, market.CollateralAsset, proposal.Amount); err != nil {
		// the phase machine has no backward transitions, the rollback
		// writes the fields directly
		proposal.Executed = false
		proposal.Phase = types.ProposalPhaseExecution
		e.log.Error("treasury withdrawal failed, execution rolled back",
			logging.ProposalID(proposalID),
			logging.Error(err),
		)
		return err
	}

	e.log.Info("proposal executed",
		logging.ProposalID(proposalID),
		logging.String("recipient", proposal.Recipient),
		logging.AssetID(market.CollateralAsset),
		logging.BigUint("amount", proposal.Amount),
	)
	e.broker.Send(events.NewProposal(ctx, *proposal))
	e.broker.Send(events.NewProposalExecuted(ctx, proposalID, proposal.Recipient, market.CollateralAsset, proposal.Amount))
	return nil
}

// GetProposal returns a copy of a proposal.
func (e *Engine) GetProposal(proposalID string) (*types.GovernanceProposal, error) {
	proposal, ok := e.proposals[proposalID]
	if !ok {
		return nil, ErrProposalDoesNotExist
	}
	return proposal.DeepClone(), nil
}

// ListProposals returns copies of all proposals in submission order.
func (e *Engine) ListProposals() []*types.GovernanceProposal {
	out := make([]*types.GovernanceProposal, 0, len(e.proposalIDs))
	for _, id := range e.proposalIDs {
		out = append(out, e.proposals[id].DeepClone())
	}
	return out
}

// setPhase is the only place proposal phases ever move forward.
func (e *Engine) setPhase(proposal *types.GovernanceProposal, next types.ProposalPhase) {
	if !proposal.Phase.CanTransitionTo(next) {
		e.log.Panic("illegal proposal phase transition",
			logging.ProposalID(proposal.ID),
			logging.String("from", proposal.Phase.String()),
			logging.String("to", next.String()),
		)
	}
	proposal.Phase = next
	metrics.ProposalCounterInc(next.String())
}
