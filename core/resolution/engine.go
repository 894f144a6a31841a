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

// Package resolution runs the oracle resolution protocol deciding the
// welfare metric values a proposal settles on. The designated reporter
// files a bonded report, anyone can post a bonded challenge while the
// window is open, challenged reports can be escalated to an external
// dispute oracle. Whatever path a resolution takes, it ends finalized
// with one adopted value pair, and the bonds paid out.
//
// An unescalated challenge wins outright. The protocol deliberately has
// no adjudication step of its own below the dispute oracle, disagreeing
// with a challenge means escalating it.
package resolution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"code.futarchyprotocol.io/futarchy/core/events"
	"code.futarchyprotocol.io/futarchy/core/metrics"
	"code.futarchyprotocol.io/futarchy/core/types"
	"code.futarchyprotocol.io/futarchy/libs/num"
	"code.futarchyprotocol.io/futarchy/logging"
)

var (
	// ErrCapabilityRequired is returned when a party calls a
	// permissioned operation without holding the capability for it.
	ErrCapabilityRequired = errors.New("party lacks the required capability")
	// ErrInvalidProposalID is returned when opening a resolution without
	// a proposal identifier.
	ErrInvalidProposalID = errors.New("invalid proposal identifier")
	// ErrInvalidReporter is returned when opening a resolution without a
	// designated reporter.
	ErrInvalidReporter = errors.New("invalid designated reporter")
	// ErrInvalidBondAsset is returned when opening a resolution without
	// a bond asset.
	ErrInvalidBondAsset = errors.New("invalid bond asset")
	// ErrResolutionAlreadyOpen is returned when opening a resolution for
	// a proposal that already has one.
	ErrResolutionAlreadyOpen = errors.New("resolution already open for the proposal")
	// ErrResolutionNotFound is returned when operating on a proposal
	// with no open resolution.
	ErrResolutionNotFound = errors.New("no resolution for the proposal")
	// ErrNotDesignatedReporter is returned when anyone but the
	// designated reporter files the report.
	ErrNotDesignatedReporter = errors.New("party is not the designated reporter")
	// ErrReportAlreadySubmitted is returned when a second report is
	// filed.
	ErrReportAlreadySubmitted = errors.New("report already submitted")
	// ErrInvalidOutcomeValues is returned on nil reported values.
	ErrInvalidOutcomeValues = errors.New("invalid outcome values")
	// ErrBondMismatch is returned when the posted bond is not exactly
	// the configured one.
	ErrBondMismatch = errors.New("bond does not match the required amount")
	// ErrNoReportToChallenge is returned when challenging before any
	// report was filed.
	ErrNoReportToChallenge = errors.New("no report to challenge")
	// ErrReportAlreadyChallenged is returned when a second challenge is
	// filed.
	ErrReportAlreadyChallenged = errors.New("report already challenged")
	// ErrChallengeWindowClosed is returned when challenging at or after
	// the challenge deadline.
	ErrChallengeWindowClosed = errors.New("challenge window is closed")
	// ErrChallengeWindowOpen is returned when finalizing an unchallenged
	// report before the challenge deadline.
	ErrChallengeWindowOpen = errors.New("challenge window is still open")
	// ErrNoChallengeToEscalate is returned when escalating a resolution
	// that has no open challenge.
	ErrNoChallengeToEscalate = errors.New("no challenge to escalate")
	// ErrAlreadyEscalated is returned when escalating twice.
	ErrAlreadyEscalated = errors.New("challenge already escalated")
	// ErrInvalidDisputeReference is returned when escalating without a
	// dispute reference.
	ErrInvalidDisputeReference = errors.New("invalid dispute reference")
	// ErrResolutionFinalized is returned when operating on a finalized
	// resolution.
	ErrResolutionFinalized = errors.New("resolution is finalized")
	// ErrNoReportSubmitted is returned when finalizing a resolution
	// nobody reported on.
	ErrNoReportSubmitted = errors.New("no report submitted")
)

// BondAccountOwner derives the owner of the account report and
// challenge bonds for a proposal are escrowed in.
func BondAccountOwner(proposalID string) string {
	return "resolution-bond-" + proposalID
}

// Collateral is the ledger bonds are escrowed in and paid out of.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks code.futarchyprotocol.io/futarchy/core/resolution Capabilities,TimeService,DisputeOracle,Broker
type Collateral interface {
	Transfer(ctx context.Context, from, to, asset string, amount *num.Uint) error
}

// Capabilities is the host's registry of permissioned operations.
type Capabilities interface {
	HasCapability(party string, c types.Capability) bool
}

// TimeService is the protocol clock.
type TimeService interface {
	GetTimeNow() time.Time
}

// DisputeOracle adjudicates escalated disputes out of band and reports
// the welfare values to adopt.
type DisputeOracle interface {
	ResolveDispute(ctx context.Context, disputeRef string) (passValue, failValue *num.Uint, err error)
}

// Broker send events.
type Broker interface {
	Send(event events.Event)
	SendBatch(events []events.Event)
}

// Engine is the oracle resolution engine.
type Engine struct {
	Config
	log           *logging.Logger
	timeService   TimeService
	capabilities  Capabilities
	collateral    Collateral
	disputeOracle DisputeOracle
	broker        Broker

	resolutions map[string]*types.Resolution
}

// New instantiates a new resolution engine.
func New(
	log *logging.Logger,
	conf Config,
	ts TimeService,
	capabilities Capabilities,
	collateral Collateral,
	disputeOracle DisputeOracle,
	broker Broker,
) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())

	return &Engine{
		Config:        conf,
		log:           log,
		timeService:   ts,
		capabilities:  capabilities,
		collateral:    collateral,
		disputeOracle: disputeOracle,
		broker:        broker,
		resolutions:   map[string]*types.Resolution{},
	}
}

// ReloadConf updates the internal configuration of the resolution
// engine.
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

// Open starts the resolution process for a proposal, naming the only
// party whose report will be accepted and the asset bonds are posted
// in.
func (e *Engine) Open(ctx context.Context, proposalID, reporter, bondAsset string) error {
	if len(proposalID) == 0 {
		return ErrInvalidProposalID
	}
	if len(reporter) == 0 {
		return ErrInvalidReporter
	}
	if len(bondAsset) == 0 {
		return ErrInvalidBondAsset
	}
	if _, ok := e.resolutions[proposalID]; ok {
		return ErrResolutionAlreadyOpen
	}

	e.resolutions[proposalID] = &types.Resolution{
		ProposalID: proposalID,
		Reporter:   reporter,
		BondAsset:  bondAsset,
		Stage:      types.ResolutionStageUnreported,
	}
	e.log.Info("resolution opened",
		logging.ProposalID(proposalID),
		logging.PartyID(reporter),
	)
	metrics.ResolutionCounterInc(types.ResolutionStageUnreported.String())
	e.broker.Send(events.NewResolutionOpened(ctx, proposalID, reporter))
	return nil
}

// SubmitReport files the designated reporter's bonded claim of the
// observed welfare values and starts the challenge window.
func (e *Engine) SubmitReport(ctx context.Context, party, proposalID string, passValue, failValue *num.Uint, evidenceRef string, bond *num.Uint) error {
	defer metrics.EngineTimeCounterAdd(proposalID, "resolution", "SubmitReport")()

	r, ok := e.resolutions[proposalID]
	if !ok {
		return ErrResolutionNotFound
	}
	switch r.Stage {
	case types.ResolutionStageUnreported:
	case types.ResolutionStageFinalized:
		return ErrResolutionFinalized
	default:
		return ErrReportAlreadySubmitted
	}
	if party != r.Reporter {
		return ErrNotDesignatedReporter
	}
	if passValue == nil || failValue == nil {
		return ErrInvalidOutcomeValues
	}
	if bond == nil || bond.NEQ(e.ReportBond.Get()) {
		return ErrBondMismatch
	}

	if err := e.collateral.Transfer(ctx, party, BondAccountOwner(proposalID), r.BondAsset, bond); err != nil {
		return err
	}

	r.Report = &types.Report{
		Reporter:    party,
		PassValue:   passValue.Clone(),
		FailValue:   failValue.Clone(),
		EvidenceRef: evidenceRef,
		Bond:        bond.Clone(),
		SubmittedAt: e.timeService.GetTimeNow(),
	}
	e.setStage(r, types.ResolutionStageDesignatedReporting)

	e.log.Info("report submitted",
		logging.ProposalID(proposalID),
		logging.PartyID(party),
		logging.BigUint("pass-value", passValue),
		logging.BigUint("fail-value", failValue),
	)
	e.broker.Send(events.NewReportSubmitted(ctx, proposalID, party, passValue, failValue, bond))
	return nil
}

// ChallengeReport files a bonded counter-report against the designated
// report. Only one challenge is accepted, and only strictly before the
// challenge deadline.
func (e *Engine) ChallengeReport(ctx context.Context, party, proposalID string, passValue, failValue *num.Uint, evidenceRef string, bond *num.Uint) error {
	defer metrics.EngineTimeCounterAdd(proposalID, "resolution", "ChallengeReport")()

	r, ok := e.resolutions[proposalID]
	if !ok {
		return ErrResolutionNotFound
	}
	switch r.Stage {
	case types.ResolutionStageDesignatedReporting:
	case types.ResolutionStageUnreported:
		return ErrNoReportToChallenge
	case types.ResolutionStageFinalized:
		return ErrResolutionFinalized
	default:
		return ErrReportAlreadyChallenged
	}
	if !e.timeService.GetTimeNow().Before(r.Report.SubmittedAt.Add(e.ChallengeWindow.Get())) {
		return ErrChallengeWindowClosed
	}
	if passValue == nil || failValue == nil {
		return ErrInvalidOutcomeValues
	}
	if bond == nil || bond.NEQ(e.ChallengeBond.Get()) {
		return ErrBondMismatch
	}

	if err := e.collateral.Transfer(ctx, party, BondAccountOwner(proposalID), r.BondAsset, bond); err != nil {
		return err
	}

	r.Challenge = &types.Challenge{
		Challenger:  party,
		PassValue:   passValue.Clone(),
		FailValue:   failValue.Clone(),
		EvidenceRef: evidenceRef,
		Bond:        bond.Clone(),
		SubmittedAt: e.timeService.GetTimeNow(),
	}
	e.setStage(r, types.ResolutionStageOpenChallenge)

	e.log.Info("report challenged",
		logging.ProposalID(proposalID),
		logging.PartyID(party),
		logging.BigUint("pass-value", passValue),
		logging.BigUint("fail-value", failValue),
	)
	e.broker.Send(events.NewReportChallenged(ctx, proposalID, party, passValue, failValue, bond))
	return nil
}

// Escalate hands a challenged report to the external dispute oracle
// under the given reference.
func (e *Engine) Escalate(ctx context.Context, party, proposalID, disputeRef string) error {
	if party != types.NetworkParty && !e.capabilities.HasCapability(party, types.CapabilityDisputeEscalator) {
		return ErrCapabilityRequired
	}
	r, ok := e.resolutions[proposalID]
	if !ok {
		return ErrResolutionNotFound
	}
	switch r.Stage {
	case types.ResolutionStageOpenChallenge:
	case types.ResolutionStageDispute:
		return ErrAlreadyEscalated
	case types.ResolutionStageFinalized:
		return ErrResolutionFinalized
	default:
		return ErrNoChallengeToEscalate
	}
	if len(disputeRef) == 0 {
		return ErrInvalidDisputeReference
	}

	r.DisputeRef = disputeRef
	e.setStage(r, types.ResolutionStageDispute)

	e.log.Info("challenge escalated to the dispute oracle",
		logging.ProposalID(proposalID),
		logging.String("dispute-ref", disputeRef),
	)
	e.broker.Send(events.NewDisputeEscalated(ctx, proposalID, disputeRef))
	return nil
}

// Finalize adopts the outcome values of a resolution and pays the bonds
// out. Unchallenged reports finalize once their challenge window
// closed, open challenges win outright, disputes adopt whatever the
// dispute oracle adjudicates.
func (e *Engine) Finalize(ctx context.Context, proposalID string) error {
	defer metrics.EngineTimeCounterAdd(proposalID, "resolution", "Finalize")()

	r, ok := e.resolutions[proposalID]
	if !ok {
		return ErrResolutionNotFound
	}
	return e.finalize(ctx, r)
}

// FinalizeMany finalizes every due resolution named in ids. Unknown,
// already finalized and not yet finalizable ones are skipped silently,
// calling it twice with the same ids is harmless. Returns how many
// resolutions finalized.
func (e *Engine) FinalizeMany(ctx context.Context, ids []string) int {
	finalized := 0
	for _, id := range ids {
		r, ok := e.resolutions[id]
		if !ok || r.Stage == types.ResolutionStageFinalized {
			continue
		}
		if err := e.finalize(ctx, r); err != nil {
			if e.log.GetLevel() == logging.DebugLevel {
				e.log.Debug("resolution not finalized",
					logging.ProposalID(id),
					logging.Error(err),
				)
			}
			continue
		}
		finalized++
	}
	return finalized
}

// Values returns the adopted welfare values of a resolution. ok is false
// until it is finalized.
func (e *Engine) Values(proposalID string) (*num.Uint, *num.Uint, bool) {
	r, ok := e.resolutions[proposalID]
	if !ok || r.Stage != types.ResolutionStageFinalized {
		return nil, nil, false
	}
	return r.PassValue.Clone(), r.FailValue.Clone(), true
}

// Stage returns the current stage of a proposal's resolution.
func (e *Engine) Stage(proposalID string) (types.ResolutionStage, bool) {
	r, ok := e.resolutions[proposalID]
	if !ok {
		return types.ResolutionStageUnspecified, false
	}
	return r.Stage, true
}

// GetResolution returns a copy of a proposal's resolution record.
func (e *Engine) GetResolution(proposalID string) (*types.Resolution, error) {
	r, ok := e.resolutions[proposalID]
	if !ok {
		return nil, ErrResolutionNotFound
	}
	return r.DeepClone(), nil
}

func (e *Engine) finalize(ctx context.Context, r *types.Resolution) error {
	var err error
	switch r.Stage {
	case types.ResolutionStageFinalized:
		return ErrResolutionFinalized
	case types.ResolutionStageUnreported:
		return ErrNoReportSubmitted
	case types.ResolutionStageDesignatedReporting:
		err = e.finalizeUnchallenged(ctx, r)
	case types.ResolutionStageOpenChallenge:
		err = e.finalizeChallenged(ctx, r)
	default:
		err = e.finalizeDisputed(ctx, r)
	}
	if err != nil {
		return err
	}

	e.log.Info("resolution finalized",
		logging.ProposalID(r.ProposalID),
		logging.BigUint("pass-value", r.PassValue),
		logging.BigUint("fail-value", r.FailValue),
	)
	e.broker.Send(events.NewResolutionFinalized(ctx, r.ProposalID, r.PassValue, r.FailValue))
	return nil
}

// finalizeUnchallenged adopts the unchallenged report once the window
// closed and returns the reporter's bond.
func (e *Engine) finalizeUnchallenged(ctx context.Context, r *types.Resolution) error {
	if e.timeService.GetTimeNow().Before(r.Report.SubmittedAt.Add(e.ChallengeWindow.Get())) {
		return ErrChallengeWindowOpen
	}
	e.adopt(r, r.Report.PassValue, r.Report.FailValue)
	e.payBond(ctx, r, r.Reporter, r.Report.Bond)
	return nil
}

// finalizeChallenged adopts the unescalated challenge and pays the
// challenger both bonds.
func (e *Engine) finalizeChallenged(ctx context.Context, r *types.Resolution) error {
	e.adopt(r, r.Challenge.PassValue, r.Challenge.FailValue)
	e.payBond(ctx, r, r.Challenge.Challenger, r.Report.Bond)
	e.payBond(ctx, r, r.Challenge.Challenger, r.Challenge.Bond)
	return nil
}

// finalizeDisputed asks the dispute oracle for the values to adopt.
// Both bonds go to the filer whose claimed direction alone matches the
// adjudicated one, in every other case each bond returns to its poster.
func (e *Engine) finalizeDisputed(ctx context.Context, r *types.Resolution) error {
	// the oracle query is the only fallible step, nothing commits until
	// it answers
	passValue, failValue, err := e.disputeOracle.ResolveDispute(ctx, r.DisputeRef)
	if err != nil {
		return fmt.Errorf("dispute oracle: %w", err)
	}
	if passValue == nil || failValue == nil {
		return ErrInvalidOutcomeValues
	}
	e.adopt(r, passValue, failValue)

	adjudicated := direction(passValue, failValue)
	reporterMatches := direction(r.Report.PassValue, r.Report.FailValue) == adjudicated
	challengerMatches := direction(r.Challenge.PassValue, r.Challenge.FailValue) == adjudicated
	switch {
	case reporterMatches && !challengerMatches:
		e.payBond(ctx, r, r.Reporter, r.Report.Bond)
		e.payBond(ctx, r, r.Reporter, r.Challenge.Bond)
	case challengerMatches && !reporterMatches:
		e.payBond(ctx, r, r.Challenge.Challenger, r.Report.Bond)
		e.payBond(ctx, r, r.Challenge.Challenger, r.Challenge.Bond)
	default:
		e.payBond(ctx, r, r.Reporter, r.Report.Bond)
		e.payBond(ctx, r, r.Challenge.Challenger, r.Challenge.Bond)
	}
	return nil
}

// adopt commits the values and the terminal stage, bond payouts follow
// the commit.
func (e *Engine) adopt(r *types.Resolution, passValue, failValue *num.Uint) {
	r.PassValue = passValue.Clone()
	r.FailValue = failValue.Clone()
	r.FinalizedAt = e.timeService.GetTimeNow()
	e.setStage(r, types.ResolutionStageFinalized)
}

// payBond moves a bond out of the proposal's escrow. The escrow holds
// every posted bond, a failing payout means corrupted state.
func (e *Engine) payBond(ctx context.Context, r *types.Resolution, to string, amount *num.Uint) {
	if err := e.collateral.Transfer(ctx, BondAccountOwner(r.ProposalID), to, r.BondAsset, amount); err != nil {
		e.log.Panic("bond escrow cannot pay out",
			logging.ProposalID(r.ProposalID),
			logging.PartyID(to),
			logging.Error(err),
		)
	}
}

// setStage is the only place resolution stages ever change.
func (e *Engine) setStage(r *types.Resolution, next types.ResolutionStage) {
	if !r.Stage.CanTransitionTo(next) {
		e.log.Panic("illegal resolution stage transition",
			logging.ProposalID(r.ProposalID),
			logging.String("from", r.Stage.String()),
			logging.String("to", next.String()),
		)
	}
	r.Stage = next
	metrics.ResolutionCounterInc(next.String())
}

// direction collapses a value pair to the sign of pass minus fail,
// which is all bond routing compares.
func direction(passValue, failValue *num.Uint) int {
	switch {
	case passValue.GT(failValue):
		return 1
	case failValue.GT(passValue):
		return -1
	default:
		return 0
	}
}
