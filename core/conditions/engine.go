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

// Package conditions keeps the ledger of conditional outcome positions.
// Collateral is split into complementary PASS/FAIL position pairs,
// merged back, and redeemed against the payout vector the condition's
// oracle reports. Positions are minted and burned in pairs only, so
// both sides of an unresolved condition always have the same supply and
// the escrowed collateral always covers it.
package conditions

import (
	"context"
	"errors"

	"code.futarchyprotocol.io/futarchy/core/events"
	"code.futarchyprotocol.io/futarchy/core/types"
	"code.futarchyprotocol.io/futarchy/libs/num"
	"code.futarchyprotocol.io/futarchy/logging"
)

var (
	// ErrInvalidOracle is returned when preparing a condition without an
	// oracle identity.
	ErrInvalidOracle = errors.New("invalid oracle")
	// ErrInvalidQuestionID is returned when preparing a condition without
	// a question identifier.
	ErrInvalidQuestionID = errors.New("invalid question identifier")
	// ErrInvalidCollateralAsset is returned when preparing a condition
	// without a collateral asset.
	ErrInvalidCollateralAsset = errors.New("invalid collateral asset")
	// ErrInvalidOutcomeSlotCount is returned when preparing a condition
	// with anything but two outcome slots.
	ErrInvalidOutcomeSlotCount = errors.New("conditions must have exactly two outcome slots")
	// ErrConditionAlreadyPrepared is returned when preparing the same
	// condition twice.
	ErrConditionAlreadyPrepared = errors.New("condition already prepared")
	// ErrConditionNotFound is returned when operating on an unknown
	// condition.
	ErrConditionNotFound = errors.New("condition not found")
	// ErrConditionAlreadyResolved is returned when reporting payouts on a
	// resolved condition.
	ErrConditionAlreadyResolved = errors.New("condition already resolved")
	// ErrConditionNotResolved is returned when redeeming positions before
	// payouts were reported.
	ErrConditionNotResolved = errors.New("condition not resolved")
	// ErrNotConditionOracle is returned when a party other than the
	// condition's oracle reports payouts.
	ErrNotConditionOracle = errors.New("party is not the condition oracle")
	// ErrInvalidPayoutVector is returned when reporting a payout vector
	// with no non-zero entry.
	ErrInvalidPayoutVector = errors.New("payout vector needs a non-zero entry")
	// ErrInvalidAmount is returned when splitting, merging or
	// transferring a nil or zero amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrCollateralAssetMismatch is returned when an operation names a
	// different asset than the condition was prepared with.
	ErrCollateralAssetMismatch = errors.New("collateral asset does not match the condition")
	// ErrInsufficientPositionBalance is returned when a party holds fewer
	// outcome shares than the operation needs.
	ErrInsufficientPositionBalance = errors.New("insufficient position balance")
	// ErrPositionDoesNotExist is returned when transferring an unknown
	// position.
	ErrPositionDoesNotExist = errors.New("position does not exist")
	// ErrInvalidOutcomeIndex is returned when redeeming an outcome slot
	// the condition does not have.
	ErrInvalidOutcomeIndex = errors.New("invalid outcome index")
	// ErrDuplicateOutcomeIndex is returned when the same outcome slot is
	// named twice in one redemption.
	ErrDuplicateOutcomeIndex = errors.New("duplicate outcome index")
)

const escrowOwnerPrefix = "condition-escrow-"

// EscrowAccountOwner returns the collateral account owner the backing
// collateral of a condition is held under.
func EscrowAccountOwner(conditionID string) string {
	return escrowOwnerPrefix + conditionID
}

// Collateral is the engine the backing collateral moves through.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks code.futarchyprotocol.io/futarchy/core/conditions Collateral,Broker
type Collateral interface {
	Transfer(ctx context.Context, from, to, asset string, amount *num.Uint) error
	Balance(owner, asset string) *num.Uint
}

// Broker send events.
type Broker interface {
	Send(event events.Event)
	SendBatch(events []events.Event)
}

// position is one outcome slot of a condition with its per-party
// holdings.
type position struct {
	conditionID  string
	outcomeIndex int
	balances     map[string]*num.Uint
	supply       *num.Uint
}

// Engine is the conditions engine.
type Engine struct {
	Config
	log        *logging.Logger
	collateral Collateral
	broker     Broker

	conditions map[string]*types.Condition
	positions  map[string]*position
}

// New instantiates a new conditions engine.
func New(log *logging.Logger, conf Config, collateral Collateral, broker Broker) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())

	return &Engine{
		Config:     conf,
		log:        log,
		collateral: collateral,
		broker:     broker,
		conditions: map[string]*types.Condition{},
		positions:  map[string]*position{},
	}
}

// ReloadConf updates the internal configuration of the conditions engine.
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

// PrepareCondition registers a binary condition for the given oracle
// and question, pinned to one collateral asset, and returns its
// deterministic identifier. Preparing the same condition twice fails.
func (e *Engine) PrepareCondition(ctx context.Context, oracle, questionID, asset string, outcomeSlotCount uint32) (string, error) {
	if len(oracle) == 0 {
		return "", ErrInvalidOracle
	}
	if len(questionID) == 0 {
		return "", ErrInvalidQuestionID
	}
	if len(asset) == 0 {
		return "", ErrInvalidCollateralAsset
	}
	if outcomeSlotCount != types.BinaryOutcomeSlots {
		return "", ErrInvalidOutcomeSlotCount
	}

	conditionID := types.NewConditionID(oracle, questionID, outcomeSlotCount)
	if _, ok := e.conditions[conditionID]; ok {
		return "", ErrConditionAlreadyPrepared
	}

	e.conditions[conditionID] = &types.Condition{
		ID:               conditionID,
		Oracle:           oracle,
		QuestionID:       questionID,
		OutcomeSlotCount: outcomeSlotCount,
		CollateralAsset:  asset,
		PayoutNumerators: make([]uint64, outcomeSlotCount),
	}
	for i := 0; i < int(outcomeSlotCount); i++ {
		positionID := types.NewPositionID(conditionID, i)
		e.positions[positionID] = &position{
			conditionID:  conditionID,
			outcomeIndex: i,
			balances:     map[string]*num.Uint{},
			supply:       num.UintZero(),
		}
	}

	e.log.Info("condition prepared",
		logging.ConditionID(conditionID),
		logging.String("oracle", oracle),
		logging.String("question-id", questionID),
		logging.AssetID(asset),
	)
	e.broker.Send(events.NewConditionPrepared(ctx, conditionID, oracle, questionID, asset))
	return conditionID, nil
}

// SplitPosition locks a party's collateral in the condition escrow and
// mints the same amount of every outcome position for it. Splitting is
// allowed before and after resolution.
func (e *Engine) SplitPosition(ctx context.Context, party, asset, conditionID string, amount *num.Uint) error {
	cond, err := e.tradableCondition(asset, conditionID, amount)
	if err != nil {
		return err
	}

	if err := e.collateral.Transfer(ctx, party, EscrowAccountOwner(conditionID), asset, amount); err != nil {
		return err
	}
	for i := 0; i < int(cond.OutcomeSlotCount); i++ {
		e.credit(types.NewPositionID(conditionID, i), party, amount)
	}

	e.broker.Send(events.NewPositionsSplit(ctx, party, conditionID, asset, amount))
	return nil
}

// MergePositions is the exact inverse of SplitPosition, burning one
// full outcome set and releasing the escrowed collateral back to the
// party.
func (e *Engine) MergePositions(ctx context.Context, party, asset, conditionID string, amount *num.Uint) error {
	cond, err := e.tradableCondition(asset, conditionID, amount)
	if err != nil {
		return err
	}
	for i := 0; i < int(cond.OutcomeSlotCount); i++ {
		if e.balanceOf(types.NewPositionID(conditionID, i), party).LT(amount) {
			return ErrInsufficientPositionBalance
		}
	}

	if err := e.collateral.Transfer(ctx, EscrowAccountOwner(conditionID), party, asset, amount); err != nil {
		return err
	}
	for i := 0; i < int(cond.OutcomeSlotCount); i++ {
		e.debit(types.NewPositionID(conditionID, i), party, amount)
	}

	e.broker.Send(events.NewPositionsMerged(ctx, party, conditionID, asset, amount))
	return nil
}

// ReportPayouts records the payout vector for a condition, exactly
// once, and only from the oracle the condition was prepared with.
func (e *Engine) ReportPayouts(ctx context.Context, oracle, conditionID string, numerators [2]uint64) error {
	cond, ok := e.conditions[conditionID]
	if !ok {
		return ErrConditionNotFound
	}
	if cond.Oracle != oracle {
		return ErrNotConditionOracle
	}
	if cond.Resolved {
		return ErrConditionAlreadyResolved
	}
	if numerators[0] == 0 && numerators[1] == 0 {
		return ErrInvalidPayoutVector
	}

	cond.PayoutNumerators = []uint64{numerators[0], numerators[1]}
	cond.PayoutDenominator = numerators[0] + numerators[1]
	cond.Resolved = true

	e.log.Info("payouts reported",
		logging.ConditionID(conditionID),
		logging.String("oracle", oracle),
		logging.Uint64("pass-numerator", numerators[types.OutcomeIndexPass]),
		logging.Uint64("fail-numerator", numerators[types.OutcomeIndexFail]),
	)
	e.broker.Send(events.NewPayoutsReported(ctx, conditionID, oracle, numerators))
	return nil
}

// RedeemPositions burns a party's holdings on the given outcome slots
// of a resolved condition and pays out their share of the escrow,
// rounded down.
func (e *Engine) RedeemPositions(ctx context.Context, party, asset, conditionID string, indices []int) error {
	cond, ok := e.conditions[conditionID]
	if !ok {
		return ErrConditionNotFound
	}
	if cond.CollateralAsset != asset {
		return ErrCollateralAssetMismatch
	}
	if !cond.Resolved {
		return ErrConditionNotResolved
	}
	if len(indices) == 0 {
		return ErrInvalidOutcomeIndex
	}
	seen := make([]bool, cond.OutcomeSlotCount)
	for _, idx := range indices {
		if idx < 0 || idx >= int(cond.OutcomeSlotCount) {
			return ErrInvalidOutcomeIndex
		}
		if seen[idx] {
			return ErrDuplicateOutcomeIndex
		}
		seen[idx] = true
	}

	den := num.NewUint(cond.PayoutDenominator)
	payout := num.UintZero()
	for _, idx := range indices {
		bal := e.balanceOf(types.NewPositionID(conditionID, idx), party)
		if bal.IsZero() {
			continue
		}
		share := num.UintZero().Mul(bal, num.NewUint(cond.PayoutNumerators[idx]))
		payout.AddSum(share.Div(share, den))
	}

	if !payout.IsZero() {
		if err := e.collateral.Transfer(ctx, EscrowAccountOwner(conditionID), party, asset, payout); err != nil {
			return err
		}
	}
	for _, idx := range indices {
		positionID := types.NewPositionID(conditionID, idx)
		e.debit(positionID, party, e.balanceOf(positionID, party).Clone())
	}

	e.broker.Send(events.NewPositionsRedeemed(ctx, party, conditionID, asset, payout))
	return nil
}

// TransferPosition moves outcome shares between two parties without
// touching collateral.
func (e *Engine) TransferPosition(ctx context.Context, from, to, positionID string, amount *num.Uint) error {
	if amount == nil || amount.IsZero() {
		return ErrInvalidAmount
	}
	pos, ok := e.positions[positionID]
	if !ok {
		return ErrPositionDoesNotExist
	}
	if e.balanceOf(positionID, from).LT(amount) {
		return ErrInsufficientPositionBalance
	}

	fromBal := pos.balances[from]
	fromBal.Sub(fromBal, amount)
	toBal, ok := pos.balances[to]
	if !ok {
		toBal = num.UintZero()
		pos.balances[to] = toBal
	}
	toBal.AddSum(amount)

	e.broker.Send(events.NewPositionTransferred(ctx, from, to, positionID, amount))
	return nil
}

// Balance returns the outcome shares a party holds on a position.
func (e *Engine) Balance(party, positionID string) *num.Uint {
	return e.balanceOf(positionID, party).Clone()
}

// TotalSupply returns the outstanding shares of a position.
func (e *Engine) TotalSupply(positionID string) *num.Uint {
	pos, ok := e.positions[positionID]
	if !ok {
		return num.UintZero()
	}
	return pos.supply.Clone()
}

// GetCondition returns a copy of a condition.
func (e *Engine) GetCondition(conditionID string) (*types.Condition, error) {
	cond, ok := e.conditions[conditionID]
	if !ok {
		return nil, ErrConditionNotFound
	}
	return cond.DeepClone(), nil
}

func (e *Engine) tradableCondition(asset, conditionID string, amount *num.Uint) (*types.Condition, error) {
	if amount == nil || amount.IsZero() {
		return nil, ErrInvalidAmount
	}
	cond, ok := e.conditions[conditionID]
	if !ok {
		return nil, ErrConditionNotFound
	}
	if cond.CollateralAsset != asset {
		return nil, ErrCollateralAssetMismatch
	}
	return cond, nil
}

func (e *Engine) balanceOf(positionID, party string) *num.Uint {
	pos, ok := e.positions[positionID]
	if !ok {
		return num.UintZero()
	}
	bal, ok := pos.balances[party]
	if !ok {
		return num.UintZero()
	}
	return bal
}

func (e *Engine) credit(positionID, party string, amount *num.Uint) {
	pos := e.positions[positionID]
	bal, ok := pos.balances[party]
	if !ok {
		bal = num.UintZero()
		pos.balances[party] = bal
	}
	bal.AddSum(amount)
	pos.supply.AddSum(amount)
}

func (e *Engine) debit(positionID, party string, amount *num.Uint) {
	if amount.IsZero() {
		return
	}
	pos := e.positions[positionID]
	bal := pos.balances[party]
	bal.Sub(bal, amount)
	pos.supply.Sub(pos.supply, amount)
}
