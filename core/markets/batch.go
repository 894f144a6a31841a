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

	"code.futarchyprotocol.io/futarchy/core/types"
	"code.futarchyprotocol.io/futarchy/libs/num"
	"code.futarchyprotocol.io/futarchy/logging"

	"github.com/pkg/errors"
)

var (
	// ErrEmptyBatch is returned when a batch operation carries no
	// entries.
	ErrEmptyBatch = errors.New("batch is empty")
	// ErrDuplicateProposalInBatch is returned when two deployments in a
	// batch target the same proposal.
	ErrDuplicateProposalInBatch = errors.New("duplicate proposal in batch")
	// ErrDuplicateMarketInBatch is returned when two resolutions in a
	// batch target the same market.
	ErrDuplicateMarketInBatch = errors.New("duplicate market in batch")
	// ErrInsufficientFundsForBatch is returned when the party cannot
	// fund the combined liquidity of a deployment batch.
	ErrInsufficientFundsForBatch = errors.New("insufficient funds to cover the batch liquidity")
)

// BatchDeployMarkets deploys market pairs for several proposals at
// once. The batch applies atomically: every deployment is validated,
// and the party's balance checked against the combined liquidity per
// asset, before any market comes up. Returns the new market ids in
// batch order.
func (e *Engine) BatchDeployMarkets(ctx context.Context, party string, deployments []types.MarketDeployment) ([]string, error) {
	if !e.hasCapability(party, types.CapabilityMarketCreator) {
		return nil, ErrCapabilityRequired
	}
	if len(deployments) == 0 {
		return nil, ErrEmptyBatch
	}

	required := map[string]*num.Uint{}
	seen := map[string]struct{}{}
	for i, deployment := range deployments {
		if err := e.validateDeployment(deployment); err != nil {
			return nil, errors.Wrapf(err, "deployment %d", i)
		}
		if _, ok := e.byProposal[deployment.ProposalID]; ok {
			return nil, errors.Wrapf(ErrMarketAlreadyExists, "deployment %d", i)
		}
		if _, ok := seen[deployment.ProposalID]; ok {
			return nil, errors.Wrapf(ErrDuplicateProposalInBatch, "deployment %d", i)
		}
		seen[deployment.ProposalID] = struct{}{}

		total, ok := required[deployment.CollateralAsset]
		if !ok {
			total = num.UintZero()
			required[deployment.CollateralAsset] = total
		}
		total.AddSum(deployment.Liquidity)
	}
	for asset, total := range required {
		if e.collateral.Balance(party, asset).LT(total) {
			return nil, errors.Wrapf(ErrInsufficientFundsForBatch, "asset %s", asset)
		}
	}

	marketIDs := make([]string, 0, len(deployments))
	for _, deployment := range deployments {
		marketID, err := e.deployMarket(ctx, party, deployment)
		if err != nil {
			// every deployment was validated and funded up front
			e.log.Panic("batch deployment failed after validation",
				logging.ProposalID(deployment.ProposalID),
				logging.Error(err),
			)
		}
		marketIDs = append(marketIDs, marketID)
	}
	return marketIDs, nil
}

// BatchResolveMarkets resolves several markets at once. The batch
// applies atomically: every resolution is validated before any market
// resolves.
func (e *Engine) BatchResolveMarkets(ctx context.Context, party string, resolutions []types.MarketResolution) error {
	if !e.hasCapability(party, types.CapabilityMarketResolver) {
		return ErrCapabilityRequired
	}
	if len(resolutions) == 0 {
		return ErrEmptyBatch
	}

	seen := map[string]struct{}{}
	for i, resolution := range resolutions {
		market, ok := e.markets[resolution.MarketID]
		if !ok {
			return errors.Wrapf(ErrMarketDoesNotExist, "resolution %d", i)
		}
		if _, ok := seen[resolution.MarketID]; ok {
			return errors.Wrapf(ErrDuplicateMarketInBatch, "resolution %d", i)
		}
		seen[resolution.MarketID] = struct{}{}
		if err := validateResolution(market, resolution.PassValue, resolution.FailValue); err != nil {
			return errors.Wrapf(err, "resolution %d", i)
		}
	}

	for _, resolution := range resolutions {
		if err := e.resolveMarket(ctx, e.markets[resolution.MarketID], resolution.PassValue, resolution.FailValue); err != nil {
			// every resolution was validated up front
			e.log.Panic("batch resolution failed after validation",
				logging.MarketID(resolution.MarketID),
				logging.Error(err),
			)
		}
	}
	return nil
}
