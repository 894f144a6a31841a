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

package types

import (
	"fmt"
	"time"

	"code.futarchyprotocol.io/futarchy/libs/num"
)

// ResolutionStage is the stage of an oracle resolution process. Stages
// only ever move forward.
type ResolutionStage int32

const (
	// ResolutionStageUnspecified Default value, always invalid.
	ResolutionStageUnspecified ResolutionStage = iota
	// ResolutionStageUnreported resolution is open, no report yet.
	ResolutionStageUnreported
	// ResolutionStageDesignatedReporting a bonded report was filed by the
	// designated reporter, the challenge window is running.
	ResolutionStageDesignatedReporting
	// ResolutionStageOpenChallenge a bonded counter-report was filed.
	ResolutionStageOpenChallenge
	// ResolutionStageDispute the challenge was escalated to the dispute
	// oracle.
	ResolutionStageDispute
	// ResolutionStageFinalized outcome values are adopted, bonds paid out.
	ResolutionStageFinalized
)

func (s ResolutionStage) String() string {
	switch s {
	case ResolutionStageUnreported:
		return "unreported"
	case ResolutionStageDesignatedReporting:
		return "designated-reporting"
	case ResolutionStageOpenChallenge:
		return "open-challenge"
	case ResolutionStageDispute:
		return "dispute"
	case ResolutionStageFinalized:
		return "finalized"
	default:
		return "unspecified"
	}
}

// CanTransitionTo is the single authority on legal stage transitions,
// every stage change has to be checked against it. Stages are strictly
// monotonic, there is no way back once one is left.
func (s ResolutionStage) CanTransitionTo(next ResolutionStage) bool {
	switch s {
	case ResolutionStageUnreported:
		return next == ResolutionStageDesignatedReporting
	case ResolutionStageDesignatedReporting:
		return next == ResolutionStageOpenChallenge || next == ResolutionStageFinalized
	case ResolutionStageOpenChallenge:
		return next == ResolutionStageDispute || next == ResolutionStageFinalized
	case ResolutionStageDispute:
		return next == ResolutionStageFinalized
	default:
		// finalized is terminal
		return false
	}
}

// Report is the designated reporter's bonded claim of the observed
// welfare metric values.
type Report struct {
	Reporter    string
	PassValue   *num.Uint
	FailValue   *num.Uint
	EvidenceRef string
	Bond        *num.Uint
	SubmittedAt time.Time
}

func (r Report) DeepClone() *Report {
	cpy := r
	if r.PassValue != nil {
		cpy.PassValue = r.PassValue.Clone()
	}
	if r.FailValue != nil {
		cpy.FailValue = r.FailValue.Clone()
	}
	if r.Bond != nil {
		cpy.Bond = r.Bond.Clone()
	}
	return &cpy
}

func (r Report) String() string {
	return fmt.Sprintf(
		"reporter(%s) passValue(%s) failValue(%s) evidenceRef(%s) bond(%s)",
		r.Reporter,
		uintString(r.PassValue),
		uintString(r.FailValue),
		r.EvidenceRef,
		uintString(r.Bond),
	)
}

// Challenge is a bonded counter-report disputing the designated
// reporter's values.
type Challenge struct {
	Challenger  string
	PassValue   *num.Uint
	FailValue   *num.Uint
	EvidenceRef string
	Bond        *num.Uint
	SubmittedAt time.Time
}

func (c Challenge) DeepClone() *Challenge {
	cpy := c
	if c.PassValue != nil {
		cpy.PassValue = c.PassValue.Clone()
	}
	if c.FailValue != nil {
		cpy.FailValue = c.FailValue.Clone()
	}
	if c.Bond != nil {
		cpy.Bond = c.Bond.Clone()
	}
	return &cpy
}

func (c Challenge) String() string {
	return fmt.Sprintf(
		"challenger(%s) passValue(%s) failValue(%s) evidenceRef(%s) bond(%s)",
		c.Challenger,
		uintString(c.PassValue),
		uintString(c.FailValue),
		c.EvidenceRef,
		uintString(c.Bond),
	)
}

// Resolution tracks the oracle resolution process for one proposal, from
// the designated report through optional challenge and dispute to the
// adopted outcome values.
type Resolution struct {
	ProposalID string
	// Reporter is the designated reporter, the only party allowed to file
	// the initial report.
	Reporter string
	// BondAsset is the asset report and challenge bonds are posted in.
	BondAsset string
	Stage     ResolutionStage

	Report     *Report
	Challenge  *Challenge
	DisputeRef string

	// PassValue and FailValue are the adopted values, nil until the
	// resolution is finalized.
	PassValue   *num.Uint
	FailValue   *num.Uint
	FinalizedAt time.Time
}

func (r Resolution) DeepClone() *Resolution {
	cpy := r
	if r.Report != nil {
		cpy.Report = r.Report.DeepClone()
	}
	if r.Challenge != nil {
		cpy.Challenge = r.Challenge.DeepClone()
	}
	if r.PassValue != nil {
		cpy.PassValue = r.PassValue.Clone()
	}
	if r.FailValue != nil {
		cpy.FailValue = r.FailValue.Clone()
	}
	return &cpy
}

func (r Resolution) String() string {
	return fmt.Sprintf(
		"proposalID(%s) reporter(%s) stage(%s) disputeRef(%s) passValue(%s) failValue(%s)",
		r.ProposalID,
		r.Reporter,
		r.Stage.String(),
		r.DisputeRef,
		uintString(r.PassValue),
		uintString(r.FailValue),
	)
}
