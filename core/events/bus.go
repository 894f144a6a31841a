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

	vgcontext "code.futarchyprotocol.io/futarchy/libs/context"
)

type Type int

const (
	// All event type -> used by subscribers to just receive all events,
	// has no actual corresponding event payload.
	All Type = iota
	// other event types that DO have corresponding event types.
	LedgerMovementEvent
	ConditionPreparedEvent
	PositionsSplitEvent
	PositionsMergedEvent
	PositionsRedeemedEvent
	PositionTransferredEvent
	PayoutsReportedEvent
	MarketCreatedEvent
	MarketStatusEvent
	TradeEvent
	ResolutionOpenedEvent
	ReportSubmittedEvent
	ReportChallengedEvent
	DisputeEscalatedEvent
	ResolutionFinalizedEvent
	ProposalEvent
	ProposalExecutedEvent
)

var eventStrings = map[Type]string{
	All:                      "ALL",
	LedgerMovementEvent:      "LedgerMovementEvent",
	ConditionPreparedEvent:   "ConditionPreparedEvent",
	PositionsSplitEvent:      "PositionsSplitEvent",
	PositionsMergedEvent:     "PositionsMergedEvent",
	PositionsRedeemedEvent:   "PositionsRedeemedEvent",
	PositionTransferredEvent: "PositionTransferredEvent",
	PayoutsReportedEvent:     "PayoutsReportedEvent",
	MarketCreatedEvent:       "MarketCreatedEvent",
	MarketStatusEvent:        "MarketStatusEvent",
	TradeEvent:               "TradeEvent",
	ResolutionOpenedEvent:    "ResolutionOpenedEvent",
	ReportSubmittedEvent:     "ReportSubmittedEvent",
	ReportChallengedEvent:    "ReportChallengedEvent",
	DisputeEscalatedEvent:    "DisputeEscalatedEvent",
	ResolutionFinalizedEvent: "ResolutionFinalizedEvent",
	ProposalEvent:            "ProposalEvent",
	ProposalExecutedEvent:    "ProposalExecutedEvent",
}

// Base common denominator all event-bus events share.
type Base struct {
	ctx     context.Context
	traceID string
	seq     uint64
	et      Type
}

// Event - the base event interface type, add sequence ID setter here,
// because the type assertions in broker seem to be a bottleneck. Change
// its behaviour so as to only set the sequence ID once.
type Event interface {
	Type() Type
	Context() context.Context
	TraceID() string
	Sequence() uint64
	SetSequenceID(s uint64)
	Replace(context.Context)
}

func newBase(ctx context.Context, t Type) *Base {
	ctx, tID := vgcontext.TraceIDFromContext(ctx)
	return &Base{
		ctx:     ctx,
		traceID: tID,
		et:      t,
	}
}

// Replace updates the event context, used by the broker when a
// subscriber wants to hold on to events past the calling scope.
func (b *Base) Replace(ctx context.Context) {
	b.ctx = ctx
}

// TraceID returns the... traceID obviously.
func (b Base) TraceID() string {
	return b.traceID
}

// SetSequenceID sets the sequence number on the event, only once.
func (b *Base) SetSequenceID(s uint64) {
	if b.seq != 0 {
		return
	}
	b.seq = s
}

// Sequence returns event sequence number.
func (b Base) Sequence() uint64 {
	return b.seq
}

// Context returns context.
func (b Base) Context() context.Context {
	return b.ctx
}

// Type returns the event type.
func (b Base) Type() Type {
	return b.et
}

// String get string representation of event type.
func (t Type) String() string {
	s, ok := eventStrings[t]
	if !ok {
		return "UNKNOWN EVENT"
	}
	return s
}
