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

package broker_test

import (
	"context"
	"testing"

	"code.futarchyprotocol.io/futarchy/core/broker"
	"code.futarchyprotocol.io/futarchy/core/broker/mocks"
	"code.futarchyprotocol.io/futarchy/core/events"
	"code.futarchyprotocol.io/futarchy/logging"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a local accumulating subscriber, enough to assert filter
// and ordering behaviour without mock ceremony.
type recorder struct {
	id    int
	types []events.Type
	got   []events.Event
}

func (r *recorder) Push(evts ...events.Event) { r.got = append(r.got, evts...) }
func (r *recorder) Types() []events.Type      { return r.types }
func (r *recorder) SetID(id int)              { r.id = id }
func (r *recorder) ID() int                   { return r.id }

func newBroker() *broker.Broker {
	return broker.New(logging.NewTestLogger(), broker.NewDefaultConfig())
}

func TestSubscribe(t *testing.T) {
	t.Run("Subscribers only receive the types they asked for", testTypeFiltering)
	t.Run("Subscription keys are recycled", testKeyRecycling)
	t.Run("A batch subscription assigns ids", testSubscribeBatch)
	t.Run("Unsubscribed subscribers stop receiving", testUnsubscribe)
}

func TestSend(t *testing.T) {
	t.Run("Events are sequenced in send order", testSequencing)
	t.Run("Fan out follows subscription order", testFanOutOrder)
	t.Run("A batch arrives in a single push", testBatchPush)
	t.Run("An empty batch is a no-op", testEmptyBatch)
}

func testTypeFiltering(t *testing.T) {
	b := newBroker()
	ctx := context.Background()

	trades := &recorder{types: []events.Type{events.TradeEvent}}
	everything := &recorder{}
	catchAll := &recorder{types: []events.Type{events.TradeEvent, events.All}}
	b.SubscribeBatch(trades, everything, catchAll)

	b.Send(events.NewResolutionOpened(ctx, "prop-1", "reporter-1"))
	b.Send(events.NewDisputeEscalated(ctx, "prop-1", "dispute-1"))

	assert.Empty(t, trades.got)
	require.Len(t, everything.got, 2)
	assert.Equal(t, events.ResolutionOpenedEvent, everything.got[0].Type())
	assert.Equal(t, events.DisputeEscalatedEvent, everything.got[1].Type())
	// listing events.All anywhere subscribes to everything
	assert.Len(t, catchAll.got, 2)
}

func testKeyRecycling(t *testing.T) {
	b := newBroker()

	first := b.Subscribe(&recorder{})
	second := b.Subscribe(&recorder{})
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)

	b.Unsubscribe(first)
	assert.Equal(t, first, b.Subscribe(&recorder{}))
	assert.Equal(t, 3, b.Subscribe(&recorder{}))
}

func testSubscribeBatch(t *testing.T) {
	b := newBroker()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	first := mocks.NewMockSubscriber(ctrl)
	second := mocks.NewMockSubscriber(ctrl)
	first.EXPECT().Types().Return(nil)
	second.EXPECT().Types().Return(nil)
	first.EXPECT().SetID(1)
	second.EXPECT().SetID(2)

	b.SubscribeBatch(first, second)
}

func testUnsubscribe(t *testing.T) {
	b := newBroker()
	ctx := context.Background()

	sub := &recorder{}
	key := b.Subscribe(sub)
	b.Send(events.NewResolutionOpened(ctx, "prop-1", "reporter-1"))
	require.Len(t, sub.got, 1)

	b.Unsubscribe(key)
	// unsubscribing twice is harmless
	b.Unsubscribe(key)
	b.Send(events.NewResolutionOpened(ctx, "prop-2", "reporter-2"))
	assert.Len(t, sub.got, 1)
}

func testSequencing(t *testing.T) {
	b := newBroker()
	ctx := context.Background()

	sub := &recorder{}
	b.Subscribe(sub)

	b.Send(events.NewResolutionOpened(ctx, "prop-1", "reporter-1"))
	b.SendBatch([]events.Event{
		events.NewDisputeEscalated(ctx, "prop-1", "dispute-1"),
		events.NewResolutionOpened(ctx, "prop-2", "reporter-2"),
	})

	require.Len(t, sub.got, 3)
	assert.Equal(t, uint64(1), sub.got[0].Sequence())
	assert.Equal(t, uint64(2), sub.got[1].Sequence())
	assert.Equal(t, uint64(3), sub.got[2].Sequence())
}

func testFanOutOrder(t *testing.T) {
	b := newBroker()
	ctx := context.Background()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var order []int
	subs := make([]*mocks.MockSubscriber, 3)
	for i := range subs {
		i := i
		sub := mocks.NewMockSubscriber(ctrl)
		sub.EXPECT().Types().Return(nil)
		sub.EXPECT().Push(gomock.Any()).Do(func(...events.Event) {
			order = append(order, i)
		})
		subs[i] = sub
	}
	for _, sub := range subs {
		b.Subscribe(sub)
	}

	b.Send(events.NewResolutionOpened(ctx, "prop-1", "reporter-1"))
	assert.Equal(t, []int{0, 1, 2}, order)
}

func testBatchPush(t *testing.T) {
	b := newBroker()
	ctx := context.Background()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sub := mocks.NewMockSubscriber(ctrl)
	sub.EXPECT().Types().Return([]events.Type{events.DisputeEscalatedEvent})
	// the subscriber gets one push holding only the events it wants
	sub.EXPECT().Push(gomock.Any(), gomock.Any()).Do(func(evts ...events.Event) {
		require.Len(t, evts, 2)
		assert.Equal(t, events.DisputeEscalatedEvent, evts[0].Type())
		assert.Equal(t, events.DisputeEscalatedEvent, evts[1].Type())
	})
	b.Subscribe(sub)

	b.SendBatch([]events.Event{
		events.NewDisputeEscalated(ctx, "prop-1", "dispute-1"),
		events.NewResolutionOpened(ctx, "prop-2", "reporter-2"),
		events.NewDisputeEscalated(ctx, "prop-3", "dispute-3"),
	})
}

func testEmptyBatch(t *testing.T) {
	b := newBroker()
	ctx := context.Background()

	sub := &recorder{}
	b.Subscribe(sub)

	// neither delivers nor burns sequence numbers
	b.SendBatch(nil)
	b.SendBatch([]events.Event{})
	b.Send(events.NewResolutionOpened(ctx, "prop-1", "reporter-1"))

	require.Len(t, sub.got, 1)
	assert.Equal(t, uint64(1), sub.got[0].Sequence())
}
