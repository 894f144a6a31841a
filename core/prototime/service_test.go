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

package prototime_test

import (
	"context"
	"testing"
	"time"

	"code.futarchyprotocol.io/futarchy/core/prototime"
	"code.futarchyprotocol.io/futarchy/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtocolTime(t *testing.T) {
	t.Run("Updating time notifies every listener", testUpdateNotifiesListeners)
	t.Run("Time never moves backward", testTimeNeverMovesBackward)
	t.Run("Last batch time trails the current time", testLastBatchTrails)
}

func testUpdateNotifiesListeners(t *testing.T) {
	svc := prototime.New(logging.NewTestLogger(), prototime.NewDefaultConfig())

	var got []time.Time
	svc.NotifyOnTick(func(_ context.Context, tm time.Time) {
		got = append(got, tm)
	})
	svc.NotifyOnTick(func(_ context.Context, tm time.Time) {
		got = append(got, tm)
	})

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.SetTimeNow(context.Background(), now)

	require.Len(t, got, 2)
	assert.Equal(t, now, got[0])
	assert.Equal(t, now, got[1])
	assert.Equal(t, now, svc.GetTimeNow())
}

func testTimeNeverMovesBackward(t *testing.T) {
	svc := prototime.New(logging.NewTestLogger(), prototime.NewDefaultConfig())

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.SetTimeNow(context.Background(), now)

	calls := 0
	svc.NotifyOnTick(func(context.Context, time.Time) { calls++ })

	svc.SetTimeNow(context.Background(), now.Add(-time.Hour))

	assert.Equal(t, 0, calls)
	assert.Equal(t, now, svc.GetTimeNow())
}

func testLastBatchTrails(t *testing.T) {
	svc := prototime.New(logging.NewTestLogger(), prototime.NewDefaultConfig())

	first := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(time.Second)

	svc.SetTimeNow(context.Background(), first)
	assert.Equal(t, first, svc.GetTimeLastBatch())

	svc.SetTimeNow(context.Background(), second)
	assert.Equal(t, first, svc.GetTimeLastBatch())
	assert.Equal(t, second, svc.GetTimeNow())
}
