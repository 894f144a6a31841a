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

package encoding_test

import (
	"testing"
	"time"

	"code.futarchyprotocol.io/futarchy/config/encoding"
	"code.futarchyprotocol.io/futarchy/libs/num"
	"code.futarchyprotocol.io/futarchy/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationEncoding(t *testing.T) {
	var d encoding.Duration
	require.NoError(t, d.UnmarshalText([]byte("48h")))
	assert.Equal(t, 48*time.Hour, d.Get())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "48h0m0s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("two days")))
}

func TestLogLevelEncoding(t *testing.T) {
	var l encoding.LogLevel
	require.NoError(t, l.UnmarshalText([]byte("Debug")))
	assert.Equal(t, logging.DebugLevel, l.Get())

	text, err := l.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Debug", string(text))

	assert.Error(t, l.UnmarshalText([]byte("Chatty")))
}

func TestUintEncoding(t *testing.T) {
	var u encoding.Uint
	require.NoError(t, u.UnmarshalText([]byte("100")))
	assert.True(t, u.Get().EQUint64(100))

	// Get hands out copies
	u.Get().AddSum(num.NewUint(1))
	assert.True(t, u.Get().EQUint64(100))

	text, err := u.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "100", string(text))

	assert.Error(t, u.UnmarshalText([]byte("-100")))
	assert.Error(t, u.UnmarshalText([]byte("lots")))

	// the zero value reads as zero rather than panicking
	var zero encoding.Uint
	assert.True(t, zero.Get().IsZero())
}
