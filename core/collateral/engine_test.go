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

package collateral_test

import (
	"context"
	"testing"

	"code.futarchyprotocol.io/futarchy/core/collateral"
	"code.futarchyprotocol.io/futarchy/core/collateral/mocks"
	"code.futarchyprotocol.io/futarchy/core/events"
	"code.futarchyprotocol.io/futarchy/libs/num"
	vgrand "code.futarchyprotocol.io/futarchy/libs/rand"
	"code.futarchyprotocol.io/futarchy/logging"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEngine struct {
	*collateral.Engine
	ctrl   *gomock.Controller
	broker *mocks.MockBroker
}

func getTestEngine(t *testing.T) *testEngine {
	t.Helper()
	ctrl := gomock.NewController(t)
	broker := mocks.NewMockBroker(ctrl)

	return &testEngine{
		Engine: collateral.New(logging.NewTestLogger(), collateral.NewDefaultConfig(), broker),
		ctrl:   ctrl,
		broker: broker,
	}
}

func TestDeposits(t *testing.T) {
	t.Run("Depositing creates the account and credits it", testDepositOK)
	t.Run("Deposits accumulate on the same account", testDepositAccumulates)
	t.Run("Depositing a zero amount fails", testDepositZeroAmount)
}

func TestWithdrawals(t *testing.T) {
	t.Run("Withdrawing debits the account", testWithdrawOK)
	t.Run("Withdrawing from an unknown account fails", testWithdrawUnknownAccount)
	t.Run("Withdrawing more than the balance fails without effect", testWithdrawInsufficientFunds)
}

func TestTransfers(t *testing.T) {
	t.Run("Transferring moves funds and creates the destination", testTransferOK)
	t.Run("Transferring from an unknown account fails", testTransferUnknownAccount)
	t.Run("Transferring more than the balance fails without effect", testTransferInsufficientFunds)
	t.Run("Transferring a zero amount fails", testTransferZeroAmount)
}

func testDepositOK(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()

	party := vgrand.RandomStr(5)
	asset := vgrand.RandomStr(5)

	eng.broker.EXPECT().Send(gomock.Any()).Times(1).Do(func(evt events.Event) {
		mv, ok := evt.(*events.LedgerMovement)
		require.True(t, ok)
		assert.Equal(t, party, mv.ToAccount())
		assert.Equal(t, asset, mv.Asset())
		assert.Equal(t, "100", mv.Amount().String())
	})

	require.NoError(t, eng.Deposit(context.Background(), party, asset, num.NewUint(100)))
	assert.Equal(t, "100", eng.Balance(party, asset).String())

	acc, err := eng.GetAccount(party, asset)
	require.NoError(t, err)
	assert.Equal(t, party, acc.Owner)
	assert.Equal(t, asset, acc.Asset)
}

func testDepositAccumulates(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()

	party := vgrand.RandomStr(5)
	asset := vgrand.RandomStr(5)

	eng.broker.EXPECT().Send(gomock.Any()).Times(2)
	require.NoError(t, eng.Deposit(context.Background(), party, asset, num.NewUint(100)))
	require.NoError(t, eng.Deposit(context.Background(), party, asset, num.NewUint(42)))

	assert.Equal(t, "142", eng.Balance(party, asset).String())
}

func testDepositZeroAmount(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()

	party := vgrand.RandomStr(5)
	asset := vgrand.RandomStr(5)

	err := eng.Deposit(context.Background(), party, asset, num.UintZero())
	require.ErrorIs(t, err, collateral.ErrInvalidAmount)

	err = eng.Deposit(context.Background(), party, asset, nil)
	require.ErrorIs(t, err, collateral.ErrInvalidAmount)

	assert.True(t, eng.Balance(party, asset).IsZero())
}

func testWithdrawOK(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()

	party := vgrand.RandomStr(5)
	asset := vgrand.RandomStr(5)

	eng.broker.EXPECT().Send(gomock.Any()).Times(2)
	require.NoError(t, eng.Deposit(context.Background(), party, asset, num.NewUint(100)))
	require.NoError(t, eng.Withdraw(context.Background(), party, asset, num.NewUint(30)))

	assert.Equal(t, "70", eng.Balance(party, asset).String())
}

func testWithdrawUnknownAccount(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()

	err := eng.Withdraw(context.Background(), vgrand.RandomStr(5), vgrand.RandomStr(5), num.NewUint(10))
	require.ErrorIs(t, err, collateral.ErrAccountDoesNotExist)
}

func testWithdrawInsufficientFunds(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()

	party := vgrand.RandomStr(5)
	asset := vgrand.RandomStr(5)

	eng.broker.EXPECT().Send(gomock.Any()).Times(1)
	require.NoError(t, eng.Deposit(context.Background(), party, asset, num.NewUint(100)))

	err := eng.Withdraw(context.Background(), party, asset, num.NewUint(101))
	require.ErrorIs(t, err, collateral.ErrInsufficientFunds)
	assert.Equal(t, "100", eng.Balance(party, asset).String())
}

func testTransferOK(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()

	from := vgrand.RandomStr(5)
	to := vgrand.RandomStr(5)
	asset := vgrand.RandomStr(5)

	eng.broker.EXPECT().Send(gomock.Any()).Times(2)
	require.NoError(t, eng.Deposit(context.Background(), from, asset, num.NewUint(100)))
	require.NoError(t, eng.Transfer(context.Background(), from, to, asset, num.NewUint(60)))

	assert.Equal(t, "40", eng.Balance(from, asset).String())
	assert.Equal(t, "60", eng.Balance(to, asset).String())
}

func testTransferUnknownAccount(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()

	err := eng.Transfer(context.Background(), vgrand.RandomStr(5), vgrand.RandomStr(5), vgrand.RandomStr(5), num.NewUint(10))
	require.ErrorIs(t, err, collateral.ErrAccountDoesNotExist)
}

func testTransferInsufficientFunds(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()

	from := vgrand.RandomStr(5)
	to := vgrand.RandomStr(5)
	asset := vgrand.RandomStr(5)

	eng.broker.EXPECT().Send(gomock.Any()).Times(1)
	require.NoError(t, eng.Deposit(context.Background(), from, asset, num.NewUint(50)))

	err := eng.Transfer(context.Background(), from, to, asset, num.NewUint(51))
	require.ErrorIs(t, err, collateral.ErrInsufficientFunds)
	assert.Equal(t, "50", eng.Balance(from, asset).String())
	assert.True(t, eng.Balance(to, asset).IsZero())
}

func testTransferZeroAmount(t *testing.T) {
	eng := getTestEngine(t)
	defer eng.ctrl.Finish()

	err := eng.Transfer(context.Background(), vgrand.RandomStr(5), vgrand.RandomStr(5), vgrand.RandomStr(5), num.UintZero())
	require.ErrorIs(t, err, collateral.ErrInvalidAmount)
}
