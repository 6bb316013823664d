// Copyright (C) 2023 Deneb Markets Limited
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
	"testing"

	"code.denebmarkets.io/deneb/core/collateral"
	"code.denebmarkets.io/deneb/libs/num"
	"code.denebmarkets.io/deneb/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testParty = "zohar"
	testAsset = "USDT"
)

func getTestEngine(t *testing.T) *collateral.Engine {
	t.Helper()
	return collateral.New(logging.NewTestLogger(), collateral.NewDefaultConfig())
}

func TestAccounts(t *testing.T) {
	t.Run("create account is idempotent", testCreateAccountIdempotent)
	t.Run("deposit requires an account", testDepositRequiresAccount)
	t.Run("deposit credits the general account", testDepositCredits)
}

func TestReserveRelease(t *testing.T) {
	t.Run("reserve requires an account", testReserveRequiresAccount)
	t.Run("reserve fails on insufficient balance", testReserveInsufficientBalance)
	t.Run("reserve then release round-trips", testReserveReleaseRoundTrip)
	t.Run("release cannot exceed reserved funds", testReleaseExceedsReserved)
}

func TestTransfer(t *testing.T) {
	t.Run("transfer settles between general accounts", testTransferOK)
	t.Run("transfer fails on insufficient balance", testTransferInsufficientBalance)
	t.Run("transfer requires both accounts", testTransferMissingAccount)
}

func testCreateAccountIdempotent(t *testing.T) {
	eng := getTestEngine(t)
	id := eng.CreateAccount(testParty, testAsset)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, eng.CreateAccount(testParty, testAsset))

	acc, err := eng.GetAccountByID(id)
	require.NoError(t, err)
	assert.Equal(t, testParty, acc.Owner)
	assert.Equal(t, testAsset, acc.Asset)
	assert.True(t, acc.Balance.IsZero())
}

func testDepositRequiresAccount(t *testing.T) {
	eng := getTestEngine(t)
	_, err := eng.Deposit(testParty, testAsset, num.NewUint(100))
	assert.ErrorIs(t, err, collateral.ErrAccountNotFound)
}

func testDepositCredits(t *testing.T) {
	eng := getTestEngine(t)
	eng.CreateAccount(testParty, testAsset)

	acc, err := eng.Deposit(testParty, testAsset, num.NewUint(100))
	require.NoError(t, err)
	assert.True(t, acc.Balance.EQ(num.NewUint(100)))

	// deposits accumulate
	acc, err = eng.Deposit(testParty, testAsset, num.NewUint(50))
	require.NoError(t, err)
	assert.True(t, acc.Balance.EQ(num.NewUint(150)))
}

func testReserveRequiresAccount(t *testing.T) {
	eng := getTestEngine(t)
	err := eng.Reserve(testParty, testAsset, num.NewUint(10))
	assert.ErrorIs(t, err, collateral.ErrAccountNotFound)
}

func testReserveInsufficientBalance(t *testing.T) {
	eng := getTestEngine(t)
	eng.CreateAccount(testParty, testAsset)
	_, err := eng.Deposit(testParty, testAsset, num.NewUint(99))
	require.NoError(t, err)

	err = eng.Reserve(testParty, testAsset, num.NewUint(100))
	assert.ErrorIs(t, err, collateral.ErrInsufficientBalance)

	// both balances are untouched after the failure
	general, err := eng.GeneralBalance(testParty, testAsset)
	require.NoError(t, err)
	assert.True(t, general.EQ(num.NewUint(99)))
	margin, err := eng.MarginBalance(testParty, testAsset)
	require.NoError(t, err)
	assert.True(t, margin.IsZero())
}

func testReserveReleaseRoundTrip(t *testing.T) {
	eng := getTestEngine(t)
	eng.CreateAccount(testParty, testAsset)
	_, err := eng.Deposit(testParty, testAsset, num.NewUint(1000))
	require.NoError(t, err)

	require.NoError(t, eng.Reserve(testParty, testAsset, num.NewUint(400)))

	general, _ := eng.GeneralBalance(testParty, testAsset)
	margin, _ := eng.MarginBalance(testParty, testAsset)
	assert.True(t, general.EQ(num.NewUint(600)))
	assert.True(t, margin.EQ(num.NewUint(400)))

	// partial release, then the rest
	require.NoError(t, eng.Release(testParty, testAsset, num.NewUint(150)))
	require.NoError(t, eng.Release(testParty, testAsset, num.NewUint(250)))

	general, _ = eng.GeneralBalance(testParty, testAsset)
	margin, _ = eng.MarginBalance(testParty, testAsset)
	assert.True(t, general.EQ(num.NewUint(1000)))
	assert.True(t, margin.IsZero())
}

func testReleaseExceedsReserved(t *testing.T) {
	eng := getTestEngine(t)
	eng.CreateAccount(testParty, testAsset)
	_, err := eng.Deposit(testParty, testAsset, num.NewUint(1000))
	require.NoError(t, err)
	require.NoError(t, eng.Reserve(testParty, testAsset, num.NewUint(100)))

	err = eng.Release(testParty, testAsset, num.NewUint(101))
	assert.ErrorIs(t, err, collateral.ErrInsufficientBalance)
	margin, _ := eng.MarginBalance(testParty, testAsset)
	assert.True(t, margin.EQ(num.NewUint(100)))
}

func testTransferOK(t *testing.T) {
	eng := getTestEngine(t)
	eng.CreateAccount("buyer", testAsset)
	eng.CreateAccount("seller", testAsset)
	_, err := eng.Deposit("buyer", testAsset, num.NewUint(500))
	require.NoError(t, err)

	require.NoError(t, eng.Transfer("buyer", "seller", testAsset, num.NewUint(200)))

	buyer, _ := eng.GeneralBalance("buyer", testAsset)
	seller, _ := eng.GeneralBalance("seller", testAsset)
	assert.True(t, buyer.EQ(num.NewUint(300)))
	assert.True(t, seller.EQ(num.NewUint(200)))
}

func testTransferInsufficientBalance(t *testing.T) {
	eng := getTestEngine(t)
	eng.CreateAccount("buyer", testAsset)
	eng.CreateAccount("seller", testAsset)
	_, err := eng.Deposit("buyer", testAsset, num.NewUint(10))
	require.NoError(t, err)

	err = eng.Transfer("buyer", "seller", testAsset, num.NewUint(11))
	assert.ErrorIs(t, err, collateral.ErrInsufficientBalance)
}

func testTransferMissingAccount(t *testing.T) {
	eng := getTestEngine(t)
	eng.CreateAccount("buyer", testAsset)
	_, err := eng.Deposit("buyer", testAsset, num.NewUint(10))
	require.NoError(t, err)

	err = eng.Transfer("buyer", "seller", testAsset, num.NewUint(5))
	assert.ErrorIs(t, err, collateral.ErrAccountNotFound)
}
