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

package crypto_test

import (
	"testing"

	vgcrypto "code.denebmarkets.io/deneb/libs/crypto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashIsDeterministic(t *testing.T) {
	h1 := vgcrypto.Hash([]byte("BTC-USDT"))
	h2 := vgcrypto.Hash([]byte("BTC-USDT"))
	require.Equal(t, h1, h2)
	assert.Len(t, h1, 32)

	h3 := vgcrypto.Hash([]byte("ETH-USDT"))
	assert.NotEqual(t, h1, h3)
}

func TestHashStr(t *testing.T) {
	h := vgcrypto.HashStr("BTC-USDT")
	assert.Len(t, h, 64)
	assert.Equal(t, h, vgcrypto.HashStr("BTC-USDT"))
	assert.NotEqual(t, h, vgcrypto.HashStr("btc-usdt"))
}
