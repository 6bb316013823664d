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

package idgeneration_test

import (
	"testing"

	"code.denebmarkets.io/deneb/core/idgeneration"
	"code.denebmarkets.io/deneb/libs/crypto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorCreationFailsWithInvalidRootId(t *testing.T) {
	assert.Panics(t, func() { idgeneration.New("not an hex encoded string") })
}

func TestFirstIdIsTheRoot(t *testing.T) {
	root := crypto.RandomHash()
	gen := idgeneration.New(root)
	assert.Equal(t, root, gen.NextID())
}

func TestChainIsDeterministic(t *testing.T) {
	root := crypto.RandomHash()
	gen1 := idgeneration.New(root)
	gen2 := idgeneration.New(root)

	for i := 0; i < 100; i++ {
		require.Equal(t, gen1.NextID(), gen2.NextID())
	}
}

func TestIdsDoNotRepeat(t *testing.T) {
	gen := idgeneration.New(crypto.RandomHash())
	seen := map[string]struct{}{}
	for i := 0; i < 1000; i++ {
		id := gen.NextID()
		_, ok := seen[id]
		require.False(t, ok)
		seen[id] = struct{}{}
	}
}
