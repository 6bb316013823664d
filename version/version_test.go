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

package version_test

import (
	"strings"
	"testing"

	"code.denebmarkets.io/deneb/version"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionParses(t *testing.T) {
	assert.True(t, strings.HasPrefix(version.Get(), "v"))

	v, err := version.Semver()
	require.NoError(t, err)
	assert.NotZero(t, v.Major+v.Minor+v.Patch)
}

func TestDevBuildsArePreRelease(t *testing.T) {
	// the in-tree version always carries the dev build tag
	assert.True(t, version.IsPreRelease())
}
