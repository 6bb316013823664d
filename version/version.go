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

package version

import (
	"runtime/debug"
	"strings"

	"github.com/blang/semver/v4"
)

var (
	commitHash = ""
	version    = "v0.5.0+dev"
)

func init() {
	info, _ := debug.ReadBuildInfo()
	modified := false

	for _, v := range info.Settings {
		if v.Key == "vcs.revision" {
			commitHash = v.Value
		}
		if v.Key == "vcs.modified" {
			modified = true
		}
	}
	if modified {
		commitHash += "-modified"
	}
}

// Get returns the release version of the binary.
func Get() string {
	return version
}

// GetCommitHash returns the vcs revision the binary was built from.
func GetCommitHash() string {
	return commitHash
}

// Semver parses the release version without its leading v.
func Semver() (semver.Version, error) {
	return semver.Parse(strings.TrimPrefix(version, "v"))
}

// IsPreRelease reports whether the running version carries pre-release
// or build metadata, an unparsable version counts as one.
func IsPreRelease() bool {
	v, err := Semver()
	if err != nil {
		return true
	}
	return len(v.Pre) > 0 || len(v.Build) > 0
}
