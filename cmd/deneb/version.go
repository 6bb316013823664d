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

package main

import (
	"context"
	"fmt"

	"code.denebmarkets.io/deneb/config"
	vgjson "code.denebmarkets.io/deneb/libs/json"
	"code.denebmarkets.io/deneb/version"

	"github.com/jessevdk/go-flags"
)

type VersionCmd struct {
	config.OutputFlag

	version string
	hash    string
	Help    bool `short:"h" long:"help" description:"Show this help message"`
}

func (cmd *VersionCmd) Execute(_ []string) error {
	if cmd.Help {
		return &flags.Error{
			Type:    flags.ErrHelp,
			Message: "deneb version subcommand help",
		}
	}

	output, err := cmd.GetOutput()
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return vgjson.Print(struct {
			Version string `json:"version"`
			Hash    string `json:"hash"`
		}{
			Version: cmd.version,
			Hash:    cmd.hash,
		})
	}

	tag := ""
	if version.IsPreRelease() {
		tag = " (pre-release)"
	}
	fmt.Printf("Deneb CLI %s (%s)%s\n", cmd.version, cmd.hash, tag)
	return nil
}

var versionCmd VersionCmd

func Version(ctx context.Context, parser *flags.Parser) error {
	versionCmd = VersionCmd{
		version: version.Get(),
		hash:    version.GetCommitHash(),
	}

	_, err := parser.AddCommand("version", "Show version info", "Show version info", &versionCmd)
	return err
}
