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
	vgfs "code.denebmarkets.io/deneb/libs/fs"
	"code.denebmarkets.io/deneb/logging"

	"github.com/jessevdk/go-flags"
)

type InitCmd struct {
	config.RootPathFlag

	Force bool `short:"f" long:"force" description:"Overwrite an existing configuration at the specified path"`
}

var initCmd InitCmd

func (cmd *InitCmd) Execute(_ []string) error {
	log := logging.NewLoggerFromConfig(logging.NewDefaultConfig())
	defer log.AtExit()

	cfgPath := config.FilePath(cmd.RootPath)
	exists, err := vgfs.FileExists(cfgPath)
	if err != nil {
		return err
	}
	if exists && !cmd.Force {
		return fmt.Errorf("configuration already exists at `%v` please remove it first or re-run using -f", cfgPath)
	}
	if exists {
		log.Info("overwriting existing configuration",
			logging.String("path", cfgPath))
	}

	if err := vgfs.EnsureDir(cmd.RootPath); err != nil {
		return err
	}
	if err := config.Write(cmd.RootPath, config.NewDefaultConfig()); err != nil {
		return err
	}

	log.Info("configuration generated successfully",
		logging.String("path", cfgPath))
	return nil
}

func Init(ctx context.Context, parser *flags.Parser) error {
	initCmd = InitCmd{
		RootPathFlag: config.NewRootPathFlag(),
	}

	_, err := parser.AddCommand("init", "Initialises a deneb engine home",
		"Generate the minimal configuration required for a deneb engine to start", &initCmd)
	return err
}
