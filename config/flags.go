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

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// OutputFlagHuman renders command results as plain text.
	OutputFlagHuman = "human"
	// OutputFlagJSON renders command results as JSON.
	OutputFlagJSON = "json"
)

// Empty is the root options struct handed to the flags parser, all
// real options live on the subcommands.
type Empty struct{}

// OutputFlag is embedded by subcommands that can render their result
// either for humans or as JSON.
type OutputFlag struct {
	Output Output `long:"output" default:"human" description:"Specify the output format: json,human"`
}

func (f OutputFlag) GetOutput() (Output, error) {
	if err := f.Output.Validate(); err != nil {
		return "", err
	}
	return f.Output, nil
}

type Output string

func (o Output) Validate() error {
	if o != OutputFlagHuman && o != OutputFlagJSON {
		return fmt.Errorf("unsupported output %q, expected %q or %q", string(o), OutputFlagHuman, OutputFlagJSON)
	}
	return nil
}

func (o Output) IsHuman() bool {
	return o == OutputFlagHuman
}

func (o Output) IsJSON() bool {
	return o == OutputFlagJSON
}

// RootPathFlag is embedded by subcommands that need to locate the
// engine home directory.
type RootPathFlag struct {
	RootPath string `short:"r" long:"root-path" description:"Path of the root directory in which the configuration is located"`
}

// NewRootPathFlag returns the flag seeded with the default home.
func NewRootPathFlag() RootPathFlag {
	return RootPathFlag{RootPath: DefaultDenebDir()}
}

// DefaultDenebDir returns the location of the deneb configuration:
//
//	binary is in /usr/bin/ -> look for /etc/deneb/config.toml
//	binary is in /usr/local/bin/ -> look for /usr/local/etc/deneb/config.toml
//	otherwise, look for $HOME/.deneb/config.toml
func DefaultDenebDir() string {
	ex, err := os.Executable()
	if err != nil {
		return os.ExpandEnv("$HOME/.deneb")
	}
	switch filepath.Dir(ex) {
	case "/usr/bin":
		return "/etc/deneb"
	case "/usr/local/bin":
		return "/usr/local/etc/deneb"
	}
	return os.ExpandEnv("$HOME/.deneb")
}
