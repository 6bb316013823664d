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
	"os"
	"path/filepath"

	"code.denebmarkets.io/deneb/broker"
	"code.denebmarkets.io/deneb/core/collateral"
	"code.denebmarkets.io/deneb/core/execution"
	"code.denebmarkets.io/deneb/core/oracle"
	"code.denebmarkets.io/deneb/denebtime"
	"code.denebmarkets.io/deneb/logging"
	"code.denebmarkets.io/deneb/metrics"
	"code.denebmarkets.io/deneb/pprof"

	"github.com/BurntSushi/toml"
)

// Config ties together all other application configuration types.
type Config struct {
	Execution  execution.Config  `group:"Execution" namespace:"execution"`
	Collateral collateral.Config `group:"Collateral" namespace:"collateral"`
	Oracle     oracle.Config     `group:"Oracle" namespace:"oracle"`
	Time       denebtime.Config  `group:"Time" namespace:"time"`
	Broker     broker.Config     `group:"Broker" namespace:"broker"`
	Metrics    metrics.Config    `group:"Metrics" namespace:"metrics"`
	Logging    logging.Config    `group:"Logging" namespace:"logging"`
	Pprof      pprof.Config      `group:"Pprof" namespace:"pprof"`
}

// NewDefaultConfig returns a set of default configs for all packages,
// as specified at the per package config level.
func NewDefaultConfig() Config {
	return Config{
		Execution:  execution.NewDefaultConfig(),
		Collateral: collateral.NewDefaultConfig(),
		Oracle:     oracle.NewDefaultConfig(),
		Time:       denebtime.NewDefaultConfig(),
		Broker:     broker.NewDefaultConfig(),
		Metrics:    metrics.NewDefaultConfig(),
		Logging:    logging.NewDefaultConfig(),
		Pprof:      pprof.NewDefaultConfig(),
	}
}

// FilePath returns the path of the configuration file under rootPath.
func FilePath(rootPath string) string {
	return filepath.Join(rootPath, configFileName)
}

// Read loads the configuration file under rootPath on top of the
// defaults, so a partial file is a valid one.
func Read(rootPath string) (*Config, error) {
	buf, err := os.ReadFile(FilePath(rootPath))
	if err != nil {
		return nil, err
	}
	cfg := NewDefaultConfig()
	if _, err := toml.Decode(string(buf), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Write saves the configuration under rootPath, replacing whatever was
// there.
func Write(rootPath string, cfg Config) error {
	f, err := os.Create(FilePath(rootPath))
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
