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

package execution

import (
	"code.denebmarkets.io/deneb/config/encoding"
	"code.denebmarkets.io/deneb/core/activity"
	"code.denebmarkets.io/deneb/core/curve"
	"code.denebmarkets.io/deneb/core/fee"
	"code.denebmarkets.io/deneb/core/matching"
	"code.denebmarkets.io/deneb/core/monitor/price"
	"code.denebmarkets.io/deneb/core/positions"
	"code.denebmarkets.io/deneb/core/risk"
	"code.denebmarkets.io/deneb/logging"
)

const (
	// namedLogger is the identifier for package and should ideally match the package name
	// this is simply emitted as a hierarchical label e.g. 'api.grpc'.
	namedLogger = "execution"
)

// Config is the configuration of the execution package.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	Matching matching.Config  `group:"Matching" namespace:"matching"`
	Curve    curve.Config     `group:"Curve"    namespace:"curve"`
	Risk     risk.Config      `group:"Risk"     namespace:"risk"`
	Position positions.Config `group:"Position" namespace:"position"`
	Fee      fee.Config       `group:"Fee"      namespace:"fee"`
	Activity activity.Config  `group:"Activity" namespace:"activity"`
	Price    price.Config     `group:"Price"    namespace:"price"`
}

// NewDefaultConfig creates an instance of the package specific configuration, given a
// pointer to a logger instance to be used for logging within the package.
func NewDefaultConfig() Config {
	c := Config{
		Level:    encoding.LogLevel{Level: logging.InfoLevel},
		Matching: matching.NewDefaultConfig(),
		Curve:    curve.NewDefaultConfig(),
		Risk:     risk.NewDefaultConfig(),
		Position: positions.NewDefaultConfig(),
		Fee:      fee.NewDefaultConfig(),
		Activity: activity.NewDefaultConfig(),
		Price:    price.NewDefaultConfig(),
	}
	return c
}
