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

package activity

import (
	"code.denebmarkets.io/deneb/config/encoding"
	"code.denebmarkets.io/deneb/logging"
)

const (
	// namedLogger is the identifier for package and should ideally match the package name
	// this is simply emitted as a hierarchical label e.g. 'api.grpc'.
	namedLogger = "activity"
)

// Config is the configuration of the activity package.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// WindowLength is the number of observations each metric history
	// retains, oldest evicted first. Must hold at least 3.
	WindowLength int `long:"window-length" description:"observations retained per metric, must be >= 3"`
	// TrendSmoothing is the exponential smoothing factor applied to the
	// trend component, strictly between 0 and 1. Higher values track the
	// latest observation more aggressively.
	TrendSmoothing float64 `long:"trend-smoothing" description:"trend smoothing factor, must sit strictly between 0 and 1"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:          encoding.LogLevel{Level: logging.InfoLevel},
		WindowLength:   24,
		TrendSmoothing: 0.3,
	}
}
