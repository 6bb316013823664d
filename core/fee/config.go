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

package fee

import (
	"code.denebmarkets.io/deneb/config/encoding"
	"code.denebmarkets.io/deneb/logging"
)

const (
	// namedLogger is the identifier for package and should ideally match the package name
	// this is simply emitted as a hierarchical label e.g. 'api.grpc'.
	namedLogger = "fee"
)

// Config is the configuration of the fee package. Parameters are validated
// on engine construction.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// BaseFee is the floor fee rate as a fraction of traded notional.
	// Must be positive.
	BaseFee float64 `long:"base-fee" description:"fee rate floor as a fraction of notional, must be > 0"`
	// MaxFee is the ceiling fee rate. Must exceed BaseFee.
	MaxFee float64 `long:"max-fee" description:"fee rate ceiling as a fraction of notional, must be > base-fee"`
	// VolatilitySlope scales the relative volatility excess into the
	// volatility multiplier. Must be >= 0.
	VolatilitySlope float64 `long:"volatility-slope" description:"volatility multiplier slope, must be >= 0"`
	// ImbalanceSlope scales the open interest imbalance fraction into the
	// imbalance multiplier. Must be >= 0 so the multiplier never discounts.
	ImbalanceSlope float64 `long:"imbalance-slope" description:"imbalance multiplier slope, must be >= 0"`
	// UtilizationSlope scales the distance of pool utilization from its
	// midpoint into the utilization multiplier. Must be >= 0.
	UtilizationSlope float64 `long:"utilization-slope" description:"utilization multiplier slope, must be >= 0"`
	// TightImbalanceBand is the imbalance fraction at or under which the
	// base fee is forced. Must sit in [0,1) and below WideImbalanceBand.
	TightImbalanceBand float64 `long:"tight-imbalance-band" description:"imbalance fraction forcing the base fee, must be < wide-imbalance-band"`
	// WideImbalanceBand is the imbalance fraction at or over which the max
	// fee is forced. Must sit in (0,1].
	WideImbalanceBand float64 `long:"wide-imbalance-band" description:"imbalance fraction forcing the max fee, must be <= 1"`
	// PoolCapacity is the open interest, in units, at which the pool
	// counts as fully utilized. Must be positive.
	PoolCapacity float64 `long:"pool-capacity" description:"open interest in units at full utilization, must be > 0"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:              encoding.LogLevel{Level: logging.InfoLevel},
		BaseFee:            0.001,
		MaxFee:             0.01,
		VolatilitySlope:    2,
		ImbalanceSlope:     0.5,
		UtilizationSlope:   0.4,
		TightImbalanceBand: 0.05,
		WideImbalanceBand:  0.9,
		PoolCapacity:       10000000,
	}
}
