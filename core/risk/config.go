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

package risk

import (
	"code.denebmarkets.io/deneb/config/encoding"
	"code.denebmarkets.io/deneb/logging"
)

const (
	// namedLogger is the identifier for package and should ideally match the package name
	// this is simply emitted as a hierarchical label e.g. 'api.grpc'.
	namedLogger = "risk"
)

// Config is the configuration of the risk package. All model parameters are
// validated on engine construction, out of range values are rejected there.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// BaseVolatility is the volatility of the venue with no open interest,
	// as a fraction. Must be positive, sensible values sit well below 1.
	BaseVolatility float64 `long:"base-volatility" description:"volatility floor as a fraction, must be > 0"`
	// MaxVolatility is the hard ceiling, any open interest move that would
	// push effective volatility beyond it is rejected. Must exceed BaseVolatility.
	MaxVolatility float64 `long:"max-volatility" description:"volatility ceiling as a fraction, must be > base-volatility"`
	// LongOICoefficient scales long open interest into added volatility,
	// per unit of open interest. Must be >= 0.
	LongOICoefficient float64 `long:"long-oi-coefficient" description:"volatility added per unit of long open interest, must be >= 0"`
	// ShortOICoefficient scales short open interest into removed volatility,
	// per unit of open interest. Must be <= 0.
	ShortOICoefficient float64 `long:"short-oi-coefficient" description:"volatility removed per unit of short open interest, must be <= 0"`
	// BaseDepth is the notional market depth, in units, backing the impact
	// model at base volatility. Must be positive.
	BaseDepth float64 `long:"base-depth" description:"market depth in units at base volatility, must be > 0"`
	// ImpactRecomputeThreshold is the fractional open interest move required
	// before lambda and the effective depth are recomputed.
	ImpactRecomputeThreshold float64 `long:"impact-recompute-threshold" description:"fractional OI move triggering a lambda/depth recompute, must be >= vol-recompute-threshold"`
	// VolRecomputeThreshold is the fractional open interest move required
	// before effective volatility is recomputed. Must not exceed
	// ImpactRecomputeThreshold.
	VolRecomputeThreshold float64 `long:"vol-recompute-threshold" description:"fractional OI move triggering a volatility recompute, must be >= 0"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:                    encoding.LogLevel{Level: logging.InfoLevel},
		BaseVolatility:           0.02,
		MaxVolatility:            0.5,
		LongOICoefficient:        0.00000001,
		ShortOICoefficient:       -0.000000005,
		BaseDepth:                1000000,
		ImpactRecomputeThreshold: 0.05,
		VolRecomputeThreshold:    0.01,
	}
}
