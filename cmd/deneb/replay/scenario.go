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

package replay

import (
	"time"

	"code.denebmarkets.io/deneb/core/types"
	vgfs "code.denebmarkets.io/deneb/libs/fs"
	"code.denebmarkets.io/deneb/libs/num"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

var (
	// ErrMissingMarket is returned when a scenario has no market block.
	ErrMissingMarket = errors.New("scenario is missing the market identifier")
	// ErrMissingCurveSeed is returned when a curve mode scenario does
	// not seed the pool.
	ErrMissingCurveSeed = errors.New("scenario is missing the curve seed")
	// ErrUnknownStepKind is returned on a step the runner cannot dispatch.
	ErrUnknownStepKind = errors.New("unknown step kind")
	// ErrBadAmount is returned when a numeric field does not parse.
	ErrBadAmount = errors.New("invalid amount")
)

// assetScale is the fixed-point scaling of every price and amount in a
// scenario file, values are written in whole asset units.
var assetScale = num.MustDecimalFromString("1000000000000000000")

// Step is one scripted action. Kind selects the action, the other
// fields are read as that kind needs them:
//
//	deposit    party, asset, amount
//	order      party, side, price, size
//	cancel     party, id
//	trade      party, size, long
//	close      party, size, long
//	liquidate  party, size, long
//	leverage   value
//	price      asset, value
//	mode       value
//	advance    duration
type Step struct {
	Kind     string `toml:"kind"`
	Party    string `toml:"party"`
	Asset    string `toml:"asset"`
	Amount   string `toml:"amount"`
	Side     string `toml:"side"`
	Price    string `toml:"price"`
	Size     uint64 `toml:"size"`
	Long     bool   `toml:"long"`
	ID       uint64 `toml:"id"`
	Value    string `toml:"value"`
	Duration string `toml:"duration"`
}

// CurveSeed is the initial pool state, in whole asset units.
type CurveSeed struct {
	Price       string `toml:"price"`
	Quantity    string `toml:"quantity"`
	MinQuantity string `toml:"min-quantity"`
}

// Scenario is a scripted market session loaded from a TOML file.
type Scenario struct {
	Name       string    `toml:"name"`
	Market     string    `toml:"market"`
	BaseAsset  string    `toml:"base-asset"`
	QuoteAsset string    `toml:"quote-asset"`
	Mode       string    `toml:"mode"`
	Start      string    `toml:"start"`
	Curve      CurveSeed `toml:"curve"`
	Steps      []Step    `toml:"steps"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	buf, err := vgfs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := &Scenario{}
	if _, err := toml.Decode(string(buf), sc); err != nil {
		return nil, errors.Wrap(err, "unable to parse scenario")
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

func (sc *Scenario) validate() error {
	if len(sc.Market) == 0 || len(sc.BaseAsset) == 0 || len(sc.QuoteAsset) == 0 {
		return ErrMissingMarket
	}
	mode := sc.PricingMode()
	if !mode.IsValid() {
		return errors.Errorf("invalid pricing mode \"%s\"", sc.Mode)
	}
	if mode.UsesCurve() && (len(sc.Curve.Price) == 0 || len(sc.Curve.Quantity) == 0) {
		return ErrMissingCurveSeed
	}
	if len(sc.Start) > 0 {
		if _, err := time.Parse(time.RFC3339, sc.Start); err != nil {
			return errors.Wrap(err, "invalid start time")
		}
	}
	for i, step := range sc.Steps {
		if err := step.validate(); err != nil {
			return errors.Wrapf(err, "step %d", i+1)
		}
	}
	return nil
}

func (s Step) validate() error {
	switch s.Kind {
	case "deposit":
		_, err := ParseAmount(s.Amount)
		return err
	case "order":
		if side := types.SideFromString(s.Side); side == types.SideUnspecified {
			return errors.Errorf("invalid side \"%s\"", s.Side)
		}
		_, err := ParseAmount(s.Price)
		return err
	case "cancel", "trade", "close", "liquidate":
		return nil
	case "leverage":
		if _, err := num.DecimalFromString(s.Value); err != nil {
			return errors.Wrap(ErrBadAmount, s.Value)
		}
		return nil
	case "price":
		_, err := ParseAmount(s.Value)
		return err
	case "mode":
		if m := types.PricingModeFromString(s.Value); !m.IsValid() {
			return errors.Errorf("invalid pricing mode \"%s\"", s.Value)
		}
		return nil
	case "advance":
		_, err := time.ParseDuration(s.Duration)
		return err
	default:
		return errors.Wrap(ErrUnknownStepKind, s.Kind)
	}
}

// PricingMode returns the scenario's starting mode.
func (sc *Scenario) PricingMode() types.PricingMode {
	return types.PricingModeFromString(sc.Mode)
}

// StartTime returns the engine time of the first step. Scenarios that
// want reproducible timestamps set one, the rest start at wall time.
func (sc *Scenario) StartTime() time.Time {
	if len(sc.Start) == 0 {
		return time.Now().UTC()
	}
	// already validated
	t, _ := time.Parse(time.RFC3339, sc.Start)
	return t.UTC()
}

// ParseAmount converts a whole-unit decimal string into the engine's
// fixed-point representation.
func ParseAmount(s string) (*num.Uint, error) {
	if len(s) == 0 {
		return nil, ErrBadAmount
	}
	d, err := num.DecimalFromString(s)
	if err != nil {
		return nil, errors.Wrap(ErrBadAmount, s)
	}
	u, overflow := num.UintFromDecimal(d.Mul(assetScale))
	if overflow {
		return nil, errors.Wrap(ErrBadAmount, s)
	}
	return u, nil
}
