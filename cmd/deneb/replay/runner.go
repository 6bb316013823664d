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
	"context"
	"time"

	"code.denebmarkets.io/deneb/broker"
	"code.denebmarkets.io/deneb/config"
	"code.denebmarkets.io/deneb/core/collateral"
	"code.denebmarkets.io/deneb/core/curve"
	"code.denebmarkets.io/deneb/core/execution"
	"code.denebmarkets.io/deneb/core/oracle"
	"code.denebmarkets.io/deneb/core/types"
	"code.denebmarkets.io/deneb/denebtime"
	"code.denebmarkets.io/deneb/libs/num"
	"code.denebmarkets.io/deneb/logging"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
)

const namedLogger = "replay"

// Runner owns the engine stack for one replay. Everything is built
// fresh in Run, two replays of the same scenario share nothing.
type Runner struct {
	log     *logging.Logger
	cfg     config.Config
	rep     *Reporter
	watcher *config.Watcher

	tsvc *denebtime.Svc
	col  *collateral.Engine
	orc  *oracle.Engine
	mkt  *execution.Market
}

func NewRunner(log *logging.Logger, cfg config.Config, rep *Reporter) *Runner {
	return &Runner{
		log: log.Named(namedLogger),
		cfg: cfg,
		rep: rep,
	}
}

// Watch attaches a configuration watcher. Reloads are applied on clock
// advances, between steps, never inside one.
func (r *Runner) Watch(w *config.Watcher) {
	r.watcher = w
}

// Run drives the scenario through a freshly built market, stopping at
// the first engine error.
func (r *Runner) Run(ctx context.Context, sc *Scenario) error {
	runID := uuid.NewV4().String()
	started := time.Now()

	r.log.Info("starting replay",
		logging.String("run-id", runID),
		logging.String("scenario", sc.Name),
		logging.String("market", sc.Market),
		logging.String("mode", sc.PricingMode().String()),
	)

	if err := r.build(sc); err != nil {
		return err
	}
	r.tsvc.SetTimeNow(ctx, sc.StartTime())

	for i, step := range sc.Steps {
		if err := r.dispatch(ctx, step); err != nil {
			r.rep.Err(i+1, step.Kind, err)
			return errors.Wrapf(err, "step %d (%s)", i+1, step.Kind)
		}
	}

	r.rep.Done(runID, time.Since(started))
	r.log.Info("replay complete",
		logging.String("run-id", runID),
		logging.Int("steps", len(sc.Steps)),
	)
	return nil
}

// build assembles the stack the way the hosting venue would, engines
// from the config, seeds from the scenario.
func (r *Runner) build(sc *Scenario) error {
	r.tsvc = denebtime.New(r.cfg.Time)
	r.col = collateral.New(r.log, r.cfg.Collateral)
	r.orc = oracle.New(r.log, r.cfg.Oracle)
	brk := broker.New(r.log, r.cfg.Broker)
	brk.Subscribe(r.rep)

	crv, err := r.buildCurve(sc)
	if err != nil {
		return err
	}

	mkt, err := execution.NewMarket(
		r.log, r.cfg.Execution,
		sc.Market, sc.BaseAsset, sc.QuoteAsset, sc.PricingMode(),
		crv, r.col, r.orc, brk, r.tsvc,
	)
	if err != nil {
		return err
	}
	r.mkt = mkt

	if r.watcher != nil {
		r.tsvc.NotifyOnTick(r.watcher.OnTimeUpdate)
		r.watcher.OnConfigUpdate(func(c config.Config) {
			r.mkt.ReloadConf(c.Execution)
		})
	}
	return nil
}

func (r *Runner) buildCurve(sc *Scenario) (*curve.Engine, error) {
	// modes off the curve still construct the engine, a dormant pool
	seed := sc.Curve
	if len(seed.Price) == 0 {
		seed.Price = "1"
	}
	if len(seed.Quantity) == 0 {
		seed.Quantity = "1000000"
	}
	price, err := ParseAmount(seed.Price)
	if err != nil {
		return nil, errors.Wrap(err, "curve price")
	}
	quantity, err := ParseAmount(seed.Quantity)
	if err != nil {
		return nil, errors.Wrap(err, "curve quantity")
	}
	minQuantity := num.UintZero()
	if len(seed.MinQuantity) > 0 {
		if minQuantity, err = ParseAmount(seed.MinQuantity); err != nil {
			return nil, errors.Wrap(err, "curve min-quantity")
		}
	}
	return curve.New(r.log, r.cfg.Execution.Curve, price, quantity, minQuantity)
}

func (r *Runner) dispatch(ctx context.Context, step Step) error {
	switch step.Kind {
	case "deposit":
		amount, err := ParseAmount(step.Amount)
		if err != nil {
			return err
		}
		r.col.CreateAccount(step.Party, step.Asset)
		acc, err := r.col.Deposit(step.Party, step.Asset, amount)
		if err != nil {
			return err
		}
		if r.log.GetLevel() == logging.DebugLevel {
			r.log.Debug("deposit applied",
				logging.String("party", step.Party),
				logging.String("account", acc.ID),
				logging.BigUint("balance", acc.Balance),
			)
		}
		return nil
	case "order":
		price, err := ParseAmount(step.Price)
		if err != nil {
			return err
		}
		_, err = r.mkt.SubmitOrder(ctx, &types.Order{
			Party: step.Party,
			Side:  types.SideFromString(step.Side),
			Price: price,
			Size:  step.Size,
		})
		return err
	case "cancel":
		_, err := r.mkt.CancelOrder(ctx, step.Party, step.ID)
		return err
	case "trade":
		_, err := r.mkt.ExecuteTrade(ctx, step.Party, step.Size, step.Long)
		return err
	case "close":
		_, err := r.mkt.ClosePosition(ctx, step.Party, step.Size, step.Long)
		return err
	case "liquidate":
		_, err := r.mkt.Liquidate(ctx, step.Party, step.Size, step.Long)
		return err
	case "leverage":
		// validated on load
		d, _ := num.DecimalFromString(step.Value)
		return r.mkt.RecordLeverage(d)
	case "price":
		value, err := ParseAmount(step.Value)
		if err != nil {
			return err
		}
		r.orc.SubmitPrice(step.Asset, value, r.tsvc.GetTimeNow().UnixNano())
		return nil
	case "mode":
		return r.mkt.UpdateMode(ctx, types.PricingModeFromString(step.Value))
	case "advance":
		// validated on load
		d, _ := time.ParseDuration(step.Duration)
		r.tsvc.SetTimeNow(ctx, r.tsvc.GetTimeNow().Add(d))
		return nil
	default:
		return errors.Wrap(ErrUnknownStepKind, step.Kind)
	}
}
