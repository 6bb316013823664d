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
	"context"
	"sync"
	"time"

	"code.denebmarkets.io/deneb/core/activity"
	"code.denebmarkets.io/deneb/core/curve"
	"code.denebmarkets.io/deneb/core/events"
	"code.denebmarkets.io/deneb/core/fee"
	"code.denebmarkets.io/deneb/core/idgeneration"
	"code.denebmarkets.io/deneb/core/matching"
	"code.denebmarkets.io/deneb/core/monitor/price"
	"code.denebmarkets.io/deneb/core/positions"
	"code.denebmarkets.io/deneb/core/risk"
	"code.denebmarkets.io/deneb/core/types"
	vgcrypto "code.denebmarkets.io/deneb/libs/crypto"
	"code.denebmarkets.io/deneb/libs/num"
	"code.denebmarkets.io/deneb/logging"
	"code.denebmarkets.io/deneb/metrics"

	"github.com/pkg/errors"
)

var (
	// ErrEngineLocked is returned on re-entry while another operation
	// holds the execution flag.
	ErrEngineLocked = errors.New("engine is locked, operation in progress")
	// ErrInvalidTradeSize is returned for a zero size trade.
	ErrInvalidTradeSize = errors.New("invalid trade size")
	// ErrInvalidPricingMode is returned when a mode switch names an
	// unknown mode.
	ErrInvalidPricingMode = errors.New("invalid pricing mode")
	// ErrNoOpenPosition is returned when a close names more volume than
	// the party holds in that direction.
	ErrNoOpenPosition = errors.New("no open position to close")
)

// FeePoolOwner is the venue account trade fees accumulate in.
const FeePoolOwner = "fee-pool"

// Custody is the interface to the collateral engine. Every call fails
// loudly, the market never assumes success.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/custody_mock.go -package mocks code.denebmarkets.io/deneb/core/execution Custody
type Custody interface {
	CreateAccount(owner, asset string) string
	Reserve(owner, asset string, amount *num.Uint) error
	Release(owner, asset string, amount *num.Uint) error
	Transfer(from, to, asset string, amount *num.Uint) error
}

// PriceSource is the external reference price feed. Staleness is the
// feed's responsibility.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/price_source_mock.go -package mocks code.denebmarkets.io/deneb/core/execution PriceSource
type PriceSource interface {
	LatestPrice(asset string) (*num.Uint, int64, error)
}

// Broker - the event bus broker, send events here.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/broker_mock.go -package mocks code.denebmarkets.io/deneb/core/execution Broker
type Broker interface {
	Send(event events.Event)
	SendBatch(events []events.Event)
}

// TimeService.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/time_service_mock.go -package mocks code.denebmarkets.io/deneb/core/execution TimeService
type TimeService interface {
	GetTimeNow() time.Time
}

// IDGenerator generates the deterministic ids trades and settlement
// records carry.
type IDGenerator interface {
	NextID() string
}

// Market routes each trade through the active pricing mode and is in
// charge of calling the engines in order to process it.
type Market struct {
	log   *logging.Logger
	idgen IDGenerator

	Config
	cfgMu sync.Mutex

	marketID   string
	baseAsset  string
	quoteAsset string

	// own engines
	matching *matching.OrderBook
	curve    *curve.Engine
	risk     *risk.Engine
	fee      *fee.Engine
	activity *activity.Engine
	position *positions.Engine
	pMonitor *price.Engine

	// deps engines
	custody     Custody
	oracle      PriceSource
	broker      Broker
	timeService TimeService

	mode           types.PricingMode
	lastModeChange int64

	// the engine's only concurrency primitive, one operation at a time
	locked bool
}

// NewMarket instantiates a market in the given pricing mode. The curve
// engine arrives seeded, everything else is built from the config.
func NewMarket(
	log *logging.Logger,
	config Config,
	marketID, baseAsset, quoteAsset string,
	mode types.PricingMode,
	curveEngine *curve.Engine,
	custody Custody,
	oracle PriceSource,
	broker Broker,
	timeService TimeService,
) (*Market, error) {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	if !mode.IsValid() {
		return nil, ErrInvalidPricingMode
	}

	riskEngine, err := risk.New(log, config.Risk)
	if err != nil {
		return nil, err
	}
	feeEngine, err := fee.New(log, config.Fee)
	if err != nil {
		return nil, err
	}
	activityEngine, err := activity.New(log, config.Activity)
	if err != nil {
		return nil, err
	}

	// fees land in the venue pool account, make sure it exists
	custody.CreateAccount(FeePoolOwner, quoteAsset)

	m := &Market{
		log:         log,
		idgen:       idgeneration.New(vgcrypto.HashStr(marketID)),
		Config:      config,
		marketID:    marketID,
		baseAsset:   baseAsset,
		quoteAsset:  quoteAsset,
		matching:    matching.NewOrderBook(log, config.Matching, marketID, baseAsset, quoteAsset, custody),
		curve:       curveEngine,
		risk:        riskEngine,
		fee:         feeEngine,
		activity:    activityEngine,
		position:    positions.New(log, config.Position),
		pMonitor:    price.New(log, config.Price),
		custody:     custody,
		oracle:      oracle,
		broker:      broker,
		timeService: timeService,
		mode:        mode,
	}
	metrics.ModeGaugeSet(int(mode), marketID)
	return m, nil
}

// GetID returns the id of the given market.
func (m *Market) GetID() string {
	return m.marketID
}

// ReloadConf updates the market and all its engines. Rejected while an
// operation is in flight, the watcher redelivers between trades.
func (m *Market) ReloadConf(cfg Config) {
	m.log.Info("reloading configuration")
	if err := m.acquire(); err != nil {
		m.log.Error("unable to reload configuration",
			logging.Error(err),
		)
		return
	}
	defer m.release()

	if m.log.GetLevel() != cfg.Level.Get() {
		m.log.Info("updating log level",
			logging.String("old", m.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		m.log.SetLevel(cfg.Level.Get())
	}

	m.cfgMu.Lock()
	m.Config = cfg
	m.cfgMu.Unlock()

	m.matching.ReloadConf(cfg.Matching)
	m.curve.ReloadConf(cfg.Curve)
	m.risk.ReloadConf(cfg.Risk)
	m.fee.ReloadConf(cfg.Fee)
	m.activity.ReloadConf(cfg.Activity)
	m.position.ReloadConf(cfg.Position)
	m.pMonitor.ReloadConf(cfg.Price)
}

func (m *Market) acquire() error {
	if m.locked {
		return ErrEngineLocked
	}
	m.locked = true
	return nil
}

func (m *Market) release() {
	m.locked = false
}

// tradeQuote is everything the quote phase works out about a trade
// before any engine state moves.
type tradeQuote struct {
	bookVolume  uint64
	bookVWAP    *num.Uint
	curveVolume uint64
	curvePrice  *num.Uint
	totalVolume uint64
	vwap        *num.Uint
	notional    *num.Uint
	trades      []*types.Trade
	long        uint64
	short       uint64
}

// quoteTrade prices the trade in the given mode and runs every check
// that can fail, without mutating anything.
func (m *Market) quoteTrade(party string, size uint64, isLong bool, mode types.PricingMode) (*tradeQuote, error) {
	taker := &types.Order{
		Party:     party,
		Side:      types.SideFromIsLong(isLong),
		Price:     num.UintZero(),
		Size:      size,
		Remaining: size,
		CreatedAt: m.timeService.GetTimeNow().UnixNano(),
	}

	q := &tradeQuote{
		bookVWAP:   num.UintZero(),
		curvePrice: num.UintZero(),
	}
	if mode.UsesBook() {
		q.bookVolume, q.bookVWAP, q.trades = m.matching.FakeUncrossWith(taker)
	}

	switch {
	case mode == types.ModeExternalPrice:
		refPrice, _, err := m.oracle.LatestPrice(m.baseAsset)
		if err != nil {
			return nil, err
		}
		q.curvePrice = refPrice
		q.curveVolume = size
	case mode.UsesCurve() && q.bookVolume < size:
		sim, err := m.curve.Simulate(size-q.bookVolume, isLong)
		if err != nil {
			return nil, err
		}
		q.curvePrice = sim.Price
		q.curveVolume = size - q.bookVolume
	case q.bookVolume == 0:
		// book only mode with nothing resting on the other side
		return nil, matching.ErrNoOrdersOnBook
	}

	q.totalVolume = q.bookVolume + q.curveVolume
	q.vwap = blendVWAP(q.bookVWAP, q.bookVolume, q.curvePrice, q.curveVolume)
	q.notional = num.UintZero().Mul(q.vwap, num.NewUint(q.totalVolume))

	fills := make([]positions.Fill, 0, len(q.trades)+1)
	fills = append(fills, positions.Fill{Party: party, Size: q.totalVolume, IsLong: isLong, Price: q.vwap})
	for _, t := range q.trades {
		fills = append(fills, positions.Fill{Party: makerParty(t, isLong), Size: t.Size, IsLong: !isLong, Price: t.Price})
	}
	q.long, q.short = m.position.WhatIf(fills...)
	if err := m.risk.CheckOpenInterest(q.long, q.short); err != nil {
		return nil, err
	}

	// curve prices answer to the oracle band, external prices are the
	// reference itself
	if q.curveVolume > 0 && mode != types.ModeExternalPrice {
		if err := m.checkBand(q.curvePrice); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// quoteClose prices the unwind of an open position in the given mode.
// The closing flow trades opposite to the position, curve volume
// settles at the post-trade pool price.
func (m *Market) quoteClose(party string, size uint64, isLong bool, mode types.PricingMode) (*tradeQuote, error) {
	taker := &types.Order{
		Party:     party,
		Side:      types.SideFromIsLong(!isLong),
		Price:     num.UintZero(),
		Size:      size,
		Remaining: size,
		CreatedAt: m.timeService.GetTimeNow().UnixNano(),
	}

	q := &tradeQuote{
		bookVWAP:   num.UintZero(),
		curvePrice: num.UintZero(),
	}
	if mode.UsesBook() {
		q.bookVolume, q.bookVWAP, q.trades = m.matching.FakeUncrossWith(taker)
	}

	switch {
	case mode == types.ModeExternalPrice:
		refPrice, _, err := m.oracle.LatestPrice(m.baseAsset)
		if err != nil {
			return nil, err
		}
		q.curvePrice = refPrice
		q.curveVolume = size
	case mode.UsesCurve() && q.bookVolume < size:
		sim, err := m.curve.SimulateClose(size-q.bookVolume, isLong)
		if err != nil {
			return nil, err
		}
		q.curvePrice = sim.Price
		q.curveVolume = size - q.bookVolume
	case q.bookVolume == 0:
		// book only mode with nothing resting on the other side
		return nil, matching.ErrNoOrdersOnBook
	}

	q.totalVolume = q.bookVolume + q.curveVolume
	q.vwap = blendVWAP(q.bookVWAP, q.bookVolume, q.curvePrice, q.curveVolume)
	q.notional = num.UintZero().Mul(q.vwap, num.NewUint(q.totalVolume))

	fills := make([]positions.Fill, 0, len(q.trades)+1)
	fills = append(fills, positions.Fill{Party: party, Size: q.totalVolume, IsLong: !isLong, Price: q.vwap})
	for _, t := range q.trades {
		fills = append(fills, positions.Fill{Party: makerParty(t, !isLong), Size: t.Size, IsLong: isLong, Price: t.Price})
	}
	q.long, q.short = m.position.WhatIf(fills...)
	if err := m.risk.CheckOpenInterest(q.long, q.short); err != nil {
		return nil, err
	}

	// the de-risking price answers to the oracle band like any curve
	// price
	if q.curveVolume > 0 && mode != types.ModeExternalPrice {
		if err := m.checkBand(q.curvePrice); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// ExecuteTrade routes one trade through the active pricing mode. Every
// engine commits, or a typed error comes back and nothing does. The
// settlement record returned is the single durable record of the trade.
func (m *Market) ExecuteTrade(ctx context.Context, party string, size uint64, isLong bool) (*types.TradeSettlement, error) {
	timer := metrics.NewTimeCounter(m.marketID, "execution", "ExecuteTrade")
	defer timer.EngineTimeCounterAdd()

	if err := m.acquire(); err != nil {
		return nil, err
	}
	defer m.release()

	if size == 0 {
		return nil, ErrInvalidTradeSize
	}
	// the mode is pinned for the whole call, a switch lands next trade
	mode := m.mode
	now := m.timeService.GetTimeNow().UnixNano()

	q, err := m.quoteTrade(party, size, isLong, mode)
	if err != nil {
		return nil, err
	}

	// hold the worst case fee before anything commits, the rate can
	// only be known after the trade lands
	worstFee := fee.Amount(q.notional, m.fee.State().MaxFee)
	if err := m.custody.Reserve(party, m.quoteAsset, worstFee); err != nil {
		return nil, err
	}

	executed, err := m.commitTrade(party, size, isLong, mode, q)
	if err != nil {
		// quoting validated all of this, a failing commit means an
		// engine disagrees with its own quote
		m.log.Error("trade commit failed after validation",
			logging.String("party", party),
			logging.Uint64("size", size),
			logging.Error(err),
		)
		if rerr := m.custody.Release(party, m.quoteAsset, worstFee); rerr != nil {
			m.log.Error("unable to release fee hold", logging.Error(rerr))
		}
		return nil, err
	}

	// fee from freshly updated state
	rate := m.fee.Rate(fee.Factors{
		BaseVolatility:      m.risk.BaseVolatility(),
		EffectiveVolatility: m.risk.EffectiveVolatility(),
		LongOI:              q.long,
		ShortOI:             q.short,
		SpeculativeRatio:    m.activity.SpeculativeRatio(),
	})
	feeAmount := fee.Amount(q.notional, rate)
	if err := m.custody.Release(party, m.quoteAsset, worstFee); err != nil {
		// the hold was placed by us, this cannot fail
		m.log.Error("unable to release fee hold", logging.Error(err))
		return nil, err
	}
	if err := m.custody.Transfer(party, FeePoolOwner, m.quoteAsset, feeAmount); err != nil {
		// the rate is clamped at MaxFee so the released hold covers this
		m.log.Error("unable to collect fee", logging.Error(err))
		return nil, err
	}
	metrics.FeeRateGaugeSet(rate.InexactFloat64(), m.marketID)

	settlement := &types.TradeSettlement{
		ID:          m.idgen.NextID(),
		Party:       party,
		IsLong:      isLong,
		Volume:      q.totalVolume,
		BookVolume:  q.bookVolume,
		CurveVolume: q.curveVolume,
		VWAP:        q.vwap,
		Fee:         feeAmount,
		FeeRate:     rate,
		Mode:        mode,
		CreatedAt:   now,
	}

	if len(executed) > 0 {
		evts := make([]events.Event, 0, len(executed))
		for _, t := range executed {
			t.ID = m.idgen.NextID()
			evts = append(evts, events.NewTradeEvent(ctx, t))
			if m.log.GetLevel() == logging.DebugLevel {
				m.log.Debug("trade struck on the book", logging.Trade(*t))
			}
		}
		m.broker.SendBatch(evts)
	}
	m.broker.Send(events.NewSettlementEvent(ctx, settlement))

	if m.log.GetLevel() == logging.DebugLevel {
		m.log.Debug("trade executed", logging.Settlement(*settlement))
	}
	return settlement, nil
}

// commitTrade applies a fully validated quote to the engines in order,
// returning the book trades that were struck.
func (m *Market) commitTrade(party string, size uint64, isLong bool, mode types.PricingMode, q *tradeQuote) ([]*types.Trade, error) {
	var executed []*types.Trade
	if q.bookVolume > 0 {
		taker := &types.Order{
			Party:     party,
			Side:      types.SideFromIsLong(isLong),
			Price:     num.UintZero(),
			Size:      q.bookVolume,
			Remaining: q.bookVolume,
			CreatedAt: m.timeService.GetTimeNow().UnixNano(),
		}
		resting := m.matching.GetTotalNumberOfOrders()
		_, _, trades, err := m.matching.UncrossWith(taker)
		if err != nil {
			return nil, err
		}
		executed = trades
		metrics.TradeCounterInc(m.marketID, "book")
		metrics.OrderGaugeAdd(int(m.matching.GetTotalNumberOfOrders()-resting), m.marketID)
	}
	if q.curveVolume > 0 {
		if mode == types.ModeExternalPrice {
			metrics.TradeCounterInc(m.marketID, "external")
		} else {
			if _, err := m.curve.Execute(q.curveVolume, isLong); err != nil {
				return nil, err
			}
			metrics.TradeCounterInc(m.marketID, "curve")
		}
	}

	m.position.RegisterTrade(party, q.totalVolume, isLong, q.vwap)
	for _, t := range executed {
		m.position.RegisterTrade(makerParty(t, isLong), t.Size, !isLong, t.Price)
	}
	long, short, _ := m.position.OpenInterest()
	if err := m.risk.UpdateOpenInterest(long, short); err != nil {
		return nil, err
	}
	m.risk.RecordFlow(q.totalVolume, isLong)
	m.activity.RecordTrade(q.totalVolume, long+short)
	return executed, nil
}

// ClosePosition unwinds part or all of the party's open position at
// the going price for the active mode. The closing volume trades
// opposite to the position, on the curve it settles at the post-trade
// price.
func (m *Market) ClosePosition(ctx context.Context, party string, size uint64, isLong bool) (*types.TradeSettlement, error) {
	timer := metrics.NewTimeCounter(m.marketID, "execution", "ClosePosition")
	defer timer.EngineTimeCounterAdd()

	if err := m.acquire(); err != nil {
		return nil, err
	}
	defer m.release()
	return m.unwind(ctx, party, size, isLong, false)
}

// Liquidate is the venue's de-risking path, the same unwind flow with
// the closed volume recorded in the liquidation series. The custody
// layer decides when a position must go, the engine prices the close.
func (m *Market) Liquidate(ctx context.Context, party string, size uint64, isLong bool) (*types.TradeSettlement, error) {
	timer := metrics.NewTimeCounter(m.marketID, "execution", "Liquidate")
	defer timer.EngineTimeCounterAdd()

	if err := m.acquire(); err != nil {
		return nil, err
	}
	defer m.release()
	return m.unwind(ctx, party, size, isLong, true)
}

func (m *Market) unwind(ctx context.Context, party string, size uint64, isLong bool, forced bool) (*types.TradeSettlement, error) {
	if size == 0 {
		return nil, ErrInvalidTradeSize
	}
	pos := m.position.GetPositionByParty(party)
	if pos == nil {
		return nil, ErrNoOpenPosition
	}
	held := pos.Size()
	if held.IsZero() || held.IsPositive() != isLong || held.U.Uint64() < size {
		return nil, ErrNoOpenPosition
	}

	// the mode is pinned for the whole call, a switch lands next trade
	mode := m.mode
	now := m.timeService.GetTimeNow().UnixNano()

	q, err := m.quoteClose(party, size, isLong, mode)
	if err != nil {
		return nil, err
	}

	// hold the worst case fee before anything commits, the rate can
	// only be known after the close lands
	worstFee := fee.Amount(q.notional, m.fee.State().MaxFee)
	if err := m.custody.Reserve(party, m.quoteAsset, worstFee); err != nil {
		return nil, err
	}

	executed, err := m.commitClose(party, isLong, mode, q, forced)
	if err != nil {
		// quoting validated all of this, a failing commit means an
		// engine disagrees with its own quote
		m.log.Error("close commit failed after validation",
			logging.String("party", party),
			logging.Uint64("size", size),
			logging.Error(err),
		)
		if rerr := m.custody.Release(party, m.quoteAsset, worstFee); rerr != nil {
			m.log.Error("unable to release fee hold", logging.Error(rerr))
		}
		return nil, err
	}

	// fee from freshly updated state
	rate := m.fee.Rate(fee.Factors{
		BaseVolatility:      m.risk.BaseVolatility(),
		EffectiveVolatility: m.risk.EffectiveVolatility(),
		LongOI:              q.long,
		ShortOI:             q.short,
		SpeculativeRatio:    m.activity.SpeculativeRatio(),
	})
	feeAmount := fee.Amount(q.notional, rate)
	if err := m.custody.Release(party, m.quoteAsset, worstFee); err != nil {
		// the hold was placed by us, this cannot fail
		m.log.Error("unable to release fee hold", logging.Error(err))
		return nil, err
	}
	if err := m.custody.Transfer(party, FeePoolOwner, m.quoteAsset, feeAmount); err != nil {
		// the rate is clamped at MaxFee so the released hold covers this
		m.log.Error("unable to collect fee", logging.Error(err))
		return nil, err
	}
	metrics.FeeRateGaugeSet(rate.InexactFloat64(), m.marketID)

	settlement := &types.TradeSettlement{
		ID:          m.idgen.NextID(),
		Party:       party,
		IsLong:      !isLong,
		Volume:      q.totalVolume,
		BookVolume:  q.bookVolume,
		CurveVolume: q.curveVolume,
		VWAP:        q.vwap,
		Fee:         feeAmount,
		FeeRate:     rate,
		Mode:        mode,
		CreatedAt:   now,
	}

	if len(executed) > 0 {
		evts := make([]events.Event, 0, len(executed))
		for _, t := range executed {
			t.ID = m.idgen.NextID()
			evts = append(evts, events.NewTradeEvent(ctx, t))
			if m.log.GetLevel() == logging.DebugLevel {
				m.log.Debug("trade struck on the book", logging.Trade(*t))
			}
		}
		m.broker.SendBatch(evts)
	}
	m.broker.Send(events.NewSettlementEvent(ctx, settlement))

	if m.log.GetLevel() == logging.DebugLevel {
		m.log.Debug("position closed", logging.Settlement(*settlement))
	}
	return settlement, nil
}

// commitClose applies a fully validated unwind to the engines in
// order, recording the liquidation series when the venue forced it.
func (m *Market) commitClose(party string, isLong bool, mode types.PricingMode, q *tradeQuote, forced bool) ([]*types.Trade, error) {
	var executed []*types.Trade
	if q.bookVolume > 0 {
		taker := &types.Order{
			Party:     party,
			Side:      types.SideFromIsLong(!isLong),
			Price:     num.UintZero(),
			Size:      q.bookVolume,
			Remaining: q.bookVolume,
			CreatedAt: m.timeService.GetTimeNow().UnixNano(),
		}
		resting := m.matching.GetTotalNumberOfOrders()
		_, _, trades, err := m.matching.UncrossWith(taker)
		if err != nil {
			return nil, err
		}
		executed = trades
		metrics.TradeCounterInc(m.marketID, "book")
		metrics.OrderGaugeAdd(int(m.matching.GetTotalNumberOfOrders()-resting), m.marketID)
	}
	if q.curveVolume > 0 {
		if mode == types.ModeExternalPrice {
			metrics.TradeCounterInc(m.marketID, "external")
		} else {
			if _, err := m.curve.Close(q.curveVolume, isLong); err != nil {
				return nil, err
			}
			metrics.TradeCounterInc(m.marketID, "curve")
		}
	}

	m.position.RegisterTrade(party, q.totalVolume, !isLong, q.vwap)
	for _, t := range executed {
		m.position.RegisterTrade(makerParty(t, !isLong), t.Size, isLong, t.Price)
	}
	long, short, _ := m.position.OpenInterest()
	if err := m.risk.UpdateOpenInterest(long, short); err != nil {
		return nil, err
	}
	m.risk.RecordFlow(q.totalVolume, !isLong)
	m.activity.RecordTrade(q.totalVolume, long+short)
	if forced {
		m.activity.RecordLiquidation(q.totalVolume)
	}
	return executed, nil
}

// SimulateTrade quotes a trade in the active mode without committing
// anything. The fee is quoted at the current rate, the rate an executed
// trade would pay is only known once it lands.
func (m *Market) SimulateTrade(party string, size uint64, isLong bool) (*types.TradeSettlement, error) {
	timer := metrics.NewTimeCounter(m.marketID, "execution", "SimulateTrade")
	defer timer.EngineTimeCounterAdd()

	if err := m.acquire(); err != nil {
		return nil, err
	}
	defer m.release()

	if size == 0 {
		return nil, ErrInvalidTradeSize
	}
	mode := m.mode

	q, err := m.quoteTrade(party, size, isLong, mode)
	if err != nil {
		return nil, err
	}
	rate := m.fee.State().Rate
	return &types.TradeSettlement{
		Party:       party,
		IsLong:      isLong,
		Volume:      q.totalVolume,
		BookVolume:  q.bookVolume,
		CurveVolume: q.curveVolume,
		VWAP:        q.vwap,
		Fee:         fee.Amount(q.notional, rate),
		FeeRate:     rate,
		Mode:        mode,
		CreatedAt:   m.timeService.GetTimeNow().UnixNano(),
	}, nil
}

// SubmitOrder rests a limit order on the book, reserving its collateral.
func (m *Market) SubmitOrder(ctx context.Context, order *types.Order) (*types.Order, error) {
	timer := metrics.NewTimeCounter(m.marketID, "execution", "SubmitOrder")
	defer timer.EngineTimeCounterAdd()

	if err := m.acquire(); err != nil {
		return nil, err
	}
	defer m.release()

	// the book keeps what we hand it, the caller keeps theirs
	ord := order.Clone()
	ord.CreatedAt = m.timeService.GetTimeNow().UnixNano()
	if _, err := m.matching.SubmitOrder(ord); err != nil {
		metrics.OrderCounterInc(m.marketID, "false")
		return nil, err
	}
	metrics.OrderCounterInc(m.marketID, "true")
	metrics.OrderGaugeAdd(1, m.marketID)
	m.broker.Send(events.NewOrderEvent(ctx, ord))
	return ord.Clone(), nil
}

// CancelOrder removes a resting order and hands its reservation back.
// Only the owner may cancel.
func (m *Market) CancelOrder(ctx context.Context, party string, id uint64) (*types.Order, error) {
	timer := metrics.NewTimeCounter(m.marketID, "execution", "CancelOrder")
	defer timer.EngineTimeCounterAdd()

	if err := m.acquire(); err != nil {
		return nil, err
	}
	defer m.release()

	order, err := m.matching.CancelOrder(party, id)
	if err != nil {
		return nil, err
	}
	metrics.OrderGaugeAdd(-1, m.marketID)
	m.broker.Send(events.NewOrderEvent(ctx, order))
	return order, nil
}

// UpdateMode switches the pricing mode. Privileged, the new mode takes
// effect from the next trade.
func (m *Market) UpdateMode(ctx context.Context, mode types.PricingMode) error {
	if err := m.acquire(); err != nil {
		return err
	}
	defer m.release()

	if !mode.IsValid() {
		return ErrInvalidPricingMode
	}
	if mode == m.mode {
		return nil
	}
	from := m.mode
	now := m.timeService.GetTimeNow().UnixNano()
	m.mode = mode
	m.lastModeChange = now

	m.log.Info("pricing mode updated",
		logging.String("from", from.String()),
		logging.PricingMode(mode),
	)
	metrics.ModeGaugeSet(int(mode), m.marketID)
	m.broker.Send(events.NewModeChangeEvent(ctx, m.marketID, from, mode, now))
	return nil
}

// GetMode returns the active pricing mode.
func (m *Market) GetMode() (types.PricingMode, error) {
	if err := m.acquire(); err != nil {
		return types.ModeUnspecified, err
	}
	defer m.release()
	return m.mode, nil
}

// GetCurveState returns a copy of the bonding curve state.
func (m *Market) GetCurveState() (*curve.State, error) {
	if err := m.acquire(); err != nil {
		return nil, err
	}
	defer m.release()
	return m.curve.State(), nil
}

// GetOpenInterest returns the long and short open interest and their
// signed net.
func (m *Market) GetOpenInterest() (uint64, uint64, *num.Int, error) {
	if err := m.acquire(); err != nil {
		return 0, 0, nil, err
	}
	defer m.release()
	long, short, net := m.position.OpenInterest()
	return long, short, net, nil
}

// GetVolatilityState returns a copy of the risk engine state.
func (m *Market) GetVolatilityState() (*risk.State, error) {
	if err := m.acquire(); err != nil {
		return nil, err
	}
	defer m.release()
	return m.risk.State(), nil
}

// GetFeeState returns the breakdown of the last fee computation.
func (m *Market) GetFeeState() (fee.State, error) {
	if err := m.acquire(); err != nil {
		return fee.State{}, err
	}
	defer m.release()
	return m.fee.State(), nil
}

// GetActivitySnapshot returns a copy of the activity decomposition.
func (m *Market) GetActivitySnapshot() (*activity.Snapshot, error) {
	if err := m.acquire(); err != nil {
		return nil, err
	}
	defer m.release()
	return m.activity.Snapshot(), nil
}

// RecordLeverage folds the venue's average account leverage reading
// into the activity history. Collateral lives outside the engine, the
// custody layer computes the reading and hands it in.
func (m *Market) RecordLeverage(avg num.Decimal) error {
	if err := m.acquire(); err != nil {
		return err
	}
	defer m.release()
	m.activity.RecordLeverage(avg)
	return nil
}

// checkBand holds curve prices to the oracle band. Without a reference
// the guard stands down.
func (m *Market) checkBand(execPrice *num.Uint) error {
	ref, _, err := m.oracle.LatestPrice(m.baseAsset)
	if err != nil {
		return m.pMonitor.CheckPrice(execPrice, nil)
	}
	return m.pMonitor.CheckPrice(execPrice, ref)
}

// makerParty returns the resting side of a trade struck by a taker.
func makerParty(t *types.Trade, takerIsLong bool) string {
	if takerIsLong {
		return t.Seller
	}
	return t.Buyer
}

func blendVWAP(bookVWAP *num.Uint, bookVolume uint64, curvePrice *num.Uint, curveVolume uint64) *num.Uint {
	total := bookVolume + curveVolume
	if total == 0 {
		return num.UintZero()
	}
	value := num.UintZero().Mul(bookVWAP, num.NewUint(bookVolume))
	value.AddSum(num.UintZero().Mul(curvePrice, num.NewUint(curveVolume)))
	return num.UintZero().Div(value, num.NewUint(total))
}
