// Package engine implements the execution core: the per-bar state machine
// that turns signals into orders, orders into fills, and fills into trades
// and equity accounting, emitting an ordered event stream along the way.
package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stratforge-lab/stratforge/internal/logger"
	"github.com/stratforge-lab/stratforge/internal/strategy"
	"github.com/stratforge-lab/stratforge/internal/types"
	"github.com/stratforge-lab/stratforge/pkg/errors"
)

// Status codes attached to StatusPayload events.
const (
	StatusWalkForwardRejected = "walk_forward_rejected"
	StatusOrderRejected       = "order_rejected"
	StatusOrderCancelled      = "order_cancelled"
)

// Executor owns the full mutable state of one strategy instance and
// advances it one bar at a time. It never reads the wall clock and never
// draws randomness, so identical inputs produce identical event streams.
type Executor struct {
	id       string
	cfg      Config
	strategy strategy.Strategy
	state    types.StrategyState
	log      *logger.Logger
}

// NewExecutor creates an executor with a cold-start state. The config is
// validated here; an invalid config is a construction-time error.
func NewExecutor(id string, cfg Config, strat strategy.Strategy, log *logger.Logger) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if strat == nil {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "strategy must not be nil")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Executor{
		id:       id,
		cfg:      cfg,
		strategy: strat,
		state:    types.NewStrategyState(cfg.InitialCash),
		log:      log,
	}, nil
}

// ID returns the strategy instance identifier.
func (e *Executor) ID() string {
	return e.id
}

// Strategy returns the signal generator driving this executor.
func (e *Executor) Strategy() strategy.Strategy {
	return e.strategy
}

// State returns a deep copy of the current state.
func (e *Executor) State() types.StrategyState {
	return e.state.Clone()
}

// SetState injects a persisted state on cold-start/resume. The signal
// generator is reset; its indicators rewarm from the bars that follow.
func (e *Executor) SetState(s types.StrategyState) {
	e.state = s.Clone()
	e.strategy.Reset()
}

// ProcessBar advances the state machine by one bar. Lookahead candles are
// only ever supplied on backtest/replay paths; live callers pass nil,
// which keeps the oracle exit unreachable there.
//
// The per-bar order is fixed: resolve and settle fills first, tick the
// signal generator, evaluate its signal, force liquidation on overheld
// positions, then account equity. Every bar ends with an equity event.
func (e *Executor) ProcessBar(c types.Candle, lookahead []types.Candle) ([]types.StrategyEvent, error) {
	cur := e.state.BarIndex
	events := make([]types.StrategyEvent, 0, 8)
	emit := func(p types.EventPayload) {
		e.state.LastSeq++
		events = append(events, types.StrategyEvent{Ts: c.Ts, Seq: e.state.LastSeq, Payload: p})
	}

	emit(types.CandlePayload{Candle: c})

	// Orders created on a prior bar fill now. Orders created this bar
	// stay pending until the next one.
	var kept []types.Order
	for _, o := range e.state.OpenOrders {
		if o.CreatedBarIndex >= cur {
			kept = append(kept, o)
			continue
		}

		if err := e.settleFill(o, c, cur, emit); err != nil {
			return nil, err
		}
	}
	e.state.OpenOrders = kept

	view := e.state.View()
	sig := e.strategy.OnCandle(view, c)
	if cur < e.cfg.MinBarsWarmup {
		// The generator still ticks to warm its indicators, but its
		// output is discarded below the warmup threshold.
		sig = nil
	}

	if sig != nil {
		emit(*sig)

		switch sig.Direction {
		case types.SignalDirectionLong:
			e.handleLong(sig, c, cur, emit)
		case types.SignalDirectionExit:
			e.handleExit(sig, c, cur, lookahead, emit)
		}
	}

	e.forceLiquidation(c, cur, emit)
	e.accountEquity(c, emit)

	e.state.BarIndex = cur + 1

	return events, nil
}

// settleFill resolves one pending order at this bar's open, adjusted
// directionally by slippage, or at the oracle-penalized price when the
// order carries one.
func (e *Executor) settleFill(o types.Order, c types.Candle, cur int64, emit func(types.EventPayload)) error {
	switch o.Side {
	case types.SideBuy:
		return e.settleBuy(o, c, cur, emit)
	case types.SideSell:
		return e.settleSell(o, c, cur, emit)
	}

	return errors.Newf(errors.ErrCodeInvariantViolation, "order %s has unknown side %q", o.ID, o.Side)
}

func (e *Executor) settleBuy(o types.Order, c types.Candle, cur int64, emit func(types.EventPayload)) error {
	if e.state.Position.IsOpen() {
		return errors.Newf(errors.ErrCodeInvariantViolation, "buy order %s filling against an open position", o.ID)
	}

	price := c.Open * (1 + e.cfg.SlippageBps/10_000)
	fee := e.fee(price, o.Qty)
	cost, _ := decimal.NewFromFloat(price).
		Mul(decimal.NewFromFloat(o.Qty)).
		Add(decimal.NewFromFloat(fee)).
		Float64()

	// The order was sized against the prior close; a gap at the open can
	// still overdraw the account. Cash never goes negative: the order is
	// cancelled instead.
	if cost > e.state.Cash {
		o.Status = types.OrderStatusCancelled
		emit(types.OrderPayload{Order: o})
		emit(types.StatusPayload{
			Code:    StatusOrderCancelled,
			Message: fmt.Sprintf("order %s cancelled: fill cost %.2f exceeds cash %.2f", o.ID, cost, e.state.Cash),
		})

		return nil
	}

	o.Status = types.OrderStatusFilled
	o.FilledPrice = optional.Some(price)

	e.state.Cash -= cost
	e.state.Position = types.Position{
		Side:          types.PositionSideLong,
		Qty:           o.Qty,
		EntryPrice:    price,
		EntryTs:       c.Ts,
		EntryBarIndex: cur,
	}

	emit(types.FillPayload{
		OrderID:  o.ID,
		Side:     o.Side,
		Qty:      o.Qty,
		Price:    price,
		Fee:      fee,
		BarIndex: cur,
	})

	e.log.Debug("buy filled",
		zap.String("strategy", e.id),
		zap.String("order", o.ID),
		zap.Float64("price", price),
		zap.Float64("qty", o.Qty))

	return nil
}

func (e *Executor) settleSell(o types.Order, c types.Candle, cur int64, emit func(types.EventPayload)) error {
	pos := e.state.Position
	if !pos.IsOpen() {
		// A sell with nothing to sell resolves as a no-op cancellation.
		o.Status = types.OrderStatusCancelled
		emit(types.OrderPayload{Order: o})

		return nil
	}

	price := o.OraclePenalizedPrice.TakeOr(c.Open * (1 - e.cfg.SlippageBps/10_000))
	o.Status = types.OrderStatusFilled
	o.FilledPrice = optional.Some(price)

	entryFee := e.fee(pos.EntryPrice, pos.Qty)
	exitFee := e.fee(price, pos.Qty)

	gross, _ := decimal.NewFromFloat(price).
		Sub(decimal.NewFromFloat(pos.EntryPrice)).
		Mul(decimal.NewFromFloat(pos.Qty)).
		Float64()
	fees, _ := decimal.NewFromFloat(entryFee).Add(decimal.NewFromFloat(exitFee)).Float64()
	net, _ := decimal.NewFromFloat(gross).Sub(decimal.NewFromFloat(fees)).Float64()
	proceeds, _ := decimal.NewFromFloat(price).
		Mul(decimal.NewFromFloat(pos.Qty)).
		Sub(decimal.NewFromFloat(exitFee)).
		Float64()

	e.state.Cash += proceeds
	e.state.Position = types.FlatPosition()

	trade := types.Trade{
		ID:         e.newID("trade", cur),
		StrategyID: e.id,
		Status:     types.TradeStatusClosed,
		Qty:        pos.Qty,
		EntryTs:    pos.EntryTs,
		ExitTs:     c.Ts,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  price,
		GrossPnl:   gross,
		Fees:       fees,
		NetPnl:     net,
		HoldBars:   cur - pos.EntryBarIndex,
		Reason:     o.Reason,
	}

	e.state.Stats.Record(trade)
	e.recordRolling(net > 0, trade.PnlBps())

	emit(types.FillPayload{
		OrderID:  o.ID,
		Side:     o.Side,
		Qty:      pos.Qty,
		Price:    price,
		Fee:      exitFee,
		BarIndex: cur,
	})
	emit(types.TradePayload{Trade: trade})

	e.log.Debug("trade closed",
		zap.String("strategy", e.id),
		zap.String("trade", trade.ID),
		zap.Float64("net_pnl", net),
		zap.Int64("hold_bars", trade.HoldBars))

	return nil
}

// handleLong runs the walk-forward admission filter, sizes the entry, and
// creates a pending BUY order.
func (e *Executor) handleLong(sig *types.SignalPayload, c types.Candle, cur int64, emit func(types.EventPayload)) {
	if e.state.Position.IsOpen() || e.hasPending(types.SideBuy) {
		return
	}

	verdict := evaluateWalkForward(e.cfg.WalkForward, e.state.Stats.TotalTrades, e.state.RollingWins, e.state.RollingPnlsBps)
	if !verdict.admitted {
		emit(types.StatusPayload{Code: StatusWalkForwardRejected, Message: verdict.reason})
		e.log.Info("entry rejected",
			zap.String("strategy", e.id),
			zap.Float64("win_prob", verdict.winProb),
			zap.Float64("ev_bps", verdict.evBps))

		return
	}

	estPrice := c.Close * (1 + e.cfg.SlippageBps/10_000)
	budget := e.state.Cash * e.cfg.RiskFraction
	qty := budget / (estPrice * (1 + e.cfg.FeeBps/10_000))
	if qty <= 0 {
		emit(types.StatusPayload{
			Code:    StatusOrderRejected,
			Message: fmt.Sprintf("order rejected: no sizeable quantity with cash %.2f", e.state.Cash),
		})

		return
	}

	estCost := estPrice*qty + e.fee(estPrice, qty)
	if estCost > e.state.Cash {
		emit(types.StatusPayload{
			Code:    StatusOrderRejected,
			Message: fmt.Sprintf("order rejected: estimated cost %.2f exceeds cash %.2f", estCost, e.state.Cash),
		})

		return
	}

	order := types.Order{
		ID:                   e.newID("order", cur),
		Side:                 types.SideBuy,
		Qty:                  qty,
		Status:               types.OrderStatusPending,
		CreatedBarIndex:      cur,
		FilledPrice:          optional.None[float64](),
		OraclePenalizedPrice: optional.None[float64](),
		Reason: types.Reason{
			Reason:  types.OrderReasonSignal,
			Message: sig.Reason,
		},
	}

	e.state.OpenOrders = append(e.state.OpenOrders, order)
	emit(types.OrderPayload{Order: order})
}

// handleExit creates a pending SELL for the open position, optionally
// carrying an oracle-penalized price when look-ahead candles are present.
func (e *Executor) handleExit(sig *types.SignalPayload, c types.Candle, cur int64, lookahead []types.Candle, emit func(types.EventPayload)) {
	if !e.state.Position.IsOpen() || e.hasPending(types.SideSell) {
		return
	}

	naiveExit := c.Close * (1 - e.cfg.SlippageBps/10_000)
	order := types.Order{
		ID:                   e.newID("order", cur),
		Side:                 types.SideSell,
		Qty:                  e.state.Position.Qty,
		Status:               types.OrderStatusPending,
		CreatedBarIndex:      cur,
		FilledPrice:          optional.None[float64](),
		OraclePenalizedPrice: evaluateOracleExit(e.cfg.Oracle, naiveExit, lookahead),
		Reason: types.Reason{
			Reason:  types.OrderReasonSignal,
			Message: sig.Reason,
		},
	}

	e.state.OpenOrders = append(e.state.OpenOrders, order)
	emit(types.OrderPayload{Order: order})
}

// forceLiquidation creates a SELL once the position has been held for
// MaxHoldBars and no exit is already pending.
func (e *Executor) forceLiquidation(c types.Candle, cur int64, emit func(types.EventPayload)) {
	pos := e.state.Position
	if !pos.IsOpen() || e.hasPending(types.SideSell) {
		return
	}

	held := cur - pos.EntryBarIndex
	if held < e.cfg.MaxHoldBars {
		return
	}

	order := types.Order{
		ID:                   e.newID("order", cur),
		Side:                 types.SideSell,
		Qty:                  pos.Qty,
		Status:               types.OrderStatusPending,
		CreatedBarIndex:      cur,
		FilledPrice:          optional.None[float64](),
		OraclePenalizedPrice: optional.None[float64](),
		Reason: types.Reason{
			Reason:  types.OrderReasonForcedLiquidation,
			Message: fmt.Sprintf("held %d bars, limit %d", held, e.cfg.MaxHoldBars),
		},
	}

	e.state.OpenOrders = append(e.state.OpenOrders, order)
	emit(types.OrderPayload{Order: order})
}

// accountEquity marks the position to this bar's close, tracks the
// lifetime peak, and emits the per-bar equity event.
func (e *Executor) accountEquity(c types.Candle, emit func(types.EventPayload)) {
	equity := e.state.Cash + e.state.Position.Value(c.Close)
	e.state.Equity = equity
	if equity > e.state.PeakEquity {
		e.state.PeakEquity = equity
	}

	drawdownBps := 0.0
	if e.state.PeakEquity > 0 && equity < e.state.PeakEquity {
		drawdownBps = (e.state.PeakEquity - equity) / e.state.PeakEquity * 10_000
	}

	emit(types.EquityPayload{
		Cash:        e.state.Cash,
		Equity:      equity,
		PeakEquity:  e.state.PeakEquity,
		DrawdownBps: drawdownBps,
	})
}

// recordRolling appends one closed-trade outcome to the walk-forward ring
// buffers, evicting entries past the lookback window.
func (e *Executor) recordRolling(win bool, pnlBps float64) {
	e.state.RollingWins = append(e.state.RollingWins, win)
	e.state.RollingPnlsBps = append(e.state.RollingPnlsBps, pnlBps)

	if n := len(e.state.RollingWins) - e.cfg.WalkForward.Lookback; n > 0 {
		e.state.RollingWins = e.state.RollingWins[n:]
		e.state.RollingPnlsBps = e.state.RollingPnlsBps[n:]
	}
}

func (e *Executor) hasPending(side types.Side) bool {
	for _, o := range e.state.OpenOrders {
		if o.Side == side && o.Status == types.OrderStatusPending {
			return true
		}
	}

	return false
}

func (e *Executor) fee(price, qty float64) float64 {
	fee, _ := decimal.NewFromFloat(price).
		Mul(decimal.NewFromFloat(qty)).
		Mul(decimal.NewFromFloat(e.cfg.FeeBps)).
		Div(decimal.NewFromInt(10_000)).
		Float64()

	return fee
}

// newID derives a stable identifier from the instance, kind and bar
// index. Determinism requires that no ID ever comes from a random source.
func (e *Executor) newID(kind string, barIndex int64) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s:%s:%d", e.id, kind, barIndex))).String()
}
