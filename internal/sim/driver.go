// Package sim contains the simulation layer: a driver that advances one
// persisted strategy account bar by bar with fabricated price drift, and
// a runner that paces many drivers concurrently with pause/resume/stop
// and restart-safe snapshots.
package sim

import (
	"context"

	"go.uber.org/zap"

	"github.com/stratforge-lab/stratforge/internal/engine"
	"github.com/stratforge-lab/stratforge/internal/logger"
	"github.com/stratforge-lab/stratforge/internal/market"
	"github.com/stratforge-lab/stratforge/internal/store"
	"github.com/stratforge-lab/stratforge/internal/types"
	"github.com/stratforge-lab/stratforge/pkg/errors"
)

// DriverConfig describes one simulated account's data feed and drift.
type DriverConfig struct {
	Symbol    string          `yaml:"symbol" json:"symbol" validate:"required"`
	Timeframe types.Timeframe `yaml:"timeframe" json:"timeframe" validate:"required"`
	// StartMs is the bar the session begins at; it is aligned down to
	// the timeframe grid.
	StartMs int64 `yaml:"start_ms" json:"start_ms" validate:"required,gt=0"`
	// TargetMonthlyDriftBps is the monthly return the fabricated drift
	// compounds to before per-strategy scaling.
	TargetMonthlyDriftBps float64 `yaml:"target_monthly_drift_bps" json:"target_monthly_drift_bps"`
	// EquitySnapshotEveryBars bounds how often equity rows are persisted.
	EquitySnapshotEveryBars int64 `yaml:"equity_snapshot_every_bars" json:"equity_snapshot_every_bars" validate:"gt=0"`
}

// Driver wraps one persisted account. Each Tick advances the executor by
// exactly one bar and persists the results through the Store.
// Persistence failures are recorded on LastError and never kill the
// loop.
type Driver struct {
	strategyID string
	cfg        DriverConfig
	exec       *engine.Executor
	store      store.Store
	provider   market.CandleProvider
	clock      Clock
	log        *logger.Logger

	intervalMs int64
	driftMul   float64
	cursorMs   int64
	lastErr    error
}

// NewDriver builds a driver with its cursor aligned to the timeframe
// grid at the configured start.
func NewDriver(strategyID string, cfg DriverConfig, exec *engine.Executor, st store.Store, provider market.CandleProvider, clock Clock, log *logger.Logger) (*Driver, error) {
	intervalMs, err := cfg.Timeframe.DurationMs()
	if err != nil {
		return nil, err
	}

	cursorMs, err := cfg.Timeframe.Align(cfg.StartMs)
	if err != nil {
		return nil, err
	}

	driftMul, err := PerBarDriftMultiplier(strategyID, cfg.TargetMonthlyDriftBps, cfg.Timeframe)
	if err != nil {
		return nil, err
	}

	if cfg.EquitySnapshotEveryBars <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "equity snapshot interval must be positive")
	}

	if clock == nil {
		clock = SystemClock()
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Driver{
		strategyID: strategyID,
		cfg:        cfg,
		exec:       exec,
		store:      st,
		provider:   provider,
		clock:      clock,
		log:        log,
		intervalMs: intervalMs,
		driftMul:   driftMul,
		cursorMs:   cursorMs,
		lastErr:    nil,
	}, nil
}

// CursorMs returns the open time of the next bar to process.
func (d *Driver) CursorMs() int64 { return d.cursorMs }

// LastError returns the error recorded by the most recent tick, nil
// when it fully succeeded.
func (d *Driver) LastError() error { return d.lastErr }

// Executor exposes the wrapped execution core.
func (d *Driver) Executor() *engine.Executor { return d.exec }

// Snapshot captures the resumable state of this driver.
func (d *Driver) Snapshot() store.Snapshot {
	return store.Snapshot{
		StrategyID: d.strategyID,
		CursorMs:   d.cursorMs,
		State:      d.exec.State(),
	}
}

// Restore re-injects a persisted snapshot: executor state and cursor.
func (d *Driver) Restore(snap store.Snapshot) {
	d.exec.SetState(snap.State)
	d.cursorMs = snap.CursorMs
}

// Tick processes the bar at the cursor. It reports false without
// advancing when the bar has not fully elapsed yet; the cursor never
// passes the clock.
func (d *Driver) Tick(ctx context.Context) (bool, error) {
	d.lastErr = nil

	barEnd := d.cursorMs + d.intervalMs
	if barEnd > d.clock.Now().UnixMilli() {
		return false, nil
	}

	batch, err := d.provider.LoadCandles(ctx, d.cfg.Symbol, d.cfg.Timeframe, d.cursorMs, d.cursorMs)
	if err != nil {
		d.lastErr = err

		return false, err
	}

	if len(batch.Candles) == 0 {
		// A hole in the feed. Record it and step over; the next bar is
		// independent.
		d.lastErr = errors.Newf(errors.ErrCodeDataNotFound, "no candle at %d for %s", d.cursorMs, d.cfg.Symbol)
		d.cursorMs = barEnd

		return true, nil
	}

	barIndex := d.exec.State().BarIndex
	candle := ApplyDrift(batch.Candles[0], d.driftMul, barIndex)

	// Live path: no look-ahead candles, ever.
	events, err := d.exec.ProcessBar(candle, nil)
	if err != nil {
		d.lastErr = err

		return false, err
	}

	d.persist(events, barIndex)
	d.cursorMs = barEnd

	return true, nil
}

// persist writes the tick's outcome through the Store. Each failure is
// logged and recorded; the tick still completes.
func (d *Driver) persist(events []types.StrategyEvent, barIndex int64) {
	for _, event := range events {
		if err := d.store.InsertEvent(d.strategyID, event); err != nil {
			// A duplicate seq means this event was already persisted by
			// a previous incarnation; skipping it is the idempotent path.
			if errors.HasCode(err, errors.ErrCodeDuplicateSequence) {
				continue
			}

			d.recordErr("insert event", err)

			continue
		}

		switch p := event.Payload.(type) {
		case types.TradePayload:
			if err := d.store.InsertTrade(p.Trade); err != nil {
				d.recordErr("insert trade", err)
			}
		case types.EquityPayload:
			if barIndex%d.cfg.EquitySnapshotEveryBars == 0 {
				if err := d.store.InsertEquitySnapshot(d.strategyID, event.Ts, p); err != nil {
					d.recordErr("insert equity snapshot", err)
				}
			}
		}
	}

	if err := d.store.UpsertPosition(d.strategyID, d.exec.State().Position); err != nil {
		d.recordErr("upsert position", err)
	}
}

func (d *Driver) recordErr(op string, err error) {
	d.lastErr = errors.Wrapf(errors.ErrCodePersistenceFailed, err, "failed to %s", op)
	d.log.Error("tick persistence failure",
		zap.String("strategy", d.strategyID),
		zap.String("op", op),
		zap.Error(err))
}
