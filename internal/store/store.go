// Package store defines the persistence boundary of the engine. The
// execution core and the simulation driver only ever see the Store
// interface, never a concrete database.
package store

import (
	"github.com/moznion/go-optional"

	"github.com/stratforge-lab/stratforge/internal/types"
)

// StrategyRecord is the durable registration of one strategy instance.
type StrategyRecord struct {
	ID          string          `yaml:"id" json:"id"`
	Profile     string          `yaml:"profile" json:"profile"`
	Symbol      string          `yaml:"symbol" json:"symbol"`
	Timeframe   types.Timeframe `yaml:"timeframe" json:"timeframe"`
	InitialCash float64         `yaml:"initial_cash" json:"initial_cash"`
}

// Snapshot is the resumable state of one session: the full strategy
// state plus the driver's bar cursor. Restoring it lets a restarted
// process continue without reprocessing emitted events or duplicating
// trades.
type Snapshot struct {
	StrategyID string              `yaml:"strategy_id" json:"strategy_id"`
	CursorMs   int64               `yaml:"cursor_ms" json:"cursor_ms"`
	State      types.StrategyState `yaml:"state" json:"state"`
}

// Store is the persistence abstraction for strategies, positions,
// trades, equity history, events and session snapshots.
//
// InsertEvent is idempotent on (strategy, seq): re-inserting an already
// persisted sequence number fails with ErrCodeDuplicateSequence, which
// protects correctness across restarts and duplicated resumes.
type Store interface {
	Initialize() error
	Close() error

	GetStrategy(id string) (optional.Option[StrategyRecord], error)
	UpsertStrategy(rec StrategyRecord) error
	// GetProfile returns the profile slug of a registered strategy, or a
	// coded not-found error.
	GetProfile(strategyID string) (string, error)

	GetPosition(strategyID string) (types.Position, error)
	UpsertPosition(strategyID string, pos types.Position) error

	GetOpenTrade(strategyID string) (optional.Option[types.Trade], error)
	InsertTrade(t types.Trade) error
	UpdateTrade(t types.Trade) error
	GetTrades(strategyID string) ([]types.Trade, error)

	InsertEquitySnapshot(strategyID string, ts int64, snap types.EquityPayload) error
	InsertEvent(strategyID string, event types.StrategyEvent) error

	GetSnapshot(strategyID string) (optional.Option[Snapshot], error)
	SaveSnapshot(snap Snapshot) error
}

// payloadKind names the concrete payload type for durable storage. The
// switch is exhaustive over the closed union.
func payloadKind(p types.EventPayload) string {
	switch p.(type) {
	case types.CandlePayload:
		return "candle"
	case types.SignalPayload:
		return "signal"
	case types.OrderPayload:
		return "order"
	case types.FillPayload:
		return "fill"
	case types.TradePayload:
		return "trade"
	case types.EquityPayload:
		return "equity"
	case types.StatusPayload:
		return "status"
	}

	return "unknown"
}
