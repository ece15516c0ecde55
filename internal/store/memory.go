package store

import (
	"sync"

	"github.com/moznion/go-optional"

	"github.com/stratforge-lab/stratforge/internal/types"
	"github.com/stratforge-lab/stratforge/pkg/errors"
)

// MemoryStore keeps everything in process memory. It backs unit tests
// and dry runs; semantics mirror the DuckDB store, including the
// duplicate-sequence rejection.
type MemoryStore struct {
	mu sync.Mutex

	strategies map[string]StrategyRecord
	positions  map[string]types.Position
	trades     map[string][]types.Trade
	equity     map[string][]equityRow
	eventSeqs  map[string]map[int64]struct{}
	events     map[string][]types.StrategyEvent
	snapshots  map[string]Snapshot
}

type equityRow struct {
	Ts   int64
	Snap types.EquityPayload
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		strategies: make(map[string]StrategyRecord),
		positions:  make(map[string]types.Position),
		trades:     make(map[string][]types.Trade),
		equity:     make(map[string][]equityRow),
		eventSeqs:  make(map[string]map[int64]struct{}),
		events:     make(map[string][]types.StrategyEvent),
		snapshots:  make(map[string]Snapshot),
	}
}

// Initialize implements Store.
func (m *MemoryStore) Initialize() error { return nil }

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }

// GetStrategy implements Store.
func (m *MemoryStore) GetStrategy(id string) (optional.Option[StrategyRecord], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.strategies[id]
	if !ok {
		return optional.None[StrategyRecord](), nil
	}

	return optional.Some(rec), nil
}

// UpsertStrategy implements Store.
func (m *MemoryStore) UpsertStrategy(rec StrategyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.strategies[rec.ID] = rec

	return nil
}

// GetProfile implements Store.
func (m *MemoryStore) GetProfile(strategyID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.strategies[strategyID]
	if !ok {
		return "", errors.Newf(errors.ErrCodeDataNotFound, "strategy %s not registered", strategyID)
	}

	return rec.Profile, nil
}

// GetPosition implements Store.
func (m *MemoryStore) GetPosition(strategyID string) (types.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.positions[strategyID]
	if !ok {
		return types.FlatPosition(), nil
	}

	return pos, nil
}

// UpsertPosition implements Store.
func (m *MemoryStore) UpsertPosition(strategyID string, pos types.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.positions[strategyID] = pos

	return nil
}

// GetOpenTrade implements Store.
func (m *MemoryStore) GetOpenTrade(strategyID string) (optional.Option[types.Trade], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.trades[strategyID] {
		if t.Status == types.TradeStatusOpen {
			return optional.Some(t), nil
		}
	}

	return optional.None[types.Trade](), nil
}

// InsertTrade implements Store.
func (m *MemoryStore) InsertTrade(t types.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.trades[t.StrategyID] = append(m.trades[t.StrategyID], t)

	return nil
}

// UpdateTrade implements Store.
func (m *MemoryStore) UpdateTrade(t types.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.trades[t.StrategyID] {
		if existing.ID == t.ID {
			m.trades[t.StrategyID][i] = t

			return nil
		}
	}

	return errors.Newf(errors.ErrCodeDataNotFound, "trade %s not found", t.ID)
}

// GetTrades implements Store.
func (m *MemoryStore) GetTrades(strategyID string) ([]types.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]types.Trade(nil), m.trades[strategyID]...), nil
}

// InsertEquitySnapshot implements Store.
func (m *MemoryStore) InsertEquitySnapshot(strategyID string, ts int64, snap types.EquityPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.equity[strategyID] = append(m.equity[strategyID], equityRow{Ts: ts, Snap: snap})

	return nil
}

// InsertEvent implements Store.
func (m *MemoryStore) InsertEvent(strategyID string, event types.StrategyEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seqs, ok := m.eventSeqs[strategyID]
	if !ok {
		seqs = make(map[int64]struct{})
		m.eventSeqs[strategyID] = seqs
	}

	if _, dup := seqs[event.Seq]; dup {
		return errors.Newf(errors.ErrCodeDuplicateSequence, "event seq %d already persisted for %s", event.Seq, strategyID)
	}

	seqs[event.Seq] = struct{}{}
	m.events[strategyID] = append(m.events[strategyID], event)

	return nil
}

// GetEvents returns all persisted events for a strategy, in insertion
// order. Test helper; not part of the Store interface.
func (m *MemoryStore) GetEvents(strategyID string) []types.StrategyEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]types.StrategyEvent(nil), m.events[strategyID]...)
}

// EquityCount returns how many equity snapshots were persisted. Test
// helper.
func (m *MemoryStore) EquityCount(strategyID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.equity[strategyID])
}

// GetSnapshot implements Store.
func (m *MemoryStore) GetSnapshot(strategyID string) (optional.Option[Snapshot], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, ok := m.snapshots[strategyID]
	if !ok {
		return optional.None[Snapshot](), nil
	}

	return optional.Some(snap), nil
}

// SaveSnapshot implements Store.
func (m *MemoryStore) SaveSnapshot(snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap.State = snap.State.Clone()
	m.snapshots[snap.StrategyID] = snap

	return nil
}
