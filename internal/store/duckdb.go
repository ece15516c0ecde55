package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/stratforge-lab/stratforge/internal/logger"
	"github.com/stratforge-lab/stratforge/internal/types"
	"github.com/stratforge-lab/stratforge/pkg/errors"
)

// DuckDBStore persists everything in a DuckDB database. Pass ":memory:"
// as dsn for an ephemeral database.
type DuckDBStore struct {
	db  *sql.DB
	sq  squirrel.StatementBuilderType
	log *logger.Logger
}

// NewDuckDBStore opens the database and prepares the query builder.
func NewDuckDBStore(dsn string, log *logger.Logger) (*DuckDBStore, error) {
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePersistenceFailed, "failed to open duckdb", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &DuckDBStore{
		db:  db,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		log: log,
	}, nil
}

// Initialize creates the tables.
func (s *DuckDBStore) Initialize() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS strategies (
			id TEXT PRIMARY KEY,
			profile TEXT,
			symbol TEXT,
			timeframe TEXT,
			initial_cash DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS positions (
			strategy_id TEXT PRIMARY KEY,
			side TEXT,
			qty DOUBLE,
			entry_price DOUBLE,
			entry_ts BIGINT,
			entry_bar_index BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			strategy_id TEXT,
			status TEXT,
			qty DOUBLE,
			entry_ts BIGINT,
			exit_ts BIGINT,
			entry_price DOUBLE,
			exit_price DOUBLE,
			gross_pnl DOUBLE,
			fees DOUBLE,
			net_pnl DOUBLE,
			hold_bars BIGINT,
			reason TEXT,
			message TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS equity_snapshots (
			strategy_id TEXT,
			ts BIGINT,
			cash DOUBLE,
			equity DOUBLE,
			peak_equity DOUBLE,
			drawdown_bps DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			strategy_id TEXT,
			seq BIGINT,
			ts BIGINT,
			kind TEXT,
			payload TEXT,
			PRIMARY KEY (strategy_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			strategy_id TEXT PRIMARY KEY,
			cursor_ms BIGINT,
			state TEXT
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to create tables", err)
		}
	}

	return nil
}

// Close closes the underlying database.
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}

// GetStrategy implements Store.
func (s *DuckDBStore) GetStrategy(id string) (optional.Option[StrategyRecord], error) {
	query := s.sq.
		Select("id", "profile", "symbol", "timeframe", "initial_cash").
		From("strategies").
		Where(squirrel.Eq{"id": id}).
		RunWith(s.db)

	var rec StrategyRecord
	err := query.QueryRow().Scan(&rec.ID, &rec.Profile, &rec.Symbol, &rec.Timeframe, &rec.InitialCash)
	if err == sql.ErrNoRows {
		return optional.None[StrategyRecord](), nil
	}
	if err != nil {
		return optional.None[StrategyRecord](), errors.Wrap(errors.ErrCodeQueryFailed, "failed to get strategy", err)
	}

	return optional.Some(rec), nil
}

// UpsertStrategy implements Store.
func (s *DuckDBStore) UpsertStrategy(rec StrategyRecord) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO strategies (id, profile, symbol, timeframe, initial_cash) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Profile, rec.Symbol, string(rec.Timeframe), rec.InitialCash,
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to upsert strategy", err)
	}

	return nil
}

// GetProfile implements Store.
func (s *DuckDBStore) GetProfile(strategyID string) (string, error) {
	rec, err := s.GetStrategy(strategyID)
	if err != nil {
		return "", err
	}

	if rec.IsNone() {
		return "", errors.Newf(errors.ErrCodeDataNotFound, "strategy %s not registered", strategyID)
	}

	return rec.TakeOr(StrategyRecord{}).Profile, nil
}

// GetPosition implements Store. An absent row is a flat position, not an
// error.
func (s *DuckDBStore) GetPosition(strategyID string) (types.Position, error) {
	query := s.sq.
		Select("side", "qty", "entry_price", "entry_ts", "entry_bar_index").
		From("positions").
		Where(squirrel.Eq{"strategy_id": strategyID}).
		RunWith(s.db)

	var pos types.Position
	var side string
	err := query.QueryRow().Scan(&side, &pos.Qty, &pos.EntryPrice, &pos.EntryTs, &pos.EntryBarIndex)
	if err == sql.ErrNoRows {
		return types.FlatPosition(), nil
	}
	if err != nil {
		return types.Position{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to get position", err)
	}

	pos.Side = types.PositionSide(side)

	return pos, nil
}

// UpsertPosition implements Store.
func (s *DuckDBStore) UpsertPosition(strategyID string, pos types.Position) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO positions (strategy_id, side, qty, entry_price, entry_ts, entry_bar_index) VALUES (?, ?, ?, ?, ?, ?)`,
		strategyID, string(pos.Side), pos.Qty, pos.EntryPrice, pos.EntryTs, pos.EntryBarIndex,
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to upsert position", err)
	}

	return nil
}

// GetOpenTrade implements Store.
func (s *DuckDBStore) GetOpenTrade(strategyID string) (optional.Option[types.Trade], error) {
	query := s.sq.
		Select(tradeColumns()...).
		From("trades").
		Where(squirrel.Eq{"strategy_id": strategyID, "status": string(types.TradeStatusOpen)}).
		RunWith(s.db)

	trade, err := scanTrade(query.QueryRow())
	if err == sql.ErrNoRows {
		return optional.None[types.Trade](), nil
	}
	if err != nil {
		return optional.None[types.Trade](), errors.Wrap(errors.ErrCodeQueryFailed, "failed to get open trade", err)
	}

	return optional.Some(trade), nil
}

// InsertTrade implements Store.
func (s *DuckDBStore) InsertTrade(t types.Trade) error {
	insert := s.sq.
		Insert("trades").
		Columns(tradeColumns()...).
		Values(
			t.ID, t.StrategyID, string(t.Status), t.Qty, t.EntryTs, t.ExitTs,
			t.EntryPrice, t.ExitPrice, t.GrossPnl, t.Fees, t.NetPnl, t.HoldBars,
			t.Reason.Reason, t.Reason.Message,
		).
		RunWith(s.db)

	if _, err := insert.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to insert trade", err)
	}

	return nil
}

// UpdateTrade implements Store.
func (s *DuckDBStore) UpdateTrade(t types.Trade) error {
	update := s.sq.
		Update("trades").
		Set("status", string(t.Status)).
		Set("exit_ts", t.ExitTs).
		Set("exit_price", t.ExitPrice).
		Set("gross_pnl", t.GrossPnl).
		Set("fees", t.Fees).
		Set("net_pnl", t.NetPnl).
		Set("hold_bars", t.HoldBars).
		Set("reason", t.Reason.Reason).
		Set("message", t.Reason.Message).
		Where(squirrel.Eq{"id": t.ID}).
		RunWith(s.db)

	res, err := update.Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to update trade", err)
	}

	if affected, aerr := res.RowsAffected(); aerr == nil && affected == 0 {
		return errors.Newf(errors.ErrCodeDataNotFound, "trade %s not found", t.ID)
	}

	return nil
}

// GetTrades implements Store.
func (s *DuckDBStore) GetTrades(strategyID string) ([]types.Trade, error) {
	query := s.sq.
		Select(tradeColumns()...).
		From("trades").
		Where(squirrel.Eq{"strategy_id": strategyID}).
		OrderBy("exit_ts ASC").
		RunWith(s.db)

	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.Trade
	for rows.Next() {
		trade, serr := scanTrade(rows)
		if serr != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade", serr)
		}
		trades = append(trades, trade)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating trades", err)
	}

	return trades, nil
}

// InsertEquitySnapshot implements Store.
func (s *DuckDBStore) InsertEquitySnapshot(strategyID string, ts int64, snap types.EquityPayload) error {
	insert := s.sq.
		Insert("equity_snapshots").
		Columns("strategy_id", "ts", "cash", "equity", "peak_equity", "drawdown_bps").
		Values(strategyID, ts, snap.Cash, snap.Equity, snap.PeakEquity, snap.DrawdownBps).
		RunWith(s.db)

	if _, err := insert.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to insert equity snapshot", err)
	}

	return nil
}

// InsertEvent implements Store. The duplicate check and the insert run
// in one transaction so a concurrent duplicate cannot slip through.
func (s *DuckDBStore) InsertEvent(strategyID string, event types.StrategyEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to marshal event payload", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to begin transaction", err)
	}

	var count int
	countQuery := s.sq.
		Select("COUNT(*)").
		From("events").
		Where(squirrel.Eq{"strategy_id": strategyID, "seq": event.Seq}).
		RunWith(tx)
	if err := countQuery.QueryRow().Scan(&count); err != nil {
		tx.Rollback()

		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to check event seq", err)
	}

	if count > 0 {
		tx.Rollback()

		return errors.Newf(errors.ErrCodeDuplicateSequence, "event seq %d already persisted for %s", event.Seq, strategyID)
	}

	insert := s.sq.
		Insert("events").
		Columns("strategy_id", "seq", "ts", "kind", "payload").
		Values(strategyID, event.Seq, event.Ts, payloadKind(event.Payload), string(payload)).
		RunWith(tx)
	if _, err := insert.Exec(); err != nil {
		tx.Rollback()

		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to insert event", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to commit event", err)
	}

	return nil
}

// GetSnapshot implements Store.
func (s *DuckDBStore) GetSnapshot(strategyID string) (optional.Option[Snapshot], error) {
	query := s.sq.
		Select("cursor_ms", "state").
		From("snapshots").
		Where(squirrel.Eq{"strategy_id": strategyID}).
		RunWith(s.db)

	var cursorMs int64
	var stateJSON string
	err := query.QueryRow().Scan(&cursorMs, &stateJSON)
	if err == sql.ErrNoRows {
		return optional.None[Snapshot](), nil
	}
	if err != nil {
		return optional.None[Snapshot](), errors.Wrap(errors.ErrCodeQueryFailed, "failed to get snapshot", err)
	}

	var state types.StrategyState
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return optional.None[Snapshot](), errors.Wrap(errors.ErrCodeSnapshotNotFound, "failed to decode snapshot state", err)
	}

	return optional.Some(Snapshot{StrategyID: strategyID, CursorMs: cursorMs, State: state}), nil
}

// SaveSnapshot implements Store.
func (s *DuckDBStore) SaveSnapshot(snap Snapshot) error {
	stateJSON, err := json.Marshal(snap.State)
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to marshal snapshot state", err)
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO snapshots (strategy_id, cursor_ms, state) VALUES (?, ?, ?)`,
		snap.StrategyID, snap.CursorMs, string(stateJSON),
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to save snapshot", err)
	}

	return nil
}

// ExportParquet writes trades, equity history and events to Parquet
// files in the given directory.
func (s *DuckDBStore) ExportParquet(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to create export directory", err)
	}

	exports := map[string]string{
		"trades":           filepath.Join(dir, "trades.parquet"),
		"equity_snapshots": filepath.Join(dir, "equity.parquet"),
		"events":           filepath.Join(dir, "events.parquet"),
	}

	for table, path := range exports {
		if _, err := s.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, path)); err != nil {
			return errors.Wrapf(errors.ErrCodePersistenceFailed, err, "failed to export %s to parquet", table)
		}

		s.log.Info("exported table to parquet",
			zap.String("table", table),
			zap.String("path", path))
	}

	return nil
}

func tradeColumns() []string {
	return []string{
		"id", "strategy_id", "status", "qty", "entry_ts", "exit_ts",
		"entry_price", "exit_price", "gross_pnl", "fees", "net_pnl", "hold_bars",
		"reason", "message",
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (types.Trade, error) {
	var t types.Trade
	var status string
	err := row.Scan(
		&t.ID, &t.StrategyID, &status, &t.Qty, &t.EntryTs, &t.ExitTs,
		&t.EntryPrice, &t.ExitPrice, &t.GrossPnl, &t.Fees, &t.NetPnl, &t.HoldBars,
		&t.Reason.Reason, &t.Reason.Message,
	)
	if err != nil {
		return types.Trade{}, err
	}

	t.Status = types.TradeStatus(status)

	return t, nil
}
