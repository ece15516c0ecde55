package market

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/stratforge-lab/stratforge/internal/logger"
	"github.com/stratforge-lab/stratforge/internal/types"
	"github.com/stratforge-lab/stratforge/pkg/errors"
)

// DuckDBProvider reads bar data out of a DuckDB view created over a CSV
// or Parquet file.
type DuckDBProvider struct {
	db  *sql.DB
	sq  squirrel.StatementBuilderType
	log *logger.Logger
}

// NewDuckDBProvider opens an in-memory DuckDB instance for querying
// candle files.
func NewDuckDBProvider(log *logger.Logger) (*DuckDBProvider, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePersistenceFailed, "failed to open duckdb", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &DuckDBProvider{
		db:  db,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		log: log,
	}, nil
}

// Initialize creates the candles view over the given data file. CSV and
// Parquet are both supported; the file must carry ts (ms), open, high,
// low, close, volume columns and may carry a symbol column.
func (p *DuckDBProvider) Initialize(path string) error {
	if _, err := p.db.Exec(`DROP VIEW IF EXISTS candles;`); err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to drop existing view", err)
	}

	reader := "read_parquet"
	if strings.HasSuffix(path, ".csv") {
		reader = "read_csv_auto"
	}

	query := fmt.Sprintf(`CREATE VIEW candles AS SELECT * FROM %s('%s');`, reader, path)
	if _, err := p.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodePersistenceFailed, err, "failed to create candles view over %s", path)
	}

	p.log.Debug("candle view initialized", zap.String("path", path))

	return nil
}

// Close closes the underlying database.
func (p *DuckDBProvider) Close() error {
	return p.db.Close()
}

// Count returns the number of candles in the view.
func (p *DuckDBProvider) Count() (int64, error) {
	var count int64
	if err := p.db.QueryRow(`SELECT COUNT(*) FROM candles`).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count candles", err)
	}

	return count, nil
}

// LoadCandles implements CandleProvider.
func (p *DuckDBProvider) LoadCandles(ctx context.Context, symbol string, timeframe types.Timeframe, startMs, endMs int64) (CandleBatch, error) {
	intervalMs, err := timeframe.DurationMs()
	if err != nil {
		return CandleBatch{}, err
	}

	query := p.sq.
		Select("ts", "open", "high", "low", "close", "volume").
		From("candles").
		Where(squirrel.GtOrEq{"ts": startMs}).
		Where(squirrel.LtOrEq{"ts": endMs}).
		OrderBy("ts ASC").
		RunWith(p.db)

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return CandleBatch{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query candles", err)
	}
	defer rows.Close()

	var candles []types.Candle
	for rows.Next() {
		var c types.Candle
		if err := rows.Scan(&c.Ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return CandleBatch{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan candle", err)
		}
		candles = append(candles, c)
	}

	if err = rows.Err(); err != nil {
		return CandleBatch{}, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating candles", err)
	}

	return CandleBatch{
		Candles: candles,
		Gaps:    detectGaps(candles, intervalMs),
	}, nil
}
