package market

import (
	"context"
	"sort"

	"github.com/stratforge-lab/stratforge/internal/types"
	"github.com/stratforge-lab/stratforge/pkg/errors"
)

// SliceProvider serves candles from an in-memory slice. It backs tests,
// replay runs and dry runs.
type SliceProvider struct {
	candles []types.Candle
}

// NewSliceProvider copies and sorts the given candles by timestamp.
func NewSliceProvider(candles []types.Candle) *SliceProvider {
	sorted := append([]types.Candle(nil), candles...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Ts < sorted[j].Ts })

	return &SliceProvider{candles: sorted}
}

// LoadCandles implements CandleProvider. The symbol is ignored; a slice
// provider holds exactly one series.
func (p *SliceProvider) LoadCandles(ctx context.Context, symbol string, timeframe types.Timeframe, startMs, endMs int64) (CandleBatch, error) {
	if err := ctx.Err(); err != nil {
		return CandleBatch{}, err
	}

	intervalMs, err := timeframe.DurationMs()
	if err != nil {
		return CandleBatch{}, err
	}

	if startMs > endMs {
		return CandleBatch{}, errors.Newf(errors.ErrCodeInvalidParameter, "start %d after end %d", startMs, endMs)
	}

	var out []types.Candle
	for _, c := range p.candles {
		if c.Ts >= startMs && c.Ts <= endMs {
			out = append(out, c)
		}
	}

	return CandleBatch{
		Candles: out,
		Gaps:    detectGaps(out, intervalMs),
	}, nil
}
