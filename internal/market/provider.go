// Package market supplies candle data to the simulation layer. Providers
// return the requested range together with detected grid gaps; callers
// treat non-empty gaps as fatal for session startup.
package market

import (
	"context"

	"github.com/stratforge-lab/stratforge/internal/types"
)

// Gap marks a missing stretch on the timeframe grid, inclusive of both
// bounds.
type Gap struct {
	FromMs int64 `yaml:"from_ms" json:"from_ms"`
	ToMs   int64 `yaml:"to_ms" json:"to_ms"`
}

// CandleBatch is the result of one LoadCandles call.
type CandleBatch struct {
	Candles []types.Candle `yaml:"candles" json:"candles"`
	Gaps    []Gap          `yaml:"gaps" json:"gaps"`
}

// CandleProvider loads bar data for a symbol and timeframe.
type CandleProvider interface {
	LoadCandles(ctx context.Context, symbol string, timeframe types.Timeframe, startMs, endMs int64) (CandleBatch, error)
}

// detectGaps walks a sorted candle series and reports every hole on the
// timeframe grid.
func detectGaps(candles []types.Candle, intervalMs int64) []Gap {
	var gaps []Gap
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Ts
		cur := candles[i].Ts
		if cur-prev > intervalMs {
			gaps = append(gaps, Gap{
				FromMs: prev + intervalMs,
				ToMs:   cur - intervalMs,
			})
		}
	}

	return gaps
}
