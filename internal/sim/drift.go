package sim

import (
	"hash/fnv"
	"math"

	"github.com/stratforge-lab/stratforge/internal/types"
)

const msPerMonth = int64(30 * 24 * 60 * 60 * 1000)

// driftLevel maps a strategy identifier to a stable factor in [0.5, 1.5).
// The same identifier always yields the same level, so the fabricated
// price path is reproducible across restarts and hosts.
func driftLevel(strategyID string) float64 {
	h := fnv.New32a()
	h.Write([]byte(strategyID))

	return 0.5 + float64(h.Sum32()%1000)/1000.0
}

// PerBarDriftMultiplier returns the multiplier applied once per bar so
// the compounded drift over one month matches the target monthly return
// in basis points, scaled by the strategy's stable drift level.
func PerBarDriftMultiplier(strategyID string, targetMonthlyBps float64, timeframe types.Timeframe) (float64, error) {
	intervalMs, err := timeframe.DurationMs()
	if err != nil {
		return 0, err
	}

	barsPerMonth := float64(msPerMonth) / float64(intervalMs)
	monthly := 1 + targetMonthlyBps*driftLevel(strategyID)/10_000

	return math.Pow(monthly, 1/barsPerMonth), nil
}

// ApplyDrift scales a candle's prices by the drift compounded over the
// bars elapsed since the session origin. Volume is left untouched.
func ApplyDrift(c types.Candle, multiplier float64, barsElapsed int64) types.Candle {
	factor := math.Pow(multiplier, float64(barsElapsed))

	c.Open *= factor
	c.High *= factor
	c.Low *= factor
	c.Close *= factor

	return c
}
