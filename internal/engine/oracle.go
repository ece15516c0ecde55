package engine

import (
	"github.com/moznion/go-optional"

	"github.com/stratforge-lab/stratforge/internal/types"
)

// evaluateOracleExit searches the look-ahead horizon for the best
// attainable exit price, discounts it by the penalty, and returns it only
// when it strictly beats the naive close-based exit. Look-ahead candles
// only exist on backtest and replay paths; a live caller has none to
// give, which keeps this optimizer structurally unreachable there.
func evaluateOracleExit(cfg OracleConfig, naiveExit float64, lookahead []types.Candle) optional.Option[float64] {
	if !cfg.Enabled || len(lookahead) == 0 {
		return optional.None[float64]()
	}

	horizon := cfg.HorizonBars
	if horizon > len(lookahead) {
		horizon = len(lookahead)
	}

	best := 0.0
	for _, c := range lookahead[:horizon] {
		if c.High > best {
			best = c.High
		}
	}

	penalized := best * (1 - cfg.PenaltyBps/10_000)
	if penalized > naiveExit {
		return optional.Some(penalized)
	}

	return optional.None[float64]()
}
