package engine

import "fmt"

// walkForwardVerdict is the outcome of the entry admission filter for one
// candidate entry.
type walkForwardVerdict struct {
	admitted bool
	winProb  float64
	evBps    float64
	reason   string
}

// evaluateWalkForward computes the rolling win probability and expected
// value over the lookback buffers and checks them against the configured
// thresholds. The filter stays disengaged until enough trades have
// closed, so young strategies are not starved of their first entries.
func evaluateWalkForward(cfg WalkForwardConfig, totalTrades int, wins []bool, pnlsBps []float64) walkForwardVerdict {
	if totalTrades < cfg.MinTrades || len(wins) == 0 {
		return walkForwardVerdict{admitted: true, winProb: 0, evBps: 0, reason: ""}
	}

	winCount := 0
	for _, w := range wins {
		if w {
			winCount++
		}
	}
	winProb := float64(winCount) / float64(len(wins))

	sum := 0.0
	for _, p := range pnlsBps {
		sum += p
	}
	evBps := sum / float64(len(pnlsBps))

	if winProb < cfg.MinWinProb {
		return walkForwardVerdict{
			admitted: false,
			winProb:  winProb,
			evBps:    evBps,
			reason:   fmt.Sprintf("walk-forward rejection: win probability %.2f below %.2f", winProb, cfg.MinWinProb),
		}
	}

	if evBps < cfg.MinEVBps {
		return walkForwardVerdict{
			admitted: false,
			winProb:  winProb,
			evBps:    evBps,
			reason:   fmt.Sprintf("walk-forward rejection: expected value %.1f bps below %.1f bps", evBps, cfg.MinEVBps),
		}
	}

	return walkForwardVerdict{admitted: true, winProb: winProb, evBps: evBps, reason: ""}
}
