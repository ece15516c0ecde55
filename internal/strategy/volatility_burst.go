package strategy

import (
	"fmt"

	"github.com/stratforge-lab/stratforge/internal/indicator"
	"github.com/stratforge-lab/stratforge/internal/types"
)

const (
	volatilityBurstMinPercentile = 0.95
	volatilityBurstMinRelVolume  = 2.0
	volatilityBurstExitPct       = 0.5
)

// VolatilityBurst chases rare expansion bars: the latest return ranks at
// the top of its rolling window, the move is upward, and volume confirms.
type VolatilityBurst struct {
	percentile *indicator.ReturnPercentile
	volume     *indicator.VolumeMA
	prevClose  float64
	seeded     bool
}

// NewVolatilityBurst creates the volatility-burst profile with default periods.
func NewVolatilityBurst() *VolatilityBurst {
	return &VolatilityBurst{
		percentile: indicator.NewReturnPercentile(50),
		volume:     indicator.NewVolumeMA(20),
		prevClose:  0,
		seeded:     false,
	}
}

// Name implements Strategy.
func (s *VolatilityBurst) Name() string {
	return "volatility-burst"
}

// OnCandle implements Strategy.
func (s *VolatilityBurst) OnCandle(view types.StrategyView, c types.Candle) *types.SignalPayload {
	relVolume := s.volume.Relative(c.Volume)
	pct := s.percentile.Update(c.Close)
	s.volume.Update(c.Volume)

	upBar := s.seeded && c.Close > s.prevClose
	s.prevClose = c.Close
	s.seeded = true

	if !s.percentile.Ready() || !s.volume.Ready() {
		return nil
	}

	if view.Position.IsOpen() {
		if pct <= volatilityBurstExitPct {
			return exit("burst faded", s.Indicators())
		}

		return nil
	}

	if pct >= volatilityBurstMinPercentile && upBar && relVolume >= volatilityBurstMinRelVolume {
		reason := fmt.Sprintf("volatility burst breakout (percentile=%.2f relVol=%.2f)", pct, relVolume)

		return long(reason, s.Indicators())
	}

	return nil
}

// Reset implements Strategy.
func (s *VolatilityBurst) Reset() {
	s.percentile.Reset()
	s.volume.Reset()
	s.prevClose = 0
	s.seeded = false
}

// Indicators implements Strategy.
func (s *VolatilityBurst) Indicators() map[string]float64 {
	return map[string]float64{
		"return_percentile": s.percentile.Value(),
		"volume_ma":         s.volume.Value(),
	}
}
