package strategy

import (
	"fmt"

	"github.com/stratforge-lab/stratforge/internal/indicator"
	"github.com/stratforge-lab/stratforge/internal/types"
)

// FastMomentum trades short EMA crossovers with a slope confirmation,
// holding only while the fast average stays on top.
type FastMomentum struct {
	fast     *indicator.EMA
	slow     *indicator.EMA
	slope    *indicator.Slope
	wasAbove bool
}

// NewFastMomentum creates the fast-momentum profile with default periods.
func NewFastMomentum() *FastMomentum {
	return &FastMomentum{
		fast:     indicator.NewEMA(5),
		slow:     indicator.NewEMA(13),
		slope:    indicator.NewSlope(5),
		wasAbove: false,
	}
}

// Name implements Strategy.
func (s *FastMomentum) Name() string {
	return "fast-momentum"
}

// OnCandle implements Strategy.
func (s *FastMomentum) OnCandle(view types.StrategyView, c types.Candle) *types.SignalPayload {
	fast := s.fast.Update(c.Close)
	slow := s.slow.Update(c.Close)
	slope := s.slope.Update(c.Close)

	above := fast > slow
	crossedUp := above && !s.wasAbove
	s.wasAbove = above

	if !s.slow.Ready() || !s.slope.Ready() {
		return nil
	}

	if view.Position.IsOpen() {
		if !above {
			return exit("fast average crossed back down", s.Indicators())
		}

		return nil
	}

	if crossedUp && slope > 0 {
		reason := fmt.Sprintf("fast momentum cross (fast=%.4f slow=%.4f)", fast, slow)

		return long(reason, s.Indicators())
	}

	return nil
}

// Reset implements Strategy.
func (s *FastMomentum) Reset() {
	s.fast.Reset()
	s.slow.Reset()
	s.slope.Reset()
	s.wasAbove = false
}

// Indicators implements Strategy.
func (s *FastMomentum) Indicators() map[string]float64 {
	return map[string]float64{
		"ema_fast": s.fast.Value(),
		"ema_slow": s.slow.Value(),
		"slope":    s.slope.Value(),
	}
}
