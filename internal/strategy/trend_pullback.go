package strategy

import (
	"fmt"

	"github.com/stratforge-lab/stratforge/internal/indicator"
	"github.com/stratforge-lab/stratforge/internal/types"
)

const (
	trendPullbackEntryRSI = 40.0
	trendPullbackExitRSI  = 70.0
)

// TrendPullback buys short-term weakness inside an established uptrend:
// fast EMA above slow EMA with positive regression slope, entered when
// the short-period RSI dips.
type TrendPullback struct {
	fast  *indicator.EMA
	slow  *indicator.EMA
	slope *indicator.Slope
	rsi   *indicator.RSI
}

// NewTrendPullback creates the trend-pullback profile with default periods.
func NewTrendPullback() *TrendPullback {
	return &TrendPullback{
		fast:  indicator.NewEMA(20),
		slow:  indicator.NewEMA(50),
		slope: indicator.NewSlope(10),
		rsi:   indicator.NewRSI(7),
	}
}

// Name implements Strategy.
func (s *TrendPullback) Name() string {
	return "trend-pullback"
}

// OnCandle implements Strategy.
func (s *TrendPullback) OnCandle(view types.StrategyView, c types.Candle) *types.SignalPayload {
	fast := s.fast.Update(c.Close)
	slow := s.slow.Update(c.Close)
	slope := s.slope.Update(c.Close)
	rsi := s.rsi.Update(c.Close)

	if !s.slow.Ready() || !s.slope.Ready() || !s.rsi.Ready() {
		return nil
	}

	if view.Position.IsOpen() {
		if c.Close < slow || rsi > trendPullbackExitRSI {
			return exit("trend exhausted", s.Indicators())
		}

		return nil
	}

	if fast > slow && slope > 0 && rsi < trendPullbackEntryRSI {
		reason := fmt.Sprintf("pullback in uptrend (rsi=%.1f slope=%.4f)", rsi, slope)

		return long(reason, s.Indicators())
	}

	return nil
}

// Reset implements Strategy.
func (s *TrendPullback) Reset() {
	s.fast.Reset()
	s.slow.Reset()
	s.slope.Reset()
	s.rsi.Reset()
}

// Indicators implements Strategy.
func (s *TrendPullback) Indicators() map[string]float64 {
	return map[string]float64{
		"ema_fast": s.fast.Value(),
		"ema_slow": s.slow.Value(),
		"slope":    s.slope.Value(),
		"rsi":      s.rsi.Value(),
	}
}
