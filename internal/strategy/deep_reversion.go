package strategy

import (
	"fmt"

	"github.com/stratforge-lab/stratforge/internal/indicator"
	"github.com/stratforge-lab/stratforge/internal/types"
)

// DeepReversion buys capitulation bars that close below the lower band
// while a very short RSI shows an extreme oversold reading.
type DeepReversion struct {
	bb  *indicator.BollingerBands
	rsi *indicator.RSI
}

// NewDeepReversion creates the deep-reversion profile with default periods.
func NewDeepReversion() *DeepReversion {
	return &DeepReversion{
		bb:  indicator.NewBollingerBands(20, 2.0),
		rsi: indicator.NewRSI(3),
	}
}

// Name implements Strategy.
func (s *DeepReversion) Name() string {
	return "deep-reversion"
}

// OnCandle implements Strategy.
func (s *DeepReversion) OnCandle(view types.StrategyView, c types.Candle) *types.SignalPayload {
	s.bb.Update(c.Close)
	rsi := s.rsi.Update(c.Close)

	if !s.bb.Ready() || !s.rsi.Ready() {
		return nil
	}

	percentB := s.bb.PercentB(c.Close)

	if view.Position.IsOpen() {
		if percentB > 0.3 || rsi > 60 {
			return exit("reversion target reached", s.Indicators())
		}

		return nil
	}

	if percentB < 0 && rsi < 15 {
		reason := fmt.Sprintf("capitulation below lower band (percentB=%.4f rsi=%.2f)", percentB, rsi)

		return long(reason, s.Indicators())
	}

	return nil
}

// Reset implements Strategy.
func (s *DeepReversion) Reset() {
	s.bb.Reset()
	s.rsi.Reset()
}

// Indicators implements Strategy.
func (s *DeepReversion) Indicators() map[string]float64 {
	return map[string]float64{
		"bb_middle": s.bb.Middle(),
		"bb_lower":  s.bb.Lower(),
		"rsi":       s.rsi.Value(),
	}
}
