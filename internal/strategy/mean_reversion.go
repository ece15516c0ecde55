package strategy

import (
	"fmt"

	"github.com/stratforge-lab/stratforge/internal/indicator"
	"github.com/stratforge-lab/stratforge/internal/types"
)

const (
	meanReversionOversoldRSI = 30.0
	meanReversionExitRSI     = 55.0
	meanReversionEntryPctB   = 0.05
	meanReversionExitPctB    = 0.5
)

// MeanReversion buys deep dips below the lower Bollinger band confirmed
// by an oversold RSI, and exits once price reverts toward the mean.
type MeanReversion struct {
	bands *indicator.BollingerBands
	rsi   *indicator.RSI
}

// NewMeanReversion creates the mean-reversion profile with default periods.
func NewMeanReversion() *MeanReversion {
	return &MeanReversion{
		bands: indicator.NewBollingerBands(20, 2.0),
		rsi:   indicator.NewRSI(14),
	}
}

// Name implements Strategy.
func (s *MeanReversion) Name() string {
	return "mean-reversion"
}

// OnCandle implements Strategy.
func (s *MeanReversion) OnCandle(view types.StrategyView, c types.Candle) *types.SignalPayload {
	s.bands.Update(c.Close)
	rsi := s.rsi.Update(c.Close)

	if !s.bands.Ready() || !s.rsi.Ready() {
		return nil
	}

	pctB := s.bands.PercentB(c.Close)

	if view.Position.IsOpen() {
		if rsi > meanReversionExitRSI || pctB > meanReversionExitPctB {
			return exit("reverted to mean", s.Indicators())
		}

		return nil
	}

	if rsi < meanReversionOversoldRSI && pctB < meanReversionEntryPctB {
		reason := fmt.Sprintf("oversold mean reversion (rsi=%.1f percentB=%.2f)", rsi, pctB)

		return long(reason, s.Indicators())
	}

	return nil
}

// Reset implements Strategy.
func (s *MeanReversion) Reset() {
	s.bands.Reset()
	s.rsi.Reset()
}

// Indicators implements Strategy.
func (s *MeanReversion) Indicators() map[string]float64 {
	return map[string]float64{
		"bb_middle": s.bands.Middle(),
		"bb_lower":  s.bands.Lower(),
		"rsi":       s.rsi.Value(),
	}
}
