package strategy

import (
	"fmt"

	"github.com/stratforge-lab/stratforge/internal/indicator"
	"github.com/stratforge-lab/stratforge/internal/types"
)

const (
	breakoutSqueezeBandwidth = 0.04
	breakoutMinRelVolume     = 1.5
)

// Breakout enters long when price escapes a volatility squeeze on a
// volume spike: Bollinger bandwidth was compressed on the prior bar, the
// close clears the prior upper band, and relative volume confirms.
type Breakout struct {
	bands  *indicator.BollingerBands
	volume *indicator.VolumeMA
}

// NewBreakout creates the breakout profile with default periods.
func NewBreakout() *Breakout {
	return &Breakout{
		bands:  indicator.NewBollingerBands(20, 2.0),
		volume: indicator.NewVolumeMA(20),
	}
}

// Name implements Strategy.
func (s *Breakout) Name() string {
	return "breakout"
}

// OnCandle implements Strategy.
func (s *Breakout) OnCandle(view types.StrategyView, c types.Candle) *types.SignalPayload {
	// Capture the pre-update band shape: the squeeze and the breakout
	// level both refer to the window before this bar.
	ready := s.bands.Ready() && s.volume.Ready()
	prevBandwidth := s.bands.Bandwidth()
	prevUpper := s.bands.Upper()
	prevMiddle := s.bands.Middle()
	relVolume := s.volume.Relative(c.Volume)

	s.bands.Update(c.Close)
	s.volume.Update(c.Volume)

	if !ready {
		return nil
	}

	if view.Position.IsOpen() {
		if c.Close < prevMiddle {
			return exit("close back below middle band", s.Indicators())
		}

		return nil
	}

	if prevBandwidth < breakoutSqueezeBandwidth && c.Close > prevUpper && relVolume >= breakoutMinRelVolume {
		reason := fmt.Sprintf("volatility squeeze breakout (bandwidth=%.4f relVol=%.2f)", prevBandwidth, relVolume)

		return long(reason, s.Indicators())
	}

	return nil
}

// Reset implements Strategy.
func (s *Breakout) Reset() {
	s.bands.Reset()
	s.volume.Reset()
}

// Indicators implements Strategy.
func (s *Breakout) Indicators() map[string]float64 {
	return map[string]float64{
		"bb_middle":    s.bands.Middle(),
		"bb_upper":     s.bands.Upper(),
		"bb_bandwidth": s.bands.Bandwidth(),
		"volume_ma":    s.volume.Value(),
	}
}
