package strategy

import (
	"fmt"

	"github.com/stratforge-lab/stratforge/internal/indicator"
	"github.com/stratforge-lab/stratforge/internal/types"
)

const lowVolBandwidthThreshold = 0.03

// LowVolBand rides quiet uptrends: it enters while the band width stays
// compressed and price holds above the midline with a rising slope, and
// steps aside once volatility expands or the midline gives way.
type LowVolBand struct {
	bb    *indicator.BollingerBands
	slope *indicator.Slope
}

// NewLowVolBand creates the low-vol-band profile with default periods.
func NewLowVolBand() *LowVolBand {
	return &LowVolBand{
		bb:    indicator.NewBollingerBands(20, 2.0),
		slope: indicator.NewSlope(10),
	}
}

// Name implements Strategy.
func (s *LowVolBand) Name() string {
	return "low-vol-band"
}

// OnCandle implements Strategy.
func (s *LowVolBand) OnCandle(view types.StrategyView, c types.Candle) *types.SignalPayload {
	s.bb.Update(c.Close)
	slope := s.slope.Update(c.Close)

	if !s.bb.Ready() || !s.slope.Ready() {
		return nil
	}

	bandwidth := s.bb.Bandwidth()
	middle := s.bb.Middle()

	if view.Position.IsOpen() {
		if bandwidth > 2*lowVolBandwidthThreshold {
			return exit("volatility expansion", s.Indicators())
		}
		if c.Close < middle {
			return exit("close dropped below midline", s.Indicators())
		}

		return nil
	}

	if bandwidth < lowVolBandwidthThreshold && c.Close > middle && slope > 0 {
		reason := fmt.Sprintf("quiet uptrend (bandwidth=%.4f slope=%.4f)", bandwidth, slope)

		return long(reason, s.Indicators())
	}

	return nil
}

// Reset implements Strategy.
func (s *LowVolBand) Reset() {
	s.bb.Reset()
	s.slope.Reset()
}

// Indicators implements Strategy.
func (s *LowVolBand) Indicators() map[string]float64 {
	return map[string]float64{
		"bb_middle":    s.bb.Middle(),
		"bb_bandwidth": s.bb.Bandwidth(),
		"slope":        s.slope.Value(),
	}
}
