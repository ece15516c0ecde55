package strategy

import (
	"fmt"

	"github.com/stratforge-lab/stratforge/internal/indicator"
	"github.com/stratforge-lab/stratforge/internal/types"
)

// ChannelReversion buys closes below the lower Keltner channel line and
// exits once price has recovered to the channel midline.
type ChannelReversion struct {
	channel *indicator.KeltnerChannel
}

// NewChannelReversion creates the channel-reversion profile with default periods.
func NewChannelReversion() *ChannelReversion {
	return &ChannelReversion{
		channel: indicator.NewKeltnerChannel(20, 14, 2.0),
	}
}

// Name implements Strategy.
func (s *ChannelReversion) Name() string {
	return "channel-reversion"
}

// OnCandle implements Strategy.
func (s *ChannelReversion) OnCandle(view types.StrategyView, c types.Candle) *types.SignalPayload {
	lower := s.channel.Lower()
	middle := s.channel.Middle()
	ready := s.channel.Ready()

	s.channel.UpdateBar(c.High, c.Low, c.Close)

	if !ready {
		return nil
	}

	if view.Position.IsOpen() {
		if c.Close >= middle {
			return exit("recovered to channel midline", s.Indicators())
		}

		return nil
	}

	if c.Close < lower {
		reason := fmt.Sprintf("close below keltner channel (close=%.4f lower=%.4f)", c.Close, lower)

		return long(reason, s.Indicators())
	}

	return nil
}

// Reset implements Strategy.
func (s *ChannelReversion) Reset() {
	s.channel.Reset()
}

// Indicators implements Strategy.
func (s *ChannelReversion) Indicators() map[string]float64 {
	return map[string]float64{
		"kc_middle": s.channel.Middle(),
		"kc_upper":  s.channel.Upper(),
		"kc_lower":  s.channel.Lower(),
	}
}
