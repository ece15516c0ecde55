package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/stratforge-lab/stratforge/internal/types"
	"github.com/stratforge-lab/stratforge/pkg/errors"
)

type StrategyTestSuite struct {
	suite.Suite
}

func TestStrategySuite(t *testing.T) {
	suite.Run(t, new(StrategyTestSuite))
}

func flatView() types.StrategyView {
	return types.StrategyView{
		BarIndex: 0,
		Cash:     10_000,
		Position: types.FlatPosition(),
		Equity:   10_000,
		Stats:    types.TradeStats{},
	}
}

func openView() types.StrategyView {
	view := flatView()
	view.Position = types.Position{
		Side:          types.PositionSideLong,
		Qty:           1,
		EntryPrice:    100,
		EntryTs:       0,
		EntryBarIndex: 0,
	}

	return view
}

func bar(i int, close, volume float64) types.Candle {
	return types.Candle{
		Ts:     int64(i) * 60_000,
		Open:   close,
		High:   close,
		Low:    close,
		Close:  close,
		Volume: volume,
	}
}

func feed(s Strategy, view types.StrategyView, candles []types.Candle) []*types.SignalPayload {
	signals := make([]*types.SignalPayload, 0, len(candles))
	for _, c := range candles {
		signals = append(signals, s.OnCandle(view, c))
	}

	return signals
}

func firstSignal(signals []*types.SignalPayload) *types.SignalPayload {
	for _, sig := range signals {
		if sig != nil {
			return sig
		}
	}

	return nil
}

func (suite *StrategyTestSuite) TestUnknownSlug() {
	s, err := New("no-such-profile")
	suite.Nil(s)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownProfile))
}

func (suite *StrategyTestSuite) TestAllSlugsConstructible() {
	slugs := Slugs()
	suite.Len(slugs, 8)

	for _, slug := range slugs {
		s, err := New(slug)
		suite.NoError(err)
		suite.Equal(slug, s.Name())
		suite.NotNil(s.Indicators())
	}
}

func (suite *StrategyTestSuite) TestFlatSeriesNeverSignals() {
	candles := make([]types.Candle, 0, 200)
	for i := 0; i < 200; i++ {
		candles = append(candles, bar(i, 100, 1000))
	}

	for _, slug := range Slugs() {
		s, err := New(slug)
		suite.Require().NoError(err)

		for _, sig := range feed(s, flatView(), candles) {
			suite.Nil(sig, "profile %s signalled on a flat series", slug)
		}
	}
}

func (suite *StrategyTestSuite) TestDeterministicAcrossRuns() {
	candles := make([]types.Candle, 0, 120)
	for i := 0; i < 120; i++ {
		close := 100 + 4*math.Sin(float64(i)/7) + 0.02*float64(i)
		volume := 1000 + 500*math.Abs(math.Sin(float64(i)/3))
		candles = append(candles, bar(i, close, volume))
	}

	for _, slug := range Slugs() {
		first, err := New(slug)
		suite.Require().NoError(err)
		second, err := New(slug)
		suite.Require().NoError(err)

		a := feed(first, flatView(), candles)
		b := feed(second, flatView(), candles)

		suite.Require().Equal(len(a), len(b))
		for i := range a {
			if a[i] == nil {
				suite.Nil(b[i], "profile %s diverged at bar %d", slug, i)
				continue
			}

			suite.Require().NotNil(b[i], "profile %s diverged at bar %d", slug, i)
			suite.Equal(a[i].Direction, b[i].Direction)
			suite.Equal(a[i].Reason, b[i].Reason)
		}
	}
}

func (suite *StrategyTestSuite) TestBreakoutAfterSqueeze() {
	s := NewBreakout()

	// A long quiet stretch compresses the bands to zero width.
	for i := 0; i < 25; i++ {
		suite.Nil(s.OnCandle(flatView(), bar(i, 100, 1000)))
	}

	sig := s.OnCandle(flatView(), bar(25, 110, 3000))
	suite.Require().NotNil(sig)
	suite.Equal(types.SignalDirectionLong, sig.Direction)
	suite.Contains(sig.Reason, "breakout")

	exit := s.OnCandle(openView(), bar(26, 95, 1000))
	suite.Require().NotNil(exit)
	suite.Equal(types.SignalDirectionExit, exit.Direction)
}

func (suite *StrategyTestSuite) TestBreakoutNeedsVolume() {
	s := NewBreakout()

	for i := 0; i < 25; i++ {
		s.OnCandle(flatView(), bar(i, 100, 1000))
	}

	// Same price escape, but on average volume.
	suite.Nil(s.OnCandle(flatView(), bar(25, 110, 1000)))
}

func (suite *StrategyTestSuite) TestMeanReversionEntryAndExit() {
	s := NewMeanReversion()

	candles := make([]types.Candle, 0, 32)
	for i := 0; i < 20; i++ {
		close := 100.0
		if i%2 == 1 {
			close = 101
		}
		candles = append(candles, bar(i, close, 1000))
	}
	for i := 0; i < 12; i++ {
		candles = append(candles, bar(20+i, 99-float64(i), 1000))
	}

	entry := firstSignal(feed(s, flatView(), candles))
	suite.Require().NotNil(entry)
	suite.Equal(types.SignalDirectionLong, entry.Direction)
	suite.Contains(entry.Reason, "oversold")

	recovery := make([]types.Candle, 0, 6)
	for i := 0; i < 6; i++ {
		recovery = append(recovery, bar(32+i, 90+3*float64(i), 1000))
	}

	exit := firstSignal(feed(s, openView(), recovery))
	suite.Require().NotNil(exit)
	suite.Equal(types.SignalDirectionExit, exit.Direction)
}

func (suite *StrategyTestSuite) TestTrendPullbackEntersOnDip() {
	s := NewTrendPullback()

	signals := make([]*types.SignalPayload, 0, 61)
	for i := 0; i < 60; i++ {
		signals = append(signals, s.OnCandle(flatView(), bar(i, 101+float64(i), 1000)))
	}
	suite.Nil(firstSignal(signals), "no entry while the trend runs hot")

	// One sharp down bar drops the short RSI while the regression slope
	// over the wider window stays positive.
	sig := s.OnCandle(flatView(), bar(60, 150, 1000))
	suite.Require().NotNil(sig)
	suite.Equal(types.SignalDirectionLong, sig.Direction)
	suite.Contains(sig.Reason, "pullback")

	exit := s.OnCandle(openView(), bar(61, 120, 1000))
	suite.Require().NotNil(exit)
	suite.Equal(types.SignalDirectionExit, exit.Direction)
}

func (suite *StrategyTestSuite) TestVolatilityBurstEntryAndExit() {
	s := NewVolatilityBurst()

	for i := 0; i < 60; i++ {
		close := 100.0
		if i%2 == 1 {
			close = 100.1
		}
		suite.Nil(s.OnCandle(flatView(), bar(i, close, 1000)))
	}

	sig := s.OnCandle(flatView(), bar(60, 106, 3000))
	suite.Require().NotNil(sig)
	suite.Equal(types.SignalDirectionLong, sig.Direction)
	suite.Contains(sig.Reason, "burst")

	exit := s.OnCandle(openView(), bar(61, 100, 1000))
	suite.Require().NotNil(exit)
	suite.Equal(types.SignalDirectionExit, exit.Direction)
}

func (suite *StrategyTestSuite) TestChannelReversionEntryAndExit() {
	s := NewChannelReversion()

	wide := func(i int, close float64) types.Candle {
		return types.Candle{
			Ts:     int64(i) * 60_000,
			Open:   close,
			High:   close + 1,
			Low:    close - 1,
			Close:  close,
			Volume: 1000,
		}
	}

	for i := 0; i < 25; i++ {
		suite.Nil(s.OnCandle(flatView(), wide(i, 100)))
	}

	sig := s.OnCandle(flatView(), wide(25, 94))
	suite.Require().NotNil(sig)
	suite.Equal(types.SignalDirectionLong, sig.Direction)
	suite.Contains(sig.Reason, "keltner")

	exit := s.OnCandle(openView(), wide(26, 100))
	suite.Require().NotNil(exit)
	suite.Equal(types.SignalDirectionExit, exit.Direction)
}

func (suite *StrategyTestSuite) TestFastMomentumCross() {
	s := NewFastMomentum()

	candles := make([]types.Candle, 0, 40)
	for i := 0; i < 20; i++ {
		candles = append(candles, bar(i, 120-float64(i), 1000))
	}
	for i := 0; i < 20; i++ {
		candles = append(candles, bar(20+i, 103+2*float64(i), 1000))
	}

	entry := firstSignal(feed(s, flatView(), candles))
	suite.Require().NotNil(entry)
	suite.Equal(types.SignalDirectionLong, entry.Direction)
	suite.Contains(entry.Reason, "momentum")

	decline := make([]types.Candle, 0, 8)
	for i := 0; i < 8; i++ {
		decline = append(decline, bar(40+i, 141-3*float64(i), 1000))
	}

	exit := firstSignal(feed(s, openView(), decline))
	suite.Require().NotNil(exit)
	suite.Equal(types.SignalDirectionExit, exit.Direction)
}

func (suite *StrategyTestSuite) TestDeepReversionCapitulation() {
	s := NewDeepReversion()

	for i := 0; i < 20; i++ {
		close := 100.0
		if i%2 == 1 {
			close = 100.5
		}
		s.OnCandle(flatView(), bar(i, close, 1000))
	}

	crash := []types.Candle{bar(20, 95, 1000), bar(21, 90, 1000), bar(22, 85, 1000)}
	entry := firstSignal(feed(s, flatView(), crash))
	suite.Require().NotNil(entry)
	suite.Equal(types.SignalDirectionLong, entry.Direction)
	suite.Contains(entry.Reason, "capitulation")

	recovery := []types.Candle{bar(23, 92, 1000), bar(24, 96, 1000), bar(25, 100, 1000), bar(26, 104, 1000)}
	exit := firstSignal(feed(s, openView(), recovery))
	suite.Require().NotNil(exit)
	suite.Equal(types.SignalDirectionExit, exit.Direction)
}

func (suite *StrategyTestSuite) TestLowVolBandQuietUptrend() {
	s := NewLowVolBand()

	candles := make([]types.Candle, 0, 40)
	for i := 0; i < 40; i++ {
		candles = append(candles, bar(i, 100+0.05*float64(i), 1000))
	}

	entry := firstSignal(feed(s, flatView(), candles))
	suite.Require().NotNil(entry)
	suite.Equal(types.SignalDirectionLong, entry.Direction)
	suite.Contains(entry.Reason, "quiet uptrend")

	exit := s.OnCandle(openView(), bar(40, 120, 1000))
	suite.Require().NotNil(exit)
	suite.Equal(types.SignalDirectionExit, exit.Direction)
	suite.Contains(exit.Reason, "expansion")
}

func (suite *StrategyTestSuite) TestResetClearsState() {
	for _, slug := range Slugs() {
		s, err := New(slug)
		suite.Require().NoError(err)

		for i := 0; i < 60; i++ {
			s.OnCandle(flatView(), bar(i, 100+float64(i%5), 1000))
		}

		s.Reset()

		// After a reset the generator is back in warmup and must stay
		// quiet on the first bars regardless of prior history.
		for i := 0; i < 5; i++ {
			suite.Nil(s.OnCandle(flatView(), bar(i, 100, 1000)), "profile %s signalled right after reset", slug)
		}
	}
}
