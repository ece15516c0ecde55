package indicator

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type RangeIndicatorTestSuite struct {
	suite.Suite
}

func TestRangeIndicatorSuite(t *testing.T) {
	suite.Run(t, new(RangeIndicatorTestSuite))
}

func (suite *RangeIndicatorTestSuite) TestATRFlatBars() {
	atr := NewATR(3)

	for i := 0; i < 6; i++ {
		atr.UpdateBar(100, 100, 100)
	}

	suite.True(atr.Ready())
	suite.InDelta(0.0, atr.Value(), 1e-12)
}

func (suite *RangeIndicatorTestSuite) TestATRConstantRange() {
	atr := NewATR(3)

	for i := 0; i < 10; i++ {
		atr.UpdateBar(102, 98, 100)
	}

	// True range is 4 on every bar, so the smoothed value converges to 4.
	suite.InDelta(4.0, atr.Value(), 1e-9)
}

func (suite *RangeIndicatorTestSuite) TestATRGapUsesPrevClose() {
	atr := NewATR(2)

	atr.UpdateBar(101, 99, 100)
	// Gap up: high-prevClose = 10 dominates high-low = 2.
	value := atr.UpdateBar(110, 108, 109)
	suite.InDelta((2.0+10.0)/2, value, 1e-9)
}

func (suite *RangeIndicatorTestSuite) TestKeltnerBands() {
	kc := NewKeltnerChannel(3, 3, 1.5)

	for i := 0; i < 10; i++ {
		kc.UpdateBar(102, 98, 100)
	}

	suite.True(kc.Ready())
	suite.InDelta(100.0, kc.Middle(), 1e-9)
	suite.InDelta(100.0+1.5*4.0, kc.Upper(), 1e-6)
	suite.InDelta(100.0-1.5*4.0, kc.Lower(), 1e-6)
}

func (suite *RangeIndicatorTestSuite) TestSlopeOnLine() {
	slope := NewSlope(4)

	for _, v := range []float64{10, 12, 14, 16} {
		slope.Update(v)
	}

	suite.True(slope.Ready())
	suite.InDelta(2.0, slope.Value(), 1e-9)

	// Rolling on with the same line keeps the slope.
	slope.Update(18)
	slope.Update(20)
	suite.InDelta(2.0, slope.Value(), 1e-9)
}

func (suite *RangeIndicatorTestSuite) TestSlopeFlat() {
	slope := NewSlope(5)

	for i := 0; i < 8; i++ {
		slope.Update(42)
	}

	suite.InDelta(0.0, slope.Value(), 1e-9)
}

func (suite *RangeIndicatorTestSuite) TestReturnPercentile() {
	rp := NewReturnPercentile(4)

	rp.Update(100) // seed, no return yet
	rp.Update(101) // +1%
	rp.Update(102) // ~+0.99%
	rp.Update(103) // ~+0.98%

	// A large up move ranks at the top of the window.
	value := rp.Update(113)
	suite.InDelta(1.0, value, 1e-9)

	// A crash ranks at the bottom.
	value = rp.Update(90)
	suite.InDelta(0.25, value, 1e-9)
}
