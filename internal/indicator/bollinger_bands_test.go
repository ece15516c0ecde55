package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
)

type BollingerBandsTestSuite struct {
	suite.Suite
}

func TestBollingerBandsSuite(t *testing.T) {
	suite.Run(t, new(BollingerBandsTestSuite))
}

func (suite *BollingerBandsTestSuite) TestFlatSeriesHasZeroWidth() {
	bb := NewBollingerBands(5, 2.0)

	for i := 0; i < 10; i++ {
		bb.Update(100)
	}

	suite.True(bb.Ready())
	suite.InDelta(100.0, bb.Middle(), 1e-12)
	suite.InDelta(0.0, bb.StdDev(), 1e-9)
	suite.InDelta(0.0, bb.Bandwidth(), 1e-9)
	suite.Equal(0.5, bb.PercentB(100))
}

func (suite *BollingerBandsTestSuite) TestKnownWindow() {
	bb := NewBollingerBands(4, 2.0)

	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		bb.Update(v)
	}

	// Last 4 values: 5, 5, 7, 9 -> mean 6.5, population stddev sqrt(2.75).
	suite.InDelta(6.5, bb.Middle(), 1e-9)
	suite.InDelta(math.Sqrt(2.75), bb.StdDev(), 1e-9)
	suite.InDelta(6.5+2*math.Sqrt(2.75), bb.Upper(), 1e-9)
	suite.InDelta(6.5-2*math.Sqrt(2.75), bb.Lower(), 1e-9)
}

func (suite *BollingerBandsTestSuite) TestPercentB() {
	bb := NewBollingerBands(4, 2.0)
	for _, v := range []float64{10, 20, 10, 20} {
		bb.Update(v)
	}

	suite.InDelta(0.5, bb.PercentB(bb.Middle()), 1e-9)
	suite.InDelta(1.0, bb.PercentB(bb.Upper()), 1e-9)
	suite.InDelta(0.0, bb.PercentB(bb.Lower()), 1e-9)
}

func (suite *BollingerBandsTestSuite) TestBandwidthExpandsWithVolatility() {
	quiet := NewBollingerBands(5, 2.0)
	wild := NewBollingerBands(5, 2.0)

	for i := 0; i < 5; i++ {
		quiet.Update(100 + float64(i%2))
		wild.Update(100 + float64(i%2)*20)
	}

	suite.Greater(wild.Bandwidth(), quiet.Bandwidth())
}
