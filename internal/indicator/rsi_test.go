package indicator

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type RSITestSuite struct {
	suite.Suite
}

func TestRSISuite(t *testing.T) {
	suite.Run(t, new(RSITestSuite))
}

func (suite *RSITestSuite) TestFirstUpdateReturnsNeutral() {
	rsi := NewRSI(14)
	suite.Equal(50.0, rsi.Update(100))
	suite.Equal(50.0, rsi.Value())
	suite.False(rsi.Ready())
}

func (suite *RSITestSuite) TestPerfectUptrend() {
	rsi := NewRSI(3)

	price := 100.0
	for i := 0; i < 10; i++ {
		price += 1
		rsi.Update(price)
	}

	suite.True(rsi.Ready())
	suite.Equal(100.0, rsi.Value())
}

func (suite *RSITestSuite) TestPerfectDowntrend() {
	rsi := NewRSI(3)

	price := 100.0
	for i := 0; i < 10; i++ {
		price -= 1
		rsi.Update(price)
	}

	suite.True(rsi.Ready())
	suite.Less(rsi.Value(), 1.0)
}

func (suite *RSITestSuite) TestFlatSeriesStaysNeutral() {
	rsi := NewRSI(5)

	for i := 0; i < 20; i++ {
		rsi.Update(100)
	}

	suite.Equal(50.0, rsi.Value())
}

func (suite *RSITestSuite) TestBoundedAndReset() {
	rsi := NewRSI(4)
	inputs := []float64{10, 12, 9, 14, 8, 13, 11, 15, 7}

	for _, v := range inputs {
		value := rsi.Update(v)
		suite.GreaterOrEqual(value, 0.0)
		suite.LessOrEqual(value, 100.0)
	}

	rsi.Reset()
	suite.False(rsi.Ready())
	suite.Equal(50.0, rsi.Value())
}
