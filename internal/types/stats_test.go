package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
)

type TradeStatsTestSuite struct {
	suite.Suite
}

func TestTradeStatsSuite(t *testing.T) {
	suite.Run(t, new(TradeStatsTestSuite))
}

func (suite *TradeStatsTestSuite) winner(pnl float64) Trade {
	return Trade{NetPnl: pnl, GrossPnl: pnl}
}

func (suite *TradeStatsTestSuite) TestWinRate() {
	var stats TradeStats
	suite.Equal(0.0, stats.WinRatePct())

	stats.Record(suite.winner(10))
	stats.Record(suite.winner(5))
	stats.Record(suite.winner(-3))
	stats.Record(suite.winner(-2))

	suite.Equal(4, stats.TotalTrades)
	suite.Equal(2, stats.Wins)
	suite.Equal(2, stats.Losses)
	suite.Equal(50.0, stats.WinRatePct())
	suite.InDelta(100*float64(stats.Wins)/float64(stats.TotalTrades), stats.WinRatePct(), 1e-12)
}

func (suite *TradeStatsTestSuite) TestProfitFactor() {
	var stats TradeStats
	suite.Equal(0.0, stats.ProfitFactor())

	// Wins only: +Inf.
	stats.Record(suite.winner(10))
	suite.True(math.IsInf(stats.ProfitFactor(), 1))

	// Mixed: grossWins/grossLosses.
	stats.Record(suite.winner(-4))
	suite.InDelta(2.5, stats.ProfitFactor(), 1e-12)

	// Losses only: 0.
	var losers TradeStats
	losers.Record(suite.winner(-1))
	suite.Equal(0.0, losers.ProfitFactor())
}

func (suite *TradeStatsTestSuite) TestZeroPnlCountsAsLoss() {
	var stats TradeStats
	stats.Record(suite.winner(0))
	suite.Equal(1, stats.Losses)
	suite.Equal(0, stats.Wins)
}

func (suite *TradeStatsTestSuite) TestTradePnlBps() {
	trade := Trade{EntryPrice: 100, Qty: 2, NetPnl: 4}
	// 4 / 200 notional = 200 bps.
	suite.InDelta(200.0, trade.PnlBps(), 1e-9)

	suite.Equal(0.0, Trade{EntryPrice: 0, Qty: 1, NetPnl: 4}.PnlBps())
}
