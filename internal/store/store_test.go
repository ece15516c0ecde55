package store

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/stratforge-lab/stratforge/internal/logger"
	"github.com/stratforge-lab/stratforge/internal/types"
	"github.com/stratforge-lab/stratforge/pkg/errors"
)

// StoreTestSuite runs the same conformance checks against every Store
// implementation.
type StoreTestSuite struct {
	suite.Suite

	factory func() Store
	store   Store
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, &StoreTestSuite{
		factory: func() Store { return NewMemoryStore() },
	})
}

func TestDuckDBStoreSuite(t *testing.T) {
	suite.Run(t, &StoreTestSuite{
		factory: func() Store {
			s, err := NewDuckDBStore(":memory:", logger.NewNopLogger())
			if err != nil {
				t.Fatalf("failed to open duckdb: %v", err)
			}

			return s
		},
	})
}

func (suite *StoreTestSuite) SetupTest() {
	suite.store = suite.factory()
	suite.Require().NoError(suite.store.Initialize())
}

func (suite *StoreTestSuite) TearDownTest() {
	suite.NoError(suite.store.Close())
}

func (suite *StoreTestSuite) TestStrategyRegistration() {
	rec := StrategyRecord{
		ID:          "strat-1",
		Profile:     "breakout",
		Symbol:      "BTCUSDT",
		Timeframe:   types.Timeframe1h,
		InitialCash: 10_000,
	}
	suite.Require().NoError(suite.store.UpsertStrategy(rec))

	got, err := suite.store.GetStrategy("strat-1")
	suite.Require().NoError(err)
	suite.Require().True(got.IsSome())
	suite.Equal(rec, got.TakeOr(StrategyRecord{}))

	profile, err := suite.store.GetProfile("strat-1")
	suite.Require().NoError(err)
	suite.Equal("breakout", profile)

	missing, err := suite.store.GetStrategy("nope")
	suite.Require().NoError(err)
	suite.True(missing.IsNone())

	_, err = suite.store.GetProfile("nope")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *StoreTestSuite) TestPositionRoundTrip() {
	pos, err := suite.store.GetPosition("strat-1")
	suite.Require().NoError(err)
	suite.False(pos.IsOpen(), "absent position reads as flat")

	open := types.Position{
		Side:          types.PositionSideLong,
		Qty:           2.5,
		EntryPrice:    100.5,
		EntryTs:       1_700_000_000_000,
		EntryBarIndex: 12,
	}
	suite.Require().NoError(suite.store.UpsertPosition("strat-1", open))

	got, err := suite.store.GetPosition("strat-1")
	suite.Require().NoError(err)
	suite.Equal(open, got)

	suite.Require().NoError(suite.store.UpsertPosition("strat-1", types.FlatPosition()))
	got, err = suite.store.GetPosition("strat-1")
	suite.Require().NoError(err)
	suite.False(got.IsOpen())
}

func (suite *StoreTestSuite) TestTradeLifecycle() {
	trade := types.Trade{
		ID:         "trade-1",
		StrategyID: "strat-1",
		Status:     types.TradeStatusOpen,
		Qty:        1,
		EntryTs:    1_700_000_000_000,
		EntryPrice: 100,
		Reason:     types.Reason{Reason: "signal", Message: "entry"},
	}
	suite.Require().NoError(suite.store.InsertTrade(trade))

	open, err := suite.store.GetOpenTrade("strat-1")
	suite.Require().NoError(err)
	suite.Require().True(open.IsSome())
	suite.Equal("trade-1", open.TakeOr(types.Trade{}).ID)

	trade.Status = types.TradeStatusClosed
	trade.ExitTs = 1_700_000_060_000
	trade.ExitPrice = 105
	trade.GrossPnl = 5
	trade.Fees = 0.2
	trade.NetPnl = 4.8
	trade.HoldBars = 1
	suite.Require().NoError(suite.store.UpdateTrade(trade))

	open, err = suite.store.GetOpenTrade("strat-1")
	suite.Require().NoError(err)
	suite.True(open.IsNone())

	trades, err := suite.store.GetTrades("strat-1")
	suite.Require().NoError(err)
	suite.Require().Len(trades, 1)
	suite.Equal(types.TradeStatusClosed, trades[0].Status)
	suite.InDelta(4.8, trades[0].NetPnl, 1e-9)

	missing := trade
	missing.ID = "no-such-trade"
	err = suite.store.UpdateTrade(missing)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *StoreTestSuite) TestInsertEventIdempotent() {
	event := types.StrategyEvent{
		Ts:  1_700_000_000_000,
		Seq: 1,
		Payload: types.StatusPayload{
			Code:    "test",
			Message: "first",
		},
	}
	suite.Require().NoError(suite.store.InsertEvent("strat-1", event))

	err := suite.store.InsertEvent("strat-1", event)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDuplicateSequence))

	// Same seq under a different strategy is fine.
	suite.NoError(suite.store.InsertEvent("strat-2", event))

	event.Seq = 2
	suite.NoError(suite.store.InsertEvent("strat-1", event))
}

func (suite *StoreTestSuite) TestEquitySnapshots() {
	snap := types.EquityPayload{Cash: 500, Equity: 9_800, PeakEquity: 10_000, DrawdownBps: 200}
	suite.NoError(suite.store.InsertEquitySnapshot("strat-1", 1_700_000_000_000, snap))
	suite.NoError(suite.store.InsertEquitySnapshot("strat-1", 1_700_000_060_000, snap))
}

func (suite *StoreTestSuite) TestSnapshotRoundTrip() {
	got, err := suite.store.GetSnapshot("strat-1")
	suite.Require().NoError(err)
	suite.True(got.IsNone())

	state := types.NewStrategyState(10_000)
	state.BarIndex = 42
	state.Cash = 7_500
	state.LastSeq = 180
	state.RollingWins = []bool{true, false, true}
	state.RollingPnlsBps = []float64{25, -10, 40}

	snap := Snapshot{StrategyID: "strat-1", CursorMs: 1_700_000_000_000, State: state}
	suite.Require().NoError(suite.store.SaveSnapshot(snap))

	got, err = suite.store.GetSnapshot("strat-1")
	suite.Require().NoError(err)
	suite.Require().True(got.IsSome())

	restored := got.TakeOr(Snapshot{})
	suite.Equal(snap.CursorMs, restored.CursorMs)
	suite.Equal(int64(42), restored.State.BarIndex)
	suite.Equal(7_500.0, restored.State.Cash)
	suite.Equal(int64(180), restored.State.LastSeq)
	suite.Equal(state.RollingWins, restored.State.RollingWins)
	suite.Equal(state.RollingPnlsBps, restored.State.RollingPnlsBps)
}

func (suite *StoreTestSuite) TestPayloadKinds() {
	cases := map[string]types.EventPayload{
		"candle": types.CandlePayload{},
		"signal": types.SignalPayload{},
		"order":  types.OrderPayload{},
		"fill":   types.FillPayload{},
		"trade":  types.TradePayload{},
		"equity": types.EquityPayload{},
		"status": types.StatusPayload{},
	}

	for want, payload := range cases {
		suite.Equal(want, payloadKind(payload))
	}
}
