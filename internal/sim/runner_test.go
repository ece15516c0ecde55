package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/stratforge-lab/stratforge/internal/engine"
	"github.com/stratforge-lab/stratforge/internal/logger"
	"github.com/stratforge-lab/stratforge/internal/market"
	"github.com/stratforge-lab/stratforge/internal/store"
	"github.com/stratforge-lab/stratforge/internal/types"
	"github.com/stratforge-lab/stratforge/pkg/errors"
)

type RunnerTestSuite struct {
	suite.Suite

	store  *store.MemoryStore
	clock  *fakeClock
	runner *Runner
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerTestSuite))
}

func (suite *RunnerTestSuite) SetupTest() {
	suite.store = store.NewMemoryStore()
	suite.clock = newFakeClock(baseMs)
	suite.runner = NewRunner(suite.store, suite.clock, logger.NewNopLogger())
}

func (suite *RunnerTestSuite) TearDownTest() {
	suite.runner.StopAll()
}

func (suite *RunnerTestSuite) sessionConfig() SessionConfig {
	return SessionConfig{
		Driver: DriverConfig{
			Symbol:                  "BTCUSDT",
			Timeframe:               types.Timeframe1m,
			StartMs:                 baseMs,
			TargetMonthlyDriftBps:   0,
			EquitySnapshotEveryBars: 10,
		},
		TickInterval: 2 * time.Millisecond,
		MinCandles:   5,
	}
}

func (suite *RunnerTestSuite) newExecutor(id string) *engine.Executor {
	cfg := engine.DefaultConfig()
	cfg.MinBarsWarmup = 0

	exec, err := engine.NewExecutor(id, cfg, &tradeOnceStrategy{}, logger.NewNopLogger())
	suite.Require().NoError(err)

	return exec
}

// persistedEventCount is the race-free progress probe: the store is
// mutex guarded while the driver cursor is owned by the loop goroutine.
func (suite *RunnerTestSuite) persistedEventCount(id string) int {
	return len(suite.store.GetEvents(id))
}

func (suite *RunnerTestSuite) waitForProgress(id string, above int) int {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if n := suite.persistedEventCount(id); n > above {
			return n
		}

		time.Sleep(5 * time.Millisecond)
	}

	suite.FailNowf("no session progress", "session %s never passed %d events", id, above)

	return 0
}

func (suite *RunnerTestSuite) TestGappedFeedFailsStartup() {
	candles := flatSeries(20)
	gapped := append(append([]types.Candle(nil), candles[:5]...), candles[9:]...)
	suite.clock.AdvanceMs(20 * 60_000)

	err := suite.runner.StartSession(context.Background(), "strat-gap", suite.sessionConfig(),
		suite.newExecutor("strat-gap"), market.NewSliceProvider(gapped))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeSessionFailed))

	status, reason, err := suite.runner.Status("strat-gap")
	suite.Require().NoError(err)
	suite.Equal(SessionStatusFailed, status)
	suite.Contains(reason, "gapped")
}

func (suite *RunnerTestSuite) TestInsufficientFeedFailsStartup() {
	suite.clock.AdvanceMs(20 * 60_000)

	cfg := suite.sessionConfig()
	cfg.MinCandles = 500

	err := suite.runner.StartSession(context.Background(), "strat-thin", cfg,
		suite.newExecutor("strat-thin"), market.NewSliceProvider(flatSeries(20)))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeSessionFailed))

	status, reason, err := suite.runner.Status("strat-thin")
	suite.Require().NoError(err)
	suite.Equal(SessionStatusFailed, status)
	suite.Contains(reason, "insufficient")
}

func (suite *RunnerTestSuite) TestDuplicateSessionRejected() {
	suite.clock.AdvanceMs(200 * 60_000)
	provider := market.NewSliceProvider(flatSeries(200))

	suite.Require().NoError(suite.runner.StartSession(context.Background(), "strat-1",
		suite.sessionConfig(), suite.newExecutor("strat-1"), provider))

	err := suite.runner.StartSession(context.Background(), "strat-1",
		suite.sessionConfig(), suite.newExecutor("strat-1"), provider)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeSessionFailed))
}

func (suite *RunnerTestSuite) TestPauseResumeStopLifecycle() {
	suite.clock.AdvanceMs(500 * 60_000)

	suite.Require().NoError(suite.runner.StartSession(context.Background(), "strat-1",
		suite.sessionConfig(), suite.newExecutor("strat-1"), market.NewSliceProvider(flatSeries(500))))

	progressed := suite.waitForProgress("strat-1", 0)

	suite.Require().NoError(suite.runner.Pause("strat-1"))
	status, _, err := suite.runner.Status("strat-1")
	suite.Require().NoError(err)
	suite.Equal(SessionStatusPaused, status)

	// A paused session may finish one in-flight tick but never keeps
	// producing afterwards.
	time.Sleep(30 * time.Millisecond)
	settled := suite.persistedEventCount("strat-1")
	suite.GreaterOrEqual(settled, progressed)
	time.Sleep(50 * time.Millisecond)
	suite.Equal(settled, suite.persistedEventCount("strat-1"))

	suite.Require().NoError(suite.runner.Resume("strat-1"))
	suite.waitForProgress("strat-1", settled)

	suite.Require().NoError(suite.runner.Stop("strat-1"))
	status, _, err = suite.runner.Status("strat-1")
	suite.Require().NoError(err)
	suite.Equal(SessionStatusStopped, status)

	err = suite.runner.Stop("strat-1")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeSessionTerminal))

	err = suite.runner.Pause("strat-1")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeSessionTerminal))
}

func (suite *RunnerTestSuite) TestSnapshotPersistedWhileRunning() {
	suite.clock.AdvanceMs(500 * 60_000)

	suite.Require().NoError(suite.runner.StartSession(context.Background(), "strat-1",
		suite.sessionConfig(), suite.newExecutor("strat-1"), market.NewSliceProvider(flatSeries(500))))

	suite.waitForProgress("strat-1", 0)
	suite.Require().NoError(suite.runner.Stop("strat-1"))

	snap, err := suite.store.GetSnapshot("strat-1")
	suite.Require().NoError(err)
	suite.Require().True(snap.IsSome())
	suite.Greater(snap.TakeOr(store.Snapshot{}).CursorMs, baseMs)
}

func (suite *RunnerTestSuite) TestResumesFromPersistedSnapshot() {
	suite.clock.AdvanceMs(500 * 60_000)
	provider := market.NewSliceProvider(flatSeries(500))

	suite.Require().NoError(suite.runner.StartSession(context.Background(), "strat-1",
		suite.sessionConfig(), suite.newExecutor("strat-1"), provider))
	suite.waitForProgress("strat-1", 0)
	suite.Require().NoError(suite.runner.Stop("strat-1"))

	snap, err := suite.store.GetSnapshot("strat-1")
	suite.Require().NoError(err)
	suite.Require().True(snap.IsSome())
	resumedFrom := snap.TakeOr(store.Snapshot{}).CursorMs

	// A second runner over the same store resumes where the first left
	// off instead of replaying from the start.
	second := NewRunner(suite.store, suite.clock, logger.NewNopLogger())
	defer second.StopAll()

	before := suite.persistedEventCount("strat-1")
	suite.Require().NoError(second.StartSession(context.Background(), "strat-1",
		suite.sessionConfig(), suite.newExecutor("strat-1"), provider))
	suite.waitForProgress("strat-1", before)
	suite.Require().NoError(second.Stop("strat-1"))

	after, err := suite.store.GetSnapshot("strat-1")
	suite.Require().NoError(err)
	suite.Require().True(after.IsSome())
	suite.Greater(after.TakeOr(store.Snapshot{}).CursorMs, resumedFrom)

	for i, e := range suite.store.GetEvents("strat-1") {
		suite.Equal(int64(i+1), e.Seq)
	}
}

func (suite *RunnerTestSuite) TestUnknownSessionErrors() {
	_, _, err := suite.runner.Status("missing")
	suite.True(errors.HasCode(err, errors.ErrCodeSessionNotFound))

	suite.True(errors.HasCode(suite.runner.Pause("missing"), errors.ErrCodeSessionNotFound))
	suite.True(errors.HasCode(suite.runner.Resume("missing"), errors.ErrCodeSessionNotFound))
	suite.True(errors.HasCode(suite.runner.Stop("missing"), errors.ErrCodeSessionNotFound))
}
