package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stratforge-lab/stratforge/internal/engine"
	"github.com/stratforge-lab/stratforge/internal/logger"
	"github.com/stratforge-lab/stratforge/internal/market"
	"github.com/stratforge-lab/stratforge/internal/store"
	"github.com/stratforge-lab/stratforge/pkg/errors"
)

// SessionStatus is the lifecycle state of one runner session. FAILED and
// STOPPED are terminal.
type SessionStatus string

const (
	SessionStatusRunning SessionStatus = "RUNNING"
	SessionStatusPaused  SessionStatus = "PAUSED"
	SessionStatusStopped SessionStatus = "STOPPED"
	SessionStatusFailed  SessionStatus = "FAILED"
)

// stopWait bounds how long Stop waits for an in-flight tick.
const stopWait = 5 * time.Second

// SessionConfig describes one session the runner should drive.
type SessionConfig struct {
	Driver DriverConfig `yaml:"driver" json:"driver"`
	// TickInterval paces the session's own timer.
	TickInterval time.Duration `yaml:"tick_interval" json:"tick_interval"`
	// MinCandles is the minimum bar count that must exist between the
	// session start and now; fewer is a terminal startup failure.
	MinCandles int `yaml:"min_candles" json:"min_candles"`
}

type session struct {
	id           string
	driver       *Driver
	tickInterval time.Duration

	mu         sync.Mutex
	status     SessionStatus
	failReason string
	paused     bool

	stopCh chan struct{}
	doneCh chan struct{}
}

func (s *session) setStatus(status SessionStatus, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = status
	s.failReason = reason
}

func (s *session) currentStatus() (SessionStatus, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status, s.failReason
}

func (s *session) terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status == SessionStatusStopped || s.status == SessionStatusFailed
}

// Runner drives many driver instances concurrently. Every session runs
// on its own timer, so cross-session interference is structurally
// impossible; the advisory lock set additionally serializes ticks per
// key under overlapping timers.
type Runner struct {
	store store.Store
	clock Clock
	log   *logger.Logger
	locks *KeyLocks

	mu       sync.Mutex
	sessions map[string]*session
}

// NewRunner creates a runner persisting through the given store.
func NewRunner(st store.Store, clock Clock, log *logger.Logger) *Runner {
	if clock == nil {
		clock = SystemClock()
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Runner{
		store:    st,
		clock:    clock,
		log:      log,
		locks:    NewKeyLocks(),
		sessions: make(map[string]*session),
	}
}

// StartSession validates the candle feed, restores any persisted
// snapshot, and begins ticking. Insufficient or gapped data is a
// terminal FAILED state with a reason, never retried.
func (r *Runner) StartSession(ctx context.Context, strategyID string, cfg SessionConfig, exec *engine.Executor, provider market.CandleProvider) error {
	r.mu.Lock()
	if _, exists := r.sessions[strategyID]; exists {
		r.mu.Unlock()

		return errors.Newf(errors.ErrCodeSessionFailed, "session %s already exists", strategyID)
	}
	r.mu.Unlock()

	driver, err := NewDriver(strategyID, cfg.Driver, exec, r.store, provider, r.clock, r.log)
	if err != nil {
		return err
	}

	sess := &session{
		id:           strategyID,
		driver:       driver,
		tickInterval: cfg.TickInterval,
		status:       SessionStatusRunning,
		failReason:   "",
		paused:       false,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}

	r.mu.Lock()
	r.sessions[strategyID] = sess
	r.mu.Unlock()

	if reason, ok := r.validateFeed(ctx, driver, cfg, provider); !ok {
		sess.setStatus(SessionStatusFailed, reason)
		close(sess.doneCh)
		r.log.Error("session failed at startup",
			zap.String("session", strategyID),
			zap.String("reason", reason))

		return errors.Newf(errors.ErrCodeSessionFailed, "session %s failed: %s", strategyID, reason)
	}

	snap, err := r.store.GetSnapshot(strategyID)
	if err != nil {
		sess.setStatus(SessionStatusFailed, err.Error())
		close(sess.doneCh)

		return err
	}

	if snap.IsSome() {
		driver.Restore(snap.TakeOr(store.Snapshot{}))
		r.log.Info("session resumed from snapshot",
			zap.String("session", strategyID),
			zap.Int64("cursor_ms", driver.CursorMs()))
	}

	go r.loop(ctx, sess)

	return nil
}

// validateFeed checks the candle range between the session start and now
// for sufficiency and grid gaps.
func (r *Runner) validateFeed(ctx context.Context, driver *Driver, cfg SessionConfig, provider market.CandleProvider) (string, bool) {
	nowMs := r.clock.Now().UnixMilli()
	batch, err := provider.LoadCandles(ctx, cfg.Driver.Symbol, cfg.Driver.Timeframe, driver.CursorMs(), nowMs)
	if err != nil {
		return fmt.Sprintf("candle load failed: %v", err), false
	}

	if len(batch.Gaps) > 0 {
		g := batch.Gaps[0]

		return fmt.Sprintf("gapped candle data: %d gap(s), first %d..%d", len(batch.Gaps), g.FromMs, g.ToMs), false
	}

	if len(batch.Candles) < cfg.MinCandles {
		return fmt.Sprintf("insufficient candle data: have %d, need %d", len(batch.Candles), cfg.MinCandles), false
	}

	return "", true
}

func (r *Runner) loop(ctx context.Context, sess *session) {
	defer close(sess.doneCh)

	timer := time.NewTimer(sess.tickInterval)
	defer timer.Stop()

	for {
		select {
		case <-sess.stopCh:
			return
		case <-ctx.Done():
			sess.setStatus(SessionStatusStopped, ctx.Err().Error())

			return
		case <-timer.C:
		}

		sess.mu.Lock()
		paused := sess.paused
		sess.mu.Unlock()

		if !paused && r.locks.TryAcquire(sess.id) {
			if _, err := sess.driver.Tick(ctx); err != nil {
				r.log.Error("tick failed",
					zap.String("session", sess.id),
					zap.Error(err))
			}

			if err := r.store.SaveSnapshot(sess.driver.Snapshot()); err != nil {
				r.log.Error("snapshot persist failed",
					zap.String("session", sess.id),
					zap.Error(err))
			}

			r.locks.Release(sess.id)
		}

		timer.Reset(sess.tickInterval)
	}
}

// Pause suspends ticking without tearing the session down.
func (r *Runner) Pause(strategyID string) error {
	sess, err := r.session(strategyID)
	if err != nil {
		return err
	}

	if sess.terminal() {
		return errors.Newf(errors.ErrCodeSessionTerminal, "session %s is terminal", strategyID)
	}

	sess.mu.Lock()
	sess.paused = true
	sess.status = SessionStatusPaused
	sess.mu.Unlock()

	return nil
}

// Resume restarts a paused session.
func (r *Runner) Resume(strategyID string) error {
	sess, err := r.session(strategyID)
	if err != nil {
		return err
	}

	if sess.terminal() {
		return errors.Newf(errors.ErrCodeSessionTerminal, "session %s is terminal", strategyID)
	}

	sess.mu.Lock()
	sess.paused = false
	sess.status = SessionStatusRunning
	sess.mu.Unlock()

	return nil
}

// Stop cooperatively stops the session: the flag flips first, then Stop
// waits a bounded time for any in-flight tick to finish.
func (r *Runner) Stop(strategyID string) error {
	sess, err := r.session(strategyID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	if sess.status == SessionStatusStopped || sess.status == SessionStatusFailed {
		sess.mu.Unlock()

		return errors.Newf(errors.ErrCodeSessionTerminal, "session %s is terminal", strategyID)
	}
	sess.status = SessionStatusStopped
	sess.mu.Unlock()

	close(sess.stopCh)

	select {
	case <-sess.doneCh:
		return nil
	case <-time.After(stopWait):
		return errors.Newf(errors.ErrCodeTickInFlight, "session %s tick still in flight after %s", strategyID, stopWait)
	}
}

// StopAll stops every live session.
func (r *Runner) StopAll() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		if err := r.Stop(id); err != nil && !errors.HasCode(err, errors.ErrCodeSessionTerminal) {
			r.log.Error("failed to stop session", zap.String("session", id), zap.Error(err))
		}
	}
}

// Status returns the session's lifecycle state and, for FAILED sessions,
// the reason.
func (r *Runner) Status(strategyID string) (SessionStatus, string, error) {
	sess, err := r.session(strategyID)
	if err != nil {
		return "", "", err
	}

	status, reason := sess.currentStatus()

	return status, reason, nil
}

func (r *Runner) session(strategyID string) (*session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[strategyID]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeSessionNotFound, "session %s not found", strategyID)
	}

	return sess, nil
}
