package types

// StrategyState is the full mutable snapshot of one strategy instance.
// It is owned exclusively by one executor; external code only reads it via
// State() or injects it on cold-start/resume via SetState().
type StrategyState struct {
	BarIndex   int64      `yaml:"bar_index" json:"bar_index"`
	Cash       float64    `yaml:"cash" json:"cash"`
	Position   Position   `yaml:"position" json:"position"`
	Equity     float64    `yaml:"equity" json:"equity"`
	PeakEquity float64    `yaml:"peak_equity" json:"peak_equity"`
	OpenOrders []Order    `yaml:"open_orders" json:"open_orders"`
	Stats      TradeStats `yaml:"stats" json:"stats"`
	// RollingWins and RollingPnlsBps are bounded ring buffers, capped at
	// the walk-forward lookback window; inputs to the admission filter.
	RollingWins    []bool    `yaml:"rolling_wins" json:"rolling_wins"`
	RollingPnlsBps []float64 `yaml:"rolling_pnls_bps" json:"rolling_pnls_bps"`
	LastSeq        int64     `yaml:"last_seq" json:"last_seq"`
}

// NewStrategyState returns a cold-start state with the given cash.
func NewStrategyState(cash float64) StrategyState {
	return StrategyState{
		BarIndex:       0,
		Cash:           cash,
		Position:       FlatPosition(),
		Equity:         cash,
		PeakEquity:     cash,
		OpenOrders:     nil,
		Stats:          TradeStats{},
		RollingWins:    nil,
		RollingPnlsBps: nil,
		LastSeq:        0,
	}
}

// Clone returns a deep copy, so callers can hold a snapshot while the
// executor keeps mutating its own state.
func (s StrategyState) Clone() StrategyState {
	out := s
	out.OpenOrders = append([]Order(nil), s.OpenOrders...)
	out.RollingWins = append([]bool(nil), s.RollingWins...)
	out.RollingPnlsBps = append([]float64(nil), s.RollingPnlsBps...)

	return out
}

// StrategyView is the read-only window a signal generator gets on account
// state. Generators must not depend on anything outside it.
type StrategyView struct {
	BarIndex int64
	Cash     float64
	Position Position
	Equity   float64
	Stats    TradeStats
}

// View projects the state into the read-only form passed to strategies.
func (s StrategyState) View() StrategyView {
	return StrategyView{
		BarIndex: s.BarIndex,
		Cash:     s.Cash,
		Position: s.Position,
		Equity:   s.Equity,
		Stats:    s.Stats,
	}
}
