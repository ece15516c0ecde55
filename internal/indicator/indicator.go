// Package indicator provides streaming technical indicators.
//
// Every indicator is a small owned struct fed one value (or one
// high/low/close triple) per bar, with O(1) amortized updates and no
// history replay. Indicators are pure functions of their update sequence:
// no randomness, no wall-clock reads, no shared state. Each strategy
// instance owns its indicator set exclusively and resets it on restart.
package indicator

// Indicator is the contract for scalar streaming indicators.
type Indicator interface {
	// Update consumes one value and returns the new indicator value.
	Update(v float64) float64
	// Value returns the current indicator value without consuming input.
	Value() float64
	// Ready reports whether enough updates have been seen for the value
	// to be meaningful.
	Ready() bool
	// Reset returns the indicator to its initial state.
	Reset()
}

// BarIndicator is the contract for range-based streaming indicators that
// consume a full high/low/close triple per bar.
type BarIndicator interface {
	UpdateBar(high, low, close float64) float64
	Value() float64
	Ready() bool
	Reset()
}
