package indicator

import "math"

// ATR is the Average True Range with Wilder smoothing over
// high/low/close triples.
type ATR struct {
	period    int
	prevClose float64
	value     float64
	count     int
}

// NewATR creates an ATR indicator with the given period.
func NewATR(period int) *ATR {
	return &ATR{
		period:    period,
		prevClose: 0,
		value:     0,
		count:     0,
	}
}

// UpdateBar implements BarIndicator.
func (a *ATR) UpdateBar(high, low, close float64) float64 {
	tr := high - low
	if a.count > 0 {
		tr = math.Max(tr, math.Max(math.Abs(high-a.prevClose), math.Abs(low-a.prevClose)))
	}

	if a.count < a.period {
		// Simple average during warmup.
		n := float64(a.count)
		a.value = (a.value*n + tr) / (n + 1)
	} else {
		p := float64(a.period)
		a.value = (a.value*(p-1) + tr) / p
	}

	a.prevClose = close
	a.count++

	return a.value
}

// Value implements BarIndicator.
func (a *ATR) Value() float64 {
	return a.value
}

// Ready implements BarIndicator.
func (a *ATR) Ready() bool {
	return a.count >= a.period
}

// Reset implements BarIndicator.
func (a *ATR) Reset() {
	a.prevClose = 0
	a.value = 0
	a.count = 0
}
