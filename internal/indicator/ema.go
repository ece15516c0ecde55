package indicator

// EMA is an exponential moving average using recursive smoothing with
// multiplier 2/(period+1). The first update seeds the average; the value
// is not considered ready until period updates have been seen.
type EMA struct {
	period     int
	multiplier float64
	value      float64
	count      int
}

// NewEMA creates an exponential moving average with the given period.
func NewEMA(period int) *EMA {
	return &EMA{
		period:     period,
		multiplier: 2.0 / (float64(period) + 1),
		value:      0,
		count:      0,
	}
}

// Update implements Indicator.
func (e *EMA) Update(v float64) float64 {
	if e.count == 0 {
		e.value = v
	} else {
		e.value = v*e.multiplier + e.value*(1-e.multiplier)
	}

	e.count++

	return e.value
}

// Value implements Indicator.
func (e *EMA) Value() float64 {
	return e.value
}

// Ready implements Indicator.
func (e *EMA) Ready() bool {
	return e.count >= e.period
}

// Reset implements Indicator.
func (e *EMA) Reset() {
	e.value = 0
	e.count = 0
}
