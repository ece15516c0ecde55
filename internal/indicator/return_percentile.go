package indicator

// ReturnPercentile ranks the latest bar return within a rolling window of
// returns. The value lies in [0, 1]: 1 means the latest return is the
// largest in the window.
type ReturnPercentile struct {
	period    int
	prevClose float64
	returns   []float64
	head      int
	count     int
	latest    float64
	seeded    bool
}

// NewReturnPercentile creates a return-percentile indicator ranking over
// the given window of bar returns.
func NewReturnPercentile(period int) *ReturnPercentile {
	return &ReturnPercentile{
		period:    period,
		prevClose: 0,
		returns:   make([]float64, period),
		head:      0,
		count:     0,
		latest:    0,
		seeded:    false,
	}
}

// Update implements Indicator. It consumes a close price and returns the
// rank of the resulting bar return within the window.
func (r *ReturnPercentile) Update(v float64) float64 {
	if !r.seeded {
		r.prevClose = v
		r.seeded = true

		return 0
	}

	ret := 0.0
	if r.prevClose != 0 {
		ret = (v - r.prevClose) / r.prevClose
	}

	r.prevClose = v

	if r.count < r.period {
		r.count++
	}

	r.returns[r.head] = ret
	r.head = (r.head + 1) % r.period
	r.latest = ret

	return r.Value()
}

// Value implements Indicator, returning the rank of the latest return.
func (r *ReturnPercentile) Value() float64 {
	if r.count == 0 {
		return 0
	}

	below := 0

	for i := 0; i < r.count; i++ {
		if r.returns[i] <= r.latest {
			below++
		}
	}

	return float64(below) / float64(r.count)
}

// Ready implements Indicator.
func (r *ReturnPercentile) Ready() bool {
	return r.count >= r.period
}

// Reset implements Indicator.
func (r *ReturnPercentile) Reset() {
	for i := range r.returns {
		r.returns[i] = 0
	}

	r.prevClose = 0
	r.head = 0
	r.count = 0
	r.latest = 0
	r.seeded = false
}
