package indicator

// RSI is the Relative Strength Index with Wilder smoothing of average
// gain and loss. It returns 50 on the very first update, when no prior
// delta exists.
type RSI struct {
	period    int
	prevClose float64
	avgGain   float64
	avgLoss   float64
	count     int
	value     float64
}

// NewRSI creates an RSI indicator with the given period.
func NewRSI(period int) *RSI {
	return &RSI{
		period:    period,
		prevClose: 0,
		avgGain:   0,
		avgLoss:   0,
		count:     0,
		value:     50,
	}
}

// Update implements Indicator.
func (r *RSI) Update(v float64) float64 {
	if r.count == 0 {
		r.prevClose = v
		r.count++
		r.value = 50

		return r.value
	}

	change := v - r.prevClose
	r.prevClose = v

	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	// Simple average while warming up, Wilder smoothing afterwards.
	if r.count <= r.period {
		n := float64(r.count)
		r.avgGain = (r.avgGain*(n-1) + gain) / n
		r.avgLoss = (r.avgLoss*(n-1) + loss) / n
	} else {
		p := float64(r.period)
		r.avgGain = (r.avgGain*(p-1) + gain) / p
		r.avgLoss = (r.avgLoss*(p-1) + loss) / p
	}

	r.count++

	if r.avgLoss == 0 {
		if r.avgGain == 0 {
			r.value = 50
		} else {
			r.value = 100
		}

		return r.value
	}

	rs := r.avgGain / r.avgLoss
	r.value = 100 - (100 / (1 + rs))

	return r.value
}

// Value implements Indicator.
func (r *RSI) Value() float64 {
	return r.value
}

// Ready implements Indicator.
func (r *RSI) Ready() bool {
	return r.count > r.period
}

// Reset implements Indicator.
func (r *RSI) Reset() {
	r.prevClose = 0
	r.avgGain = 0
	r.avgLoss = 0
	r.count = 0
	r.value = 50
}
