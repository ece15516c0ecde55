package indicator

// Slope is the least-squares linear regression slope over a short rolling
// window. Window positions are indexed 0..period-1 with the oldest value
// at 0, so the running sums shift in O(1) per update.
type Slope struct {
	period int
	window []float64
	head   int
	count  int
	sumY   float64
	sumIY  float64
}

// NewSlope creates a regression-slope indicator over the given window.
func NewSlope(period int) *Slope {
	return &Slope{
		period: period,
		window: make([]float64, period),
		head:   0,
		count:  0,
		sumY:   0,
		sumIY:  0,
	}
}

// Update implements Indicator.
func (s *Slope) Update(v float64) float64 {
	if s.count == s.period {
		oldest := s.window[s.head]
		// Dropping the oldest value shifts every remaining index down by
		// one: sum(i*y) loses one sumY worth of weight.
		s.sumIY = s.sumIY - (s.sumY - oldest) // oldest had index 0
		s.sumY -= oldest
		s.sumIY += float64(s.period-1) * v
		s.sumY += v
	} else {
		s.sumIY += float64(s.count) * v
		s.sumY += v
		s.count++
	}

	s.window[s.head] = v
	s.head = (s.head + 1) % s.period

	return s.Value()
}

// Value implements Indicator, returning the regression slope per bar.
func (s *Slope) Value() float64 {
	n := float64(s.count)
	if s.count < 2 {
		return 0
	}

	// x values are 0..n-1.
	sumX := n * (n - 1) / 2
	sumXX := (n - 1) * n * (2*n - 1) / 6

	denominator := n*sumXX - sumX*sumX
	if denominator == 0 {
		return 0
	}

	return (n*s.sumIY - sumX*s.sumY) / denominator
}

// Ready implements Indicator.
func (s *Slope) Ready() bool {
	return s.count >= s.period
}

// Reset implements Indicator.
func (s *Slope) Reset() {
	for i := range s.window {
		s.window[i] = 0
	}

	s.head = 0
	s.count = 0
	s.sumY = 0
	s.sumIY = 0
}
