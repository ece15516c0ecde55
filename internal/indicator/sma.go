package indicator

// SMA is a simple moving average over a fixed window.
type SMA struct {
	period int
	window []float64
	head   int
	count  int
	sum    float64
}

// NewSMA creates a simple moving average with the given period.
func NewSMA(period int) *SMA {
	return &SMA{
		period: period,
		window: make([]float64, period),
		head:   0,
		count:  0,
		sum:    0,
	}
}

// Update implements Indicator.
func (s *SMA) Update(v float64) float64 {
	if s.count == s.period {
		s.sum -= s.window[s.head]
	} else {
		s.count++
	}

	s.window[s.head] = v
	s.head = (s.head + 1) % s.period
	s.sum += v

	return s.Value()
}

// Value implements Indicator.
func (s *SMA) Value() float64 {
	if s.count == 0 {
		return 0
	}

	return s.sum / float64(s.count)
}

// Ready implements Indicator.
func (s *SMA) Ready() bool {
	return s.count >= s.period
}

// Reset implements Indicator.
func (s *SMA) Reset() {
	for i := range s.window {
		s.window[i] = 0
	}

	s.head = 0
	s.count = 0
	s.sum = 0
}
