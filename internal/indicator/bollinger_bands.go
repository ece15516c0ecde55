package indicator

import "math"

// BollingerBands maintains a rolling-window mean and variance and derives
// the classic upper/middle/lower bands from them.
type BollingerBands struct {
	period     int
	multiplier float64
	window     []float64
	head       int
	count      int
	sum        float64
	sumSquares float64
}

// NewBollingerBands creates Bollinger Bands with the given period and
// standard deviation multiplier.
func NewBollingerBands(period int, multiplier float64) *BollingerBands {
	return &BollingerBands{
		period:     period,
		multiplier: multiplier,
		window:     make([]float64, period),
		head:       0,
		count:      0,
		sum:        0,
		sumSquares: 0,
	}
}

// Update implements Indicator. The returned value is the middle band.
func (b *BollingerBands) Update(v float64) float64 {
	if b.count == b.period {
		old := b.window[b.head]
		b.sum -= old
		b.sumSquares -= old * old
	} else {
		b.count++
	}

	b.window[b.head] = v
	b.head = (b.head + 1) % b.period
	b.sum += v
	b.sumSquares += v * v

	return b.Middle()
}

// Value implements Indicator, returning the middle band.
func (b *BollingerBands) Value() float64 {
	return b.Middle()
}

// Middle returns the rolling mean.
func (b *BollingerBands) Middle() float64 {
	if b.count == 0 {
		return 0
	}

	return b.sum / float64(b.count)
}

// StdDev returns the rolling population standard deviation.
func (b *BollingerBands) StdDev() float64 {
	if b.count == 0 {
		return 0
	}

	n := float64(b.count)
	mean := b.sum / n

	variance := b.sumSquares/n - mean*mean
	if variance < 0 {
		// Floating point cancellation can push a zero variance negative.
		variance = 0
	}

	return math.Sqrt(variance)
}

// Upper returns middle + multiplier*stddev.
func (b *BollingerBands) Upper() float64 {
	return b.Middle() + b.multiplier*b.StdDev()
}

// Lower returns middle - multiplier*stddev.
func (b *BollingerBands) Lower() float64 {
	return b.Middle() - b.multiplier*b.StdDev()
}

// Bandwidth returns (upper-lower)/middle, 0 when the middle band is 0.
func (b *BollingerBands) Bandwidth() float64 {
	middle := b.Middle()
	if middle == 0 {
		return 0
	}

	return (b.Upper() - b.Lower()) / middle
}

// PercentB returns where v sits within the bands: 0 at the lower band,
// 1 at the upper band. Returns 0.5 when the bands have zero width.
func (b *BollingerBands) PercentB(v float64) float64 {
	width := b.Upper() - b.Lower()
	if width == 0 {
		return 0.5
	}

	return (v - b.Lower()) / width
}

// Ready implements Indicator.
func (b *BollingerBands) Ready() bool {
	return b.count >= b.period
}

// Reset implements Indicator.
func (b *BollingerBands) Reset() {
	for i := range b.window {
		b.window[i] = 0
	}

	b.head = 0
	b.count = 0
	b.sum = 0
	b.sumSquares = 0
}
