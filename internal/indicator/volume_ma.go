package indicator

// VolumeMA is a moving average of bar volume exposing the relative volume
// of the current bar against the average.
type VolumeMA struct {
	sma *SMA
}

// NewVolumeMA creates a volume moving average with the given period.
func NewVolumeMA(period int) *VolumeMA {
	return &VolumeMA{
		sma: NewSMA(period),
	}
}

// Update implements Indicator.
func (v *VolumeMA) Update(volume float64) float64 {
	return v.sma.Update(volume)
}

// Value implements Indicator.
func (v *VolumeMA) Value() float64 {
	return v.sma.Value()
}

// Relative returns volume divided by the moving average, 0 when the
// average is zero.
func (v *VolumeMA) Relative(volume float64) float64 {
	avg := v.sma.Value()
	if avg == 0 {
		return 0
	}

	return volume / avg
}

// Ready implements Indicator.
func (v *VolumeMA) Ready() bool {
	return v.sma.Ready()
}

// Reset implements Indicator.
func (v *VolumeMA) Reset() {
	v.sma.Reset()
}
