package indicator

// KeltnerChannel is EMA(close) ± multiplier*ATR over high/low/close bars.
type KeltnerChannel struct {
	multiplier float64
	ema        *EMA
	atr        *ATR
}

// NewKeltnerChannel creates a Keltner Channel with the given EMA period,
// ATR period and ATR multiplier.
func NewKeltnerChannel(emaPeriod, atrPeriod int, multiplier float64) *KeltnerChannel {
	return &KeltnerChannel{
		multiplier: multiplier,
		ema:        NewEMA(emaPeriod),
		atr:        NewATR(atrPeriod),
	}
}

// UpdateBar implements BarIndicator. The returned value is the middle line.
func (k *KeltnerChannel) UpdateBar(high, low, close float64) float64 {
	k.atr.UpdateBar(high, low, close)

	return k.ema.Update(close)
}

// Value implements BarIndicator, returning the middle line.
func (k *KeltnerChannel) Value() float64 {
	return k.ema.Value()
}

// Middle returns the EMA of closes.
func (k *KeltnerChannel) Middle() float64 {
	return k.ema.Value()
}

// Upper returns middle + multiplier*ATR.
func (k *KeltnerChannel) Upper() float64 {
	return k.ema.Value() + k.multiplier*k.atr.Value()
}

// Lower returns middle - multiplier*ATR.
func (k *KeltnerChannel) Lower() float64 {
	return k.ema.Value() - k.multiplier*k.atr.Value()
}

// Ready implements BarIndicator.
func (k *KeltnerChannel) Ready() bool {
	return k.ema.Ready() && k.atr.Ready()
}

// Reset implements BarIndicator.
func (k *KeltnerChannel) Reset() {
	k.ema.Reset()
	k.atr.Reset()
}
