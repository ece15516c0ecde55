package types

import (
	"time"

	"github.com/stratforge-lab/stratforge/pkg/errors"
)

// Candle is one OHLCV price sample for a fixed time interval.
// Immutable: one per (symbol, timeframe, bar-aligned timestamp).
type Candle struct {
	// Ts is the bar-aligned open time in Unix milliseconds.
	Ts     int64   `yaml:"ts" json:"ts" validate:"gt=0"`
	Open   float64 `yaml:"open" json:"open" validate:"gt=0"`
	High   float64 `yaml:"high" json:"high" validate:"gt=0"`
	Low    float64 `yaml:"low" json:"low" validate:"gt=0"`
	Close  float64 `yaml:"close" json:"close" validate:"gt=0"`
	Volume float64 `yaml:"volume" json:"volume" validate:"gte=0"`
}

// Time returns the candle open time as time.Time in UTC.
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.Ts).UTC()
}

// Timeframe identifies the bar interval of a candle series.
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
)

var timeframeDurations = map[Timeframe]int64{
	Timeframe1m:  60_000,
	Timeframe5m:  300_000,
	Timeframe15m: 900_000,
	Timeframe1h:  3_600_000,
	Timeframe4h:  14_400_000,
	Timeframe1d:  86_400_000,
}

// DurationMs returns the bar interval in milliseconds.
func (t Timeframe) DurationMs() (int64, error) {
	ms, ok := timeframeDurations[t]
	if !ok {
		return 0, errors.Newf(errors.ErrCodeInvalidTimeframe, "unknown timeframe %q", string(t))
	}

	return ms, nil
}

// Align truncates ts down to the timeframe grid.
func (t Timeframe) Align(ts int64) (int64, error) {
	ms, err := t.DurationMs()
	if err != nil {
		return 0, err
	}

	return ts - ts%ms, nil
}
