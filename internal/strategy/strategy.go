// Package strategy contains the signal generators the execution core can
// run. Each generator composes a handful of streaming indicators into
// entry/exit rules; account state is consulted only through the read-only
// view passed on every candle.
package strategy

import (
	"sort"

	"github.com/stratforge-lab/stratforge/internal/types"
	"github.com/stratforge-lab/stratforge/pkg/errors"
)

// Strategy is the capability contract every signal generator implements.
// OnCandle returns nil when the generator has nothing to say for a bar.
type Strategy interface {
	// Name returns the profile slug.
	Name() string
	// OnCandle consumes one bar and optionally emits a signal. Generators
	// must keep ticking their indicators even while not signalling.
	OnCandle(view types.StrategyView, c types.Candle) *types.SignalPayload
	// Reset clears all indicator state.
	Reset()
	// Indicators returns the current indicator values, keyed by name.
	Indicators() map[string]float64
}

var profiles = map[string]func() Strategy{
	"breakout":          func() Strategy { return NewBreakout() },
	"mean-reversion":    func() Strategy { return NewMeanReversion() },
	"trend-pullback":    func() Strategy { return NewTrendPullback() },
	"volatility-burst":  func() Strategy { return NewVolatilityBurst() },
	"channel-reversion": func() Strategy { return NewChannelReversion() },
	"fast-momentum":     func() Strategy { return NewFastMomentum() },
	"deep-reversion":    func() Strategy { return NewDeepReversion() },
	"low-vol-band":      func() Strategy { return NewLowVolBand() },
}

// New constructs the signal generator registered under slug. An unknown
// slug is a programmer error and fatal at construction time.
func New(slug string) (Strategy, error) {
	factory, ok := profiles[slug]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnknownProfile, "unknown strategy profile %q", slug)
	}

	return factory(), nil
}

// Slugs returns all registered profile slugs, sorted.
func Slugs() []string {
	out := make([]string, 0, len(profiles))
	for slug := range profiles {
		out = append(out, slug)
	}

	sort.Strings(out)

	return out
}

func long(reason string, indicators map[string]float64) *types.SignalPayload {
	return &types.SignalPayload{
		Direction:  types.SignalDirectionLong,
		Reason:     reason,
		Indicators: indicators,
	}
}

func exit(reason string, indicators map[string]float64) *types.SignalPayload {
	return &types.SignalPayload{
		Direction:  types.SignalDirectionExit,
		Reason:     reason,
		Indicators: indicators,
	}
}
