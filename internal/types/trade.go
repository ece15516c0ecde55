package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeStatus marks whether a trade's position has been closed.
type TradeStatus string

const (
	TradeStatusOpen   TradeStatus = "OPEN"
	TradeStatusClosed TradeStatus = "CLOSED"
)

// Trade is the record of one entry/exit round trip. It is created OPEN at
// the entry fill and closed exactly once at the exit fill.
type Trade struct {
	ID         string      `yaml:"id" json:"id"`
	StrategyID string      `yaml:"strategy_id" json:"strategy_id"`
	Status     TradeStatus `yaml:"status" json:"status"`
	Qty        float64     `yaml:"qty" json:"qty"`
	EntryTs    int64       `yaml:"entry_ts" json:"entry_ts"`
	ExitTs     int64       `yaml:"exit_ts" json:"exit_ts"`
	EntryPrice float64     `yaml:"entry_price" json:"entry_price"`
	ExitPrice  float64     `yaml:"exit_price" json:"exit_price"`
	// GrossPnl excludes fees; NetPnl = GrossPnl - Fees.
	GrossPnl float64 `yaml:"gross_pnl" json:"gross_pnl"`
	Fees     float64 `yaml:"fees" json:"fees"`
	NetPnl   float64 `yaml:"net_pnl" json:"net_pnl"`
	HoldBars int64   `yaml:"hold_bars" json:"hold_bars"`
	Reason   Reason  `yaml:"reason" json:"reason"`
}

// EntryTime returns the entry timestamp as time.Time in UTC.
func (t Trade) EntryTime() time.Time {
	return time.UnixMilli(t.EntryTs).UTC()
}

// ExitTime returns the exit timestamp as time.Time in UTC.
func (t Trade) ExitTime() time.Time {
	return time.UnixMilli(t.ExitTs).UTC()
}

// PnlBps returns the net PnL of the closed trade in basis points of the
// entry notional.
func (t Trade) PnlBps() float64 {
	if t.EntryPrice <= 0 || t.Qty <= 0 {
		return 0
	}

	notional := decimal.NewFromFloat(t.EntryPrice).Mul(decimal.NewFromFloat(t.Qty))
	if notional.IsZero() {
		return 0
	}

	bps, _ := decimal.NewFromFloat(t.NetPnl).
		Div(notional).
		Mul(decimal.NewFromInt(10_000)).
		Float64()

	return bps
}
