package types

// SignalDirection is the decision a signal generator can emit.
type SignalDirection string

const (
	SignalDirectionLong SignalDirection = "LONG"
	SignalDirectionExit SignalDirection = "EXIT"
)

// EventPayload is a closed tagged union over the event kinds the execution
// core emits. The unexported marker keeps the set closed to this package;
// consumers type-switch over the concrete payloads.
type EventPayload interface {
	eventPayload()
}

// CandlePayload records the (possibly drift-adjusted) candle a bar was
// processed with.
type CandlePayload struct {
	Candle Candle `yaml:"candle" json:"candle"`
}

// SignalPayload is the output of a signal generator.
type SignalPayload struct {
	Direction  SignalDirection    `yaml:"direction" json:"direction"`
	Reason     string             `yaml:"reason" json:"reason"`
	Indicators map[string]float64 `yaml:"indicators" json:"indicators"`
}

// OrderPayload records an order transition (creation or cancellation).
type OrderPayload struct {
	Order Order `yaml:"order" json:"order"`
}

// FillPayload records an order resolving to FILLED.
type FillPayload struct {
	OrderID  string  `yaml:"order_id" json:"order_id"`
	Side     Side    `yaml:"side" json:"side"`
	Qty      float64 `yaml:"qty" json:"qty"`
	Price    float64 `yaml:"price" json:"price"`
	Fee      float64 `yaml:"fee" json:"fee"`
	BarIndex int64   `yaml:"bar_index" json:"bar_index"`
}

// TradePayload records a closed round trip.
type TradePayload struct {
	Trade Trade `yaml:"trade" json:"trade"`
}

// EquityPayload is emitted every bar regardless of trading activity.
type EquityPayload struct {
	Cash        float64 `yaml:"cash" json:"cash"`
	Equity      float64 `yaml:"equity" json:"equity"`
	PeakEquity  float64 `yaml:"peak_equity" json:"peak_equity"`
	DrawdownBps float64 `yaml:"drawdown_bps" json:"drawdown_bps"`
}

// StatusPayload explains a non-trading outcome, e.g. a walk-forward
// rejection or a rejected order.
type StatusPayload struct {
	Code    string `yaml:"code" json:"code"`
	Message string `yaml:"message" json:"message"`
}

func (CandlePayload) eventPayload() {}
func (SignalPayload) eventPayload() {}
func (OrderPayload) eventPayload()  {}
func (FillPayload) eventPayload()   {}
func (TradePayload) eventPayload()  {}
func (EquityPayload) eventPayload() {}
func (StatusPayload) eventPayload() {}

// StrategyEvent is one entry of the ordered event stream. Seq is strictly
// monotonically increasing per strategy instance and is the durable
// ordering key for replay and resume; consumers de-duplicate on it.
type StrategyEvent struct {
	Ts      int64        `yaml:"ts" json:"ts"`
	Seq     int64        `yaml:"seq" json:"seq"`
	Payload EventPayload `yaml:"payload" json:"payload"`
}
