package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/stratforge-lab/stratforge/pkg/errors"
)

type Side string

type OrderStatus string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

const (
	OrderReasonSignal            string = "signal"
	OrderReasonForcedLiquidation string = "forced_liquidation"
)

// Reason records why an order or event was produced.
type Reason struct {
	Reason  string `yaml:"reason" json:"reason" validate:"required"`
	Message string `yaml:"message" json:"message"`
}

// Order is a single-use instruction to the execution core. Created PENDING,
// resolved exactly once to FILLED or CANCELLED, immutable after resolution.
type Order struct {
	ID              string      `yaml:"id" json:"id" validate:"required,uuid"`
	Side            Side        `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Qty             float64     `yaml:"qty" json:"qty" validate:"required,gt=0"`
	Status          OrderStatus `yaml:"status" json:"status" validate:"required,oneof=PENDING FILLED CANCELLED"`
	CreatedBarIndex int64       `yaml:"created_bar_index" json:"created_bar_index" validate:"gte=0"`
	// FilledPrice is set exactly once, when the order resolves to FILLED.
	FilledPrice optional.Option[float64] `yaml:"filled_price" json:"filled_price"`
	// OraclePenalizedPrice carries the penalty-discounted look-ahead exit
	// price. Only ever set on SELL orders created by the oracle-exit
	// evaluator on a backtest/replay path.
	OraclePenalizedPrice optional.Option[float64] `yaml:"oracle_penalized_price" json:"oracle_penalized_price"`
	Reason               Reason                   `yaml:"reason" json:"reason" validate:"required"`
}

// Validate validates the Order struct.
func (o *Order) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	return nil
}
