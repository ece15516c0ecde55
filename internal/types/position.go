package types

type PositionSide string

const (
	PositionSideFlat PositionSide = "FLAT"
	PositionSideLong PositionSide = "LONG"
)

// Position represents the current holding of one strategy instance.
// At most one open position exists per instance at any time.
type Position struct {
	Side          PositionSide `yaml:"side" json:"side"`
	Qty           float64      `yaml:"qty" json:"qty"`
	EntryPrice    float64      `yaml:"entry_price" json:"entry_price"`
	EntryTs       int64        `yaml:"entry_ts" json:"entry_ts"`
	EntryBarIndex int64        `yaml:"entry_bar_index" json:"entry_bar_index"`
}

// FlatPosition returns the zero holding.
func FlatPosition() Position {
	return Position{
		Side:          PositionSideFlat,
		Qty:           0,
		EntryPrice:    0,
		EntryTs:       0,
		EntryBarIndex: 0,
	}
}

// IsOpen reports whether the position holds quantity.
func (p Position) IsOpen() bool {
	return p.Side == PositionSideLong && p.Qty > 0
}

// Value returns the position's market value at the given price.
func (p Position) Value(price float64) float64 {
	if !p.IsOpen() {
		return 0
	}

	return p.Qty * price
}
