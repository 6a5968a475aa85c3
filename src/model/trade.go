package model

import "time"

const (
	TradeSideSell = "SELL"
)

const (
	ExitReasonTakeProfit = "take_profit"
	ExitReasonStopLoss   = "stop_loss"
	ExitReasonTechnical  = "technical_exit"
)

// Trade is one completed round trip, appended when a position is sold and never
// mutated afterwards. The opening buy is implicit in the position record.
type Trade struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Symbol      string    `gorm:"size:20;not null;index" json:"symbol"`
	Side        string    `gorm:"size:10;not null;default:SELL" json:"side"`
	BuyPrice    float64   `json:"buy_price"`
	SellPrice   float64   `json:"sell_price"`
	Quantity    float64   `json:"quantity"`
	RealizedPnl float64   `json:"realized_pnl"`
	PnlPct      float64   `json:"pnl_pct"`
	ExitReason  string    `gorm:"size:30;not null" json:"exit_reason"`
	ClosedAt    time.Time `gorm:"index" json:"closed_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Trade) TableName() string {
	return "trades"
}

// ExitReasonLabel maps the stored enum to the label shown on the dashboard and
// in Telegram alerts.
func ExitReasonLabel(reason string) string {
	switch reason {
	case ExitReasonTakeProfit:
		return "Take Profit (+2%)"
	case ExitReasonStopLoss:
		return "Stop Loss (-1.5%)"
	case ExitReasonTechnical:
		return "RSI Stretched (>70)"
	default:
		return reason
	}
}
