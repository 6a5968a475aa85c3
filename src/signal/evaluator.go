package signal

import (
	"math"

	"github.com/shopspring/decimal"

	"spottrader/src/model"
)

// Snapshot is the per-symbol market picture handed in by the engine loop.
type Snapshot struct {
	Price     float64
	RSI       float64
	LowerBand float64
	UpperBand float64
}

type Action string

const (
	ActionHold  Action = "hold"
	ActionEnter Action = "enter"
	ActionExit  Action = "exit"
)

// Decision is the outcome of one evaluation. ExitReason is set only for
// ActionExit; PnlPct is set whenever the position is open.
type Decision struct {
	Action     Action
	ExitReason string
	PnlPct     float64
}

// Exit thresholds, in percent of entry price.
const (
	TakeProfitPct = 2.0
	StopLossPct   = -1.5
	RSIExitLevel  = 70.0
)

// EntryRSIThreshold is the single knob controlling aggressiveness: wider
// thresholds admit more entries. Unknown modes fall back to conservative.
func EntryRSIThreshold(mode string) float64 {
	switch mode {
	case model.RiskModeModerate:
		return 35.0
	case model.RiskModeAggressive:
		return 40.0
	default:
		return 30.0
	}
}

// Evaluate turns a market snapshot plus position state into a trading decision.
// Pure function of its inputs.
//
// Entry requires double confirmation: RSI below the risk-mode threshold AND
// price under the lower Bollinger band. Exit conditions are checked in fixed
// priority order (take profit, stop loss, technical) so that when several hold
// at once the reported reason is the highest-priority one.
func Evaluate(snap Snapshot, open bool, entryPrice float64, riskMode string) Decision {
	if !open {
		if math.IsNaN(snap.RSI) || math.IsNaN(snap.LowerBand) {
			return Decision{Action: ActionHold}
		}
		if snap.RSI < EntryRSIThreshold(riskMode) && snap.Price < snap.LowerBand {
			return Decision{Action: ActionEnter}
		}
		return Decision{Action: ActionHold}
	}

	pnlPct := PnlPercent(entryPrice, snap.Price)

	switch {
	case pnlPct >= TakeProfitPct:
		return Decision{Action: ActionExit, ExitReason: model.ExitReasonTakeProfit, PnlPct: pnlPct}
	case pnlPct <= StopLossPct:
		return Decision{Action: ActionExit, ExitReason: model.ExitReasonStopLoss, PnlPct: pnlPct}
	case !math.IsNaN(snap.RSI) && snap.RSI > RSIExitLevel:
		return Decision{Action: ActionExit, ExitReason: model.ExitReasonTechnical, PnlPct: pnlPct}
	}

	return Decision{Action: ActionHold, PnlPct: pnlPct}
}

// PnlPercent computes ((price - entry) / entry) * 100 without accumulating
// float error on the division.
func PnlPercent(entryPrice, price float64) float64 {
	if entryPrice == 0 {
		return 0
	}
	entry := decimal.NewFromFloat(entryPrice)
	pct := decimal.NewFromFloat(price).
		Sub(entry).
		Div(entry).
		Mul(decimal.NewFromInt(100))
	f, _ := pct.Float64()
	return f
}
