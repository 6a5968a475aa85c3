package engine

import (
	"context"
	"fmt"
	"math"

	"spottrader/src/connectors"
	"spottrader/src/indicators"
	"spottrader/src/model"
	"spottrader/src/signal"
	"spottrader/src/status"
)

// processSymbol runs the full per-symbol pipeline for one tick: market
// snapshot, signal evaluation, state machine, display row. Any failure is
// converted into an error row so the remaining symbols still trade.
func (e *Engine) processSymbol(
	ctx context.Context,
	exchange connectors.SpotExchange,
	botCfg *model.BotConfig,
	pair string,
	position *model.Position,
	balances connectors.Balances,
	freeUSDT *float64,
	totals *passTotals,
) status.MarketRow {

	snap, err := e.fetchSnapshot(exchange, pair)
	if err != nil {
		e.log.WithError(err).WithField("symbol", pair).Warn("failed to build market snapshot")
		e.cache.Log(fmt.Sprintf("Error processing %s: %v", pair, err))
		return status.MarketRow{StatusLabel: "Error", ActionLabel: err.Error()}
	}

	open := position != nil && position.State == model.PositionStateOpen
	entryPrice := 0.0
	if open {
		entryPrice = position.EntryPrice
	}

	row := status.MarketRow{
		Price:       snap.Price,
		RSI:         round2(snap.RSI),
		LowerBand:   snap.LowerBand,
		UpperBand:   snap.UpperBand,
		StatusLabel: "Waiting",
		WalletLabel: "⚪ WAITING",
		ActionLabel: "-",
		PnlLabel:    "-",
	}

	heldQty := balances[connectors.BaseAsset(pair)]

	if open {
		row.WalletLabel = "🔵 HOLDING"
		row.StatusLabel = "In Position"
		row.PnlLabel = fmt.Sprintf("%.2f%%", signal.PnlPercent(entryPrice, snap.Price))

		heldValue := heldQty * snap.Price
		totals.invested += heldQty * entryPrice
		totals.walletValue += heldValue

		// Reconcile persisted state against real holdings; flag, never heal.
		if heldValue < e.cfg.DivergenceFloor {
			row.Divergent = true
			e.cache.Log(fmt.Sprintf("⚠️ %s marked open but exchange holds only $%.2f of it", pair, heldValue))
		}
	}

	decision := signal.Evaluate(snap, open, entryPrice, botCfg.RiskMode)

	switch decision.Action {
	case signal.ActionEnter:
		e.tryOpen(ctx, exchange, botCfg, pair, snap.Price, freeUSDT, &row)
	case signal.ActionExit:
		e.tryClose(ctx, exchange, pair, position, snap.Price, heldQty, decision, &row)
	}

	return row
}

// fetchSnapshot pulls candles plus the live ticker and computes indicators.
func (e *Engine) fetchSnapshot(exchange connectors.SpotExchange, pair string) (signal.Snapshot, error) {
	closes, err := exchange.GetCloses(pair, e.cfg.CandleCount)
	if err != nil {
		return signal.Snapshot{}, err
	}
	if len(closes) <= e.cfg.BollingerPeriod {
		return signal.Snapshot{}, connectors.ErrTooFewCandles
	}

	price, err := exchange.GetTicker(pair)
	if err != nil {
		return signal.Snapshot{}, err
	}

	rsi := indicators.Last(indicators.RSI(closes, e.cfg.RSIPeriod))
	lower, _, upper := indicators.Bollinger(closes, e.cfg.BollingerPeriod, e.cfg.BollingerStdDev)

	snap := signal.Snapshot{
		Price:     price,
		RSI:       rsi,
		LowerBand: indicators.Last(lower),
		UpperBand: indicators.Last(upper),
	}
	if math.IsNaN(snap.RSI) || math.IsNaN(snap.LowerBand) {
		return signal.Snapshot{}, connectors.ErrTooFewCandles
	}
	return snap, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
