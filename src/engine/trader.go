package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"spottrader/src/connectors"
	"spottrader/src/model"
	"spottrader/src/notify"
	"spottrader/src/signal"
	"spottrader/src/status"
)

// tryOpen attempts the FLAT → OPEN transition. The balance gate rejects before
// any order call; an exchange failure leaves the symbol flat and relies on the
// next tick's re-evaluation, never a same-tick retry.
func (e *Engine) tryOpen(
	ctx context.Context,
	exchange connectors.SpotExchange,
	botCfg *model.BotConfig,
	pair string,
	price float64,
	freeUSDT *float64,
	row *status.MarketRow,
) {
	if *freeUSDT < e.cfg.MinFreeBalance {
		row.ActionLabel = fmt.Sprintf("Skipped: low balance ($%.2f)", *freeUSDT)
		return
	}

	notional := botCfg.TradeNotional
	if notional <= 0 {
		notional = model.DefaultTradeNotional
	}

	qty, _ := decimal.NewFromFloat(notional).
		Div(decimal.NewFromFloat(price)).
		Round(6).
		Float64()

	fill, err := exchange.MarketBuy(pair, qty)
	if err != nil {
		row.ActionLabel = fmt.Sprintf("Buy failed: %v", err)
		e.log.WithError(err).WithField("symbol", pair).Error("market buy failed")
		e.cache.Log(fmt.Sprintf("Error buying %s: %v", pair, err))
		return
	}

	position := &model.Position{
		Symbol:     pair,
		State:      model.PositionStateOpen,
		EntryPrice: price,
		OpenedAt:   e.now(),
	}
	if err := e.positions.Upsert(ctx, position); err != nil {
		// The buy filled but the record did not persist; the next tick's
		// reconciliation flags the held balance without a matching position.
		row.ActionLabel = "Bought, but failed to persist position"
		e.log.WithError(err).WithField("symbol", pair).Error("failed to persist opened position")
		return
	}

	// Local approximation; the authoritative balance arrives next tick.
	*freeUSDT -= notional
	e.cache.SetBalance(*freeUSDT)

	row.StatusLabel = "🟢 OPPORTUNITY"
	row.ActionLabel = "BUY (Double Conf.) 🟢"
	row.WalletLabel = "🔵 HOLDING"

	msg := fmt.Sprintf("🚀 BUY executed on %s at $%v", pair, price)
	e.notifier.Notify(notify.EventOpened, msg, fmt.Sprintf(
		"🟢 *BUY EXECUTED*\n\nPair: `%s`\nPrice: `$%v`\nQty: `%v`\nStrategy: Double Confirmation",
		pair, price, fill.Quantity,
	))
}

// tryClose attempts the OPEN → FLAT transition. The position passes through
// the transient closing state around the sell call; a sell below the exchange
// minimum is an explicit dust outcome, left open and flagged, not a silent
// no-op.
func (e *Engine) tryClose(
	ctx context.Context,
	exchange connectors.SpotExchange,
	pair string,
	position *model.Position,
	price float64,
	heldQty float64,
	decision signal.Decision,
	row *status.MarketRow,
) {
	if position == nil || position.State != model.PositionStateOpen {
		return
	}

	reasonLabel := model.ExitReasonLabel(decision.ExitReason)
	row.StatusLabel = "🔴 SELL: " + reasonLabel

	if heldQty*price <= e.cfg.MinSellNotional {
		row.ActionLabel = fmt.Sprintf("Dust: $%.2f held, below $%.2f exchange minimum", heldQty*price, e.cfg.MinSellNotional)
		row.Dust = true
		return
	}

	if err := e.positions.UpdateState(ctx, pair, model.PositionStateClosing); err != nil {
		row.ActionLabel = "Sell deferred: failed to mark position closing"
		return
	}

	fill, err := exchange.MarketSell(pair, heldQty)
	if err != nil {
		row.ActionLabel = fmt.Sprintf("Sell failed: %v", err)
		e.log.WithError(err).WithField("symbol", pair).Error("market sell failed")
		e.cache.Log(fmt.Sprintf("Error selling %s: %v", pair, err))
		if uerr := e.positions.UpdateState(ctx, pair, model.PositionStateOpen); uerr != nil {
			e.log.WithError(uerr).WithField("symbol", pair).Error("failed to revert closing state")
		}
		return
	}

	sellPrice := fill.Price
	if sellPrice == 0 {
		sellPrice = price
	}
	soldQty := fill.Quantity
	if soldQty == 0 {
		soldQty = heldQty
	}

	realized, _ := decimal.NewFromFloat(sellPrice).
		Sub(decimal.NewFromFloat(position.EntryPrice)).
		Mul(decimal.NewFromFloat(soldQty)).
		Round(8).
		Float64()
	pnlPct := signal.PnlPercent(position.EntryPrice, sellPrice)

	trade := &model.Trade{
		Symbol:      pair,
		Side:        model.TradeSideSell,
		BuyPrice:    position.EntryPrice,
		SellPrice:   sellPrice,
		Quantity:    soldQty,
		RealizedPnl: realized,
		PnlPct:      pnlPct,
		ExitReason:  decision.ExitReason,
		ClosedAt:    e.now(),
	}
	if err := e.trades.Append(ctx, trade); err != nil {
		e.log.WithError(err).WithField("symbol", pair).Error("failed to append trade to ledger")
	}

	if err := e.positions.Delete(ctx, pair); err != nil {
		e.log.WithError(err).WithField("symbol", pair).Error("failed to delete closed position")
	}

	row.ActionLabel = fmt.Sprintf("SELL (%s) 🔴", reasonLabel)
	row.WalletLabel = "⚪ WAITING"
	row.PnlLabel = fmt.Sprintf("%.2f%%", pnlPct)

	msg := fmt.Sprintf("💰 SELL %s | P&L: $%.2f (%.2f%%)", pair, realized, pnlPct)
	e.notifier.Notify(notify.EventClosed, msg, fmt.Sprintf(
		"🔴 *SELL EXECUTED*\n\nPair: `%s`\nP&L: `$%.2f` (%.2f%%)\nReason: %s",
		pair, realized, pnlPct, reasonLabel,
	))
}
