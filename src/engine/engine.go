package engine

import (
	"context"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"spottrader/src/connectors"
	"spottrader/src/model"
	"spottrader/src/notify"
	"spottrader/src/repository"
	"spottrader/src/security"
	"spottrader/src/status"
)

// ExchangeFactory builds a spot client from credentials. Injected so tests can
// substitute a fake exchange.
type ExchangeFactory func(apiKey, apiSecret string, live bool) (connectors.SpotExchange, error)

// Engine is the trading scheduler: one full pass over all configured pairs per
// tick. It is the sole writer of the position table and the status cache.
type Engine struct {
	cfg        Config
	configRepo *repository.BotConfigRepository
	positions  *repository.PositionRepository
	trades     *repository.TradeRepository
	cache      *status.Cache
	notifier   *notify.Notifier
	rates      *connectors.RateClient

	newExchange ExchangeFactory
	log         *logger.Entry
	now         func() time.Time

	rateFetchedAt time.Time
}

func New(
	configRepo *repository.BotConfigRepository,
	positions *repository.PositionRepository,
	trades *repository.TradeRepository,
	cache *status.Cache,
	notifier *notify.Notifier,
	rates *connectors.RateClient,
	newExchange ExchangeFactory,
) *Engine {
	if newExchange == nil {
		newExchange = func(apiKey, apiSecret string, live bool) (connectors.SpotExchange, error) {
			return connectors.NewBinanceSpot(apiKey, apiSecret, live)
		}
	}

	return &Engine{
		cfg:         GetConfig(),
		configRepo:  configRepo,
		positions:   positions,
		trades:      trades,
		cache:       cache,
		notifier:    notifier,
		rates:       rates,
		newExchange: newExchange,
		log:         logger.WithField("component", "engine"),
		now:         time.Now,
	}
}

// StartLoop restores persisted positions and then runs one pass per tick until
// ctx is cancelled.
func (e *Engine) StartLoop(ctx context.Context) error {
	if err := e.restorePositions(ctx); err != nil {
		return err
	}

	e.cache.Log("System started. Waiting for configuration...")
	e.log.WithField("period", e.cfg.LoopPeriod).Info("engine loop started")

	ticker := time.NewTicker(e.cfg.LoopPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Info("engine loop stopped")
			return nil
		case <-ticker.C:
			e.cache.Heartbeat("engine")
			e.runTick(ctx)
		}
	}
}

// restorePositions reloads the open-position table before the first tick. A
// row stuck in the transient closing state means the process died mid-sell;
// it is returned to open and surfaced for operator attention, never trusted
// as sold.
func (e *Engine) restorePositions(ctx context.Context) error {
	positions, err := e.positions.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("restore positions: %w", err)
	}

	for i := range positions {
		p := positions[i]
		if p.State == model.PositionStateClosing {
			e.log.WithField("symbol", p.Symbol).
				Warn("position was mid-close at shutdown, reverting to open for review")
			e.cache.Log(fmt.Sprintf("⚠️ %s was mid-sell at shutdown; verify holdings", p.Symbol))
			if err := e.positions.UpdateState(ctx, p.Symbol, model.PositionStateOpen); err != nil {
				return err
			}
		}
	}

	if len(positions) > 0 {
		e.log.WithField("count", len(positions)).Info("open positions restored")
	}
	return nil
}

// runTick executes one full pass. Failures are contained per symbol or per
// pass; the loop itself never exits on an exchange error.
func (e *Engine) runTick(ctx context.Context) {
	botCfg, err := e.configRepo.Load(ctx)
	if err != nil {
		e.log.WithError(err).Error("failed to load bot config, skipping tick")
		return
	}

	e.cache.SetRunning(botCfg.Running)

	pairs := botCfg.PairList()
	if !botCfg.Running || len(pairs) == 0 {
		return
	}

	e.refreshRate(ctx)

	apiKey, err := security.DecryptString(botCfg.APIKey)
	if err != nil {
		e.log.WithError(err).Error("failed to decrypt API key")
		return
	}
	apiSecret, err := security.DecryptString(botCfg.SecretKey)
	if err != nil {
		e.log.WithError(err).Error("failed to decrypt API secret")
		return
	}

	exchange, err := e.newExchange(apiKey, apiSecret, botCfg.IsLive)
	if err != nil {
		if e.cache.SetConnected(false) {
			e.cache.Log("⚠️ Exchange credentials not configured")
		}
		return
	}

	balances, err := exchange.GetBalances()
	if err != nil {
		e.markDisconnected(err)
		return
	}
	e.markConnected(balances["USDT"])

	freeUSDT := balances["USDT"]
	e.cache.SetBalance(freeUSDT)

	open, err := e.openPositionsBySymbol(ctx)
	if err != nil {
		e.log.WithError(err).Error("failed to load positions, skipping tick")
		return
	}

	totals := passTotals{}
	for _, pair := range pairs {
		row := e.processSymbol(ctx, exchange, botCfg, pair, open[pair], balances, &freeUSDT, &totals)
		e.cache.SetMarketRow(pair, row)
	}

	e.cache.SetTotals(totals.invested, totals.walletValue)
}

type passTotals struct {
	invested    float64
	walletValue float64
}

func (e *Engine) openPositionsBySymbol(ctx context.Context) (map[string]*model.Position, error) {
	positions, err := e.positions.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	open := make(map[string]*model.Position, len(positions))
	for i := range positions {
		open[positions[i].Symbol] = &positions[i]
	}
	return open, nil
}

// refreshRate updates the USD→BRL quote at most once per refresh window. The
// lookup never gates the trading pass.
func (e *Engine) refreshRate(ctx context.Context) {
	if e.now().Sub(e.rateFetchedAt) < e.cfg.RateRefreshPeriod {
		return
	}

	rateCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rate, err := e.rates.GetUSDBRL(rateCtx)
	if err != nil {
		e.log.WithError(err).Debug("currency rate refresh failed")
		return
	}

	e.cache.SetUSDBRLRate(rate)
	e.rateFetchedAt = e.now()
}

func (e *Engine) markDisconnected(err error) {
	e.log.WithError(err).Error("exchange connectivity lost")
	if e.cache.SetConnected(false) {
		e.notifier.Notify(notify.EventConnectivityLost,
			"⚠️ Lost connection to Binance",
			"⚠️ *Connection lost*\n\nThe engine cannot reach Binance; trading is paused until it recovers.")
	}
}

func (e *Engine) markConnected(balance float64) {
	if e.cache.SetConnected(true) {
		msg := fmt.Sprintf("✅ Binance connection OK! Balance: $%.2f", balance)
		e.notifier.Notify(notify.EventConnectivityRestored, msg, "")
	}
}
