package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	logger "github.com/sirupsen/logrus"

	"spottrader/src/chat"
	"spottrader/src/connectors"
	"spottrader/src/database"
	"spottrader/src/engine"
	"spottrader/src/model"
	"spottrader/src/notify"
	"spottrader/src/repository"
	"spottrader/src/security"
	"spottrader/src/status"
)

// App wires the repositories, the status cache and all supervised loops.
type App struct {
	Cache      *status.Cache
	ConfigRepo *repository.BotConfigRepository
	Positions  *repository.PositionRepository
	Trades     *repository.TradeRepository
	Engine     *engine.Engine
	Digest     *notify.DigestLoop
	Chat       *chat.Responder
}

// New connects the database, applies environment overrides to the stored bot
// config and assembles every component.
func New(ctx context.Context) (*App, error) {
	if err := database.InitMainDB(); err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	configRepo := repository.NewBotConfigRepository()
	positions := repository.NewPositionRepository()
	trades := repository.NewTradeRepository()

	if err := seedBotConfig(ctx, configRepo, GetConfig()); err != nil {
		return nil, err
	}

	cache := status.NewCache(status.DefaultCapacity)

	telegramConfig := func() (token, chatID string) {
		cfg, err := configRepo.Load(context.Background())
		if err != nil {
			logger.WithError(err).Error("failed to load config for telegram send")
			return "", ""
		}
		return cfg.TelegramToken, cfg.TelegramChatID
	}
	telegramSender := notify.NewTelegramSender(telegramConfig)
	notifier := notify.NewNotifier(cache, telegramSender)

	completer, err := buildCompleter()
	if err != nil {
		return nil, err
	}

	eng := engine.New(configRepo, positions, trades, cache, notifier, connectors.NewRateClient(), nil)
	digest := notify.NewDigestLoop(cache, telegramSender, GetConfig().DigestPeriod, completer)
	responder := chat.NewResponder(configRepo, trades, positions, cache, completer, connectors.NewSentimentClient())

	return &App{
		Cache:      cache,
		ConfigRepo: configRepo,
		Positions:  positions,
		Trades:     trades,
		Engine:     eng,
		Digest:     digest,
		Chat:       responder,
	}, nil
}

// StartLoops launches the engine, digest and chat loops. Each loop owns its
// own failure handling; none of them takes the process down.
func (a *App) StartLoops(ctx context.Context) {
	go func() {
		if err := a.Engine.StartLoop(ctx); err != nil {
			logger.WithError(err).Error("engine loop exited with error")
		}
	}()
	go a.Digest.Run(ctx)
	go func() {
		if err := a.Chat.Run(ctx); err != nil {
			logger.WithError(err).Error("chatbot exited with error")
		}
	}()
}

// buildCompleter tolerates a missing OpenAI key: AI features degrade to no-ops.
func buildCompleter() (connectors.Completer, error) {
	client, err := connectors.NewOpenAIClient()
	if err != nil {
		if errors.Is(err, connectors.ErrNotConfigured) {
			logger.Warn("OpenAI key not configured, AI features disabled")
			return nil, nil
		}
		return nil, fmt.Errorf("openai client: %w", err)
	}
	return client, nil
}

// seedBotConfig overwrites stored fields with any environment-provided values.
// Credentials are encrypted at rest when a key is configured.
func seedBotConfig(ctx context.Context, repo *repository.BotConfigRepository, env *Config) error {
	cfg, err := repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load bot config: %w", err)
	}

	changed := false

	if env.BinanceAPIKey != "" {
		encrypted, err := security.EncryptString(env.BinanceAPIKey)
		if err != nil {
			return fmt.Errorf("encrypt api key: %w", err)
		}
		cfg.APIKey = encrypted
		changed = true
	}
	if env.BinanceSecretKey != "" {
		encrypted, err := security.EncryptString(env.BinanceSecretKey)
		if err != nil {
			return fmt.Errorf("encrypt secret key: %w", err)
		}
		cfg.SecretKey = encrypted
		changed = true
	}
	if env.TradingPairs != "" {
		cfg.Pairs = env.TradingPairs
		changed = true
	}
	if env.RiskMode != "" {
		if !model.ValidRiskMode(env.RiskMode) {
			return fmt.Errorf("invalid RISK_MODE %q", env.RiskMode)
		}
		cfg.RiskMode = env.RiskMode
		changed = true
	}
	if env.IsLive != "" {
		live, err := strconv.ParseBool(env.IsLive)
		if err != nil {
			return fmt.Errorf("invalid BINANCE_LIVE %q", env.IsLive)
		}
		cfg.IsLive = live
		changed = true
	}
	if env.TelegramToken != "" {
		cfg.TelegramToken = env.TelegramToken
		changed = true
	}
	if env.TelegramChatID != "" {
		cfg.TelegramChatID = env.TelegramChatID
		changed = true
	}

	if !changed {
		return nil
	}

	if err := repo.Save(ctx, cfg); err != nil {
		return fmt.Errorf("save bot config: %w", err)
	}

	logger.WithFields(logger.Fields{
		"pairs":     cfg.Pairs,
		"is_live":   cfg.IsLive,
		"risk_mode": cfg.RiskMode,
	}).Info("bot config seeded from environment")

	return nil
}
