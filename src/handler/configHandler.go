package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	logger "github.com/sirupsen/logrus"

	"spottrader/src/model"
	"spottrader/src/security"
)

type configStore interface {
	Load(ctx context.Context) (*model.BotConfig, error)
	Save(ctx context.Context, config *model.BotConfig) error
}

// ConfigView is the read shape of the bot configuration. Secrets are masked:
// only their last four characters survive.
type ConfigView struct {
	APIKey         string  `json:"api_key"`
	SecretKey      string  `json:"secret_key"`
	Pairs          string  `json:"pairs"`
	IsLive         bool    `json:"is_live"`
	RiskMode       string  `json:"risk_mode"`
	TradeNotional  float64 `json:"trade_notional"`
	Running        bool    `json:"running"`
	TelegramToken  string  `json:"telegram_token"`
	TelegramChatID string  `json:"telegram_chat_id"`
}

// ConfigUpdate is a partial update: nil fields are left untouched.
type ConfigUpdate struct {
	APIKey         *string  `json:"api_key"`
	SecretKey      *string  `json:"secret_key"`
	Pairs          *string  `json:"pairs"`
	IsLive         *bool    `json:"is_live"`
	RiskMode       *string  `json:"risk_mode"`
	TradeNotional  *float64 `json:"trade_notional"`
	Running        *bool    `json:"running"`
	TelegramToken  *string  `json:"telegram_token"`
	TelegramChatID *string  `json:"telegram_chat_id"`
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "••••"
	}
	return "••••" + s[len(s)-4:]
}

// GetConfigHandler returns the current configuration with credentials masked.
func GetConfigHandler(store configStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := store.Load(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to load bot config")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		apiKey, _ := security.DecryptString(cfg.APIKey)
		secretKey, _ := security.DecryptString(cfg.SecretKey)

		view := ConfigView{
			APIKey:         maskSecret(apiKey),
			SecretKey:      maskSecret(secretKey),
			Pairs:          cfg.Pairs,
			IsLive:         cfg.IsLive,
			RiskMode:       cfg.RiskMode,
			TradeNotional:  cfg.TradeNotional,
			Running:        cfg.Running,
			TelegramToken:  maskSecret(cfg.TelegramToken),
			TelegramChatID: cfg.TelegramChatID,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(view); err != nil {
			logger.WithError(err).Error("failed to encode config response")
		}
	}
}

// UpdateConfigHandler applies a partial configuration update. Changes are
// persisted immediately and picked up by the engine on its next tick.
func UpdateConfigHandler(store configStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update ConfigUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if update.RiskMode != nil && !model.ValidRiskMode(*update.RiskMode) {
			http.Error(w, "invalid risk_mode", http.StatusBadRequest)
			return
		}
		if update.TradeNotional != nil && *update.TradeNotional <= 0 {
			http.Error(w, "invalid trade_notional", http.StatusBadRequest)
			return
		}

		cfg, err := store.Load(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to load bot config")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if update.APIKey != nil {
			encrypted, err := security.EncryptString(strings.TrimSpace(*update.APIKey))
			if err != nil {
				logger.WithError(err).Error("failed to encrypt api key")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			cfg.APIKey = encrypted
		}
		if update.SecretKey != nil {
			encrypted, err := security.EncryptString(strings.TrimSpace(*update.SecretKey))
			if err != nil {
				logger.WithError(err).Error("failed to encrypt secret key")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			cfg.SecretKey = encrypted
		}
		if update.Pairs != nil {
			cfg.Pairs = strings.TrimSpace(*update.Pairs)
		}
		if update.IsLive != nil {
			cfg.IsLive = *update.IsLive
		}
		if update.RiskMode != nil {
			cfg.RiskMode = *update.RiskMode
		}
		if update.TradeNotional != nil {
			cfg.TradeNotional = *update.TradeNotional
		}
		if update.Running != nil {
			cfg.Running = *update.Running
		}
		if update.TelegramToken != nil {
			cfg.TelegramToken = strings.TrimSpace(*update.TelegramToken)
		}
		if update.TelegramChatID != nil {
			cfg.TelegramChatID = strings.TrimSpace(*update.TelegramChatID)
		}

		if err := store.Save(r.Context(), cfg); err != nil {
			logger.WithError(err).Error("failed to save bot config")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		logger.WithFields(logger.Fields{
			"running":   cfg.Running,
			"is_live":   cfg.IsLive,
			"risk_mode": cfg.RiskMode,
		}).Info("bot config updated")

		w.WriteHeader(http.StatusNoContent)
	}
}
