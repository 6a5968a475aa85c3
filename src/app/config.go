package app

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the boot-time environment. Credential and pair values set here
// take priority over whatever the database row holds: they are written into
// the stored config on startup.
type Config struct {
	BinanceAPIKey    string        `envconfig:"BINANCE_API_KEY"`
	BinanceSecretKey string        `envconfig:"BINANCE_SECRET_KEY"`
	TradingPairs     string        `envconfig:"TRADING_PAIRS"`
	IsLive           string        `envconfig:"BINANCE_LIVE"` // "true"/"false", empty keeps stored value
	RiskMode         string        `envconfig:"RISK_MODE"`
	TelegramToken    string        `envconfig:"TELEGRAM_TOKEN"`
	TelegramChatID   string        `envconfig:"TELEGRAM_CHAT_ID"`
	DigestPeriod     time.Duration `envconfig:"DIGEST_PERIOD" default:"6h"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
