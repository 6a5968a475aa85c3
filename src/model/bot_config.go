package model

import (
	"strings"
	"time"
)

const (
	RiskModeConservative = "conservative"
	RiskModeModerate     = "moderate"
	RiskModeAggressive   = "aggressive"
)

// DefaultTradeNotional is the fixed USDT amount committed per entry. 11 USDT
// clears the Binance 10 USDT order minimum with room for fees.
const DefaultTradeNotional = 11.0

// BotConfig is the single operator-editable configuration row. API credentials
// are stored encrypted (see security package); env vars take priority on boot.
type BotConfig struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	APIKey         string    `gorm:"size:256" json:"api_key"`
	SecretKey      string    `gorm:"size:256" json:"secret_key"`
	Pairs          string    `gorm:"size:512" json:"pairs"` // comma separated, e.g. "BTC/USDT,ETH/USDT"
	IsLive         bool      `gorm:"not null;default:false" json:"is_live"`
	RiskMode       string    `gorm:"size:20;not null;default:conservative" json:"risk_mode"`
	TradeNotional  float64   `gorm:"not null;default:11" json:"trade_notional"`
	Running        bool      `gorm:"not null;default:false" json:"running"`
	TelegramToken  string    `gorm:"size:256" json:"telegram_token"`
	TelegramChatID string    `gorm:"size:64" json:"telegram_chat_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (BotConfig) TableName() string {
	return "bot_config"
}

// PairList splits the stored pair string, dropping empty entries.
func (c *BotConfig) PairList() []string {
	if c.Pairs == "" {
		return nil
	}
	parts := strings.Split(c.Pairs, ",")
	pairs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			pairs = append(pairs, p)
		}
	}
	return pairs
}

// ValidRiskMode reports whether mode is one of the closed risk tiers.
func ValidRiskMode(mode string) bool {
	switch mode {
	case RiskModeConservative, RiskModeModerate, RiskModeAggressive:
		return true
	}
	return false
}
