package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"spottrader/src/database"
	"spottrader/src/model"
)

// BotConfigRepository handles the singleton operator configuration row.
type BotConfigRepository struct {
	db *gorm.DB
}

// NewBotConfigRepository creates a repository instance using the main database.
func NewBotConfigRepository() *BotConfigRepository {
	return &BotConfigRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *BotConfigRepository) WithDB(db *gorm.DB) *BotConfigRepository {
	return &BotConfigRepository{db: db}
}

// Load fetches the configuration row, creating it with defaults on first boot.
func (r *BotConfigRepository) Load(ctx context.Context) (*model.BotConfig, error) {
	var config model.BotConfig

	err := r.db.WithContext(ctx).First(&config).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo": "BotConfigRepository",
				"op":   "Load",
			}).WithError(err).Error("Failed to load bot config")

			return nil, err
		}

		config = model.BotConfig{
			RiskMode:      model.RiskModeConservative,
			TradeNotional: model.DefaultTradeNotional,
		}
		if err := r.db.WithContext(ctx).Create(&config).Error; err != nil {
			logger.WithFields(map[string]interface{}{
				"repo": "BotConfigRepository",
				"op":   "Load",
			}).WithError(err).Error("Failed to create default bot config")

			return nil, err
		}

		logger.WithField("repo", "BotConfigRepository").Info("Created default bot config row")
	}

	return &config, nil
}

// Save persists the configuration row immediately.
func (r *BotConfigRepository) Save(ctx context.Context, config *model.BotConfig) error {
	err := r.db.WithContext(ctx).Save(config).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "BotConfigRepository",
			"op":   "Save",
		}).WithError(err).Error("Failed to save bot config")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":      "BotConfigRepository",
		"op":        "Save",
		"running":   config.Running,
		"risk_mode": config.RiskMode,
		"pairs":     config.Pairs,
	}).Debug("Bot config saved")

	return nil
}
