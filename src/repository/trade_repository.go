package repository

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"spottrader/src/database"
	"spottrader/src/model"
)

// TradeRepository handles the append-only trade ledger. Rows are written once on
// every completed sell and never updated or deleted.
type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a repository instance using the main database.
func NewTradeRepository() *TradeRepository {
	return &TradeRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *TradeRepository) WithDB(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Append inserts a completed trade into the ledger.
func (r *TradeRepository) Append(ctx context.Context, trade *model.Trade) error {
	err := r.db.WithContext(ctx).Create(trade).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "TradeRepository",
			"op":     "Append",
			"symbol": trade.Symbol,
			"reason": trade.ExitReason,
		}).WithError(err).Error("Failed to append trade")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":         "TradeRepository",
		"op":           "Append",
		"trade_id":     trade.ID,
		"symbol":       trade.Symbol,
		"realized_pnl": trade.RealizedPnl,
	}).Info("Trade appended to ledger")

	return nil
}

// FindLatest returns the most recent trades, newest first.
func (r *TradeRepository) FindLatest(ctx context.Context, limit int) ([]model.Trade, error) {
	if limit <= 0 {
		limit = 20
	}

	var trades []model.Trade

	err := r.db.WithContext(ctx).
		Order("closed_at DESC, id DESC").
		Limit(limit).
		Find(&trades).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "TradeRepository",
			"op":    "FindLatest",
			"limit": limit,
		}).WithError(err).Error("Failed to fetch latest trades")

		return nil, err
	}

	return trades, nil
}

// TotalProfit sums realized P&L over the whole ledger.
func (r *TradeRepository) TotalProfit(ctx context.Context) (float64, error) {
	var total float64

	err := r.db.WithContext(ctx).
		Model(&model.Trade{}).
		Select("COALESCE(SUM(realized_pnl), 0)").
		Scan(&total).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "TradeRepository",
			"op":   "TotalProfit",
		}).WithError(err).Error("Failed to sum realized pnl")

		return 0, err
	}

	return total, nil
}

// DailyProfit sums realized P&L over trades closed on the calendar date of now,
// in now's location.
func (r *TradeRepository) DailyProfit(ctx context.Context, now time.Time) (float64, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var total float64

	err := r.db.WithContext(ctx).
		Model(&model.Trade{}).
		Select("COALESCE(SUM(realized_pnl), 0)").
		Where("closed_at >= ? AND closed_at < ?", dayStart, dayEnd).
		Scan(&total).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "TradeRepository",
			"op":   "DailyProfit",
		}).WithError(err).Error("Failed to sum daily realized pnl")

		return 0, err
	}

	return total, nil
}
