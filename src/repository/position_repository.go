package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"spottrader/src/database"
	"spottrader/src/model"
)

// PositionRepository handles the keyed open-position table. The engine loop is
// the only writer; everything else reads.
type PositionRepository struct {
	db *gorm.DB
}

// NewPositionRepository creates a repository instance using the main database.
func NewPositionRepository() *PositionRepository {
	return &PositionRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *PositionRepository) WithDB(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// FindBySymbol fetches the position for a symbol. Returns (nil, nil) when the
// symbol is flat.
func (r *PositionRepository) FindBySymbol(ctx context.Context, symbol string) (*model.Position, error) {
	var position model.Position

	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		First(&position).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":   "PositionRepository",
			"op":     "FindBySymbol",
			"symbol": symbol,
		}).WithError(err).Error("Failed to fetch position")

		return nil, err
	}

	return &position, nil
}

// FindAll returns every persisted position, used to restore state on boot and
// to aggregate wallet totals per tick.
func (r *PositionRepository) FindAll(ctx context.Context) ([]model.Position, error) {
	var positions []model.Position

	err := r.db.WithContext(ctx).
		Order("symbol ASC").
		Find(&positions).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "PositionRepository",
			"op":   "FindAll",
		}).WithError(err).Error("Failed to list positions")

		return nil, err
	}

	return positions, nil
}

// Upsert writes the position keyed by symbol, creating or replacing the row.
func (r *PositionRepository) Upsert(ctx context.Context, position *model.Position) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}},
			DoUpdates: clause.AssignmentColumns([]string{"state", "entry_price", "opened_at", "updated_at"}),
		}).
		Create(position).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "PositionRepository",
			"op":     "Upsert",
			"symbol": position.Symbol,
			"state":  position.State,
		}).WithError(err).Error("Failed to upsert position")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "PositionRepository",
		"op":          "Upsert",
		"symbol":      position.Symbol,
		"state":       position.State,
		"entry_price": position.EntryPrice,
	}).Debug("Position persisted")

	return nil
}

// UpdateState changes only the state column for a symbol.
func (r *PositionRepository) UpdateState(ctx context.Context, symbol, state string) error {
	err := r.db.WithContext(ctx).
		Model(&model.Position{}).
		Where("symbol = ?", symbol).
		Update("state", state).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "PositionRepository",
			"op":     "UpdateState",
			"symbol": symbol,
			"state":  state,
		}).WithError(err).Error("Failed to update position state")
	}

	return err
}

// Delete removes the position for a symbol, returning it to flat.
func (r *PositionRepository) Delete(ctx context.Context, symbol string) error {
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Delete(&model.Position{}).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "PositionRepository",
			"op":     "Delete",
			"symbol": symbol,
		}).WithError(err).Error("Failed to delete position")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":   "PositionRepository",
		"op":     "Delete",
		"symbol": symbol,
	}).Debug("Position removed")

	return nil
}
