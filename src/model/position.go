package model

import "time"

// Position is the single open slot tracked per symbol. A symbol with no row is
// flat; a closed position is deleted, not retained.
type Position struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Symbol     string    `gorm:"size:20;not null;uniqueIndex" json:"symbol"`
	State      string    `gorm:"size:20;not null;default:open" json:"state"`
	EntryPrice float64   `json:"entry_price"`
	OpenedAt   time.Time `json:"opened_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const (
	PositionStateOpen = "open"
	// PositionStateClosing marks the window between deciding to sell and the
	// order call resolving, so a re-entrant pass cannot evaluate the symbol twice.
	PositionStateClosing = "closing"
)

func (Position) TableName() string {
	return "positions"
}
