package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SearchHistory is an append-only audit record, one per orchestrated request.
type SearchHistory struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProductIDs datatypes.JSON `gorm:"column:product_ids" json:"product_ids"`
	SearchDate time.Time      `gorm:"not null;default:now();column:search_date" json:"search_date"`
}

func (SearchHistory) TableName() string {
	return "search_history"
}

func (h *SearchHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
