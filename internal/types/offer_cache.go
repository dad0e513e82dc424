package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OfferCacheEntry holds the last-fetched offer list for one product.
// One row per product; a refresh replaces only that product's offers.
// A row past ExpiresAt is treated as absent.
type OfferCacheEntry struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SearchHistoryID uuid.UUID      `gorm:"type:uuid;column:search_history_id" json:"search_history_id"`
	ProductID       uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null;column:product_id" json:"product_id"`
	ProductName     string         `gorm:"column:product_name" json:"product_name"`
	Offers          datatypes.JSON `gorm:"column:offers" json:"offers"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	ExpiresAt       time.Time      `gorm:"not null;index;column:expires_at" json:"expires_at"`
}

func (OfferCacheEntry) TableName() string {
	return "offer_cache_entry"
}

func (e *OfferCacheEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
