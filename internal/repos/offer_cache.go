package repos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dealscout/backend/internal/logger"
	"github.com/dealscout/backend/internal/types"
)

type OfferCacheRepo interface {
	// FindFresh returns the unexpired cache entry for the product, or nil.
	FindFresh(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*types.OfferCacheEntry, []types.Offer, error)
	// UpsertOffers replaces only this product's cached offers, creating the
	// row if absent. Other products' entries are untouched.
	UpsertOffers(ctx context.Context, tx *gorm.DB, historyID, productID uuid.UUID, productName string, offers []types.Offer) error
}

type offerCacheRepo struct {
	db  *gorm.DB
	log *logger.Logger
	ttl time.Duration
}

func NewOfferCacheRepo(db *gorm.DB, baseLog *logger.Logger, ttl time.Duration) OfferCacheRepo {
	repoLog := baseLog.With("repo", "OfferCacheRepo")
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &offerCacheRepo{db: db, log: repoLog, ttl: ttl}
}

func (cr *offerCacheRepo) FindFresh(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*types.OfferCacheEntry, []types.Offer, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var entry types.OfferCacheEntry
	err := transaction.WithContext(ctx).
		Where("product_id = ? AND expires_at > ?", productID, time.Now().UTC()).
		First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	var offers []types.Offer
	if len(entry.Offers) > 0 {
		if err := json.Unmarshal(entry.Offers, &offers); err != nil {
			cr.log.Warn("Cached offers failed to decode, treating entry as absent", "product_id", productID, "error", err)
			return nil, nil, nil
		}
	}
	return &entry, offers, nil
}

func (cr *offerCacheRepo) UpsertOffers(ctx context.Context, tx *gorm.DB, historyID, productID uuid.UUID, productName string, offers []types.Offer) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	raw, err := json.Marshal(offers)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	entry := &types.OfferCacheEntry{
		SearchHistoryID: historyID,
		ProductID:       productID,
		ProductName:     productName,
		Offers:          datatypes.JSON(raw),
		CreatedAt:       now,
		ExpiresAt:       now.Add(cr.ttl),
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"search_history_id", "product_name", "offers", "created_at", "expires_at",
			}),
		}).
		Create(entry).Error
}
