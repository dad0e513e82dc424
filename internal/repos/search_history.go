package repos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dealscout/backend/internal/logger"
	"github.com/dealscout/backend/internal/types"
)

type SearchHistoryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, productIDs []uuid.UUID) (*types.SearchHistory, error)
}

type searchHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSearchHistoryRepo(db *gorm.DB, baseLog *logger.Logger) SearchHistoryRepo {
	repoLog := baseLog.With("repo", "SearchHistoryRepo")
	return &searchHistoryRepo{db: db, log: repoLog}
}

func (hr *searchHistoryRepo) Create(ctx context.Context, tx *gorm.DB, productIDs []uuid.UUID) (*types.SearchHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = hr.db
	}

	raw, err := json.Marshal(productIDs)
	if err != nil {
		return nil, err
	}

	entry := &types.SearchHistory{
		ProductIDs: datatypes.JSON(raw),
		SearchDate: time.Now().UTC(),
	}
	if err := transaction.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}
