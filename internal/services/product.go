package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dealscout/backend/internal/logger"
	"github.com/dealscout/backend/internal/repos"
	"github.com/dealscout/backend/internal/types"
)

// Suggestion is one autocomplete row. ID is null for the fallback entry that
// echoes the raw query when no stored product matches.
type Suggestion struct {
	ID       *uuid.UUID `json:"id"`
	Name     string     `json:"name"`
	Category string     `json:"category"`
}

type ProductService interface {
	Suggest(ctx context.Context, query string) ([]Suggestion, error)
}

type productService struct {
	db          *gorm.DB
	log         *logger.Logger
	productRepo repos.ProductRepo
}

func NewProductService(db *gorm.DB, log *logger.Logger, productRepo repos.ProductRepo) ProductService {
	serviceLog := log.With("service", "ProductService")
	return &productService{db: db, log: serviceLog, productRepo: productRepo}
}

func (ps *productService) Suggest(ctx context.Context, query string) ([]Suggestion, error) {
	found, err := ps.productRepo.SearchByName(ctx, nil, strings.TrimSpace(query), 10)
	if err != nil {
		return nil, err
	}

	out := make([]Suggestion, 0, len(found)+1)
	for _, p := range found {
		if p == nil {
			continue
		}
		category := p.Category
		if category == "" {
			category = types.DefaultCategory
		}
		id := p.ID
		out = append(out, Suggestion{ID: &id, Name: p.Name, Category: category})
	}

	// Always give the caller something to select.
	if len(out) == 0 {
		out = append(out, Suggestion{ID: nil, Name: query, Category: types.DefaultCategory})
	}
	return out, nil
}
