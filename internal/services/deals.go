package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/dealscout/backend/internal/apierr"
	"github.com/dealscout/backend/internal/clients/redis"
	"github.com/dealscout/backend/internal/config"
	"github.com/dealscout/backend/internal/logger"
	"github.com/dealscout/backend/internal/repos"
	"github.com/dealscout/backend/internal/types"
)

// ProductRef is one requested product: by id when known, else by name.
type ProductRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type DealRequest struct {
	Products      []ProductRef
	Start         int
	Authenticated bool
	GroupAI       bool
}

type ProductSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProductDeals is the pass-through (non-grouped) per-product result.
type ProductDeals struct {
	Product ProductSummary `json:"product"`
	Deals   []types.Offer  `json:"deals"`
	Source  string         `json:"source"`
}

type DealResponse struct {
	Grouped bool
	Groups  []types.Group
	Results []ProductDeals
}

type DealService interface {
	GetProductDeals(ctx context.Context, req DealRequest) (*DealResponse, error)
}

type dealService struct {
	db  *gorm.DB
	log *logger.Logger

	productRepo repos.ProductRepo
	historyRepo repos.SearchHistoryRepo
	cacheRepo   repos.OfferCacheRepo

	search    SearchClient
	relevance RelevanceFilter
	enricher  Enricher
	grouper   Grouper
	fetchLock redis.FetchLock

	maxProductsAnonymous     int
	maxProductsAuthenticated int
	pageSize                 int
}

func NewDealService(
	db *gorm.DB,
	log *logger.Logger,
	cfg *config.Config,
	productRepo repos.ProductRepo,
	historyRepo repos.SearchHistoryRepo,
	cacheRepo repos.OfferCacheRepo,
	search SearchClient,
	relevance RelevanceFilter,
	enricher Enricher,
	grouper Grouper,
	fetchLock redis.FetchLock,
) DealService {
	serviceLog := log.With("service", "DealService")
	if fetchLock == nil {
		fetchLock = redis.NoopFetchLock{}
	}
	return &dealService{
		db:                       db,
		log:                      serviceLog,
		productRepo:              productRepo,
		historyRepo:              historyRepo,
		cacheRepo:                cacheRepo,
		search:                   search,
		relevance:                relevance,
		enricher:                 enricher,
		grouper:                  grouper,
		fetchLock:                fetchLock,
		maxProductsAnonymous:     cfg.MaxProductsAnonymous,
		maxProductsAuthenticated: cfg.MaxProductsAuthenticated,
		pageSize:                 cfg.PageSize,
	}
}

var querySanitizeRe = regexp.MustCompile(`[^\w\s]`)

func sanitizeQuery(raw string) string {
	return strings.TrimSpace(querySanitizeRe.ReplaceAllString(raw, " "))
}

func (ds *dealService) GetProductDeals(ctx context.Context, req DealRequest) (*DealResponse, error) {
	if len(req.Products) == 0 {
		return nil, apierr.Validation("Products array is required")
	}

	maxAllowed := ds.maxProductsAnonymous
	if req.Authenticated {
		maxAllowed = ds.maxProductsAuthenticated
	}
	if len(req.Products) > maxAllowed {
		if req.Authenticated {
			return nil, apierr.QuotaExceeded("Only %d products can be checked at a time.", ds.maxProductsAuthenticated)
		}
		return nil, apierr.QuotaExceeded("Only %d products can be checked at a time for guests. Please log in to check more products.", ds.maxProductsAnonymous)
	}

	valid, err := ds.resolveProducts(ctx, req.Products)
	if err != nil {
		return nil, err
	}
	if len(valid) == 0 {
		return nil, apierr.NoValidProducts()
	}

	ids := make([]uuid.UUID, 0, len(valid))
	for _, p := range valid {
		ids = append(ids, p.ID)
	}
	history, err := ds.historyRepo.Create(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("record search history: %w", err)
	}

	// Sequential per product: cache upserts stay deterministic and
	// provider load stays bounded per request.
	results := make([]ProductDeals, 0, len(valid))
	for _, prod := range valid {
		results = append(results, ds.dealsForProduct(ctx, history.ID, prod, req.Start))
	}

	if !req.GroupAI {
		return &DealResponse{Grouped: false, Results: results}, nil
	}

	allGroups := make([]types.Group, 0, len(results))
	for _, r := range results {
		allGroups = append(allGroups, ds.groupProductResult(ctx, r)...)
	}
	return &DealResponse{Grouped: true, Groups: allGroups, Results: results}, nil
}

// resolveProducts maps each reference to a canonical product: by id when
// given, else case-insensitive name match, else a newly created product.
// References that fail to resolve are dropped. Lookups run concurrently;
// they are independent.
func (ds *dealService) resolveProducts(ctx context.Context, refs []ProductRef) ([]*types.Product, error) {
	resolved := make([]*types.Product, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			p, err := ds.resolveOne(gctx, ref)
			if err != nil {
				ds.log.Warn("Product reference failed to resolve, dropping", "name", ref.Name, "error", err)
				return nil
			}
			resolved[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	valid := make([]*types.Product, 0, len(resolved))
	for _, p := range resolved {
		if p != nil {
			valid = append(valid, p)
		}
	}
	return valid, nil
}

func (ds *dealService) resolveOne(ctx context.Context, ref ProductRef) (*types.Product, error) {
	if strings.TrimSpace(ref.ID) != "" {
		id, err := uuid.Parse(ref.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid product id %q", ref.ID)
		}
		return ds.productRepo.GetByID(ctx, nil, id)
	}

	name := strings.TrimSpace(ref.Name)
	if name == "" {
		return nil, fmt.Errorf("product reference has no id or name")
	}

	existing, err := ds.productRepo.GetByNameFold(ctx, nil, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return ds.productRepo.Create(ctx, nil, &types.Product{Name: name, Category: types.DefaultCategory})
}

// dealsForProduct runs the cache-or-fetch decision for one product and
// slices the result to the requested page. Provider failures degrade to an
// empty offer list; the request as a whole never fails here.
func (ds *dealService) dealsForProduct(ctx context.Context, historyID uuid.UUID, prod *types.Product, start int) ProductDeals {
	out := ProductDeals{
		Product: ProductSummary{ID: prod.ID.String(), Name: prod.Name},
		Source:  "db",
	}

	entry, cached, err := ds.cacheRepo.FindFresh(ctx, nil, prod.ID)
	if err != nil {
		ds.log.Warn("Cache lookup failed, treating as miss", "product_id", prod.ID, "error", err)
		entry, cached = nil, nil
	}
	hasDeals := entry != nil && len(cached) > 0

	var offers []types.Offer
	if entry != nil && hasDeals && start == 0 {
		offers = cached
	} else {
		out.Source = "api"
		offers = ds.fetchAndCache(ctx, historyID, prod, start)
	}

	out.Deals = pageSlice(offers, start, ds.pageSize)
	return out
}

func (ds *dealService) fetchAndCache(ctx context.Context, historyID uuid.UUID, prod *types.Product, start int) []types.Offer {
	var release func()
	if start == 0 {
		var locked bool
		release, locked = ds.fetchLock.Acquire(ctx, prod.ID.String())
		defer release()

		if locked {
			// Another request may have refreshed the cache while we
			// waited on the lock.
			entry, cached, err := ds.cacheRepo.FindFresh(ctx, nil, prod.ID)
			if err == nil && entry != nil && len(cached) > 0 {
				return cached
			}
		}
	}

	offers, err := ds.search.Search(ctx, sanitizeQuery(prod.Name))
	if err != nil {
		ds.log.Warn("Search provider failed, returning empty offer list", "product", prod.Name, "error", err)
		return nil
	}

	if start == 0 {
		if err := ds.cacheRepo.UpsertOffers(ctx, nil, historyID, prod.ID, prod.Name, offers); err != nil {
			ds.log.Warn("Cache upsert failed", "product_id", prod.ID, "error", err)
		}
	}
	return offers
}

func pageSlice(offers []types.Offer, start, size int) []types.Offer {
	if start < 0 {
		start = 0
	}
	if start >= len(offers) {
		return []types.Offer{}
	}
	end := start + size
	if end > len(offers) {
		end = len(offers)
	}
	return offers[start:end]
}

// groupProductResult runs filter, enrichment, and grouping for one product.
// Failures are isolated per product with a two-level fallback and never
// abort the overall response.
func (ds *dealService) groupProductResult(ctx context.Context, r ProductDeals) []types.Group {
	groups, err := ds.runGroupingPipeline(ctx, r)
	if err == nil {
		return groups
	}
	ds.log.Warn("Grouping failed, falling back to filtered raw group", "product", r.Product.Name, "error", err)

	filtered, ferr := ds.filterOnly(r.Deals, r.Product.Name)
	if ferr == nil {
		return []types.Group{{
			Product: types.GroupRef{
				ID:   r.Product.ID + "-raw",
				Name: r.Product.Name + " — unknown size",
			},
			Deals:    filtered,
			Source:   r.Source,
			RootName: r.Product.Name,
		}}
	}
	ds.log.Warn("Relevance fallback failed, returning unfiltered offers", "product", r.Product.Name, "error", ferr)

	return []types.Group{{
		Product: types.GroupRef{
			ID:   r.Product.ID + "-raw",
			Name: r.Product.Name,
		},
		Deals:    r.Deals,
		Source:   r.Source,
		RootName: r.Product.Name,
	}}
}

func (ds *dealService) runGroupingPipeline(ctx context.Context, r ProductDeals) (groups []types.Group, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			groups, err = nil, fmt.Errorf("grouping pipeline panic: %v", rec)
		}
	}()

	withName := make([]types.Offer, len(r.Deals))
	for i, o := range r.Deals {
		o.ProductName = r.Product.Name
		withName[i] = o
	}

	filtered := ds.relevance.Filter(withName, r.Product.Name)
	enriched, err := ds.enricher.Enrich(ctx, filtered)
	if err != nil {
		return nil, err
	}

	groups = ds.grouper.Group(enriched)
	for i := range groups {
		groups[i].Source = r.Source
		groups[i].RootName = r.Product.Name
	}
	return groups, nil
}

func (ds *dealService) filterOnly(offers []types.Offer, hint string) (out []types.Offer, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("relevance filter panic: %v", rec)
		}
	}()
	return ds.relevance.Filter(offers, hint), nil
}
