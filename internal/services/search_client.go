package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dealscout/backend/internal/config"
	"github.com/dealscout/backend/internal/logger"
	"github.com/dealscout/backend/internal/types"
)

// SearchClient fetches raw shopping offers for a sanitized text query.
// A single attempt per call; the orchestrator degrades a failure to an
// empty offer list rather than retrying.
type SearchClient interface {
	Search(ctx context.Context, query string) ([]types.Offer, error)
}

type serpSearchClient struct {
	log        *logger.Logger
	httpClient *http.Client

	apiKey       string
	baseURL      string
	engine       string
	googleDomain string
	hl           string
	gl           string
	resultCount  int
}

func NewSerpSearchClient(log *logger.Logger, cfg *config.Config) (SearchClient, error) {
	if cfg.SerpAPIKey == "" {
		return nil, fmt.Errorf("missing SERPAPI_KEY")
	}
	return &serpSearchClient{
		log:          log.With("service", "SerpSearchClient"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		apiKey:       cfg.SerpAPIKey,
		baseURL:      cfg.SerpBaseURL,
		engine:       cfg.SerpEngine,
		googleDomain: cfg.SerpGoogleDomain,
		hl:           cfg.SerpHL,
		gl:           cfg.SerpGL,
		resultCount:  cfg.SerpResultCount,
	}, nil
}

type serpShoppingItem struct {
	Title          string   `json:"title"`
	ProductLink    string   `json:"product_link"`
	Link           string   `json:"link"`
	Thumbnail      string   `json:"thumbnail"`
	Price          string   `json:"price"`
	ExtractedPrice *float64 `json:"extracted_price"`
	Source         string   `json:"source"`
	Seller         string   `json:"seller"`
	Rating         *float64 `json:"rating"`
	Reviews        *int     `json:"reviews"`
}

type serpSearchResponse struct {
	ShoppingResults []serpShoppingItem `json:"shopping_results"`
}

func (c *serpSearchClient) Search(ctx context.Context, query string) ([]types.Offer, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("q", query)
	params.Set("engine", c.engine)
	params.Set("google_domain", c.googleDomain)
	params.Set("hl", c.hl)
	params.Set("gl", c.gl)
	params.Set("tdm", "shop")
	params.Set("num", strconv.Itoa(c.resultCount))
	params.Set("direct_link", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("serpapi read: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("serpapi http %d: %s", resp.StatusCode, string(raw))
	}

	var decoded serpSearchResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("serpapi decode: %w", err)
	}

	now := time.Now().UTC()
	offers := make([]types.Offer, 0, len(decoded.ShoppingResults))
	for _, item := range decoded.ShoppingResults {
		source := item.Source
		if source == "" {
			source = item.Seller
		}
		if item.Title == "" || source == "" {
			continue
		}

		link := item.ProductLink
		if link == "" {
			link = item.Link
		}

		price := item.Price
		if price == "" && item.ExtractedPrice != nil {
			price = strconv.FormatFloat(*item.ExtractedPrice, 'f', -1, 64)
		}

		offers = append(offers, types.Offer{
			Title:     item.Title,
			Link:      link,
			Image:     item.Thumbnail,
			Price:     price,
			Source:    source,
			Rating:    item.Rating,
			Reviews:   item.Reviews,
			FetchedAt: now,
		})
	}

	c.log.Debug("SerpAPI search complete", "query", query, "offers", len(offers))
	return offers, nil
}
