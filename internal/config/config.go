package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dealscout/backend/internal/logger"
	"github.com/dealscout/backend/internal/utils"
)

// Config is built once at process start and handed to every collaborator.
// Required values fail fast here instead of surfacing mid-request.
type Config struct {
	Port string

	// SerpAPI shopping search
	SerpAPIKey       string
	SerpBaseURL      string
	SerpEngine       string
	SerpGoogleDomain string
	SerpHL           string
	SerpGL           string
	SerpResultCount  int

	// Vision quantity extraction (OpenAI-compatible, OpenRouter by default)
	VisionAPIKey        string
	VisionBaseURL       string
	VisionModel         string
	VisionTimeout       time.Duration
	VisionMaxConcurrent int
	AppURL              string

	// Relevance filtering
	AllowedSources     []string
	RelevanceRulesPath string

	// Request quotas
	MaxProductsAnonymous     int
	MaxProductsAuthenticated int
	FeaturedLimit            int

	CacheTTL time.Duration
	PageSize int

	JWTSecretKey string
	RedisAddr    string
}

func Load(log *logger.Logger) (*Config, error) {
	cfg := &Config{
		Port: utils.GetEnv("PORT", "8080", log),

		SerpAPIKey:       strings.TrimSpace(os.Getenv("SERPAPI_KEY")),
		SerpBaseURL:      utils.GetEnv("SERPAPI_BASE_URL", "https://serpapi.com", log),
		SerpEngine:       utils.GetEnv("SERPAPI_ENGINE", "google_shopping", log),
		SerpGoogleDomain: utils.GetEnv("SERPAPI_GOOGLE_DOMAIN", "google.com.au", log),
		SerpHL:           utils.GetEnv("SERPAPI_HL", "en", log),
		SerpGL:           utils.GetEnv("SERPAPI_GL", "au", log),
		SerpResultCount:  utils.GetEnvAsInt("SERPAPI_RESULT_COUNT", 40, log),

		VisionAPIKey:        strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")),
		VisionBaseURL:       utils.GetEnv("VISION_BASE_URL", "https://openrouter.ai/api/v1", log),
		VisionModel:         utils.GetEnv("VISION_MODEL", "openai/gpt-4o-mini", log),
		VisionTimeout:       time.Duration(utils.GetEnvAsInt("VISION_TIMEOUT_SECONDS", 20, log)) * time.Second,
		VisionMaxConcurrent: utils.GetEnvAsInt("VISION_MAX_CONCURRENT", 4, log),
		AppURL:              utils.GetEnv("APP_URL", "http://localhost:3000", log),

		RelevanceRulesPath: utils.GetEnv("RELEVANCE_RULES_PATH", "", log),

		MaxProductsAnonymous:     utils.GetEnvAsInt("MAXIMUM_PRODUCTS_PERDAY_USER_ANONYMOUS", 0, log),
		MaxProductsAuthenticated: utils.GetEnvAsInt("MAXIMUM_PRODUCTS_PERDAY_USER_AUTHENTICATED", 0, log),
		FeaturedLimit:            utils.GetEnvAsInt("FEATURED_LIMIT", 3, log),

		CacheTTL: time.Duration(utils.GetEnvAsInt("CACHE_TTL_HOURS", 24, log)) * time.Hour,
		PageSize: utils.GetEnvAsInt("PAGE_SIZE", 10, log),

		JWTSecretKey: utils.GetEnv("JWT_SECRET_KEY", "", log),
		RedisAddr:    strings.TrimSpace(os.Getenv("REDIS_ADDR")),
	}

	if cfg.VisionAPIKey == "" {
		cfg.VisionAPIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}

	allowed, ok := utils.GetEnvAsStringSlice("ALLOWED_SOURCES", log)
	if !ok {
		return nil, fmt.Errorf("ALLOWED_SOURCES environment variable is required")
	}
	if len(allowed) == 0 {
		return nil, fmt.Errorf("ALLOWED_SOURCES must be a non-empty array")
	}
	for _, src := range allowed {
		if strings.TrimSpace(src) == "" {
			return nil, fmt.Errorf("invalid source in ALLOWED_SOURCES: %q", src)
		}
	}
	cfg.AllowedSources = allowed

	if cfg.SerpAPIKey == "" {
		return nil, fmt.Errorf("SERPAPI_KEY environment variable is required")
	}
	if cfg.MaxProductsAnonymous <= 0 {
		return nil, fmt.Errorf("MAXIMUM_PRODUCTS_PERDAY_USER_ANONYMOUS must be a positive integer")
	}
	if cfg.MaxProductsAuthenticated <= 0 {
		return nil, fmt.Errorf("MAXIMUM_PRODUCTS_PERDAY_USER_AUTHENTICATED must be a positive integer")
	}
	if cfg.FeaturedLimit <= 0 {
		return nil, fmt.Errorf("FEATURED_LIMIT must be a positive integer")
	}
	if cfg.SerpResultCount <= 0 {
		cfg.SerpResultCount = 40
	}
	if cfg.VisionMaxConcurrent <= 0 {
		cfg.VisionMaxConcurrent = 4
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}

	return cfg, nil
}
