package config

import (
	"strings"
	"testing"
	"time"

	"github.com/dealscout/backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ALLOWED_SOURCES", `["Woolworths","Coles"]`)
	t.Setenv("SERPAPI_KEY", "test-key")
	t.Setenv("MAXIMUM_PRODUCTS_PERDAY_USER_ANONYMOUS", "2")
	t.Setenv("MAXIMUM_PRODUCTS_PERDAY_USER_AUTHENTICATED", "10")
	t.Setenv("FEATURED_LIMIT", "3")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(testLogger(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port=%q, want 8080", cfg.Port)
	}
	if cfg.SerpEngine != "google_shopping" || cfg.SerpGoogleDomain != "google.com.au" {
		t.Fatalf("serp defaults wrong: engine=%q domain=%q", cfg.SerpEngine, cfg.SerpGoogleDomain)
	}
	if cfg.SerpResultCount != 40 {
		t.Fatalf("SerpResultCount=%d, want 40", cfg.SerpResultCount)
	}
	if cfg.CacheTTL != 24*time.Hour {
		t.Fatalf("CacheTTL=%v, want 24h", cfg.CacheTTL)
	}
	if cfg.PageSize != 10 {
		t.Fatalf("PageSize=%d, want 10", cfg.PageSize)
	}
	if cfg.VisionMaxConcurrent != 4 {
		t.Fatalf("VisionMaxConcurrent=%d, want 4", cfg.VisionMaxConcurrent)
	}
	if len(cfg.AllowedSources) != 2 || cfg.AllowedSources[0] != "Woolworths" {
		t.Fatalf("AllowedSources=%v", cfg.AllowedSources)
	}
}

func TestLoadRequiredValidation(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(t *testing.T)
		wantSub string
	}{
		{
			name:    "missing_allowed_sources",
			mutate:  func(t *testing.T) { t.Setenv("ALLOWED_SOURCES", "") },
			wantSub: "ALLOWED_SOURCES",
		},
		{
			name:    "empty_allowed_sources",
			mutate:  func(t *testing.T) { t.Setenv("ALLOWED_SOURCES", "[]") },
			wantSub: "non-empty",
		},
		{
			name:    "blank_source_entry",
			mutate:  func(t *testing.T) { t.Setenv("ALLOWED_SOURCES", `["Woolworths","  "]`) },
			wantSub: "invalid source",
		},
		{
			name:    "missing_serpapi_key",
			mutate:  func(t *testing.T) { t.Setenv("SERPAPI_KEY", "") },
			wantSub: "SERPAPI_KEY",
		},
		{
			name:    "missing_anonymous_quota",
			mutate:  func(t *testing.T) { t.Setenv("MAXIMUM_PRODUCTS_PERDAY_USER_ANONYMOUS", "0") },
			wantSub: "ANONYMOUS",
		},
		{
			name:    "missing_authenticated_quota",
			mutate:  func(t *testing.T) { t.Setenv("MAXIMUM_PRODUCTS_PERDAY_USER_AUTHENTICATED", "0") },
			wantSub: "AUTHENTICATED",
		},
		{
			name:    "bad_featured_limit",
			mutate:  func(t *testing.T) { t.Setenv("FEATURED_LIMIT", "-1") },
			wantSub: "FEATURED_LIMIT",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			tc.mutate(t)

			_, err := Load(testLogger(t))
			if err == nil {
				t.Fatalf("Load accepted invalid environment")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestLoadVisionKeyFallback(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "fallback-key")

	cfg, err := Load(testLogger(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.VisionAPIKey != "fallback-key" {
		t.Fatalf("VisionAPIKey=%q, want fallback-key", cfg.VisionAPIKey)
	}
}
