package main

import (
	"fmt"
	"os"

	"github.com/dealscout/backend/internal/clients/redis"
	"github.com/dealscout/backend/internal/config"
	"github.com/dealscout/backend/internal/db"
	"github.com/dealscout/backend/internal/handlers"
	"github.com/dealscout/backend/internal/logger"
	"github.com/dealscout/backend/internal/middleware"
	"github.com/dealscout/backend/internal/repos"
	"github.com/dealscout/backend/internal/server"
	"github.com/dealscout/backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	log.Info("Loading configuration from main...")
	cfg, err := config.Load(log)
	if err != nil {
		log.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	databaseService, err := db.NewDatabaseService(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err = databaseService.AutoMigrateAll(); err != nil {
		log.Warn("Auto migration failed", "error", err)
	}
	theDB := databaseService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	productRepo := repos.NewProductRepo(theDB, log)
	historyRepo := repos.NewSearchHistoryRepo(theDB, log)
	cacheRepo := repos.NewOfferCacheRepo(theDB, log, cfg.CacheTTL)

	// Clients
	log.Info("Setting up clients from main...")
	searchClient, err := services.NewSerpSearchClient(log, cfg)
	if err != nil {
		log.Error("Could not init SerpSearchClient", "error", err)
		os.Exit(1)
	}
	var visionClient services.VisionClient
	if vc, err := services.NewVisionClient(log, cfg); err != nil {
		log.Warn("Vision client disabled, quantities fall back to unknown", "error", err)
	} else {
		visionClient = vc
	}
	var fetchLock redis.FetchLock = redis.NoopFetchLock{}
	if cfg.RedisAddr != "" {
		fl, err := redis.NewFetchLock(log, cfg.RedisAddr)
		if err != nil {
			log.Warn("Redis fetch lock disabled", "error", err)
		} else {
			fetchLock = fl
			defer fl.Close()
		}
	}

	// Services
	log.Info("Setting up services from main...")
	rules, err := services.LoadRelevanceRules(cfg.RelevanceRulesPath)
	if err != nil {
		log.Error("Could not load relevance rules", "error", err)
		os.Exit(1)
	}
	relevanceFilter := services.NewRelevanceFilter(log, rules, cfg.AllowedSources)
	enricher := services.NewEnricher(log, visionClient, cfg.VisionMaxConcurrent)
	grouper := services.NewGrouper()
	productService := services.NewProductService(theDB, log, productRepo)
	dealService := services.NewDealService(
		theDB,
		log,
		cfg,
		productRepo,
		historyRepo,
		cacheRepo,
		searchClient,
		relevanceFilter,
		enricher,
		grouper,
		fetchLock,
	)

	// Handlers
	log.Info("Setting up handlers from main...")
	dealsHandler := handlers.NewDealsHandler(log, dealService)
	autocompleteHandler := handlers.NewAutocompleteHandler(log, productService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, cfg.JWTSecretKey)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:      authMiddleware,
		DealsHandler:        dealsHandler,
		AutocompleteHandler: autocompleteHandler,
	})

	fmt.Printf("Server listening on :%s\n", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
