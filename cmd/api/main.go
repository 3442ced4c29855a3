package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/sneaker-checkout/internal/config"
	"github.com/fairyhunter13/sneaker-checkout/internal/handler"
	"github.com/fairyhunter13/sneaker-checkout/internal/metrics"
	"github.com/fairyhunter13/sneaker-checkout/internal/middleware"
	"github.com/fairyhunter13/sneaker-checkout/internal/repository"
	"github.com/fairyhunter13/sneaker-checkout/internal/service"
	"github.com/fairyhunter13/sneaker-checkout/internal/validator"
	"github.com/fairyhunter13/sneaker-checkout/pkg/database"
	"github.com/fairyhunter13/sneaker-checkout/pkg/migrate"
	pkgredis "github.com/fairyhunter13/sneaker-checkout/pkg/redis"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize zerolog based on configuration
	initLogger(cfg)

	// Create context for startup
	ctx := context.Background()

	if cfg.DB.AutoMigrate {
		if err := migrate.Up(ctx, cfg.DB.DSN()); err != nil {
			log.Fatal().Err(err).Msg("failed to apply migrations")
		}
	}

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Idempotency store is optional
	var idempotencyStore middleware.IdempotencyStore
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = pkgredis.New(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		idempotencyStore = redisClient
		log.Info().Dur("ttl", cfg.Redis.IdempotencyTTL).Msg("checkout idempotency enabled")
	}

	shippingRate, err := cfg.Checkout.ShippingRate()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid checkout configuration")
	}

	// Metrics
	var checkoutMetrics *metrics.CheckoutMetrics
	registry := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		checkoutMetrics = metrics.NewCheckoutMetrics(registry)
	}

	// Initialize Fiber with production-ready configuration
	app := fiber.New(fiber.Config{
		AppName:      "Sneaker Checkout",
		ReadTimeout:  30 * time.Second,  // Max time to read request
		WriteTimeout: 30 * time.Second,  // Max time to write response
		IdleTimeout:  120 * time.Second, // Max time for keep-alive connections
		BodyLimit:    1 * 1024 * 1024,   // 1MB body limit (explicit, prevents large payloads)
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())

	// Initialize validator
	validate := validator.New()

	// Repositories
	productRepo := repository.NewProductRepository(pool)
	discountRepo := repository.NewDiscountRepository(pool)
	giftCardRepo := repository.NewGiftCardRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)

	// Services
	checkoutService := service.NewCheckoutService(pool, service.CheckoutRepositories{
		Products:  productRepo,
		Discounts: discountRepo,
		GiftCards: giftCardRepo,
		Orders:    orderRepo,
	}, service.CheckoutOptions{
		MaxAttempts:       cfg.Checkout.MaxAttempts,
		RetryBackoff:      cfg.Checkout.RetryBackoff,
		ShippingFlatRate:  shippingRate,
		StrictPromotions:  cfg.Checkout.StrictPromotions,
		LookupConcurrency: cfg.Checkout.LookupConcurrency,
		Metrics:           checkoutMetrics,
	})
	orderService := service.NewOrderService(orderRepo)
	productService := service.NewProductService(productRepo)
	promotionService := service.NewPromotionService(discountRepo, giftCardRepo)

	// Handlers
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, validate)
	orderHandler := handler.NewOrderHandler(orderService, validate)
	productHandler := handler.NewProductHandler(productService, validate)
	promotionHandler := handler.NewPromotionHandler(promotionService, validate)

	// Health handler
	healthHandler := handler.NewHealthHandler(pool)
	if redisClient != nil {
		healthHandler.WithRedis(redisClient)
	}
	app.Get("/health", healthHandler.Check)

	if cfg.Metrics.Enabled {
		app.Get(cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	idempotent := middleware.Idempotency(idempotencyStore, cfg.Redis.IdempotencyTTL)

	// Checkout routes
	app.Post("/api/checkout", idempotent, checkoutHandler.Checkout)
	app.Post("/api/checkout/quote", checkoutHandler.Quote)

	// Storefront reads
	app.Get("/api/orders/:number", orderHandler.GetOrder)
	app.Get("/api/products/:id", productHandler.GetProduct)
	app.Get("/api/gift-cards/:code", promotionHandler.GetGiftCardBalance)

	// Back-office routes
	admin := app.Group("/api/admin")
	admin.Post("/orders", idempotent, checkoutHandler.CreateManualOrder)
	admin.Patch("/orders/:number/status", orderHandler.UpdateStatus)
	admin.Post("/products", productHandler.CreateProduct)
	admin.Post("/products/:id/inventory", productHandler.AdjustInventory)
	admin.Post("/discounts", promotionHandler.CreateDiscount)
	admin.Get("/discounts/:code", promotionHandler.GetDiscount)
	admin.Post("/gift-cards", promotionHandler.CreateGiftCard)

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close stores AFTER server shutdown (even if shutdown timed out)
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis client")
		}
	}
	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("database connections closed")
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
