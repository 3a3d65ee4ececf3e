package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"product-catalog/internal/cache"
	"product-catalog/internal/config"
	"product-catalog/internal/database"
	custommiddleware "product-catalog/internal/middleware"
	"product-catalog/internal/repository"
	"product-catalog/internal/service"
	"product-catalog/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

// NewServer wires repositories, services and handlers behind the middleware
// stack. redisClient may be nil, in which case products are not cached and
// requests are not rate limited.
func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) *Server {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.IsDevelopment()))

	var productCache cache.ProductCache = cache.NoopProductCache{}
	if redisClient != nil {
		productCache = cache.NewProductCache(redisClient, cfg.Cache.ProductTTL, logger)
		router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "catalog:ratelimit",
		}, logger))
	}

	s := &Server{
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	router.Get("/health", s.health)

	// Initialize repositories
	productRepo := repository.NewProductRepository(db.DB())
	categoryRepo := repository.NewCategoryRepository(db.DB())

	// Initialize services
	productService := service.NewProductService(productRepo, categoryRepo, productCache, logger)
	categoryService := service.NewCategoryService(categoryRepo, logger)

	// Catalog writes need an admin token
	writeGuards := []func(http.Handler) http.Handler{
		custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger),
		custommiddleware.RequireAdmin(logger),
	}

	transport.NewProductHandler(productService, logger).RegisterRoutes(router, writeGuards...)
	transport.NewCategoryHandler(categoryService, logger).RegisterRoutes(router, writeGuards...)

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// health reports the database and, when configured, Redis. A down database
// answers 503; a down cache only degrades the status.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	dbHealth := s.db.Health(r.Context())
	response := map[string]interface{}{
		"status":   "ok",
		"database": dbHealth,
	}
	status := http.StatusOK

	if dbHealth["status"] != "up" {
		response["status"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()

		if err := s.redis.Ping(ctx).Err(); err != nil {
			response["redis"] = map[string]string{"status": "down", "error": err.Error()}
			if status == http.StatusOK {
				response["status"] = "degraded"
			}
		} else {
			response["redis"] = map[string]string{"status": "up"}
		}
	}

	custommiddleware.RespondWithJSON(w, status, response)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	_ = s.logger.Sync()
	return nil
}
