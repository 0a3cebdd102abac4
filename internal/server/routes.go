package server

import (
	"net/http"
	"time"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/observability"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// Set custom error handler for consistent JSON responses
	e.HTTPErrorHandler = NotFoundJSON()

	// Apply global middleware
	e.Use(SetJSONContentType) // Ensure all responses are JSON
	e.Use(SetNoCacheHeaders)  // Prevent caching of API responses

	// Optional API key authentication
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key", // Look for API key in X-API-Key header
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil // Simple string comparison
			},
		}))
	}

	// API v1 routes
	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)            // Health check endpoint
	v1.GET("/swaps/recent", h.RecentSwaps) // Recent swap attempts
	v1.GET("/risk", h.Risk)                // Risk limits and daily usage
	v1.GET("/wallet", h.Wallet)            // Wallet address and balance

	// Pool and quote endpoints hit the RPC node, so they are rate limited
	qps, burst := cfg.QuoteRPS, cfg.QuoteBurst
	if qps <= 0 {
		qps = 2
	}
	if burst <= 0 {
		burst = 5
	}
	limiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(qps),
		Burst:     burst,
		ExpiresIn: 2 * time.Minute,
	}))
	v1.GET("/pools/:mint", h.Pool, limiter) // Pool keys and reserves for a mint
	v1.GET("/quote", h.Quote, limiter)      // Buy/sell quote

	if h.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(observability.Handler(h.Gatherer)))
	}

	// Feature flags CRUD endpoints
	flagGroup := v1.Group("/flags")
	flagGroup.GET("", h.FlagsList)           // List all flags
	flagGroup.POST("", h.FlagsUpsert)        // Create new flag
	flagGroup.GET("/:key", h.FlagsGet)       // Get specific flag
	flagGroup.PUT("/:key", h.FlagsUpdate)    // Update existing flag
	flagGroup.DELETE("/:key", h.FlagsDelete) // Delete flag

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
