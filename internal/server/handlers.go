package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/flags"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/models"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/raydium"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/storage"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/swapengine"
	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// SwapService is the read side of the swap engine the API exposes.
type SwapService interface {
	Resolve(ctx context.Context, mint solana.PublicKey) (*raydium.PoolKeys, error)
	Reserves(ctx context.Context, keys *raydium.PoolKeys) (*raydium.Reserves, error)
	Quote(ctx context.Context, req swapengine.SwapRequest) (*swapengine.QuoteResult, error)
	RiskStatus() swapengine.RiskStatus
	WalletInfo(ctx context.Context) (*swapengine.WalletInfo, error)
}

// FlagStore is implemented by *flags.Store.
type FlagStore interface {
	Upsert(ctx context.Context, key string, value bool) (*flags.Flag, error)
	Get(ctx context.Context, key string) (*flags.Flag, error)
	List(ctx context.Context) ([]*flags.Flag, error)
	Delete(ctx context.Context, key string) error
}

// Handlers contains all dependencies for API endpoint handlers. Journal and
// Flags are nil when Redis is not configured.
type Handlers struct {
	Swaps    SwapService
	Journal  storage.SwapJournal
	Flags    FlagStore
	Gatherer prometheus.Gatherer
	DevMode  bool           // Enable detailed error responses in development
	Logger   *logrus.Logger // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func (h *Handlers) logger() *logrus.Logger {
	if h.Logger == nil {
		return logrus.StandardLogger()
	}
	return h.Logger
}

// Health reports liveness; Redis being down does not fail the check.
func (h *Handlers) Health(c echo.Context) error {
	resp := HealthResponse{OK: true, Redis: "disabled"}
	if h.Journal != nil {
		ctx, cancel := h.withTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		resp.Redis = "ok"
		if err := h.Journal.Ping(ctx); err != nil {
			resp.Redis = "down"
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// Pool resolves the WSOL pool for :mint and attaches its current reserves
func (h *Handlers) Pool(c echo.Context) error {
	mint, err := solana.PublicKeyFromBase58(strings.TrimSpace(c.Param("mint")))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid mint", map[string]any{"mint": err.Error()})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 20*time.Second)
	defer cancel()

	keys, err := h.Swaps.Resolve(ctx, mint)
	if err != nil {
		return h.swapErr(c, "failed to resolve pool", err)
	}
	reserves, err := h.Swaps.Reserves(ctx, keys)
	if err != nil {
		return h.swapErr(c, "failed to read reserves", err)
	}
	return c.JSON(http.StatusOK, newPoolResponse(keys, reserves))
}

// RecentSwaps returns the most recent swap attempts with optional limit parameter
// Accepts limit query parameter (default: 100, range: 1-200) and an optional mint filter
func (h *Handlers) RecentSwaps(c echo.Context) error {
	if h.Journal == nil {
		return h.err(c, http.StatusServiceUnavailable, "swap journal is not configured", nil)
	}

	limitStr := c.QueryParam("limit")
	limit := 100
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > 200 {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 200"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var items []*models.SwapAttempt
	var err error
	if m := strings.TrimSpace(c.QueryParam("mint")); m != "" {
		mint, perr := solana.PublicKeyFromBase58(m)
		if perr != nil {
			return h.err(c, http.StatusBadRequest, "invalid mint", map[string]any{"mint": perr.Error()})
		}
		items, err = h.Journal.GetRecentSwapsForMint(ctx, mint.String(), int64(limit))
	} else {
		items, err = h.Journal.GetRecentSwaps(ctx, int64(limit))
	}
	if err != nil {
		h.logger().WithError(err).Warn("recent swaps lookup failed")
		return h.err(c, http.StatusInternalServerError, "failed to get swaps", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Risk returns the configured limits and today's usage
func (h *Handlers) Risk(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Swaps.RiskStatus())
}

// Wallet returns the configured wallet address and balance
func (h *Handlers) Wallet(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	info, err := h.Swaps.WalletInfo(ctx)
	if err != nil {
		return h.err(c, http.StatusBadGateway, "failed to read wallet balance", map[string]any{"err": err.Error()})
	}
	if info == nil {
		return h.err(c, http.StatusNotFound, "no wallet configured", nil)
	}
	return c.JSON(http.StatusOK, info)
}

// FlagsUpsert creates or updates a feature flag with the given key and value
// Validates key format and returns the created/updated flag
func (h *Handlers) FlagsUpsert(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags store is not configured", nil)
	}
	var req FlagUpsertRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if err := flags.ValidateKey(req.Key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Upsert(ctx, req.Key, req.Value)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to upsert flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsUpdate updates an existing feature flag with the given key
func (h *Handlers) FlagsUpdate(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags store is not configured", nil)
	}
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}
	var req FlagUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Upsert(ctx, key, req.Value)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to update flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsGet retrieves a feature flag by its key
// Returns 404 if flag doesn't exist
func (h *Handlers) FlagsGet(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags store is not configured", nil)
	}
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Get(ctx, key)
	if err != nil {
		if errors.Is(err, flags.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "flag not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsList returns all feature flags
func (h *Handlers) FlagsList(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags store is not configured", nil)
	}
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Flags.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list flags", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// FlagsDelete removes a feature flag by its key
// Returns 204 No Content on successful deletion
func (h *Handlers) FlagsDelete(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags store is not configured", nil)
	}
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Flags.Delete(ctx, key); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to delete flag", nil)
	}
	return c.NoContent(http.StatusNoContent)
}
