package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/quote"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/swapengine"
	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// Quote prices a buy or sell against the mint's WSOL pool.
//
//	GET /v1/quote?mint=<base58>&side=buy|sell&amount=<ui amount>[&slippageBps=<n>]
//
// amount is SOL for a buy and tokens for a sell.
func (h *Handlers) Quote(c echo.Context) error {
	mintStr := strings.TrimSpace(c.QueryParam("mint"))
	sideStr := strings.ToLower(strings.TrimSpace(c.QueryParam("side")))
	amountStr := strings.TrimSpace(c.QueryParam("amount"))

	if mintStr == "" {
		return h.err(c, http.StatusBadRequest, "invalid mint", map[string]any{"mint": "required"})
	}
	mint, err := solana.PublicKeyFromBase58(mintStr)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid mint", map[string]any{"mint": err.Error()})
	}

	if sideStr == "" {
		sideStr = string(quote.Buy)
	}
	side, err := quote.ParseDirection(sideStr)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid side", map[string]any{"side": "buy or sell"})
	}

	if amountStr == "" {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "required"})
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil || amount.Sign() <= 0 {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "must be a positive decimal"})
	}

	var slippageBps uint16
	if v := strings.TrimSpace(c.QueryParam("slippageBps")); v != "" {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil || n >= 10000 {
			return h.err(c, http.StatusBadRequest, "invalid slippageBps", map[string]any{"slippageBps": "integer below 10000"})
		}
		slippageBps = uint16(n)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 20*time.Second)
	defer cancel()

	qr, err := h.Swaps.Quote(ctx, swapengine.SwapRequest{
		Mint:        mint,
		Direction:   side,
		Amount:      amount,
		SlippageBps: slippageBps,
	})
	if err != nil {
		return h.swapErr(c, "failed to quote", err)
	}
	return c.JSON(http.StatusOK, newQuoteResponse(mint.String(), qr))
}
