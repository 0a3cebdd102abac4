package server

import (
	"errors"
	"net/http"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/quote"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/raydium"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/swapengine"
	"github.com/labstack/echo/v4"
)

// NotFoundJSON returns a custom HTTP error handler that returns JSON responses
// This ensures all errors (including 404s) have consistent JSON format
func NotFoundJSON() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		// Don't send response if already committed
		if c.Response().Committed {
			return
		}

		// Handle Echo HTTP errors (like 404, 400, etc.)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		// Handle all other errors as internal server error
		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}

// statusFor maps swap pipeline errors to HTTP status codes. Unreadable
// reserves, malformed accounts and RPC failures all end up as 502.
func statusFor(err error) int {
	switch {
	case errors.Is(err, raydium.ErrNoPoolFound):
		return http.StatusNotFound
	case errors.Is(err, swapengine.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, quote.ErrQuoteRejected):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func (h *Handlers) swapErr(c echo.Context, msg string, err error) error {
	code := statusFor(err)
	if code == http.StatusBadGateway {
		h.logger().WithError(err).WithField("path", c.Path()).Warn(msg)
	}
	return h.err(c, code, msg, map[string]any{"err": err.Error()})
}
