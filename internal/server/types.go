package server

import (
	"github.com/aman-zulfiqar/solana-amm-swap/internal/raydium"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/swapengine"
	"github.com/shopspring/decimal"
)

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse reports liveness plus the state of optional backends
type HealthResponse struct {
	OK    bool   `json:"ok"`
	Redis string `json:"redis"` // ok, down or disabled
}

// PoolResponse describes a resolved pool and, when readable, its reserves
type PoolResponse struct {
	AmmID           string `json:"amm_id"`
	BaseMint        string `json:"base_mint"`
	QuoteMint       string `json:"quote_mint"`
	BaseDecimals    uint8  `json:"base_decimals"`
	QuoteDecimals   uint8  `json:"quote_decimals"`
	BaseVault       string `json:"base_vault"`
	QuoteVault      string `json:"quote_vault"`
	MarketID        string `json:"market_id"`
	MarketAuthority string `json:"market_authority"`
	FeeNumerator    uint64 `json:"fee_numerator"`
	FeeDenominator  uint64 `json:"fee_denominator"`

	Reserves *ReservesResponse `json:"reserves,omitempty"`
}

// ReservesResponse is the vault snapshot, token side first
type ReservesResponse struct {
	Token         decimal.Decimal `json:"token"`
	SOL           decimal.Decimal `json:"sol"`
	TokenDecimals uint8           `json:"token_decimals"`
}

// QuoteResponse is a priced swap; raw amounts are in base units
type QuoteResponse struct {
	Mint               string          `json:"mint"`
	Pool               string          `json:"pool"`
	Direction          string          `json:"side"`
	AmountIn           decimal.Decimal `json:"amount_in"`
	AmountOut          decimal.Decimal `json:"amount_out"`
	FeePercent         decimal.Decimal `json:"fee_percent"`
	PriceImpactPercent decimal.Decimal `json:"price_impact_percent"`
	SlippageBps        uint16          `json:"slippage_bps"`
	AmountInRaw        uint64          `json:"amount_in_raw"`
	AmountOutRaw       uint64          `json:"amount_out_raw"`
	MinAmountOutRaw    uint64          `json:"min_amount_out_raw"`
}

// FlagUpsertRequest represents a request to create or update a feature flag
type FlagUpsertRequest struct {
	Key   string `json:"key"`   // Flag key (must match regex pattern)
	Value bool   `json:"value"` // Flag value (true/false)
}

// FlagUpdateRequest represents a request to update an existing feature flag
type FlagUpdateRequest struct {
	Value bool `json:"value"` // New flag value
}

func newPoolResponse(keys *raydium.PoolKeys, res *raydium.Reserves) PoolResponse {
	out := PoolResponse{
		AmmID:           keys.AmmID.String(),
		BaseMint:        keys.BaseMint.String(),
		QuoteMint:       keys.QuoteMint.String(),
		BaseDecimals:    keys.BaseDecimals,
		QuoteDecimals:   keys.QuoteDecimals,
		BaseVault:       keys.BaseVault.String(),
		QuoteVault:      keys.QuoteVault.String(),
		MarketID:        keys.MarketID.String(),
		MarketAuthority: keys.MarketAuthority.String(),
		FeeNumerator:    keys.SwapFeeNumerator,
		FeeDenominator:  keys.SwapFeeDenominator,
	}
	if res != nil {
		out.Reserves = &ReservesResponse{Token: res.Base, SOL: res.Quote, TokenDecimals: res.TokenDecimals}
	}
	return out
}

func newQuoteResponse(mint string, qr *swapengine.QuoteResult) QuoteResponse {
	return QuoteResponse{
		Mint:               mint,
		Pool:               qr.Pool.AmmID.String(),
		Direction:          string(qr.Quote.Direction),
		AmountIn:           qr.Quote.AmountIn,
		AmountOut:          qr.Quote.AmountOut,
		FeePercent:         qr.Quote.FeePercent,
		PriceImpactPercent: qr.Quote.PriceImpact,
		SlippageBps:        qr.SlippageBps,
		AmountInRaw:        qr.AmountIn,
		AmountOutRaw:       qr.AmountOut,
		MinAmountOutRaw:    qr.MinAmountOut,
	}
}
