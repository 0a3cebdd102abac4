package raydium

import (
	"fmt"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/layout"
	"github.com/gagliardetto/solana-go"
)

// PoolKeys is everything needed to build a swap against one AMM v4 pool.
// It is built once per swap attempt and never shared between attempts.
type PoolKeys struct {
	AmmID         solana.PublicKey
	BaseMint      solana.PublicKey
	QuoteMint     solana.PublicKey
	BaseDecimals  uint8
	QuoteDecimals uint8
	OpenOrders    solana.PublicKey
	TargetOrders  solana.PublicKey
	BaseVault     solana.PublicKey
	QuoteVault    solana.PublicKey

	MarketID         solana.PublicKey
	MarketAuthority  solana.PublicKey
	MarketBaseVault  solana.PublicKey
	MarketQuoteVault solana.PublicKey
	Bids             solana.PublicKey
	Asks             solana.PublicKey
	EventQueue       solana.PublicKey

	AmmProgram      solana.PublicKey
	AuthorityV4     solana.PublicKey
	OpenBookProgram solana.PublicKey
	TokenProgram    solana.PublicKey

	// Swap fee configured on the pool (Raydium default 25/10000).
	SwapFeeNumerator   uint64
	SwapFeeDenominator uint64
}

// NewPoolKeys assembles PoolKeys from the two decoded records. Mints come from
// the market record, vaults and order accounts from the pool record.
func NewPoolKeys(
	ammID solana.PublicKey,
	pool *layout.PoolState,
	market *layout.MarketState,
	marketAuthority solana.PublicKey,
	programs Programs,
) (*PoolKeys, error) {
	if pool == nil || market == nil {
		return nil, fmt.Errorf("pool keys: pool and market state are required")
	}
	if pool.CoinDecimals > 255 || pool.PcDecimals > 255 {
		return nil, fmt.Errorf("%w: decimals out of range (coin=%d pc=%d)",
			layout.ErrMalformedAccount, pool.CoinDecimals, pool.PcDecimals)
	}

	return &PoolKeys{
		AmmID:         ammID,
		BaseMint:      market.BaseMint,
		QuoteMint:     market.QuoteMint,
		BaseDecimals:  uint8(pool.CoinDecimals),
		QuoteDecimals: uint8(pool.PcDecimals),
		OpenOrders:    pool.OpenOrders,
		TargetOrders:  pool.TargetOrders,
		BaseVault:     pool.CoinVault,
		QuoteVault:    pool.PcVault,

		MarketID:         pool.Market,
		MarketAuthority:  marketAuthority,
		MarketBaseVault:  market.BaseVault,
		MarketQuoteVault: market.QuoteVault,
		Bids:             market.Bids,
		Asks:             market.Asks,
		EventQueue:       market.EventQueue,

		AmmProgram:      programs.AmmV4,
		AuthorityV4:     programs.AuthorityV4,
		OpenBookProgram: programs.OpenBook,
		TokenProgram:    programs.TokenProgram,

		SwapFeeNumerator:   pool.SwapFeeNumerator,
		SwapFeeDenominator: pool.SwapFeeDenominator,
	}, nil
}

// TokenMint returns the non-WSOL side of the pool.
func (k *PoolKeys) TokenMint(wsol solana.PublicKey) solana.PublicKey {
	if k.BaseMint.Equals(wsol) {
		return k.QuoteMint
	}
	return k.BaseMint
}
