package layout

import (
	"github.com/gagliardetto/solana-go"
)

// MarketStateSize is the size of an OpenBook/Serum v3 market account.
const MarketStateSize = 388

// OpenBook/Serum market offsets (MARKET_STATE_LAYOUT_V3). The account starts
// with 5 bytes of "serum" padding and ends with 7 bytes of padding.
const (
	MarketAccountFlagsOffset          = 5
	MarketOwnAddressOffset            = 13
	MarketVaultSignerNonceOffset      = 45
	MarketBaseMintOffset              = 53
	MarketQuoteMintOffset             = 85
	MarketBaseVaultOffset             = 117
	MarketBaseDepositsTotalOffset     = 149
	MarketBaseFeesAccruedOffset       = 157
	MarketQuoteVaultOffset            = 165
	MarketQuoteDepositsTotalOffset    = 197
	MarketQuoteFeesAccruedOffset      = 205
	MarketQuoteDustThresholdOffset    = 213
	MarketRequestQueueOffset          = 221
	MarketEventQueueOffset            = 253
	MarketBidsOffset                  = 285
	MarketAsksOffset                  = 317
	MarketBaseLotSizeOffset           = 349
	MarketQuoteLotSizeOffset          = 357
	MarketFeeRateBpsOffset            = 365
	MarketReferrerRebateAccruedOffset = 373
	MarketTrailingPaddingOffset       = 381
)

// Account flag bits, least significant first.
const (
	FlagInitialized uint64 = 1 << iota
	FlagMarket
	FlagOpenOrders
	FlagRequestQueue
	FlagEventQueue
	FlagBids
	FlagAsks
)

// MarketFlags is the unpacked account_flags bitfield.
type MarketFlags struct {
	Initialized  bool
	Market       bool
	OpenOrders   bool
	RequestQueue bool
	EventQueue   bool
	Bids         bool
	Asks         bool
}

// Bits packs the flags back into their u64 form.
func (f MarketFlags) Bits() uint64 {
	var out uint64
	for _, b := range []struct {
		set bool
		bit uint64
	}{
		{f.Initialized, FlagInitialized},
		{f.Market, FlagMarket},
		{f.OpenOrders, FlagOpenOrders},
		{f.RequestQueue, FlagRequestQueue},
		{f.EventQueue, FlagEventQueue},
		{f.Bids, FlagBids},
		{f.Asks, FlagAsks},
	} {
		if b.set {
			out |= b.bit
		}
	}
	return out
}

func unpackFlags(v uint64) MarketFlags {
	return MarketFlags{
		Initialized:  v&FlagInitialized != 0,
		Market:       v&FlagMarket != 0,
		OpenOrders:   v&FlagOpenOrders != 0,
		RequestQueue: v&FlagRequestQueue != 0,
		EventQueue:   v&FlagEventQueue != 0,
		Bids:         v&FlagBids != 0,
		Asks:         v&FlagAsks != 0,
	}
}

// MarketState is a decoded OpenBook/Serum v3 market account.
type MarketState struct {
	Flags                 MarketFlags
	OwnAddress            solana.PublicKey
	VaultSignerNonce      uint64
	BaseMint              solana.PublicKey
	QuoteMint             solana.PublicKey
	BaseVault             solana.PublicKey
	BaseDepositsTotal     uint64
	BaseFeesAccrued       uint64
	QuoteVault            solana.PublicKey
	QuoteDepositsTotal    uint64
	QuoteFeesAccrued      uint64
	QuoteDustThreshold    uint64
	RequestQueue          solana.PublicKey
	EventQueue            solana.PublicKey
	Bids                  solana.PublicKey
	Asks                  solana.PublicKey
	BaseLotSize           uint64
	QuoteLotSize          uint64
	FeeRateBps            uint64
	ReferrerRebateAccrued uint64
}

func marketU64Fields(m *MarketState) []u64Field {
	return []u64Field{
		{MarketVaultSignerNonceOffset, &m.VaultSignerNonce},
		{MarketBaseDepositsTotalOffset, &m.BaseDepositsTotal},
		{MarketBaseFeesAccruedOffset, &m.BaseFeesAccrued},
		{MarketQuoteDepositsTotalOffset, &m.QuoteDepositsTotal},
		{MarketQuoteFeesAccruedOffset, &m.QuoteFeesAccrued},
		{MarketQuoteDustThresholdOffset, &m.QuoteDustThreshold},
		{MarketBaseLotSizeOffset, &m.BaseLotSize},
		{MarketQuoteLotSizeOffset, &m.QuoteLotSize},
		{MarketFeeRateBpsOffset, &m.FeeRateBps},
		{MarketReferrerRebateAccruedOffset, &m.ReferrerRebateAccrued},
	}
}

func marketKeyFields(m *MarketState) []keyField {
	return []keyField{
		{MarketOwnAddressOffset, &m.OwnAddress},
		{MarketBaseMintOffset, &m.BaseMint},
		{MarketQuoteMintOffset, &m.QuoteMint},
		{MarketBaseVaultOffset, &m.BaseVault},
		{MarketQuoteVaultOffset, &m.QuoteVault},
		{MarketRequestQueueOffset, &m.RequestQueue},
		{MarketEventQueueOffset, &m.EventQueue},
		{MarketBidsOffset, &m.Bids},
		{MarketAsksOffset, &m.Asks},
	}
}

// DecodeMarketState decodes an OpenBook/Serum v3 market account.
func DecodeMarketState(data []byte) (*MarketState, error) {
	if err := checkSize("market state", data, MarketStateSize); err != nil {
		return nil, err
	}

	m := &MarketState{Flags: unpackFlags(readU64(data, MarketAccountFlagsOffset))}
	for _, f := range marketU64Fields(m) {
		*f.v = readU64(data, f.off)
	}
	for _, f := range marketKeyFields(m) {
		*f.v = readPubkey(data, f.off)
	}
	return m, nil
}

// EncodeMarketState is the inverse of DecodeMarketState. Padding bytes are
// written as zero.
func EncodeMarketState(m *MarketState) []byte {
	data := make([]byte, MarketStateSize)
	if m == nil {
		return data
	}
	putU64(data, MarketAccountFlagsOffset, m.Flags.Bits())
	for _, f := range marketU64Fields(m) {
		putU64(data, f.off, *f.v)
	}
	for _, f := range marketKeyFields(m) {
		putPubkey(data, f.off, *f.v)
	}
	return data
}
