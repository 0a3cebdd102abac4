package layout

import (
	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

// PoolStateSize is the size of a Raydium AMM v4 liquidity state account.
const PoolStateSize = 752

// Raydium AMM v4 liquidity state offsets (LIQUIDITY_STATE_LAYOUT_V4).
const (
	PoolStatusOffset                 = 0
	PoolNonceOffset                  = 8
	PoolOrderNumOffset               = 16
	PoolDepthOffset                  = 24
	PoolCoinDecimalsOffset           = 32
	PoolPcDecimalsOffset             = 40
	PoolStateOffset                  = 48
	PoolResetFlagOffset              = 56
	PoolMinSizeOffset                = 64
	PoolVolMaxCutRatioOffset         = 72
	PoolAmountWaveRatioOffset        = 80
	PoolCoinLotSizeOffset            = 88
	PoolPcLotSizeOffset              = 96
	PoolMinPriceMultiplierOffset     = 104
	PoolMaxPriceMultiplierOffset     = 112
	PoolSystemDecimalsValueOffset    = 120
	PoolMinSeparateNumeratorOffset   = 128
	PoolMinSeparateDenominatorOffset = 136
	PoolTradeFeeNumeratorOffset      = 144
	PoolTradeFeeDenominatorOffset    = 152
	PoolPnlNumeratorOffset           = 160
	PoolPnlDenominatorOffset         = 168
	PoolSwapFeeNumeratorOffset       = 176
	PoolSwapFeeDenominatorOffset     = 184
	PoolNeedTakePnlCoinOffset        = 192
	PoolNeedTakePnlPcOffset          = 200
	PoolTotalPnlPcOffset             = 208
	PoolTotalPnlCoinOffset           = 216
	PoolOpenTimeOffset               = 224
	PoolPunishPcAmountOffset         = 232
	PoolPunishCoinAmountOffset       = 240
	PoolOrderbookToInitTimeOffset    = 248

	PoolSwapCoinInAmountOffset  = 256 // u128
	PoolSwapPcOutAmountOffset   = 272 // u128
	PoolSwapCoin2PcFeeOffset    = 288
	PoolSwapPcInAmountOffset    = 296 // u128
	PoolSwapCoinOutAmountOffset = 312 // u128
	PoolSwapPc2CoinFeeOffset    = 328

	PoolCoinVaultOffset     = 336
	PoolPcVaultOffset       = 368
	PoolCoinMintOffset      = 400
	PoolPcMintOffset        = 432
	PoolLpMintOffset        = 464
	PoolOpenOrdersOffset    = 496
	PoolMarketOffset        = 528
	PoolMarketProgramOffset = 560
	PoolTargetOrdersOffset  = 592
	PoolWithdrawQueueOffset = 624
	PoolTempLpTokenOffset   = 656
	PoolAmmOwnerOffset      = 688
	PoolPnlOwnerOffset      = 720
)

// PoolState is a decoded Raydium AMM v4 pool account. "Coin" is the base side
// and "Pc" the quote side of the physical layout.
type PoolState struct {
	Status                 uint64
	Nonce                  uint64
	OrderNum               uint64
	Depth                  uint64
	CoinDecimals           uint64
	PcDecimals             uint64
	State                  uint64
	ResetFlag              uint64
	MinSize                uint64
	VolMaxCutRatio         uint64
	AmountWaveRatio        uint64
	CoinLotSize            uint64
	PcLotSize              uint64
	MinPriceMultiplier     uint64
	MaxPriceMultiplier     uint64
	SystemDecimalsValue    uint64
	MinSeparateNumerator   uint64
	MinSeparateDenominator uint64
	TradeFeeNumerator      uint64
	TradeFeeDenominator    uint64
	PnlNumerator           uint64
	PnlDenominator         uint64
	SwapFeeNumerator       uint64
	SwapFeeDenominator     uint64
	NeedTakePnlCoin        uint64
	NeedTakePnlPc          uint64
	TotalPnlPc             uint64
	TotalPnlCoin           uint64
	PoolOpenTime           uint64
	PunishPcAmount         uint64
	PunishCoinAmount       uint64
	OrderbookToInitTime    uint64

	SwapCoinInAmount  uint128.Uint128
	SwapPcOutAmount   uint128.Uint128
	SwapCoin2PcFee    uint64
	SwapPcInAmount    uint128.Uint128
	SwapCoinOutAmount uint128.Uint128
	SwapPc2CoinFee    uint64

	CoinVault      solana.PublicKey
	PcVault        solana.PublicKey
	CoinMint       solana.PublicKey
	PcMint         solana.PublicKey
	LpMint         solana.PublicKey
	OpenOrders     solana.PublicKey
	Market         solana.PublicKey
	MarketProgram  solana.PublicKey
	TargetOrders   solana.PublicKey
	WithdrawQueue  solana.PublicKey
	TempLpTokenAcc solana.PublicKey
	AmmOwner       solana.PublicKey
	PnlOwner       solana.PublicKey
}

// poolU64Fields lists every u64 field, including the two fee counters that sit
// between the u128 accumulators.
func poolU64Fields(p *PoolState) []u64Field {
	return []u64Field{
		{PoolStatusOffset, &p.Status},
		{PoolNonceOffset, &p.Nonce},
		{PoolOrderNumOffset, &p.OrderNum},
		{PoolDepthOffset, &p.Depth},
		{PoolCoinDecimalsOffset, &p.CoinDecimals},
		{PoolPcDecimalsOffset, &p.PcDecimals},
		{PoolStateOffset, &p.State},
		{PoolResetFlagOffset, &p.ResetFlag},
		{PoolMinSizeOffset, &p.MinSize},
		{PoolVolMaxCutRatioOffset, &p.VolMaxCutRatio},
		{PoolAmountWaveRatioOffset, &p.AmountWaveRatio},
		{PoolCoinLotSizeOffset, &p.CoinLotSize},
		{PoolPcLotSizeOffset, &p.PcLotSize},
		{PoolMinPriceMultiplierOffset, &p.MinPriceMultiplier},
		{PoolMaxPriceMultiplierOffset, &p.MaxPriceMultiplier},
		{PoolSystemDecimalsValueOffset, &p.SystemDecimalsValue},
		{PoolMinSeparateNumeratorOffset, &p.MinSeparateNumerator},
		{PoolMinSeparateDenominatorOffset, &p.MinSeparateDenominator},
		{PoolTradeFeeNumeratorOffset, &p.TradeFeeNumerator},
		{PoolTradeFeeDenominatorOffset, &p.TradeFeeDenominator},
		{PoolPnlNumeratorOffset, &p.PnlNumerator},
		{PoolPnlDenominatorOffset, &p.PnlDenominator},
		{PoolSwapFeeNumeratorOffset, &p.SwapFeeNumerator},
		{PoolSwapFeeDenominatorOffset, &p.SwapFeeDenominator},
		{PoolNeedTakePnlCoinOffset, &p.NeedTakePnlCoin},
		{PoolNeedTakePnlPcOffset, &p.NeedTakePnlPc},
		{PoolTotalPnlPcOffset, &p.TotalPnlPc},
		{PoolTotalPnlCoinOffset, &p.TotalPnlCoin},
		{PoolOpenTimeOffset, &p.PoolOpenTime},
		{PoolPunishPcAmountOffset, &p.PunishPcAmount},
		{PoolPunishCoinAmountOffset, &p.PunishCoinAmount},
		{PoolOrderbookToInitTimeOffset, &p.OrderbookToInitTime},
		{PoolSwapCoin2PcFeeOffset, &p.SwapCoin2PcFee},
		{PoolSwapPc2CoinFeeOffset, &p.SwapPc2CoinFee},
	}
}

func poolU128Fields(p *PoolState) []u128Field {
	return []u128Field{
		{PoolSwapCoinInAmountOffset, &p.SwapCoinInAmount},
		{PoolSwapPcOutAmountOffset, &p.SwapPcOutAmount},
		{PoolSwapPcInAmountOffset, &p.SwapPcInAmount},
		{PoolSwapCoinOutAmountOffset, &p.SwapCoinOutAmount},
	}
}

func poolKeyFields(p *PoolState) []keyField {
	return []keyField{
		{PoolCoinVaultOffset, &p.CoinVault},
		{PoolPcVaultOffset, &p.PcVault},
		{PoolCoinMintOffset, &p.CoinMint},
		{PoolPcMintOffset, &p.PcMint},
		{PoolLpMintOffset, &p.LpMint},
		{PoolOpenOrdersOffset, &p.OpenOrders},
		{PoolMarketOffset, &p.Market},
		{PoolMarketProgramOffset, &p.MarketProgram},
		{PoolTargetOrdersOffset, &p.TargetOrders},
		{PoolWithdrawQueueOffset, &p.WithdrawQueue},
		{PoolTempLpTokenOffset, &p.TempLpTokenAcc},
		{PoolAmmOwnerOffset, &p.AmmOwner},
		{PoolPnlOwnerOffset, &p.PnlOwner},
	}
}

// DecodePoolState decodes a Raydium AMM v4 pool account. The length is checked
// before any field is read; on error the returned state is nil.
func DecodePoolState(data []byte) (*PoolState, error) {
	if err := checkSize("pool state", data, PoolStateSize); err != nil {
		return nil, err
	}

	p := &PoolState{}
	for _, f := range poolU64Fields(p) {
		*f.v = readU64(data, f.off)
	}
	for _, f := range poolU128Fields(p) {
		*f.v = ReadUint128(data, f.off)
	}
	for _, f := range poolKeyFields(p) {
		*f.v = readPubkey(data, f.off)
	}
	return p, nil
}

// EncodePoolState is the inverse of DecodePoolState.
func EncodePoolState(p *PoolState) []byte {
	data := make([]byte, PoolStateSize)
	if p == nil {
		return data
	}
	for _, f := range poolU64Fields(p) {
		putU64(data, f.off, *f.v)
	}
	for _, f := range poolU128Fields(p) {
		putUint128(data, f.off, *f.v)
	}
	for _, f := range poolKeyFields(p) {
		putPubkey(data, f.off, *f.v)
	}
	return data
}
