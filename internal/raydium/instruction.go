package raydium

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// SwapBaseInDiscriminator selects "swap exact amount in" on AMM v4.
const SwapBaseInDiscriminator uint8 = 9

// SwapDataSize is the payload length: discriminator + two u64.
const SwapDataSize = 1 + 8 + 8

// EncodeSwapData builds [9][amount_in u64 LE][min_amount_out u64 LE].
func EncodeSwapData(amountIn, minAmountOut uint64) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)

	if err := enc.WriteUint8(SwapBaseInDiscriminator); err != nil {
		return nil, fmt.Errorf("failed to write discriminator: %w", err)
	}
	if err := enc.WriteUint64(amountIn, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode amount in: %w", err)
	}
	if err := enc.WriteUint64(minAmountOut, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode minimum amount out: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildSwapInstruction assembles the AMM v4 swap instruction.
//
// Account order (AMM v4 swap_base_in):
// 0.  token_program (read-only)
// 1.  amm (writable)
// 2.  amm_authority v4 (read-only)
// 3.  amm_open_orders (writable)
// 4.  amm_target_orders (writable)
// 5.  pool_coin_vault (writable)
// 6.  pool_pc_vault (writable)
// 7.  openbook_program (read-only)
// 8.  market (writable)
// 9.  market_bids (writable)
// 10. market_asks (writable)
// 11. market_event_queue (writable)
// 12. market_coin_vault (writable)
// 13. market_pc_vault (writable)
// 14. market_vault_signer (read-only)
// 15. user_source_token (writable)
// 16. user_destination_token (writable)
// 17. user_owner (signer)
func BuildSwapInstruction(
	keys *PoolKeys,
	amountIn uint64,
	minAmountOut uint64,
	userSource solana.PublicKey,
	userDestination solana.PublicKey,
	owner solana.PublicKey,
) (*solana.GenericInstruction, error) {
	if keys == nil {
		return nil, fmt.Errorf("pool keys cannot be nil")
	}

	data, err := EncodeSwapData(amountIn, minAmountOut)
	if err != nil {
		return nil, err
	}

	accounts := solana.AccountMetaSlice{
		{PublicKey: keys.TokenProgram, IsWritable: false, IsSigner: false},
		{PublicKey: keys.AmmID, IsWritable: true, IsSigner: false},
		{PublicKey: keys.AuthorityV4, IsWritable: false, IsSigner: false},
		{PublicKey: keys.OpenOrders, IsWritable: true, IsSigner: false},
		{PublicKey: keys.TargetOrders, IsWritable: true, IsSigner: false},
		{PublicKey: keys.BaseVault, IsWritable: true, IsSigner: false},
		{PublicKey: keys.QuoteVault, IsWritable: true, IsSigner: false},
		{PublicKey: keys.OpenBookProgram, IsWritable: false, IsSigner: false},
		{PublicKey: keys.MarketID, IsWritable: true, IsSigner: false},
		{PublicKey: keys.Bids, IsWritable: true, IsSigner: false},
		{PublicKey: keys.Asks, IsWritable: true, IsSigner: false},
		{PublicKey: keys.EventQueue, IsWritable: true, IsSigner: false},
		{PublicKey: keys.MarketBaseVault, IsWritable: true, IsSigner: false},
		{PublicKey: keys.MarketQuoteVault, IsWritable: true, IsSigner: false},
		{PublicKey: keys.MarketAuthority, IsWritable: false, IsSigner: false},
		{PublicKey: userSource, IsWritable: true, IsSigner: false},
		{PublicKey: userDestination, IsWritable: true, IsSigner: false},
		{PublicKey: owner, IsWritable: false, IsSigner: true},
	}

	return solana.NewInstruction(keys.AmmProgram, accounts, data), nil
}
