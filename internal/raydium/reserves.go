package raydium

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/layout"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// ErrReserveUnavailable means a vault balance could not be read.
var ErrReserveUnavailable = errors.New("reserve unavailable")

// Reserves is a point-in-time view of a pool's vaults in UI units. Quote is
// always the WSOL side; Base is always the traded token.
type Reserves struct {
	Base          decimal.Decimal
	Quote         decimal.Decimal
	TokenDecimals uint8
	ReadAt        time.Time
}

// ReserveReader reads vault balances for resolved pools.
type ReserveReader struct {
	reader AccountReader
	wsol   solana.PublicKey
}

func NewReserveReader(reader AccountReader, programs Programs) *ReserveReader {
	return &ReserveReader{reader: reader, wsol: programs.WrappedSOL}
}

// Read fetches both vaults in one batched call and normalizes them so that
// the returned quote side is WSOL.
func (r *ReserveReader) Read(ctx context.Context, keys *PoolKeys) (*Reserves, error) {
	if keys == nil {
		return nil, fmt.Errorf("read reserves: pool keys are nil")
	}

	accounts, err := r.reader.GetMultipleAccounts(ctx, []solana.PublicKey{keys.BaseVault, keys.QuoteVault})
	if err != nil {
		return nil, fmt.Errorf("%w: getMultipleAccounts: %v", ErrReserveUnavailable, err)
	}
	if len(accounts) != 2 {
		return nil, fmt.Errorf("%w: expected 2 vault accounts, got %d", ErrReserveUnavailable, len(accounts))
	}

	baseAmount, err := vaultAmount(keys.BaseVault, accounts[0])
	if err != nil {
		return nil, err
	}
	quoteAmount, err := vaultAmount(keys.QuoteVault, accounts[1])
	if err != nil {
		return nil, err
	}

	base := toUI(baseAmount, keys.BaseDecimals)
	quote := toUI(quoteAmount, keys.QuoteDecimals)

	if keys.BaseMint.Equals(r.wsol) {
		return &Reserves{
			Base:          quote,
			Quote:         base,
			TokenDecimals: keys.QuoteDecimals,
			ReadAt:        time.Now(),
		}, nil
	}

	return &Reserves{
		Base:          base,
		Quote:         quote,
		TokenDecimals: keys.BaseDecimals,
		ReadAt:        time.Now(),
	}, nil
}

func vaultAmount(vault solana.PublicKey, data []byte) (uint64, error) {
	if data == nil {
		return 0, fmt.Errorf("%w: vault %s not found", ErrReserveUnavailable, vault)
	}
	acc, err := layout.DecodeTokenAccount(data)
	if err != nil {
		return 0, fmt.Errorf("%w: vault %s: %v", ErrReserveUnavailable, vault, err)
	}
	return acc.Amount, nil
}

func toUI(raw uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -int32(decimals))
}
