package raydium

import (
	"context"
	"errors"
	"fmt"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/layout"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// ErrNoPoolFound means neither mint ordering matched an AMM v4 pool.
var ErrNoPoolFound = errors.New("no pool found")

// MemcmpFilter pins Bytes at Offset within an account's data.
type MemcmpFilter struct {
	Offset uint64
	Bytes  []byte
}

// AccountReader is the subset of the Solana RPC surface the resolver needs.
// GetAccount returns (nil, nil) when the account does not exist;
// GetMultipleAccounts returns a nil entry for each missing account.
type AccountReader interface {
	GetAccount(ctx context.Context, address solana.PublicKey) ([]byte, error)
	SearchAccounts(ctx context.Context, program solana.PublicKey, filters []MemcmpFilter, dataSize uint64) ([]solana.PublicKey, error)
	GetMultipleAccounts(ctx context.Context, addresses []solana.PublicKey) ([][]byte, error)
}

// searchAttempt is one ordering of (base, quote) mints for the pool search.
type searchAttempt struct {
	name      string
	baseMint  solana.PublicKey
	quoteMint solana.PublicKey
}

// Resolver turns a token mint into PoolKeys.
type Resolver struct {
	reader   AccountReader
	programs Programs
	logger   *logrus.Logger
}

// ResolverConfig holds the resolver's collaborators.
type ResolverConfig struct {
	Reader   AccountReader
	Programs *Programs // nil = mainnet defaults
	Logger   *logrus.Logger
}

func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	if cfg.Reader == nil {
		return nil, fmt.Errorf("resolver: account reader is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	programs := DefaultPrograms()
	if cfg.Programs != nil {
		programs = *cfg.Programs
	}
	return &Resolver{reader: cfg.Reader, programs: programs, logger: cfg.Logger}, nil
}

// Programs returns the program addresses this resolver was built with.
func (r *Resolver) Programs() Programs { return r.programs }

// Resolve finds the mint/WSOL pool and loads its keys.
func (r *Resolver) Resolve(ctx context.Context, mint solana.PublicKey) (*PoolKeys, error) {
	ammID, err := r.FindPoolAddress(ctx, mint)
	if err != nil {
		return nil, err
	}
	return r.ResolvePool(ctx, ammID)
}

// FindPoolAddress searches the AMM program for a pool pairing mint with WSOL.
// WSOL is tried in the base slot (offset 400) first with the target at 432,
// then the other way round. The first attempt with any match wins, and
// within it the first account.
func (r *Resolver) FindPoolAddress(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, error) {
	attempts := []searchAttempt{
		{name: "wsol-as-base", baseMint: r.programs.WrappedSOL, quoteMint: mint},
		{name: "target-as-base", baseMint: mint, quoteMint: r.programs.WrappedSOL},
	}

	for _, a := range attempts {
		matches, err := r.reader.SearchAccounts(ctx, r.programs.AmmV4, []MemcmpFilter{
			{Offset: layout.PoolCoinMintOffset, Bytes: a.baseMint.Bytes()},
			{Offset: layout.PoolPcMintOffset, Bytes: a.quoteMint.Bytes()},
		}, layout.PoolStateSize)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("search pools (%s): %w", a.name, err)
		}

		r.logger.WithFields(logrus.Fields{
			"attempt": a.name,
			"mint":    mint.String(),
			"matches": len(matches),
		}).Debug("amm v4 pool search")

		if pool, ok := firstMatch(matches); ok {
			return pool, nil
		}
	}

	return solana.PublicKey{}, fmt.Errorf("%w for mint %s", ErrNoPoolFound, mint)
}

func firstMatch(matches []solana.PublicKey) (solana.PublicKey, bool) {
	if len(matches) == 0 {
		return solana.PublicKey{}, false
	}
	return matches[0], true
}

// ResolvePool loads and decodes a known pool and its market, then derives the
// market authority.
func (r *Resolver) ResolvePool(ctx context.Context, ammID solana.PublicKey) (*PoolKeys, error) {
	poolData, err := r.reader.GetAccount(ctx, ammID)
	if err != nil {
		return nil, fmt.Errorf("get pool account %s: %w", ammID, err)
	}
	pool, err := layout.DecodePoolState(poolData)
	if err != nil {
		return nil, fmt.Errorf("decode pool %s: %w", ammID, err)
	}

	marketData, err := r.reader.GetAccount(ctx, pool.Market)
	if err != nil {
		return nil, fmt.Errorf("get market account %s: %w", pool.Market, err)
	}
	market, err := layout.DecodeMarketState(marketData)
	if err != nil {
		return nil, fmt.Errorf("decode market %s: %w", pool.Market, err)
	}

	authority, err := DeriveMarketAuthority(pool.Market, market.VaultSignerNonce, r.programs.OpenBook)
	if err != nil {
		return nil, err
	}

	keys, err := NewPoolKeys(ammID, pool, market, authority, r.programs)
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"amm":        ammID.String(),
		"market":     pool.Market.String(),
		"base_mint":  keys.BaseMint.String(),
		"quote_mint": keys.QuoteMint.String(),
	}).Debug("resolved amm v4 pool")

	return keys, nil
}
