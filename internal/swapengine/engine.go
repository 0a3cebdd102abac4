package swapengine

import (
	"context"
	"fmt"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/cache"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/config"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/flags"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/observability"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/raydium"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/rpc"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/storage"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/wallet"
	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Engine is the main orchestrator for swap operations
type Engine struct {
	rpcClient  *rpc.Client
	wallet     *wallet.Wallet
	resolver   *raydium.Resolver
	reserves   *raydium.ReserveReader
	executor   *Executor
	risk       *RiskManager
	redisCache *cache.RedisCache
	clickhouse *cache.ClickHouseStore
	flagStore  *flags.Store
	logger     *logrus.Logger
}

// EngineOptions carries process-level dependencies that do not come from
// the environment.
type EngineOptions struct {
	Logger   *logrus.Logger
	Registry prometheus.Registerer
}

// NewEngine creates a swap engine with all dependencies. Without a wallet key
// the engine can resolve and quote but not execute. Redis and ClickHouse are
// optional and connected only when their address is set.
func NewEngine(ctx context.Context, cfg *config.Config, opts EngineOptions) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("engine: config is nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}

	feeOverride, err := cfg.FeeOverride()
	if err != nil {
		return nil, err
	}

	programs, err := raydium.LoadPrograms(cfg.ProgramsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load program addresses: %w", err)
	}

	// 1. RPC client
	rpcClient := rpc.NewClient(rpc.ClientConfig{
		BaseURL:           cfg.RPCUrl,
		Timeout:           cfg.HTTPTimeout,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
		RequestsPerSecond: cfg.RPCRequestsPerSecond,
		Burst:             int(cfg.RPCRequestsPerSecond) + 1,
		Commitment:        cfg.RPCCommitment,
		Logger:            logger,
	})

	e := &Engine{
		rpcClient: rpcClient,
		reserves:  raydium.NewReserveReader(rpcClient, programs),
		risk: NewRiskManager(RiskConfig{
			MaxSwapSOL:        cfg.MaxSwapSOL,
			DailyLimitSOL:     cfg.DailyLimitSOL,
			MaxSlippageBps:    cfg.MaxSlippageBps,
			MaxPriceImpactBps: cfg.MaxPriceImpactBps,
			MinBalanceSOL:     cfg.MinBalanceSOL,
		}),
		logger: logger,
	}

	// 2. Pool resolver
	e.resolver, err = raydium.NewResolver(raydium.ResolverConfig{
		Reader:   rpcClient,
		Programs: &programs,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	// 3. Wallet
	if cfg.WalletPrivateKey != "" {
		e.wallet, err = wallet.NewWallet(wallet.WalletConfig{
			PrivateKey: cfg.WalletPrivateKey,
			Chain:      rpcClient,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create wallet: %w", err)
		}
	}

	// 4. Redis journal + flags
	if cfg.RedisAddr != "" {
		e.redisCache, err = cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		e.flagStore, err = flags.NewStore(e.redisCache.Client())
		if err != nil {
			_ = e.Close()
			return nil, err
		}
	}

	// 5. ClickHouse
	if cfg.ClickHouseAddr != "" {
		e.clickhouse, err = cache.NewClickHouseStore(ctx, cache.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
			Logger:   logger,
		})
		if err != nil {
			_ = e.Close()
			return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
	}

	// 6. Executor
	execCfg := ExecutorConfig{
		Pools:           e.resolver,
		Reserves:        e.reserves,
		Submitter:       NewRPCSubmitter(rpcClient, nil),
		Accounts:        NewATAResolver(rpcClient),
		Risk:            e.risk,
		Metrics:         observability.NewMetrics(opts.Registry),
		Logger:          logger,
		WrappedSOL:      programs.WrappedSOL,
		FeeOverride:     feeOverride,
		SlippageBps:     cfg.SlippageBps,
		SubmitRetries:   cfg.SubmitRetries,
		SubmitBackoff:   cfg.SubmitBackoff,
		ConfirmInterval: cfg.ConfirmInterval,
		ConfirmAttempts: cfg.ConfirmAttempts,
	}
	if e.wallet != nil {
		execCfg.Builder = e.wallet
		execCfg.Signer = e.wallet
		execCfg.Balance = e.wallet
	}
	if e.redisCache != nil {
		execCfg.Journal = e.redisCache
		execCfg.Flags = e.flagStore
	}
	if e.clickhouse != nil {
		execCfg.Store = e.clickhouse
	}

	e.executor, err = NewExecutor(execCfg)
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

// Resolve finds the WSOL pool for mint.
func (e *Engine) Resolve(ctx context.Context, mint solana.PublicKey) (*raydium.PoolKeys, error) {
	return e.resolver.Resolve(ctx, mint)
}

// Reserves reads the current vault balances of a resolved pool.
func (e *Engine) Reserves(ctx context.Context, keys *raydium.PoolKeys) (*raydium.Reserves, error) {
	return e.reserves.Read(ctx, keys)
}

func (e *Engine) Quote(ctx context.Context, req SwapRequest) (*QuoteResult, error) {
	return e.executor.Quote(ctx, req)
}

func (e *Engine) Execute(ctx context.Context, req SwapRequest) (*SwapResult, error) {
	return e.executor.Execute(ctx, req)
}

// Journal returns the Redis journal, or nil when Redis is not configured.
func (e *Engine) Journal() storage.SwapJournal {
	if e.redisCache == nil {
		return nil
	}
	return e.redisCache
}

// Flags returns the flag store, or nil when Redis is not configured.
func (e *Engine) Flags() *flags.Store {
	return e.flagStore
}

// WalletInfo reports the configured wallet; nil when running without one.
func (e *Engine) WalletInfo(ctx context.Context) (*WalletInfo, error) {
	if e.wallet == nil {
		return nil, nil
	}
	balance, err := e.wallet.BalanceSOL(ctx)
	if err != nil {
		return nil, err
	}
	return &WalletInfo{Address: e.wallet.Address(), BalanceSOL: balance}, nil
}

func (e *Engine) RiskStatus() RiskStatus {
	return e.risk.Status()
}

// Close cleans up all resources
func (e *Engine) Close() error {
	var errs []error

	if err := e.rpcClient.Close(); err != nil {
		errs = append(errs, fmt.Errorf("rpc close: %w", err))
	}
	if e.redisCache != nil {
		if err := e.redisCache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if e.clickhouse != nil {
		if err := e.clickhouse.Close(); err != nil {
			errs = append(errs, fmt.Errorf("clickhouse close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

type WalletInfo struct {
	Address    string          `json:"address"`
	BalanceSOL decimal.Decimal `json:"balance_sol"`
}
