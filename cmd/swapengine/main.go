package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/config"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/constants"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/quote"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/swapengine"
	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func loadEnv() {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))
}

func main() {
	loadEnv()

	mode := flag.String("mode", "quote", "resolve | quote | execute")
	mintStr := flag.String("mint", "", "token mint address (base58)")
	side := flag.String("side", "buy", "buy (spend SOL) | sell (spend tokens)")
	amt := flag.String("amt", "", "amount in UI units: SOL for buy, tokens for sell")
	slippageBps := flag.Uint("slippage-bps", 0, "slippage in bps (0 = SWAP_SLIPPAGE_BPS)")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})

	mint, err := solana.PublicKeyFromBase58(*mintStr)
	if err != nil {
		fmt.Println("missing or invalid -mint:", err)
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Println("invalid configuration:", err)
		os.Exit(2)
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	engine, err := swapengine.NewEngine(ctx, cfg, swapengine.EngineOptions{Logger: logger})
	if err != nil {
		fmt.Println("failed to init swapengine:", err)
		os.Exit(1)
	}
	defer engine.Close()

	if *mode == "resolve" {
		keys, err := engine.Resolve(ctx, mint)
		if err != nil {
			fmt.Println("resolve failed:", err)
			os.Exit(1)
		}
		res, err := engine.Reserves(ctx, keys)
		if err != nil {
			fmt.Println("reserves failed:", err)
			os.Exit(1)
		}
		fmt.Printf("amm=%s base=%s quote=%s market=%s fee=%d/%d reserves=%s %s / %s SOL\n",
			keys.AmmID, keys.BaseMint, keys.QuoteMint, keys.MarketID,
			keys.SwapFeeNumerator, keys.SwapFeeDenominator,
			res.Base, constants.Symbol(mint.String()), res.Quote)
		return
	}

	dir, err := quote.ParseDirection(*side)
	if err != nil {
		fmt.Println("invalid -side (use buy|sell)")
		os.Exit(2)
	}
	amount, err := decimal.NewFromString(*amt)
	if err != nil || amount.Sign() <= 0 {
		fmt.Println("missing -amt (must be > 0)")
		os.Exit(2)
	}
	if *slippageBps >= 10000 {
		fmt.Println("invalid -slippage-bps (must be < 10000)")
		os.Exit(2)
	}

	req := swapengine.SwapRequest{
		Mint:        mint,
		Direction:   dir,
		Amount:      amount,
		SlippageBps: uint16(*slippageBps),
	}

	switch *mode {
	case "quote":
		q, err := engine.Quote(ctx, req)
		if err != nil {
			fmt.Println("quote failed:", err)
			os.Exit(1)
		}
		fmt.Printf("pool=%s side=%s amount_in=%s amount_out=%s min_out_raw=%d price_impact=%s%% fee=%s%%\n",
			q.Pool.AmmID, q.Quote.Direction, q.Quote.AmountIn, q.Quote.AmountOut,
			q.MinAmountOut, q.Quote.PriceImpact.StringFixed(4), q.Quote.FeePercent)
	case "execute":
		res, err := engine.Execute(ctx, req)
		if err != nil {
			fmt.Println("execute failed:", err)
			if res == nil {
				os.Exit(1)
			}
		}
		fmt.Printf("id=%s state=%s sig=%s duration=%s\n", res.ID, res.State, res.Signature, res.Duration)
		if res.State != swapengine.StateConfirmed {
			os.Exit(1)
		}
	default:
		fmt.Println("invalid -mode (use resolve|quote|execute)")
		os.Exit(2)
	}
}
