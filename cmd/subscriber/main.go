// Command subscriber tails the live swap attempt feed published to Redis.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/cache"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/config"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/constants"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/models"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func loadEnv() {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))
}

func main() {
	loadEnv()

	mint := flag.String("mint", "", "only show attempts for this mint")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	cfg := config.Load()
	if cfg.RedisAddr == "" {
		logger.Fatal("REDIS_ADDR is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down subscriber")
		cancel()
	}()

	rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Logger:   logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}
	defer rc.Close()

	channel := constants.PubSubChannelSwaps
	if *mint != "" {
		channel = fmt.Sprintf("%s:%s", constants.PubSubChannelSwaps, *mint)
	}

	logger.WithField("channel", channel).Info("subscriber running, press Ctrl+C to stop")
	err = rc.Subscribe(ctx, channel, func(a *models.SwapAttempt) {
		entry := logger.WithFields(logrus.Fields{
			"id":        a.ID,
			"symbol":    constants.Symbol(a.Mint),
			"direction": a.Direction,
			"amount_in": a.AmountIn,
			"state":     a.State,
			"duration":  a.DurationMS,
		})
		if a.Signature != "" {
			entry = entry.WithField("sig", a.Signature)
		}
		if a.Succeeded() {
			entry.Info("swap confirmed")
			return
		}
		entry.WithField("error", a.Error).Warn("swap did not land")
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Fatal("subscription failed")
	}
}
