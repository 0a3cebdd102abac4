package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/config"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/server"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/swapengine"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the API server
// It wires the swap engine into the HTTP server and shuts down on SIGINT/SIGTERM
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine, err := swapengine.NewEngine(ctx, cfg, swapengine.EngineOptions{Logger: logger, Registry: reg})
	if err != nil {
		logger.WithError(err).Fatal("failed to init swap engine")
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.WithError(err).Warn("engine close")
		}
	}()

	h := &server.Handlers{
		Swaps:    engine,
		Journal:  engine.Journal(),
		Gatherer: reg,
		DevMode:  cfg.DevMode,
		Logger:   logger,
	}
	// Flags is an interface; leave it nil rather than wrapping a nil *Store
	if fs := engine.Flags(); fs != nil {
		h.Flags = fs
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:       cfg.APIAddr,
			DevMode:    cfg.DevMode,
			APIKey:     cfg.APIKey,
			QuoteRPS:   cfg.APIQuoteRPS,
			QuoteBurst: cfg.APIQuoteBurst,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	logger.WithFields(logrus.Fields{
		"addr":    cfg.APIAddr,
		"journal": h.Journal != nil,
	}).Info("api server starting")
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("api server failed")
	}

	if err := srv.WaitClosed(context.Background()); err != nil {
		logger.WithError(err).Warn("shutdown did not complete")
	}
}
