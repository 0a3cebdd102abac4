package cache

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/models"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/storage"
	"github.com/sirupsen/logrus"
)

var _ storage.SwapStore = (*ClickHouseStore)(nil)

const createSwapAttemptsTable = `
	CREATE TABLE IF NOT EXISTS swap_attempts (
		id             String,
		signature      String,
		mint           String,
		pool           String,
		direction      LowCardinality(String),
		amount_in      String,
		expected_out   String,
		min_amount_out UInt64,
		slippage_bps   UInt16,
		state          LowCardinality(String),
		error          String,
		started_at     DateTime64(3),
		finished_at    DateTime64(3),
		duration_ms    Int64
	) ENGINE = MergeTree
	ORDER BY (mint, started_at)
`

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Logger   *logrus.Logger
}

type ClickHouseStore struct {
	conn   driver.Conn
	logger *logrus.Logger
}

func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Username == "" {
		cfg.Username = "default"
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	if err := conn.Exec(ctx, createSwapAttemptsTable); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create swap_attempts table: %w", err)
	}

	cfg.Logger.WithFields(logrus.Fields{
		"addr":     cfg.Addr,
		"database": cfg.Database,
	}).Info("connected to ClickHouse")

	return &ClickHouseStore{conn: conn, logger: cfg.Logger}, nil
}

func (c *ClickHouseStore) InsertSwap(ctx context.Context, a *models.SwapAttempt) error {
	query := `
		INSERT INTO swap_attempts (
			id, signature, mint, pool, direction, amount_in, expected_out,
			min_amount_out, slippage_bps, state, error, started_at, finished_at, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		a.ID,
		a.Signature,
		a.Mint,
		a.Pool,
		a.Direction,
		a.AmountIn,
		a.ExpectedOut,
		a.MinAmountOut,
		a.SlippageBps,
		a.State,
		a.Error,
		a.StartedAt,
		a.FinishedAt,
		a.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("failed to insert swap attempt: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
