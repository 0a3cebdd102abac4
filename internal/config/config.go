package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	// RPC settings
	RPCUrl               string
	RPCCommitment        string
	RPCRequestsPerSecond float64

	// HTTP client settings
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Redis settings; empty RedisAddr disables the journal and flags
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// Wallet
	WalletPrivateKey string

	// Program id overrides (YAML); empty means mainnet defaults
	ProgramsFile string

	// Swap execution
	SlippageBps     uint16
	SubmitRetries   int
	SubmitBackoff   time.Duration
	ConfirmInterval time.Duration
	ConfirmAttempts int
	// FeePercentOverride replaces the pool's own fee when set (e.g. "0.25")
	FeePercentOverride string

	// Risk limits
	MaxSwapSOL        float64
	DailyLimitSOL     float64
	MaxSlippageBps    uint16
	MaxPriceImpactBps uint16 // 0 disables the check
	MinBalanceSOL     float64

	// HTTP API
	APIAddr string
	APIKey  string
	DevMode bool
	// Per-client limits for the pool and quote endpoints
	APIQuoteRPS   float64
	APIQuoteBurst int

	LogLevel string
}

func Load() *Config {
	return &Config{
		// RPC
		RPCUrl:               getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		RPCCommitment:        getEnv("SOLANA_COMMITMENT", "confirmed"),
		RPCRequestsPerSecond: getFloatEnv("RPC_REQUESTS_PER_SECOND", 8),

		// HTTP
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 3),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 500*time.Millisecond),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "solana"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		WalletPrivateKey: getEnv("WALLET_PRIVATE_KEY", ""),
		ProgramsFile:     getEnv("RAYDIUM_PROGRAMS_FILE", ""),

		// Swap
		SlippageBps:        uint16(getIntEnv("SWAP_SLIPPAGE_BPS", 200)),
		SubmitRetries:      getIntEnv("SWAP_SUBMIT_RETRIES", 3),
		SubmitBackoff:      getDurationEnv("SWAP_SUBMIT_BACKOFF", time.Second),
		ConfirmInterval:    getDurationEnv("SWAP_CONFIRM_INTERVAL", 500*time.Millisecond),
		ConfirmAttempts:    getIntEnv("SWAP_CONFIRM_ATTEMPTS", 40),
		FeePercentOverride: getEnv("SWAP_FEE_PERCENT", ""),

		// Risk
		MaxSwapSOL:        getFloatEnv("RISK_MAX_SWAP_SOL", 1.0),
		DailyLimitSOL:     getFloatEnv("RISK_DAILY_LIMIT_SOL", 10.0),
		MaxSlippageBps:    uint16(getIntEnv("RISK_MAX_SLIPPAGE_BPS", 1000)),
		MaxPriceImpactBps: uint16(getIntEnv("RISK_MAX_PRICE_IMPACT_BPS", 500)),
		MinBalanceSOL:     getFloatEnv("RISK_MIN_BALANCE_SOL", 0.01),

		// API
		APIAddr: getEnv("API_ADDR", ":8090"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		APIQuoteRPS:   getFloatEnv("API_QUOTE_RPS", 2),
		APIQuoteBurst: getIntEnv("API_QUOTE_BURST", 5),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.RPCUrl) == "" {
		errs = append(errs, errors.New("SOLANA_RPC_URL is required"))
	}
	switch c.RPCCommitment {
	case "processed", "confirmed", "finalized":
	default:
		errs = append(errs, fmt.Errorf("SOLANA_COMMITMENT %q must be processed, confirmed or finalized", c.RPCCommitment))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("MAX_RETRIES must be >= 0"))
	}
	if c.SlippageBps >= 10000 {
		errs = append(errs, fmt.Errorf("SWAP_SLIPPAGE_BPS %d must be < 10000", c.SlippageBps))
	}
	if c.MaxSlippageBps > 0 && c.SlippageBps > c.MaxSlippageBps {
		errs = append(errs, fmt.Errorf("SWAP_SLIPPAGE_BPS %d exceeds RISK_MAX_SLIPPAGE_BPS %d", c.SlippageBps, c.MaxSlippageBps))
	}
	if c.SubmitRetries < 1 {
		errs = append(errs, errors.New("SWAP_SUBMIT_RETRIES must be >= 1"))
	}
	if c.ConfirmAttempts < 1 || c.ConfirmInterval <= 0 {
		errs = append(errs, errors.New("SWAP_CONFIRM_ATTEMPTS and SWAP_CONFIRM_INTERVAL must be positive"))
	}
	if c.FeePercentOverride != "" {
		if _, err := c.FeeOverride(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// FeeOverride parses FeePercentOverride; nil when no override is set.
func (c *Config) FeeOverride() (*decimal.Decimal, error) {
	if c.FeePercentOverride == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(c.FeePercentOverride)
	if err != nil {
		return nil, fmt.Errorf("SWAP_FEE_PERCENT %q: %w", c.FeePercentOverride, err)
	}
	if d.Sign() < 0 || d.Cmp(decimal.NewFromInt(100)) >= 0 {
		return nil, fmt.Errorf("SWAP_FEE_PERCENT %s outside [0, 100)", d)
	}
	return &d, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
