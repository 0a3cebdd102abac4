package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/constants"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/models"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var _ storage.SwapJournal = (*RedisCache)(nil)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// MaxRecent caps the recent list (constants.MaxRecentSwaps when 0)
	MaxRecent int64

	Logger *logrus.Logger
}

// RedisCache keeps the recent swap attempts list and the live pub/sub feed.
type RedisCache struct {
	client    *redis.Client
	maxRecent int64
	logger    *logrus.Logger
}

func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis at %s: %w", cfg.Addr, err)
	}

	rc := NewRedisCacheFromClient(client, cfg.Logger)
	if cfg.MaxRecent > 0 {
		rc.maxRecent = cfg.MaxRecent
	}
	return rc, nil
}

// NewRedisCacheFromClient wraps an existing client; the cache takes ownership
// and closes it on Close.
func NewRedisCacheFromClient(client *redis.Client, logger *logrus.Logger) *RedisCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisCache{
		client:    client,
		maxRecent: constants.MaxRecentSwaps,
		logger:    logger,
	}
}

// Client exposes the underlying client so the flags store can share it.
func (r *RedisCache) Client() *redis.Client {
	return r.client
}

func (r *RedisCache) AddRecentSwap(ctx context.Context, attempt *models.SwapAttempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal swap attempt: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, constants.RedisKeyRecentSwaps, data)
	pipe.LTrim(ctx, constants.RedisKeyRecentSwaps, 0, r.maxRecent-1)
	if attempt.Mint != "" {
		mintKey := constants.RedisKeyMintPrefix + attempt.Mint
		pipe.LPush(ctx, mintKey, data)
		pipe.LTrim(ctx, mintKey, 0, r.maxRecent-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add recent swap: %w", err)
	}
	return nil
}

func (r *RedisCache) GetRecentSwaps(ctx context.Context, limit int64) ([]*models.SwapAttempt, error) {
	return r.readList(ctx, constants.RedisKeyRecentSwaps, limit)
}

// GetRecentSwapsForMint returns attempts for one token, newest first.
func (r *RedisCache) GetRecentSwapsForMint(ctx context.Context, mint string, limit int64) ([]*models.SwapAttempt, error) {
	return r.readList(ctx, constants.RedisKeyMintPrefix+mint, limit)
}

func (r *RedisCache) readList(ctx context.Context, key string, limit int64) ([]*models.SwapAttempt, error) {
	if limit <= 0 {
		limit = r.maxRecent
	}
	vals, err := r.client.LRange(ctx, key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}

	out := make([]*models.SwapAttempt, 0, len(vals))
	for _, v := range vals {
		var a models.SwapAttempt
		if err := json.Unmarshal([]byte(v), &a); err != nil {
			r.logger.WithError(err).WithField("key", key).Warn("skipping malformed swap record")
			continue
		}
		out = append(out, &a)
	}
	return out, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
