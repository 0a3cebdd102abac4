package storage

import (
	"context"
	"io"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/models"
)

// SwapJournal is the hot store for recent swap attempts plus the live feed.
type SwapJournal interface {
	// AddRecentSwap pushes an attempt onto the capped recent list
	AddRecentSwap(ctx context.Context, attempt *models.SwapAttempt) error

	// GetRecentSwaps returns the newest attempts first
	GetRecentSwaps(ctx context.Context, limit int64) ([]*models.SwapAttempt, error)

	// GetRecentSwapsForMint is GetRecentSwaps narrowed to one token
	GetRecentSwapsForMint(ctx context.Context, mint string, limit int64) ([]*models.SwapAttempt, error)

	// PublishSwap fans an attempt out to subscribers
	PublishSwap(ctx context.Context, attempt *models.SwapAttempt) error

	// SubscribeSwaps streams attempts published after the call
	SubscribeSwaps(ctx context.Context) (<-chan *models.SwapAttempt, error)

	Ping(ctx context.Context) error
	io.Closer
}

// SwapStore is durable analytics storage for swap attempts.
type SwapStore interface {
	InsertSwap(ctx context.Context, attempt *models.SwapAttempt) error
	Ping(ctx context.Context) error
	io.Closer
}

// SwapHandler processes one published attempt
type SwapHandler func(*models.SwapAttempt)
