package flags

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("flag not found")
	ErrInvalidKey = errors.New("invalid flag key")
)

type Flag struct {
	Key       string    `json:"key"`
	Value     bool      `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reader is the read side used by the swap executor's kill switch.
type Reader interface {
	Enabled(ctx context.Context, key string, def bool) (bool, error)
}
