package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/constants"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/models"
	"github.com/aman-zulfiqar/solana-amm-swap/internal/storage"
	"github.com/sirupsen/logrus"
)

// PublishSwap sends the attempt to the live channel and its per-mint channel.
func (r *RedisCache) PublishSwap(ctx context.Context, attempt *models.SwapAttempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal swap attempt: %w", err)
	}

	channels := []string{
		constants.PubSubChannelSwaps,
		fmt.Sprintf("%s:%s", constants.PubSubChannelSwaps, attempt.Mint),
	}

	pipe := r.client.Pipeline()
	for _, channel := range channels {
		pipe.Publish(ctx, channel, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish swap: %w", err)
	}
	return nil
}

// SubscribeSwaps returns a channel of attempts from the live feed. The
// channel closes when ctx is cancelled.
func (r *RedisCache) SubscribeSwaps(ctx context.Context) (<-chan *models.SwapAttempt, error) {
	return r.subscribe(ctx, constants.PubSubChannelSwaps)
}

// Subscribe calls handler for every attempt on channel until ctx ends.
func (r *RedisCache) Subscribe(ctx context.Context, channel string, handler storage.SwapHandler) error {
	ch, err := r.subscribe(ctx, channel)
	if err != nil {
		return err
	}
	for a := range ch {
		handler(a)
	}
	return ctx.Err()
}

func (r *RedisCache) subscribe(ctx context.Context, channel string) (<-chan *models.SwapAttempt, error) {
	pubsub := r.client.Subscribe(ctx, channel)
	// wait for the subscription confirmation so callers don't miss messages
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	r.logger.WithField("channel", channel).Info("subscribed to swap feed")

	out := make(chan *models.SwapAttempt, 64)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var a models.SwapAttempt
				if err := json.Unmarshal([]byte(msg.Payload), &a); err != nil {
					r.logger.WithFields(logrus.Fields{
						"channel": msg.Channel,
						"error":   err,
					}).Warn("error unmarshaling swap attempt")
					continue
				}
				select {
				case out <- &a:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
