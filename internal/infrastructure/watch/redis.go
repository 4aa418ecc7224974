package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisTrigger reloads whenever a message is published on a channel, for
// sources that cannot be watched on disk.
type RedisTrigger struct {
	client  redis.UniversalClient
	reload  ReloadFunc
	logger  *slog.Logger
	channel string
}

// NewRedisTrigger creates a trigger on channel.
func NewRedisTrigger(client redis.UniversalClient, channel string, reload ReloadFunc, logger *slog.Logger) (*RedisTrigger, error) {
	if channel == "" {
		return nil, errors.New("redis channel is required")
	}
	if reload == nil {
		return nil, errors.New("reload function is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisTrigger{
		client:  client,
		reload:  reload,
		logger:  logger,
		channel: channel,
	}, nil
}

// Run subscribes and reloads once per message until ctx is done.
func (t *RedisTrigger) Run(ctx context.Context) error {
	sub := t.client.Subscribe(ctx, t.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to subscribe to %s: %w", t.channel, err)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			t.logger.Debug("reload requested", "channel", msg.Channel, "payload", msg.Payload)
			if err := t.reload(ctx); err != nil {
				t.logger.Warn("reload failed, keeping previous generation", "error", err)
			}
		}
	}
}
