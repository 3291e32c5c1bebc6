package readings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel carries every stored reading as JSON.
const Channel = "readings:new"

// Cache keeps the latest reading per device in redis and fans new readings out over pub/sub.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache returns redis-backed cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(deviceID string) string {
	return fmt.Sprintf("readings:latest:%s", deviceID)
}

// Publish stores r as the device's latest reading and announces it on Channel.
func (c *Cache) Publish(ctx context.Context, r Reading) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.key(r.DeviceID), data, c.ttl)
		pipe.Publish(ctx, Channel, data)
		return nil
	})
	return err
}

// Latest returns the cached latest reading, or ErrNotFound.
func (c *Cache) Latest(ctx context.Context, deviceID string) (*Reading, error) {
	result, err := c.client.Get(ctx, c.key(deviceID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var r Reading
	if err := json.Unmarshal([]byte(result), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Subscribe calls handle for every message on Channel until ctx is done.
// Messages that fail to decode are passed to onError and skipped.
func (c *Cache) Subscribe(ctx context.Context, handle func(Reading), onError func(error)) error {
	sub := c.client.Subscribe(ctx, Channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("readings: subscribe: %w", err)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var r Reading
			if err := json.Unmarshal([]byte(msg.Payload), &r); err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			handle(r)
		}
	}
}
