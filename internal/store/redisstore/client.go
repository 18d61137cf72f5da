// Package redisstore constructs the shared redis.Client instances backing
// the semantic cache and short-term memory store.
package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NewClient parses redisURL, overrides its logical DB number with db, and
// verifies connectivity with a PING before returning.
func NewClient(ctx context.Context, redisURL string, db int) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redisstore.NewClient: parse url: %w", err)
	}
	opts.DB = db

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redisstore.NewClient: ping: %w", err)
	}
	return client, nil
}
