// Package memory implements the two-tier memory subsystem: a short-term
// sliding conversation window per session, and a long-term accumulated
// profile per user.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

// ShortTermStore maintains a bounded, TTL'd list of recent conversation
// turns per session, backed by a Redis list.
type ShortTermStore struct {
	client     *redis.Client
	windowSize int
	ttl        time.Duration
}

// NewShortTermStore creates a ShortTermStore with the given window size
// (max records retained) and TTL (reset on every write).
func NewShortTermStore(client *redis.Client, windowSize int, ttl time.Duration) *ShortTermStore {
	return &ShortTermStore{client: client, windowSize: windowSize, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:messages", sessionID)
}

// Append pushes record onto the front of sessionID's window, trims the
// window to the configured size, and refreshes the session TTL.
func (s *ShortTermStore) Append(ctx context.Context, sessionID string, record model.ShortTermRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("memory.ShortTermStore.Append: marshal: %w", err)
	}

	key := sessionKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, raw)
	pipe.LTrim(ctx, key, 0, int64(s.windowSize-1))
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("memory.ShortTermStore.Append: %w", err)
	}
	return nil
}

// Recent returns sessionID's window in chronological order (oldest first),
// or an empty slice if the session has no history or the store is
// unavailable — callers proceed without prior-turn context rather than
// failing the request.
func (s *ShortTermStore) Recent(ctx context.Context, sessionID string) []model.ShortTermRecord {
	raw, err := s.client.LRange(ctx, sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil
	}

	records := make([]model.ShortTermRecord, 0, len(raw))
	for _, item := range raw {
		var r model.ShortTermRecord
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			continue
		}
		records = append(records, r)
	}

	// LRANGE returns newest-first (since Append uses LPUSH); reverse to
	// chronological order for prompt assembly.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records
}
