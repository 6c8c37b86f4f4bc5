// Package cache provides the Redis-backed game action log. Every relayed
// intent and state broadcast is queued for the history consumer; the queue
// is fire-and-forget and never blocks game traffic.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Rdb is the shared Redis client. Nil when Redis is not configured; callers
// must check before publishing.
var Rdb *redis.Client

// actionQueueKey is the list the history consumer drains.
const actionQueueKey = "betteruno:game_actions"

// InitRedis connects the shared client using REDIS_URL, defaulting to a
// local instance.
func InitRedis() error {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/0"
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	Rdb = client
	logrus.Infof("Connected to Redis at %s", opts.Addr)
	return nil
}

// GameActionRecord is one logged room action: an intent, a state broadcast,
// or a room lifecycle event.
type GameActionRecord struct {
	RoomID      string          `json:"roomId"`
	ActionIndex int             `json:"actionIndex"`
	PlayerID    string          `json:"playerId,omitempty"`
	ActionType  string          `json:"actionType"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Timestamp   int64           `json:"timestamp"`
}

// PublishGameAction pushes a record onto the action queue.
func PublishGameAction(ctx context.Context, rec GameActionRecord) error {
	if Rdb == nil {
		return fmt.Errorf("redis client not initialized")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal action record: %w", err)
	}
	if err := Rdb.RPush(ctx, actionQueueKey, data).Err(); err != nil {
		return fmt.Errorf("rpush action record: %w", err)
	}
	return nil
}

// LogAction publishes asynchronously with a short timeout, in the
// background so the relay path never waits on Redis.
func LogAction(rec GameActionRecord) {
	if Rdb == nil {
		return
	}
	rec.Timestamp = time.Now().UnixMilli()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := PublishGameAction(ctx, rec); err != nil {
			logrus.WithError(err).Warnf("failed to log action %s for room %s", rec.ActionType, rec.RoomID)
		}
	}()
}
