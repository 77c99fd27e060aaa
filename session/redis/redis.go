// Package redis persists session research contexts in Redis so several
// interface processes can share them.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Munger/llm-interface/config"
	"github.com/Munger/llm-interface/session"
)

const keyPrefix = "llmi:session:"

// Conn dials Redis and verifies the connection with a ping.
func Conn(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.Timeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Store keeps one JSON document per session under a TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func key(sessionID string) string { return keyPrefix + sessionID }

func (s *Store) Load(ctx context.Context, sessionID string) (session.ResearchContext, bool, error) {
	val, err := s.client.Get(ctx, key(sessionID)).Result()
	if err == redis.Nil {
		return session.ResearchContext{}, false, nil
	}
	if err != nil {
		return session.ResearchContext{}, false, fmt.Errorf("redis get: %w", err)
	}
	var rc session.ResearchContext
	if err := json.Unmarshal([]byte(val), &rc); err != nil {
		return session.ResearchContext{}, false, fmt.Errorf("decoding session %s: %w", sessionID, err)
	}
	return rc, true, nil
}

func (s *Store) Save(ctx context.Context, rc session.ResearchContext) error {
	data, err := json.Marshal(rc)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", rc.SessionID, err)
	}
	if err := s.client.Set(ctx, key(rc.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
