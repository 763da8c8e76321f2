package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmeshcher/storefront-core/internal/model"
)

// RedisSessions хранит сессии клиентов в Redis с ограниченным временем жизни.
type RedisSessions struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessions создаёт хранилище сессий. Каждая запись живёт ttl с момента последней записи.
func NewRedisSessions(client *redis.Client, ttl time.Duration) *RedisSessions {
	return &RedisSessions{
		client: client,
		ttl:    ttl,
	}
}

// Get возвращает сессию клиента или nil, если её нет.
func (r *RedisSessions) Get(ctx context.Context, clientID string) (*model.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(clientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

// Put сохраняет сессию клиента.
func (r *RedisSessions) Put(ctx context.Context, clientID string, session model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(clientID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Delete удаляет сессию клиента.
func (r *RedisSessions) Delete(ctx context.Context, clientID string) error {
	if err := r.client.Del(ctx, sessionKey(clientID)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

func sessionKey(clientID string) string {
	return fmt.Sprintf("session:%s", clientID)
}
