package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Fliplet/fliplet-widget-publishing/internal/models"
)

// RedisStore Redis 기반 세션 저장소 (다중 인스턴스 배포용)
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore Redis 세션 저장소 생성. ttl 0이면 24시간
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(appID string, p models.Platform) string {
	return fmt.Sprintf("publish:session:%s:%s", appID, p)
}

func (s *RedisStore) Get(ctx context.Context, appID string, p models.Platform) (*Session, error) {
	data, err := s.client.Get(ctx, redisKey(appID, p)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now()

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := s.client.Set(ctx, redisKey(sess.AppID, sess.Platform), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, appID string, p models.Platform) error {
	if err := s.client.Del(ctx, redisKey(appID, p)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
