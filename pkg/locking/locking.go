package locking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("lock not acquired")
	ErrLockNotHeld     = errors.New("lock not held")
)

// Lock 획득한 락 핸들
type Lock interface {
	Release(ctx context.Context) error
}

// Manager 제출 단위 뮤테이션 직렬화를 위한 락 관리자.
// 오케스트레이터 자체는 락을 제공하지 않으므로 호출 계층(HTTP 핸들러)이
// 같은 제출 id에 대한 동시 뮤테이션을 여기서 걸러낸다.
type Manager interface {
	// Acquire 락 획득 시도. 이미 잡혀 있으면 ErrLockNotAcquired
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// RedisManager Redis SET NX 기반 분산 락
type RedisManager struct {
	client *redis.Client
}

func NewRedisManager(client *redis.Client) *RedisManager {
	return &RedisManager{client: client}
}

type redisLock struct {
	client *redis.Client
	key    string
	owner  string
}

func (m *RedisManager) Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	owner := uuid.NewString()

	ok, err := m.client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	return &redisLock{client: m.client, key: key, owner: owner}, nil
}

// Release 자신이 획득한 락만 해제 (Lua 스크립트로 원자적 확인)
func (l *redisLock) Release(ctx context.Context) error {
	script := redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`)

	released, err := script.Run(ctx, l.client, []string{l.key}, l.owner).Int()
	if err != nil {
		return err
	}
	if released == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// MemoryManager 프로세스 내 락 (Redis 미사용 단일 인스턴스용)
type MemoryManager struct {
	mu    sync.Mutex
	locks map[string]memoryEntry
}

type memoryEntry struct {
	owner     string
	expiresAt time.Time
}

func NewMemoryManager() *MemoryManager {
	return &MemoryManager{locks: make(map[string]memoryEntry)}
}

type memoryLock struct {
	manager *MemoryManager
	key     string
	owner   string
}

func (m *MemoryManager) Acquire(_ context.Context, key string, ttl time.Duration) (Lock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.locks[key]; ok && time.Now().Before(entry.expiresAt) {
		return nil, ErrLockNotAcquired
	}

	owner := uuid.NewString()
	m.locks[key] = memoryEntry{owner: owner, expiresAt: time.Now().Add(ttl)}
	return &memoryLock{manager: m, key: key, owner: owner}, nil
}

func (l *memoryLock) Release(_ context.Context) error {
	l.manager.mu.Lock()
	defer l.manager.mu.Unlock()

	entry, ok := l.manager.locks[l.key]
	if !ok || entry.owner != l.owner {
		return ErrLockNotHeld
	}
	delete(l.manager.locks, l.key)
	return nil
}
