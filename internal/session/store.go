package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Fliplet/fliplet-widget-publishing/internal/models"
)

// Session (앱, 플랫폼) 쌍의 세션 컨텍스트.
// organizationId는 첫 필요 시 조회 후 캐시되고 이후 변경되지 않는다.
// Current는 오케스트레이터의 성공한 연산만이 갱신하는 로컬 제출 캐시다.
type Session struct {
	AppID          string             `json:"appId"`
	Platform       models.Platform    `json:"platform"`
	OrganizationID string             `json:"organizationId,omitempty"`
	Current        *models.Submission `json:"current,omitempty"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// Store 세션 캐시 저장소. 단일 인스턴스는 메모리, 다중 인스턴스는 Redis 구현 사용
type Store interface {
	// Get 세션 조회. 없으면 (nil, nil)
	Get(ctx context.Context, appID string, p models.Platform) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, appID string, p models.Platform) error
}

func sessionKey(appID string, p models.Platform) string {
	return fmt.Sprintf("%s/%s", appID, p)
}

// MemoryStore 프로세스 내 세션 저장소
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (s *MemoryStore) Get(_ context.Context, appID string, p models.Platform) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionKey(appID, p)]
	if !ok {
		return nil, nil
	}
	// 호출자가 들고 있는 복사본 수정이 저장소에 새지 않도록 복사
	out := *sess
	if sess.Current != nil {
		current := *sess.Current
		out.Current = &current
	}
	return &out, nil
}

func (s *MemoryStore) Save(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *sess
	if sess.Current != nil {
		current := *sess.Current
		stored.Current = &current
	}
	stored.UpdatedAt = time.Now()
	s.sessions[sessionKey(sess.AppID, sess.Platform)] = &stored
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, appID string, p models.Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionKey(appID, p))
	return nil
}
