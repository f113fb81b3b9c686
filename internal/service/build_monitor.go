package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Fliplet/fliplet-widget-publishing/internal/models"
	"github.com/Fliplet/fliplet-widget-publishing/internal/platform"
	"github.com/Fliplet/fliplet-widget-publishing/internal/session"
	"github.com/Fliplet/fliplet-widget-publishing/internal/websocket"
	"github.com/Fliplet/fliplet-widget-publishing/pkg/logger"
)

// BuildMonitor 빌드 트리거 이후의 제출을 주기적으로 폴링해서
// 상태 변화를 세션 캐시와 WebSocket으로 전파한다.
// 폴링 간격은 initial에서 시작해 매회 2배씩 늘어나고 max에서 멈춘다.
type BuildMonitor struct {
	repo     SubmissionAPI
	sessions session.Store
	hub      *websocket.Hub // nil 허용 (푸시 없이 폴링만)

	initial time.Duration
	max     time.Duration

	mu      sync.Mutex
	watches map[string]context.CancelFunc // appID+"/"+submissionID
	wg      sync.WaitGroup
	stopped bool

	logger *zap.Logger
}

// NewBuildMonitor BuildMonitor 생성
func NewBuildMonitor(repo SubmissionAPI, sessions session.Store, hub *websocket.Hub, initial, max time.Duration) *BuildMonitor {
	if initial <= 0 {
		initial = 5 * time.Second
	}
	if max < initial {
		max = initial
	}

	return &BuildMonitor{
		repo:     repo,
		sessions: sessions,
		hub:      hub,
		initial:  initial,
		max:      max,
		watches:  make(map[string]context.CancelFunc),
		logger:   logger.L(),
	}
}

// Watch 제출 폴링 시작. 이미 감시 중이면 무시한다 (재기동 복구 경로에서
// 상태 프로브마다 호출되므로 멱등이어야 함)
func (m *BuildMonitor) Watch(appID string, p models.Platform, submissionID string) {
	key := appID + "/" + submissionID

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	if _, exists := m.watches[key]; exists {
		m.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.watches[key] = cancel
	m.wg.Add(1)
	m.mu.Unlock()

	m.logger.Info("Build monitor started",
		zap.String("appId", appID),
		zap.String("submissionId", submissionID))

	go m.poll(ctx, key, appID, p, submissionID)
}

// Unwatch 제출 폴링 중단
func (m *BuildMonitor) Unwatch(appID, submissionID string) {
	key := appID + "/" + submissionID

	m.mu.Lock()
	cancel, exists := m.watches[key]
	if exists {
		delete(m.watches, key)
	}
	m.mu.Unlock()

	if exists {
		cancel()
	}
}

// Stop 모든 폴링을 중단하고 종료를 기다린다
func (m *BuildMonitor) Stop() {
	m.mu.Lock()
	m.stopped = true
	for key, cancel := range m.watches {
		cancel()
		delete(m.watches, key)
	}
	m.mu.Unlock()

	m.wg.Wait()
}

func (m *BuildMonitor) poll(ctx context.Context, key, appID string, p models.Platform, submissionID string) {
	defer m.wg.Done()
	defer func() {
		m.mu.Lock()
		delete(m.watches, key)
		m.mu.Unlock()
	}()

	interval := m.initial
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		sub, err := m.repo.GetByID(ctx, appID, submissionID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// 일시 장애일 수 있으므로 감시는 유지하고 다음 틱을 기다린다
			m.logger.Warn("Build poll failed",
				zap.String("appId", appID),
				zap.String("submissionId", submissionID),
				zap.Error(err))
		} else {
			done := m.observe(ctx, appID, p, sub)
			if done {
				m.logger.Info("Build monitor finished",
					zap.String("appId", appID),
					zap.String("submissionId", submissionID),
					zap.String("status", string(sub.Status)))
				return
			}
		}

		interval *= 2
		if interval > m.max {
			interval = m.max
		}
		timer.Reset(interval)
	}
}

// observe 폴링 결과 반영. 빌드가 끝났으면 true를 반환한다
func (m *BuildMonitor) observe(ctx context.Context, appID string, p models.Platform, sub *models.Submission) bool {
	sess, err := m.sessions.Get(ctx, appID, p)
	if err != nil {
		m.logger.Warn("Session read failed during build poll",
			zap.String("appId", appID),
			zap.Error(err))
	} else {
		if sess == nil {
			sess = &session.Session{AppID: appID, Platform: p}
		}
		sess.Current = sub
		if err := m.sessions.Save(ctx, sess); err != nil {
			m.logger.Warn("Session write failed during build poll",
				zap.String("appId", appID),
				zap.Error(err))
		}
	}

	strat, err := platform.FromString(string(p))
	currentStep := ""
	if err == nil {
		currentStep = strat.CurrentStep(sub.Data.Status)
	}

	if m.hub != nil {
		m.hub.SendSubmissionStatus(appID, websocket.SubmissionStatusMessage{
			SubmissionID: sub.ID,
			Platform:     p,
			Status:       sub.Status,
			StepStatus:   sub.Data.Status,
			CurrentStep:  currentStep,
		})
	}

	// started + BUILD_TRIGGERED를 벗어나면 빌드가 끝난 것이다
	return sub.Status != models.SubmissionStatusStarted ||
		sub.Data.Status != models.StepStatusBuildTriggered
}
